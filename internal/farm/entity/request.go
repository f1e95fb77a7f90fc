package entity

import (
	"time"
)

// 建盘请求状态
const (
	RequestStatusPending   = "pending"
	RequestStatusCancelled = "cancelled"
	RequestStatusFulfilled = "fulfilled"
)

// TrayCreationRequest 建盘请求
// 操作员"决定播种 N 盘"与"库存实际分配并生成托盘"之间的排队点。
// 配方名/品种名在写入时快照，配方后续编辑不影响历史请求；
// steps_snapshot 冻结请求时刻的步骤表，保证在途计划稳定。
type TrayCreationRequest struct {
	ID            string     `json:"id" gorm:"primaryKey;size:32"`
	FarmID        string     `json:"farm_id" gorm:"size:32;not null;index"`
	RecipeID      string     `json:"recipe_id" gorm:"size:32;not null;index"`
	RecipeName    string     `json:"recipe_name" gorm:"size:128;not null"`
	VarietyName   string     `json:"variety_name" gorm:"size:128"`
	StepsSnapshot JSONBArray `json:"steps_snapshot" gorm:"type:jsonb"`
	BatchID       *string    `json:"batch_id" gorm:"size:32;index"`
	CustomerID    *string    `json:"customer_id" gorm:"size:32"`
	Quantity      int        `json:"quantity" gorm:"not null;default:1"`
	SowDate       time.Time  `json:"sow_date" gorm:"type:date;not null;index"`
	Status        string     `json:"status" gorm:"size:16;not null;default:pending"`
	RequestedBy   string     `json:"requested_by" gorm:"size:32"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	// 关联
	Recipe *Recipe    `json:"recipe,omitempty" gorm:"foreignKey:RecipeID"`
	Batch  *SeedBatch `json:"batch,omitempty" gorm:"foreignKey:BatchID"`
}

func (TrayCreationRequest) TableName() string {
	return "tray_creation_requests"
}

// 任务类型
const (
	TaskTypeSoak        = "soak"
	TaskTypeSeed        = "seed"
	TaskTypeHarvest     = "harvest"
	TaskTypeDeliver     = "deliver"
	TaskTypeMaintenance = "maintenance"
	TaskTypeTrayStep    = "tray_step"
)

// 任务完成状态
const (
	CompletionStatusCompleted  = "completed"
	CompletionStatusInProgress = "in_progress"
	CompletionStatusSkipped    = "skipped"
)

// CompletionKey 任务完成台账的复合键
// 同一逻辑任务每次从配方/订单重新推导时都会落到同一个键上，
// 台账因此成为重复完成/重复建盘的唯一防线。
type CompletionKey struct {
	FarmID     string    `json:"farm_id"`
	TaskType   string    `json:"task_type"`
	TaskDate   time.Time `json:"task_date"`
	RecipeID   string    `json:"recipe_id"`
	CustomerID *string   `json:"customer_id"`
	ProductID  *string   `json:"product_id"`
}

// TaskCompletion 任务完成台账
// 复合键上有唯一索引，写入走 upsert，天然幂等
type TaskCompletion struct {
	ID         string    `json:"id" gorm:"primaryKey;size:32"`
	FarmID     string    `json:"farm_id" gorm:"size:32;not null;uniqueIndex:uniq_completion_key"`
	TaskType   string    `json:"task_type" gorm:"size:16;not null;uniqueIndex:uniq_completion_key"`
	TaskDate   time.Time `json:"task_date" gorm:"type:date;not null;uniqueIndex:uniq_completion_key"`
	RecipeID   string    `json:"recipe_id" gorm:"size:32;not null;uniqueIndex:uniq_completion_key"`
	CustomerID string    `json:"customer_id" gorm:"size:32;not null;default:'';uniqueIndex:uniq_completion_key"`
	ProductID  string    `json:"product_id" gorm:"size:32;not null;default:'';uniqueIndex:uniq_completion_key"`
	Status     string    `json:"status" gorm:"size:16;not null"`
	MarkedBy   string    `json:"marked_by" gorm:"size:32"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (TaskCompletion) TableName() string {
	return "task_completions"
}

// Key 返回台账行对应的复合键
func (tc *TaskCompletion) Key() CompletionKey {
	key := CompletionKey{
		FarmID:   tc.FarmID,
		TaskType: tc.TaskType,
		TaskDate: tc.TaskDate,
		RecipeID: tc.RecipeID,
	}
	if tc.CustomerID != "" {
		id := tc.CustomerID
		key.CustomerID = &id
	}
	if tc.ProductID != "" {
		id := tc.ProductID
		key.ProductID = &id
	}
	return key
}
