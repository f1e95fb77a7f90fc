package entity

import (
	"time"
)

// 托盘状态（存储值只有 active/lost，Harvested/阶段名在读取时推导）
const (
	TrayStatusActive = "active"
	TrayStatusLost   = "lost"
)

// 托盘展示阶段
const (
	TrayStageGrowing   = "Growing"
	TrayStageHarvested = "Harvested"
	TrayStageLost      = "Lost"
)

// 托盘步骤状态
const (
	TrayStepStatusPending   = "pending"
	TrayStepStatusCompleted = "completed"
	TrayStepStatusSkipped   = "skipped"
)

// Tray 托盘，生产的最小单元
type Tray struct {
	ID          string     `json:"id" gorm:"primaryKey;size:32"`
	FarmID      string     `json:"farm_id" gorm:"size:32;not null;index"`
	RecipeID    string     `json:"recipe_id" gorm:"size:32;not null;index"`
	CustomerID  *string    `json:"customer_id" gorm:"size:32;index"`
	BatchID     *string    `json:"batch_id" gorm:"size:32;index"`
	SowDate     time.Time  `json:"sow_date" gorm:"type:date;not null"`
	HarvestDate *time.Time `json:"harvest_date" gorm:"type:date"`
	Status      string     `json:"status" gorm:"size:16;not null;default:active"`
	LossReason  string     `json:"loss_reason" gorm:"size:256"`
	YieldGrams  float64    `json:"yield_grams" gorm:"not null;default:0"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// 关联
	Recipe   *Recipe    `json:"recipe,omitempty" gorm:"foreignKey:RecipeID"`
	Customer *Customer  `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	Batch    *SeedBatch `json:"batch,omitempty" gorm:"foreignKey:BatchID"`
	Steps    []TrayStep `json:"steps,omitempty" gorm:"foreignKey:TrayID"`
}

func (Tray) TableName() string {
	return "trays"
}

// IsLost 托盘是否已报损（终态）
func (t *Tray) IsLost() bool {
	return t.Status == TrayStatusLost
}

// IsHarvested 托盘是否已收获
func (t *Tray) IsHarvested() bool {
	return t.HarvestDate != nil
}

// TrayStep 托盘与配方步骤的关联，记录每一步的完成/跳过
// 步骤名在创建时快照，配方后续编辑不影响在途托盘
type TrayStep struct {
	ID            string     `json:"id" gorm:"primaryKey;size:32"`
	TrayID        string     `json:"tray_id" gorm:"size:32;not null;index"`
	StepID        string     `json:"step_id" gorm:"size:32;not null"`
	Name          string     `json:"name" gorm:"size:128;not null"`
	Sequence      int        `json:"sequence" gorm:"not null"`
	ScheduledDate time.Time  `json:"scheduled_date" gorm:"type:date;not null;index"`
	Status        string     `json:"status" gorm:"size:16;not null;default:pending"`
	CompletedAt   *time.Time `json:"completed_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	// 关联
	Tray *Tray `json:"tray,omitempty" gorm:"foreignKey:TrayID"`
}

func (TrayStep) TableName() string {
	return "tray_steps"
}
