package repository

import (
	"context"
	"errors"
	"time"

	"github.com/boilermanc/sproutify-micro-sub002/internal/farm/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CompletionRepository 任务完成台账仓库
// 复合键唯一索引 + upsert，避免 check-then-insert 竞态
type CompletionRepository struct {
	db *gorm.DB
}

// NewCompletionRepository 创建任务完成台账仓库
func NewCompletionRepository(db *gorm.DB) *CompletionRepository {
	return &CompletionRepository{db: db}
}

func keyColumns(key entity.CompletionKey) (customerID, productID string) {
	if key.CustomerID != nil {
		customerID = *key.CustomerID
	}
	if key.ProductID != nil {
		productID = *key.ProductID
	}
	return customerID, productID
}

// Upsert 按复合键写入/覆盖台账行
func (r *CompletionRepository) Upsert(ctx context.Context, completion *entity.TaskCompletion) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "farm_id"}, {Name: "task_type"}, {Name: "task_date"},
			{Name: "recipe_id"}, {Name: "customer_id"}, {Name: "product_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"status", "marked_by", "updated_at"}),
	}).Create(completion).Error
}

// FindByKey 按复合键查找台账行
func (r *CompletionRepository) FindByKey(ctx context.Context, key entity.CompletionKey) (*entity.TaskCompletion, error) {
	customerID, productID := keyColumns(key)
	var completion entity.TaskCompletion
	err := r.db.WithContext(ctx).
		Where("farm_id = ? AND task_type = ? AND task_date = ? AND recipe_id = ? AND customer_id = ? AND product_id = ?",
			key.FarmID, key.TaskType, key.TaskDate, key.RecipeID, customerID, productID).
		First(&completion).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &completion, nil
}

// DeleteByKey 删除台账行（把任务恢复为 Pending）
func (r *CompletionRepository) DeleteByKey(ctx context.Context, key entity.CompletionKey) error {
	customerID, productID := keyColumns(key)
	return r.db.WithContext(ctx).
		Where("farm_id = ? AND task_type = ? AND task_date = ? AND recipe_id = ? AND customer_id = ? AND product_id = ?",
			key.FarmID, key.TaskType, key.TaskDate, key.RecipeID, customerID, productID).
		Delete(&entity.TaskCompletion{}).Error
}

// ListByDateRange 获取日期区间内的台账行，供聚合器批量解析任务状态
func (r *CompletionRepository) ListByDateRange(ctx context.Context, farmID string, from, to time.Time) ([]entity.TaskCompletion, error) {
	var completions []entity.TaskCompletion
	err := r.db.WithContext(ctx).
		Where("farm_id = ? AND task_date >= ? AND task_date < ?", farmID, from, to).
		Find(&completions).Error
	return completions, err
}
