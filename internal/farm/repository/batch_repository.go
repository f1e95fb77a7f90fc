package repository

import (
	"context"
	"errors"

	"github.com/boilermanc/sproutify-micro-sub002/internal/farm/entity"
	"gorm.io/gorm"
)

// BatchRepository 种子批次仓库
type BatchRepository struct {
	db *gorm.DB
}

// NewBatchRepository 创建种子批次仓库
func NewBatchRepository(db *gorm.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

// FindByID 根据ID查找批次
func (r *BatchRepository) FindByID(ctx context.Context, id string) (*entity.SeedBatch, error) {
	var batch entity.SeedBatch
	err := r.db.WithContext(ctx).
		Preload("Variety").
		Where("id = ?", id).
		First(&batch).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &batch, nil
}

// ListByFarm 获取农场批次列表
func (r *BatchRepository) ListByFarm(ctx context.Context, farmID string) ([]entity.SeedBatch, error) {
	var batches []entity.SeedBatch
	err := r.db.WithContext(ctx).
		Preload("Variety").
		Where("farm_id = ?", farmID).
		Order("purchased_at ASC").
		Find(&batches).Error
	return batches, err
}

// ListByVariety 获取农场内某品种的批次，按采购日期升序
func (r *BatchRepository) ListByVariety(ctx context.Context, farmID, varietyID string) ([]entity.SeedBatch, error) {
	var batches []entity.SeedBatch
	err := r.db.WithContext(ctx).
		Where("farm_id = ? AND variety_id = ?", farmID, varietyID).
		Order("purchased_at ASC").
		Find(&batches).Error
	return batches, err
}

// Create 创建批次
func (r *BatchRepository) Create(ctx context.Context, batch *entity.SeedBatch) error {
	return r.db.WithContext(ctx).Create(batch).Error
}

// Update 更新批次
func (r *BatchRepository) Update(ctx context.Context, batch *entity.SeedBatch) error {
	return r.db.WithContext(ctx).Save(batch).Error
}

// SetRemaining 操作员盘点修正余量（不是分配扣减，扣减由持久层在请求落实时执行）
func (r *BatchRepository) SetRemaining(ctx context.Context, id string, grams float64) error {
	return r.db.WithContext(ctx).
		Model(&entity.SeedBatch{}).
		Where("id = ?", id).
		Update("remaining_grams", grams).Error
}
