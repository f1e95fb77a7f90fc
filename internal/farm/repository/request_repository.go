package repository

import (
	"context"
	"errors"

	"github.com/boilermanc/sproutify-micro-sub002/internal/farm/entity"
	"gorm.io/gorm"
)

// RequestRepository 建盘请求仓库
type RequestRepository struct {
	db *gorm.DB
}

// NewRequestRepository 创建建盘请求仓库
func NewRequestRepository(db *gorm.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// FindByID 根据ID查找请求
func (r *RequestRepository) FindByID(ctx context.Context, id string) (*entity.TrayCreationRequest, error) {
	var req entity.TrayCreationRequest
	err := r.db.WithContext(ctx).
		Preload("Recipe").
		Preload("Batch").
		Where("id = ?", id).
		First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// ListByFarm 获取农场请求列表
func (r *RequestRepository) ListByFarm(ctx context.Context, farmID, status string) ([]entity.TrayCreationRequest, error) {
	var reqs []entity.TrayCreationRequest
	query := r.db.WithContext(ctx).Where("farm_id = ?", farmID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.
		Preload("Batch").
		Order("sow_date ASC, created_at ASC").
		Find(&reqs).Error
	return reqs, err
}

// Create 创建请求
func (r *RequestRepository) Create(ctx context.Context, req *entity.TrayCreationRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

// UpdateStatus 更新请求状态
func (r *RequestRepository) UpdateStatus(ctx context.Context, id, status string) error {
	return r.db.WithContext(ctx).
		Model(&entity.TrayCreationRequest{}).
		Where("id = ?", id).
		Update("status", status).Error
}
