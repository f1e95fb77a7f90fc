package repository

import (
	"context"
	"errors"
	"time"

	"github.com/boilermanc/sproutify-micro-sub002/internal/farm/entity"
	"gorm.io/gorm"
)

// TrayRepository 托盘仓库
type TrayRepository struct {
	db *gorm.DB
}

// NewTrayRepository 创建托盘仓库
func NewTrayRepository(db *gorm.DB) *TrayRepository {
	return &TrayRepository{db: db}
}

// FindByID 根据ID查找托盘（含步骤）
func (r *TrayRepository) FindByID(ctx context.Context, id string) (*entity.Tray, error) {
	var tray entity.Tray
	err := r.db.WithContext(ctx).
		Preload("Recipe").
		Preload("Customer").
		Preload("Batch").
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("scheduled_date ASC, sequence ASC")
		}).
		Where("id = ?", id).
		First(&tray).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &tray, nil
}

// ListByFarm 获取农场托盘列表
func (r *TrayRepository) ListByFarm(ctx context.Context, farmID string, filters map[string]interface{}) ([]entity.Tray, error) {
	var trays []entity.Tray

	query := r.db.WithContext(ctx).Where("farm_id = ?", farmID)

	if status, ok := filters["status"].(string); ok && status != "" {
		query = query.Where("status = ?", status)
	}
	if recipeID, ok := filters["recipe_id"].(string); ok && recipeID != "" {
		query = query.Where("recipe_id = ?", recipeID)
	}
	if customerID, ok := filters["customer_id"].(string); ok && customerID != "" {
		query = query.Where("customer_id = ?", customerID)
	}
	if activeOnly, ok := filters["active_only"].(bool); ok && activeOnly {
		query = query.Where("status = ? AND harvest_date IS NULL", entity.TrayStatusActive)
	}

	err := query.
		Preload("Recipe").
		Preload("Customer").
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("scheduled_date ASC, sequence ASC")
		}).
		Order("sow_date DESC, created_at DESC").
		Find(&trays).Error

	return trays, err
}

// Create 创建托盘
func (r *TrayRepository) Create(ctx context.Context, tray *entity.Tray) error {
	return r.db.WithContext(ctx).Create(tray).Error
}

// Update 更新托盘
func (r *TrayRepository) Update(ctx context.Context, tray *entity.Tray) error {
	return r.db.WithContext(ctx).Save(tray).Error
}

// FindStepByID 根据ID查找托盘步骤
func (r *TrayRepository) FindStepByID(ctx context.Context, stepID string) (*entity.TrayStep, error) {
	var step entity.TrayStep
	err := r.db.WithContext(ctx).
		Preload("Tray").
		Where("id = ?", stepID).
		First(&step).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &step, nil
}

// ListPendingStepsByDate 获取某日到期的待处理托盘步骤（日任务来源之一）
// 过期未处理的步骤并入当日（<=），漏掉的操作不允许从视图里消失
func (r *TrayRepository) ListPendingStepsByDate(ctx context.Context, farmID string, date time.Time) ([]entity.TrayStep, error) {
	var steps []entity.TrayStep
	err := r.db.WithContext(ctx).
		Joins("JOIN trays ON trays.id = tray_steps.tray_id").
		Where("trays.farm_id = ? AND trays.status = ?", farmID, entity.TrayStatusActive).
		Where("trays.harvest_date IS NULL").
		Where("tray_steps.status = ? AND tray_steps.scheduled_date <= ?", entity.TrayStepStatusPending, date).
		Preload("Tray").
		Preload("Tray.Recipe").
		Order("tray_steps.scheduled_date ASC, tray_steps.sequence ASC").
		Find(&steps).Error
	return steps, err
}

// UpdateStepStatus 更新托盘步骤状态
func (r *TrayRepository) UpdateStepStatus(ctx context.Context, stepID, status string, completedAt *time.Time) error {
	return r.db.WithContext(ctx).
		Model(&entity.TrayStep{}).
		Where("id = ?", stepID).
		Updates(map[string]interface{}{
			"status":       status,
			"completed_at": completedAt,
		}).Error
}
