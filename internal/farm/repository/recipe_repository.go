package repository

import (
	"context"
	"errors"

	"github.com/boilermanc/sproutify-micro-sub002/internal/farm/entity"
	"gorm.io/gorm"
)

// RecipeRepository 配方仓库
type RecipeRepository struct {
	db *gorm.DB
}

// NewRecipeRepository 创建配方仓库
func NewRecipeRepository(db *gorm.DB) *RecipeRepository {
	return &RecipeRepository{db: db}
}

// DB 暴露底层连接，供需要跨仓库事务的服务使用
func (r *RecipeRepository) DB() *gorm.DB {
	return r.db
}

// FindByID 根据ID查找配方（含步骤和品种）
func (r *RecipeRepository) FindByID(ctx context.Context, id string) (*entity.Recipe, error) {
	var recipe entity.Recipe
	err := r.db.WithContext(ctx).
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence ASC")
		}).
		Preload("Variety").
		Where("id = ?", id).
		First(&recipe).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &recipe, nil
}

// ListByFarm 获取农场自有配方列表
func (r *RecipeRepository) ListByFarm(ctx context.Context, farmID string) ([]entity.Recipe, error) {
	var recipes []entity.Recipe
	err := r.db.WithContext(ctx).
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence ASC")
		}).
		Preload("Variety").
		Where("farm_id = ?", farmID).
		Order("name ASC").
		Find(&recipes).Error
	return recipes, err
}

// ListGlobal 获取全局模板配方列表
func (r *RecipeRepository) ListGlobal(ctx context.Context) ([]entity.Recipe, error) {
	var recipes []entity.Recipe
	err := r.db.WithContext(ctx).
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence ASC")
		}).
		Preload("Variety").
		Where("farm_id IS NULL").
		Order("name ASC").
		Find(&recipes).Error
	return recipes, err
}

// FindFarmCopy 查找某个全局配方在农场内的既有副本
func (r *RecipeRepository) FindFarmCopy(ctx context.Context, farmID, sourceRecipeID string) (*entity.Recipe, error) {
	var recipe entity.Recipe
	err := r.db.WithContext(ctx).
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence ASC")
		}).
		Where("farm_id = ? AND source_recipe_id = ?", farmID, sourceRecipeID).
		First(&recipe).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &recipe, nil
}

// ListByIDs 批量查找配方（含步骤和品种），聚合器按订单行引用加载
func (r *RecipeRepository) ListByIDs(ctx context.Context, ids []string) ([]entity.Recipe, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var recipes []entity.Recipe
	err := r.db.WithContext(ctx).
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence ASC")
		}).
		Preload("Variety").
		Where("id IN ?", ids).
		Find(&recipes).Error
	return recipes, err
}

// Create 创建配方
func (r *RecipeRepository) Create(ctx context.Context, recipe *entity.Recipe) error {
	return r.db.WithContext(ctx).Create(recipe).Error
}

// CreateWithSteps 在一个事务里创建配方及其步骤
func (r *RecipeRepository) CreateWithSteps(ctx context.Context, recipe *entity.Recipe, steps []entity.Step) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(recipe).Error; err != nil {
			return err
		}
		for i := range steps {
			steps[i].RecipeID = recipe.ID
			if err := tx.Create(&steps[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Update 更新配方
func (r *RecipeRepository) Update(ctx context.Context, recipe *entity.Recipe) error {
	return r.db.WithContext(ctx).Save(recipe).Error
}

// Delete 删除配方及其步骤
func (r *RecipeRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", id).Delete(&entity.Step{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&entity.Recipe{}).Error
	})
}

// ReplaceSteps 整体替换配方步骤（编辑器保存）
func (r *RecipeRepository) ReplaceSteps(ctx context.Context, recipeID string, steps []entity.Step) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", recipeID).Delete(&entity.Step{}).Error; err != nil {
			return err
		}
		for i := range steps {
			steps[i].RecipeID = recipeID
			if err := tx.Create(&steps[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// VarietyRepository 品种仓库
type VarietyRepository struct {
	db *gorm.DB
}

// NewVarietyRepository 创建品种仓库
func NewVarietyRepository(db *gorm.DB) *VarietyRepository {
	return &VarietyRepository{db: db}
}

// FindByID 根据ID查找品种
func (r *VarietyRepository) FindByID(ctx context.Context, id string) (*entity.Variety, error) {
	var variety entity.Variety
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&variety).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &variety, nil
}

// List 获取农场可见品种（自有 + 共享库）
func (r *VarietyRepository) List(ctx context.Context, farmID string) ([]entity.Variety, error) {
	var varieties []entity.Variety
	err := r.db.WithContext(ctx).
		Where("farm_id = ? OR farm_id IS NULL", farmID).
		Order("name ASC").
		Find(&varieties).Error
	return varieties, err
}

// Create 创建品种
func (r *VarietyRepository) Create(ctx context.Context, variety *entity.Variety) error {
	return r.db.WithContext(ctx).Create(variety).Error
}

// Update 更新品种
func (r *VarietyRepository) Update(ctx context.Context, variety *entity.Variety) error {
	return r.db.WithContext(ctx).Save(variety).Error
}
