package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/boilermanc/sproutify-micro-sub002/internal/farm/entity"
	"github.com/boilermanc/sproutify-micro-sub002/internal/farm/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrGlobalRecipeReadOnly 全局模板配方只读，编辑前必须先复制为农场自有配方
var ErrGlobalRecipeReadOnly = errors.New("global template recipes are read-only")

// RecipeService 配方服务
type RecipeService struct {
	recipeRepo  *repository.RecipeRepository
	varietyRepo *repository.VarietyRepository
}

// NewRecipeService 创建配方服务
func NewRecipeService(recipeRepo *repository.RecipeRepository, varietyRepo *repository.VarietyRepository) *RecipeService {
	return &RecipeService{recipeRepo: recipeRepo, varietyRepo: varietyRepo}
}

// List 获取农场自有配方
func (s *RecipeService) List(ctx context.Context, farmID string) ([]entity.Recipe, error) {
	return s.recipeRepo.ListByFarm(ctx, farmID)
}

// ListGlobal 获取全局模板配方
func (s *RecipeService) ListGlobal(ctx context.Context) ([]entity.Recipe, error) {
	return s.recipeRepo.ListGlobal(ctx)
}

// Get 获取配方详情
func (s *RecipeService) Get(ctx context.Context, id string) (*entity.Recipe, error) {
	return s.recipeRepo.FindByID(ctx, id)
}

// StepInput 步骤输入
type StepInput struct {
	Sequence      int     `json:"sequence" binding:"required"`
	Name          string  `json:"name" binding:"required"`
	Description   string  `json:"description"`
	DurationValue float64 `json:"duration_value"`
	DurationUnit  string  `json:"duration_unit"`
}

// CreateRecipeInput 创建配方请求
type CreateRecipeInput struct {
	Name        string      `json:"name" binding:"required"`
	Description string      `json:"description"`
	VarietyID   *string     `json:"variety_id"`
	Steps       []StepInput `json:"steps"`
}

// validateSteps 校验 sequence 在配方内唯一
func validateSteps(steps []StepInput) error {
	seen := make(map[int]bool, len(steps))
	for _, step := range steps {
		if seen[step.Sequence] {
			return fmt.Errorf("duplicate step sequence %d", step.Sequence)
		}
		seen[step.Sequence] = true
	}
	return nil
}

func buildSteps(inputs []StepInput) []entity.Step {
	steps := make([]entity.Step, 0, len(inputs))
	for _, in := range inputs {
		unit := in.DurationUnit
		if unit == "" {
			unit = entity.StepUnitDay
		}
		steps = append(steps, entity.Step{
			ID:            uuid.New().String()[:32],
			Sequence:      in.Sequence,
			Name:          in.Name,
			Description:   in.Description,
			DurationValue: in.DurationValue,
			DurationUnit:  unit,
		})
	}
	return steps
}

// Create 创建农场自有配方
func (s *RecipeService) Create(ctx context.Context, farmID string, input *CreateRecipeInput, userID string) (*entity.Recipe, error) {
	if err := validateSteps(input.Steps); err != nil {
		return nil, err
	}
	if input.VarietyID != nil && *input.VarietyID != "" {
		if _, err := s.varietyRepo.FindByID(ctx, *input.VarietyID); err != nil {
			return nil, fmt.Errorf("load variety: %w", err)
		}
	}

	recipe := &entity.Recipe{
		ID:          uuid.New().String()[:32],
		FarmID:      &farmID,
		VarietyID:   input.VarietyID,
		Name:        input.Name,
		Description: input.Description,
		CreatedBy:   userID,
	}
	if err := s.recipeRepo.CreateWithSteps(ctx, recipe, buildSteps(input.Steps)); err != nil {
		return nil, fmt.Errorf("create recipe: %w", err)
	}
	return s.recipeRepo.FindByID(ctx, recipe.ID)
}

// UpdateSteps 替换配方步骤（配方编辑器保存）
// 只允许编辑农场自有配方；已引用该配方的在途托盘持有步骤快照，不受影响
func (s *RecipeService) UpdateSteps(ctx context.Context, recipeID string, inputs []StepInput) (*entity.Recipe, error) {
	recipe, err := s.recipeRepo.FindByID(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if recipe.IsGlobal() {
		return nil, ErrGlobalRecipeReadOnly
	}
	if err := validateSteps(inputs); err != nil {
		return nil, err
	}
	if err := s.recipeRepo.ReplaceSteps(ctx, recipeID, buildSteps(inputs)); err != nil {
		return nil, fmt.Errorf("replace steps: %w", err)
	}
	return s.recipeRepo.FindByID(ctx, recipeID)
}

// Delete 删除农场自有配方
func (s *RecipeService) Delete(ctx context.Context, recipeID string) error {
	recipe, err := s.recipeRepo.FindByID(ctx, recipeID)
	if err != nil {
		return err
	}
	if recipe.IsGlobal() {
		return ErrGlobalRecipeReadOnly
	}
	return s.recipeRepo.Delete(ctx, recipeID)
}

// EnsureFarmRecipe 确保拿到农场自有配方（全局模板按需复制）
// 农场级报表和编辑历史都要求农场所有权，所以任何建盘请求引用配方之前
// 都先走这里。同一个全局配方复制过一次后直接复用副本，不会重复复制。
func (s *RecipeService) EnsureFarmRecipe(ctx context.Context, farmID, recipeID, userID string) (*entity.Recipe, error) {
	recipe, err := s.recipeRepo.FindByID(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if !recipe.IsGlobal() {
		if recipe.FarmID == nil || *recipe.FarmID != farmID {
			return nil, repository.ErrNotFound
		}
		return recipe, nil
	}

	// 已有副本直接复用
	existing, err := s.recipeRepo.FindFarmCopy(ctx, farmID, recipe.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("find farm copy: %w", err)
	}

	return s.copyRecipe(ctx, s.recipeRepo.DB(), recipe, farmID, userID)
}

// EnsureFarmRecipeTx 事务内版本，供播种管线把复制和后续写挂在同一事务上
func (s *RecipeService) EnsureFarmRecipeTx(ctx context.Context, tx *gorm.DB, farmID, recipeID, userID string) (*entity.Recipe, error) {
	var recipe entity.Recipe
	err := tx.WithContext(ctx).
		Preload("Steps", func(db *gorm.DB) *gorm.DB { return db.Order("sequence ASC") }).
		Preload("Variety").
		Where("id = ?", recipeID).
		First(&recipe).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if !recipe.IsGlobal() {
		if recipe.FarmID == nil || *recipe.FarmID != farmID {
			return nil, repository.ErrNotFound
		}
		return &recipe, nil
	}

	var existing entity.Recipe
	err = tx.WithContext(ctx).
		Preload("Steps", func(db *gorm.DB) *gorm.DB { return db.Order("sequence ASC") }).
		Preload("Variety").
		Where("farm_id = ? AND source_recipe_id = ?", farmID, recipe.ID).
		First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find farm copy: %w", err)
	}

	return s.copyRecipe(ctx, tx, &recipe, farmID, userID)
}

// copyRecipe 把全局模板复制为农场自有配方，保留名称和全部步骤
func (s *RecipeService) copyRecipe(ctx context.Context, db *gorm.DB, source *entity.Recipe, farmID, userID string) (*entity.Recipe, error) {
	copied := &entity.Recipe{
		ID:             uuid.New().String()[:32],
		FarmID:         &farmID,
		VarietyID:      source.VarietyID,
		Name:           source.Name,
		Description:    source.Description,
		SourceRecipeID: &source.ID,
		CreatedBy:      userID,
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(copied).Error; err != nil {
			return err
		}
		for _, step := range source.Steps {
			newStep := entity.Step{
				ID:            uuid.New().String()[:32],
				RecipeID:      copied.ID,
				Sequence:      step.Sequence,
				Name:          step.Name,
				Description:   step.Description,
				DurationValue: step.DurationValue,
				DurationUnit:  step.DurationUnit,
			}
			if err := tx.Create(&newStep).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("copy global recipe: %w", err)
	}

	copied.Steps = nil
	var out entity.Recipe
	err = db.WithContext(ctx).
		Preload("Steps", func(d *gorm.DB) *gorm.DB { return d.Order("sequence ASC") }).
		Preload("Variety").
		Where("id = ?", copied.ID).
		First(&out).Error
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GrowDays 配方总生长天数
func (s *RecipeService) GrowDays(ctx context.Context, recipeID string) (int, error) {
	recipe, err := s.recipeRepo.FindByID(ctx, recipeID)
	if err != nil {
		return 0, err
	}
	return RecipeGrowDays(recipe.Steps), nil
}
