package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/boilermanc/sproutify-micro-sub002/internal/farm/entity"
	"github.com/boilermanc/sproutify-micro-sub002/internal/farm/repository"
)

var (
	// ErrTrayLost 已报损托盘是终态，拒绝任何后续操作
	ErrTrayLost = errors.New("tray is marked lost")
	// ErrTrayHarvested 已收获托盘不再接受步骤操作
	ErrTrayHarvested = errors.New("tray is already harvested")
)

// TrayView 托盘列表项：存储行 + 现算的阶段和预计收获日
type TrayView struct {
	entity.Tray
	Stage            string     `json:"stage"`
	ProjectedHarvest *time.Time `json:"projected_harvest,omitempty"`
}

// TrayService 托盘服务
type TrayService struct {
	trayRepo   *repository.TrayRepository
	recipeRepo *repository.RecipeRepository
}

// NewTrayService 创建托盘服务
func NewTrayService(trayRepo *repository.TrayRepository, recipeRepo *repository.RecipeRepository) *TrayService {
	return &TrayService{trayRepo: trayRepo, recipeRepo: recipeRepo}
}

// List 托盘列表，阶段与预计收获日读取时推导
func (s *TrayService) List(ctx context.Context, farmID string, filters map[string]interface{}) ([]TrayView, error) {
	trays, err := s.trayRepo.ListByFarm(ctx, farmID, filters)
	if err != nil {
		return nil, fmt.Errorf("list trays: %w", err)
	}

	views := make([]TrayView, 0, len(trays))
	for i := range trays {
		tray := trays[i]
		view := TrayView{
			Tray:  tray,
			Stage: ResolveTrayStage(&tray, tray.Steps),
		}
		if tray.Recipe != nil && !tray.IsHarvested() && !tray.IsLost() {
			recipe, err := s.recipeRepo.FindByID(ctx, tray.RecipeID)
			if err == nil {
				projected := ProjectedHarvestDate(recipe.Steps, tray.SowDate)
				view.ProjectedHarvest = &projected
			}
		}
		views = append(views, view)
	}
	return views, nil
}

// Get 托盘详情
func (s *TrayService) Get(ctx context.Context, id string) (*TrayView, error) {
	tray, err := s.trayRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	view := &TrayView{
		Tray:  *tray,
		Stage: ResolveTrayStage(tray, tray.Steps),
	}
	if !tray.IsHarvested() && !tray.IsLost() {
		if recipe, err := s.recipeRepo.FindByID(ctx, tray.RecipeID); err == nil {
			projected := ProjectedHarvestDate(recipe.Steps, tray.SowDate)
			view.ProjectedHarvest = &projected
		}
	}
	return view, nil
}

// Harvest 记录收获
func (s *TrayService) Harvest(ctx context.Context, id string, harvestDate time.Time, yieldGrams float64) (*entity.Tray, error) {
	tray, err := s.trayRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tray.IsLost() {
		return nil, ErrTrayLost
	}

	day := DateOnly(harvestDate)
	tray.HarvestDate = &day
	tray.YieldGrams = yieldGrams
	if err := s.trayRepo.Update(ctx, tray); err != nil {
		return nil, fmt.Errorf("record harvest: %w", err)
	}
	return tray, nil
}

// MarkLost 报损（终态，只能由操作员显式触发）
func (s *TrayService) MarkLost(ctx context.Context, id, reason string) (*entity.Tray, error) {
	tray, err := s.trayRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tray.IsLost() {
		return nil, ErrTrayLost
	}

	tray.Status = entity.TrayStatusLost
	tray.LossReason = reason
	if err := s.trayRepo.Update(ctx, tray); err != nil {
		return nil, fmt.Errorf("mark lost: %w", err)
	}
	return tray, nil
}

// CompleteStep 完成托盘步骤
func (s *TrayService) CompleteStep(ctx context.Context, stepID string) error {
	return s.setStepStatus(ctx, stepID, entity.TrayStepStatusCompleted)
}

// SkipStep 跳过托盘步骤
func (s *TrayService) SkipStep(ctx context.Context, stepID string) error {
	return s.setStepStatus(ctx, stepID, entity.TrayStepStatusSkipped)
}

func (s *TrayService) setStepStatus(ctx context.Context, stepID, status string) error {
	step, err := s.trayRepo.FindStepByID(ctx, stepID)
	if err != nil {
		return err
	}
	if step.Tray != nil {
		if step.Tray.IsLost() {
			return ErrTrayLost
		}
		if step.Tray.IsHarvested() {
			return ErrTrayHarvested
		}
	}

	now := time.Now()
	if err := s.trayRepo.UpdateStepStatus(ctx, stepID, status, &now); err != nil {
		return fmt.Errorf("update tray step: %w", err)
	}
	return nil
}
