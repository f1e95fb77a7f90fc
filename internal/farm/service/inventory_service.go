package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/boilermanc/sproutify-micro-sub002/internal/farm/entity"
	"github.com/boilermanc/sproutify-micro-sub002/internal/farm/repository"
	"github.com/google/uuid"
)

// 配置错误：主数据问题，提示操作员去修配方/品种，而不是补库存
var (
	ErrRecipeNotConfigured = errors.New("recipe has no linked variety")
	ErrSeedMassUnknown     = errors.New("variety has no seed mass requirement")
)

// InsufficientSeedError 库存不足
// 与配置错误严格区分，报出缺口和现有最大批次余量
type InsufficientSeedError struct {
	RequiredGrams  float64
	BestAvailable  float64
}

func (e *InsufficientSeedError) Error() string {
	return fmt.Sprintf("insufficient seed: need %.1fg per tray, largest batch has %.1fg (short %.1fg)",
		e.RequiredGrams, e.BestAvailable, e.RequiredGrams-e.BestAvailable)
}

// InventoryService 种子库存服务
// 匹配是两段式接口：match 列出全部合格批次，放哪一批由操作员决定，
// 服务本身不做自动选取。
type InventoryService struct {
	batchRepo   *repository.BatchRepository
	varietyRepo *repository.VarietyRepository
	recipeRepo  *repository.RecipeRepository
}

// NewInventoryService 创建库存服务
func NewInventoryService(batchRepo *repository.BatchRepository, varietyRepo *repository.VarietyRepository, recipeRepo *repository.RecipeRepository) *InventoryService {
	return &InventoryService{
		batchRepo:   batchRepo,
		varietyRepo: varietyRepo,
		recipeRepo:  recipeRepo,
	}
}

// RequiredGramsPerTray 解析配方的单盘种子需求（统一换算为克）
func (s *InventoryService) RequiredGramsPerTray(ctx context.Context, recipe *entity.Recipe) (float64, *entity.Variety, error) {
	if recipe.VarietyID == nil || *recipe.VarietyID == "" {
		return 0, nil, ErrRecipeNotConfigured
	}
	variety := recipe.Variety
	if variety == nil {
		var err error
		variety, err = s.varietyRepo.FindByID(ctx, *recipe.VarietyID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return 0, nil, ErrRecipeNotConfigured
			}
			return 0, nil, fmt.Errorf("load variety: %w", err)
		}
	}
	grams := variety.SeedGramsPerTray()
	if grams <= 0 {
		return 0, nil, ErrSeedMassUnknown
	}
	return grams, variety, nil
}

// MatchBatches 列出余量足够播一盘的全部批次
// 没有任何批次够量时返回 InsufficientSeedError；配置错误单独报出。
// 余量只是读取时刻的快照，真正落盘前调用方应重新校验。
func (s *InventoryService) MatchBatches(ctx context.Context, farmID, recipeID string) ([]entity.SeedBatch, float64, error) {
	recipe, err := s.recipeRepo.FindByID(ctx, recipeID)
	if err != nil {
		return nil, 0, fmt.Errorf("load recipe: %w", err)
	}

	required, variety, err := s.RequiredGramsPerTray(ctx, recipe)
	if err != nil {
		return nil, 0, err
	}

	batches, err := s.batchRepo.ListByVariety(ctx, farmID, variety.ID)
	if err != nil {
		return nil, 0, fmt.Errorf("list batches: %w", err)
	}

	qualifying := FilterQualifyingBatches(batches, required)
	if len(qualifying) == 0 {
		return nil, required, &InsufficientSeedError{
			RequiredGrams: required,
			BestAvailable: largestRemaining(batches),
		}
	}
	return qualifying, required, nil
}

// FilterQualifyingBatches 过滤出余量 >= 需求量的批次
func FilterQualifyingBatches(batches []entity.SeedBatch, requiredGrams float64) []entity.SeedBatch {
	var out []entity.SeedBatch
	for _, batch := range batches {
		if batch.RemainingGrams >= requiredGrams {
			out = append(out, batch)
		}
	}
	return out
}

func largestRemaining(batches []entity.SeedBatch) float64 {
	best := 0.0
	for _, batch := range batches {
		if batch.RemainingGrams > best {
			best = batch.RemainingGrams
		}
	}
	return best
}

// EarliestPurchaseFirst 可选的自动选批策略：采购日期最早优先
// 刻意做成独立的具名策略，默认流程仍由操作员手选
func EarliestPurchaseFirst(batches []entity.SeedBatch) *entity.SeedBatch {
	if len(batches) == 0 {
		return nil
	}
	sorted := make([]entity.SeedBatch, len(batches))
	copy(sorted, batches)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].PurchasedAt, sorted[j].PurchasedAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(*b)
		}
	})
	return &sorted[0]
}

// ListBatches 获取农场批次列表
func (s *InventoryService) ListBatches(ctx context.Context, farmID string) ([]entity.SeedBatch, error) {
	return s.batchRepo.ListByFarm(ctx, farmID)
}

// CreateBatchInput 创建批次请求
type CreateBatchInput struct {
	VarietyID      string     `json:"variety_id" binding:"required"`
	LotCode        string     `json:"lot_code"`
	Supplier       string     `json:"supplier"`
	RemainingGrams float64    `json:"remaining_grams" binding:"required"`
	PurchasedAt    *time.Time `json:"purchased_at"`
}

// CreateBatch 创建批次
func (s *InventoryService) CreateBatch(ctx context.Context, farmID string, input *CreateBatchInput) (*entity.SeedBatch, error) {
	if _, err := s.varietyRepo.FindByID(ctx, input.VarietyID); err != nil {
		return nil, fmt.Errorf("load variety: %w", err)
	}
	batch := &entity.SeedBatch{
		ID:             uuid.New().String()[:32],
		FarmID:         farmID,
		VarietyID:      input.VarietyID,
		LotCode:        input.LotCode,
		Supplier:       input.Supplier,
		RemainingGrams: input.RemainingGrams,
		PurchasedAt:    input.PurchasedAt,
	}
	if err := s.batchRepo.Create(ctx, batch); err != nil {
		return nil, fmt.Errorf("create batch: %w", err)
	}
	return batch, nil
}

// AdjustBatch 操作员盘点修正批次余量
// 这是人工修正，不是分配扣减——扣减由持久层在建盘请求落实时执行
func (s *InventoryService) AdjustBatch(ctx context.Context, id string, grams float64) (*entity.SeedBatch, error) {
	if grams < 0 {
		return nil, fmt.Errorf("remaining grams cannot be negative")
	}
	if err := s.batchRepo.SetRemaining(ctx, id, grams); err != nil {
		return nil, fmt.Errorf("adjust batch: %w", err)
	}
	return s.batchRepo.FindByID(ctx, id)
}
