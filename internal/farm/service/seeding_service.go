package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/boilermanc/sproutify-micro-sub002/internal/farm/entity"
	"github.com/boilermanc/sproutify-micro-sub002/internal/farm/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrBatchRequired 播种任务落实必须先选定种子批次
	ErrBatchRequired = errors.New("seed batch selection is required")
	// ErrAlreadyFulfilled 同一逻辑任务不允许重复落实
	ErrAlreadyFulfilled = errors.New("task already fulfilled")
	// ErrRequestNotPending 只有 pending 状态的请求可以取消
	ErrRequestNotPending = errors.New("request is not pending")
)

// SeedingService 播种请求管线
// 把"操作员决定播 N 盘"变成持久化的建盘请求。库存扣减和托盘行的
// 生成是持久层的边界职责，管线只发起请求，绝不自己动余量。
type SeedingService struct {
	db           *gorm.DB
	recipeSvc    *RecipeService
	inventorySvc *InventoryService
	taskSvc      *TaskService
	requestRepo  *repository.RequestRepository
	batchRepo    *repository.BatchRepository
}

// NewSeedingService 创建播种管线服务
func NewSeedingService(db *gorm.DB, recipeSvc *RecipeService, inventorySvc *InventoryService, taskSvc *TaskService, requestRepo *repository.RequestRepository, batchRepo *repository.BatchRepository) *SeedingService {
	return &SeedingService{
		db:           db,
		recipeSvc:    recipeSvc,
		inventorySvc: inventorySvc,
		taskSvc:      taskSvc,
		requestRepo:  requestRepo,
		batchRepo:    batchRepo,
	}
}

// snapshotSteps 冻结请求时刻的步骤表
// 配方模板后续再改，已在途请求/托盘计划保持稳定
func snapshotSteps(steps []entity.Step) entity.JSONBArray {
	out := make(entity.JSONBArray, 0, len(steps))
	for _, step := range sortedSteps(steps) {
		out = append(out, map[string]interface{}{
			"step_id":        step.ID,
			"sequence":       step.Sequence,
			"name":           step.Name,
			"duration_value": step.DurationValue,
			"duration_unit":  step.DurationUnit,
		})
	}
	return out
}

// CreateRequestInput 手工建盘请求
type CreateRequestInput struct {
	RecipeID   string    `json:"recipe_id" binding:"required"`
	Quantity   int       `json:"quantity" binding:"required"`
	SowDate    time.Time `json:"sow_date" binding:"required"`
	BatchID    *string   `json:"batch_id"`
	CustomerID *string   `json:"customer_id"`
}

// CreateRequest 手工创建建盘请求
// 单行携带数量 N 和配方/品种名快照；此时不动任何库存
func (s *SeedingService) CreateRequest(ctx context.Context, farmID string, input *CreateRequestInput, userID string) (*entity.TrayCreationRequest, error) {
	if input.Quantity < 1 {
		return nil, fmt.Errorf("quantity must be at least 1")
	}

	if input.BatchID != nil && *input.BatchID != "" {
		if _, err := s.batchRepo.FindByID(ctx, *input.BatchID); err != nil {
			return nil, fmt.Errorf("load batch: %w", err)
		}
	}

	// 模板复制和请求写入同一事务：请求写失败时不能留下孤儿副本
	var req *entity.TrayCreationRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		recipe, err := s.recipeSvc.EnsureFarmRecipeTx(ctx, tx, farmID, input.RecipeID, userID)
		if err != nil {
			return fmt.Errorf("resolve recipe: %w", err)
		}

		varietyName := ""
		if recipe.Variety != nil {
			varietyName = recipe.Variety.Name
		}

		req = &entity.TrayCreationRequest{
			ID:            uuid.New().String()[:32],
			FarmID:        farmID,
			RecipeID:      recipe.ID,
			RecipeName:    recipe.Name,
			VarietyName:   varietyName,
			StepsSnapshot: snapshotSteps(recipe.Steps),
			BatchID:       input.BatchID,
			CustomerID:    input.CustomerID,
			Quantity:      input.Quantity,
			SowDate:       DateOnly(input.SowDate),
			Status:        entity.RequestStatusPending,
			RequestedBy:   userID,
		}
		if err := tx.Create(req).Error; err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// FulfillSeedTaskInput 播种任务落实请求
// TaskDate 是任务本身的日期，不是落实时的墙钟时间——
// 补录和预排的播种都必须按任务日期入账
type FulfillSeedTaskInput struct {
	RecipeID   string    `json:"recipe_id" binding:"required"`
	TaskDate   time.Time `json:"task_date" binding:"required"`
	Quantity   int       `json:"quantity" binding:"required"`
	BatchID    string    `json:"batch_id"`
	CustomerID *string   `json:"customer_id"`
	ProductID  *string   `json:"product_id"`
}

// FulfillSeedTask 用选定批次落实一个播种任务
// 整个序列（台账抢占 → 模板复制 → N 条请求）在一个事务里，
// 任何一步失败全部回滚，不留半成品。
func (s *SeedingService) FulfillSeedTask(ctx context.Context, farmID string, input *FulfillSeedTaskInput, userID string) ([]entity.TrayCreationRequest, error) {
	if input.BatchID == "" {
		return nil, ErrBatchRequired
	}
	if input.Quantity < 1 {
		return nil, fmt.Errorf("quantity must be at least 1")
	}

	taskDate := DateOnly(input.TaskDate)

	batch, err := s.batchRepo.FindByID(ctx, input.BatchID)
	if err != nil {
		return nil, fmt.Errorf("load batch: %w", err)
	}

	var created []entity.TrayCreationRequest
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 先抢占台账行再做其余写入：并发落实同一任务时只有一个
		// 事务能把状态推进到 completed，另一个拿到 ErrAlreadyFulfilled。
		// 台账键用任务推导时的配方ID：全局模板被复制后，
		// 重新生成的任务仍按原配方ID命中同一台账行
		if err := claimSeedTask(tx, farmID, taskDate, input, userID); err != nil {
			return err
		}

		recipe, err := s.recipeSvc.EnsureFarmRecipeTx(ctx, tx, farmID, input.RecipeID, userID)
		if err != nil {
			return fmt.Errorf("resolve recipe: %w", err)
		}

		// 落实前重新校验余量快照，不足就整体放弃
		required, _, err := s.inventorySvc.RequiredGramsPerTray(ctx, recipe)
		if err != nil {
			return err
		}
		if batch.RemainingGrams < required*float64(input.Quantity) {
			return &InsufficientSeedError{
				RequiredGrams: required * float64(input.Quantity),
				BestAvailable: batch.RemainingGrams,
			}
		}

		varietyName := ""
		if recipe.Variety != nil {
			varietyName = recipe.Variety.Name
		}
		stepsSnapshot := snapshotSteps(recipe.Steps)

		// 每盘一条请求，播种日取任务日期
		for i := 0; i < input.Quantity; i++ {
			req := entity.TrayCreationRequest{
				ID:            uuid.New().String()[:32],
				FarmID:        farmID,
				RecipeID:      recipe.ID,
				RecipeName:    recipe.Name,
				VarietyName:   varietyName,
				StepsSnapshot: stepsSnapshot,
				BatchID:       &batch.ID,
				CustomerID:    input.CustomerID,
				Quantity:      1,
				SowDate:       taskDate,
				Status:        entity.RequestStatusPending,
				RequestedBy:   userID,
			}
			if err := tx.Create(&req).Error; err != nil {
				return fmt.Errorf("create request %d/%d: %w", i+1, input.Quantity, err)
			}
			created = append(created, req)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	// 台账变了，对应周的缓存作废
	if s.taskSvc != nil {
		s.taskSvc.InvalidateWeeklyCache(ctx, farmID, taskDate)
	}
	return created, nil
}

// claimSeedTask 在事务内把台账行推进到 completed
// 行不存在就插入；已存在但未完成就条件更新；已完成则判重复落实
func claimSeedTask(tx *gorm.DB, farmID string, taskDate time.Time, input *FulfillSeedTaskInput, userID string) error {
	customerID, productID := "", ""
	if input.CustomerID != nil {
		customerID = *input.CustomerID
	}
	if input.ProductID != nil {
		productID = *input.ProductID
	}

	completion := entity.TaskCompletion{
		ID:         uuid.New().String()[:32],
		FarmID:     farmID,
		TaskType:   entity.TaskTypeSeed,
		TaskDate:   taskDate,
		RecipeID:   input.RecipeID,
		CustomerID: customerID,
		ProductID:  productID,
		Status:     entity.CompletionStatusCompleted,
		MarkedBy:   userID,
	}
	res := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "farm_id"}, {Name: "task_type"}, {Name: "task_date"},
			{Name: "recipe_id"}, {Name: "customer_id"}, {Name: "product_id"},
		},
		DoNothing: true,
	}).Create(&completion)
	if res.Error != nil {
		return fmt.Errorf("claim completion ledger: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	upd := tx.Model(&entity.TaskCompletion{}).
		Where("farm_id = ? AND task_type = ? AND task_date = ? AND recipe_id = ? AND customer_id = ? AND product_id = ?",
			farmID, entity.TaskTypeSeed, taskDate, input.RecipeID, customerID, productID).
		Where("status <> ?", entity.CompletionStatusCompleted).
		Updates(map[string]interface{}{
			"status":    entity.CompletionStatusCompleted,
			"marked_by": userID,
		})
	if upd.Error != nil {
		return fmt.Errorf("claim completion ledger: %w", upd.Error)
	}
	if upd.RowsAffected == 0 {
		return ErrAlreadyFulfilled
	}
	return nil
}

// ListRequests 获取建盘请求列表
func (s *SeedingService) ListRequests(ctx context.Context, farmID, status string) ([]entity.TrayCreationRequest, error) {
	return s.requestRepo.ListByFarm(ctx, farmID, status)
}

// CancelRequest 取消建盘请求
// 只是状态更新，不回滚任何已创建的托盘
func (s *SeedingService) CancelRequest(ctx context.Context, id string) error {
	req, err := s.requestRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if req.Status != entity.RequestStatusPending {
		return ErrRequestNotPending
	}
	return s.requestRepo.UpdateStatus(ctx, id, entity.RequestStatusCancelled)
}
