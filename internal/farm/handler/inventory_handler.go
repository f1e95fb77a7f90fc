package handler

import (
	"github.com/boilermanc/sproutify-micro-sub002/internal/farm/entity"
	"github.com/boilermanc/sproutify-micro-sub002/internal/farm/repository"
	"github.com/boilermanc/sproutify-micro-sub002/internal/farm/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// InventoryHandler 种子库存处理器
type InventoryHandler struct {
	service     *service.InventoryService
	varietyRepo *repository.VarietyRepository
}

// NewInventoryHandler 创建库存处理器
func NewInventoryHandler(service *service.InventoryService, varietyRepo *repository.VarietyRepository) *InventoryHandler {
	return &InventoryHandler{service: service, varietyRepo: varietyRepo}
}

// ListBatches 获取批次列表
func (h *InventoryHandler) ListBatches(c *gin.Context) {
	farmID := GetFarmID(c)

	batches, err := h.service.ListBatches(c.Request.Context(), farmID)
	if err != nil {
		InternalError(c, "Failed to list batches: "+err.Error())
		return
	}

	Success(c, batches)
}

// CreateBatch 创建批次
func (h *InventoryHandler) CreateBatch(c *gin.Context) {
	farmID := GetFarmID(c)

	var req service.CreateBatchInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	batch, err := h.service.CreateBatch(c.Request.Context(), farmID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	Created(c, batch)
}

// AdjustBatch 盘点修正批次余量
func (h *InventoryHandler) AdjustBatch(c *gin.Context) {
	id := c.Param("id")

	var req struct {
		RemainingGrams *float64 `json:"remaining_grams" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}
	if *req.RemainingGrams < 0 {
		BadRequest(c, "remaining_grams cannot be negative")
		return
	}

	batch, err := h.service.AdjustBatch(c.Request.Context(), id, *req.RemainingGrams)
	if err != nil {
		respondError(c, err)
		return
	}

	Success(c, batch)
}

// MatchBatches 按配方需求匹配合格批次
// 返回全部够量批次，由操作员自行选取
func (h *InventoryHandler) MatchBatches(c *gin.Context) {
	farmID := GetFarmID(c)
	recipeID := c.Query("recipe_id")
	if recipeID == "" {
		BadRequest(c, "recipe_id is required")
		return
	}

	batches, required, err := h.service.MatchBatches(c.Request.Context(), farmID, recipeID)
	if err != nil {
		respondError(c, err)
		return
	}

	Success(c, gin.H{
		"required_grams_per_tray": required,
		"batches":                 batches,
	})
}

// ListVarieties 获取品种列表（含共享品种）
func (h *InventoryHandler) ListVarieties(c *gin.Context) {
	farmID := GetFarmID(c)

	varieties, err := h.varietyRepo.List(c.Request.Context(), farmID)
	if err != nil {
		InternalError(c, "Failed to list varieties: "+err.Error())
		return
	}

	Success(c, varieties)
}

// CreateVariety 创建品种
func (h *InventoryHandler) CreateVariety(c *gin.Context) {
	farmID := GetFarmID(c)

	var req struct {
		Name            string  `json:"name" binding:"required"`
		SeedMassPerTray float64 `json:"seed_mass_per_tray"`
		SeedMassUnit    string  `json:"seed_mass_unit"`
		RequiresSoak    bool    `json:"requires_soak"`
		SoakHours       int     `json:"soak_hours"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}
	if req.SeedMassUnit == "" {
		req.SeedMassUnit = entity.MassUnitGram
	}
	if req.SeedMassUnit != entity.MassUnitGram && req.SeedMassUnit != entity.MassUnitOunce {
		BadRequest(c, "seed_mass_unit must be g or oz")
		return
	}

	variety := &entity.Variety{
		ID:              uuid.New().String()[:32],
		FarmID:          &farmID,
		Name:            req.Name,
		SeedMassPerTray: req.SeedMassPerTray,
		SeedMassUnit:    req.SeedMassUnit,
		RequiresSoak:    req.RequiresSoak,
		SoakHours:       req.SoakHours,
	}
	if err := h.varietyRepo.Create(c.Request.Context(), variety); err != nil {
		InternalError(c, "Failed to create variety: "+err.Error())
		return
	}

	Created(c, variety)
}
