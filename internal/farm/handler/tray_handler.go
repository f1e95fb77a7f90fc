package handler

import (
	"time"

	"github.com/boilermanc/sproutify-micro-sub002/internal/farm/service"
	"github.com/gin-gonic/gin"
)

// TrayHandler 托盘处理器
type TrayHandler struct {
	service *service.TrayService
}

// NewTrayHandler 创建托盘处理器
func NewTrayHandler(service *service.TrayService) *TrayHandler {
	return &TrayHandler{service: service}
}

// List 获取托盘列表
func (h *TrayHandler) List(c *gin.Context) {
	farmID := GetFarmID(c)

	filters := make(map[string]interface{})
	if status := c.Query("status"); status != "" {
		filters["status"] = status
	}
	if recipeID := c.Query("recipe_id"); recipeID != "" {
		filters["recipe_id"] = recipeID
	}
	if customerID := c.Query("customer_id"); customerID != "" {
		filters["customer_id"] = customerID
	}
	if c.Query("active_only") == "true" {
		filters["active_only"] = true
	}

	trays, err := h.service.List(c.Request.Context(), farmID, filters)
	if err != nil {
		InternalError(c, "Failed to list trays: "+err.Error())
		return
	}

	Success(c, trays)
}

// Get 获取托盘详情
func (h *TrayHandler) Get(c *gin.Context) {
	id := c.Param("id")

	tray, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	Success(c, tray)
}

// Harvest 记录收获
func (h *TrayHandler) Harvest(c *gin.Context) {
	id := c.Param("id")

	var req struct {
		HarvestDate string  `json:"harvest_date" binding:"required"`
		YieldGrams  float64 `json:"yield_grams"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}
	harvestDate, err := time.Parse("2006-01-02", req.HarvestDate)
	if err != nil {
		BadRequest(c, "harvest_date must be YYYY-MM-DD")
		return
	}

	tray, err := h.service.Harvest(c.Request.Context(), id, harvestDate, req.YieldGrams)
	if err != nil {
		respondError(c, err)
		return
	}

	Success(c, tray)
}

// MarkLost 报损托盘
func (h *TrayHandler) MarkLost(c *gin.Context) {
	id := c.Param("id")

	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	tray, err := h.service.MarkLost(c.Request.Context(), id, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	Success(c, tray)
}

// CompleteStep 完成托盘步骤
func (h *TrayHandler) CompleteStep(c *gin.Context) {
	stepID := c.Param("stepId")

	if err := h.service.CompleteStep(c.Request.Context(), stepID); err != nil {
		respondError(c, err)
		return
	}

	Success(c, nil)
}

// SkipStep 跳过托盘步骤
func (h *TrayHandler) SkipStep(c *gin.Context) {
	stepID := c.Param("stepId")

	if err := h.service.SkipStep(c.Request.Context(), stepID); err != nil {
		respondError(c, err)
		return
	}

	Success(c, nil)
}
