package handler

import (
	"github.com/boilermanc/sproutify-micro-sub002/internal/farm/service"
	"github.com/gin-gonic/gin"
)

// RecipeHandler 配方处理器
type RecipeHandler struct {
	service *service.RecipeService
}

// NewRecipeHandler 创建配方处理器
func NewRecipeHandler(service *service.RecipeService) *RecipeHandler {
	return &RecipeHandler{service: service}
}

// List 获取配方列表（含农场配方与全局模板）
func (h *RecipeHandler) List(c *gin.Context) {
	farmID := GetFarmID(c)

	recipes, err := h.service.List(c.Request.Context(), farmID)
	if err != nil {
		InternalError(c, "Failed to list recipes: "+err.Error())
		return
	}

	if c.Query("include_global") == "true" {
		globals, err := h.service.ListGlobal(c.Request.Context())
		if err != nil {
			InternalError(c, "Failed to list global recipes: "+err.Error())
			return
		}
		recipes = append(recipes, globals...)
	}

	Success(c, recipes)
}

// Copy 将全局模板复制到当前农场（已有副本时直接返回副本）
func (h *RecipeHandler) Copy(c *gin.Context) {
	farmID := GetFarmID(c)
	userID := GetUserID(c)
	id := c.Param("id")

	recipe, err := h.service.EnsureFarmRecipe(c.Request.Context(), farmID, id, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	Created(c, recipe)
}

// Get 获取配方详情
func (h *RecipeHandler) Get(c *gin.Context) {
	id := c.Param("id")

	recipe, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	Success(c, recipe)
}

// Create 创建配方
func (h *RecipeHandler) Create(c *gin.Context) {
	farmID := GetFarmID(c)
	userID := GetUserID(c)

	var req service.CreateRecipeInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	recipe, err := h.service.Create(c.Request.Context(), farmID, &req, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	Created(c, recipe)
}

// UpdateSteps 更新配方步骤（全局模板只读）
func (h *RecipeHandler) UpdateSteps(c *gin.Context) {
	id := c.Param("id")

	var req struct {
		Steps []service.StepInput `json:"steps" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	recipe, err := h.service.UpdateSteps(c.Request.Context(), id, req.Steps)
	if err != nil {
		respondError(c, err)
		return
	}

	Success(c, recipe)
}

// Delete 删除配方
func (h *RecipeHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	Success(c, nil)
}

// GrowDays 按配方步骤计算生长天数
func (h *RecipeHandler) GrowDays(c *gin.Context) {
	id := c.Param("id")

	days, err := h.service.GrowDays(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	Success(c, gin.H{"recipe_id": id, "grow_days": days})
}
