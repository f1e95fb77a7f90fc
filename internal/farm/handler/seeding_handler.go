package handler

import (
	"github.com/boilermanc/sproutify-micro-sub002/internal/farm/service"
	"github.com/gin-gonic/gin"
)

// SeedingHandler 播种管线处理器
type SeedingHandler struct {
	service *service.SeedingService
}

// NewSeedingHandler 创建播种处理器
func NewSeedingHandler(service *service.SeedingService) *SeedingHandler {
	return &SeedingHandler{service: service}
}

// ListRequests 获取建盘请求列表
func (h *SeedingHandler) ListRequests(c *gin.Context) {
	farmID := GetFarmID(c)
	status := c.Query("status")

	requests, err := h.service.ListRequests(c.Request.Context(), farmID, status)
	if err != nil {
		InternalError(c, "Failed to list requests: "+err.Error())
		return
	}

	Success(c, requests)
}

// CreateRequest 手工创建建盘请求
func (h *SeedingHandler) CreateRequest(c *gin.Context) {
	farmID := GetFarmID(c)
	userID := GetUserID(c)

	var req service.CreateRequestInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	request, err := h.service.CreateRequest(c.Request.Context(), farmID, &req, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	Created(c, request)
}

// CancelRequest 取消 pending 状态的建盘请求
func (h *SeedingHandler) CancelRequest(c *gin.Context) {
	id := c.Param("id")

	if err := h.service.CancelRequest(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	Success(c, nil)
}

// FulfillSeedTask 用选定批次落实播种任务
// 重复落实返回冲突，不产生第二组请求
func (h *SeedingHandler) FulfillSeedTask(c *gin.Context) {
	farmID := GetFarmID(c)
	userID := GetUserID(c)

	var req service.FulfillSeedTaskInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	requests, err := h.service.FulfillSeedTask(c.Request.Context(), farmID, &req, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	Created(c, requests)
}
