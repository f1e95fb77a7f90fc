package handler

import (
	"errors"

	"github.com/boilermanc/sproutify-micro-sub002/internal/farm/repository"
	"github.com/boilermanc/sproutify-micro-sub002/internal/farm/service"
	"github.com/gin-gonic/gin"
)

// Handlers 处理器集合
type Handlers struct {
	Recipe    *RecipeHandler
	Inventory *InventoryHandler
	Tray      *TrayHandler
	Seeding   *SeedingHandler
	Task      *TaskHandler
	Plan      *PlanHandler
	Order     *OrderHandler
}

// NewHandlers 创建处理器集合
func NewHandlers(svc *service.Services, repos *repository.Repositories) *Handlers {
	return &Handlers{
		Recipe:    NewRecipeHandler(svc.Recipe),
		Inventory: NewInventoryHandler(svc.Inventory, repos.Variety),
		Tray:      NewTrayHandler(svc.Tray),
		Seeding:   NewSeedingHandler(svc.Seeding),
		Task:      NewTaskHandler(svc.Task),
		Plan:      NewPlanHandler(svc.Plan),
		Order:     NewOrderHandler(repos.Order, repos.Customer, repos.Product, repos.Maintenance, svc.Task),
	}
}

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest 参数错误响应
func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

// NotFound 资源不存在响应
func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

// Conflict 状态冲突响应（重复落实、终态托盘等）
func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

// InternalError 服务器错误响应
func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// GetUserID 从上下文获取用户ID
func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

// GetFarmID 从上下文获取农场ID（JWT 中间件写入）
func GetFarmID(c *gin.Context) string {
	farmID, _ := c.Get("farm_id")
	if id, ok := farmID.(string); ok {
		return id
	}
	return ""
}

// respondError 按错误分类映射响应：
// 配置错误和库存不足必须可区分，操作员才知道该修主数据还是补库存
func respondError(c *gin.Context, err error) {
	var insufficient *service.InsufficientSeedError
	switch {
	case errors.Is(err, repository.ErrNotFound):
		NotFound(c, err.Error())
	case errors.Is(err, service.ErrRecipeNotConfigured),
		errors.Is(err, service.ErrSeedMassUnknown),
		errors.Is(err, service.ErrBatchRequired):
		BadRequest(c, err.Error())
	case errors.As(err, &insufficient):
		Conflict(c, insufficient.Error())
	case errors.Is(err, service.ErrGlobalRecipeReadOnly),
		errors.Is(err, service.ErrAlreadyFulfilled),
		errors.Is(err, service.ErrTrayLost),
		errors.Is(err, service.ErrTrayHarvested),
		errors.Is(err, service.ErrRequestNotPending):
		Conflict(c, err.Error())
	default:
		InternalError(c, err.Error())
	}
}
