package handler

import (
	"fmt"

	"github.com/boilermanc/sproutify-micro-sub002/internal/farm/service"
	"github.com/gin-gonic/gin"
)

// PlanHandler 播种计划处理器
type PlanHandler struct {
	service *service.PlanService
}

// NewPlanHandler 创建计划处理器
func NewPlanHandler(service *service.PlanService) *PlanHandler {
	return &PlanHandler{service: service}
}

// Get 获取指定日的播种计划
func (h *PlanHandler) Get(c *gin.Context) {
	farmID := GetFarmID(c)

	date, ok := parseDateQuery(c, "date")
	if !ok {
		return
	}

	plan, err := h.service.SeedingPlan(c.Request.Context(), farmID, date)
	if err != nil {
		InternalError(c, "Failed to build seeding plan: "+err.Error())
		return
	}

	Success(c, plan)
}

// Export 导出播种计划 XLSX
// 导出副本同时归档到对象存储（未配置时跳过归档）
func (h *PlanHandler) Export(c *gin.Context) {
	farmID := GetFarmID(c)

	date, ok := parseDateQuery(c, "date")
	if !ok {
		return
	}

	plan, err := h.service.SeedingPlan(c.Request.Context(), farmID, date)
	if err != nil {
		InternalError(c, "Failed to build seeding plan: "+err.Error())
		return
	}

	data, err := h.service.ExportXLSX(plan)
	if err != nil {
		InternalError(c, "Failed to export plan: "+err.Error())
		return
	}

	if _, err := h.service.StoreExport(c.Request.Context(), farmID, date, data); err != nil {
		InternalError(c, "Failed to archive export: "+err.Error())
		return
	}

	filename := fmt.Sprintf("seeding-plan-%s.xlsx", date.Format("2006-01-02"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(200, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
