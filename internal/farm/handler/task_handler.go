package handler

import (
	"time"

	"github.com/boilermanc/sproutify-micro-sub002/internal/farm/service"
	"github.com/gin-gonic/gin"
)

// TaskHandler 任务视图处理器
type TaskHandler struct {
	service *service.TaskService
}

// NewTaskHandler 创建任务处理器
func NewTaskHandler(service *service.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

func parseDateQuery(c *gin.Context, key string) (time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return time.Now(), true
	}
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		BadRequest(c, key+" must be YYYY-MM-DD")
		return time.Time{}, false
	}
	return date, true
}

// Daily 获取指定日的任务列表
func (h *TaskHandler) Daily(c *gin.Context) {
	farmID := GetFarmID(c)

	date, ok := parseDateQuery(c, "date")
	if !ok {
		return
	}

	tasks, err := h.service.DailyTasks(c.Request.Context(), farmID, date)
	if err != nil {
		InternalError(c, "Failed to build daily tasks: "+err.Error())
		return
	}

	Success(c, tasks)
}

// Weekly 获取指定日所在周（周一起始）的任务列表
func (h *TaskHandler) Weekly(c *gin.Context) {
	farmID := GetFarmID(c)

	date, ok := parseDateQuery(c, "date")
	if !ok {
		return
	}

	tasks, err := h.service.WeeklyTasks(c.Request.Context(), farmID, date)
	if err != nil {
		InternalError(c, "Failed to build weekly tasks: "+err.Error())
		return
	}

	Success(c, tasks)
}

// Mark 标记任务状态（pending 回退会删除台账行）
func (h *TaskHandler) Mark(c *gin.Context) {
	farmID := GetFarmID(c)
	userID := GetUserID(c)

	var req service.MarkTaskInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	if err := h.service.MarkTask(c.Request.Context(), farmID, &req, userID); err != nil {
		respondError(c, err)
		return
	}

	Success(c, nil)
}
