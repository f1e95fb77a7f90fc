package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/boilermanc/sproutify-micro-sub002/internal/farm/entity"
	"github.com/boilermanc/sproutify-micro-sub002/internal/farm/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// 周任务缓存有效期。台账或订单一变就主动失效，TTL 只是兜底。
const weeklyCacheTTL = 5 * time.Minute

// Task 聚合出的待办任务
// 任务本身不落库，每次从配方/订单重新推导；完成状态由台账决定
type Task struct {
	Type        string    `json:"type"`
	Action      string    `json:"action"`
	Date        time.Time `json:"date"`
	RecipeID    string    `json:"recipe_id"`
	RecipeName  string    `json:"recipe_name"`
	VarietyName string    `json:"variety_name,omitempty"`
	CustomerID  *string   `json:"customer_id,omitempty"`
	ProductID   *string   `json:"product_id,omitempty"`
	Quantity    float64   `json:"quantity"`
	TrayIDs     []string  `json:"tray_ids,omitempty"`
	Urgent      bool      `json:"urgent"`
	Status      string    `json:"status"`
}

// TaskService 任务聚合器
// 日视图合并三个来源：到期托盘步骤、播种计划、浸种到期事件；
// 周视图从播种计划推导并按键合并，维护任务按星期几单独注入。
type TaskService struct {
	orderRepo       *repository.OrderRepository
	recipeRepo      *repository.RecipeRepository
	trayRepo        *repository.TrayRepository
	completionRepo  *repository.CompletionRepository
	maintenanceRepo *repository.MaintenanceRepository
	rdb             *redis.Client
}

// NewTaskService 创建任务聚合服务
func NewTaskService(orderRepo *repository.OrderRepository, recipeRepo *repository.RecipeRepository, trayRepo *repository.TrayRepository, completionRepo *repository.CompletionRepository, maintenanceRepo *repository.MaintenanceRepository, rdb *redis.Client) *TaskService {
	return &TaskService{
		orderRepo:       orderRepo,
		recipeRepo:      recipeRepo,
		trayRepo:        trayRepo,
		completionRepo:  completionRepo,
		maintenanceRepo: maintenanceRepo,
		rdb:             rdb,
	}
}

// loadScheduleEntries 取有效订单并推导窗口内的播种计划（未合并，
// 按订单行展开——播种计划报表需要逐行向上取整）
func loadScheduleEntries(ctx context.Context, orderRepo *repository.OrderRepository, recipeRepo *repository.RecipeRepository, farmID string, from, to time.Time) ([]ScheduleEntry, error) {
	orders, err := orderRepo.ListActive(ctx, farmID)
	if err != nil {
		return nil, fmt.Errorf("list standing orders: %w", err)
	}

	idSet := make(map[string]bool)
	var ids []string
	for _, order := range orders {
		for _, item := range order.Items {
			if !idSet[item.RecipeID] {
				idSet[item.RecipeID] = true
				ids = append(ids, item.RecipeID)
			}
		}
	}
	recipeRows, err := recipeRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load recipes: %w", err)
	}
	recipes := make(map[string]*entity.Recipe, len(recipeRows))
	for i := range recipeRows {
		recipes[recipeRows[i].ID] = &recipeRows[i]
	}

	return DeriveSchedule(orders, recipes, from, to), nil
}

// loadSchedule 推导并按键合并，任务聚合用
func loadSchedule(ctx context.Context, orderRepo *repository.OrderRepository, recipeRepo *repository.RecipeRepository, farmID string, from, to time.Time) ([]ScheduleEntry, error) {
	entries, err := loadScheduleEntries(ctx, orderRepo, recipeRepo, farmID, from, to)
	if err != nil {
		return nil, err
	}
	return MergeEntries(entries), nil
}

// isHarvestAction 收获类动作在任务列表里标记为紧急
func isHarvestAction(name string) bool {
	return strings.Contains(strings.ToLower(name), "harvest")
}

func taskUrgent(taskType, action string) bool {
	switch taskType {
	case entity.TaskTypeSeed, entity.TaskTypeHarvest:
		return true
	case entity.TaskTypeTrayStep:
		return isHarvestAction(action)
	default:
		return false
	}
}

func scheduleAction(taskType string) string {
	switch taskType {
	case entity.TaskTypeSoak:
		return "Soak seed"
	case entity.TaskTypeSeed:
		return "Sow trays"
	case entity.TaskTypeHarvest:
		return "Harvest"
	case entity.TaskTypeDeliver:
		return "Deliver"
	default:
		return taskType
	}
}

// completionIndex 日期区间内的台账行索引，按复合键解析任务状态
type completionIndex map[string]string

func completionKeyString(taskType string, date time.Time, recipeID string, customerID, productID *string) string {
	cid, pid := "", ""
	if customerID != nil {
		cid = *customerID
	}
	if productID != nil {
		pid = *productID
	}
	return fmt.Sprintf("%s|%s|%s|%s|%s", taskType, date.Format("2006-01-02"), recipeID, cid, pid)
}

func (s *TaskService) completionsFor(ctx context.Context, farmID string, from, to time.Time) (completionIndex, error) {
	rows, err := s.completionRepo.ListByDateRange(ctx, farmID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load completion ledger: %w", err)
	}
	idx := make(completionIndex, len(rows))
	for _, row := range rows {
		var cid, pid *string
		if row.CustomerID != "" {
			v := row.CustomerID
			cid = &v
		}
		if row.ProductID != "" {
			v := row.ProductID
			pid = &v
		}
		idx[completionKeyString(row.TaskType, row.TaskDate, row.RecipeID, cid, pid)] = row.Status
	}
	return idx, nil
}

// resolveStatus 台账里没有对应行就是 Pending
func (idx completionIndex) resolveStatus(task *Task) {
	if status, ok := idx[completionKeyString(task.Type, task.Date, task.RecipeID, task.CustomerID, task.ProductID)]; ok {
		task.Status = status
	} else {
		task.Status = "pending"
	}
}

// DailyTasks 某一天的任务列表
func (s *TaskService) DailyTasks(ctx context.Context, farmID string, date time.Time) ([]Task, error) {
	day := DateOnly(date)
	next := day.AddDate(0, 0, 1)

	var tasks []Task

	// 来源一：到期的待处理托盘步骤，按 (步骤名, 配方) 分桶
	steps, err := s.trayRepo.ListPendingStepsByDate(ctx, farmID, day)
	if err != nil {
		return nil, fmt.Errorf("list pending tray steps: %w", err)
	}
	tasks = append(tasks, groupTrayStepTasks(steps, day)...)

	// 来源二：播种计划里当天的浸种/播种任务
	entries, err := loadSchedule(ctx, s.orderRepo, s.recipeRepo, farmID, day, next)
	if err != nil {
		return nil, err
	}

	// 来源三：浸种到期事件——昨天浸了、今天还没播的种子。
	// 到期任务和计划推导的播种任务共用台账键，同键只保留到期
	// 这一条（更紧急），数量从计划条目带过来。
	expiring, err := s.expiringSoakTasks(ctx, farmID, day)
	if err != nil {
		return nil, err
	}
	expIdx := make(map[string]*Task, len(expiring))
	for i := range expiring {
		t := &expiring[i]
		expIdx[completionKeyString(t.Type, t.Date, t.RecipeID, t.CustomerID, t.ProductID)] = t
	}

	for _, e := range entries {
		if e.Type != entity.TaskTypeSoak && e.Type != entity.TaskTypeSeed {
			continue
		}
		st := scheduleEntryTask(e)
		if dup, ok := expIdx[completionKeyString(st.Type, st.Date, st.RecipeID, st.CustomerID, st.ProductID)]; ok {
			dup.Quantity = st.Quantity
			if dup.VarietyName == "" {
				dup.VarietyName = st.VarietyName
			}
			continue
		}
		tasks = append(tasks, st)
	}

	// 今天的计划里没有对应播种条目时，数量回退到浸种当天的计划
	if err := s.fillExpiringQuantities(ctx, farmID, day, expiring); err != nil {
		return nil, err
	}
	tasks = append(tasks, expiring...)

	idx, err := s.completionsFor(ctx, farmID, day, next)
	if err != nil {
		return nil, err
	}
	for i := range tasks {
		idx.resolveStatus(&tasks[i])
	}

	sortTasks(tasks)
	return tasks, nil
}

func groupTrayStepTasks(steps []entity.TrayStep, day time.Time) []Task {
	type bucket struct {
		task *Task
	}
	buckets := make(map[string]*bucket)
	var order []string

	for i := range steps {
		step := &steps[i]
		recipeID, recipeName := "", ""
		if step.Tray != nil {
			recipeID = step.Tray.RecipeID
			if step.Tray.Recipe != nil {
				recipeName = step.Tray.Recipe.Name
			}
		}
		key := step.Name + "|" + recipeID
		b, ok := buckets[key]
		if !ok {
			b = &bucket{task: &Task{
				Type:       entity.TaskTypeTrayStep,
				Action:     step.Name,
				Date:       day,
				RecipeID:   recipeID,
				RecipeName: recipeName,
				Urgent:     taskUrgent(entity.TaskTypeTrayStep, step.Name),
			}}
			buckets[key] = b
			order = append(order, key)
		}
		b.task.TrayIDs = append(b.task.TrayIDs, step.TrayID)
		b.task.Quantity = float64(len(b.task.TrayIDs))
	}

	out := make([]Task, 0, len(order))
	for _, key := range order {
		out = append(out, *buckets[key].task)
	}
	return out
}

func scheduleEntryTask(e ScheduleEntry) Task {
	return Task{
		Type:        e.Type,
		Action:      scheduleAction(e.Type),
		Date:        e.Date,
		RecipeID:    e.RecipeID,
		RecipeName:  e.RecipeName,
		VarietyName: e.VarietyName,
		CustomerID:  e.CustomerID,
		ProductID:   e.ProductID,
		Quantity:    e.Trays,
		Urgent:      taskUrgent(e.Type, ""),
	}
}

// expiringSoakTasks 浸种可用窗口将尽的种子
// 昨天标记完成的浸种，如果对应的播种任务今天还没完成，就以紧急任务浮出
func (s *TaskService) expiringSoakTasks(ctx context.Context, farmID string, day time.Time) ([]Task, error) {
	yesterday := day.AddDate(0, 0, -1)
	rows, err := s.completionRepo.ListByDateRange(ctx, farmID, yesterday, day)
	if err != nil {
		return nil, fmt.Errorf("load soak ledger: %w", err)
	}

	seedIdx, err := s.completionsFor(ctx, farmID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	var tasks []Task
	for _, row := range rows {
		if row.TaskType != entity.TaskTypeSoak || row.Status != entity.CompletionStatusCompleted {
			continue
		}
		var cid, pid *string
		if row.CustomerID != "" {
			v := row.CustomerID
			cid = &v
		}
		if row.ProductID != "" {
			v := row.ProductID
			pid = &v
		}
		if _, done := seedIdx[completionKeyString(entity.TaskTypeSeed, day, row.RecipeID, cid, pid)]; done {
			continue
		}

		recipeName := ""
		if recipe, err := s.recipeRepo.FindByID(ctx, row.RecipeID); err == nil {
			recipeName = recipe.Name
		}
		tasks = append(tasks, Task{
			Type:       entity.TaskTypeSeed,
			Action:     "Sow soaked seed (expiring)",
			Date:       day,
			RecipeID:   row.RecipeID,
			RecipeName: recipeName,
			CustomerID: cid,
			ProductID:  pid,
			Urgent:     true,
		})
	}
	return tasks, nil
}

// fillExpiringQuantities 给还没有数量的到期任务补数量
// 优先取浸种当天计划里同键浸种条目的盘数；计划里找不到来源时按一盘计，
// 浸种台账有完成行就意味着至少浸了一盘
func (s *TaskService) fillExpiringQuantities(ctx context.Context, farmID string, day time.Time, expiring []Task) error {
	missing := false
	for i := range expiring {
		if expiring[i].Quantity == 0 {
			missing = true
			break
		}
	}
	if !missing {
		return nil
	}

	yesterday := day.AddDate(0, 0, -1)
	entries, err := loadSchedule(ctx, s.orderRepo, s.recipeRepo, farmID, yesterday, day)
	if err != nil {
		return err
	}
	soakQty := make(map[string]float64, len(entries))
	for _, e := range entries {
		if e.Type != entity.TaskTypeSoak {
			continue
		}
		soakQty[completionKeyString(entity.TaskTypeSeed, day, e.RecipeID, e.CustomerID, e.ProductID)] += e.Trays
	}

	for i := range expiring {
		t := &expiring[i]
		if t.Quantity != 0 {
			continue
		}
		if qty, ok := soakQty[completionKeyString(t.Type, t.Date, t.RecipeID, t.CustomerID, t.ProductID)]; ok {
			t.Quantity = qty
		} else {
			t.Quantity = 1
		}
	}
	return nil
}

func weeklyCacheKey(farmID string, weekStart time.Time) string {
	return fmt.Sprintf("tasks:weekly:%s:%s", farmID, weekStart.Format("2006-01-02"))
}

// WeeklyTasks 参考日所在周（周一起始的 7 天窗口）的任务列表
func (s *TaskService) WeeklyTasks(ctx context.Context, farmID string, ref time.Time) ([]Task, error) {
	weekStart := WeekStart(ref)
	weekEnd := weekStart.AddDate(0, 0, 7)

	cacheKey := weeklyCacheKey(farmID, weekStart)
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
			var tasks []Task
			if json.Unmarshal(cached, &tasks) == nil {
				return tasks, nil
			}
		}
	}

	entries, err := loadSchedule(ctx, s.orderRepo, s.recipeRepo, farmID, weekStart, weekEnd)
	if err != nil {
		return nil, err
	}

	var tasks []Task
	for _, e := range entries {
		tasks = append(tasks, scheduleEntryTask(e))
	}

	// 维护任务按星期几注入，不参与合并（它们不以配方为键）
	maintenance, err := s.maintenanceRepo.ListActive(ctx, farmID)
	if err != nil {
		return nil, fmt.Errorf("list maintenance tasks: %w", err)
	}
	for _, m := range maintenance {
		offset := (m.Weekday - int(weekStart.Weekday()) + 7) % 7
		tasks = append(tasks, Task{
			Type:     entity.TaskTypeMaintenance,
			Action:   m.Title,
			Date:     weekStart.AddDate(0, 0, offset),
			RecipeID: m.ID,
			Quantity: 1,
		})
	}

	idx, err := s.completionsFor(ctx, farmID, weekStart, weekEnd)
	if err != nil {
		return nil, err
	}
	for i := range tasks {
		idx.resolveStatus(&tasks[i])
	}

	sortTasks(tasks)

	if s.rdb != nil {
		if data, err := json.Marshal(tasks); err == nil {
			s.rdb.Set(ctx, cacheKey, data, weeklyCacheTTL)
		}
	}
	return tasks, nil
}

func sortTasks(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		if a.RecipeID != b.RecipeID {
			return a.RecipeID < b.RecipeID
		}
		return a.Action < b.Action
	})
}

// MarkTaskInput 任务状态标记请求，键就是台账复合键
type MarkTaskInput struct {
	TaskType   string    `json:"task_type" binding:"required"`
	TaskDate   time.Time `json:"task_date" binding:"required"`
	RecipeID   string    `json:"recipe_id" binding:"required"`
	CustomerID *string   `json:"customer_id"`
	ProductID  *string   `json:"product_id"`
	Status     string    `json:"status" binding:"required"`
}

// MarkTask 标记任务状态
// completed/in_progress/skipped 走 upsert；pending 直接删台账行。
// 同一逻辑任务不管重新推导多少次，状态始终由这一行决定。
func (s *TaskService) MarkTask(ctx context.Context, farmID string, input *MarkTaskInput, userID string) error {
	taskDate := DateOnly(input.TaskDate)
	key := entity.CompletionKey{
		FarmID:     farmID,
		TaskType:   input.TaskType,
		TaskDate:   taskDate,
		RecipeID:   input.RecipeID,
		CustomerID: input.CustomerID,
		ProductID:  input.ProductID,
	}

	var err error
	switch input.Status {
	case "pending":
		err = s.completionRepo.DeleteByKey(ctx, key)
	case entity.CompletionStatusCompleted, entity.CompletionStatusInProgress, entity.CompletionStatusSkipped:
		customerID, productID := "", ""
		if input.CustomerID != nil {
			customerID = *input.CustomerID
		}
		if input.ProductID != nil {
			productID = *input.ProductID
		}
		err = s.completionRepo.Upsert(ctx, &entity.TaskCompletion{
			ID:         uuid.New().String()[:32],
			FarmID:     farmID,
			TaskType:   input.TaskType,
			TaskDate:   taskDate,
			RecipeID:   input.RecipeID,
			CustomerID: customerID,
			ProductID:  productID,
			Status:     input.Status,
			MarkedBy:   userID,
		})
	default:
		return fmt.Errorf("invalid task status %q", input.Status)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("mark task: %w", err)
	}

	// 台账变了，对应周的缓存作废
	if s.rdb != nil {
		s.rdb.Del(ctx, weeklyCacheKey(farmID, WeekStart(taskDate)))
	}
	return nil
}

// InvalidateWeeklyCache 台账变更后失效对应周的缓存
func (s *TaskService) InvalidateWeeklyCache(ctx context.Context, farmID string, ref time.Time) {
	if s.rdb != nil {
		s.rdb.Del(ctx, weeklyCacheKey(farmID, WeekStart(ref)))
	}
}

// InvalidateAllWeeklyCaches 订单/维护项变更影响所有已缓存的周视图
func (s *TaskService) InvalidateAllWeeklyCaches(ctx context.Context, farmID string) {
	if s.rdb == nil {
		return
	}
	pattern := fmt.Sprintf("tasks:weekly:%s:*", farmID)
	iter := s.rdb.Scan(ctx, 0, pattern, 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if len(keys) > 0 {
		s.rdb.Del(ctx, keys...)
	}
}
