package handler

import (
	"github.com/boilermanc/sproutify-micro-sub002/internal/farm/entity"
	"github.com/boilermanc/sproutify-micro-sub002/internal/farm/repository"
	"github.com/boilermanc/sproutify-micro-sub002/internal/farm/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OrderHandler 长期订单与主数据处理器
// 纯 CRUD，直接依赖仓储层；订单/维护项变更后失效周视图缓存
type OrderHandler struct {
	orderRepo       *repository.OrderRepository
	customerRepo    *repository.CustomerRepository
	productRepo     *repository.ProductRepository
	maintenanceRepo *repository.MaintenanceRepository
	taskSvc         *service.TaskService
}

// NewOrderHandler 创建订单处理器
func NewOrderHandler(orderRepo *repository.OrderRepository, customerRepo *repository.CustomerRepository, productRepo *repository.ProductRepository, maintenanceRepo *repository.MaintenanceRepository, taskSvc *service.TaskService) *OrderHandler {
	return &OrderHandler{
		orderRepo:       orderRepo,
		customerRepo:    customerRepo,
		productRepo:     productRepo,
		maintenanceRepo: maintenanceRepo,
		taskSvc:         taskSvc,
	}
}

// OrderItemInput 订单行请求
type OrderItemInput struct {
	ProductID        string  `json:"product_id" binding:"required"`
	RecipeID         string  `json:"recipe_id" binding:"required"`
	TraysPerDelivery float64 `json:"trays_per_delivery" binding:"required"`
	DeliveryWeekday  int     `json:"delivery_weekday"`
	LeadTimeDays     int     `json:"lead_time_days"`
}

func buildOrderItems(orderID string, inputs []OrderItemInput) ([]entity.StandingOrderItem, string) {
	items := make([]entity.StandingOrderItem, 0, len(inputs))
	for _, in := range inputs {
		if in.DeliveryWeekday < 0 || in.DeliveryWeekday > 6 {
			return nil, "delivery_weekday must be 0-6"
		}
		if in.TraysPerDelivery <= 0 {
			return nil, "trays_per_delivery must be positive"
		}
		if in.LeadTimeDays < 0 {
			return nil, "lead_time_days cannot be negative"
		}
		items = append(items, entity.StandingOrderItem{
			ID:               uuid.New().String()[:32],
			OrderID:          orderID,
			ProductID:        in.ProductID,
			RecipeID:         in.RecipeID,
			TraysPerDelivery: in.TraysPerDelivery,
			DeliveryWeekday:  in.DeliveryWeekday,
			LeadTimeDays:     in.LeadTimeDays,
		})
	}
	return items, ""
}

// ListOrders 获取活跃长期订单列表
func (h *OrderHandler) ListOrders(c *gin.Context) {
	farmID := GetFarmID(c)

	orders, err := h.orderRepo.ListActive(c.Request.Context(), farmID)
	if err != nil {
		InternalError(c, "Failed to list orders: "+err.Error())
		return
	}

	Success(c, orders)
}

// GetOrder 获取订单详情
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id := c.Param("id")

	order, err := h.orderRepo.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	Success(c, order)
}

// CreateOrder 创建长期订单
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	farmID := GetFarmID(c)

	var req struct {
		CustomerID string           `json:"customer_id" binding:"required"`
		Notes      string           `json:"notes"`
		Items      []OrderItemInput `json:"items" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	if _, err := h.customerRepo.FindByID(c.Request.Context(), req.CustomerID); err != nil {
		respondError(c, err)
		return
	}

	order := &entity.StandingOrder{
		ID:         uuid.New().String()[:32],
		FarmID:     farmID,
		CustomerID: req.CustomerID,
		Status:     entity.OrderStatusActive,
		Notes:      req.Notes,
	}
	items, msg := buildOrderItems(order.ID, req.Items)
	if msg != "" {
		BadRequest(c, msg)
		return
	}
	order.Items = items

	if err := h.orderRepo.Create(c.Request.Context(), order); err != nil {
		InternalError(c, "Failed to create order: "+err.Error())
		return
	}

	h.taskSvc.InvalidateAllWeeklyCaches(c.Request.Context(), farmID)
	Created(c, order)
}

// UpdateOrder 更新订单状态/备注，items 传入时整组替换
func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	id := c.Param("id")

	var req struct {
		Status *string          `json:"status"`
		Notes  *string          `json:"notes"`
		Items  []OrderItemInput `json:"items"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	order, err := h.orderRepo.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	if req.Status != nil {
		switch *req.Status {
		case entity.OrderStatusActive, entity.OrderStatusPaused, entity.OrderStatusEnded:
			order.Status = *req.Status
		default:
			BadRequest(c, "status must be active, paused, or ended")
			return
		}
	}
	if req.Notes != nil {
		order.Notes = *req.Notes
	}
	if err := h.orderRepo.Update(c.Request.Context(), order); err != nil {
		InternalError(c, "Failed to update order: "+err.Error())
		return
	}

	if req.Items != nil {
		items, msg := buildOrderItems(order.ID, req.Items)
		if msg != "" {
			BadRequest(c, msg)
			return
		}
		if err := h.orderRepo.ReplaceItems(c.Request.Context(), order.ID, items); err != nil {
			InternalError(c, "Failed to replace order items: "+err.Error())
			return
		}
	}

	order, err = h.orderRepo.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	h.taskSvc.InvalidateAllWeeklyCaches(c.Request.Context(), order.FarmID)
	Success(c, order)
}

// ListCustomers 获取客户列表
func (h *OrderHandler) ListCustomers(c *gin.Context) {
	farmID := GetFarmID(c)

	customers, err := h.customerRepo.ListByFarm(c.Request.Context(), farmID)
	if err != nil {
		InternalError(c, "Failed to list customers: "+err.Error())
		return
	}

	Success(c, customers)
}

// CreateCustomer 创建客户
func (h *OrderHandler) CreateCustomer(c *gin.Context) {
	farmID := GetFarmID(c)

	var req struct {
		Name    string `json:"name" binding:"required"`
		Contact string `json:"contact"`
		Email   string `json:"email"`
		Phone   string `json:"phone"`
		Address string `json:"address"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	customer := &entity.Customer{
		ID:      uuid.New().String()[:32],
		FarmID:  farmID,
		Name:    req.Name,
		Contact: req.Contact,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
	}
	if err := h.customerRepo.Create(c.Request.Context(), customer); err != nil {
		InternalError(c, "Failed to create customer: "+err.Error())
		return
	}

	Created(c, customer)
}

// ListProducts 获取产品列表
func (h *OrderHandler) ListProducts(c *gin.Context) {
	farmID := GetFarmID(c)

	products, err := h.productRepo.ListByFarm(c.Request.Context(), farmID)
	if err != nil {
		InternalError(c, "Failed to list products: "+err.Error())
		return
	}

	Success(c, products)
}

// CreateProduct 创建产品
func (h *OrderHandler) CreateProduct(c *gin.Context) {
	farmID := GetFarmID(c)

	var req struct {
		Name      string  `json:"name" binding:"required"`
		RecipeID  *string `json:"recipe_id"`
		UnitPrice float64 `json:"unit_price"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	product := &entity.Product{
		ID:        uuid.New().String()[:32],
		FarmID:    farmID,
		RecipeID:  req.RecipeID,
		Name:      req.Name,
		UnitPrice: req.UnitPrice,
	}
	if err := h.productRepo.Create(c.Request.Context(), product); err != nil {
		InternalError(c, "Failed to create product: "+err.Error())
		return
	}

	Created(c, product)
}

// ListMaintenance 获取例行维护任务列表
func (h *OrderHandler) ListMaintenance(c *gin.Context) {
	farmID := GetFarmID(c)

	tasks, err := h.maintenanceRepo.ListActive(c.Request.Context(), farmID)
	if err != nil {
		InternalError(c, "Failed to list maintenance tasks: "+err.Error())
		return
	}

	Success(c, tasks)
}

// CreateMaintenance 创建例行维护任务
func (h *OrderHandler) CreateMaintenance(c *gin.Context) {
	farmID := GetFarmID(c)

	var req struct {
		Title   string `json:"title" binding:"required"`
		Weekday *int   `json:"weekday" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}
	if *req.Weekday < 0 || *req.Weekday > 6 {
		BadRequest(c, "weekday must be 0-6")
		return
	}

	task := &entity.MaintenanceTask{
		ID:      uuid.New().String()[:32],
		FarmID:  farmID,
		Title:   req.Title,
		Weekday: *req.Weekday,
		Active:  true,
	}
	if err := h.maintenanceRepo.Create(c.Request.Context(), task); err != nil {
		InternalError(c, "Failed to create maintenance task: "+err.Error())
		return
	}

	h.taskSvc.InvalidateAllWeeklyCaches(c.Request.Context(), farmID)
	Created(c, task)
}
