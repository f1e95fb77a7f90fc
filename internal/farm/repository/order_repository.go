package repository

import (
	"context"
	"errors"

	"github.com/boilermanc/sproutify-micro-sub002/internal/farm/entity"
	"gorm.io/gorm"
)

// OrderRepository 长期订单仓库
type OrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建长期订单仓库
func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// FindByID 根据ID查找订单
func (r *OrderRepository) FindByID(ctx context.Context, id string) (*entity.StandingOrder, error) {
	var order entity.StandingOrder
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Items").
		Preload("Items.Product").
		Preload("Items.Recipe").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// ListActive 获取农场有效订单（含订单行及配方映射），播种计划的输入
func (r *OrderRepository) ListActive(ctx context.Context, farmID string) ([]entity.StandingOrder, error) {
	var orders []entity.StandingOrder
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Items").
		Preload("Items.Product").
		Preload("Items.Recipe").
		Where("farm_id = ? AND status = ?", farmID, entity.OrderStatusActive).
		Find(&orders).Error
	return orders, err
}

// Create 在一个事务里创建订单及订单行
func (r *OrderRepository) Create(ctx context.Context, order *entity.StandingOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// Update 更新订单
func (r *OrderRepository) Update(ctx context.Context, order *entity.StandingOrder) error {
	return r.db.WithContext(ctx).Save(order).Error
}

// ReplaceItems 整体替换订单行
func (r *OrderRepository) ReplaceItems(ctx context.Context, orderID string, items []entity.StandingOrderItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", orderID).Delete(&entity.StandingOrderItem{}).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = orderID
			if err := tx.Create(&items[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// CustomerRepository 客户仓库
type CustomerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository 创建客户仓库
func NewCustomerRepository(db *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// FindByID 根据ID查找客户
func (r *CustomerRepository) FindByID(ctx context.Context, id string) (*entity.Customer, error) {
	var customer entity.Customer
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&customer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &customer, nil
}

// ListByFarm 获取农场客户列表
func (r *CustomerRepository) ListByFarm(ctx context.Context, farmID string) ([]entity.Customer, error) {
	var customers []entity.Customer
	err := r.db.WithContext(ctx).
		Where("farm_id = ?", farmID).
		Order("name ASC").
		Find(&customers).Error
	return customers, err
}

// Create 创建客户
func (r *CustomerRepository) Create(ctx context.Context, customer *entity.Customer) error {
	return r.db.WithContext(ctx).Create(customer).Error
}

// Update 更新客户
func (r *CustomerRepository) Update(ctx context.Context, customer *entity.Customer) error {
	return r.db.WithContext(ctx).Save(customer).Error
}

// ProductRepository 产品仓库
type ProductRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建产品仓库
func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// FindByID 根据ID查找产品
func (r *ProductRepository) FindByID(ctx context.Context, id string) (*entity.Product, error) {
	var product entity.Product
	err := r.db.WithContext(ctx).
		Preload("Recipe").
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// ListByFarm 获取农场产品列表
func (r *ProductRepository) ListByFarm(ctx context.Context, farmID string) ([]entity.Product, error) {
	var products []entity.Product
	err := r.db.WithContext(ctx).
		Preload("Recipe").
		Where("farm_id = ?", farmID).
		Order("name ASC").
		Find(&products).Error
	return products, err
}

// Create 创建产品
func (r *ProductRepository) Create(ctx context.Context, product *entity.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// Update 更新产品
func (r *ProductRepository) Update(ctx context.Context, product *entity.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

// MaintenanceRepository 维护任务仓库
type MaintenanceRepository struct {
	db *gorm.DB
}

// NewMaintenanceRepository 创建维护任务仓库
func NewMaintenanceRepository(db *gorm.DB) *MaintenanceRepository {
	return &MaintenanceRepository{db: db}
}

// ListActive 获取农场有效维护任务
func (r *MaintenanceRepository) ListActive(ctx context.Context, farmID string) ([]entity.MaintenanceTask, error) {
	var tasks []entity.MaintenanceTask
	err := r.db.WithContext(ctx).
		Where("farm_id = ? AND active = ?", farmID, true).
		Order("weekday ASC, title ASC").
		Find(&tasks).Error
	return tasks, err
}

// Create 创建维护任务
func (r *MaintenanceRepository) Create(ctx context.Context, task *entity.MaintenanceTask) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// Update 更新维护任务
func (r *MaintenanceRepository) Update(ctx context.Context, task *entity.MaintenanceTask) error {
	return r.db.WithContext(ctx).Save(task).Error
}
