package entity

import (
	"time"
)

// Farm 农场
type Farm struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	Name      string    `json:"name" gorm:"size:128;not null"`
	OwnerID   string    `json:"owner_id" gorm:"size:32;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Farm) TableName() string {
	return "farms"
}

// Customer 客户
type Customer struct {
	ID        string     `json:"id" gorm:"primaryKey;size:32"`
	FarmID    string     `json:"farm_id" gorm:"size:32;not null;index"`
	Name      string     `json:"name" gorm:"size:128;not null"`
	Contact   string     `json:"contact" gorm:"size:128"`
	Email     string     `json:"email" gorm:"size:128"`
	Phone     string     `json:"phone" gorm:"size:32"`
	Address   string     `json:"address" gorm:"size:256"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at" gorm:"index"`
}

func (Customer) TableName() string {
	return "customers"
}

// Product 产品，把订单行映射到配方
type Product struct {
	ID        string     `json:"id" gorm:"primaryKey;size:32"`
	FarmID    string     `json:"farm_id" gorm:"size:32;not null;index"`
	RecipeID  *string    `json:"recipe_id" gorm:"size:32;index"`
	Name      string     `json:"name" gorm:"size:128;not null"`
	UnitPrice float64    `json:"unit_price" gorm:"not null;default:0"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at" gorm:"index"`

	// 关联
	Recipe *Recipe `json:"recipe,omitempty" gorm:"foreignKey:RecipeID"`
}

func (Product) TableName() string {
	return "products"
}

// 长期订单状态
const (
	OrderStatusActive = "active"
	OrderStatusPaused = "paused"
	OrderStatusEnded  = "ended"
)

// StandingOrder 长期订单，按周循环交付
type StandingOrder struct {
	ID         string     `json:"id" gorm:"primaryKey;size:32"`
	FarmID     string     `json:"farm_id" gorm:"size:32;not null;index"`
	CustomerID string     `json:"customer_id" gorm:"size:32;not null;index"`
	Status     string     `json:"status" gorm:"size:16;not null;default:active"`
	Notes      string     `json:"notes" gorm:"type:text"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	DeletedAt  *time.Time `json:"deleted_at" gorm:"index"`

	// 关联
	Customer *Customer           `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	Items    []StandingOrderItem `json:"items,omitempty" gorm:"foreignKey:OrderID"`
}

func (StandingOrder) TableName() string {
	return "standing_orders"
}

// StandingOrderItem 长期订单行
// trays_per_delivery 允许小数（按客户需求量折算），生成播种计划时按行向上取整
type StandingOrderItem struct {
	ID               string    `json:"id" gorm:"primaryKey;size:32"`
	OrderID          string    `json:"order_id" gorm:"size:32;not null;index"`
	ProductID        string    `json:"product_id" gorm:"size:32;not null"`
	RecipeID         string    `json:"recipe_id" gorm:"size:32;not null;index"`
	TraysPerDelivery float64   `json:"trays_per_delivery" gorm:"not null;default:1"`
	DeliveryWeekday  int       `json:"delivery_weekday" gorm:"not null;default:1"` // 0=Sunday .. 6=Saturday
	LeadTimeDays     int       `json:"lead_time_days" gorm:"not null;default:0"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	// 关联
	Order   *StandingOrder `json:"order,omitempty" gorm:"foreignKey:OrderID"`
	Product *Product       `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Recipe  *Recipe        `json:"recipe,omitempty" gorm:"foreignKey:RecipeID"`
}

func (StandingOrderItem) TableName() string {
	return "standing_order_items"
}

// MaintenanceTask 例行维护任务，按星期几排进周任务表，不参与合并
type MaintenanceTask struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	FarmID    string    `json:"farm_id" gorm:"size:32;not null;index"`
	Title     string    `json:"title" gorm:"size:128;not null"`
	Weekday   int       `json:"weekday" gorm:"not null"` // 0=Sunday .. 6=Saturday
	Active    bool      `json:"active" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (MaintenanceTask) TableName() string {
	return "maintenance_tasks"
}
