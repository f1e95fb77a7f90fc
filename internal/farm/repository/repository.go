package repository

import (
	"errors"

	"gorm.io/gorm"
)

// 错误定义
var (
	ErrNotFound = errors.New("record not found")
)

// Repositories 仓库集合
type Repositories struct {
	Recipe      *RecipeRepository
	Variety     *VarietyRepository
	Batch       *BatchRepository
	Tray        *TrayRepository
	Request     *RequestRepository
	Completion  *CompletionRepository
	Order       *OrderRepository
	Customer    *CustomerRepository
	Product     *ProductRepository
	Maintenance *MaintenanceRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Recipe:      NewRecipeRepository(db),
		Variety:     NewVarietyRepository(db),
		Batch:       NewBatchRepository(db),
		Tray:        NewTrayRepository(db),
		Request:     NewRequestRepository(db),
		Completion:  NewCompletionRepository(db),
		Order:       NewOrderRepository(db),
		Customer:    NewCustomerRepository(db),
		Product:     NewProductRepository(db),
		Maintenance: NewMaintenanceRepository(db),
	}
}
