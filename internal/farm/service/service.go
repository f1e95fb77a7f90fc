package service

import (
	"github.com/boilermanc/sproutify-micro-sub002/internal/farm/repository"
	"github.com/minio/minio-go/v7"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Services 服务集合
type Services struct {
	Recipe    *RecipeService
	Inventory *InventoryService
	Seeding   *SeedingService
	Task      *TaskService
	Plan      *PlanService
	Tray      *TrayService
}

// NewServices 创建服务集合
func NewServices(db *gorm.DB, repos *repository.Repositories, rdb *redis.Client, minioClient *minio.Client, bucket string) *Services {
	recipeSvc := NewRecipeService(repos.Recipe, repos.Variety)
	inventorySvc := NewInventoryService(repos.Batch, repos.Variety, repos.Recipe)

	taskSvc := NewTaskService(repos.Order, repos.Recipe, repos.Tray, repos.Completion, repos.Maintenance, rdb)

	return &Services{
		Recipe:    recipeSvc,
		Inventory: inventorySvc,
		Seeding:   NewSeedingService(db, recipeSvc, inventorySvc, taskSvc, repos.Request, repos.Batch),
		Task:      taskSvc,
		Plan:      NewPlanService(repos.Order, repos.Recipe, minioClient, bucket),
		Tray:      NewTrayService(repos.Tray, repos.Recipe),
	}
}
