package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/boilermanc/sproutify-micro-sub002/internal/config"
	"github.com/boilermanc/sproutify-micro-sub002/internal/farm/entity"
	"github.com/boilermanc/sproutify-micro-sub002/internal/farm/handler"
	"github.com/boilermanc/sproutify-micro-sub002/internal/farm/repository"
	"github.com/boilermanc/sproutify-micro-sub002/internal/farm/service"
	"github.com/boilermanc/sproutify-micro-sub002/internal/middleware"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载 .env 文件
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting sproutify service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	// 初始化数据库
	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := db.AutoMigrate(
		&entity.Farm{},
		&entity.Variety{},
		&entity.SeedBatch{},
		&entity.Recipe{},
		&entity.Step{},
		&entity.Tray{},
		&entity.TrayStep{},
		&entity.TrayCreationRequest{},
		&entity.TaskCompletion{},
		&entity.Customer{},
		&entity.Product{},
		&entity.StandingOrder{},
		&entity.StandingOrderItem{},
		&entity.MaintenanceTask{},
	); err != nil {
		zapLogger.Fatal("AutoMigrate failed", zap.Error(err))
	}
	zapLogger.Info("Database migration completed")

	// 初始化 Redis（周任务视图缓存）
	rdb := initRedis(cfg.Redis)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		zapLogger.Warn("Redis unavailable, weekly task cache disabled", zap.Error(err))
		rdb = nil
	}

	// 初始化 MinIO（播种计划导出归档）
	minioClient, err := initMinIO(cfg.MinIO)
	if err != nil {
		zapLogger.Warn("MinIO unavailable, plan export archiving disabled", zap.Error(err))
		minioClient = nil
	}

	// 仓库、服务、处理器
	repos := repository.NewRepositories(db)
	services := service.NewServices(db, repos, rdb, minioClient, cfg.MinIO.Bucket)
	handlers := handler.NewHandlers(services, repos)

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// 注册路由
	registerRoutes(router, handlers, cfg)

	// 创建HTTP服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 启动服务器
	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func initMinIO(cfg config.MinIOConfig) (*minio.Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint not configured")
	}
	return minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, cfg *config.Config) {
	// 健康检查
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 版本信息
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	api := r.Group("/api/v1")
	api.Use(middleware.JWTAuth(cfg.JWT.Secret))
	{
		// 配方
		api.GET("/recipes", h.Recipe.List)
		api.POST("/recipes", h.Recipe.Create)
		api.GET("/recipes/:id", h.Recipe.Get)
		api.PUT("/recipes/:id/steps", h.Recipe.UpdateSteps)
		api.DELETE("/recipes/:id", h.Recipe.Delete)
		api.GET("/recipes/:id/grow-days", h.Recipe.GrowDays)
		api.POST("/recipes/:id/copy", h.Recipe.Copy)

		// 品种与种子批次
		api.GET("/varieties", h.Inventory.ListVarieties)
		api.POST("/varieties", h.Inventory.CreateVariety)
		api.GET("/seed-batches", h.Inventory.ListBatches)
		api.POST("/seed-batches", h.Inventory.CreateBatch)
		api.PUT("/seed-batches/:id/remaining", h.Inventory.AdjustBatch)
		api.GET("/seed-batches/match", h.Inventory.MatchBatches)

		// 托盘
		api.GET("/trays", h.Tray.List)
		api.GET("/trays/:id", h.Tray.Get)
		api.POST("/trays/:id/harvest", h.Tray.Harvest)
		api.POST("/trays/:id/lost", h.Tray.MarkLost)
		api.POST("/tray-steps/:stepId/complete", h.Tray.CompleteStep)
		api.POST("/tray-steps/:stepId/skip", h.Tray.SkipStep)

		// 播种管线
		api.GET("/seeding/requests", h.Seeding.ListRequests)
		api.POST("/seeding/requests", h.Seeding.CreateRequest)
		api.POST("/seeding/requests/:id/cancel", h.Seeding.CancelRequest)
		api.POST("/seeding/fulfill", h.Seeding.FulfillSeedTask)

		// 任务视图
		api.GET("/tasks/daily", h.Task.Daily)
		api.GET("/tasks/weekly", h.Task.Weekly)
		api.POST("/tasks/mark", h.Task.Mark)

		// 播种计划
		api.GET("/plans/seeding", h.Plan.Get)
		api.GET("/plans/seeding/export", h.Plan.Export)

		// 订单与主数据
		api.GET("/orders", h.Order.ListOrders)
		api.POST("/orders", h.Order.CreateOrder)
		api.GET("/orders/:id", h.Order.GetOrder)
		api.PUT("/orders/:id", h.Order.UpdateOrder)
		api.GET("/customers", h.Order.ListCustomers)
		api.POST("/customers", h.Order.CreateCustomer)
		api.GET("/products", h.Order.ListProducts)
		api.POST("/products", h.Order.CreateProduct)
		api.GET("/maintenance", h.Order.ListMaintenance)
		api.POST("/maintenance", h.Order.CreateMaintenance)
	}
}
