package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/boilermanc/sproutify-micro-sub002/internal/config"
	"github.com/boilermanc/sproutify-micro-sub002/internal/farm/entity"
	"github.com/boilermanc/sproutify-micro-sub002/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	TestSchema = "test_farm"
	JWTSecret  = "sproutify-jwt-secret-key-2024"

	// TestFarmID is the farm baked into tokens from DefaultTestToken
	TestFarmID = "farm-test-001"
)

// TestEnv holds test environment resources
type TestEnv struct {
	DB     *gorm.DB
	Router *gin.Engine
	T      *testing.T
}

// projectRoot returns the project root directory by looking for go.mod
func projectRoot() string {
	_, filename, _, _ := runtime.Caller(0)
	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// loadEnv loads .env from the project root
func loadEnv() {
	root := projectRoot()
	if root != "" {
		godotenv.Load(filepath.Join(root, ".env"))
	}
}

// SetupTestRedis returns a redis client for cache tests, skipping the test
// when no redis server is reachable. Callers should key their data by a
// unique farm ID since redis has no per-test schema isolation.
func SetupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	loadEnv()

	addr := fmt.Sprintf("%s:%s",
		config.GetEnvOrDefault("REDIS_HOST", "127.0.0.1"),
		config.GetEnvOrDefault("REDIS_PORT", "6379"))
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: config.GetEnvOrDefault("REDIS_PASSWORD", ""),
		DB:       15,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		t.Skipf("redis not available at %s: %v", addr, err)
	}

	t.Cleanup(func() { rdb.Close() })
	return rdb
}

// SetupTestDB creates a test database connection using a dedicated test schema.
// Each test gets an isolated schema that is cleaned up after the test.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	loadEnv()

	host := config.GetEnvOrDefault("DB_HOST", "127.0.0.1")
	port := config.GetEnvOrDefault("DB_PORT", "5432")
	user := config.GetEnvOrDefault("DB_USER", "sproutify")
	password := config.GetEnvOrDefault("DB_PASSWORD", "sproutify123")
	dbname := config.GetEnvOrDefault("DB_NAME", "sproutify_farm")

	baseDSN := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	// Create a unique test schema for isolation
	schemaName := fmt.Sprintf("%s_%d", TestSchema, time.Now().UnixNano()%1000000)

	// First: create schema using a temporary connection
	setupDB, err := gorm.Open(postgres.Open(baseDSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to database for schema setup: %v", err)
	}
	setupDB.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schemaName))
	sqlSetup, _ := setupDB.DB()
	sqlSetup.Close()

	// Second: open connection with search_path in DSN so ALL pooled connections use test schema
	testDSN := fmt.Sprintf("%s search_path=%s", baseDSN, schemaName)
	db, err := gorm.Open(postgres.Open(testDSN), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	// Migrate test tables
	err = db.AutoMigrate(
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
	)
	if err != nil {
		t.Fatalf("Failed to migrate test tables: %v", err)
	}

	// Cleanup on test completion
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		// Reconnect to drop the schema
		cleanDB, cleanErr := gorm.Open(postgres.Open(baseDSN), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if cleanErr == nil {
			cleanDB.Exec(fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schemaName))
			sqlClean, _ := cleanDB.DB()
			if sqlClean != nil {
				sqlClean.Close()
			}
		}
	})

	return db
}

// SetupRouter creates a gin test router
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

// AuthGroup creates an API group with JWT auth middleware for testing
func AuthGroup(r *gin.Engine, path string) *gin.RouterGroup {
	return r.Group(path, middleware.JWTAuth(JWTSecret))
}

// GenerateTestToken creates a valid JWT token for testing
func GenerateTestToken(userID, farmID, name, email string) string {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":     userID,
		"uid":     userID,
		"farm_id": farmID,
		"name":    name,
		"email":   email,
		"iss":     "sproutify",
		"iat":     now.Unix(),
		"exp":     now.Add(24 * time.Hour).Unix(),
		"jti":     fmt.Sprintf("test-jti-%d", now.UnixNano()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(JWTSecret))
	return tokenString
}

// DefaultTestToken returns a token for a default test operator on TestFarmID
func DefaultTestToken() string {
	return GenerateTestToken(
		"test-user-001",
		TestFarmID,
		"Test Operator",
		"operator@test.com",
	)
}

// DoRequest executes an HTTP request against the test router
func DoRequest(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse parses the JSON response body into a handler.Response-like map
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// SeedTestFarm creates the default test farm
func SeedTestFarm(t *testing.T, db *gorm.DB) *entity.Farm {
	t.Helper()
	farm := &entity.Farm{
		ID:      TestFarmID,
		Name:    "Test Farm",
		OwnerID: "test-user-001",
	}
	if err := db.Create(farm).Error; err != nil {
		t.Fatalf("Failed to seed test farm: %v", err)
	}
	return farm
}

// SeedTestVariety creates a variety with the given per-tray seed mass in grams
func SeedTestVariety(t *testing.T, db *gorm.DB, id, name string, gramsPerTray float64) *entity.Variety {
	t.Helper()
	farmID := TestFarmID
	variety := &entity.Variety{
		ID:              id,
		FarmID:          &farmID,
		Name:            name,
		SeedMassPerTray: gramsPerTray,
		SeedMassUnit:    entity.MassUnitGram,
	}
	if err := db.Create(variety).Error; err != nil {
		t.Fatalf("Failed to seed test variety: %v", err)
	}
	return variety
}

// SeedTestRecipe creates a farm recipe with ordered steps.
// Each duration is given in days.
func SeedTestRecipe(t *testing.T, db *gorm.DB, id, name string, varietyID *string, stepDays []float64) *entity.Recipe {
	t.Helper()
	farmID := TestFarmID
	recipe := &entity.Recipe{
		ID:        id,
		FarmID:    &farmID,
		VarietyID: varietyID,
		Name:      name,
	}
	if err := db.Create(recipe).Error; err != nil {
		t.Fatalf("Failed to seed test recipe: %v", err)
	}
	for i, days := range stepDays {
		step := &entity.Step{
			ID:            fmt.Sprintf("%s-step-%d", id, i+1),
			RecipeID:      id,
			Sequence:      i + 1,
			Name:          fmt.Sprintf("Step %d", i+1),
			DurationValue: days,
			DurationUnit:  entity.StepUnitDay,
		}
		if err := db.Create(step).Error; err != nil {
			t.Fatalf("Failed to seed recipe step: %v", err)
		}
	}
	return recipe
}

// SeedTestBatch creates a seed batch with the given remaining grams
func SeedTestBatch(t *testing.T, db *gorm.DB, id, varietyID string, remainingGrams float64) *entity.SeedBatch {
	t.Helper()
	batch := &entity.SeedBatch{
		ID:             id,
		FarmID:         TestFarmID,
		VarietyID:      varietyID,
		RemainingGrams: remainingGrams,
	}
	if err := db.Create(batch).Error; err != nil {
		t.Fatalf("Failed to seed test batch: %v", err)
	}
	return batch
}

