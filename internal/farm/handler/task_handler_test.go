package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/boilermanc/sproutify-micro-sub002/internal/farm/entity"
	"github.com/boilermanc/sproutify-micro-sub002/internal/farm/repository"
	"github.com/boilermanc/sproutify-micro-sub002/internal/farm/service"
	"github.com/boilermanc/sproutify-micro-sub002/internal/farm/testutil"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func setupTaskTest(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	testutil.SeedTestFarm(t, db)

	repos := repository.NewRepositories(db)
	services := service.NewServices(db, repos, nil, nil, "")
	h := NewTaskHandler(services.Task)

	r := testutil.SetupRouter()
	api := testutil.AuthGroup(r, "/api/v1")
	api.GET("/tasks/daily", h.Daily)
	api.GET("/tasks/weekly", h.Weekly)
	api.POST("/tasks/mark", h.Mark)
	return r, db
}

// seedStandingOrder wires variety → recipe → product → customer → order so
// that a sow task lands on 2026-09-03 (delivery Friday 2026-09-11,
// 7 grow days, 1 lead day).
func seedStandingOrder(t *testing.T, db *gorm.DB) {
	t.Helper()
	testutil.SeedTestVariety(t, db, "var-1", "Sunflower", 40)
	varietyID := "var-1"
	testutil.SeedTestRecipe(t, db, "rec-1", "Sunflower Standard", &varietyID, []float64{2, 5})

	if err := db.Create(&entity.Customer{
		ID: "cust-1", FarmID: testutil.TestFarmID, Name: "Green Cafe",
	}).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	recipeID := "rec-1"
	if err := db.Create(&entity.Product{
		ID: "prod-1", FarmID: testutil.TestFarmID, RecipeID: &recipeID, Name: "Sunflower Tray",
	}).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	order := &entity.StandingOrder{
		ID:         "order-1",
		FarmID:     testutil.TestFarmID,
		CustomerID: "cust-1",
		Status:     entity.OrderStatusActive,
		Items: []entity.StandingOrderItem{{
			ID:               "item-1",
			OrderID:          "order-1",
			ProductID:        "prod-1",
			RecipeID:         "rec-1",
			TraysPerDelivery: 2,
			DeliveryWeekday:  5, // Friday
			LeadTimeDays:     1,
		}},
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
}

func findTask(tasks []interface{}, taskType string) map[string]interface{} {
	for _, raw := range tasks {
		task := raw.(map[string]interface{})
		if task["type"] == taskType {
			return task
		}
	}
	return nil
}

func TestDailyTasksFromStandingOrder(t *testing.T) {
	r, db := setupTaskTest(t)
	token := testutil.DefaultTestToken()
	seedStandingOrder(t, db)

	w := testutil.DoRequest(r, "GET", "/api/v1/tasks/daily?date=2026-09-03", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	resp := testutil.ParseResponse(w)
	tasks := resp["data"].([]interface{})
	seedTask := findTask(tasks, entity.TaskTypeSeed)
	if seedTask == nil {
		t.Fatalf("Expected a seed task on 2026-09-03, got %v", tasks)
	}
	if seedTask["quantity"].(float64) != 2 {
		t.Errorf("Expected 2 trays, got %v", seedTask["quantity"])
	}
	if seedTask["status"] != "pending" {
		t.Errorf("Unmarked task should be pending, got %v", seedTask["status"])
	}
	if seedTask["urgent"] != true {
		t.Error("Seed tasks are urgent")
	}
}

func TestMarkTaskDrivesStatus(t *testing.T) {
	r, db := setupTaskTest(t)
	token := testutil.DefaultTestToken()
	seedStandingOrder(t, db)

	mark := map[string]interface{}{
		"task_type":   entity.TaskTypeSeed,
		"task_date":   "2026-09-03T00:00:00Z",
		"recipe_id":   "rec-1",
		"customer_id": "cust-1",
		"product_id":  "prod-1",
		"status":      "completed",
	}
	w := testutil.DoRequest(r, "POST", "/api/v1/tasks/mark", mark, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Mark: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// Regenerated task view resolves status from the ledger
	w = testutil.DoRequest(r, "GET", "/api/v1/tasks/daily?date=2026-09-03", nil, token)
	resp := testutil.ParseResponse(w)
	seedTask := findTask(resp["data"].([]interface{}), entity.TaskTypeSeed)
	if seedTask == nil {
		t.Fatal("seed task missing after marking")
	}
	if seedTask["status"] != "completed" {
		t.Errorf("Expected completed, got %v", seedTask["status"])
	}

	// Marking back to pending removes the ledger row
	mark["status"] = "pending"
	w = testutil.DoRequest(r, "POST", "/api/v1/tasks/mark", mark, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Unmark: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var count int64
	db.Model(&entity.TaskCompletion{}).Count(&count)
	if count != 0 {
		t.Errorf("Expected ledger emptied, got %d rows", count)
	}

	w = testutil.DoRequest(r, "GET", "/api/v1/tasks/daily?date=2026-09-03", nil, token)
	resp = testutil.ParseResponse(w)
	seedTask = findTask(resp["data"].([]interface{}), entity.TaskTypeSeed)
	if seedTask["status"] != "pending" {
		t.Errorf("Expected pending after unmark, got %v", seedTask["status"])
	}
}

func TestMarkTaskRejectsUnknownStatus(t *testing.T) {
	r, _ := setupTaskTest(t)
	token := testutil.DefaultTestToken()

	mark := map[string]interface{}{
		"task_type": entity.TaskTypeSeed,
		"task_date": "2026-09-03T00:00:00Z",
		"recipe_id": "rec-1",
		"status":    "done-ish",
	}
	w := testutil.DoRequest(r, "POST", "/api/v1/tasks/mark", mark, token)
	if w.Code == http.StatusOK {
		t.Fatal("Unknown status must be rejected")
	}
}

func TestWeeklyTasksIncludeMaintenance(t *testing.T) {
	r, db := setupTaskTest(t)
	token := testutil.DefaultTestToken()
	seedStandingOrder(t, db)

	if err := db.Create(&entity.MaintenanceTask{
		ID:      "maint-1",
		FarmID:  testutil.TestFarmID,
		Title:   "Sanitize racks",
		Weekday: 1, // Monday
		Active:  true,
	}).Error; err != nil {
		t.Fatalf("seed maintenance: %v", err)
	}

	w := testutil.DoRequest(r, "GET", "/api/v1/tasks/weekly?date=2026-09-03", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	resp := testutil.ParseResponse(w)
	tasks := resp["data"].([]interface{})

	maint := findTask(tasks, entity.TaskTypeMaintenance)
	if maint == nil {
		t.Fatalf("Expected maintenance task in week view, got %v", tasks)
	}
	// Monday of the week containing Thursday Sep 3
	if date, _ := maint["date"].(string); len(date) < 10 || date[:10] != "2026-08-31" {
		t.Errorf("Expected maintenance on 2026-08-31, got %v", maint["date"])
	}

	if findTask(tasks, entity.TaskTypeSeed) == nil {
		t.Error("Expected seed tasks in week view")
	}
	if findTask(tasks, entity.TaskTypeHarvest) == nil {
		t.Error("Expected harvest tasks in week view")
	}
}

func TestDailyTasksIncludeDuePendingTraySteps(t *testing.T) {
	r, db := setupTaskTest(t)
	token := testutil.DefaultTestToken()
	seedStandingOrder(t, db)

	day := time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC)
	for i, trayID := range []string{"tray-1", "tray-2"} {
		if err := db.Create(&entity.Tray{
			ID:       trayID,
			FarmID:   testutil.TestFarmID,
			RecipeID: "rec-1",
			SowDate:  day.AddDate(0, 0, -2),
			Status:   entity.TrayStatusActive,
		}).Error; err != nil {
			t.Fatalf("seed tray: %v", err)
		}
		if err := db.Create(&entity.TrayStep{
			ID:            "ts-" + trayID,
			TrayID:        trayID,
			StepID:        "rec-1-step-2",
			Name:          "Uncover",
			Sequence:      2,
			ScheduledDate: day.AddDate(0, 0, -i), // one due today, one overdue
			Status:        entity.TrayStepStatusPending,
		}).Error; err != nil {
			t.Fatalf("seed tray step: %v", err)
		}
	}

	w := testutil.DoRequest(r, "GET", "/api/v1/tasks/daily?date=2026-09-03", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	resp := testutil.ParseResponse(w)
	stepTask := findTask(resp["data"].([]interface{}), entity.TaskTypeTrayStep)
	if stepTask == nil {
		t.Fatal("Expected a grouped tray step task")
	}
	if stepTask["action"] != "Uncover" {
		t.Errorf("Expected action Uncover, got %v", stepTask["action"])
	}
	trayIDs := stepTask["tray_ids"].([]interface{})
	if len(trayIDs) != 2 {
		t.Errorf("Overdue steps fold into today's bucket, expected 2 trays, got %d", len(trayIDs))
	}
}

func TestExpiringSoakReplacesSowTask(t *testing.T) {
	r, db := setupTaskTest(t)
	token := testutil.DefaultTestToken()
	seedStandingOrder(t, db)

	// Soak done on 2026-09-02, sow still pending the next day.
	body := map[string]interface{}{
		"task_type":   entity.TaskTypeSoak,
		"task_date":   "2026-09-02T00:00:00Z",
		"recipe_id":   "rec-1",
		"customer_id": "cust-1",
		"product_id":  "prod-1",
		"status":      "completed",
	}
	w := testutil.DoRequest(r, "POST", "/api/v1/tasks/mark", body, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 marking soak, got %d: %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(r, "GET", "/api/v1/tasks/daily?date=2026-09-03", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	resp := testutil.ParseResponse(w)
	tasks := resp["data"].([]interface{})

	var seedTasks []map[string]interface{}
	for _, raw := range tasks {
		task := raw.(map[string]interface{})
		if task["type"] == entity.TaskTypeSeed {
			seedTasks = append(seedTasks, task)
		}
	}
	if len(seedTasks) != 1 {
		t.Fatalf("Soaked-seed alert shares its key with the sow task, expected one merged seed task, got %d: %v", len(seedTasks), seedTasks)
	}

	task := seedTasks[0]
	if task["action"] != "Sow soaked seed (expiring)" {
		t.Errorf("Expected expiring action, got %v", task["action"])
	}
	if task["quantity"].(float64) != 2 {
		t.Errorf("Expiring task must carry the planned tray count, got %v", task["quantity"])
	}
	if task["urgent"] != true {
		t.Errorf("Expiring task should be urgent")
	}
	if task["status"] != "pending" {
		t.Errorf("Sow not done yet, expected pending, got %v", task["status"])
	}
}
