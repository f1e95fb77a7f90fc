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

func setupTrayTest(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	testutil.SeedTestFarm(t, db)

	repos := repository.NewRepositories(db)
	services := service.NewServices(db, repos, nil, nil, "")
	h := NewTrayHandler(services.Tray)

	r := testutil.SetupRouter()
	api := testutil.AuthGroup(r, "/api/v1")
	api.GET("/trays", h.List)
	api.GET("/trays/:id", h.Get)
	api.POST("/trays/:id/harvest", h.Harvest)
	api.POST("/trays/:id/lost", h.MarkLost)
	api.POST("/tray-steps/:stepId/complete", h.CompleteStep)
	api.POST("/tray-steps/:stepId/skip", h.SkipStep)
	return r, db
}

func seedTray(t *testing.T, db *gorm.DB, id string, status string) {
	t.Helper()
	testutil.SeedTestRecipe(t, db, "rec-"+id, "Radish", nil, []float64{3, 4})
	if err := db.Create(&entity.Tray{
		ID:       id,
		FarmID:   testutil.TestFarmID,
		RecipeID: "rec-" + id,
		SowDate:  time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		Status:   status,
	}).Error; err != nil {
		t.Fatalf("seed tray: %v", err)
	}
}

func TestTrayStageAndProjectedHarvest(t *testing.T) {
	r, db := setupTrayTest(t)
	token := testutil.DefaultTestToken()
	seedTray(t, db, "tray-1", entity.TrayStatusActive)

	if err := db.Create(&entity.TrayStep{
		ID:            "ts-1",
		TrayID:        "tray-1",
		StepID:        "rec-tray-1-step-1",
		Name:          "Blackout",
		Sequence:      1,
		ScheduledDate: time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC),
		Status:        entity.TrayStepStatusPending,
	}).Error; err != nil {
		t.Fatalf("seed tray step: %v", err)
	}

	w := testutil.DoRequest(r, "GET", "/api/v1/trays/tray-1", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["stage"] != "Blackout" {
		t.Errorf("Expected stage Blackout, got %v", data["stage"])
	}
	// 7 grow days from Sep 1
	if proj, _ := data["projected_harvest"].(string); len(proj) < 10 || proj[:10] != "2026-09-08" {
		t.Errorf("Expected projected harvest 2026-09-08, got %v", data["projected_harvest"])
	}
}

func TestHarvestTray(t *testing.T) {
	r, db := setupTrayTest(t)
	token := testutil.DefaultTestToken()
	seedTray(t, db, "tray-1", entity.TrayStatusActive)

	body := map[string]interface{}{
		"harvest_date": "2026-09-08",
		"yield_grams":  310.5,
	}
	w := testutil.DoRequest(r, "POST", "/api/v1/trays/tray-1/harvest", body, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(r, "GET", "/api/v1/trays/tray-1", nil, token)
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["stage"] != entity.TrayStageHarvested {
		t.Errorf("Expected Harvested stage, got %v", data["stage"])
	}
	if data["yield_grams"].(float64) != 310.5 {
		t.Errorf("Expected yield 310.5, got %v", data["yield_grams"])
	}
}

func TestLostTrayIsTerminal(t *testing.T) {
	r, db := setupTrayTest(t)
	token := testutil.DefaultTestToken()
	seedTray(t, db, "tray-1", entity.TrayStatusActive)

	w := testutil.DoRequest(r, "POST", "/api/v1/trays/tray-1/lost",
		map[string]interface{}{"reason": "mold"}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// No harvest after loss
	w = testutil.DoRequest(r, "POST", "/api/v1/trays/tray-1/harvest",
		map[string]interface{}{"harvest_date": "2026-09-08"}, token)
	if w.Code != http.StatusConflict {
		t.Fatalf("Harvest after loss: expected 409, got %d: %s", w.Code, w.Body.String())
	}

	// No double loss
	w = testutil.DoRequest(r, "POST", "/api/v1/trays/tray-1/lost",
		map[string]interface{}{"reason": "again"}, token)
	if w.Code != http.StatusConflict {
		t.Fatalf("Double loss: expected 409, got %d: %s", w.Code, w.Body.String())
	}

	// Stage stays Lost even with pending steps
	if err := db.Create(&entity.TrayStep{
		ID: "ts-1", TrayID: "tray-1", StepID: "s", Name: "Light", Sequence: 1,
		ScheduledDate: time.Date(2026, 9, 4, 0, 0, 0, 0, time.UTC),
		Status:        entity.TrayStepStatusPending,
	}).Error; err != nil {
		t.Fatalf("seed step: %v", err)
	}
	w = testutil.DoRequest(r, "GET", "/api/v1/trays/tray-1", nil, token)
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["stage"] != entity.TrayStageLost {
		t.Errorf("Expected Lost stage, got %v", data["stage"])
	}

	// Step operations are rejected on lost trays
	w = testutil.DoRequest(r, "POST", "/api/v1/tray-steps/ts-1/complete", nil, token)
	if w.Code != http.StatusConflict {
		t.Fatalf("Step on lost tray: expected 409, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCompleteAndSkipSteps(t *testing.T) {
	r, db := setupTrayTest(t)
	token := testutil.DefaultTestToken()
	seedTray(t, db, "tray-1", entity.TrayStatusActive)

	for i, name := range []string{"Blackout", "Light"} {
		if err := db.Create(&entity.TrayStep{
			ID: name, TrayID: "tray-1", StepID: name, Name: name, Sequence: i + 1,
			ScheduledDate: time.Date(2026, 9, 2+i, 0, 0, 0, 0, time.UTC),
			Status:        entity.TrayStepStatusPending,
		}).Error; err != nil {
			t.Fatalf("seed step: %v", err)
		}
	}

	w := testutil.DoRequest(r, "POST", "/api/v1/tray-steps/Blackout/complete", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Complete: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	w = testutil.DoRequest(r, "POST", "/api/v1/tray-steps/Light/skip", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Skip: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var steps []entity.TrayStep
	db.Order("sequence").Find(&steps)
	if steps[0].Status != entity.TrayStepStatusCompleted || steps[0].CompletedAt == nil {
		t.Errorf("Expected completed with timestamp, got %+v", steps[0])
	}
	if steps[1].Status != entity.TrayStepStatusSkipped {
		t.Errorf("Expected skipped, got %s", steps[1].Status)
	}

	// All steps resolved: stage falls back to Growing
	w = testutil.DoRequest(r, "GET", "/api/v1/trays/tray-1", nil, token)
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["stage"] != entity.TrayStageGrowing {
		t.Errorf("Expected Growing, got %v", data["stage"])
	}
}
