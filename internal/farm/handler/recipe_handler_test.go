package handler

import (
	"net/http"
	"testing"

	"github.com/boilermanc/sproutify-micro-sub002/internal/farm/entity"
	"github.com/boilermanc/sproutify-micro-sub002/internal/farm/repository"
	"github.com/boilermanc/sproutify-micro-sub002/internal/farm/service"
	"github.com/boilermanc/sproutify-micro-sub002/internal/farm/testutil"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func setupRecipeTest(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	testutil.SeedTestFarm(t, db)

	repos := repository.NewRepositories(db)
	services := service.NewServices(db, repos, nil, nil, "")
	h := NewRecipeHandler(services.Recipe)

	r := testutil.SetupRouter()
	api := testutil.AuthGroup(r, "/api/v1")
	api.GET("/recipes", h.List)
	api.POST("/recipes", h.Create)
	api.GET("/recipes/:id", h.Get)
	api.PUT("/recipes/:id/steps", h.UpdateSteps)
	api.DELETE("/recipes/:id", h.Delete)
	api.GET("/recipes/:id/grow-days", h.GrowDays)
	api.POST("/recipes/:id/copy", h.Copy)
	return r, db
}

func TestCreateRecipeWithSteps(t *testing.T) {
	r, _ := setupRecipeTest(t)
	token := testutil.DefaultTestToken()

	body := map[string]interface{}{
		"name": "Sunflower Standard",
		"steps": []map[string]interface{}{
			{"sequence": 1, "name": "Germination", "duration_value": 2, "duration_unit": "day"},
			{"sequence": 2, "name": "Blackout", "duration_value": 3, "duration_unit": "day"},
			{"sequence": 3, "name": "Light", "duration_value": 18, "duration_unit": "hour"},
		},
	}
	w := testutil.DoRequest(r, "POST", "/api/v1/recipes", body, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	recipeID := data["id"].(string)

	// 2 + 3 days, plus an 18h step that rounds to one day
	w = testutil.DoRequest(r, "GET", "/api/v1/recipes/"+recipeID+"/grow-days", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp = testutil.ParseResponse(w)
	days := resp["data"].(map[string]interface{})["grow_days"].(float64)
	if days != 6 {
		t.Errorf("Expected 6 grow days, got %v", days)
	}
}

func TestCreateRecipeRejectsDuplicateSequence(t *testing.T) {
	r, _ := setupRecipeTest(t)
	token := testutil.DefaultTestToken()

	body := map[string]interface{}{
		"name": "Broken Recipe",
		"steps": []map[string]interface{}{
			{"sequence": 1, "name": "A", "duration_value": 1, "duration_unit": "day"},
			{"sequence": 1, "name": "B", "duration_value": 2, "duration_unit": "day"},
		},
	}
	w := testutil.DoRequest(r, "POST", "/api/v1/recipes", body, token)
	if w.Code == http.StatusCreated {
		t.Fatalf("Duplicate sequence must be rejected, got %d", w.Code)
	}
}

func TestUpdateStepsReplacesWholeSet(t *testing.T) {
	r, db := setupRecipeTest(t)
	token := testutil.DefaultTestToken()

	testutil.SeedTestRecipe(t, db, "rec-1", "Radish", nil, []float64{2, 4})

	body := map[string]interface{}{
		"steps": []map[string]interface{}{
			{"sequence": 1, "name": "Soak Check", "duration_value": 1, "duration_unit": "day"},
		},
	}
	w := testutil.DoRequest(r, "PUT", "/api/v1/recipes/rec-1/steps", body, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var steps []entity.Step
	db.Where("recipe_id = ?", "rec-1").Find(&steps)
	if len(steps) != 1 {
		t.Errorf("Expected old steps replaced, got %d rows", len(steps))
	}
}

func TestGlobalRecipeIsReadOnly(t *testing.T) {
	r, db := setupRecipeTest(t)
	token := testutil.DefaultTestToken()

	if err := db.Create(&entity.Recipe{ID: "global-1", Name: "Template"}).Error; err != nil {
		t.Fatalf("seed global recipe: %v", err)
	}

	body := map[string]interface{}{
		"steps": []map[string]interface{}{
			{"sequence": 1, "name": "X", "duration_value": 1, "duration_unit": "day"},
		},
	}
	w := testutil.DoRequest(r, "PUT", "/api/v1/recipes/global-1/steps", body, token)
	if w.Code != http.StatusConflict {
		t.Fatalf("Editing a template: expected 409, got %d: %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(r, "DELETE", "/api/v1/recipes/global-1", nil, token)
	if w.Code != http.StatusConflict {
		t.Fatalf("Deleting a template: expected 409, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCopyGlobalRecipeReusesExistingCopy(t *testing.T) {
	r, db := setupRecipeTest(t)
	token := testutil.DefaultTestToken()

	if err := db.Create(&entity.Recipe{ID: "global-2", Name: "Pea Template"}).Error; err != nil {
		t.Fatalf("seed global recipe: %v", err)
	}
	steps := []entity.Step{
		{ID: "global-2-s1", RecipeID: "global-2", Sequence: 1, Name: "Germination", DurationValue: 3, DurationUnit: "day"},
		{ID: "global-2-s2", RecipeID: "global-2", Sequence: 2, Name: "Light", DurationValue: 5, DurationUnit: "day"},
	}
	if err := db.Create(&steps).Error; err != nil {
		t.Fatalf("seed global steps: %v", err)
	}

	w := testutil.DoRequest(r, "POST", "/api/v1/recipes/global-2/copy", nil, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	copyID := data["id"].(string)
	if copyID == "global-2" {
		t.Fatal("Copy must get its own ID")
	}
	if data["farm_id"] != testutil.TestFarmID {
		t.Errorf("Copy should belong to the farm, got farm_id %v", data["farm_id"])
	}
	if data["source_recipe_id"] != "global-2" {
		t.Errorf("Copy should record its source, got %v", data["source_recipe_id"])
	}

	var copiedSteps []entity.Step
	db.Where("recipe_id = ?", copyID).Find(&copiedSteps)
	if len(copiedSteps) != 2 {
		t.Errorf("Expected 2 copied steps, got %d", len(copiedSteps))
	}

	// Copying again returns the same farm copy instead of minting another.
	w = testutil.DoRequest(r, "POST", "/api/v1/recipes/global-2/copy", nil, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201 on repeat copy, got %d: %s", w.Code, w.Body.String())
	}
	resp = testutil.ParseResponse(w)
	if again := resp["data"].(map[string]interface{})["id"].(string); again != copyID {
		t.Errorf("Repeat copy returned %s, want %s", again, copyID)
	}
}

func TestGetRecipeNotFound(t *testing.T) {
	r, _ := setupRecipeTest(t)
	token := testutil.DefaultTestToken()

	w := testutil.DoRequest(r, "GET", "/api/v1/recipes/nope", nil, token)
	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestListRecipesRequiresAuth(t *testing.T) {
	r, _ := setupRecipeTest(t)

	w := testutil.DoRequest(r, "GET", "/api/v1/recipes", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401 without token, got %d", w.Code)
	}
}
