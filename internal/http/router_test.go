package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	nethttp "net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"mealplanr/internal/auth"
	"mealplanr/internal/catalog"
	"mealplanr/internal/clock"
	"mealplanr/internal/database"
	httpH "mealplanr/internal/http/handlers"
	httpMW "mealplanr/internal/http/middleware"
	"mealplanr/internal/http/response"
	"mealplanr/internal/logger"
	"mealplanr/internal/planner"
	"mealplanr/internal/shopping"
	"mealplanr/internal/user"
)

type testAPI struct {
	t      *testing.T
	engine *gin.Engine
	token  string
}

// newTestAPI wires the full router over a temporary database holding 25 meals, 5 of them vegan.
func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewDB(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	meals := make([]catalog.Meal, 0, 25)
	for i := 1; i <= 25; i++ {
		m := catalog.Meal{
			Name:        fmt.Sprintf("Meal %02d", i),
			PortionSize: "1 plate",
			Ingredients: []catalog.Ingredient{{Item: fmt.Sprintf("Ingredient %02d", i), Quantity: "1"}, {Item: "Salt", Quantity: "1 pinch"}},
			DietaryTags: []string{},
		}
		if i <= 5 {
			m.DietaryTags = []string{"vegan"}
		}
		meals = append(meals, m)
	}
	catalogRepo := catalog.NewRepository(db.SQL)
	if err := catalogRepo.ReplaceAll(context.Background(), meals); err != nil {
		t.Fatalf("Failed to seed catalog: %v", err)
	}

	log := logger.NewNop()
	clk := clock.NewFakeClock(time.Now())
	users := user.NewRepository(db.SQL)
	authService := auth.NewService(users, "test-secret", 30*time.Minute, clk, log)
	plans := planner.NewService(catalogRepo, planner.NewPlanRepository(db.SQL), clk, rand.New(rand.NewPCG(3, 4)), log)

	engine := NewRouter(RouterConfig{
		Log:            log,
		AllowedOrigins: []string{"http://localhost:3000"},
		AuthHandler:    httpH.NewAuthHandler(authService, users),
		AuthMiddleware: httpMW.NewAuthMiddleware(log, authService),
		PlanHandler:    httpH.NewPlanHandler(plans),
		MealHandler:    httpH.NewMealHandler(catalogRepo),
		HealthHandler:  httpH.NewHealthHandler(db),
	})
	return &testAPI{t: t, engine: engine}
}

func (a *testAPI) do(method, path string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			a.t.Fatalf("Failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	rec := httptest.NewRecorder()
	a.engine.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("Failed to decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("Expected status %d, got %d: %s", status, rec.Code, rec.Body.String())
	}
	env := decode[response.ErrorEnvelope](t, rec)
	if env.Error.Code != code {
		t.Errorf("Expected code %s, got %s", code, env.Error.Code)
	}
}

func (a *testAPI) signup(email string) {
	a.t.Helper()
	rec := a.do(nethttp.MethodPost, "/api/v1/auth/signup", map[string]string{"email": email, "password": "s3cret"})
	if rec.Code != nethttp.StatusOK {
		a.t.Fatalf("Signup failed: %d %s", rec.Code, rec.Body.String())
	}
	a.token = decode[tokenBody](a.t, rec).AccessToken
}

type tokenBody struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func TestAuthFlow(t *testing.T) {
	api := newTestAPI(t)

	t.Run("Signup", func(t *testing.T) {
		api.signup("cook@example.com")
		if api.token == "" {
			t.Fatalf("Expected an access token")
		}
	})

	t.Run("SignupTwice", func(t *testing.T) {
		rec := api.do(nethttp.MethodPost, "/api/v1/auth/signup", map[string]string{"email": "cook@example.com", "password": "x"})
		expectError(t, rec, nethttp.StatusBadRequest, response.CodeEmailTaken)
	})

	t.Run("SignupInvalidEmail", func(t *testing.T) {
		rec := api.do(nethttp.MethodPost, "/api/v1/auth/signup", map[string]string{"email": "nope", "password": "x"})
		expectError(t, rec, nethttp.StatusBadRequest, response.CodeInvalidRequest)
	})

	t.Run("LoginForm", func(t *testing.T) {
		form := url.Values{"username": {"cook@example.com"}, "password": {"s3cret"}}
		req := httptest.NewRequest(nethttp.MethodPost, "/api/v1/auth/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		api.engine.ServeHTTP(rec, req)

		if rec.Code != nethttp.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if tb := decode[tokenBody](t, rec); tb.TokenType != "bearer" || tb.AccessToken == "" {
			t.Errorf("Unexpected token response %+v", tb)
		}
	})

	t.Run("LoginWrongPassword", func(t *testing.T) {
		rec := api.do(nethttp.MethodPost, "/api/v1/auth/login", map[string]string{"email": "cook@example.com", "password": "bad"})
		expectError(t, rec, nethttp.StatusUnauthorized, response.CodeInvalidCredentials)
		if rec.Header().Get("WWW-Authenticate") != "Bearer" {
			t.Errorf("Expected WWW-Authenticate: Bearer")
		}
	})

	t.Run("Me", func(t *testing.T) {
		rec := api.do(nethttp.MethodGet, "/api/v1/auth/me", nil)
		if rec.Code != nethttp.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}
		if strings.Contains(rec.Body.String(), "hashed") || strings.Contains(rec.Body.String(), "$2a$") {
			t.Errorf("Expected no password hash in %s", rec.Body.String())
		}
		u := decode[user.User](t, rec)
		if u.Email != "cook@example.com" || u.Profile.WeeklyBudget != 50 {
			t.Errorf("Unexpected user %+v", u)
		}
	})

	t.Run("UpdateProfile", func(t *testing.T) {
		rec := api.do(nethttp.MethodPut, "/api/v1/profile", user.Profile{WeeklyBudget: 70, DietaryRestrictions: []string{"Vegan"}})
		if rec.Code != nethttp.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		me := decode[user.User](t, api.do(nethttp.MethodGet, "/api/v1/auth/me", nil))
		if me.Profile.WeeklyBudget != 70 || len(me.Profile.DietaryRestrictions) != 1 || me.Profile.DietaryRestrictions[0] != "vegan" {
			t.Errorf("Expected updated profile, got %+v", me.Profile)
		}
	})

	t.Run("NoToken", func(t *testing.T) {
		anon := &testAPI{t: t, engine: api.engine}
		expectError(t, anon.do(nethttp.MethodGet, "/api/v1/meal-plan", nil), nethttp.StatusUnauthorized, response.CodeUnauthorized)
	})
}

func TestMealPlanFlow(t *testing.T) {
	api := newTestAPI(t)
	api.signup("planner@example.com")

	t.Run("NotFoundBeforeGenerate", func(t *testing.T) {
		expectError(t, api.do(nethttp.MethodGet, "/api/v1/meal-plan", nil), nethttp.StatusNotFound, response.CodePlanNotFound)
	})

	var plan planner.WeekPlan
	t.Run("Generate", func(t *testing.T) {
		rec := api.do(nethttp.MethodPost, "/api/v1/meal-plan/generate", nil)
		if rec.Code != nethttp.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		plan = decode[planner.WeekPlan](t, rec)
		if len(plan.Days) != 7 {
			t.Fatalf("Expected 7 days, got %d", len(plan.Days))
		}
		salt, ok := plan.ShoppingList.Find(shopping.DerivedID("Salt"))
		if !ok {
			t.Fatalf("Expected Salt on the list")
		}
		if n := strings.Count(plan.ShoppingList[salt].Quantity, shopping.QuantitySeparator); n != 20 {
			t.Errorf("Expected 21 merged Salt quantities, got %d separators", n)
		}
	})

	t.Run("Get", func(t *testing.T) {
		got := decode[planner.WeekPlan](t, api.do(nethttp.MethodGet, "/api/v1/meal-plan", nil))
		if got.ID != plan.ID || got.Week != plan.Week {
			t.Errorf("Expected stored plan %d/%s, got %d/%s", plan.ID, plan.Week, got.ID, got.Week)
		}
	})

	t.Run("Swap", func(t *testing.T) {
		before := plan.Day("Monday").Lunch.ID
		rec := api.do(nethttp.MethodPost, "/api/v1/meal-plan/swap", map[string]string{"day": "Monday", "mealType": "lunch"})
		if rec.Code != nethttp.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		swapped := decode[planner.WeekPlan](t, rec)
		after := swapped.Day("Monday").Lunch.ID
		if after == before {
			t.Errorf("Expected a different meal after swap")
		}
		if _, used := plan.MealIDs()[after]; used {
			t.Errorf("Expected swap to pick a meal not already planned")
		}
	})

	t.Run("SwapInvalidSlot", func(t *testing.T) {
		rec := api.do(nethttp.MethodPost, "/api/v1/meal-plan/swap", map[string]string{"day": "Monday", "mealType": "brunch"})
		expectError(t, rec, nethttp.StatusBadRequest, response.CodeInvalidSlot)
	})

	t.Run("Remove", func(t *testing.T) {
		rec := api.do(nethttp.MethodPost, "/api/v1/meal-plan/remove", map[string]string{"day": "sunday", "mealType": "Dinner"})
		if rec.Code != nethttp.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got := decode[planner.WeekPlan](t, rec); got.Day("Sunday").Dinner != nil {
			t.Errorf("Expected Sunday dinner to be empty")
		}
	})

	var item shopping.Item
	t.Run("AddItem", func(t *testing.T) {
		rec := api.do(nethttp.MethodPost, "/api/v1/shopping-list/item", map[string]any{"item": "Coffee", "quantity": "1 bag", "price": 6.5})
		if rec.Code != nethttp.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		item = decode[shopping.Item](t, rec)
		if item.Source != shopping.SourceManual || item.Price == nil || *item.Price != 6.5 {
			t.Errorf("Unexpected item %+v", item)
		}
	})

	t.Run("AddItemRequiresQuantity", func(t *testing.T) {
		rec := api.do(nethttp.MethodPost, "/api/v1/shopping-list/item", map[string]any{"item": "Milk"})
		expectError(t, rec, nethttp.StatusBadRequest, response.CodeInvalidRequest)

		rec = api.do(nethttp.MethodPost, "/api/v1/shopping-list/item", map[string]any{"item": "Milk", "quantity": ""})
		expectError(t, rec, nethttp.StatusBadRequest, response.CodeInvalidRequest)

		rec = api.do(nethttp.MethodGet, "/api/v1/meal-plan", nil)
		if rec.Code != nethttp.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		for _, it := range decode[planner.WeekPlan](t, rec).ShoppingList {
			if it.Item == "Milk" {
				t.Errorf("Expected rejected item to stay off the list, got %+v", it)
			}
		}
	})

	t.Run("CheckItem", func(t *testing.T) {
		rec := api.do(nethttp.MethodPatch, "/api/v1/shopping-list/item/"+item.ID, map[string]bool{"checked": true})
		if rec.Code != nethttp.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if !decode[shopping.Item](t, rec).Checked {
			t.Errorf("Expected item to be checked")
		}
		rec = api.do(nethttp.MethodPatch, "/api/v1/shopping-list/item/"+item.ID, map[string]string{})
		expectError(t, rec, nethttp.StatusBadRequest, response.CodeInvalidRequest)
	})

	t.Run("DeleteItem", func(t *testing.T) {
		rec := api.do(nethttp.MethodDelete, "/api/v1/shopping-list/item/"+item.ID, nil)
		if rec.Code != nethttp.StatusNoContent {
			t.Fatalf("Expected 204, got %d", rec.Code)
		}
		rec = api.do(nethttp.MethodDelete, "/api/v1/shopping-list/item/"+item.ID, nil)
		expectError(t, rec, nethttp.StatusNotFound, response.CodeItemNotFound)
	})

	t.Run("InsufficientCatalog", func(t *testing.T) {
		api.do(nethttp.MethodPut, "/api/v1/profile", user.Profile{WeeklyBudget: 50, DietaryRestrictions: []string{"keto"}})
		rec := api.do(nethttp.MethodPost, "/api/v1/meal-plan/generate", nil)
		expectError(t, rec, nethttp.StatusBadRequest, response.CodeInsufficientCatalog)
	})
}

func TestMealsAndHealth(t *testing.T) {
	api := newTestAPI(t)

	t.Run("ListVegan", func(t *testing.T) {
		rec := api.do(nethttp.MethodGet, "/api/v1/meals?tag=vegan", nil)
		if rec.Code != nethttp.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}
		body := decode[struct {
			Meals []catalog.Meal `json:"meals"`
		}](t, rec)
		if len(body.Meals) != 5 {
			t.Errorf("Expected 5 vegan meals, got %d", len(body.Meals))
		}
	})

	t.Run("Health", func(t *testing.T) {
		rec := api.do(nethttp.MethodGet, "/api/v1/healthz", nil)
		if rec.Code != nethttp.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
			t.Errorf("Expected healthy response, got %d %s", rec.Code, rec.Body.String())
		}
	})
}
