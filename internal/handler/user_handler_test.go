package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/centsible/centsible-backend/internal/domain"
	"github.com/centsible/centsible-backend/internal/ledger/memory"
	"github.com/centsible/centsible-backend/internal/service"
	"github.com/centsible/centsible-backend/internal/testutil"
	"github.com/centsible/centsible-backend/internal/ws"
)

func TestCreateUser_Success(t *testing.T) {
	store := memory.New()
	handler := NewUserHandler(service.NewUserService(store, &ws.NoOpPublisher{}))

	body := `{"id": "user-1", "email": "u1@example.com"}`
	rec := doJSON(t, handler.Create, http.MethodPost, "/api/v1/users", body, "")

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var user domain.User
	if err := json.Unmarshal(rec.Body.Bytes(), &user); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if user.ID != "user-1" {
		t.Errorf("Expected id 'user-1', got %s", user.ID)
	}
	if user.Email != "u1@example.com" {
		t.Errorf("Expected email 'u1@example.com', got %s", user.Email)
	}
}

func TestCreateUser_Duplicate(t *testing.T) {
	store := memory.New()
	testutil.SeedUser(t, store, "user-1", "u1@example.com")
	handler := NewUserHandler(service.NewUserService(store, &ws.NoOpPublisher{}))

	body := `{"id": "user-1", "email": "u1@example.com"}`
	rec := doJSON(t, handler.Create, http.MethodPost, "/api/v1/users", body, "")

	if rec.Code != http.StatusConflict {
		t.Fatalf("Expected status 409, got %d", rec.Code)
	}

	var problem ProblemDetails
	if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
		t.Fatalf("Failed to unmarshal problem details: %v", err)
	}
	if problem.Type != errTypeConflict {
		t.Errorf("Expected conflict problem type, got %s", problem.Type)
	}
}

func TestMe_NotFound(t *testing.T) {
	store := memory.New()
	handler := NewUserHandler(service.NewUserService(store, &ws.NoOpPublisher{}))

	rec := doJSON(t, handler.Me, http.MethodGet, "/api/v1/users/me", "", "ghost")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404, got %d", rec.Code)
	}
}

func TestUpdatePreferences_Success(t *testing.T) {
	store := memory.New()
	testutil.SeedUser(t, store, "user-1", "u1@example.com")
	handler := NewUserHandler(service.NewUserService(store, &ws.NoOpPublisher{}))

	body := `{"budgetPeriod": "bi-weekly", "paySchedule": {"startDate": "2026-01-02"}}`
	rec := doJSON(t, handler.UpdatePreferences, http.MethodPut, "/api/v1/users/me/preferences", body, "user-1")

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var user domain.User
	if err := json.Unmarshal(rec.Body.Bytes(), &user); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if user.Preferences.BudgetPeriod != domain.BudgetPeriodBiWeekly {
		t.Errorf("Expected bi-weekly budget period, got %s", user.Preferences.BudgetPeriod)
	}
}
