package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gastroflow/api/internal/auth"
	"github.com/gastroflow/api/internal/database"
	"github.com/gastroflow/api/internal/enum"
	"github.com/gastroflow/api/internal/handler"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

// --- Mock store ---

type mockAuthStore struct {
	byUsername map[string]database.Worker
	byID       map[uuid.UUID]database.Worker
}

func newMockAuthStore() *mockAuthStore {
	return &mockAuthStore{
		byUsername: make(map[string]database.Worker),
		byID:       make(map[uuid.UUID]database.Worker),
	}
}

func (m *mockAuthStore) addWorker(w database.Worker) {
	m.byUsername[w.Username] = w
	m.byID[w.ID] = w
}

func (m *mockAuthStore) GetWorkerByUsername(_ context.Context, username string) (database.Worker, error) {
	w, ok := m.byUsername[username]
	if !ok {
		return database.Worker{}, pgx.ErrNoRows
	}
	return w, nil
}

func (m *mockAuthStore) GetWorker(_ context.Context, id uuid.UUID) (database.Worker, error) {
	w, ok := m.byID[id]
	if !ok {
		return database.Worker{}, pgx.ErrNoRows
	}
	return w, nil
}

// --- Helpers ---

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return string(h)
}

func makeTestWorker(t *testing.T) database.Worker {
	t.Helper()
	return database.Worker{
		ID:           uuid.New(),
		Username:     "alice",
		PasswordHash: hashPassword(t, "correct-password"),
		DisplayName:  "Alice",
		Position:     enum.PositionWaiter,
	}
}

func postJSON(t *testing.T, router http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest("POST", path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func jsonBody(t *testing.T, body interface{}) *bytes.Reader {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	return bytes.NewReader(b)
}

func getPath(t *testing.T, router http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func newAuthRouter(store handler.AuthStore) http.Handler {
	r := chi.NewRouter()
	handler.NewAuthHandler(store, testSecret).RegisterRoutes(r)
	return r
}

// --- Login tests ---

func TestLoginSuccess(t *testing.T) {
	store := newMockAuthStore()
	worker := makeTestWorker(t)
	store.addWorker(worker)
	router := newAuthRouter(store)

	rr := postJSON(t, router, "/auth/login", map[string]string{
		"username": "alice",
		"password": "correct-password",
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["access_token"] == "" {
		t.Error("expected access_token in response")
	}
	claims, err := auth.ValidateToken(testSecret, resp["access_token"].(string))
	if err != nil {
		t.Fatalf("validate issued token: %v", err)
	}
	if claims.WorkerID != worker.ID {
		t.Errorf("token worker id = %s, want %s", claims.WorkerID, worker.ID)
	}
	if claims.Position != enum.PositionWaiter {
		t.Errorf("token position = %q, want %q", claims.Position, enum.PositionWaiter)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	store := newMockAuthStore()
	store.addWorker(makeTestWorker(t))
	router := newAuthRouter(store)

	rr := postJSON(t, router, "/auth/login", map[string]string{
		"username": "alice",
		"password": "wrong-password",
	})

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestLoginUnknownUsername(t *testing.T) {
	router := newAuthRouter(newMockAuthStore())

	rr := postJSON(t, router, "/auth/login", map[string]string{
		"username": "nobody",
		"password": "whatever",
	})

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestLoginMissingFields(t *testing.T) {
	router := newAuthRouter(newMockAuthStore())

	rr := postJSON(t, router, "/auth/login", map[string]string{"username": "alice"})

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

// --- Refresh tests ---

func TestRefreshSuccess(t *testing.T) {
	store := newMockAuthStore()
	worker := makeTestWorker(t)
	store.addWorker(worker)
	router := newAuthRouter(store)

	refresh, err := auth.GenerateRefreshToken(testSecret, worker.ID)
	if err != nil {
		t.Fatalf("generate refresh token: %v", err)
	}

	rr := postJSON(t, router, "/auth/refresh", map[string]string{"refresh_token": refresh})

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["access_token"] == "" || resp["refresh_token"] == "" {
		t.Error("expected a fresh token pair")
	}
}

func TestRefreshInvalidToken(t *testing.T) {
	router := newAuthRouter(newMockAuthStore())

	rr := postJSON(t, router, "/auth/refresh", map[string]string{"refresh_token": "not-a-jwt"})

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestRefreshUnknownWorker(t *testing.T) {
	router := newAuthRouter(newMockAuthStore())

	refresh, err := auth.GenerateRefreshToken(testSecret, uuid.New())
	if err != nil {
		t.Fatalf("generate refresh token: %v", err)
	}

	rr := postJSON(t, router, "/auth/refresh", map[string]string{"refresh_token": refresh})

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}
