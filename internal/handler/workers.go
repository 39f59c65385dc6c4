package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gastroflow/api/internal/database"
	"github.com/gastroflow/api/internal/enum"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// WorkerStore defines the database methods needed by worker handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type WorkerStore interface {
	ListWorkers(ctx context.Context) ([]database.Worker, error)
	CreateWorker(ctx context.Context, arg database.CreateWorkerParams) (database.Worker, error)
}

// WorkerHandler handles staff management endpoints.
type WorkerHandler struct {
	store WorkerStore
}

func NewWorkerHandler(store WorkerStore) *WorkerHandler {
	return &WorkerHandler{store: store}
}

// RegisterRoutes registers worker endpoints on the given Chi router.
func (h *WorkerHandler) RegisterRoutes(r chi.Router) {
	r.Get("/workers", h.List)
	r.Post("/workers", h.Create)
}

type createWorkerRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Position    string `json:"position"`
	Salary      string `json:"salary"`
}

// List returns all staff members without credentials.
func (h *WorkerHandler) List(w http.ResponseWriter, r *http.Request) {
	workers, err := h.store.ListWorkers(r.Context())
	if err != nil {
		log.Printf("ERROR: list workers: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]workerResponse, 0, len(workers))
	for _, worker := range workers {
		resp = append(resp, toWorkerResponse(worker))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create registers a staff member with a bcrypt password hash.
func (h *WorkerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createWorkerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Username == "" || req.Password == "" || req.DisplayName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "username, password and display_name are required"})
		return
	}
	switch req.Position {
	case enum.PositionWaiter, enum.PositionChef, enum.PositionAssistant, enum.PositionBarista:
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid position"})
		return
	}

	salary := pgtype.Numeric{}
	if req.Salary != "" {
		d, err := decimal.NewFromString(req.Salary)
		if err != nil || d.IsNegative() {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid salary"})
			return
		}
		if err := salary.Scan(d.String()); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid salary"})
			return
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("ERROR: hash password: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	worker, err := h.store.CreateWorker(r.Context(), database.CreateWorkerParams{
		Username:     req.Username,
		PasswordHash: string(hash),
		DisplayName:  req.DisplayName,
		Position:     req.Position,
		Salary:       salary,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "username already taken"})
			return
		}
		log.Printf("ERROR: create worker: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusCreated, toWorkerResponse(worker))
}

func toWorkerResponse(worker database.Worker) workerResponse {
	return workerResponse{
		ID:          worker.ID,
		Username:    worker.Username,
		DisplayName: worker.DisplayName,
		Position:    worker.Position,
	}
}
