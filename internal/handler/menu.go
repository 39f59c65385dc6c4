package handler

import (
	"context"
	"log"
	"net/http"

	"github.com/gastroflow/api/internal/database"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// MenuStore defines the database methods needed by menu handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type MenuStore interface {
	ListAvailableMenuItems(ctx context.Context) ([]database.MenuItem, error)
	ListAdditionsByMenuItem(ctx context.Context, menuItemID uuid.UUID) ([]database.Addition, error)
	ListActiveTables(ctx context.Context) ([]database.RestaurantTable, error)
}

// MenuHandler serves the menu and floor plan the waiter app orders from.
type MenuHandler struct {
	store MenuStore
}

func NewMenuHandler(store MenuStore) *MenuHandler {
	return &MenuHandler{store: store}
}

// RegisterRoutes registers menu endpoints on the given Chi router.
func (h *MenuHandler) RegisterRoutes(r chi.Router) {
	r.Get("/menu", h.Menu)
	r.Get("/tables", h.Tables)
}

type menuItemResponse struct {
	ID          uuid.UUID          `json:"id"`
	Menu        *string            `json:"menu"`
	SubMenu     *string            `json:"sub_menu"`
	Name        string             `json:"name"`
	Description *string            `json:"description"`
	Price       string             `json:"price"`
	Location    string             `json:"location"`
	Additions   []additionResponse `json:"additions"`
}

type additionResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Price string    `json:"price"`
}

type tableResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	X    int32     `json:"x"`
	Y    int32     `json:"y"`
}

// Menu returns every available item with its available additions.
func (h *MenuHandler) Menu(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListAvailableMenuItems(r.Context())
	if err != nil {
		log.Printf("ERROR: list menu items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]menuItemResponse, 0, len(items))
	for _, item := range items {
		additions, err := h.store.ListAdditionsByMenuItem(r.Context(), item.ID)
		if err != nil {
			log.Printf("ERROR: list menu item additions: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}

		entry := menuItemResponse{
			ID:          item.ID,
			Menu:        textPtr(item.Menu),
			SubMenu:     textPtr(item.SubMenu),
			Name:        item.Name,
			Description: textPtr(item.Description),
			Price:       numericString(item.Price),
			Location:    item.Location,
			Additions:   []additionResponse{},
		}
		for _, a := range additions {
			entry.Additions = append(entry.Additions, additionResponse{
				ID:    a.ID,
				Name:  a.Name,
				Price: numericString(a.Price),
			})
		}
		resp = append(resp, entry)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Tables returns the active floor plan.
func (h *MenuHandler) Tables(w http.ResponseWriter, r *http.Request) {
	tables, err := h.store.ListActiveTables(r.Context())
	if err != nil {
		log.Printf("ERROR: list tables: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]tableResponse, 0, len(tables))
	for _, t := range tables {
		resp = append(resp, tableResponse{ID: t.ID, Name: t.Name, X: t.X, Y: t.Y})
	}
	writeJSON(w, http.StatusOK, resp)
}
