package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gastroflow/api/internal/database"
	"github.com/gastroflow/api/internal/middleware"
	"github.com/gastroflow/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// Publisher fans a committed event out to one broadcast group.
// Satisfied by *ws.Hub.
type Publisher interface {
	Broadcast(group string, event any)
}

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	PlaceOrder(ctx context.Context, req service.PlaceOrderRequest) (*service.PlaceOrderResult, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus string) (database.Order, []service.PendingEvent, error)
	ItemDone(ctx context.Context, orderID, itemID uuid.UUID) ([]service.PendingEvent, error)
	AddAddition(ctx context.Context, itemID, additionID uuid.UUID) (database.OrderItem, error)
	RemoveAddition(ctx context.Context, orderItemAdditionID uuid.UUID) (database.OrderItem, error)
}

// OrderReadStore defines the database methods needed by order read handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type OrderReadStore interface {
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	ListAdditionsByOrderItem(ctx context.Context, orderItemID uuid.UUID) ([]database.OrderItemAddition, error)
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc   OrderServicer
	store OrderReadStore
	hub   Publisher
}

func NewOrderHandler(svc OrderServicer, store OrderReadStore, hub Publisher) *OrderHandler {
	return &OrderHandler{svc: svc, store: store, hub: hub}
}

// RegisterRoutes registers order endpoints on the given Chi router.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/orders", h.Create)
	r.Get("/orders", h.List)
	r.Get("/orders/{id}", h.Get)
	r.Patch("/orders/{id}/status", h.UpdateStatus)
	r.Post("/orders/{id}/items/{itemID}/done", h.ItemDone)
	r.Post("/order-items/{itemID}/additions", h.AddAddition)
	r.Delete("/order-item-additions/{id}", h.RemoveAddition)
}

// --- Request / Response types ---

type placeOrderRequest struct {
	TableIDs   []string          `json:"table_ids"`
	GuestCount int32             `json:"guest_count"`
	Note       string            `json:"note"`
	Items      []cartItemRequest `json:"items"`
}

type cartItemRequest struct {
	MenuItemID  string   `json:"menu_item_id"`
	Quantity    int32    `json:"quantity"`
	Note        string   `json:"note"`
	AdditionIDs []string `json:"addition_ids"`
}

type placeOrderResponse struct {
	BillID uuid.UUID       `json:"bill_id"`
	Orders []orderResponse `json:"orders"`
}

type orderResponse struct {
	ID          uuid.UUID           `json:"id"`
	BillID      uuid.UUID           `json:"bill_id"`
	Status      string              `json:"status"`
	Category    string              `json:"category"`
	CreatedAt   time.Time           `json:"created_at"`
	PreparingAt *time.Time          `json:"preparing_at"`
	ReadiedAt   *time.Time          `json:"readied_at"`
	PaidAt      *time.Time          `json:"paid_at"`
	CanceledAt  *time.Time          `json:"canceled_at"`
	Items       []orderItemResponse `json:"items,omitempty"`
}

type orderItemResponse struct {
	ID            uuid.UUID              `json:"id"`
	NameSnapshot  string                 `json:"name_snapshot"`
	PriceSnapshot string                 `json:"price_snapshot"`
	Note          *string                `json:"note"`
	Status        string                 `json:"status"`
	Quantity      int32                  `json:"quantity"`
	TotalCost     string                 `json:"total_cost"`
	Additions     []itemAdditionResponse `json:"additions"`
}

type itemAdditionResponse struct {
	ID            uuid.UUID `json:"id"`
	NameSnapshot  string    `json:"name_snapshot"`
	PriceSnapshot string    `json:"price_snapshot"`
}

type addAdditionRequest struct {
	AdditionID string `json:"addition_id"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// --- Handlers ---

// Create places a waiter's cart: one bill, station orders, snapshotted
// items. Broadcasts fire only after the service committed.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	waiterID := ""
	if claims := middleware.ClaimsFromContext(r.Context()); claims != nil {
		waiterID = claims.WorkerID.String()
	}

	svcReq := service.PlaceOrderRequest{
		WaiterID:   waiterID,
		TableIDs:   req.TableIDs,
		GuestCount: req.GuestCount,
		Note:       req.Note,
	}
	for _, item := range req.Items {
		svcReq.Items = append(svcReq.Items, service.CartItem{
			MenuItemID:  item.MenuItemID,
			Quantity:    item.Quantity,
			Note:        item.Note,
			AdditionIDs: item.AdditionIDs,
		})
	}

	result, err := h.svc.PlaceOrder(r.Context(), svcReq)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.publish(result.Events)

	resp := placeOrderResponse{BillID: result.Bill.ID}
	for _, order := range result.Orders {
		resp.Orders = append(resp.Orders, toOrderResponse(order, nil))
	}
	writeJSON(w, http.StatusCreated, resp)
}

// Get returns one order with its items and snapshotted additions.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order id"})
		return
	}

	order, err := h.store.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	items, err := h.loadItems(r.Context(), orderID)
	if err != nil {
		log.Printf("ERROR: load order items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order, items))
}

// List returns orders, optionally filtered by status and category.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	arg := database.ListOrdersParams{Limit: 50}
	if s := r.URL.Query().Get("status"); s != "" {
		arg.Status = pgtype.Text{String: s, Valid: true}
	}
	if c := r.URL.Query().Get("category"); c != "" {
		arg.Category = pgtype.Text{String: c, Valid: true}
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 200 {
			arg.Limit = int32(n)
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if n, err := strconv.Atoi(o); err == nil && n >= 0 {
			arg.Offset = int32(n)
		}
	}

	orders, err := h.store.ListOrders(r.Context(), arg)
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderResponse, 0, len(orders))
	for _, order := range orders {
		resp = append(resp, toOrderResponse(order, nil))
	}
	writeJSON(w, http.StatusOK, resp)
}

// UpdateStatus moves an order through its lifecycle. This is the HTTP twin
// of the station WebSocket messages, used by non-realtime clients.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order id"})
		return
	}
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	order, events, err := h.svc.UpdateStatus(r.Context(), orderID, req.Status)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.publish(events)

	writeJSON(w, http.StatusOK, toOrderResponse(order, nil))
}

// ItemDone finishes one item of an order and raises its notification.
func (h *OrderHandler) ItemDone(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order id"})
		return
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item id"})
		return
	}

	events, err := h.svc.ItemDone(r.Context(), orderID, itemID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.publish(events)

	w.WriteHeader(http.StatusNoContent)
}

// AddAddition attaches a snapshotted extra to an existing item.
func (h *OrderHandler) AddAddition(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item id"})
		return
	}
	var req addAdditionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	additionID, err := uuid.Parse(req.AdditionID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid addition id"})
		return
	}

	item, err := h.svc.AddAddition(r.Context(), itemID, additionID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderItemResponse(item, nil))
}

// RemoveAddition detaches a snapshotted extra and returns the recomputed item.
func (h *OrderHandler) RemoveAddition(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid addition id"})
		return
	}

	item, err := h.svc.RemoveAddition(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderItemResponse(item, nil))
}

// --- Helpers ---

func (h *OrderHandler) publish(events []service.PendingEvent) {
	for _, e := range events {
		h.hub.Broadcast(e.Group, e.Event)
	}
}

func (h *OrderHandler) loadItems(ctx context.Context, orderID uuid.UUID) ([]orderItemResponse, error) {
	items, err := h.store.ListOrderItemsByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	resp := make([]orderItemResponse, 0, len(items))
	for _, item := range items {
		additions, err := h.store.ListAdditionsByOrderItem(ctx, item.ID)
		if err != nil {
			return nil, err
		}
		resp = append(resp, toOrderItemResponse(item, additions))
	}
	return resp, nil
}

// writeServiceError maps the service's sentinel errors to HTTP statuses.
func (h *OrderHandler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrItemNotFound),
		errors.Is(err, service.ErrMenuItemNotFound),
		errors.Is(err, service.ErrAdditionNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidMenuItemID),
		errors.Is(err, service.ErrInvalidAdditionID),
		errors.Is(err, service.ErrInvalidWorkerID),
		errors.Is(err, service.ErrInvalidTableID),
		errors.Is(err, service.ErrMenuItemUnavailable),
		errors.Is(err, service.ErrInvalidStatus):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidTransition):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		log.Printf("ERROR: order handler: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func toOrderResponse(order database.Order, items []orderItemResponse) orderResponse {
	return orderResponse{
		ID:          order.ID,
		BillID:      order.BillID,
		Status:      order.Status,
		Category:    order.Category,
		CreatedAt:   order.CreatedAt,
		PreparingAt: timestamptzPtr(order.PreparingAt),
		ReadiedAt:   timestamptzPtr(order.ReadiedAt),
		PaidAt:      timestamptzPtr(order.PaidAt),
		CanceledAt:  timestamptzPtr(order.CanceledAt),
		Items:       items,
	}
}

func toOrderItemResponse(item database.OrderItem, additions []database.OrderItemAddition) orderItemResponse {
	resp := orderItemResponse{
		ID:            item.ID,
		NameSnapshot:  item.NameSnapshot,
		PriceSnapshot: numericString(item.PriceSnapshot),
		Note:          textPtr(item.Note),
		Status:        item.Status,
		Quantity:      item.Quantity,
		TotalCost:     numericString(item.TotalCost),
		Additions:     []itemAdditionResponse{},
	}
	for _, a := range additions {
		resp.Additions = append(resp.Additions, itemAdditionResponse{
			ID:            a.ID,
			NameSnapshot:  a.NameSnapshot,
			PriceSnapshot: numericString(a.PriceSnapshot),
		})
	}
	return resp
}

func numericString(n pgtype.Numeric) string {
	if !n.Valid {
		return "0.00"
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return "0.00"
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return "0.00"
	}
	return d.StringFixed(2)
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	return &t.String
}

func timestamptzPtr(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}
