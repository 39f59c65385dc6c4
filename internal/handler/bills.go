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
	"github.com/gastroflow/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// BillServicer defines the service methods needed by bill handlers.
// Satisfied by *service.BillService; narrow interface for testability.
type BillServicer interface {
	ListBills(ctx context.Context, limit, offset int32) ([]database.Bill, error)
	UpdateDiscount(ctx context.Context, billID uuid.UUID, discount int32) (database.Bill, error)
	Close(ctx context.Context, billID uuid.UUID, paymentMethod string, guestCount int32) (database.Bill, []service.PendingEvent, error)
	View(ctx context.Context, billID uuid.UUID) (service.BillView, error)
}

// BillHandler handles bill endpoints.
type BillHandler struct {
	svc BillServicer
	hub Publisher
}

func NewBillHandler(svc BillServicer, hub Publisher) *BillHandler {
	return &BillHandler{svc: svc, hub: hub}
}

// RegisterRoutes registers bill endpoints on the given Chi router.
func (h *BillHandler) RegisterRoutes(r chi.Router) {
	r.Get("/bills", h.List)
	r.Get("/bills/{id}", h.Get)
	r.Patch("/bills/{id}/discount", h.UpdateDiscount)
	r.Post("/bills/{id}/close", h.Close)
}

type billResponse struct {
	ID            uuid.UUID  `json:"id"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	ClosedAt      *time.Time `json:"closed_at"`
	Waiter        *uuid.UUID `json:"waiter_id"`
	Note          *string    `json:"note"`
	Discount      int32      `json:"discount"`
	PaymentMethod string     `json:"payment_method"`
	GuestCount    int32      `json:"guest_count"`
}

type billViewResponse struct {
	billResponse
	Tables          []string            `json:"tables"`
	Orders          []billOrderResponse `json:"orders"`
	Total           string              `json:"total"`
	TotalDiscounted string              `json:"total_discounted"`
}

type billOrderResponse struct {
	orderResponse
	Items []orderItemResponse `json:"items"`
}

type updateDiscountRequest struct {
	Discount int32 `json:"discount"`
}

type closeBillRequest struct {
	PaymentMethod string `json:"payment_method"`
	GuestCount    int32  `json:"guest_count"`
}

// List returns bills, newest first.
func (h *BillHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := int32(50), int32(0)
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 200 {
			limit = int32(n)
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if n, err := strconv.Atoi(o); err == nil && n >= 0 {
			offset = int32(n)
		}
	}

	bills, err := h.svc.ListBills(r.Context(), limit, offset)
	if err != nil {
		log.Printf("ERROR: list bills: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]billResponse, 0, len(bills))
	for _, bill := range bills {
		resp = append(resp, toBillResponse(bill))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns one bill with its orders, item snapshots, and totals.
func (h *BillHandler) Get(w http.ResponseWriter, r *http.Request) {
	billID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid bill id"})
		return
	}

	view, err := h.svc.View(r.Context(), billID)
	if err != nil {
		h.writeBillError(w, err)
		return
	}

	resp := billViewResponse{
		billResponse:    toBillResponse(view.Bill),
		Tables:          view.Tables,
		Orders:          []billOrderResponse{},
		Total:           view.Total.StringFixed(2),
		TotalDiscounted: view.TotalDiscounted.StringFixed(2),
	}
	if resp.Tables == nil {
		resp.Tables = []string{}
	}
	for _, order := range view.Orders {
		o := billOrderResponse{
			orderResponse: toOrderResponse(order.Order, nil),
			Items:         []orderItemResponse{},
		}
		for _, item := range order.Items {
			o.Items = append(o.Items, toOrderItemResponse(item.Item, item.Additions))
		}
		resp.Orders = append(resp.Orders, o)
	}
	writeJSON(w, http.StatusOK, resp)
}

// UpdateDiscount sets the discount percentage on an open bill.
func (h *BillHandler) UpdateDiscount(w http.ResponseWriter, r *http.Request) {
	billID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid bill id"})
		return
	}
	var req updateDiscountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	bill, err := h.svc.UpdateDiscount(r.Context(), billID, req.Discount)
	if err != nil {
		h.writeBillError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBillResponse(bill))
}

// Close settles a bill and stamps its live orders paid. The order status
// broadcasts go out only after the settlement committed.
func (h *BillHandler) Close(w http.ResponseWriter, r *http.Request) {
	billID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid bill id"})
		return
	}
	var req closeBillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	bill, events, err := h.svc.Close(r.Context(), billID, req.PaymentMethod, req.GuestCount)
	if err != nil {
		h.writeBillError(w, err)
		return
	}
	for _, e := range events {
		h.hub.Broadcast(e.Group, e.Event)
	}
	writeJSON(w, http.StatusOK, toBillResponse(bill))
}

func (h *BillHandler) writeBillError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrBillNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrBillAlreadyClosed):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidDiscount),
		errors.Is(err, service.ErrInvalidPaymentMethod),
		errors.Is(err, service.ErrInvalidGuestCount):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		log.Printf("ERROR: bill handler: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func toBillResponse(bill database.Bill) billResponse {
	resp := billResponse{
		ID:            bill.ID,
		Status:        bill.Status,
		CreatedAt:     bill.CreatedAt,
		ClosedAt:      timestamptzPtr(bill.ClosedAt),
		Note:          textPtr(bill.Note),
		Discount:      bill.Discount,
		PaymentMethod: bill.PaymentMethod,
		GuestCount:    bill.GuestCount,
	}
	if bill.ServiceWorkerID.Valid {
		id := uuid.UUID(bill.ServiceWorkerID.Bytes)
		resp.Waiter = &id
	}
	return resp
}
