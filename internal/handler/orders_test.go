package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gastroflow/api/internal/database"
	"github.com/gastroflow/api/internal/enum"
	"github.com/gastroflow/api/internal/handler"
	"github.com/gastroflow/api/internal/service"
	"github.com/gastroflow/api/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// --- Mocks ---

type publishedEvent struct {
	group string
	event any
}

type mockPublisher struct {
	events []publishedEvent
}

func (m *mockPublisher) Broadcast(group string, event any) {
	m.events = append(m.events, publishedEvent{group: group, event: event})
}

type mockOrderServicer struct {
	placeOrderFn     func(ctx context.Context, req service.PlaceOrderRequest) (*service.PlaceOrderResult, error)
	updateStatusFn   func(ctx context.Context, orderID uuid.UUID, newStatus string) (database.Order, []service.PendingEvent, error)
	itemDoneFn       func(ctx context.Context, orderID, itemID uuid.UUID) ([]service.PendingEvent, error)
	addAdditionFn    func(ctx context.Context, itemID, additionID uuid.UUID) (database.OrderItem, error)
	removeAdditionFn func(ctx context.Context, id uuid.UUID) (database.OrderItem, error)
}

func (m *mockOrderServicer) PlaceOrder(ctx context.Context, req service.PlaceOrderRequest) (*service.PlaceOrderResult, error) {
	return m.placeOrderFn(ctx, req)
}

func (m *mockOrderServicer) UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus string) (database.Order, []service.PendingEvent, error) {
	return m.updateStatusFn(ctx, orderID, newStatus)
}

func (m *mockOrderServicer) ItemDone(ctx context.Context, orderID, itemID uuid.UUID) ([]service.PendingEvent, error) {
	return m.itemDoneFn(ctx, orderID, itemID)
}

func (m *mockOrderServicer) AddAddition(ctx context.Context, itemID, additionID uuid.UUID) (database.OrderItem, error) {
	return m.addAdditionFn(ctx, itemID, additionID)
}

func (m *mockOrderServicer) RemoveAddition(ctx context.Context, id uuid.UUID) (database.OrderItem, error) {
	return m.removeAdditionFn(ctx, id)
}

type mockOrderReadStore struct {
	orders    map[uuid.UUID]database.Order
	items     map[uuid.UUID][]database.OrderItem
	additions map[uuid.UUID][]database.OrderItemAddition
}

func newMockOrderReadStore() *mockOrderReadStore {
	return &mockOrderReadStore{
		orders:    make(map[uuid.UUID]database.Order),
		items:     make(map[uuid.UUID][]database.OrderItem),
		additions: make(map[uuid.UUID][]database.OrderItemAddition),
	}
}

func (m *mockOrderReadStore) GetOrder(_ context.Context, id uuid.UUID) (database.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return database.Order{}, pgx.ErrNoRows
	}
	return o, nil
}

func (m *mockOrderReadStore) ListOrders(_ context.Context, arg database.ListOrdersParams) ([]database.Order, error) {
	var result []database.Order
	for _, o := range m.orders {
		if arg.Status.Valid && o.Status != arg.Status.String {
			continue
		}
		if arg.Category.Valid && o.Category != arg.Category.String {
			continue
		}
		result = append(result, o)
	}
	return result, nil
}

func (m *mockOrderReadStore) ListOrderItemsByOrder(_ context.Context, orderID uuid.UUID) ([]database.OrderItem, error) {
	return m.items[orderID], nil
}

func (m *mockOrderReadStore) ListAdditionsByOrderItem(_ context.Context, orderItemID uuid.UUID) ([]database.OrderItemAddition, error) {
	return m.additions[orderItemID], nil
}

func testNumeric(t *testing.T, value string) pgtype.Numeric {
	t.Helper()
	var n pgtype.Numeric
	if err := n.Scan(value); err != nil {
		t.Fatalf("scan numeric %q: %v", value, err)
	}
	return n
}

func newOrderRouter(svc handler.OrderServicer, store handler.OrderReadStore, pub handler.Publisher) http.Handler {
	r := chi.NewRouter()
	handler.NewOrderHandler(svc, store, pub).RegisterRoutes(r)
	return r
}

// --- Place order tests ---

func TestCreateOrderBroadcastsAfterService(t *testing.T) {
	billID := uuid.New()
	orderID := uuid.New()
	svc := &mockOrderServicer{
		placeOrderFn: func(_ context.Context, req service.PlaceOrderRequest) (*service.PlaceOrderResult, error) {
			if len(req.Items) != 1 {
				t.Fatalf("expected 1 cart item, got %d", len(req.Items))
			}
			return &service.PlaceOrderResult{
				Bill:   database.Bill{ID: billID, Status: enum.BillStatusOpen},
				Orders: []database.Order{{ID: orderID, BillID: billID, Status: enum.OrderStatusOrdering, Category: enum.LocationKitchen}},
				Events: []service.PendingEvent{
					{Group: enum.GroupKitchenOrders, Event: ws.NewOrderEvent{Type: ws.EventNewOrder}},
				},
			}, nil
		},
	}
	pub := &mockPublisher{}
	router := newOrderRouter(svc, newMockOrderReadStore(), pub)

	rr := postJSON(t, router, "/orders", map[string]any{
		"table_ids":   []string{uuid.NewString()},
		"guest_count": 2,
		"items": []map[string]any{
			{"menu_item_id": uuid.NewString(), "quantity": 1},
		},
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(pub.events) != 1 {
		t.Fatalf("expected 1 broadcast, got %d", len(pub.events))
	}
	if pub.events[0].group != enum.GroupKitchenOrders {
		t.Errorf("broadcast group = %q, want %q", pub.events[0].group, enum.GroupKitchenOrders)
	}
	resp := decodeResponse(t, rr)
	if resp["bill_id"] != billID.String() {
		t.Errorf("bill_id = %v, want %s", resp["bill_id"], billID)
	}
}

func TestCreateOrderEmptyCart(t *testing.T) {
	svc := &mockOrderServicer{
		placeOrderFn: func(_ context.Context, _ service.PlaceOrderRequest) (*service.PlaceOrderResult, error) {
			return nil, service.ErrEmptyCart
		},
	}
	pub := &mockPublisher{}
	router := newOrderRouter(svc, newMockOrderReadStore(), pub)

	rr := postJSON(t, router, "/orders", map[string]any{"items": []map[string]any{}})

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if len(pub.events) != 0 {
		t.Errorf("expected no broadcasts on failure, got %d", len(pub.events))
	}
}

func TestCreateOrderUnknownMenuItem(t *testing.T) {
	svc := &mockOrderServicer{
		placeOrderFn: func(_ context.Context, _ service.PlaceOrderRequest) (*service.PlaceOrderResult, error) {
			return nil, service.ErrMenuItemNotFound
		},
	}
	router := newOrderRouter(svc, newMockOrderReadStore(), &mockPublisher{})

	rr := postJSON(t, router, "/orders", map[string]any{
		"items": []map[string]any{{"menu_item_id": uuid.NewString(), "quantity": 1}},
	})

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

// --- Read tests ---

func TestGetOrderWithItems(t *testing.T) {
	store := newMockOrderReadStore()
	orderID := uuid.New()
	itemID := uuid.New()
	store.orders[orderID] = database.Order{ID: orderID, BillID: uuid.New(), Status: enum.OrderStatusPreparing, Category: enum.LocationBar}
	store.items[orderID] = []database.OrderItem{{
		ID:            itemID,
		OrderID:       orderID,
		NameSnapshot:  "Negroni",
		PriceSnapshot: testNumeric(t, "12.00"),
		Status:        enum.OrderItemStatusPreparing,
		Quantity:      2,
		TotalCost:     testNumeric(t, "24.00"),
	}}
	store.additions[itemID] = []database.OrderItemAddition{{
		ID:            uuid.New(),
		OrderItemID:   itemID,
		AdditionID:    uuid.New(),
		NameSnapshot:  "Orange peel",
		PriceSnapshot: testNumeric(t, "0.50"),
	}}
	router := newOrderRouter(&mockOrderServicer{}, store, &mockPublisher{})

	rr := getPath(t, router, "/orders/"+orderID.String())

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Status string `json:"status"`
		Items  []struct {
			NameSnapshot string `json:"name_snapshot"`
			TotalCost    string `json:"total_cost"`
			Additions    []struct {
				NameSnapshot string `json:"name_snapshot"`
			} `json:"additions"`
		} `json:"items"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != enum.OrderStatusPreparing {
		t.Errorf("status = %q, want preparing", resp.Status)
	}
	if len(resp.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(resp.Items))
	}
	if resp.Items[0].TotalCost != "24.00" {
		t.Errorf("total_cost = %q, want 24.00", resp.Items[0].TotalCost)
	}
	if len(resp.Items[0].Additions) != 1 || resp.Items[0].Additions[0].NameSnapshot != "Orange peel" {
		t.Errorf("unexpected additions: %+v", resp.Items[0].Additions)
	}
}

func TestGetOrderNotFound(t *testing.T) {
	router := newOrderRouter(&mockOrderServicer{}, newMockOrderReadStore(), &mockPublisher{})

	rr := getPath(t, router, "/orders/"+uuid.NewString())

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestListOrdersFiltersByStatus(t *testing.T) {
	store := newMockOrderReadStore()
	ready := uuid.New()
	store.orders[ready] = database.Order{ID: ready, Status: enum.OrderStatusReady, Category: enum.LocationKitchen}
	other := uuid.New()
	store.orders[other] = database.Order{ID: other, Status: enum.OrderStatusOrdering, Category: enum.LocationKitchen}
	router := newOrderRouter(&mockOrderServicer{}, store, &mockPublisher{})

	rr := getPath(t, router, "/orders?status=ready")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp []map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 1 {
		t.Fatalf("expected 1 order, got %d", len(resp))
	}
	if resp[0]["id"] != ready.String() {
		t.Errorf("listed order = %v, want %s", resp[0]["id"], ready)
	}
}

// --- Status update tests ---

func TestUpdateStatusPublishesEvents(t *testing.T) {
	orderID := uuid.New()
	svc := &mockOrderServicer{
		updateStatusFn: func(_ context.Context, id uuid.UUID, newStatus string) (database.Order, []service.PendingEvent, error) {
			if id != orderID {
				t.Fatalf("order id = %s, want %s", id, orderID)
			}
			if newStatus != enum.OrderStatusPreparing {
				t.Fatalf("new status = %q, want preparing", newStatus)
			}
			return database.Order{ID: orderID, Status: enum.OrderStatusPreparing, Category: enum.LocationKitchen},
				[]service.PendingEvent{{Group: enum.GroupKitchenOrders, Event: ws.OrderStatusUpdateEvent{Type: ws.EventOrderStatusUpdate}}},
				nil
		},
	}
	pub := &mockPublisher{}
	router := newOrderRouter(svc, newMockOrderReadStore(), pub)

	req := httptest.NewRequest("PATCH", "/orders/"+orderID.String()+"/status", jsonBody(t, map[string]string{"status": "preparing"}))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(pub.events) != 1 {
		t.Fatalf("expected 1 broadcast, got %d", len(pub.events))
	}
}

func TestUpdateStatusInvalidTransition(t *testing.T) {
	svc := &mockOrderServicer{
		updateStatusFn: func(_ context.Context, _ uuid.UUID, _ string) (database.Order, []service.PendingEvent, error) {
			return database.Order{}, nil, service.ErrInvalidTransition
		},
	}
	pub := &mockPublisher{}
	router := newOrderRouter(svc, newMockOrderReadStore(), pub)

	req := httptest.NewRequest("PATCH", "/orders/"+uuid.NewString()+"/status", jsonBody(t, map[string]string{"status": "ordering"}))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
	if len(pub.events) != 0 {
		t.Errorf("expected no broadcasts, got %d", len(pub.events))
	}
}

// --- Item done tests ---

func TestItemDone(t *testing.T) {
	orderID := uuid.New()
	itemID := uuid.New()
	svc := &mockOrderServicer{
		itemDoneFn: func(_ context.Context, oid, iid uuid.UUID) ([]service.PendingEvent, error) {
			if oid != orderID || iid != itemID {
				t.Fatalf("unexpected ids %s %s", oid, iid)
			}
			return []service.PendingEvent{{Group: enum.GroupNotifications, Event: ws.NewNotificationEvent{}}}, nil
		},
	}
	pub := &mockPublisher{}
	router := newOrderRouter(svc, newMockOrderReadStore(), pub)

	rr := postJSON(t, router, "/orders/"+orderID.String()+"/items/"+itemID.String()+"/done", nil)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(pub.events) != 1 || pub.events[0].group != enum.GroupNotifications {
		t.Fatalf("expected 1 notification broadcast, got %+v", pub.events)
	}
}

func TestItemDoneUnknownItem(t *testing.T) {
	svc := &mockOrderServicer{
		itemDoneFn: func(_ context.Context, _, _ uuid.UUID) ([]service.PendingEvent, error) {
			return nil, service.ErrItemNotFound
		},
	}
	router := newOrderRouter(svc, newMockOrderReadStore(), &mockPublisher{})

	rr := postJSON(t, router, "/orders/"+uuid.NewString()+"/items/"+uuid.NewString()+"/done", nil)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

// --- Addition tests ---

func TestAddAdditionReturnsRecomputedItem(t *testing.T) {
	itemID := uuid.New()
	svc := &mockOrderServicer{
		addAdditionFn: func(_ context.Context, iid, _ uuid.UUID) (database.OrderItem, error) {
			return database.OrderItem{
				ID:            iid,
				NameSnapshot:  "Carbonara",
				PriceSnapshot: testNumeric(t, "34.00"),
				Status:        enum.OrderItemStatusWaiting,
				Quantity:      1,
				TotalCost:     testNumeric(t, "37.00"),
			}, nil
		},
	}
	router := newOrderRouter(svc, newMockOrderReadStore(), &mockPublisher{})

	rr := postJSON(t, router, "/order-items/"+itemID.String()+"/additions", map[string]string{
		"addition_id": uuid.NewString(),
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["total_cost"] != "37.00" {
		t.Errorf("total_cost = %v, want 37.00", resp["total_cost"])
	}
}

func TestRemoveAdditionUnknownID(t *testing.T) {
	svc := &mockOrderServicer{
		removeAdditionFn: func(_ context.Context, _ uuid.UUID) (database.OrderItem, error) {
			return database.OrderItem{}, service.ErrAdditionNotFound
		},
	}
	router := newOrderRouter(svc, newMockOrderReadStore(), &mockPublisher{})

	req := httptest.NewRequest("DELETE", "/order-item-additions/"+uuid.NewString(), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}
