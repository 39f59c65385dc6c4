package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gastroflow/api/internal/database"
	"github.com/gastroflow/api/internal/enum"
	"github.com/gastroflow/api/internal/ws"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// Errors returned by the order service.
var (
	ErrEmptyCart           = errors.New("items are required")
	ErrInvalidQuantity     = errors.New("quantity must be >= 1")
	ErrInvalidMenuItemID   = errors.New("invalid menu item id")
	ErrInvalidAdditionID   = errors.New("invalid addition id")
	ErrInvalidWorkerID     = errors.New("invalid worker id")
	ErrInvalidTableID      = errors.New("invalid table id")
	ErrMenuItemNotFound    = errors.New("menu item not found")
	ErrMenuItemUnavailable = errors.New("menu item is not available")
	ErrAdditionNotFound    = errors.New("addition not found")
	ErrOrderNotFound       = errors.New("order not found")
	ErrItemNotFound        = errors.New("order item not found")
	ErrInvalidStatus       = errors.New("invalid order status")
	ErrInvalidTransition   = errors.New("status transition not allowed")
)

// allowedTransitions encodes the order lifecycle. ordering may jump straight
// to ready when a station batches both steps; the preparing timestamp is
// backfilled in that case.
var allowedTransitions = map[string][]string{
	enum.OrderStatusOrdering:  {enum.OrderStatusPreparing, enum.OrderStatusReady, enum.OrderStatusCanceled},
	enum.OrderStatusPreparing: {enum.OrderStatusReady, enum.OrderStatusCanceled},
	enum.OrderStatusReady:     {enum.OrderStatusPaid, enum.OrderStatusCanceled},
}

// OrderStore defines the DB methods needed by the order service.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	CreateBill(ctx context.Context, arg database.CreateBillParams) (database.Bill, error)
	AttachTableToBill(ctx context.Context, arg database.AttachTableToBillParams) error
	ListTableNamesByBill(ctx context.Context, billID uuid.UUID) ([]string, error)
	GetWorker(ctx context.Context, id uuid.UUID) (database.Worker, error)
	GetMenuItemForOrder(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	GetAdditionForOrder(ctx context.Context, id uuid.UUID) (database.Addition, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	CreateOrderItemAddition(ctx context.Context, arg database.CreateOrderItemAdditionParams) (database.OrderItemAddition, error)
	CreateNotification(ctx context.Context, arg database.CreateNotificationParams) (database.Notification, error)
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.Order, error)
	MarkOrderPreparing(ctx context.Context, arg database.StampParams) (database.Order, error)
	MarkOrderReady(ctx context.Context, arg database.StampParams) (database.Order, error)
	MarkOrderPaid(ctx context.Context, arg database.StampParams) (database.Order, error)
	MarkOrderCanceled(ctx context.Context, arg database.StampParams) (database.Order, error)
	StartWaitingItems(ctx context.Context, arg database.StartWaitingItemsParams) error
	FinishOrderItems(ctx context.Context, arg database.FinishOrderItemsParams) error
	FinishOrderItem(ctx context.Context, arg database.FinishOrderItemParams) (database.OrderItem, error)
	GetOrderItem(ctx context.Context, id uuid.UUID) (database.OrderItem, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	ListAdditionsByOrderItem(ctx context.Context, orderItemID uuid.UUID) ([]database.OrderItemAddition, error)
	DeleteOrderItemAddition(ctx context.Context, id uuid.UUID) (database.OrderItemAddition, error)
	UpdateOrderItemTotalCost(ctx context.Context, arg database.UpdateOrderItemTotalCostParams) error
	ListOpenOrdersByCategory(ctx context.Context, category string) ([]database.OpenOrderRow, error)
	GetNotificationByOrderItem(ctx context.Context, orderItemID uuid.UUID) (database.Notification, error)
	GetNotificationRow(ctx context.Context, id uuid.UUID) (database.NotificationRow, error)
	ListPrepareNotificationsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.NotificationRow, error)
	AdvanceOrderNotificationsToWait(ctx context.Context, arg database.AdvanceOrderNotificationsParams) error
	SetNotificationStatus(ctx context.Context, arg database.SetNotificationStatusParams) (database.Notification, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
// This allows the service to create store instances from transactions.
type NewOrderStore func(db database.DBTX) OrderStore

// OrderService handles order and bill-placement business logic.
type OrderService struct {
	pool     TxBeginner
	newStore NewOrderStore
}

func NewOrderService(pool TxBeginner, newStore NewOrderStore) *OrderService {
	return &OrderService{pool: pool, newStore: newStore}
}

// CartItem is one line of the submitted cart.
type CartItem struct {
	MenuItemID  string
	Quantity    int32
	Note        string
	AdditionIDs []string
}

// PlaceOrderRequest is the validated input for submitting a cart. WaiterID
// is optional: take-away orders have no serving staff and produce no
// notifications.
type PlaceOrderRequest struct {
	WaiterID   string
	TableIDs   []string
	GuestCount int32
	Note       string
	Items      []CartItem
}

// PlaceOrderResult is the created bill with its station orders and the
// broadcasts to publish after commit.
type PlaceOrderResult struct {
	Bill   database.Bill
	Orders []database.Order
	Events []PendingEvent
}

// preparedItem carries one resolved cart line until its station order exists.
type preparedItem struct {
	params    database.CreateOrderItemParams
	location  string
	additions []database.Addition
}

// PlaceOrder creates a bill, splits the cart into at most one kitchen and
// one bar order, snapshots menu names and prices onto the items, and creates
// a notification per item when a waiter is assigned. Everything happens in
// one transaction; the returned events carry the new orders to their
// station groups.
func (s *OrderService) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*PlaceOrderResult, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyCart
	}

	waiterID := pgtype.UUID{}
	if req.WaiterID != "" {
		wid, err := uuid.Parse(req.WaiterID)
		if err != nil {
			return nil, ErrInvalidWorkerID
		}
		waiterID = pgtype.UUID{Bytes: wid, Valid: true}
	}

	tableIDs := make([]uuid.UUID, 0, len(req.TableIDs))
	for _, raw := range req.TableIDs {
		tid, err := uuid.Parse(raw)
		if err != nil {
			return nil, ErrInvalidTableID
		}
		tableIDs = append(tableIDs, tid)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	// Resolve the waiter display name for broadcast payloads.
	sender := ""
	if waiterID.Valid {
		worker, err := store.GetWorker(ctx, uuid.UUID(waiterID.Bytes))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrInvalidWorkerID
			}
			return nil, fmt.Errorf("get worker: %w", err)
		}
		sender = worker.DisplayName
	}

	// Resolve cart lines against the live menu before touching anything.
	var prepared []preparedItem
	for i, item := range req.Items {
		if item.Quantity < 1 {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidQuantity)
		}
		menuItemID, err := uuid.Parse(item.MenuItemID)
		if err != nil {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidMenuItemID)
		}
		menuItem, err := store.GetMenuItemForOrder(ctx, menuItemID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("item[%d]: %w", i, ErrMenuItemNotFound)
			}
			return nil, fmt.Errorf("item[%d]: get menu item: %w", i, err)
		}
		if !menuItem.IsAvailable {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrMenuItemUnavailable)
		}

		unitPrice := numericToDecimal(menuItem.Price)
		additionsTotal := decimal.Zero
		var additions []database.Addition
		for j, raw := range item.AdditionIDs {
			additionID, err := uuid.Parse(raw)
			if err != nil {
				return nil, fmt.Errorf("item[%d].additions[%d]: %w", i, j, ErrInvalidAdditionID)
			}
			addition, err := store.GetAdditionForOrder(ctx, additionID)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return nil, fmt.Errorf("item[%d].additions[%d]: %w", i, j, ErrAdditionNotFound)
				}
				return nil, fmt.Errorf("item[%d].additions[%d]: get addition: %w", i, j, err)
			}
			additionsTotal = additionsTotal.Add(numericToDecimal(addition.Price))
			additions = append(additions, addition)
		}

		note := pgtype.Text{}
		if item.Note != "" {
			note = pgtype.Text{String: item.Note, Valid: true}
		}

		// total_cost = (unit price + additions) * quantity; additions are
		// per dish, so they scale with quantity.
		totalCost := unitPrice.Add(additionsTotal).Mul(decimal.NewFromInt32(item.Quantity))

		prepared = append(prepared, preparedItem{
			params: database.CreateOrderItemParams{
				MenuItemID:    menuItemID,
				NameSnapshot:  menuItem.Name,
				PriceSnapshot: menuItem.Price,
				Note:          note,
				Quantity:      item.Quantity,
				TotalCost:     decimalToNumeric(totalCost),
			},
			location:  menuItem.Location,
			additions: additions,
		})
	}

	billNote := pgtype.Text{}
	if req.Note != "" {
		billNote = pgtype.Text{String: req.Note, Valid: true}
	}
	bill, err := store.CreateBill(ctx, database.CreateBillParams{
		ServiceWorkerID: waiterID,
		Note:            billNote,
		GuestCount:      req.GuestCount,
	})
	if err != nil {
		return nil, fmt.Errorf("create bill: %w", err)
	}

	for _, tid := range tableIDs {
		if err := store.AttachTableToBill(ctx, database.AttachTableToBillParams{BillID: bill.ID, TableID: tid}); err != nil {
			return nil, fmt.Errorf("attach table: %w", err)
		}
	}
	tableNames, err := store.ListTableNamesByBill(ctx, bill.ID)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	tableLabel := joinNames(tableNames)

	// One order per station that actually has items.
	orders := make(map[string]database.Order)
	payloadItems := make(map[string][]ws.OrderItemPayload)
	var created []database.Order
	for _, pi := range prepared {
		order, ok := orders[pi.location]
		if !ok {
			order, err = store.CreateOrder(ctx, database.CreateOrderParams{BillID: bill.ID, Category: pi.location})
			if err != nil {
				return nil, fmt.Errorf("create order: %w", err)
			}
			orders[pi.location] = order
			created = append(created, order)
		}

		pi.params.OrderID = order.ID
		item, err := store.CreateOrderItem(ctx, pi.params)
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
		for _, addition := range pi.additions {
			_, err := store.CreateOrderItemAddition(ctx, database.CreateOrderItemAdditionParams{
				OrderItemID:   item.ID,
				AdditionID:    addition.ID,
				NameSnapshot:  addition.Name,
				PriceSnapshot: addition.Price,
			})
			if err != nil {
				return nil, fmt.Errorf("create order item addition: %w", err)
			}
		}

		// A notification exists only when someone is there to receive it.
		if waiterID.Valid {
			_, err := store.CreateNotification(ctx, database.CreateNotificationParams{
				WorkerID:    uuid.UUID(waiterID.Bytes),
				OrderItemID: item.ID,
			})
			if err != nil {
				return nil, fmt.Errorf("create notification: %w", err)
			}
		}

		payloadItems[pi.location] = append(payloadItems[pi.location], ws.OrderItemPayload{
			ID:           item.ID,
			NameSnapshot: item.NameSnapshot,
			Quantity:     item.Quantity,
			Note:         item.Note.String,
			IsDone:       false,
		})
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	var events []PendingEvent
	for _, order := range created {
		events = append(events, PendingEvent{
			Group: enum.GroupForLocation(order.Category),
			Event: ws.NewOrderEvent{
				Type: ws.EventNewOrder,
				Order: ws.OrderPayload{
					ID:         order.ID,
					Sender:     sender,
					Table:      tableLabel,
					Status:     order.Status,
					OrderItems: payloadItems[order.Category],
					CreatedAt:  order.CreatedAt.Format(time.RFC3339),
				},
			},
		})
	}

	return &PlaceOrderResult{Bill: bill, Orders: created, Events: events}, nil
}

// UpdateStatus moves an order through its lifecycle and applies the item
// side effects of each stage. Entering ready also advances the order's
// prepare notifications to wait and returns one broadcast per notification.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus string) (database.Order, []PendingEvent, error) {
	switch newStatus {
	case enum.OrderStatusPreparing, enum.OrderStatusReady, enum.OrderStatusPaid, enum.OrderStatusCanceled:
	default:
		return database.Order{}, nil, ErrInvalidStatus
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Order{}, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrderForUpdate(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, nil, ErrOrderNotFound
		}
		return database.Order{}, nil, fmt.Errorf("get order: %w", err)
	}
	if !transitionAllowed(order.Status, newStatus) {
		return database.Order{}, nil, fmt.Errorf("%s to %s: %w", order.Status, newStatus, ErrInvalidTransition)
	}

	now := time.Now().UTC()
	var events []PendingEvent

	switch newStatus {
	case enum.OrderStatusPreparing:
		order, err = store.MarkOrderPreparing(ctx, database.StampParams{ID: orderID, At: now})
		if err != nil {
			return database.Order{}, nil, fmt.Errorf("mark preparing: %w", err)
		}
		if err := store.StartWaitingItems(ctx, database.StartWaitingItemsParams{OrderID: orderID, StartedAt: now}); err != nil {
			return database.Order{}, nil, fmt.Errorf("start items: %w", err)
		}

	case enum.OrderStatusReady:
		order, err = store.MarkOrderReady(ctx, database.StampParams{ID: orderID, At: now})
		if err != nil {
			return database.Order{}, nil, fmt.Errorf("mark ready: %w", err)
		}
		if err := store.FinishOrderItems(ctx, database.FinishOrderItemsParams{OrderID: orderID, FinishedAt: now}); err != nil {
			return database.Order{}, nil, fmt.Errorf("finish items: %w", err)
		}
		// Capture the pending notifications before flipping them so the
		// post-commit broadcasts carry their display context.
		pending, err := store.ListPrepareNotificationsByOrder(ctx, orderID)
		if err != nil {
			return database.Order{}, nil, fmt.Errorf("list notifications: %w", err)
		}
		if err := store.AdvanceOrderNotificationsToWait(ctx, database.AdvanceOrderNotificationsParams{OrderID: orderID, LastUpdate: now}); err != nil {
			return database.Order{}, nil, fmt.Errorf("advance notifications: %w", err)
		}
		for _, row := range pending {
			events = append(events, PendingEvent{
				Group: enum.GroupNotifications,
				Event: ws.NewNotificationEvent{
					Type:                ws.EventNewNotification,
					NotificationPayload: notificationPayload(row, enum.NotificationStatusWait, now),
				},
			})
		}

	case enum.OrderStatusPaid:
		order, err = store.MarkOrderPaid(ctx, database.StampParams{ID: orderID, At: now})
		if err != nil {
			return database.Order{}, nil, fmt.Errorf("mark paid: %w", err)
		}

	case enum.OrderStatusCanceled:
		order, err = store.MarkOrderCanceled(ctx, database.StampParams{ID: orderID, At: now})
		if err != nil {
			return database.Order{}, nil, fmt.Errorf("mark canceled: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Order{}, nil, fmt.Errorf("commit tx: %w", err)
	}

	events = append([]PendingEvent{{
		Group: enum.GroupForLocation(order.Category),
		Event: ws.OrderStatusUpdateEvent{
			Type:      ws.EventOrderStatusUpdate,
			OrderID:   order.ID,
			NewStatus: order.Status,
		},
	}}, events...)

	return order, events, nil
}

// ItemDone finishes a single item ahead of the rest of its order and raises
// the item's notification to wait. Already-raised or served notifications
// are left alone.
func (s *OrderService) ItemDone(ctx context.Context, orderID, itemID uuid.UUID) ([]PendingEvent, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	if _, err := store.GetOrderForUpdate(ctx, orderID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	item, err := store.GetOrderItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	if item.OrderID != orderID {
		return nil, ErrItemNotFound
	}

	now := time.Now().UTC()
	if _, err := store.FinishOrderItem(ctx, database.FinishOrderItemParams{ID: itemID, FinishedAt: now}); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("finish item: %w", err)
	}

	var events []PendingEvent
	notification, err := store.GetNotificationByOrderItem(ctx, itemID)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		// No waiter was assigned: nothing to raise, nothing to broadcast.
	case err != nil:
		return nil, fmt.Errorf("get notification: %w", err)
	case notification.Status == enum.NotificationStatusPrepare:
		if _, err := store.SetNotificationStatus(ctx, database.SetNotificationStatusParams{
			ID:         notification.ID,
			Status:     enum.NotificationStatusWait,
			LastUpdate: now,
		}); err != nil {
			return nil, fmt.Errorf("set notification status: %w", err)
		}
		row, err := store.GetNotificationRow(ctx, notification.ID)
		if err != nil {
			return nil, fmt.Errorf("get notification row: %w", err)
		}
		events = append(events, PendingEvent{
			Group: enum.GroupNotifications,
			Event: ws.NewNotificationEvent{
				Type:                ws.EventNewNotification,
				NotificationPayload: notificationPayload(row, enum.NotificationStatusWait, now),
			},
		})
	default:
		// Already wait or serve: the dispatcher never regresses a status.
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return events, nil
}

// AddAddition snapshots an extra onto an existing item and recomputes the
// item's total cost.
func (s *OrderService) AddAddition(ctx context.Context, itemID, additionID uuid.UUID) (database.OrderItem, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.OrderItem{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	item, err := store.GetOrderItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.OrderItem{}, ErrItemNotFound
		}
		return database.OrderItem{}, fmt.Errorf("get item: %w", err)
	}
	addition, err := store.GetAdditionForOrder(ctx, additionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.OrderItem{}, ErrAdditionNotFound
		}
		return database.OrderItem{}, fmt.Errorf("get addition: %w", err)
	}

	if _, err := store.CreateOrderItemAddition(ctx, database.CreateOrderItemAdditionParams{
		OrderItemID:   item.ID,
		AdditionID:    addition.ID,
		NameSnapshot:  addition.Name,
		PriceSnapshot: addition.Price,
	}); err != nil {
		return database.OrderItem{}, fmt.Errorf("create addition: %w", err)
	}

	item, err = s.recomputeItemTotal(ctx, store, item)
	if err != nil {
		return database.OrderItem{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return database.OrderItem{}, fmt.Errorf("commit tx: %w", err)
	}
	return item, nil
}

// RemoveAddition deletes a snapshotted extra and recomputes the parent
// item's total cost.
func (s *OrderService) RemoveAddition(ctx context.Context, orderItemAdditionID uuid.UUID) (database.OrderItem, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.OrderItem{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	deleted, err := store.DeleteOrderItemAddition(ctx, orderItemAdditionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.OrderItem{}, ErrAdditionNotFound
		}
		return database.OrderItem{}, fmt.Errorf("delete addition: %w", err)
	}
	item, err := store.GetOrderItem(ctx, deleted.OrderItemID)
	if err != nil {
		return database.OrderItem{}, fmt.Errorf("get item: %w", err)
	}

	item, err = s.recomputeItemTotal(ctx, store, item)
	if err != nil {
		return database.OrderItem{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return database.OrderItem{}, fmt.Errorf("commit tx: %w", err)
	}
	return item, nil
}

// recomputeItemTotal rebuilds total_cost from the stored snapshots with a
// direct column update, so the addition write path never re-enters itself.
func (s *OrderService) recomputeItemTotal(ctx context.Context, store OrderStore, item database.OrderItem) (database.OrderItem, error) {
	additions, err := store.ListAdditionsByOrderItem(ctx, item.ID)
	if err != nil {
		return database.OrderItem{}, fmt.Errorf("list additions: %w", err)
	}
	unit := numericToDecimal(item.PriceSnapshot)
	for _, a := range additions {
		unit = unit.Add(numericToDecimal(a.PriceSnapshot))
	}
	total := unit.Mul(decimal.NewFromInt32(item.Quantity))
	if err := store.UpdateOrderItemTotalCost(ctx, database.UpdateOrderItemTotalCostParams{
		ID:        item.ID,
		TotalCost: decimalToNumeric(total),
	}); err != nil {
		return database.OrderItem{}, fmt.Errorf("update total cost: %w", err)
	}
	item.TotalCost = decimalToNumeric(total)
	return item, nil
}

// StationSnapshot builds the backlog event pushed to a kitchen or bar client
// on connect: every in-progress order for that station, oldest first.
func (s *OrderService) StationSnapshot(ctx context.Context, store OrderStore, category string) (ws.InitialOrdersEvent, error) {
	open, err := store.ListOpenOrdersByCategory(ctx, category)
	if err != nil {
		return ws.InitialOrdersEvent{}, fmt.Errorf("list open orders: %w", err)
	}

	event := ws.InitialOrdersEvent{Type: ws.EventInitialOrders, Orders: []ws.OrderPayload{}}
	for _, row := range open {
		items, err := store.ListOrderItemsByOrder(ctx, row.ID)
		if err != nil {
			return ws.InitialOrdersEvent{}, fmt.Errorf("list items: %w", err)
		}
		payload := ws.OrderPayload{
			ID:         row.ID,
			Sender:     row.Sender.String,
			Table:      row.Tables,
			Status:     row.Status,
			OrderItems: []ws.OrderItemPayload{},
			CreatedAt:  row.CreatedAt.Format(time.RFC3339),
		}
		for _, item := range items {
			payload.OrderItems = append(payload.OrderItems, ws.OrderItemPayload{
				ID:           item.ID,
				NameSnapshot: item.NameSnapshot,
				Quantity:     item.Quantity,
				Note:         item.Note.String,
				IsDone:       item.Status == enum.OrderItemStatusReady,
			})
		}
		event.Orders = append(event.Orders, payload)
	}
	return event, nil
}

func transitionAllowed(from, to string) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func joinNames(names []string) string {
	label := ""
	for i, name := range names {
		if i > 0 {
			label += ", "
		}
		label += name
	}
	return label
}

// notificationPayload formats one waiter feed entry. Addition names and the
// item note ride along parenthesized after the dish name.
func notificationPayload(row database.NotificationRow, status string, at time.Time) ws.NotificationPayload {
	name := row.ItemName
	if row.Additions.Valid && row.Additions.String != "" {
		name = fmt.Sprintf("%s (%s)", name, row.Additions.String)
	}
	if row.ItemNote.Valid && row.ItemNote.String != "" {
		name = fmt.Sprintf("%s (%s)", name, row.ItemNote.String)
	}
	return ws.NotificationPayload{
		ID:         row.ID,
		Worker:     row.Worker,
		OrderItem:  name,
		Table:      row.Tables.String,
		LastUpdate: at.Format(time.RFC3339),
		Status:     status,
	}
}
