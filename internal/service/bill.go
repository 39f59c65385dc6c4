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
	"github.com/shopspring/decimal"
)

// Errors returned by the bill service.
var (
	ErrBillNotFound         = errors.New("bill not found")
	ErrBillAlreadyClosed    = errors.New("bill is already closed")
	ErrInvalidDiscount      = errors.New("discount must be between 0 and 100")
	ErrInvalidPaymentMethod = errors.New("payment method must be card or cash")
	ErrInvalidGuestCount    = errors.New("guest count must be >= 0")
)

// BillStore defines the DB methods needed by the bill service.
// Satisfied by *database.Queries (and its WithTx variant).
type BillStore interface {
	GetBill(ctx context.Context, id uuid.UUID) (database.Bill, error)
	ListBills(ctx context.Context, arg database.ListBillsParams) ([]database.Bill, error)
	UpdateBillDiscount(ctx context.Context, arg database.UpdateBillDiscountParams) (database.Bill, error)
	CloseBill(ctx context.Context, arg database.CloseBillParams) (database.Bill, error)
	ListOrdersByBill(ctx context.Context, billID uuid.UUID) ([]database.Order, error)
	MarkOrderPaid(ctx context.Context, arg database.StampParams) (database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	ListAdditionsByOrderItem(ctx context.Context, orderItemID uuid.UUID) ([]database.OrderItemAddition, error)
	ListTableNamesByBill(ctx context.Context, billID uuid.UUID) ([]string, error)
}

// NewBillStore creates a BillStore from a DBTX (pool or tx).
type NewBillStore func(db database.DBTX) BillStore

// BillService handles settlement business logic. Reads go through the base
// store; Close runs in its own transaction via newStore.
type BillService struct {
	base     BillStore
	pool     TxBeginner
	newStore NewBillStore
}

func NewBillService(base BillStore, pool TxBeginner, newStore NewBillStore) *BillService {
	return &BillService{base: base, pool: pool, newStore: newStore}
}

// ListBills returns bills newest first.
func (s *BillService) ListBills(ctx context.Context, limit, offset int32) ([]database.Bill, error) {
	return s.base.ListBills(ctx, database.ListBillsParams{Limit: limit, Offset: offset})
}

// UpdateDiscount sets the discount on an open bill. The write is guarded on
// status, so a discount update racing a close loses cleanly.
func (s *BillService) UpdateDiscount(ctx context.Context, billID uuid.UUID, discount int32) (database.Bill, error) {
	if discount < 0 || discount > 100 {
		return database.Bill{}, ErrInvalidDiscount
	}

	store := s.base
	bill, err := store.UpdateBillDiscount(ctx, database.UpdateBillDiscountParams{ID: billID, Discount: discount})
	if err == nil {
		return bill, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return database.Bill{}, fmt.Errorf("update discount: %w", err)
	}

	// The guarded update matched nothing: missing bill or already closed.
	if _, err := store.GetBill(ctx, billID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Bill{}, ErrBillNotFound
		}
		return database.Bill{}, fmt.Errorf("get bill: %w", err)
	}
	return database.Bill{}, ErrBillAlreadyClosed
}

// Close settles an open bill exactly once and stamps its live orders paid.
// Closing a closed bill is rejected, never silently absorbed.
func (s *BillService) Close(ctx context.Context, billID uuid.UUID, paymentMethod string, guestCount int32) (database.Bill, []PendingEvent, error) {
	switch paymentMethod {
	case enum.PaymentMethodCard, enum.PaymentMethodCash:
	default:
		return database.Bill{}, nil, ErrInvalidPaymentMethod
	}
	if guestCount < 0 {
		return database.Bill{}, nil, ErrInvalidGuestCount
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Bill{}, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)
	now := time.Now().UTC()

	bill, err := store.CloseBill(ctx, database.CloseBillParams{
		ID:            billID,
		PaymentMethod: paymentMethod,
		GuestCount:    guestCount,
		ClosedAt:      now,
	})
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return database.Bill{}, nil, fmt.Errorf("close bill: %w", err)
		}
		if _, err := store.GetBill(ctx, billID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return database.Bill{}, nil, ErrBillNotFound
			}
			return database.Bill{}, nil, fmt.Errorf("get bill: %w", err)
		}
		return database.Bill{}, nil, ErrBillAlreadyClosed
	}

	// Settlement finishes the lifecycle of everything still live.
	orders, err := store.ListOrdersByBill(ctx, billID)
	if err != nil {
		return database.Bill{}, nil, fmt.Errorf("list orders: %w", err)
	}
	var events []PendingEvent
	for _, order := range orders {
		if order.Status == enum.OrderStatusPaid || order.Status == enum.OrderStatusCanceled {
			continue
		}
		paid, err := store.MarkOrderPaid(ctx, database.StampParams{ID: order.ID, At: now})
		if err != nil {
			return database.Bill{}, nil, fmt.Errorf("mark order paid: %w", err)
		}
		events = append(events, PendingEvent{
			Group: enum.GroupForLocation(paid.Category),
			Event: ws.OrderStatusUpdateEvent{
				Type:      ws.EventOrderStatusUpdate,
				OrderID:   paid.ID,
				NewStatus: paid.Status,
			},
		})
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Bill{}, nil, fmt.Errorf("commit tx: %w", err)
	}
	return bill, events, nil
}

// BillItemView is one line of a bill view with its snapshotted extras.
type BillItemView struct {
	Item      database.OrderItem
	Additions []database.OrderItemAddition
}

// BillOrderView is one station order of a bill view.
type BillOrderView struct {
	Order database.Order
	Items []BillItemView
}

// BillView is the full settlement picture of one bill: orders, items,
// snapshots, and the totals before and after discount.
type BillView struct {
	Bill            database.Bill
	Tables          []string
	Orders          []BillOrderView
	Total           decimal.Decimal
	TotalDiscounted decimal.Decimal
}

// View assembles the settlement picture from the stored snapshots. Canceled
// items stay visible but do not count toward the totals.
func (s *BillService) View(ctx context.Context, billID uuid.UUID) (BillView, error) {
	store := s.base

	bill, err := store.GetBill(ctx, billID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return BillView{}, ErrBillNotFound
		}
		return BillView{}, fmt.Errorf("get bill: %w", err)
	}
	tables, err := store.ListTableNamesByBill(ctx, billID)
	if err != nil {
		return BillView{}, fmt.Errorf("list tables: %w", err)
	}
	orders, err := store.ListOrdersByBill(ctx, billID)
	if err != nil {
		return BillView{}, fmt.Errorf("list orders: %w", err)
	}

	view := BillView{Bill: bill, Tables: tables, Total: decimal.Zero}
	for _, order := range orders {
		items, err := store.ListOrderItemsByOrder(ctx, order.ID)
		if err != nil {
			return BillView{}, fmt.Errorf("list items: %w", err)
		}
		ov := BillOrderView{Order: order}
		for _, item := range items {
			additions, err := store.ListAdditionsByOrderItem(ctx, item.ID)
			if err != nil {
				return BillView{}, fmt.Errorf("list additions: %w", err)
			}
			ov.Items = append(ov.Items, BillItemView{Item: item, Additions: additions})
			if item.Status != enum.OrderItemStatusCanceled && order.Status != enum.OrderStatusCanceled {
				view.Total = view.Total.Add(numericToDecimal(item.TotalCost))
			}
		}
		view.Orders = append(view.Orders, ov)
	}

	factor := decimal.NewFromInt32(100 - bill.Discount).Div(decimal.NewFromInt(100))
	view.TotalDiscounted = view.Total.Mul(factor).Round(2)
	if bill.Discount >= 100 {
		view.TotalDiscounted = decimal.Zero
	}
	return view, nil
}
