package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderItemColumns = `id, order_id, menu_item_id, name_snapshot, price_snapshot, note, status, created_at, started_at, finished_at, quantity, total_cost`

func scanOrderItem(row interface{ Scan(dest ...any) error }) (OrderItem, error) {
	var i OrderItem
	err := row.Scan(&i.ID, &i.OrderID, &i.MenuItemID, &i.NameSnapshot, &i.PriceSnapshot, &i.Note, &i.Status, &i.CreatedAt, &i.StartedAt, &i.FinishedAt, &i.Quantity, &i.TotalCost)
	return i, err
}

type CreateOrderItemParams struct {
	OrderID       uuid.UUID
	MenuItemID    uuid.UUID
	NameSnapshot  string
	PriceSnapshot pgtype.Numeric
	Note          pgtype.Text
	Quantity      int32
	TotalCost     pgtype.Numeric
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO order_items (order_id, menu_item_id, name_snapshot, price_snapshot, note, quantity, total_cost)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+orderItemColumns,
		arg.OrderID, arg.MenuItemID, arg.NameSnapshot, arg.PriceSnapshot, arg.Note, arg.Quantity, arg.TotalCost,
	)
	return scanOrderItem(row)
}

func (q *Queries) GetOrderItem(ctx context.Context, id uuid.UUID) (OrderItem, error) {
	row := q.db.QueryRow(ctx, `SELECT `+orderItemColumns+` FROM order_items WHERE id = $1`, id)
	return scanOrderItem(row)
}

func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+orderItemColumns+`
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at`,
		orderID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		i, err := scanOrderItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

type StartWaitingItemsParams struct {
	OrderID   uuid.UUID
	StartedAt time.Time
}

// StartWaitingItems moves still-waiting items to preparing and stamps their
// start time. Items already preparing or ready are untouched.
func (q *Queries) StartWaitingItems(ctx context.Context, arg StartWaitingItemsParams) error {
	_, err := q.db.Exec(ctx, `
		UPDATE order_items
		SET status = 'preparing', started_at = $2
		WHERE order_id = $1 AND status = 'waiting'`,
		arg.OrderID, arg.StartedAt,
	)
	return err
}

type FinishOrderItemsParams struct {
	OrderID    uuid.UUID
	FinishedAt time.Time
}

// FinishOrderItems marks the whole order's items ready. A missing start time
// is backfilled with the finish time so prep-duration math never sees a null.
func (q *Queries) FinishOrderItems(ctx context.Context, arg FinishOrderItemsParams) error {
	_, err := q.db.Exec(ctx, `
		UPDATE order_items
		SET status = 'ready',
		    finished_at = COALESCE(finished_at, $2),
		    started_at = COALESCE(started_at, $2)
		WHERE order_id = $1 AND status <> 'canceled'`,
		arg.OrderID, arg.FinishedAt,
	)
	return err
}

type FinishOrderItemParams struct {
	ID         uuid.UUID
	FinishedAt time.Time
}

// FinishOrderItem is the single-item variant used when a station finishes one
// dish of a mixed order ahead of the rest.
func (q *Queries) FinishOrderItem(ctx context.Context, arg FinishOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE order_items
		SET status = 'ready',
		    finished_at = COALESCE(finished_at, $2),
		    started_at = COALESCE(started_at, $2)
		WHERE id = $1 AND status <> 'canceled'
		RETURNING `+orderItemColumns,
		arg.ID, arg.FinishedAt,
	)
	return scanOrderItem(row)
}

type UpdateOrderItemTotalCostParams struct {
	ID        uuid.UUID
	TotalCost pgtype.Numeric
}

// UpdateOrderItemTotalCost is a direct column write, deliberately not a full
// row save: recomputation must not re-trigger addition side effects.
func (q *Queries) UpdateOrderItemTotalCost(ctx context.Context, arg UpdateOrderItemTotalCostParams) error {
	_, err := q.db.Exec(ctx, `UPDATE order_items SET total_cost = $2 WHERE id = $1`, arg.ID, arg.TotalCost)
	return err
}

const orderItemAdditionColumns = `id, order_item_id, addition_id, name_snapshot, price_snapshot`

func scanOrderItemAddition(row interface{ Scan(dest ...any) error }) (OrderItemAddition, error) {
	var a OrderItemAddition
	err := row.Scan(&a.ID, &a.OrderItemID, &a.AdditionID, &a.NameSnapshot, &a.PriceSnapshot)
	return a, err
}

type CreateOrderItemAdditionParams struct {
	OrderItemID   uuid.UUID
	AdditionID    uuid.UUID
	NameSnapshot  string
	PriceSnapshot pgtype.Numeric
}

func (q *Queries) CreateOrderItemAddition(ctx context.Context, arg CreateOrderItemAdditionParams) (OrderItemAddition, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO order_item_additions (order_item_id, addition_id, name_snapshot, price_snapshot)
		VALUES ($1, $2, $3, $4)
		RETURNING `+orderItemAdditionColumns,
		arg.OrderItemID, arg.AdditionID, arg.NameSnapshot, arg.PriceSnapshot,
	)
	return scanOrderItemAddition(row)
}

// DeleteOrderItemAddition returns the deleted row so the caller knows which
// parent item needs its total recomputed.
func (q *Queries) DeleteOrderItemAddition(ctx context.Context, id uuid.UUID) (OrderItemAddition, error) {
	row := q.db.QueryRow(ctx, `
		DELETE FROM order_item_additions WHERE id = $1
		RETURNING `+orderItemAdditionColumns,
		id,
	)
	return scanOrderItemAddition(row)
}

func (q *Queries) ListAdditionsByOrderItem(ctx context.Context, orderItemID uuid.UUID) ([]OrderItemAddition, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+orderItemAdditionColumns+`
		FROM order_item_additions
		WHERE order_item_id = $1
		ORDER BY name_snapshot`,
		orderItemID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var additions []OrderItemAddition
	for rows.Next() {
		a, err := scanOrderItemAddition(rows)
		if err != nil {
			return nil, err
		}
		additions = append(additions, a)
	}
	return additions, rows.Err()
}
