package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, bill_id, status, category, created_at, preparing_at, readied_at, paid_at, canceled_at`

func scanOrder(row interface{ Scan(dest ...any) error }) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.BillID, &o.Status, &o.Category, &o.CreatedAt, &o.PreparingAt, &o.ReadiedAt, &o.PaidAt, &o.CanceledAt)
	return o, err
}

type CreateOrderParams struct {
	BillID   uuid.UUID
	Category string
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO orders (bill_id, category)
		VALUES ($1, $2)
		RETURNING `+orderColumns,
		arg.BillID, arg.Category,
	)
	return scanOrder(row)
}

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	return scanOrder(row)
}

// GetOrderForUpdate locks the order row for the rest of the transaction so
// concurrent status writes serialize instead of interleaving.
func (q *Queries) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
	return scanOrder(row)
}

type StampParams struct {
	ID uuid.UUID
	At time.Time
}

// MarkOrderPreparing moves the order to preparing. COALESCE keeps an already
// recorded timestamp: lifecycle stamps only ever move forward.
func (q *Queries) MarkOrderPreparing(ctx context.Context, arg StampParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE orders
		SET status = 'preparing', preparing_at = COALESCE(preparing_at, $2)
		WHERE id = $1
		RETURNING `+orderColumns,
		arg.ID, arg.At,
	)
	return scanOrder(row)
}

// MarkOrderReady also backfills preparing_at, so an order that skipped the
// preparing stage still carries evidence that it happened.
func (q *Queries) MarkOrderReady(ctx context.Context, arg StampParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE orders
		SET status = 'ready',
		    readied_at = COALESCE(readied_at, $2),
		    preparing_at = COALESCE(preparing_at, $2)
		WHERE id = $1
		RETURNING `+orderColumns,
		arg.ID, arg.At,
	)
	return scanOrder(row)
}

func (q *Queries) MarkOrderPaid(ctx context.Context, arg StampParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE orders
		SET status = 'paid', paid_at = COALESCE(paid_at, $2)
		WHERE id = $1
		RETURNING `+orderColumns,
		arg.ID, arg.At,
	)
	return scanOrder(row)
}

func (q *Queries) MarkOrderCanceled(ctx context.Context, arg StampParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE orders
		SET status = 'canceled', canceled_at = COALESCE(canceled_at, $2)
		WHERE id = $1
		RETURNING `+orderColumns,
		arg.ID, arg.At,
	)
	return scanOrder(row)
}

// OpenOrderRow is an in-progress order plus the payload context a station
// snapshot needs: who sent it and which tables it belongs to.
type OpenOrderRow struct {
	ID        uuid.UUID
	BillID    uuid.UUID
	Status    string
	Category  string
	CreatedAt time.Time
	Sender    pgtype.Text
	Tables    string
}

// ListOpenOrdersByCategory returns orders a late-joining station client still
// cares about, oldest first.
func (q *Queries) ListOpenOrdersByCategory(ctx context.Context, category string) ([]OpenOrderRow, error) {
	rows, err := q.db.Query(ctx, `
		SELECT
			o.id, o.bill_id, o.status, o.category, o.created_at, w.display_name,
			COALESCE(string_agg(DISTINCT rt.name, ', '), '')
		FROM orders o
		JOIN bills b ON b.id = o.bill_id
		LEFT JOIN workers w ON w.id = b.service_worker_id
		LEFT JOIN bill_tables bt ON bt.bill_id = b.id
		LEFT JOIN restaurant_tables rt ON rt.id = bt.table_id
		WHERE o.category = $1 AND o.status IN ('ordering', 'preparing')
		GROUP BY o.id, w.display_name
		ORDER BY o.created_at`,
		category,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []OpenOrderRow
	for rows.Next() {
		var r OpenOrderRow
		if err := rows.Scan(&r.ID, &r.BillID, &r.Status, &r.Category, &r.CreatedAt, &r.Sender, &r.Tables); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

type ListOrdersParams struct {
	Status   pgtype.Text
	Category pgtype.Text
	Limit    int32
	Offset   int32
}

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE ($1::text IS NULL OR status = $1)
		  AND ($2::text IS NULL OR category = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`,
		arg.Status, arg.Category, arg.Limit, arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (q *Queries) ListOrdersByBill(ctx context.Context, billID uuid.UUID) ([]Order, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE bill_id = $1
		ORDER BY created_at`,
		billID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
