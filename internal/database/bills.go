package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const billColumns = `id, status, created_at, closed_at, service_worker_id, note, discount, payment_method, guest_count`

func scanBill(row interface{ Scan(dest ...any) error }) (Bill, error) {
	var b Bill
	err := row.Scan(&b.ID, &b.Status, &b.CreatedAt, &b.ClosedAt, &b.ServiceWorkerID, &b.Note, &b.Discount, &b.PaymentMethod, &b.GuestCount)
	return b, err
}

type CreateBillParams struct {
	ServiceWorkerID pgtype.UUID
	Note            pgtype.Text
	GuestCount      int32
}

func (q *Queries) CreateBill(ctx context.Context, arg CreateBillParams) (Bill, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO bills (service_worker_id, note, guest_count)
		VALUES ($1, $2, $3)
		RETURNING `+billColumns,
		arg.ServiceWorkerID, arg.Note, arg.GuestCount,
	)
	return scanBill(row)
}

func (q *Queries) GetBill(ctx context.Context, id uuid.UUID) (Bill, error) {
	row := q.db.QueryRow(ctx, `SELECT `+billColumns+` FROM bills WHERE id = $1`, id)
	return scanBill(row)
}

type ListBillsParams struct {
	Limit  int32
	Offset int32
}

func (q *Queries) ListBills(ctx context.Context, arg ListBillsParams) ([]Bill, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+billColumns+`
		FROM bills
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`,
		arg.Limit, arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bills []Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		bills = append(bills, b)
	}
	return bills, rows.Err()
}

type UpdateBillDiscountParams struct {
	ID       uuid.UUID
	Discount int32
}

// UpdateBillDiscount only touches open bills, so a discount update racing a
// close loses instead of silently mutating a settled bill. pgx.ErrNoRows
// means the bill is missing or already closed.
func (q *Queries) UpdateBillDiscount(ctx context.Context, arg UpdateBillDiscountParams) (Bill, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE bills
		SET discount = $2
		WHERE id = $1 AND status = 'open'
		RETURNING `+billColumns,
		arg.ID, arg.Discount,
	)
	return scanBill(row)
}

type CloseBillParams struct {
	ID            uuid.UUID
	PaymentMethod string
	GuestCount    int32
	ClosedAt      time.Time
}

// CloseBill transitions an open bill to closed. The status guard makes the
// close atomic: a second close (or a close racing another) gets pgx.ErrNoRows.
func (q *Queries) CloseBill(ctx context.Context, arg CloseBillParams) (Bill, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE bills
		SET status = 'closed', payment_method = $2, guest_count = $3, closed_at = $4
		WHERE id = $1 AND status = 'open'
		RETURNING `+billColumns,
		arg.ID, arg.PaymentMethod, arg.GuestCount, arg.ClosedAt,
	)
	return scanBill(row)
}

type DateRangeParams struct {
	From time.Time
	To   time.Time
}

type CountBillStatusesRow struct {
	Opened    int64
	Closed    int64
	PayByCard int64
	PayByCash int64
}

func (q *Queries) CountBillStatuses(ctx context.Context, arg DateRangeParams) (CountBillStatusesRow, error) {
	var r CountBillStatusesRow
	err := q.db.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'open'),
			COUNT(*) FILTER (WHERE status = 'closed'),
			COUNT(*) FILTER (WHERE payment_method = 'card'),
			COUNT(*) FILTER (WHERE payment_method = 'cash')
		FROM bills
		WHERE created_at BETWEEN $1 AND $2`,
		arg.From, arg.To,
	).Scan(&r.Opened, &r.Closed, &r.PayByCard, &r.PayByCash)
	return r, err
}

// BillSummaryRow is one row of the denormalized bill × order-item × addition
// join consumed by the billing aggregation engine. Item and addition columns
// are nullable: a bill without items produces a single row with a null item id.
type BillSummaryRow struct {
	BillID        uuid.UUID
	PaymentMethod string
	Discount      int32
	GuestCount    int32
	Waiter        pgtype.Text
	OrderItemID   pgtype.UUID
	PriceSnapshot pgtype.Numeric
	Quantity      pgtype.Int4
	AdditionID    pgtype.UUID
	AdditionPrice pgtype.Numeric
}

func (q *Queries) ListBillSummaryRows(ctx context.Context, arg DateRangeParams) ([]BillSummaryRow, error) {
	rows, err := q.db.Query(ctx, `
		SELECT
			b.id, b.payment_method, b.discount, b.guest_count, w.display_name,
			oi.id, oi.price_snapshot, oi.quantity,
			oia.id, oia.price_snapshot
		FROM bills b
		LEFT JOIN workers w ON w.id = b.service_worker_id
		LEFT JOIN orders o ON o.bill_id = b.id
		LEFT JOIN order_items oi ON oi.order_id = o.id
		LEFT JOIN order_item_additions oia ON oia.order_item_id = oi.id
		WHERE b.created_at BETWEEN $1 AND $2`,
		arg.From, arg.To,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []BillSummaryRow
	for rows.Next() {
		var r BillSummaryRow
		if err := rows.Scan(
			&r.BillID, &r.PaymentMethod, &r.Discount, &r.GuestCount, &r.Waiter,
			&r.OrderItemID, &r.PriceSnapshot, &r.Quantity,
			&r.AdditionID, &r.AdditionPrice,
		); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
