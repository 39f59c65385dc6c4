package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

type ItemsSoldRow struct {
	Total   int64
	Kitchen int64
	Bar     int64
}

// SumItemsSold counts dishes sold on bills opened in the range, split by
// station. Canceled items are excluded.
func (q *Queries) SumItemsSold(ctx context.Context, arg DateRangeParams) (ItemsSoldRow, error) {
	var r ItemsSoldRow
	err := q.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(oi.quantity), 0),
		       COALESCE(SUM(oi.quantity) FILTER (WHERE o.category = 'kitchen'), 0),
		       COALESCE(SUM(oi.quantity) FILTER (WHERE o.category = 'bar'), 0)
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		JOIN bills b ON b.id = o.bill_id
		WHERE oi.status <> 'canceled'
		  AND b.created_at BETWEEN $1 AND $2`,
		arg.From, arg.To,
	).Scan(&r.Total, &r.Kitchen, &r.Bar)
	return r, err
}

// AvgKitchenPrepSeconds averages the preparing-to-ready span of kitchen
// orders in the range. Null when no order has both stamps.
func (q *Queries) AvgKitchenPrepSeconds(ctx context.Context, arg DateRangeParams) (pgtype.Float8, error) {
	var avg pgtype.Float8
	err := q.db.QueryRow(ctx, `
		SELECT AVG(EXTRACT(EPOCH FROM (o.readied_at - o.preparing_at)))
		FROM orders o
		JOIN bills b ON b.id = o.bill_id
		WHERE o.category = 'kitchen'
		  AND o.preparing_at IS NOT NULL
		  AND o.readied_at IS NOT NULL
		  AND b.created_at BETWEEN $1 AND $2`,
		arg.From, arg.To,
	).Scan(&avg)
	return avg, err
}
