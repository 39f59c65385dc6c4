package database

import (
	"context"

	"github.com/google/uuid"
)

func (q *Queries) ListActiveTables(ctx context.Context) ([]RestaurantTable, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, name, x, y, is_active
		FROM restaurant_tables
		WHERE is_active
		ORDER BY name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []RestaurantTable
	for rows.Next() {
		var t RestaurantTable
		if err := rows.Scan(&t.ID, &t.Name, &t.X, &t.Y, &t.IsActive); err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

type AttachTableToBillParams struct {
	BillID  uuid.UUID
	TableID uuid.UUID
}

func (q *Queries) AttachTableToBill(ctx context.Context, arg AttachTableToBillParams) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO bill_tables (bill_id, table_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`,
		arg.BillID, arg.TableID,
	)
	return err
}

// ListTableNamesByBill returns the labels of all tables attached to a bill,
// used for the "table" field of broadcast payloads.
func (q *Queries) ListTableNamesByBill(ctx context.Context, billID uuid.UUID) ([]string, error) {
	rows, err := q.db.Query(ctx, `
		SELECT rt.name
		FROM restaurant_tables rt
		JOIN bill_tables bt ON bt.table_id = rt.id
		WHERE bt.bill_id = $1
		ORDER BY rt.name`,
		billID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
