package database

import (
	"context"

	"github.com/google/uuid"
)

const menuItemColumns = `id, menu, sub_menu, name, description, price, location, is_available, created_at`

func scanMenuItem(row interface{ Scan(dest ...any) error }) (MenuItem, error) {
	var m MenuItem
	err := row.Scan(&m.ID, &m.Menu, &m.SubMenu, &m.Name, &m.Description, &m.Price, &m.Location, &m.IsAvailable, &m.CreatedAt)
	return m, err
}

func (q *Queries) ListAvailableMenuItems(ctx context.Context) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+menuItemColumns+`
		FROM menu_items
		WHERE is_available
		ORDER BY menu, name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []MenuItem
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

// GetMenuItemForOrder resolves the live menu entry whose name and price get
// snapshotted onto a new order item.
func (q *Queries) GetMenuItemForOrder(ctx context.Context, id uuid.UUID) (MenuItem, error) {
	row := q.db.QueryRow(ctx, `SELECT `+menuItemColumns+` FROM menu_items WHERE id = $1`, id)
	return scanMenuItem(row)
}

func (q *Queries) GetAdditionForOrder(ctx context.Context, id uuid.UUID) (Addition, error) {
	var a Addition
	err := q.db.QueryRow(ctx, `
		SELECT id, name, price, is_available FROM additions WHERE id = $1`, id,
	).Scan(&a.ID, &a.Name, &a.Price, &a.IsAvailable)
	return a, err
}

func (q *Queries) ListAdditionsByMenuItem(ctx context.Context, menuItemID uuid.UUID) ([]Addition, error) {
	rows, err := q.db.Query(ctx, `
		SELECT a.id, a.name, a.price, a.is_available
		FROM additions a
		JOIN menu_item_additions mia ON mia.addition_id = a.id
		WHERE mia.menu_item_id = $1 AND a.is_available
		ORDER BY a.name`,
		menuItemID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var additions []Addition
	for rows.Next() {
		var a Addition
		if err := rows.Scan(&a.ID, &a.Name, &a.Price, &a.IsAvailable); err != nil {
			return nil, err
		}
		additions = append(additions, a)
	}
	return additions, rows.Err()
}
