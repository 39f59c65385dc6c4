package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const notificationColumns = `id, worker_id, order_item_id, status, created_at, last_update`

func scanNotification(row interface{ Scan(dest ...any) error }) (Notification, error) {
	var n Notification
	err := row.Scan(&n.ID, &n.WorkerID, &n.OrderItemID, &n.Status, &n.CreatedAt, &n.LastUpdate)
	return n, err
}

type CreateNotificationParams struct {
	WorkerID    uuid.UUID
	OrderItemID uuid.UUID
}

func (q *Queries) CreateNotification(ctx context.Context, arg CreateNotificationParams) (Notification, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO notifications (worker_id, order_item_id)
		VALUES ($1, $2)
		RETURNING `+notificationColumns,
		arg.WorkerID, arg.OrderItemID,
	)
	return scanNotification(row)
}

func (q *Queries) GetNotification(ctx context.Context, id uuid.UUID) (Notification, error) {
	row := q.db.QueryRow(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id)
	return scanNotification(row)
}

func (q *Queries) GetNotificationByOrderItem(ctx context.Context, orderItemID uuid.UUID) (Notification, error) {
	row := q.db.QueryRow(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE order_item_id = $1`, orderItemID)
	return scanNotification(row)
}

// NotificationRow carries everything the waiter feed needs to render one
// entry without further lookups.
type NotificationRow struct {
	ID         uuid.UUID
	Worker     string
	ItemName   string
	ItemNote   pgtype.Text
	Additions  pgtype.Text
	Tables     pgtype.Text
	Status     string
	LastUpdate time.Time
}

const notificationRowQuery = `
	SELECT n.id,
	       w.display_name,
	       oi.name_snapshot,
	       oi.note,
	       (SELECT string_agg(oia.name_snapshot, ', ' ORDER BY oia.name_snapshot)
	        FROM order_item_additions oia
	        WHERE oia.order_item_id = oi.id),
	       (SELECT string_agg(rt.name, ', ' ORDER BY rt.name)
	        FROM bill_tables bt
	        JOIN restaurant_tables rt ON rt.id = bt.table_id
	        WHERE bt.bill_id = o.bill_id),
	       n.status,
	       n.last_update
	FROM notifications n
	JOIN workers w ON w.id = n.worker_id
	JOIN order_items oi ON oi.id = n.order_item_id
	JOIN orders o ON o.id = oi.order_id`

func (q *Queries) listNotificationRows(ctx context.Context, query string, args ...any) ([]NotificationRow, error) {
	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []NotificationRow
	for rows.Next() {
		var r NotificationRow
		if err := rows.Scan(&r.ID, &r.Worker, &r.ItemName, &r.ItemNote, &r.Additions, &r.Tables, &r.Status, &r.LastUpdate); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

// ListWaitingNotifications is the snapshot pushed to a waiter terminal on
// connect: every item ready to be carried out.
func (q *Queries) ListWaitingNotifications(ctx context.Context) ([]NotificationRow, error) {
	return q.listNotificationRows(ctx, notificationRowQuery+`
	WHERE n.status = 'wait'
	ORDER BY n.last_update`)
}

// GetNotificationRow loads one notification with its display context.
func (q *Queries) GetNotificationRow(ctx context.Context, id uuid.UUID) (NotificationRow, error) {
	rows, err := q.listNotificationRows(ctx, notificationRowQuery+`
	WHERE n.id = $1`, id)
	if err != nil {
		return NotificationRow{}, err
	}
	if len(rows) == 0 {
		return NotificationRow{}, pgx.ErrNoRows
	}
	return rows[0], nil
}

// ListPrepareNotificationsByOrder returns the pending entries for one order
// before they advance, so the caller can broadcast them after commit.
func (q *Queries) ListPrepareNotificationsByOrder(ctx context.Context, orderID uuid.UUID) ([]NotificationRow, error) {
	return q.listNotificationRows(ctx, notificationRowQuery+`
	WHERE n.status = 'prepare' AND oi.order_id = $1
	ORDER BY n.last_update`, orderID)
}

type AdvanceOrderNotificationsParams struct {
	OrderID    uuid.UUID
	LastUpdate time.Time
}

// AdvanceOrderNotificationsToWait flips an order's prepare notifications to
// wait in one statement when the whole order is marked ready.
func (q *Queries) AdvanceOrderNotificationsToWait(ctx context.Context, arg AdvanceOrderNotificationsParams) error {
	_, err := q.db.Exec(ctx, `
		UPDATE notifications
		SET status = 'wait', last_update = $2
		WHERE status = 'prepare'
		  AND order_item_id IN (SELECT id FROM order_items WHERE order_id = $1)`,
		arg.OrderID, arg.LastUpdate,
	)
	return err
}

type SetNotificationStatusParams struct {
	ID         uuid.UUID
	Status     string
	LastUpdate time.Time
}

func (q *Queries) SetNotificationStatus(ctx context.Context, arg SetNotificationStatusParams) (Notification, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE notifications
		SET status = $2, last_update = $3
		WHERE id = $1
		RETURNING `+notificationColumns,
		arg.ID, arg.Status, arg.LastUpdate,
	)
	return scanNotification(row)
}
