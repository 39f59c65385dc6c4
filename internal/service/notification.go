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
)

var ErrNotificationNotFound = errors.New("notification not found")

// NotificationStore defines the DB methods needed by the notification
// service. Satisfied by *database.Queries.
type NotificationStore interface {
	GetNotification(ctx context.Context, id uuid.UUID) (database.Notification, error)
	SetNotificationStatus(ctx context.Context, arg database.SetNotificationStatusParams) (database.Notification, error)
	ListWaitingNotifications(ctx context.Context) ([]database.NotificationRow, error)
}

// NotificationService handles the waiter-facing side of the dispatch flow:
// acknowledging deliveries and rebuilding the feed for late joiners.
type NotificationService struct {
	store NotificationStore
}

func NewNotificationService(store NotificationStore) *NotificationService {
	return &NotificationService{store: store}
}

// MarkSeen flips a notification to serve once the waiter delivered the item.
// Acknowledging an already-served notification is a no-op, not an error, and
// produces no broadcast.
func (s *NotificationService) MarkSeen(ctx context.Context, id uuid.UUID) ([]PendingEvent, error) {
	notification, err := s.store.GetNotification(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("get notification: %w", err)
	}
	if notification.Status == enum.NotificationStatusServe {
		return nil, nil
	}

	if _, err := s.store.SetNotificationStatus(ctx, database.SetNotificationStatusParams{
		ID:         notification.ID,
		Status:     enum.NotificationStatusServe,
		LastUpdate: time.Now().UTC(),
	}); err != nil {
		return nil, fmt.Errorf("set notification status: %w", err)
	}

	return []PendingEvent{{
		Group: enum.GroupNotifications,
		Event: ws.NotificationSeenEvent{
			Type:           ws.EventNotificationSeen,
			NotificationID: notification.ID,
		},
	}}, nil
}

// Snapshot builds the backlog event pushed to a waiter client on connect:
// every item still waiting to be carried out, oldest first.
func (s *NotificationService) Snapshot(ctx context.Context) (ws.InitialNotificationsEvent, error) {
	rows, err := s.store.ListWaitingNotifications(ctx)
	if err != nil {
		return ws.InitialNotificationsEvent{}, fmt.Errorf("list waiting notifications: %w", err)
	}

	event := ws.InitialNotificationsEvent{
		Type:          ws.EventInitialNotifications,
		Notifications: []ws.NotificationPayload{},
	}
	for _, row := range rows {
		event.Notifications = append(event.Notifications, notificationPayload(row, row.Status, row.LastUpdate))
	}
	return event, nil
}
