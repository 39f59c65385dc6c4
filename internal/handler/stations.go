package handler

import (
	"context"
	"log"
	"net/http"

	"github.com/gastroflow/api/internal/auth"
	"github.com/gastroflow/api/internal/database"
	"github.com/gastroflow/api/internal/enum"
	"github.com/gastroflow/api/internal/service"
	"github.com/gastroflow/api/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// StationServicer defines the order service methods driven by station
// WebSocket messages. Satisfied by *service.OrderService.
type StationServicer interface {
	UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus string) (database.Order, []service.PendingEvent, error)
	ItemDone(ctx context.Context, orderID, itemID uuid.UUID) ([]service.PendingEvent, error)
}

// NotificationServicer defines the notification service methods driven by
// waiter WebSocket messages. Satisfied by *service.NotificationService.
type NotificationServicer interface {
	MarkSeen(ctx context.Context, id uuid.UUID) ([]service.PendingEvent, error)
}

// StationHandler runs the kitchen and bar screens: a snapshot on join,
// then order lifecycle messages coming back from the station.
type StationHandler struct {
	hub       *ws.Hub
	svc       StationServicer
	jwtSecret string
	group     string
	snapshot  ws.SnapshotFunc
}

func NewStationHandler(hub *ws.Hub, svc StationServicer, jwtSecret, group string, snapshot ws.SnapshotFunc) *StationHandler {
	return &StationHandler{hub: hub, svc: svc, jwtSecret: jwtSecret, group: group, snapshot: snapshot}
}

// ServeWS upgrades an authenticated station connection. Browsers cannot set
// headers on WebSocket dials, so the token rides in the query string.
func (h *StationHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	if _, err := auth.ValidateToken(h.jwtSecret, r.URL.Query().Get("token")); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
		return
	}
	ws.Serve(h.hub, h.group, h, h.snapshot, w, r)
}

// HandleMessage reacts to a station message. A stale or unknown id is logged
// and dropped; nothing goes out to the group unless the write committed.
func (h *StationHandler) HandleMessage(ctx context.Context, c *ws.Client, msg ws.ClientMessage) {
	switch msg.Type {
	case ws.MsgPreparing, ws.MsgReady, ws.MsgItemDone:
	default:
		log.Printf("station %s: unknown message type %q", h.group, msg.Type)
		return
	}

	orderID, err := uuid.Parse(msg.OrderID)
	if err != nil {
		log.Printf("station %s: bad order id %q", h.group, msg.OrderID)
		return
	}

	var events []service.PendingEvent
	switch msg.Type {
	case ws.MsgPreparing:
		_, events, err = h.svc.UpdateStatus(ctx, orderID, enum.OrderStatusPreparing)
	case ws.MsgReady:
		_, events, err = h.svc.UpdateStatus(ctx, orderID, enum.OrderStatusReady)
	case ws.MsgItemDone:
		var itemID uuid.UUID
		itemID, err = uuid.Parse(msg.ItemID)
		if err != nil {
			log.Printf("station %s: bad item id %q", h.group, msg.ItemID)
			return
		}
		if msg.Username != "" {
			log.Printf("station %s: item %s marked done by %s", h.group, itemID, msg.Username)
		}
		events, err = h.svc.ItemDone(ctx, orderID, itemID)
	}
	if err != nil {
		log.Printf("station %s: %s: %v", h.group, msg.Type, err)
		return
	}
	for _, e := range events {
		h.hub.Broadcast(e.Group, e.Event)
	}
}

// WaiterHandler runs the waiter notification screen.
type WaiterHandler struct {
	hub       *ws.Hub
	svc       NotificationServicer
	jwtSecret string
	snapshot  ws.SnapshotFunc
}

func NewWaiterHandler(hub *ws.Hub, svc NotificationServicer, jwtSecret string, snapshot ws.SnapshotFunc) *WaiterHandler {
	return &WaiterHandler{hub: hub, svc: svc, jwtSecret: jwtSecret, snapshot: snapshot}
}

func (h *WaiterHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	if _, err := auth.ValidateToken(h.jwtSecret, r.URL.Query().Get("token")); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
		return
	}
	ws.Serve(h.hub, enum.GroupNotifications, h, h.snapshot, w, r)
}

func (h *WaiterHandler) HandleMessage(ctx context.Context, c *ws.Client, msg ws.ClientMessage) {
	if msg.Type != ws.MsgNotificationSeen {
		log.Printf("notifications: unknown message type %q", msg.Type)
		return
	}
	id, err := uuid.Parse(msg.NotificationID)
	if err != nil {
		log.Printf("notifications: bad notification id %q", msg.NotificationID)
		return
	}

	events, err := h.svc.MarkSeen(ctx, id)
	if err != nil {
		log.Printf("notifications: mark seen: %v", err)
		return
	}
	for _, e := range events {
		h.hub.Broadcast(e.Group, e.Event)
	}
}

// RegisterWSRoutes mounts the three realtime endpoints.
func RegisterWSRoutes(r chi.Router, kitchen, bar *StationHandler, waiter *WaiterHandler) {
	r.Get("/ws/kitchen", kitchen.ServeWS)
	r.Get("/ws/bar", bar.ServeWS)
	r.Get("/ws/notifications", waiter.ServeWS)
}
