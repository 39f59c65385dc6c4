package ws

import "github.com/google/uuid"

// Client-to-server message types.
const (
	MsgPing             = "ping"
	MsgPreparing        = "preparing"
	MsgReady            = "ready"
	MsgItemDone         = "item_done"
	MsgNotificationSeen = "notification_seen"
)

// Server-to-client event types.
const (
	EventInitialOrders        = "initial_orders"
	EventNewOrder             = "new_order"
	EventOrderStatusUpdate    = "order_status_update"
	EventInitialNotifications = "initial_notifications"
	EventNewNotification      = "new_notification"
	EventNotificationSeen     = "notification_seen"
	EventPong                 = "pong"
)

// ClientMessage is the single inbound frame shape. Fields beyond Type are
// set depending on the message type.
type ClientMessage struct {
	Type           string `json:"type"`
	OrderID        string `json:"order_id,omitempty"`
	ItemID         string `json:"item_id,omitempty"`
	Username       string `json:"username,omitempty"`
	NotificationID string `json:"notification_id,omitempty"`
}

// OrderItemPayload is one line of an order as a station renders it.
type OrderItemPayload struct {
	ID           uuid.UUID `json:"id"`
	NameSnapshot string    `json:"name_snapshot"`
	Quantity     int32     `json:"quantity"`
	Note         string    `json:"note,omitempty"`
	IsDone       bool      `json:"is_done"`
}

// OrderPayload is one order as a station renders it. Table carries the
// joined table labels, Sender the waiter's display name.
type OrderPayload struct {
	ID         uuid.UUID          `json:"id"`
	Sender     string             `json:"sender"`
	Table      string             `json:"table"`
	Status     string             `json:"status"`
	OrderItems []OrderItemPayload `json:"order_items"`
	CreatedAt  string             `json:"created_at"`
}

type InitialOrdersEvent struct {
	Type   string         `json:"type"`
	Orders []OrderPayload `json:"orders"`
}

type NewOrderEvent struct {
	Type  string       `json:"type"`
	Order OrderPayload `json:"order"`
}

type OrderStatusUpdateEvent struct {
	Type      string    `json:"type"`
	OrderID   uuid.UUID `json:"order_id"`
	NewStatus string    `json:"new_status"`
}

// NotificationPayload is one serve notification as a waiter terminal renders
// it. OrderItem is the display name with the item note parenthesized when
// present.
type NotificationPayload struct {
	ID         uuid.UUID `json:"id"`
	Worker     string    `json:"worker"`
	OrderItem  string    `json:"order_item"`
	Table      string    `json:"table"`
	LastUpdate string    `json:"last_update"`
	Status     string    `json:"status"`
}

type InitialNotificationsEvent struct {
	Type          string                `json:"type"`
	Notifications []NotificationPayload `json:"notifications"`
}

type NewNotificationEvent struct {
	Type string `json:"type"`
	NotificationPayload
}

type NotificationSeenEvent struct {
	Type           string    `json:"type"`
	NotificationID uuid.UUID `json:"notification_id"`
}

type PongEvent struct {
	Type string `json:"type"`
}
