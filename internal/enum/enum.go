// Package enum holds the string constants mirrored by the database CHECK
// constraints. Keep both sides in sync when adding values.
package enum

const (
	BillStatusOpen   = "open"
	BillStatusClosed = "closed"
)

const (
	OrderStatusOrdering  = "ordering"
	OrderStatusPreparing = "preparing"
	OrderStatusReady     = "ready"
	OrderStatusPaid      = "paid"
	OrderStatusCanceled  = "canceled"
)

const (
	OrderItemStatusWaiting   = "waiting"
	OrderItemStatusPreparing = "preparing"
	OrderItemStatusReady     = "ready"
	OrderItemStatusCanceled  = "canceled"
)

const (
	NotificationStatusPrepare = "prepare" // station is still preparing the item
	NotificationStatusWait    = "wait"    // ready, waiting to be carried out
	NotificationStatusServe   = "serve"   // delivered to the table
)

const (
	LocationKitchen = "kitchen"
	LocationBar     = "bar"
)

const (
	PaymentMethodCard = "card"
	PaymentMethodCash = "cash"
)

// Worker positions are labels, not DB constrained.
const (
	PositionWaiter    = "waiter"
	PositionChef      = "chef"
	PositionAssistant = "assistant"
	PositionBarista   = "barista"
)

// Broadcast group names, one ordered stream each.
const (
	GroupKitchenOrders = "kitchen_orders"
	GroupBarOrders     = "bar_orders"
	GroupNotifications = "notifications"
)

// GroupForLocation maps an order's destination category to its broadcast group.
func GroupForLocation(location string) string {
	if location == LocationBar {
		return GroupBarOrders
	}
	return GroupKitchenOrders
}
