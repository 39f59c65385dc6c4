package ws

import (
	"encoding/json"
	"testing"
	"time"
)

// mockClient creates a client for testing without a real WebSocket connection
func mockClient(hub *Hub, group string) *Client {
	return &Client{
		hub:   hub,
		group: group,
		send:  make(chan []byte, 256),
	}
}

func TestHubRegistration(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := mockClient(hub, "kitchen_orders")
	hub.register <- client

	// Give hub time to process
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	if hub.rooms["kitchen_orders"] == nil {
		t.Fatal("group room not created")
	}
	if !hub.rooms["kitchen_orders"][client] {
		t.Fatal("client not registered in group room")
	}
}

func TestHubUnregistration(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := mockClient(hub, "bar_orders")
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	hub.unregister <- client
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	// Room should be cleaned up when empty
	if hub.rooms["bar_orders"] != nil {
		t.Fatal("group room not cleaned up after last client unregistered")
	}
}

func TestBroadcastGroupIsolation(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	kitchen := mockClient(hub, "kitchen_orders")
	bar := mockClient(hub, "bar_orders")

	hub.register <- kitchen
	hub.register <- bar
	time.Sleep(10 * time.Millisecond)

	hub.Broadcast("kitchen_orders", OrderStatusUpdateEvent{
		Type:      EventOrderStatusUpdate,
		NewStatus: "preparing",
	})

	select {
	case msg := <-kitchen.send:
		var received OrderStatusUpdateEvent
		if err := json.Unmarshal(msg, &received); err != nil {
			t.Fatalf("failed to unmarshal message: %v", err)
		}
		if received.Type != EventOrderStatusUpdate {
			t.Errorf("expected type %q, got %q", EventOrderStatusUpdate, received.Type)
		}
		if received.NewStatus != "preparing" {
			t.Errorf("expected new_status 'preparing', got %q", received.NewStatus)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("kitchen client did not receive message")
	}

	select {
	case <-bar.send:
		t.Fatal("bar client should not have received a kitchen event")
	case <-time.After(50 * time.Millisecond):
		// Expected - no message received
	}
}

func TestBroadcastToMultipleClientsInSameGroup(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client1 := mockClient(hub, "notifications")
	client2 := mockClient(hub, "notifications")
	client3 := mockClient(hub, "notifications")

	hub.register <- client1
	hub.register <- client2
	hub.register <- client3
	time.Sleep(10 * time.Millisecond)

	hub.Broadcast("notifications", NotificationSeenEvent{Type: EventNotificationSeen})

	clients := []*Client{client1, client2, client3}
	for i, client := range clients {
		select {
		case msg := <-client.send:
			var received NotificationSeenEvent
			if err := json.Unmarshal(msg, &received); err != nil {
				t.Fatalf("client%d: failed to unmarshal: %v", i+1, err)
			}
			if received.Type != EventNotificationSeen {
				t.Errorf("client%d: expected type %q, got %q", i+1, EventNotificationSeen, received.Type)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("client%d did not receive message", i+1)
		}
	}
}

func TestBroadcastOrderPreserved(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := mockClient(hub, "kitchen_orders")
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	statuses := []string{"ordering", "preparing", "ready", "paid"}
	for _, s := range statuses {
		hub.Broadcast("kitchen_orders", OrderStatusUpdateEvent{Type: EventOrderStatusUpdate, NewStatus: s})
	}

	for _, want := range statuses {
		select {
		case msg := <-client.send:
			var received OrderStatusUpdateEvent
			if err := json.Unmarshal(msg, &received); err != nil {
				t.Fatalf("unmarshal error: %v", err)
			}
			if received.NewStatus != want {
				t.Errorf("out of order: got %q, want %q", received.NewStatus, want)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("missing event for status %q", want)
		}
	}
}

func TestHubCleanupEmptyRoom(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client1 := mockClient(hub, "kitchen_orders")
	client2 := mockClient(hub, "kitchen_orders")

	hub.register <- client1
	hub.register <- client2
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	if len(hub.rooms["kitchen_orders"]) != 2 {
		t.Fatalf("expected 2 clients, got %d", len(hub.rooms["kitchen_orders"]))
	}
	hub.mu.RUnlock()

	hub.unregister <- client1
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	if len(hub.rooms["kitchen_orders"]) != 1 {
		t.Fatalf("expected 1 client after first unregister, got %d", len(hub.rooms["kitchen_orders"]))
	}
	hub.mu.RUnlock()

	hub.unregister <- client2
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	if hub.rooms["kitchen_orders"] != nil {
		t.Fatal("room should be deleted when last client unregisters")
	}
	hub.mu.RUnlock()
}

func TestBroadcastToEmptyGroup(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := mockClient(hub, "kitchen_orders")
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	hub.Broadcast("bar_orders", OrderStatusUpdateEvent{Type: EventOrderStatusUpdate, NewStatus: "ready"})

	select {
	case <-client.send:
		t.Fatal("client should not receive message for a different group")
	case <-time.After(50 * time.Millisecond):
		// Expected - no message
	}
}

func TestDoubleUnregisterIsNoop(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := mockClient(hub, "notifications")
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	hub.unregister <- client
	hub.unregister <- client
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()
	if hub.rooms["notifications"] != nil {
		t.Fatal("room should stay deleted after repeated unregister")
	}
}
