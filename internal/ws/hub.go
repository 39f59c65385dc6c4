// Package ws fans real-time events out to connected station and waiter
// terminals. Clients join one of three named groups and receive every
// message published to that group, in publish order.
package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// groupEvent routes a marshaled message to one group's subscribers.
type groupEvent struct {
	Group   string
	Message []byte
}

// Hub maintains the set of active clients per group and broadcasts
// messages to them.
type Hub struct {
	// Registered clients by group name
	rooms map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client

	broadcast chan *groupEvent

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *groupEvent, 256),
	}
}

// Run starts the hub's main loop.
// This should be called as a goroutine: go hub.Run()
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.group] == nil {
				h.rooms[client.group] = make(map[*Client]bool)
			}
			h.rooms[client.group][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.rooms[client.group]; ok {
				if _, exists := clients[client]; exists {
					delete(clients, client)
					close(client.send)
					// Clean up empty rooms
					if len(clients) == 0 {
						delete(h.rooms, client.group)
					}
				}
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			h.mu.Lock()
			for client := range h.rooms[event.Group] {
				select {
				case client.send <- event.Message:
				default:
					// Client's send buffer is full, close and unregister
					close(client.send)
					delete(h.rooms[event.Group], client)
					if len(h.rooms[event.Group]) == 0 {
						delete(h.rooms, event.Group)
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast marshals the event once and sends it to every client currently
// joined to the group. Unknown or empty groups are a no-op.
func (h *Hub) Broadcast(group string, event any) {
	message, err := json.Marshal(event)
	if err != nil {
		log.Printf("ERROR: marshal broadcast event: %v", err)
		return
	}
	h.broadcast <- &groupEvent{Group: group, Message: message}
}
