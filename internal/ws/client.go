package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins (we validate via JWT)
	},
}

// MessageHandler receives inbound frames from one client. Implementations
// must contain their own errors; a bad frame never tears down the group.
type MessageHandler interface {
	HandleMessage(ctx context.Context, c *Client, msg ClientMessage)
}

// SnapshotFunc builds the backlog event pushed to a client right after it
// joins, before any incremental events.
type SnapshotFunc func(ctx context.Context) (any, error)

// Client represents a single WebSocket connection joined to one group.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	group   string
	handler MessageHandler
	send    chan []byte
}

// Send marshals one event and queues it for this client only. A client
// whose buffer is full misses the message rather than blocking the caller.
func (c *Client) Send(event any) {
	message, err := json.Marshal(event)
	if err != nil {
		log.Printf("ERROR: marshal client event: %v", err)
		return
	}
	select {
	case c.send <- message:
	default:
	}
}

// ReadPump pumps messages from the WebSocket connection to the handler.
// The application runs ReadPump in a per-connection goroutine.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket error: %v", err)
			}
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("ERROR: bad client frame: %v", err)
			continue
		}
		if msg.Type == MsgPing {
			c.Send(PongEvent{Type: EventPong})
			continue
		}
		if c.handler != nil {
			c.handler.HandleMessage(context.Background(), c, msg)
		}
	}
}

// WritePump pumps messages from the hub to the WebSocket connection.
// The application runs WritePump in a per-connection goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current websocket message
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Serve upgrades the request, registers the client with its group, pushes
// the backlog snapshot, and starts the pumps. Authentication happens before
// this call.
func Serve(hub *Hub, group string, handler MessageHandler, snapshot SnapshotFunc, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}

	client := &Client{
		hub:     hub,
		conn:    conn,
		group:   group,
		handler: handler,
		send:    make(chan []byte, 256),
	}
	client.hub.register <- client

	// Push the backlog before incremental events start flowing.
	if snapshot != nil {
		event, err := snapshot(r.Context())
		if err != nil {
			log.Printf("ERROR: build %s snapshot: %v", group, err)
		} else {
			client.Send(event)
		}
	}

	go client.WritePump()
	go client.ReadPump()
}
