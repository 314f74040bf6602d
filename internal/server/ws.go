package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/handput/internal/app"
	"github.com/ayusman/handput/internal/overlay"
)

const (
	writeWait      = 5 * time.Second
	clientSendSize = 4
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// Message is what the hub sends to WebSocket clients.
type Message struct {
	Type    string         `json:"type"`
	Result  *app.Result    `json:"result,omitempty"`
	Overlay *overlay.Model `json:"overlay,omitempty"`
	Alert   *AlertMessage  `json:"alert,omitempty"`
}

// AlertMessage describes an alert for clients.
type AlertMessage struct {
	Kind    app.AlertKind `json:"kind"`
	Message string        `json:"message"`
	Detail  string        `json:"detail,omitempty"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub broadcasts pipeline results and alerts to WebSocket clients. It is an
// app.Consumer. A client that falls behind misses messages rather than
// slowing the pipeline down.
type Hub struct {
	clients map[*client]bool
	mu      sync.RWMutex
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*client]bool)}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// OnResult implements app.Consumer.
func (h *Hub) OnResult(r app.Result) {
	model := overlay.Build(r.Snapshot, r.Gesture, r.Distance)
	h.broadcast(Message{Type: "result", Result: &r, Overlay: &model})
}

// OnAlert implements app.Consumer.
func (h *Hub) OnAlert(a app.Alert) {
	msg := &AlertMessage{Kind: a.Kind, Message: a.Message()}
	if a.Err != nil {
		msg.Detail = a.Err.Error()
	}
	h.broadcast(Message{Type: "alert", Alert: msg})
}

func (h *Hub) broadcast(m Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.clients) == 0 {
		return
	}

	data, err := json.Marshal(m)
	if err != nil {
		log.Printf("websocket encode error: %v", err)
		return
	}

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
		}
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	c := &client{conn: conn, send: make(chan []byte, clientSendSize)}

	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()

	done := make(chan struct{})
	go c.writePump(done)

	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		close(c.send)
		h.mu.Unlock()
		<-done
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *client) writePump(done chan<- struct{}) {
	defer close(done)
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			// Closing the connection ends the read loop, which closes send.
			c.conn.Close()
			for range c.send {
			}
			return
		}
	}
}
