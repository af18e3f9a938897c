package notifyhub

import (
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"

	"github.com/moyoez/shareintent-go/tool"
	"github.com/moyoez/shareintent-go/types"
)

// WriteTimeout bounds a single write to one client.
var WriteTimeout = 5 * time.Second

// Hub holds WebSocket connections and broadcasts notifications to all clients.
type Hub struct {
	mu sync.RWMutex
	// gorilla connections allow one concurrent writer, so each has its own lock
	conns map[*websocket.Conn]*sync.Mutex
}

var _ types.NotifyHub = (*Hub)(nil)

// New creates a new notify hub.
func New() *Hub {
	return &Hub{
		conns: make(map[*websocket.Conn]*sync.Mutex),
	}
}

// Register adds a WebSocket connection to the hub.
func (h *Hub) Register(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[conn]; !ok {
		h.conns[conn] = &sync.Mutex{}
	}
}

// Unregister removes a WebSocket connection from the hub.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, conn)
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Send writes one notification to a single registered connection.
func (h *Hub) Send(conn *websocket.Conn, notification *types.Notification) error {
	payload, err := sonic.Marshal(notification)
	if err != nil {
		return err
	}
	h.mu.RLock()
	lock, ok := h.conns[conn]
	h.mu.RUnlock()
	if !ok {
		lock = &sync.Mutex{}
	}
	return write(conn, lock, payload)
}

// Broadcast sends the notification as JSON to all registered connections.
// A client that cannot take the message within WriteTimeout is dropped and
// closed.
func (h *Hub) Broadcast(notification *types.Notification) {
	if notification == nil {
		return
	}
	payload, err := sonic.Marshal(notification)
	if err != nil {
		tool.DefaultLogger.Errorf("[NotifyHub] failed to encode notification: %v", err)
		return
	}

	h.mu.RLock()
	targets := make(map[*websocket.Conn]*sync.Mutex, len(h.conns))
	for c, lock := range h.conns {
		targets[c] = lock
	}
	h.mu.RUnlock()

	for conn, lock := range targets {
		if err := write(conn, lock, payload); err != nil {
			tool.DefaultLogger.Debugf("[NotifyHub] write failed, dropping client: %v", err)
			h.Unregister(conn)
			_ = conn.Close()
		}
	}
}

func write(conn *websocket.Conn, lock *sync.Mutex, payload []byte) error {
	lock.Lock()
	defer lock.Unlock()
	if err := conn.SetWriteDeadline(time.Now().Add(WriteTimeout)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, payload)
}
