package api

import (
	"sync"

	"github.com/mitin111/stock-dashboard-sub000/pkg/logger"

	"github.com/gorilla/websocket"
)

// Hub fans normalised ticks out to dashboard websocket clients. A client
// that cannot keep up loses frames, never the hub.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]chan []byte
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]chan []byte)}
}

func (h *Hub) Add(conn *websocket.Conn) {
	send := make(chan []byte, 64)
	h.mu.Lock()
	h.clients[conn] = send
	h.mu.Unlock()

	go func() {
		for msg := range send {
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.Remove(conn)
				return
			}
		}
	}()
}

func (h *Hub) Remove(conn *websocket.Conn) {
	h.mu.Lock()
	send, ok := h.clients[conn]
	if ok {
		delete(h.clients, conn)
	}
	h.mu.Unlock()
	if ok {
		close(send)
		_ = conn.Close()
	}
}

func (h *Hub) Broadcast(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, send := range h.clients {
		select {
		case send <- msg:
		default:
			logger.Debug("ws client %s lagging, frame dropped", conn.RemoteAddr())
		}
	}
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
