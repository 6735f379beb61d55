// Package feed streams activity events to dashboard clients over WebSocket.
package feed

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/scamtrap/scamtrap/internal/domain"
)

const writeTimeout = 5 * time.Second

// Hub fans activity events out to connected WebSocket clients. It implements
// store.ActivitySink. The hub never calls back into the stores; Publish only
// touches its own connection set.
type Hub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[*websocket.Conn]struct{})}
}

// Publish sends the event to every connected client. Connections that fail to
// accept the write are dropped.
func (h *Hub) Publish(event domain.ActivityEvent) {
	payload, err := json.Marshal(event.View(time.Now()))
	if err != nil {
		slog.Error("Failed to encode activity event", "error", err)
		return
	}

	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for conn := range h.conns {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := conn.Write(ctx, websocket.MessageText, payload)
		cancel()
		if err != nil {
			slog.Debug("Dropping stale feed subscriber", "error", err)
			h.remove(conn)
			_ = conn.Close(websocket.StatusNormalClosure, "write failed")
		}
	}
}

// SubscriberCount returns the number of connected clients.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

func (h *Hub) add(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn] = struct{}{}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, conn)
}

// ServeHTTP upgrades the request and keeps the connection registered until the
// client disconnects. Clients are write-only from the server's perspective;
// inbound messages are drained and discarded.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // dashboards are served cross-origin in development
	})
	if err != nil {
		slog.Warn("Feed WebSocket accept failed", "error", err, "ip", r.RemoteAddr)
		return
	}

	h.add(conn)
	slog.Info("Feed subscriber connected", "ip", r.RemoteAddr)

	defer func() {
		h.remove(conn)
		_ = conn.Close(websocket.StatusNormalClosure, "bye")
		slog.Info("Feed subscriber disconnected", "ip", r.RemoteAddr)
	}()

	// Drain until the client goes away.
	for {
		if _, _, err := conn.Read(r.Context()); err != nil {
			return
		}
	}
}
