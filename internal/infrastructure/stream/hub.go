package stream

import (
	"context"
	"sync"

	"emergency-fund/internal/core/domain"

	"go.uber.org/zap"
)

// Client is one connected event-stream subscriber. An empty DemandID
// receives every event.
type Client struct {
	ID       string
	UserID   uint
	DemandID string
	Channel  chan domain.Event
}

// wants reports whether the client subscribed to the event
func (c *Client) wants(event domain.Event) bool {
	return c.DemandID == "" || c.DemandID == event.DemandID
}

// Hub fans lifecycle events out to connected SSE clients
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewHub creates a new hub
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
	}
}

// Register adds a client
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	zap.L().Debug("stream client registered",
		zap.String("client_id", client.ID),
		zap.Uint("user_id", client.UserID),
		zap.String("demand_id", client.DemandID),
		zap.Int("total", len(h.clients)))
}

// Unregister removes a client and closes its channel
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		close(client.Channel)
		delete(h.clients, clientID)
		zap.L().Debug("stream client unregistered", zap.String("client_id", clientID), zap.Int("total", len(h.clients)))
	}
}

// Publish delivers the event to every interested client. Slow clients with a
// full channel miss the event; it is never blocking.
func (h *Hub) Publish(_ context.Context, event domain.Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		if !client.wants(event) {
			continue
		}
		select {
		case client.Channel <- event:
		default:
			zap.L().Warn("stream channel full, event dropped",
				zap.String("client_id", client.ID), zap.String("type", string(event.Type)))
		}
	}
	return nil
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close is a no-op; clients are released when their stream ends
func (h *Hub) Close() error {
	return nil
}
