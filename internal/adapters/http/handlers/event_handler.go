package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"emergency-fund/internal/core/domain"
	"emergency-fund/internal/infrastructure/stream"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// heartbeatInterval keeps idle proxies from closing the stream
const heartbeatInterval = 30 * time.Second

// EventHandler streams lifecycle events over SSE
type EventHandler struct {
	hub *stream.Hub
}

// NewEventHandler creates a new event handler
func NewEventHandler(hub *stream.Hub) *EventHandler {
	return &EventHandler{hub: hub}
}

// Stream subscribes to lifecycle events
// @Summary Lifecycle event stream
// @Description Server-sent events for demand and contract transitions (Officer/Admin)
// @Tags Events
// @Produce text/event-stream
// @Security BearerAuth
// @Param demand_id query string false "Only events of this demand"
// @Success 200 {string} string "event stream"
// @Router /events/stream [get]
func (h *EventHandler) Stream(c *fiber.Ctx) error {
	client := &stream.Client{
		ID:       uuid.NewString(),
		UserID:   actorID(c),
		DemandID: c.Query("demand_id"),
		Channel:  make(chan domain.Event, 50),
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("Transfer-Encoding", "chunked")

	h.hub.Register(client)

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer h.hub.Unregister(client.ID)

		fmt.Fprintf(w, "event: connected\ndata: {\"client_id\":%q}\n\n", client.ID)
		if err := w.Flush(); err != nil {
			return
		}

		heartbeat := time.NewTicker(heartbeatInterval)
		defer heartbeat.Stop()

		for {
			select {
			case event, ok := <-client.Channel:
				if !ok {
					return
				}
				if err := writeEvent(w, event); err != nil {
					zap.L().Debug("stream client disconnected", zap.String("client_id", client.ID))
					return
				}
			case <-heartbeat.C:
				fmt.Fprint(w, ": heartbeat\n\n")
				if err := w.Flush(); err != nil {
					zap.L().Debug("stream client disconnected", zap.String("client_id", client.ID))
					return
				}
			}
		}
	})

	return nil
}

// writeEvent writes one SSE frame and flushes it
func writeEvent(w *bufio.Writer, event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, payload)
	return w.Flush()
}
