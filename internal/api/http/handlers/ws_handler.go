package handlers

import (
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/branchops/branch-queue/internal/notify"
)

// WSHandler serves the change-signal channel. Each connection is
// registered with the hub and receives only the literal signal token;
// inbound frames are drained and discarded.
type WSHandler struct {
	hub    *notify.Hub
	logger *zap.Logger
}

// NewWSHandler constructs handler.
func NewWSHandler(hub *notify.Hub, logger *zap.Logger) *WSHandler {
	return &WSHandler{hub: hub, logger: logger}
}

// Serve runs one viewer connection until either side drops it.
func (h *WSHandler) Serve(conn *websocket.Conn) {
	client := &notify.Client{
		ID:   uuid.NewString(),
		Send: make(chan []byte, 8),
	}
	h.hub.Register(client)
	defer h.hub.Unregister(client)
	h.logger.Debug("viewer connected", zap.String("client_id", client.ID))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case msg, ok := <-client.Send:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.logger.Debug("viewer write failed", zap.String("client_id", client.ID), zap.Error(err))
				return
			}
		case <-done:
			return
		}
	}
}
