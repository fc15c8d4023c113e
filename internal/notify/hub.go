// Package notify implements the change-signal side channel: a file
// watcher that detects ledger mutation and a hub that fans a single
// fixed token out to every connected viewer. The signal carries no
// payload and no delivery guarantee; viewers that miss it converge via
// their fallback poll.
package notify

import (
	"sync"

	"go.uber.org/zap"

	"github.com/branchops/branch-queue/internal/observability"
)

// SignalToken is the only payload ever sent on the signal channel.
const SignalToken = "UPDATED"

// Client is one connected viewer. Send is buffered; a full buffer
// means the viewer is too slow and the signal is dropped for it.
type Client struct {
	ID   string
	Send chan []byte
}

// Hub tracks connected viewers and broadcasts change signals.
type Hub struct {
	logger  *zap.Logger
	metrics *observability.Metrics

	mu      sync.RWMutex
	clients map[string]*Client
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger, metrics *observability.Metrics) *Hub {
	return &Hub{
		logger:  logger,
		metrics: metrics,
		clients: make(map[string]*Client),
	}
}

// Register adds a viewer connection.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
}

// Unregister removes a viewer connection and closes its send channel.
// Safe to call more than once for the same client.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client.ID]; ok {
		delete(h.clients, client.ID)
		close(client.Send)
	}
}

// Broadcast pushes the change signal to every connected viewer.
// Non-blocking: a viewer whose buffer is full simply misses this
// signal.
func (h *Hub) Broadcast() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	h.metrics.RecordBroadcast()
	for _, client := range h.clients {
		select {
		case client.Send <- []byte(SignalToken):
		default:
			h.logger.Debug("dropping signal for slow client", zap.String("client_id", client.ID))
		}
	}
}

// ClientCount reports the number of connected viewers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
