package notify

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/branchops/branch-queue/internal/persistence"
)

// Relay bridges the change signal across server instances through a
// Redis pub/sub channel. Best-effort like everything else on this
// path: Redis being down degrades to local-only fan-out.
type Relay struct {
	redis   *persistence.Redis
	channel string
	hub     *Hub
	logger  *zap.Logger
	cancel  context.CancelFunc
}

// NewRelay creates a relay over an established Redis connection.
func NewRelay(redis *persistence.Redis, channel string, hub *Hub, logger *zap.Logger) *Relay {
	return &Relay{redis: redis, channel: channel, hub: hub, logger: logger}
}

// Publish sends the change signal to the relay channel.
func (r *Relay) Publish(ctx context.Context) error {
	if err := r.redis.Publish(ctx, r.channel, SignalToken); err != nil {
		r.logger.Warn("signal relay publish failed", zap.Error(err))
		return err
	}
	return nil
}

// Start subscribes to the relay channel and rebroadcasts every signal
// to the local hub.
func (r *Relay) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	sub := r.redis.Subscribe(ctx, r.channel)

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				// tolerate any unexpected payload by ignoring it
				if !strings.Contains(msg.Payload, SignalToken) {
					continue
				}
				r.hub.Broadcast()
			}
		}
	}()
}

// Stop ends the relay subscription.
func (r *Relay) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
}
