// Package syncclient implements the reusable ledger sync client shared
// by the kiosk, the public display and the home notifier: an immediate
// fetch on start, a refetch on every change signal, and a periodic
// fallback poll that covers missed signals.
package syncclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/branchops/branch-queue/internal/api/dto"
	"github.com/branchops/branch-queue/internal/domain"
	"github.com/branchops/branch-queue/internal/notify"
	"github.com/branchops/branch-queue/internal/observability"
)

// reconnectDelay paces websocket redial attempts. A dead signal
// connection is not an error; the poll keeps the viewer converging.
const reconnectDelay = 3 * time.Second

// Config locates the ledger server and tunes the sync loop.
type Config struct {
	BaseURL      string
	WSURL        string
	PollInterval time.Duration
	FetchTimeout time.Duration
}

// Client keeps a local view of the remote ledger. All update callbacks
// run on the single sync goroutine, never concurrently with each
// other.
type Client struct {
	cfg     Config
	logger  *zap.Logger
	metrics *observability.Metrics
	http    *http.Client
	bus     *Bus

	mu       sync.RWMutex
	snapshot Snapshot
	onUpdate []func(Snapshot)

	trigger chan struct{}
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Option configures a Client.
type Option func(*Client)

// WithBus attaches a same-device refresh bus.
func WithBus(bus *Bus) Option {
	return func(c *Client) { c.bus = bus }
}

// WithMetrics attaches fetch counters.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// New creates a sync client. Start must be called before updates flow.
func New(cfg Config, logger *zap.Logger, opts ...Option) *Client {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 4 * time.Second
	}
	c := &Client{
		cfg:      cfg,
		logger:   logger,
		http:     &http.Client{Timeout: cfg.FetchTimeout},
		snapshot: BuildSnapshot(nil),
		trigger:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnUpdate registers a callback invoked after every successful
// refresh. Register before Start.
func (c *Client) OnUpdate(fn func(Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUpdate = append(c.onUpdate, fn)
}

// Snapshot returns the most recent ledger view.
func (c *Client) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// Start launches the sync loop: one immediate fetch, then refetches on
// change signals, bus pokes and the fallback ticker.
func (c *Client) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)

	var busCh <-chan struct{}
	if c.bus != nil {
		busCh = c.bus.Subscribe()
	}

	if c.cfg.WSURL != "" {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.signalLoop(ctx)
		}()
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.run(ctx, busCh)
	}()
}

// Stop halts the sync loop and waits for it to exit.
func (c *Client) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
}

func (c *Client) run(ctx context.Context, busCh <-chan struct{}) {
	// a single failed poll is never surfaced; the next trigger retries
	_ = c.Refresh(ctx)

	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.trigger:
			_ = c.Refresh(ctx)
		case <-busCh:
			_ = c.Refresh(ctx)
		case <-ticker.C:
			_ = c.Refresh(ctx)
		}
	}
}

// Refresh fetches the full ledger and recomputes the derived view.
// Errors are logged at debug and returned for callers that care;
// triggers ignore them.
func (c *Client) Refresh(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.FetchTimeout)
	defer cancel()

	tickets, err := c.fetch(ctx)
	c.metrics.RecordFetch(err != nil)
	if err != nil {
		c.logger.Debug("ledger fetch failed", zap.Error(err))
		return err
	}

	snap := BuildSnapshot(tickets)
	c.mu.Lock()
	c.snapshot = snap
	callbacks := append([]func(Snapshot){}, c.onUpdate...)
	c.mu.Unlock()

	for _, fn := range callbacks {
		fn(snap)
	}
	return nil
}

func (c *Client) fetch(ctx context.Context) ([]domain.Ticket, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/api/queue", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Cache-Control", "no-store")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ledger fetch: unexpected status %d", resp.StatusCode)
	}
	var body dto.LedgerResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	return body.Tickets, nil
}

// Append posts one ticket to the ledger. Used by the kiosk; the other
// viewers are read-only.
func (c *Client) Append(ctx context.Context, ticket domain.Ticket) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.FetchTimeout)
	defer cancel()

	raw, err := json.Marshal(ticket)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/api/queue", bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusCreated {
		return errors.New("ticket append rejected")
	}
	return nil
}

// signalLoop keeps a websocket open to the change-signal endpoint and
// funnels every UPDATED token into the refresh trigger. Connection
// failure degrades silently to poll-only mode.
func (c *Client) signalLoop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		conn, resp, err := websocket.DefaultDialer.DialContext(ctx, c.cfg.WSURL, nil)
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		if err != nil {
			c.logger.Debug("signal channel unavailable, polling only", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(reconnectDelay):
			}
			continue
		}

		c.readSignals(ctx, conn)
		conn.Close()
	}
}

func (c *Client) readSignals(ctx context.Context, conn *websocket.Conn) {
	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		// tolerate any other message by ignoring it
		if !strings.Contains(string(msg), notify.SignalToken) {
			continue
		}
		select {
		case c.trigger <- struct{}{}:
		default:
		}
	}
}
