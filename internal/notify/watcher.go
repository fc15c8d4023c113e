package notify

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// debounceDelay coalesces the burst of create/rename events a single
// atomic persist produces into one signal.
const debounceDelay = 50 * time.Millisecond

// Watcher observes the ledger document for mutation and triggers a
// broadcast. It watches the parent directory, not the file itself,
// because the store persists via rename and a watch on the old inode
// would go stale after the first write.
type Watcher struct {
	path   string
	hub    *Hub
	relay  *Relay
	logger *zap.Logger

	mu       sync.Mutex
	fsw      *fsnotify.Watcher
	debounce *time.Timer
	cancel   context.CancelFunc
}

// NewWatcher creates a watcher for the document at path. relay may be
// nil; fan-out is then local only.
func NewWatcher(path string, hub *Hub, relay *Relay, logger *zap.Logger) *Watcher {
	return &Watcher{path: filepath.Clean(path), hub: hub, relay: relay, logger: logger}
}

// Start begins watching. The watcher runs until Stop or ctx
// cancellation.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		fsw.Close()
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	w.mu.Lock()
	w.fsw = fsw
	w.cancel = cancel
	w.mu.Unlock()

	w.logger.Info("watching ledger document", zap.String("path", w.path))
	go w.loop(ctx, fsw)
	return nil
}

// Stop halts the watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		w.cancel()
	}
	if w.fsw != nil {
		w.fsw.Close()
		w.fsw = nil
	}
	if w.debounce != nil {
		w.debounce.Stop()
	}
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			w.scheduleNotify(ctx)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) scheduleNotify(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.debounce = time.AfterFunc(debounceDelay, func() {
		w.notify(ctx)
	})
}

// notify hands the signal to the relay when one is configured, so a
// fleet of servers sharing the document converges through a single
// path; the relay's subscription drives the local hub. With no relay,
// or when publishing fails, the hub broadcasts directly.
func (w *Watcher) notify(ctx context.Context) {
	w.logger.Debug("ledger changed, broadcasting")
	if w.relay != nil {
		if err := w.relay.Publish(ctx); err == nil {
			return
		}
	}
	w.hub.Broadcast()
}
