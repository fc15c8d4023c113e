package viewer

import (
	"encoding/json"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/branchops/branch-queue/internal/domain"
	"github.com/branchops/branch-queue/internal/numbering"
	"github.com/branchops/branch-queue/internal/syncclient"
)

// proximityGap is the exact remaining-ticket count that triggers the
// one-time alert.
const proximityGap = 3

// Alert is the user-facing proximity notification.
type Alert struct {
	Remaining int
	Number    string
	Service   string
	Branch    string
}

// Notifier tracks the holder's own ticket against the called-number
// projection. The remembered ticket survives restarts in a small state
// file.
type Notifier struct {
	client    *syncclient.Client
	statePath string
	logger    *zap.Logger

	mu          sync.Mutex
	ticket      *domain.Ticket
	current     string
	waitMinutes int
	lastGap     int
	onAlert     []func(Alert)
	onServed    []func(domain.Ticket)
}

// NewNotifier creates the home-screen notifier and restores any
// remembered ticket from statePath. It registers itself on the sync
// client; callbacks fire on the client's sync goroutine.
func NewNotifier(client *syncclient.Client, statePath string, logger *zap.Logger) *Notifier {
	n := &Notifier{
		client:    client,
		statePath: statePath,
		logger:    logger,
		lastGap:   -1,
	}
	n.restore()
	client.OnUpdate(n.handleSnapshot)
	return n
}

// OnAlert registers a proximity-alert callback.
func (n *Notifier) OnAlert(fn func(Alert)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.onAlert = append(n.onAlert, fn)
}

// OnServed registers a callback fired when the holder's number has
// been reached and the ticket is cleared.
func (n *Notifier) OnServed(fn func(domain.Ticket)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.onServed = append(n.onServed, fn)
}

// Remember stores the holder's ticket and starts tracking it.
func (n *Notifier) Remember(ticket domain.Ticket) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ticket = &ticket
	n.current = ""
	n.waitMinutes = 0
	n.lastGap = -1
	n.persist(&ticket)
}

// Ticket returns the remembered ticket, if any.
func (n *Notifier) Ticket() (domain.Ticket, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.ticket == nil {
		return domain.Ticket{}, false
	}
	return *n.ticket, true
}

// Status returns the current called number for the holder's service
// and the estimated wait.
func (n *Notifier) Status() (current string, waitMinutes int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current, n.waitMinutes
}

// handleSnapshot recomputes the derived view on every refresh. The
// comparison only ever happens inside the ticket's own prefix group;
// a called number from another queue is meaningless here.
func (n *Notifier) handleSnapshot(snap syncclient.Snapshot) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.ticket == nil {
		return
	}
	latest, ok := snap.LatestCalled(n.ticket.Service)
	if !ok {
		return
	}
	normalized, _ := numbering.Normalize(latest, n.ticket.Service)
	if normalized == "" || normalized[:1] != n.ticket.Number[:1] {
		return
	}

	ownN, ok1 := numbering.Suffix(n.ticket.Number)
	curN, ok2 := numbering.Suffix(normalized)
	if !ok1 || !ok2 {
		return
	}

	if curN >= ownN {
		served := *n.ticket
		n.logger.Info("ticket served, clearing", zap.String("number", served.Number))
		n.ticket = nil
		n.current = ""
		n.waitMinutes = 0
		n.lastGap = -1
		n.persist(nil)
		for _, fn := range n.onServed {
			fn(served)
		}
		return
	}

	n.current = normalized
	n.waitMinutes = numbering.EstimateWaitMinutes(n.ticket.Number, normalized)

	// edge-triggered: fire once when the gap crosses to exactly 3,
	// not on every poll while it stays there
	gap := ownN - curN
	if gap == proximityGap && n.lastGap != proximityGap {
		alert := Alert{
			Remaining: gap,
			Number:    n.ticket.Number,
			Service:   n.ticket.Service,
			Branch:    n.ticket.Branch,
		}
		for _, fn := range n.onAlert {
			fn(alert)
		}
	}
	n.lastGap = gap
}

// restore loads the remembered ticket; a missing or unreadable state
// file just means no ticket.
func (n *Notifier) restore() {
	raw, err := os.ReadFile(n.statePath)
	if err != nil {
		return
	}
	var t domain.Ticket
	if err := json.Unmarshal(raw, &t); err != nil || t.Number == "" {
		return
	}
	n.ticket = &t
}

// persist writes or clears the state file. Failures are logged only;
// losing the reminder is not worth failing the sync path.
func (n *Notifier) persist(t *domain.Ticket) {
	if t == nil {
		if err := os.Remove(n.statePath); err != nil && !os.IsNotExist(err) {
			n.logger.Warn("clearing ticket state failed", zap.Error(err))
		}
		return
	}
	raw, err := json.Marshal(t)
	if err != nil {
		return
	}
	if err := os.WriteFile(n.statePath, raw, 0o644); err != nil {
		n.logger.Warn("saving ticket state failed", zap.Error(err))
	}
}
