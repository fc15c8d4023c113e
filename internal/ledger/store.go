// Package ledger owns the single shared ticket document. Every
// mutation funnels through one mutex-guarded read-modify-write, and
// persistence is write-then-rename so concurrent readers (including
// the file watcher and other processes) never observe a half-written
// document.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/branchops/branch-queue/internal/domain"
	"github.com/branchops/branch-queue/internal/numbering"
)

// ErrStorageUnavailable marks the backing document as unreadable or
// unwritable. It is the only error class the access API surfaces.
var ErrStorageUnavailable = errors.New("ledger storage unavailable")

// ErrNoneWaiting is returned by CallNext when no waiting ticket exists
// for the requested service.
var ErrNoneWaiting = errors.New("no waiting ticket for service")

// Store reads and appends the ledger document at a fixed path.
type Store struct {
	path   string
	logger *zap.Logger

	mu sync.Mutex
}

// NewStore creates a store over the document at path.
func NewStore(path string, logger *zap.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// Path returns the location of the backing document.
func (s *Store) Path() string {
	return s.path
}

// Seed creates an empty ledger document when none exists yet. Called
// once at startup, before any client connects.
func (s *Store) Seed(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := os.Stat(s.path); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	s.logger.Info("seeding empty ledger", zap.String("path", s.path))
	return s.persist(domain.Ledger{Tickets: []domain.Ticket{}})
}

// Read returns the full current ledger contents. The returned slice is
// a fresh copy decoded from disk; callers may hold it freely.
func (s *Store) Read(ctx context.Context) ([]domain.Ticket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	led, err := s.load()
	if err != nil {
		return nil, err
	}
	return led.Tickets, nil
}

// Append records exactly one ticket at the end of the ledger and
// persists it durably before returning. The whole read-modify-write
// runs under the store lock: when the submitted number is blank or
// collides with a number already in its prefix group, the store
// reassigns the next free number, so two racing appends can never
// share a number. The assigned ticket is returned for event emission;
// the HTTP API deliberately echoes nothing.
func (s *Store) Append(ctx context.Context, ticket domain.Ticket) (domain.Ticket, error) {
	if err := ctx.Err(); err != nil {
		return domain.Ticket{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	led, err := s.load()
	if err != nil {
		return domain.Ticket{}, err
	}
	if ticket.Number == "" || numberTaken(led.Tickets, ticket.Prefix, ticket.Number) {
		assigned := numbering.NextNumber(ticket.Prefix, led.Tickets)
		if ticket.Number != "" {
			s.logger.Warn("duplicate ticket number reassigned",
				zap.String("submitted", ticket.Number),
				zap.String("assigned", assigned))
		}
		ticket.Number = assigned
	}
	led.Tickets = append(led.Tickets, ticket)
	if err := s.persist(led); err != nil {
		return domain.Ticket{}, err
	}
	return ticket, nil
}

// CallNext marks the earliest waiting ticket for service as called and
// persists the change. Only the status field moves.
func (s *Store) CallNext(ctx context.Context, service string) (domain.Ticket, error) {
	if err := ctx.Err(); err != nil {
		return domain.Ticket{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	led, err := s.load()
	if err != nil {
		return domain.Ticket{}, err
	}
	for i := range led.Tickets {
		t := &led.Tickets[i]
		if t.Service != service || t.Status != domain.TicketStatusWaiting {
			continue
		}
		t.Status = domain.TicketStatusCalled
		if err := s.persist(led); err != nil {
			return domain.Ticket{}, err
		}
		return *t, nil
	}
	return domain.Ticket{}, ErrNoneWaiting
}

func (s *Store) load() (domain.Ledger, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return domain.Ledger{}, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	var led domain.Ledger
	if err := json.Unmarshal(raw, &led); err != nil {
		return domain.Ledger{}, fmt.Errorf("%w: corrupt document: %v", ErrStorageUnavailable, err)
	}
	return led, nil
}

// persist writes the document to a temp file in the same directory,
// syncs it, then renames over the target. Rename is atomic on POSIX,
// so a reader either sees the previous complete document or the new
// one, never a partial write.
func (s *Store) persist(led domain.Ledger) error {
	raw, err := json.MarshalIndent(led, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".queue-*.json")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

func numberTaken(tickets []domain.Ticket, prefix, number string) bool {
	for _, t := range tickets {
		if t.Prefix == prefix && t.Number == number {
			return true
		}
	}
	return false
}
