package syncclient

import (
	"time"

	"github.com/branchops/branch-queue/internal/domain"
)

// Snapshot is one viewer's transient copy of the ledger plus the two
// derived per-service projections. Snapshots are disposable: never
// authoritative, replaced wholesale on every fetch.
type Snapshot struct {
	Tickets   []domain.Ticket
	FetchedAt time.Time

	issuedByService map[string]string
	calledByService map[string]string
}

// BuildSnapshot derives the projections from a ledger fetch. Tickets
// are walked in ledger order, so the last write for a service wins.
func BuildSnapshot(tickets []domain.Ticket) Snapshot {
	s := Snapshot{
		Tickets:         tickets,
		FetchedAt:       time.Now(),
		issuedByService: make(map[string]string),
		calledByService: make(map[string]string),
	}
	for _, t := range tickets {
		s.issuedByService[t.Service] = t.Number
		if t.Status == domain.TicketStatusCalled {
			s.calledByService[t.Service] = t.Number
		}
	}
	return s
}

// LatestIssued returns the number of the most recent ticket appended
// for a service, regardless of status.
func (s Snapshot) LatestIssued(service string) (string, bool) {
	n, ok := s.issuedByService[service]
	return n, ok
}

// LatestCalled returns the number of the most recent ticket appended
// for a service with status called.
func (s Snapshot) LatestCalled(service string) (string, bool) {
	n, ok := s.calledByService[service]
	return n, ok
}
