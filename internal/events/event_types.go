package events

import (
	"time"

	"github.com/branchops/branch-queue/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketAppended EventType = "ticket_appended"
	EventTicketCalled   EventType = "ticket_called"
)

// Event represents a ledger mutation emitted by the queue service.
type Event struct {
	ID        string        `json:"id"`
	Type      EventType     `json:"type"`
	Ticket    domain.Ticket `json:"ticket"`
	Timestamp time.Time     `json:"timestamp"`
}
