package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/branchops/branch-queue/internal/domain"
	"github.com/branchops/branch-queue/internal/events"
	"github.com/branchops/branch-queue/internal/ledger"
	"github.com/branchops/branch-queue/internal/numbering"
	apperrors "github.com/branchops/branch-queue/pkg/util"
)

// QueueService coordinates ledger access: validation, defaulting,
// persistence and event emission.
type QueueService struct {
	store      *ledger.Store
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewQueueService constructs the service.
func NewQueueService(store *ledger.Store, dispatcher events.Dispatcher, logger *zap.Logger) *QueueService {
	return &QueueService{store: store, dispatcher: dispatcher, logger: logger}
}

// ReadLedger returns the full current ledger contents. No pagination,
// no filtering.
func (s *QueueService) ReadLedger(ctx context.Context) ([]domain.Ticket, error) {
	tickets, err := s.store.Read(ctx)
	if err != nil {
		return nil, mapStorageError(err)
	}
	return tickets, nil
}

// AppendTicket records one ticket at the end of the ledger. Blank
// fields are defaulted rather than rejected: prefix from the service
// mapping, status waiting, createdAt now. The number is normalized to
// canonical form; an unparsable number is kept as submitted and logged,
// never refused.
func (s *QueueService) AppendTicket(ctx context.Context, ticket domain.Ticket) error {
	if strings.TrimSpace(ticket.Service) == "" {
		return apperrors.NewValidationError("service required", nil)
	}
	if ticket.Prefix == "" {
		ticket.Prefix = numbering.PrefixForService(ticket.Service)
	}
	if ticket.Status == "" {
		ticket.Status = domain.TicketStatusWaiting
	}
	if ticket.CreatedAt == "" {
		ticket.CreatedAt = domain.NowCreatedAt()
	}
	if ticket.Number != "" {
		normalized, wellFormed := numbering.Normalize(ticket.Number, ticket.Service)
		if !wellFormed {
			s.logger.Warn("malformed ticket number accepted as-is",
				zap.String("number", ticket.Number),
				zap.String("service", ticket.Service))
		}
		ticket.Number = normalized
	}

	appended, err := s.store.Append(ctx, ticket)
	if err != nil {
		return mapStorageError(err)
	}
	s.publish(ctx, events.EventTicketAppended, appended)
	return nil
}

// CallNext marks the earliest waiting ticket for a service as called
// and returns it.
func (s *QueueService) CallNext(ctx context.Context, service string) (domain.Ticket, error) {
	if strings.TrimSpace(service) == "" {
		return domain.Ticket{}, apperrors.NewValidationError("service required", nil)
	}
	called, err := s.store.CallNext(ctx, service)
	if err != nil {
		if errors.Is(err, ledger.ErrNoneWaiting) {
			return domain.Ticket{}, apperrors.NewNoneWaiting(service)
		}
		return domain.Ticket{}, mapStorageError(err)
	}
	s.publish(ctx, events.EventTicketCalled, called)
	return called, nil
}

func (s *QueueService) publish(ctx context.Context, eventType events.EventType, ticket domain.Ticket) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Ticket:    ticket,
		Timestamp: time.Now().UTC(),
	})
}

func mapStorageError(err error) error {
	if errors.Is(err, ledger.ErrStorageUnavailable) {
		return apperrors.NewStorageUnavailable(err)
	}
	return err
}
