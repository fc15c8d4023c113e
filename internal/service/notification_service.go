package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/branchops/branch-queue/internal/events"
)

// NotificationService records ledger mutations for operators. The
// viewer-facing change signal travels the file-watcher path; this
// consumer only observes.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger) *NotificationService {
	return &NotificationService{dispatcher: dispatcher, logger: logger}
}

// RegisterHandlers subscribes to ledger events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketAppended, n.handleTicketAppended)
	n.dispatcher.Subscribe(events.EventTicketCalled, n.handleTicketCalled)
}

func (n *NotificationService) handleTicketAppended(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketAppended",
		zap.String("number", event.Ticket.Number),
		zap.String("service", event.Ticket.Service),
		zap.String("branch", event.Ticket.Branch))
	return nil
}

func (n *NotificationService) handleTicketCalled(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketCalled",
		zap.String("number", event.Ticket.Number),
		zap.String("service", event.Ticket.Service))
	return nil
}
