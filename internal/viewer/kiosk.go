// Package viewer holds the three consumers of the ledger sync client:
// the ticket kiosk, the public display board and the home-screen
// notifier. Each derives its own view from the shared snapshot; none
// holds authoritative state.
package viewer

import (
	"context"

	"go.uber.org/zap"

	"github.com/branchops/branch-queue/internal/domain"
	"github.com/branchops/branch-queue/internal/numbering"
	"github.com/branchops/branch-queue/internal/syncclient"
)

// ServiceStatus is one row of the kiosk's service picker: the number
// currently active at the counter and the number a customer drawing
// now would likely get.
type ServiceStatus struct {
	Service   string
	Active    string
	Estimated string
}

// Kiosk lets a customer draw a ticket for a service at a branch.
type Kiosk struct {
	client *syncclient.Client
	bus    *syncclient.Bus
	branch string
	logger *zap.Logger
}

// NewKiosk creates a kiosk bound to one branch. bus may be nil.
func NewKiosk(client *syncclient.Client, bus *syncclient.Bus, branch string, logger *zap.Logger) *Kiosk {
	return &Kiosk{client: client, bus: bus, branch: branch, logger: logger}
}

// Board derives the per-service status rows from the current snapshot.
// The active column is the latest issued number regardless of status,
// defaulting to <prefix>001 when the queue is untouched.
func (k *Kiosk) Board() []ServiceStatus {
	snap := k.client.Snapshot()
	rows := make([]ServiceStatus, 0, len(domain.KnownServices))
	for _, svc := range domain.KnownServices {
		rows = append(rows, ServiceStatus{
			Service:   svc,
			Active:    activeNumber(snap, svc),
			Estimated: estimatedNumber(snap, svc),
		})
	}
	return rows
}

// Draw computes the next number for the service from the kiosk's
// snapshot, appends the ticket, and pokes the local bus so co-located
// viewers refetch at once. The server revalidates the number under its
// own lock, so a stale snapshot can cost the customer a reassigned
// number but never a duplicate.
func (k *Kiosk) Draw(ctx context.Context, service string) (domain.Ticket, error) {
	snap := k.client.Snapshot()
	prefix := numbering.PrefixForService(service)
	number := numbering.NextNumber(prefix, snap.Tickets)
	ticket := domain.NewTicket(number, prefix, service, k.branch)

	if err := k.client.Append(ctx, ticket); err != nil {
		return domain.Ticket{}, err
	}
	k.logger.Info("ticket drawn",
		zap.String("number", ticket.Number),
		zap.String("service", service),
		zap.String("branch", k.branch))

	if k.bus != nil {
		k.bus.Poke()
	}
	// best-effort; the change signal refreshes us anyway
	_ = k.client.Refresh(ctx)
	return ticket, nil
}

// activeNumber normalizes the latest issued number for a service,
// defaulting to <prefix>001.
func activeNumber(snap syncclient.Snapshot, service string) string {
	latest, ok := snap.LatestIssued(service)
	if !ok {
		return numbering.PrefixForService(service) + "001"
	}
	normalized, _ := numbering.Normalize(latest, service)
	return normalized
}

func estimatedNumber(snap syncclient.Snapshot, service string) string {
	latest, _ := snap.LatestIssued(service)
	return numbering.EstimateNext(service, latest)
}
