package viewer

import (
	"go.uber.org/zap"

	"github.com/branchops/branch-queue/internal/domain"
	"github.com/branchops/branch-queue/internal/syncclient"
)

// CounterStatus is one row of the public display board.
type CounterStatus struct {
	Counter int
	Service string
	Number  string
}

// Display renders the shared call board: one counter per service, each
// showing the latest issued number.
type Display struct {
	client *syncclient.Client
	logger *zap.Logger
}

// NewDisplay creates the public display viewer.
func NewDisplay(client *syncclient.Client, logger *zap.Logger) *Display {
	return &Display{client: client, logger: logger}
}

// Board derives the counter rows from the current snapshot.
func (d *Display) Board() []CounterStatus {
	snap := d.client.Snapshot()
	rows := make([]CounterStatus, 0, len(domain.KnownServices))
	for i, svc := range domain.KnownServices {
		rows = append(rows, CounterStatus{
			Counter: i + 1,
			Service: svc,
			Number:  activeNumber(snap, svc),
		})
	}
	return rows
}
