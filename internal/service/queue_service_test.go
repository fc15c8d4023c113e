package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/branchops/branch-queue/internal/domain"
	"github.com/branchops/branch-queue/internal/events"
	"github.com/branchops/branch-queue/internal/ledger"
	"github.com/branchops/branch-queue/internal/service"
	apperrors "github.com/branchops/branch-queue/pkg/util"
)

func newService(t *testing.T) (*service.QueueService, *ledger.Store, events.Dispatcher) {
	t.Helper()
	store := ledger.NewStore(filepath.Join(t.TempDir(), "queue.json"), zap.NewNop())
	require.NoError(t, store.Seed(context.Background()))
	dispatcher := events.NewInMemoryDispatcher()
	return service.NewQueueService(store, dispatcher, zap.NewNop()), store, dispatcher
}

func TestAppendTicketRequiresService(t *testing.T) {
	svc, _, _ := newService(t)
	err := svc.AppendTicket(context.Background(), domain.Ticket{Number: "A001"})
	require.Error(t, err)

	var domainErr *apperrors.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)
}

func TestAppendTicketNormalizesAndDefaults(t *testing.T) {
	svc, store, _ := newService(t)
	err := svc.AppendTicket(context.Background(), domain.Ticket{
		Number:  "5",
		Service: domain.ServiceTeller,
		Branch:  "Branch X",
	})
	require.NoError(t, err)

	tickets, err := store.Read(context.Background())
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Equal(t, "A005", tickets[0].Number)
	assert.Equal(t, "A", tickets[0].Prefix)
	assert.Equal(t, domain.TicketStatusWaiting, tickets[0].Status)
	assert.NotEmpty(t, tickets[0].CreatedAt)
}

func TestAppendTicketKeepsMalformedNumber(t *testing.T) {
	svc, store, _ := newService(t)
	err := svc.AppendTicket(context.Background(), domain.Ticket{
		Number:  "??",
		Service: domain.ServiceTeller,
	})
	require.NoError(t, err)

	tickets, err := store.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "??", tickets[0].Number)
}

func TestLedgerEventsArePublished(t *testing.T) {
	svc, _, dispatcher := newService(t)

	var got []events.Event
	handler := func(ctx context.Context, e events.Event) error {
		got = append(got, e)
		return nil
	}
	dispatcher.Subscribe(events.EventTicketAppended, handler)
	dispatcher.Subscribe(events.EventTicketCalled, handler)

	require.NoError(t, svc.AppendTicket(context.Background(), domain.Ticket{Service: domain.ServiceTeller}))
	_, err := svc.CallNext(context.Background(), domain.ServiceTeller)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, events.EventTicketAppended, got[0].Type)
	assert.Equal(t, events.EventTicketCalled, got[1].Type)
	assert.Equal(t, "A001", got[1].Ticket.Number)
	assert.NotEmpty(t, got[0].ID)
}

func TestCallNextEmptyQueueIsNoneWaiting(t *testing.T) {
	svc, _, _ := newService(t)
	_, err := svc.CallNext(context.Background(), domain.ServiceTeller)
	require.Error(t, err)

	var domainErr *apperrors.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "NONE_WAITING", domainErr.Code)
}

func TestReadLedgerStorageFailure(t *testing.T) {
	store := ledger.NewStore(filepath.Join(t.TempDir(), "missing.json"), zap.NewNop())
	svc := service.NewQueueService(store, events.NewInMemoryDispatcher(), zap.NewNop())

	_, err := svc.ReadLedger(context.Background())
	require.Error(t, err)

	var domainErr *apperrors.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "STORAGE_UNAVAILABLE", domainErr.Code)
}
