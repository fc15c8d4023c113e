package ledger_test

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/branchops/branch-queue/internal/domain"
	"github.com/branchops/branch-queue/internal/ledger"
)

func newStore(t *testing.T) *ledger.Store {
	t.Helper()
	store := ledger.NewStore(filepath.Join(t.TempDir(), "queue.json"), zap.NewNop())
	require.NoError(t, store.Seed(context.Background()))
	return store
}

func TestSeedCreatesEmptyLedger(t *testing.T) {
	store := newStore(t)
	tickets, err := store.Read(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tickets)
}

func TestReadMissingDocumentIsStorageUnavailable(t *testing.T) {
	store := ledger.NewStore(filepath.Join(t.TempDir(), "nope.json"), zap.NewNop())
	_, err := store.Read(context.Background())
	require.ErrorIs(t, err, ledger.ErrStorageUnavailable)
}

func TestAppendThenReadVerbatim(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	submitted := domain.Ticket{
		Number:    "B001",
		Prefix:    "B",
		Service:   domain.ServiceCustomerService,
		Branch:    "Branch X",
		Status:    domain.TicketStatusWaiting,
		CreatedAt: "2026-08-28T09:15:00.000Z",
	}
	appended, err := store.Append(ctx, submitted)
	require.NoError(t, err)
	assert.Equal(t, submitted, appended)

	tickets, err := store.Read(ctx)
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Equal(t, submitted, tickets[0])
}

func TestAppendReassignsDuplicateNumber(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	first := domain.NewTicket("A001", "A", domain.ServiceTeller, "Branch X")
	_, err := store.Append(ctx, first)
	require.NoError(t, err)

	second, err := store.Append(ctx, domain.NewTicket("A001", "A", domain.ServiceTeller, "Branch X"))
	require.NoError(t, err)
	assert.Equal(t, "A002", second.Number)
}

func TestAppendAssignsBlankNumber(t *testing.T) {
	store := newStore(t)
	ticket, err := store.Append(context.Background(), domain.NewTicket("", "A", domain.ServiceTeller, "Branch X"))
	require.NoError(t, err)
	assert.Equal(t, "A001", ticket.Number)
}

func TestConcurrentAppendsNeverShareANumber(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	const writers = 20
	const perWriter = 5

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				// every writer races on the same stale "A001"
				_, err := store.Append(ctx, domain.NewTicket("A001", "A", domain.ServiceTeller, "Branch X"))
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	tickets, err := store.Read(ctx)
	require.NoError(t, err)
	require.Len(t, tickets, writers*perWriter)

	seen := make(map[string]bool, len(tickets))
	for _, ticket := range tickets {
		key := ticket.Prefix + "|" + ticket.Number
		assert.False(t, seen[key], "duplicate number %s", ticket.Number)
		seen[key] = true
	}
}

func TestReadsDuringAppendsSeeOnlyCompleteRecords(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			_, err := store.Append(ctx, domain.NewTicket("", "A", domain.ServiceTeller, "Branch X"))
			assert.NoError(t, err)
		}
	}()

	for {
		select {
		case <-done:
			return
		default:
		}
		tickets, err := store.Read(ctx)
		require.NoError(t, err)
		for _, ticket := range tickets {
			assert.NotEmpty(t, ticket.Number)
			assert.NotEmpty(t, ticket.Service)
			assert.NotEmpty(t, ticket.Status)
		}
	}
}

func TestCallNextMarksEarliestWaiting(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		_, err := store.Append(ctx, domain.NewTicket(fmt.Sprintf("A%03d", i), "A", domain.ServiceTeller, "Branch X"))
		require.NoError(t, err)
	}
	_, err := store.Append(ctx, domain.NewTicket("B001", "B", domain.ServiceCustomerService, "Branch X"))
	require.NoError(t, err)

	called, err := store.CallNext(ctx, domain.ServiceTeller)
	require.NoError(t, err)
	assert.Equal(t, "A001", called.Number)
	assert.Equal(t, domain.TicketStatusCalled, called.Status)

	called, err = store.CallNext(ctx, domain.ServiceTeller)
	require.NoError(t, err)
	assert.Equal(t, "A002", called.Number)

	// only the status field ever moves
	tickets, err := store.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusCalled, tickets[0].Status)
	assert.Equal(t, "A001", tickets[0].Number)
	assert.Equal(t, domain.TicketStatusWaiting, tickets[2].Status)
	assert.Equal(t, domain.TicketStatusWaiting, tickets[3].Status)
}

func TestCallNextEmptyQueue(t *testing.T) {
	store := newStore(t)
	_, err := store.CallNext(context.Background(), domain.ServiceTeller)
	require.ErrorIs(t, err, ledger.ErrNoneWaiting)
}
