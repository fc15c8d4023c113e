package syncclient_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/branchops/branch-queue/internal/domain"
	"github.com/branchops/branch-queue/internal/syncclient"
)

type fakeLedger struct {
	mu      sync.Mutex
	tickets []domain.Ticket
	fetches int
}

func (f *fakeLedger) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		switch r.Method {
		case http.MethodGet:
			f.fetches++
			_ = json.NewEncoder(w).Encode(map[string]any{"tickets": f.tickets})
		case http.MethodPost:
			var t domain.Ticket
			_ = json.NewDecoder(r.Body).Decode(&t)
			f.tickets = append(f.tickets, t)
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
		}
	})
}

func (f *fakeLedger) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

func TestRefreshBuildsProjections(t *testing.T) {
	fake := &fakeLedger{tickets: []domain.Ticket{
		{Number: "A001", Prefix: "A", Service: domain.ServiceTeller, Status: domain.TicketStatusCalled},
		{Number: "A002", Prefix: "A", Service: domain.ServiceTeller, Status: domain.TicketStatusWaiting},
		{Number: "B001", Prefix: "B", Service: domain.ServiceCustomerService, Status: domain.TicketStatusWaiting},
	}}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	client := syncclient.New(syncclient.Config{BaseURL: srv.URL}, zap.NewNop())
	require.NoError(t, client.Refresh(t.Context()))

	snap := client.Snapshot()
	issued, ok := snap.LatestIssued(domain.ServiceTeller)
	require.True(t, ok)
	assert.Equal(t, "A002", issued)

	called, ok := snap.LatestCalled(domain.ServiceTeller)
	require.True(t, ok)
	assert.Equal(t, "A001", called)

	_, ok = snap.LatestCalled(domain.ServiceCustomerService)
	assert.False(t, ok)

	_, ok = snap.LatestIssued("Notary")
	assert.False(t, ok)
}

func TestRefreshFailureKeepsPreviousSnapshot(t *testing.T) {
	fake := &fakeLedger{tickets: []domain.Ticket{
		{Number: "A001", Prefix: "A", Service: domain.ServiceTeller, Status: domain.TicketStatusWaiting},
	}}
	srv := httptest.NewServer(fake.handler())

	client := syncclient.New(syncclient.Config{BaseURL: srv.URL}, zap.NewNop())
	require.NoError(t, client.Refresh(t.Context()))

	srv.Close()
	require.Error(t, client.Refresh(t.Context()))

	// the stale view survives until the next successful fetch
	issued, ok := client.Snapshot().LatestIssued(domain.ServiceTeller)
	require.True(t, ok)
	assert.Equal(t, "A001", issued)
}

func TestStartFetchesImmediatelyAndOnBusPoke(t *testing.T) {
	fake := &fakeLedger{}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	bus := syncclient.NewBus()
	client := syncclient.New(syncclient.Config{
		BaseURL:      srv.URL,
		PollInterval: time.Hour, // keep the ticker out of this test
	}, zap.NewNop(), syncclient.WithBus(bus))

	updates := make(chan syncclient.Snapshot, 8)
	client.OnUpdate(func(s syncclient.Snapshot) { updates <- s })

	client.Start(t.Context())
	defer client.Stop()

	select {
	case <-updates:
	case <-time.After(2 * time.Second):
		t.Fatal("no initial fetch")
	}

	bus.Poke()
	select {
	case <-updates:
	case <-time.After(2 * time.Second):
		t.Fatal("no refetch after bus poke")
	}
	assert.GreaterOrEqual(t, fake.fetchCount(), 2)
}

func TestAppendPostsTicket(t *testing.T) {
	fake := &fakeLedger{}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	client := syncclient.New(syncclient.Config{BaseURL: srv.URL}, zap.NewNop())
	ticket := domain.NewTicket("A001", "A", domain.ServiceTeller, "Branch X")
	require.NoError(t, client.Append(t.Context(), ticket))

	require.NoError(t, client.Refresh(t.Context()))
	issued, ok := client.Snapshot().LatestIssued(domain.ServiceTeller)
	require.True(t, ok)
	assert.Equal(t, "A001", issued)
}
