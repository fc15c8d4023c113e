package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu             sync.Mutex
	requestCount   map[string]int64
	errorCount     map[string]int64
	broadcastCount int64
	fetchCount     int64
	fetchFailures  int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordBroadcast counts one change-signal fan-out.
func (m *Metrics) RecordBroadcast() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.broadcastCount++
}

// RecordFetch counts one viewer ledger fetch, failed or not.
func (m *Metrics) RecordFetch(failed bool) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchCount++
	if failed {
		m.fetchFailures++
	}
}

// Broadcasts returns the signal fan-out count.
func (m *Metrics) Broadcasts() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.broadcastCount
}

// Fetches returns total and failed viewer fetch counts.
func (m *Metrics) Fetches() (total, failed int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetchCount, m.fetchFailures
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
