package syncclient

import "sync"

// Bus is the same-device refresh channel: components that know they
// just changed the ledger (a kiosk that posted a ticket) poke it so
// co-located viewers refetch without waiting for the server signal.
type Bus struct {
	mu   sync.Mutex
	subs []chan struct{}
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe returns a channel that receives one token per poke.
func (b *Bus) Subscribe() <-chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan struct{}, 1)
	b.subs = append(b.subs, ch)
	return ch
}

// Poke wakes every subscriber. Non-blocking; a subscriber that already
// has a pending token needs no second one.
func (b *Bus) Poke() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
