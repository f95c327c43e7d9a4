package api

import (
	"sync"
)

// Event is a live-channel event addressed to one technician.
type Event struct {
	Type string
	Data map[string]any
}

type Broker struct {
	mu   sync.Mutex
	subs map[string]map[chan Event]struct{} // technicianId -> set of channels
}

func NewBroker() *Broker {
	return &Broker{subs: map[string]map[chan Event]struct{}{}}
}

func (b *Broker) Subscribe(technicianID string) chan Event {
	ch := make(chan Event, 8)
	b.mu.Lock()
	if b.subs[technicianID] == nil {
		b.subs[technicianID] = map[chan Event]struct{}{}
	}
	b.subs[technicianID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) Unsubscribe(technicianID string, ch chan Event) {
	b.mu.Lock()
	if m := b.subs[technicianID]; m != nil {
		delete(m, ch)
		if len(m) == 0 {
			delete(b.subs, technicianID)
		}
	}
	b.mu.Unlock()
	close(ch)
}

func (b *Broker) Publish(technicianID string, evt Event) {
	b.mu.Lock()
	m := b.subs[technicianID]
	for ch := range m {
		select {
		case ch <- evt:
		default:
		}
	}
	b.mu.Unlock()
}
