package events

import (
	"context"
	"sync"

	"github.com/yourusername/grid-dock/internal/logging"
)

// Bus is the in-process event bus. Subscribers get a buffered channel; a
// subscriber that falls behind loses events instead of stalling the emitter.
type Bus struct {
	mu   sync.RWMutex
	subs map[int]*subscription
	next int
}

type subscription struct {
	ch     chan Event
	filter func(Key) bool
}

// NewBus creates an empty bus
func NewBus() *Bus {
	return &Bus{subs: make(map[int]*subscription)}
}

// Subscribe registers a listener. A nil filter receives everything. The
// returned cancel func closes the channel.
func (b *Bus) Subscribe(buffer int, filter func(Key) bool) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	sub := &subscription{ch: make(chan Event, buffer), filter: filter}
	b.subs[id] = sub

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(sub.ch)
		})
	}
	return sub.ch, cancel
}

// Publish delivers ev to every matching subscriber without blocking.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, sub := range b.subs {
		if sub.filter != nil && !sub.filter(ev.Key) {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			logging.Warn().
				Int("subscriber", id).
				Str("event", ev.Key.String()).
				Msg("Subscriber queue full, dropping event")
		}
	}
}

// Emit implements Sink.
func (b *Bus) Emit(_ context.Context, ev Event) error {
	b.Publish(ev)
	return nil
}

// Subscribers returns the number of active subscriptions
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
