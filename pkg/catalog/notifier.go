package catalog

import (
	"context"
	"sync"
)

// Broker fans events out to registered subscribers. Publishing never
// blocks: a subscriber whose channel is full misses the event rather
// than stalling the write path.
type Broker struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
}

// NewBroker creates an event broker with no subscribers.
func NewBroker() *Broker {
	return &Broker{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a subscriber channel with the given buffer size
// and returns it with the matching cancel func. Cancel closes the
// channel and must be called exactly once.
func (b *Broker) Subscribe(buffer int) (<-chan Event, func()) {
	ch := make(chan Event, buffer)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers ev to every current subscriber.
func (b *Broker) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// pendingEvents is the per-unit-of-work outbox.
type pendingEvents struct {
	mu     sync.Mutex
	events []Event
}

func (p *pendingEvents) add(ev Event) {
	p.mu.Lock()
	p.events = append(p.events, ev)
	p.mu.Unlock()
}

func (p *pendingEvents) take() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	events := p.events
	p.events = nil
	return events
}

type pendingKey struct{}

func pendingFrom(ctx context.Context) *pendingEvents {
	p, _ := ctx.Value(pendingKey{}).(*pendingEvents)
	return p
}

// OutboxNotifier implements Notifier with commit-gated delivery. Events
// announced inside a staged context are buffered and reach the broker
// only when the unit of work settles with commit=true; a rollback
// discards them. Announce outside any staged context delivers at once.
type OutboxNotifier struct {
	broker *Broker
}

// NewOutboxNotifier creates a notifier publishing through broker.
func NewOutboxNotifier(broker *Broker) *OutboxNotifier {
	return &OutboxNotifier{broker: broker}
}

// Announce queues ev in the context's pending buffer, or publishes
// immediately when no unit of work is active.
func (n *OutboxNotifier) Announce(ctx context.Context, ev Event) {
	if p := pendingFrom(ctx); p != nil {
		p.add(ev)
		return
	}
	n.broker.Publish(ev)
}

// Stage attaches a fresh pending buffer to ctx.
func (n *OutboxNotifier) Stage(ctx context.Context) (context.Context, func(commit bool)) {
	p := &pendingEvents{}
	staged := context.WithValue(ctx, pendingKey{}, p)

	var once sync.Once
	settle := func(commit bool) {
		once.Do(func() {
			events := p.take()
			if !commit {
				return
			}
			for _, ev := range events {
				n.broker.Publish(ev)
			}
		})
	}
	return staged, settle
}

// NoopNotifier is a no-operation implementation of Notifier.
// Useful when no subscriber surface is wired, and for testing.
type NoopNotifier struct{}

// NewNoopNotifier creates a new no-operation notifier
func NewNoopNotifier() Notifier {
	return &NoopNotifier{}
}

// Announce does nothing
func (n *NoopNotifier) Announce(ctx context.Context, ev Event) {}

// Stage returns ctx unchanged and a settle func that does nothing
func (n *NoopNotifier) Stage(ctx context.Context) (context.Context, func(commit bool)) {
	return ctx, func(bool) {}
}
