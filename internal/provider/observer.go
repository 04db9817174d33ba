package provider

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/skycast-labs/forecast-cli/internal/contract"
)

// ChangeKind tags what kind of mutation produced a ChangeEvent.
type ChangeKind string

const (
	ChangeInsert     ChangeKind = "insert"
	ChangeBulkInsert ChangeKind = "bulk_insert"
	ChangeUpdate     ChangeKind = "update"
	ChangeDelete     ChangeKind = "delete"
)

// ChangeEvent is published to observers after a mutation. The address is
// always the collection address of the mutated family, so collection-level
// watchers wake on item writes too.
type ChangeEvent struct {
	Address contract.Address
	Kind    ChangeKind
	Rows    int64
	At      time.Time
}

// Subscription is a registered observer handle. Read events from C;
// Unsubscribe with the ID when done.
type Subscription struct {
	ID string
	C  <-chan ChangeEvent

	family contract.Address
	ch     chan ChangeEvent
}

const subscriptionBuffer = 16

// Subscribe registers an observer for the collection the address belongs to
// and returns its handle. Delivery is fire-and-forget: if the subscriber's
// buffer is full the event is dropped, never blocking the mutating call.
func (p *Provider) Subscribe(addr contract.Address) *Subscription {
	sub := &Subscription{
		ID:     uuid.New().String(),
		family: contract.CollectionOf(addr),
		ch:     make(chan ChangeEvent, subscriptionBuffer),
	}
	sub.C = sub.ch

	p.obsMu.Lock()
	p.observers[sub.ID] = sub
	p.obsMu.Unlock()
	return sub
}

// Unsubscribe removes an observer and closes its channel.
func (p *Provider) Unsubscribe(id string) {
	p.obsMu.Lock()
	sub, ok := p.observers[id]
	if ok {
		delete(p.observers, id)
	}
	p.obsMu.Unlock()
	if ok {
		close(sub.ch)
	}
}

func (p *Provider) publish(ev ChangeEvent) {
	ev.At = time.Now().UTC()

	p.obsMu.RLock()
	defer p.obsMu.RUnlock()
	for _, sub := range p.observers {
		if sub.family != ev.Address {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			zap.L().Warn("change event dropped, subscriber buffer full",
				zap.String("subscription", sub.ID),
				zap.String("address", ev.Address.String()),
			)
		}
	}
}
