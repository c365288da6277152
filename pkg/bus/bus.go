// Package bus fans status and link-state events out to the publish layers
// (MQTT, websocket clients). Producers never block: slow consumers are
// dropped rather than stalling the link owner's tick.
package bus

import (
	"sync"
	"time"
)

// Type classifies an event for consumers.
type Type string

const (
	TypeStatus    Type = "status"
	TypeLinkState Type = "link_state"
)

// LinkChange carries a link-state transition.
type LinkChange struct {
	State  string `json:"state"`
	Detail string `json:"detail,omitempty"`
}

// Event is the JSON-serialisable envelope delivered to subscribers.
type Event struct {
	Type      Type      `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

type subscriber struct {
	ch chan Event
}

// Bus is a channel-based fan-out hub.
type Bus struct {
	mu   sync.RWMutex
	subs map[*subscriber]struct{}
}

// New constructs a ready Bus.
func New() *Bus {
	return &Bus{subs: make(map[*subscriber]struct{})}
}

// Subscribe registers a consumer. The returned cancel function must be
// called when the consumer goes away; it closes the channel.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	s := &subscriber{ch: make(chan Event, 64)}
	b.mu.Lock()
	b.subs[s] = struct{}{}
	b.mu.Unlock()

	unsub := func() {
		b.mu.Lock()
		delete(b.subs, s)
		b.mu.Unlock()
		close(s.ch)
	}
	return s.ch, unsub
}

// Publish delivers an event to every current subscriber.
func (b *Bus) Publish(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for s := range b.subs {
		select {
		case s.ch <- e:
		default:
			// Slow consumer, drop.
		}
	}
}

// PublishStatus wraps a status snapshot.
func (b *Bus) PublishStatus(data any) {
	b.Publish(Event{Type: TypeStatus, Data: data})
}

// PublishLinkState wraps a link-state transition.
func (b *Bus) PublishLinkState(state, detail string) {
	b.Publish(Event{Type: TypeLinkState, Data: LinkChange{State: state, Detail: detail}})
}

// Len returns the subscriber count.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
