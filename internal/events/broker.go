// Package events fans timer events out to the clients subscribed for a user.
package events

import (
	"sync"
	"time"
)

// Event type constants.
const (
	TypeStateChanged                   = "state_changed"
	TypeSessionCompleted               = "session_completed"
	TypeSessionReset                   = "session_reset"
	TypePlaySound                      = "play_sound"
	TypeVibrate                        = "vibrate"
	TypeNotification                   = "notification"
	TypeToast                          = "toast"
	TypeNotificationPermissionRequired = "notification_permission_requested"
)

type Event struct {
	Type  string                 `json:"type"`
	Owner string                 `json:"-"`
	At    time.Time              `json:"at"`
	Data  map[string]interface{} `json:"data,omitempty"`
}

// Publisher accepts events for delivery. Publish never blocks.
type Publisher interface {
	Publish(event Event)
}

// Counter is a Publisher that reports how many subscribers an event reached.
type Counter interface {
	PublishCount(event Event) int
}

// Deliver publishes event and reports whether anyone received it. A
// publisher that cannot count is assumed to deliver.
func Deliver(p Publisher, event Event) bool {
	if c, ok := p.(Counter); ok {
		return c.PublishCount(event) > 0
	}
	p.Publish(event)
	return true
}

const subscriberBuffer = 32

// Broker delivers each event to every subscriber of the event's owner. A
// subscriber that is not draining its channel misses events instead of
// stalling the publisher.
type Broker struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]chan Event
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[string]map[int]chan Event)}
}

// Subscribe returns a channel of owner's events and a function that ends the
// subscription and closes the channel.
func (b *Broker) Subscribe(owner string) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	ch := make(chan Event, subscriberBuffer)
	if b.subs[owner] == nil {
		b.subs[owner] = make(map[int]chan Event)
	}
	b.subs[owner][id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[owner], id)
			if len(b.subs[owner]) == 0 {
				delete(b.subs, owner)
			}
			close(ch)
		})
	}
}

func (b *Broker) Publish(event Event) {
	b.PublishCount(event)
}

// PublishCount delivers event and returns the number of subscribers that
// accepted it.
func (b *Broker) PublishCount(event Event) int {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	delivered := 0
	for _, ch := range b.subs[event.Owner] {
		select {
		case ch <- event:
			delivered++
		default:
		}
	}
	return delivered
}

// Scoped stamps every published event with a fixed owner.
type Scoped struct {
	Owner string
	Next  Publisher
}

func (s Scoped) Publish(event Event) {
	s.PublishCount(event)
}

func (s Scoped) PublishCount(event Event) int {
	if s.Next == nil {
		return 0
	}
	event.Owner = s.Owner
	if Deliver(s.Next, event) {
		return 1
	}
	return 0
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(Event) {}
