package events

import (
	"sync"

	"github.com/google/uuid"
)

// Event kinds pushed to subscribers. Channels are addressed as
// "<kind>:<instance_id>", long operations additionally publish on
// ":complete" / ":error" suffixed keys.
const (
	KindStatus    = "status"
	KindConsole   = "console"
	KindMetrics   = "metrics"
	KindProgress  = "progress"
	KindBenchmark = "benchmark"
	KindInstall   = "install-line"
)

// Key builds the channel key for a kind and instance.
func Key(kind string, id uuid.UUID) string { return kind + ":" + id.String() }

// CompleteKey and ErrorKey address the terminal channels of a long
// operation.
func CompleteKey(kind string, id uuid.UUID) string { return Key(kind, id) + ":complete" }
func ErrorKey(kind string, id uuid.UUID) string    { return Key(kind, id) + ":error" }

// Event is one published item.
type Event struct {
	Key     string `json:"key"`
	Payload any    `json:"payload"`
}

const maxQueued = 1024

// Subscription receives events for the keys it was created with, in
// publish order per key, starting from the moment of subscription.
// There is no backlog replay.
type Subscription struct {
	bus  *Bus
	keys []string

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []Event
	closed bool

	out chan Event
}

// C is the receive channel. It is closed after Unsubscribe.
func (s *Subscription) C() <-chan Event { return s.out }

func (s *Subscription) push(ev Event) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if len(s.queue) >= maxQueued {
		// slow consumer: drop oldest to bound memory
		s.queue = s.queue[1:]
	}
	s.queue = append(s.queue, ev)
	s.cond.Signal()
	s.mu.Unlock()
}

func (s *Subscription) pump() {
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if s.closed && len(s.queue) == 0 {
			s.mu.Unlock()
			close(s.out)
			return
		}
		ev := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		s.out <- ev
	}
}

// Unsubscribe detaches from the bus; pending queued events are still
// delivered before the channel closes.
func (s *Subscription) Unsubscribe() {
	s.bus.remove(s)
	s.mu.Lock()
	s.closed = true
	s.cond.Signal()
	s.mu.Unlock()
}

// Bus is a typed publish/subscribe hub keyed by "<kind>:<instance_id>".
// Publishes to the same key are delivered to every subscriber in the
// same order.
type Bus struct {
	mu   sync.Mutex
	subs map[string][]*Subscription
}

func NewBus() *Bus {
	return &Bus{subs: make(map[string][]*Subscription)}
}

// Subscribe attaches to one or more keys.
func (b *Bus) Subscribe(keys ...string) *Subscription {
	sub := &Subscription{
		bus:  b,
		keys: keys,
		out:  make(chan Event, 16),
	}
	sub.cond = sync.NewCond(&sub.mu)

	b.mu.Lock()
	for _, k := range keys {
		b.subs[k] = append(b.subs[k], sub)
	}
	b.mu.Unlock()

	go sub.pump()
	return sub
}

// Publish delivers payload to every current subscriber of key. Slow
// subscribers never block the publisher.
func (b *Bus) Publish(key string, payload any) {
	ev := Event{Key: key, Payload: payload}
	b.mu.Lock()
	for _, sub := range b.subs[key] {
		sub.push(ev)
	}
	b.mu.Unlock()
}

func (b *Bus) remove(s *Subscription) {
	b.mu.Lock()
	for _, k := range s.keys {
		list := b.subs[k]
		for i, sub := range list {
			if sub == s {
				b.subs[k] = append(list[:i], list[i+1:]...)
				break
			}
		}
		if len(b.subs[k]) == 0 {
			delete(b.subs, k)
		}
	}
	b.mu.Unlock()
}
