package identity

import (
	"context"
	"sort"
	"sync"

	"github.com/angelmondragon/aquadrop/pkg/logger"
	"github.com/angelmondragon/aquadrop/pkg/metrics"
)

// Event reports that the principal behind a session changed.
type Event struct {
	SessionID string
	Previous  *Identity
	Current   *Identity
}

// LoggedIn reports an anonymous → authenticated transition or an account switch.
func (e Event) LoggedIn() bool { return e.Current != nil }

// LoggedOut reports an authenticated → anonymous transition.
func (e Event) LoggedOut() bool { return e.Previous != nil && e.Current == nil }

// Kind names the transition: "login", "logout" or "switch" between accounts.
func (e Event) Kind() string {
	switch {
	case e.Current == nil:
		return "logout"
	case e.Previous == nil:
		return "login"
	default:
		return "switch"
	}
}

// Handler consumes identity events synchronously, in subscription order.
type Handler func(ctx context.Context, ev Event)

// Broadcaster is the single identity-changed channel of the process.
type Broadcaster struct {
	mu       sync.RWMutex
	next     int
	handlers map[int]Handler
}

// NewBroadcaster returns an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{handlers: map[int]Handler{}}
}

// Subscribe registers h and returns its cancel func.
func (b *Broadcaster) Subscribe(h Handler) (cancel func()) {
	if h == nil {
		return func() {}
	}
	b.mu.Lock()
	id := b.next
	b.next++
	b.handlers[id] = h
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.handlers, id)
			b.mu.Unlock()
		})
	}
}

// Channel subscribes an asynchronous consumer. Events are delivered on a buffered
// channel; when the consumer falls behind the oldest undelivered event is dropped
// so Publish never blocks. Cancel closes the channel.
func (b *Broadcaster) Channel(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	var mu sync.Mutex
	closed := false

	unsubscribe := b.Subscribe(func(_ context.Context, ev Event) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		for {
			select {
			case ch <- ev:
				return
			default:
			}
			select {
			case <-ch:
			default:
			}
		}
	})

	return ch, func() {
		unsubscribe()
		mu.Lock()
		if !closed {
			closed = true
			close(ch)
		}
		mu.Unlock()
	}
}

// Publish delivers ev to every subscriber.
func (b *Broadcaster) Publish(ctx context.Context, ev Event) {
	b.mu.RLock()
	ids := make([]int, 0, len(b.handlers))
	for id := range b.handlers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	handlers := make([]Handler, 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, b.handlers[id])
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ctx, ev)
	}
}

// LogChanges returns a handler that records each transition.
func LogChanges(logg *logger.Logger) Handler {
	return func(ctx context.Context, ev Event) {
		if logg == nil {
			return
		}
		fields := map[string]any{"session_id": ev.SessionID}
		if ev.Previous != nil {
			fields["previous_uid"] = ev.Previous.UID
		}
		if ev.Current != nil {
			fields["user_id"] = ev.Current.UID
			fields["actor_role"] = string(ev.Current.Role)
		}
		msg := "identity.login"
		if ev.LoggedOut() {
			msg = "identity.logout"
		}
		logg.Info(logg.WithFields(ctx, fields), msg)
	}
}

// CountTransitions counts every event read from ch by kind. It returns once ch
// is closed, so it is meant to run on its own goroutine fed by Channel.
func CountTransitions(ch <-chan Event, m *metrics.IdentityMetrics) {
	for ev := range ch {
		m.Transition(ev.Kind())
	}
}
