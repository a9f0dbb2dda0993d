// Package notify holds live push subscriptions keyed by user identity and
// delivers events to them as server-sent events.
//
// Delivery is best-effort and at-most-once: an event for an identity with no
// live subscription is dropped, and a subscription whose buffer is full misses
// the event. The notification table is the system of record; clients
// reconcile by fetching it.
package notify

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Event is one push frame. Type and Payload are serialized as the frame body.
type Event struct {
	ID      string `json:"-"`
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// NewEvent builds an event with a fresh id.
func NewEvent(typ string, payload any) Event {
	return Event{ID: uuid.NewString(), Type: typ, Payload: payload}
}

// Subscription is a single live connection's queue.
type Subscription struct {
	identity int64
	events   chan Event
	done     chan struct{}
	once     sync.Once
}

func (s *Subscription) Identity() int64 { return s.identity }

// Events yields queued events. The channel is never closed; watch Done.
func (s *Subscription) Events() <-chan Event { return s.events }

// Done is closed when the subscription is unregistered or the hub closes.
func (s *Subscription) Done() <-chan struct{} { return s.done }

func (s *Subscription) stop() {
	s.once.Do(func() { close(s.done) })
}

// Hub maps identities to their live subscriptions.
type Hub struct {
	mu     sync.RWMutex
	subs   map[int64]map[*Subscription]struct{}
	buffer int
	closed bool
	logger *slog.Logger
}

// NewHub creates a hub whose subscriptions buffer up to buffer events.
func NewHub(logger *slog.Logger, buffer int) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{subs: make(map[int64]map[*Subscription]struct{}), buffer: buffer, logger: logger}
}

// Register adds a subscription for identity. An identity may hold several
// subscriptions at once (one per open tab). On a closed hub the returned
// subscription is already done.
func (h *Hub) Register(identity int64) *Subscription {
	sub := &Subscription{identity: identity, events: make(chan Event, h.buffer), done: make(chan struct{})}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		sub.stop()
		return sub
	}

	set, ok := h.subs[identity]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[identity] = set
	}
	set[sub] = struct{}{}
	connectionsGauge.Inc()

	h.logger.Debug("sse subscription registered", slog.Int64("user_id", identity), slog.Int("identity_subs", len(set)))
	return sub
}

// Unregister removes sub. Calling it more than once is harmless.
func (h *Hub) Unregister(sub *Subscription) {
	if sub == nil {
		return
	}

	h.mu.Lock()
	if set, ok := h.subs[sub.identity]; ok {
		if _, ok := set[sub]; ok {
			delete(set, sub)
			connectionsGauge.Dec()
			if len(set) == 0 {
				delete(h.subs, sub.identity)
			}
		}
	}
	h.mu.Unlock()

	sub.stop()
}

// SendTo queues ev on every subscription of identity without blocking and
// returns how many subscriptions accepted it.
func (h *Hub) SendTo(identity int64, ev Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	set := h.subs[identity]
	if len(set) == 0 {
		eventsTotal.WithLabelValues(ev.Type, "offline").Inc()
		return 0
	}

	delivered := 0
	for sub := range set {
		if h.offer(sub, ev) {
			delivered++
		}
	}
	return delivered
}

// Broadcast queues ev on every live subscription.
func (h *Hub) Broadcast(ev Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for _, set := range h.subs {
		for sub := range set {
			if h.offer(sub, ev) {
				delivered++
			}
		}
	}
	return delivered
}

func (h *Hub) offer(sub *Subscription, ev Event) bool {
	select {
	case sub.events <- ev:
		eventsTotal.WithLabelValues(ev.Type, "queued").Inc()
		return true
	default:
		eventsTotal.WithLabelValues(ev.Type, "dropped").Inc()
		h.logger.Warn("sse buffer full, event dropped", slog.Int64("user_id", sub.identity), slog.String("type", ev.Type))
		return false
	}
}

// Connected reports the number of live subscriptions for identity.
func (h *Hub) Connected(identity int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[identity])
}

// Close ends every subscription and makes later registrations no-ops.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true

	for identity, set := range h.subs {
		for sub := range set {
			sub.stop()
			connectionsGauge.Dec()
		}
		delete(h.subs, identity)
	}
}
