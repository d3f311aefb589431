// Package eventbus implements zortex-core's single-threaded, priority-ordered
// publish/subscribe dispatch. Handlers run to completion synchronously;
// there is no async suspension inside Emit.
//
// The dispatch idiom (accumulate handlers, sort by priority, walk the sorted
// list, first-match-or-all-match semantics) generalizes a rule-evaluator
// shape from "first matching rule wins" to "every subscribed handler runs,
// in priority order".
package eventbus

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// Handler receives the payload of an emitted event. Payloads are typed
// values owned by the emitting package (e.g. internal/xp's
// TaskCompletedEvent); the bus itself is payload-agnostic.
type Handler func(data any)

type subscription struct {
	name     string
	priority int
	seq      int
	handler  Handler
}

// SubscribeOption configures a subscription registered via On.
type SubscribeOption func(*subscription)

// WithPriority sets the dispatch priority; higher runs first. Default 0.
func WithPriority(p int) SubscribeOption {
	return func(s *subscription) { s.priority = p }
}

// WithName labels the subscription for logging/diagnostics.
func WithName(name string) SubscribeOption {
	return func(s *subscription) { s.name = name }
}

// Bus is a priority-ordered, single-threaded in-process event dispatcher.
type Bus struct {
	mu   sync.Mutex
	subs map[string][]subscription
	seq  int
	log  zerolog.Logger
}

// New creates an empty Bus. Per the system's "no process-wide mutable
// globals" rule, tests and the process entrypoint each construct their own
// Bus rather than sharing a singleton.
func New(log zerolog.Logger) *Bus {
	return &Bus{
		subs: make(map[string][]subscription),
		log:  log.With().Str("component", "eventbus").Logger(),
	}
}

// On registers handler for event. Within an event, handlers fire in
// descending priority; ties break by registration order.
func (b *Bus) On(event string, handler Handler, opts ...SubscribeOption) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := subscription{handler: handler, seq: b.seq}
	b.seq++
	for _, opt := range opts {
		opt(&sub)
	}

	b.subs[event] = append(b.subs[event], sub)
	b.sortLocked(event)
}

func (b *Bus) sortLocked(event string) {
	subs := b.subs[event]
	sort.SliceStable(subs, func(i, j int) bool {
		if subs[i].priority != subs[j].priority {
			return subs[i].priority > subs[j].priority
		}
		return subs[i].seq < subs[j].seq
	})
}

// Emit dispatches data to every handler subscribed to event, in priority
// order, synchronously. A handler that panics is recovered and logged; it
// does not prevent subsequent handlers from running, and Emit never panics
// on the caller's behalf.
func (b *Bus) Emit(event string, data any) {
	b.mu.Lock()
	subs := make([]subscription, len(b.subs[event]))
	copy(subs, b.subs[event])
	b.mu.Unlock()

	for _, sub := range subs {
		b.dispatchOne(event, sub, data)
	}
}

func (b *Bus) dispatchOne(event string, sub subscription, data any) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().
				Str("event", event).
				Str("handler", sub.name).
				Interface("panic", r).
				Msg("event handler panicked, continuing dispatch")
		}
	}()
	sub.handler(data)
}
