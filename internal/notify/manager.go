package notify

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/zortex-io/zortex-core/internal/channel"
	"github.com/zortex-io/zortex-core/internal/eventbus"
	"github.com/zortex-io/zortex-core/internal/metrics"
	"github.com/zortex-io/zortex-core/internal/store"
	"github.com/zortex-io/zortex-core/internal/zerr"
)

// Manager owns the pending-notifications set and the sent-dedup-keys set,
// and drives delivery through a set of named Channels: both hold a map
// keyed by an opaque id, mutate it only through narrow methods, and
// persist via the shared store package rather than managing their own
// file I/O.
type Manager struct {
	persist  *store.Persistent[state]
	bus      *eventbus.Bus
	metrics  *metrics.Registry
	channels map[string]channel.Channel
	log      zerolog.Logger
	seq      atomic.Int64
}

// NewManager opens (without loading) the notification store at path.
// channels maps a channel name (as referenced by Notification.Channels) to
// its implementation. registry may be nil, in which case delivery counters
// are simply not recorded.
func NewManager(path string, channels map[string]channel.Channel, bus *eventbus.Bus, registry *metrics.Registry, log zerolog.Logger) *Manager {
	return &Manager{
		persist:  store.New(path, emptyState, log),
		bus:      bus,
		metrics:  registry,
		channels: channels,
		log:      log.With().Str("component", "notification_manager").Logger(),
	}
}

// Load reads the notification store from disk, initializing it on first run.
func (m *Manager) Load() error {
	return m.persist.Load()
}

// SaveIfDirty satisfies store.Flushable so Manager can register with a
// PersistenceManager.
func (m *Manager) SaveIfDirty() error {
	return m.persist.SaveIfDirty()
}

func (m *Manager) nextID() string {
	n := m.seq.Add(1)
	return fmt.Sprintf("ntf_%d_%d", time.Now().UnixNano(), n)
}

// Schedule assigns n an id and trigger_time validation, then adds it to the
// pending set. A trigger_time that is not strictly in the future is
// accepted as-is: it simply fires on the next tick. If n already carries a
// non-empty DedupKey that has already been sent, Schedule is a silent
// no-op (returns a zero Notification) — the "reconciled at schedule time"
// duplicate-pending rule.
func (m *Manager) Schedule(n Notification) Notification {
	var scheduled Notification
	m.persist.Update(func(st *state) {
		if n.DedupKey != "" {
			if _, sent := st.Sent[n.DedupKey]; sent {
				return
			}
			for _, existing := range st.Scheduled {
				if existing.DedupKey == n.DedupKey {
					scheduled = existing
					return
				}
			}
		}
		n.ID = m.nextID()
		st.Scheduled[n.ID] = n
		scheduled = n
	})
	return scheduled
}

// Cancel removes a pending notification without sending it. Returns
// NotFoundError if id is not pending.
func (m *Manager) Cancel(id string) error {
	var err error
	m.persist.Update(func(st *state) {
		if _, ok := st.Scheduled[id]; !ok {
			err = zerr.NotFoundError(fmt.Sprintf("notification %q not found", id))
			return
		}
		delete(st.Scheduled, id)
	})
	return err
}

// Snooze cancels id and reschedules an identical copy snoozeMinutes from
// now, stripping any dedup_key so the snoozed copy is never mistaken for
// the original having already fired.
func (m *Manager) Snooze(id string, snoozeMinutes int) (Notification, error) {
	var existing Notification
	var found bool
	m.persist.View(func(st state) {
		existing, found = st.Scheduled[id]
	})
	if !found {
		return Notification{}, zerr.NotFoundError(fmt.Sprintf("notification %q not found", id))
	}
	if err := m.Cancel(id); err != nil {
		return Notification{}, err
	}
	existing.DedupKey = ""
	existing.TriggerTime = time.Now().Add(time.Duration(snoozeMinutes) * time.Minute)
	return m.Schedule(existing), nil
}

// Pending returns a snapshot of every currently pending notification.
func (m *Manager) Pending() []Notification {
	var out []Notification
	m.persist.View(func(st state) {
		out = make([]Notification, 0, len(st.Scheduled))
		for _, n := range st.Scheduled {
			out = append(out, n)
		}
	})
	return out
}

// Tick runs one scheduler pass: select due notifications, dedup, dispatch,
// reschedule or retire.
func (m *Manager) Tick(now time.Time) {
	due := m.collectDue(now)
	for _, n := range due {
		m.fire(n, now)
	}
}

func (m *Manager) collectDue(now time.Time) []Notification {
	var due []Notification
	m.persist.View(func(st state) {
		for _, n := range st.Scheduled {
			if !n.TriggerTime.After(now) {
				due = append(due, n)
			}
		}
	})
	return due
}

func (m *Manager) fire(n Notification, now time.Time) {
	if n.DedupKey != "" {
		var alreadySent bool
		m.persist.View(func(st state) { _, alreadySent = st.Sent[n.DedupKey] })
		if alreadySent {
			m.persist.Update(func(st *state) { delete(st.Scheduled, n.ID) })
			if m.metrics != nil {
				m.metrics.Counter("notifications_dropped").Inc()
			}
			return
		}
	}

	delivered := m.dispatch(n)
	if !delivered {
		if m.metrics != nil {
			m.metrics.Counter("notifications_retried").Inc()
		}
		return // remains pending, retried next tick
	}

	m.persist.Update(func(st *state) {
		if n.DedupKey != "" {
			st.Sent[n.DedupKey] = now.Unix()
		}
		if n.Recurrence.Kind == RecurNone {
			delete(st.Scheduled, n.ID)
			return
		}
		next := n
		next.TriggerTime = Next(n.TriggerTime, n.Recurrence)
		st.Scheduled[n.ID] = next
	})

	if m.metrics != nil {
		m.metrics.Counter("notifications_sent").Inc()
	}
	if m.bus != nil {
		m.bus.Emit("notification:sent", n)
	}
}

// dispatch attempts delivery on every one of n's declared channels,
// best-effort; it reports success if at least one channel accepted it.
// A channel set with zero entries never succeeds.
func (m *Manager) dispatch(n Notification) bool {
	delivered := false
	for _, name := range n.Channels {
		ch, ok := m.channels[name]
		if !ok {
			m.log.Warn().Str("channel", name).Str("notification_id", n.ID).Msg("unknown channel, skipping")
			continue
		}
		if err := ch.Send(n.Title, n.Message); err != nil {
			m.log.Warn().Err(err).Str("channel", name).Str("notification_id", n.ID).Msg("channel delivery failed")
			continue
		}
		delivered = true
	}
	return delivered
}
