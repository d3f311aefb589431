package store

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Flushable is anything that can flush pending mutations to disk if dirty.
// *Persistent[T] satisfies this for any T.
type Flushable interface {
	SaveIfDirty() error
}

// PersistenceManager coalesces dirty marks across every registered store and
// flushes each at most once per batching window, plus a final flush on
// Stop().
type PersistenceManager struct {
	mu       sync.Mutex
	stores   []Flushable
	interval time.Duration
	log      zerolog.Logger
	stopCh   chan struct{}
	done     chan struct{}
}

// NewPersistenceManager creates a manager with the given batching window.
// A non-positive interval falls back to 500ms.
func NewPersistenceManager(interval time.Duration, log zerolog.Logger) *PersistenceManager {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &PersistenceManager{
		interval: interval,
		log:      log.With().Str("component", "persistence_manager").Logger(),
		stopCh:   make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Register adds a store to the batching set.
func (m *PersistenceManager) Register(s Flushable) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stores = append(m.stores, s)
}

// Start begins the background flush loop.
func (m *PersistenceManager) Start() {
	go m.loop()
	m.log.Info().Dur("interval", m.interval).Msg("persistence manager started")
}

// Stop halts the background loop and performs one final flush of every
// registered store, so no dirty state is lost on shutdown.
func (m *PersistenceManager) Stop() {
	close(m.stopCh)
	<-m.done
	m.FlushAll()
	m.log.Info().Msg("persistence manager stopped")
}

func (m *PersistenceManager) loop() {
	defer close(m.done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.FlushAll()
		}
	}
}

// FlushAll calls SaveIfDirty on every registered store, logging (but not
// propagating) any failure so one bad store cannot block the others.
func (m *PersistenceManager) FlushAll() {
	m.mu.Lock()
	stores := make([]Flushable, len(m.stores))
	copy(stores, m.stores)
	m.mu.Unlock()

	for _, s := range stores {
		if err := s.SaveIfDirty(); err != nil {
			m.log.Error().Err(err).Msg("store flush failed, will retry next window")
		}
	}
}
