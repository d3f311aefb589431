package notify

import (
	"time"

	"github.com/rs/zerolog"
)

// Scheduler drives Manager.Tick on a fixed interval: a single background
// goroutine, a ticker, and a stopCh/done pair for graceful shutdown rather
// than a raw goroutine-plus-sleep loop.
type Scheduler struct {
	manager  *Manager
	interval time.Duration
	log      zerolog.Logger
	stopCh   chan struct{}
	done     chan struct{}
}

// NewScheduler builds a Scheduler over manager, ticking every interval
// (default 60s when interval is non-positive).
func NewScheduler(manager *Manager, interval time.Duration, log zerolog.Logger) *Scheduler {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	return &Scheduler{
		manager:  manager,
		interval: interval,
		log:      log.With().Str("component", "notification_scheduler").Logger(),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins the tick loop in a background goroutine.
func (s *Scheduler) Start() {
	go s.loop()
	s.log.Info().Dur("interval", s.interval).Msg("notification scheduler started")
}

// Stop halts the tick loop and waits for it to exit.
func (s *Scheduler) Stop() {
	close(s.stopCh)
	<-s.done
	s.log.Info().Msg("notification scheduler stopped")
}

func (s *Scheduler) loop() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case now := <-ticker.C:
			s.manager.Tick(now)
		}
	}
}
