// Package channel defines the abstract notification delivery sink and two
// concrete implementations. The core never speaks to a real toast/push/email
// transport directly — it only ever holds a Channel, the same
// pluggable-backend shape used elsewhere for interchangeable delivery
// sinks (log/memory/etc. all implementing one narrow interface the core
// calls through).
package channel

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Channel delivers one notification. Send is best-effort: a non-nil error
// means the notification was not delivered and remains pending for retry.
type Channel interface {
	Send(title, message string) error
}

// LogChannel delivers by writing a structured log line. Useful as the
// always-available fallback channel and in tests.
type LogChannel struct {
	log zerolog.Logger
}

// NewLogChannel builds a Channel that logs every delivery at info level.
func NewLogChannel(log zerolog.Logger) *LogChannel {
	return &LogChannel{log: log.With().Str("component", "log_channel").Logger()}
}

// Send implements Channel.
func (c *LogChannel) Send(title, message string) error {
	c.log.Info().Str("title", title).Str("message", message).Msg("notification")
	return nil
}

// delivery is one recorded send, kept by MemoryChannel for test assertions.
type delivery struct {
	Title     string
	Message   string
	DeliveredAt time.Time
}

// MemoryChannel records every delivery in memory instead of sending
// anywhere, for tests and other callers that inspect deliveries directly.
type MemoryChannel struct {
	mu         sync.Mutex
	deliveries []delivery
	failNext   bool
}

// NewMemoryChannel builds an empty MemoryChannel.
func NewMemoryChannel() *MemoryChannel {
	return &MemoryChannel{}
}

// Send implements Channel.
func (c *MemoryChannel) Send(title, message string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failNext {
		c.failNext = false
		return errChannelUnavailable
	}
	c.deliveries = append(c.deliveries, delivery{Title: title, Message: message, DeliveredAt: time.Now()})
	return nil
}

// FailNext makes the next Send call return an error, for exercising the
// retry-on-failure path in tests.
func (c *MemoryChannel) FailNext() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failNext = true
}

// Deliveries returns a snapshot of every successful delivery, in order.
func (c *MemoryChannel) Deliveries() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.deliveries))
	for i, d := range c.deliveries {
		out[i] = d.Title + ": " + d.Message
	}
	return out
}

var errChannelUnavailable = &unavailableError{}

type unavailableError struct{}

func (*unavailableError) Error() string { return "channel: delivery unavailable" }
