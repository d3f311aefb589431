package notify

import (
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/zortex-io/zortex-core/internal/channel"
)

func testManager(t *testing.T, channels map[string]channel.Channel) *Manager {
	t.Helper()
	path := filepath.Join(t.TempDir(), "notifications_state.json")
	m := NewManager(path, channels, nil, nil, zerolog.New(io.Discard))
	if err := m.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return m
}

func TestScheduleAndTickDelivers(t *testing.T) {
	mem := channel.NewMemoryChannel()
	m := testManager(t, map[string]channel.Channel{"mem": mem})

	n := Notification{
		TriggerTime: time.Now().Add(-time.Minute), // already due
		Title:       "Standup",
		Message:     "starts now",
		Channels:    []string{"mem"},
	}
	scheduled := m.Schedule(n)
	if scheduled.ID == "" {
		t.Fatal("expected Schedule to assign an id")
	}

	m.Tick(time.Now())

	if len(mem.Deliveries()) != 1 {
		t.Fatalf("deliveries = %d, want 1", len(mem.Deliveries()))
	}
	if len(m.Pending()) != 0 {
		t.Fatalf("pending = %d, want 0 after a non-recurring notification fires", len(m.Pending()))
	}
}

func TestDedupKeyPreventsDoubleSend(t *testing.T) {
	mem := channel.NewMemoryChannel()
	m := testManager(t, map[string]channel.Channel{"mem": mem})

	base := Notification{
		TriggerTime: time.Now().Add(-time.Minute),
		Title:       "Standup",
		DedupKey:    "cal_2026-03-10_standup_start_15",
		Channels:    []string{"mem"},
	}
	m.Schedule(base)
	m.Tick(time.Now())

	// Re-scheduling the same dedup_key (as a full calendar resync would)
	// after it has already sent must not create a second pending entry.
	m.Schedule(base)
	m.Tick(time.Now())

	if len(mem.Deliveries()) != 1 {
		t.Fatalf("deliveries = %d, want 1 (dedup_key must prevent a second send)", len(mem.Deliveries()))
	}
}

func TestChannelFailureRetainsPending(t *testing.T) {
	mem := channel.NewMemoryChannel()
	mem.FailNext()
	m := testManager(t, map[string]channel.Channel{"mem": mem})

	m.Schedule(Notification{
		TriggerTime: time.Now().Add(-time.Minute),
		Channels:    []string{"mem"},
	})
	m.Tick(time.Now())

	if len(m.Pending()) != 1 {
		t.Fatal("expected notification to remain pending after channel failure")
	}

	m.Tick(time.Now()) // retry succeeds this time
	if len(m.Pending()) != 0 {
		t.Fatal("expected notification to be delivered on retry")
	}
}

func TestRecurringNotificationReschedules(t *testing.T) {
	mem := channel.NewMemoryChannel()
	m := testManager(t, map[string]channel.Channel{"mem": mem})

	first := time.Now().Add(-time.Minute)
	m.Schedule(Notification{
		TriggerTime: first,
		Channels:    []string{"mem"},
		Recurrence:  Recurrence{Kind: RecurDaily},
	})
	m.Tick(time.Now())

	pending := m.Pending()
	if len(pending) != 1 {
		t.Fatalf("pending after recurring fire = %d, want 1", len(pending))
	}
	if !pending[0].TriggerTime.After(first) {
		t.Fatalf("rescheduled trigger_time %v is not after original %v", pending[0].TriggerTime, first)
	}
}

func TestCancelRemovesPending(t *testing.T) {
	m := testManager(t, nil)
	n := m.Schedule(Notification{TriggerTime: time.Now().Add(time.Hour)})
	if err := m.Cancel(n.ID); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if len(m.Pending()) != 0 {
		t.Fatal("expected no pending notifications after cancel")
	}
}

func TestCancelUnknownIDReturnsNotFound(t *testing.T) {
	m := testManager(t, nil)
	if err := m.Cancel("does-not-exist"); err == nil {
		t.Fatal("expected error cancelling an unknown id")
	}
}

func TestSnoozeMovesTriggerTimeForward(t *testing.T) {
	m := testManager(t, nil)
	n := m.Schedule(Notification{TriggerTime: time.Now().Add(time.Hour)})

	snoozed, err := m.Snooze(n.ID, 10)
	if err != nil {
		t.Fatalf("Snooze() error = %v", err)
	}
	if !snoozed.TriggerTime.After(time.Now().Add(9 * time.Minute)) {
		t.Fatalf("snoozed trigger_time %v is not ~10 minutes out", snoozed.TriggerTime)
	}
	if snoozed.ID == n.ID {
		t.Fatal("expected snooze to assign a fresh id (cancel + reschedule)")
	}
}
