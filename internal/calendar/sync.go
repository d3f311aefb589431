// Package calendar converts already-parsed calendar entries into candidate
// scheduled notifications. It owns no rendering or file-format concern —
// the line/attribute grammar is parsed upstream; this package only ever
// sees Entry values.
package calendar

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/zortex-io/zortex-core/internal/notify"
)

// NotifySpec is an entry's `notify` attribute: either explicitly disabled,
// or a list of advance-minute values (an empty list means "use the
// configured default advance").
type NotifySpec struct {
	Disabled bool
	Advances []int
}

// Entry is one parsed calendar line for a given date.
type Entry struct {
	Date    time.Time // date-only, local
	Text    string
	From    *time.Time // set for "HH:MM - HH:MM text"
	To      *time.Time
	At      *time.Time // set for "HH:MM text"
	Notify  NotifySpec
	Channels []string
}

// Sync is the calendar-to-notification collaborator: it has no persisted
// state of its own and performs no I/O.
type Sync struct {
	defaultAdvanceMinutes int
}

// NewSync builds a Sync using defaultAdvanceMinutes whenever an entry's
// notify attribute supplies no explicit advance values.
func NewSync(defaultAdvanceMinutes int) *Sync {
	return &Sync{defaultAdvanceMinutes: defaultAdvanceMinutes}
}

var slugNonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(s string) string {
	s = strings.ToLower(s)
	s = slugNonAlnum.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// eventTime is one named instant on an entry worth notifying about: "start"
// (From, or At if the entry has no range) and "end" (To), when distinct.
type eventTime struct {
	label string
	at    time.Time
}

func (e Entry) eventTimes() []eventTime {
	var times []eventTime
	switch {
	case e.From != nil:
		times = append(times, eventTime{"start", *e.From})
		if e.To != nil && !e.To.Equal(*e.From) {
			times = append(times, eventTime{"end", *e.To})
		}
	case e.At != nil:
		times = append(times, eventTime{"start", *e.At})
	}
	return times
}

// Convert produces the candidate notifications for a single entry. Each
// distinct (event time, advance minute) pair yields one notification with a
// stable dedup_key, so re-running Convert across a full resync never
// produces a duplicate pending entry once Manager.Schedule reconciles it.
func (s *Sync) Convert(e Entry) []notify.Notification {
	if e.Notify.Disabled {
		return nil
	}

	advances := e.Notify.Advances
	if len(advances) == 0 {
		advances = []int{s.defaultAdvanceMinutes}
	}

	dateKey := e.Date.Format("2006-01-02")
	textSlug := slugify(e.Text)

	var out []notify.Notification
	for _, et := range e.eventTimes() {
		for _, advance := range advances {
			dedupKey := fmt.Sprintf("cal_%s_%s_%s_%d", dateKey, textSlug, et.label, advance)
			out = append(out, notify.Notification{
				TriggerTime: et.at.Add(-time.Duration(advance) * time.Minute),
				Title:       e.Text,
				Message:     fmt.Sprintf("%s at %s", e.Text, et.at.Format("15:04")),
				Type:        notify.KindCalendar,
				DedupKey:    dedupKey,
				Channels:    e.Channels,
				Source: notify.SourceMeta{
					EntryText:      e.Text,
					EventType:      et.label,
					AdvanceMinutes: advance,
				},
			})
		}
	}
	return out
}

// ConvertAll converts every entry, flattening the results.
func (s *Sync) ConvertAll(entries []Entry) []notify.Notification {
	var out []notify.Notification
	for _, e := range entries {
		out = append(out, s.Convert(e)...)
	}
	return out
}
