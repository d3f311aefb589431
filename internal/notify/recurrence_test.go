package notify

import (
	"testing"
	"time"
)

func TestNextDailyAdvancesOneDay(t *testing.T) {
	t0 := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	got := Next(t0, Recurrence{Kind: RecurDaily})
	want := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("Next(daily) = %v, want %v", got, want)
	}
}

func TestNextMonthlyClampsToMonthEnd(t *testing.T) {
	t0 := time.Date(2026, 1, 31, 8, 0, 0, 0, time.UTC)
	got := Next(t0, Recurrence{Kind: RecurMonthly})
	want := time.Date(2026, 2, 28, 8, 0, 0, 0, time.UTC) // 2026 is not a leap year
	if !got.Equal(want) {
		t.Fatalf("Next(monthly) from Jan 31 = %v, want %v", got, want)
	}
}

func TestNextYearlyLeapDayCollapses(t *testing.T) {
	t0 := time.Date(2024, 2, 29, 10, 0, 0, 0, time.UTC) // 2024 is a leap year
	got := Next(t0, Recurrence{Kind: RecurYearly})
	want := time.Date(2025, 2, 28, 10, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("Next(yearly) from leap day = %v, want %v", got, want)
	}
}

func TestNextWeekdaysSkipsWeekend(t *testing.T) {
	friday := time.Date(2026, 3, 13, 9, 0, 0, 0, time.UTC) // a Friday
	got := Next(friday, Recurrence{Kind: RecurWeekdays})
	if got.Weekday() != time.Monday {
		t.Fatalf("Next(weekdays) from Friday landed on %v, want Monday", got.Weekday())
	}
}

func TestNextWeekendsSkipsWeekdays(t *testing.T) {
	sunday := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	got := Next(sunday, Recurrence{Kind: RecurWeekends})
	if got.Weekday() != time.Saturday {
		t.Fatalf("Next(weekends) from Sunday landed on %v, want Saturday", got.Weekday())
	}
}

func TestNextCustomDaySet(t *testing.T) {
	monday := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)
	rule := Recurrence{Kind: RecurCustom, Days: []time.Weekday{time.Wednesday, time.Friday}}
	got := Next(monday, rule)
	if got.Weekday() != time.Wednesday {
		t.Fatalf("Next(custom) from Monday landed on %v, want Wednesday", got.Weekday())
	}
}
