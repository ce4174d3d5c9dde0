package recurrence

import (
	"testing"
	"time"

	"famcare/internal/models"
)

func intPtr(n int) *int { return &n }

func date(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func TestNextFrequencies(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		anchor    time.Time
		frequency models.Frequency
		opts      models.Options
		want      time.Time
	}{
		{
			name:      "daily",
			anchor:    date(2024, time.March, 10, 8, 30),
			frequency: models.FrequencyDaily,
			want:      date(2024, time.March, 11, 8, 30),
		},
		{
			name:      "daily normalizes clock time",
			anchor:    time.Date(2024, time.March, 10, 14, 52, 33, 128, time.UTC),
			frequency: models.FrequencyDaily,
			opts:      models.Options{Time: "09:00"},
			want:      date(2024, time.March, 11, 9, 0),
		},
		{
			name:      "weekly without target keeps weekday",
			anchor:    date(2024, time.March, 13, 9, 0), // Wednesday
			frequency: models.FrequencyWeekly,
			want:      date(2024, time.March, 20, 9, 0),
		},
		{
			name:      "weekly same-day target is next week not today",
			anchor:    date(2024, time.March, 13, 9, 0), // Wednesday
			frequency: models.FrequencyWeekly,
			opts:      models.Options{Weekday: intPtr(3)}, // Wednesday
			want:      date(2024, time.March, 20, 9, 0),
		},
		{
			name:      "weekly forward delta",
			anchor:    date(2024, time.March, 13, 9, 0), // Wednesday
			frequency: models.FrequencyWeekly,
			opts:      models.Options{Weekday: intPtr(5)}, // Friday
			want:      date(2024, time.March, 15, 9, 0),
		},
		{
			name:      "weekly wraps around the week",
			anchor:    date(2024, time.March, 13, 9, 0), // Wednesday
			frequency: models.FrequencyWeekly,
			opts:      models.Options{Weekday: intPtr(1)}, // Monday
			want:      date(2024, time.March, 18, 9, 0),
		},
		{
			name:      "monthly clamps to non-leap february",
			anchor:    date(2023, time.January, 31, 9, 0),
			frequency: models.FrequencyMonthly,
			want:      date(2023, time.February, 28, 9, 0),
		},
		{
			name:      "monthly clamps to leap february",
			anchor:    date(2024, time.January, 31, 9, 0),
			frequency: models.FrequencyMonthly,
			want:      date(2024, time.February, 29, 9, 0),
		},
		{
			name:      "monthly target day of month",
			anchor:    date(2024, time.March, 3, 9, 0),
			frequency: models.FrequencyMonthly,
			opts:      models.Options{DayOfMonth: intPtr(15)},
			want:      date(2024, time.April, 15, 9, 0),
		},
		{
			name:      "monthly december rolls into january",
			anchor:    date(2024, time.December, 31, 9, 0),
			frequency: models.FrequencyMonthly,
			want:      date(2025, time.January, 31, 9, 0),
		},
		{
			name:      "yearly",
			anchor:    date(2024, time.June, 5, 9, 0),
			frequency: models.FrequencyYearly,
			want:      date(2025, time.June, 5, 9, 0),
		},
		{
			name:      "yearly clamps feb 29 to feb 28",
			anchor:    date(2024, time.February, 29, 9, 0),
			frequency: models.FrequencyYearly,
			want:      date(2025, time.February, 28, 9, 0),
		},
		{
			name:      "once returns anchor unchanged",
			anchor:    date(2024, time.March, 10, 8, 30),
			frequency: models.FrequencyOnce,
			want:      date(2024, time.March, 10, 8, 30),
		},
		{
			name:      "unknown frequency behaves like once",
			anchor:    date(2024, time.March, 10, 8, 30),
			frequency: models.Frequency("fortnightly"),
			want:      date(2024, time.March, 10, 8, 30),
		},
		{
			name:      "invalid time option is ignored",
			anchor:    date(2024, time.March, 10, 8, 30),
			frequency: models.FrequencyDaily,
			opts:      models.Options{Time: "morning"},
			want:      date(2024, time.March, 11, 8, 30),
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got := Next(tt.anchor, tt.frequency, tt.opts)
			if !got.Equal(tt.want) {
				t.Fatalf("Next() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNextStrictlyAdvancesRecurring(t *testing.T) {
	t.Parallel()
	anchors := []time.Time{
		date(2023, time.January, 31, 9, 0),
		date(2024, time.February, 29, 23, 59),
		date(2024, time.December, 31, 0, 0),
		time.Date(2024, time.July, 4, 12, 0, 59, 999, time.UTC),
	}
	frequencies := []models.Frequency{
		models.FrequencyDaily,
		models.FrequencyWeekly,
		models.FrequencyMonthly,
		models.FrequencyYearly,
	}

	for _, anchor := range anchors {
		for _, freq := range frequencies {
			if got := Next(anchor, freq, models.Options{}); !got.After(anchor) {
				t.Errorf("Next(%v, %s) = %v, not strictly after anchor", anchor, freq, got)
			}
		}
	}
}

func TestNextRRuleOverride(t *testing.T) {
	t.Parallel()
	anchor := date(2024, time.March, 13, 9, 0) // Wednesday

	// Every Monday and Thursday: next from Wednesday is Thursday.
	got := Next(anchor, models.FrequencyWeekly, models.Options{
		RRule: "FREQ=WEEKLY;BYDAY=MO,TH",
	})
	if got.Weekday() != time.Thursday {
		t.Fatalf("expected Thursday, got %v (%v)", got.Weekday(), got)
	}
	if !got.After(anchor) {
		t.Fatalf("rrule result %v not after anchor %v", got, anchor)
	}
}

func TestNextRRuleFallbacks(t *testing.T) {
	t.Parallel()
	anchor := date(2024, time.March, 13, 9, 0)

	// Garbage rule degrades to plain daily arithmetic.
	got := Next(anchor, models.FrequencyDaily, models.Options{RRule: "FREQ=BOGUS"})
	if want := date(2024, time.March, 14, 9, 0); !got.Equal(want) {
		t.Fatalf("unparseable rrule: got %v, want %v", got, want)
	}

	// Exhausted rule (COUNT already consumed) also degrades.
	got = Next(anchor, models.FrequencyDaily, models.Options{RRule: "FREQ=DAILY;COUNT=1"})
	if want := date(2024, time.March, 14, 9, 0); !got.Equal(want) {
		t.Fatalf("exhausted rrule: got %v, want %v", got, want)
	}
}
