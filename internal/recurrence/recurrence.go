// Package recurrence computes the next occurrence of a reminder. It is
// pure calendar arithmetic: no storage, no clock, no side effects.
package recurrence

import (
	"time"

	"famcare/internal/models"
)

// Next returns the occurrence following anchor for the given frequency
// and options. It never fails: an unknown frequency, like "once",
// returns anchor unchanged and the caller is expected to retire the
// reminder instead of rescheduling it.
//
// When options.Time is set, the anchor's clock time is overwritten with
// it (seconds zeroed) before the frequency arithmetic, so every
// occurrence lands on the configured clock time.
func Next(anchor time.Time, frequency models.Frequency, opts models.Options) time.Time {
	if opts.RRule != "" && frequency.Recurring() {
		if next, ok := nextFromRRule(opts.RRule, anchor); ok {
			return next
		}
		// Unparseable or exhausted rule: fall back to the plain
		// frequency arithmetic below.
	}

	anchor = applyClockTime(anchor, opts.Time)

	switch frequency {
	case models.FrequencyDaily:
		return anchor.AddDate(0, 0, 1)

	case models.FrequencyWeekly:
		target := int(anchor.Weekday())
		if opts.Weekday != nil {
			target = *opts.Weekday
		}
		delta := (target - int(anchor.Weekday()) + 7) % 7
		if delta == 0 {
			// Same weekday means next week, never today.
			delta = 7
		}
		return anchor.AddDate(0, 0, delta)

	case models.FrequencyMonthly:
		day := anchor.Day()
		if opts.DayOfMonth != nil {
			day = *opts.DayOfMonth
		}
		return addMonthClamped(anchor, day)

	case models.FrequencyYearly:
		year := anchor.Year() + 1
		day := min(anchor.Day(), daysInMonth(year, anchor.Month()))
		return time.Date(year, anchor.Month(), day,
			anchor.Hour(), anchor.Minute(), 0, 0, anchor.Location())

	default:
		// "once" and anything unrecognized are terminal.
		return anchor
	}
}

// applyClockTime overwrites the hour and minute of t with the "HH:MM"
// value, zeroing seconds. An empty or unparseable value leaves t's
// clock time intact (seconds still zeroed so occurrences stay on whole
// minutes).
func applyClockTime(t time.Time, clock string) time.Time {
	hour, minute := t.Hour(), t.Minute()
	if clock != "" {
		if parsed, err := time.Parse("15:04", clock); err == nil {
			hour, minute = parsed.Hour(), parsed.Minute()
		}
	}
	return time.Date(t.Year(), t.Month(), t.Day(), hour, minute, 0, 0, t.Location())
}

// addMonthClamped advances t by one month targeting the given
// day-of-month, clamped to the length of the resulting month
// (Jan 31 -> Feb 28, or Feb 29 in leap years).
func addMonthClamped(t time.Time, day int) time.Time {
	year, month := t.Year(), t.Month()+1
	if month > time.December {
		year, month = year+1, time.January
	}
	return time.Date(year, month, min(day, daysInMonth(year, month)),
		t.Hour(), t.Minute(), 0, 0, t.Location())
}

func daysInMonth(year int, month time.Month) int {
	// Day zero of the following month is this month's last day.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
