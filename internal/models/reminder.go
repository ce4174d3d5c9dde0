package models

import (
	"time"

	"github.com/google/uuid"
)

type Category string

const (
	CategoryMedicine    Category = "medicine"
	CategoryVaccination Category = "vaccination"
	CategoryCheckup     Category = "checkup"
	CategoryCustom      Category = "custom"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryMedicine, CategoryVaccination, CategoryCheckup, CategoryCustom:
		return true
	}
	return false
}

type Frequency string

const (
	FrequencyOnce    Frequency = "once"
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// Recurring reports whether f produces further occurrences after a
// delivery. Unknown values behave like "once".
func (f Frequency) Recurring() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	}
	return false
}

// Options tunes how the next occurrence of a reminder is computed.
type Options struct {
	Weekday    *int   `json:"weekday,omitempty"`      // 0 = Sunday .. 6 = Saturday
	DayOfMonth *int   `json:"day_of_month,omitempty"` // 1..31, clamped to month length
	Time       string `json:"time,omitempty"`         // "HH:MM" clock time for every occurrence
	RRule      string `json:"rrule,omitempty"`        // RFC 5545 RRULE, overrides frequency arithmetic
}

type Reminder struct {
	ID              uuid.UUID      `json:"reminder_id"`
	OwnerID         uuid.UUID      `json:"owner_id"`
	MemberID        *uuid.UUID     `json:"member_id,omitempty"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	Category        Category       `json:"category"`
	Frequency       Frequency      `json:"frequency"`
	Options         Options        `json:"options"`
	NextRunAt       time.Time      `json:"next_run_at"` // sole authority for due-ness
	Active          bool           `json:"active"`
	Meta            map[string]any `json:"meta,omitempty"`
	LastTriggeredAt *time.Time     `json:"last_triggered_at,omitempty"`
	ClaimedAt       *time.Time     `json:"-"` // delivery claim lease, engine internal
	CreatedAt       time.Time      `json:"created_at"`
	DeletedAt       *time.Time     `json:"deleted_at,omitempty"`
}
