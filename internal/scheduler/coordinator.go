// Package scheduler discovers due reminders and runs each one through
// the claim → deliver → reschedule transition.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"famcare/internal/logger"
	"famcare/internal/models"
	"famcare/internal/notify"
	"famcare/internal/recurrence"
)

// ReminderStore is the persistence surface the engine needs. Claim must
// be an atomic compare-and-set: it succeeds for exactly one caller when
// the reminder is still active, not soft-deleted, carries the expected
// next_run_at and holds no live claim lease.
type ReminderStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Reminder, error)
	FindDue(ctx context.Context, now time.Time, limit int) ([]*models.Reminder, error)
	Claim(ctx context.Context, id uuid.UUID, expectedNextRunAt time.Time, now time.Time) (bool, error)
	FinishClaim(ctx context.Context, id uuid.UUID, nextRunAt time.Time, active bool, triggeredAt time.Time) error
}

type Dispatcher interface {
	Send(ctx context.Context, userID uuid.UUID, title, body string) notify.Outcome
}

// TriggerResult reports what happened to one reminder occurrence.
type TriggerResult struct {
	Claimed     bool       `json:"claimed"`
	Delivered   bool       `json:"delivered"`
	Rescheduled bool       `json:"rescheduled"`
	NextRunAt   *time.Time `json:"next_run_at,omitempty"`
}

// Coordinator owns the Scheduled → Claimed → Rescheduled|Retired state
// machine. The periodic scanner and manual trigger requests both enter
// through it, so the claim is the only way a reminder's next_run_at and
// active flag ever change during delivery.
type Coordinator struct {
	store      ReminderStore
	dispatcher Dispatcher
	clock      Clock
	log        zerolog.Logger
}

func NewCoordinator(store ReminderStore, dispatcher Dispatcher, clock Clock) *Coordinator {
	return &Coordinator{
		store:      store,
		dispatcher: dispatcher,
		clock:      clock,
		log:        logger.New("coordinator"),
	}
}

// Trigger forces a delivery cycle for one reminder regardless of
// whether it is due. It goes through the same claim as the sweep, so a
// manual request can never double-process an occurrence the scanner is
// already handling.
func (c *Coordinator) Trigger(ctx context.Context, id uuid.UUID) (TriggerResult, error) {
	reminder, err := c.store.GetByID(ctx, id)
	if err != nil {
		return TriggerResult{}, err
	}
	return c.Process(ctx, reminder)
}

// Process claims the reminder's current occurrence, delivers it and
// persists the reschedule or retirement. Losing the claim race is a
// normal no-op: the zero TriggerResult is returned with no error and no
// delivery is attempted.
//
// The reschedule is persisted after the delivery attempt. A crash in
// between leaves a claim lease that expires and the occurrence is
// swept again, so delivery is at-least-once, never silently dropped.
func (c *Coordinator) Process(ctx context.Context, reminder *models.Reminder) (TriggerResult, error) {
	now := c.clock.Now()

	claimed, err := c.store.Claim(ctx, reminder.ID, reminder.NextRunAt, now)
	if err != nil {
		return TriggerResult{}, fmt.Errorf("failed to claim reminder %s: %w", reminder.ID, err)
	}
	if !claimed {
		// Another caller owns this occurrence, or the reminder was
		// deactivated or deleted since it was read.
		c.log.Debug().
			Str("reminder_id", reminder.ID.String()).
			Msg("Claim lost, skipping")
		return TriggerResult{}, nil
	}

	outcome := c.dispatcher.Send(ctx, reminder.OwnerID,
		"⏰ "+reminder.Title,
		fmt.Sprintf("It's time for your %s reminder", reminder.Category),
	)

	// The reschedule decision is about the schedule, not about
	// delivery: a user with no working subscription still needs the
	// cycle to advance.
	next := recurrence.Next(reminder.NextRunAt, reminder.Frequency, reminder.Options)
	active := reminder.Frequency.Recurring() && next.After(reminder.NextRunAt)
	if !active {
		// Terminal: "once", unknown frequencies and exhausted rules
		// retire instead of re-queueing forever.
		next = reminder.NextRunAt
	}

	if err := c.store.FinishClaim(ctx, reminder.ID, next, active, now); err != nil {
		return TriggerResult{}, fmt.Errorf("failed to persist reminder %s after delivery: %w", reminder.ID, err)
	}

	result := TriggerResult{
		Claimed:     true,
		Delivered:   outcome == notify.OutcomeDelivered,
		Rescheduled: active,
	}
	if active {
		result.NextRunAt = &next
	}

	c.log.Info().
		Str("reminder_id", reminder.ID.String()).
		Str("outcome", outcome.String()).
		Bool("rescheduled", active).
		Time("next_run_at", next).
		Msg("Processed reminder")

	return result, nil
}
