package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"famcare/internal/logger"
)

// ScannerOptions configures the sweep cadence. CronSpec, when set,
// replaces the fixed interval — e.g. "0 7 * * *" to sweep once a day
// at 07:00 instead of every minute.
type ScannerOptions struct {
	Interval  time.Duration
	CronSpec  string
	BatchSize int
}

// Scanner periodically queries for due reminders and hands each one to
// the coordinator. It holds no timers until Start is called; stopping
// is cancelling the Start context.
type Scanner struct {
	store       ReminderStore
	coordinator *Coordinator
	clock       Clock
	interval    time.Duration
	schedule    cron.Schedule
	batchSize   int
	notifyCh    chan struct{}
	log         zerolog.Logger
}

func NewScanner(store ReminderStore, coordinator *Coordinator, clock Clock, opts ScannerOptions) (*Scanner, error) {
	if opts.Interval <= 0 {
		opts.Interval = time.Minute
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 200
	}

	s := &Scanner{
		store:       store,
		coordinator: coordinator,
		clock:       clock,
		interval:    opts.Interval,
		batchSize:   opts.BatchSize,
		notifyCh:    make(chan struct{}, 1),
		log:         logger.New("scanner"),
	}

	if opts.CronSpec != "" {
		schedule, err := cron.ParseStandard(opts.CronSpec)
		if err != nil {
			return nil, fmt.Errorf("invalid scan cron spec %q: %w", opts.CronSpec, err)
		}
		s.schedule = schedule
	}

	return s, nil
}

// Notify triggers an immediate sweep. Non-blocking if one is already pending.
func (s *Scanner) Notify() {
	select {
	case s.notifyCh <- struct{}{}:
	default:
		// A sweep is already pending, skip
	}
}

// Start runs sweeps until ctx is cancelled. Call from its own goroutine.
func (s *Scanner) Start(ctx context.Context) {
	if s.schedule != nil {
		s.log.Info().Msg("Scanner started (cron cadence)")
		s.runCron(ctx)
	} else {
		s.log.Info().Dur("interval", s.interval).Msg("Scanner started")
		s.runInterval(ctx)
	}
	s.log.Info().Msg("Scanner stopped")
}

func (s *Scanner) runInterval(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		case <-s.notifyCh:
			s.Sweep(ctx)
		}
	}
}

func (s *Scanner) runCron(ctx context.Context) {
	for {
		now := s.clock.Now()
		timer := time.NewTimer(s.schedule.Next(now).Sub(now))

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.Sweep(ctx)
		case <-s.notifyCh:
			timer.Stop()
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one due-reminder pass. A store error aborts the whole
// sweep (retried on the next tick); a failure on one reminder is logged
// and the rest of the batch continues.
func (s *Scanner) Sweep(ctx context.Context) {
	now := s.clock.Now()

	due, err := s.store.FindDue(ctx, now, s.batchSize)
	if err != nil {
		s.log.Err(err).Msg("Failed to query due reminders, aborting sweep")
		return
	}
	if len(due) == 0 {
		return
	}

	s.log.Debug().Int("count", len(due)).Msg("Processing due reminders")

	for _, reminder := range due {
		if ctx.Err() != nil {
			return
		}
		if _, err := s.coordinator.Process(ctx, reminder); err != nil {
			s.log.Err(err).
				Str("reminder_id", reminder.ID.String()).
				Msg("Failed to process reminder")
		}
	}
}
