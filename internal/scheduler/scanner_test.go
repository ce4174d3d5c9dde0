package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"famcare/internal/models"
	"famcare/internal/notify"
)

func newTestScanner(t *testing.T, store *memoryStore, dispatcher *countingDispatcher, clock Clock) *Scanner {
	t.Helper()
	coord := NewCoordinator(store, dispatcher, clock)
	scanner, err := NewScanner(store, coord, clock, ScannerOptions{BatchSize: 200})
	if err != nil {
		t.Fatalf("NewScanner() error: %v", err)
	}
	return scanner
}

func TestSweepDeliversOnceReminderExactlyOnce(t *testing.T) {
	t.Parallel()
	clock := &fakeClock{now: date(2024, time.March, 10, 12, 0)}
	reminder := testReminder(models.FrequencyOnce, clock.Now().AddDate(0, 0, -1))
	store := newMemoryStore(reminder)
	dispatcher := &countingDispatcher{outcome: notify.OutcomeDelivered}
	scanner := newTestScanner(t, store, dispatcher, clock)

	scanner.Sweep(context.Background())
	if dispatcher.count() != 1 {
		t.Fatalf("deliveries after first sweep = %d, want 1", dispatcher.count())
	}

	// Retired on the first sweep; the next one must not touch it.
	clock.Advance(time.Minute)
	scanner.Sweep(context.Background())
	if dispatcher.count() != 1 {
		t.Fatalf("deliveries after second sweep = %d, want 1", dispatcher.count())
	}
}

func TestSweepSkipsSoftDeletedAndInactive(t *testing.T) {
	t.Parallel()
	clock := &fakeClock{now: date(2024, time.March, 10, 12, 0)}
	overdue := clock.Now().AddDate(0, 0, -30)

	deleted := testReminder(models.FrequencyDaily, overdue)
	deletedAt := clock.Now().Add(-time.Hour)
	deleted.DeletedAt = &deletedAt

	inactive := testReminder(models.FrequencyDaily, overdue)
	inactive.Active = false

	store := newMemoryStore(deleted, inactive)
	dispatcher := &countingDispatcher{outcome: notify.OutcomeDelivered}
	scanner := newTestScanner(t, store, dispatcher, clock)

	scanner.Sweep(context.Background())
	if dispatcher.count() != 0 {
		t.Fatalf("deliveries = %d, want 0 for deleted/inactive reminders", dispatcher.count())
	}
}

func TestSweepIsolatesPerItemFailures(t *testing.T) {
	t.Parallel()
	clock := &fakeClock{now: date(2024, time.March, 10, 12, 0)}
	first := testReminder(models.FrequencyDaily, clock.Now().Add(-2*time.Hour))
	second := testReminder(models.FrequencyDaily, clock.Now().Add(-time.Hour))

	store := newMemoryStore(first, second)
	// The oldest item fails its claim; the batch must still continue.
	store.claimErrFor = map[uuid.UUID]error{first.ID: errors.New("connection reset")}

	dispatcher := &countingDispatcher{outcome: notify.OutcomeDelivered}
	scanner := newTestScanner(t, store, dispatcher, clock)

	scanner.Sweep(context.Background())
	if dispatcher.count() != 1 {
		t.Fatalf("deliveries = %d, want 1 (healthy item processed despite failing sibling)", dispatcher.count())
	}

	store.mu.Lock()
	store.claimErrFor = nil
	store.mu.Unlock()

	scanner.Sweep(context.Background())
	if dispatcher.count() != 2 {
		t.Fatalf("deliveries after recovery = %d, want 2", dispatcher.count())
	}
}

func TestSweepAbortsOnStoreError(t *testing.T) {
	t.Parallel()
	clock := &fakeClock{now: date(2024, time.March, 10, 12, 0)}
	reminder := testReminder(models.FrequencyDaily, clock.Now().Add(-time.Hour))
	store := newMemoryStore(reminder)
	store.findDueErr = errors.New("database unavailable")

	dispatcher := &countingDispatcher{outcome: notify.OutcomeDelivered}
	scanner := newTestScanner(t, store, dispatcher, clock)

	scanner.Sweep(context.Background())
	if dispatcher.count() != 0 {
		t.Fatal("sweep processed items despite a store error")
	}

	// Next tick recovers.
	store.mu.Lock()
	store.findDueErr = nil
	store.mu.Unlock()
	scanner.Sweep(context.Background())
	if dispatcher.count() != 1 {
		t.Fatalf("deliveries after recovery = %d, want 1", dispatcher.count())
	}
}

func TestSweepBoundsBatchSize(t *testing.T) {
	t.Parallel()
	clock := &fakeClock{now: date(2024, time.March, 10, 12, 0)}
	var reminders []*models.Reminder
	for i := 0; i < 5; i++ {
		reminders = append(reminders, testReminder(models.FrequencyOnce, clock.Now().Add(-time.Duration(i+1)*time.Hour)))
	}
	store := newMemoryStore(reminders...)
	dispatcher := &countingDispatcher{outcome: notify.OutcomeDelivered}
	coord := NewCoordinator(store, dispatcher, clock)
	scanner, err := NewScanner(store, coord, clock, ScannerOptions{BatchSize: 2})
	if err != nil {
		t.Fatalf("NewScanner() error: %v", err)
	}

	scanner.Sweep(context.Background())
	if dispatcher.count() != 2 {
		t.Fatalf("deliveries after bounded sweep = %d, want 2", dispatcher.count())
	}

	// The remainder is picked up by subsequent sweeps, oldest first.
	scanner.Sweep(context.Background())
	scanner.Sweep(context.Background())
	if dispatcher.count() != 5 {
		t.Fatalf("deliveries after catch-up sweeps = %d, want 5", dispatcher.count())
	}
}

func TestScannerStartStop(t *testing.T) {
	t.Parallel()
	clock := &fakeClock{now: date(2024, time.March, 10, 12, 0)}
	reminder := testReminder(models.FrequencyOnce, clock.Now().Add(-time.Hour))
	store := newMemoryStore(reminder)
	dispatcher := &countingDispatcher{outcome: notify.OutcomeDelivered}
	coord := NewCoordinator(store, dispatcher, clock)
	scanner, err := NewScanner(store, coord, clock, ScannerOptions{Interval: time.Hour})
	if err != nil {
		t.Fatalf("NewScanner() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		scanner.Start(ctx)
		close(done)
	}()

	// Start performs an immediate sweep before the first tick.
	deadline := time.After(2 * time.Second)
	for dispatcher.count() == 0 {
		select {
		case <-deadline:
			t.Fatal("initial sweep never ran")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scanner did not stop on context cancellation")
	}
}

func TestNewScannerRejectsBadCronSpec(t *testing.T) {
	t.Parallel()
	clock := &fakeClock{now: time.Now()}
	store := newMemoryStore()
	coord := NewCoordinator(store, &countingDispatcher{}, clock)

	if _, err := NewScanner(store, coord, clock, ScannerOptions{CronSpec: "not a cron"}); err == nil {
		t.Fatal("expected error for invalid cron spec")
	}
}
