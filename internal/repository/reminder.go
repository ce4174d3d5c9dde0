package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"famcare/internal/database"
	"famcare/internal/models"
)

// claimLease is how long a delivery claim stays exclusive. A claim not
// finished within the lease (crashed process) expires and the
// occurrence becomes sweepable again.
const claimLease = 2 * time.Minute

type ReminderRepository struct {
	db *database.DB
}

func NewReminderRepository(db *database.DB) *ReminderRepository {
	return &ReminderRepository{db: db}
}

const reminderColumns = `reminder_id, owner_id, member_id, title, description, category, frequency,
	 options, next_run_at, active, meta, last_triggered_at, claimed_at, created_at, deleted_at`

func scanReminder(row pgx.Row) (*models.Reminder, error) {
	reminder := &models.Reminder{}
	err := row.Scan(&reminder.ID, &reminder.OwnerID, &reminder.MemberID, &reminder.Title,
		&reminder.Description, &reminder.Category, &reminder.Frequency, &reminder.Options,
		&reminder.NextRunAt, &reminder.Active, &reminder.Meta, &reminder.LastTriggeredAt,
		&reminder.ClaimedAt, &reminder.CreatedAt, &reminder.DeletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return reminder, nil
}

func (r *ReminderRepository) Create(ctx context.Context, reminder *models.Reminder) error {
	if reminder.ID == uuid.Nil {
		reminder.ID = uuid.New()
	}
	if reminder.Meta == nil {
		reminder.Meta = map[string]any{}
	}
	return r.db.Pool.QueryRow(ctx,
		`INSERT INTO reminders (reminder_id, owner_id, member_id, title, description, category, frequency,
		 options, next_run_at, active, meta)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING created_at`,
		reminder.ID, reminder.OwnerID, reminder.MemberID, reminder.Title, reminder.Description,
		reminder.Category, reminder.Frequency, reminder.Options, reminder.NextRunAt,
		reminder.Active, reminder.Meta,
	).Scan(&reminder.CreatedAt)
}

func (r *ReminderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Reminder, error) {
	return scanReminder(r.db.Pool.QueryRow(ctx,
		`SELECT `+reminderColumns+` FROM reminders WHERE reminder_id = $1`,
		id,
	))
}

func (r *ReminderRepository) GetByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Reminder, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+reminderColumns+` FROM reminders
		 WHERE owner_id = $1 AND deleted_at IS NULL
		 ORDER BY next_run_at ASC`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reminders []*models.Reminder
	for rows.Next() {
		reminder, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, reminder)
	}
	return reminders, rows.Err()
}

func (r *ReminderRepository) Update(ctx context.Context, reminder *models.Reminder) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE reminders SET title = $1, description = $2, category = $3, frequency = $4,
		 options = $5, next_run_at = $6, active = $7, meta = $8, member_id = $9
		 WHERE reminder_id = $10 AND owner_id = $11 AND deleted_at IS NULL`,
		reminder.Title, reminder.Description, reminder.Category, reminder.Frequency,
		reminder.Options, reminder.NextRunAt, reminder.Active, reminder.Meta, reminder.MemberID,
		reminder.ID, reminder.OwnerID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// SoftDelete marks the reminder deleted. It disappears from due sweeps
// and owner listings but stays recoverable via Restore.
func (r *ReminderRepository) SoftDelete(ctx context.Context, id, ownerID uuid.UUID, now time.Time) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE reminders SET deleted_at = $1 WHERE reminder_id = $2 AND owner_id = $3 AND deleted_at IS NULL`,
		now, id, ownerID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *ReminderRepository) Restore(ctx context.Context, id, ownerID uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE reminders SET deleted_at = NULL WHERE reminder_id = $1 AND owner_id = $2 AND deleted_at IS NOT NULL`,
		id, ownerID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *ReminderRepository) HardDelete(ctx context.Context, id, ownerID uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM reminders WHERE reminder_id = $1 AND owner_id = $2`,
		id, ownerID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// FindDue returns active, non-deleted reminders due at or before now,
// oldest first, skipping occurrences another claimant is still working
// on.
func (r *ReminderRepository) FindDue(ctx context.Context, now time.Time, limit int) ([]*models.Reminder, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+reminderColumns+` FROM reminders
		 WHERE active = true AND deleted_at IS NULL AND next_run_at <= $1
		   AND (claimed_at IS NULL OR claimed_at < $2)
		 ORDER BY next_run_at ASC
		 LIMIT $3`,
		now, now.Add(-claimLease), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reminders []*models.Reminder
	for rows.Next() {
		reminder, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, reminder)
	}
	return reminders, rows.Err()
}

// Claim atomically takes ownership of the reminder's current
// occurrence. The guard is optimistic: the row must still be active,
// not deleted, carry the next_run_at the caller read, and hold no live
// lease. Exactly one of any set of concurrent callers wins.
func (r *ReminderRepository) Claim(ctx context.Context, id uuid.UUID, expectedNextRunAt, now time.Time) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE reminders SET claimed_at = $1
		 WHERE reminder_id = $2 AND next_run_at = $3 AND active = true AND deleted_at IS NULL
		   AND (claimed_at IS NULL OR claimed_at < $4)`,
		now, id, expectedNextRunAt, now.Add(-claimLease),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// FinishClaim persists the post-delivery state and releases the lease.
// Only the claim holder calls this.
func (r *ReminderRepository) FinishClaim(ctx context.Context, id uuid.UUID, nextRunAt time.Time, active bool, triggeredAt time.Time) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE reminders SET next_run_at = $1, active = $2, last_triggered_at = $3, claimed_at = NULL
		 WHERE reminder_id = $4`,
		nextRunAt, active, triggeredAt, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
