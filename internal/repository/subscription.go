package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"famcare/internal/database"
	"famcare/internal/models"
)

type SubscriptionRepository struct {
	db *database.DB
}

func NewSubscriptionRepository(db *database.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// Save stores the user's push descriptor, replacing any previous one.
func (r *SubscriptionRepository) Save(ctx context.Context, sub *models.PushSubscription) error {
	return r.db.Pool.QueryRow(ctx,
		`INSERT INTO push_subscriptions (user_id, endpoint, p256dh, auth)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id) DO UPDATE
		 SET endpoint = EXCLUDED.endpoint, p256dh = EXCLUDED.p256dh, auth = EXCLUDED.auth,
		     updated_at = now()
		 RETURNING created_at, updated_at`,
		sub.UserID, sub.Endpoint, sub.P256dh, sub.Auth,
	).Scan(&sub.CreatedAt, &sub.UpdatedAt)
}

// Get returns nil without error when the user has no subscription.
func (r *SubscriptionRepository) Get(ctx context.Context, userID uuid.UUID) (*models.PushSubscription, error) {
	sub := &models.PushSubscription{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT user_id, endpoint, p256dh, auth, created_at, updated_at
		 FROM push_subscriptions WHERE user_id = $1`,
		userID,
	).Scan(&sub.UserID, &sub.Endpoint, &sub.P256dh, &sub.Auth, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return sub, nil
}

func (r *SubscriptionRepository) Clear(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.Pool.Exec(ctx,
		`DELETE FROM push_subscriptions WHERE user_id = $1`,
		userID,
	)
	return err
}
