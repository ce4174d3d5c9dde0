package models

import (
	"time"

	"github.com/google/uuid"
)

// PushSubscription is a user's Web Push descriptor. Each user has at
// most one; saving a new one replaces the previous browser's keys.
type PushSubscription struct {
	UserID    uuid.UUID `json:"user_id"`
	Endpoint  string    `json:"endpoint"`
	P256dh    string    `json:"p256dh"`
	Auth      string    `json:"auth"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
