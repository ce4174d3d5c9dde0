// Package notify delivers reminder notifications over Web Push and
// applies the subscription-invalidation policy.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"famcare/internal/logger"
	"famcare/internal/models"
)

// ErrSubscriptionGone is returned by a Transport when the push service
// reports the descriptor permanently invalid (HTTP 410 or 404).
var ErrSubscriptionGone = errors.New("push subscription no longer valid")

type Outcome int

const (
	// OutcomeDelivered means the push service accepted the payload.
	OutcomeDelivered Outcome = iota
	// OutcomeSkipped means the user has no subscription; not an error.
	OutcomeSkipped
	// OutcomeFailedTransient leaves the subscription intact; the next
	// natural occurrence is the only retry opportunity.
	OutcomeFailedTransient
	// OutcomeFailedPermanent means the subscription was invalidated
	// and has been cleared; nothing is deliverable until the user
	// subscribes again.
	OutcomeFailedPermanent
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDelivered:
		return "delivered"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailedTransient:
		return "failed_transient"
	case OutcomeFailedPermanent:
		return "failed_permanent"
	}
	return "unknown"
}

// Payload is what a subscribed browser receives.
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type SubscriptionStore interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.PushSubscription, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type Transport interface {
	Send(ctx context.Context, sub *models.PushSubscription, payload Payload) error
}

type Dispatcher struct {
	subscriptions SubscriptionStore
	transport     Transport
	timeout       time.Duration
	log           zerolog.Logger
}

func NewDispatcher(subscriptions SubscriptionStore, transport Transport, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		subscriptions: subscriptions,
		transport:     transport,
		timeout:       timeout,
		log:           logger.New("dispatcher"),
	}
}

// Send pushes a notification to the user's subscribed browser. It never
// returns an error: delivery problems are folded into the Outcome so
// the caller's reschedule decision stays independent of transport
// health.
func (d *Dispatcher) Send(ctx context.Context, userID uuid.UUID, title, body string) Outcome {
	sub, err := d.subscriptions.Get(ctx, userID)
	if err != nil {
		d.log.Err(err).
			Str("user_id", userID.String()).
			Msg("Failed to load push subscription")
		return OutcomeFailedTransient
	}
	if sub == nil {
		return OutcomeSkipped
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	err = d.transport.Send(sendCtx, sub, Payload{Title: title, Body: body})
	if err == nil {
		return OutcomeDelivered
	}

	if errors.Is(err, ErrSubscriptionGone) {
		d.log.Info().
			Str("user_id", userID.String()).
			Msg("Removing invalid push subscription")
		if clearErr := d.subscriptions.Clear(ctx, userID); clearErr != nil {
			d.log.Err(clearErr).
				Str("user_id", userID.String()).
				Msg("Failed to clear push subscription")
		}
		return OutcomeFailedPermanent
	}

	d.log.Err(err).
		Str("user_id", userID.String()).
		Msg("Push delivery failed")
	return OutcomeFailedTransient
}
