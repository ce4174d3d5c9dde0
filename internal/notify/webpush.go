package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"famcare/internal/models"
)

// WebPushTransport sends payloads through a Web Push service using
// VAPID authentication.
type WebPushTransport struct {
	subscriber string
	publicKey  string
	privateKey string
	client     *http.Client
}

func NewWebPushTransport(subscriber, publicKey, privateKey string, timeout time.Duration) *WebPushTransport {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebPushTransport{
		subscriber: subscriber,
		publicKey:  publicKey,
		privateKey: privateKey,
		client:     &http.Client{Timeout: timeout},
	}
}

func (t *WebPushTransport) Send(ctx context.Context, sub *models.PushSubscription, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode push payload: %w", err)
	}

	resp, err := webpush.SendNotification(body, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		HTTPClient:      t.client,
		Subscriber:      t.subscriber,
		VAPIDPublicKey:  t.publicKey,
		VAPIDPrivateKey: t.privateKey,
		TTL:             60,
	})
	if err != nil {
		return fmt.Errorf("push request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound:
		// The push provider signals that the subscription is dead.
		return ErrSubscriptionGone
	case resp.StatusCode >= 400:
		return fmt.Errorf("push endpoint returned status %d", resp.StatusCode)
	}
	return nil
}
