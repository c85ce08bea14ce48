// Package push delivers web push notifications to users' registered browsers.
package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/dukerupert/teampulse/internal/model"
	"github.com/dukerupert/teampulse/internal/store"
)

// ErrExpired is returned when a push subscription is no longer valid (410 Gone).
var ErrExpired = errors.New("push subscription expired")

// Payload is the JSON sent to the push service.
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
	Tag   string `json:"tag,omitempty"`
}

type Config struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	// Subscriber is the contact sent to push services, a mailto: or https: URL.
	Subscriber string
}

// Service sends notifications to every subscription a user has registered.
type Service struct {
	cfg    Config
	store  *store.PushStore
	client webpush.HTTPClient
	logger *slog.Logger
}

func NewService(cfg Config, ps *store.PushStore, logger *slog.Logger) *Service {
	return &Service{cfg: cfg, store: ps, client: http.DefaultClient, logger: logger}
}

func (s *Service) Configured() bool {
	return s.cfg.VAPIDPublicKey != "" && s.cfg.VAPIDPrivateKey != ""
}

// VAPIDPublicKey returns the VAPID public key for client-side subscription.
func (s *Service) VAPIDPublicKey() string {
	return s.cfg.VAPIDPublicKey
}

// Send delivers one notification.
func (s *Service) Send(ctx context.Context, sub *model.PushSubscription, payload Payload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	resp, err := webpush.SendNotificationWithContext(ctx, data, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dhKey,
			Auth:   sub.AuthKey,
		},
	}, &webpush.Options{
		HTTPClient:      s.client,
		VAPIDPublicKey:  s.cfg.VAPIDPublicKey,
		VAPIDPrivateKey: s.cfg.VAPIDPrivateKey,
		Subscriber:      s.cfg.Subscriber,
		TTL:             86400,
	})
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound:
		return ErrExpired
	case resp.StatusCode >= 400:
		return fmt.Errorf("push service returned %d", resp.StatusCode)
	}
	return nil
}

// NotifyUser sends payload to each of the user's subscriptions and returns how
// many were delivered. Expired subscriptions are removed. Delivery failures
// are logged and skipped.
func (s *Service) NotifyUser(ctx context.Context, userID int64, payload Payload) (int, error) {
	if !s.Configured() {
		return 0, nil
	}
	subs, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := range subs {
		err := s.Send(ctx, &subs[i], payload)
		switch {
		case errors.Is(err, ErrExpired):
			if err := s.store.DeleteByEndpoint(ctx, subs[i].Endpoint); err != nil {
				s.logger.Error("remove expired push subscription", "error", err, "id", subs[i].ID)
			} else {
				s.logger.Info("removed expired push subscription", "id", subs[i].ID, "user_id", userID)
			}
		case err != nil:
			s.logger.Warn("push delivery failed", "error", err, "id", subs[i].ID)
		default:
			sent++
		}
	}
	return sent, nil
}

// GenerateVAPIDKeys generates a new P-256 key pair for VAPID, base64url
// encoded as push services expect.
func GenerateVAPIDKeys() (publicKey, privateKey string, err error) {
	privateKey, publicKey, err = webpush.GenerateVAPIDKeys()
	if err != nil {
		return "", "", fmt.Errorf("generate VAPID keys: %w", err)
	}
	return publicKey, privateKey, nil
}
