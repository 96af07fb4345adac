package notification

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/goccy/go-json"

	"campus-parking-backend/internal/model"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// SubscriptionStore lists and prunes operator push subscriptions.
type SubscriptionStore interface {
	ListSubscriptions(ctx context.Context) ([]model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
}

// PushChannel sends alerts to every registered operator browser.
type PushChannel struct {
	store   SubscriptionStore
	options *webpush.Options
	sender  NotificationSender
}

func NewPushChannel(s SubscriptionStore, options *webpush.Options) *PushChannel {
	return &PushChannel{store: s, options: options, sender: &WebPushSender{}}
}

func (p *PushChannel) Name() string { return "webpush" }

type pushPayload struct {
	Title         string `json:"title"`
	Body          string `json:"body"`
	Kind          string `json:"kind"`
	SlotID        string `json:"slot_id"`
	ReservationID string `json:"reservation_id,omitempty"`
}

func (p *PushChannel) Deliver(ctx context.Context, alert model.Alert) error {
	subscriptions, err := p.store.ListSubscriptions(ctx)
	if err != nil {
		return fmt.Errorf("fetching subscriptions: %w", err)
	}
	if len(subscriptions) == 0 {
		return nil
	}

	payload, err := json.Marshal(pushPayload{
		Title:         Subject(alert),
		Body:          alert.Detail,
		Kind:          string(alert.Kind),
		SlotID:        alert.SlotID,
		ReservationID: alert.ReservationID,
	})
	if err != nil {
		return err
	}

	var failed int
	for _, sub := range subscriptions {
		if err := p.sendNotification(ctx, sub, payload); err != nil {
			slog.WarnContext(ctx, "push notification failed", "endpoint", sub.Endpoint, "error", err)
			failed++
		}
	}
	if failed == len(subscriptions) {
		return fmt.Errorf("all %d push notifications failed", failed)
	}
	return nil
}

// sendNotification sends a single web push notification.
func (p *PushChannel) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) error {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := p.sender.Send(payload, wpSub, p.options)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == http.StatusGone {
		slog.InfoContext(ctx, "push subscription expired, deleting", "endpoint", sub.Endpoint)
		if err := p.store.DeleteSubscription(ctx, sub.Endpoint); err != nil {
			slog.WarnContext(ctx, "failed to delete expired subscription", "endpoint", sub.Endpoint, "error", err)
		}
		return nil
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("push service returned %d", resp.StatusCode)
	}
	return nil
}
