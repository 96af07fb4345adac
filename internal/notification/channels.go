package notification

import (
	"log/slog"

	"github.com/SherClockHolmes/webpush-go"

	"campus-parking-backend/config"
)

// WebPushOptions builds the VAPID options, or nil when the keys are not configured.
func WebPushOptions(cfg config.PushConfig) *webpush.Options {
	if cfg.PublicKey == "" || cfg.PrivateKey == "" {
		return nil
	}
	return &webpush.Options{
		VAPIDPublicKey:  cfg.PublicKey,
		VAPIDPrivateKey: cfg.PrivateKey,
		Subscriber:      cfg.Subject,
		TTL:             cfg.TTL,
	}
}

// Channels returns the delivery channels that have credentials configured.
func Channels(cfg config.AlertsConfig, subs SubscriptionStore) []Channel {
	var channels []Channel
	if opts := WebPushOptions(cfg.Push); opts != nil {
		channels = append(channels, NewPushChannel(subs, opts))
	}
	if ch := NewEmailChannel(cfg.Email); ch != nil {
		channels = append(channels, ch)
	}
	if ch := NewSMSChannel(cfg.SMS); ch != nil {
		channels = append(channels, ch)
	}

	names := make([]string, len(channels))
	for i, ch := range channels {
		names[i] = ch.Name()
	}
	slog.Info("alert channels configured", "channels", names)
	return channels
}
