package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"campus-parking-backend/config"
	"campus-parking-backend/internal/model"
)

// EmailSender sends one prepared message and reports the provider's status code.
type EmailSender interface {
	Send(msg *mail.SGMailV3) (status int, body string, err error)
}

type sendGridSender struct {
	client *sendgrid.Client
}

func (s sendGridSender) Send(msg *mail.SGMailV3) (int, string, error) {
	resp, err := s.client.Send(msg)
	if err != nil {
		return 0, "", err
	}
	return resp.StatusCode, resp.Body, nil
}

// EmailChannel mails alerts to the configured operator addresses.
type EmailChannel struct {
	from   *mail.Email
	to     []string
	sender EmailSender
}

// NewEmailChannel returns nil when no API key or recipient is configured.
func NewEmailChannel(cfg config.EmailConfig) *EmailChannel {
	if cfg.APIKey == "" || cfg.FromEmail == "" || len(cfg.To) == 0 {
		return nil
	}
	return &EmailChannel{
		from:   mail.NewEmail(cfg.FromName, cfg.FromEmail),
		to:     cfg.To,
		sender: sendGridSender{client: sendgrid.NewSendClient(cfg.APIKey)},
	}
}

func (e *EmailChannel) Name() string { return "sendgrid" }

func (e *EmailChannel) Deliver(_ context.Context, alert model.Alert) error {
	subject := Subject(alert)
	plain := body(alert)
	html := fmt.Sprintf("<p><strong>%s</strong></p><p>Kind: %s<br>Slot: %s<br>Reservation: %s</p><p>%s</p>",
		subject, alert.Kind, alert.SlotID, alert.ReservationID, alert.Detail)

	var errs []error
	for _, addr := range e.to {
		msg := mail.NewSingleEmail(e.from, subject, mail.NewEmail("", addr), plain, html)
		status, respBody, err := e.sender.Send(msg)
		if err != nil {
			errs = append(errs, fmt.Errorf("sending to %s: %w", addr, err))
			continue
		}
		if status < 200 || status >= 300 {
			errs = append(errs, fmt.Errorf("sendgrid returned %d for %s: %s", status, addr, respBody))
		}
	}
	return errors.Join(errs...)
}
