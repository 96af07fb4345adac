package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"campus-parking-backend/config"
	"campus-parking-backend/internal/model"
)

// SMSSender is satisfied by the Twilio REST API service.
type SMSSender interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

// smsLimit keeps a message within a few SMS segments.
const smsLimit = 320

// SMSChannel texts alerts to the configured operator numbers.
type SMSChannel struct {
	from   string
	to     []string
	sender SMSSender
}

// NewSMSChannel returns nil when Twilio credentials or recipients are missing.
func NewSMSChannel(cfg config.SMSConfig) *SMSChannel {
	if cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.From == "" || len(cfg.To) == 0 {
		return nil
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username:   cfg.AccountSID,
		Password:   cfg.AuthToken,
		AccountSid: cfg.AccountSID,
	})
	return &SMSChannel{from: cfg.From, to: cfg.To, sender: client.Api}
}

func (s *SMSChannel) Name() string { return "twilio" }

func (s *SMSChannel) Deliver(_ context.Context, alert model.Alert) error {
	text := body(alert)
	if len(text) > smsLimit {
		text = text[:smsLimit]
	}

	var errs []error
	for _, number := range s.to {
		params := &openapi.CreateMessageParams{}
		params.SetTo(number)
		params.SetFrom(s.from)
		params.SetBody(text)

		if _, err := s.sender.CreateMessage(params); err != nil {
			errs = append(errs, fmt.Errorf("sending to %s: %w", number, err))
		}
	}
	return errors.Join(errs...)
}
