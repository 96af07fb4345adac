package contact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"campus-parking-backend/internal/model"
)

// ErrValidation is returned when a required field is empty.
var ErrValidation = errors.New("invalid contact message")

// Store appends contact messages.
type Store interface {
	CreateContact(ctx context.Context, m *model.ContactMessage) error
}

// Intake accepts messages from the contact page.
type Intake struct {
	store Store
}

func NewIntake(s Store) *Intake {
	return &Intake{store: s}
}

// Submit validates and stores a message. Whitespace-only fields count as empty.
func (i *Intake) Submit(ctx context.Context, name, email, message string) (*model.ContactMessage, error) {
	msg := &model.ContactMessage{
		Name:    strings.TrimSpace(name),
		Email:   strings.TrimSpace(email),
		Message: strings.TrimSpace(message),
	}

	var missing []string
	if msg.Name == "" {
		missing = append(missing, "name")
	}
	if msg.Email == "" {
		missing = append(missing, "email")
	}
	if msg.Message == "" {
		missing = append(missing, "message")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s required", ErrValidation, strings.Join(missing, ", "))
	}

	if err := i.store.CreateContact(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "failed to store contact message", "error", err)
		return nil, err
	}
	slog.InfoContext(ctx, "contact message received", "id", msg.ID)
	return msg, nil
}
