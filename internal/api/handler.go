package api

import (
	"context"

	"github.com/SherClockHolmes/webpush-go"

	"campus-parking-backend/internal/model"
	"campus-parking-backend/internal/reservation"
	"campus-parking-backend/internal/store"
)

// Reserver books slots.
type Reserver interface {
	Reserve(ctx context.Context, req reservation.Request) (*model.Reservation, error)
}

// ContactSubmitter stores contact page messages.
type ContactSubmitter interface {
	Submit(ctx context.Context, name, email, message string) (*model.ContactMessage, error)
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store    store.Store
	reserver Reserver
	contact  ContactSubmitter
	webpush  *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, reserver Reserver, contact ContactSubmitter, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		store:    s,
		reserver: reserver,
		contact:  contact,
		webpush:  webpushOptions,
	}
}
