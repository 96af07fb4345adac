package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"campus-parking-backend/internal/model"
)

const persistTimeout = 5 * time.Second

// AlertStore persists alerts.
type AlertStore interface {
	CreateAlert(ctx context.Context, a *model.Alert) error
}

// Alerter records divergences for operators and hands them to the worker
// pool for delivery.
type Alerter struct {
	store AlertStore
	pool  *WorkerPool
}

// NewAlerter creates an Alerter. A nil pool only persists and logs.
func NewAlerter(s AlertStore, pool *WorkerPool) *Alerter {
	return &Alerter{store: s, pool: pool}
}

// Alert persists alert and queues it for delivery. Persisting is best effort:
// a failure is logged and delivery still happens.
func (a *Alerter) Alert(ctx context.Context, alert model.Alert) {
	slog.ErrorContext(ctx, "operator alert", "kind", alert.Kind, "slot_id", alert.SlotID,
		"reservation_id", alert.ReservationID, "detail", alert.Detail)

	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now()
	}

	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()
	if err := a.store.CreateAlert(persistCtx, &alert); err != nil {
		slog.ErrorContext(ctx, "failed to persist alert", "kind", alert.Kind, "slot_id", alert.SlotID, "error", err)
	}

	if a.pool != nil {
		a.pool.Dispatch(alert)
	}
}

// Subject is the one-line summary used by every channel.
func Subject(alert model.Alert) string {
	switch alert.Kind {
	case model.AlertRollbackFailed:
		return fmt.Sprintf("Parking slot %s is booked without a reservation", alert.SlotID)
	case model.AlertOrphanedSlotReleased:
		return fmt.Sprintf("Parking slot %s was released by the reconciler", alert.SlotID)
	case model.AlertStrandedReservationRebooked:
		return fmt.Sprintf("Parking slot %s was re-booked for its reservation", alert.SlotID)
	default:
		return fmt.Sprintf("Parking alert %s for slot %s", alert.Kind, alert.SlotID)
	}
}

func body(alert model.Alert) string {
	if alert.Detail == "" {
		return Subject(alert)
	}
	return Subject(alert) + ": " + alert.Detail
}
