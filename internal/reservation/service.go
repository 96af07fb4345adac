package reservation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"campus-parking-backend/config"
	"campus-parking-backend/internal/model"
	"campus-parking-backend/internal/store"
)

// SlotStore is the part of the store the service reads and transitions slots with.
type SlotStore interface {
	GetSlotForUpdate(ctx context.Context, id string) (*model.ParkingSlot, error)
	SetStatus(ctx context.Context, id string, expected, next model.SlotStatus) error
}

// ReservationStore records reservations.
type ReservationStore interface {
	CreateReservation(ctx context.Context, r *model.Reservation) error
	GetReservation(ctx context.Context, id string) (*model.Reservation, error)
}

// Store is everything Reserve needs from persistence.
type Store interface {
	SlotStore
	ReservationStore
}

// Alerter escalates divergences that could not be repaired in-line.
type Alerter interface {
	Alert(ctx context.Context, alert model.Alert)
}

type nopAlerter struct{}

func (nopAlerter) Alert(context.Context, model.Alert) {}

// Request is the input of Reserve.
type Request struct {
	UserName      string `json:"user_name"`
	VehicleNumber string `json:"vehicle_number"`
	SlotID        string `json:"slot_id"`
}

func (r Request) normalized() Request {
	return Request{
		UserName:      strings.TrimSpace(r.UserName),
		VehicleNumber: strings.TrimSpace(r.VehicleNumber),
		SlotID:        strings.TrimSpace(r.SlotID),
	}
}

func (r Request) validate() error {
	var missing []string
	if r.UserName == "" {
		missing = append(missing, "user_name")
	}
	if r.VehicleNumber == "" {
		missing = append(missing, "vehicle_number")
	}
	if r.SlotID == "" {
		missing = append(missing, "slot_id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s required", ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}

// Service books slots. The only synchronization between concurrent
// requests for the same slot is the conditional status update.
type Service struct {
	cfg     config.ReservationConfig
	store   Store
	alerter Alerter
	newID   func() string
}

// NewService creates a Service. A nil alerter drops escalations.
func NewService(cfg config.ReservationConfig, s Store, alerter Alerter) *Service {
	if alerter == nil {
		alerter = nopAlerter{}
	}
	if cfg.RollbackAttempts <= 0 {
		cfg.RollbackAttempts = 1
	}
	return &Service{
		cfg:     cfg,
		store:   s,
		alerter: alerter,
		newID:   uuid.NewString,
	}
}

// Reserve books req.SlotID for the user and records the reservation.
//
// The slot goes Available -> Booked before the record is written. If the
// write fails the slot is put back, so a failed call leaves no booked slot
// without a reservation behind it. Once the slot is booked the rest of the
// call ignores the caller's cancellation.
func (s *Service) Reserve(ctx context.Context, req Request) (*model.Reservation, error) {
	req = req.normalized()
	if err := req.validate(); err != nil {
		return nil, err
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	slot, err := s.store.GetSlotForUpdate(ctx, req.SlotID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSlotNotFound, req.SlotID)
		}
		return nil, s.failure(ctx, "reading slot", req.SlotID, err)
	}
	if !slot.IsAvailable() {
		slog.InfoContext(ctx, "slot already booked", "slot_id", req.SlotID)
		return nil, fmt.Errorf("%w: %s", ErrSlotUnavailable, req.SlotID)
	}

	if err := s.store.SetStatus(ctx, req.SlotID, model.SlotAvailable, model.SlotBooked); err != nil {
		switch {
		case errors.Is(err, store.ErrConflict):
			slog.InfoContext(ctx, "slot taken by a concurrent reservation", "slot_id", req.SlotID)
			return nil, fmt.Errorf("%w: %s", ErrSlotUnavailable, req.SlotID)
		case errors.Is(err, store.ErrNotFound):
			return nil, fmt.Errorf("%w: %s", ErrSlotNotFound, req.SlotID)
		default:
			// The update may still have committed. The reconciler releases
			// the slot if it did, since no reservation will follow.
			return nil, s.failure(ctx, "booking slot", req.SlotID, err)
		}
	}

	r := &model.Reservation{
		ID:            s.newID(),
		UserName:      req.UserName,
		VehicleNumber: req.VehicleNumber,
		SlotID:        req.SlotID,
	}
	if err := s.record(ctx, r); err != nil {
		if errors.Is(err, store.ErrConflict) {
			// Another reservation already holds the slot, which must stay booked.
			slog.WarnContext(ctx, "slot already has a reservation", "slot_id", r.SlotID)
			return nil, fmt.Errorf("%w: %s", ErrSlotUnavailable, req.SlotID)
		}

		committed, rbErr := s.compensate(ctx, r, err)
		if committed {
			slog.InfoContext(ctx, "reservation created", "reservation_id", r.ID, "slot_id", r.SlotID)
			return r, nil
		}
		if rbErr != nil {
			err = errors.Join(err, rbErr)
		}
		return nil, s.failure(ctx, "recording reservation", req.SlotID, err)
	}

	slog.InfoContext(ctx, "reservation created", "reservation_id", r.ID, "slot_id", r.SlotID)
	return r, nil
}

// record writes the reservation on a context that survives the caller's
// cancellation, bounded by the commit timeout.
func (s *Service) record(ctx context.Context, r *model.Reservation) error {
	commitCtx, cancel := s.detached(ctx)
	defer cancel()
	return s.store.CreateReservation(commitCtx, r)
}

// compensate undoes the booking after a failed record write. It reports
// committed=true when the record turns out to exist after all, in which case
// the slot is left booked.
func (s *Service) compensate(ctx context.Context, r *model.Reservation, cause error) (committed bool, err error) {
	rbCtx, cancel := s.detached(ctx)
	defer cancel()

	backoff := s.cfg.RollbackBackoff
retry:
	for attempt := 1; attempt <= s.cfg.RollbackAttempts; attempt++ {
		_, err = s.store.GetReservation(rbCtx, r.ID)
		if err == nil {
			slog.WarnContext(ctx, "reservation write reported failure but was stored", "reservation_id", r.ID, "slot_id", r.SlotID, "error", cause)
			return true, nil
		}
		if errors.Is(err, store.ErrNotFound) {
			err = s.store.SetStatus(rbCtx, r.SlotID, model.SlotBooked, model.SlotAvailable)
			if err == nil {
				slog.WarnContext(ctx, "booking rolled back", "slot_id", r.SlotID, "attempt", attempt, "error", cause)
				return false, nil
			}
			if errors.Is(err, store.ErrConflict) || errors.Is(err, store.ErrNotFound) {
				// Nothing left to undo.
				return false, nil
			}
		}

		slog.WarnContext(ctx, "rollback attempt failed", "slot_id", r.SlotID, "attempt", attempt, "error", err)
		if attempt == s.cfg.RollbackAttempts {
			break
		}
		select {
		case <-rbCtx.Done():
			break retry
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	slog.ErrorContext(ctx, "rollback failed, slot left booked without reservation", "slot_id", r.SlotID, "error", err)
	s.alerter.Alert(context.WithoutCancel(ctx), model.Alert{
		Kind:          model.AlertRollbackFailed,
		SlotID:        r.SlotID,
		ReservationID: r.ID,
		Detail:        fmt.Sprintf("reservation write failed (%v); rollback failed (%v)", cause, err),
	})
	return false, err
}

func (s *Service) detached(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithoutCancel(ctx)
	if s.cfg.CommitTimeout > 0 {
		return context.WithTimeout(ctx, s.cfg.CommitTimeout)
	}
	return context.WithCancel(ctx)
}

// failure classifies a store error: past the caller's deadline it is a
// timeout, otherwise a persistence failure.
func (s *Service) failure(ctx context.Context, op, slotID string, err error) error {
	if ctx.Err() != nil {
		slog.WarnContext(ctx, "reservation timed out", "op", op, "slot_id", slotID, "error", err)
		return fmt.Errorf("%w: %s: %w", ErrTimeout, op, err)
	}
	slog.ErrorContext(ctx, "reservation failed", "op", op, "slot_id", slotID, "error", err)
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}
