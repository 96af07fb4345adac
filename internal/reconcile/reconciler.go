package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"campus-parking-backend/config"
	"campus-parking-backend/internal/model"
	"campus-parking-backend/internal/store"
)

// Store is the persistence the reconciler inspects and repairs.
type Store interface {
	FindOrphanedSlots(ctx context.Context, updatedBefore time.Time) ([]model.ParkingSlot, error)
	FindStrandedReservations(ctx context.Context) ([]model.Reservation, error)
	SetStatus(ctx context.Context, id string, expected, next model.SlotStatus) error
}

// Alerter records every repair for operators.
type Alerter interface {
	Alert(ctx context.Context, alert model.Alert)
}

// Report summarizes one pass.
type Report struct {
	Released []string // orphaned slots set back to available
	Rebooked []string // slots re-booked for their reservation
	Skipped  int      // repairs that lost a race with another writer
	Failed   int
}

// Service restores "booked iff reserved" after crashes or failed rollbacks.
type Service struct {
	cfg     config.ReconcileConfig
	store   Store
	alerter Alerter
	now     func() time.Time

	mu sync.Mutex // one pass at a time
}

// NewService creates a new reconciler.
func NewService(cfg config.ReconcileConfig, s Store, alerter Alerter) *Service {
	return &Service{cfg: cfg, store: s, alerter: alerter, now: time.Now}
}

// Run schedules RunOnce on cfg.Schedule until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if !s.cfg.Enabled {
		slog.Info("reconciler is disabled, not starting")
		return nil
	}

	logger := cronLogger{}
	c := cron.New(cron.WithLogger(logger), cron.WithChain(cron.SkipIfStillRunning(logger)))
	if _, err := c.AddFunc(s.cfg.Schedule, func() {
		if _, err := s.RunOnce(ctx); err != nil {
			slog.ErrorContext(ctx, "reconcile pass failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid reconcile schedule %q: %w", s.cfg.Schedule, err)
	}

	slog.Info("starting reconciler", "schedule", s.cfg.Schedule, "grace", s.cfg.Grace)
	c.Start()
	<-ctx.Done()

	<-c.Stop().Done()
	slog.Info("reconciler shut down")
	return nil
}

// RunOnce performs a single repair pass.
func (s *Service) RunOnce(ctx context.Context) (Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var report Report

	orphans, err := s.store.FindOrphanedSlots(ctx, s.now().Add(-s.cfg.Grace))
	if err != nil {
		return report, err
	}
	for _, slot := range orphans {
		s.repair(ctx, &report, slot.ID, "", model.SlotBooked, model.SlotAvailable)
	}

	stranded, err := s.store.FindStrandedReservations(ctx)
	if err != nil {
		return report, err
	}
	for _, r := range stranded {
		s.repair(ctx, &report, r.SlotID, r.ID, model.SlotAvailable, model.SlotBooked)
	}

	if len(orphans)+len(stranded) > 0 {
		slog.InfoContext(ctx, "reconcile pass finished",
			"released", len(report.Released), "rebooked", len(report.Rebooked),
			"skipped", report.Skipped, "failed", report.Failed)
	} else {
		slog.DebugContext(ctx, "reconcile pass found nothing to repair")
	}
	return report, nil
}

func (s *Service) repair(ctx context.Context, report *Report, slotID, reservationID string, from, to model.SlotStatus) {
	err := s.store.SetStatus(ctx, slotID, from, to)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrConflict), errors.Is(err, store.ErrNotFound):
		slog.InfoContext(ctx, "slot changed before repair, skipping", "slot_id", slotID)
		report.Skipped++
		return
	default:
		slog.ErrorContext(ctx, "slot repair failed", "slot_id", slotID, "error", err)
		report.Failed++
		return
	}

	alert := model.Alert{SlotID: slotID, ReservationID: reservationID}
	if to == model.SlotAvailable {
		alert.Kind = model.AlertOrphanedSlotReleased
		alert.Detail = fmt.Sprintf("slot was booked without a reservation for longer than %s", s.cfg.Grace)
		report.Released = append(report.Released, slotID)
	} else {
		alert.Kind = model.AlertStrandedReservationRebooked
		alert.Detail = "slot was available while a reservation referenced it"
		report.Rebooked = append(report.Rebooked, slotID)
	}
	if s.alerter != nil {
		s.alerter.Alert(ctx, alert)
	}
}

// cronLogger routes the scheduler's own logging through slog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	slog.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
