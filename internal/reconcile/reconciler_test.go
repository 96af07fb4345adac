package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-parking-backend/config"
	"campus-parking-backend/internal/db"
	"campus-parking-backend/internal/model"
	"campus-parking-backend/internal/store"
)

type recordingAlerter struct {
	mu     sync.Mutex
	alerts []model.Alert
}

func (a *recordingAlerter) Alert(_ context.Context, alert model.Alert) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.alerts = append(a.alerts, alert)
}

func (a *recordingAlerter) kinds() map[string]model.AlertKind {
	a.mu.Lock()
	defer a.mu.Unlock()
	kinds := map[string]model.AlertKind{}
	for _, alert := range a.alerts {
		kinds[alert.SlotID] = alert.Kind
	}
	return kinds
}

var testConfig = config.ReconcileConfig{Enabled: true, Schedule: "@every 1m", Grace: time.Minute}

func TestRunOnce_RepairsBothDirections(t *testing.T) {
	name := strings.NewReplacer("/", "_").Replace(t.Name())
	gormDB, err := db.Init(&config.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
		MaxOpenConns: 1,
		LogLevel:     "silent",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gormDB) })

	ctx := context.Background()
	_, err = db.Seed(ctx, gormDB, config.SeedConfig{Zones: []string{"A", "B"}, SlotsPerZone: 2})
	require.NoError(t, err)
	s := store.NewGormStore(gormDB)

	// A01: orphaned long ago. A02: orphaned but still within grace.
	// B01: reserved yet available. B02: booked and reserved.
	require.NoError(t, s.SetStatus(ctx, "A01", model.SlotAvailable, model.SlotBooked))
	require.NoError(t, s.SetStatus(ctx, "A02", model.SlotAvailable, model.SlotBooked))
	require.NoError(t, s.CreateReservation(ctx, &model.Reservation{ID: "r-b01", UserName: "u", VehicleNumber: "v", SlotID: "B01"}))
	require.NoError(t, s.SetStatus(ctx, "B02", model.SlotAvailable, model.SlotBooked))
	require.NoError(t, s.CreateReservation(ctx, &model.Reservation{ID: "r-b02", UserName: "u", VehicleNumber: "w", SlotID: "B02"}))
	require.NoError(t, gormDB.Model(&model.ParkingSlot{}).Where("id = ?", "A01").
		UpdateColumn("updated_at", time.Now().Add(-time.Hour)).Error)

	alerter := &recordingAlerter{}
	svc := NewService(testConfig, s, alerter)

	report, err := svc.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A01"}, report.Released)
	assert.Equal(t, []string{"B01"}, report.Rebooked)
	assert.Zero(t, report.Skipped)
	assert.Zero(t, report.Failed)

	want := map[string]model.SlotStatus{
		"A01": model.SlotAvailable,
		"A02": model.SlotBooked,
		"B01": model.SlotBooked,
		"B02": model.SlotBooked,
	}
	for id, status := range want {
		slot, err := s.GetSlotForUpdate(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, status, slot.Status, id)
	}

	assert.Equal(t, map[string]model.AlertKind{
		"A01": model.AlertOrphanedSlotReleased,
		"B01": model.AlertStrandedReservationRebooked,
	}, alerter.kinds())

	// A second pass has nothing left to do.
	report, err = svc.RunOnce(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.Released)
	assert.Empty(t, report.Rebooked)
}

// mockStore is a mock implementation of the Store interface.
type mockStore struct {
	FindOrphanedSlotsFunc        func(ctx context.Context, before time.Time) ([]model.ParkingSlot, error)
	FindStrandedReservationsFunc func(ctx context.Context) ([]model.Reservation, error)
	SetStatusFunc                func(ctx context.Context, id string, expected, next model.SlotStatus) error
}

func (m *mockStore) FindOrphanedSlots(ctx context.Context, before time.Time) ([]model.ParkingSlot, error) {
	return m.FindOrphanedSlotsFunc(ctx, before)
}

func (m *mockStore) FindStrandedReservations(ctx context.Context) ([]model.Reservation, error) {
	return m.FindStrandedReservationsFunc(ctx)
}

func (m *mockStore) SetStatus(ctx context.Context, id string, expected, next model.SlotStatus) error {
	return m.SetStatusFunc(ctx, id, expected, next)
}

func TestRunOnce_ConflictsAndFailures(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	ms := &mockStore{
		FindOrphanedSlotsFunc: func(_ context.Context, before time.Time) ([]model.ParkingSlot, error) {
			assert.Equal(t, now.Add(-testConfig.Grace), before)
			return []model.ParkingSlot{{ID: "A01"}, {ID: "A02"}}, nil
		},
		FindStrandedReservationsFunc: func(context.Context) ([]model.Reservation, error) {
			return []model.Reservation{{ID: "r1", SlotID: "C01"}}, nil
		},
		SetStatusFunc: func(_ context.Context, id string, _, _ model.SlotStatus) error {
			switch id {
			case "A01":
				return store.ErrConflict
			case "A02":
				return errors.New("database is locked")
			}
			return nil
		},
	}
	alerter := &recordingAlerter{}
	svc := NewService(testConfig, ms, alerter)
	svc.now = func() time.Time { return now }

	report, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Released)
	assert.Equal(t, []string{"C01"}, report.Rebooked)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 1, report.Failed)

	require.Len(t, alerter.alerts, 1)
	assert.Equal(t, "r1", alerter.alerts[0].ReservationID)
}

func TestRunOnce_QueryError(t *testing.T) {
	ms := &mockStore{
		FindOrphanedSlotsFunc: func(context.Context, time.Time) ([]model.ParkingSlot, error) {
			return nil, errors.New("connection refused")
		},
	}
	svc := NewService(testConfig, ms, nil)

	_, err := svc.RunOnce(context.Background())
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	t.Run("disabled returns immediately", func(t *testing.T) {
		svc := NewService(config.ReconcileConfig{Enabled: false}, &mockStore{}, nil)
		assert.NoError(t, svc.Run(context.Background()))
	})

	t.Run("invalid schedule", func(t *testing.T) {
		svc := NewService(config.ReconcileConfig{Enabled: true, Schedule: "every now and then"}, &mockStore{}, nil)
		assert.Error(t, svc.Run(context.Background()))
	})

	t.Run("runs on schedule until cancelled", func(t *testing.T) {
		ran := make(chan struct{}, 1)
		ms := &mockStore{
			FindOrphanedSlotsFunc: func(context.Context, time.Time) ([]model.ParkingSlot, error) {
				select {
				case ran <- struct{}{}:
				default:
				}
				return nil, nil
			},
			FindStrandedReservationsFunc: func(context.Context) ([]model.Reservation, error) {
				return nil, nil
			},
		}
		svc := NewService(config.ReconcileConfig{Enabled: true, Schedule: "@every 1s"}, ms, nil)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- svc.Run(ctx) }()

		select {
		case <-ran:
		case <-time.After(5 * time.Second):
			t.Fatal("reconcile pass never ran")
		}
		cancel()

		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("Run did not return after cancel")
		}
	})
}
