package internal

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-parking-backend/config"
	"campus-parking-backend/internal/api"
	"campus-parking-backend/internal/contact"
	"campus-parking-backend/internal/db"
	"campus-parking-backend/internal/model"
	"campus-parking-backend/internal/notification"
	"campus-parking-backend/internal/reconcile"
	"campus-parking-backend/internal/reservation"
	"campus-parking-backend/internal/store"
)

// brokenStore fails every reservation insert and every release of a booked
// slot, leaving slots booked without a reservation.
type brokenStore struct {
	store.Store
}

var errDiskFull = errors.New("disk full")

func (b brokenStore) CreateReservation(context.Context, *model.Reservation) error {
	return errDiskFull
}

func (b brokenStore) SetStatus(ctx context.Context, id string, expected, next model.SlotStatus) error {
	if expected == model.SlotBooked {
		return errDiskFull
	}
	return b.Store.SetStatus(ctx, id, expected, next)
}

// recordingChannel collects delivered alerts.
type recordingChannel struct {
	mu        sync.Mutex
	delivered []model.Alert
}

func (r *recordingChannel) Name() string { return "recording" }

func (r *recordingChannel) Deliver(_ context.Context, alert model.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delivered = append(r.delivered, alert)
	return nil
}

func (r *recordingChannel) kinds() []model.AlertKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kinds []model.AlertKind
	for _, a := range r.delivered {
		kinds = append(kinds, a.Kind)
	}
	return kinds
}

// TestReservationLifecycle drives a slot through a failed booking, an operator
// alert, a reconciler repair and a successful booking over HTTP.
func TestReservationLifecycle(t *testing.T) {
	// --- Test Setup ---
	gin.SetMode(gin.TestMode)

	gormDB, err := db.Init(&config.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          "file:lifecycle?mode=memory&cache=shared",
		MaxOpenConns: 1,
		LogLevel:     "silent",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gormDB) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err = db.Seed(ctx, gormDB, config.SeedConfig{Zones: []string{"A"}, SlotsPerZone: 2})
	require.NoError(t, err)
	appStore := store.NewGormStore(gormDB)

	channel := &recordingChannel{}
	pool := notification.NewWorkerPool(1, 8, channel)
	pool.Start(ctx)
	alerter := notification.NewAlerter(appStore, pool)

	reservationConfig := config.ReservationConfig{
		Timeout:          time.Second,
		CommitTimeout:    time.Second,
		RollbackAttempts: 2,
		RollbackBackoff:  time.Millisecond,
	}

	// --- Step 1: booking succeeds but nothing can be written afterwards ---
	t.Run("Failed Booking Escalates", func(t *testing.T) {
		broken := reservation.NewService(reservationConfig, brokenStore{Store: appStore}, alerter)
		_, err := broken.Reserve(ctx, reservation.Request{UserName: "Ana", VehicleNumber: "KA01AB1234", SlotID: "A01"})
		assert.ErrorIs(t, err, reservation.ErrPersistence)

		slot, err := appStore.GetSlotForUpdate(ctx, "A01")
		require.NoError(t, err)
		assert.Equal(t, model.SlotBooked, slot.Status, "slot should be stranded in booked")

		assert.Eventually(t, func() bool {
			return assert.ObjectsAreEqual([]model.AlertKind{model.AlertRollbackFailed}, channel.kinds())
		}, time.Second, 10*time.Millisecond)
	})

	// --- Step 2: the reconciler releases the orphaned slot ---
	t.Run("Reconciler Releases Orphan", func(t *testing.T) {
		require.NoError(t, gormDB.Model(&model.ParkingSlot{}).Where("id = ?", "A01").
			UpdateColumn("updated_at", time.Now().Add(-time.Hour)).Error)

		reconciler := reconcile.NewService(config.ReconcileConfig{Enabled: true, Schedule: "@every 1m", Grace: time.Minute}, appStore, alerter)
		report, err := reconciler.RunOnce(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"A01"}, report.Released)
		assert.Empty(t, report.Rebooked)

		slot, err := appStore.GetSlotForUpdate(ctx, "A01")
		require.NoError(t, err)
		assert.Equal(t, model.SlotAvailable, slot.Status)

		assert.Eventually(t, func() bool {
			return len(channel.kinds()) == 2
		}, time.Second, 10*time.Millisecond)
		assert.Equal(t, []model.AlertKind{model.AlertRollbackFailed, model.AlertOrphanedSlotReleased}, channel.kinds())
	})

	// --- Step 3: the slot can be booked again over HTTP ---
	reserver := reservation.NewService(reservationConfig, appStore, alerter)
	handler := api.NewHandler(appStore, reserver, contact.NewIntake(appStore), nil)
	router := api.NewRouter(config.ServerConfig{}, handler)

	do := func(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("Booking Over HTTP", func(t *testing.T) {
		payload := map[string]string{"user_name": "Ana", "vehicle_number": "KA01AB1234", "slot_id": "A01"}

		w := do(t, http.MethodPost, "/api/reserve", payload)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp struct {
			Success bool              `json:"success"`
			Message string            `json:"message"`
			Data    model.Reservation `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, "Slot reserved!", resp.Message)
		assert.Equal(t, "A01", resp.Data.SlotID)
		assert.NotEmpty(t, resp.Data.ID)

		// The same slot cannot be booked twice.
		w = do(t, http.MethodPost, "/api/reserve", payload)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"success":false,"message":"Slot not available"}`, w.Body.String())

		w = do(t, http.MethodGet, "/api/stats", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var stats api.StatsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
		assert.Equal(t, int64(2), stats.TotalSlots)
		assert.Equal(t, int64(1), stats.AvailableSlots)
		assert.Equal(t, int64(1), stats.OccupiedSlots)
		assert.Equal(t, 50.0, stats.OccupancyRate)
	})

	t.Run("Alerts Are Persisted", func(t *testing.T) {
		w := do(t, http.MethodGet, "/api/alerts", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var alerts []model.Alert
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &alerts))
		require.Len(t, alerts, 2)
		// Newest first.
		assert.Equal(t, model.AlertOrphanedSlotReleased, alerts[0].Kind)
		assert.Equal(t, model.AlertRollbackFailed, alerts[1].Kind)
		for _, a := range alerts {
			assert.Equal(t, "A01", a.SlotID)
		}
	})
}
