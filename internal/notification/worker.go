package notification

import (
	"context"
	"log/slog"

	"campus-parking-backend/internal/model"
)

// Channel delivers an alert to operators over one transport.
type Channel interface {
	Name() string
	Deliver(ctx context.Context, alert model.Alert) error
}

// WorkerPool manages a pool of workers for delivering alerts.
type WorkerPool struct {
	size     int
	jobs     chan model.Alert
	channels []Channel
}

// NewWorkerPool creates a new worker pool. Alerts are delivered to every channel.
func NewWorkerPool(size, queueSize int, channels ...Channel) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	if queueSize < size {
		queueSize = size
	}
	return &WorkerPool{
		size:     size,
		jobs:     make(chan model.Alert, queueSize), // Buffered channel
		channels: channels,
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

// worker is the actual worker goroutine.
func (wp *WorkerPool) worker(ctx context.Context, id int) {
	slog.Debug("alert worker started", "worker", id)
	for {
		select {
		case alert := <-wp.jobs:
			wp.deliver(ctx, alert)
		case <-ctx.Done():
			slog.Debug("alert worker shutting down", "worker", id)
			return
		}
	}
}

// Dispatch queues an alert for delivery. It never blocks; when the queue is
// full the alert is dropped (it is already persisted) and false is returned.
func (wp *WorkerPool) Dispatch(alert model.Alert) bool {
	select {
	case wp.jobs <- alert:
		return true
	default:
		slog.Warn("alert queue full, delivery skipped", "kind", alert.Kind, "slot_id", alert.SlotID)
		return false
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan model.Alert {
	return wp.jobs
}

func (wp *WorkerPool) deliver(ctx context.Context, alert model.Alert) {
	for _, ch := range wp.channels {
		if err := ch.Deliver(ctx, alert); err != nil {
			slog.ErrorContext(ctx, "alert delivery failed", "channel", ch.Name(), "kind", alert.Kind, "slot_id", alert.SlotID, "error", err)
			continue
		}
		slog.InfoContext(ctx, "alert delivered", "channel", ch.Name(), "kind", alert.Kind, "slot_id", alert.SlotID)
	}
}
