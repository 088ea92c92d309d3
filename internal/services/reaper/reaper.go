// Package reaper implements the recurring sweep that cancels orders
// left ready and unpaid past the grace window.
package reaper

import (
	"context"
	"fmt"
	"time"

	"canteen-connect/internal/logger"
	"canteen-connect/internal/models"
)

// Store is the slice of the order store the reaper needs.
type Store interface {
	// StaleReadyUnpaid returns ids of ready, unpaid, non-cancelled
	// orders last modified at or before cutoff.
	StaleReadyUnpaid(ctx context.Context, cutoff time.Time) ([]int64, error)

	// CancelUnpaid cancels one order if it is still ready, unpaid and
	// not cancelled, reporting whether this call cancelled it.
	CancelUnpaid(ctx context.Context, orderID int64) (bool, error)
}

// EventPublisher fans cancellation notices out to subscribers. May be
// nil.
type EventPublisher interface {
	PublishStatusUpdate(ctx context.Context, msg *models.StatusUpdateMessage) error
}

// Reaper periodically cancels orders stuck in (Ready, Pending) beyond
// the grace window. Candidates are selected first, then cancelled one
// by one, so a payment settling concurrently for one order never
// blocks cancellation of the others.
type Reaper struct {
	store     Store
	publisher EventPublisher
	logger    *logger.Logger

	sweepInterval time.Duration
	graceWindow   time.Duration
	now           func() time.Time
}

func New(store Store, publisher EventPublisher, log *logger.Logger, sweepInterval, graceWindow time.Duration) *Reaper {
	return &Reaper{
		store:         store,
		publisher:     publisher,
		logger:        log,
		sweepInterval: sweepInterval,
		graceWindow:   graceWindow,
		now:           time.Now,
	}
}

// Run sweeps on a fixed period until the context is cancelled.
func (r *Reaper) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.sweepInterval)
	defer ticker.Stop()

	r.logger.Info("reaper_started", "Stale-order reaper started", "", map[string]interface{}{
		"sweep_interval_s": r.sweepInterval.Seconds(),
		"grace_window_s":   r.graceWindow.Seconds(),
	})

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reaper_stopped", "Stale-order reaper stopped", "", nil)
			return ctx.Err()
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep runs one cycle. Infrastructure failures are logged and left
// for the next period; a missed cancellation is recoverable, never
// fatal.
func (r *Reaper) Sweep(ctx context.Context) {
	requestID := logger.GenerateRequestID()
	cutoff := r.now().Add(-r.graceWindow)

	ids, err := r.store.StaleReadyUnpaid(ctx, cutoff)
	if err != nil {
		r.logger.Error("sweep_selection_failed", "Failed to select stale orders, skipping cycle", requestID, err, nil)
		return
	}
	if len(ids) == 0 {
		return
	}

	cancelled := 0
	for _, id := range ids {
		ok, err := r.store.CancelUnpaid(ctx, id)
		if err != nil {
			r.logger.Error("cancel_failed", fmt.Sprintf("Failed to cancel order %d", id), requestID, err, map[string]interface{}{
				"order_id": id,
			})
			continue
		}
		if !ok {
			// A concurrent payment won the race; nothing to do.
			continue
		}
		cancelled++

		if r.publisher != nil {
			msg := models.NewStatusUpdateMessage(&models.Order{ID: id}, string(models.PrepReady), "cancelled", "reaper")
			if err := r.publisher.PublishStatusUpdate(ctx, msg); err != nil {
				r.logger.Error("event_publish_failed", "Failed to publish cancellation", requestID, err, map[string]interface{}{
					"order_id": id,
				})
			}
		}
	}

	r.logger.Info("sweep_completed", fmt.Sprintf("Auto-cancelled %d unpaid ready orders", cancelled), requestID, map[string]interface{}{
		"candidates": len(ids),
		"cancelled":  cancelled,
	})
}
