// Package reconciler expires bookings that were created but never
// confirmed within the allowed window, returning their seats to the pool.
package reconciler

import (
	"context"
	"log/slog"
	"time"

	"github.com/cinebook/cinema-booking-system/internal/domain"
)

type Reconciler struct {
	bookings domain.BookingRepository
	notifier domain.Notifier
	logger   *slog.Logger

	interval time.Duration
	maxAge   time.Duration
}

func New(
	bookings domain.BookingRepository,
	notifier domain.Notifier,
	logger *slog.Logger,
	interval time.Duration,
	maxAge time.Duration,
) *Reconciler {
	return &Reconciler{
		bookings: bookings,
		notifier: notifier,
		logger:   logger,
		interval: interval,
		maxAge:   maxAge,
	}
}

// Run sweeps on a fixed interval until ctx is cancelled. Sweep errors are
// logged and retried on the next tick, never fatal.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Reconciler) sweep(ctx context.Context) {
	cancelled, err := r.bookings.CancelStalePending(ctx, time.Now().Add(-r.maxAge))
	if err != nil {
		r.logger.Error("failed to cancel stale pending bookings", "error", err)
		return
	}

	for _, booking := range cancelled {
		r.logger.Info("cancelled stale pending booking",
			"reference", booking.Reference,
			"screening_id", booking.ScreeningID,
		)
		r.notifier.Publish(ctx, domain.Event{
			Kind:    domain.EventBookingStatusUpdated,
			Payload: booking,
		})
	}
}
