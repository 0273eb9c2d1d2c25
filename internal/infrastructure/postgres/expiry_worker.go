package postgres

import (
	"context"
	"time"

	"github.com/eventmanager/booking-service/internal/logger"
	"github.com/eventmanager/booking-service/internal/metrics"
)

// StartExpiryWorker cancels pending reservations older than maxAge on a
// fixed interval. The sweep is a single idempotent UPDATE, so overlapping
// runs or restarts cannot double-expire anything.
func (r *Repository) StartExpiryWorker(ctx context.Context, interval, maxAge time.Duration) {
	go func() {
		log := logger.Logger.With().Str("component", "expiry_worker").Logger()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		log.Info().Dur("interval", interval).Dur("max_age", maxAge).Msg("started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("stopped")
				return
			case <-ticker.C:
				now := time.Now().UTC()
				n, err := r.Reservations().ExpireStale(ctx, now.Add(-maxAge), now)
				if err != nil {
					log.Warn().Err(err).Msg("expiry sweep failed")
					continue
				}
				if n > 0 {
					metrics.RecordReservationsExpired(n)
					log.Info().Int("expired", n).Msg("stale pending reservations canceled")
				}
			}
		}
	}()
}
