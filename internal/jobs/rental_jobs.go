package jobs

import (
	"context"
	"time"

	"storycoin-backend/internal/logger"
)

// ExpireRentals deactivates every rental past its end time. Coins moved at
// purchase time, so the sweep is a pure state flip with no refunds; running
// it again immediately is a no-op.
func (jr *JobRunner) ExpireRentals() {
	if !jr.sweeping.CompareAndSwap(false, true) {
		logger.Warn("Skipping rental sweep, previous run still in progress")
		return
	}
	defer jr.sweeping.Store(false)

	jr.runWithRecovery("ExpireRentals", func() {
		ctx := context.Background()

		count, err := jr.services.Rental.ExpireDue(ctx, time.Now().UTC())
		if err != nil {
			logger.Error("Failed to expire rentals", "error", err)
			return
		}
		logger.Info("Expired rentals", "count", count)
	})
}
