package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"rental-service/internal/models"
	"rental-service/internal/observability"
)

// CancelStaleDeposits cancels rentals whose deposit window expired
// without payment, releasing the vehicle for other renters.
func (r *Runner) CancelStaleDeposits() {
	r.runWithRecovery("CancelStaleDeposits", func() {
		ctx := context.Background()
		cutoff := time.Now().Add(-r.depositWindow)

		rentals, err := r.rentals.ListStaleDeposits(ctx, cutoff)
		if err != nil {
			r.log.Error("failed to list stale deposits", zap.Error(err))
			return
		}

		count := 0
		for _, rental := range rentals {
			if err := r.applyTransition(ctx, &rental, models.RentalStatusCancelled); err != nil {
				continue
			}
			r.notify(rental.RenterID, rental, "the rental was cancelled because the deposit was not paid in time")
			count++
		}
		r.log.Info("cancelled stale deposits", zap.Int("count", count))
	})
}

// SettleRefunds moves cancelled rentals that had a paid deposit into
// deposit-refunded once the refund is processed.
func (r *Runner) SettleRefunds() {
	r.runWithRecovery("SettleRefunds", func() {
		ctx := context.Background()

		rentals, err := r.rentals.ListCancelledWithDeposit(ctx)
		if err != nil {
			r.log.Error("failed to list refundable rentals", zap.Error(err))
			return
		}

		count := 0
		for _, rental := range rentals {
			if err := r.applyTransition(ctx, &rental, models.RentalStatusDepositRefunded); err != nil {
				continue
			}
			r.notify(rental.RenterID, rental, "your deposit was refunded")
			count++
		}
		r.log.Info("settled refunds", zap.Int("count", count))
	})
}

// CompleteReturnedRentals settles rentals the renter reported returned,
// giving the owner a grace period to dispute before completion.
func (r *Runner) CompleteReturnedRentals() {
	r.runWithRecovery("CompleteReturnedRentals", func() {
		ctx := context.Background()
		cutoff := time.Now().Add(-time.Hour)

		rentals, err := r.rentals.ListReturnedBefore(ctx, cutoff)
		if err != nil {
			r.log.Error("failed to list returned rentals", zap.Error(err))
			return
		}

		count := 0
		for _, rental := range rentals {
			if err := r.applyTransition(ctx, &rental, models.RentalStatusCompleted); err != nil {
				continue
			}
			r.notify(rental.RenterID, rental, "the rental is complete")
			r.notify(rental.VehicleOwnerID, rental, "the rental is complete")
			count++
		}
		r.log.Info("completed rentals", zap.Int("count", count))
	})
}

func (r *Runner) applyTransition(ctx context.Context, rental *models.Rental, next models.RentalStatus) error {
	prev := rental.Status
	if err := rental.Transition(next, time.Now()); err != nil {
		r.log.Warn("illegal job transition",
			zap.Int("rental_id", rental.ID), zap.String("from", string(prev)), zap.String("to", string(next)))
		return err
	}
	if err := r.rentals.Update(ctx, rental, prev); err != nil {
		r.log.Warn("job transition not applied",
			zap.Int("rental_id", rental.ID), zap.String("to", string(next)), zap.Error(err))
		return err
	}
	observability.IncRentalTransition(string(prev), string(next))
	return nil
}
