package jobs

import (
	"time"

	"go.uber.org/zap"

	"rental-service/internal/logger"
	"rental-service/internal/models"
	"rental-service/internal/repositories"
)

// Notifier pushes rental notifications for job-driven transitions.
type Notifier interface {
	NotifyRental(userID int, n models.RentalNotification)
}

// Runner coordinates the scheduled rental jobs.
type Runner struct {
	rentals       repositories.RentalRepository
	notifier      Notifier
	log           logger.Logger
	depositWindow time.Duration
}

// NewRunner builds a Runner.
func NewRunner(rentals repositories.RentalRepository, notifier Notifier, log logger.Logger, depositWindow time.Duration) *Runner {
	return &Runner{
		rentals:       rentals,
		notifier:      notifier,
		log:           log,
		depositWindow: depositWindow,
	}
}

// runWithRecovery wraps job execution with panic recovery so one bad
// run never kills the scheduler.
func (r *Runner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("job panicked", zap.String("job", jobName), zap.Any("panic", rec))
		}
	}()

	r.log.Info("starting job", zap.String("job", jobName))
	jobFunc()
	r.log.Info("job completed", zap.String("job", jobName))
}

func (r *Runner) notify(userID int, rental models.Rental, message string) {
	if r.notifier == nil {
		return
	}
	r.notifier.NotifyRental(userID, models.RentalNotification{
		RentalID:  rental.ID,
		Status:    rental.Status,
		Message:   message,
		CreatedAt: time.Now(),
	})
}
