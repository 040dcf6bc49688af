package jobs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"rental-service/internal/logger"
	"rental-service/internal/mocks"
	"rental-service/internal/models"
	"rental-service/internal/repositories"
)

func staleRental(id int, status models.RentalStatus) models.Rental {
	return models.Rental{
		ID:             id,
		VehicleID:      7,
		RenterID:       1,
		VehicleOwnerID: 2,
		Status:         status,
		StatusWorkflowHistory: models.StatusWorkflowHistory{
			{Status: models.RentalStatusDepositPending, Date: time.Now().Add(-time.Hour)},
		},
	}
}

func TestCancelStaleDeposits(t *testing.T) {
	rentals := new(mocks.RentalRepositoryMock)
	notifier := new(mocks.NotifierMock)
	runner := NewRunner(rentals, notifier, logger.NewNop(), 15*time.Minute)

	stale := staleRental(11, models.RentalStatusDepositPending)
	rentals.On("ListStaleDeposits", mock.Anything, mock.AnythingOfType("time.Time")).Return([]models.Rental{stale}, nil).Once()
	rentals.On("Update", mock.Anything, mock.AnythingOfType("*models.Rental"), models.RentalStatusDepositPending).Run(func(args mock.Arguments) {
		rental := args.Get(1).(*models.Rental)
		assert.Equal(t, models.RentalStatusCancelled, rental.Status)
	}).Return(nil).Once()
	notifier.On("NotifyRental", 1, mock.MatchedBy(func(n models.RentalNotification) bool {
		return n.RentalID == 11 && n.Status == models.RentalStatusCancelled
	})).Once()

	runner.CancelStaleDeposits()

	rentals.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestCancelStaleDepositsSkipsConcurrentlyPaid(t *testing.T) {
	rentals := new(mocks.RentalRepositoryMock)
	notifier := new(mocks.NotifierMock)
	runner := NewRunner(rentals, notifier, logger.NewNop(), 15*time.Minute)

	// the renter paid between the list query and the update
	stale := staleRental(11, models.RentalStatusDepositPending)
	rentals.On("ListStaleDeposits", mock.Anything, mock.AnythingOfType("time.Time")).Return([]models.Rental{stale}, nil).Once()
	rentals.On("Update", mock.Anything, mock.AnythingOfType("*models.Rental"), models.RentalStatusDepositPending).Return(repositories.ErrStaleRental).Once()

	runner.CancelStaleDeposits()

	notifier.AssertNotCalled(t, "NotifyRental", mock.Anything, mock.Anything)
}

func TestSettleRefunds(t *testing.T) {
	rentals := new(mocks.RentalRepositoryMock)
	notifier := new(mocks.NotifierMock)
	runner := NewRunner(rentals, notifier, logger.NewNop(), 15*time.Minute)

	cancelled := staleRental(12, models.RentalStatusCancelled)
	rentals.On("ListCancelledWithDeposit", mock.Anything).Return([]models.Rental{cancelled}, nil).Once()
	rentals.On("Update", mock.Anything, mock.AnythingOfType("*models.Rental"), models.RentalStatusCancelled).Run(func(args mock.Arguments) {
		rental := args.Get(1).(*models.Rental)
		assert.Equal(t, models.RentalStatusDepositRefunded, rental.Status)
	}).Return(nil).Once()
	notifier.On("NotifyRental", 1, mock.AnythingOfType("models.RentalNotification")).Once()

	runner.SettleRefunds()

	rentals.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestCompleteReturnedRentalsNotifiesBothParties(t *testing.T) {
	rentals := new(mocks.RentalRepositoryMock)
	notifier := new(mocks.NotifierMock)
	runner := NewRunner(rentals, notifier, logger.NewNop(), 15*time.Minute)

	returned := staleRental(13, models.RentalStatusRenterReturned)
	rentals.On("ListReturnedBefore", mock.Anything, mock.AnythingOfType("time.Time")).Return([]models.Rental{returned}, nil).Once()
	rentals.On("Update", mock.Anything, mock.AnythingOfType("*models.Rental"), models.RentalStatusRenterReturned).Return(nil).Once()
	notifier.On("NotifyRental", 1, mock.AnythingOfType("models.RentalNotification")).Once()
	notifier.On("NotifyRental", 2, mock.AnythingOfType("models.RentalNotification")).Once()

	runner.CompleteReturnedRentals()

	rentals.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestJobPanicIsRecovered(t *testing.T) {
	rentals := new(mocks.RentalRepositoryMock)
	runner := NewRunner(rentals, nil, logger.NewNop(), 15*time.Minute)

	assert.NotPanics(t, func() {
		runner.runWithRecovery("boom", func() { panic("boom") })
	})
}
