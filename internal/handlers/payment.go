package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"rental-service/internal/apierrors"
	"rental-service/internal/models"
	"rental-service/internal/observability"
	"rental-service/internal/repositories"
	"rental-service/internal/telemetry"
)

// PaymentHandler records deposit and remaining payments against the
// rental state machine. Charging the money itself happens elsewhere;
// these endpoints record the outcome.
type PaymentHandler struct {
	rentalRepo repositories.RentalRepository
	notifier   Notifier
	audit      *telemetry.AuditEmitter
}

// NewPaymentHandler builds a PaymentHandler.
func NewPaymentHandler(rentalRepo repositories.RentalRepository, notifier Notifier, audit *telemetry.AuditEmitter) *PaymentHandler {
	return &PaymentHandler{rentalRepo: rentalRepo, notifier: notifier, audit: audit}
}

// PayDeposit confirms the deposit. The rental advances straight through
// deposit-paid into owner-pending in a single guarded write, so a
// deposit can never be recorded twice.
func (h *PaymentHandler) PayDeposit(c *gin.Context) {
	rental, ok := h.loadRental(c)
	if !ok {
		return
	}
	if rental.RoleOf(c.GetInt("userID")) != models.RoleRenter {
		apierrors.Abort(c, apierrors.ErrNotRenter)
		return
	}
	if rental.Status != models.RentalStatusDepositPending {
		if rental.Status == models.RentalStatusCancelled {
			apierrors.Abort(c, apierrors.ErrRentalCancelled)
			return
		}
		apierrors.Abort(c, apierrors.ErrNotDepositPending)
		return
	}

	now := time.Now()
	prev := rental.Status
	if err := rental.Transition(models.RentalStatusDepositPaid, now); err != nil {
		apierrors.Abort(c, apierrors.ErrNotDepositPending)
		return
	}
	if err := rental.Transition(models.RentalStatusOwnerPending, now); err != nil {
		apierrors.Abort(c, apierrors.ErrWrongRentalStatus)
		return
	}

	// the overlap re-check and the status update commit together; a
	// faster renter's confirmed booking makes this one fail
	if err := h.rentalRepo.ConfirmDeposit(c.Request.Context(), &rental, prev); err != nil {
		if errors.Is(err, repositories.ErrPeriodTaken) {
			apierrors.Abort(c, apierrors.ErrVehicleNotAvailable)
			return
		}
		if errors.Is(err, repositories.ErrStaleRental) {
			apierrors.Abort(c, apierrors.ErrNotDepositPending)
			return
		}
		apierrors.Abort(c, err)
		return
	}
	observability.IncRentalTransition(string(prev), string(rental.Status))

	h.emitAudit(c, "deposit_paid", rental.ID, rental.DepositPrice)
	h.notifyOwner(rental, "a deposit was paid, the rental awaits your decision")
	apierrors.OK(c, rental)
}

// PayRemaining confirms the remaining payment after both parties signed
// the contract.
func (h *PaymentHandler) PayRemaining(c *gin.Context) {
	rental, ok := h.loadRental(c)
	if !ok {
		return
	}
	if rental.RoleOf(c.GetInt("userID")) != models.RoleRenter {
		apierrors.Abort(c, apierrors.ErrNotRenter)
		return
	}

	prev := rental.Status
	if err := rental.Transition(models.RentalStatusRemainingPaymentPaid, time.Now()); err != nil {
		if prev == models.RentalStatusCancelled {
			apierrors.Abort(c, apierrors.ErrRentalCancelled)
			return
		}
		apierrors.Abort(c, apierrors.ErrWrongRentalStatus)
		return
	}
	if err := h.rentalRepo.Update(c.Request.Context(), &rental, prev); err != nil {
		if errors.Is(err, repositories.ErrStaleRental) {
			apierrors.Abort(c, apierrors.ErrWrongRentalStatus)
			return
		}
		apierrors.Abort(c, err)
		return
	}
	observability.IncRentalTransition(string(prev), string(rental.Status))

	h.emitAudit(c, "remaining_paid", rental.ID, rental.TotalPrice-rental.DepositPrice)
	h.notifyOwner(rental, "the remaining payment was made")
	apierrors.OK(c, rental)
}

func (h *PaymentHandler) emitAudit(c *gin.Context, action string, rentalID int, amount int64) {
	h.audit.Emit(c.Request.Context(), telemetry.AuditPayload{
		Action:   action,
		RentalID: rentalID,
		Amount:   amount,
		Text:     action + " recorded",
	}, requestIDFromContext(c), auditUserID(c))
}

func (h *PaymentHandler) notifyOwner(rental models.Rental, message string) {
	if h.notifier == nil {
		return
	}
	h.notifier.NotifyRental(rental.VehicleOwnerID, models.RentalNotification{
		RentalID:  rental.ID,
		Status:    rental.Status,
		Message:   message,
		CreatedAt: time.Now(),
	})
}

func (h *PaymentHandler) loadRental(c *gin.Context) (models.Rental, bool) {
	id, err := strconv.Atoi(c.Param("rental_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rental id"})
		return models.Rental{}, false
	}

	rental, err := h.rentalRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repositories.ErrRentalNotFound) {
			apierrors.Abort(c, apierrors.ErrRentalNotFound)
			return models.Rental{}, false
		}
		apierrors.Abort(c, err)
		return models.Rental{}, false
	}
	return rental, true
}
