package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"rental-service/internal/apierrors"
	"rental-service/internal/availability"
	"rental-service/internal/models"
	"rental-service/internal/observability"
	"rental-service/internal/pricing"
	"rental-service/internal/repositories"
)

// Notifier pushes rental lifecycle notifications to connected clients.
type Notifier interface {
	NotifyRental(userID int, n models.RentalNotification)
}

// RentalHandler manages the rental lifecycle endpoints.
type RentalHandler struct {
	rentalRepo  repositories.RentalRepository
	vehicleRepo repositories.VehicleRepository
	checker     *availability.Checker
	notifier    Notifier
}

// NewRentalHandler builds a RentalHandler.
func NewRentalHandler(rentalRepo repositories.RentalRepository, vehicleRepo repositories.VehicleRepository, checker *availability.Checker, notifier Notifier) *RentalHandler {
	return &RentalHandler{
		rentalRepo:  rentalRepo,
		vehicleRepo: vehicleRepo,
		checker:     checker,
		notifier:    notifier,
	}
}

// CheckAvailability reports whether a vehicle is free for a period.
func (h *RentalHandler) CheckAvailability(c *gin.Context) {
	vehicleID, err := strconv.Atoi(c.Param("vehicle_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid vehicle id"})
		return
	}
	start, end, ok := parsePeriod(c)
	if !ok {
		return
	}

	if _, err := h.vehicleRepo.GetByID(c.Request.Context(), vehicleID); err != nil {
		if errors.Is(err, repositories.ErrVehicleNotFound) {
			apierrors.Abort(c, apierrors.ErrVehicleNotFound)
			return
		}
		apierrors.Abort(c, err)
		return
	}

	result, err := h.checker.Check(c.Request.Context(), vehicleID, start, end)
	if err != nil {
		apierrors.Abort(c, apierrors.ErrAvailabilityCheck)
		return
	}
	apierrors.OK(c, result)
}

// GetConfirmation returns the quote a renter reviews before booking.
func (h *RentalHandler) GetConfirmation(c *gin.Context) {
	vehicleID, err := strconv.Atoi(c.Param("vehicle_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid vehicle id"})
		return
	}
	start, end, ok := parsePeriod(c)
	if !ok {
		return
	}

	vehicle, err := h.vehicleRepo.GetByID(c.Request.Context(), vehicleID)
	if err != nil {
		if errors.Is(err, repositories.ErrVehicleNotFound) {
			apierrors.Abort(c, apierrors.ErrVehicleNotFound)
			return
		}
		apierrors.Abort(c, err)
		return
	}
	if vehicle.OwnerID == c.GetInt("userID") {
		apierrors.Abort(c, apierrors.ErrOwnVehicle)
		return
	}

	result, err := h.checker.Check(c.Request.Context(), vehicleID, start, end)
	if err != nil {
		apierrors.Abort(c, apierrors.ErrAvailabilityCheck)
		return
	}
	if !result.Available {
		apierrors.Abort(c, apierrors.ErrVehicleNotAvailable)
		return
	}

	quote, err := pricing.Compute(vehicle.PricePerDay, start, end)
	if err != nil {
		apierrors.Abort(c, apierrors.ErrInvalidDates)
		return
	}
	apierrors.OK(c, gin.H{"vehicle": vehicle, "quote": quote})
}

// Create books a vehicle. The rental starts in deposit-pending and the
// renter has a payment window before a scheduled job cancels it.
func (h *RentalHandler) Create(c *gin.Context) {
	var req struct {
		VehicleID         int    `json:"vehicleId" binding:"required"`
		StartDateTime     string `json:"startDateTime" binding:"required"`
		EndDateTime       string `json:"endDateTime" binding:"required"`
		RenterPhoneNumber string `json:"renterPhoneNumber"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	start, err := time.Parse(time.RFC3339, req.StartDateTime)
	if err != nil {
		apierrors.Abort(c, apierrors.ErrInvalidDates)
		return
	}
	end, err := time.Parse(time.RFC3339, req.EndDateTime)
	if err != nil || !end.After(start) {
		apierrors.Abort(c, apierrors.ErrInvalidDates)
		return
	}

	renterID := c.GetInt("userID")
	vehicle, err := h.vehicleRepo.GetByID(c.Request.Context(), req.VehicleID)
	if err != nil {
		if errors.Is(err, repositories.ErrVehicleNotFound) {
			apierrors.Abort(c, apierrors.ErrVehicleNotFound)
			return
		}
		apierrors.Abort(c, err)
		return
	}
	if vehicle.OwnerID == renterID {
		apierrors.Abort(c, apierrors.ErrOwnVehicle)
		return
	}

	result, err := h.checker.Check(c.Request.Context(), vehicle.ID, start, end)
	if err != nil {
		apierrors.Abort(c, apierrors.ErrAvailabilityCheck)
		return
	}
	if !result.Available {
		apierrors.Abort(c, apierrors.ErrVehicleNotAvailable)
		return
	}

	quote, err := pricing.Compute(vehicle.PricePerDay, start, end)
	if err != nil {
		apierrors.Abort(c, apierrors.ErrInvalidDates)
		return
	}

	now := time.Now()
	rental := models.Rental{
		VehicleID:         vehicle.ID,
		RenterID:          renterID,
		VehicleOwnerID:    vehicle.OwnerID,
		RenterPhoneNumber: req.RenterPhoneNumber,
		StartDateTime:     start,
		EndDateTime:       end,
		TotalDays:         quote.TotalDays,
		DailyPrice:        quote.DailyPrice,
		TotalPrice:        quote.TotalPrice,
		DepositPrice:      quote.DepositPrice,
		Status:            models.RentalStatusDepositPending,
		StatusWorkflowHistory: models.StatusWorkflowHistory{
			{Status: models.RentalStatusDepositPending, Date: now},
		},
	}
	if err := h.rentalRepo.Create(c.Request.Context(), &rental); err != nil {
		if errors.Is(err, repositories.ErrPeriodTaken) {
			apierrors.Abort(c, apierrors.ErrVehicleNotAvailable)
			return
		}
		apierrors.Abort(c, err)
		return
	}

	apierrors.Created(c, rental)
}

// Get returns one rental to either of its participants.
func (h *RentalHandler) Get(c *gin.Context) {
	rental, ok := h.loadRental(c)
	if !ok {
		return
	}
	if rental.RoleOf(c.GetInt("userID")) == models.RoleNone {
		apierrors.Abort(c, apierrors.ErrNotRenter)
		return
	}
	apierrors.OK(c, rental)
}

// ListAsRenter returns rentals where the caller is the renter.
func (h *RentalHandler) ListAsRenter(c *gin.Context) {
	rentals, err := h.rentalRepo.ListByRenter(c.Request.Context(), c.GetInt("userID"))
	if err != nil {
		apierrors.Abort(c, err)
		return
	}
	apierrors.OK(c, rentals)
}

// ListAsOwner returns rentals on the caller's vehicles.
func (h *RentalHandler) ListAsOwner(c *gin.Context) {
	rentals, err := h.rentalRepo.ListByOwner(c.Request.Context(), c.GetInt("userID"))
	if err != nil {
		apierrors.Abort(c, err)
		return
	}
	apierrors.OK(c, rentals)
}

// OwnerDecision records the owner's approval or rejection of a rental
// waiting in owner-pending.
func (h *RentalHandler) OwnerDecision(c *gin.Context) {
	rental, ok := h.loadRental(c)
	if !ok {
		return
	}
	if rental.RoleOf(c.GetInt("userID")) != models.RoleOwner {
		apierrors.Abort(c, apierrors.ErrNotVehicleOwner)
		return
	}

	var req struct {
		Status *bool `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	next := models.RentalStatusOwnerApproved
	message := "the owner approved your rental request"
	if !*req.Status {
		next = models.RentalStatusCancelled
		message = "the owner rejected your rental request"
	}

	if err := h.transition(c, &rental, next); err != nil {
		return
	}
	h.notify(rental.RenterID, rental, message)
	apierrors.OK(c, rental)
}

// Cancel cancels a rental on behalf of either participant while the
// state machine still allows it.
func (h *RentalHandler) Cancel(c *gin.Context) {
	rental, ok := h.loadRental(c)
	if !ok {
		return
	}
	role := rental.RoleOf(c.GetInt("userID"))
	if role == models.RoleNone {
		apierrors.Abort(c, apierrors.ErrNotRenter)
		return
	}

	if err := h.transition(c, &rental, models.RentalStatusCancelled); err != nil {
		return
	}

	counterpart := rental.RenterID
	message := "the owner cancelled the rental"
	if role == models.RoleRenter {
		counterpart = rental.VehicleOwnerID
		message = "the renter cancelled the rental"
	}
	h.notify(counterpart, rental, message)
	apierrors.OK(c, rental)
}

// ConfirmReceived records the owner's confirmation that the renter
// picked up the vehicle.
func (h *RentalHandler) ConfirmReceived(c *gin.Context) {
	rental, ok := h.loadRental(c)
	if !ok {
		return
	}
	if rental.RoleOf(c.GetInt("userID")) != models.RoleOwner {
		apierrors.Abort(c, apierrors.ErrNotVehicleOwner)
		return
	}

	if err := h.transition(c, &rental, models.RentalStatusRenterReceived); err != nil {
		return
	}
	h.notify(rental.RenterID, rental, "the owner confirmed the vehicle handover")
	apierrors.OK(c, rental)
}

// ConfirmReturned records the owner's confirmation that the vehicle came
// back. A scheduled job later settles the rental as completed.
func (h *RentalHandler) ConfirmReturned(c *gin.Context) {
	rental, ok := h.loadRental(c)
	if !ok {
		return
	}
	if rental.RoleOf(c.GetInt("userID")) != models.RoleOwner {
		apierrors.Abort(c, apierrors.ErrNotVehicleOwner)
		return
	}

	if err := h.transition(c, &rental, models.RentalStatusRenterReturned); err != nil {
		return
	}
	h.notify(rental.RenterID, rental, "the owner confirmed the vehicle return")
	apierrors.OK(c, rental)
}

// transition applies a status change and persists it under the guard of
// the status the rental was loaded with. Replies with the proper API
// error on failure and returns a non-nil error so callers stop.
func (h *RentalHandler) transition(c *gin.Context, rental *models.Rental, next models.RentalStatus) error {
	prev := rental.Status
	if err := rental.Transition(next, time.Now()); err != nil {
		if prev == models.RentalStatusCancelled {
			apierrors.Abort(c, apierrors.ErrRentalCancelled)
			return err
		}
		apierrors.Abort(c, apierrors.ErrWrongRentalStatus)
		return err
	}
	if err := h.rentalRepo.Update(c.Request.Context(), rental, prev); err != nil {
		if errors.Is(err, repositories.ErrStaleRental) {
			apierrors.Abort(c, apierrors.ErrWrongRentalStatus)
			return err
		}
		apierrors.Abort(c, err)
		return err
	}
	observability.IncRentalTransition(string(prev), string(next))
	return nil
}

func (h *RentalHandler) notify(userID int, rental models.Rental, message string) {
	if h.notifier == nil {
		return
	}
	h.notifier.NotifyRental(userID, models.RentalNotification{
		RentalID:  rental.ID,
		Status:    rental.Status,
		Message:   message,
		CreatedAt: time.Now(),
	})
}

func (h *RentalHandler) loadRental(c *gin.Context) (models.Rental, bool) {
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

func parsePeriod(c *gin.Context) (time.Time, time.Time, bool) {
	start, err := time.Parse(time.RFC3339, c.Query("startDateTime"))
	if err != nil {
		apierrors.Abort(c, apierrors.ErrInvalidDates)
		return time.Time{}, time.Time{}, false
	}
	end, err := time.Parse(time.RFC3339, c.Query("endDateTime"))
	if err != nil || !end.After(start) {
		apierrors.Abort(c, apierrors.ErrInvalidDates)
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}
