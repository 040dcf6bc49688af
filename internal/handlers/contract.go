package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"rental-service/internal/apierrors"
	"rental-service/internal/auth"
	"rental-service/internal/models"
	"rental-service/internal/observability"
	"rental-service/internal/repositories"
)

// ContractHandler manages rental contract drafting and signing.
type ContractHandler struct {
	contractRepo repositories.ContractRepository
	rentalRepo   repositories.RentalRepository
	vehicleRepo  repositories.VehicleRepository
	userRepo     repositories.UserRepository
	notifier     Notifier
}

// NewContractHandler builds a ContractHandler.
func NewContractHandler(contractRepo repositories.ContractRepository, rentalRepo repositories.RentalRepository, vehicleRepo repositories.VehicleRepository, userRepo repositories.UserRepository, notifier Notifier) *ContractHandler {
	return &ContractHandler{
		contractRepo: contractRepo,
		rentalRepo:   rentalRepo,
		vehicleRepo:  vehicleRepo,
		userRepo:     userRepo,
		notifier:     notifier,
	}
}

// PrepareDraft prefills a contract payload from the rental, the two
// parties and the vehicle. The owner reviews and completes it before
// submitting.
func (h *ContractHandler) PrepareDraft(c *gin.Context) {
	rental, ok := h.loadRental(c)
	if !ok {
		return
	}
	if rental.RoleOf(c.GetInt("userID")) == models.RoleNone {
		apierrors.Abort(c, apierrors.ErrNotVehicleOwner)
		return
	}
	if rental.Status != models.RentalStatusOwnerApproved && rental.Status != models.RentalStatusContractPending {
		apierrors.Abort(c, apierrors.ErrWrongRentalStatus)
		return
	}

	ctx := c.Request.Context()
	renter, err := h.userRepo.GetByID(ctx, rental.RenterID)
	if err != nil {
		apierrors.Abort(c, err)
		return
	}
	owner, err := h.userRepo.GetByID(ctx, rental.VehicleOwnerID)
	if err != nil {
		apierrors.Abort(c, err)
		return
	}
	vehicle, err := h.vehicleRepo.GetByID(ctx, rental.VehicleID)
	if err != nil {
		apierrors.Abort(c, err)
		return
	}

	renterPhone := renter.PhoneNumber
	if rental.RenterPhoneNumber != "" {
		renterPhone = rental.RenterPhoneNumber
	}

	now := time.Now()
	payload := models.ContractPayload{
		ContractDate: models.ContractDate{Day: now.Day(), Month: int(now.Month()), Year: now.Year()},
		RenterInformation: models.RenterInformation{
			Name:                renter.FullName,
			PhoneNumber:         renterPhone,
			IDCardNumber:        renter.IDCardNumber,
			DriverLicenseNumber: renter.DriverLicenseNumber,
		},
		VehicleOwnerInformation: models.OwnerInformation{
			Name:         owner.FullName,
			PhoneNumber:  owner.PhoneNumber,
			IDCardNumber: owner.IDCardNumber,
		},
		VehicleInformation: models.VehicleInformation{
			Brand:                 vehicle.Brand,
			Model:                 vehicle.Model,
			Year:                  vehicle.Year,
			Color:                 vehicle.Color,
			VehicleRegistrationID: vehicle.VehicleRegistrationID,
		},
		ContractAddress: models.ContractAddress{
			City:     vehicle.City,
			District: vehicle.District,
			Ward:     vehicle.Ward,
			Address:  vehicle.Address,
		},
		RentalInformation: models.RentalInformation{
			StartDateTime: rental.StartDateTime,
			EndDateTime:   rental.EndDateTime,
			TotalDays:     rental.TotalDays,
			TotalPrice:    rental.TotalPrice,
			DepositPrice:  rental.DepositPrice,
		},
	}
	apierrors.OK(c, payload)
}

// Create submits a contract for a rental. Only the owner drafts the
// contract, and the rental moves into contract-pending on the first
// draft.
func (h *ContractHandler) Create(c *gin.Context) {
	rental, ok := h.loadRental(c)
	if !ok {
		return
	}
	if rental.RoleOf(c.GetInt("userID")) != models.RoleOwner {
		apierrors.Abort(c, apierrors.ErrNotVehicleOwner)
		return
	}
	if rental.Status != models.RentalStatusOwnerApproved && rental.Status != models.RentalStatusContractPending {
		apierrors.Abort(c, apierrors.ErrWrongRentalStatus)
		return
	}

	var payload models.ContractPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if missing := payload.MissingFields(); len(missing) > 0 {
		c.JSON(apierrors.ErrInvalidContractData.HTTPStatus, gin.H{
			"status":    apierrors.ErrInvalidContractData.HTTPStatus,
			"errorCode": apierrors.ErrInvalidContractData.Code,
			"message":   apierrors.ErrInvalidContractData.Message,
			"missing":   missing,
		})
		return
	}

	contract := models.Contract{RentalID: rental.ID, Payload: payload}
	if err := h.contractRepo.Create(c.Request.Context(), &contract); err != nil {
		if errors.Is(err, repositories.ErrPendingContract) {
			apierrors.Abort(c, apierrors.ErrContractDraftExists)
			return
		}
		apierrors.Abort(c, apierrors.ErrContractCreate)
		return
	}

	// first draft advances the rental; re-drafts after a rejection keep
	// the rental where it is
	if rental.Status == models.RentalStatusOwnerApproved {
		prev := rental.Status
		if err := rental.Transition(models.RentalStatusContractPending, time.Now()); err == nil {
			if err := h.rentalRepo.Update(c.Request.Context(), &rental, prev); err != nil {
				apierrors.Abort(c, err)
				return
			}
			observability.IncRentalTransition(string(prev), string(rental.Status))
		}
	}

	h.notify(rental.RenterID, rental, "a contract is ready for your signature")
	apierrors.Created(c, contract)
}

// ListByRental returns every contract drafted for a rental, newest
// first.
func (h *ContractHandler) ListByRental(c *gin.Context) {
	rental, ok := h.loadRental(c)
	if !ok {
		return
	}
	if rental.RoleOf(c.GetInt("userID")) == models.RoleNone {
		apierrors.Abort(c, apierrors.ErrNotRenter)
		return
	}

	contracts, err := h.contractRepo.ListByRental(c.Request.Context(), rental.ID)
	if err != nil {
		apierrors.Abort(c, err)
		return
	}
	apierrors.OK(c, contracts)
}

// Get returns one contract to a rental participant.
func (h *ContractHandler) Get(c *gin.Context) {
	contract, rental, ok := h.loadContract(c)
	if !ok {
		return
	}
	if rental.RoleOf(c.GetInt("userID")) == models.RoleNone {
		apierrors.Abort(c, apierrors.ErrNotRenter)
		return
	}
	apierrors.OK(c, contract)
}

// Sign records a party's signature or rejection. The caller proves
// their identity again with their password. When both parties have
// signed the rental advances to contract-signed; a rejection closes the
// contract but keeps the rental in contract-pending so the owner can
// draft again.
func (h *ContractHandler) Sign(c *gin.Context) {
	contract, rental, ok := h.loadContract(c)
	if !ok {
		return
	}

	userID := c.GetInt("userID")
	role := rental.RoleOf(userID)
	if role == models.RoleNone {
		apierrors.Abort(c, apierrors.ErrNotRenter)
		return
	}

	var req struct {
		Decision string `json:"decision" binding:"required,oneof=SIGNED REJECTED"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userRepo.GetByID(c.Request.Context(), userID)
	if err != nil {
		apierrors.Abort(c, err)
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		apierrors.Abort(c, apierrors.ErrWrongPassword)
		return
	}

	if contract.ContractStatus != models.ContractStatusPending {
		apierrors.Abort(c, apierrors.ErrContractNotPending)
		return
	}

	// each party decides exactly once
	decision := models.PartyStatus(req.Decision)
	party := "renter"
	if role == models.RoleRenter {
		if contract.RenterStatus != models.PartyStatusPending {
			apierrors.Abort(c, apierrors.ErrAlreadyDecided)
			return
		}
		contract.RenterStatus = decision
	} else {
		if contract.OwnerStatus != models.PartyStatusPending {
			apierrors.Abort(c, apierrors.ErrAlreadyDecided)
			return
		}
		contract.OwnerStatus = decision
		party = "owner"
	}
	contract.ContractStatus = models.Resolve(contract.RenterStatus, contract.OwnerStatus)

	if err := h.contractRepo.UpdatePartyStatus(c.Request.Context(), &contract, role); err != nil {
		if errors.Is(err, repositories.ErrContractNotPending) {
			apierrors.Abort(c, apierrors.ErrContractNotPending)
			return
		}
		if errors.Is(err, repositories.ErrPartyDecided) {
			apierrors.Abort(c, apierrors.ErrAlreadyDecided)
			return
		}
		apierrors.Abort(c, err)
		return
	}
	observability.IncContractDecision(party, req.Decision)

	counterpart := rental.VehicleOwnerID
	if role == models.RoleOwner {
		counterpart = rental.RenterID
	}

	switch contract.ContractStatus {
	case models.ContractStatusSigned:
		prev := rental.Status
		if err := rental.Transition(models.RentalStatusContractSigned, time.Now()); err != nil {
			apierrors.Abort(c, apierrors.ErrWrongRentalStatus)
			return
		}
		if err := h.rentalRepo.Update(c.Request.Context(), &rental, prev); err != nil {
			apierrors.Abort(c, err)
			return
		}
		observability.IncRentalTransition(string(prev), string(rental.Status))
		h.notify(counterpart, rental, "the contract was signed by both parties")
	case models.ContractStatusRejected:
		h.notify(counterpart, rental, "the contract was rejected")
	default:
		h.notify(counterpart, rental, "the contract received a signature")
	}

	apierrors.OK(c, gin.H{"contract": contract, "rental": rental})
}

func (h *ContractHandler) notify(userID int, rental models.Rental, message string) {
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

func (h *ContractHandler) loadRental(c *gin.Context) (models.Rental, bool) {
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

func (h *ContractHandler) loadContract(c *gin.Context) (models.Contract, models.Rental, bool) {
	id := c.Param("contract_id")
	contract, err := h.contractRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repositories.ErrContractNotFound) {
			apierrors.Abort(c, apierrors.ErrContractNotFound)
			return models.Contract{}, models.Rental{}, false
		}
		apierrors.Abort(c, err)
		return models.Contract{}, models.Rental{}, false
	}

	rental, err := h.rentalRepo.GetByID(c.Request.Context(), contract.RentalID)
	if err != nil {
		apierrors.Abort(c, err)
		return models.Contract{}, models.Rental{}, false
	}
	return contract, rental, true
}
