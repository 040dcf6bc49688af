package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"rental-service/internal/apierrors"
	"rental-service/internal/models"
	"rental-service/internal/repositories"
)

// VehicleHandler manages vehicle listing endpoints.
type VehicleHandler struct {
	vehicleRepo repositories.VehicleRepository
}

// NewVehicleHandler builds a VehicleHandler.
func NewVehicleHandler(vehicleRepo repositories.VehicleRepository) *VehicleHandler {
	return &VehicleHandler{vehicleRepo: vehicleRepo}
}

// Create lists a new vehicle owned by the caller.
func (h *VehicleHandler) Create(c *gin.Context) {
	var vehicle models.Vehicle
	if err := c.ShouldBindJSON(&vehicle); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if vehicle.Title == "" || vehicle.Brand == "" || vehicle.Model == "" || vehicle.PricePerDay <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title, brand, model and a positive price are required"})
		return
	}

	vehicle.OwnerID = c.GetInt("userID")
	if err := h.vehicleRepo.Create(c.Request.Context(), &vehicle); err != nil {
		apierrors.Abort(c, err)
		return
	}
	apierrors.Created(c, vehicle)
}

// List returns every visible vehicle.
func (h *VehicleHandler) List(c *gin.Context) {
	vehicles, err := h.vehicleRepo.ListVisible(c.Request.Context())
	if err != nil {
		apierrors.Abort(c, err)
		return
	}
	apierrors.OK(c, vehicles)
}

// ListMine returns the caller's vehicles, hidden ones included.
func (h *VehicleHandler) ListMine(c *gin.Context) {
	vehicles, err := h.vehicleRepo.ListByOwner(c.Request.Context(), c.GetInt("userID"))
	if err != nil {
		apierrors.Abort(c, err)
		return
	}
	apierrors.OK(c, vehicles)
}

// Get returns one vehicle.
func (h *VehicleHandler) Get(c *gin.Context) {
	vehicle, ok := h.loadVehicle(c)
	if !ok {
		return
	}
	apierrors.OK(c, vehicle)
}

// Update edits a vehicle. Only the owner may edit.
func (h *VehicleHandler) Update(c *gin.Context) {
	vehicle, ok := h.loadVehicle(c)
	if !ok {
		return
	}
	if vehicle.OwnerID != c.GetInt("userID") {
		apierrors.Abort(c, apierrors.ErrNotVehicleOwner)
		return
	}

	var req models.Vehicle
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.ID = vehicle.ID
	req.OwnerID = vehicle.OwnerID
	if req.PricePerDay <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a positive price is required"})
		return
	}

	if err := h.vehicleRepo.Update(c.Request.Context(), &req); err != nil {
		apierrors.Abort(c, err)
		return
	}
	apierrors.OK(c, req)
}

// SetHidden toggles a vehicle's visibility in listings.
func (h *VehicleHandler) SetHidden(c *gin.Context) {
	vehicle, ok := h.loadVehicle(c)
	if !ok {
		return
	}
	if vehicle.OwnerID != c.GetInt("userID") {
		apierrors.Abort(c, apierrors.ErrNotVehicleOwner)
		return
	}

	var req struct {
		Hidden *bool `json:"isHidden" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.vehicleRepo.SetHidden(c.Request.Context(), vehicle.ID, *req.Hidden); err != nil {
		apierrors.Abort(c, err)
		return
	}
	vehicle.Hidden = *req.Hidden
	apierrors.OK(c, vehicle)
}

// Delete removes a vehicle with no active rentals.
func (h *VehicleHandler) Delete(c *gin.Context) {
	vehicle, ok := h.loadVehicle(c)
	if !ok {
		return
	}
	if vehicle.OwnerID != c.GetInt("userID") {
		apierrors.Abort(c, apierrors.ErrNotVehicleOwner)
		return
	}

	if err := h.vehicleRepo.Delete(c.Request.Context(), vehicle.ID); err != nil {
		if errors.Is(err, repositories.ErrVehicleInUse) {
			apierrors.Abort(c, apierrors.ErrVehicleInUse)
			return
		}
		if errors.Is(err, repositories.ErrVehicleHasHistory) {
			apierrors.Abort(c, apierrors.ErrVehicleHasHistory)
			return
		}
		apierrors.Abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *VehicleHandler) loadVehicle(c *gin.Context) (models.Vehicle, bool) {
	id, err := strconv.Atoi(c.Param("vehicle_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid vehicle id"})
		return models.Vehicle{}, false
	}

	vehicle, err := h.vehicleRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repositories.ErrVehicleNotFound) {
			apierrors.Abort(c, apierrors.ErrVehicleNotFound)
			return models.Vehicle{}, false
		}
		apierrors.Abort(c, err)
		return models.Vehicle{}, false
	}
	return vehicle, true
}
