package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rental-service/internal/mocks"
	"rental-service/internal/repositories"
)

func setupVehicleRouter(handler *VehicleHandler, userID int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	})
	r.DELETE("/vehicles/:vehicle_id", handler.Delete)
	return r
}

func TestDeleteVehicleSuccess(t *testing.T) {
	vehicleRepo := new(mocks.VehicleRepositoryMock)
	handler := NewVehicleHandler(vehicleRepo)
	router := setupVehicleRouter(handler, 2)

	vehicleRepo.On("GetByID", mock.Anything, 7).Return(testVehicle(), nil).Once()
	vehicleRepo.On("Delete", mock.Anything, 7).Return(nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/vehicles/7", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	vehicleRepo.AssertExpectations(t)
}

func TestDeleteVehicleWithActiveRentals(t *testing.T) {
	vehicleRepo := new(mocks.VehicleRepositoryMock)
	handler := NewVehicleHandler(vehicleRepo)
	router := setupVehicleRouter(handler, 2)

	vehicleRepo.On("GetByID", mock.Anything, 7).Return(testVehicle(), nil).Once()
	vehicleRepo.On("Delete", mock.Anything, 7).Return(repositories.ErrVehicleInUse).Once()

	req := httptest.NewRequest(http.MethodDelete, "/vehicles/7", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.Equal(t, float64(2008), resp["errorCode"])
}

func TestDeleteVehicleWithRentalHistory(t *testing.T) {
	vehicleRepo := new(mocks.VehicleRepositoryMock)
	handler := NewVehicleHandler(vehicleRepo)
	router := setupVehicleRouter(handler, 2)

	// every rental is terminal but the rows still reference the vehicle
	vehicleRepo.On("GetByID", mock.Anything, 7).Return(testVehicle(), nil).Once()
	vehicleRepo.On("Delete", mock.Anything, 7).Return(repositories.ErrVehicleHasHistory).Once()

	req := httptest.NewRequest(http.MethodDelete, "/vehicles/7", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.Equal(t, float64(2009), resp["errorCode"])
}

func TestDeleteVehicleByStrangerForbidden(t *testing.T) {
	vehicleRepo := new(mocks.VehicleRepositoryMock)
	handler := NewVehicleHandler(vehicleRepo)
	router := setupVehicleRouter(handler, 9)

	vehicleRepo.On("GetByID", mock.Anything, 7).Return(testVehicle(), nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/vehicles/7", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	vehicleRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}
