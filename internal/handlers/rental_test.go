package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rental-service/internal/availability"
	"rental-service/internal/mocks"
	"rental-service/internal/models"
	"rental-service/internal/repositories"
)

func setupRentalRouter(handler *RentalHandler, userID int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	})
	r.GET("/vehicles/:vehicle_id/availability", handler.CheckAvailability)
	r.GET("/vehicles/:vehicle_id/rental-confirmation", handler.GetConfirmation)
	r.POST("/rentals", handler.Create)
	r.GET("/rentals/:rental_id", handler.Get)
	r.POST("/rentals/:rental_id/decision", handler.OwnerDecision)
	r.POST("/rentals/:rental_id/cancel", handler.Cancel)
	r.POST("/rentals/:rental_id/received", handler.ConfirmReceived)
	r.POST("/rentals/:rental_id/returned", handler.ConfirmReturned)
	return r
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func testVehicle() models.Vehicle {
	return models.Vehicle{ID: 7, OwnerID: 2, PricePerDay: 500000}
}

func testRental(status models.RentalStatus) models.Rental {
	start := time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)
	return models.Rental{
		ID:             11,
		VehicleID:      7,
		RenterID:       1,
		VehicleOwnerID: 2,
		StartDateTime:  start,
		EndDateTime:    start.Add(72 * time.Hour),
		TotalDays:      3,
		DailyPrice:     500000,
		TotalPrice:     1502500,
		DepositPrice:   450750,
		Status:         status,
		StatusWorkflowHistory: models.StatusWorkflowHistory{
			{Status: models.RentalStatusDepositPending, Date: start},
		},
	}
}

func TestCheckAvailabilityFree(t *testing.T) {
	rentalRepo := new(mocks.RentalRepositoryMock)
	vehicleRepo := new(mocks.VehicleRepositoryMock)
	handler := NewRentalHandler(rentalRepo, vehicleRepo, availability.NewChecker(rentalRepo), nil)
	router := setupRentalRouter(handler, 1)

	vehicleRepo.On("GetByID", mock.Anything, 7).Return(testVehicle(), nil).Once()
	rentalRepo.On("ConfirmedBookings", mock.Anything, 7, mock.Anything).Return([]availability.Booking(nil), nil)

	req := httptest.NewRequest(http.MethodGet,
		"/vehicles/7/availability?startDateTime=2025-06-10T08:00:00Z&endDateTime=2025-06-13T08:00:00Z", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeEnvelope(t, rec)
	data := resp["data"].(map[string]any)
	assert.Equal(t, true, data["available"])
	vehicleRepo.AssertExpectations(t)
}

func TestCheckAvailabilityConflict(t *testing.T) {
	rentalRepo := new(mocks.RentalRepositoryMock)
	vehicleRepo := new(mocks.VehicleRepositoryMock)
	handler := NewRentalHandler(rentalRepo, vehicleRepo, availability.NewChecker(rentalRepo), nil)
	router := setupRentalRouter(handler, 1)

	booked := availability.Booking{
		RentalID: 3,
		Start:    time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC),
		End:      time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
	}
	vehicleRepo.On("GetByID", mock.Anything, 7).Return(testVehicle(), nil).Once()
	rentalRepo.On("ConfirmedBookings", mock.Anything, 7, mock.Anything).Return([]availability.Booking{booked}, nil)

	req := httptest.NewRequest(http.MethodGet,
		"/vehicles/7/availability?startDateTime=2025-06-10T08:00:00Z&endDateTime=2025-06-13T08:00:00Z", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeEnvelope(t, rec)
	data := resp["data"].(map[string]any)
	assert.Equal(t, false, data["available"])
}

func TestCheckAvailabilityBadDates(t *testing.T) {
	handler := NewRentalHandler(new(mocks.RentalRepositoryMock), new(mocks.VehicleRepositoryMock), nil, nil)
	router := setupRentalRouter(handler, 1)

	req := httptest.NewRequest(http.MethodGet,
		"/vehicles/7/availability?startDateTime=2025-06-13T08:00:00Z&endDateTime=2025-06-10T08:00:00Z", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.Equal(t, float64(4012), resp["errorCode"])
}

func TestGetConfirmationOwnVehicle(t *testing.T) {
	rentalRepo := new(mocks.RentalRepositoryMock)
	vehicleRepo := new(mocks.VehicleRepositoryMock)
	handler := NewRentalHandler(rentalRepo, vehicleRepo, availability.NewChecker(rentalRepo), nil)
	router := setupRentalRouter(handler, 2)

	vehicleRepo.On("GetByID", mock.Anything, 7).Return(testVehicle(), nil).Once()

	req := httptest.NewRequest(http.MethodGet,
		"/vehicles/7/rental-confirmation?startDateTime=2025-06-10T08:00:00Z&endDateTime=2025-06-13T08:00:00Z", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.Equal(t, float64(4002), resp["errorCode"])
}

func TestCreateRentalSuccess(t *testing.T) {
	rentalRepo := new(mocks.RentalRepositoryMock)
	vehicleRepo := new(mocks.VehicleRepositoryMock)
	handler := NewRentalHandler(rentalRepo, vehicleRepo, availability.NewChecker(rentalRepo), nil)
	router := setupRentalRouter(handler, 1)

	vehicleRepo.On("GetByID", mock.Anything, 7).Return(testVehicle(), nil).Once()
	rentalRepo.On("ConfirmedBookings", mock.Anything, 7, mock.Anything).Return([]availability.Booking(nil), nil)
	rentalRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Rental")).Run(func(args mock.Arguments) {
		rental := args.Get(1).(*models.Rental)
		rental.ID = 11

		assert.Equal(t, models.RentalStatusDepositPending, rental.Status)
		require.Len(t, rental.StatusWorkflowHistory, 1)
		assert.Equal(t, models.RentalStatusDepositPending, rental.StatusWorkflowHistory[0].Status)
		assert.Equal(t, int64(1502500), rental.TotalPrice)
		assert.Equal(t, int64(450750), rental.DepositPrice)
	}).Return(nil).Once()

	body := bytes.NewBufferString(`{"vehicleId":7,"startDateTime":"2025-06-10T08:00:00Z","endDateTime":"2025-06-13T08:00:00Z","renterPhoneNumber":"0901234567"}`)
	req := httptest.NewRequest(http.MethodPost, "/rentals", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	rentalRepo.AssertExpectations(t)
	vehicleRepo.AssertExpectations(t)
}

func TestCreateRentalPeriodTaken(t *testing.T) {
	rentalRepo := new(mocks.RentalRepositoryMock)
	vehicleRepo := new(mocks.VehicleRepositoryMock)
	handler := NewRentalHandler(rentalRepo, vehicleRepo, availability.NewChecker(rentalRepo), nil)
	router := setupRentalRouter(handler, 1)

	vehicleRepo.On("GetByID", mock.Anything, 7).Return(testVehicle(), nil).Once()
	rentalRepo.On("ConfirmedBookings", mock.Anything, 7, mock.Anything).Return([]availability.Booking(nil), nil)
	rentalRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Rental")).Return(repositories.ErrPeriodTaken).Once()

	body := bytes.NewBufferString(`{"vehicleId":7,"startDateTime":"2025-06-10T08:00:00Z","endDateTime":"2025-06-13T08:00:00Z"}`)
	req := httptest.NewRequest(http.MethodPost, "/rentals", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.Equal(t, float64(4001), resp["errorCode"])
}

func TestGetRentalStranger(t *testing.T) {
	rentalRepo := new(mocks.RentalRepositoryMock)
	handler := NewRentalHandler(rentalRepo, new(mocks.VehicleRepositoryMock), nil, nil)
	router := setupRentalRouter(handler, 99)

	rentalRepo.On("GetByID", mock.Anything, 11).Return(testRental(models.RentalStatusOwnerPending), nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/rentals/11", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestOwnerDecisionApprove(t *testing.T) {
	rentalRepo := new(mocks.RentalRepositoryMock)
	notifier := new(mocks.NotifierMock)
	handler := NewRentalHandler(rentalRepo, new(mocks.VehicleRepositoryMock), nil, notifier)
	router := setupRentalRouter(handler, 2)

	rentalRepo.On("GetByID", mock.Anything, 11).Return(testRental(models.RentalStatusOwnerPending), nil).Once()
	rentalRepo.On("Update", mock.Anything, mock.AnythingOfType("*models.Rental"), models.RentalStatusOwnerPending).Run(func(args mock.Arguments) {
		rental := args.Get(1).(*models.Rental)
		assert.Equal(t, models.RentalStatusOwnerApproved, rental.Status)
		assert.Len(t, rental.StatusWorkflowHistory, 2)
	}).Return(nil).Once()
	notifier.On("NotifyRental", 1, mock.AnythingOfType("models.RentalNotification")).Once()

	req := httptest.NewRequest(http.MethodPost, "/rentals/11/decision", bytes.NewBufferString(`{"status":true}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	rentalRepo.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestOwnerDecisionReject(t *testing.T) {
	rentalRepo := new(mocks.RentalRepositoryMock)
	notifier := new(mocks.NotifierMock)
	handler := NewRentalHandler(rentalRepo, new(mocks.VehicleRepositoryMock), nil, notifier)
	router := setupRentalRouter(handler, 2)

	rentalRepo.On("GetByID", mock.Anything, 11).Return(testRental(models.RentalStatusOwnerPending), nil).Once()
	rentalRepo.On("Update", mock.Anything, mock.AnythingOfType("*models.Rental"), models.RentalStatusOwnerPending).Run(func(args mock.Arguments) {
		rental := args.Get(1).(*models.Rental)
		assert.Equal(t, models.RentalStatusCancelled, rental.Status)
	}).Return(nil).Once()
	notifier.On("NotifyRental", 1, mock.AnythingOfType("models.RentalNotification")).Once()

	req := httptest.NewRequest(http.MethodPost, "/rentals/11/decision", bytes.NewBufferString(`{"status":false}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	rentalRepo.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestOwnerDecisionByRenterForbidden(t *testing.T) {
	rentalRepo := new(mocks.RentalRepositoryMock)
	handler := NewRentalHandler(rentalRepo, new(mocks.VehicleRepositoryMock), nil, nil)
	router := setupRentalRouter(handler, 1)

	rentalRepo.On("GetByID", mock.Anything, 11).Return(testRental(models.RentalStatusOwnerPending), nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/rentals/11/decision", bytes.NewBufferString(`{"status":true}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.Equal(t, float64(4005), resp["errorCode"])
}

func TestOwnerDecisionWrongStatus(t *testing.T) {
	rentalRepo := new(mocks.RentalRepositoryMock)
	handler := NewRentalHandler(rentalRepo, new(mocks.VehicleRepositoryMock), nil, nil)
	router := setupRentalRouter(handler, 2)

	rentalRepo.On("GetByID", mock.Anything, 11).Return(testRental(models.RentalStatusDepositPending), nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/rentals/11/decision", bytes.NewBufferString(`{"status":true}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.Equal(t, float64(4007), resp["errorCode"])
}

func TestCancelAlreadyCancelled(t *testing.T) {
	rentalRepo := new(mocks.RentalRepositoryMock)
	handler := NewRentalHandler(rentalRepo, new(mocks.VehicleRepositoryMock), nil, nil)
	router := setupRentalRouter(handler, 1)

	rentalRepo.On("GetByID", mock.Anything, 11).Return(testRental(models.RentalStatusCancelled), nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/rentals/11/cancel", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.Equal(t, float64(8005), resp["errorCode"])
}

func TestCancelByRenterNotifiesOwner(t *testing.T) {
	rentalRepo := new(mocks.RentalRepositoryMock)
	notifier := new(mocks.NotifierMock)
	handler := NewRentalHandler(rentalRepo, new(mocks.VehicleRepositoryMock), nil, notifier)
	router := setupRentalRouter(handler, 1)

	rentalRepo.On("GetByID", mock.Anything, 11).Return(testRental(models.RentalStatusDepositPending), nil).Once()
	rentalRepo.On("Update", mock.Anything, mock.AnythingOfType("*models.Rental"), models.RentalStatusDepositPending).Return(nil).Once()
	notifier.On("NotifyRental", 2, mock.AnythingOfType("models.RentalNotification")).Once()

	req := httptest.NewRequest(http.MethodPost, "/rentals/11/cancel", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	notifier.AssertExpectations(t)
}

func TestConfirmReceivedByRenterForbidden(t *testing.T) {
	rentalRepo := new(mocks.RentalRepositoryMock)
	handler := NewRentalHandler(rentalRepo, new(mocks.VehicleRepositoryMock), nil, nil)
	router := setupRentalRouter(handler, 1)

	rentalRepo.On("GetByID", mock.Anything, 11).Return(testRental(models.RentalStatusRemainingPaymentPaid), nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/rentals/11/received", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestConfirmReturnedAdvances(t *testing.T) {
	rentalRepo := new(mocks.RentalRepositoryMock)
	notifier := new(mocks.NotifierMock)
	handler := NewRentalHandler(rentalRepo, new(mocks.VehicleRepositoryMock), nil, notifier)
	router := setupRentalRouter(handler, 2)

	rentalRepo.On("GetByID", mock.Anything, 11).Return(testRental(models.RentalStatusRenterReceived), nil).Once()
	rentalRepo.On("Update", mock.Anything, mock.AnythingOfType("*models.Rental"), models.RentalStatusRenterReceived).Run(func(args mock.Arguments) {
		rental := args.Get(1).(*models.Rental)
		assert.Equal(t, models.RentalStatusRenterReturned, rental.Status)
	}).Return(nil).Once()
	notifier.On("NotifyRental", 1, mock.AnythingOfType("models.RentalNotification")).Once()

	req := httptest.NewRequest(http.MethodPost, "/rentals/11/returned", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	rentalRepo.AssertExpectations(t)
	notifier.AssertExpectations(t)
}
