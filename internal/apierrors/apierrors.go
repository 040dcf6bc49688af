package apierrors

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error is an API error with a stable application error code.
// Clients key their recovery behavior off Code, not the message text.
type Error struct {
	Code       int
	HTTPStatus int
	Message    string
}

func (e *Error) Error() string {
	return e.Message
}

func New(code, httpStatus int, message string) *Error {
	return &Error{Code: code, HTTPStatus: httpStatus, Message: message}
}

var (
	ErrUserNotFound      = New(2001, http.StatusNotFound, "user not found")
	ErrEmailTaken        = New(2002, http.StatusConflict, "email already registered")
	ErrInvalidCredential = New(2003, http.StatusUnauthorized, "invalid email or password")
	ErrVehicleNotFound   = New(2007, http.StatusNotFound, "vehicle not found")
	ErrVehicleInUse      = New(2008, http.StatusConflict, "vehicle has active rentals")
	ErrVehicleHasHistory = New(2009, http.StatusConflict, "vehicle has rental history and cannot be deleted")

	ErrVehicleNotAvailable = New(4001, http.StatusConflict, "vehicle is not available")
	ErrOwnVehicle          = New(4002, http.StatusBadRequest, "owner cannot rent their own vehicle")
	ErrNotVehicleOwner     = New(4005, http.StatusForbidden, "user is not the owner of the rental")
	ErrNotRenter           = New(4006, http.StatusForbidden, "user is not the renter of the rental")
	ErrWrongRentalStatus   = New(4007, http.StatusConflict, "rental is not in the correct status")
	ErrContractNotPending  = New(4008, http.StatusConflict, "contract is no longer pending")
	ErrWrongPassword       = New(4009, http.StatusUnauthorized, "password verification failed")
	ErrAlreadyDecided      = New(4010, http.StatusConflict, "party has already recorded a decision for this contract")
	ErrInvalidDates        = New(4012, http.StatusBadRequest, "end date must be after start date")
	ErrAvailabilityCheck   = New(4101, http.StatusInternalServerError, "failed to check vehicle availability")
	ErrContractDraftExists = New(4112, http.StatusConflict, "a pending contract already exists for this rental")
	ErrContractCreate      = New(4113, http.StatusInternalServerError, "failed to create contract")

	ErrSessionExists = New(5001, http.StatusOK, "chat session already exists")

	ErrRentalNotFound      = New(8004, http.StatusNotFound, "rental not found")
	ErrRentalCancelled     = New(8005, http.StatusConflict, "rental is cancelled")
	ErrNotDepositPending   = New(8006, http.StatusConflict, "rental is not deposit pending")
	ErrContractNotFound    = New(8101, http.StatusNotFound, "contract not found")
	ErrInvalidContractData = New(8102, http.StatusBadRequest, "contract payload has missing required fields")
)

// OK writes the success envelope used by every endpoint.
func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "data": data})
}

// Created writes the creation envelope.
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, gin.H{"status": http.StatusCreated, "data": data})
}

// OKWithCode writes a successful response that still carries an application
// error code. The duplicate-chat-session flow relies on this shape.
func OKWithCode(c *gin.Context, apiErr *Error, data any) {
	c.JSON(http.StatusOK, gin.H{
		"status":    http.StatusOK,
		"errorCode": apiErr.Code,
		"message":   apiErr.Message,
		"data":      data,
	})
}

// Abort writes the error envelope. Unknown errors become a generic 500 so
// internal details never leak to clients.
func Abort(c *gin.Context, err error) {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		apiErr = New(9000, http.StatusInternalServerError, "internal server error")
	}
	c.AbortWithStatusJSON(apiErr.HTTPStatus, gin.H{
		"status":    apiErr.HTTPStatus,
		"errorCode": apiErr.Code,
		"message":   apiErr.Message,
	})
}
