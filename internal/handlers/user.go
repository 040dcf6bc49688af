package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"rental-service/internal/apierrors"
	"rental-service/internal/auth"
	"rental-service/internal/repositories"
)

// UserHandler manages profile endpoints.
type UserHandler struct {
	userRepo repositories.UserRepository
}

// NewUserHandler builds a UserHandler.
func NewUserHandler(userRepo repositories.UserRepository) *UserHandler {
	return &UserHandler{userRepo: userRepo}
}

// GetMe returns the authenticated user's own profile.
func (h *UserHandler) GetMe(c *gin.Context) {
	user, err := h.userRepo.GetByID(c.Request.Context(), c.GetInt("userID"))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			apierrors.Abort(c, apierrors.ErrUserNotFound)
			return
		}
		apierrors.Abort(c, err)
		return
	}
	apierrors.OK(c, user)
}

// GetUser returns another user's public profile.
func (h *UserHandler) GetUser(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	user, err := h.userRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			apierrors.Abort(c, apierrors.ErrUserNotFound)
			return
		}
		apierrors.Abort(c, err)
		return
	}
	apierrors.OK(c, user.Public())
}

// UpdateMe updates the caller's profile. Identity documents feed the
// contract prefill, so they live here rather than on the rental.
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req struct {
		Nickname            *string `json:"nickname"`
		Avatar              *string `json:"avatar"`
		PhoneNumber         *string `json:"phoneNumber"`
		FullName            *string `json:"fullName"`
		IDCardNumber        *string `json:"idCardNumber"`
		DriverLicenseNumber *string `json:"driverLicenseNumber"`
		Password            *string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userRepo.GetByID(c.Request.Context(), c.GetInt("userID"))
	if err != nil {
		apierrors.Abort(c, err)
		return
	}

	if req.Nickname != nil {
		user.Nickname = *req.Nickname
	}
	if req.Avatar != nil {
		user.Avatar = *req.Avatar
	}
	if req.PhoneNumber != nil {
		user.PhoneNumber = *req.PhoneNumber
	}
	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.IDCardNumber != nil {
		user.IDCardNumber = *req.IDCardNumber
	}
	if req.DriverLicenseNumber != nil {
		user.DriverLicenseNumber = *req.DriverLicenseNumber
	}
	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			apierrors.Abort(c, err)
			return
		}
		user.PasswordHash = hash
	}

	if err := h.userRepo.Update(c.Request.Context(), &user); err != nil {
		apierrors.Abort(c, err)
		return
	}
	apierrors.OK(c, user)
}
