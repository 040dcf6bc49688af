package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"rental-service/internal/apierrors"
	"rental-service/internal/auth"
	"rental-service/internal/models"
	"rental-service/internal/repositories"
)

// AuthHandler manages registration, login and token renewal.
type AuthHandler struct {
	userRepo repositories.UserRepository
	tokens   auth.TokenManager
}

// NewAuthHandler builds an AuthHandler.
func NewAuthHandler(userRepo repositories.UserRepository, tokens auth.TokenManager) *AuthHandler {
	return &AuthHandler{userRepo: userRepo, tokens: tokens}
}

// Register creates a new account and returns a token pair.
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
		Nickname string `json:"nickname" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		apierrors.Abort(c, err)
		return
	}

	user := models.User{Email: req.Email, PasswordHash: hash, Nickname: req.Nickname}
	if err := h.userRepo.Create(c.Request.Context(), &user); err != nil {
		if errors.Is(err, repositories.ErrEmailTaken) {
			apierrors.Abort(c, apierrors.ErrEmailTaken)
			return
		}
		apierrors.Abort(c, err)
		return
	}

	pair, err := h.tokens.GeneratePair(user.ID, user.Email)
	if err != nil {
		apierrors.Abort(c, err)
		return
	}

	apierrors.Created(c, gin.H{"user": user, "tokens": pair})
}

// Login verifies credentials and returns a token pair.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userRepo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			apierrors.Abort(c, apierrors.ErrInvalidCredential)
			return
		}
		apierrors.Abort(c, err)
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		apierrors.Abort(c, apierrors.ErrInvalidCredential)
		return
	}

	pair, err := h.tokens.GeneratePair(user.ID, user.Email)
	if err != nil {
		apierrors.Abort(c, err)
		return
	}

	apierrors.OK(c, gin.H{"user": user, "tokens": pair})
}

// RenewAccessToken exchanges a valid refresh token for a fresh pair.
func (h *AuthHandler) RenewAccessToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	claims, err := h.tokens.ValidateRefresh(req.RefreshToken)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}

	// the user may have been deleted since the refresh token was issued
	user, err := h.userRepo.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
			return
		}
		apierrors.Abort(c, err)
		return
	}

	pair, err := h.tokens.GeneratePair(user.ID, user.Email)
	if err != nil {
		apierrors.Abort(c, err)
		return
	}

	apierrors.OK(c, pair)
}
