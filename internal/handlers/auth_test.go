package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rental-service/internal/auth"
	"rental-service/internal/mocks"
	"rental-service/internal/models"
	"rental-service/internal/repositories"
)

func setupAuthRouter(handler *AuthHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/auth/register", handler.Register)
	r.POST("/auth/login", handler.Login)
	r.POST("/auth/renew-access-token", handler.RenewAccessToken)
	return r
}

func testTokenManager() auth.TokenManager {
	return auth.NewTokenManager("test-secret", 15*time.Minute, 24*time.Hour)
}

func TestRegisterSuccess(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewAuthHandler(userRepo, testTokenManager())
	router := setupAuthRouter(handler)

	userRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).Run(func(args mock.Arguments) {
		user := args.Get(1).(*models.User)
		user.ID = 1
		assert.NotEqual(t, "longenough", user.PasswordHash)
	}).Return(nil).Once()

	body := bytes.NewBufferString(`{"email":"a@b.com","password":"longenough","nickname":"al"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/register", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeEnvelope(t, rec)
	data := resp["data"].(map[string]any)
	tokens := data["tokens"].(map[string]any)
	assert.NotEmpty(t, tokens["accessToken"])
	assert.NotEmpty(t, tokens["refreshToken"])
	userRepo.AssertExpectations(t)
}

func TestRegisterShortPassword(t *testing.T) {
	handler := NewAuthHandler(new(mocks.UserRepositoryMock), testTokenManager())
	router := setupAuthRouter(handler)

	body := bytes.NewBufferString(`{"email":"a@b.com","password":"short","nickname":"al"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/register", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterEmailTaken(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewAuthHandler(userRepo, testTokenManager())
	router := setupAuthRouter(handler)

	userRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).Return(repositories.ErrEmailTaken).Once()

	body := bytes.NewBufferString(`{"email":"a@b.com","password":"longenough","nickname":"al"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/register", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.Equal(t, float64(2002), resp["errorCode"])
}

func TestLoginWrongPassword(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewAuthHandler(userRepo, testTokenManager())
	router := setupAuthRouter(handler)

	userRepo.On("GetByEmail", mock.Anything, "a@b.com").Return(testUser(1, "right-password"), nil).Once()

	body := bytes.NewBufferString(`{"email":"a@b.com","password":"wrong-password"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.Equal(t, float64(2003), resp["errorCode"])
}

func TestLoginUnknownEmailSameError(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewAuthHandler(userRepo, testTokenManager())
	router := setupAuthRouter(handler)

	userRepo.On("GetByEmail", mock.Anything, "ghost@b.com").Return(models.User{}, repositories.ErrUserNotFound).Once()

	body := bytes.NewBufferString(`{"email":"ghost@b.com","password":"whatever1"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.Equal(t, float64(2003), resp["errorCode"])
}

func TestRenewAccessToken(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	tokens := testTokenManager()
	handler := NewAuthHandler(userRepo, tokens)
	router := setupAuthRouter(handler)

	pair, err := tokens.GeneratePair(1, "a@b.com")
	require.NoError(t, err)
	userRepo.On("GetByID", mock.Anything, 1).Return(testUser(1, "right-password"), nil).Once()

	body := bytes.NewBufferString(`{"refreshToken":"` + pair.RefreshToken + `"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/renew-access-token", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeEnvelope(t, rec)
	data := resp["data"].(map[string]any)
	assert.NotEmpty(t, data["accessToken"])
	userRepo.AssertExpectations(t)
}

func TestRenewWithAccessTokenRejected(t *testing.T) {
	tokens := testTokenManager()
	handler := NewAuthHandler(new(mocks.UserRepositoryMock), tokens)
	router := setupAuthRouter(handler)

	pair, err := tokens.GeneratePair(1, "a@b.com")
	require.NoError(t, err)

	body := bytes.NewBufferString(`{"refreshToken":"` + pair.AccessToken + `"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/renew-access-token", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
