package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rental-service/internal/mocks"
	"rental-service/internal/models"
	"rental-service/internal/repositories"
)

func setupChatRouter(handler *ChatHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	})
	r.POST("/chat/sessions", handler.CreateSession)
	r.GET("/chat/sessions", handler.GetAllSessions)
	r.GET("/chat/sessions/:session_id/messages", handler.GetSessionMessages)
	return r
}

func TestCreateSessionNew(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewChatHandler(chatRepo, new(mocks.MessageRepositoryMock), userRepo)
	router := setupChatRouter(handler)

	userRepo.On("GetByID", mock.Anything, 2).Return(testUser(2, "pw-ignored"), nil).Once()
	chatRepo.On("CreateOrGetSession", mock.Anything, 1, 2).Return(models.ChatSession{ID: 5, SenderID: 1, ReceiverID: 2}, false, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/chat/sessions", bytes.NewBufferString(`{"receiverId":2}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	chatRepo.AssertExpectations(t)
}

func TestCreateSessionExistingKeeps200WithCode(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewChatHandler(chatRepo, new(mocks.MessageRepositoryMock), userRepo)
	router := setupChatRouter(handler)

	userRepo.On("GetByID", mock.Anything, 2).Return(testUser(2, "pw-ignored"), nil).Once()
	chatRepo.On("CreateOrGetSession", mock.Anything, 1, 2).Return(models.ChatSession{ID: 5, SenderID: 1, ReceiverID: 2}, true, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/chat/sessions", bytes.NewBufferString(`{"receiverId":2}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.Equal(t, float64(5001), resp["errorCode"])
	data := resp["data"].(map[string]any)
	assert.Equal(t, float64(5), data["id"])
}

func TestCreateSessionWithSelf(t *testing.T) {
	handler := NewChatHandler(new(mocks.ChatRepositoryMock), new(mocks.MessageRepositoryMock), new(mocks.UserRepositoryMock))
	router := setupChatRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/chat/sessions", bytes.NewBufferString(`{"receiverId":1}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateSessionUnknownReceiver(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewChatHandler(new(mocks.ChatRepositoryMock), new(mocks.MessageRepositoryMock), userRepo)
	router := setupChatRouter(handler)

	userRepo.On("GetByID", mock.Anything, 42).Return(models.User{}, repositories.ErrUserNotFound).Once()

	req := httptest.NewRequest(http.MethodPost, "/chat/sessions", bytes.NewBufferString(`{"receiverId":42}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.Equal(t, float64(2001), resp["errorCode"])
}

func TestGetAllSessions(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	handler := NewChatHandler(chatRepo, new(mocks.MessageRepositoryMock), new(mocks.UserRepositoryMock))
	router := setupChatRouter(handler)

	sessions := []models.SessionWithMessages{
		{ChatSession: models.ChatSession{ID: 5, SenderID: 1, ReceiverID: 2}},
	}
	chatRepo.On("ListSessionsWithMessages", mock.Anything, 1).Return(sessions, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/chat/sessions", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	chatRepo.AssertExpectations(t)
}

func TestGetSessionMessagesNotMember(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	handler := NewChatHandler(chatRepo, new(mocks.MessageRepositoryMock), new(mocks.UserRepositoryMock))
	router := setupChatRouter(handler)

	chatRepo.On("IsParticipant", mock.Anything, 5, 1).Return(false, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/chat/sessions/5/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetSessionMessagesOrdered(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewChatHandler(chatRepo, messageRepo, new(mocks.UserRepositoryMock))
	router := setupChatRouter(handler)

	msgs := []models.ChatMessage{
		{ID: 1, SessionID: 5, SenderID: 1, ReceiverID: 2, Content: "hi"},
		{ID: 2, SessionID: 5, SenderID: 2, ReceiverID: 1, Content: "hello"},
	}
	chatRepo.On("IsParticipant", mock.Anything, 5, 1).Return(true, nil).Once()
	messageRepo.On("ListBySession", mock.Anything, 5).Return(msgs, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/chat/sessions/5/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	messageRepo.AssertExpectations(t)
}
