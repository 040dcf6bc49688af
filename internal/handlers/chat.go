package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"rental-service/internal/apierrors"
	"rental-service/internal/repositories"
)

// ChatHandler manages chat session endpoints. Message delivery itself
// happens over the websocket; these endpoints create sessions and load
// history.
type ChatHandler struct {
	chatRepo    repositories.ChatRepository
	messageRepo repositories.MessageRepository
	userRepo    repositories.UserRepository
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(chatRepo repositories.ChatRepository, messageRepo repositories.MessageRepository, userRepo repositories.UserRepository) *ChatHandler {
	return &ChatHandler{chatRepo: chatRepo, messageRepo: messageRepo, userRepo: userRepo}
}

// CreateSession creates the 1:1 session with another user, or reports
// the existing one. An existing session is not an error: the response
// stays 200 and carries a code the client recognizes.
func (h *ChatHandler) CreateSession(c *gin.Context) {
	var req struct {
		ReceiverID int `json:"receiverId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	if userID == req.ReceiverID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot chat with yourself"})
		return
	}
	if _, err := h.userRepo.GetByID(c.Request.Context(), req.ReceiverID); err != nil {
		apierrors.Abort(c, apierrors.ErrUserNotFound)
		return
	}

	session, existed, err := h.chatRepo.CreateOrGetSession(c.Request.Context(), userID, req.ReceiverID)
	if err != nil {
		apierrors.Abort(c, err)
		return
	}

	if existed {
		apierrors.OKWithCode(c, apierrors.ErrSessionExists, session)
		return
	}
	apierrors.Created(c, session)
}

// GetAllSessions returns every session of the caller with its message
// history.
func (h *ChatHandler) GetAllSessions(c *gin.Context) {
	sessions, err := h.chatRepo.ListSessionsWithMessages(c.Request.Context(), c.GetInt("userID"))
	if err != nil {
		apierrors.Abort(c, err)
		return
	}
	apierrors.OK(c, sessions)
}

// GetSessionMessages returns the ordered messages of one session.
func (h *ChatHandler) GetSessionMessages(c *gin.Context) {
	sessionID, err := strconv.Atoi(c.Param("session_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}

	userID := c.GetInt("userID")
	member, err := h.chatRepo.IsParticipant(c.Request.Context(), sessionID, userID)
	if err != nil {
		apierrors.Abort(c, err)
		return
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a session member"})
		return
	}

	msgs, err := h.messageRepo.ListBySession(c.Request.Context(), sessionID)
	if err != nil {
		apierrors.Abort(c, err)
		return
	}
	apierrors.OK(c, msgs)
}
