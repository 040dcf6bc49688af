package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"rental-service/internal/auth"
	"rental-service/internal/models"
	"rental-service/internal/observability"
	"rental-service/internal/repositories"
)

// SocketHandler owns the single realtime endpoint. One connection per
// client carries chat traffic and rental notifications together.
type SocketHandler struct {
	hub      *Hub
	chatRepo repositories.ChatRepository
	msgRepo  repositories.MessageRepository
	tokens   auth.TokenManager
}

// NewSocketHandler constructs a SocketHandler.
func NewSocketHandler(hub *Hub, chatRepo repositories.ChatRepository, msgRepo repositories.MessageRepository, tokens auth.TokenManager) *SocketHandler {
	return &SocketHandler{hub: hub, chatRepo: chatRepo, msgRepo: msgRepo, tokens: tokens}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the connection, registers it in the user's room and
// runs the read loop.
func (h *SocketHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("rental-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := c.GetHeader("Authorization")
	if token == "" {
		token = c.Query("token")
		if token != "" {
			token = "Bearer " + token
		}
	}

	userID, err := h.validateToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	traceID := span.SpanContext().TraceID().String()
	requestID := observability.RequestIDFromRequest(c.Request)
	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      userID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   requestID,
		TraceID:     traceID,
		ConnectedAt: time.Now(),
	}
	h.hub.AddClient(userID, conn, info)

	observability.IncWSActive("user")
	observability.IncWSEvent("user", "ws_connect")
	_ = observability.PublishEvent(ctx, "ws_events.users",
		observability.NewEnvelope("ws_events", "ws_connect", wsEventPayload(info, "ws_connect", "")),
		observability.BuildHeaders(requestID, traceID))

	go h.readLoop(ctx, conn, info)
}

func (h *SocketHandler) readLoop(ctx context.Context, conn *websocket.Conn, info ConnInfo) {
	var closeReason string
	defer func() {
		h.hub.RemoveClient(conn)
		observability.DecWSActive("user")
		observability.IncWSEvent("user", "ws_disconnect")
		_ = observability.PublishEvent(ctx, "ws_events.users",
			observability.NewEnvelope("ws_events", "ws_disconnect",
				wsEventPayload(info, "ws_disconnect", closeReason)),
			observability.BuildHeaders(info.RequestID, info.TraceID))
		conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("user", "ws_error")
				_ = observability.PublishEvent(ctx, "ws_events.users",
					observability.NewEnvelope("ws_events", "ws_error",
						wsEventPayload(info, "ws_error", closeReason)),
					observability.BuildHeaders(info.RequestID, info.TraceID))
			}
			return
		}

		var event models.SocketEvent
		if err := json.Unmarshal(raw, &event); err != nil {
			h.sendError(conn, "malformed event")
			continue
		}

		switch event.Event {
		case models.EventJoinChat:
			h.handleJoinChat(ctx, conn, info.UserID, event.Data)
		case models.EventSendMessage:
			h.handleSendMessage(ctx, conn, info.UserID, event.Data)
		default:
			h.sendError(conn, "unknown event: "+event.Event)
		}
	}
}

func (h *SocketHandler) handleJoinChat(ctx context.Context, conn *websocket.Conn, userID int, data json.RawMessage) {
	var payload models.JoinChatPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		h.sendError(conn, "malformed joinChat payload")
		return
	}

	member, err := h.chatRepo.IsParticipant(ctx, payload.SessionID, userID)
	if err != nil || !member {
		h.sendError(conn, "not authorized for session")
		return
	}

	h.hub.JoinSession(payload.SessionID, conn)
	observability.IncWSEvent("session", "join")
}

func (h *SocketHandler) handleSendMessage(ctx context.Context, conn *websocket.Conn, userID int, data json.RawMessage) {
	var payload models.SendMessagePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		h.sendError(conn, "malformed sendMessage payload")
		return
	}
	if strings.TrimSpace(payload.Content) == "" {
		h.sendError(conn, "empty message")
		return
	}

	session, err := h.chatRepo.GetSession(ctx, payload.SessionID)
	if err != nil {
		h.sendError(conn, "session not found")
		return
	}
	if session.SenderID != userID && session.ReceiverID != userID {
		h.sendError(conn, "not authorized for session")
		return
	}

	msg := models.ChatMessage{
		SessionID:  session.ID,
		Type:       payload.Type,
		Content:    payload.Content,
		SenderID:   userID,
		ReceiverID: session.PeerOf(userID),
	}
	if err := h.msgRepo.CreateMessage(ctx, &msg); err != nil {
		h.sendError(conn, "message not stored")
		return
	}

	if event, err := models.NewSocketEvent(models.EventNewMessage,
		models.NewMessageEvent{SessionID: session.ID, Message: msg}); err == nil {
		h.hub.BroadcastToSession(session.ID, event)
	}
	if event, err := models.NewSocketEvent(models.EventSessionUpdated,
		models.SessionUpdatedEvent{SessionID: session.ID, Preview: msg}); err == nil {
		h.hub.NotifyUser(msg.SenderID, event)
		h.hub.NotifyUser(msg.ReceiverID, event)
	}
	observability.IncWSEvent("session", "message")
}

func (h *SocketHandler) sendError(conn *websocket.Conn, reason string) {
	if event, err := models.NewSocketEvent("error", gin.H{"message": reason}); err == nil {
		payload, _ := json.Marshal(event)
		h.hub.write(conn, payload)
	}
}

func (h *SocketHandler) validateToken(header string) (int, error) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid token")
	}
	claims, err := h.tokens.ValidateAccess(parts[1])
	if err != nil {
		return 0, err
	}
	return claims.UserID, nil
}

func wsEventPayload(info ConnInfo, event, reason string) map[string]interface{} {
	return map[string]interface{}{
		"ws": map[string]interface{}{
			"event":       event,
			"conn_id":     info.ConnID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}
}
