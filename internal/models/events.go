package models

import (
	"encoding/json"
	"time"
)

// Socket event names. Inbound events are sent by clients over the
// websocket; outbound events are pushed by the hub.
const (
	EventJoinChat    = "joinChat"
	EventSendMessage = "sendMessage"

	EventNewMessage         = "newMessage"
	EventSessionUpdated     = "sessionUpdated"
	EventRentalNotification = "Rental Notification"
)

// SocketEvent is the envelope for every websocket frame in both directions.
type SocketEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewSocketEvent marshals data into an outbound envelope.
func NewSocketEvent(event string, data any) (SocketEvent, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return SocketEvent{}, err
	}
	return SocketEvent{Event: event, Data: raw}, nil
}

// JoinChatPayload is the inbound joinChat frame.
type JoinChatPayload struct {
	SessionID int `json:"sessionId"`
}

// SendMessagePayload is the inbound sendMessage frame.
type SendMessagePayload struct {
	SessionID  int    `json:"sessionId"`
	ReceiverID int    `json:"receiverId"`
	Type       string `json:"type"`
	Content    string `json:"content"`
}

// NewMessageEvent is broadcast to a session room when a message lands.
type NewMessageEvent struct {
	SessionID int         `json:"sessionId"`
	Message   ChatMessage `json:"message"`
}

// SessionUpdatedEvent is pushed to both participants' user rooms so the
// session list can re-sort even when the session is not open.
type SessionUpdatedEvent struct {
	SessionID int         `json:"sessionId"`
	Preview   ChatMessage `json:"preview"`
}

// RentalNotification announces a rental status change to a user room.
type RentalNotification struct {
	RentalID  int          `json:"rentalId"`
	Status    RentalStatus `json:"status"`
	Message   string       `json:"message"`
	CreatedAt time.Time    `json:"createdAt"`
}
