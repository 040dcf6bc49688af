package models

import "time"

// ChatSession is a persistent pairing of two users. The participant pair is
// normalized (sender < receiver) so creation is idempotent.
type ChatSession struct {
	ID         int       `db:"id" json:"id"`
	SenderID   int       `db:"sender_id" json:"senderId"`
	ReceiverID int       `db:"receiver_id" json:"receiverId"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// PeerOf returns the other participant of the session.
func (s ChatSession) PeerOf(userID int) int {
	if s.SenderID == userID {
		return s.ReceiverID
	}
	return s.SenderID
}

// ChatMessage is one message inside a session, ordered by CreatedAt.
type ChatMessage struct {
	ID         int       `db:"id" json:"id"`
	SessionID  int       `db:"session_id" json:"sessionId"`
	Type       string    `db:"type" json:"type"`
	Content    string    `db:"content" json:"content"`
	SenderID   int       `db:"sender_id" json:"senderId"`
	ReceiverID int       `db:"receiver_id" json:"receiverId"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// SessionWithMessages is the session-list view shipped to clients. The
// "message" key matches what the mobile client historically consumed.
type SessionWithMessages struct {
	ChatSession
	Messages []ChatMessage `json:"message"`
}
