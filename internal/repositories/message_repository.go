package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"rental-service/internal/models"
)

// MessageRepository defines interactions for chat messages.
type MessageRepository interface {
	CreateMessage(ctx context.Context, msg *models.ChatMessage) error
	ListBySession(ctx context.Context, sessionID int) ([]models.ChatMessage, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// CreateMessage stores a message in a session.
func (r *MessageRepo) CreateMessage(ctx context.Context, msg *models.ChatMessage) error {
	if msg.Type == "" {
		msg.Type = "text"
	}
	return r.db.QueryRowxContext(ctx,
		`INSERT INTO chat_messages (session_id, type, content, sender_id, receiver_id)
        VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`,
		msg.SessionID, msg.Type, msg.Content, msg.SenderID, msg.ReceiverID).
		Scan(&msg.ID, &msg.CreatedAt)
}

// ListBySession returns ordered messages of a session.
func (r *MessageRepo) ListBySession(ctx context.Context, sessionID int) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT id, session_id, type, content, sender_id, receiver_id, created_at
        FROM chat_messages WHERE session_id=$1 ORDER BY created_at ASC`, sessionID)
	return msgs, err
}
