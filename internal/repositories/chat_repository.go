package repositories

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"github.com/jmoiron/sqlx"

	"rental-service/internal/models"
)

var ErrSessionNotFound = errors.New("chat session not found")

// ChatRepository abstracts chat session persistence.
type ChatRepository interface {
	CreateOrGetSession(ctx context.Context, userID int, peerID int) (models.ChatSession, bool, error)
	GetSession(ctx context.Context, sessionID int) (models.ChatSession, error)
	IsParticipant(ctx context.Context, sessionID int, userID int) (bool, error)
	ListSessionsWithMessages(ctx context.Context, userID int) ([]models.SessionWithMessages, error)
}

// ChatRepo is a sqlx implementation of ChatRepository.
type ChatRepo struct {
	db       *sqlx.DB
	messages MessageRepository
}

// NewChatRepo constructs a ChatRepo.
func NewChatRepo(db *sqlx.DB, messages MessageRepository) *ChatRepo {
	return &ChatRepo{db: db, messages: messages}
}

// CreateOrGetSession finds or creates the 1:1 session between two
// users. The boolean reports whether a session already existed.
func (r *ChatRepo) CreateOrGetSession(ctx context.Context, userID int, peerID int) (models.ChatSession, bool, error) {
	if userID == peerID {
		return models.ChatSession{}, false, errors.New("cannot create chat session with self")
	}
	pair := []int{userID, peerID}
	sort.Ints(pair)

	var session models.ChatSession
	query := `SELECT id, sender_id, receiver_id, created_at FROM chat_sessions WHERE sender_id=$1 AND receiver_id=$2`
	err := r.db.GetContext(ctx, &session, query, pair[0], pair[1])
	if err == nil {
		return session, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.ChatSession{}, false, err
	}

	err = r.db.QueryRowxContext(ctx,
		`INSERT INTO chat_sessions (sender_id, receiver_id) VALUES ($1, $2) RETURNING id, sender_id, receiver_id, created_at`,
		pair[0], pair[1]).
		Scan(&session.ID, &session.SenderID, &session.ReceiverID, &session.CreatedAt)
	if isUniqueViolation(err) {
		// a concurrent create for the same pair won the insert
		err = r.db.GetContext(ctx, &session, query, pair[0], pair[1])
		return session, true, err
	}
	return session, false, err
}

// GetSession fetches a session by id.
func (r *ChatRepo) GetSession(ctx context.Context, sessionID int) (models.ChatSession, error) {
	var session models.ChatSession
	err := r.db.GetContext(ctx, &session,
		`SELECT id, sender_id, receiver_id, created_at FROM chat_sessions WHERE id=$1`, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ChatSession{}, ErrSessionNotFound
	}
	return session, err
}

// IsParticipant checks whether a user belongs to the session.
func (r *ChatRepo) IsParticipant(ctx context.Context, sessionID int, userID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM chat_sessions WHERE id=$1 AND (sender_id=$2 OR receiver_id=$2))`,
		sessionID, userID)
	return exists, err
}

// ListSessionsWithMessages returns every session the user belongs to,
// each with its full ordered message history.
func (r *ChatRepo) ListSessionsWithMessages(ctx context.Context, userID int) ([]models.SessionWithMessages, error) {
	var sessions []models.ChatSession
	err := r.db.SelectContext(ctx, &sessions,
		`SELECT id, sender_id, receiver_id, created_at FROM chat_sessions
        WHERE sender_id=$1 OR receiver_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}

	result := make([]models.SessionWithMessages, 0, len(sessions))
	for _, s := range sessions {
		msgs, err := r.messages.ListBySession(ctx, s.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, models.SessionWithMessages{ChatSession: s, Messages: msgs})
	}
	return result, nil
}
