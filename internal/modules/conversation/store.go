// README: Conversation store backed by PostgreSQL.
package conversation

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository is the persistence the service needs.
type Repository interface {
	CreateConversation(ctx context.Context, c *Conversation) error
	GetConversation(ctx context.Context, id uuid.UUID) (*Conversation, error)
	CreateMessage(ctx context.Context, m *Message) error
	GetMessage(ctx context.Context, id uuid.UUID) (*Message, error)
	ListMessages(ctx context.Context, conversationID uuid.UUID) ([]Message, error)
	DeleteMessage(ctx context.Context, id uuid.UUID) (bool, error)
	ClearHistory(ctx context.Context, conversationID uuid.UUID) (int64, error)
}

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) CreateConversation(ctx context.Context, c *Conversation) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO conversations (id, owner_id, title, created_at)
		VALUES ($1, $2, $3, $4)`,
		c.ID, c.OwnerID, c.Title, c.CreatedAt,
	)
	return err
}

func (s *Store) GetConversation(ctx context.Context, id uuid.UUID) (*Conversation, error) {
	var c Conversation
	err := s.db.QueryRow(ctx, `
		SELECT id, owner_id, title, created_at
		FROM conversations
		WHERE id = $1`, id,
	).Scan(&c.ID, &c.OwnerID, &c.Title, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) CreateMessage(ctx context.Context, m *Message) error {
	return s.db.QueryRow(ctx, `
		INSERT INTO messages (id, conversation_id, role, content, message_type)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		m.ID, m.ConversationID, string(m.Role), m.Content, m.MessageType,
	).Scan(&m.CreatedAt)
}

func (s *Store) GetMessage(ctx context.Context, id uuid.UUID) (*Message, error) {
	var m Message
	err := s.db.QueryRow(ctx, `
		SELECT id, conversation_id, role, content, message_type, created_at
		FROM messages
		WHERE id = $1`, id,
	).Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.MessageType, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListMessages returns the history in creation order; seq breaks ties
// between rows written in the same instant.
func (s *Store) ListMessages(ctx context.Context, conversationID uuid.UUID) ([]Message, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, conversation_id, role, content, message_type, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at, seq`, conversationID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.MessageType, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) DeleteMessage(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM messages WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) ClearHistory(ctx context.Context, conversationID uuid.UUID) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM messages WHERE conversation_id = $1`, conversationID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
