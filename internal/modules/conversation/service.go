// README: Conversation service validates ownership and message input before persistence.
package conversation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"wayfarer/internal/types"
)

var (
	ErrNotFound   = errors.New("conversation not found")
	ErrForbidden  = errors.New("conversation belongs to another owner")
	ErrBadRequest = errors.New("bad request")
)

// MaxContentLength bounds a single message.
const MaxContentLength = 4000

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

type CreateCommand struct {
	OwnerID string
	Title   string
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Conversation, error) {
	owner := strings.TrimSpace(cmd.OwnerID)
	if owner == "" {
		owner = AnonymousOwner
	}
	c := &Conversation{
		ID:        uuid.New(),
		OwnerID:   owner,
		Title:     strings.TrimSpace(cmd.Title),
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.CreateConversation(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns the conversation if owner may see it.
func (s *Service) Get(ctx context.Context, id uuid.UUID, owner string) (*Conversation, error) {
	c, err := s.repo.GetConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	if owner != "" && c.OwnerID != owner {
		return nil, ErrForbidden
	}
	return c, nil
}

type AppendCommand struct {
	ConversationID uuid.UUID
	Role           types.Role
	Content        string
	MessageType    string
}

// Append stores a new message. History is append-only.
func (s *Service) Append(ctx context.Context, cmd AppendCommand) (*Message, error) {
	content := strings.TrimSpace(cmd.Content)
	if content == "" || len(content) > MaxContentLength {
		return nil, ErrBadRequest
	}
	switch cmd.Role {
	case types.RoleUser, types.RoleAssistant, types.RoleSystem:
	default:
		return nil, ErrBadRequest
	}
	msgType := cmd.MessageType
	if msgType == "" {
		msgType = TypeText
	}
	m := &Message{
		ID:             uuid.New(),
		ConversationID: cmd.ConversationID,
		Role:           cmd.Role,
		Content:        content,
		MessageType:    msgType,
	}
	if err := s.repo.CreateMessage(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) List(ctx context.Context, conversationID uuid.UUID) ([]Message, error) {
	return s.repo.ListMessages(ctx, conversationID)
}

// DeleteMessage removes one message if owner owns its conversation.
func (s *Service) DeleteMessage(ctx context.Context, id uuid.UUID, owner string) error {
	m, err := s.repo.GetMessage(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.Get(ctx, m.ConversationID, owner); err != nil {
		return err
	}
	ok, err := s.repo.DeleteMessage(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *Service) ClearHistory(ctx context.Context, conversationID uuid.UUID) (int64, error) {
	return s.repo.ClearHistory(ctx, conversationID)
}
