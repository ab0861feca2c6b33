package conversation

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is a process-local Repository used when no database is
// configured and in tests.
type MemoryStore struct {
	mu            sync.RWMutex
	conversations map[uuid.UUID]Conversation
	messages      map[uuid.UUID][]Message
	now           func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conversations: make(map[uuid.UUID]Conversation),
		messages:      make(map[uuid.UUID][]Message),
		now:           time.Now,
	}
}

func (s *MemoryStore) CreateConversation(_ context.Context, c *Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[c.ID] = *c
	return nil
}

func (s *MemoryStore) GetConversation(_ context.Context, id uuid.UUID) (*Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conversations[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (s *MemoryStore) CreateMessage(_ context.Context, m *Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conversations[m.ConversationID]; !ok {
		return ErrNotFound
	}
	m.CreatedAt = s.now().UTC()
	s.messages[m.ConversationID] = append(s.messages[m.ConversationID], *m)
	return nil
}

func (s *MemoryStore) GetMessage(_ context.Context, id uuid.UUID) (*Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, msgs := range s.messages {
		for _, m := range msgs {
			if m.ID == id {
				return &m, nil
			}
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListMessages(_ context.Context, conversationID uuid.UUID) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Message(nil), s.messages[conversationID]...), nil
}

func (s *MemoryStore) DeleteMessage(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for cid, msgs := range s.messages {
		for i, m := range msgs {
			if m.ID == id {
				s.messages[cid] = append(msgs[:i:i], msgs[i+1:]...)
				return true, nil
			}
		}
	}
	return false, nil
}

func (s *MemoryStore) ClearHistory(_ context.Context, conversationID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(len(s.messages[conversationID]))
	delete(s.messages, conversationID)
	return n, nil
}
