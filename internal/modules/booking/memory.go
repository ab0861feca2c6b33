package booking

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is a process-local Repository used when no database is
// configured and in tests.
type MemoryStore struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]Booking
	events   []Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{bookings: make(map[uuid.UUID]Booking)}
}

func (s *MemoryStore) Create(_ context.Context, b *Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings[b.ID] = *b
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (*Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &b, nil
}

func (s *MemoryStore) FindPending(_ context.Context, conversationID uuid.UUID, option int) (*Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var found *Booking
	for _, b := range s.bookings {
		if b.ConversationID != conversationID || b.Option != option || b.Status != StatusPriceChanged {
			continue
		}
		if found == nil || b.CreatedAt.After(found.CreatedAt) {
			b := b
			found = &b
		}
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, id uuid.UUID, from, to Status, version int, patch StatusPatch) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok || b.Status != from || b.StatusVersion != version {
		return false, nil
	}
	b.Status = to
	b.StatusVersion++
	if patch.Confirmed != nil {
		m := *patch.Confirmed
		b.Confirmed = &m
	}
	if patch.ProviderOrderID != "" {
		b.ProviderOrderID = patch.ProviderOrderID
	}
	if patch.Reference != "" {
		b.Reference = patch.Reference
	}
	if patch.FailureReason != "" {
		b.FailureReason = patch.FailureReason
	}
	b.UpdatedAt = time.Now().UTC()
	s.bookings[id] = b
	return true, nil
}

func (s *MemoryStore) AppendEvent(_ context.Context, e *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, *e)
	return nil
}
