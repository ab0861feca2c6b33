package aiusage

import (
	"context"
	"time"
)

// Service gates LLM generation on the owner's monthly quota.
type Service struct {
	store *Store
	now   func() time.Time
}

// NewService creates a Service backed by the given Store.
func NewService(store *Store) *Service {
	return &Service{store: store, now: time.Now}
}

func (s *Service) month() string {
	return s.now().UTC().Format("2006-01")
}

// Consume deducts one generation from owner's allowance. A missing row is
// created with a full quota and the deduction retried once.
func (s *Service) Consume(ctx context.Context, owner string) error {
	month := s.month()
	err := s.store.Consume(ctx, owner, month)
	if err != ErrQuotaExhausted {
		return err
	}
	if initErr := s.store.Ensure(ctx, owner, month); initErr != nil {
		return initErr
	}
	return s.store.Consume(ctx, owner, month)
}

// Remaining reports how many generations owner has left this month.
func (s *Service) Remaining(ctx context.Context, owner string) (int, error) {
	u, ok, err := s.store.Get(ctx, owner)
	if err != nil {
		return 0, err
	}
	if !ok || u.Month < s.month() {
		return s.store.quota, nil
	}
	return u.Remaining, nil
}
