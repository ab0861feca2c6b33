// README: Location code cache backed by Redis.
package location

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	codeKeyPrefix = "location:code:"
	// Codes change rarely; a day bounds staleness after table edits.
	codeTTL = 24 * time.Hour
)

// Cache stores resolved codes by normalized place name.
type Cache interface {
	Get(ctx context.Context, place string) (string, bool, error)
	Set(ctx context.Context, place, code string) error
}

type Store struct {
	redis *redis.Client
}

func NewStore(redis *redis.Client) *Store {
	return &Store{redis: redis}
}

func (s *Store) Get(ctx context.Context, place string) (string, bool, error) {
	val, err := s.redis.Get(ctx, codeKey(place)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (s *Store) Set(ctx context.Context, place, code string) error {
	return s.redis.Set(ctx, codeKey(place), code, codeTTL).Err()
}

func codeKey(place string) string {
	return codeKeyPrefix + strings.ToLower(strings.TrimSpace(place))
}
