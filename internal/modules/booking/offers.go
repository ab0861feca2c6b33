// README: Offers shown in the latest flight reply, kept per conversation so "book option N" can find them.
package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"wayfarer/internal/modules/provider"
)

const (
	offersKeyPrefix = "offers:conv:%s"
	// Provider offers go stale quickly; half an hour matches their pricing window.
	offersTTL = 30 * time.Minute
)

var (
	ErrNoOffers         = errors.New("no recent flight offers for this conversation")
	ErrOptionOutOfRange = errors.New("option number out of range")
)

// OfferCache keeps the offers last shown to a conversation. Options are
// 1-based as displayed.
type OfferCache interface {
	SaveOffers(ctx context.Context, conversationID uuid.UUID, offers []provider.FlightOffer) error
	Offer(ctx context.Context, conversationID uuid.UUID, option int) (provider.FlightOffer, error)
	ReplaceOffer(ctx context.Context, conversationID uuid.UUID, option int, offer provider.FlightOffer) error
}

type RedisOfferCache struct {
	redis *redis.Client
}

func NewRedisOfferCache(redis *redis.Client) *RedisOfferCache {
	return &RedisOfferCache{redis: redis}
}

func offersKey(conversationID uuid.UUID) string {
	return fmt.Sprintf(offersKeyPrefix, conversationID)
}

func (c *RedisOfferCache) SaveOffers(ctx context.Context, conversationID uuid.UUID, offers []provider.FlightOffer) error {
	payload, err := json.Marshal(offers)
	if err != nil {
		return err
	}
	return c.redis.Set(ctx, offersKey(conversationID), payload, offersTTL).Err()
}

func (c *RedisOfferCache) load(ctx context.Context, conversationID uuid.UUID) ([]provider.FlightOffer, error) {
	raw, err := c.redis.Get(ctx, offersKey(conversationID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoOffers
	}
	if err != nil {
		return nil, err
	}
	var offers []provider.FlightOffer
	if err := json.Unmarshal(raw, &offers); err != nil {
		return nil, fmt.Errorf("decode cached offers: %w", err)
	}
	return offers, nil
}

func (c *RedisOfferCache) Offer(ctx context.Context, conversationID uuid.UUID, option int) (provider.FlightOffer, error) {
	offers, err := c.load(ctx, conversationID)
	if err != nil {
		return provider.FlightOffer{}, err
	}
	return pick(offers, option)
}

// ReplaceOffer swaps one offer and keeps the remaining TTL.
func (c *RedisOfferCache) ReplaceOffer(ctx context.Context, conversationID uuid.UUID, option int, offer provider.FlightOffer) error {
	offers, err := c.load(ctx, conversationID)
	if err != nil {
		return err
	}
	if option < 1 || option > len(offers) {
		return ErrOptionOutOfRange
	}
	offers[option-1] = offer
	payload, err := json.Marshal(offers)
	if err != nil {
		return err
	}
	return c.redis.Set(ctx, offersKey(conversationID), payload, redis.KeepTTL).Err()
}

func pick(offers []provider.FlightOffer, option int) (provider.FlightOffer, error) {
	if len(offers) == 0 {
		return provider.FlightOffer{}, ErrNoOffers
	}
	if option < 1 || option > len(offers) {
		return provider.FlightOffer{}, ErrOptionOutOfRange
	}
	return offers[option-1], nil
}

type memoryEntry struct {
	offers  []provider.FlightOffer
	expires time.Time
}

// MemoryOfferCache is the OfferCache used without Redis.
type MemoryOfferCache struct {
	mu      sync.Mutex
	entries map[uuid.UUID]memoryEntry
	now     func() time.Time
}

func NewMemoryOfferCache() *MemoryOfferCache {
	return &MemoryOfferCache{entries: make(map[uuid.UUID]memoryEntry), now: time.Now}
}

func (c *MemoryOfferCache) SaveOffers(_ context.Context, conversationID uuid.UUID, offers []provider.FlightOffer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[conversationID] = memoryEntry{
		offers:  append([]provider.FlightOffer(nil), offers...),
		expires: c.now().Add(offersTTL),
	}
	return nil
}

func (c *MemoryOfferCache) get(conversationID uuid.UUID) ([]provider.FlightOffer, bool) {
	e, ok := c.entries[conversationID]
	if !ok || c.now().After(e.expires) {
		delete(c.entries, conversationID)
		return nil, false
	}
	return e.offers, true
}

func (c *MemoryOfferCache) Offer(_ context.Context, conversationID uuid.UUID, option int) (provider.FlightOffer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	offers, ok := c.get(conversationID)
	if !ok {
		return provider.FlightOffer{}, ErrNoOffers
	}
	return pick(offers, option)
}

func (c *MemoryOfferCache) ReplaceOffer(_ context.Context, conversationID uuid.UUID, option int, offer provider.FlightOffer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	offers, ok := c.get(conversationID)
	if !ok {
		return ErrNoOffers
	}
	if option < 1 || option > len(offers) {
		return ErrOptionOutOfRange
	}
	offers[option-1] = offer
	return nil
}
