package listings

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/brightdoor/realty-concierge/pkg/logging"
)

// CachedRepository is a read-through Redis cache in front of a Repository.
// Cache failures degrade to catalog reads; they are never surfaced.
type CachedRepository struct {
	inner  Repository
	redis  *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewCachedRepository wraps inner with a Redis cache.
func NewCachedRepository(inner Repository, client *redis.Client, ttl time.Duration, logger *logging.Logger) *CachedRepository {
	if inner == nil {
		panic("listings: inner repository required")
	}
	if client == nil {
		panic("listings: redis client required")
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &CachedRepository{
		inner:  inner,
		redis:  client,
		ttl:    ttl,
		logger: logger,
	}
}

func listingKey(id string) string {
	return fmt.Sprintf("listing:%s", id)
}

// GetByID returns the cached listing when present, otherwise reads through
// to the catalog and caches the result. ErrListingNotFound is not cached.
func (c *CachedRepository) GetByID(ctx context.Context, id string) (*Listing, error) {
	data, err := c.redis.Get(ctx, listingKey(id)).Bytes()
	if err == nil {
		var l Listing
		if err := json.Unmarshal(data, &l); err == nil {
			return &l, nil
		}
		c.logger.Warn("listings: dropping undecodable cache entry", "listing_id", id)
		_ = c.redis.Del(ctx, listingKey(id)).Err()
	} else if err != redis.Nil {
		c.logger.Warn("listings: cache read failed", "listing_id", id, "error", err)
	}

	l, err := c.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(l); err == nil {
		if err := c.redis.Set(ctx, listingKey(id), data, c.ttl).Err(); err != nil {
			c.logger.Warn("listings: cache write failed", "listing_id", id, "error", err)
		}
	}
	return l, nil
}
