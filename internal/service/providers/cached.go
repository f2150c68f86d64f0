package providers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/models"
	domrepo "github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/repository"
	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/service/cache"
)

// CachedSource memoizes provider fetches so repeated refreshes inside the
// TTL window hit the cache instead of the upstream API. Errors are never
// cached.
type CachedSource struct {
	src   domrepo.SignalSource
	cache cache.BytesCache
	ttl   time.Duration
}

func NewCachedSource(src domrepo.SignalSource, c cache.BytesCache, ttl time.Duration) *CachedSource {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedSource{src: src, cache: c, ttl: ttl}
}

func (c *CachedSource) Name() string { return c.src.Name() }

func (c *CachedSource) Fetch(ctx context.Context, location string, from, to time.Time) ([]*models.Signal, error) {
	key := cache.Key("provider", c.src.Name(), location,
		from.UTC().Format("2006-01-02"), to.UTC().Format("2006-01-02"))

	if b, ok, err := c.cache.GetBytes(key); err == nil && ok {
		var signals []*models.Signal
		if err := json.Unmarshal(b, &signals); err == nil {
			return signals, nil
		}
	}

	signals, err := c.src.Fetch(ctx, location, from, to)
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(signals); err == nil {
		_ = c.cache.SetBytes(key, b, c.ttl)
	}
	return signals, nil
}

var _ domrepo.SignalSource = (*CachedSource)(nil)
