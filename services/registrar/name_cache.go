package registrar

import (
	"context"
	"time"

	"regassist-backend/lib/scrapers/portal"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// nameCache saves a round trip to the criteria page (which is large) when
// hashing the caller's identity. Unauthenticated results are never cached and
// evict whatever was cached for the session.
type nameCache struct {
	cache  *expirable.LRU[portal.Session, string]
	portal Portal
}

func newNameCache(p Portal, size int, ttl time.Duration) nameCache {
	if size <= 0 {
		size = 1024
	}
	if ttl <= 0 {
		ttl = time.Minute * 5
	}
	return nameCache{
		cache:  expirable.NewLRU[portal.Session, string](size, nil, ttl),
		portal: p,
	}
}

func (c nameCache) Get(ctx context.Context, session portal.Session) (string, bool, error) {
	cached, hit := c.cache.Get(session)
	if hit {
		return cached, true, nil
	}

	return c.Resolve(ctx, session)
}

// Resolve always asks the portal and refreshes the cached name with the answer.
func (c nameCache) Resolve(ctx context.Context, session portal.Session) (string, bool, error) {
	name, ok, err := c.portal.GetName(ctx, session)
	if err != nil {
		return "", false, err
	}
	if !ok {
		c.Forget(session)
		return "", false, nil
	}
	c.cache.Add(session, name)
	return name, true, nil
}

func (c nameCache) Forget(session portal.Session) {
	c.cache.Remove(session)
}
