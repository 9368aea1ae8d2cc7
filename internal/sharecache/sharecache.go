// Package sharecache caches successful share-password verifications for a
// short window, grounded on the teacher's GetRedisClient/RedisKey
// Redis-backed caching convention. Share passwords use the same
// memory-hard hash as user passwords (see internal/crypto), which is
// cost-appropriate once but expensive to re-pay on every anonymous
// download of a popular share link.
package sharecache

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const ttl = 5 * time.Minute

// Cache remembers that (token, clientIP) already presented a correct
// share password, so repeated downloads within ttl skip the bcrypt
// comparison. With no Redis client configured it falls back to an
// in-process sync.Map, so a single-instance deployment still gets the
// optimization without requiring Redis.
type Cache struct {
	client *redis.Client
	prefix string

	local sync.Map // key -> time.Time (expiry)
}

func New(client *redis.Client, prefix string) *Cache {
	return &Cache{client: client, prefix: prefix}
}

func (c *Cache) key(token, clientIP string) string {
	return c.prefix + ":share-verified:" + token + ":" + clientIP
}

// Verified reports whether (token, clientIP) has a remembered successful
// verification.
func (c *Cache) Verified(ctx context.Context, token, clientIP string) bool {
	if c == nil {
		return false
	}
	key := c.key(token, clientIP)

	if c.client == nil {
		expiry, ok := c.local.Load(key)
		if !ok {
			return false
		}
		if time.Now().After(expiry.(time.Time)) {
			c.local.Delete(key)
			return false
		}
		return true
	}

	_, err := c.client.Get(ctx, key).Result()
	return err == nil
}

// Remember records a successful verification for ttl. Failures are
// swallowed: the cache is an optimization, never a correctness dependency.
func (c *Cache) Remember(ctx context.Context, token, clientIP string) {
	if c == nil {
		return
	}
	key := c.key(token, clientIP)

	if c.client == nil {
		c.local.Store(key, time.Now().Add(ttl))
		return
	}

	c.client.Set(ctx, key, "1", ttl)
}
