package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// SubtreeCache is a read-through cache for resolved anime subtrees. A nil
// *SubtreeCache is valid and disables caching, so callers never branch on
// whether Redis is configured.
type SubtreeCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewSubtreeCache(url string, ttl time.Duration) (*SubtreeCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &SubtreeCache{Client: redis.NewClient(opt), TTL: ttl}, nil
}

func subtreeKey(animeID string) string {
	return "catalog:subtree:" + animeID
}

func (c *SubtreeCache) Get(ctx context.Context, animeID string) (Subtree, bool) {
	if c == nil || c.Client == nil {
		return Subtree{}, false
	}
	val, err := c.Client.Get(ctx, subtreeKey(animeID)).Result()
	if err != nil {
		return Subtree{}, false
	}
	var t Subtree
	if err := json.Unmarshal([]byte(val), &t); err != nil {
		return Subtree{}, false
	}
	return t, true
}

func (c *SubtreeCache) Set(ctx context.Context, animeID string, t Subtree) {
	if c == nil || c.Client == nil {
		return
	}
	b, err := json.Marshal(t)
	if err != nil {
		return
	}
	c.Client.Set(ctx, subtreeKey(animeID), b, c.TTL)
}

// Invalidate drops the cached subtree after any structural or aggregate
// change under the anime.
func (c *SubtreeCache) Invalidate(ctx context.Context, animeID string) {
	if c == nil || c.Client == nil {
		return
	}
	c.Client.Del(ctx, subtreeKey(animeID))
}
