package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// FeedCache holds the raw external feed per warehouse ref for a short TTL.
// Only the eventually-consistent feed is cached; ledger state is always
// recomputed from the store on every read.
type FeedCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewFeedCache constructs a FeedCache.
func NewFeedCache(client *redis.Client, ttl time.Duration) *FeedCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &FeedCache{client: client, ttl: ttl}
}

type cachedFeed struct {
	LocationName string `json:"location_name"`
	Rows         []any  `json:"rows"`
}

func feedKey(locationRef string) string {
	return fmt.Sprintf("snapshot:feed:%s", locationRef)
}

// Get returns cached feed rows, normalized. Older deployments stored rows
// as positional tuples; NormalizeRows absorbs both shapes here so nothing
// downstream ever sees them.
func (c *FeedCache) Get(ctx context.Context, locationRef string) ([]Row, string, bool) {
	if c == nil || c.client == nil {
		return nil, "", false
	}
	payload, err := c.client.Get(ctx, feedKey(locationRef)).Bytes()
	if err != nil {
		return nil, "", false
	}
	var cached cachedFeed
	if err := json.Unmarshal(payload, &cached); err != nil {
		return nil, "", false
	}
	return NormalizeRows(cached.Rows), cached.LocationName, true
}

// Set stores feed rows in canonical shape.
func (c *FeedCache) Set(ctx context.Context, locationRef string, rows []Row, locationName string) {
	if c == nil || c.client == nil {
		return
	}
	raw := make([]any, 0, len(rows))
	for _, row := range rows {
		raw = append(raw, row)
	}
	payload, err := json.Marshal(cachedFeed{LocationName: locationName, Rows: raw})
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, feedKey(locationRef), payload, c.ttl).Err()
}
