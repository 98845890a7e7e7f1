package snapshot

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*FeedCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewFeedCache(client, time.Minute), mr
}

func TestFeedCacheRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	rows := []Row{
		{Title: "Widget", SKU: "SKU-1", Available: 12},
		{Title: "Gadget", SKU: "SKU-2", Available: 3},
	}
	cache.Set(ctx, "gid://shopify/Location/1", rows, "Main Warehouse")

	got, name, ok := cache.Get(ctx, "gid://shopify/Location/1")
	require.True(t, ok)
	require.Equal(t, "Main Warehouse", name)
	require.Equal(t, rows, got)
}

func TestFeedCacheMiss(t *testing.T) {
	cache, _ := newTestCache(t)

	_, _, ok := cache.Get(context.Background(), "gid://shopify/Location/404")
	require.False(t, ok)
}

func TestFeedCacheExpires(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	cache.Set(ctx, "gid://shopify/Location/1", []Row{{Title: "Widget", SKU: "SKU-1"}}, "Main")
	mr.FastForward(2 * time.Minute)

	_, _, ok := cache.Get(ctx, "gid://shopify/Location/1")
	require.False(t, ok)
}

func TestFeedCacheReadsLegacyTuples(t *testing.T) {
	cache, mr := newTestCache(t)

	// Entries written before the keyed format stored positional tuples.
	payload, err := json.Marshal(map[string]any{
		"location_name": "Main Warehouse",
		"rows": []any{
			[]any{"Widget", "SKU-1", 12},
			[]any{"Gadget", "SKU-2"},
		},
	})
	require.NoError(t, err)
	require.NoError(t, mr.Set("snapshot:feed:gid://shopify/Location/1", string(payload)))

	rows, name, ok := cache.Get(context.Background(), "gid://shopify/Location/1")
	require.True(t, ok)
	require.Equal(t, "Main Warehouse", name)
	require.Equal(t, []Row{
		{Title: "Widget", SKU: "SKU-1", Available: 12},
		{Title: "Gadget", SKU: "SKU-2"},
	}, rows)
}

func TestFeedCacheNilSafe(t *testing.T) {
	var cache *FeedCache

	_, _, ok := cache.Get(context.Background(), "anything")
	require.False(t, ok)
	cache.Set(context.Background(), "anything", nil, "")
}
