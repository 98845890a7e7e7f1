package snapshot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/stockbridge/stockbridge/internal/shopify"
)

type stubFeed struct {
	levels       []shopify.LevelRow
	levelsErr    error
	variants     []shopify.LevelRow
	variantsErr  error
	locationName string

	levelCalls   int
	variantCalls int
}

func (f *stubFeed) LevelsAtLocation(ctx context.Context, locationRef string) ([]shopify.LevelRow, string, error) {
	f.levelCalls++
	if f.levelsErr != nil {
		return nil, "", f.levelsErr
	}
	return f.levels, f.locationName, nil
}

func (f *stubFeed) LevelsByVariant(ctx context.Context, locationRef string) ([]shopify.LevelRow, error) {
	f.variantCalls++
	return f.variants, f.variantsErr
}

func (f *stubFeed) LocationName(ctx context.Context, locationRef string) (string, error) {
	if f.locationName == "" {
		return "", errors.New("unknown location")
	}
	return f.locationName, nil
}

type stubLedger struct {
	totals    map[string]int
	deltas    map[string]int
	deltaName string
}

func (l *stubLedger) TotalsBySKU(ctx context.Context) (map[string]int, error) {
	return l.totals, nil
}

func (l *stubLedger) WarehouseDeltaBySKU(ctx context.Context, warehouseName string) (map[string]int, error) {
	l.deltaName = warehouseName
	return l.deltas, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const warehouseRef = "gid://shopify/Location/7"

func TestFetchReconcilesAgainstLedger(t *testing.T) {
	feed := &stubFeed{
		levels: []shopify.LevelRow{
			{Title: "Widget", SKU: "SKU-1", Available: 100},
		},
		locationName: "Main Warehouse",
	}
	// 30 transferred out of the warehouse, 10 transferred back in.
	ledger := &stubLedger{
		totals: map[string]int{"SKU-1": 20},
		deltas: map[string]int{"SKU-1": -20},
	}
	svc := NewService(feed, ledger, nil, discardLogger())

	res, err := svc.Fetch(context.Background(), warehouseRef, Options{})
	require.NoError(t, err)
	require.Equal(t, "Main Warehouse", ledger.deltaName)
	require.Len(t, res.Rows, 1)
	require.Equal(t, 80, res.Rows[0].Available)
	require.Equal(t, 20, res.Rows[0].Virtual)
	require.Equal(t, 80, res.InStock)
	require.False(t, res.Placeholder)
}

func TestFetchClampsAdjustedAvailable(t *testing.T) {
	feed := &stubFeed{
		levels:       []shopify.LevelRow{{Title: "Widget", SKU: "SKU-1", Available: 5}},
		locationName: "Main",
	}
	ledger := &stubLedger{deltas: map[string]int{"SKU-1": -40}}
	svc := NewService(feed, ledger, nil, discardLogger())

	res, err := svc.Fetch(context.Background(), warehouseRef, Options{})
	require.NoError(t, err)
	require.Equal(t, 0, res.Rows[0].Available)
}

func TestFetchFallsBackToVariantQuery(t *testing.T) {
	feed := &stubFeed{
		levelsErr:    errors.New("access denied"),
		variants:     []shopify.LevelRow{{Title: "Widget", SKU: "SKU-1", Available: 9}},
		locationName: "Main",
	}
	svc := NewService(feed, &stubLedger{}, nil, discardLogger())

	res, err := svc.Fetch(context.Background(), warehouseRef, Options{})
	require.NoError(t, err)
	require.Equal(t, 1, feed.variantCalls)
	require.Len(t, res.Rows, 1)
	require.Equal(t, 9, res.Rows[0].Available)
}

func TestFetchPlaceholderWithoutWarehouse(t *testing.T) {
	svc := NewService(nil, &stubLedger{}, nil, discardLogger())

	res, err := svc.Fetch(context.Background(), "", Options{})
	require.NoError(t, err)
	require.True(t, res.Placeholder)
	require.Len(t, res.Rows, 1)
	require.Equal(t, "No Shopify location selected", res.Rows[0].Title)
	require.Equal(t, "—", res.Rows[0].SKU)
	require.Equal(t, 0, res.InStock)
}

func TestFetchPlaceholderWithEmptyFeed(t *testing.T) {
	feed := &stubFeed{locationName: "Main Warehouse"}
	svc := NewService(feed, &stubLedger{}, nil, discardLogger())

	res, err := svc.Fetch(context.Background(), warehouseRef, Options{})
	require.NoError(t, err)
	require.True(t, res.Placeholder)
	require.Equal(t, `No inventory levels tracked at "Main Warehouse"`, res.Rows[0].Title)
}

func TestFetchSortsAndTruncates(t *testing.T) {
	feed := &stubFeed{locationName: "Main"}
	for i := 0; i < 15; i++ {
		feed.levels = append(feed.levels, shopify.LevelRow{
			Title:     "Product",
			SKU:       string(rune('A' + i)),
			Available: i,
		})
	}
	svc := NewService(feed, &stubLedger{}, nil, discardLogger())

	res, err := svc.Fetch(context.Background(), warehouseRef, DashboardOptions)
	require.NoError(t, err)
	require.Len(t, res.Rows, 10)
	for i := 1; i < len(res.Rows); i++ {
		require.GreaterOrEqual(t, res.Rows[i-1].Available, res.Rows[i].Available)
	}
	require.Equal(t, 14, res.Rows[0].Available)
}

func TestFetchUsesCacheOnSecondRead(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewFeedCache(client, time.Minute)

	feed := &stubFeed{
		levels:       []shopify.LevelRow{{Title: "Widget", SKU: "SKU-1", Available: 4}},
		locationName: "Main",
	}
	svc := NewService(feed, &stubLedger{}, cache, discardLogger())

	_, err := svc.Fetch(context.Background(), warehouseRef, Options{})
	require.NoError(t, err)
	_, err = svc.Fetch(context.Background(), warehouseRef, Options{})
	require.NoError(t, err)
	require.Equal(t, 1, feed.levelCalls)
}
