package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/stockbridge/stockbridge/internal/shopify"
)

// Feed is the slice of the platform client the reconciler consumes.
type Feed interface {
	LevelsAtLocation(ctx context.Context, locationRef string) ([]shopify.LevelRow, string, error)
	LevelsByVariant(ctx context.Context, locationRef string) ([]shopify.LevelRow, error)
	LocationName(ctx context.Context, locationRef string) (string, error)
}

// Ledger is the slice of the ledger service the assembler consumes.
type Ledger interface {
	TotalsBySKU(ctx context.Context) (map[string]int, error)
	WarehouseDeltaBySKU(ctx context.Context, warehouseName string) (map[string]int, error)
}

// Service reconciles the warehouse feed against the ledger and assembles
// snapshot rows.
type Service struct {
	feed   Feed
	ledger Ledger
	cache  *FeedCache
	logger *slog.Logger
}

// NewService builds a Service. feed and cache may be nil; the snapshot then
// degrades to placeholder rows.
func NewService(feed Feed, ledger Ledger, cache *FeedCache, logger *slog.Logger) *Service {
	return &Service{feed: feed, ledger: ledger, cache: cache, logger: logger}
}

// Fetch assembles the snapshot for the given warehouse location ref.
// An empty ref, a dead feed or an empty feed each degrade to a single
// explanatory placeholder row; a transient feed failure never surfaces as
// an error.
func (s *Service) Fetch(ctx context.Context, warehouseRef string, opts Options) (Result, error) {
	var (
		feedRows     []Row
		locationName string
		totals       map[string]int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		feedRows, locationName = s.fetchFeed(gctx, warehouseRef)
		return nil
	})
	g.Go(func() error {
		var err error
		totals, err = s.ledger.TotalsBySKU(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Result{}, fmt.Errorf("snapshot: virtual totals: %w", err)
	}

	// The reconciliation delta is keyed by the warehouse display name,
	// which the feed just resolved.
	deltas := map[string]int{}
	if warehouseRef != "" && locationName != "" {
		var err error
		deltas, err = s.ledger.WarehouseDeltaBySKU(ctx, locationName)
		if err != nil {
			return Result{}, fmt.Errorf("snapshot: warehouse delta: %w", err)
		}
	}

	rows := make([]Row, 0, len(feedRows))
	for _, row := range feedRows {
		adjusted := row.Available + deltas[row.SKU]
		if adjusted < 0 {
			adjusted = 0
		}
		rows = append(rows, Row{
			Title:      row.Title,
			SKU:        row.SKU,
			Available:  adjusted,
			Virtual:    totals[row.SKU],
			ProductRef: row.ProductRef,
		})
	}

	if opts.SortByAvailable {
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Available > rows[j].Available })
	}
	if opts.Limit > 0 && len(rows) > opts.Limit {
		rows = rows[:opts.Limit]
	}

	placeholder := false
	if len(rows) == 0 {
		rows = []Row{placeholderRow(warehouseRef, locationName)}
		placeholder = true
	}

	inStock := 0
	for _, row := range rows {
		inStock += row.Available
	}

	return Result{Rows: rows, InStock: inStock, LocationName: locationName, Placeholder: placeholder}, nil
}

// fetchFeed returns raw feed rows and the warehouse display name, going
// through the short-TTL cache and falling back from the levels query to
// the per-variant query. Failures degrade to an empty list.
func (s *Service) fetchFeed(ctx context.Context, warehouseRef string) ([]Row, string) {
	if warehouseRef == "" || s.feed == nil {
		return nil, ""
	}

	if rows, name, ok := s.cache.Get(ctx, warehouseRef); ok {
		return rows, name
	}

	var rows []Row
	levels, locationName, err := s.feed.LevelsAtLocation(ctx, warehouseRef)
	if err != nil {
		s.logger.Warn("feed levels query failed, falling back to variants",
			slog.String("ref", warehouseRef), slog.Any("error", err))
	}
	if len(levels) == 0 {
		levels, err = s.feed.LevelsByVariant(ctx, warehouseRef)
		if err != nil {
			s.logger.Warn("feed variant fallback failed", slog.String("ref", warehouseRef), slog.Any("error", err))
			levels = nil
		}
	}
	for _, level := range levels {
		rows = append(rows, Row{
			Title:      level.Title,
			SKU:        level.SKU,
			Available:  level.Available,
			ProductRef: level.ProductRef,
		})
	}

	if locationName == "" {
		if name, err := s.feed.LocationName(ctx, warehouseRef); err == nil {
			locationName = name
		}
	}

	if len(rows) > 0 {
		s.cache.Set(ctx, warehouseRef, rows, locationName)
	}
	return rows, locationName
}

func placeholderRow(warehouseRef, locationName string) Row {
	label := "No Shopify location selected"
	if warehouseRef != "" {
		label = "No inventory levels tracked for selected location"
		if locationName != "" {
			label = fmt.Sprintf("No inventory levels tracked at %q", locationName)
		}
	}
	return Row{Title: label, SKU: "—"}
}
