package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/stockbridge/stockbridge/internal/ledger"
	"github.com/stockbridge/stockbridge/internal/locations"
	"github.com/stockbridge/stockbridge/internal/settings"
	"github.com/stockbridge/stockbridge/internal/snapshot"
)

// Snapshotter assembles the reconciled inventory snapshot.
type Snapshotter interface {
	Fetch(ctx context.Context, warehouseRef string, opts snapshot.Options) (snapshot.Result, error)
}

// Movements exposes the recent activity feeds.
type Movements interface {
	RecentTransfers(ctx context.Context, limit int) ([]ledger.TransferView, error)
	RecentSales(ctx context.Context, limit int) ([]ledger.SaleView, error)
}

// Directory exposes the virtual location catalogue.
type Directory interface {
	List(ctx context.Context) ([]locations.Location, error)
	Count(ctx context.Context) (int, error)
}

// Warehouse resolves the merchant's configured warehouse.
type Warehouse interface {
	Load(ctx context.Context) (settings.Settings, error)
	ResolveWarehouse(ctx context.Context, current settings.Settings) (string, error)
}

// Catalog reports platform-side product counts. May be absent.
type Catalog interface {
	ProductCount(ctx context.Context) (int, error)
}

const recentLimit = 10

// Stats is the headline number block of the dashboard.
type Stats struct {
	Products         int `json:"products"`
	VirtualLocations int `json:"virtual_locations"`
	InStock          int `json:"in_stock"`
	PendingTransfers int `json:"pending_transfers"`
}

// View is the full dashboard payload.
type View struct {
	Stats           Stats                 `json:"stats"`
	Inventory       []snapshot.Row        `json:"inventory"`
	WarehouseName   string                `json:"warehouse_name,omitempty"`
	Placeholder     bool                  `json:"placeholder"`
	RecentTransfers []ledger.TransferRow  `json:"recent_transfers"`
	RecentSales     []ledger.SaleRow      `json:"recent_sales"`
	LocationNames   []string              `json:"location_names"`
}

type Service struct {
	snapshot  Snapshotter
	movements Movements
	directory Directory
	warehouse Warehouse
	catalog   Catalog
	logger    *slog.Logger
}

func NewService(snap Snapshotter, movements Movements, directory Directory, warehouse Warehouse, catalog Catalog, logger *slog.Logger) *Service {
	return &Service{
		snapshot:  snap,
		movements: movements,
		directory: directory,
		warehouse: warehouse,
		catalog:   catalog,
		logger:    logger,
	}
}

// Assemble builds the dashboard view. Platform-side figures degrade to zero
// rather than failing the whole page; ledger reads are authoritative and do
// fail it.
func (s *Service) Assemble(ctx context.Context) (View, error) {
	cfg, err := s.warehouse.Load(ctx)
	if err != nil {
		return View{}, fmt.Errorf("dashboard: load settings: %w", err)
	}
	warehouseRef, err := s.warehouse.ResolveWarehouse(ctx, cfg)
	if err != nil {
		s.logger.Warn("warehouse resolution failed", slog.Any("error", err))
		warehouseRef = ""
	}

	var (
		snap      snapshot.Result
		transfers []ledger.TransferView
		sales     []ledger.SaleView
		locs      []locations.Location
		count     int
		products  int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap, err = s.snapshot.Fetch(gctx, warehouseRef, snapshot.DashboardOptions)
		return err
	})
	g.Go(func() error {
		var err error
		transfers, err = s.movements.RecentTransfers(gctx, recentLimit)
		return err
	})
	g.Go(func() error {
		var err error
		sales, err = s.movements.RecentSales(gctx, recentLimit)
		return err
	})
	g.Go(func() error {
		var err error
		locs, err = s.directory.List(gctx)
		if err != nil {
			return err
		}
		count = len(locs)
		return nil
	})
	g.Go(func() error {
		if s.catalog == nil {
			return nil
		}
		n, err := s.catalog.ProductCount(gctx)
		if err != nil {
			s.logger.Warn("product count unavailable", slog.Any("error", err))
			return nil
		}
		products = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return View{}, err
	}

	return View{
		Stats: Stats{
			Products:         products,
			VirtualLocations: count,
			InStock:          snap.InStock,
			PendingTransfers: 0,
		},
		Inventory:       snap.Rows,
		WarehouseName:   snap.LocationName,
		Placeholder:     snap.Placeholder,
		RecentTransfers: ledger.TransferRows(transfers),
		RecentSales:     ledger.SaleRows(sales),
		LocationNames:   locationNames(snap.LocationName, locs),
	}, nil
}

// locationNames builds the deduplicated pick list for movement forms, with
// the warehouse display name first when known.
func locationNames(warehouseName string, locs []locations.Location) []string {
	seen := make(map[string]struct{}, len(locs)+1)
	names := make([]string, 0, len(locs)+1)
	add := func(name string) {
		name = strings.TrimSpace(name)
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	add(warehouseName)
	for _, loc := range locs {
		add(loc.Name)
	}
	return names
}
