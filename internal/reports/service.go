package reports

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/stockbridge/stockbridge/internal/ledger"
	"github.com/stockbridge/stockbridge/internal/locations"
	"github.com/stockbridge/stockbridge/internal/platform/httpx"
	"github.com/stockbridge/stockbridge/internal/settings"
	"github.com/stockbridge/stockbridge/internal/snapshot"
)

// Snapshotter assembles the reconciled inventory snapshot.
type Snapshotter interface {
	Fetch(ctx context.Context, warehouseRef string, opts snapshot.Options) (snapshot.Result, error)
}

// Movements exposes the ledger reads the reports need.
type Movements interface {
	RecentTransfers(ctx context.Context, limit int) ([]ledger.TransferView, error)
	RecentSales(ctx context.Context, limit int) ([]ledger.SaleView, error)
	TransfersTouching(ctx context.Context, locationID int64, from, to time.Time, limit int) ([]ledger.TransferView, error)
}

// Directory resolves virtual locations by id or name.
type Directory interface {
	Get(ctx context.Context, id int64) (locations.Location, error)
	GetByName(ctx context.Context, name string) (locations.Location, error)
}

// Warehouse resolves the merchant's configured warehouse.
type Warehouse interface {
	Load(ctx context.Context) (settings.Settings, error)
	ResolveWarehouse(ctx context.Context, current settings.Settings) (string, error)
}

const (
	overviewMovementLimit = 50
	locationMovementLimit = 100
)

// Overview is the whole-store report: the untruncated snapshot plus recent
// movement history.
type Overview struct {
	Inventory     []snapshot.Row       `json:"inventory"`
	InStock       int                  `json:"in_stock"`
	WarehouseName string               `json:"warehouse_name,omitempty"`
	Transfers     []ledger.TransferRow `json:"transfers"`
	Sales         []ledger.SaleRow     `json:"sales"`
}

// SKUFlow aggregates movement quantities for one SKU at one location.
type SKUFlow struct {
	SKU      string `json:"sku"`
	Inbound  int    `json:"inbound"`
	Outbound int    `json:"outbound"`
	Net      int    `json:"net"`
}

// LocationReport is the per-location movement summary.
type LocationReport struct {
	Location  locations.Location   `json:"location"`
	From      *time.Time           `json:"from,omitempty"`
	To        *time.Time           `json:"to,omitempty"`
	Flows     []SKUFlow            `json:"flows"`
	TotalIn   int                  `json:"total_in"`
	TotalOut  int                  `json:"total_out"`
	Transfers []ledger.TransferRow `json:"transfers"`
}

type Service struct {
	snapshot  Snapshotter
	movements Movements
	directory Directory
	warehouse Warehouse
	logger    *slog.Logger
}

func NewService(snap Snapshotter, movements Movements, directory Directory, warehouse Warehouse, logger *slog.Logger) *Service {
	return &Service{snapshot: snap, movements: movements, directory: directory, warehouse: warehouse, logger: logger}
}

// BuildOverview assembles the store-wide report. Unlike the dashboard it
// does not truncate the snapshot.
func (s *Service) BuildOverview(ctx context.Context) (Overview, error) {
	cfg, err := s.warehouse.Load(ctx)
	if err != nil {
		return Overview{}, fmt.Errorf("reports: load settings: %w", err)
	}
	warehouseRef, err := s.warehouse.ResolveWarehouse(ctx, cfg)
	if err != nil {
		s.logger.Warn("warehouse resolution failed", slog.Any("error", err))
		warehouseRef = ""
	}

	snap, err := s.snapshot.Fetch(ctx, warehouseRef, snapshot.Options{SortByAvailable: true})
	if err != nil {
		return Overview{}, err
	}
	transfers, err := s.movements.RecentTransfers(ctx, overviewMovementLimit)
	if err != nil {
		return Overview{}, err
	}
	sales, err := s.movements.RecentSales(ctx, overviewMovementLimit)
	if err != nil {
		return Overview{}, err
	}

	return Overview{
		Inventory:     snap.Rows,
		InStock:       snap.InStock,
		WarehouseName: snap.LocationName,
		Transfers:     ledger.TransferRows(transfers),
		Sales:         ledger.SaleRows(sales),
	}, nil
}

// BuildLocationReport summarizes transfers touching one virtual location,
// optionally windowed. The location may be given by numeric id or by name.
func (s *Service) BuildLocationReport(ctx context.Context, ref string, from, to time.Time) (LocationReport, error) {
	loc, err := s.resolveLocation(ctx, ref)
	if err != nil {
		return LocationReport{}, err
	}

	views, err := s.movements.TransfersTouching(ctx, loc.ID, from, to, locationMovementLimit)
	if err != nil {
		return LocationReport{}, err
	}

	flowsBySKU := make(map[string]*SKUFlow)
	order := make([]string, 0)
	totalIn, totalOut := 0, 0
	for _, view := range views {
		flow, ok := flowsBySKU[view.SKU]
		if !ok {
			flow = &SKUFlow{SKU: view.SKU}
			flowsBySKU[view.SKU] = flow
			order = append(order, view.SKU)
		}
		if view.ToLocationID == loc.ID {
			flow.Inbound += view.Qty
			totalIn += view.Qty
		}
		if view.FromLocationID == loc.ID {
			flow.Outbound += view.Qty
			totalOut += view.Qty
		}
	}

	flows := make([]SKUFlow, 0, len(order))
	for _, sku := range order {
		flow := flowsBySKU[sku]
		flow.Net = flow.Inbound - flow.Outbound
		flows = append(flows, *flow)
	}

	report := LocationReport{
		Location:  loc,
		Flows:     flows,
		TotalIn:   totalIn,
		TotalOut:  totalOut,
		Transfers: ledger.TransferRows(views),
	}
	if !from.IsZero() {
		report.From = &from
	}
	if !to.IsZero() {
		report.To = &to
	}
	return report, nil
}

func (s *Service) resolveLocation(ctx context.Context, ref string) (locations.Location, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return locations.Location{}, fmt.Errorf("%w: location is required", httpx.ErrValidation)
	}
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return s.directory.Get(ctx, id)
	}
	return s.directory.GetByName(ctx, ref)
}
