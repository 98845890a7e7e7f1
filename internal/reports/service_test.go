package reports

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stockbridge/stockbridge/internal/ledger"
	"github.com/stockbridge/stockbridge/internal/locations"
	"github.com/stockbridge/stockbridge/internal/platform/httpx"
	"github.com/stockbridge/stockbridge/internal/settings"
	"github.com/stockbridge/stockbridge/internal/snapshot"
)

type stubSnapshot struct {
	result  snapshot.Result
	gotOpts snapshot.Options
	gotRef  string
}

func (s *stubSnapshot) Fetch(ctx context.Context, warehouseRef string, opts snapshot.Options) (snapshot.Result, error) {
	s.gotRef = warehouseRef
	s.gotOpts = opts
	return s.result, nil
}

type stubMovements struct {
	transfers []ledger.TransferView
	sales     []ledger.SaleView
	gotLimit  int
	gotFrom   time.Time
	gotTo     time.Time
}

func (m *stubMovements) RecentTransfers(ctx context.Context, limit int) ([]ledger.TransferView, error) {
	m.gotLimit = limit
	return m.transfers, nil
}

func (m *stubMovements) RecentSales(ctx context.Context, limit int) ([]ledger.SaleView, error) {
	return m.sales, nil
}

func (m *stubMovements) TransfersTouching(ctx context.Context, locationID int64, from, to time.Time, limit int) ([]ledger.TransferView, error) {
	m.gotFrom, m.gotTo = from, to
	var out []ledger.TransferView
	for _, t := range m.transfers {
		if t.FromLocationID == locationID || t.ToLocationID == locationID {
			out = append(out, t)
		}
	}
	return out, nil
}

type stubDirectory struct {
	byID   map[int64]locations.Location
	byName map[string]locations.Location
}

func (d *stubDirectory) Get(ctx context.Context, id int64) (locations.Location, error) {
	if loc, ok := d.byID[id]; ok {
		return loc, nil
	}
	return locations.Location{}, fmt.Errorf("%w: location %d", httpx.ErrNotFound, id)
}

func (d *stubDirectory) GetByName(ctx context.Context, name string) (locations.Location, error) {
	if loc, ok := d.byName[name]; ok {
		return loc, nil
	}
	return locations.Location{}, fmt.Errorf("%w: location %q", httpx.ErrNotFound, name)
}

type stubWarehouse struct {
	cfg settings.Settings
	ref string
}

func (w *stubWarehouse) Load(ctx context.Context) (settings.Settings, error) {
	return w.cfg, nil
}

func (w *stubWarehouse) ResolveWarehouse(ctx context.Context, current settings.Settings) (string, error) {
	return w.ref, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testDirectory() *stubDirectory {
	alfateh := locations.Location{ID: 2, Name: "AlFateh"}
	return &stubDirectory{
		byID:   map[int64]locations.Location{2: alfateh},
		byName: map[string]locations.Location{"AlFateh": alfateh},
	}
}

func TestBuildOverviewUntruncated(t *testing.T) {
	snap := &stubSnapshot{result: snapshot.Result{
		Rows:         []snapshot.Row{{Title: "Widget", SKU: "SKU-1", Available: 5}},
		InStock:      5,
		LocationName: "Main Warehouse",
	}}
	movements := &stubMovements{
		transfers: []ledger.TransferView{{FromName: "Warehouse", ToName: "AlFateh", SKU: "SKU-1", Qty: 5}},
	}
	svc := NewService(snap, movements, testDirectory(), &stubWarehouse{ref: "gid://shopify/Location/7"}, discardLogger())

	overview, err := svc.BuildOverview(context.Background())
	require.NoError(t, err)
	require.Equal(t, "gid://shopify/Location/7", snap.gotRef)
	require.True(t, snap.gotOpts.SortByAvailable)
	require.Zero(t, snap.gotOpts.Limit)
	require.Equal(t, 50, movements.gotLimit)
	require.Equal(t, 5, overview.InStock)
	require.Equal(t, "Main Warehouse", overview.WarehouseName)
	require.Len(t, overview.Transfers, 1)
}

func TestBuildLocationReportAggregatesFlows(t *testing.T) {
	movements := &stubMovements{transfers: []ledger.TransferView{
		{FromLocationID: 1, ToLocationID: 2, SKU: "SKU-1", Qty: 10},
		{FromLocationID: 1, ToLocationID: 2, SKU: "SKU-1", Qty: 5},
		{FromLocationID: 2, ToLocationID: 3, SKU: "SKU-1", Qty: 4},
		{FromLocationID: 1, ToLocationID: 2, SKU: "SKU-2", Qty: 7},
		{FromLocationID: 1, ToLocationID: 3, SKU: "SKU-3", Qty: 9},
	}}
	svc := NewService(&stubSnapshot{}, movements, testDirectory(), &stubWarehouse{}, discardLogger())

	report, err := svc.BuildLocationReport(context.Background(), "2", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Equal(t, "AlFateh", report.Location.Name)
	require.Len(t, report.Flows, 2)

	require.Equal(t, SKUFlow{SKU: "SKU-1", Inbound: 15, Outbound: 4, Net: 11}, report.Flows[0])
	require.Equal(t, SKUFlow{SKU: "SKU-2", Inbound: 7, Outbound: 0, Net: 7}, report.Flows[1])
	require.Equal(t, 22, report.TotalIn)
	require.Equal(t, 4, report.TotalOut)
	require.Len(t, report.Transfers, 4)
	require.Nil(t, report.From)
	require.Nil(t, report.To)
}

func TestBuildLocationReportByName(t *testing.T) {
	svc := NewService(&stubSnapshot{}, &stubMovements{}, testDirectory(), &stubWarehouse{}, discardLogger())

	report, err := svc.BuildLocationReport(context.Background(), "AlFateh", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Equal(t, int64(2), report.Location.ID)
}

func TestBuildLocationReportWindow(t *testing.T) {
	movements := &stubMovements{}
	svc := NewService(&stubSnapshot{}, movements, testDirectory(), &stubWarehouse{}, discardLogger())

	from := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC)
	report, err := svc.BuildLocationReport(context.Background(), "2", from, to)
	require.NoError(t, err)
	require.Equal(t, from, movements.gotFrom)
	require.Equal(t, to, movements.gotTo)
	require.NotNil(t, report.From)
	require.NotNil(t, report.To)
}

func TestBuildLocationReportValidation(t *testing.T) {
	svc := NewService(&stubSnapshot{}, &stubMovements{}, testDirectory(), &stubWarehouse{}, discardLogger())

	_, err := svc.BuildLocationReport(context.Background(), "  ", time.Time{}, time.Time{})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.BuildLocationReport(context.Background(), "Nowhere", time.Time{}, time.Time{})
	require.ErrorIs(t, err, httpx.ErrNotFound)
}
