package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stockbridge/stockbridge/internal/locations"
	"github.com/stockbridge/stockbridge/internal/platform/httpx"
	"github.com/stockbridge/stockbridge/internal/settings"
	"github.com/stockbridge/stockbridge/internal/shopify"
)

// LocationResolver maps freeform location names to registry rows.
type LocationResolver interface {
	ResolveOrCreate(ctx context.Context, name string) (locations.Location, error)
}

// OrderItem is one line handed to the order sink.
type OrderItem = shopify.OrderItem

// OrderSink creates an order on the external platform. Best-effort: a sink
// failure never fails the sale that triggered it.
type OrderSink interface {
	CreateOrder(ctx context.Context, items []OrderItem) (string, error)
}

// Service coordinates ledger mutations and reads.
type Service struct {
	repo     Repository
	resolver LocationResolver
	sink     OrderSink
	logger   *slog.Logger
}

// NewService builds a Service. sink may be nil when order sync is not
// available.
func NewService(repo Repository, resolver LocationResolver, sink OrderSink, logger *slog.Logger) *Service {
	return &Service{repo: repo, resolver: resolver, sink: sink, logger: logger}
}

// Adjust applies a signed delta to one (location, sku) balance and returns
// the new balance. The balance is clamped at zero: an overdraw leaves zero,
// not a negative number, so the ledger is always displayable. Callers that
// need strict overdraft prevention must check availability first.
func (s *Service) Adjust(ctx context.Context, locationID int64, sku string, delta int) (int, error) {
	var newQty int
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		newQty, err = applyAdjust(ctx, tx, locationID, sku, delta)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("%w: adjust stock: %v", httpx.ErrConsistency, err)
	}
	return newQty, nil
}

// applyAdjust is the single read-modify-write of the ledger: lock the row,
// clamp, upsert.
func applyAdjust(ctx context.Context, tx TxRepository, locationID int64, sku string, delta int) (int, error) {
	current, err := tx.GetStockForUpdate(ctx, locationID, sku)
	if err != nil {
		return 0, err
	}
	newQty := current + delta
	if newQty < 0 {
		newQty = 0
	}
	if err := tx.UpsertStock(ctx, locationID, sku, newQty); err != nil {
		return 0, err
	}
	return newQty, nil
}

// RecordTransfer resolves both location names, floors the quantity to 1 and
// applies the movement record plus both balance adjustments in one
// transaction.
func (s *Service) RecordTransfer(ctx context.Context, input TransferInput) (Transfer, error) {
	if strings.TrimSpace(input.SKU) == "" {
		return Transfer{}, fmt.Errorf("%w: sku required", httpx.ErrValidation)
	}
	from, err := s.resolver.ResolveOrCreate(ctx, input.FromName)
	if err != nil {
		return Transfer{}, err
	}
	to, err := s.resolver.ResolveOrCreate(ctx, input.ToName)
	if err != nil {
		return Transfer{}, err
	}

	qty := input.Qty
	if qty < 1 {
		qty = 1
	}

	var created Transfer
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		created, err = tx.InsertTransfer(ctx, Transfer{
			FromLocationID: from.ID,
			ToLocationID:   to.ID,
			SKU:            input.SKU,
			Qty:            qty,
			Notes:          input.Notes,
			BatchRef:       input.BatchRef,
		})
		if err != nil {
			return err
		}
		if _, err := applyAdjust(ctx, tx, from.ID, input.SKU, -qty); err != nil {
			return err
		}
		_, err = applyAdjust(ctx, tx, to.ID, input.SKU, qty)
		return err
	})
	if err != nil {
		return Transfer{}, fmt.Errorf("%w: record transfer: %v", httpx.ErrConsistency, err)
	}
	return created, nil
}

// RecordTransferBatch applies many lines to one destination under a shared
// batch reference. Lines without a SKU or a positive quantity are skipped;
// the applied count is returned.
func (s *Service) RecordTransferBatch(ctx context.Context, origin, destination, notes string, lines []BatchLine) (int, string, error) {
	if strings.TrimSpace(destination) == "" {
		return 0, "", fmt.Errorf("%w: destination required", httpx.ErrValidation)
	}
	batchRef := uuid.NewString()

	applied := 0
	for _, line := range lines {
		sku := strings.TrimSpace(line.SKU)
		if sku == "" || line.Qty <= 0 {
			continue
		}
		_, err := s.RecordTransfer(ctx, TransferInput{
			FromName: origin,
			ToName:   destination,
			SKU:      sku,
			Qty:      line.Qty,
			Notes:    notes,
			BatchRef: batchRef,
		})
		if err != nil {
			return applied, batchRef, err
		}
		applied++
	}
	return applied, batchRef, nil
}

// RecordSale resolves the location, floors the quantity to 1 and applies
// the single-sided adjustment plus the sale record in one transaction.
// When cfg.AutoSyncOrders is set, an external order is created after the
// commit; sink failures are logged, never surfaced — the sale already
// happened in the physical world.
func (s *Service) RecordSale(ctx context.Context, input SaleInput, cfg settings.Settings) (Sale, error) {
	if strings.TrimSpace(input.SKU) == "" {
		return Sale{}, fmt.Errorf("%w: sku required", httpx.ErrValidation)
	}
	loc, err := s.resolver.ResolveOrCreate(ctx, input.LocationName)
	if err != nil {
		return Sale{}, err
	}

	qty := input.Qty
	if qty < 1 {
		qty = 1
	}

	var created Sale
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if _, err := applyAdjust(ctx, tx, loc.ID, input.SKU, -qty); err != nil {
			return err
		}
		created, err = tx.InsertSale(ctx, Sale{
			LocationID: loc.ID,
			SKU:        input.SKU,
			Qty:        qty,
			Value:      input.Value,
		})
		return err
	})
	if err != nil {
		return Sale{}, fmt.Errorf("%w: record sale: %v", httpx.ErrConsistency, err)
	}

	if cfg.AutoSyncOrders && s.sink != nil {
		orderRef, err := s.sink.CreateOrder(ctx, []OrderItem{{SKU: input.SKU, Quantity: qty}})
		if err != nil {
			s.logger.Warn("order sync failed", slog.String("sku", input.SKU), slog.Any("error", err))
		} else if orderRef != "" {
			if err := s.repo.SetSaleOrderRef(ctx, created.ID, orderRef); err != nil {
				s.logger.Warn("store order ref", slog.Int64("sale_id", created.ID), slog.Any("error", err))
			} else {
				created.ExternalOrderRef = &orderRef
			}
		}
	}
	return created, nil
}

// TotalsBySKU aggregates balances per SKU across all locations.
func (s *Service) TotalsBySKU(ctx context.Context) (map[string]int, error) {
	return s.repo.TotalsBySKU(ctx)
}

// WarehouseDeltaBySKU returns the net signed transfer flow per SKU for the
// location carrying the warehouse display name.
func (s *Service) WarehouseDeltaBySKU(ctx context.Context, warehouseName string) (map[string]int, error) {
	if warehouseName == "" {
		return map[string]int{}, nil
	}
	return s.repo.WarehouseDeltaBySKU(ctx, warehouseName)
}

// RecentTransfers lists the latest transfers, newest first.
func (s *Service) RecentTransfers(ctx context.Context, limit int) ([]TransferView, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.repo.RecentTransfers(ctx, limit)
}

// RecentSales lists the latest sales, newest first.
func (s *Service) RecentSales(ctx context.Context, limit int) ([]SaleView, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.repo.RecentSales(ctx, limit)
}

// TransfersTouching lists transfers where the location is either side.
func (s *Service) TransfersTouching(ctx context.Context, locationID int64, from, to time.Time, limit int) ([]TransferView, error) {
	if limit <= 0 {
		limit = 500
	}
	return s.repo.TransfersTouching(ctx, locationID, from, to, limit)
}

// AuditBalances replays the movement log with the same clamp-at-zero
// semantics as the incremental cache and reports every disagreement. A
// clean ledger returns an empty slice.
func (s *Service) AuditBalances(ctx context.Context) ([]Drift, error) {
	var drifts []Drift
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		movements, err := tx.Movements(ctx)
		if err != nil {
			return err
		}
		replayed := replay(movements)

		cached, err := tx.Balances(ctx)
		if err != nil {
			return err
		}

		seen := make(map[balanceKey]bool, len(cached))
		for _, entry := range cached {
			key := balanceKey{entry.LocationID, entry.SKU}
			seen[key] = true
			if replayed[key] != entry.Qty {
				drifts = append(drifts, Drift{
					LocationID: entry.LocationID,
					SKU:        entry.SKU,
					Cached:     entry.Qty,
					Replayed:   replayed[key],
				})
			}
		}
		for key, qty := range replayed {
			if !seen[key] && qty != 0 {
				drifts = append(drifts, Drift{LocationID: key.locationID, SKU: key.sku, Cached: 0, Replayed: qty})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return drifts, nil
}

// RebuildBalances replaces the cached balances with a full replay of the
// movement log, in one transaction. Returns the number of rows written.
// This is the recovery path for a corrupted cache.
func (s *Service) RebuildBalances(ctx context.Context) (int, error) {
	written := 0
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		movements, err := tx.Movements(ctx)
		if err != nil {
			return err
		}
		replayed := replay(movements)

		if err := tx.DeleteAllStock(ctx); err != nil {
			return err
		}
		for key, qty := range replayed {
			if qty == 0 {
				continue
			}
			if err := tx.UpsertStock(ctx, key.locationID, key.sku, qty); err != nil {
				return err
			}
			written++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: rebuild balances: %v", httpx.ErrConsistency, err)
	}
	return written, nil
}

type balanceKey struct {
	locationID int64
	sku        string
}

// replay folds the movement log into balances, clamping at zero after each
// step exactly like the incremental path does.
func replay(movements []Movement) map[balanceKey]int {
	balances := make(map[balanceKey]int)
	apply := func(locationID int64, sku string, delta int) {
		key := balanceKey{locationID, sku}
		next := balances[key] + delta
		if next < 0 {
			next = 0
		}
		balances[key] = next
	}
	for _, m := range movements {
		switch m.Kind {
		case MovementTransfer:
			apply(m.FromLocationID, m.SKU, -m.Qty)
			apply(m.ToLocationID, m.SKU, m.Qty)
		case MovementSale:
			apply(m.FromLocationID, m.SKU, -m.Qty)
		}
	}
	return balances
}
