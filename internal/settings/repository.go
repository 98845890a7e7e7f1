package settings

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists the singleton settings row.
type Repository interface {
	Load(ctx context.Context) (Settings, bool, error)
	Ensure(ctx context.Context, defaults Settings) error
	SaveWarehouseRef(ctx context.Context, ref string) error
	SaveAutoSync(ctx context.Context, enabled bool) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Load(ctx context.Context) (Settings, bool, error) {
	var s Settings
	err := r.pool.QueryRow(ctx,
		`SELECT warehouse_location_ref, auto_sync_orders, invoice_branding FROM settings WHERE id = 1`,
	).Scan(&s.WarehouseLocationRef, &s.AutoSyncOrders, &s.InvoiceBranding)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Settings{}, false, nil
		}
		return Settings{}, false, err
	}
	return s, true, nil
}

func (r *repository) Ensure(ctx context.Context, defaults Settings) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO settings (id, warehouse_location_ref, auto_sync_orders, invoice_branding)
		 VALUES (1, $1, $2, $3) ON CONFLICT (id) DO NOTHING`,
		defaults.WarehouseLocationRef, defaults.AutoSyncOrders, defaults.InvoiceBranding)
	return err
}

func (r *repository) SaveWarehouseRef(ctx context.Context, ref string) error {
	_, err := r.pool.Exec(ctx, `UPDATE settings SET warehouse_location_ref = $1 WHERE id = 1`, ref)
	return err
}

func (r *repository) SaveAutoSync(ctx context.Context, enabled bool) error {
	_, err := r.pool.Exec(ctx, `UPDATE settings SET auto_sync_orders = $1 WHERE id = 1`, enabled)
	return err
}
