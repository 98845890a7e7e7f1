package ledger

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockbridge/stockbridge/internal/platform/db"
)

// TxRepository exposes the operations available inside a ledger transaction.
type TxRepository interface {
	// GetStockForUpdate reads the current balance under a row lock, 0 when
	// no row exists yet. The lock serializes concurrent adjustments to the
	// same (location, sku) pair.
	GetStockForUpdate(ctx context.Context, locationID int64, sku string) (int, error)
	UpsertStock(ctx context.Context, locationID int64, sku string, qty int) error
	InsertTransfer(ctx context.Context, t Transfer) (Transfer, error)
	InsertSale(ctx context.Context, s Sale) (Sale, error)
	Movements(ctx context.Context) ([]Movement, error)
	Balances(ctx context.Context) ([]StockEntry, error)
	DeleteAllStock(ctx context.Context) error
}

// Repository persists the ledger in PostgreSQL.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	TotalsBySKU(ctx context.Context) (map[string]int, error)
	Balances(ctx context.Context) ([]StockEntry, error)
	RecentTransfers(ctx context.Context, limit int) ([]TransferView, error)
	RecentSales(ctx context.Context, limit int) ([]SaleView, error)
	TransfersTouching(ctx context.Context, locationID int64, from, to time.Time, limit int) ([]TransferView, error)
	// WarehouseDeltaBySKU sums signed transfer quantities per SKU for
	// movements whose from or to side carries the given display name.
	WarehouseDeltaBySKU(ctx context.Context, warehouseName string) (map[string]int, error)
	SetSaleOrderRef(ctx context.Context, saleID int64, orderRef string) error
}

type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

func (r *repository) GetStockForUpdate(ctx context.Context, locationID int64, sku string) (int, error) {
	var qty int
	err := r.db.QueryRow(ctx,
		`SELECT qty FROM virtual_stock WHERE location_id = $1 AND sku = $2 FOR UPDATE`,
		locationID, sku,
	).Scan(&qty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return qty, nil
}

func (r *repository) UpsertStock(ctx context.Context, locationID int64, sku string, qty int) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO virtual_stock (location_id, sku, qty) VALUES ($1, $2, $3)
		 ON CONFLICT (location_id, sku) DO UPDATE SET qty = EXCLUDED.qty`,
		locationID, sku, qty)
	return err
}

func (r *repository) InsertTransfer(ctx context.Context, t Transfer) (Transfer, error) {
	err := r.db.QueryRow(ctx,
		`INSERT INTO transfers (from_location_id, to_location_id, sku, qty, notes, batch_ref)
		 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
		 RETURNING id, created_at`,
		t.FromLocationID, t.ToLocationID, t.SKU, t.Qty, t.Notes, t.BatchRef,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return Transfer{}, err
	}
	return t, nil
}

func (r *repository) InsertSale(ctx context.Context, s Sale) (Sale, error) {
	err := r.db.QueryRow(ctx,
		`INSERT INTO sales (location_id, sku, qty, value, external_order_ref)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		s.LocationID, s.SKU, s.Qty, s.Value, s.ExternalOrderRef,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return Sale{}, err
	}
	return s, nil
}

func (r *repository) Movements(ctx context.Context) ([]Movement, error) {
	rows, err := r.db.Query(ctx, `
		SELECT kind, from_id, to_id, sku, qty, created_at FROM (
			SELECT 'transfer' AS kind, from_location_id AS from_id, to_location_id AS to_id,
			       sku, qty, created_at, id
			FROM transfers
			UNION ALL
			SELECT 'sale', location_id, 0::bigint, sku, qty, created_at, id
			FROM sales
		) m
		ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Movement
	for rows.Next() {
		var m Movement
		if err := rows.Scan(&m.Kind, &m.FromLocationID, &m.ToLocationID, &m.SKU, &m.Qty, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *repository) DeleteAllStock(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `DELETE FROM virtual_stock`)
	return err
}

func (r *repository) TotalsBySKU(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.Query(ctx, `SELECT sku, COALESCE(SUM(qty), 0) FROM virtual_stock GROUP BY sku`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make(map[string]int)
	for rows.Next() {
		var sku string
		var total int
		if err := rows.Scan(&sku, &total); err != nil {
			return nil, err
		}
		totals[sku] = total
	}
	return totals, rows.Err()
}

func (r *repository) Balances(ctx context.Context) ([]StockEntry, error) {
	rows, err := r.db.Query(ctx, `SELECT location_id, sku, qty FROM virtual_stock ORDER BY location_id, sku`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StockEntry
	for rows.Next() {
		var e StockEntry
		if err := rows.Scan(&e.LocationID, &e.SKU, &e.Qty); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *repository) RecentTransfers(ctx context.Context, limit int) ([]TransferView, error) {
	rows, err := r.db.Query(ctx, `
		SELECT t.created_at, t.from_location_id, t.to_location_id,
		       COALESCE(fl.name, $2), COALESCE(tl.name, $2), t.sku, t.qty, t.notes
		FROM transfers t
		LEFT JOIN virtual_locations fl ON fl.id = t.from_location_id
		LEFT JOIN virtual_locations tl ON tl.id = t.to_location_id
		ORDER BY t.created_at DESC, t.id DESC
		LIMIT $1`, limit, deletedLocationName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TransferView
	for rows.Next() {
		var v TransferView
		if err := rows.Scan(&v.CreatedAt, &v.FromLocationID, &v.ToLocationID, &v.FromName, &v.ToName, &v.SKU, &v.Qty, &v.Notes); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *repository) RecentSales(ctx context.Context, limit int) ([]SaleView, error) {
	rows, err := r.db.Query(ctx, `
		SELECT s.created_at, COALESCE(l.name, $2), s.sku, s.qty, s.value
		FROM sales s
		LEFT JOIN virtual_locations l ON l.id = s.location_id
		ORDER BY s.created_at DESC, s.id DESC
		LIMIT $1`, limit, deletedLocationName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SaleView
	for rows.Next() {
		var v SaleView
		if err := rows.Scan(&v.CreatedAt, &v.LocationName, &v.SKU, &v.Qty, &v.Value); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *repository) TransfersTouching(ctx context.Context, locationID int64, from, to time.Time, limit int) ([]TransferView, error) {
	query := `
		SELECT t.created_at, t.from_location_id, t.to_location_id,
		       COALESCE(fl.name, $2), COALESCE(tl.name, $2), t.sku, t.qty, t.notes
		FROM transfers t
		LEFT JOIN virtual_locations fl ON fl.id = t.from_location_id
		LEFT JOIN virtual_locations tl ON tl.id = t.to_location_id
		WHERE (t.from_location_id = $1 OR t.to_location_id = $1)`
	args := []any{locationID, deletedLocationName}
	if !from.IsZero() {
		args = append(args, from)
		query += ` AND t.created_at >= $3`
	}
	if !to.IsZero() {
		args = append(args, to)
		if from.IsZero() {
			query += ` AND t.created_at <= $3`
		} else {
			query += ` AND t.created_at <= $4`
		}
	}
	args = append(args, limit)
	query += ` ORDER BY t.created_at DESC, t.id DESC LIMIT $` + strconv.Itoa(len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TransferView
	for rows.Next() {
		var v TransferView
		if err := rows.Scan(&v.CreatedAt, &v.FromLocationID, &v.ToLocationID, &v.FromName, &v.ToName, &v.SKU, &v.Qty, &v.Notes); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *repository) WarehouseDeltaBySKU(ctx context.Context, warehouseName string) (map[string]int, error) {
	rows, err := r.db.Query(ctx, `
		SELECT t.sku,
		       COALESCE(SUM(
		           CASE WHEN fl.name = $1 THEN -t.qty ELSE 0 END +
		           CASE WHEN tl.name = $1 THEN t.qty ELSE 0 END
		       ), 0)
		FROM transfers t
		LEFT JOIN virtual_locations fl ON fl.id = t.from_location_id
		LEFT JOIN virtual_locations tl ON tl.id = t.to_location_id
		WHERE fl.name = $1 OR tl.name = $1
		GROUP BY t.sku`, warehouseName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	deltas := make(map[string]int)
	for rows.Next() {
		var sku string
		var delta int
		if err := rows.Scan(&sku, &delta); err != nil {
			return nil, err
		}
		deltas[sku] = delta
	}
	return deltas, rows.Err()
}

func (r *repository) SetSaleOrderRef(ctx context.Context, saleID int64, orderRef string) error {
	_, err := r.db.Exec(ctx, `UPDATE sales SET external_order_ref = $2 WHERE id = $1`, saleID, orderRef)
	return err
}

