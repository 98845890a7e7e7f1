package locations

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockbridge/stockbridge/internal/platform/httpx"
)

// Repository persists virtual locations in PostgreSQL.
type Repository interface {
	List(ctx context.Context) ([]Location, error)
	Get(ctx context.Context, id int64) (Location, error)
	GetByName(ctx context.Context, name string) (Location, error)
	Create(ctx context.Context, name, locType string) (Location, error)
	Rename(ctx context.Context, id int64, name string) error
	Delete(ctx context.Context, id int64) error
	Upsert(ctx context.Context, name, locType string) (Location, error)
	SeedMissing(ctx context.Context, seeds []Seed) error
	Count(ctx context.Context) (int, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) List(ctx context.Context) ([]Location, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, loc_type, created_at FROM virtual_locations ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Location
	for rows.Next() {
		var loc Location
		if err := rows.Scan(&loc.ID, &loc.Name, &loc.Type, &loc.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, loc)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Location, error) {
	var loc Location
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, loc_type, created_at FROM virtual_locations WHERE id = $1`, id,
	).Scan(&loc.ID, &loc.Name, &loc.Type, &loc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Location{}, fmt.Errorf("%w: location %d", httpx.ErrNotFound, id)
		}
		return Location{}, err
	}
	return loc, nil
}

func (r *repository) GetByName(ctx context.Context, name string) (Location, error) {
	var loc Location
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, loc_type, created_at FROM virtual_locations WHERE name = $1`, name,
	).Scan(&loc.ID, &loc.Name, &loc.Type, &loc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Location{}, fmt.Errorf("%w: location %q", httpx.ErrNotFound, name)
		}
		return Location{}, err
	}
	return loc, nil
}

func (r *repository) Create(ctx context.Context, name, locType string) (Location, error) {
	var loc Location
	err := r.pool.QueryRow(ctx,
		`INSERT INTO virtual_locations (name, loc_type) VALUES ($1, $2)
		 RETURNING id, name, loc_type, created_at`, name, locType,
	).Scan(&loc.ID, &loc.Name, &loc.Type, &loc.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return Location{}, fmt.Errorf("%w: location %q", httpx.ErrDuplicate, name)
		}
		return Location{}, err
	}
	return loc, nil
}

func (r *repository) Rename(ctx context.Context, id int64, name string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE virtual_locations SET name = $2 WHERE id = $1`, id, name)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: location %q", httpx.ErrDuplicate, name)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: location %d", httpx.ErrNotFound, id)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM virtual_locations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: location %d", httpx.ErrNotFound, id)
	}
	return nil
}

// Upsert resolves a name to its location, creating it when missing. The
// no-op DO UPDATE makes RETURNING yield the existing row on conflict.
func (r *repository) Upsert(ctx context.Context, name, locType string) (Location, error) {
	var loc Location
	err := r.pool.QueryRow(ctx,
		`INSERT INTO virtual_locations (name, loc_type) VALUES ($1, $2)
		 ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		 RETURNING id, name, loc_type, created_at`, name, locType,
	).Scan(&loc.ID, &loc.Name, &loc.Type, &loc.CreatedAt)
	if err != nil {
		return Location{}, err
	}
	return loc, nil
}

// SeedMissing inserts seeds that do not exist yet and never touches
// attributes of existing rows.
func (r *repository) SeedMissing(ctx context.Context, seeds []Seed) error {
	for _, seed := range seeds {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO virtual_locations (name, loc_type) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`,
			seed.Name, seed.Type)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM virtual_locations`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
