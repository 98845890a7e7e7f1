package locations

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stockbridge/stockbridge/internal/platform/httpx"
)

// Service implements the location registry. Names are trimmed and
// case-sensitive; uniqueness is enforced by the database constraint.
type Service struct {
	repo Repository
}

// NewService builds a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns all virtual locations ordered by name.
func (s *Service) List(ctx context.Context) ([]Location, error) {
	return s.repo.List(ctx)
}

// Get returns one location by id.
func (s *Service) Get(ctx context.Context, id int64) (Location, error) {
	if id <= 0 {
		return Location{}, fmt.Errorf("%w: location id required", httpx.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

// GetByName returns one location by its display name.
func (s *Service) GetByName(ctx context.Context, name string) (Location, error) {
	clean := strings.TrimSpace(name)
	if clean == "" {
		return Location{}, fmt.Errorf("%w: name required", httpx.ErrValidation)
	}
	return s.repo.GetByName(ctx, clean)
}

// Create adds a new named location.
func (s *Service) Create(ctx context.Context, name string) (Location, error) {
	clean := strings.TrimSpace(name)
	if clean == "" {
		return Location{}, fmt.Errorf("%w: name required", httpx.ErrValidation)
	}
	return s.repo.Create(ctx, clean, "")
}

// Rename changes a location's display name. Historical movements reference
// the id, so past activity follows the new name automatically.
func (s *Service) Rename(ctx context.Context, id int64, newName string) error {
	clean := strings.TrimSpace(newName)
	if id <= 0 || clean == "" {
		return fmt.Errorf("%w: id and name required", httpx.ErrValidation)
	}
	if existing, err := s.repo.GetByName(ctx, clean); err == nil && existing.ID != id {
		return fmt.Errorf("%w: location %q", httpx.ErrDuplicate, clean)
	} else if err != nil && !errors.Is(err, httpx.ErrNotFound) {
		return err
	}
	return s.repo.Rename(ctx, id, clean)
}

// Delete removes a location. Movement and sale history keeps the dangling
// id; display queries fall back to "(deleted)".
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: location id required", httpx.ErrValidation)
	}
	return s.repo.Delete(ctx, id)
}

// ResolveOrCreate maps a freeform name to a location, creating it on first
// reference. Idempotent; used by every ledger-mutating operation.
func (s *Service) ResolveOrCreate(ctx context.Context, name string) (Location, error) {
	clean := strings.TrimSpace(name)
	if clean == "" {
		return Location{}, fmt.Errorf("%w: name required", httpx.ErrValidation)
	}
	return s.repo.Upsert(ctx, clean, "")
}

// EnsureDefaults seeds the starter locations. Existing rows are left
// untouched.
func (s *Service) EnsureDefaults(ctx context.Context, seeds []Seed) error {
	return s.repo.SeedMissing(ctx, seeds)
}

// Count returns the number of virtual locations.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}
