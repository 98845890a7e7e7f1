package settings

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/stockbridge/stockbridge/internal/platform/httpx"
)

// PlatformLocations is the slice of the platform client the service needs
// to validate the configured warehouse ref.
type PlatformLocations interface {
	ValidateLocation(ctx context.Context, locationRef string) bool
	FirstLocationRef(ctx context.Context) (string, error)
}

// Service owns the settings record and warehouse resolution.
type Service struct {
	repo     Repository
	platform PlatformLocations
	logger   *slog.Logger
}

// NewService builds a Service. platform may be nil when no shop is
// configured; resolution then degrades to "no warehouse".
func NewService(repo Repository, platform PlatformLocations, logger *slog.Logger) *Service {
	return &Service{repo: repo, platform: platform, logger: logger}
}

// Ensure creates the settings row on first run.
func (s *Service) Ensure(ctx context.Context, seedWarehouseRef string) error {
	ref := strings.TrimSpace(seedWarehouseRef)
	if ref == "" {
		ref = PlaceholderWarehouseRef
	}
	return s.repo.Ensure(ctx, Settings{
		WarehouseLocationRef: ref,
		AutoSyncOrders:       false,
		InvoiceBranding:      "Stockbridge",
	})
}

// Load returns the current settings record.
func (s *Service) Load(ctx context.Context) (Settings, error) {
	current, found, err := s.repo.Load(ctx)
	if err != nil {
		return Settings{}, err
	}
	if !found {
		return Settings{WarehouseLocationRef: PlaceholderWarehouseRef}, nil
	}
	return current, nil
}

// SaveWarehouseRef updates the configured warehouse location.
func (s *Service) SaveWarehouseRef(ctx context.Context, ref string) error {
	clean := strings.TrimSpace(ref)
	if clean == "" {
		clean = PlaceholderWarehouseRef
	}
	return s.repo.SaveWarehouseRef(ctx, clean)
}

// SaveAutoSync toggles best-effort order creation on sales.
func (s *Service) SaveAutoSync(ctx context.Context, enabled bool) error {
	return s.repo.SaveAutoSync(ctx, enabled)
}

// ResolveWarehouse validates the configured warehouse ref against the
// platform. A stale or placeholder ref falls back to the first platform
// location, which is persisted for next time. Returns "" when no location
// can be resolved; readers then produce the no-warehouse placeholder view.
func (s *Service) ResolveWarehouse(ctx context.Context, current Settings) (string, error) {
	if s.platform == nil {
		return "", nil
	}

	ref := current.WarehouseLocationRef
	if current.HasWarehouse() && s.platform.ValidateLocation(ctx, ref) {
		return ref, nil
	}

	fallback, err := s.platform.FirstLocationRef(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: resolve warehouse: %v", httpx.ErrUpstream, err)
	}
	if fallback == "" {
		return "", nil
	}
	if err := s.repo.SaveWarehouseRef(ctx, fallback); err != nil {
		s.logger.Warn("persist warehouse fallback", slog.Any("error", err))
	}
	return fallback, nil
}
