package locations

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stockbridge/stockbridge/internal/platform/httpx"
)

type memoryRepo struct {
	byID   map[int64]Location
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{byID: make(map[int64]Location)}
}

func (r *memoryRepo) List(ctx context.Context) ([]Location, error) {
	out := make([]Location, 0, len(r.byID))
	for _, loc := range r.byID {
		out = append(out, loc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Location, error) {
	if loc, ok := r.byID[id]; ok {
		return loc, nil
	}
	return Location{}, fmt.Errorf("%w: location %d", httpx.ErrNotFound, id)
}

func (r *memoryRepo) GetByName(ctx context.Context, name string) (Location, error) {
	for _, loc := range r.byID {
		if loc.Name == name {
			return loc, nil
		}
	}
	return Location{}, fmt.Errorf("%w: location %q", httpx.ErrNotFound, name)
}

func (r *memoryRepo) Create(ctx context.Context, name, locType string) (Location, error) {
	if _, err := r.GetByName(ctx, name); err == nil {
		return Location{}, fmt.Errorf("%w: location %q", httpx.ErrDuplicate, name)
	}
	r.nextID++
	loc := Location{ID: r.nextID, Name: name, Type: locType, CreatedAt: time.Now()}
	r.byID[loc.ID] = loc
	return loc, nil
}

func (r *memoryRepo) Rename(ctx context.Context, id int64, name string) error {
	loc, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("%w: location %d", httpx.ErrNotFound, id)
	}
	loc.Name = name
	r.byID[id] = loc
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.byID[id]; !ok {
		return fmt.Errorf("%w: location %d", httpx.ErrNotFound, id)
	}
	delete(r.byID, id)
	return nil
}

func (r *memoryRepo) Upsert(ctx context.Context, name, locType string) (Location, error) {
	if loc, err := r.GetByName(ctx, name); err == nil {
		return loc, nil
	}
	return r.Create(ctx, name, locType)
}

func (r *memoryRepo) SeedMissing(ctx context.Context, seeds []Seed) error {
	for _, seed := range seeds {
		if _, err := r.Upsert(ctx, seed.Name, seed.Type); err != nil {
			return err
		}
	}
	return nil
}

func (r *memoryRepo) Count(ctx context.Context) (int, error) {
	return len(r.byID), nil
}

func TestCreateTrimsAndValidates(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	loc, err := svc.Create(ctx, "  AlFateh  ")
	require.NoError(t, err)
	require.Equal(t, "AlFateh", loc.Name)

	_, err = svc.Create(ctx, "   ")
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestCreateDuplicateName(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, "AlFateh")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "AlFateh")
	require.ErrorIs(t, err, httpx.ErrDuplicate)
}

func TestRenameConflicts(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	a, err := svc.Create(ctx, "AlFateh")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "Imtiaz")
	require.NoError(t, err)

	require.ErrorIs(t, svc.Rename(ctx, a.ID, "Imtiaz"), httpx.ErrDuplicate)

	// Renaming to its own name is a no-op, not a conflict.
	require.NoError(t, svc.Rename(ctx, a.ID, "AlFateh"))

	require.NoError(t, svc.Rename(ctx, a.ID, "Metro"))
	got, err := svc.Get(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, "Metro", got.Name)
}

func TestRenameUnknownLocation(t *testing.T) {
	svc := NewService(newMemoryRepo())

	require.ErrorIs(t, svc.Rename(context.Background(), 42, "Metro"), httpx.ErrNotFound)
}

func TestDeleteValidatesID(t *testing.T) {
	svc := NewService(newMemoryRepo())

	require.ErrorIs(t, svc.Delete(context.Background(), 0), httpx.ErrValidation)
	require.ErrorIs(t, svc.Delete(context.Background(), 7), httpx.ErrNotFound)
}

func TestResolveOrCreateIsIdempotent(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	first, err := svc.ResolveOrCreate(ctx, " AlFateh ")
	require.NoError(t, err)
	second, err := svc.ResolveOrCreate(ctx, "AlFateh")
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	count, err := svc.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestEnsureDefaultsSeedsOnce(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	require.NoError(t, svc.EnsureDefaults(ctx, DefaultSeeds))
	require.NoError(t, svc.EnsureDefaults(ctx, DefaultSeeds))

	count, err := svc.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, len(DefaultSeeds), count)

	locs, err := svc.List(ctx)
	require.NoError(t, err)
	require.Equal(t, "AlFateh", locs[0].Name)
	require.Equal(t, "outlet", locs[0].Type)
}
