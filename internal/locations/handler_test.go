package locations

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/stockbridge/stockbridge/internal/platform/httpx"
)

func newTestRouter(repo *memoryRepo) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(logger, NewService(repo))
	r := chi.NewRouter()
	r.Route("/locations", h.MountRoutes)
	return r
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) httpx.Envelope {
	t.Helper()
	var env httpx.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestCreateLocationEndpoint(t *testing.T) {
	router := newTestRouter(newMemoryRepo())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/locations", strings.NewReader(`{"name":"AlFateh"}`))
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	env := decodeEnvelope(t, rec)
	require.True(t, env.OK)
	require.Nil(t, env.Error)
}

func TestCreateLocationDuplicate(t *testing.T) {
	repo := newMemoryRepo()
	router := newTestRouter(repo)

	for i, wantCode := range []int{http.StatusCreated, http.StatusConflict} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/locations", strings.NewReader(`{"name":"AlFateh"}`))
		router.ServeHTTP(rec, req)
		require.Equal(t, wantCode, rec.Code, "request %d", i)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/locations", strings.NewReader(`{"name":"AlFateh"}`))
	router.ServeHTTP(rec, req)
	env := decodeEnvelope(t, rec)
	require.False(t, env.OK)
	require.Equal(t, httpx.CodeDuplicate, env.Error.Code)
}

func TestCreateLocationValidation(t *testing.T) {
	router := newTestRouter(newMemoryRepo())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/locations", strings.NewReader(`{"name":""}`))
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	require.Equal(t, httpx.CodeValidation, env.Error.Code)
}

func TestRenameLocationNotFound(t *testing.T) {
	router := newTestRouter(newMemoryRepo())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/locations/42", strings.NewReader(`{"name":"Metro"}`))
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteLocationEndpoint(t *testing.T) {
	repo := newMemoryRepo()
	loc, err := repo.Create(context.Background(), "AlFateh", "outlet")
	require.NoError(t, err)
	router := newTestRouter(repo)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/locations/1", nil)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	_, err = repo.Get(context.Background(), loc.ID)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestListLocationsEndpoint(t *testing.T) {
	repo := newMemoryRepo()
	require.NoError(t, repo.SeedMissing(context.Background(), DefaultSeeds))
	router := newTestRouter(repo)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/locations", nil)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	require.True(t, env.OK)
	list, ok := env.Data.([]any)
	require.True(t, ok)
	require.Len(t, list, len(DefaultSeeds))
}
