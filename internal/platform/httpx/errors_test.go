package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRespondErrorMapsSentinels(t *testing.T) {
	cases := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{fmt.Errorf("%w: name required", ErrValidation), http.StatusBadRequest, CodeValidation},
		{fmt.Errorf("%w: location", ErrDuplicate), http.StatusConflict, CodeDuplicate},
		{fmt.Errorf("%w: location 7", ErrNotFound), http.StatusNotFound, CodeNotFound},
		{fmt.Errorf("%w: shopify", ErrUpstream), http.StatusBadGateway, CodeUpstream},
		{fmt.Errorf("%w: tx", ErrConsistency), http.StatusInternalServerError, CodeConsistency},
		{errors.New("boom"), http.StatusInternalServerError, CodeInternal},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		RespondError(rec, tc.err)
		require.Equal(t, tc.wantStatus, rec.Code)

		var env Envelope
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
		require.False(t, env.OK)
		require.NotNil(t, env.Error)
		require.Equal(t, tc.wantCode, env.Error.Code)
	}
}

func TestRespondErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, errors.New("pq: connection refused"))

	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.NotContains(t, env.Error.Message, "connection refused")
}

func TestOKEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	OK(rec, map[string]int{"count": 3})

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.True(t, env.OK)
	require.Nil(t, env.Error)
}
