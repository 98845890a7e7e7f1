// Package httpx shapes service results into the JSON envelope returned by
// every endpoint: {"ok": true, "data": ...} or {"ok": false, "error": ...}.
package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors the domain layers wrap. RespondError maps them to a
// machine-readable code so the UI can show field or banner level messages.
var (
	ErrValidation  = errors.New("validation failed")
	ErrDuplicate   = errors.New("duplicate entry")
	ErrNotFound    = errors.New("resource not found")
	ErrUpstream    = errors.New("upstream unavailable")
	ErrConsistency = errors.New("consistency violation")
)

// Error codes carried in the envelope.
const (
	CodeValidation  = "validation"
	CodeDuplicate   = "duplicate"
	CodeNotFound    = "not_found"
	CodeUpstream    = "upstream_unavailable"
	CodeConsistency = "consistency"
	CodeInternal    = "internal"
)

// RespondError writes the failure envelope for err.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		Fail(w, http.StatusBadRequest, CodeValidation, err.Error())
	case errors.Is(err, ErrDuplicate):
		Fail(w, http.StatusConflict, CodeDuplicate, err.Error())
	case errors.Is(err, ErrNotFound):
		Fail(w, http.StatusNotFound, CodeNotFound, err.Error())
	case errors.Is(err, ErrUpstream):
		Fail(w, http.StatusBadGateway, CodeUpstream, err.Error())
	case errors.Is(err, ErrConsistency):
		Fail(w, http.StatusInternalServerError, CodeConsistency, "operation aborted")
	default:
		Fail(w, http.StatusInternalServerError, CodeInternal, "internal error")
	}
}
