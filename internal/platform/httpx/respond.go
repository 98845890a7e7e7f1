package httpx

import (
	"encoding/json"
	"net/http"
)

// Envelope is the wire shape of every response.
type Envelope struct {
	OK    bool       `json:"ok"`
	Data  any        `json:"data,omitempty"`
	Error *ErrorBody `json:"error,omitempty"`
}

// ErrorBody describes a failure in machine-readable form.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

// OK sends a success envelope.
func OK(w http.ResponseWriter, data any) {
	write(w, http.StatusOK, Envelope{OK: true, Data: data})
}

// Created sends a success envelope with 201.
func Created(w http.ResponseWriter, data any) {
	write(w, http.StatusCreated, Envelope{OK: true, Data: data})
}

// Fail sends a failure envelope.
func Fail(w http.ResponseWriter, status int, code, message string) {
	write(w, status, Envelope{OK: false, Error: &ErrorBody{Code: code, Message: message}})
}

func write(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// DecodeJSON decodes the request body into target.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}
