package authapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// Error is the wire shape every minder endpoint uses for failures:
// {"error": {"code": "...", "message": "..."}}. The resource handlers share
// these helpers so clients see one envelope across the API.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorBody struct {
	Error Error `json:"error"`
}

var errDecodeTrailing = errors.New("extra data after JSON object")

// WriteJSON writes v with the standard response headers. Auth and resource
// payloads are per-user, so responses are never cacheable.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	h := w.Header()
	h.Set("Content-Type", "application/json; charset=utf-8")
	h.Set("Cache-Control", "no-store")
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes the shared error envelope.
func WriteError(w http.ResponseWriter, status int, code, msg string) {
	WriteJSON(w, status, errorBody{Error: Error{Code: code, Message: msg}})
}

// DecodeJSON decodes a single JSON value from the request body into dst,
// rejecting unknown fields, oversized bodies and trailing data.
func DecodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, dst any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	defer func() { _ = r.Body.Close() }()

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errDecodeTrailing
	}
	return nil
}

// Package-internal spellings; the exported forms exist for handlers in other
// packages that reuse the envelope.
func writeJSON(w http.ResponseWriter, status int, v any) { WriteJSON(w, status, v) }

func writeError(w http.ResponseWriter, status int, code, msg string) {
	WriteError(w, status, code, msg)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, dst any) error {
	return DecodeJSON(w, r, maxBytes, dst)
}
