package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/starford/torlist/internal/apperr"
)

// maxBody bounds request bodies; listings and denylist entries are tiny.
const maxBody = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error string `json:"error" validate:"required"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// statusOf maps an error kind to its HTTP status.
func statusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusUnprocessableEntity
	case apperr.KindSignature:
		return http.StatusNotAcceptable
	case apperr.KindNotFound, apperr.KindMalformedID:
		return http.StatusNotFound
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError logs server-side failures and renders err as {"error": msg}.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status := statusOf(kind)
	msg := apperr.Message(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
		if kind == apperr.KindInternal {
			msg = "internal error"
		}
	}
	writeJSON(w, status, errorBody(msg))
}

// decodeObject reads a JSON object body. Values are kept untyped so callers
// can report mis-typed properties by name, in their own order.
func decodeObject(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && err != io.EOF {
		return nil, apperr.Validation("api: decode", "request body must be a JSON object")
	}
	if body == nil {
		body = map[string]any{}
	}
	return body, nil
}

// stringProp returns body[key] when it is a string. present is false when the
// key is absent; ok is false when it is present with another JSON type.
func stringProp(body map[string]any, key string) (s string, present, ok bool) {
	v, present := body[key]
	if !present {
		return "", false, true
	}
	s, ok = v.(string)
	return s, true, ok
}

// stringOrEmpty treats absent and mis-typed values alike as "", which the
// domain validators reject as "must be a string".
func stringOrEmpty(body map[string]any, key string) string {
	s, _, _ := stringProp(body, key)
	return s
}

func mustBeString(op, key string) error {
	return apperr.Validation(op, "Property '"+key+"' must be a string!")
}
