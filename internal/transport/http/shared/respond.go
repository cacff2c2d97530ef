// Package shared holds response helpers used by all HTTP handlers.
package shared

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	dErrors "deedflow/pkg/domain-errors"
)

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Attrs   map[string]any `json:"attrs,omitempty"`
}

// WriteError maps a domain error to its HTTP status and writes the coded
// body. Non-domain errors become an opaque 500.
func WriteError(ctx context.Context, w http.ResponseWriter, logger *slog.Logger, err error) {
	if dErr := dErrors.Load(err); dErr != nil {
		status := dErrors.ToHTTPStatus(dErr.Code)
		if status >= http.StatusInternalServerError {
			logger.ErrorContext(ctx, "request failed", "code", string(dErr.Code), "error", err)
		}
		WriteJSON(w, status, errorBody{
			Code:    string(dErr.Code),
			Message: dErr.Message,
			Attrs:   attrsToMap(dErr.Attrs),
		})
		return
	}
	logger.ErrorContext(ctx, "request failed", "error", err)
	WriteJSON(w, http.StatusInternalServerError, errorBody{
		Code:    string(dErrors.CodeInternal),
		Message: "internal error",
	})
}

func attrsToMap(attrs []any) map[string]any {
	if len(attrs) == 0 {
		return nil
	}
	m := make(map[string]any, len(attrs)/2)
	for i := 0; i+1 < len(attrs); i += 2 {
		if key, ok := attrs[i].(string); ok {
			m[key] = attrs[i+1]
		}
	}
	return m
}

// DecodeJSON decodes the request body into dst, rejecting unknown fields.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "decode request body")
	}
	return nil
}
