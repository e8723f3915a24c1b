// Package shared holds response helpers used by every HTTP handler.
package shared

import (
	"encoding/json"
	"net/http"

	dErrors "dokflyt/pkg/domain-errors"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError maps a domain error onto an HTTP status and writes the coded
// error body. Unknown errors read as internal.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := dErrors.ToHTTPStatus(code)

	body := errorResponse{Code: string(code), Message: err.Error()}
	if status == http.StatusInternalServerError {
		// Never leak internals to the caller.
		body.Message = "internal error"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteJSON writes a JSON response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
