// Package shared centralizes JSON response writing and domain-error
// translation so every handler produces the same envelopes.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "contactlink/pkg/domain-errors"
)

// ErrorResponse is the caller-visible error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps a domain error onto the HTTP response. Unknown errors
// become opaque internal errors; their detail belongs in logs, not responses.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	resp := ErrorResponse{Error: string(code)}

	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		resp.Message = domainErr.Message
	}

	WriteJSON(w, dErrors.ToHTTPStatus(code), resp)
}
