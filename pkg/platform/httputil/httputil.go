// Package httputil centralizes JSON response writing so every handler emits
// the same envelopes.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "mia/pkg/domain-errors"
)

// WriteJSON writes v as a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into the standard error envelope.
// Internal errors omit the description so server-side details never leak.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.GetCode(err)
	body := map[string]string{"error": string(code)}
	if code != dErrors.CodeInternal {
		if msg := dErrors.Message(err); msg != "" {
			body["error_description"] = msg
		}
	}
	WriteJSON(w, dErrors.ToHTTPStatus(code), body)
}
