// Package shared holds the response helpers used by every HTTP handler so
// success and error envelopes stay consistent across features.
package shared

import (
	"encoding/json"
	"net/http"

	dErrors "fedbridge/pkg/domain-errors"
)

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorBody is the uniform error envelope. Meta carries the structured
// details a domain error chose to expose (effective limits, denial reasons).
type errorBody struct {
	Error            string         `json:"error"`
	ErrorDescription string         `json:"error_description"`
	Meta             map[string]any `json:"meta,omitempty"`
}

// WriteError translates a domain error into its HTTP response. Untyped
// errors become opaque 500s so internals never leak.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := errorBody{
		Error:            string(code),
		ErrorDescription: "internal error",
		Meta:             dErrors.MetaOf(err),
	}
	if code != dErrors.CodeInternal {
		body.ErrorDescription = dErrors.MessageOf(err)
	}
	WriteJSON(w, dErrors.HTTPStatus(code), body)
}
