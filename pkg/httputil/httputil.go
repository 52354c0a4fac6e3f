// Package httputil centralizes JSON response and error envelope writing so
// every handler returns the same shape.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "compass/pkg/domain-errors"
)

// WriteJSON writes v as a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into a JSON error envelope. Internal
// errors omit the description so infrastructure details never leak to clients.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := dErrors.ToHTTPStatus(code)

	body := map[string]string{"error": string(code)}
	if code != dErrors.CodeInternal {
		var de *dErrors.DomainError
		if ok := asDomainError(err, &de); ok {
			body["error_description"] = de.Message
		}
	}
	WriteJSON(w, status, body)
}

func asDomainError(err error, target **dErrors.DomainError) bool {
	for err != nil {
		if de, ok := err.(*dErrors.DomainError); ok {
			*target = de
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
