// Package handler contains the HTTP handlers and their request/response
// types.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/orgstackio/api/pkg/apierror"
	"github.com/orgstackio/api/pkg/validator"
)

// respondJSON writes v as a JSON response with the given status.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// handleValidationError writes a 422 with field details when err carries
// them, otherwise a 400.
func handleValidationError(w http.ResponseWriter, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		details := make([]apierror.ValidationError, 0, len(validationErrors))
		for _, e := range validationErrors {
			details = append(details, apierror.ValidationError{Field: e.Field, Message: e.Message})
		}
		apierror.ValidationFailed("Validation failed", details).WriteJSON(w)
		return
	}
	apierror.BadRequest(err.Error()).WriteJSON(w)
}

// validationMessage strips the sentinel prefix from a wrapped validation
// error so clients see only the reason.
func validationMessage(err error) string {
	msg := err.Error()
	if idx := strings.Index(msg, ": "); idx != -1 {
		msg = msg[idx+2:]
	}
	return msg
}

// parseQueryInt parses a query parameter as an integer, returning
// defaultVal if the input is empty or invalid.
func parseQueryInt(s string, defaultVal int) int {
	if s == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return val
}
