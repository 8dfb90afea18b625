// Package httputil writes JSON responses and maps service errors to HTTP
// status codes.
package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"keeptrack/pkg/activity"
	id "keeptrack/pkg/domain"
	"keeptrack/pkg/platform/sentinel"
)

// Error is a client-facing failure with an explicit status.
type Error struct {
	Status      int
	Code        string
	Description string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// BadRequest builds a 400 error.
func BadRequest(format string, args ...any) *Error {
	return &Error{Status: http.StatusBadRequest, Code: "bad_request", Description: fmt.Sprintf(format, args...)}
}

type errorBody struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps err onto a status and a JSON error body. Internal errors
// never leak their description.
func WriteError(w http.ResponseWriter, err error) {
	e := Classify(err)
	body := errorBody{Error: e.Code}
	if e.Status != http.StatusInternalServerError {
		body.Description = e.Description
	}
	WriteJSON(w, e.Status, body)
}

// Classify turns any error into an *Error.
func Classify(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return &Error{Status: http.StatusNotFound, Code: "not_found", Description: msg}
	case errors.Is(err, sentinel.ErrConflict):
		return &Error{Status: http.StatusConflict, Code: "conflict", Description: msg}
	case errors.Is(err, sentinel.ErrUnavailable):
		return &Error{Status: http.StatusServiceUnavailable, Code: "unavailable", Description: msg}
	case errors.Is(err, id.ErrInvalidID), errors.Is(err, activity.ErrInvalidOption):
		return &Error{Status: http.StatusBadRequest, Code: "bad_request", Description: msg}
	case errors.Is(err, activity.ErrNoKeyProvided),
		errors.Is(err, activity.ErrAttributeNotFound),
		errors.Is(err, activity.ErrInvalidReference),
		errors.Is(err, activity.ErrInvalidRecord):
		return &Error{Status: http.StatusUnprocessableEntity, Code: "unprocessable", Description: msg}
	default:
		return &Error{Status: http.StatusInternalServerError, Code: "internal_error", Description: msg}
	}
}

// DecodeJSON decodes the request body into v, rejecting unknown fields.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return BadRequest("invalid request body: %v", err)
	}
	return nil
}
