// Package apperrors classifies request failures so handlers can map them to
// HTTP statuses and a uniform {"error": "..."} body.
package apperrors

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Kind identifies the failure class.
type Kind string

const (
	KindUnknown       Kind = ""
	KindValidation    Kind = "validation"
	KindConfiguration Kind = "configuration"
	KindUpstream      Kind = "upstream"
	KindRateLimited   Kind = "rate_limited"
	KindBookingFailed Kind = "booking_failed"
)

// Error is a classified failure. Message is safe to show to API callers; Err
// carries the underlying cause for logs only.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Validation reports malformed or missing request fields.
func Validation(op, message string) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: message}
}

// Configuration reports a missing credential.
func Configuration(op, message string) *Error {
	return &Error{Kind: KindConfiguration, Op: op, Message: message}
}

// Upstream reports that a dependency call did not succeed.
func Upstream(op, message string, err error) *Error {
	return &Error{Kind: KindUpstream, Op: op, Message: message, Err: err}
}

// RateLimited reports that the caller exceeded its request budget.
func RateLimited(op string, err error) *Error {
	return &Error{Kind: KindRateLimited, Op: op, Message: "Too many requests. Please wait a minute and try again.", Err: err}
}

// BookingFailed reports that the calendar refused to create the invitee.
func BookingFailed(op, message string, err error) *Error {
	return &Error{Kind: KindBookingFailed, Op: op, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

// StatusCode maps err to an HTTP status.
func StatusCode(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the caller-facing message for err. Unclassified
// errors never leak their text.
func PublicMessage(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return "internal server error"
}

// WriteJSON writes err as {"error": message} with its mapped status.
func WriteJSON(w http.ResponseWriter, err error) {
	WriteMessage(w, StatusCode(err), PublicMessage(err))
}

// WriteMessage writes an {"error": message} body with the given status.
func WriteMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
