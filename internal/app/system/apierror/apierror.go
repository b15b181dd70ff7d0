// internal/app/system/apierror/apierror.go
//
// Package apierror maps store and parsing errors onto JSON error responses.
// Every error carries a public message sent to the client and an optional
// internal cause that is only logged.
package apierror

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dalemusser/listinghub/internal/app/store/query"
	"github.com/dalemusser/listinghub/internal/app/system/filters"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Error codes sent in the response body.
const (
	CodeValidation = "validation_error"
	CodeBadID      = "invalid_id"
	CodeNotFound   = "not_found"
	CodeConflict   = "conflict"
	CodeTimeout    = "timeout"
	CodeRateLimit  = "rate_limited"
	CodeStorage    = "storage_error"
)

// Error is an API error with an HTTP status.
type Error struct {
	Status  int
	Code    string
	Message string
	Details map[string]any

	cause error
}

func (e *Error) Error() string { return e.Message }

// Unwrap returns the internal cause, if any.
func (e *Error) Unwrap() error { return e.cause }

// Body is the JSON error envelope.
type Body struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details,omitempty"`
	} `json:"error"`
}

// Validation reports client input that does not fit its declared type.
func Validation(message string, details map[string]any) *Error {
	return &Error{Status: http.StatusBadRequest, Code: CodeValidation, Message: message, Details: details}
}

// BadID reports a path id that is not a valid ObjectID.
func BadID(id string) *Error {
	return &Error{
		Status:  http.StatusBadRequest,
		Code:    CodeBadID,
		Message: "invalid id",
		Details: map[string]any{"id": id},
	}
}

// NotFound reports a missing single document.
func NotFound(what string) *Error {
	return &Error{Status: http.StatusNotFound, Code: CodeNotFound, Message: what + " not found"}
}

// Conflict reports a unique constraint violation.
func Conflict(message string) *Error {
	return &Error{Status: http.StatusConflict, Code: CodeConflict, Message: message}
}

// TooManyRequests reports a client over its write rate.
func TooManyRequests() *Error {
	return &Error{Status: http.StatusTooManyRequests, Code: CodeRateLimit, Message: "too many requests"}
}

// Storage wraps a database failure. The cause is logged, never sent.
func Storage(cause error) *Error {
	return &Error{Status: http.StatusInternalServerError, Code: CodeStorage, Message: "internal server error", cause: cause}
}

// From classifies err. what names the entity for not-found messages.
func From(err error, what string) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	var ve *filters.ValidationError
	if errors.As(err, &ve) {
		return Validation(ve.Error(), map[string]any{"param": ve.Param, "value": ve.Value, "reason": ve.Reason})
	}
	switch {
	case errors.Is(err, query.ErrNotFound), errors.Is(err, mongo.ErrNoDocuments):
		return NotFound(what)
	case errors.Is(err, query.ErrDuplicate):
		return Conflict(what + " already exists")
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Status: http.StatusGatewayTimeout, Code: CodeTimeout, Message: "request timed out", cause: err}
	}
	return Storage(err)
}

// Write renders err as JSON. Server-side failures are logged with their
// cause; client errors are logged at debug.
func Write(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error, what string) {
	ae := From(err, what)
	if log != nil {
		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ae.Status),
			zap.Error(err),
		}
		if ae.Status >= 500 {
			log.Error("request failed", fields...)
		} else {
			log.Debug("request rejected", fields...)
		}
	}
	var body Body
	body.Error.Code = ae.Code
	body.Error.Message = ae.Message
	body.Error.Details = ae.Details
	WriteJSON(w, ae.Status, body)
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
