// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package apperr defines the error type every service returns to its handler.

An [AppError] carries the HTTP status, a machine-readable code and a message that is
safe to show to the author. The underlying cause is kept for logs only. Errors that
are not an AppError (a dropped database connection, a failed rasterisation) are
reported to clients as INTERNAL_ERROR by respond.Error.
*/
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is the canonical error type for the API.
type AppError struct {
	// Code is a machine-readable error identifier (e.g. "NOT_FOUND", "CONFLICT").
	Code string `json:"code"`

	// Message is a human-readable description safe to return to the client.
	Message string `json:"error"`

	// HTTPStatus is the HTTP response status code.
	HTTPStatus int `json:"-"`

	// Cause is logged server-side and never serialised.
	Cause error `json:"-"`

	// Details lists per-field failures, e.g. {"pages[2].layout", "Unknown layout"}.
	Details []FieldError `json:"details,omitempty"`
}

// FieldError is a single field-level validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error returns the client-safe message.
func (e *AppError) Error() string { return e.Message }

// Unwrap exposes the cause to [errors.Is] and [errors.As].
func (e *AppError) Unwrap() error { return e.Cause }

func newError(status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

// # Client Errors (4xx)

// NotFound reports a missing resource: apperr.NotFound("Book") reads "Book not found".
// Resources of another owner are reported the same way.
func NotFound(resource string) *AppError {
	return newError(http.StatusNotFound, "NOT_FOUND", resource+" not found")
}

// Unauthorized creates a 401 [AppError].
func Unauthorized(msg string) *AppError {
	return newError(http.StatusUnauthorized, "UNAUTHORIZED", msg)
}

// Conflict reports a request that does not fit the resource's current state, such as
// editing a trashed book or saving an import that is still extracting.
func Conflict(msg string) *AppError {
	return newError(http.StatusConflict, "CONFLICT", msg)
}

// ValidationError creates a 400 [AppError] with optional per-field details.
func ValidationError(msg string, details ...FieldError) *AppError {
	err := newError(http.StatusBadRequest, "VALIDATION_ERROR", msg)
	err.Details = details
	return err
}

// RateLimited creates a 429 [AppError].
func RateLimited(retryAfterSeconds int) *AppError {
	return newError(http.StatusTooManyRequests, "RATE_LIMITED",
		fmt.Sprintf("Too many requests. Try again in %ds.", retryAfterSeconds))
}

// Unprocessable reports well-formed input that cannot be applied (a PDF without pages).
func Unprocessable(msg string) *AppError {
	return newError(http.StatusUnprocessableEntity, "UNPROCESSABLE", msg)
}

// PayloadTooLarge reports an upload over its size ceiling.
func PayloadTooLarge(msg string) *AppError {
	return newError(http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", msg)
}

// UnsupportedMediaType reports an upload of the wrong type.
func UnsupportedMediaType(msg string) *AppError {
	return newError(http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", msg)
}

// # Server Errors (5xx)

// Internal wraps an unexpected failure. The cause is logged, never sent.
func Internal(cause error) *AppError {
	err := newError(http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred")
	err.Cause = cause
	return err
}

// ServiceUnavailable reports a temporary refusal, e.g. during shutdown.
func ServiceUnavailable(msg string) *AppError {
	return newError(http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", msg)
}

// # Helpers

// As extracts the [*AppError] from err's chain. It returns nil if not found.
func As(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}
