package contract

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Kind identifies one member of the closed error taxonomy. Every Kind has
// exactly one outward HTTP status; no other component maps kinds to statuses.
type Kind string

// The full set of error kinds.
const (
	KindBadRequest      Kind = "bad_request"
	KindUnauthorized    Kind = "unauthorized"
	KindForbidden       Kind = "forbidden"
	KindNotFound        Kind = "not_found"
	KindConflict        Kind = "conflict"
	KindValidationError Kind = "validation_error"
	KindTooManyRequests Kind = "too_many_requests"
	KindInternalError   Kind = "internal_error"
)

// kindStatus is the single source of truth for kind → HTTP status.
var kindStatus = map[Kind]int{
	KindBadRequest:      http.StatusBadRequest,
	KindUnauthorized:    http.StatusUnauthorized,
	KindForbidden:       http.StatusForbidden,
	KindNotFound:        http.StatusNotFound,
	KindConflict:        http.StatusConflict,
	KindValidationError: http.StatusUnprocessableEntity,
	KindTooManyRequests: http.StatusTooManyRequests,
	KindInternalError:   http.StatusInternalServerError,
}

// Error is the taxonomy error type carried through the pipeline and returned
// by handlers. Detail is client-safe structured context (validation issues,
// ids, hints) and is omitted from the wire when nil.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Detail  any    `json:"detail,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// StatusCode returns the fixed HTTP status for the error's kind.
func (e *Error) StatusCode() int {
	if s, ok := kindStatus[e.Kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// BadRequestf returns a BadRequest error with a formatted message.
func BadRequestf(format string, args ...any) *Error {
	return &Error{Kind: KindBadRequest, Message: fmt.Sprintf(format, args...)}
}

// Unauthorizedf returns an Unauthorized error with a formatted message.
func Unauthorizedf(format string, args ...any) *Error {
	return &Error{Kind: KindUnauthorized, Message: fmt.Sprintf(format, args...)}
}

// Forbiddenf returns a Forbidden error with a formatted message.
func Forbiddenf(format string, args ...any) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

// NotFoundf returns a NotFound error with a formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Conflictf returns a Conflict error with a formatted message.
func Conflictf(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// ValidationFailed returns a ValidationError carrying the field-level
// failures as detail.
func ValidationFailed(failures []FieldError) *Error {
	return &Error{
		Kind:    KindValidationError,
		Message: "validation failed",
		Detail:  failures,
	}
}

// TooManyRequestsf returns a TooManyRequests error with a formatted message.
func TooManyRequestsf(format string, args ...any) *Error {
	return &Error{Kind: KindTooManyRequests, Message: fmt.Sprintf(format, args...)}
}

// Internalf returns an InternalError with a formatted message.
func Internalf(format string, args ...any) *Error {
	return &Error{Kind: KindInternalError, Message: fmt.Sprintf(format, args...)}
}

// errorBody is the error wire envelope: {"error": {...}}.
type errorBody struct {
	Error *Error `json:"error"`
}

// writeError writes err as a JSON error envelope with the kind's status.
func writeError(w http.ResponseWriter, err *Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.StatusCode())
	//nolint:errcheck,errchkjson,gosec // best-effort after WriteHeader
	json.NewEncoder(w).Encode(errorBody{Error: err})
}
