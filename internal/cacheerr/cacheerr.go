package cacheerr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure into one of the categories every public
// operation is allowed to return.
type Kind int

const (
	// KindInvalidArgument means the caller supplied a bad value (non-positive
	// TTL, error rate outside (0,1), and so on). Raised by local validation
	// before any store command is issued.
	KindInvalidArgument Kind = iota + 1

	// KindNotFound means the key or filter does not exist in the store.
	KindNotFound

	// KindAlreadyExists means a create collided with an existing structure.
	KindAlreadyExists

	// KindStoreUnavailable means the backing store could not be reached or
	// did not answer in time.
	KindStoreUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid_argument"
	case KindNotFound:
		return "not_found"
	case KindAlreadyExists:
		return "already_exists"
	case KindStoreUnavailable:
		return "store_unavailable"
	default:
		return "unknown"
	}
}

// Error is a classified failure with an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New creates a classified error.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates a classified error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies an underlying error.
func Wrap(err error, kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, cause: err}
}

// KindOf returns the Kind of err, or 0 if err is not a classified error.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return 0
}

// IsInvalidArgument reports whether err is classified as InvalidArgument.
func IsInvalidArgument(err error) bool { return KindOf(err) == KindInvalidArgument }

// IsNotFound reports whether err is classified as NotFound.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsAlreadyExists reports whether err is classified as AlreadyExists.
func IsAlreadyExists(err error) bool { return KindOf(err) == KindAlreadyExists }

// IsStoreUnavailable reports whether err is classified as StoreUnavailable.
func IsStoreUnavailable(err error) bool { return KindOf(err) == KindStoreUnavailable }

// HTTPStatus maps the error kind to an HTTP status code.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindInvalidArgument:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindAlreadyExists:
		return http.StatusConflict
	case KindStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type jsonError struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	RequestID string `json:"request_id,omitempty"`
}

// WriteJSON writes err as a JSON response body with the mapped status code.
// Unclassified errors are reported as 500 without leaking their message.
func WriteJSON(w http.ResponseWriter, err error, requestID string) {
	w.Header().Set("Content-Type", "application/json")

	var ce *Error
	if !errors.As(err, &ce) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(jsonError{Error: "internal error", Kind: "internal", RequestID: requestID})
		return
	}

	w.WriteHeader(ce.HTTPStatus())
	json.NewEncoder(w).Encode(jsonError{Error: ce.Message, Kind: ce.Kind.String(), RequestID: requestID})
}
