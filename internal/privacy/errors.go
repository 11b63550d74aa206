package privacy

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Kind is the closed set of error categories surfaced by the privacy core.
// Callers branch on the kind, never on message text.
type Kind string

const (
	KindUnauthenticated    Kind = "unauthenticated"
	KindInvalidArgument    Kind = "invalid-argument"
	KindNotFound           Kind = "not-found"
	KindFailedPrecondition Kind = "failed-precondition"
	KindPermissionDenied   Kind = "permission-denied"
	KindKeyAccess          Kind = "key-access"
	KindKeyUnavailable     Kind = "key-unavailable"
	KindMalformedKey       Kind = "malformed-key"
	KindInternal           Kind = "internal"
)

// Error carries a kind alongside a human-readable message suitable for
// direct display, and optionally wraps an underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Message + ": " + e.Err.Error()
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// E builds a new typed error.
func E(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(err error, kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the kind from an error chain, defaulting to internal for
// anything unclassified.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// MessageOf returns the display message of a typed error, or a generic
// message for unclassified errors so internals never leak to clients.
func MessageOf(err error) string {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Message
	}
	return "internal server error"
}

// StatusOf maps an error kind to an HTTP status code.
func StatusOf(err error) int {
	switch KindOf(err) {
	case KindUnauthenticated:
		return fiber.StatusUnauthorized
	case KindInvalidArgument, KindMalformedKey:
		return fiber.StatusBadRequest
	case KindNotFound:
		return fiber.StatusNotFound
	case KindFailedPrecondition:
		return fiber.StatusPreconditionFailed
	case KindPermissionDenied, KindKeyAccess:
		return fiber.StatusForbidden
	case KindKeyUnavailable:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// Retryable reports whether a failed operation is worth retrying. Only
// transient root-key-provider outages qualify; authorization and format
// failures never do.
func Retryable(err error) bool {
	return KindOf(err) == KindKeyUnavailable
}
