package privacy

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(E(KindNotFound, "missing")))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))

	// Kind survives wrapping by fmt.Errorf.
	wrapped := fmt.Errorf("outer: %w", E(KindKeyAccess, "denied"))
	assert.Equal(t, KindKeyAccess, KindOf(wrapped))
}

func TestMessageOf(t *testing.T) {
	assert.Equal(t, "missing thing", MessageOf(E(KindNotFound, "missing %s", "thing")))
	assert.Equal(t, "internal server error", MessageOf(errors.New("db: connection refused")))
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		kind   Kind
		status int
	}{
		{KindUnauthenticated, fiber.StatusUnauthorized},
		{KindInvalidArgument, fiber.StatusBadRequest},
		{KindMalformedKey, fiber.StatusBadRequest},
		{KindNotFound, fiber.StatusNotFound},
		{KindFailedPrecondition, fiber.StatusPreconditionFailed},
		{KindPermissionDenied, fiber.StatusForbidden},
		{KindKeyAccess, fiber.StatusForbidden},
		{KindKeyUnavailable, fiber.StatusServiceUnavailable},
		{KindInternal, fiber.StatusInternalServerError},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.status, StatusOf(E(tc.kind, "x")), string(tc.kind))
	}
	assert.Equal(t, fiber.StatusInternalServerError, StatusOf(errors.New("plain")))
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(E(KindKeyUnavailable, "kms timeout")))
	assert.False(t, Retryable(E(KindKeyAccess, "denied")))
	assert.False(t, Retryable(E(KindMalformedKey, "garbage")))
	assert.False(t, Retryable(errors.New("plain")))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("root cause")
	err := Wrap(cause, KindInternal, "storing failed")
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "storing failed")
}
