package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		err    *AppError
		status int
	}{
		{Validation("bad", nil), http.StatusBadRequest},
		{Unauthorized("no", nil), http.StatusUnauthorized},
		{NotFound("missing"), http.StatusNotFound},
		{Conflict("dup"), http.StatusBadRequest},
		{Unverified("unverified"), http.StatusBadRequest},
		{InvalidCode("Invalid OTP."), http.StatusBadRequest},
		{Unavailable("down", nil), http.StatusServiceUnavailable},
		{Internal("boom", nil), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.status, tc.err.Status, tc.err.Code)
	}
}

func TestIsFollowsWrapping(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("create seller: %w", Internal("Internal server error.", cause))

	assert.True(t, Is(err, CodeInternal))
	assert.False(t, Is(err, CodeNotFound))
	assert.ErrorIs(t, err, cause)
	assert.False(t, Is(cause, CodeInternal))
}
