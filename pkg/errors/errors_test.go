package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		err  *AppError
		want int
	}{
		{NotFound("slot", nil), http.StatusNotFound},
		{Unauthorized("nope"), http.StatusForbidden},
		{Unauthenticated("who", nil), http.StatusUnauthorized},
		{InvalidState("bad"), http.StatusBadRequest},
		{Validation("bad", nil), http.StatusBadRequest},
		{Conflict("dup", nil), http.StatusConflict},
		{Internal(stderrors.New("boom")), http.StatusInternalServerError},
		{Timeout(nil), http.StatusGatewayTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.err.Code.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.StatusCode())
		})
	}
}

func TestCodeOfWalksChain(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", InvalidState("slot is not available"))

	assert.Equal(t, ErrInvalidState, CodeOf(wrapped))
	assert.True(t, Is(wrapped, ErrInvalidState))
	assert.False(t, Is(wrapped, ErrNotFound))
	assert.Equal(t, ErrInternal, CodeOf(stderrors.New("plain")))
	assert.False(t, Is(nil, ErrInternal))
}

func TestErrorMessage(t *testing.T) {
	cause := stderrors.New("no rows")
	err := NotFound("doctor", cause)

	assert.Equal(t, "doctor not found: no rows", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "doctor not found", NotFound("doctor", nil).Error())
}

func TestValidationWithoutCause(t *testing.T) {
	err := Validation("diagnosis is required", nil)

	assert.Equal(t, "diagnosis is required", err.Error())
	assert.Nil(t, stderrors.Unwrap(err))
}
