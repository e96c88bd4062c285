package bizerr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKinds(t *testing.T) {
	cause := errors.New("connection refused")

	tests := []struct {
		name    string
		err     *Error
		code    int
		status  int
		message string
	}{
		{"validation", Validation("id"), 10001, http.StatusBadRequest, "Validation error on field: id"},
		{"argument", Argument(cause), 10002, http.StatusBadRequest, "argument error"},
		{"internal", Internal(cause), 10000, http.StatusInternalServerError, "An internal error occurred. Please try again later."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code())
			assert.Equal(t, tt.status, tt.err.Status())
			assert.Equal(t, tt.message, tt.err.Error())
		})
	}
}

func TestInternalHidesCause(t *testing.T) {
	cause := errors.New("dial tcp 10.0.0.1:27017: i/o timeout")
	err := Internal(cause)

	assert.NotContains(t, err.Error(), "10.0.0.1")
	assert.ErrorIs(t, err, cause)
}

func TestAs(t *testing.T) {
	wrapped := fmt.Errorf("update article: %w", Validation("id"))
	be := As(wrapped)
	assert.Equal(t, KindValidation, be.Kind)
	assert.Equal(t, "id", be.Field)

	plain := errors.New("boom")
	assert.Equal(t, KindInternal, As(plain).Kind)
	assert.Nil(t, As(nil))
}

func TestHelpersOnNil(t *testing.T) {
	assert.Equal(t, 0, Code(nil))
	assert.Equal(t, http.StatusOK, Status(nil))
	assert.Equal(t, "ok", Message(nil))
}

func TestHelpersOnPlainError(t *testing.T) {
	err := errors.New("driver exploded")

	assert.Equal(t, CodeInternal, Code(err))
	assert.Equal(t, http.StatusInternalServerError, Status(err))
	assert.Equal(t, internalMessage, Message(err))
}
