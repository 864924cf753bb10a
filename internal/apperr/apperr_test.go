package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{Validationf("bad input"), http.StatusBadRequest},
		{InsufficientStock(2, "not enough"), http.StatusBadRequest},
		{Authorizationf("blocked"), http.StatusForbidden},
		{NotFoundf("missing"), http.StatusNotFound},
		{Conflictf("duplicate"), http.StatusConflict},
		{Internalf(errors.New("boom"), "oops"), http.StatusInternalServerError},
		{errors.New("plain error"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.err), "%v", tt.err)
	}
}

func TestKindOf_WrappedError(t *testing.T) {
	inner := NotFoundf("missing")
	wrapped := fmt.Errorf("loading order: %w", inner)

	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.True(t, IsKind(wrapped, KindNotFound))
	assert.False(t, IsKind(wrapped, KindConflict))
}

func TestInsufficientStock_CarriesAvailable(t *testing.T) {
	err := InsufficientStock(3, "Not enough stock for %s", "Tee")

	var ae *Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, 3, ae.Available)
	assert.Equal(t, "Not enough stock for Tee", ae.Msg)
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Internalf(cause, "fetching product")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "fetching product")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestAvailable_DefaultsToMinusOne(t *testing.T) {
	var ae *Error
	require.ErrorAs(t, Validationf("bad"), &ae)
	assert.Equal(t, -1, ae.Available)
}
