package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hadevx/backend/internal/apperr"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusPaid, true},
		{StatusPending, StatusDelivered, true},
		{StatusPending, StatusCanceled, true},
		{StatusPaid, StatusPaid, true}, // receipt overwrite
		{StatusPaid, StatusDelivered, true},
		{StatusPaid, StatusCanceled, true},
		{StatusDelivered, StatusPaid, false},
		{StatusDelivered, StatusCanceled, false},
		{StatusCanceled, StatusPaid, false},
		{StatusCanceled, StatusDelivered, false},
		{StatusPending, StatusPending, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestCheckTransition_TerminalStatesConflict(t *testing.T) {
	err := checkTransition(StatusDelivered, StatusCanceled)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))

	require.NoError(t, checkTransition(StatusPending, StatusPaid))
}
