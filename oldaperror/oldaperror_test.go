package oldaperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindPredicates(t *testing.T) {
	tests := []struct {
		kind Kind
		pred func(error) bool
	}{
		{Value, IsValue},
		{Type, IsType},
		{Key, IsKey},
		{NotFound, IsNotFound},
		{AlreadyExists, IsAlreadyExists},
		{Immutable, IsImmutable},
		{Inconsistency, IsInconsistency},
		{NoPermission, IsNoPermission},
		{InUse, IsInUse},
		{UpdateFailed, IsUpdateFailed},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			err := New(tt.kind, "boom")
			assert.True(t, tt.pred(err))
			assert.False(t, tt.pred(New(Generic, "boom")))
		})
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("network down")
	err := Wrap(Generic, cause, "query failed")
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "query failed")
	assert.Contains(t, err.Error(), "network down")
}

func TestKindSurvivesWrapping(t *testing.T) {
	inner := New(UpdateFailed, "timestamp mismatch")
	outer := fmt.Errorf("while updating: %w", inner)
	kind, ok := KindOf(outer)
	require.True(t, ok)
	assert.Equal(t, UpdateFailed, kind)
	assert.True(t, IsUpdateFailed(outer))
}

func TestKindOfForeignError(t *testing.T) {
	_, ok := KindOf(errors.New("plain"))
	assert.False(t, ok)
}
