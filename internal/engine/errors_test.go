package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMirrorError_Helpers(t *testing.T) {
	cause := errors.New("not in store")
	err := fmt.Errorf("replicate image: %w", NewInvalidArgument("deck-1", "image hash not registered", cause))

	assert.True(t, IsInvalidArgument(err))
	assert.False(t, IsDisposed(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "INVALID_ARGUMENT")
	assert.Contains(t, err.Error(), "object=deck-1")

	assert.True(t, IsDisposed(NewDisposedError("m")))
	assert.True(t, IsQueueClosed(NewQueueClosedError("flush")))
	assert.False(t, IsDisposed(errors.New("plain")))
}

func TestMirrorError_NestedCodes(t *testing.T) {
	inner := NewInvalidArgument("deck-1", "missing", nil)
	outer := newTaskFailedError(Func("deck.image", "deck-1", nil), inner)

	assert.True(t, IsTaskFailed(outer))
	assert.True(t, IsInvalidArgument(outer))
	assert.False(t, IsDisposed(outer))
}
