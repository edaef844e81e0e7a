package modelerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap_NilIsNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, NotFound, "anything"))
	assert.NoError(t, WrapStore(nil, "op"))
}

func TestOf(t *testing.T) {
	err := New(NotFound, "node %q missing", "A")
	assert.True(t, Of(err, NotFound))
	assert.False(t, Of(err, StoreError))
	assert.False(t, Of(errors.New("plain"), NotFound))
}

func TestIs(t *testing.T) {
	err := New(StoreError, "adapter down")
	assert.True(t, errors.Is(err, New(StoreError, "")))
	assert.False(t, errors.Is(err, New(NotFound, "")))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(cause, MalformedDelegation, "decoding")
	assert.ErrorIs(t, err, cause)
}
