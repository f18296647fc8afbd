package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	original := New("original")
	wrapped := Wrap(original, "wrapped")

	assert.Contains(t, wrapped.Error(), "wrapped")
	assert.Contains(t, wrapped.Error(), "original")
	assert.True(t, Is(wrapped, original))
}

func TestMarkedSentinels(t *testing.T) {
	errDup := Mark(New("node already exists"), ErrConflict)

	assert.True(t, IsConflictError(errDup))
	assert.True(t, IsConflictError(Wrap(errDup, "add node N1")))
	assert.False(t, IsNotFoundError(errDup))
	assert.Equal(t, "node already exists", errDup.Error())
}

func TestNewNotFoundError(t *testing.T) {
	err := NewNotFoundError("edge %s", "eA_B")

	assert.True(t, IsNotFoundError(err))
	assert.Equal(t, "edge eA_B", err.Error())
	assert.False(t, IsNotFoundError(nil))
}

func TestNewInvalidRequestError(t *testing.T) {
	err := NewInvalidRequestError("unknown gesture %q", "swipe")

	assert.True(t, IsInvalidRequestError(err))
	assert.False(t, IsConflictError(err))
}

func TestWithHint(t *testing.T) {
	err := WithHint(New("prompt unanswered"), "reconnect to resume editing")

	hints := GetAllHints(err)
	require.Len(t, hints, 1)
	assert.Equal(t, "reconnect to resume editing", hints[0])
}

func TestNilHandling(t *testing.T) {
	assert.Nil(t, Wrap(nil, "context"))
	assert.Nil(t, Wrapf(nil, "context %d", 1))
	assert.Nil(t, WithHint(nil, "hint"))
}

func ExampleWrap() {
	baseErr := New("edge references missing node")
	err := Wrap(baseErr, "add edge eA_B")
	fmt.Println(err)
	// Output: add edge eA_B: edge references missing node
}
