package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentifiersReuseReleasedSlots(t *testing.T) {
	ids := NewIdentifiers[string](4)

	a := ids.Acquire("a")
	b := ids.Acquire("b")
	assert.Equal(t, uint64(1), a)
	assert.Equal(t, uint64(2), b)

	owner, err := ids.Release(a)
	require.NoError(t, err)
	assert.Equal(t, "a", owner)

	_, ok := ids.Get(a)
	assert.False(t, ok)

	c := ids.Acquire("c")
	assert.Equal(t, a, c)
	assert.Equal(t, 2, ids.Len())
}

func TestIdentifiersRejectInvalidRelease(t *testing.T) {
	ids := NewIdentifiers[int](1)
	_, err := ids.Release(0)
	assert.Error(t, err)

	id := ids.Acquire(7)
	_, err = ids.Release(id)
	require.NoError(t, err)
	_, err = ids.Release(id)
	assert.Error(t, err)
}
