package assets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/vkframe/engine/renderer/metadata"
)

var quadPool = []metadata.Vertex{
	{Position: [3]float32{0, 0, 1}, Normal: [3]float32{0, 0, 1}},
	{Position: [3]float32{1, 0, 1}, Normal: [3]float32{0, 0, 1}},
	{Position: [3]float32{1, 1, 1}, Normal: [3]float32{0, 0, 1}},
	{Position: [3]float32{0, 1, 1}, Normal: [3]float32{0, 0, 1}},
}

func TestExpandIndexed(t *testing.T) {
	vertices, err := ExpandIndexed(quadPool, []uint32{0, 1, 2, 0, 2, 3})
	require.NoError(t, err)
	require.Len(t, vertices, 6)
	assert.Equal(t, quadPool[0], vertices[0])
	assert.Equal(t, quadPool[2], vertices[4])
	assert.Equal(t, quadPool[3], vertices[5])
}

func TestExpandIndexedRightHandedFlipsZ(t *testing.T) {
	vertices, err := ExpandIndexedRightHanded(quadPool, []uint32{0, 1, 2})
	require.NoError(t, err)
	for _, v := range vertices {
		assert.Equal(t, float32(-1), v.Position[2])
		assert.Equal(t, float32(-1), v.Normal[2])
	}
	// The pool itself is untouched.
	assert.Equal(t, float32(1), quadPool[0].Position[2])
}

func TestExpandIndexedRejectsBadIndices(t *testing.T) {
	_, err := ExpandIndexed(quadPool, []uint32{0, 1, 4})
	assert.Error(t, err)

	_, err = ExpandIndexed(quadPool, []uint32{0, 1})
	assert.Error(t, err)
}

func TestExpandIndexedEmpty(t *testing.T) {
	vertices, err := ExpandIndexed(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, vertices)
}
