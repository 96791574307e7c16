package assets

import (
	"github.com/cockroachdb/errors"

	"github.com/spaghettifunk/vkframe/engine/renderer/metadata"
)

// ExpandIndexed resolves indices against pool into the flat triangle list
// the pipeline draws.
func ExpandIndexed(pool []metadata.Vertex, indices []uint32) ([]metadata.Vertex, error) {
	if len(indices)%3 != 0 {
		return nil, errors.Newf("%d indices do not form whole triangles", len(indices))
	}
	vertices := make([]metadata.Vertex, len(indices))
	for i, index := range indices {
		if int(index) >= len(pool) {
			return nil, errors.Newf("index %d at %d is outside a pool of %d vertices", index, i, len(pool))
		}
		vertices[i] = pool[index]
	}
	return vertices, nil
}

// ExpandIndexedRightHanded is ExpandIndexed for right handed sources: Z of
// every position and normal is negated.
func ExpandIndexedRightHanded(pool []metadata.Vertex, indices []uint32) ([]metadata.Vertex, error) {
	vertices, err := ExpandIndexed(pool, indices)
	if err != nil {
		return nil, err
	}
	for i := range vertices {
		vertices[i].Position[2] = -vertices[i].Position[2]
		vertices[i].Normal[2] = -vertices[i].Normal[2]
	}
	return vertices, nil
}
