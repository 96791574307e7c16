package metadata

import "unsafe"

// Vertex is the single vertex layout understood by the pipeline.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
}

const (
	VertexStride         uint32 = uint32(unsafe.Sizeof(Vertex{}))
	VertexPositionOffset uint32 = uint32(unsafe.Offsetof(Vertex{}.Position))
	VertexNormalOffset   uint32 = uint32(unsafe.Offsetof(Vertex{}.Normal))
)

type VertexInputMode uint8

const (
	// Vertices are generated by the vertex shader (hard-coded triangle).
	VertexInputNone VertexInputMode = iota
	// One binding of interleaved position and normal.
	VertexInputPositionNormal
)

// HardcodedTriangleVertexCount is drawn when no vertex buffer is bound.
const HardcodedTriangleVertexCount uint32 = 3

// IndexedMesh is a vertex pool plus triangle indices into it.
type IndexedMesh struct {
	Name     string
	Vertices []Vertex
	Indices  []uint32
}

// VertexBytes reinterprets vertices as raw bytes for upload.
func VertexBytes(vertices []Vertex) []byte {
	if len(vertices) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&vertices[0])), len(vertices)*int(VertexStride))
}
