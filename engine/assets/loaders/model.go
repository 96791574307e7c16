package loaders

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/spaghettifunk/vkframe/engine/renderer/metadata"
)

// ModelLoader reads Wavefront OBJ files. Data is a *metadata.IndexedMesh
// whose pool holds one vertex per distinct position/normal pair.
type ModelLoader struct{}

func (ml *ModelLoader) Load(path string, params interface{}) (*metadata.Resource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening model %s", path)
	}
	defer f.Close()

	mesh, err := ParseOBJ(f)
	if err != nil {
		return nil, errors.Wrapf(err, "model %s", path)
	}
	mesh.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return &metadata.Resource{
		Name:     mesh.Name,
		FullPath: path,
		Type:     metadata.ResourceTypeMesh,
		DataSize: uint64(len(mesh.Vertices)) * uint64(metadata.VertexStride),
		Data:     mesh,
	}, nil
}

func (ml *ModelLoader) Unload(res *metadata.Resource) error {
	res.Data = nil
	res.DataSize = 0
	return nil
}

type objCorner struct {
	position int
	normal   int
}

// ParseOBJ understands v, vn and f records. Faces with more than three
// corners are fanned into triangles; texture coordinates are ignored and
// corners without a normal get a zero one.
func ParseOBJ(r io.Reader) (*metadata.IndexedMesh, error) {
	var (
		positions [][3]float32
		normals   [][3]float32
		mesh      = &metadata.IndexedMesh{}
		pool      = map[objCorner]uint32{}
	)

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		switch fields[0] {
		case "v":
			v, err := parseVec3(fields[1:])
			if err != nil {
				return nil, errors.Wrapf(err, "line %d", line)
			}
			positions = append(positions, v)
		case "vn":
			n, err := parseVec3(fields[1:])
			if err != nil {
				return nil, errors.Wrapf(err, "line %d", line)
			}
			normals = append(normals, n)
		case "f":
			if len(fields) < 4 {
				return nil, errors.Newf("line %d: face needs at least 3 corners", line)
			}
			corners := make([]uint32, 0, len(fields)-1)
			for _, field := range fields[1:] {
				c, err := parseCorner(field, len(positions), len(normals))
				if err != nil {
					return nil, errors.Wrapf(err, "line %d", line)
				}
				index, ok := pool[c]
				if !ok {
					vertex := metadata.Vertex{Position: positions[c.position]}
					if c.normal >= 0 {
						vertex.Normal = normals[c.normal]
					}
					index = uint32(len(mesh.Vertices))
					mesh.Vertices = append(mesh.Vertices, vertex)
					pool[c] = index
				}
				corners = append(corners, index)
			}
			for i := 1; i+1 < len(corners); i++ {
				mesh.Indices = append(mesh.Indices, corners[0], corners[i], corners[i+1])
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return mesh, nil
}

func parseVec3(fields []string) ([3]float32, error) {
	var v [3]float32
	if len(fields) < 3 {
		return v, errors.Newf("expected 3 components, got %d", len(fields))
	}
	for i := range v {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return v, err
		}
		v[i] = float32(f)
	}
	return v, nil
}

// parseCorner reads v, v/vt, v//vn or v/vt/vn. Indices are one based, or
// negative to count from the end.
func parseCorner(field string, numPositions, numNormals int) (objCorner, error) {
	parts := strings.Split(field, "/")
	c := objCorner{normal: -1}
	var err error
	if c.position, err = resolveIndex(parts[0], numPositions); err != nil {
		return c, errors.Wrapf(err, "position of %q", field)
	}
	if len(parts) == 3 && parts[2] != "" {
		if c.normal, err = resolveIndex(parts[2], numNormals); err != nil {
			return c, errors.Wrapf(err, "normal of %q", field)
		}
	}
	return c, nil
}

func resolveIndex(s string, count int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if i < 0 {
		i = count + i
	} else {
		i--
	}
	if i < 0 || i >= count {
		return 0, errors.Newf("index %s out of range (%d defined)", s, count)
	}
	return i, nil
}
