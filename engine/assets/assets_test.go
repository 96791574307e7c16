package assets

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/vkframe/engine/config"
	"github.com/spaghettifunk/vkframe/engine/core"
	"github.com/spaghettifunk/vkframe/engine/renderer/metadata"
)

func writeSpirv(t *testing.T, path string) {
	t.Helper()
	b := make([]byte, 8)
	binary.LittleEndian.PutUint32(b, metadata.SpirvMagic)
	require.NoError(t, os.WriteFile(path, b, 0o644))
}

func TestLoadStartup(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Shaders.Vertex = filepath.Join(dir, "vert.spv")
	cfg.Shaders.Fragment = filepath.Join(dir, "frag.spv")
	cfg.Scene.Mesh = filepath.Join(dir, "tri.obj")
	cfg.Scene.RightHanded = true
	writeSpirv(t, cfg.Shaders.Vertex)
	writeSpirv(t, cfg.Shaders.Fragment)
	require.NoError(t, os.WriteFile(cfg.Scene.Mesh, []byte("v 0 0 1\nv 1 0 1\nv 0 1 1\nvn 0 0 1\nf 1//1 2//1 3//1\n"), 0o644))

	am := NewAssetManager()
	startup, err := am.LoadStartup(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, "vert", startup.Shaders.Vertex.Name)
	assert.Equal(t, "main", startup.Shaders.Vertex.EntryPoint)
	assert.False(t, startup.Shaders.SharedModule())
	require.Len(t, startup.Vertices, 3)
	assert.Equal(t, float32(-1), startup.Vertices[0].Position[2])

	_, ok := am.Loaded(cfg.Scene.Mesh)
	assert.True(t, ok)
}

func TestLoadShadersSharedModule(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Shaders{
		Vertex:        filepath.Join(dir, "shaders.spv"),
		VertexEntry:   "main_vs",
		FragmentEntry: "main_fs",
	}
	writeSpirv(t, cfg.Vertex)

	set, err := NewAssetManager().LoadShaders(context.Background(), cfg)
	require.NoError(t, err)
	assert.True(t, set.SharedModule())
	assert.Equal(t, "main_fs", set.Fragment.EntryPoint)
}

func TestLoadShadersMissingFile(t *testing.T) {
	cfg := config.Shaders{Vertex: filepath.Join(t.TempDir(), "missing.spv")}
	_, err := NewAssetManager().LoadShaders(context.Background(), cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrShaderModule))
}

func TestLoadSceneWithoutMesh(t *testing.T) {
	vertices, err := NewAssetManager().LoadScene(config.Scene{})
	require.NoError(t, err)
	assert.Nil(t, vertices)
}

func TestLoadAssetUnknownType(t *testing.T) {
	_, err := NewAssetManager().LoadAsset("texture.png", nil)
	assert.Error(t, err)
}
