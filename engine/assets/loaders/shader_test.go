package loaders

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/vkframe/engine/renderer/metadata"
)

func spirvBytes(words ...uint32) []byte {
	b := make([]byte, 4*(len(words)+1))
	binary.LittleEndian.PutUint32(b, metadata.SpirvMagic)
	for i, w := range words {
		binary.LittleEndian.PutUint32(b[4*(i+1):], w)
	}
	return b
}

func TestBytesToBytecode(t *testing.T) {
	code, err := bytesToBytecode(spirvBytes(0x00010000, 42))
	require.NoError(t, err)
	assert.Equal(t, []uint32{metadata.SpirvMagic, 0x00010000, 42}, code)

	_, err = bytesToBytecode(nil)
	assert.Error(t, err)
	_, err = bytesToBytecode([]byte{1, 2, 3})
	assert.Error(t, err)
	_, err = bytesToBytecode([]byte{0, 0, 0, 0})
	assert.Error(t, err, "wrong magic")
}

func TestShaderLoader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vert.spv")
	require.NoError(t, os.WriteFile(path, spirvBytes(7), 0o644))

	res, err := (&ShaderLoader{}).Load(path, ShaderParams{EntryPoint: "main"})
	require.NoError(t, err)
	blob, ok := res.Data.(*metadata.ShaderBlob)
	require.True(t, ok)
	assert.Equal(t, "vert", blob.Name)
	assert.Equal(t, "main", blob.EntryPoint)
	assert.Len(t, blob.Code, 2)

	_, err = (&ShaderLoader{}).Load(path, 12)
	assert.Error(t, err)

	_, err = (&ShaderLoader{}).Load(filepath.Join(t.TempDir(), "missing.spv"), nil)
	assert.Error(t, err)
}
