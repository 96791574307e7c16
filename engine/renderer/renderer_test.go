package renderer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/vkframe/engine/renderer/metadata"
)

type fixedCamera struct {
	extents []metadata.Extent2D
}

func (c *fixedCamera) Uniforms(extent metadata.Extent2D) metadata.CameraUniforms {
	c.extents = append(c.extents, extent)
	u := metadata.IdentityCameraUniforms()
	u.Proj[0] = extent.AspectRatio()
	return u
}

func newTestRenderer(t *testing.T, opts Options) (*Renderer, *fakeDevice) {
	t.Helper()
	device := newFakeDevice()
	if opts.Resize.Pipeline.Shaders.Vertex.IsEmpty() {
		opts.Resize = testResizeOptions()
	}
	r, err := New(device, metadata.Extent2D{Width: 800, Height: 600}, opts)
	require.NoError(t, err)
	return r, device
}

func TestRendererDrawsWithCamera(t *testing.T) {
	r, device := newTestRenderer(t, Options{})
	camera := &fixedCamera{}

	drawn, err := r.Render(camera)
	require.NoError(t, err)
	assert.True(t, drawn)

	r.Resized(1200, 600)
	drawn, err = r.Render(camera)
	require.NoError(t, err)
	assert.True(t, drawn)

	assert.Equal(t, []metadata.Extent2D{{Width: 800, Height: 600}, {Width: 1200, Height: 600}}, camera.extents)
	assert.InDelta(t, 2.0, device.recordings[1].Camera.Proj[0], 1e-6)
	assert.Equal(t, metadata.Extent2D{Width: 1200, Height: 600}, r.Extent())
}

func TestRendererUploadsVertices(t *testing.T) {
	r, device := newTestRenderer(t, Options{Vertices: make([]metadata.Vertex, 9)})

	assert.Equal(t, metadata.VertexInputPositionNormal, device.pipelineConfigs[0].VertexInput)
	_, err := r.Render(nil)
	require.NoError(t, err)
	assert.Equal(t, uint32(9), device.recordings[0].VertexCount)
	assert.Equal(t, metadata.IdentityCameraUniforms(), device.recordings[0].Camera)
}

func TestRendererMinimizedDrawsNothing(t *testing.T) {
	r, device := newTestRenderer(t, Options{FramesInFlight: 3})

	r.Resized(0, 0)
	for i := 0; i < 3; i++ {
		drawn, err := r.Render(nil)
		require.NoError(t, err)
		assert.False(t, drawn)
	}
	assert.Equal(t, ResizeZeroSize, r.State())
	assert.Empty(t, device.submits)
	assert.Zero(t, r.Stats().FenceWaits)

	r.ScaleFactorChanged(1600, 1200)
	drawn, err := r.Render(nil)
	require.NoError(t, err)
	assert.True(t, drawn)
}

func TestRendererShutdownReleasesEverything(t *testing.T) {
	r, device := newTestRenderer(t, Options{Vertices: make([]metadata.Vertex, 3)})
	_, err := r.Render(nil)
	require.NoError(t, err)

	require.NoError(t, r.Shutdown())
	assert.Empty(t, device.live)
	assert.True(t, device.deviceFreed)
	assert.Equal(t, 1, device.waitIdles)

	// Second call is a no-op.
	require.NoError(t, r.Shutdown())
	assert.Equal(t, 1, device.waitIdles)
}

func TestRendererReloadShaders(t *testing.T) {
	r, device := newTestRenderer(t, Options{})
	shaders := testShaders()
	shaders.Vertex.Name = "v2"

	r.ReloadShaders(shaders)
	_, err := r.Render(nil)
	require.NoError(t, err)
	assert.Contains(t, device.shaderBlobs, "v2")
	assert.Equal(t, uint64(2), r.Rebuilds())
}
