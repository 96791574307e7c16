package renderer

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/vkframe/engine/core"
	"github.com/spaghettifunk/vkframe/engine/renderer/metadata"
)

func TestResizeToZeroSuspendsRendering(t *testing.T) {
	f := newFrameFixture(t, 2)
	f.tick(t)
	before := f.frames.Stats()
	waits := f.device.fenceWaits

	f.resize.OnResize(0, 0)
	assert.Equal(t, ResizePendingRebuild, f.resize.State())

	for i := 0; i < 5; i++ {
		ready, err := f.resize.Prepare()
		require.NoError(t, err)
		assert.False(t, ready)
	}
	assert.Equal(t, ResizeZeroSize, f.resize.State())
	assert.Equal(t, waits, f.device.fenceWaits, "no fence waits while minimized")
	assert.Equal(t, before, f.frames.Stats())

	// Still zero: nothing happens.
	f.resize.OnResize(0, 0)
	assert.Equal(t, ResizeZeroSize, f.resize.State())

	f.resize.OnResize(640, 480)
	assert.Equal(t, ResizePendingRebuild, f.resize.State())
	assert.Equal(t, FramePresented, f.tick(t))
	assert.Equal(t, ResizeStable, f.resize.State())
	assert.Equal(t, metadata.Extent2D{Width: 640, Height: 480}, f.resize.Swapchain().Extent)
}

func TestZeroSizeFromSurfaceExtent(t *testing.T) {
	f := newFrameFixture(t, 2)
	// Minimized windows report a fixed zero extent on some platforms.
	f.device.setWindowExtent(0, 0)
	f.resize.OnResize(800, 600)

	ready, err := f.resize.Prepare()
	require.NoError(t, err)
	assert.False(t, ready)
	assert.Equal(t, ResizeZeroSize, f.resize.State())
}

func TestInitialZeroExtent(t *testing.T) {
	device := newFakeDevice()
	frames, err := NewFrameSync(device, 2, 0)
	require.NoError(t, err)

	r, err := NewResizeController(device, frames, metadata.Extent2D{}, testResizeOptions())
	require.NoError(t, err)
	assert.Equal(t, ResizeZeroSize, r.State())
	assert.Nil(t, r.Swapchain())
	assert.Empty(t, device.swapchainInfos)

	r.OnResize(300, 200)
	ready, err := r.Prepare()
	require.NoError(t, err)
	assert.True(t, ready)
}

func TestResizeRoundTripRestoresViewport(t *testing.T) {
	for _, dynamic := range []bool{true, false} {
		f := newFrameFixture(t, 2)
		f.resize.opts.Pipeline.DynamicViewport = dynamic
		f.resize.MarkPipelineDirty()
		f.tick(t)
		original := f.resize.Pipeline().Viewport

		for _, e := range []metadata.Extent2D{{Width: 1024, Height: 768}, {Width: 300, Height: 900}, {Width: 0, Height: 0}, {Width: 800, Height: 600}} {
			f.resize.OnResize(e.Width, e.Height)
			f.tick(t)
		}

		assert.Equal(t, original, f.resize.Pipeline().Viewport)
		assert.Equal(t, f.resize.Swapchain().Extent, f.resize.Pipeline().Viewport)
	}
}

func TestRebuildIsIdempotent(t *testing.T) {
	f := newFrameFixture(t, 2)

	f.resize.RequestRebuild("test")
	_, err := f.resize.Prepare()
	require.NoError(t, err)
	first := *f.resize.Swapchain()

	f.resize.RequestRebuild("test")
	_, err = f.resize.Prepare()
	require.NoError(t, err)
	second := *f.resize.Swapchain()

	assert.Equal(t, first.Extent, second.Extent)
	assert.Equal(t, first.SurfaceFormat, second.SurfaceFormat)
	assert.Equal(t, first.PresentMode, second.PresentMode)
	assert.NotEqual(t, first.Handle, second.Handle)
}

func TestRebuildWaitsAndReleasesOldResources(t *testing.T) {
	f := newFrameFixture(t, 2)
	f.tick(t)
	liveBefore := len(f.device.live)
	fullWaits := f.frames.Stats().FullWaits

	f.resize.OnResize(1024, 768)
	f.tick(t)

	assert.Equal(t, fullWaits+1, f.frames.Stats().FullWaits)
	assert.Equal(t, 0, f.device.waitIdles)
	assert.Equal(t, liveBefore, len(f.device.live), "old objects destroyed after the rebuild")
	assert.Equal(t, 1, f.device.liveCount("swapchain"))
	assert.Equal(t, 1, f.device.liveCount("render_pass"))
	assert.Equal(t, 1, f.device.liveCount("pipeline"))
	// Dynamic viewport: the pipeline survives the extent change.
	assert.Len(t, f.device.pipelineConfigs, 1)
}

func TestFixedViewportRebuildsPipeline(t *testing.T) {
	device := newFakeDevice()
	frames, err := NewFrameSync(device, 2, 0)
	require.NoError(t, err)
	opts := testResizeOptions()
	opts.Pipeline.DynamicViewport = false
	opts.Wait = WaitDeviceIdle
	r, err := NewResizeController(device, frames, metadata.Extent2D{Width: 800, Height: 600}, opts)
	require.NoError(t, err)

	r.OnResize(1280, 720)
	_, err = r.Prepare()
	require.NoError(t, err)

	require.Len(t, device.pipelineConfigs, 2)
	assert.Equal(t, metadata.FullViewport(metadata.Extent2D{Width: 1280, Height: 720}), device.pipelineConfigs[1].Viewport)
	assert.Equal(t, 1, device.waitIdles)
	assert.Equal(t, 1, device.liveCount("pipeline"))
}

func TestSuboptimalLimit(t *testing.T) {
	device := newFakeDevice()
	frames, err := NewFrameSync(device, 2, 0)
	require.NoError(t, err)
	opts := testResizeOptions()
	opts.SuboptimalLimit = 3
	r, err := NewResizeController(device, frames, metadata.Extent2D{Width: 800, Height: 600}, opts)
	require.NoError(t, err)

	r.Observe(FrameSuboptimal)
	r.Observe(FrameSuboptimal)
	assert.Equal(t, ResizeStable, r.State())
	r.Observe(FramePresented)
	r.Observe(FrameSuboptimal)
	r.Observe(FrameSuboptimal)
	assert.Equal(t, ResizeStable, r.State())
	r.Observe(FrameSuboptimal)
	assert.Equal(t, ResizePendingRebuild, r.State())
}

func TestUnsupportedExtentKeepsOldResources(t *testing.T) {
	f := newFrameFixture(t, 2)
	old := f.resize.Swapchain()
	infos := len(f.device.swapchainInfos)

	f.device.setWindowExtent(9000, 9000)
	f.resize.OnResize(9000, 9000)
	ready, err := f.resize.Prepare()
	require.NoError(t, err)
	assert.False(t, ready)
	assert.Equal(t, ResizePendingRebuild, f.resize.State())
	assert.Same(t, old, f.resize.Swapchain())
	assert.Equal(t, infos, len(f.device.swapchainInfos))

	f.device.setWindowExtent(1000, 1000)
	ready, err = f.resize.Prepare()
	require.NoError(t, err)
	assert.True(t, ready)
	assert.Equal(t, old.Handle, f.device.swapchainInfos[infos].OldSwapchain)
}

func TestPipelineFailureIsFatal(t *testing.T) {
	device := newFakeDevice()
	device.pipelineErr = errors.New("bad state")
	frames, err := NewFrameSync(device, 2, 0)
	require.NoError(t, err)

	_, err = NewResizeController(device, frames, metadata.Extent2D{Width: 800, Height: 600}, testResizeOptions())
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrPipelineCreation))
	frames.Destroy()
	assert.Empty(t, device.live, "nothing leaks on setup failure")
}

func TestShaderModuleFailureIsFatal(t *testing.T) {
	device := newFakeDevice()
	device.badShader = "triangle"
	frames, err := NewFrameSync(device, 2, 0)
	require.NoError(t, err)

	_, err = NewResizeController(device, frames, metadata.Extent2D{Width: 800, Height: 600}, testResizeOptions())
	assert.True(t, errors.Is(err, core.ErrShaderModule))
}

func TestReplaceShaders(t *testing.T) {
	f := newFrameFixture(t, 2)
	oldPipeline := f.resize.Pipeline().Handle

	shaders := testShaders()
	shaders.Vertex.Name = "reloaded"
	f.resize.ReplaceShaders(shaders)
	assert.Equal(t, FramePresented, f.tick(t))

	assert.NotEqual(t, oldPipeline, f.resize.Pipeline().Handle)
	assert.Equal(t, "reloaded", f.resize.Pipeline().Options.Shaders.Vertex.Name)
	assert.Equal(t, 1, f.device.liveCount("pipeline"))
	assert.Zero(t, f.device.liveCount("shader"))
}

func TestReplaceShadersFailureKeepsOldPipeline(t *testing.T) {
	f := newFrameFixture(t, 2)
	oldPipeline := f.resize.Pipeline().Handle
	swapchain := f.resize.Swapchain()

	f.device.badShader = "broken"
	shaders := testShaders()
	shaders.Vertex.Name = "broken"
	f.resize.ReplaceShaders(shaders)

	assert.Equal(t, FramePresented, f.tick(t))
	assert.Equal(t, oldPipeline, f.resize.Pipeline().Handle)
	assert.Same(t, swapchain, f.resize.Swapchain())
	assert.Equal(t, "triangle", f.resize.Pipeline().Options.Shaders.Vertex.Name)
	assert.Equal(t, ResizeStable, f.resize.State())
}

func TestResizeControllerDestroyOrder(t *testing.T) {
	device := newFakeDevice()
	r, err := NewResizeController(device, nil, metadata.Extent2D{Width: 800, Height: 600}, testResizeOptions())
	require.NoError(t, err)
	device.destroyed = nil

	r.Destroy()
	require.NotEmpty(t, device.destroyed)
	assert.Equal(t, "pipeline", device.destroyed[0])
	assert.Equal(t, "layout", device.destroyed[1])
	assert.Equal(t, "swapchain", device.destroyed[len(device.destroyed)-1])
	assert.Empty(t, device.live)
}

func TestParseRebuildWait(t *testing.T) {
	w, err := ParseRebuildWait("device_idle")
	require.NoError(t, err)
	assert.Equal(t, WaitDeviceIdle, w)

	w, err = ParseRebuildWait("")
	require.NoError(t, err)
	assert.Equal(t, WaitAllFences, w)

	_, err = ParseRebuildWait("sometimes")
	assert.True(t, errors.Is(err, core.ErrInvalidConfig))
}
