package renderer

import (
	"time"

	"github.com/cockroachdb/errors"

	"github.com/spaghettifunk/vkframe/engine/core"
	"github.com/spaghettifunk/vkframe/engine/renderer/metadata"
)

// CameraSource provides the push constants for a frame. The extent is the
// one the frame is recorded at, so the aspect ratio follows resizes.
type CameraSource interface {
	Uniforms(extent metadata.Extent2D) metadata.CameraUniforms
}

type Options struct {
	FramesInFlight int
	// Used for fence waits and image acquisition. Zero waits forever.
	AcquireTimeout time.Duration
	Resize         ResizeOptions
	// Pre-expanded triangle list. Empty draws the hard-coded triangle.
	Vertices []metadata.Vertex
}

type Renderer struct {
	device       GraphicsDevice
	frames       *FrameSync
	resize       *ResizeController
	vertexBuffer metadata.Handle
	vertexCount  uint32
	shutdown     bool
}

func New(device GraphicsDevice, initial metadata.Extent2D, opts Options) (*Renderer, error) {
	if opts.FramesInFlight == 0 {
		opts.FramesInFlight = DefaultFramesInFlight
	}
	r := &Renderer{device: device}

	frames, err := NewFrameSync(device, opts.FramesInFlight, opts.AcquireTimeout)
	if err != nil {
		return nil, err
	}
	r.frames = frames

	if len(opts.Vertices) > 0 {
		buffer, err := device.CreateVertexBuffer(opts.Vertices)
		if err != nil {
			r.frames.Destroy()
			return nil, errors.Wrap(err, "uploading vertices")
		}
		r.vertexBuffer = buffer
		r.vertexCount = uint32(len(opts.Vertices))
		opts.Resize.Pipeline.VertexInput = metadata.VertexInputPositionNormal
	}

	resize, err := NewResizeController(device, frames, initial, opts.Resize)
	if err != nil {
		r.releaseBuffer()
		r.frames.Destroy()
		return nil, err
	}
	r.resize = resize

	core.LogInfo("renderer ready: %d frames in flight, %d vertices, state %s",
		opts.FramesInFlight, r.vertexCount, resize.State())
	return r, nil
}

func (r *Renderer) Resized(width, height uint32) {
	r.resize.OnResize(width, height)
}

func (r *Renderer) ScaleFactorChanged(width, height uint32) {
	r.resize.OnScaleFactorChanged(width, height)
}

// ReloadShaders rebuilds the pipeline with shaders on the next frame. A
// set that fails to build is logged and dropped.
func (r *Renderer) ReloadShaders(shaders metadata.ShaderSet) {
	r.resize.ReplaceShaders(shaders)
}

// Render draws one frame and reports whether anything was presented.
// Presentation feedback is absorbed; only fatal errors are returned.
func (r *Renderer) Render(camera CameraSource) (bool, error) {
	ready, err := r.resize.Prepare()
	if err != nil {
		return false, err
	}
	if !ready {
		return false, nil
	}

	res := r.resize.Resources()
	params := DrawParams{
		Camera:       metadata.IdentityCameraUniforms(),
		VertexBuffer: r.vertexBuffer,
		VertexCount:  r.vertexCount,
	}
	if camera != nil {
		params.Camera = camera.Uniforms(res.Swapchain.Extent)
	}

	outcome, err := r.frames.Render(res, params)
	if err != nil {
		return false, err
	}
	r.resize.Observe(outcome)
	return outcome != FrameOutOfDate, nil
}

func (r *Renderer) Extent() metadata.Extent2D {
	if sc := r.resize.Swapchain(); sc != nil {
		return sc.Extent
	}
	return r.resize.PreferredExtent()
}

func (r *Renderer) State() ResizeState {
	return r.resize.State()
}

func (r *Renderer) Stats() FrameStats {
	return r.frames.Stats()
}

func (r *Renderer) Rebuilds() uint64 {
	return r.resize.Rebuilds()
}

func (r *Renderer) WaitIdle() error {
	return r.device.WaitIdle()
}

func (r *Renderer) releaseBuffer() {
	if !r.vertexBuffer.IsNull() {
		r.device.DestroyBuffer(r.vertexBuffer)
		r.vertexBuffer = metadata.NullHandle
	}
}

// Shutdown waits for the device to go idle and destroys everything in
// reverse dependency order, the device last. Teardown continues even if
// the idle wait fails.
func (r *Renderer) Shutdown() error {
	if r.shutdown {
		return nil
	}
	r.shutdown = true

	core.LogInfo("renderer shutting down")
	err := r.device.WaitIdle()
	if err != nil {
		core.LogError("wait idle before shutdown: %v", err)
	}
	r.frames.Destroy()
	core.LogDebug("frame slots destroyed")
	r.resize.Destroy()
	core.LogDebug("pipeline, targets and swapchain destroyed")
	r.releaseBuffer()
	r.device.Destroy()
	core.LogDebug("graphics device destroyed")
	return errors.Wrap(err, "shutting down renderer")
}
