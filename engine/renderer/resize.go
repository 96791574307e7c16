package renderer

import (
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/spaghettifunk/vkframe/engine/core"
	"github.com/spaghettifunk/vkframe/engine/renderer/metadata"
)

type ResizeState uint8

const (
	ResizeStable ResizeState = iota
	ResizePendingRebuild
	// The window has no drawable area. Nothing is recorded until a
	// non-zero resize arrives.
	ResizeZeroSize
)

func (s ResizeState) String() string {
	switch s {
	case ResizePendingRebuild:
		return "pending_rebuild"
	case ResizeZeroSize:
		return "zero_size"
	default:
		return "stable"
	}
}

// RebuildWait selects how a rebuild makes sure no frame still uses the
// resources it is about to destroy.
type RebuildWait uint8

const (
	WaitAllFences RebuildWait = iota
	WaitDeviceIdle
)

func (w RebuildWait) String() string {
	if w == WaitDeviceIdle {
		return "device_idle"
	}
	return "all_fences"
}

func ParseRebuildWait(s string) (RebuildWait, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all_fences":
		return WaitAllFences, nil
	case "device_idle":
		return WaitDeviceIdle, nil
	}
	return WaitAllFences, errors.Wrapf(core.ErrInvalidConfig, "unknown rebuild wait %q", s)
}

const DefaultSuboptimalLimit = 1

type ResizeOptions struct {
	Swapchain SwapchainPreferences
	Targets   TargetsConfig
	Pipeline  PipelineOptions
	Wait      RebuildWait
	// Consecutive suboptimal frames tolerated before a rebuild.
	SuboptimalLimit int
}

// ResizeController owns the swapchain, targets and pipeline and replaces
// them wholesale whenever the window or the presentation engine asks for it.
type ResizeController struct {
	device GraphicsDevice
	frames *FrameSync
	opts   ResizeOptions

	state     ResizeState
	preferred metadata.Extent2D
	reason    string

	swapchain *SwapchainResources
	targets   *RenderTargets
	pipeline  *Pipeline

	swapchainStale  bool
	pipelineDirty   bool
	previousShaders *metadata.ShaderSet
	suboptimalCount int
	rebuilds        uint64
}

// NewResizeController builds the initial resources. A zero-sized or
// unsupported initial extent is not an error; the controller simply stays
// out of Stable until a usable resize arrives.
func NewResizeController(device GraphicsDevice, frames *FrameSync, initial metadata.Extent2D, opts ResizeOptions) (*ResizeController, error) {
	if opts.SuboptimalLimit <= 0 {
		opts.SuboptimalLimit = DefaultSuboptimalLimit
	}
	r := &ResizeController{
		device:         device,
		frames:         frames,
		opts:           opts,
		state:          ResizePendingRebuild,
		preferred:      initial,
		reason:         "initial",
		swapchainStale: true,
	}
	if _, err := r.Prepare(); err != nil {
		r.Destroy()
		return nil, err
	}
	return r, nil
}

func (r *ResizeController) State() ResizeState {
	return r.state
}

func (r *ResizeController) PreferredExtent() metadata.Extent2D {
	return r.preferred
}

func (r *ResizeController) Rebuilds() uint64 {
	return r.rebuilds
}

func (r *ResizeController) Swapchain() *SwapchainResources {
	return r.swapchain
}

func (r *ResizeController) Targets() *RenderTargets {
	return r.targets
}

func (r *ResizeController) Pipeline() *Pipeline {
	return r.pipeline
}

func (r *ResizeController) Resources() FrameResources {
	return FrameResources{
		Swapchain: r.swapchain,
		Targets:   r.targets,
		Pipeline:  r.pipeline,
	}
}

func (r *ResizeController) OnResize(width, height uint32) {
	r.resize(width, height, "resized")
}

func (r *ResizeController) OnScaleFactorChanged(width, height uint32) {
	r.resize(width, height, "scale factor changed")
}

func (r *ResizeController) resize(width, height uint32, reason string) {
	r.preferred = metadata.Extent2D{Width: width, Height: height}
	r.swapchainStale = true
	if r.state == ResizeZeroSize && r.preferred.IsZero() {
		return
	}
	r.transition(ResizePendingRebuild, reason)
}

// RequestRebuild schedules a swapchain rebuild at the current extent.
func (r *ResizeController) RequestRebuild(reason string) {
	r.swapchainStale = true
	if r.state == ResizeStable {
		r.transition(ResizePendingRebuild, reason)
	}
}

// Observe consumes the result of a tick.
func (r *ResizeController) Observe(outcome FrameOutcome) {
	switch outcome {
	case FrameOutOfDate:
		r.suboptimalCount = 0
		r.RequestRebuild("swapchain out of date")
	case FrameSuboptimal:
		r.suboptimalCount++
		if r.suboptimalCount >= r.opts.SuboptimalLimit {
			r.suboptimalCount = 0
			r.RequestRebuild("swapchain suboptimal")
		}
	default:
		r.suboptimalCount = 0
	}
}

// MarkPipelineDirty makes the next Prepare rebuild the pipeline, keeping
// the swapchain and targets.
func (r *ResizeController) MarkPipelineDirty() {
	r.pipelineDirty = true
	if r.state == ResizeStable {
		r.transition(ResizePendingRebuild, "pipeline dirty")
	}
}

// ReplaceShaders swaps the shader set used by the pipeline. When the new
// pipeline cannot be built the previous shaders and pipeline stay in use.
func (r *ResizeController) ReplaceShaders(shaders metadata.ShaderSet) {
	if r.previousShaders == nil {
		prev := r.opts.Pipeline.Shaders
		r.previousShaders = &prev
	}
	r.opts.Pipeline.Shaders = shaders
	r.MarkPipelineDirty()
}

func (r *ResizeController) transition(to ResizeState, reason string) {
	if r.state == to {
		return
	}
	core.Logger().Debug("resize state changed", "from", r.state, "to", to, "reason", reason)
	if to == ResizePendingRebuild {
		core.LogInfo("rebuild triggered: %s", reason)
	}
	r.state = to
	r.reason = reason
}

// Prepare runs at the top of every tick and reports whether a frame may be
// recorded. Only fatal errors are returned.
func (r *ResizeController) Prepare() (bool, error) {
	switch r.state {
	case ResizeStable:
		return true, nil
	case ResizeZeroSize:
		return false, nil
	}
	return r.rebuild()
}

func (r *ResizeController) rebuild() (bool, error) {
	if !r.swapchainStale && r.swapchain != nil {
		return r.rebuildPipeline()
	}

	support, err := r.device.SurfaceSupport()
	if err != nil {
		return false, errors.Wrap(err, "querying surface support")
	}
	extent := SelectExtent(support.Capabilities, r.preferred)
	if r.preferred.IsZero() || extent.IsZero() {
		if r.state != ResizeZeroSize {
			core.LogInfo("window has zero area, rendering suspended")
		}
		r.transition(ResizeZeroSize, "zero extent")
		return false, nil
	}

	if err := r.waitForFrames(); err != nil {
		return false, err
	}

	var sc *SwapchainResources
	if r.swapchain == nil {
		sc, err = CreateSwapchainResources(r.device, r.preferred, r.opts.Swapchain)
	} else {
		sc, err = RecreateSwapchainResources(r.swapchain, r.device, r.preferred, r.opts.Swapchain)
	}
	if err != nil {
		if core.IsRecoverable(err) {
			core.LogWarn("skipping rebuild: %v", err)
			return false, nil
		}
		return false, err
	}

	targets, err := CreateRenderTargets(r.device, r.opts.Targets, sc)
	if err != nil {
		sc.Destroy(r.device)
		return false, err
	}

	var pipeline *Pipeline
	if r.pipeline == nil || r.pipelineDirty || r.pipeline.NeedsRebuild(targets) {
		pipeline, err = r.createPipeline(targets)
		if err != nil {
			targets.Destroy(r.device)
			sc.Destroy(r.device)
			return false, err
		}
	} else {
		pipeline = r.pipeline.Retargeted(targets)
	}

	r.releasePipeline(pipeline)
	r.targets.Destroy(r.device)
	r.swapchain.Destroy(r.device)

	r.swapchain, r.targets, r.pipeline = sc, targets, pipeline
	r.finishRebuild()
	return true, nil
}

func (r *ResizeController) rebuildPipeline() (bool, error) {
	if err := r.waitForFrames(); err != nil {
		return false, err
	}
	pipeline, err := r.createPipeline(r.targets)
	if err != nil {
		return false, err
	}
	r.releasePipeline(pipeline)
	r.pipeline = pipeline
	r.finishRebuild()
	return true, nil
}

// createPipeline falls back to the previous shaders when a pending shader
// replacement fails to build.
func (r *ResizeController) createPipeline(targets *RenderTargets) (*Pipeline, error) {
	pipeline, err := CreatePipeline(r.device, r.opts.Pipeline, targets)
	if err == nil || r.previousShaders == nil {
		return pipeline, err
	}

	core.LogError("shader reload failed, keeping previous shaders: %v", err)
	r.opts.Pipeline.Shaders = *r.previousShaders
	r.previousShaders = nil
	if r.pipeline != nil && !r.pipeline.NeedsRebuild(targets) {
		return r.pipeline.Retargeted(targets), nil
	}
	return CreatePipeline(r.device, r.opts.Pipeline, targets)
}

// releasePipeline destroys the current pipeline unless next took over its
// objects.
func (r *ResizeController) releasePipeline(next *Pipeline) {
	if r.pipeline == nil || r.pipeline.Handle == next.Handle {
		return
	}
	r.pipeline.Destroy(r.device)
}

func (r *ResizeController) waitForFrames() error {
	if r.swapchain == nil {
		return nil
	}
	if r.opts.Wait == WaitDeviceIdle || r.frames == nil {
		return errors.Wrap(r.device.WaitIdle(), "waiting for device idle")
	}
	return r.frames.WaitAll()
}

func (r *ResizeController) finishRebuild() {
	if r.frames != nil {
		r.frames.ResetImageTracking(r.swapchain.ImageCount())
	}
	r.swapchainStale = false
	r.pipelineDirty = false
	r.previousShaders = nil
	r.suboptimalCount = 0
	r.rebuilds++
	core.Logger().Info("rebuild complete",
		"reason", r.reason,
		"extent", r.swapchain.Extent,
		"generation", r.swapchain.Generation,
		"targets", r.targets.Name,
	)
	r.transition(ResizeStable, "rebuilt")
}

// Destroy releases pipeline, targets and swapchain in that order. The
// device must be idle.
func (r *ResizeController) Destroy() {
	r.pipeline.Destroy(r.device)
	r.targets.Destroy(r.device)
	r.swapchain.Destroy(r.device)
	r.pipeline, r.targets, r.swapchain = nil, nil, nil
}
