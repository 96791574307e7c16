package renderer

import (
	"time"

	"github.com/cockroachdb/errors"

	"github.com/spaghettifunk/vkframe/engine/core"
	"github.com/spaghettifunk/vkframe/engine/renderer/metadata"
)

const (
	MinFramesInFlight     = 1
	MaxFramesInFlight     = 3
	DefaultFramesInFlight = 2
)

// FrameSlot holds the synchronisation objects of one frame in flight. Once
// InFlight is signalled the command buffer and ImageAvailable are free.
type FrameSlot struct {
	ImageAvailable metadata.Handle
	RenderFinished metadata.Handle
	InFlight       metadata.Handle
	CommandBuffer  metadata.Handle
}

type FrameStage uint8

const (
	FrameStageIdle FrameStage = iota
	FrameStageAcquiring
	FrameStageRecording
	FrameStageSubmitting
	FrameStagePresenting
)

func (s FrameStage) String() string {
	switch s {
	case FrameStageAcquiring:
		return "acquiring"
	case FrameStageRecording:
		return "recording"
	case FrameStageSubmitting:
		return "submitting"
	case FrameStagePresenting:
		return "presenting"
	default:
		return "idle"
	}
}

// FrameOutcome is what a tick tells the resize controller.
type FrameOutcome uint8

const (
	FramePresented FrameOutcome = iota
	// Presented, but the swapchain should be rebuilt.
	FrameSuboptimal
	// Nothing was submitted; the swapchain must be rebuilt.
	FrameOutOfDate
)

func (o FrameOutcome) String() string {
	switch o {
	case FrameSuboptimal:
		return "suboptimal"
	case FrameOutOfDate:
		return "out_of_date"
	default:
		return "presented"
	}
}

type FrameStats struct {
	FenceWaits  uint64
	Submissions uint64
	Presents    uint64
	// Ticks dropped because the acquire reported out of date.
	Aborted uint64
	// Waits on every slot fence, issued before a rebuild.
	FullWaits uint64
}

// FrameResources are the objects a tick records against. They are looked
// up from the resize controller on every tick and never kept by a slot.
type FrameResources struct {
	Swapchain *SwapchainResources
	Targets   *RenderTargets
	Pipeline  *Pipeline
}

type DrawParams struct {
	Camera       metadata.CameraUniforms
	VertexBuffer metadata.Handle
	// Ignored without a vertex buffer; the hard-coded triangle is drawn.
	VertexCount uint32
}

type frameDevice interface {
	SyncDevice
	SwapchainDevice
}

type FrameSync struct {
	device     frameDevice
	slots      []FrameSlot
	frameIndex int
	tick       uint64
	stage      FrameStage
	// Slot that last submitted work for each swapchain image, -1 if none.
	imagesInFlight []int
	timeout        time.Duration
	stats          FrameStats
}

// NewFrameSync creates framesInFlight slots. Fences start signalled so the
// first wait on each slot returns immediately. A timeout of zero or less
// waits forever.
func NewFrameSync(device frameDevice, framesInFlight int, timeout time.Duration) (*FrameSync, error) {
	if framesInFlight < MinFramesInFlight || framesInFlight > MaxFramesInFlight {
		return nil, errors.Wrapf(core.ErrInvalidConfig, "frames in flight must be in [%d, %d], got %d",
			MinFramesInFlight, MaxFramesInFlight, framesInFlight)
	}
	fs := &FrameSync{
		device:  device,
		slots:   make([]FrameSlot, 0, framesInFlight),
		timeout: timeout,
	}
	for i := 0; i < framesInFlight; i++ {
		slot, err := newFrameSlot(device)
		if err != nil {
			destroyFrameSlot(device, slot)
			fs.Destroy()
			return nil, errors.Wrapf(err, "creating frame slot %d", i)
		}
		fs.slots = append(fs.slots, slot)
	}
	core.LogDebug("frame sync created with %d frames in flight", framesInFlight)
	return fs, nil
}

func newFrameSlot(device SyncDevice) (FrameSlot, error) {
	var slot FrameSlot
	var err error
	if slot.ImageAvailable, err = device.CreateSemaphore(); err != nil {
		return slot, err
	}
	if slot.RenderFinished, err = device.CreateSemaphore(); err != nil {
		return slot, err
	}
	if slot.InFlight, err = device.CreateFence(true); err != nil {
		return slot, err
	}
	if slot.CommandBuffer, err = device.AllocateCommandBuffer(); err != nil {
		return slot, err
	}
	return slot, nil
}

func destroyFrameSlot(device SyncDevice, slot FrameSlot) {
	if !slot.CommandBuffer.IsNull() {
		device.FreeCommandBuffer(slot.CommandBuffer)
	}
	if !slot.InFlight.IsNull() {
		device.DestroyFence(slot.InFlight)
	}
	if !slot.RenderFinished.IsNull() {
		device.DestroySemaphore(slot.RenderFinished)
	}
	if !slot.ImageAvailable.IsNull() {
		device.DestroySemaphore(slot.ImageAvailable)
	}
}

func (fs *FrameSync) FramesInFlight() int {
	return len(fs.slots)
}

func (fs *FrameSync) FrameIndex() int {
	return fs.frameIndex
}

func (fs *FrameSync) Stage() FrameStage {
	return fs.stage
}

func (fs *FrameSync) Stats() FrameStats {
	return fs.stats
}

func (fs *FrameSync) Slot(i int) FrameSlot {
	return fs.slots[i]
}

// ResetImageTracking forgets which slot owns which image. Called after a
// rebuild, when the swapchain may have a different number of images.
func (fs *FrameSync) ResetImageTracking(imageCount int) {
	if cap(fs.imagesInFlight) < imageCount {
		fs.imagesInFlight = make([]int, imageCount)
	}
	fs.imagesInFlight = fs.imagesInFlight[:imageCount]
	for i := range fs.imagesInFlight {
		fs.imagesInFlight[i] = -1
	}
}

// WaitAll blocks until every slot's last submission retired.
func (fs *FrameSync) WaitAll() error {
	fences := make([]metadata.Handle, len(fs.slots))
	for i, s := range fs.slots {
		fences[i] = s.InFlight
	}
	fs.stats.FullWaits++
	if err := fs.device.WaitForFences(fences, fs.timeout); err != nil {
		return errors.Wrap(err, "waiting for all frames in flight")
	}
	return nil
}

func validateFrameResources(res FrameResources) error {
	if res.Swapchain == nil || res.Targets == nil || res.Pipeline == nil {
		return errors.Wrap(core.ErrStaleResources, "frame resources are not built")
	}
	if !res.Targets.MatchesSwapchain(res.Swapchain) {
		return errors.Wrapf(core.ErrStaleResources, "targets %s built for generation %d, swapchain is %d",
			res.Targets.Name, res.Targets.Generation, res.Swapchain.Generation)
	}
	if res.Pipeline.Viewport != res.Swapchain.Extent {
		return errors.Wrapf(core.ErrStaleResources, "pipeline viewport %s, swapchain extent %s",
			res.Pipeline.Viewport, res.Swapchain.Extent)
	}
	return nil
}

// Render runs one tick: wait, acquire, reset, record, submit, present. An
// out of date acquire ends the tick before the fence is reset, since no
// submission would ever signal it.
func (fs *FrameSync) Render(res FrameResources, params DrawParams) (FrameOutcome, error) {
	if err := validateFrameResources(res); err != nil {
		return FramePresented, err
	}
	if len(fs.imagesInFlight) != res.Swapchain.ImageCount() {
		fs.ResetImageTracking(res.Swapchain.ImageCount())
	}

	slot := fs.slots[fs.frameIndex]
	defer func() { fs.stage = FrameStageIdle }()

	fs.stage = FrameStageAcquiring
	fs.stats.FenceWaits++
	if err := fs.device.WaitForFences([]metadata.Handle{slot.InFlight}, fs.timeout); err != nil {
		return FramePresented, errors.Wrapf(err, "waiting for frame %d", fs.frameIndex)
	}

	imageIndex, status, err := fs.device.AcquireNextImage(res.Swapchain.Handle, slot.ImageAvailable, fs.timeout)
	if err != nil {
		return FramePresented, errors.Wrap(err, "acquiring swapchain image")
	}
	if status == metadata.PresentOutOfDate {
		fs.stats.Aborted++
		core.LogDebug("acquire reported out of date, skipping frame")
		return FrameOutOfDate, nil
	}
	suboptimal := status == metadata.PresentSuboptimal

	framebuffer, err := res.Targets.Framebuffer(imageIndex)
	if err != nil {
		return FramePresented, err
	}

	// Another slot may still be rendering into this image.
	if owner := fs.imagesInFlight[imageIndex]; owner >= 0 && owner != fs.frameIndex {
		fs.stats.FenceWaits++
		if err := fs.device.WaitForFences([]metadata.Handle{fs.slots[owner].InFlight}, fs.timeout); err != nil {
			return FramePresented, errors.Wrapf(err, "waiting for image %d", imageIndex)
		}
	}
	fs.imagesInFlight[imageIndex] = fs.frameIndex

	if err := fs.device.ResetFence(slot.InFlight); err != nil {
		return FramePresented, errors.Wrap(err, "resetting frame fence")
	}

	fs.stage = FrameStageRecording
	vertexCount := metadata.HardcodedTriangleVertexCount
	if !params.VertexBuffer.IsNull() {
		vertexCount = params.VertexCount
	}
	err = fs.device.RecordFrame(&metadata.FrameRecording{
		CommandBuffer:   slot.CommandBuffer,
		RenderPass:      res.Targets.RenderPass,
		Framebuffer:     framebuffer,
		Extent:          res.Swapchain.Extent,
		ClearColor:      res.Targets.ClearColor,
		Pipeline:        res.Pipeline.Handle,
		Layout:          res.Pipeline.Layout,
		DynamicViewport: res.Pipeline.Dynamic,
		Camera:          params.Camera,
		PushConstants:   res.Pipeline.Options.PushConstantSize > 0,
		VertexBuffer:    params.VertexBuffer,
		VertexCount:     vertexCount,
	})
	if err != nil {
		return FramePresented, errors.Wrap(err, "recording frame")
	}

	fs.stage = FrameStageSubmitting
	fs.stats.Submissions++
	err = fs.device.Submit(&metadata.SubmitInfo{
		CommandBuffer:   slot.CommandBuffer,
		WaitSemaphore:   slot.ImageAvailable,
		SignalSemaphore: slot.RenderFinished,
		Fence:           slot.InFlight,
	})
	if err != nil {
		return FramePresented, errors.Wrap(err, "submitting frame")
	}

	fs.stage = FrameStagePresenting
	fs.stats.Presents++
	status, err = fs.device.Present(&metadata.PresentInfo{
		Swapchain:     res.Swapchain.Handle,
		ImageIndex:    imageIndex,
		WaitSemaphore: slot.RenderFinished,
	})
	if err != nil {
		return FramePresented, errors.Wrap(err, "presenting frame")
	}

	fs.frameIndex = (fs.frameIndex + 1) % len(fs.slots)
	fs.tick++

	switch {
	case status == metadata.PresentOutOfDate:
		return FrameOutOfDate, nil
	case status == metadata.PresentSuboptimal || suboptimal:
		return FrameSuboptimal, nil
	}
	return FramePresented, nil
}

// Destroy releases every slot. The device must be idle.
func (fs *FrameSync) Destroy() {
	for i := len(fs.slots) - 1; i >= 0; i-- {
		destroyFrameSlot(fs.device, fs.slots[i])
	}
	fs.slots = nil
	fs.imagesInFlight = nil
}
