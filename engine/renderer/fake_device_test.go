package renderer

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/spaghettifunk/vkframe/engine/renderer/metadata"
)

// fakeDevice is an in-memory GraphicsDevice. Submissions complete
// instantly, so a fence is signalled as soon as the submit returns.
type fakeDevice struct {
	families metadata.QueueFamilies
	support  metadata.SurfaceSupport

	nextHandle uint64
	live       map[metadata.Handle]string
	destroyed  []string

	swapchainImages map[metadata.Handle][]metadata.Handle
	swapchainInfos  []metadata.SwapchainCreateInfo
	pipelineConfigs []metadata.PipelineConfig
	shaderBlobs     []string
	fences          map[metadata.Handle]bool

	acquireStatuses []metadata.PresentStatus
	presentStatuses []metadata.PresentStatus
	nextImage       uint32

	fenceWaits   int
	fenceResets  int
	waitIdles    int
	acquires     int
	recordings   []metadata.FrameRecording
	submits      []metadata.SubmitInfo
	presents     []metadata.PresentInfo
	deviceFreed  bool
	swapchainErr error
	badShader    string
	pipelineErr  error
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		families: metadata.QueueFamilies{Graphics: 0, Present: 0},
		support: metadata.SurfaceSupport{
			Capabilities: metadata.SurfaceCapabilities{
				MinImageCount:  2,
				MaxImageCount:  8,
				CurrentExtent:  metadata.Extent2D{Width: metadata.ExtentUndefined, Height: metadata.ExtentUndefined},
				MinImageExtent: metadata.Extent2D{Width: 1, Height: 1},
				MaxImageExtent: metadata.Extent2D{Width: 4096, Height: 4096},
			},
			Formats: []metadata.SurfaceFormat{
				{Format: metadata.FormatR8G8B8A8Srgb, ColorSpace: metadata.ColorSpaceSrgbNonlinear},
				metadata.PreferredSurfaceFormat,
			},
			PresentModes: []metadata.PresentMode{
				metadata.PresentModeFifo,
				metadata.PresentModeMailbox,
			},
		},
		live:            map[metadata.Handle]string{},
		swapchainImages: map[metadata.Handle][]metadata.Handle{},
		fences:          map[metadata.Handle]bool{},
	}
}

func (d *fakeDevice) create(kind string) metadata.Handle {
	d.nextHandle++
	h := metadata.Handle(d.nextHandle)
	d.live[h] = kind
	return h
}

func (d *fakeDevice) release(kind string, h metadata.Handle) {
	if got, ok := d.live[h]; !ok || got != kind {
		panic(fmt.Sprintf("destroying %s %d which is not a live %s", kind, h, kind))
	}
	delete(d.live, h)
	d.destroyed = append(d.destroyed, kind)
}

func (d *fakeDevice) liveCount(kind string) int {
	n := 0
	for _, k := range d.live {
		if k == kind {
			n++
		}
	}
	return n
}

func (d *fakeDevice) QueueFamilies() metadata.QueueFamilies {
	return d.families
}

func (d *fakeDevice) SurfaceSupport() (*metadata.SurfaceSupport, error) {
	support := d.support
	return &support, nil
}

// setWindowExtent makes the surface dictate extent, like most platforms do.
func (d *fakeDevice) setWindowExtent(width, height uint32) {
	d.support.Capabilities.CurrentExtent = metadata.Extent2D{Width: width, Height: height}
}

func (d *fakeDevice) CreateSwapchain(info *metadata.SwapchainCreateInfo) (metadata.Handle, error) {
	d.swapchainInfos = append(d.swapchainInfos, *info)
	if d.swapchainErr != nil {
		return metadata.NullHandle, d.swapchainErr
	}
	h := d.create("swapchain")
	images := make([]metadata.Handle, info.ImageCount)
	for i := range images {
		d.nextHandle++
		images[i] = metadata.Handle(d.nextHandle)
	}
	d.swapchainImages[h] = images
	return h, nil
}

func (d *fakeDevice) SwapchainImages(swapchain metadata.Handle) ([]metadata.Handle, error) {
	return append([]metadata.Handle(nil), d.swapchainImages[swapchain]...), nil
}

func (d *fakeDevice) CreateImageView(image metadata.Handle, format metadata.Format) (metadata.Handle, error) {
	return d.create("view"), nil
}

func (d *fakeDevice) DestroyImageView(view metadata.Handle) {
	d.release("view", view)
}

func (d *fakeDevice) DestroySwapchain(swapchain metadata.Handle) {
	d.release("swapchain", swapchain)
	delete(d.swapchainImages, swapchain)
}

func (d *fakeDevice) AcquireNextImage(swapchain, semaphore metadata.Handle, timeout time.Duration) (uint32, metadata.PresentStatus, error) {
	d.acquires++
	status := metadata.PresentSuccess
	if len(d.acquireStatuses) > 0 {
		status = d.acquireStatuses[0]
		d.acquireStatuses = d.acquireStatuses[1:]
	}
	if status == metadata.PresentOutOfDate {
		return 0, status, nil
	}
	n := uint32(len(d.swapchainImages[swapchain]))
	if n == 0 {
		return 0, status, errors.New("acquire on unknown swapchain")
	}
	idx := d.nextImage % n
	d.nextImage++
	return idx, status, nil
}

func (d *fakeDevice) Present(info *metadata.PresentInfo) (metadata.PresentStatus, error) {
	d.presents = append(d.presents, *info)
	if len(d.presentStatuses) > 0 {
		status := d.presentStatuses[0]
		d.presentStatuses = d.presentStatuses[1:]
		return status, nil
	}
	return metadata.PresentSuccess, nil
}

func (d *fakeDevice) CreateRenderPass(config *metadata.RenderPassConfig) (metadata.Handle, error) {
	return d.create("render_pass"), nil
}

func (d *fakeDevice) DestroyRenderPass(pass metadata.Handle) {
	d.release("render_pass", pass)
}

func (d *fakeDevice) CreateFramebuffer(config *metadata.FramebufferConfig) (metadata.Handle, error) {
	return d.create("framebuffer"), nil
}

func (d *fakeDevice) DestroyFramebuffer(framebuffer metadata.Handle) {
	d.release("framebuffer", framebuffer)
}

func (d *fakeDevice) CreateShaderModule(blob *metadata.ShaderBlob) (metadata.Handle, error) {
	d.shaderBlobs = append(d.shaderBlobs, blob.Name)
	if d.badShader != "" && blob.Name == d.badShader {
		return metadata.NullHandle, errors.New("invalid SPIR-V")
	}
	return d.create("shader"), nil
}

func (d *fakeDevice) DestroyShaderModule(module metadata.Handle) {
	d.release("shader", module)
}

func (d *fakeDevice) CreatePipelineLayout(config *metadata.PipelineLayoutConfig) (metadata.Handle, error) {
	return d.create("layout"), nil
}

func (d *fakeDevice) DestroyPipelineLayout(layout metadata.Handle) {
	d.release("layout", layout)
}

func (d *fakeDevice) CreateGraphicsPipeline(config *metadata.PipelineConfig) (metadata.Handle, error) {
	d.pipelineConfigs = append(d.pipelineConfigs, *config)
	if d.pipelineErr != nil {
		return metadata.NullHandle, d.pipelineErr
	}
	return d.create("pipeline"), nil
}

func (d *fakeDevice) DestroyPipeline(pipeline metadata.Handle) {
	d.release("pipeline", pipeline)
}

func (d *fakeDevice) CreateSemaphore() (metadata.Handle, error) {
	return d.create("semaphore"), nil
}

func (d *fakeDevice) DestroySemaphore(semaphore metadata.Handle) {
	d.release("semaphore", semaphore)
}

func (d *fakeDevice) CreateFence(signaled bool) (metadata.Handle, error) {
	h := d.create("fence")
	d.fences[h] = signaled
	return h, nil
}

func (d *fakeDevice) DestroyFence(fence metadata.Handle) {
	d.release("fence", fence)
	delete(d.fences, fence)
}

// WaitForFences fails instead of blocking forever on an unsignalled fence.
func (d *fakeDevice) WaitForFences(fences []metadata.Handle, timeout time.Duration) error {
	d.fenceWaits++
	for _, f := range fences {
		if !d.fences[f] {
			return errors.Newf("fence %d would never be signalled", f)
		}
	}
	return nil
}

func (d *fakeDevice) ResetFence(fence metadata.Handle) error {
	d.fenceResets++
	d.fences[fence] = false
	return nil
}

func (d *fakeDevice) AllocateCommandBuffer() (metadata.Handle, error) {
	return d.create("command_buffer"), nil
}

func (d *fakeDevice) FreeCommandBuffer(buffer metadata.Handle) {
	d.release("command_buffer", buffer)
}

func (d *fakeDevice) RecordFrame(recording *metadata.FrameRecording) error {
	for _, h := range []metadata.Handle{recording.RenderPass, recording.Framebuffer, recording.Pipeline, recording.Layout} {
		if _, ok := d.live[h]; !ok {
			return errors.Newf("recording references dead handle %d", h)
		}
	}
	d.recordings = append(d.recordings, *recording)
	return nil
}

func (d *fakeDevice) Submit(info *metadata.SubmitInfo) error {
	d.submits = append(d.submits, *info)
	d.fences[info.Fence] = true
	return nil
}

func (d *fakeDevice) WaitIdle() error {
	d.waitIdles++
	return nil
}

func (d *fakeDevice) CreateVertexBuffer(vertices []metadata.Vertex) (metadata.Handle, error) {
	return d.create("buffer"), nil
}

func (d *fakeDevice) DestroyBuffer(buffer metadata.Handle) {
	d.release("buffer", buffer)
}

func (d *fakeDevice) Destroy() {
	d.deviceFreed = true
}

func testShaders() metadata.ShaderSet {
	return metadata.ShaderSet{
		Vertex: metadata.ShaderBlob{
			Name:       "triangle",
			Code:       []uint32{metadata.SpirvMagic, 0x00010000},
			EntryPoint: metadata.DefaultVertexEntryPoint,
		},
		Fragment: metadata.ShaderBlob{EntryPoint: metadata.DefaultFragmentEntryPoint},
	}
}

func testResizeOptions() ResizeOptions {
	return ResizeOptions{
		Swapchain: NewSwapchainPreferences(nil),
		Targets:   TargetsConfig{ClearColor: metadata.ClearColor{A: 1}},
		Pipeline:  DefaultPipelineOptions(testShaders()),
		Wait:      WaitAllFences,
	}
}
