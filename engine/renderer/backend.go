package renderer

import (
	"time"

	"github.com/spaghettifunk/vkframe/engine/renderer/metadata"
)

// SurfaceQuerier reports what the presentation surface supports right now.
// SurfaceSupport is re-queried on every swapchain build since the window
// may have changed in between.
type SurfaceQuerier interface {
	QueueFamilies() metadata.QueueFamilies
	SurfaceSupport() (*metadata.SurfaceSupport, error)
}

type SwapchainDevice interface {
	CreateSwapchain(info *metadata.SwapchainCreateInfo) (metadata.Handle, error)
	SwapchainImages(swapchain metadata.Handle) ([]metadata.Handle, error)
	CreateImageView(image metadata.Handle, format metadata.Format) (metadata.Handle, error)
	DestroyImageView(view metadata.Handle)
	DestroySwapchain(swapchain metadata.Handle)
	// AcquireNextImage signals semaphore once the image is ready to be
	// rendered into. OutOfDate and Suboptimal are statuses, not errors.
	AcquireNextImage(swapchain, semaphore metadata.Handle, timeout time.Duration) (uint32, metadata.PresentStatus, error)
	Present(info *metadata.PresentInfo) (metadata.PresentStatus, error)
}

type TargetDevice interface {
	CreateRenderPass(config *metadata.RenderPassConfig) (metadata.Handle, error)
	DestroyRenderPass(pass metadata.Handle)
	CreateFramebuffer(config *metadata.FramebufferConfig) (metadata.Handle, error)
	DestroyFramebuffer(framebuffer metadata.Handle)
}

type PipelineDevice interface {
	CreateShaderModule(blob *metadata.ShaderBlob) (metadata.Handle, error)
	DestroyShaderModule(module metadata.Handle)
	CreatePipelineLayout(config *metadata.PipelineLayoutConfig) (metadata.Handle, error)
	DestroyPipelineLayout(layout metadata.Handle)
	CreateGraphicsPipeline(config *metadata.PipelineConfig) (metadata.Handle, error)
	DestroyPipeline(pipeline metadata.Handle)
}

type SyncDevice interface {
	CreateSemaphore() (metadata.Handle, error)
	DestroySemaphore(semaphore metadata.Handle)
	CreateFence(signaled bool) (metadata.Handle, error)
	DestroyFence(fence metadata.Handle)
	// WaitForFences blocks until every fence is signalled.
	WaitForFences(fences []metadata.Handle, timeout time.Duration) error
	ResetFence(fence metadata.Handle) error
	AllocateCommandBuffer() (metadata.Handle, error)
	FreeCommandBuffer(buffer metadata.Handle)
	RecordFrame(recording *metadata.FrameRecording) error
	Submit(info *metadata.SubmitInfo) error
	WaitIdle() error
}

type BufferDevice interface {
	CreateVertexBuffer(vertices []metadata.Vertex) (metadata.Handle, error)
	DestroyBuffer(buffer metadata.Handle)
}

// GraphicsDevice is the logical device plus its queues. It outlives every
// object created from it; Destroy is the last call made on it.
type GraphicsDevice interface {
	SurfaceQuerier
	SwapchainDevice
	TargetDevice
	PipelineDevice
	SyncDevice
	BufferDevice
	Destroy()
}
