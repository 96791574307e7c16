package metadata

/** @brief Determines face culling mode during rendering. */
type FaceCullMode int

const (
	/** @brief No faces are culled. */
	FaceCullModeNone FaceCullMode = 0x0
	/** @brief Only front faces are culled. */
	FaceCullModeFront FaceCullMode = 0x1
	/** @brief Only back faces are culled. */
	FaceCullModeBack FaceCullMode = 0x2
	/** @brief Both front and back faces are culled. */
	FaceCullModeFrontAndBack FaceCullMode = 0x3
)

type ClearColor struct {
	R, G, B, A float32
}

// SwapchainCreateInfo carries every choice made before a swapchain is created.
type SwapchainCreateInfo struct {
	// Swapchain being replaced, or NullHandle.
	OldSwapchain       Handle
	SurfaceFormat      SurfaceFormat
	PresentMode        PresentMode
	Extent             Extent2D
	ImageCount         uint32
	SharingMode        SharingMode
	QueueFamilyIndices []uint32
	PreTransform       uint32
}

/**
 * @brief Single colour attachment render pass: cleared on load, stored,
 * UNDEFINED on entry and PRESENT_SRC on exit.
 */
type RenderPassConfig struct {
	Name       string
	Format     Format
	ClearColor ClearColor
}

type FramebufferConfig struct {
	RenderPass Handle
	View       Handle
	Extent     Extent2D
}

type Viewport struct {
	X, Y          float32
	Width, Height float32
	MinDepth      float32
	MaxDepth      float32
}

// FullViewport covers the whole extent with the default depth range.
func FullViewport(extent Extent2D) Viewport {
	return Viewport{
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0.0,
		MaxDepth: 1.0,
	}
}

type PipelineLayoutConfig struct {
	// Size in bytes of the single push constant range, zero for none.
	PushConstantSize uint32
}

type PipelineShaderStage struct {
	Stage      ShaderStage
	Module     Handle
	EntryPoint string
}

type PipelineConfig struct {
	RenderPass  Handle
	Layout      Handle
	Stages      []PipelineShaderStage
	VertexInput VertexInputMode
	// Baked into the pipeline unless DynamicViewport is set.
	Viewport        Viewport
	Scissor         Extent2D
	DynamicViewport bool
	CullMode        FaceCullMode
	IsWireframe     bool
}

// FrameRecording is everything needed to record one frame's commands.
type FrameRecording struct {
	CommandBuffer   Handle
	RenderPass      Handle
	Framebuffer     Handle
	Extent          Extent2D
	ClearColor      ClearColor
	Pipeline        Handle
	Layout          Handle
	DynamicViewport bool
	Camera          CameraUniforms
	PushConstants   bool
	VertexBuffer    Handle
	VertexCount     uint32
}

type SubmitInfo struct {
	CommandBuffer Handle
	// Waited on at the colour attachment output stage.
	WaitSemaphore   Handle
	SignalSemaphore Handle
	Fence           Handle
}

type PresentInfo struct {
	Swapchain     Handle
	ImageIndex    uint32
	WaitSemaphore Handle
}

// CameraUniforms is pushed as a push constant block before every draw.
type CameraUniforms struct {
	Proj [16]float32
	View [16]float32
}

// CameraUniformsSize is the push constant range size in bytes.
const CameraUniformsSize uint32 = 2 * 16 * 4

func IdentityCameraUniforms() CameraUniforms {
	identity := [16]float32{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
	return CameraUniforms{Proj: identity, View: identity}
}
