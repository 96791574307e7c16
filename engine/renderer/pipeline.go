package renderer

import (
	"github.com/cockroachdb/errors"

	"github.com/spaghettifunk/vkframe/engine/core"
	"github.com/spaghettifunk/vkframe/engine/renderer/metadata"
)

type PipelineOptions struct {
	Shaders     metadata.ShaderSet
	VertexInput metadata.VertexInputMode
	// Viewport and scissor are set at record time so extent changes do not
	// require a new pipeline.
	DynamicViewport bool
	CullMode        metadata.FaceCullMode
	// Zero disables the push constant range.
	PushConstantSize uint32
}

// DefaultPipelineOptions draws the hard-coded triangle with a camera block.
func DefaultPipelineOptions(shaders metadata.ShaderSet) PipelineOptions {
	return PipelineOptions{
		Shaders:          shaders,
		VertexInput:      metadata.VertexInputNone,
		DynamicViewport:  true,
		CullMode:         metadata.FaceCullModeBack,
		PushConstantSize: metadata.CameraUniformsSize,
	}
}

type Pipeline struct {
	Layout metadata.Handle
	Handle metadata.Handle
	// Always the extent of the targets the pipeline was last bound to.
	Viewport metadata.Extent2D
	Format   metadata.Format
	Dynamic  bool
	Options  PipelineOptions
}

func CreatePipeline(device PipelineDevice, opts PipelineOptions, targets *RenderTargets) (*Pipeline, error) {
	if opts.Shaders.Vertex.IsEmpty() {
		return nil, errors.Wrap(core.ErrShaderModule, "vertex shader has no code")
	}

	layout, err := device.CreatePipelineLayout(&metadata.PipelineLayoutConfig{
		PushConstantSize: opts.PushConstantSize,
	})
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "creating pipeline layout"), core.ErrPipelineCreation)
	}

	stages, modules, err := createShaderStages(device, opts.Shaders)
	// Modules are only needed while the pipeline is being created.
	defer func() {
		for _, m := range modules {
			device.DestroyShaderModule(m)
		}
	}()
	if err != nil {
		device.DestroyPipelineLayout(layout)
		return nil, err
	}

	config := &metadata.PipelineConfig{
		RenderPass:      targets.RenderPass,
		Layout:          layout,
		Stages:          stages,
		VertexInput:     opts.VertexInput,
		Viewport:        metadata.FullViewport(targets.Extent),
		Scissor:         targets.Extent,
		DynamicViewport: opts.DynamicViewport,
		CullMode:        opts.CullMode,
	}
	handle, err := device.CreateGraphicsPipeline(config)
	if err != nil {
		device.DestroyPipelineLayout(layout)
		return nil, errors.Mark(errors.Wrap(err, "creating graphics pipeline"), core.ErrPipelineCreation)
	}

	core.LogDebug("pipeline created for %s (dynamic viewport: %t)", targets.Extent, opts.DynamicViewport)
	return &Pipeline{
		Layout:   layout,
		Handle:   handle,
		Viewport: targets.Extent,
		Format:   targets.Format,
		Dynamic:  opts.DynamicViewport,
		Options:  opts,
	}, nil
}

func createShaderStages(device PipelineDevice, shaders metadata.ShaderSet) ([]metadata.PipelineShaderStage, []metadata.Handle, error) {
	vertexEntry := entryPoint(shaders.Vertex.EntryPoint, metadata.DefaultVertexEntryPoint)
	fragmentEntry := entryPoint(shaders.Fragment.EntryPoint, metadata.DefaultFragmentEntryPoint)

	vs, err := device.CreateShaderModule(&shaders.Vertex)
	if err != nil {
		return nil, nil, errors.Mark(errors.Wrapf(err, "creating shader module %q", shaders.Vertex.Name), core.ErrShaderModule)
	}
	modules := []metadata.Handle{vs}

	fs := vs
	if !shaders.SharedModule() {
		fs, err = device.CreateShaderModule(&shaders.Fragment)
		if err != nil {
			return nil, modules, errors.Mark(errors.Wrapf(err, "creating shader module %q", shaders.Fragment.Name), core.ErrShaderModule)
		}
		modules = append(modules, fs)
	}

	return []metadata.PipelineShaderStage{
		{Stage: metadata.ShaderStageVertex, Module: vs, EntryPoint: vertexEntry},
		{Stage: metadata.ShaderStageFragment, Module: fs, EntryPoint: fragmentEntry},
	}, modules, nil
}

func entryPoint(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}

// NeedsRebuild reports whether the pipeline cannot be used with targets.
// A fixed viewport is baked in, so any extent change needs a new pipeline.
func (p *Pipeline) NeedsRebuild(targets *RenderTargets) bool {
	if p.Format != targets.Format {
		return true
	}
	return !p.Dynamic && p.Viewport != targets.Extent
}

// Retargeted returns a pipeline sharing p's objects with its viewport set
// to the targets' extent. Ownership moves to the returned value.
func (p *Pipeline) Retargeted(targets *RenderTargets) *Pipeline {
	next := *p
	next.Viewport = targets.Extent
	return &next
}

// Destroy releases the pipeline before its layout.
func (p *Pipeline) Destroy(device PipelineDevice) {
	if p == nil {
		return
	}
	if !p.Handle.IsNull() {
		device.DestroyPipeline(p.Handle)
		p.Handle = metadata.NullHandle
	}
	if !p.Layout.IsNull() {
		device.DestroyPipelineLayout(p.Layout)
		p.Layout = metadata.NullHandle
	}
}
