package vulkan

import (
	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/vkframe/engine/core"
	"github.com/spaghettifunk/vkframe/engine/renderer/metadata"
)

// pushConstantStages is where the camera block is visible.
const pushConstantStages = vk.ShaderStageFlags(vk.ShaderStageVertexBit) | vk.ShaderStageFlags(vk.ShaderStageFragmentBit)

func (d *Device) CreatePipelineLayout(config *metadata.PipelineLayoutConfig) (metadata.Handle, error) {
	pipelineLayoutCreateInfo := vk.PipelineLayoutCreateInfo{
		SType: vk.StructureTypePipelineLayoutCreateInfo,
	}
	if config.PushConstantSize > 0 {
		// NOTE: only 128 bytes are guaranteed by every implementation.
		if config.PushConstantSize > 128 || config.PushConstantSize%4 != 0 {
			return metadata.NullHandle, errors.Newf("push constant block of %d bytes is not supported", config.PushConstantSize)
		}
		pipelineLayoutCreateInfo.PushConstantRangeCount = 1
		pipelineLayoutCreateInfo.PPushConstantRanges = []vk.PushConstantRange{{
			StageFlags: pushConstantStages,
			Offset:     0,
			Size:       config.PushConstantSize,
		}}
	}

	var layout vk.PipelineLayout
	err := d.context.locks.SafeCall(PipelineManagement, func() error {
		if res := vk.CreatePipelineLayout(d.context.Device.LogicalDevice, &pipelineLayoutCreateInfo, d.context.Allocator, &layout); res != vk.Success {
			return ResultError(res, "vkCreatePipelineLayout")
		}
		return nil
	})
	if err != nil {
		return metadata.NullHandle, err
	}
	return register(d.tables.layouts, layout), nil
}

func (d *Device) DestroyPipelineLayout(layout metadata.Handle) {
	l, ok := unregister(d.tables.layouts, layout, "pipeline layout")
	if !ok {
		return
	}
	_ = d.context.locks.SafeCall(PipelineManagement, func() error {
		vk.DestroyPipelineLayout(d.context.Device.LogicalDevice, l, d.context.Allocator)
		return nil
	})
}

func vertexInputState(mode metadata.VertexInputMode) vk.PipelineVertexInputStateCreateInfo {
	vertexInputInfo := vk.PipelineVertexInputStateCreateInfo{
		SType: vk.StructureTypePipelineVertexInputStateCreateInfo,
	}
	if mode != metadata.VertexInputPositionNormal {
		// Vertices come from the shader itself.
		return vertexInputInfo
	}

	bindingDescription := vk.VertexInputBindingDescription{
		Binding:   0,
		Stride:    metadata.VertexStride,
		InputRate: vk.VertexInputRateVertex, // Move to next data entry for each vertex.
	}
	attributes := []vk.VertexInputAttributeDescription{
		{Location: 0, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: metadata.VertexPositionOffset},
		{Location: 1, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: metadata.VertexNormalOffset},
	}
	vertexInputInfo.VertexBindingDescriptionCount = 1
	vertexInputInfo.PVertexBindingDescriptions = []vk.VertexInputBindingDescription{bindingDescription}
	vertexInputInfo.VertexAttributeDescriptionCount = uint32(len(attributes))
	vertexInputInfo.PVertexAttributeDescriptions = attributes
	return vertexInputInfo
}

func (d *Device) CreateGraphicsPipeline(config *metadata.PipelineConfig) (metadata.Handle, error) {
	pass, err := lookup(d.tables.renderPasses, config.RenderPass, "render pass")
	if err != nil {
		return metadata.NullHandle, err
	}
	layout, err := lookup(d.tables.layouts, config.Layout, "pipeline layout")
	if err != nil {
		return metadata.NullHandle, err
	}

	stages := make([]vk.PipelineShaderStageCreateInfo, 0, len(config.Stages))
	for _, stage := range config.Stages {
		module, err := lookup(d.tables.shaders, stage.Module, "shader module")
		if err != nil {
			return metadata.NullHandle, err
		}
		stages = append(stages, vk.PipelineShaderStageCreateInfo{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  toVkShaderStage(stage.Stage),
			Module: module,
			PName:  VulkanSafeString(stage.EntryPoint),
		})
	}

	// With a dynamic viewport these values are placeholders; the real ones
	// are recorded into every command buffer.
	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		PViewports:    []vk.Viewport{toVkViewport(config.Viewport)},
		ScissorCount:  1,
		PScissors:     []vk.Rect2D{fullScissor(config.Scissor)},
	}

	rasterizerCreateInfo := vk.PipelineRasterizationStateCreateInfo{
		SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
		DepthClampEnable:        vk.False,
		RasterizerDiscardEnable: vk.False,
		PolygonMode:             vk.PolygonModeFill,
		LineWidth:               1.0,
		CullMode:                toVkCullMode(config.CullMode),
		FrontFace:               vk.FrontFaceClockwise,
		DepthBiasEnable:         vk.False,
	}
	if config.IsWireframe {
		rasterizerCreateInfo.PolygonMode = vk.PolygonModeLine
	}

	multisamplingCreateInfo := vk.PipelineMultisampleStateCreateInfo{
		SType:                 vk.StructureTypePipelineMultisampleStateCreateInfo,
		SampleShadingEnable:   vk.False,
		RasterizationSamples:  vk.SampleCount1Bit,
		MinSampleShading:      1.0,
		AlphaToCoverageEnable: vk.False,
		AlphaToOneEnable:      vk.False,
	}

	colorBlendAttachmentState := vk.PipelineColorBlendAttachmentState{
		BlendEnable: vk.False,
		ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit) | vk.ColorComponentFlags(vk.ColorComponentGBit) |
			vk.ColorComponentFlags(vk.ColorComponentBBit) | vk.ColorComponentFlags(vk.ColorComponentABit),
	}
	colorBlendStateCreateInfo := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vk.False,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{colorBlendAttachmentState},
	}

	vertexInputInfo := vertexInputState(config.VertexInput)

	inputAssembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               vk.PrimitiveTopologyTriangleList,
		PrimitiveRestartEnable: vk.False,
	}

	pipelineCreateInfo := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(stages)),
		PStages:             stages,
		PVertexInputState:   &vertexInputInfo,
		PInputAssemblyState: &inputAssembly,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterizerCreateInfo,
		PMultisampleState:   &multisamplingCreateInfo,
		PColorBlendState:    &colorBlendStateCreateInfo,
		Layout:              layout,
		RenderPass:          pass,
		Subpass:             0,
		BasePipelineHandle:  vk.NullPipeline,
		BasePipelineIndex:   -1,
	}
	if config.DynamicViewport {
		dynamicStates := []vk.DynamicState{
			vk.DynamicStateViewport,
			vk.DynamicStateScissor,
		}
		pipelineCreateInfo.PDynamicState = &vk.PipelineDynamicStateCreateInfo{
			SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
			DynamicStateCount: uint32(len(dynamicStates)),
			PDynamicStates:    dynamicStates,
		}
	}

	pipelines := make([]vk.Pipeline, 1)
	err = d.context.locks.SafeCall(PipelineManagement, func() error {
		result := vk.CreateGraphicsPipelines(
			d.context.Device.LogicalDevice,
			vk.NullPipelineCache,
			1,
			[]vk.GraphicsPipelineCreateInfo{pipelineCreateInfo},
			d.context.Allocator,
			pipelines)
		if result != vk.Success {
			return ResultError(result, "vkCreateGraphicsPipelines")
		}
		return nil
	})
	if err != nil {
		return metadata.NullHandle, err
	}
	if pipelines[0] == vk.NullPipeline {
		return metadata.NullHandle, errors.New("vulkan pipeline handle is nil")
	}

	core.LogDebug("Graphics pipeline created (dynamic viewport: %t)", config.DynamicViewport)
	return register(d.tables.pipelines, pipelines[0]), nil
}

func (d *Device) DestroyPipeline(pipeline metadata.Handle) {
	p, ok := unregister(d.tables.pipelines, pipeline, "pipeline")
	if !ok {
		return
	}
	_ = d.context.locks.SafeCall(PipelineManagement, func() error {
		vk.DestroyPipeline(d.context.Device.LogicalDevice, p, d.context.Allocator)
		return nil
	})
}
