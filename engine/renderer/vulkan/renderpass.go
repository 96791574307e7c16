package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/vkframe/engine/core"
	"github.com/spaghettifunk/vkframe/engine/renderer/metadata"
)

// CreateRenderPass builds the single subpass, single colour attachment pass.
// The attachment is cleared on load, stored, and handed to the presentation
// engine in PRESENT_SRC layout.
func (d *Device) CreateRenderPass(config *metadata.RenderPassConfig) (metadata.Handle, error) {
	colorAttachment := vk.AttachmentDescription{
		Format:         vk.Format(config.Format),
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,  // Do not expect any particular layout before render pass starts.
		FinalLayout:    vk.ImageLayoutPresentSrc, // Transitioned to after the render pass
	}

	colorAttachmentReference := []vk.AttachmentReference{
		{
			Attachment: 0, // Attachment description array index
			Layout:     vk.ImageLayoutColorAttachmentOptimal,
		},
	}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments:    colorAttachmentReference,
	}

	// Writes to the attachment wait until the presentation engine has
	// released the image acquired for this frame.
	dependency := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		SrcAccessMask: 0,
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
	}

	renderpassCreateInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: 1,
		PAttachments:    []vk.AttachmentDescription{colorAttachment},
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{dependency},
	}

	var pass vk.RenderPass
	err := d.context.locks.SafeCall(RenderpassManagement, func() error {
		if res := vk.CreateRenderPass(d.context.Device.LogicalDevice, &renderpassCreateInfo, d.context.Allocator, &pass); res != vk.Success {
			return ResultError(res, "vkCreateRenderPass")
		}
		return nil
	})
	if err != nil {
		return metadata.NullHandle, err
	}
	core.LogDebug("render pass %s created for %s", config.Name, config.Format)
	return register(d.tables.renderPasses, pass), nil
}

func (d *Device) DestroyRenderPass(pass metadata.Handle) {
	rp, ok := unregister(d.tables.renderPasses, pass, "render pass")
	if !ok {
		return
	}
	_ = d.context.locks.SafeCall(RenderpassManagement, func() error {
		vk.DestroyRenderPass(d.context.Device.LogicalDevice, rp, d.context.Allocator)
		return nil
	})
}

func renderpassBegin(cmd vk.CommandBuffer, pass vk.RenderPass, framebuffer vk.Framebuffer, extent metadata.Extent2D, clear metadata.ClearColor) {
	clearValues := make([]vk.ClearValue, 1)
	clearValues[0].SetColor([]float32{clear.R, clear.G, clear.B, clear.A})

	beginInfo := vk.RenderPassBeginInfo{
		SType:           vk.StructureTypeRenderPassBeginInfo,
		RenderPass:      pass,
		Framebuffer:     framebuffer,
		RenderArea:      fullScissor(extent),
		ClearValueCount: 1,
		PClearValues:    clearValues,
	}
	vk.CmdBeginRenderPass(cmd, &beginInfo, vk.SubpassContentsInline)
}

func renderpassEnd(cmd vk.CommandBuffer) {
	vk.CmdEndRenderPass(cmd)
}
