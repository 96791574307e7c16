package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/vkframe/engine/renderer/metadata"
)

// CreateFramebuffer binds one swapchain image view to the render pass.
func (d *Device) CreateFramebuffer(config *metadata.FramebufferConfig) (metadata.Handle, error) {
	pass, err := lookup(d.tables.renderPasses, config.RenderPass, "render pass")
	if err != nil {
		return metadata.NullHandle, err
	}
	view, err := lookup(d.tables.views, config.View, "image view")
	if err != nil {
		return metadata.NullHandle, err
	}

	framebufferCreateInfo := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      pass,
		AttachmentCount: 1,
		PAttachments:    []vk.ImageView{view},
		Width:           config.Extent.Width,
		Height:          config.Extent.Height,
		Layers:          1,
	}

	var framebuffer vk.Framebuffer
	if res := vk.CreateFramebuffer(d.context.Device.LogicalDevice, &framebufferCreateInfo, d.context.Allocator, &framebuffer); res != vk.Success {
		return metadata.NullHandle, ResultError(res, "vkCreateFramebuffer")
	}
	return register(d.tables.framebuffers, framebuffer), nil
}

func (d *Device) DestroyFramebuffer(framebuffer metadata.Handle) {
	if fb, ok := unregister(d.tables.framebuffers, framebuffer, "framebuffer"); ok {
		vk.DestroyFramebuffer(d.context.Device.LogicalDevice, fb, d.context.Allocator)
	}
}
