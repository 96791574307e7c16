package vulkan

import (
	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/vkframe/engine/core"
	"github.com/spaghettifunk/vkframe/engine/renderer/metadata"
)

// VulkanContext holds the instance level objects. They are created once
// and destroyed when the device is.
type VulkanContext struct {
	Instance  vk.Instance
	Allocator *vk.AllocationCallbacks
	Surface   vk.Surface

	debugMessenger vk.DebugReportCallback

	Device *VulkanDevice

	locks *VulkanLockPool
}

func (vc *VulkanContext) FindMemoryIndex(typeFilter uint32, propertyFlags vk.MemoryPropertyFlags) (uint32, bool) {
	var memoryProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(vc.Device.PhysicalDevice, &memoryProperties)
	memoryProperties.Deref()

	for i := uint32(0); i < memoryProperties.MemoryTypeCount; i++ {
		// Check each memory type to see if its bit is set to 1.
		memoryProperties.MemoryTypes[i].Deref()
		if (typeFilter&(1<<i)) != 0 && (memoryProperties.MemoryTypes[i].PropertyFlags&propertyFlags) == propertyFlags {
			return i, true
		}
	}
	core.LogWarn("Unable to find suitable memory type!")
	return 0, false
}

// handleTables maps the opaque handles given to the renderer onto the
// driver objects behind them. Every table issues its own ids.
type handleTables struct {
	swapchains     *core.Identifiers[*VulkanSwapchain]
	images         *core.Identifiers[vk.Image]
	views          *core.Identifiers[vk.ImageView]
	renderPasses   *core.Identifiers[vk.RenderPass]
	framebuffers   *core.Identifiers[vk.Framebuffer]
	shaders        *core.Identifiers[vk.ShaderModule]
	layouts        *core.Identifiers[vk.PipelineLayout]
	pipelines      *core.Identifiers[vk.Pipeline]
	semaphores     *core.Identifiers[vk.Semaphore]
	fences         *core.Identifiers[*VulkanFence]
	commandBuffers *core.Identifiers[*VulkanCommandBuffer]
	buffers        *core.Identifiers[*VulkanBuffer]
}

func newHandleTables() *handleTables {
	return &handleTables{
		swapchains:     core.NewIdentifiers[*VulkanSwapchain](2),
		images:         core.NewIdentifiers[vk.Image](8),
		views:          core.NewIdentifiers[vk.ImageView](8),
		renderPasses:   core.NewIdentifiers[vk.RenderPass](2),
		framebuffers:   core.NewIdentifiers[vk.Framebuffer](8),
		shaders:        core.NewIdentifiers[vk.ShaderModule](4),
		layouts:        core.NewIdentifiers[vk.PipelineLayout](2),
		pipelines:      core.NewIdentifiers[vk.Pipeline](2),
		semaphores:     core.NewIdentifiers[vk.Semaphore](8),
		fences:         core.NewIdentifiers[*VulkanFence](4),
		commandBuffers: core.NewIdentifiers[*VulkanCommandBuffer](4),
		buffers:        core.NewIdentifiers[*VulkanBuffer](2),
	}
}

// leaked is the number of objects still registered.
func (t *handleTables) leaked() int {
	return t.swapchains.Len() + t.views.Len() + t.renderPasses.Len() + t.framebuffers.Len() +
		t.shaders.Len() + t.layouts.Len() + t.pipelines.Len() + t.semaphores.Len() +
		t.fences.Len() + t.commandBuffers.Len() + t.buffers.Len()
}

func register[T any](ids *core.Identifiers[T], obj T) metadata.Handle {
	return metadata.Handle(ids.Acquire(obj))
}

func lookup[T any](ids *core.Identifiers[T], h metadata.Handle, kind string) (T, error) {
	obj, ok := ids.Get(uint64(h))
	if !ok {
		var zero T
		return zero, errors.Newf("unknown %s handle %d", kind, h)
	}
	return obj, nil
}

// unregister drops the handle. Destroying an unknown handle is logged and
// otherwise ignored.
func unregister[T any](ids *core.Identifiers[T], h metadata.Handle, kind string) (T, bool) {
	obj, err := ids.Release(uint64(h))
	if err != nil {
		core.LogWarn("destroying %s: %s", kind, err)
		return obj, false
	}
	return obj, true
}
