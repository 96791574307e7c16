package vulkan

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/vkframe/engine/renderer/metadata"
)

type VulkanCommandBufferState int

const (
	CommandBufferStateReady VulkanCommandBufferState = iota
	CommandBufferStateRecording
	CommandBufferStateInRenderPass
	CommandBufferStateRecordingEnded
	CommandBufferStateSubmitted
	CommandBufferStateNotAllocated
)

type VulkanCommandBuffer struct {
	Handle vk.CommandBuffer
	// Command buffer state.
	State VulkanCommandBufferState
}

// AllocateCommandBuffer allocates a primary buffer from the graphics pool.
// The pool is created with the reset bit so buffers are re-recorded in place.
func (d *Device) AllocateCommandBuffer() (metadata.Handle, error) {
	allocateInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        d.context.Device.GraphicsCommandPool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}
	buffers := make([]vk.CommandBuffer, 1)
	err := d.context.locks.SafeCall(CommandBufferManagement, func() error {
		if res := vk.AllocateCommandBuffers(d.context.Device.LogicalDevice, &allocateInfo, buffers); res != vk.Success {
			return ResultError(res, "vkAllocateCommandBuffers")
		}
		return nil
	})
	if err != nil {
		return metadata.NullHandle, err
	}
	return register(d.tables.commandBuffers, &VulkanCommandBuffer{
		Handle: buffers[0],
		State:  CommandBufferStateReady,
	}), nil
}

func (d *Device) FreeCommandBuffer(buffer metadata.Handle) {
	cb, ok := unregister(d.tables.commandBuffers, buffer, "command buffer")
	if !ok {
		return
	}
	_ = d.context.locks.SafeCall(CommandBufferManagement, func() error {
		vk.FreeCommandBuffers(d.context.Device.LogicalDevice, d.context.Device.GraphicsCommandPool, 1, []vk.CommandBuffer{cb.Handle})
		return nil
	})
	cb.Handle = nil
	cb.State = CommandBufferStateNotAllocated
}

func (v *VulkanCommandBuffer) begin() error {
	if res := vk.ResetCommandBuffer(v.Handle, 0); res != vk.Success {
		return ResultError(res, "vkResetCommandBuffer")
	}
	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
	}
	if res := vk.BeginCommandBuffer(v.Handle, &beginInfo); res != vk.Success {
		return ResultError(res, "vkBeginCommandBuffer")
	}
	v.State = CommandBufferStateRecording
	return nil
}

func (v *VulkanCommandBuffer) end() error {
	if res := vk.EndCommandBuffer(v.Handle); res != vk.Success {
		return ResultError(res, "vkEndCommandBuffer")
	}
	v.State = CommandBufferStateRecordingEnded
	return nil
}

// RecordFrame re-records the frame's command buffer: one render pass
// clearing the target, the pipeline, the camera block and a single draw.
func (d *Device) RecordFrame(rec *metadata.FrameRecording) error {
	cb, err := lookup(d.tables.commandBuffers, rec.CommandBuffer, "command buffer")
	if err != nil {
		return err
	}
	if cb.State == CommandBufferStateSubmitted {
		// The owning frame waits on its fence before recording again, so
		// the previous submission has completed by now.
		cb.State = CommandBufferStateReady
	}
	pass, err := lookup(d.tables.renderPasses, rec.RenderPass, "render pass")
	if err != nil {
		return err
	}
	framebuffer, err := lookup(d.tables.framebuffers, rec.Framebuffer, "framebuffer")
	if err != nil {
		return err
	}
	pipeline, err := lookup(d.tables.pipelines, rec.Pipeline, "pipeline")
	if err != nil {
		return err
	}
	var layout vk.PipelineLayout
	if rec.PushConstants {
		if layout, err = lookup(d.tables.layouts, rec.Layout, "pipeline layout"); err != nil {
			return err
		}
	}
	var vertexBuffer *VulkanBuffer
	if !rec.VertexBuffer.IsNull() {
		if vertexBuffer, err = lookup(d.tables.buffers, rec.VertexBuffer, "buffer"); err != nil {
			return err
		}
	}

	if err := cb.begin(); err != nil {
		return err
	}
	cmd := cb.Handle

	renderpassBegin(cmd, pass, framebuffer, rec.Extent, rec.ClearColor)
	cb.State = CommandBufferStateInRenderPass

	vk.CmdBindPipeline(cmd, vk.PipelineBindPointGraphics, pipeline)
	if rec.DynamicViewport {
		vk.CmdSetViewport(cmd, 0, 1, []vk.Viewport{toVkViewport(metadata.FullViewport(rec.Extent))})
		vk.CmdSetScissor(cmd, 0, 1, []vk.Rect2D{fullScissor(rec.Extent)})
	}
	if rec.PushConstants {
		camera := rec.Camera
		vk.CmdPushConstants(cmd, layout, pushConstantStages, 0, metadata.CameraUniformsSize, unsafe.Pointer(&camera))
	}

	count := rec.VertexCount
	if vertexBuffer != nil {
		vk.CmdBindVertexBuffers(cmd, 0, 1, []vk.Buffer{vertexBuffer.Handle}, []vk.DeviceSize{0})
	} else if count == 0 {
		count = metadata.HardcodedTriangleVertexCount
	}
	vk.CmdDraw(cmd, count, 1, 0, 0)

	renderpassEnd(cmd)
	cb.State = CommandBufferStateRecording
	return cb.end()
}

// Submit queues the recorded buffer on the graphics queue. The wait
// happens at colour attachment output so vertex work can start before the
// image is released by the presentation engine.
func (d *Device) Submit(info *metadata.SubmitInfo) error {
	cb, err := lookup(d.tables.commandBuffers, info.CommandBuffer, "command buffer")
	if err != nil {
		return err
	}
	if cb.State != CommandBufferStateRecordingEnded {
		return errors.Newf("command buffer %d is not ready for submission", info.CommandBuffer)
	}
	wait, err := lookup(d.tables.semaphores, info.WaitSemaphore, "semaphore")
	if err != nil {
		return err
	}
	signal, err := lookup(d.tables.semaphores, info.SignalSemaphore, "semaphore")
	if err != nil {
		return err
	}
	fence, err := lookup(d.tables.fences, info.Fence, "fence")
	if err != nil {
		return err
	}

	submitInfo := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{wait},
		PWaitDstStageMask:    []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{cb.Handle},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{signal},
	}

	vd := d.context.Device
	err = d.context.locks.SafeQueueCall(vd.Families.Graphics, func() error {
		if res := vk.QueueSubmit(vd.GraphicsQueue, 1, []vk.SubmitInfo{submitInfo}, fence.Handle); res != vk.Success {
			return ResultError(res, "vkQueueSubmit")
		}
		return nil
	})
	if err != nil {
		return err
	}
	fence.IsSignaled = false
	cb.State = CommandBufferStateSubmitted
	return nil
}

func (d *Device) WaitIdle() error {
	if res := vk.DeviceWaitIdle(d.context.Device.LogicalDevice); res != vk.Success {
		return ResultError(res, "vkDeviceWaitIdle")
	}
	return nil
}
