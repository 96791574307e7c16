package vulkan

import (
	"time"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/vkframe/engine/core"
	"github.com/spaghettifunk/vkframe/engine/renderer/metadata"
)

type VulkanFence struct {
	Handle vk.Fence
	// Cached so waits on an already signalled fence skip the driver call.
	IsSignaled bool
}

func (d *Device) CreateSemaphore() (metadata.Handle, error) {
	semaphoreCreateInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	var semaphore vk.Semaphore
	err := d.context.locks.SafeCall(SynchronizationManagement, func() error {
		if res := vk.CreateSemaphore(d.context.Device.LogicalDevice, &semaphoreCreateInfo, d.context.Allocator, &semaphore); res != vk.Success {
			return ResultError(res, "vkCreateSemaphore")
		}
		return nil
	})
	if err != nil {
		return metadata.NullHandle, err
	}
	return register(d.tables.semaphores, semaphore), nil
}

func (d *Device) DestroySemaphore(semaphore metadata.Handle) {
	s, ok := unregister(d.tables.semaphores, semaphore, "semaphore")
	if !ok {
		return
	}
	_ = d.context.locks.SafeCall(SynchronizationManagement, func() error {
		vk.DestroySemaphore(d.context.Device.LogicalDevice, s, d.context.Allocator)
		return nil
	})
}

func (d *Device) CreateFence(signaled bool) (metadata.Handle, error) {
	fence := &VulkanFence{
		// Make sure to signal the fence if required.
		IsSignaled: signaled,
	}

	fenceCreateInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if fence.IsSignaled {
		fenceCreateInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}

	err := d.context.locks.SafeCall(SynchronizationManagement, func() error {
		var handle vk.Fence
		if res := vk.CreateFence(d.context.Device.LogicalDevice, &fenceCreateInfo, d.context.Allocator, &handle); res != vk.Success {
			return ResultError(res, "vkCreateFence")
		}
		fence.Handle = handle
		return nil
	})
	if err != nil {
		return metadata.NullHandle, err
	}
	return register(d.tables.fences, fence), nil
}

func (d *Device) DestroyFence(fence metadata.Handle) {
	f, ok := unregister(d.tables.fences, fence, "fence")
	if !ok {
		return
	}
	_ = d.context.locks.SafeCall(SynchronizationManagement, func() error {
		vk.DestroyFence(d.context.Device.LogicalDevice, f.Handle, d.context.Allocator)
		return nil
	})
	f.Handle = vk.NullFence
	f.IsSignaled = false
}

// WaitForFences waits for all fences at once. Fences already known to be
// signalled are left out of the driver call.
func (d *Device) WaitForFences(fences []metadata.Handle, timeout time.Duration) error {
	pending := make([]*VulkanFence, 0, len(fences))
	handles := make([]vk.Fence, 0, len(fences))
	for _, h := range fences {
		f, err := lookup(d.tables.fences, h, "fence")
		if err != nil {
			return err
		}
		if f.IsSignaled {
			continue
		}
		pending = append(pending, f)
		handles = append(handles, f.Handle)
	}
	if len(handles) == 0 {
		return nil
	}

	result := vk.WaitForFences(d.context.Device.LogicalDevice, uint32(len(handles)), handles, vk.True, timeoutNanos(timeout))
	switch result {
	case vk.Success:
		for _, f := range pending {
			f.IsSignaled = true
		}
		return nil
	case vk.Timeout:
		core.LogWarn("vkWaitForFences timed out after %s", timeout)
		return errors.Newf("waiting on %d fences timed out after %s", len(handles), timeout)
	default:
		return ResultError(result, "vkWaitForFences")
	}
}

func (d *Device) ResetFence(fence metadata.Handle) error {
	f, err := lookup(d.tables.fences, fence, "fence")
	if err != nil {
		return err
	}
	if res := vk.ResetFences(d.context.Device.LogicalDevice, 1, []vk.Fence{f.Handle}); res != vk.Success {
		return ResultError(res, "vkResetFences")
	}
	f.IsSignaled = false
	return nil
}
