package vulkan

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/vkframe/engine/core"
	"github.com/spaghettifunk/vkframe/engine/renderer/metadata"
)

type VulkanBuffer struct {
	Handle vk.Buffer
	Memory vk.DeviceMemory
	Size   uint64
}

// CreateVertexBuffer uploads vertices into host visible, coherent memory.
// Meshes here are small and static, so no staging copy is made.
func (d *Device) CreateVertexBuffer(vertices []metadata.Vertex) (metadata.Handle, error) {
	data := metadata.VertexBytes(vertices)
	if len(data) == 0 {
		return metadata.NullHandle, errors.New("cannot create an empty vertex buffer")
	}
	device := d.context.Device.LogicalDevice
	buffer := &VulkanBuffer{Size: uint64(len(data))}

	err := d.context.locks.SafeCall(BufferManagement, func() error {
		bufferInfo := vk.BufferCreateInfo{
			SType:       vk.StructureTypeBufferCreateInfo,
			Usage:       vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit),
			Size:        vk.DeviceSize(len(data)),
			SharingMode: vk.SharingModeExclusive,
		}
		if res := vk.CreateBuffer(device, &bufferInfo, d.context.Allocator, &buffer.Handle); res != vk.Success {
			return ResultError(res, "vkCreateBuffer")
		}

		var requirements vk.MemoryRequirements
		vk.GetBufferMemoryRequirements(device, buffer.Handle, &requirements)
		requirements.Deref()

		memoryType, ok := d.context.FindMemoryIndex(requirements.MemoryTypeBits,
			vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)|vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit))
		if !ok {
			vk.DestroyBuffer(device, buffer.Handle, d.context.Allocator)
			return errors.New("no host visible memory type for the vertex buffer")
		}

		allocateInfo := vk.MemoryAllocateInfo{
			SType:           vk.StructureTypeMemoryAllocateInfo,
			AllocationSize:  requirements.Size,
			MemoryTypeIndex: memoryType,
		}
		if res := vk.AllocateMemory(device, &allocateInfo, d.context.Allocator, &buffer.Memory); res != vk.Success {
			vk.DestroyBuffer(device, buffer.Handle, d.context.Allocator)
			return ResultError(res, "vkAllocateMemory")
		}
		if res := vk.BindBufferMemory(device, buffer.Handle, buffer.Memory, 0); res != vk.Success {
			d.releaseBuffer(buffer)
			return ResultError(res, "vkBindBufferMemory")
		}

		var mapped unsafe.Pointer
		if res := vk.MapMemory(device, buffer.Memory, 0, vk.DeviceSize(len(data)), 0, &mapped); res != vk.Success {
			d.releaseBuffer(buffer)
			return ResultError(res, "vkMapMemory")
		}
		n := vk.Memcopy(mapped, data)
		vk.UnmapMemory(device, buffer.Memory)
		if n != len(data) {
			d.releaseBuffer(buffer)
			return errors.Newf("copied %d of %d vertex bytes", n, len(data))
		}
		return nil
	})
	if err != nil {
		return metadata.NullHandle, err
	}
	core.LogDebug("vertex buffer created with %d vertices", len(vertices))
	return register(d.tables.buffers, buffer), nil
}

func (d *Device) releaseBuffer(buffer *VulkanBuffer) {
	device := d.context.Device.LogicalDevice
	if buffer.Handle != vk.NullBuffer {
		vk.DestroyBuffer(device, buffer.Handle, d.context.Allocator)
		buffer.Handle = vk.NullBuffer
	}
	if buffer.Memory != vk.NullDeviceMemory {
		vk.FreeMemory(device, buffer.Memory, d.context.Allocator)
		buffer.Memory = vk.NullDeviceMemory
	}
}

func (d *Device) DestroyBuffer(buffer metadata.Handle) {
	b, ok := unregister(d.tables.buffers, buffer, "buffer")
	if !ok {
		return
	}
	_ = d.context.locks.SafeCall(BufferManagement, func() error {
		d.releaseBuffer(b)
		return nil
	})
}
