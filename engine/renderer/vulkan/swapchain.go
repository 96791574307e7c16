package vulkan

import (
	"time"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/vkframe/engine/core"
	"github.com/spaghettifunk/vkframe/engine/renderer/metadata"
)

type VulkanSwapchain struct {
	Handle vk.Swapchain
	// Handles of the images owned by the swapchain, registered on creation.
	Images []metadata.Handle
}

func (d *Device) CreateSwapchain(info *metadata.SwapchainCreateInfo) (metadata.Handle, error) {
	old := vk.NullSwapchain
	if !info.OldSwapchain.IsNull() {
		sc, err := lookup(d.tables.swapchains, info.OldSwapchain, "swapchain")
		if err != nil {
			return metadata.NullHandle, err
		}
		old = sc.Handle
	}

	createInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          d.context.Surface,
		MinImageCount:    info.ImageCount,
		ImageFormat:      vk.Format(info.SurfaceFormat.Format),
		ImageColorSpace:  vk.ColorSpace(info.SurfaceFormat.ColorSpace),
		ImageExtent:      toVkExtent(info.Extent),
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     vk.SurfaceTransformFlagBits(info.PreTransform),
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      vk.PresentMode(info.PresentMode),
		Clipped:          vk.True,
		OldSwapchain:     old,
	}
	if info.SharingMode == metadata.SharingModeConcurrent {
		createInfo.ImageSharingMode = vk.SharingModeConcurrent
		createInfo.QueueFamilyIndexCount = uint32(len(info.QueueFamilyIndices))
		createInfo.PQueueFamilyIndices = info.QueueFamilyIndices
	}

	swapchain := &VulkanSwapchain{}
	err := d.context.locks.SafeCall(SwapchainManagement, func() error {
		var handle vk.Swapchain
		if res := vk.CreateSwapchain(d.context.Device.LogicalDevice, &createInfo, d.context.Allocator, &handle); res != vk.Success {
			return ResultError(res, "vkCreateSwapchainKHR")
		}
		swapchain.Handle = handle
		return nil
	})
	if err != nil {
		return metadata.NullHandle, err
	}

	var count uint32
	if res := vk.GetSwapchainImages(d.context.Device.LogicalDevice, swapchain.Handle, &count, nil); res != vk.Success {
		vk.DestroySwapchain(d.context.Device.LogicalDevice, swapchain.Handle, d.context.Allocator)
		return metadata.NullHandle, ResultError(res, "vkGetSwapchainImagesKHR")
	}
	images := make([]vk.Image, count)
	if res := vk.GetSwapchainImages(d.context.Device.LogicalDevice, swapchain.Handle, &count, images); res != vk.Success {
		vk.DestroySwapchain(d.context.Device.LogicalDevice, swapchain.Handle, d.context.Allocator)
		return metadata.NullHandle, ResultError(res, "vkGetSwapchainImagesKHR")
	}
	for _, image := range images[:count] {
		swapchain.Images = append(swapchain.Images, register(d.tables.images, image))
	}
	return register(d.tables.swapchains, swapchain), nil
}

func (d *Device) SwapchainImages(swapchain metadata.Handle) ([]metadata.Handle, error) {
	sc, err := lookup(d.tables.swapchains, swapchain, "swapchain")
	if err != nil {
		return nil, err
	}
	return append([]metadata.Handle(nil), sc.Images...), nil
}

func (d *Device) CreateImageView(image metadata.Handle, format metadata.Format) (metadata.Handle, error) {
	img, err := lookup(d.tables.images, image, "image")
	if err != nil {
		return metadata.NullHandle, err
	}
	viewInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    img,
		ViewType: vk.ImageViewType2d,
		Format:   vk.Format(format),
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}
	var view vk.ImageView
	if res := vk.CreateImageView(d.context.Device.LogicalDevice, &viewInfo, d.context.Allocator, &view); res != vk.Success {
		return metadata.NullHandle, ResultError(res, "vkCreateImageView")
	}
	return register(d.tables.views, view), nil
}

func (d *Device) DestroyImageView(view metadata.Handle) {
	if v, ok := unregister(d.tables.views, view, "image view"); ok {
		vk.DestroyImageView(d.context.Device.LogicalDevice, v, d.context.Allocator)
	}
}

// DestroySwapchain also forgets the swapchain's images; they are owned by it.
func (d *Device) DestroySwapchain(swapchain metadata.Handle) {
	sc, ok := unregister(d.tables.swapchains, swapchain, "swapchain")
	if !ok {
		return
	}
	for _, image := range sc.Images {
		unregister(d.tables.images, image, "image")
	}
	_ = d.context.locks.SafeCall(SwapchainManagement, func() error {
		vk.DestroySwapchain(d.context.Device.LogicalDevice, sc.Handle, d.context.Allocator)
		return nil
	})
}

func (d *Device) AcquireNextImage(swapchain, semaphore metadata.Handle, timeout time.Duration) (uint32, metadata.PresentStatus, error) {
	sc, err := lookup(d.tables.swapchains, swapchain, "swapchain")
	if err != nil {
		return 0, metadata.PresentSuccess, err
	}
	sem, err := lookup(d.tables.semaphores, semaphore, "semaphore")
	if err != nil {
		return 0, metadata.PresentSuccess, err
	}
	var index uint32
	res := vk.AcquireNextImage(d.context.Device.LogicalDevice, sc.Handle, timeoutNanos(timeout), sem, vk.NullFence, &index)
	status, err := presentStatus(res, "vkAcquireNextImageKHR")
	if res == vk.Timeout || res == vk.NotReady {
		err = errors.Newf("vkAcquireNextImageKHR returned %s after %s", VulkanResultString(res, false), timeout)
	}
	return index, status, err
}

func (d *Device) Present(info *metadata.PresentInfo) (metadata.PresentStatus, error) {
	sc, err := lookup(d.tables.swapchains, info.Swapchain, "swapchain")
	if err != nil {
		return metadata.PresentSuccess, err
	}
	sem, err := lookup(d.tables.semaphores, info.WaitSemaphore, "semaphore")
	if err != nil {
		return metadata.PresentSuccess, err
	}

	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{sem},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{sc.Handle},
		PImageIndices:      []uint32{info.ImageIndex},
	}
	var res vk.Result
	vd := d.context.Device
	_ = d.context.locks.SafeQueueCall(vd.Families.Present, func() error {
		res = vk.QueuePresent(vd.PresentQueue, &presentInfo)
		return nil
	})
	status, err := presentStatus(res, "vkQueuePresentKHR")
	if status == metadata.PresentOutOfDate {
		core.LogDebug("present reported an out of date swapchain")
	}
	return status, err
}
