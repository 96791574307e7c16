package vulkan

import (
	"fmt"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/vkframe/engine/core"
	"github.com/spaghettifunk/vkframe/engine/renderer/metadata"
)

const portabilitySubsetExtensionName = "VK_KHR_portability_subset"

type VulkanDevice struct {
	PhysicalDevice vk.PhysicalDevice
	LogicalDevice  vk.Device
	Families       metadata.QueueFamilies

	GraphicsQueue vk.Queue
	PresentQueue  vk.Queue

	GraphicsCommandPool vk.CommandPool

	Properties vk.PhysicalDeviceProperties
	Memory     vk.PhysicalDeviceMemoryProperties
}

// deviceTypeRank orders device types by preference, highest first.
func deviceTypeRank(t vk.PhysicalDeviceType) int {
	switch t {
	case vk.PhysicalDeviceTypeDiscreteGpu:
		return 4
	case vk.PhysicalDeviceTypeIntegratedGpu:
		return 3
	case vk.PhysicalDeviceTypeVirtualGpu:
		return 2
	case vk.PhysicalDeviceTypeCpu:
		return 1
	default:
		return 0
	}
}

func deviceTypeName(t vk.PhysicalDeviceType) string {
	switch t {
	case vk.PhysicalDeviceTypeDiscreteGpu:
		return "discrete"
	case vk.PhysicalDeviceTypeIntegratedGpu:
		return "integrated"
	case vk.PhysicalDeviceTypeVirtualGpu:
		return "virtual"
	case vk.PhysicalDeviceTypeCpu:
		return "cpu"
	default:
		return "other"
	}
}

func DeviceCreate(context *VulkanContext) (*VulkanDevice, error) {
	physical, err := SelectPhysicalDevice(context)
	if err != nil {
		return nil, err
	}
	families, ok := findQueueFamilies(physical, context.Surface)
	if !ok {
		return nil, core.ErrNoQueueFamilyFound
	}

	device := &VulkanDevice{
		PhysicalDevice: physical,
		Families:       families,
	}
	vk.GetPhysicalDeviceProperties(physical, &device.Properties)
	device.Properties.Deref()
	vk.GetPhysicalDeviceMemoryProperties(physical, &device.Memory)
	device.Memory.Deref()

	core.LogInfo("Creating logical device...")

	// NOTE: Do not create additional queues for shared indices.
	indices := families.Unique()
	queueCreateInfos := make([]vk.DeviceQueueCreateInfo, len(indices))
	for i, index := range indices {
		queueCreateInfos[i] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: index,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}
	}

	extensionNames := []string{vk.KhrSwapchainExtensionName}
	if available, err := deviceExtensions(physical); err == nil && available[portabilitySubsetExtensionName] {
		core.LogInfo("Adding required extension '%s'.", portabilitySubsetExtensionName)
		extensionNames = append(extensionNames, portabilitySubsetExtensionName)
	}

	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueCreateInfos)),
		PQueueCreateInfos:       queueCreateInfos,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{{}},
		EnabledExtensionCount:   uint32(len(extensionNames)),
		PpEnabledExtensionNames: VulkanSafeStrings(extensionNames),
	}

	var logical vk.Device
	if res := vk.CreateDevice(physical, &deviceCreateInfo, context.Allocator, &logical); res != vk.Success {
		return nil, ResultError(res, "vkCreateDevice")
	}
	device.LogicalDevice = logical
	core.LogInfo("Logical device created.")

	var graphicsQueue, presentQueue vk.Queue
	vk.GetDeviceQueue(logical, families.Graphics, 0, &graphicsQueue)
	vk.GetDeviceQueue(logical, families.Present, 0, &presentQueue)
	device.GraphicsQueue = graphicsQueue
	device.PresentQueue = presentQueue
	for _, index := range indices {
		context.locks.SetQueueFamily(index)
	}

	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: families.Graphics,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}
	var pool vk.CommandPool
	if res := vk.CreateCommandPool(logical, &poolCreateInfo, context.Allocator, &pool); res != vk.Success {
		vk.DestroyDevice(logical, context.Allocator)
		return nil, ResultError(res, "vkCreateCommandPool")
	}
	device.GraphicsCommandPool = pool
	core.LogInfo("Graphics command pool created.")

	return device, nil
}

func (vd *VulkanDevice) Destroy(context *VulkanContext) {
	core.LogInfo("Destroying command pools...")
	if vd.GraphicsCommandPool != vk.NullCommandPool {
		vk.DestroyCommandPool(vd.LogicalDevice, vd.GraphicsCommandPool, context.Allocator)
		vd.GraphicsCommandPool = vk.NullCommandPool
	}

	core.LogInfo("Destroying logical device...")
	vd.GraphicsQueue = nil
	vd.PresentQueue = nil
	if vd.LogicalDevice != nil {
		vk.DestroyDevice(vd.LogicalDevice, context.Allocator)
		vd.LogicalDevice = nil
	}
	// Physical devices are not destroyed.
	vd.PhysicalDevice = nil
}

// SelectPhysicalDevice picks the most preferred device type among the
// devices that can present to the surface.
func SelectPhysicalDevice(context *VulkanContext) (vk.PhysicalDevice, error) {
	var count uint32
	if res := vk.EnumeratePhysicalDevices(context.Instance, &count, nil); res != vk.Success {
		return nil, ResultError(res, "vkEnumeratePhysicalDevices")
	}
	if count == 0 {
		return nil, errors.Wrap(core.ErrNoSuitablePhysicalDevice, "no devices which support Vulkan were found")
	}
	devices := make([]vk.PhysicalDevice, count)
	if res := vk.EnumeratePhysicalDevices(context.Instance, &count, devices); res != vk.Success {
		return nil, ResultError(res, "vkEnumeratePhysicalDevices")
	}

	var (
		best      vk.PhysicalDevice
		bestRank  = -1
		bestProps vk.PhysicalDeviceProperties
	)
	for _, candidate := range devices {
		var properties vk.PhysicalDeviceProperties
		vk.GetPhysicalDeviceProperties(candidate, &properties)
		properties.Deref()
		name := cString(properties.DeviceName[:])

		if reason := PhysicalDeviceMeetsRequirements(candidate, context.Surface); reason != "" {
			core.LogInfo("Skipping device '%s': %s.", name, reason)
			continue
		}
		if rank := deviceTypeRank(properties.DeviceType); rank > bestRank {
			best, bestRank, bestProps = candidate, rank, properties
		}
	}
	if best == nil {
		return nil, core.ErrNoSuitablePhysicalDevice
	}

	core.Logger().Info("device selected",
		"name", cString(bestProps.DeviceName[:]),
		"type", deviceTypeName(bestProps.DeviceType),
		"api", formatVersion(bestProps.ApiVersion),
		"driver", formatVersion(bestProps.DriverVersion),
	)
	return best, nil
}

func formatVersion(v uint32) string {
	version := vk.Version(v)
	return fmt.Sprintf("%d.%d.%d", version.Major(), version.Minor(), version.Patch())
}

// PhysicalDeviceMeetsRequirements returns why the device cannot be used, or
// an empty string if it can.
func PhysicalDeviceMeetsRequirements(device vk.PhysicalDevice, surface vk.Surface) string {
	if _, ok := findQueueFamilies(device, surface); !ok {
		return "no graphics and present queue families"
	}
	available, err := deviceExtensions(device)
	if err != nil {
		return err.Error()
	}
	if !available[vk.KhrSwapchainExtensionName] {
		return "missing " + vk.KhrSwapchainExtensionName
	}
	support, err := DeviceQuerySwapchainSupport(device, surface)
	if err != nil {
		return err.Error()
	}
	if len(support.Formats) == 0 || len(support.PresentModes) == 0 {
		return "required swapchain support not present"
	}
	return ""
}

// findQueueFamilies prefers a single family that can do both graphics and
// present.
func findQueueFamilies(device vk.PhysicalDevice, surface vk.Surface) (metadata.QueueFamilies, bool) {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &count, nil)
	families := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &count, families)

	graphics, present := -1, -1
	for i := range families {
		families[i].Deref()
		isGraphics := vk.QueueFlagBits(families[i].QueueFlags)&vk.QueueGraphicsBit != 0

		var supportsPresent vk.Bool32
		if res := vk.GetPhysicalDeviceSurfaceSupport(device, uint32(i), surface, &supportsPresent); res != vk.Success {
			continue
		}
		canPresent := supportsPresent == vk.True

		if isGraphics && canPresent {
			return metadata.QueueFamilies{Graphics: uint32(i), Present: uint32(i)}, true
		}
		if isGraphics && graphics < 0 {
			graphics = i
		}
		if canPresent && present < 0 {
			present = i
		}
	}
	if graphics < 0 || present < 0 {
		return metadata.QueueFamilies{}, false
	}
	return metadata.QueueFamilies{Graphics: uint32(graphics), Present: uint32(present)}, true
}

func deviceExtensions(device vk.PhysicalDevice) (map[string]bool, error) {
	var count uint32
	if res := vk.EnumerateDeviceExtensionProperties(device, "", &count, nil); res != vk.Success {
		return nil, ResultError(res, "vkEnumerateDeviceExtensionProperties")
	}
	properties := make([]vk.ExtensionProperties, count)
	if count > 0 {
		if res := vk.EnumerateDeviceExtensionProperties(device, "", &count, properties); res != vk.Success {
			return nil, ResultError(res, "vkEnumerateDeviceExtensionProperties")
		}
	}
	names := make(map[string]bool, count)
	for i := range properties {
		properties[i].Deref()
		names[cString(properties[i].ExtensionName[:])] = true
	}
	return names, nil
}

// DeviceQuerySwapchainSupport reads what the surface supports right now.
func DeviceQuerySwapchainSupport(physicalDevice vk.PhysicalDevice, surface vk.Surface) (*metadata.SurfaceSupport, error) {
	var caps vk.SurfaceCapabilities
	if res := vk.GetPhysicalDeviceSurfaceCapabilities(physicalDevice, surface, &caps); res != vk.Success {
		return nil, ResultError(res, "vkGetPhysicalDeviceSurfaceCapabilities")
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()

	support := &metadata.SurfaceSupport{
		Capabilities: metadata.SurfaceCapabilities{
			MinImageCount:    caps.MinImageCount,
			MaxImageCount:    caps.MaxImageCount,
			CurrentExtent:    fromVkExtent(caps.CurrentExtent),
			MinImageExtent:   fromVkExtent(caps.MinImageExtent),
			MaxImageExtent:   fromVkExtent(caps.MaxImageExtent),
			CurrentTransform: uint32(caps.CurrentTransform),
		},
	}

	var formatCount uint32
	if res := vk.GetPhysicalDeviceSurfaceFormats(physicalDevice, surface, &formatCount, nil); res != vk.Success {
		return nil, ResultError(res, "vkGetPhysicalDeviceSurfaceFormats")
	}
	if formatCount > 0 {
		formats := make([]vk.SurfaceFormat, formatCount)
		if res := vk.GetPhysicalDeviceSurfaceFormats(physicalDevice, surface, &formatCount, formats); res != vk.Success {
			return nil, ResultError(res, "vkGetPhysicalDeviceSurfaceFormats")
		}
		for i := range formats {
			formats[i].Deref()
			support.Formats = append(support.Formats, metadata.SurfaceFormat{
				Format:     metadata.Format(formats[i].Format),
				ColorSpace: metadata.ColorSpace(formats[i].ColorSpace),
			})
		}
	}

	var modeCount uint32
	if res := vk.GetPhysicalDeviceSurfacePresentModes(physicalDevice, surface, &modeCount, nil); res != vk.Success {
		return nil, ResultError(res, "vkGetPhysicalDeviceSurfacePresentModes")
	}
	if modeCount > 0 {
		modes := make([]vk.PresentMode, modeCount)
		if res := vk.GetPhysicalDeviceSurfacePresentModes(physicalDevice, surface, &modeCount, modes); res != vk.Success {
			return nil, ResultError(res, "vkGetPhysicalDeviceSurfacePresentModes")
		}
		for _, m := range modes {
			support.PresentModes = append(support.PresentModes, metadata.PresentMode(m))
		}
	}
	return support, nil
}
