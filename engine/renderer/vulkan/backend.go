package vulkan

import (
	"runtime"
	"strings"
	"sync/atomic"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/vkframe/engine/config"
	"github.com/spaghettifunk/vkframe/engine/core"
	"github.com/spaghettifunk/vkframe/engine/renderer"
	"github.com/spaghettifunk/vkframe/engine/renderer/metadata"
)

const (
	engineName           = "vkframe"
	validationLayerName  = "VK_LAYER_KHRONOS_validation"
	surfaceExtensionName = "VK_KHR_surface"
)

// Window is the part of the platform window the device needs. A
// *glfw.Window satisfies it.
type Window interface {
	GetRequiredInstanceExtensions() []string
	CreateWindowSurface(instance interface{}, allocCallbacks unsafe.Pointer) (uintptr, error)
}

type Config struct {
	ApplicationName string
	Validation      config.Validation
}

// Device implements renderer.GraphicsDevice on top of goki/vulkan.
type Device struct {
	context *VulkanContext
	tables  *handleTables
	debug   bool
}

var _ renderer.GraphicsDevice = (*Device)(nil)

// NewDevice creates the instance, the optional debug callback, the window
// surface and the logical device with its queues. Anything created before
// a failure is released again.
func NewDevice(cfg Config, window Window) (device *Device, err error) {
	if window == nil {
		return nil, core.ErrNoWindow
	}
	procAddr := glfw.GetVulkanGetInstanceProcAddress()
	if procAddr == nil {
		return nil, errors.New("GetInstanceProcAddress is nil")
	}
	vk.SetGetInstanceProcAddr(procAddr)
	if err := vk.Init(); err != nil {
		return nil, errors.Wrap(err, "failed to initialize vk")
	}

	d := &Device{
		context: &VulkanContext{
			// TODO: custom allocator.
			Allocator: nil,
			locks:     NewVulkanLockPool(),
		},
		tables: newHandleTables(),
		debug:  cfg.Validation.Enabled,
	}
	defer func() {
		if err != nil {
			d.Destroy()
		}
	}()

	if err := d.createInstance(cfg, window.GetRequiredInstanceExtensions()); err != nil {
		return nil, err
	}
	if d.debug {
		if err := d.createDebugCallback(cfg.Validation); err != nil {
			return nil, err
		}
	}

	core.LogDebug("Creating Vulkan surface...")
	surface, err := window.CreateWindowSurface(d.context.Instance, nil)
	if err != nil {
		return nil, errors.Wrap(err, "vulkan surface creation failed")
	}
	d.context.Surface = vk.SurfaceFromPointer(surface)
	core.LogDebug("Vulkan surface created.")

	vd, err := DeviceCreate(d.context)
	if err != nil {
		return nil, err
	}
	d.context.Device = vd
	return d, nil
}

func (d *Device) createInstance(cfg Config, windowExtensions []string) error {
	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 0, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(cfg.ApplicationName),
		PEngineName:        VulkanSafeString(engineName),
	}

	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	// Generic surface extension plus whatever the window system needs.
	requiredExtensions := []string{surfaceExtensionName}
	for _, ext := range windowExtensions {
		if strings.TrimRight(ext, "\x00") != surfaceExtensionName {
			requiredExtensions = append(requiredExtensions, ext)
		}
	}
	if runtime.GOOS == "darwin" {
		requiredExtensions = append(requiredExtensions,
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		)
		// VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR
		createInfo.Flags |= 1
	}

	var layers []string
	if d.debug {
		requiredExtensions = append(requiredExtensions, vk.ExtDebugReportExtensionName)
		if hasInstanceLayer(validationLayerName) {
			layers = append(layers, validationLayerName)
			core.LogInfo("Validation layers enabled.")
		} else {
			core.LogWarn("Validation layer %s is missing, continuing without it.", validationLayerName)
		}
	}
	core.Logger().Debug("instance extensions", "extensions", strings.Join(requiredExtensions, ","))

	createInfo.EnabledExtensionCount = uint32(len(requiredExtensions))
	createInfo.PpEnabledExtensionNames = VulkanSafeStrings(requiredExtensions)
	createInfo.EnabledLayerCount = uint32(len(layers))
	createInfo.PpEnabledLayerNames = VulkanSafeStrings(layers)

	var instance vk.Instance
	if res := vk.CreateInstance(&createInfo, d.context.Allocator, &instance); res != vk.Success {
		return ResultError(res, "vkCreateInstance")
	}
	d.context.Instance = instance
	if err := vk.InitInstance(instance); err != nil {
		return errors.Wrap(err, "failed to load instance functions")
	}
	core.LogInfo("Vulkan Instance created.")
	return nil
}

func hasInstanceLayer(name string) bool {
	var count uint32
	if res := vk.EnumerateInstanceLayerProperties(&count, nil); res != vk.Success {
		return false
	}
	available := make([]vk.LayerProperties, count)
	if res := vk.EnumerateInstanceLayerProperties(&count, available); res != vk.Success {
		return false
	}
	for i := range available {
		available[i].Deref()
		if cString(available[i].LayerName[:]) == name {
			return true
		}
	}
	return false
}

// debugFilter is read by the debug callback, which cannot carry Go state.
var debugFilter atomic.Value

func debugReportFlags(v config.Validation) vk.DebugReportFlags {
	var flags vk.DebugReportFlagBits
	if v.Error {
		flags |= vk.DebugReportErrorBit
	}
	if v.Warning {
		flags |= vk.DebugReportWarningBit
	}
	if v.Info {
		flags |= vk.DebugReportInformationBit
	}
	if v.Verbose {
		flags |= vk.DebugReportDebugBit
	}
	if v.Performance {
		flags |= vk.DebugReportPerformanceWarningBit
	}
	return vk.DebugReportFlags(flags)
}

func (d *Device) createDebugCallback(v config.Validation) error {
	core.LogDebug("Creating Vulkan debugger...")
	debugFilter.Store(v)

	debugCreateInfo := vk.DebugReportCallbackCreateInfo{
		SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags:       debugReportFlags(v),
		PfnCallback: dbgCallbackFunc,
	}
	var dbg vk.DebugReportCallback
	if res := vk.CreateDebugReportCallback(d.context.Instance, &debugCreateInfo, nil, &dbg); res != vk.Success {
		return ResultError(res, "vkCreateDebugReportCallback")
	}
	d.context.debugMessenger = dbg
	core.LogDebug("Vulkan debugger created.")
	return nil
}

// acceptsLayer splits messages into validation and general ones by the
// reporting layer.
func acceptsLayer(prefix string) bool {
	v, ok := debugFilter.Load().(config.Validation)
	if !ok {
		return true
	}
	if strings.Contains(strings.ToLower(prefix), "validation") {
		return v.Validation
	}
	return v.General
}

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	if flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) == 0 && !acceptsLayer(pLayerPrefix) {
		return vk.Bool32(vk.False)
	}
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		core.LogError("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		core.LogWarn("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		core.LogWarn("PERFORMANCE [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportDebugBit) != 0:
		core.LogDebug("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	default:
		core.LogInfo("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}

func (d *Device) QueueFamilies() metadata.QueueFamilies {
	return d.context.Device.Families
}

func (d *Device) SurfaceSupport() (*metadata.SurfaceSupport, error) {
	return DeviceQuerySwapchainSupport(d.context.Device.PhysicalDevice, d.context.Surface)
}

// Destroy releases the logical device, surface, debug callback and instance.
// Every object created from the device must be gone already.
func (d *Device) Destroy() {
	if n := d.tables.leaked(); n > 0 {
		core.LogWarn("destroying the device with %d objects still alive", n)
	}
	if d.context.Device != nil {
		d.context.Device.Destroy(d.context)
		d.context.Device = nil
	}
	if d.context.Surface != vk.NullSurface {
		vk.DestroySurface(d.context.Instance, d.context.Surface, d.context.Allocator)
		d.context.Surface = vk.NullSurface
	}
	if d.context.debugMessenger != vk.NullDebugReportCallback {
		vk.DestroyDebugReportCallback(d.context.Instance, d.context.debugMessenger, d.context.Allocator)
		d.context.debugMessenger = vk.NullDebugReportCallback
	}
	if d.context.Instance != nil {
		vk.DestroyInstance(d.context.Instance, d.context.Allocator)
		d.context.Instance = nil
	}
	core.LogInfo("Vulkan device destroyed.")
}
