package renderer

import (
	"github.com/cockroachdb/errors"

	"github.com/spaghettifunk/vkframe/engine/core"
	"github.com/spaghettifunk/vkframe/engine/math"
	"github.com/spaghettifunk/vkframe/engine/renderer/metadata"
)

// DefaultPresentModeOrder trades latency for availability. FIFO is always
// supported so it is also the final fallback.
var DefaultPresentModeOrder = []metadata.PresentMode{
	metadata.PresentModeMailbox,
	metadata.PresentModeFifo,
	metadata.PresentModeImmediate,
}

type SwapchainPreferences struct {
	// Tried in order, the first supported one wins.
	PresentModes []metadata.PresentMode
}

// NewSwapchainPreferences puts the configured mode, if any, in front of the
// default ordering.
func NewSwapchainPreferences(configured *metadata.PresentMode) SwapchainPreferences {
	order := make([]metadata.PresentMode, 0, len(DefaultPresentModeOrder)+1)
	if configured != nil {
		order = append(order, *configured)
	}
	for _, m := range DefaultPresentModeOrder {
		if configured != nil && m == *configured {
			continue
		}
		order = append(order, m)
	}
	return SwapchainPreferences{PresentModes: order}
}

type swapchainBuilder interface {
	SurfaceQuerier
	SwapchainDevice
}

// SwapchainResources is the swapchain plus its images and views. It is
// never mutated after creation; a rebuild produces a new value.
type SwapchainResources struct {
	Handle        metadata.Handle
	SurfaceFormat metadata.SurfaceFormat
	PresentMode   metadata.PresentMode
	Extent        metadata.Extent2D
	Images        []metadata.Handle
	Views         []metadata.Handle
	// Incremented on every rebuild. Targets record the generation they
	// were built against.
	Generation uint64

	// Set once the handle was handed to CreateSwapchain as the old swapchain.
	retired bool
}

func (s *SwapchainResources) ImageCount() int {
	return len(s.Images)
}

// SelectSurfaceFormat prefers BGRA8 unorm with sRGB nonlinear colour space.
// A lone UNDEFINED entry means the surface accepts anything.
func SelectSurfaceFormat(available []metadata.SurfaceFormat) metadata.SurfaceFormat {
	if len(available) == 0 {
		return metadata.PreferredSurfaceFormat
	}
	if len(available) == 1 && available[0].Format == metadata.FormatUndefined {
		return metadata.PreferredSurfaceFormat
	}
	for _, f := range available {
		if f == metadata.PreferredSurfaceFormat {
			return f
		}
	}
	return available[0]
}

func SelectPresentMode(available []metadata.PresentMode, order []metadata.PresentMode) metadata.PresentMode {
	if len(order) == 0 {
		order = DefaultPresentModeOrder
	}
	for _, want := range order {
		for _, m := range available {
			if m == want {
				return m
			}
		}
	}
	return metadata.PresentModeFifo
}

// SelectExtent honours preferred only when the surface leaves the size to
// the swapchain; otherwise the surface's current extent wins.
func SelectExtent(caps metadata.SurfaceCapabilities, preferred metadata.Extent2D) metadata.Extent2D {
	if !caps.HasVariableExtent() {
		return caps.CurrentExtent
	}
	return metadata.Extent2D{
		Width:  math.Clamp(preferred.Width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: math.Clamp(preferred.Height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

// SelectImageCount asks for one image above the minimum, capped by the
// maximum when the surface has one.
func SelectImageCount(caps metadata.SurfaceCapabilities) uint32 {
	count := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}

func SharingModeFor(families metadata.QueueFamilies) (metadata.SharingMode, []uint32) {
	if families.Graphics != families.Present {
		return metadata.SharingModeConcurrent, families.Unique()
	}
	return metadata.SharingModeExclusive, nil
}

func extentSupported(caps metadata.SurfaceCapabilities, e metadata.Extent2D) bool {
	if e.IsZero() {
		return false
	}
	return e.Width >= caps.MinImageExtent.Width && e.Width <= caps.MaxImageExtent.Width &&
		e.Height >= caps.MinImageExtent.Height && e.Height <= caps.MaxImageExtent.Height
}

func CreateSwapchainResources(device swapchainBuilder, preferred metadata.Extent2D, prefs SwapchainPreferences) (*SwapchainResources, error) {
	return buildSwapchain(device, nil, preferred, prefs)
}

// RecreateSwapchainResources hands old to the presentation engine as the
// swapchain being replaced. old stays valid and is destroyed by the caller
// once nothing in flight references it.
func RecreateSwapchainResources(old *SwapchainResources, device swapchainBuilder, preferred metadata.Extent2D, prefs SwapchainPreferences) (*SwapchainResources, error) {
	return buildSwapchain(device, old, preferred, prefs)
}

func buildSwapchain(device swapchainBuilder, old *SwapchainResources, preferred metadata.Extent2D, prefs SwapchainPreferences) (*SwapchainResources, error) {
	support, err := device.SurfaceSupport()
	if err != nil {
		return nil, errors.Wrap(err, "querying surface support")
	}
	caps := support.Capabilities

	extent := SelectExtent(caps, preferred)
	if !extentSupported(caps, extent) {
		return nil, errors.Wrapf(core.ErrImageExtentNotSupported,
			"extent %s outside [%s, %s]", extent, caps.MinImageExtent, caps.MaxImageExtent)
	}

	sharing, indices := SharingModeFor(device.QueueFamilies())
	info := &metadata.SwapchainCreateInfo{
		SurfaceFormat:      SelectSurfaceFormat(support.Formats),
		PresentMode:        SelectPresentMode(support.PresentModes, prefs.PresentModes),
		Extent:             extent,
		ImageCount:         SelectImageCount(caps),
		SharingMode:        sharing,
		QueueFamilyIndices: indices,
		PreTransform:       caps.CurrentTransform,
	}
	generation := uint64(1)
	if old != nil {
		generation = old.Generation + 1
		if !old.retired {
			info.OldSwapchain = old.Handle
		}
	}

	handle, err := device.CreateSwapchain(info)
	if old != nil && !info.OldSwapchain.IsNull() {
		// Retired whether or not creation succeeded.
		old.retired = true
	}
	if err != nil {
		if errors.Is(err, core.ErrImageExtentNotSupported) {
			return nil, err
		}
		return nil, errors.Mark(errors.Wrap(err, "creating swapchain"), core.ErrSwapchainCreation)
	}

	sc := &SwapchainResources{
		Handle:        handle,
		SurfaceFormat: info.SurfaceFormat,
		PresentMode:   info.PresentMode,
		Extent:        extent,
		Generation:    generation,
	}

	images, err := device.SwapchainImages(handle)
	if err != nil {
		sc.Destroy(device)
		return nil, errors.Mark(errors.Wrap(err, "getting swapchain images"), core.ErrSwapchainCreation)
	}
	sc.Images = images
	sc.Views = make([]metadata.Handle, 0, len(images))
	for i, image := range images {
		view, err := device.CreateImageView(image, info.SurfaceFormat.Format)
		if err != nil {
			sc.Destroy(device)
			return nil, errors.Mark(errors.Wrapf(err, "creating view for swapchain image %d", i), core.ErrSwapchainCreation)
		}
		sc.Views = append(sc.Views, view)
	}

	if uint32(len(images)) != info.ImageCount {
		core.LogDebug("swapchain returned %d images, requested %d", len(images), info.ImageCount)
	}
	core.Logger().Info("swapchain created",
		"generation", generation,
		"format", info.SurfaceFormat.Format,
		"color_space", info.SurfaceFormat.ColorSpace,
		"present_mode", info.PresentMode,
		"extent", extent,
		"images", len(images),
		"sharing", sharing,
	)
	return sc, nil
}

// Destroy releases the views first and then the swapchain. Safe to call on
// a partially built value.
func (s *SwapchainResources) Destroy(device SwapchainDevice) {
	if s == nil {
		return
	}
	for i := len(s.Views) - 1; i >= 0; i-- {
		device.DestroyImageView(s.Views[i])
	}
	s.Views = nil
	s.Images = nil
	if !s.Handle.IsNull() {
		device.DestroySwapchain(s.Handle)
		s.Handle = metadata.NullHandle
	}
}
