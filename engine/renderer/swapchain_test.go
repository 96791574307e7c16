package renderer

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/vkframe/engine/core"
	"github.com/spaghettifunk/vkframe/engine/renderer/metadata"
)

func TestSelectSurfaceFormat(t *testing.T) {
	srgb := metadata.SurfaceFormat{Format: metadata.FormatR8G8B8A8Srgb, ColorSpace: metadata.ColorSpaceSrgbNonlinear}

	tests := []struct {
		name      string
		available []metadata.SurfaceFormat
		want      metadata.SurfaceFormat
	}{
		{
			name:      "undefined means any",
			available: []metadata.SurfaceFormat{{Format: metadata.FormatUndefined, ColorSpace: metadata.ColorSpaceSrgbNonlinear}},
			want:      metadata.PreferredSurfaceFormat,
		},
		{
			name:      "preferred present",
			available: []metadata.SurfaceFormat{srgb, metadata.PreferredSurfaceFormat},
			want:      metadata.PreferredSurfaceFormat,
		},
		{
			name:      "first supported otherwise",
			available: []metadata.SurfaceFormat{srgb},
			want:      srgb,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SelectSurfaceFormat(tt.available))
		})
	}
}

func TestSelectPresentMode(t *testing.T) {
	order := NewSwapchainPreferences(nil).PresentModes

	assert.Equal(t, metadata.PresentModeFifo,
		SelectPresentMode([]metadata.PresentMode{metadata.PresentModeFifo, metadata.PresentModeImmediate}, order))
	assert.Equal(t, metadata.PresentModeMailbox,
		SelectPresentMode([]metadata.PresentMode{metadata.PresentModeImmediate, metadata.PresentModeMailbox}, order))
	assert.Equal(t, metadata.PresentModeImmediate,
		SelectPresentMode([]metadata.PresentMode{metadata.PresentModeImmediate}, order))
	assert.Equal(t, metadata.PresentModeFifo, SelectPresentMode(nil, order))
}

func TestSwapchainPreferencesConfiguredModeFirst(t *testing.T) {
	fifo := metadata.PresentModeFifo
	prefs := NewSwapchainPreferences(&fifo)
	assert.Equal(t, []metadata.PresentMode{
		metadata.PresentModeFifo,
		metadata.PresentModeMailbox,
		metadata.PresentModeImmediate,
	}, prefs.PresentModes)

	relaxed := metadata.PresentModeFifoRelaxed
	prefs = NewSwapchainPreferences(&relaxed)
	// Unsupported configured mode falls through to the default order.
	assert.Equal(t, metadata.PresentModeMailbox,
		SelectPresentMode([]metadata.PresentMode{metadata.PresentModeFifo, metadata.PresentModeMailbox}, prefs.PresentModes))
}

func TestSelectExtent(t *testing.T) {
	caps := metadata.SurfaceCapabilities{
		CurrentExtent:  metadata.Extent2D{Width: metadata.ExtentUndefined, Height: metadata.ExtentUndefined},
		MinImageExtent: metadata.Extent2D{Width: 64, Height: 64},
		MaxImageExtent: metadata.Extent2D{Width: 2048, Height: 1024},
	}

	for _, e := range []metadata.Extent2D{{Width: 64, Height: 64}, {Width: 800, Height: 600}, {Width: 2048, Height: 1024}} {
		assert.Equal(t, e, SelectExtent(caps, e))
	}
	assert.Equal(t, metadata.Extent2D{Width: 2048, Height: 64}, SelectExtent(caps, metadata.Extent2D{Width: 5000, Height: 10}))

	caps.CurrentExtent = metadata.Extent2D{Width: 1280, Height: 720}
	assert.Equal(t, caps.CurrentExtent, SelectExtent(caps, metadata.Extent2D{Width: 800, Height: 600}))
}

func TestSelectImageCount(t *testing.T) {
	assert.Equal(t, uint32(2), SelectImageCount(metadata.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 2}))
	assert.Equal(t, uint32(3), SelectImageCount(metadata.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 8}))
	assert.Equal(t, uint32(4), SelectImageCount(metadata.SurfaceCapabilities{MinImageCount: 3}))
}

func TestSharingModeFor(t *testing.T) {
	mode, indices := SharingModeFor(metadata.QueueFamilies{Graphics: 1, Present: 1})
	assert.Equal(t, metadata.SharingModeExclusive, mode)
	assert.Empty(t, indices)

	mode, indices = SharingModeFor(metadata.QueueFamilies{Graphics: 0, Present: 2})
	assert.Equal(t, metadata.SharingModeConcurrent, mode)
	assert.Equal(t, []uint32{0, 2}, indices)
}

func TestCreateSwapchainResources(t *testing.T) {
	device := newFakeDevice()
	device.support.Capabilities.MinImageCount = 2
	device.support.Capabilities.MaxImageCount = 2

	sc, err := CreateSwapchainResources(device, metadata.Extent2D{Width: 800, Height: 600}, NewSwapchainPreferences(nil))
	require.NoError(t, err)

	assert.Equal(t, metadata.Extent2D{Width: 800, Height: 600}, sc.Extent)
	assert.Equal(t, metadata.PreferredSurfaceFormat, sc.SurfaceFormat)
	assert.Equal(t, metadata.PresentModeMailbox, sc.PresentMode)
	assert.Len(t, sc.Images, 2)
	assert.Len(t, sc.Views, len(sc.Images))
	assert.Equal(t, uint64(1), sc.Generation)
	assert.True(t, device.swapchainInfos[0].OldSwapchain.IsNull())

	sc.Destroy(device)
	assert.Equal(t, []string{"view", "view", "swapchain"}, device.destroyed)
	assert.Empty(t, device.live)
}

func TestRecreateSwapchainPassesOldHandle(t *testing.T) {
	device := newFakeDevice()
	prefs := NewSwapchainPreferences(nil)

	old, err := CreateSwapchainResources(device, metadata.Extent2D{Width: 800, Height: 600}, prefs)
	require.NoError(t, err)

	next, err := RecreateSwapchainResources(old, device, metadata.Extent2D{Width: 1024, Height: 768}, prefs)
	require.NoError(t, err)

	assert.Equal(t, old.Handle, device.swapchainInfos[1].OldSwapchain)
	assert.Equal(t, old.Generation+1, next.Generation)
	assert.Equal(t, metadata.Extent2D{Width: 1024, Height: 768}, next.Extent)
	// The old swapchain is left for the caller.
	assert.Equal(t, 2, device.liveCount("swapchain"))
}

func TestSwapchainExtentNotSupportedIsRecoverable(t *testing.T) {
	device := newFakeDevice()
	device.setWindowExtent(8192, 8192)

	_, err := CreateSwapchainResources(device, metadata.Extent2D{Width: 800, Height: 600}, NewSwapchainPreferences(nil))
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrImageExtentNotSupported))
	assert.True(t, core.IsRecoverable(err))
	assert.Empty(t, device.swapchainInfos, "device must not be asked for an unsupported extent")
}

func TestSwapchainCreationFailureIsFatal(t *testing.T) {
	device := newFakeDevice()
	device.swapchainErr = errors.New("surface lost")

	_, err := CreateSwapchainResources(device, metadata.Extent2D{Width: 800, Height: 600}, NewSwapchainPreferences(nil))
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrSwapchainCreation))
	assert.True(t, core.IsFatal(err))
}

func TestSwapchainConcurrentSharing(t *testing.T) {
	device := newFakeDevice()
	device.families = metadata.QueueFamilies{Graphics: 0, Present: 1}

	_, err := CreateSwapchainResources(device, metadata.Extent2D{Width: 640, Height: 480}, NewSwapchainPreferences(nil))
	require.NoError(t, err)
	assert.Equal(t, metadata.SharingModeConcurrent, device.swapchainInfos[0].SharingMode)
	assert.Equal(t, []uint32{0, 1}, device.swapchainInfos[0].QueueFamilyIndices)
}
