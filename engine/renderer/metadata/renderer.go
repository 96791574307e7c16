package metadata

import (
	"fmt"
	"math"
	"strings"

	"github.com/cockroachdb/errors"
)

// Handle identifies a backend object (swapchain, image view, fence, ...).
// The zero value is the null handle.
type Handle uint64

const NullHandle Handle = 0

func (h Handle) IsNull() bool {
	return h == NullHandle
}

// ExtentUndefined is reported as the current surface width when the
// surface size is decided by the swapchain instead of the window.
const ExtentUndefined uint32 = math.MaxUint32

type Extent2D struct {
	Width  uint32
	Height uint32
}

// IsZero reports whether the extent has no drawable area.
func (e Extent2D) IsZero() bool {
	return e.Width == 0 || e.Height == 0
}

func (e Extent2D) AspectRatio() float32 {
	if e.Height == 0 {
		return 1.0
	}
	return float32(e.Width) / float32(e.Height)
}

func (e Extent2D) String() string {
	return fmt.Sprintf("%dx%d", e.Width, e.Height)
}

/** @brief Image formats. Values mirror the Vulkan enumeration. */
type Format uint32

const (
	FormatUndefined     Format = 0
	FormatR8G8B8A8Unorm Format = 37
	FormatR8G8B8A8Srgb  Format = 43
	FormatB8G8R8A8Unorm Format = 44
	FormatB8G8R8A8Srgb  Format = 50
)

func (f Format) String() string {
	switch f {
	case FormatUndefined:
		return "undefined"
	case FormatR8G8B8A8Unorm:
		return "r8g8b8a8_unorm"
	case FormatR8G8B8A8Srgb:
		return "r8g8b8a8_srgb"
	case FormatB8G8R8A8Unorm:
		return "b8g8r8a8_unorm"
	case FormatB8G8R8A8Srgb:
		return "b8g8r8a8_srgb"
	default:
		return fmt.Sprintf("format(%d)", uint32(f))
	}
}

type ColorSpace uint32

const ColorSpaceSrgbNonlinear ColorSpace = 0

func (c ColorSpace) String() string {
	if c == ColorSpaceSrgbNonlinear {
		return "srgb_nonlinear"
	}
	return fmt.Sprintf("color_space(%d)", uint32(c))
}

type SurfaceFormat struct {
	Format     Format
	ColorSpace ColorSpace
}

/** @brief The format picked whenever the surface does not constrain it. */
var PreferredSurfaceFormat = SurfaceFormat{
	Format:     FormatB8G8R8A8Unorm,
	ColorSpace: ColorSpaceSrgbNonlinear,
}

type PresentMode uint32

const (
	PresentModeImmediate   PresentMode = 0
	PresentModeMailbox     PresentMode = 1
	PresentModeFifo        PresentMode = 2
	PresentModeFifoRelaxed PresentMode = 3
)

func (m PresentMode) String() string {
	switch m {
	case PresentModeImmediate:
		return "immediate"
	case PresentModeMailbox:
		return "mailbox"
	case PresentModeFifo:
		return "fifo"
	case PresentModeFifoRelaxed:
		return "fifo_relaxed"
	default:
		return fmt.Sprintf("present_mode(%d)", uint32(m))
	}
}

// ParsePresentMode maps a configuration string onto a present mode.
func ParsePresentMode(s string) (PresentMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "immediate":
		return PresentModeImmediate, nil
	case "mailbox":
		return PresentModeMailbox, nil
	case "fifo":
		return PresentModeFifo, nil
	case "fifo_relaxed":
		return PresentModeFifoRelaxed, nil
	}
	return PresentModeFifo, errors.Newf("unknown present mode %q", s)
}

type SurfaceCapabilities struct {
	MinImageCount uint32
	// Zero means there is no upper bound.
	MaxImageCount    uint32
	CurrentExtent    Extent2D
	MinImageExtent   Extent2D
	MaxImageExtent   Extent2D
	CurrentTransform uint32
}

// HasVariableExtent reports whether the swapchain decides the surface size.
func (c SurfaceCapabilities) HasVariableExtent() bool {
	return c.CurrentExtent.Width == ExtentUndefined
}

// SurfaceSupport is what a physical device reports for a surface.
type SurfaceSupport struct {
	Capabilities SurfaceCapabilities
	Formats      []SurfaceFormat
	PresentModes []PresentMode
}

type QueueFamilies struct {
	Graphics uint32
	Present  uint32
}

// Unique returns the family indices with duplicates removed, graphics first.
func (q QueueFamilies) Unique() []uint32 {
	if q.Graphics == q.Present {
		return []uint32{q.Graphics}
	}
	return []uint32{q.Graphics, q.Present}
}

type SharingMode uint8

const (
	SharingModeExclusive SharingMode = iota
	SharingModeConcurrent
)

func (s SharingMode) String() string {
	if s == SharingModeConcurrent {
		return "concurrent"
	}
	return "exclusive"
}

// PresentStatus is the non-fatal result of an acquire or present call.
type PresentStatus uint8

const (
	PresentSuccess PresentStatus = iota
	PresentSuboptimal
	PresentOutOfDate
)

func (s PresentStatus) String() string {
	switch s {
	case PresentSuboptimal:
		return "suboptimal"
	case PresentOutOfDate:
		return "out_of_date"
	default:
		return "success"
	}
}
