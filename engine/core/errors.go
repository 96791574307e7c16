package core

import (
	"github.com/cockroachdb/errors"
)

// Setup errors. None of these are retried.
var (
	ErrNoSuitablePhysicalDevice = errors.New("no physical device meets the renderer requirements")
	ErrNoQueueFamilyFound       = errors.New("no graphics or present queue family found")
	ErrShaderModule             = errors.New("shader module creation failed")
	ErrPipelineCreation         = errors.New("graphics pipeline creation failed")
	ErrSwapchainCreation        = errors.New("swapchain creation failed")
	ErrInvalidConfig            = errors.New("invalid configuration")
	ErrNoWindow                 = errors.New("window is not available")
)

// Runtime errors.
var (
	// Recoverable: the rebuild is skipped and retried on the next tick.
	ErrImageExtentNotSupported = errors.New("image extent not supported by the surface")
	ErrDeviceLost              = errors.New("device lost")
	// Recording against resources from different generations.
	ErrStaleResources = errors.New("frame resources are out of sync")
)

// IsRecoverable reports whether err only skips the current tick.
func IsRecoverable(err error) bool {
	return err != nil && errors.Is(err, ErrImageExtentNotSupported)
}

// IsFatal reports whether err must terminate the render loop.
func IsFatal(err error) bool {
	return err != nil && !IsRecoverable(err)
}
