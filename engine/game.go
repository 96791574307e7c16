package engine

import (
	"github.com/spaghettifunk/vkframe/engine/renderer"
)

type Game struct {
	ApplicationConfig *ApplicationConfig
	State             interface{}
	FnInitialize      Initialize
	FnUpdate          Update
	FnRender          Render
	FnOnResize        OnResize
	FnShutdown        Shutdown
}

type Initialize func() error
type Update func(deltaTime float64) error

// Render returns the camera the next frame is drawn with. A nil camera
// draws with identity matrices.
type Render func(deltaTime float64) (renderer.CameraSource, error)
type OnResize func(width uint32, height uint32) error
type Shutdown func() error
