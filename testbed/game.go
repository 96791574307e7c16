package testbed

import (
	"github.com/spaghettifunk/vkframe/engine"
	"github.com/spaghettifunk/vkframe/engine/config"
	"github.com/spaghettifunk/vkframe/engine/core"
	"github.com/spaghettifunk/vkframe/engine/renderer"
	"github.com/spaghettifunk/vkframe/engine/renderer/components"
)

type TestGame struct {
	*engine.Game
}

type gameState struct {
	WorldCamera *components.Camera

	width  uint32
	height uint32
}

func NewTestGame(cfg *config.Config) *TestGame {
	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: &engine.ApplicationConfig{
				Name:   "vkframe testbed",
				Config: cfg,
			},
			State: &gameState{
				WorldCamera: components.NewCamera(),
			},
		},
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnRender = tg.Render
	tg.FnOnResize = tg.OnResize
	tg.FnShutdown = tg.Shutdown

	return tg
}

func (g *TestGame) state() *gameState {
	return g.State.(*gameState)
}

func (g *TestGame) Initialize() error {
	core.LogDebug("initializing testbed")
	return nil
}

func (g *TestGame) Update(deltaTime float64) error {
	camera := g.state().WorldCamera

	dx, dy := core.InputGetMouseMotion()
	if dx != 0 || dy != 0 {
		camera.Look(dx, dy)
	}
	camera.Move(moveAxes(core.InputIsKeyDown), deltaTime)
	return nil
}

// moveAxes maps WASD and the arrow keys to the horizontal axes, E and Q to
// vertical movement. Opposite keys cancel out.
func moveAxes(down func(core.KeyCode) bool) components.MoveAxes {
	axis := func(pos, neg bool) float32 {
		switch {
		case pos && !neg:
			return 1
		case neg && !pos:
			return -1
		}
		return 0
	}
	return components.MoveAxes{
		X: axis(down(core.KEY_D) || down(core.KEY_RIGHT), down(core.KEY_A) || down(core.KEY_LEFT)),
		Y: axis(down(core.KEY_E), down(core.KEY_Q)),
		Z: axis(down(core.KEY_W) || down(core.KEY_UP), down(core.KEY_S) || down(core.KEY_DOWN)),
	}
}

func (g *TestGame) Render(deltaTime float64) (renderer.CameraSource, error) {
	return g.state().WorldCamera, nil
}

func (g *TestGame) OnResize(width uint32, height uint32) error {
	s := g.state()
	s.width = width
	s.height = height
	return nil
}

func (g *TestGame) Shutdown() error {
	core.LogDebug("testbed shut down at %dx%d", g.state().width, g.state().height)
	return nil
}
