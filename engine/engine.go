package engine

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/spaghettifunk/vkframe/engine/assets"
	"github.com/spaghettifunk/vkframe/engine/config"
	"github.com/spaghettifunk/vkframe/engine/core"
	"github.com/spaghettifunk/vkframe/engine/platform"
	"github.com/spaghettifunk/vkframe/engine/renderer"
	"github.com/spaghettifunk/vkframe/engine/renderer/vulkan"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
	// Everything has been released
	EngineStageStopped
)

// Seconds between frame statistics log lines.
const statsInterval = 5.0

type Engine struct {
	currentStage Stage
	gameInstance *Game
	cfg          *config.Config
	session      uuid.UUID

	isRunning   bool
	isSuspended bool
	width       uint32
	height      uint32

	platform      *platform.Platform
	assetManager  *assets.AssetManager
	shaderWatcher *assets.ShaderWatcher
	renderer      *renderer.Renderer
	shadersDirty  bool

	clock     *core.Clock
	metrics   *core.Metrics
	lastTime  float64
	lastStats float64
}

func New(g *Game) (*Engine, error) {
	if g == nil || g.ApplicationConfig == nil || g.ApplicationConfig.Config == nil {
		return nil, errors.Mark(errors.New("game without configuration"), core.ErrInvalidConfig)
	}
	p, err := platform.New()
	if err != nil {
		return nil, err
	}
	cfg := g.ApplicationConfig.Config
	return &Engine{
		currentStage: EngineStageUninitialized,
		gameInstance: g,
		cfg:          cfg,
		session:      uuid.New(),
		platform:     p,
		assetManager: assets.NewAssetManager(),
		clock:        core.NewClock(),
		metrics:      core.NewMetrics(),
		width:        cfg.Window.Width,
		height:       cfg.Window.Height,
	}, nil
}

func (e *Engine) Stage() Stage {
	return e.currentStage
}

// Initialize brings up every subsystem in dependency order. On failure the
// caller still runs Shutdown to release what was created.
func (e *Engine) Initialize(ctx context.Context) error {
	e.currentStage = EngineStageInitializing
	if err := core.SetLogLevel(e.cfg.Log.Level); err != nil {
		return errors.Mark(err, core.ErrInvalidConfig)
	}
	if e.cfg.Log.Prefix != "" {
		core.SetLogPrefix(e.cfg.Log.Prefix)
	}
	core.Logger().Info("engine starting", "session", e.session.String(), "title", e.cfg.Window.Title)

	if err := core.InputInitialize(); err != nil {
		return err
	}
	if !core.EventSystemInitialize() {
		return errors.New("failed to initialize the event system")
	}
	for code, fn := range map[core.EventCode]core.FnOnEvent{
		core.EVENT_CODE_APPLICATION_QUIT:     e.onEvent,
		core.EVENT_CODE_KEY_PRESSED:          e.onKey,
		core.EVENT_CODE_RESIZED:              e.onResized,
		core.EVENT_CODE_SCALE_FACTOR_CHANGED: e.onResized,
		core.EVENT_CODE_SHADERS_CHANGED:      e.onShadersChanged,
	} {
		if err := core.EventRegister(code, fn); err != nil {
			return err
		}
	}

	// Assets load while the window comes up.
	type loaded struct {
		startup *assets.Startup
		err     error
	}
	assetsCh := make(chan loaded, 1)
	go func() {
		startup, err := e.assetManager.LoadStartup(ctx, e.cfg)
		assetsCh <- loaded{startup, err}
	}()

	if err := e.platform.Startup(e.cfg.Window, true); err != nil {
		<-assetsCh
		return err
	}
	result := <-assetsCh
	if result.err != nil {
		return result.err
	}

	device, err := vulkan.NewDevice(deviceConfig(e.gameInstance.ApplicationConfig.Name, e.cfg), e.platform.Window)
	if err != nil {
		return err
	}
	extent := e.platform.FramebufferSize()
	e.width, e.height = extent.Width, extent.Height
	e.isSuspended = extent.Width == 0 || extent.Height == 0

	r, err := renderer.New(device, extent, rendererOptions(e.cfg, result.startup))
	if err != nil {
		device.Destroy()
		return err
	}
	e.renderer = r

	if e.cfg.Shaders.Watch {
		watcher, err := assets.NewShaderWatcher(e.cfg.Shaders.Vertex, e.cfg.Shaders.Fragment)
		if err != nil {
			// Hot reload is a convenience; rendering works without it.
			core.LogWarn("shader hot reload disabled: %v", err)
		} else {
			e.shaderWatcher = watcher
		}
	}

	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(); err != nil {
			return err
		}
	}
	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(e.width, e.height); err != nil {
			return err
		}
	}
	e.currentStage = EngineStageInitialized
	return nil
}

// Run drives the render loop until the window closes or a quit event
// arrives. Only fatal renderer errors end it with an error.
func (e *Engine) Run(ctx context.Context) error {
	if e.currentStage != EngineStageInitialized {
		return errors.Newf("engine is not initialized (stage %d)", e.currentStage)
	}
	e.currentStage = EngineStageRunning
	e.isRunning = true

	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	for e.isRunning {
		if ctx.Err() != nil {
			core.LogInfo("context cancelled, stopping")
			break
		}

		var open bool
		if e.isSuspended {
			// Nothing to draw; sleep until the window changes.
			open = e.platform.WaitMessages(0.1)
		} else {
			open = e.platform.PumpMessages()
		}
		if !open {
			e.isRunning = false
		}
		core.EventDispatch()
		if !e.isRunning {
			break
		}
		if e.shadersDirty {
			e.reloadShaders(ctx)
		}
		if e.isSuspended {
			continue
		}

		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - e.lastTime
		frameStart := core.Now()

		if e.gameInstance.FnUpdate != nil {
			if err := e.gameInstance.FnUpdate(delta); err != nil {
				return errors.Wrap(err, "game update failed")
			}
		}
		var camera renderer.CameraSource
		if e.gameInstance.FnRender != nil {
			c, err := e.gameInstance.FnRender(delta)
			if err != nil {
				return errors.Wrap(err, "game render failed")
			}
			camera = c
		}

		if _, err := e.renderer.Render(camera); err != nil {
			return errors.Wrap(err, "rendering frame")
		}

		e.metrics.Update(core.Now() - frameStart)
		if currentTime-e.lastStats >= statsInterval {
			e.lastStats = currentTime
			e.logStats()
		}

		// NOTE: Input update/state copying should always be handled
		// after any input should be recorded; I.E. before this line.
		core.InputUpdate()
		e.lastTime = currentTime
	}
	return nil
}

func (e *Engine) logStats() {
	fps, ms := e.metrics.Frame()
	stats := e.renderer.Stats()
	core.Logger().Debug("frame stats",
		"fps", fps,
		"frame_ms", ms,
		"presents", stats.Presents,
		"aborted", stats.Aborted,
		"rebuilds", e.renderer.Rebuilds(),
		"state", e.renderer.State().String(),
	)
}

func (e *Engine) reloadShaders(ctx context.Context) {
	e.shadersDirty = false
	set, err := e.assetManager.LoadShaders(ctx, e.cfg.Shaders)
	if err != nil {
		core.LogWarn("shader reload skipped: %v", err)
		return
	}
	core.LogInfo("reloading shaders")
	e.renderer.ReloadShaders(set)
}

// RequestQuit asks the loop to stop. Safe to call from any goroutine.
func (e *Engine) RequestQuit() {
	core.EventFire(core.EventContext{Type: core.EVENT_CODE_APPLICATION_QUIT})
}

// Shutdown releases everything Initialize created, the renderer first. It
// keeps going after failures and reports all of them.
func (e *Engine) Shutdown() error {
	if e.currentStage == EngineStageStopped {
		return nil
	}
	e.currentStage = EngineStageShuttingDown

	var err error
	if e.gameInstance.FnShutdown != nil {
		err = errors.CombineErrors(err, e.gameInstance.FnShutdown())
	}
	if e.shaderWatcher != nil {
		err = errors.CombineErrors(err, e.shaderWatcher.Close())
		e.shaderWatcher = nil
	}
	if e.renderer != nil {
		err = errors.CombineErrors(err, e.renderer.Shutdown())
		e.renderer = nil
	}
	err = errors.CombineErrors(err, core.EventSystemShutdown())
	err = errors.CombineErrors(err, core.InputShutdown())
	if e.platform.Window != nil {
		err = errors.CombineErrors(err, e.platform.Shutdown())
	}
	e.currentStage = EngineStageStopped
	core.LogInfo("engine stopped")
	return err
}

// GetFramebufferSize returns the width and height (in this order)
// of the application Framebuffer
func (e *Engine) GetFramebufferSize() (uint32, uint32) {
	return e.width, e.height
}

func (e *Engine) onEvent(context core.EventContext) {
	if context.Type == core.EVENT_CODE_APPLICATION_QUIT {
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
		e.isRunning = false
	}
}

func (e *Engine) onKey(context core.EventContext) {
	ke, ok := context.Data.(*core.KeyEvent)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", context.Type)
		return
	}
	if ke.KeyCode == core.KEY_ESCAPE {
		// NOTE: Technically firing an event to itself, but there may be other listeners.
		e.RequestQuit()
	}
}

func (e *Engine) onShadersChanged(context core.EventContext) {
	e.shadersDirty = true
}

func (e *Engine) onResized(context core.EventContext) {
	se, ok := context.Data.(*core.SystemEvent)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", context.Type)
		return
	}
	width, height := se.WindowWidth, se.WindowHeight

	if context.Type == core.EVENT_CODE_SCALE_FACTOR_CHANGED {
		core.LogDebug("Scale factor changed: %.2fx%.2f, framebuffer %d, %d", se.ScaleX, se.ScaleY, width, height)
		e.renderer.ScaleFactorChanged(width, height)
	} else {
		// Check if different. If so, trigger a resize event.
		if width == e.width && height == e.height {
			return
		}
		core.LogDebug("Window resize: %d, %d", width, height)
		e.renderer.Resized(width, height)
	}
	e.width, e.height = width, height

	// Handle minimization
	if width == 0 || height == 0 {
		if !e.isSuspended {
			core.LogInfo("Window minimized, suspending application.")
		}
		e.isSuspended = true
		return
	}
	if e.isSuspended {
		core.LogInfo("Window restored, resuming application.")
		e.isSuspended = false
	}
	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(width, height); err != nil {
			core.LogError("resize handler failed: %v", err)
		}
	}
}
