package platform

import (
	"runtime"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/spaghettifunk/vkframe/engine/config"
	"github.com/spaghettifunk/vkframe/engine/core"
	"github.com/spaghettifunk/vkframe/engine/renderer/metadata"
)

func init() {
	// GLFW event handling must run on the main OS thread
	runtime.LockOSThread()
}

type Platform struct {
	Window *glfw.Window

	focused bool
	hovered bool
	// While captured the cursor is pinned to the window centre and only
	// relative motion is reported.
	captured bool
}

func New() (*Platform, error) {
	return &Platform{}, nil
}

func (p *Platform) Startup(cfg config.Window, captureCursor bool) error {
	if err := glfw.Init(); err != nil {
		return errors.Wrap(err, "failed to initialize glfw")
	}
	if !glfw.VulkanSupported() {
		glfw.Terminate()
		return errors.New("glfw reports no Vulkan loader")
	}

	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // Required for Vulkan.

	window, err := glfw.CreateWindow(int(cfg.Width), int(cfg.Height), cfg.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return errors.Wrap(err, "failed to create window")
	}
	p.Window = window
	p.captured = captureCursor
	p.focused = true

	p.Window.SetKeyCallback(p.keyCallback)
	p.Window.SetMouseButtonCallback(p.mouseButtonCallback)
	p.Window.SetCursorPosCallback(p.cursorPosCallback)
	p.Window.SetCursorEnterCallback(func(_ *glfw.Window, entered bool) { p.hovered = entered })
	p.Window.SetFocusCallback(func(_ *glfw.Window, focused bool) { p.focused = focused })
	p.Window.SetScrollCallback(p.scrollCallback)
	p.Window.SetFramebufferSizeCallback(p.framebufferSizeCallback)
	p.Window.SetContentScaleCallback(p.contentScaleCallback)

	x, y := cfg.X, cfg.Y
	if x < 0 || y < 0 {
		x, y = centred(int(cfg.Width), int(cfg.Height))
	}
	p.Window.SetPos(x, y)
	if p.captured {
		p.Window.SetInputMode(glfw.CursorMode, glfw.CursorHidden)
	}
	p.Window.Show()
	return nil
}

// centred places a window of the given size in the middle of the primary
// monitor. Without a monitor the window goes to the origin.
func centred(width, height int) (int, int) {
	monitor := glfw.GetPrimaryMonitor()
	if monitor == nil {
		return 0, 0
	}
	mode := monitor.GetVideoMode()
	mx, my := monitor.GetPos()
	return mx + (mode.Width-width)/2, my + (mode.Height-height)/2
}

func (p *Platform) Shutdown() error {
	if p.Window != nil {
		p.Window.Destroy()
		p.Window = nil
	}
	glfw.Terminate()
	return nil
}

// PumpMessages processes pending window events and reports whether the
// window is still open.
func (p *Platform) PumpMessages() bool {
	glfw.PollEvents()
	return !p.Window.ShouldClose()
}

// WaitMessages blocks until an event arrives or timeout seconds pass.
// Used while there is nothing to draw.
func (p *Platform) WaitMessages(timeout float64) bool {
	glfw.WaitEventsTimeout(timeout)
	return !p.Window.ShouldClose()
}

func (p *Platform) RequestClose() {
	p.Window.SetShouldClose(true)
}

func (p *Platform) FramebufferSize() metadata.Extent2D {
	w, h := p.Window.GetFramebufferSize()
	return metadata.Extent2D{Width: uint32(max(w, 0)), Height: uint32(max(h, 0))}
}

func (p *Platform) keyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if action == glfw.Repeat {
		return
	}
	code, ok := translateKey(key)
	if !ok {
		return
	}
	core.InputProcessKey(code, action == glfw.Press)
}

func (p *Platform) mouseButtonCallback(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
	var b core.Button
	switch button {
	case glfw.MouseButtonLeft:
		b = core.BUTTON_LEFT
	case glfw.MouseButtonRight:
		b = core.BUTTON_RIGHT
	case glfw.MouseButtonMiddle:
		b = core.BUTTON_MIDDLE
	default:
		return
	}
	core.InputProcessButton(b, action == glfw.Press)
}

func (p *Platform) cursorPosCallback(w *glfw.Window, xpos, ypos float64) {
	if !p.captured || !p.focused || !p.hovered {
		core.InputProcessMouseMove(xpos, ypos)
		return
	}
	width, height := w.GetSize()
	cx, cy := float64(width/2), float64(height/2)
	core.InputProcessMouseMotion(xpos-cx, ypos-cy)
	p.recentre(w, cx, cy)
}

// recentre warps the cursor back to the window centre. Platforms that do
// not allow it only lose mouse look.
func (p *Platform) recentre(w *glfw.Window, cx, cy float64) {
	defer func() {
		if r := recover(); r != nil {
			core.LogWarn("could not re-centre the cursor: %v", r)
		}
	}()
	w.SetCursorPos(cx, cy)
	core.InputResetMouse(cx, cy)
}

func (p *Platform) scrollCallback(w *glfw.Window, xoff, yoff float64) {
	switch {
	case yoff > 0:
		core.InputProcessMouseWheel(1)
	case yoff < 0:
		core.InputProcessMouseWheel(-1)
	}
}

func (p *Platform) framebufferSizeCallback(w *glfw.Window, width, height int) {
	core.EventFire(core.EventContext{
		Type: core.EVENT_CODE_RESIZED,
		Data: &core.SystemEvent{
			WindowWidth:  uint32(max(width, 0)),
			WindowHeight: uint32(max(height, 0)),
		},
	})
}

func (p *Platform) contentScaleCallback(w *glfw.Window, x, y float32) {
	width, height := w.GetFramebufferSize()
	core.EventFire(core.EventContext{
		Type: core.EVENT_CODE_SCALE_FACTOR_CHANGED,
		Data: &core.SystemEvent{
			WindowWidth:  uint32(max(width, 0)),
			WindowHeight: uint32(max(height, 0)),
			ScaleX:       x,
			ScaleY:       y,
		},
	})
}
