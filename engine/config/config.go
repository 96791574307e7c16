package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/vkframe/engine/core"
	"github.com/spaghettifunk/vkframe/engine/renderer"
	"github.com/spaghettifunk/vkframe/engine/renderer/metadata"
)

type Config struct {
	Window     Window     `toml:"window"`
	Renderer   Renderer   `toml:"renderer"`
	Shaders    Shaders    `toml:"shaders"`
	Scene      Scene      `toml:"scene"`
	Validation Validation `toml:"validation"`
	Log        Log        `toml:"log"`
}

type Window struct {
	Title  string `toml:"title"`
	Width  uint32 `toml:"width"`
	Height uint32 `toml:"height"`
	// Negative values centre the window on the primary monitor.
	X int `toml:"x"`
	Y int `toml:"y"`
}

type Renderer struct {
	FramesInFlight int `toml:"frames_in_flight"`
	// Empty keeps the default ordering (mailbox, fifo, immediate).
	PresentMode     string     `toml:"present_mode"`
	DynamicViewport bool       `toml:"dynamic_viewport"`
	RebuildWait     string     `toml:"rebuild_wait"`
	SuboptimalLimit int        `toml:"suboptimal_limit"`
	ClearColor      [4]float32 `toml:"clear_color"`
	// Zero waits forever.
	AcquireTimeoutMs int64 `toml:"acquire_timeout_ms"`
}

type Shaders struct {
	Vertex string `toml:"vertex"`
	// Empty when both entry points live in the vertex module.
	Fragment      string `toml:"fragment"`
	VertexEntry   string `toml:"vertex_entry"`
	FragmentEntry string `toml:"fragment_entry"`
	Watch         bool   `toml:"watch"`
}

type Scene struct {
	// Optional OBJ file. Without it the hard-coded triangle is drawn.
	Mesh string `toml:"mesh"`
	// Flip Z of positions and normals for right handed sources.
	RightHanded bool `toml:"right_handed"`
}

// Validation selects which driver messages reach the log. Severity and
// type are independent; a message is logged when both match.
type Validation struct {
	Enabled bool `toml:"enabled"`

	Info    bool `toml:"info"`
	Warning bool `toml:"warning"`
	Error   bool `toml:"error"`
	Verbose bool `toml:"verbose"`

	General     bool `toml:"general"`
	Performance bool `toml:"performance"`
	Validation  bool `toml:"validation"`
}

type Log struct {
	Level  string `toml:"level"`
	Prefix string `toml:"prefix"`
}

func Default() *Config {
	return &Config{
		Window: Window{
			Title:  "vkframe",
			Width:  1280,
			Height: 720,
			X:      -1,
			Y:      -1,
		},
		Renderer: Renderer{
			FramesInFlight:  3,
			DynamicViewport: true,
			RebuildWait:     "all_fences",
			SuboptimalLimit: 1,
			ClearColor:      [4]float32{0, 0, 0, 1},
		},
		Shaders: Shaders{
			Vertex:        "shaders/vert.spv",
			Fragment:      "shaders/frag.spv",
			VertexEntry:   "main",
			FragmentEntry: "main",
		},
		Validation: Validation{
			Enabled:     false,
			Warning:     true,
			Error:       true,
			General:     true,
			Performance: true,
			Validation:  true,
		},
		Log: Log{
			Level: "info",
		},
	}
}

// Load reads path on top of the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		core.LogWarn("config file %s not found, using defaults", path)
		return cfg, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %s", path)
	}
	if err := Parse(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Parse decodes data into cfg and validates the result. Unknown keys are
// rejected so typos do not silently fall back to defaults.
func Parse(data []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return errors.Mark(errors.Wrapf(err, "line %d column %d", row, col), core.ErrInvalidConfig)
		}
		return errors.Mark(err, core.ErrInvalidConfig)
	}
	return cfg.Validate()
}

func (c *Config) Validate() error {
	var problems []string
	if c.Window.Width == 0 || c.Window.Height == 0 {
		problems = append(problems, "window size must be non-zero")
	}
	if c.Renderer.FramesInFlight < renderer.MinFramesInFlight || c.Renderer.FramesInFlight > renderer.MaxFramesInFlight {
		problems = append(problems, fmt.Sprintf("renderer.frames_in_flight must be in [%d, %d]",
			renderer.MinFramesInFlight, renderer.MaxFramesInFlight))
	}
	if c.Renderer.SuboptimalLimit < 1 {
		problems = append(problems, "renderer.suboptimal_limit must be at least 1")
	}
	if c.Renderer.AcquireTimeoutMs < 0 {
		problems = append(problems, "renderer.acquire_timeout_ms must not be negative")
	}
	if c.Renderer.PresentMode != "" {
		if _, err := metadata.ParsePresentMode(c.Renderer.PresentMode); err != nil {
			problems = append(problems, err.Error())
		}
	}
	if _, err := renderer.ParseRebuildWait(c.Renderer.RebuildWait); err != nil {
		problems = append(problems, "renderer.rebuild_wait must be all_fences or device_idle")
	}
	for _, v := range c.Renderer.ClearColor {
		if v < 0 || v > 1 {
			problems = append(problems, "renderer.clear_color components must be within [0, 1]")
			break
		}
	}
	if c.Shaders.Vertex == "" {
		problems = append(problems, "shaders.vertex is required")
	}
	if len(problems) > 0 {
		return errors.Mark(errors.Newf("invalid configuration: %s", strings.Join(problems, "; ")), core.ErrInvalidConfig)
	}
	return nil
}

// PresentModePreference is the configured mode, or nil to use the default order.
func (r Renderer) PresentModePreference() *metadata.PresentMode {
	if r.PresentMode == "" {
		return nil
	}
	mode, err := metadata.ParsePresentMode(r.PresentMode)
	if err != nil {
		return nil
	}
	return &mode
}

func (r Renderer) RebuildWaitMode() renderer.RebuildWait {
	wait, _ := renderer.ParseRebuildWait(r.RebuildWait)
	return wait
}

func (r Renderer) Clear() metadata.ClearColor {
	return metadata.ClearColor{R: r.ClearColor[0], G: r.ClearColor[1], B: r.ClearColor[2], A: r.ClearColor[3]}
}
