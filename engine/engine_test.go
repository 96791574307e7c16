package engine

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/vkframe/engine/assets"
	"github.com/spaghettifunk/vkframe/engine/config"
	"github.com/spaghettifunk/vkframe/engine/core"
	"github.com/spaghettifunk/vkframe/engine/renderer"
	"github.com/spaghettifunk/vkframe/engine/renderer/metadata"
)

func TestRendererOptionsFollowConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Renderer.FramesInFlight = 2
	cfg.Renderer.AcquireTimeoutMs = 250
	cfg.Renderer.DynamicViewport = false
	cfg.Renderer.PresentMode = "fifo"
	cfg.Renderer.RebuildWait = "device_idle"
	cfg.Renderer.ClearColor = [4]float32{0.1, 0.2, 0.3, 1}

	startup := &assets.Startup{
		Vertices: []metadata.Vertex{{}, {}, {}},
	}
	opts := rendererOptions(cfg, startup)

	assert.Equal(t, 2, opts.FramesInFlight)
	assert.Equal(t, 250*time.Millisecond, opts.AcquireTimeout)
	assert.False(t, opts.Resize.Pipeline.DynamicViewport)
	assert.Equal(t, renderer.WaitDeviceIdle, opts.Resize.Wait)
	assert.Equal(t, 1, opts.Resize.SuboptimalLimit)
	assert.Equal(t, metadata.ClearColor{R: 0.1, G: 0.2, B: 0.3, A: 1}, opts.Resize.Targets.ClearColor)
	assert.Len(t, opts.Vertices, 3)
}

func TestRendererOptionsDefaults(t *testing.T) {
	opts := rendererOptions(config.Default(), &assets.Startup{})

	assert.Zero(t, opts.AcquireTimeout)
	assert.True(t, opts.Resize.Pipeline.DynamicViewport)
	assert.Equal(t, renderer.WaitAllFences, opts.Resize.Wait)
	assert.Empty(t, opts.Vertices)
}

func TestDeviceConfigFallsBackToTitle(t *testing.T) {
	cfg := config.Default()
	cfg.Validation.Enabled = true

	dc := deviceConfig("", cfg)
	assert.Equal(t, "vkframe", dc.ApplicationName)
	assert.True(t, dc.Validation.Enabled)

	assert.Equal(t, "demo", deviceConfig("demo", cfg).ApplicationName)
}

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(nil)
	assert.True(t, errors.Is(err, core.ErrInvalidConfig))

	_, err = New(&Game{ApplicationConfig: &ApplicationConfig{Name: "x"}})
	assert.True(t, errors.Is(err, core.ErrInvalidConfig))
}

func TestRunBeforeInitialize(t *testing.T) {
	e, err := New(&Game{ApplicationConfig: &ApplicationConfig{Config: config.Default()}})
	require.NoError(t, err)
	assert.Equal(t, EngineStageUninitialized, e.Stage())

	assert.Error(t, e.Run(context.Background()))
}

func TestShutdownWithoutInitialize(t *testing.T) {
	shutdownCalled := 0
	e, err := New(&Game{
		ApplicationConfig: &ApplicationConfig{Config: config.Default()},
		FnShutdown: func() error {
			shutdownCalled++
			return nil
		},
	})
	require.NoError(t, err)

	require.NoError(t, e.Shutdown())
	assert.Equal(t, EngineStageStopped, e.Stage())
	// A second call is a no-op.
	require.NoError(t, e.Shutdown())
	assert.Equal(t, 1, shutdownCalled)
}
