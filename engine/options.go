package engine

import (
	"time"

	"github.com/spaghettifunk/vkframe/engine/assets"
	"github.com/spaghettifunk/vkframe/engine/config"
	"github.com/spaghettifunk/vkframe/engine/renderer"
	"github.com/spaghettifunk/vkframe/engine/renderer/vulkan"
)

func rendererOptions(cfg *config.Config, startup *assets.Startup) renderer.Options {
	pipeline := renderer.DefaultPipelineOptions(startup.Shaders)
	pipeline.DynamicViewport = cfg.Renderer.DynamicViewport

	return renderer.Options{
		FramesInFlight: cfg.Renderer.FramesInFlight,
		AcquireTimeout: time.Duration(cfg.Renderer.AcquireTimeoutMs) * time.Millisecond,
		Resize: renderer.ResizeOptions{
			Swapchain:       renderer.NewSwapchainPreferences(cfg.Renderer.PresentModePreference()),
			Targets:         renderer.TargetsConfig{ClearColor: cfg.Renderer.Clear()},
			Pipeline:        pipeline,
			Wait:            cfg.Renderer.RebuildWaitMode(),
			SuboptimalLimit: cfg.Renderer.SuboptimalLimit,
		},
		Vertices: startup.Vertices,
	}
}

func deviceConfig(name string, cfg *config.Config) vulkan.Config {
	if name == "" {
		name = cfg.Window.Title
	}
	return vulkan.Config{
		ApplicationName: name,
		Validation:      cfg.Validation,
	}
}
