package renderer

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/spaghettifunk/vkframe/engine/core"
	"github.com/spaghettifunk/vkframe/engine/renderer/metadata"
)

type TargetsConfig struct {
	ClearColor metadata.ClearColor
}

// RenderTargets is the render pass and one framebuffer per swapchain view.
type RenderTargets struct {
	Name         string
	RenderPass   metadata.Handle
	Framebuffers []metadata.Handle
	Extent       metadata.Extent2D
	Format       metadata.Format
	ClearColor   metadata.ClearColor
	// Generation of the swapchain the framebuffers point into.
	Generation uint64
}

func CreateRenderTargets(device TargetDevice, config TargetsConfig, swapchain *SwapchainResources) (*RenderTargets, error) {
	t := &RenderTargets{
		Name:       fmt.Sprintf("targets-%d-%s", swapchain.Generation, uuid.NewString()),
		Extent:     swapchain.Extent,
		Format:     swapchain.SurfaceFormat.Format,
		ClearColor: config.ClearColor,
		Generation: swapchain.Generation,
	}

	pass, err := device.CreateRenderPass(&metadata.RenderPassConfig{
		Name:       t.Name,
		Format:     t.Format,
		ClearColor: config.ClearColor,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "creating render pass for %s", t.Name)
	}
	t.RenderPass = pass

	t.Framebuffers = make([]metadata.Handle, 0, len(swapchain.Views))
	for i, view := range swapchain.Views {
		fb, err := device.CreateFramebuffer(&metadata.FramebufferConfig{
			RenderPass: pass,
			View:       view,
			Extent:     swapchain.Extent,
		})
		if err != nil {
			t.Destroy(device)
			return nil, errors.Wrapf(err, "creating framebuffer %d for %s", i, t.Name)
		}
		t.Framebuffers = append(t.Framebuffers, fb)
	}

	core.LogDebug("render targets %s created: %d framebuffers at %s", t.Name, len(t.Framebuffers), t.Extent)
	return t, nil
}

func (t *RenderTargets) Framebuffer(imageIndex uint32) (metadata.Handle, error) {
	if int(imageIndex) >= len(t.Framebuffers) {
		return metadata.NullHandle, errors.Wrapf(core.ErrStaleResources,
			"image index %d but %s has %d framebuffers", imageIndex, t.Name, len(t.Framebuffers))
	}
	return t.Framebuffers[imageIndex], nil
}

// MatchesSwapchain reports whether the targets were built for sc.
func (t *RenderTargets) MatchesSwapchain(sc *SwapchainResources) bool {
	return t.Generation == sc.Generation &&
		t.Extent == sc.Extent &&
		len(t.Framebuffers) == len(sc.Views)
}

// Destroy releases framebuffers before the render pass they reference.
func (t *RenderTargets) Destroy(device TargetDevice) {
	if t == nil {
		return
	}
	for i := len(t.Framebuffers) - 1; i >= 0; i-- {
		device.DestroyFramebuffer(t.Framebuffers[i])
	}
	t.Framebuffers = nil
	if !t.RenderPass.IsNull() {
		device.DestroyRenderPass(t.RenderPass)
		t.RenderPass = metadata.NullHandle
	}
}
