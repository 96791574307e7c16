package testbed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/vkframe/engine/config"
	"github.com/spaghettifunk/vkframe/engine/core"
	"github.com/spaghettifunk/vkframe/engine/renderer/components"
)

func pressed(keys ...core.KeyCode) func(core.KeyCode) bool {
	return func(k core.KeyCode) bool {
		for _, key := range keys {
			if key == k {
				return true
			}
		}
		return false
	}
}

func TestMoveAxes(t *testing.T) {
	tests := []struct {
		name string
		keys []core.KeyCode
		want components.MoveAxes
	}{
		{"idle", nil, components.MoveAxes{}},
		{"forward", []core.KeyCode{core.KEY_W}, components.MoveAxes{Z: 1}},
		{"arrow back", []core.KeyCode{core.KEY_DOWN}, components.MoveAxes{Z: -1}},
		{"strafe left", []core.KeyCode{core.KEY_A}, components.MoveAxes{X: -1}},
		{"up and right", []core.KeyCode{core.KEY_E, core.KEY_RIGHT}, components.MoveAxes{X: 1, Y: 1}},
		{"opposites cancel", []core.KeyCode{core.KEY_W, core.KEY_S, core.KEY_Q}, components.MoveAxes{Y: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, moveAxes(pressed(tt.keys...)))
		})
	}
}

func TestRenderReturnsWorldCamera(t *testing.T) {
	g := NewTestGame(config.Default())

	camera, err := g.FnRender(0.016)
	require.NoError(t, err)
	assert.Same(t, g.state().WorldCamera, camera)

	require.NoError(t, g.FnOnResize(800, 600))
	assert.Equal(t, uint32(800), g.state().width)
}
