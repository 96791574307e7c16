package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetricsAveragesFrameTime(t *testing.T) {
	m := NewMetrics()
	for i := 0; i < int(AVG_COUNT); i++ {
		m.Update(0.016)
	}
	assert.InDelta(t, 16.0, m.FrameTime(), 1e-9)
}

func TestMetricsCountsFramesPerSecond(t *testing.T) {
	m := NewMetrics()
	// 101 frames of 10ms crosses the one second mark once.
	for i := 0; i < 101; i++ {
		m.Update(0.010)
	}
	fps, _ := m.Frame()
	assert.Equal(t, 100.0, fps)
}
