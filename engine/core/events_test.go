package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetEvents(t *testing.T) {
	t.Helper()
	require.NoError(t, EventSystemShutdown())
	require.True(t, EventSystemInitialize())
	t.Cleanup(func() { _ = EventSystemShutdown() })
}

func TestEventFireIsDeferredUntilDispatch(t *testing.T) {
	resetEvents(t)

	var got []uint32
	require.NoError(t, EventRegister(EVENT_CODE_RESIZED, func(ctx EventContext) {
		got = append(got, ctx.Data.(*SystemEvent).WindowWidth)
	}))

	assert.True(t, EventFire(EventContext{Type: EVENT_CODE_RESIZED, Data: &SystemEvent{WindowWidth: 800}}))
	assert.True(t, EventFire(EventContext{Type: EVENT_CODE_RESIZED, Data: &SystemEvent{WindowWidth: 0}}))
	assert.Empty(t, got)

	assert.Equal(t, 2, EventDispatch())
	assert.Equal(t, []uint32{800, 0}, got)
	assert.Equal(t, 0, EventDispatch())
}

func TestEventListenersRunInRegistrationOrder(t *testing.T) {
	resetEvents(t)

	var order []string
	require.NoError(t, EventRegister(EVENT_CODE_APPLICATION_QUIT, func(EventContext) { order = append(order, "first") }))
	require.NoError(t, EventRegister(EVENT_CODE_APPLICATION_QUIT, func(EventContext) { order = append(order, "second") }))
	require.NoError(t, EventRegister(EVENT_CODE_KEY_PRESSED, func(EventContext) { order = append(order, "key") }))

	EventFire(EventContext{Type: EVENT_CODE_APPLICATION_QUIT})
	EventDispatch()
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestEventQueueOverflowDrops(t *testing.T) {
	resetEvents(t)

	for i := 0; i < EVENT_QUEUE_CAPACITY; i++ {
		require.True(t, EventFire(EventContext{Type: EVENT_CODE_MOUSE_MOVED}))
	}
	assert.False(t, EventFire(EventContext{Type: EVENT_CODE_MOUSE_MOVED}))
	assert.Equal(t, EVENT_QUEUE_CAPACITY, EventDispatch())
}

func TestEventRegisterRequiresInitialize(t *testing.T) {
	require.NoError(t, EventSystemShutdown())
	assert.Error(t, EventRegister(EVENT_CODE_RESIZED, func(EventContext) {}))
	assert.False(t, EventFire(EventContext{Type: EVENT_CODE_RESIZED}))
}
