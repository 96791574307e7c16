package core

import (
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/spaghettifunk/vkframe/engine/containers"
)

// System internal event codes. Application should use codes beyond 255.
type EventCode uint16

const (
	// Shuts the application down on the next frame.
	EVENT_CODE_APPLICATION_QUIT EventCode = 0x01

	// Keyboard key pressed. Data: *KeyEvent
	EVENT_CODE_KEY_PRESSED EventCode = 0x02

	// Keyboard key released. Data: *KeyEvent
	EVENT_CODE_KEY_RELEASED EventCode = 0x03

	// Mouse button pressed. Data: *MouseEvent
	EVENT_CODE_BUTTON_PRESSED EventCode = 0x04

	// Mouse button released. Data: *MouseEvent
	EVENT_CODE_BUTTON_RELEASED EventCode = 0x05

	// Mouse moved. Data: *MouseEvent
	EVENT_CODE_MOUSE_MOVED EventCode = 0x06

	// Mouse wheel. Data: *MouseEvent
	EVENT_CODE_MOUSE_WHEEL EventCode = 0x07

	// Framebuffer resized by the OS. Data: *SystemEvent
	EVENT_CODE_RESIZED EventCode = 0x08

	// Content scale changed, framebuffer size included. Data: *SystemEvent
	EVENT_CODE_SCALE_FACTOR_CHANGED EventCode = 0x09

	// A watched shader binary changed on disk. Data: *AssetEvent
	EVENT_CODE_SHADERS_CHANGED EventCode = 0x0A

	MAX_EVENT_CODE EventCode = 0xFF
)

// This should be more than enough codes...
const MAX_MESSAGE_CODES = 16384

// Pending events beyond this are dropped.
const EVENT_QUEUE_CAPACITY = 1024

type EventContext struct {
	Type EventCode
	Data interface{}
}

type KeyEvent struct {
	KeyCode KeyCode
}

type MouseEvent struct {
	Button Button
	PosX   float64
	PosY   float64
	Scroll int8
}

type SystemEvent struct {
	WindowWidth  uint32
	WindowHeight uint32
	ScaleX       float32
	ScaleY       float32
}

type AssetEvent struct {
	Path string
}

type FnOnEvent func(context EventContext)

type eventSystemState struct {
	mu         sync.Mutex
	registered map[EventCode][]FnOnEvent
	queue      *containers.RingQueue[EventContext]
	dropped    uint64
}

var onceEvent sync.Once
var eventState *eventSystemState = nil

func EventSystemInitialize() bool {
	onceEvent.Do(func() {
		eventState = &eventSystemState{}
	})
	eventState.mu.Lock()
	defer eventState.mu.Unlock()
	if eventState.queue != nil {
		return false
	}
	eventState.registered = make(map[EventCode][]FnOnEvent)
	eventState.queue = containers.NewRingQueue[EventContext](EVENT_QUEUE_CAPACITY)
	return true
}

func EventSystemShutdown() error {
	if eventState == nil {
		return nil
	}
	eventState.mu.Lock()
	defer eventState.mu.Unlock()
	eventState.registered = nil
	eventState.queue = nil
	eventState.dropped = 0
	return nil
}

// EventRegister adds a listener for code. Listeners run in registration order.
func EventRegister(code EventCode, onEvent FnOnEvent) error {
	if eventState == nil || eventState.queue == nil {
		return errors.New("event system not initialized")
	}
	if uint32(code) >= MAX_MESSAGE_CODES {
		return errors.Newf("event code %d out of range", code)
	}
	eventState.mu.Lock()
	defer eventState.mu.Unlock()
	eventState.registered[code] = append(eventState.registered[code], onEvent)
	return nil
}

// EventFire queues an event. Safe to call from any goroutine; listeners only
// run from EventDispatch.
func EventFire(context EventContext) bool {
	if eventState == nil {
		return false
	}
	eventState.mu.Lock()
	defer eventState.mu.Unlock()
	if eventState.queue == nil {
		return false
	}
	if err := eventState.queue.Enqueue(context); err != nil {
		eventState.dropped++
		return false
	}
	return true
}

// EventDispatch drains the queue on the calling goroutine and returns the
// number of events delivered.
func EventDispatch() int {
	if eventState == nil {
		return 0
	}
	delivered := 0
	for {
		eventState.mu.Lock()
		if eventState.queue == nil {
			eventState.mu.Unlock()
			return delivered
		}
		context, err := eventState.queue.Dequeue()
		if err != nil {
			dropped := eventState.dropped
			eventState.dropped = 0
			eventState.mu.Unlock()
			if dropped > 0 {
				LogWarn("event queue overflowed, %d events dropped", dropped)
			}
			return delivered
		}
		listeners := append([]FnOnEvent(nil), eventState.registered[context.Type]...)
		eventState.mu.Unlock()

		for _, l := range listeners {
			l(context)
		}
		delivered++
	}
}
