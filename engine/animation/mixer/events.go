package mixer

// EventType identifies a mixer event.
type EventType int

const (
	// EventLoop is sent when a repeating action wraps around.
	EventLoop EventType = iota
	// EventFinished is sent when an action runs out of repetitions or reaches the end of a Once clip.
	EventFinished
)

// String returns the event name.
func (e EventType) String() string {
	switch e {
	case EventLoop:
		return "loop"
	case EventFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Event is delivered to listeners after the Update call that produced it has applied all values.
type Event struct {
	Type   EventType
	Action Action
	// Direction is 1 when playing forward and -1 when playing backward.
	Direction int
	// LoopDelta is the signed number of wraps that happened in one tick. Zero for EventFinished.
	LoopDelta int
}

// EventHandler receives mixer events.
type EventHandler func(e Event)

// eventBus keeps handlers per event type and calls them in subscription order.
type eventBus struct {
	handlers map[EventType][]EventHandler
}

func (b *eventBus) subscribe(t EventType, h EventHandler) {
	if h == nil {
		return
	}
	if b.handlers == nil {
		b.handlers = make(map[EventType][]EventHandler)
	}
	b.handlers[t] = append(b.handlers[t], h)
}

func (b *eventBus) publish(e Event) {
	for _, h := range b.handlers[e.Type] {
		h(e)
	}
}

func (b *eventBus) clear() {
	b.handlers = nil
}
