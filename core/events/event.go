package events

import "basalt/core/types"

// Event represents a structured state change emitted by a native program.
type Event interface {
	EventType() string
}

// Renderable events expose a flat attribute form for receipts and logs.
type Renderable interface {
	Event
	Event() *types.Event
}

// Emitter broadcasts events to downstream subscribers (e.g. receipts, logs).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter is a helper that satisfies the Emitter interface while discarding
// all events. It is useful when a component wants to optionally expose events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

// Buffer holds events until the enclosing instruction commits. Events of a
// rolled back instruction are dropped with Reset.
type Buffer struct {
	events []Event
}

func (b *Buffer) Emit(evt Event) {
	if b == nil || evt == nil {
		return
	}
	b.events = append(b.events, evt)
}

// Events returns the buffered events in emission order.
func (b *Buffer) Events() []Event {
	if b == nil {
		return nil
	}
	out := make([]Event, len(b.events))
	copy(out, b.events)
	return out
}

func (b *Buffer) Reset() {
	if b != nil {
		b.events = nil
	}
}

// Flush forwards the buffered events to dst and clears the buffer.
func (b *Buffer) Flush(dst Emitter) []*types.Event {
	if b == nil {
		return nil
	}
	rendered := make([]*types.Event, 0, len(b.events))
	for _, evt := range b.events {
		if dst != nil {
			dst.Emit(evt)
		}
		if r, ok := evt.(Renderable); ok {
			if out := r.Event(); out != nil {
				rendered = append(rendered, out)
			}
		}
	}
	b.events = nil
	return rendered
}
