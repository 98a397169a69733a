// Package eventbus implements the synchronous, in-process typed event
// broadcast that is the sole contract between the engine and the UI layer
// (spec §4.9).
package eventbus

import (
	"log/slog"
	"sync"

	"github.com/BlaiseCz/VoicePage/internal/voicepage"
)

// Listener receives every event emitted after it subscribes, in emission
// order. A listener must not block; it runs synchronously on the emitting
// goroutine.
type Listener func(voicepage.Event)

// Unsubscribe removes a previously registered listener. Calling it more than
// once is a no-op.
type Unsubscribe func()

// Bus is a synchronous, order-preserving, append-only, panic-isolated event
// broadcaster. The zero value is not usable; use New.
//
// Bus is safe for concurrent use: mu guards the listener list and history.
// Listeners are invoked after mu is released, on the emitting goroutine.
type Bus struct {
	mu        sync.Mutex // guards listeners and history against devbridge's reader goroutine
	listeners []subscription
	history   []voicepage.Event
	nextID    uint64
}

type subscription struct {
	id uint64
	fn Listener
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{}
}

// On registers fn to receive every subsequently emitted event, in
// registration order relative to other listeners. The returned Unsubscribe
// removes fn; calling it more than once is a no-op.
func (b *Bus) On(fn Listener) Unsubscribe {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners = append(b.listeners, subscription{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, s := range b.listeners {
				if s.id == id {
					b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
					break
				}
			}
		})
	}
}

// Emit records event in the append-only history, then invokes every
// currently registered listener in registration order. A panic inside one
// listener is recovered, logged, and does not prevent delivery to the
// remaining listeners or corrupt history (spec §4.9).
func (b *Bus) Emit(event voicepage.Event) {
	b.mu.Lock()
	b.history = append(b.history, event)
	listeners := make([]subscription, len(b.listeners))
	copy(listeners, b.listeners)
	b.mu.Unlock()

	for _, s := range listeners {
		invokeSafely(s.fn, event)
	}
}

// invokeSafely calls fn(event), recovering and logging any panic so that one
// faulty listener can never take down emission to the rest.
func invokeSafely(fn Listener, event voicepage.Event) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("eventbus: listener panicked, isolating",
				"event", event.Type,
				"panic", r,
			)
		}
	}()
	fn(event)
}

// History returns a copy of every event emitted so far, oldest first. The
// returned slice is a snapshot; mutating it does not affect the bus.
func (b *Bus) History() []voicepage.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]voicepage.Event, len(b.history))
	copy(out, b.history)
	return out
}

// Clear removes all listeners and empties the history.
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = nil
	b.history = nil
}
