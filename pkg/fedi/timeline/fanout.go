// Copyright 2024-2026 Aiku AI

package timeline

import (
	"sync"

	"github.com/aiku/fedikit/pkg/fedi"
)

// Fanout broadcasts local actions (a post created or deleted through the
// capability layer) to every open view of the same account. It is an
// explicit callback list, not shared feed state: each registered sink owns
// its feed and applies the event under that feed's own lock.
type Fanout struct {
	mu     sync.Mutex
	nextID int
	sinks  map[int]func(fedi.StreamingEvent)
}

// NewFanout returns an empty broadcaster.
func NewFanout() *Fanout {
	return &Fanout{sinks: make(map[int]func(fedi.StreamingEvent))}
}

// Register adds a per-feed sink and returns a cancel func. Cancel is safe
// to call more than once.
func (f *Fanout) Register(sink func(fedi.StreamingEvent)) (cancel func()) {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.sinks[id] = sink
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		delete(f.sinks, id)
		f.mu.Unlock()
	}
}

// Broadcast delivers one event to every registered sink.
func (f *Fanout) Broadcast(evt fedi.StreamingEvent) {
	f.mu.Lock()
	sinks := make([]func(fedi.StreamingEvent), 0, len(f.sinks))
	for _, s := range f.sinks {
		sinks = append(sinks, s)
	}
	f.mu.Unlock()
	for _, s := range sinks {
		s(evt)
	}
}
