// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

// Package eventbus is the publish/subscribe hub spec §4.F describes: two
// channels, WorkspaceIndexing and ProjectIndexing, each carrying a tagged
// state (Started, Progress, Completed, Failed). Subscribers attach at any
// time and see only events published after attachment, there is no replay
// buffer, matching the teacher's own structured-logging idiom of emitting
// events as they happen rather than retaining a log for late readers.
package eventbus

import "sync"

// Channel names the two event streams spec §4.F defines.
type Channel string

const (
	WorkspaceIndexing Channel = "workspace_indexing"
	ProjectIndexing   Channel = "project_indexing"
)

// StateKind is the closed set of tagged states an Event can carry.
type StateKind string

const (
	StateStarted   StateKind = "started"
	StateProgress  StateKind = "progress"
	StateCompleted StateKind = "completed"
	StateFailed    StateKind = "failed"
)

// Event is one published message. Only the field matching Kind is
// meaningful; the others are the zero value.
type Event struct {
	Channel Channel
	Kind    StateKind

	// SubjectID is the workspace or project path this event concerns,
	// letting a subscriber interested in one project filter a shared bus.
	SubjectID string

	// Progress fields (Kind == StateProgress).
	Completed int
	Total     int
	Stage     string

	// Completed fields (Kind == StateCompleted).
	Stats any

	// Failed fields (Kind == StateFailed).
	Err error
}

// Subscription is a live handle returned by Bus.Subscribe. Events arrive on
// C; call Unsubscribe when done to stop receiving and release the channel.
type Subscription struct {
	C <-chan Event

	bus *Bus
	id  uint64
	ch  chan Event
}

// Unsubscribe detaches this subscription. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.bus.unsubscribe(s.id)
}

// Bus is a multi-producer, multi-consumer broadcast primitive: every
// Publish fans out to every currently-attached subscriber's buffered
// channel. A slow subscriber drops events rather than blocking Publish:
// the event bus reports progress, it does not guarantee delivery.
type Bus struct {
	mu        sync.Mutex
	nextID    uint64
	listeners map[uint64]chan Event
}

// New returns an empty Bus.
func New() *Bus {
	return &Bus{listeners: make(map[uint64]chan Event)}
}

// Subscribe attaches a new listener with a bounded event buffer. Events
// published before this call are never delivered.
func (b *Bus) Subscribe(bufferSize int) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Event, bufferSize)
	b.listeners[id] = ch

	return &Subscription{C: ch, bus: b, id: id, ch: ch}
}

func (b *Bus) unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.listeners[id]; ok {
		delete(b.listeners, id)
		close(ch)
	}
}

// Publish fans ev out to every attached subscriber. A subscriber whose
// buffer is full drops the event instead of backpressuring the publisher:
// B/C/D/E must never stall waiting for a slow observer.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.listeners {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Close detaches and closes every subscriber's channel. Call once, after
// the last Publish, to let subscriber goroutines observe channel closure.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.listeners {
		delete(b.listeners, id)
		close(ch)
	}
}
