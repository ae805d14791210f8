// Copyright (C) 2025, Kenshi Online Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package container

import (
	"sync"

	"github.com/The404Studios/Kenshi-Online-sub006/identity"
	"github.com/The404Studios/Kenshi-Online-sub006/tick"
)

// EventType tags the kind of lifecycle change recorded.
type EventType uint8

const (
	EventSpawn EventType = iota
	EventDespawn
	EventUpdateHandle
	EventUpdateFrame
	EventAuthorityChange
)

func (e EventType) String() string {
	switch e {
	case EventSpawn:
		return "Spawn"
	case EventDespawn:
		return "Despawn"
	case EventUpdateHandle:
		return "UpdateHandle"
	case EventUpdateFrame:
		return "UpdateFrame"
	case EventAuthorityChange:
		return "AuthorityChange"
	default:
		return "Unknown"
	}
}

// Event is one immutable, by-value record in the container event log.
type Event struct {
	Type     EventType
	EntityId identity.NetId
	Tick     tick.Tick
	Before   Entry
	After    Entry
	Reason   string
}

// eventRing is an in-memory circular buffer of the last N events with
// a monotone head counter. Consumers poll via since(i); entries older
// than the retained window are simply gone, matching the teacher's
// bounded-history pattern used for its own container event ring.
type eventRing struct {
	mu   sync.Mutex
	buf  []Event
	head uint64 // total events ever pushed
}

func newEventRing(capacity int) *eventRing {
	return &eventRing{buf: make([]Event, capacity)}
}

func (r *eventRing) push(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf[r.head%uint64(len(r.buf))] = e
	r.head++
}

// since returns every retained event with ring-index >= from, in
// order, plus the current head (the index to pass next time).
func (r *eventRing) since(from uint64) ([]Event, uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := uint64(len(r.buf))
	if r.head == 0 {
		return nil, 0
	}
	oldestRetained := uint64(0)
	if r.head > n {
		oldestRetained = r.head - n
	}
	if from < oldestRetained {
		from = oldestRetained
	}
	if from >= r.head {
		return nil, r.head
	}

	out := make([]Event, 0, r.head-from)
	for i := from; i < r.head; i++ {
		out = append(out, r.buf[i%n])
	}
	return out, r.head
}
