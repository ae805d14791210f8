// Copyright (C) 2025, Kenshi Online Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package container implements Ring 1: the ontology of what exists,
// what kind of thing it is, which frame it lives in, and who has
// authority over it. It owns entity lifecycle (Register/Unregister)
// and publishes a bounded event log every other ring can poll.
package container

import (
	"sync"

	"github.com/The404Studios/Kenshi-Online-sub006/authority"
	"github.com/The404Studios/Kenshi-Online-sub006/identity"
	"github.com/The404Studios/Kenshi-Online-sub006/space"
	"github.com/The404Studios/Kenshi-Online-sub006/tick"
)

// Handle is an opaque, kind-dependent reference into the memory
// actuator's address space. The core never dereferences it.
type Handle uint64

// InvalidHandle is the zero value, meaning "no backing memory yet".
const InvalidHandle Handle = 0

// Entry is one Ring 1 ontology record.
type Entry struct {
	NetId          identity.NetId
	Kind           identity.Kind
	Handle         Handle
	Frame          space.Frame
	SpawnTick      tick.Tick
	DespawnTick    tick.Tick // zero/unset until Unregister
	Alive          bool
	TemplateId     uint64
	LastUpdateTick tick.Tick
}

// Registry is Ring 1: the entity registry plus its event log. All
// operations are safe for concurrent use via a single RWMutex guarding
// the entry map, matching the teacher's "mutex per ring" resource
// policy (spec §5) — the per-entity authority tracker has its own
// finer-grained locking.
type Registry struct {
	mu      sync.RWMutex
	entries map[identity.NetId]*Entry
	ids     *identity.Registry
	authz   *authority.Tracker
	events  *eventRing
}

// NewRegistry builds an empty Ring 1 backed by ids for NetId
// allocation, authz for authority publication, and an event ring of
// the given capacity (spec default >=4096).
func NewRegistry(ids *identity.Registry, authz *authority.Tracker, eventCapacity int) *Registry {
	if eventCapacity < 1 {
		eventCapacity = 4096
	}
	return &Registry{
		entries: make(map[identity.NetId]*Entry),
		ids:     ids,
		authz:   authz,
		events:  newEventRing(eventCapacity),
	}
}

// Register allocates a NetId from the kind's pool, installs initial
// authority grants, stores the entry, and emits a Spawn event. It
// returns identity.Invalid if the kind's pool is exhausted.
func (r *Registry) Register(kind identity.Kind, handle Handle, frame space.Frame, initial []authority.Coordinate, at tick.Tick, templateId uint64) identity.NetId {
	id := r.ids.Allocate(kind)
	if id == identity.Invalid {
		return identity.Invalid
	}

	entry := &Entry{
		NetId:          id,
		Kind:           kind,
		Handle:         handle,
		Frame:          frame,
		SpawnTick:      at,
		Alive:          true,
		TemplateId:     templateId,
		LastUpdateTick: at,
	}

	r.mu.Lock()
	r.entries[id] = entry
	r.mu.Unlock()

	for _, coord := range initial {
		r.authz.Grant(id, coord)
	}

	r.events.push(Event{Type: EventSpawn, EntityId: id, Tick: at, After: *entry})
	return id
}

// Unregister removes the entry, frees the NetId (bumping generation),
// revokes authority, and emits a Despawn event.
func (r *Registry) Unregister(id identity.NetId, at tick.Tick, reason string) bool {
	r.mu.Lock()
	entry, ok := r.entries[id]
	if !ok {
		r.mu.Unlock()
		return false
	}
	before := *entry
	delete(r.entries, id)
	r.mu.Unlock()

	r.authz.Revoke(id)
	r.ids.Free(id)

	after := before
	after.Alive = false
	after.DespawnTick = at
	r.events.push(Event{Type: EventDespawn, EntityId: id, Tick: at, Before: before, After: after, Reason: reason})
	return true
}

// Get returns a copy of the entry for id, if it still exists.
func (r *Registry) Get(id identity.NetId) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// IsAlive reports whether id names a live entry. It additionally
// consults the identity registry so a stale generation never reads as
// alive even if the map lookup somehow raced a free.
func (r *Registry) IsAlive(id identity.NetId) bool {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	return ok && e.Alive && r.ids.IsAlive(id)
}

// UpdateHandle rebinds the actuator handle for id and emits an event.
func (r *Registry) UpdateHandle(id identity.NetId, handle Handle, at tick.Tick) bool {
	r.mu.Lock()
	e, ok := r.entries[id]
	if !ok {
		r.mu.Unlock()
		return false
	}
	before := *e
	e.Handle = handle
	e.LastUpdateTick = at
	after := *e
	r.mu.Unlock()

	r.events.push(Event{Type: EventUpdateHandle, EntityId: id, Tick: at, Before: before, After: after})
	return true
}

// UpdateFrame rebinds which reference frame id's transform lives in
// (e.g. attaching to a new parent bone) and emits an event.
func (r *Registry) UpdateFrame(id identity.NetId, frame space.Frame, at tick.Tick) bool {
	r.mu.Lock()
	e, ok := r.entries[id]
	if !ok {
		r.mu.Unlock()
		return false
	}
	before := *e
	e.Frame = frame
	e.LastUpdateTick = at
	after := *e
	r.mu.Unlock()

	r.events.push(Event{Type: EventUpdateFrame, EntityId: id, Tick: at, Before: before, After: after})
	return true
}

// TransferAuthority attempts to move scope's authority on id to
// newCoord via the authority tracker, and emits an event if it
// succeeds.
func (r *Registry) TransferAuthority(id identity.NetId, newCoord authority.Coordinate, at tick.Tick) bool {
	if !r.IsAlive(id) {
		return false
	}
	ok := r.authz.TransferAuthority(id, newCoord)
	if ok {
		entry, _ := r.Get(id)
		entry.LastUpdateTick = at
		r.mu.Lock()
		if e, present := r.entries[id]; present {
			e.LastUpdateTick = at
		}
		r.mu.Unlock()
		r.events.push(Event{Type: EventAuthorityChange, EntityId: id, Tick: at, After: entry})
	}
	return ok
}

// ByKind iterates all live entries of the given kind.
func (r *Registry) ByKind(kind identity.Kind) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, 0)
	for _, e := range r.entries {
		if e.Kind == kind {
			out = append(out, *e)
		}
	}
	return out
}

// All returns a snapshot of every live entry.
func (r *Registry) All() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, *e)
	}
	return out
}

// ByOwner iterates live entries whose authority tracker currently
// grants scope to owner/ownerId at tick `at`.
func (r *Registry) ByOwner(owner authority.Owner, ownerId identity.NetId, scope authority.Scope, at tick.Tick) []Entry {
	r.mu.RLock()
	candidates := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		candidates = append(candidates, *e)
	}
	r.mu.RUnlock()

	out := make([]Entry, 0)
	for _, e := range candidates {
		if r.authz.CanWrite(e.NetId, owner, ownerId, scope, at) {
			out = append(out, e)
		}
	}
	return out
}

// EventsSince returns events with index >= from, and the ring's
// current head for the next poll.
func (r *Registry) EventsSince(from uint64) ([]Event, uint64) {
	return r.events.since(from)
}

// ValidationIssue is a single diagnostic finding from Validate.
type ValidationIssue struct {
	EntityId identity.NetId
	Problem  string
}

// Validate runs the diagnostic (non-blocking) checks from spec §4.6:
// alive entries must have a live NetId, a non-invalid memory handle,
// and authority that the tracker agrees is non-empty.
func (r *Registry) Validate() []ValidationIssue {
	r.mu.RLock()
	entries := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, *e)
	}
	r.mu.RUnlock()

	var issues []ValidationIssue
	for _, e := range entries {
		if !r.ids.IsAlive(e.NetId) {
			issues = append(issues, ValidationIssue{e.NetId, "alive entry has stale NetId"})
		}
		if e.Handle == InvalidHandle {
			issues = append(issues, ValidationIssue{e.NetId, "alive entry has invalid memory handle"})
		}
		if len(r.authz.Coordinates(e.NetId)) == 0 {
			issues = append(issues, ValidationIssue{e.NetId, "alive entry has no authority grants"})
		}
	}
	return issues
}
