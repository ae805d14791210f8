// Copyright (C) 2025, Kenshi Online Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package authority tracks who may write which fields of which entity,
// scoped and epoched so that authority can be sliced per field group
// and transferred without racing a stale writer.
package authority

import (
	"sync"
	"sync/atomic"

	"github.com/The404Studios/Kenshi-Online-sub006/identity"
	"github.com/The404Studios/Kenshi-Online-sub006/tick"
)

// Owner names the category of writer holding an authority grant.
type Owner uint8

const (
	OwnerNone Owner = iota
	OwnerServer
	OwnerClient
	OwnerHost
	OwnerSubsystem
	OwnerShared
)

func (o Owner) String() string {
	switch o {
	case OwnerServer:
		return "Server"
	case OwnerClient:
		return "Client"
	case OwnerHost:
		return "Host"
	case OwnerSubsystem:
		return "Subsystem"
	case OwnerShared:
		return "Shared"
	default:
		return "None"
	}
}

// Scope is a bitset of entity field groups an authority grant covers.
type Scope uint32

const (
	ScopeTransform Scope = 1 << iota
	ScopeHealth
	ScopeInventory
	ScopeAIState
	ScopeAnimation
	ScopeInput
	ScopeAll = ScopeTransform | ScopeHealth | ScopeInventory | ScopeAIState | ScopeAnimation | ScopeInput
)

// Intersects reports whether s shares any bit with other.
func (s Scope) Intersects(other Scope) bool { return s&other != 0 }

// Coordinate is a single authority grant: who, over what scope, for
// which epoch and tick window.
type Coordinate struct {
	Owner      Owner
	Scope      Scope
	Epoch      uint32
	OwnerId    identity.NetId
	GrantedAt  tick.Tick
	ExpiresAt  tick.Tick // tick.Tick max sentinel means "no expiry"
}

// NoExpiry is used as ExpiresAt for grants that do not time out.
const NoExpiry tick.Tick = 1<<63 - 1

// coversTick reports whether the grant is active at t.
func (c Coordinate) coversTick(t tick.Tick) bool {
	return t >= c.GrantedAt && t <= c.ExpiresAt
}

// entityAuthority is the per-entity map of scope -> Coordinate,
// guarded by its own mutex (spec §5: "mutex per entity").
type entityAuthority struct {
	mu    sync.Mutex
	bykey map[Scope]Coordinate
}

// Tracker is the authority map: entity -> scope -> Coordinate. The
// global epoch counter is the tiebreaker across competing transfer
// requests, independent of any per-entity lock ordering.
type Tracker struct {
	mu          sync.RWMutex
	byEntity    map[identity.NetId]*entityAuthority
	globalEpoch uint64
}

// NewTracker builds an empty authority tracker.
func NewTracker() *Tracker {
	return &Tracker{byEntity: make(map[identity.NetId]*entityAuthority)}
}

// NextEpoch atomically advances and returns the tracker's global,
// monotone epoch counter. Callers use it to stamp new transfer
// requests before attempting TransferAuthority.
func (t *Tracker) NextEpoch() uint32 {
	return uint32(atomic.AddUint64(&t.globalEpoch, 1))
}

func (t *Tracker) entityFor(id identity.NetId) *entityAuthority {
	t.mu.RLock()
	e, ok := t.byEntity[id]
	t.mu.RUnlock()
	if ok {
		return e
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.byEntity[id]; ok {
		return e
	}
	e = &entityAuthority{bykey: make(map[Scope]Coordinate)}
	t.byEntity[id] = e
	return e
}

// Grant installs coord as the authority for its scope on entity,
// unconditionally (used by Register/initial-authority publication). It
// does not check epoch ordering; use TransferAuthority for that.
func (t *Tracker) Grant(entity identity.NetId, coord Coordinate) {
	e := t.entityFor(entity)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.bykey[coord.Scope] = coord
}

// TransferAuthority installs newCoord for entity's scope, but only if
// newCoord.Epoch is strictly greater than the epoch of any existing
// grant whose scope intersects newCoord.Scope. Returns false (no
// change) if a higher-or-equal epoch already holds any of the
// requested scope.
func (t *Tracker) TransferAuthority(entity identity.NetId, newCoord Coordinate) bool {
	e := t.entityFor(entity)
	e.mu.Lock()
	defer e.mu.Unlock()

	for scope, existing := range e.bykey {
		if scope.Intersects(newCoord.Scope) && existing.Epoch >= newCoord.Epoch {
			return false
		}
	}
	e.bykey[newCoord.Scope] = newCoord
	return true
}

// Revoke removes all authority grants for entity. Called on
// Unregister.
func (t *Tracker) Revoke(entity identity.NetId) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.byEntity, entity)
}

// CanWrite reports whether owner/ownerId may write scope on entity at
// tick t: a grant covering scope must exist, owner must match, and (if
// owner is OwnerClient) ownerId must match the grant's OwnerId, and t
// must fall within the grant's tick window.
func (t *Tracker) CanWrite(entity identity.NetId, owner Owner, ownerId identity.NetId, scope Scope, at tick.Tick) bool {
	e := t.entityFor(entity)
	e.mu.Lock()
	defer e.mu.Unlock()

	for grantScope, coord := range e.bykey {
		if !grantScope.Intersects(scope) {
			continue
		}
		if coord.Owner != owner {
			continue
		}
		if owner == OwnerClient && coord.OwnerId != ownerId {
			continue
		}
		if !coord.coversTick(at) {
			continue
		}
		return true
	}
	return false
}

// Coordinates returns a snapshot copy of entity's current scope ->
// Coordinate map.
func (t *Tracker) Coordinates(entity identity.NetId) map[Scope]Coordinate {
	e := t.entityFor(entity)
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make(map[Scope]Coordinate, len(e.bykey))
	for k, v := range e.bykey {
		out[k] = v
	}
	return out
}

// CoordinateFor returns the single grant covering scope on entity, if
// any. Per the single-writer invariant at most one grant may cover any
// given scope bit at a time for a given owner category, but distinct
// scope bitsets (e.g. transform vs inventory) may be held by different
// coordinates simultaneously; CoordinateFor returns the first grant
// whose scope intersects the request.
func (t *Tracker) CoordinateFor(entity identity.NetId, scope Scope) (Coordinate, bool) {
	e := t.entityFor(entity)
	e.mu.Lock()
	defer e.mu.Unlock()
	for grantScope, coord := range e.bykey {
		if grantScope.Intersects(scope) {
			return coord, true
		}
	}
	return Coordinate{}, false
}
