// Copyright (C) 2025, Kenshi Online Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package truth implements Ring 3: the write-ahead log of accepted
// state changes, with coalescing, pluggable constraints, periodic
// snapshots, and deterministic replay.
package truth

import (
	"time"

	"github.com/The404Studios/Kenshi-Online-sub006/confidence"
	"github.com/The404Studios/Kenshi-Online-sub006/identity"
	"github.com/The404Studios/Kenshi-Online-sub006/schema"
	"github.com/The404Studios/Kenshi-Online-sub006/space"
	"github.com/The404Studios/Kenshi-Online-sub006/tick"
)

// Op is the kind of state change a commit represents.
type Op uint8

const (
	OpSet Op = iota
	OpPatch
	OpSpawn
	OpDespawn
	OpAuthorityChange
	OpEvent
)

func (o Op) String() string {
	switch o {
	case OpSet:
		return "Set"
	case OpPatch:
		return "Patch"
	case OpSpawn:
		return "Spawn"
	case OpDespawn:
		return "Despawn"
	case OpAuthorityChange:
		return "AuthorityChange"
	case OpEvent:
		return "Event"
	default:
		return "Unknown"
	}
}

// Result is the outcome of submitting a commit.
type Result uint8

const (
	ResultAccepted Result = iota
	ResultRejected
	ResultDeferred
	ResultCoalesced
)

func (r Result) String() string {
	switch r {
	case ResultAccepted:
		return "Accepted"
	case ResultRejected:
		return "Rejected"
	case ResultDeferred:
		return "Deferred"
	case ResultCoalesced:
		return "Coalesced"
	default:
		return "Unknown"
	}
}

// RejectedCommitId is used for synthetic commits representing a
// constraint or authority rejection; rejections never consume the
// global counter.
const RejectedCommitId int64 = -1

// Commit is one entry in the truth log.
type Commit struct {
	CommitId       int64
	Subject        identity.NetId
	Op             Op
	Payload        schema.Payload
	Tick           tick.Tick
	AuthorityEpoch uint32
	SourceId       confidence.SourceId
	Result         Result
	Reason         string
	Timestamp      time.Time
	PayloadHash    uint64
}

const recentCommitsCap = 16

// EntityState is the folded, per-entity projection of every Accepted
// commit applied to a subject, in commit order.
type EntityState struct {
	LastTick     tick.Tick
	LastCommitId int64
	LastCommit   Commit

	Transform *schema.TransformPayload
	Health    *schema.HealthPayload
	Inventory *schema.InventoryPayload
	AIState   *schema.AIStatePayload
	AnimState *schema.AnimStatePayload

	RecentCommits []Commit // bounded ring, most-recent last
}

// clone returns a deep-enough copy of s for storage in a snapshot or
// for handing to a caller without risking in-place mutation of the
// log's own state (spec §9: "in-place mutation of stored truth states
// is forbidden outside the AuthorityRing's own commit step").
func (s EntityState) clone() EntityState {
	out := s
	if s.Transform != nil {
		t := *s.Transform
		out.Transform = &t
	}
	if s.Health != nil {
		h := *s.Health
		out.Health = &h
	}
	if s.Inventory != nil {
		inv := *s.Inventory
		inv.Items = append([]schema.InventoryItem(nil), s.Inventory.Items...)
		out.Inventory = &inv
	}
	if s.AIState != nil {
		a := *s.AIState
		out.AIState = &a
	}
	if s.AnimState != nil {
		a := *s.AnimState
		out.AnimState = &a
	}
	out.RecentCommits = append([]Commit(nil), s.RecentCommits...)
	return out
}

func (s *EntityState) pushRecent(c Commit) {
	s.RecentCommits = append(s.RecentCommits, c)
	if len(s.RecentCommits) > recentCommitsCap {
		s.RecentCommits = s.RecentCommits[len(s.RecentCommits)-recentCommitsCap:]
	}
}

// apply folds an Accepted commit's payload into the entity state,
// replacing the field the payload's schema kind targets. This is the
// single explicit-dispatch location for payload extraction (spec §9:
// no runtime type inspection beyond a type switch on the closed sum
// type).
func (s *EntityState) apply(c Commit) {
	s.LastTick = c.Tick
	s.LastCommitId = c.CommitId
	s.LastCommit = c
	if c.Result == ResultCoalesced && len(s.RecentCommits) > 0 {
		s.RecentCommits[len(s.RecentCommits)-1] = c
	} else {
		s.pushRecent(c)
	}

	if c.Op == OpEvent || c.Op == OpDespawn {
		return
	}

	switch p := c.Payload.(type) {
	case schema.TransformPayload:
		t := p
		s.Transform = &t
	case schema.HealthPayload:
		h := p
		s.Health = &h
	case schema.InventoryPayload:
		inv := p
		s.Inventory = &inv
	case schema.AIStatePayload:
		a := p
		s.AIState = &a
	case schema.AnimStatePayload:
		a := p
		s.AnimState = &a
	}
}

// worldLookup implements space.ParentLookup over this package's own
// notion of entity truth, so the space resolver can recursively follow
// a Local/Parented chain without importing truth (avoiding a cycle —
// NewLog injects it into the resolver it builds).
type worldLookup struct{ log *Log }

func (w worldLookup) WorldTransform(parent uint64) (space.Transform, bool) {
	id := identity.NetId(parent)
	state, ok := w.log.EntityState(id)
	if !ok || state.Transform == nil {
		return space.Transform{}, false
	}
	return state.Transform.Transform, true
}
