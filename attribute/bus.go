// Copyright (C) 2025, Kenshi Online Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package attribute

import (
	"github.com/The404Studios/Kenshi-Online-sub006/identity"
	"github.com/The404Studios/Kenshi-Online-sub006/space"
	"github.com/The404Studios/Kenshi-Online-sub006/tick"
)

// ResponseBus pre-resolves every read a subsystem will need at the
// start of its update, so get*Data calls within the tick never block
// (spec §4.9).
type ResponseBus struct {
	resolver *Resolver
	snapshot map[identity.NetId]ReadResponse
	tick     tick.Tick
	renderCarryover map[identity.NetId]ReadResponse
}

// NewResponseBus wires a bus to the shared resolver.
func NewResponseBus(resolver *Resolver) *ResponseBus {
	return &ResponseBus{resolver: resolver, snapshot: make(map[identity.NetId]ReadResponse)}
}

func (b *ResponseBus) precondition(entities []identity.NetId, category Category, at tick.Tick) {
	b.tick = at
	b.snapshot = make(map[identity.NetId]ReadResponse, len(entities))
	for _, id := range entities {
		b.snapshot[id] = b.resolver.ReadTransform(id, category, at)
	}
}

// PreconditionPhysics snapshots physics-category reads for entities.
func (b *ResponseBus) PreconditionPhysics(entities []identity.NetId, at tick.Tick) {
	b.precondition(entities, CategoryPhysics, at)
}

// PreconditionRender snapshots render-category reads for entities. The
// snapshot is retained for one additional tick to avoid flicker;
// missing entities degrade to a default identity transform rather than
// blocking the renderer.
func (b *ResponseBus) PreconditionRender(entities []identity.NetId, at tick.Tick) {
	carry := b.snapshot
	b.precondition(entities, CategoryRender, at)
	for id, r := range b.snapshot {
		if r.Decision == DecisionBlock {
			b.snapshot[id] = defaultTransformResponse()
		}
	}
	b.renderCarryover = carry
}

func defaultTransformResponse() ReadResponse {
	return ReadResponse{Decision: DecisionSubstitute, Rotation: space.IdentityQuat, Reason: "default transform: no precondition snapshot available"}
}

// PreconditionAI snapshots AI-category reads for self plus candidates.
func (b *ResponseBus) PreconditionAI(self identity.NetId, candidates []identity.NetId, at tick.Tick) {
	all := append([]identity.NetId{self}, candidates...)
	b.precondition(all, CategoryAI, at)
}

// PreconditionAnimation snapshots animation reads, using the gameplay
// category when gameplayLinked is set and the cosmetic category
// otherwise.
func (b *ResponseBus) PreconditionAnimation(entities []identity.NetId, gameplayLinked bool, at tick.Tick) {
	category := CategoryAnimationCosmetic
	if gameplayLinked {
		category = CategoryAnimationGameplay
	}
	b.precondition(entities, category, at)
}

// GetData returns the preconditioned response for id, falling back to
// the render carryover from the prior tick, and finally to a default
// identity transform so Render is never blocked (spec §4.9).
func (b *ResponseBus) GetData(id identity.NetId) ReadResponse {
	if r, ok := b.snapshot[id]; ok {
		return r
	}
	if r, ok := b.renderCarryover[id]; ok {
		return r
	}
	return defaultTransformResponse()
}
