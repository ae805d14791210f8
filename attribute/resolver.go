// Copyright (C) 2025, Kenshi Online Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package attribute

import (
	"sync"

	"github.com/The404Studios/Kenshi-Online-sub006/identity"
	"github.com/The404Studios/Kenshi-Online-sub006/schema"
	"github.com/The404Studios/Kenshi-Online-sub006/space"
	"github.com/The404Studios/Kenshi-Online-sub006/tick"
)

// Category names a subsystem's read intent; each carries its own
// staleness budget (spec §4.9 table).
type Category uint8

const (
	CategoryPhysics Category = iota
	CategoryRender
	CategoryAI
	CategoryAnimationCosmetic
	CategoryAnimationGameplay
	CategoryNetworkSync
)

func (c Category) String() string {
	switch c {
	case CategoryPhysics:
		return "Physics"
	case CategoryRender:
		return "Render"
	case CategoryAI:
		return "AI"
	case CategoryAnimationCosmetic:
		return "AnimationCosmetic"
	case CategoryAnimationGameplay:
		return "AnimationGameplay"
	case CategoryNetworkSync:
		return "NetworkSync"
	default:
		return "Unknown"
	}
}

// StaleBehavior names how a category handles a budget-exceeding read.
type StaleBehavior uint8

const (
	ReturnNone StaleBehavior = iota
	ReturnLastKnown
	ExtrapolateBehavior
	SoftConverge
)

// CategoryBudget is one row of the spec's staleness-budget table.
type CategoryBudget struct {
	MaxStaleTicks   tick.Tick
	MinConfidence   float64
	Extrapolate     bool
	MaxExtrapolate  tick.Tick
	OnStale         StaleBehavior
}

// DefaultBudgets reproduces the spec §4.9 table verbatim.
func DefaultBudgets() map[Category]CategoryBudget {
	return map[Category]CategoryBudget{
		CategoryPhysics:           {MaxStaleTicks: 2, MinConfidence: 0.90, Extrapolate: true, MaxExtrapolate: 3, OnStale: SoftConverge},
		CategoryRender:            {MaxStaleTicks: 10, MinConfidence: 0.50, Extrapolate: true, MaxExtrapolate: 20, OnStale: ExtrapolateBehavior},
		CategoryAI:                {MaxStaleTicks: 5, MinConfidence: 0.80, Extrapolate: false, OnStale: ReturnNone},
		CategoryAnimationCosmetic: {MaxStaleTicks: 8, MinConfidence: 0.60, Extrapolate: true, MaxExtrapolate: 15, OnStale: ExtrapolateBehavior},
		CategoryAnimationGameplay: {MaxStaleTicks: 3, MinConfidence: 0.85, Extrapolate: true, MaxExtrapolate: 5, OnStale: SoftConverge},
		CategoryNetworkSync:       {MaxStaleTicks: 2, MinConfidence: 0.90, Extrapolate: true, MaxExtrapolate: 3, OnStale: SoftConverge},
	}
}

// ReadDecision is the resolver's coarse verdict.
type ReadDecision uint8

const (
	DecisionAllow ReadDecision = iota
	DecisionSubstitute
	DecisionBlock
)

// ReadResponse is the resolver's full answer to a subsystem's read.
type ReadResponse struct {
	Source     string
	Value      schema.Payload
	Position   space.Vec3
	Rotation   space.Quat
	Confidence float64
	TTLTicks   tick.Tick
	Decision   ReadDecision
	SourceTick tick.Tick
	Reason     string
}

type cacheKey struct {
	subject identity.NetId
	kind    schema.Kind
}

type cacheEntry struct {
	response  ReadResponse
	expiresAt tick.Tick
}

// Resolver is the Ring 4 read choke point: a per-entity history store,
// a TTL'd resolved cache, and the category staleness-budget table.
type Resolver struct {
	mu         sync.RWMutex
	histories  map[identity.NetId]*TransformHistory
	cache      map[cacheKey]cacheEntry
	budgets    map[Category]CategoryBudget
	sampling   SamplingPolicy
	gate       GatePolicy
}

// NewResolver builds an empty resolver with the spec's default budgets
// and sampling policy.
func NewResolver() *Resolver {
	return &Resolver{
		histories: make(map[identity.NetId]*TransformHistory),
		cache:     make(map[cacheKey]cacheEntry),
		budgets:   DefaultBudgets(),
		sampling:  DefaultSamplingPolicy(),
		gate:      DefaultGatePolicy(),
	}
}

// RecordTransform pushes a new authoritative transform sample for id.
func (r *Resolver) RecordTransform(id identity.NetId, s Sample) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.histories[id]
	if !ok {
		h = &TransformHistory{}
		r.histories[id] = h
	}
	h.Push(s)
}

// InvalidateSubject drops every cached entry for id, used when a new
// commit supersedes whatever was cached.
func (r *Resolver) InvalidateSubject(id identity.NetId) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k := range r.cache {
		if k.subject == id {
			delete(r.cache, k)
		}
	}
}

// ReadTransform resolves a transform read for subject under category at
// currentTick, following the resolution order from spec §4.9: cache hit,
// then authority/interpolation within budget, then the stale-behavior
// handler.
func (r *Resolver) ReadTransform(subject identity.NetId, category Category, currentTick tick.Tick) ReadResponse {
	key := cacheKey{subject: subject, kind: schemaTransformKind}

	r.mu.RLock()
	if e, ok := r.cache[key]; ok && currentTick <= e.expiresAt {
		r.mu.RUnlock()
		return e.response
	}
	h, haveHistory := r.histories[subject]
	r.mu.RUnlock()

	budget, ok := r.budgets[category]
	if !ok {
		budget = CategoryBudget{OnStale: ReturnLastKnown}
	}

	if !haveHistory {
		return r.finalizeBlock(subject, "no history recorded for subject")
	}

	resolved := h.SampleAt(currentTick, SamplingPolicy{
		InterpolationDelayTicks: r.sampling.InterpolationDelayTicks,
		MaxExtrapolateTicks:     budget.MaxExtrapolate,
	})

	latest, _ := h.Latest()
	age := currentTick - latest.Tick

	var resp ReadResponse
	switch {
	case resolved.Mode != ModeNone && age <= budget.MaxStaleTicks && resolved.Confidence >= budget.MinConfidence:
		resp = ReadResponse{
			Source: "history", Position: resolved.Position, Rotation: resolved.Rotation,
			Confidence: resolved.Confidence, TTLTicks: 1, Decision: DecisionAllow, SourceTick: latest.Tick,
		}

	case resolved.Mode != ModeNone && budget.Extrapolate && age <= budget.MaxExtrapolate:
		resp = ReadResponse{
			Source: "extrapolated", Position: resolved.Position, Rotation: resolved.Rotation,
			Confidence: resolved.Confidence, TTLTicks: 1, Decision: DecisionSubstitute, SourceTick: latest.Tick,
			Reason: "within category extrapolation budget",
		}

	default:
		resp = r.staleResponse(budget, latest, category)
	}

	if resp.Decision != DecisionBlock && resp.Confidence >= 0.5 {
		r.mu.Lock()
		r.cache[key] = cacheEntry{response: resp, expiresAt: currentTick + resp.TTLTicks}
		r.mu.Unlock()
	}
	return resp
}

func (r *Resolver) staleResponse(budget CategoryBudget, latest Sample, category Category) ReadResponse {
	switch budget.OnStale {
	case ReturnLastKnown:
		return ReadResponse{Source: "last-known", Position: latest.Position, Rotation: latest.Rotation, Confidence: 0.3, TTLTicks: 1, Decision: DecisionSubstitute, SourceTick: latest.Tick, Reason: "stale: returning last known"}
	case ExtrapolateBehavior:
		return ReadResponse{Source: "extrapolated", Position: latest.Position.Add(latest.Velocity), Rotation: latest.Rotation, Confidence: latest.Confidence * 0.5, TTLTicks: 1, Decision: DecisionSubstitute, SourceTick: latest.Tick, Reason: "stale: dead-reckoned"}
	case SoftConverge:
		return ReadResponse{Source: "stale-authority", Position: latest.Position, Rotation: latest.Rotation, Confidence: latest.Confidence * 0.5, TTLTicks: 1, Decision: DecisionSubstitute, SourceTick: latest.Tick, Reason: "stale: soft converge"}
	default: // ReturnNone
		return ReadResponse{Decision: DecisionBlock, Reason: "stale: category requires fresh data for " + category.String()}
	}
}

func (r *Resolver) finalizeBlock(subject identity.NetId, reason string) ReadResponse {
	return ReadResponse{Decision: DecisionBlock, Reason: reason}
}

// schemaTransformKind pins the cache key to transform reads; other
// schema kinds would extend this resolver with their own cache
// namespace, not yet needed by the spec's read categories.
const schemaTransformKind = schema.KindTransform
