// Copyright (C) 2025, Kenshi Online Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package confidence

import "sync"

const (
	minReliability  = 0.01
	maxReliability  = 0.99
	defaultEMA      = 0.5
	defaultEMARate  = 0.05
	driftBackToHalf = 0.01 // per-tick pull toward 0.5 for inactive sources
)

// SourceId is an opaque key identifying an observation source (a
// player, a bot, a replay file). It is deliberately untyped beyond
// "comparable" so the info ring can key it by NetId, a uuid.UUID, or
// any other identifier a transport hands the core.
type SourceId any

// ReliabilityTracker holds an exponential moving average of each
// source's historical accuracy, clamped to [0.01, 0.99] so a source is
// never fully trusted or fully discounted. Sources that stop providing
// feedback drift back toward 0.5 each time Decay is called, modeling
// the teacher's confidence reset when a poll round fails to reach
// quorum.
type ReliabilityTracker struct {
	mu   sync.Mutex
	rate float64
	vals map[SourceId]float64
	seen map[SourceId]bool
}

// NewReliabilityTracker builds a tracker with the default EMA rate
// (0.05) used unless overridden by config.
func NewReliabilityTracker(rate float64) *ReliabilityTracker {
	if rate <= 0 {
		rate = defaultEMARate
	}
	return &ReliabilityTracker{
		rate: rate,
		vals: make(map[SourceId]float64),
		seen: make(map[SourceId]bool),
	}
}

// Reliability returns the current reliability estimate for source,
// defaulting to 0.5 for a source never seen before.
func (r *ReliabilityTracker) Reliability(source SourceId) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.vals[source]; ok {
		return v
	}
	return defaultEMA
}

// ProvideFeedback updates source's reliability with one boolean
// accuracy observation: reliability = reliability + rate*(target -
// reliability), clamped to [0.01, 0.99].
func (r *ReliabilityTracker) ProvideFeedback(source SourceId, wasAccurate bool) {
	target := 0.0
	if wasAccurate {
		target = 1.0
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.vals[source]
	if !ok {
		cur = defaultEMA
	}
	cur += r.rate * (target - cur)
	r.vals[source] = clamp(cur, minReliability, maxReliability)
	r.seen[source] = true
}

// Decay pulls every tracked source that is not set in activeSources
// back toward 0.5. The tracker keeps no activity marks of its own; the
// caller decides which sources count as active for the period. Call
// once per tick (or per coordinator cycle).
func (r *ReliabilityTracker) Decay(activeSources map[SourceId]bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for source, v := range r.vals {
		if activeSources[source] {
			continue
		}
		v += driftBackToHalf * (defaultEMA - v)
		r.vals[source] = clamp(v, minReliability, maxReliability)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
