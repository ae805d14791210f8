// Copyright (C) 2025, Kenshi Online Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package attribute

import (
	"github.com/The404Studios/Kenshi-Online-sub006/space"
	"github.com/The404Studios/Kenshi-Online-sub006/tick"
)

// WriteDecision is the outcome of gating a proposed write against the
// current authoritative sample (spec §4.9).
type WriteDecision uint8

const (
	Allow WriteDecision = iota
	AllowWithWarning
	Block
	Correct
)

func (d WriteDecision) String() string {
	switch d {
	case Allow:
		return "Allow"
	case AllowWithWarning:
		return "AllowWithWarning"
	case Block:
		return "Block"
	case Correct:
		return "Correct"
	default:
		return "Unknown"
	}
}

// GatePolicy configures write gating thresholds.
type GatePolicy struct {
	MaxStaleTicks         tick.Tick
	MaxPositionDivergence float64
}

// DefaultGatePolicy matches the spec's stated defaults.
func DefaultGatePolicy() GatePolicy {
	return GatePolicy{MaxStaleTicks: 10, MaxPositionDivergence: 2.0}
}

// GateResult is the gate's verdict, carrying a corrected position when
// the decision is Correct.
type GateResult struct {
	Decision         WriteDecision
	CorrectPosition  space.Vec3
	CorrectRotation  space.Quat
}

// GateWrite decides whether a proposed transform write should proceed,
// given the entity's sampled authority at the current tick.
func GateWrite(h *TransformHistory, proposed space.Vec3, currentTick tick.Tick, policy GatePolicy, sampling SamplingPolicy) GateResult {
	latest, ok := h.Latest()
	if !ok {
		return GateResult{Decision: Block}
	}

	age := currentTick - latest.Tick
	if age > policy.MaxStaleTicks {
		return GateResult{Decision: AllowWithWarning}
	}

	resolved := h.SampleAt(currentTick, sampling)
	if resolved.Mode == ModeNone {
		return GateResult{Decision: AllowWithWarning}
	}

	if proposed.Distance(resolved.Position) > policy.MaxPositionDivergence {
		return GateResult{Decision: Correct, CorrectPosition: resolved.Position, CorrectRotation: resolved.Rotation}
	}

	return GateResult{Decision: Allow}
}
