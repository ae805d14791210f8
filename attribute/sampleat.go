// Copyright (C) 2025, Kenshi Online Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package attribute

import (
	"math"

	"github.com/The404Studios/Kenshi-Online-sub006/space"
	"github.com/The404Studios/Kenshi-Online-sub006/tick"
)

// Mode names how a SampleAt result was produced.
type Mode uint8

const (
	ModeNone Mode = iota
	ModeExact
	ModeInterpolate
	ModeExtrapolate
)

func (m Mode) String() string {
	switch m {
	case ModeExact:
		return "Exact"
	case ModeInterpolate:
		return "Interpolate"
	case ModeExtrapolate:
		return "Extrapolate"
	default:
		return "None"
	}
}

// Resolved is the outcome of sampling a transform history at a
// continuous time.
type Resolved struct {
	Mode       Mode
	Position   space.Vec3
	Rotation   space.Quat
	Velocity   space.Vec3
	Confidence float64
}

// SamplingPolicy configures SampleAt's pacing knobs (spec §4.9).
type SamplingPolicy struct {
	InterpolationDelayTicks tick.Tick
	MaxExtrapolateTicks     tick.Tick
}

// DefaultSamplingPolicy matches the spec's stated defaults.
func DefaultSamplingPolicy() SamplingPolicy {
	return SamplingPolicy{InterpolationDelayTicks: 2, MaxExtrapolateTicks: 5}
}

// SampleAt resolves h at requested time t under policy, per spec §4.9:
// delay t by InterpolationDelayTicks, then pick Exact / Interpolate /
// Extrapolate / None depending on which neighboring samples exist.
func (h *TransformHistory) SampleAt(t tick.Tick, policy SamplingPolicy) Resolved {
	target := t - policy.InterpolationDelayTicks
	before, haveBefore, after, haveAfter := h.bounds(target)

	switch {
	case haveBefore && haveAfter && before.Tick == after.Tick:
		return Resolved{Mode: ModeExact, Position: before.Position, Rotation: before.Rotation, Velocity: before.Velocity, Confidence: before.Confidence}

	case haveBefore && haveAfter:
		span := float64(after.Tick - before.Tick)
		u := 0.0
		if span > 0 {
			u = float64(target-before.Tick) / span
		}
		if u < 0 {
			u = 0
		}
		if u > 1 {
			u = 1
		}
		return Resolved{
			Mode:       ModeInterpolate,
			Position:   before.Position.Lerp(after.Position, u),
			Rotation:   before.Rotation.Slerp(after.Rotation, u),
			Velocity:   before.Velocity.Lerp(after.Velocity, u),
			Confidence: before.Confidence + (after.Confidence-before.Confidence)*u,
		}

	case haveBefore:
		delta := target - before.Tick
		if delta < 0 {
			delta = 0
		}
		if delta > policy.MaxExtrapolateTicks {
			return Resolved{Mode: ModeNone}
		}
		d := float64(delta)
		return Resolved{
			Mode:       ModeExtrapolate,
			Position:   before.Position.Add(before.Velocity.Scale(d)),
			Rotation:   before.Rotation,
			Velocity:   before.Velocity,
			Confidence: before.Confidence * math.Exp(-0.2*d),
		}

	default:
		return Resolved{Mode: ModeNone}
	}
}
