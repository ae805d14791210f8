// Copyright (C) 2025, Kenshi Online Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package confidence scores untrusted observations and decides whether
// they should be accepted into the truth log, rejected, deferred, or
// held pending more samples. The threshold/decision shape is modeled
// on the teacher's binary/unary/poly confidence counters
// (confidence.Binary, confidence.RecordPoll) but adapted from
// consecutive-success vote counting to a continuous effective score
// over a single observation.
package confidence

import "math"

// Flags are per-observation override bits.
type Flags uint8

const (
	FlagNone Flags = 0
	// ForcedAccept bypasses scoring entirely and accepts.
	FlagForcedAccept Flags = 1 << iota
	// ForcedReject bypasses scoring entirely and rejects.
	FlagForcedReject
)

// Confidence is the scoring tuple attached to every Ring 2 entry.
type Confidence struct {
	Value             float64 // [0,1] raw plausibility of the observed value
	SourceReliability float64 // [0,1] EMA of the source's historical accuracy
	Freshness         float64 // [0,1] decayed by age since observation
	SampleCount       uint8
	Flags             Flags
}

// Effective returns value*reliability*freshness, or 0 if SampleCount
// is 0 (an observation with no samples carries no evidence).
func (c Confidence) Effective() float64 {
	if c.SampleCount == 0 {
		return 0
	}
	return c.Value * c.SourceReliability * c.Freshness
}

// Decision is the outcome of evaluating a Confidence against policy
// thresholds.
type Decision uint8

const (
	DecisionAccept Decision = iota
	DecisionReject
	DecisionDefer
	DecisionRequestMoreSamples
)

func (d Decision) String() string {
	switch d {
	case DecisionAccept:
		return "Accept"
	case DecisionReject:
		return "Reject"
	case DecisionDefer:
		return "Defer"
	case DecisionRequestMoreSamples:
		return "RequestMoreSamples"
	default:
		return "Unknown"
	}
}

// Policy configures the accept/reject cuts and freshness half-life.
type Policy struct {
	AcceptThreshold float64 // default 0.8
	RejectThreshold float64 // default 0.2
	MinSamples      uint8   // default 3, below which an ambiguous score requests more data
	HalfLifeTicks   float64 // default 20
}

// DefaultPolicy matches spec §4.5's defaults.
func DefaultPolicy() Policy {
	return Policy{
		AcceptThreshold: 0.8,
		RejectThreshold: 0.2,
		MinSamples:      3,
		HalfLifeTicks:   20,
	}
}

// Decide implements the decision table from spec §4.5.
func (p Policy) Decide(c Confidence) Decision {
	if c.Flags&FlagForcedAccept != 0 {
		return DecisionAccept
	}
	if c.Flags&FlagForcedReject != 0 {
		return DecisionReject
	}

	e := c.Effective()
	switch {
	case e >= p.AcceptThreshold:
		return DecisionAccept
	case e <= p.RejectThreshold:
		return DecisionReject
	case c.SampleCount < p.MinSamples:
		return DecisionRequestMoreSamples
	default:
		return DecisionDefer
	}
}

// Freshness computes exp(-ln2 * ageTicks / halfLife); ageTicks <= 0
// returns 1 (freshly observed). A non-positive half-life disables
// decay (treated as always-fresh), guarding against a misconfigured
// policy dividing by zero.
func Freshness(ageTicks float64, halfLifeTicks float64) float64 {
	if ageTicks <= 0 {
		return 1
	}
	if halfLifeTicks <= 0 {
		return 1
	}
	return math.Exp(-math.Ln2 * ageTicks / halfLifeTicks)
}

// Combine merges two observations of the same subject into one,
// producing a sample-weighted mean for Value, an arithmetic mean for
// SourceReliability, the max Freshness, and a capped-sum SampleCount
// (spec §4.5).
func Combine(a, b Confidence) Confidence {
	totalSamples := int(a.SampleCount) + int(b.SampleCount)
	var value float64
	if totalSamples > 0 {
		value = (a.Value*float64(a.SampleCount) + b.Value*float64(b.SampleCount)) / float64(totalSamples)
	}
	reliability := (a.SourceReliability + b.SourceReliability) / 2
	freshness := math.Max(a.Freshness, b.Freshness)
	if totalSamples > 255 {
		totalSamples = 255
	}
	return Confidence{
		Value:             value,
		SourceReliability: reliability,
		Freshness:         freshness,
		SampleCount:       uint8(totalSamples),
		Flags:             a.Flags | b.Flags,
	}
}
