// Copyright (C) 2025, Kenshi Online Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package attribute implements Ring 4: per-entity sample histories used
// to answer presentation-layer reads (interpolated position, gated
// writes) without ever blocking on the authority log directly.
package attribute

import (
	"sort"

	"github.com/The404Studios/Kenshi-Online-sub006/space"
	"github.com/The404Studios/Kenshi-Online-sub006/tick"
)

// Sample is one (tick, value) observation recorded from an authoritative
// commit.
type Sample struct {
	Tick       tick.Tick
	Position   space.Vec3
	Rotation   space.Quat
	Velocity   space.Vec3
	Confidence float64
}

const (
	transformHistoryCap = 32
	scalarHistoryCap    = 16
)

// TransformHistory is an insertion-sorted, capped ring of transform
// samples for a single entity.
type TransformHistory struct {
	samples []Sample
}

// Push inserts a sample in tick order, replacing any existing sample at
// the same tick, and trims the history beyond the cap.
func (h *TransformHistory) Push(s Sample) {
	i := sort.Search(len(h.samples), func(i int) bool { return h.samples[i].Tick >= s.Tick })
	if i < len(h.samples) && h.samples[i].Tick == s.Tick {
		h.samples[i] = s
		return
	}
	h.samples = append(h.samples, Sample{})
	copy(h.samples[i+1:], h.samples[i:])
	h.samples[i] = s
	if len(h.samples) > transformHistoryCap {
		h.samples = h.samples[len(h.samples)-transformHistoryCap:]
	}
}

// Latest returns the most recent sample, if any.
func (h *TransformHistory) Latest() (Sample, bool) {
	if len(h.samples) == 0 {
		return Sample{}, false
	}
	return h.samples[len(h.samples)-1], true
}

// bounds returns the greatest sample with Tick <= t and the least
// sample with Tick >= t.
func (h *TransformHistory) bounds(t tick.Tick) (before Sample, haveBefore bool, after Sample, haveAfter bool) {
	i := sort.Search(len(h.samples), func(i int) bool { return h.samples[i].Tick >= t })
	if i < len(h.samples) && h.samples[i].Tick == t {
		return h.samples[i], true, h.samples[i], true
	}
	if i > 0 {
		before, haveBefore = h.samples[i-1], true
	}
	if i < len(h.samples) {
		after, haveAfter = h.samples[i], true
	}
	return
}

// ScalarSample is one (tick, value) observation for a non-transform
// attribute such as health.
type ScalarSample struct {
	Tick  tick.Tick
	Value float64
}

// ScalarHistory is the scalar-attribute equivalent of TransformHistory,
// with a smaller cap since scalars carry no interpolation geometry.
type ScalarHistory struct {
	samples []ScalarSample
}

// Push inserts a scalar sample in tick order, replacing any existing
// sample at the same tick.
func (h *ScalarHistory) Push(s ScalarSample) {
	i := sort.Search(len(h.samples), func(i int) bool { return h.samples[i].Tick >= s.Tick })
	if i < len(h.samples) && h.samples[i].Tick == s.Tick {
		h.samples[i] = s
		return
	}
	h.samples = append(h.samples, ScalarSample{})
	copy(h.samples[i+1:], h.samples[i:])
	h.samples[i] = s
	if len(h.samples) > scalarHistoryCap {
		h.samples = h.samples[len(h.samples)-scalarHistoryCap:]
	}
}

// Latest returns the most recent scalar sample, if any.
func (h *ScalarHistory) Latest() (ScalarSample, bool) {
	if len(h.samples) == 0 {
		return ScalarSample{}, false
	}
	return h.samples[len(h.samples)-1], true
}
