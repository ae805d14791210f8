package attribute

import (
	"testing"

	"github.com/The404Studios/Kenshi-Online-sub006/space"
	"github.com/stretchr/testify/require"
)

func TestSampleAtExactMatch(t *testing.T) {
	var h TransformHistory
	h.Push(Sample{Tick: 10, Position: space.Vec3{X: 10}, Rotation: space.IdentityQuat, Confidence: 0.9})

	r := h.SampleAt(12, DefaultSamplingPolicy()) // delay 2 -> target tick 10
	require.Equal(t, ModeExact, r.Mode)
	require.Equal(t, 10.0, r.Position.X)
}

func TestSampleAtInterpolates(t *testing.T) {
	var h TransformHistory
	h.Push(Sample{Tick: 0, Position: space.Vec3{X: 0}, Rotation: space.IdentityQuat, Confidence: 1})
	h.Push(Sample{Tick: 10, Position: space.Vec3{X: 10}, Rotation: space.IdentityQuat, Confidence: 1})

	r := h.SampleAt(7, SamplingPolicy{InterpolationDelayTicks: 2, MaxExtrapolateTicks: 5}) // target = 5
	require.Equal(t, ModeInterpolate, r.Mode)
	require.InDelta(t, 5.0, r.Position.X, 1e-9)
}

func TestSampleAtExtrapolatesWithinBudget(t *testing.T) {
	var h TransformHistory
	h.Push(Sample{Tick: 0, Position: space.Vec3{X: 0}, Velocity: space.Vec3{X: 1}, Rotation: space.IdentityQuat, Confidence: 1})

	r := h.SampleAt(5, SamplingPolicy{InterpolationDelayTicks: 2, MaxExtrapolateTicks: 5}) // target = 3
	require.Equal(t, ModeExtrapolate, r.Mode)
	require.InDelta(t, 3.0, r.Position.X, 1e-9)
	require.Less(t, r.Confidence, 1.0)
}

func TestSampleAtBeyondExtrapolationBudgetReturnsNone(t *testing.T) {
	var h TransformHistory
	h.Push(Sample{Tick: 0, Position: space.Vec3{X: 0}, Velocity: space.Vec3{X: 1}, Rotation: space.IdentityQuat, Confidence: 1})

	r := h.SampleAt(100, SamplingPolicy{InterpolationDelayTicks: 2, MaxExtrapolateTicks: 5})
	require.Equal(t, ModeNone, r.Mode)
}

func TestSampleAtEmptyHistoryReturnsNone(t *testing.T) {
	var h TransformHistory
	r := h.SampleAt(10, DefaultSamplingPolicy())
	require.Equal(t, ModeNone, r.Mode)
}

func TestGateWriteBlocksWithoutHistory(t *testing.T) {
	var h TransformHistory
	res := GateWrite(&h, space.Vec3{}, 10, DefaultGatePolicy(), DefaultSamplingPolicy())
	require.Equal(t, Block, res.Decision)
}

func TestGateWriteAllowsCloseProposal(t *testing.T) {
	var h TransformHistory
	h.Push(Sample{Tick: 0, Position: space.Vec3{X: 0}, Rotation: space.IdentityQuat, Confidence: 1})
	res := GateWrite(&h, space.Vec3{X: 0.1}, 2, DefaultGatePolicy(), DefaultSamplingPolicy())
	require.Equal(t, Allow, res.Decision)
}

func TestGateWriteCorrectsLargeDivergence(t *testing.T) {
	var h TransformHistory
	h.Push(Sample{Tick: 0, Position: space.Vec3{X: 0}, Rotation: space.IdentityQuat, Confidence: 1})
	res := GateWrite(&h, space.Vec3{X: 100}, 2, DefaultGatePolicy(), DefaultSamplingPolicy())
	require.Equal(t, Correct, res.Decision)
}

func TestGateWriteWarnsWhenStale(t *testing.T) {
	var h TransformHistory
	h.Push(Sample{Tick: 0, Position: space.Vec3{X: 0}, Rotation: space.IdentityQuat, Confidence: 1})
	res := GateWrite(&h, space.Vec3{X: 0}, 50, DefaultGatePolicy(), DefaultSamplingPolicy())
	require.Equal(t, AllowWithWarning, res.Decision)
}
