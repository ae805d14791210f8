package attribute

import (
	"testing"

	"github.com/The404Studios/Kenshi-Online-sub006/space"
	"github.com/The404Studios/Kenshi-Online-sub006/tick"
	"github.com/stretchr/testify/require"
)

func tickOf(i int) tick.Tick { return tick.Tick(i) }

func TestTransformHistoryPushOrdersByTick(t *testing.T) {
	var h TransformHistory
	h.Push(Sample{Tick: 5, Position: space.Vec3{X: 5}})
	h.Push(Sample{Tick: 1, Position: space.Vec3{X: 1}})
	h.Push(Sample{Tick: 3, Position: space.Vec3{X: 3}})

	before, ok, _, _ := h.bounds(4)
	require.True(t, ok)
	require.Equal(t, 3.0, before.Position.X)
}

func TestTransformHistoryReplacesSameTick(t *testing.T) {
	var h TransformHistory
	h.Push(Sample{Tick: 1, Position: space.Vec3{X: 1}})
	h.Push(Sample{Tick: 1, Position: space.Vec3{X: 2}})

	latest, ok := h.Latest()
	require.True(t, ok)
	require.Equal(t, 2.0, latest.Position.X)
	require.Len(t, h.samples, 1)
}

func TestTransformHistoryTrimsBeyondCap(t *testing.T) {
	var h TransformHistory
	for i := 0; i < transformHistoryCap+10; i++ {
		h.Push(Sample{Tick: tickOf(i), Position: space.Vec3{X: float64(i)}})
	}
	require.Len(t, h.samples, transformHistoryCap)
	latest, _ := h.Latest()
	require.Equal(t, float64(transformHistoryCap+9), latest.Position.X)
}

func TestScalarHistoryTrimsBeyondCap(t *testing.T) {
	var h ScalarHistory
	for i := 0; i < scalarHistoryCap+5; i++ {
		h.Push(ScalarSample{Tick: tickOf(i), Value: float64(i)})
	}
	require.Len(t, h.samples, scalarHistoryCap)
}
