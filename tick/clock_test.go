package tick

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAdvanceIsMonotone(t *testing.T) {
	c := NewClock(10 * time.Millisecond)
	require.Equal(t, Tick(0), c.Current())
	require.Equal(t, Tick(1), c.Advance())
	require.Equal(t, Tick(2), c.Advance())
	require.Equal(t, Tick(2), c.Current())
}

func TestSetTickResyncs(t *testing.T) {
	c := NewClock(10 * time.Millisecond)
	c.SetTick(100)
	require.Equal(t, Tick(100), c.Current())
	require.Equal(t, Tick(101), c.Advance())
}

func TestRangeEmptyAndContains(t *testing.T) {
	r := Range{Start: 5, End: 10}
	require.False(t, r.Empty())
	require.True(t, r.Contains(5))
	require.True(t, r.Contains(10))
	require.False(t, r.Contains(4))

	empty := Range{Start: 10, End: 5}
	require.True(t, empty.Empty())
	require.False(t, empty.Contains(7))
}

func TestTimeLessLexicographic(t *testing.T) {
	a := Time{Tick: 1, SubTick: 0.9}
	b := Time{Tick: 2, SubTick: 0.0}
	require.True(t, a.Less(b))
	require.False(t, b.Less(a))

	c := Time{Tick: 1, SubTick: 0.1}
	require.True(t, c.Less(a))
}
