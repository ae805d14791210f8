package space

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeLookup struct {
	transforms map[uint64]Transform
}

func (f fakeLookup) WorldTransform(parent uint64) (Transform, bool) {
	t, ok := f.transforms[parent]
	return t, ok
}

func TestToWorldIdentityForWorldFrame(t *testing.T) {
	r := NewResolver(fakeLookup{})
	tr := Transform{Position: Vec3{1, 2, 3}, Rotation: IdentityQuat, Frame: WorldFrame}
	world, ok := r.ToWorld(tr)
	require.True(t, ok)
	require.Equal(t, tr, world)
}

func TestToWorldViaParent(t *testing.T) {
	lookup := fakeLookup{transforms: map[uint64]Transform{
		1: {Position: Vec3{10, 0, 0}, Rotation: IdentityQuat, Frame: WorldFrame},
	}}
	r := NewResolver(lookup)
	local := Transform{
		Position: Vec3{1, 0, 0},
		Rotation: IdentityQuat,
		Frame:    Frame{Kind: Local, Parent: 1},
	}
	world, ok := r.ToWorld(local)
	require.True(t, ok)
	require.Equal(t, World, world.Frame.Kind)
	require.InDelta(t, 11, world.Position.X, 1e-9)
}

func TestToWorldAbsentParentFlagged(t *testing.T) {
	r := NewResolver(fakeLookup{transforms: map[uint64]Transform{}})
	local := Transform{Position: Vec3{5, 5, 5}, Frame: Frame{Kind: Local, Parent: 99}}
	world, ok := r.ToWorld(local)
	require.False(t, ok)
	require.Equal(t, World, world.Frame.Kind)
	require.Equal(t, Vec3{5, 5, 5}, world.Position)
}

func TestFromWorldInvertsToWorld(t *testing.T) {
	lookup := fakeLookup{transforms: map[uint64]Transform{
		1: {Position: Vec3{10, 20, 30}, Rotation: IdentityQuat, Frame: WorldFrame},
	}}
	r := NewResolver(lookup)
	original := Transform{
		Position: Vec3{1, 2, 3},
		Rotation: IdentityQuat,
		Frame:    Frame{Kind: Local, Parent: 1},
	}
	world, ok := r.ToWorld(original)
	require.True(t, ok)

	back, ok := r.FromWorld(world, original.Frame)
	require.True(t, ok)
	require.InDelta(t, original.Position.X, back.Position.X, 1e-4)
	require.InDelta(t, original.Position.Y, back.Position.Y, 1e-4)
	require.InDelta(t, original.Position.Z, back.Position.Z, 1e-4)
}

func TestLerpFrameMismatch(t *testing.T) {
	a := Transform{Frame: WorldFrame}
	b := Transform{Frame: Frame{Kind: Local, Parent: 1}}
	_, err := Lerp(a, b, 0.5)
	require.ErrorIs(t, err, ErrFrameMismatch)
}

func TestDistanceFrameMismatch(t *testing.T) {
	a := Transform{Frame: WorldFrame}
	b := Transform{Frame: Frame{Kind: Physics}}
	_, err := Distance(a, b)
	require.ErrorIs(t, err, ErrFrameMismatch)
}

func TestSlerpAtEndpointsMatchesInputs(t *testing.T) {
	a := IdentityQuat
	b := Quat{W: math.Cos(math.Pi / 4), X: 0, Y: math.Sin(math.Pi / 4), Z: 0}
	got0 := a.Slerp(b, 0)
	got1 := a.Slerp(b, 1)
	require.InDelta(t, a.W, got0.W, 1e-9)
	require.InDelta(t, b.W, got1.W, 1e-9)
}
