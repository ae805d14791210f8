// Copyright (C) 2025, Kenshi Online Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package space

import (
	"errors"
	"fmt"
)

// ErrFrameMismatch is returned by Lerp/Distance helpers when asked to
// compare transforms that live in different frames. It is fatal for
// the offending operation only; callers must not let it poison any
// ring.
var ErrFrameMismatch = errors.New("space: frame mismatch")

// FrameMismatchError carries the two offending frames for diagnostics.
type FrameMismatchError struct {
	A, B Frame
}

func (e *FrameMismatchError) Error() string {
	return fmt.Sprintf("space: frame mismatch: %s vs %s", e.A.Kind, e.B.Kind)
}

func (e *FrameMismatchError) Unwrap() error { return ErrFrameMismatch }

// ParentLookup resolves the World-frame transform of a parent entity,
// identified by the generic uint64 carried in Frame.Parent. Ring 3
// (truth) implements this over its own entity truth states; this
// package never imports truth to avoid a cycle — the dependency runs
// the other way, by injection.
type ParentLookup interface {
	WorldTransform(parent uint64) (Transform, bool)
}

// Resolver converts transforms between frames. The container ring does
// not check parent chains for cycles when frames are updated, so
// Resolver caps the chain depth: a cyclic or overly deep chain
// degrades to a flagged fallback instead of an infinite loop.
type Resolver struct {
	lookup  ParentLookup
	maxDepth int
}

// NewResolver builds a Resolver that asks lookup for parent transforms.
func NewResolver(lookup ParentLookup) *Resolver {
	return &Resolver{lookup: lookup, maxDepth: 64}
}

// ToWorld converts t into the World frame. If t is already World it is
// returned unchanged. If a parent lookup along the chain returns
// "absent" (e.g. the parent despawned since t was captured), ToWorld
// returns t's local coordinates reinterpreted as World and reports
// ok=false so the caller can flag the situation (spec §4.3).
func (r *Resolver) ToWorld(t Transform) (world Transform, ok bool) {
	switch t.Frame.Kind {
	case World:
		return t, true
	case Local, Parented:
		return r.toWorldViaParent(t)
	default:
		// RootMotion/Physics/View/Screen are actuator- or
		// presentation-boundary frames; the core never receives them
		// as truth and treats them as already-resolved local data.
		return Transform{Position: t.Position, Rotation: t.Rotation, Velocity: t.Velocity, Frame: WorldFrame}, true
	}
}

func (r *Resolver) toWorldViaParent(t Transform) (Transform, bool) {
	cur := t
	depth := 0
	for cur.Frame.Kind == Local || cur.Frame.Kind == Parented {
		if depth >= r.maxDepth {
			return Transform{Position: cur.Position, Rotation: cur.Rotation, Velocity: cur.Velocity, Frame: WorldFrame}, false
		}
		parentWorld, found := r.lookup.WorldTransform(cur.Frame.Parent)
		if !found {
			return Transform{Position: cur.Position, Rotation: cur.Rotation, Velocity: cur.Velocity, Frame: WorldFrame}, false
		}
		cur = Transform{
			Position: parentWorld.Position.Add(rotate(parentWorld.Rotation, cur.Position)),
			Rotation: multiply(parentWorld.Rotation, cur.Rotation),
			Velocity: parentWorld.Velocity.Add(rotate(parentWorld.Rotation, cur.Velocity)),
			Frame:    parentWorld.Frame,
		}
		depth++
	}
	cur.Frame = WorldFrame
	return cur, true
}

// FromWorld converts a World-frame transform into the given target
// frame, inverting ToWorld. For Local/Parented targets it asks the
// resolver for the parent's current World transform and expresses t
// relative to it.
func (r *Resolver) FromWorld(t Transform, target Frame) (Transform, bool) {
	if t.Frame.Kind != World {
		return Transform{}, false
	}
	switch target.Kind {
	case World:
		return t, true
	case Local, Parented:
		parentWorld, found := r.lookup.WorldTransform(target.Parent)
		if !found {
			return Transform{}, false
		}
		invRot := conjugate(parentWorld.Rotation)
		local := Transform{
			Position: rotate(invRot, t.Position.Sub(parentWorld.Position)),
			Rotation: multiply(invRot, t.Rotation),
			Velocity: rotate(invRot, t.Velocity.Sub(parentWorld.Velocity)),
			Frame:    target,
		}
		return local, true
	default:
		return Transform{Position: t.Position, Rotation: t.Rotation, Velocity: t.Velocity, Frame: target}, true
	}
}

// Lerp linearly interpolates position/velocity and spherically
// interpolates rotation between two World-frame transforms. It
// returns ErrFrameMismatch if either transform is not in World or the
// frames differ.
func Lerp(a, b Transform, u float64) (Transform, error) {
	if a.Frame.Kind != World || b.Frame.Kind != World {
		return Transform{}, &FrameMismatchError{A: a.Frame, B: b.Frame}
	}
	if u < 0 {
		u = 0
	} else if u > 1 {
		u = 1
	}
	return Transform{
		Position: a.Position.Lerp(b.Position, u),
		Rotation: a.Rotation.Slerp(b.Rotation, u),
		Velocity: a.Velocity.Lerp(b.Velocity, u),
		Frame:    WorldFrame,
	}, nil
}

// Distance returns the Euclidean distance between two World-frame
// transforms' positions. It returns ErrFrameMismatch if either
// transform is not in World or the frames differ.
func Distance(a, b Transform) (float64, error) {
	if a.Frame.Kind != World || b.Frame.Kind != World {
		return 0, &FrameMismatchError{A: a.Frame, B: b.Frame}
	}
	return a.Position.Distance(b.Position), nil
}

// rotate applies quaternion q to vector v (q * v * q^-1 for unit q).
func rotate(q Quat, v Vec3) Vec3 {
	qv := Vec3{q.X, q.Y, q.Z}
	uvx := Vec3{
		qv.Y*v.Z - qv.Z*v.Y,
		qv.Z*v.X - qv.X*v.Z,
		qv.X*v.Y - qv.Y*v.X,
	}
	uuvx := Vec3{
		qv.Y*uvx.Z - qv.Z*uvx.Y,
		qv.Z*uvx.X - qv.X*uvx.Z,
		qv.X*uvx.Y - qv.Y*uvx.X,
	}
	uvx = uvx.Scale(2 * q.W)
	uuvx = uuvx.Scale(2)
	return v.Add(uvx).Add(uuvx)
}

func multiply(a, b Quat) Quat {
	return Quat{
		W: a.W*b.W - a.X*b.X - a.Y*b.Y - a.Z*b.Z,
		X: a.W*b.X + a.X*b.W + a.Y*b.Z - a.Z*b.Y,
		Y: a.W*b.Y - a.X*b.Z + a.Y*b.W + a.Z*b.X,
		Z: a.W*b.Z + a.X*b.Y - a.Y*b.X + a.Z*b.W,
	}
}

func conjugate(q Quat) Quat {
	return Quat{W: q.W, X: -q.X, Y: -q.Y, Z: -q.Z}
}
