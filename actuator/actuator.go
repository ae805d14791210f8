// Copyright (C) 2025, Kenshi Online Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package actuator defines the memory-actuator boundary the coordinator
// writes resolved truth through and reads verification samples back
// from (spec §6). The core never dereferences a Handle; it is opaque
// and kind-dependent, supplied entirely by the host process.
package actuator

import "github.com/The404Studios/Kenshi-Online-sub006/space"

// Handle is a defined type kept distinct from container.Handle at the
// package boundary so actuator implementations do not need to import
// container; callers convert with a simple numeric cast.
type Handle uint64

// Actuator is the external memory surface the coordinator drives.
// Implementations live in the host process (e.g. a game process memory
// writer); this package only defines the contract.
type Actuator interface {
	// ReadTransform returns the entity's current position/rotation, or
	// ok=false if the handle has no backing memory.
	ReadTransform(handle Handle) (pos space.Vec3, rot space.Quat, ok bool)

	// ReadHealth returns the entity's current/maximum health.
	ReadHealth(handle Handle) (current, maximum float64, ok bool)

	// WriteTransform performs a soft (interpolatable) write.
	WriteTransform(handle Handle, pos space.Vec3, rot space.Quat) error

	// WriteTransformImmediate performs a hard snap, and must also zero
	// velocity at the implementation's positionOffset+12 convention
	// (spec §6) so a teleport never leaves residual momentum.
	WriteTransformImmediate(handle Handle, pos space.Vec3, rot space.Quat) error

	// WriteHealth writes current/maximum health.
	WriteHealth(handle Handle, current, maximum float64) error
}

// NoOp is an Actuator that performs no I/O, used in tests and in any
// build without a live host process attached.
type NoOp struct{}

func (NoOp) ReadTransform(Handle) (space.Vec3, space.Quat, bool)  { return space.Vec3{}, space.IdentityQuat, false }
func (NoOp) ReadHealth(Handle) (float64, float64, bool)           { return 0, 0, false }
func (NoOp) WriteTransform(Handle, space.Vec3, space.Quat) error  { return nil }
func (NoOp) WriteTransformImmediate(Handle, space.Vec3, space.Quat) error { return nil }
func (NoOp) WriteHealth(Handle, float64, float64) error           { return nil }
