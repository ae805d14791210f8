// Copyright (C) 2025, Kenshi Online Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package schema defines the closed set of typed state-delta payloads
// the pipeline understands. Payloads are self-describing: their
// meaning never depends on the game process's memory layout. This
// package replaces reflection-based payload dispatch (spec §9) with an
// explicit, compile-time-checked type switch over a closed interface.
package schema

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/The404Studios/Kenshi-Online-sub006/space"
)

// Kind tags which variant a Payload holds.
type Kind uint8

const (
	KindTransform Kind = iota
	KindHealth
	KindInventory
	KindAIState
	KindInput
	KindDespawn
	KindAnimState
)

func (k Kind) String() string {
	switch k {
	case KindTransform:
		return "Transform"
	case KindHealth:
		return "Health"
	case KindInventory:
		return "Inventory"
	case KindAIState:
		return "AIState"
	case KindInput:
		return "Input"
	case KindDespawn:
		return "Despawn"
	case KindAnimState:
		return "AnimState"
	default:
		return "Unknown"
	}
}

// Payload is the closed sum type every schema variant implements.
// Each variant reports its Kind through SchemaKind; Hash and Normalize
// dispatch via an explicit type switch in the functions below rather
// than reflection.
type Payload interface {
	SchemaKind() Kind
}

// Normalize returns a canonicalized copy of p: quaternions unit-length,
// values clamped to sane ranges. Each variant's normalization rule is
// named explicitly; unknown variants pass through unchanged.
func Normalize(p Payload) Payload {
	switch v := p.(type) {
	case TransformPayload:
		v.Transform.Rotation = v.Transform.Rotation.Normalize()
		return v
	case HealthPayload:
		if v.Current < 0 {
			v.Current = 0
		}
		cap := v.Maximum * 1.10
		if v.Current > cap {
			v.Current = cap
		}
		return v
	default:
		return p
	}
}

// Hash returns the content hash of p's normalized form, used for
// dedup and consensus grouping (spec §3). It runs a deterministic byte
// encoding of p through xxhash.Sum64 — a fast non-cryptographic hash,
// the same one the teacher pulls in transitively for metric label
// hashing, reused here for payload fingerprints instead.
func Hash(p Payload) uint64 {
	var buf [64]byte
	n := encode(Normalize(p), buf[:0])
	return xxhash.Sum64(n)
}

func encode(p Payload, buf []byte) []byte {
	buf = append(buf, byte(p.SchemaKind()))
	switch v := p.(type) {
	case TransformPayload:
		buf = appendFloat(buf, v.Transform.Position.X)
		buf = appendFloat(buf, v.Transform.Position.Y)
		buf = appendFloat(buf, v.Transform.Position.Z)
		buf = appendFloat(buf, v.Transform.Rotation.W)
		buf = appendFloat(buf, v.Transform.Rotation.X)
		buf = appendFloat(buf, v.Transform.Rotation.Y)
		buf = appendFloat(buf, v.Transform.Rotation.Z)
		buf = appendFloat(buf, v.Transform.Velocity.X)
		buf = appendFloat(buf, v.Transform.Velocity.Y)
		buf = appendFloat(buf, v.Transform.Velocity.Z)
		buf = append(buf, byte(v.Transform.Frame.Kind))
	case HealthPayload:
		buf = appendFloat(buf, v.Current)
		buf = appendFloat(buf, v.Maximum)
	case InventoryPayload:
		for _, it := range v.Items {
			buf = binary.LittleEndian.AppendUint64(buf, it.ItemId)
			buf = binary.LittleEndian.AppendUint32(buf, it.Quantity)
		}
	case AIStatePayload:
		buf = append(buf, []byte(v.BehaviorName)...)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(v.TargetId))
	case InputPayload:
		buf = binary.LittleEndian.AppendUint32(buf, uint32(v.Buttons))
		buf = appendFloat(buf, float64(v.MoveX))
		buf = appendFloat(buf, float64(v.MoveY))
	case DespawnPayload:
		buf = append(buf, []byte(v.Reason)...)
	case AnimStatePayload:
		buf = append(buf, []byte(v.ClipName)...)
		buf = appendFloat(buf, float64(v.NormalizedTime))
	}
	return buf
}

func appendFloat(buf []byte, f float64) []byte {
	return binary.LittleEndian.AppendUint64(buf, math.Float64bits(f))
}

// TransformPayload carries a full framed transform delta.
type TransformPayload struct {
	Transform space.Transform
}

func (TransformPayload) SchemaKind() Kind { return KindTransform }

// HealthPayload carries current/maximum health.
type HealthPayload struct {
	Current float64
	Maximum float64
}

func (HealthPayload) SchemaKind() Kind { return KindHealth }

// InventoryItem is one stack within an InventoryPayload.
type InventoryItem struct {
	ItemId   uint64
	Quantity uint32
}

// InventoryPayload carries a full inventory snapshot delta.
type InventoryPayload struct {
	Items []InventoryItem
}

func (InventoryPayload) SchemaKind() Kind { return KindInventory }

// AIStatePayload carries an NPC's behavior tree state.
type AIStatePayload struct {
	BehaviorName string
	TargetId     uint64
}

func (AIStatePayload) SchemaKind() Kind { return KindAIState }

// InputButtons is a bitset of pressed actions.
type InputButtons uint32

// InputPayload carries one tick's player input sample.
type InputPayload struct {
	Buttons InputButtons
	MoveX   float32
	MoveY   float32
}

func (InputPayload) SchemaKind() Kind { return KindInput }

// DespawnPayload marks an entity as removed.
type DespawnPayload struct {
	Reason string
}

func (DespawnPayload) SchemaKind() Kind { return KindDespawn }

// AnimStatePayload carries the currently playing animation clip.
type AnimStatePayload struct {
	ClipName       string
	NormalizedTime float32
}

func (AnimStatePayload) SchemaKind() Kind { return KindAnimState }

// String renders a human-readable summary, useful for commit reasons
// and logs.
func String(p Payload) string {
	return fmt.Sprintf("%s(%#v)", p.SchemaKind(), p)
}
