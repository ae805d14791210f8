// Copyright (C) 2025, Kenshi Online Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package truth

import (
	"fmt"

	"github.com/The404Studios/Kenshi-Online-sub006/schema"
)

// Constraint validates a candidate commit against the entity's prior
// state before it is accepted. It returns ok=false with a human
// Reason to reject the commit (synthesized with CommitId ==
// RejectedCommitId, never consuming the counter).
type Constraint interface {
	Name() string
	Check(prev EntityState, candidate Commit) (ok bool, reason string)
}

// TeleportConstraint rejects a Transform commit whose position delta
// since the entity's previous transform exceeds maxPerTick per tick
// elapsed (spec §4.8, default 50).
type TeleportConstraint struct {
	MaxPerTick float64
}

// NewTeleportConstraint builds the constraint with the spec default.
func NewTeleportConstraint() TeleportConstraint {
	return TeleportConstraint{MaxPerTick: 50}
}

func (TeleportConstraint) Name() string { return "Teleport" }

func (c TeleportConstraint) Check(prev EntityState, candidate Commit) (bool, string) {
	next, ok := candidate.Payload.(schema.TransformPayload)
	if !ok {
		return true, ""
	}
	if prev.Transform == nil {
		return true, "" // first transform for this entity; nothing to compare against
	}
	deltaTicks := int64(candidate.Tick - prev.LastTick)
	if deltaTicks < 1 {
		deltaTicks = 1
	}
	limit := c.MaxPerTick * float64(deltaTicks)
	dist := prev.Transform.Transform.Position.Distance(next.Transform.Position)
	if dist > limit {
		return false, fmt.Sprintf("Teleport: delta position %.3f exceeds limit %.3f over %d tick(s)", dist, limit, deltaTicks)
	}
	return true, ""
}

// HealthRangeConstraint rejects a Health commit whose current value is
// negative or exceeds 110% of maximum (spec §4.8 default).
type HealthRangeConstraint struct {
	OverageFactor float64
}

// NewHealthRangeConstraint builds the constraint with the spec default.
func NewHealthRangeConstraint() HealthRangeConstraint {
	return HealthRangeConstraint{OverageFactor: 1.10}
}

func (HealthRangeConstraint) Name() string { return "HealthRange" }

func (c HealthRangeConstraint) Check(_ EntityState, candidate Commit) (bool, string) {
	h, ok := candidate.Payload.(schema.HealthPayload)
	if !ok {
		return true, ""
	}
	if h.Current < 0 {
		return false, fmt.Sprintf("HealthRange: current %.3f is negative", h.Current)
	}
	if h.Current > h.Maximum*c.OverageFactor {
		return false, fmt.Sprintf("HealthRange: current %.3f exceeds %.0f%% of maximum %.3f", h.Current, c.OverageFactor*100, h.Maximum)
	}
	return true, ""
}

// DefaultConstraints returns the minimum required constraint set from
// spec §4.8.
func DefaultConstraints() []Constraint {
	return []Constraint{NewTeleportConstraint(), NewHealthRangeConstraint()}
}
