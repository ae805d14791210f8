// Copyright (C) 2025, Kenshi Online Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config defines the tunable parameters of a synchronization
// core: ring capacities, decision thresholds, gating budgets, and
// per-kind identity pool sizes (spec §6).
package config

import "time"

// GateParameters configures Ring 4's write gating and sampling.
type GateParameters struct {
	MaxStaleTicks           int64
	MaxPositionDivergence   float64
	MaxRotationDivergence   float64
	HistorySize             int
	MaxExtrapolateTicks     int64
	InterpolationDelayTicks int64
	CorrectionBlendRate     float64
}

// Parameters is the full set of tunables a core is built from.
type Parameters struct {
	TickRateHz int

	InfoRingCapacity       int
	AuthorityRingCapacity  int
	ContainerEventCapacity int

	SnapshotInterval int64
	MaxInfosPerCycle int

	AcceptThreshold float64
	RejectThreshold float64

	VerificationThreshold float64

	Gate GateParameters

	KindCapacities map[string]int

	CycleTimeout time.Duration
}

// Default returns the spec's stated defaults.
func Default() Parameters {
	return Parameters{
		TickRateHz:             20,
		InfoRingCapacity:       16384,
		AuthorityRingCapacity:  32768,
		ContainerEventCapacity: 4096,
		SnapshotInterval:       1000,
		MaxInfosPerCycle:       1000,
		AcceptThreshold:        0.8,
		RejectThreshold:        0.2,
		VerificationThreshold:  0.1,
		Gate: GateParameters{
			MaxStaleTicks:           10,
			MaxPositionDivergence:   2.0,
			MaxRotationDivergence:   0.25,
			HistorySize:             32,
			MaxExtrapolateTicks:     5,
			InterpolationDelayTicks: 2,
			CorrectionBlendRate:     0.2,
		},
		KindCapacities: map[string]int{
			"player":     1024,
			"npc":        8192,
			"building":   4096,
			"projectile": 2048,
			"item":       4096,
			"trigger":    1024,
		},
		CycleTimeout: 50 * time.Millisecond,
	}
}

// Local returns a small-footprint parameter set suitable for a single
// developer's machine or unit tests.
func Local() Parameters {
	p := Default()
	p.InfoRingCapacity = 256
	p.AuthorityRingCapacity = 2048
	p.ContainerEventCapacity = 256
	p.SnapshotInterval = 100
	p.MaxInfosPerCycle = 100
	p.KindCapacities = map[string]int{
		"player": 16, "npc": 64, "building": 32, "projectile": 64, "item": 64, "trigger": 16,
	}
	return p
}

// Production returns a larger-footprint parameter set for a populated
// live server.
func Production() Parameters {
	p := Default()
	p.InfoRingCapacity = 16384
	p.AuthorityRingCapacity = 131072
	p.ContainerEventCapacity = 16384
	p.MaxInfosPerCycle = 4000
	p.KindCapacities = map[string]int{
		"player": 4096, "npc": 32768, "building": 16384, "projectile": 8192, "item": 16384, "trigger": 4096,
	}
	return p
}
