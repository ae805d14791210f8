// Copyright (C) 2025, Kenshi Online Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/The404Studios/Kenshi-Online-sub006/actuator"
	"github.com/The404Studios/Kenshi-Online-sub006/attribute"
	"github.com/The404Studios/Kenshi-Online-sub006/authority"
	"github.com/The404Studios/Kenshi-Online-sub006/confidence"
	"github.com/The404Studios/Kenshi-Online-sub006/container"
	"github.com/The404Studios/Kenshi-Online-sub006/coordinator"
	"github.com/The404Studios/Kenshi-Online-sub006/identity"
	"github.com/The404Studios/Kenshi-Online-sub006/info"
	"github.com/The404Studios/Kenshi-Online-sub006/schema"
	"github.com/The404Studios/Kenshi-Online-sub006/space"
	"github.com/The404Studios/Kenshi-Online-sub006/tick"
	"github.com/The404Studios/Kenshi-Online-sub006/truth"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func simCmd() *cobra.Command {
	var ticks int
	var entities int
	var obsPerTick int
	var preset string

	cmd := &cobra.Command{
		Use:   "sim",
		Short: "Run an in-memory coordinator loop against a fake actuator",
		Long: `sim spawns a synthetic population of entities, feeds random
transform observations from uuid-identified peer sources through the
full pipeline for the requested number of ticks, and reports cycle
latency and accept/reject counts.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSim(preset, ticks, entities, obsPerTick)
		},
	}

	cmd.Flags().IntVar(&ticks, "ticks", 200, "number of ticks to simulate")
	cmd.Flags().IntVar(&entities, "entities", 50, "number of synthetic entities")
	cmd.Flags().IntVar(&obsPerTick, "obs-per-tick", 100, "synthetic observations enqueued per tick")
	cmd.Flags().StringVar(&preset, "preset", "local", "parameter preset: default, local, production")

	return cmd
}

// fakeActuator is an in-memory stand-in for a host process's memory
// surface, used only by sim to exercise the full write/verify path.
type fakeActuator struct {
	mu        sync.Mutex
	positions map[actuator.Handle]space.Vec3
	rotations map[actuator.Handle]space.Quat
}

func newFakeActuator() *fakeActuator {
	return &fakeActuator{positions: make(map[actuator.Handle]space.Vec3), rotations: make(map[actuator.Handle]space.Quat)}
}

func (f *fakeActuator) ReadTransform(h actuator.Handle) (space.Vec3, space.Quat, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pos, ok := f.positions[h]
	return pos, f.rotations[h], ok
}

func (f *fakeActuator) ReadHealth(actuator.Handle) (float64, float64, bool) { return 0, 0, false }

func (f *fakeActuator) WriteTransform(h actuator.Handle, pos space.Vec3, rot space.Quat) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.positions[h] = pos
	f.rotations[h] = rot
	return nil
}

func (f *fakeActuator) WriteTransformImmediate(h actuator.Handle, pos space.Vec3, rot space.Quat) error {
	return f.WriteTransform(h, pos, rot)
}

func (f *fakeActuator) WriteHealth(actuator.Handle, float64, float64) error { return nil }

func runSim(preset string, ticks, entities, obsPerTick int) error {
	params, err := resolvePreset(preset)
	if err != nil {
		return err
	}

	ids := identity.NewRegistry(identity.Capacities{identity.KindPlayer: uint32(entities) + 1}, nil)
	authz := authority.NewTracker()
	containerReg := container.NewRegistry(ids, authz, params.ContainerEventCapacity)
	infoRing := info.NewRing(params.InfoRingCapacity, confidence.DefaultPolicy(), confidence.NewReliabilityTracker(0.05), info.DefaultRateLimitPolicy())
	truthLog := truth.NewLog(truth.Config{SnapshotInterval: params.SnapshotInterval})
	clock := tick.NewClock(time.Duration(float64(time.Second) / float64(params.TickRateHz)))

	subjects := make([]identity.NetId, 0, entities)
	for i := 0; i < entities; i++ {
		id := containerReg.Register(identity.KindPlayer, container.Handle(i+1), space.WorldFrame, []authority.Coordinate{
			{Owner: authority.OwnerServer, Scope: authority.ScopeAll, Epoch: 1, ExpiresAt: authority.NoExpiry},
		}, 0, 0)
		subjects = append(subjects, id)
	}

	act := newFakeActuator()
	coord := coordinator.New(clock, infoRing, containerReg, authz, truthLog, act, params)

	sources := make([]uuid.UUID, 16)
	for i := range sources {
		sources[i] = uuid.New()
	}

	var totalCommitted, totalRejected, totalDeferred int
	var latencies []time.Duration

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < ticks; i++ {
		for j := 0; j < obsPerTick; j++ {
			subject := subjects[rng.Intn(len(subjects))]
			source := sources[rng.Intn(len(sources))]
			infoRing.Enqueue(info.EnqueueRequest{
				Subject: subject,
				Source:  source,
				Kind:    info.KindObservation,
				Payload: schema.TransformPayload{Transform: space.Transform{
					Position: space.Vec3{X: rng.Float64() * 100, Y: 0, Z: rng.Float64() * 100},
					Rotation: space.IdentityQuat,
					Frame:    space.WorldFrame,
				}},
				RawValue:    0.5 + rng.Float64()*0.5,
				SampleCount: 3,
				Owner:       authority.OwnerServer,
			}, tick.Tick(i))
		}

		stats := coord.Tick(func() time.Time { return time.Unix(int64(i), 0) })
		totalCommitted += stats.Committed
		totalRejected += stats.Rejected
		totalDeferred += stats.Deferred
		latencies = append(latencies, stats.ProcessingTime)
	}

	sort.Slice(latencies, func(a, b int) bool { return latencies[a] < latencies[b] })
	p50 := percentile(latencies, 0.5)
	p99 := percentile(latencies, 0.99)

	fmt.Printf("ran %d ticks, %d entities, %d obs/tick\n", ticks, entities, obsPerTick)
	fmt.Printf("committed=%d rejected=%d deferred=%d\n", totalCommitted, totalRejected, totalDeferred)
	fmt.Printf("cycle latency p50=%v p99=%v\n", p50, p99)

	// Exercise Ring 4's read path on the assembled core: a render
	// subsystem would precondition once per frame and then call GetData
	// per entity without reaching back into the resolver itself.
	bus := attribute.NewResponseBus(coord.Resolver())
	bus.PreconditionRender(subjects, tick.Tick(ticks))
	blocked, resolved := 0, 0
	for _, id := range subjects {
		resp := bus.GetData(id)
		if resp.Decision == attribute.DecisionBlock {
			blocked++
		} else {
			resolved++
		}
	}
	fmt.Printf("attribute reads: resolved=%d blocked=%d\n", resolved, blocked)
	return nil
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(float64(len(sorted)-1) * p)
	return sorted[idx]
}
