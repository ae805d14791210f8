// Copyright (C) 2025, Kenshi Online Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package coordinator runs the per-tick control loop that wires the
// four rings together: it drains Ring 2, commits accepted observations
// into Ring 3, applies resolved transforms to the actuator, and
// verifies what it wrote (spec §4.10).
package coordinator

import (
	"sync"
	"time"

	"github.com/The404Studios/Kenshi-Online-sub006/actuator"
	"github.com/The404Studios/Kenshi-Online-sub006/attribute"
	"github.com/The404Studios/Kenshi-Online-sub006/authority"
	"github.com/The404Studios/Kenshi-Online-sub006/config"
	"github.com/The404Studios/Kenshi-Online-sub006/confidence"
	"github.com/The404Studios/Kenshi-Online-sub006/container"
	"github.com/The404Studios/Kenshi-Online-sub006/identity"
	"github.com/The404Studios/Kenshi-Online-sub006/info"
	"github.com/The404Studios/Kenshi-Online-sub006/schema"
	"github.com/The404Studios/Kenshi-Online-sub006/tick"
	"github.com/The404Studios/Kenshi-Online-sub006/truth"
)

// CycleStats is the per-cycle state the coordinator exposes for
// observability and the sanity-answer checks (spec §4.10).
type CycleStats struct {
	Tick                 tick.Tick
	CycleCount           uint64
	ObservationsProcessed int
	Committed            int
	Rejected             int
	Deferred             int
	Snaps                int
	VerificationsOk      int
	VerificationsFailed  int
	ProcessingTime       time.Duration
	Error                error
}

// pendingVerification is one queued actuator read-back check.
type pendingVerification struct {
	subject     identity.NetId
	commitId    int64
	expected    schema.Payload
	source      confidence.SourceId
	verifyAtTick tick.Tick
}

// Coordinator owns the control loop and the glue between rings. It is
// not safe for concurrent Tick calls; callers run it from a single
// scheduler goroutine, matching the teacher's single-threaded
// cooperative driver.
type Coordinator struct {
	mu sync.Mutex

	clock     *tick.Clock
	infoRing  *info.Ring
	container *container.Registry
	authz     *authority.Tracker
	truthLog  *truth.Log
	attr      *attribute.Resolver
	act       actuator.Actuator
	params    config.Parameters

	pendingVerifications []pendingVerification
	lastStats            CycleStats
	cycleCount           uint64
}

// New builds a Coordinator wiring the four rings together under
// params. A nil actuator defaults to actuator.NoOp{}. Ring 4 (the
// attribute resolver) is always constructed here, never nil, since the
// coordinator's own commit path feeds it on every accepted transform
// (spec §4.9, §2's AuthorityRing → AttributeRing data flow).
func New(clock *tick.Clock, infoRing *info.Ring, containerReg *container.Registry, authz *authority.Tracker, truthLog *truth.Log, act actuator.Actuator, params config.Parameters) *Coordinator {
	if act == nil {
		act = actuator.NoOp{}
	}
	return &Coordinator{
		clock:     clock,
		infoRing:  infoRing,
		container: containerReg,
		authz:     authz,
		truthLog:  truthLog,
		attr:      attribute.NewResolver(),
		act:       act,
		params:    params,
	}
}

// Resolver exposes Ring 4's read path to the host process, so
// subsystems can resolve interpolated/extrapolated reads (via
// attribute.NewResponseBus(c.Resolver()) or direct ReadTransform calls)
// without the coordinator itself taking an opinion on precondition
// timing (spec §4.9: subsystems precondition at their own update
// cadence, not the commit cycle's).
func (c *Coordinator) Resolver() *attribute.Resolver {
	return c.attr
}

// infoKindToOp translates a Ring 2 entry kind to the commit op it
// produces, per spec §4.10.
func infoKindToOp(k info.Kind) truth.Op {
	if k == info.KindEvent {
		return truth.OpEvent
	}
	return truth.OpSet
}

// scopeForSchemaKind maps a payload's schema kind to the authority
// scope bit that must be held to write it (spec §7.2).
func scopeForSchemaKind(k schema.Kind) authority.Scope {
	switch k {
	case schema.KindTransform:
		return authority.ScopeTransform
	case schema.KindHealth:
		return authority.ScopeHealth
	case schema.KindInventory:
		return authority.ScopeInventory
	case schema.KindAIState:
		return authority.ScopeAIState
	case schema.KindAnimState:
		return authority.ScopeAnimation
	case schema.KindInput:
		return authority.ScopeInput
	default:
		return authority.ScopeAll
	}
}

// Tick runs one full cycle: advance the clock, drain Ring 2, commit
// into Ring 3, apply to the actuator, queue and process verifications.
func (c *Coordinator) Tick(now truth.NowFunc) CycleStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := now()
	c.cycleCount++
	stats := CycleStats{CycleCount: c.cycleCount}

	// 1. Advance clock.
	currentTick := c.clock.Advance()
	stats.Tick = currentTick

	// 2. Drain InfoRing.
	processed := 0
	for processed < c.params.MaxInfosPerCycle {
		entry, ok := c.infoRing.Dequeue()
		if !ok {
			break
		}
		processed++

		policy := confidence.Policy{
			AcceptThreshold: c.params.AcceptThreshold,
			RejectThreshold: c.params.RejectThreshold,
			MinSamples:      3,
			HalfLifeTicks:   20,
		}
		decision := policy.Decide(entry.Confidence)

		switch decision {
		case confidence.DecisionAccept:
			scope := scopeForSchemaKind(entry.SchemaId)
			if !c.authz.CanWrite(entry.Subject, entry.Owner, entry.OwnerId, scope, currentTick) {
				c.infoRing.MarkRejected(entry)
				stats.Rejected++
				break
			}

			op := infoKindToOp(entry.Kind)
			commit := c.truthLog.Commit(truth.Request{
				Subject:  entry.Subject,
				Op:       op,
				Payload:  entry.Payload,
				Tick:     currentTick,
				SourceId: entry.Source,
			}, now)

			if commit.Result == truth.ResultAccepted || commit.Result == truth.ResultCoalesced {
				c.infoRing.MarkAccepted(entry)
				stats.Committed++
				c.recordAttribute(entry, commit)
				c.applyToActuator(entry.Subject, commit, currentTick)
			} else {
				c.infoRing.MarkRejected(entry)
				stats.Rejected++
			}

		case confidence.DecisionReject:
			c.infoRing.MarkRejected(entry)
			stats.Rejected++

		case confidence.DecisionDefer, confidence.DecisionRequestMoreSamples:
			c.infoRing.MarkDeferred(entry)
			stats.Deferred++
		}
	}
	stats.ObservationsProcessed = processed

	// 5. Process due verifications (queued in step 4 via applyToActuator).
	ok, failed := c.processVerifications(currentTick)
	stats.VerificationsOk = ok
	stats.VerificationsFailed = failed

	stats.ProcessingTime = now().Sub(start)
	c.lastStats = stats
	return stats
}

// recordAttribute pushes an accepted/coalesced transform commit into
// Ring 4 so subsystem reads through Resolver/ResponseBus see it (spec
// §4.9, §2: AuthorityRing -> AttributeRing). Non-transform commits
// carry nothing Ring 4 samples on, so they are a no-op here.
func (c *Coordinator) recordAttribute(entry *info.Entry, commit truth.Commit) {
	transform, ok := commit.Payload.(schema.TransformPayload)
	if !ok {
		return
	}
	c.attr.RecordTransform(entry.Subject, attribute.Sample{
		Tick:       commit.Tick,
		Position:   transform.Transform.Position,
		Rotation:   transform.Transform.Rotation,
		Velocity:   transform.Transform.Velocity,
		Confidence: entry.Confidence.Effective(),
	})
}

// applyToActuator resolves the commit's transform to World and writes
// it through the actuator, then queues a verification (steps 3-4).
func (c *Coordinator) applyToActuator(subject identity.NetId, commit truth.Commit, at tick.Tick) {
	entry, ok := c.container.Get(subject)
	if !ok || entry.Handle == container.InvalidHandle {
		return
	}

	transform, isTransform := commit.Payload.(schema.TransformPayload)
	if !isTransform {
		return
	}

	world, ok2 := c.truthLog.Resolver().ToWorld(transform.Transform)
	if !ok2 {
		return
	}

	handle := actuator.Handle(entry.Handle)
	_ = c.act.WriteTransform(handle, world.Position, world.Rotation)

	c.pendingVerifications = append(c.pendingVerifications, pendingVerification{
		subject:      subject,
		commitId:     commit.CommitId,
		expected:     commit.Payload,
		source:       commit.SourceId,
		verifyAtTick: at + 1,
	})
}

// processVerifications reads back every verification due at or before
// at, comparing against the expected transform; entries not yet due
// are requeued.
func (c *Coordinator) processVerifications(at tick.Tick) (ok int, failed int) {
	remaining := c.pendingVerifications[:0]
	for _, v := range c.pendingVerifications {
		if v.verifyAtTick > at {
			remaining = append(remaining, v)
			continue
		}

		entry, exists := c.container.Get(v.subject)
		if !exists || entry.Handle == container.InvalidHandle {
			continue
		}
		expected, isTransform := v.expected.(schema.TransformPayload)
		if !isTransform {
			continue
		}

		pos, _, readOk := c.act.ReadTransform(actuator.Handle(entry.Handle))
		if !readOk {
			continue
		}

		dist := pos.Distance(expected.Transform.Position)
		if dist > c.params.VerificationThreshold {
			failed++
			c.infoRing.ProvideFeedback(v.source, false)
		} else {
			ok++
			c.infoRing.ProvideFeedback(v.source, true)
		}
	}
	c.pendingVerifications = remaining
	return ok, failed
}

// LastStats returns the most recently completed cycle's stats.
func (c *Coordinator) LastStats() CycleStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastStats
}

// PendingVerificationCount reports how many verifications are queued,
// useful for health checks and tests.
func (c *Coordinator) PendingVerificationCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pendingVerifications)
}

