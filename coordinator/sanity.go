// Copyright (C) 2025, Kenshi Online Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package coordinator

import (
	"fmt"

	"github.com/The404Studios/Kenshi-Online-sub006/authority"
	"github.com/The404Studios/Kenshi-Online-sub006/identity"
	"github.com/The404Studios/Kenshi-Online-sub006/space"
	"github.com/The404Studios/Kenshi-Online-sub006/tick"
)

// SanityAnswer is the six-tuple the coordinator must be able to derive
// for any live entity from its own state (spec §4.10): who it is, when
// this is true, who decided it, what it means, in what frame, and how
// sure we are.
type SanityAnswer struct {
	Who        identity.NetId
	When       tick.Tick
	WhenCommit int64
	Decider    authority.Owner
	DeciderId  identity.NetId
	Epoch      uint32
	WhatOp     string
	WhatSchema string
	Frame      space.FrameKind
	HowSure    float64
}

// Answer derives the sanity six-tuple for subject from the container,
// authority, and truth state this coordinator already holds; it
// performs no I/O. Returns ok=false if the entity is not currently
// alive.
func (c *Coordinator) Answer(subject identity.NetId) (SanityAnswer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, alive := c.container.Get(subject)
	if !alive || !entry.Alive {
		return SanityAnswer{}, false
	}

	state, ok := c.truthLog.EntityState(subject)
	if !ok {
		return SanityAnswer{}, false
	}

	coord, _ := c.authz.CoordinateFor(subject, authority.ScopeAll)

	return SanityAnswer{
		Who:        subject,
		When:       state.LastTick,
		WhenCommit: state.LastCommitId,
		Decider:    coord.Owner,
		DeciderId:  coord.OwnerId,
		Epoch:      coord.Epoch,
		WhatOp:     state.LastCommit.Op.String(),
		WhatSchema: state.LastCommit.Payload.SchemaKind().String(),
		Frame:      entry.Frame.Kind,
		HowSure:    1.0,
	}, true
}

// String renders the sanity answer as a human-readable line, useful
// for CLI diagnostics.
func (a SanityAnswer) String() string {
	return fmt.Sprintf("%s: at tick %d (commit %d), decided by %s#%d (epoch %d), last op %s/%s, frame %s, confidence %.2f",
		a.Who, a.When, a.WhenCommit, a.Decider, a.DeciderId, a.Epoch, a.WhatOp, a.WhatSchema, a.Frame, a.HowSure)
}

// HealthStatus is the coordinator's own health summary.
type HealthStatus struct {
	Healthy              bool
	LastCycle            CycleStats
	PendingVerifications int
	Reason               string
}

// Health reports whether the coordinator is keeping up: the pending
// verification queue must not be growing without bound, and the last
// cycle must not have recorded an error.
func (c *Coordinator) Health(maxPendingVerifications int) HealthStatus {
	last := c.LastStats()
	pending := c.PendingVerificationCount()

	if last.Error != nil {
		return HealthStatus{Healthy: false, LastCycle: last, PendingVerifications: pending, Reason: last.Error.Error()}
	}
	if pending > maxPendingVerifications {
		return HealthStatus{Healthy: false, LastCycle: last, PendingVerifications: pending, Reason: "verification backlog exceeds configured maximum"}
	}
	return HealthStatus{Healthy: true, LastCycle: last, PendingVerifications: pending}
}
