// Copyright (C) 2025, Kenshi Online Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package transport defines the network-facing boundary of the core:
// inbound callers push already-normalized Info entries, and outbound
// callers drain the authority log's commit stream to broadcast (spec
// §6). The core never knows about sockets, serialization formats, or
// peer addressing; that lives entirely on the host side of this
// boundary.
package transport

import (
	"github.com/The404Studios/Kenshi-Online-sub006/info"
	"github.com/The404Studios/Kenshi-Online-sub006/tick"
	"github.com/The404Studios/Kenshi-Online-sub006/truth"
)

// Inbound accepts already-normalized Info entries from the network
// layer. It is a thin adapter over info.Ring.Enqueue so the host's
// networking code depends on one narrow interface rather than the full
// ring API.
type Inbound interface {
	Enqueue(req info.EnqueueRequest) (*info.Entry, bool)
}

// Outbound is consumed by the host's broadcaster: it drains Accepted
// commits since the last one it sent and is responsible for batching
// and emission. Rejected commits are never surfaced here (spec §6).
type Outbound interface {
	CommitsSince(lastSent int64) []truth.Commit
}

// RingInbound adapts an info.Ring to the Inbound interface, stamping
// the receive tick from a caller-supplied clock function.
type RingInbound struct {
	Ring    *info.Ring
	NowTick func() tick.Tick
}

// Enqueue implements Inbound.
func (r RingInbound) Enqueue(req info.EnqueueRequest) (*info.Entry, bool) {
	receiveTick := req.ObservationTick
	if r.NowTick != nil {
		receiveTick = r.NowTick()
	}
	return r.Ring.Enqueue(req, receiveTick)
}

// LogOutbound adapts a truth.Log to the Outbound interface.
type LogOutbound struct {
	Log *truth.Log
}

// CommitsSince implements Outbound.
func (l LogOutbound) CommitsSince(lastSent int64) []truth.Commit {
	return l.Log.CommitsSince(lastSent)
}
