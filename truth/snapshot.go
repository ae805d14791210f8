// Copyright (C) 2025, Kenshi Online Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package truth

import (
	"time"

	"github.com/The404Studios/Kenshi-Online-sub006/identity"
	"github.com/The404Studios/Kenshi-Online-sub006/tick"
)

// Snapshot is a point-in-time, immutable clone of every entity's truth
// state as of CommitId. Snapshots are never mutated in place; replay
// clones one before folding further commits onto the clone.
type Snapshot struct {
	CommitId int64
	Tick     tick.Tick
	Timestamp time.Time
	Entities map[identity.NetId]EntityState
}

// clone deep-copies the snapshot so callers (e.g. a disk-persistence
// layer) cannot corrupt the log's retained copy.
func (s Snapshot) clone() Snapshot {
	out := Snapshot{CommitId: s.CommitId, Tick: s.Tick, Timestamp: s.Timestamp}
	out.Entities = make(map[identity.NetId]EntityState, len(s.Entities))
	for id, st := range s.Entities {
		out.Entities[id] = st.clone()
	}
	return out
}

// latestSnapshotAtOrBefore returns the most recent retained snapshot
// with CommitId <= commitId, if any.
func (l *Log) latestSnapshotAtOrBefore(commitId int64) (Snapshot, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := len(l.snapshots) - 1; i >= 0; i-- {
		if l.snapshots[i].CommitId <= commitId {
			return l.snapshots[i].clone(), true
		}
	}
	return Snapshot{}, false
}

// Snapshots returns a clone of every retained snapshot, oldest first.
func (l *Log) Snapshots() []Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Snapshot, len(l.snapshots))
	for i, s := range l.snapshots {
		out[i] = s.clone()
	}
	return out
}

// ReconstructAt replays the log deterministically up to and including
// commitId: it takes the latest snapshot with CommitId <= commitId,
// clones it, and folds every retained Accepted commit after the
// snapshot up through commitId. If no snapshot exists at or before
// commitId, or if a required commit has already aged out of the
// retained buffer, ReconstructAt returns (nil, false) — never a
// best-effort partial reconstruction (spec §4.8).
func (l *Log) ReconstructAt(commitId int64) (map[identity.NetId]EntityState, bool) {
	snap, ok := l.latestSnapshotAtOrBefore(commitId)
	if !ok {
		return nil, false
	}

	result := make(map[identity.NetId]EntityState, len(snap.Entities))
	for id, st := range snap.Entities {
		result[id] = st.clone()
	}

	commits := l.CommitsSince(snap.CommitId)
	// Verify the retained window actually starts exactly where the
	// snapshot left off; a gap means commits aged out of the circular
	// buffer and faithful replay is impossible.
	if snap.CommitId < commitId {
		if len(commits) == 0 || commits[0].CommitId != snap.CommitId+1 {
			return nil, false
		}
	}

	for _, c := range commits {
		if c.CommitId > commitId {
			break
		}
		if c.Result != ResultAccepted && c.Result != ResultCoalesced {
			continue
		}
		st := result[c.Subject]
		st.apply(c)
		result[c.Subject] = st
	}
	return result, true
}
