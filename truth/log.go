// Copyright (C) 2025, Kenshi Online Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package truth

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/The404Studios/Kenshi-Online-sub006/confidence"
	"github.com/The404Studios/Kenshi-Online-sub006/identity"
	"github.com/The404Studios/Kenshi-Online-sub006/schema"
	"github.com/The404Studios/Kenshi-Online-sub006/space"
	"github.com/The404Studios/Kenshi-Online-sub006/tick"
)

// NowFunc supplies the current wall-clock time for commit/snapshot
// timestamps; injected so tests are deterministic.
type NowFunc func() time.Time

// Metrics are the Ring 3 prometheus collectors, registered once at
// construction the way the teacher's metrics.NewMetrics(reg) does.
type Metrics struct {
	accepted   prometheus.Counter
	rejected   prometheus.Counter
	coalesced  prometheus.Counter
	snapshots  prometheus.Counter
}

// NewMetrics registers Ring 3's collectors against reg. A nil reg
// disables metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		accepted:  prometheus.NewCounter(prometheus.CounterOpts{Name: "truth_commits_accepted_total", Help: "Accepted commits."}),
		rejected:  prometheus.NewCounter(prometheus.CounterOpts{Name: "truth_commits_rejected_total", Help: "Rejected commits."}),
		coalesced: prometheus.NewCounter(prometheus.CounterOpts{Name: "truth_commits_coalesced_total", Help: "Commits folded via coalescing."}),
		snapshots: prometheus.NewCounter(prometheus.CounterOpts{Name: "truth_snapshots_total", Help: "Snapshots taken."}),
	}
	if reg != nil {
		reg.MustRegister(m.accepted, m.rejected, m.coalesced, m.snapshots)
	}
	return m
}

// Log is Ring 3: the write-ahead truth log. All commit bookkeeping
// holds a single mutex; the critical section is O(constraints) +
// O(snapshot) only when a snapshot is triggered (spec §5).
type Log struct {
	mu sync.Mutex

	entities map[identity.NetId]*EntityState

	commitBuf   []Commit
	globalCount int64 // last assigned commit id

	constraints      []Constraint
	snapshotInterval int64
	lastSnapshotId   int64
	snapshots        []Snapshot // oldest first, capped at 10

	metrics  *Metrics
	resolver *space.Resolver
}

// Config configures a new Log.
type Config struct {
	CommitBufferCapacity int   // default 32768
	SnapshotInterval     int64 // default 1000
	Constraints          []Constraint
	Metrics              *Metrics
}

// NewLog builds an empty Ring 3.
func NewLog(cfg Config) *Log {
	if cfg.CommitBufferCapacity < 1 {
		cfg.CommitBufferCapacity = 32768
	}
	if cfg.SnapshotInterval < 1 {
		cfg.SnapshotInterval = 1000
	}
	if cfg.Constraints == nil {
		cfg.Constraints = DefaultConstraints()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = NewMetrics(nil)
	}
	l := &Log{
		entities:         make(map[identity.NetId]*EntityState),
		commitBuf:        make([]Commit, cfg.CommitBufferCapacity),
		constraints:      cfg.Constraints,
		snapshotInterval: cfg.SnapshotInterval,
		metrics:          cfg.Metrics,
	}
	l.resolver = space.NewResolver(worldLookup{log: l})
	return l
}

// Resolver returns the space resolver wired to this log's entity
// transforms, for converting Local/Parented transforms to World.
func (l *Log) Resolver() *space.Resolver { return l.resolver }

// Request is a proposed commit awaiting normalization, coalescing, and
// constraint checks.
type Request struct {
	Subject        identity.NetId
	Op             Op
	Payload        schema.Payload
	Tick           tick.Tick
	AuthorityEpoch uint32
	SourceId       confidence.SourceId
}

// Commit runs the full commit algorithm from spec §4.8: normalize,
// attempt same-tick coalescing, run constraints, assign a commit id,
// store, update the per-entity projection, and snapshot if due.
func (l *Log) Commit(req Request, now NowFunc) Commit {
	req.Payload = schema.Normalize(req.Payload)
	hash := schema.Hash(req.Payload)

	l.mu.Lock()
	defer l.mu.Unlock()

	state := l.entities[req.Subject]
	if state == nil {
		state = &EntityState{}
		l.entities[req.Subject] = state
	}

	if coalesced, ok := l.tryCoalesce(state, req, hash, now); ok {
		l.metrics.coalesced.Inc()
		return coalesced
	}

	candidate := Commit{
		Subject:        req.Subject,
		Op:             req.Op,
		Payload:        req.Payload,
		Tick:           req.Tick,
		AuthorityEpoch: req.AuthorityEpoch,
		SourceId:       req.SourceId,
		Timestamp:      now(),
		PayloadHash:    hash,
	}

	for _, c := range l.constraints {
		if ok, reason := c.Check(*state, candidate); !ok {
			candidate.CommitId = RejectedCommitId
			candidate.Result = ResultRejected
			candidate.Reason = reason
			l.metrics.rejected.Inc()
			return candidate
		}
	}

	l.globalCount++
	candidate.CommitId = l.globalCount
	candidate.Result = ResultAccepted

	l.storeCommitLocked(candidate)
	state.apply(candidate)
	l.metrics.accepted.Inc()

	l.maybeSnapshotLocked(req.Tick, now)
	return candidate
}

// tryCoalesce folds req into the entity's last commit in place when
// the last commit is within the same tick, has op=Set, and shares the
// new payload's schema kind. Events and non-Set ops never coalesce
// (spec §4.8); the commit-id counter is unchanged either way.
func (l *Log) tryCoalesce(state *EntityState, req Request, hash uint64, now NowFunc) (Commit, bool) {
	if req.Op != OpSet {
		return Commit{}, false
	}
	if len(state.RecentCommits) == 0 {
		return Commit{}, false
	}
	last := state.RecentCommits[len(state.RecentCommits)-1]
	if last.Tick != req.Tick || last.Op != OpSet || (last.Result != ResultAccepted && last.Result != ResultCoalesced) {
		return Commit{}, false
	}
	if last.Payload.SchemaKind() != req.Payload.SchemaKind() {
		return Commit{}, false
	}

	folded := Commit{
		CommitId:       last.CommitId,
		Subject:        req.Subject,
		Op:             OpSet,
		Payload:        req.Payload,
		Tick:           req.Tick,
		AuthorityEpoch: req.AuthorityEpoch,
		SourceId:       req.SourceId,
		Result:         ResultCoalesced,
		Timestamp:      now(),
		PayloadHash:    hash,
	}

	// Replace the stored commit in the circular buffer in place and
	// re-fold the entity projection without advancing globalCount.
	// state.apply replaces RecentCommits' last slot in place for a
	// Coalesced result rather than appending a second entry.
	l.replaceStoredCommitLocked(folded)
	state.apply(folded)
	return folded, true
}

func (l *Log) storeCommitLocked(c Commit) {
	idx := (c.CommitId - 1) % int64(len(l.commitBuf))
	l.commitBuf[idx] = c
}

func (l *Log) replaceStoredCommitLocked(c Commit) {
	if c.CommitId < 1 {
		return
	}
	idx := (c.CommitId - 1) % int64(len(l.commitBuf))
	l.commitBuf[idx] = c
}

func (l *Log) maybeSnapshotLocked(at tick.Tick, now NowFunc) {
	if l.globalCount-l.lastSnapshotId < l.snapshotInterval {
		return
	}
	snap := Snapshot{
		CommitId:  l.globalCount,
		Tick:      at,
		Timestamp: now(),
		Entities:  make(map[identity.NetId]EntityState, len(l.entities)),
	}
	for id, st := range l.entities {
		snap.Entities[id] = st.clone()
	}
	l.snapshots = append(l.snapshots, snap)
	if len(l.snapshots) > 10 {
		l.snapshots = l.snapshots[len(l.snapshots)-10:]
	}
	l.lastSnapshotId = l.globalCount
	l.metrics.snapshots.Inc()
}

// EntityState returns a clone of the folded projection for id.
func (l *Log) EntityState(id identity.NetId) (EntityState, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	st, ok := l.entities[id]
	if !ok {
		return EntityState{}, false
	}
	return st.clone(), true
}

// CommitsSince returns every retained commit (Accepted, or Coalesced in
// place; rejected commits are never stored) with CommitId > fromId,
// oldest first. Ids older than the retained window
// are simply absent.
func (l *Log) CommitsSince(fromId int64) []Commit {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := int64(len(l.commitBuf))
	oldestRetained := int64(1)
	if l.globalCount > n {
		oldestRetained = l.globalCount - n + 1
	}
	start := fromId + 1
	if start < oldestRetained {
		start = oldestRetained
	}
	out := make([]Commit, 0, l.globalCount-start+1)
	for id := start; id <= l.globalCount; id++ {
		idx := (id - 1) % n
		c := l.commitBuf[idx]
		if c.CommitId == id {
			out = append(out, c)
		}
	}
	return out
}

// CommitsForEntity returns retained commits for subject, optionally
// only those at or after fromTick.
func (l *Log) CommitsForEntity(subject identity.NetId, fromTick *tick.Tick) []Commit {
	all := l.CommitsSince(0)
	out := make([]Commit, 0)
	for _, c := range all {
		if c.Subject != subject {
			continue
		}
		if fromTick != nil && c.Tick < *fromTick {
			continue
		}
		out = append(out, c)
	}
	return out
}

// CommitsInTickRange returns retained commits with Tick in [a,b].
func (l *Log) CommitsInTickRange(a, b tick.Tick) []Commit {
	all := l.CommitsSince(0)
	out := make([]Commit, 0)
	for _, c := range all {
		if c.Tick >= a && c.Tick <= b {
			out = append(out, c)
		}
	}
	return out
}
