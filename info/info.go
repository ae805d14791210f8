// Copyright (C) 2025, Kenshi Online Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package info implements Ring 2: the inbox of untrusted observations,
// proposals, and inputs, scored by confidence before the coordinator
// ever considers committing them.
package info

import (
	"sync"
	"sync/atomic"

	"golang.org/x/time/rate"

	"github.com/The404Studios/Kenshi-Online-sub006/authority"
	"github.com/The404Studios/Kenshi-Online-sub006/confidence"
	"github.com/The404Studios/Kenshi-Online-sub006/identity"
	"github.com/The404Studios/Kenshi-Online-sub006/schema"
	"github.com/The404Studios/Kenshi-Online-sub006/tick"
)

// Kind tags the nature of an inbox entry.
type Kind uint8

const (
	KindInput Kind = iota
	KindObservation
	KindEvent
	KindProposal
	KindPrediction
	KindQuery
	KindCorrection
)

// Status is an entry's lifecycle state. Every entry leaves Pending
// exactly once (enforced by the single-writer transition helpers
// below).
type Status uint8

const (
	StatusPending Status = iota
	StatusAccepted
	StatusRejected
	StatusDeferred
	StatusSuperseded
	StatusExpired
)

// Entry is one Ring 2 inbox record.
type Entry struct {
	Id              uint64
	Subject         identity.NetId
	Source          confidence.SourceId
	Kind            Kind
	SchemaId        schema.Kind
	Payload         schema.Payload
	ObservationTick tick.Tick
	ReceiveTick     tick.Tick
	Confidence      confidence.Confidence
	Owner           authority.Owner
	OwnerId         identity.NetId

	statusMu sync.Mutex
	status   Status
}

// Status returns the entry's current lifecycle state.
func (e *Entry) Status() Status {
	e.statusMu.Lock()
	defer e.statusMu.Unlock()
	return e.status
}

// transition moves the entry out of Pending exactly once; subsequent
// calls are no-ops returning false so callers can detect a duplicate
// transition attempt (spec §4.7: "an entry moves from Pending exactly
// once").
func (e *Entry) transition(to Status) bool {
	e.statusMu.Lock()
	defer e.statusMu.Unlock()
	if e.status != StatusPending {
		return false
	}
	e.status = to
	return true
}

// Filter selects a subset of entries for queries.
type Filter struct {
	Subject       *identity.NetId
	Source        confidence.SourceId // nil/zero value means "any"
	Kind          *Kind
	SchemaKind    *schema.Kind
	TickRange     *tick.Range
	Status        *Status
	MinConfidence *float64
}

func (f Filter) matches(e *Entry) bool {
	if f.Subject != nil && e.Subject != *f.Subject {
		return false
	}
	if f.Source != nil && e.Source != f.Source {
		return false
	}
	if f.Kind != nil && e.Kind != *f.Kind {
		return false
	}
	if f.SchemaKind != nil && e.SchemaId != *f.SchemaKind {
		return false
	}
	if f.TickRange != nil && !f.TickRange.Contains(e.ObservationTick) {
		return false
	}
	if f.Status != nil && e.Status() != *f.Status {
		return false
	}
	if f.MinConfidence != nil && e.Confidence.Effective() < *f.MinConfidence {
		return false
	}
	return true
}

// RateLimitPolicy configures the per-source token bucket guarding
// Enqueue, using golang.org/x/time/rate the way a noisy-neighbour
// ingestion guard would in any network-facing Go service.
type RateLimitPolicy struct {
	EventsPerSecond float64
	Burst           int
}

// DefaultRateLimitPolicy allows a generous default so a single
// well-behaved source is never throttled in practice, while a runaway
// source is capped.
func DefaultRateLimitPolicy() RateLimitPolicy {
	return RateLimitPolicy{EventsPerSecond: 240, Burst: 480}
}

// Ring is Ring 2: a bounded circular buffer plus a per-subject FIFO
// index, confidence scoring on ingestion, and reliability feedback.
type Ring struct {
	mu         sync.Mutex
	buf        []*Entry
	head       uint64 // next write position (monotone)
	evicted    uint64
	bySubject  map[identity.NetId][]*Entry
	nextId     uint64
	policy     confidence.Policy
	reliab     *confidence.ReliabilityTracker
	limiters   map[confidence.SourceId]*rate.Limiter
	limitCfg   RateLimitPolicy
}

// NewRing builds a Ring 2 of the given capacity (spec default 16384)
// using policy for confidence decisions and reliab for source
// feedback.
func NewRing(capacity int, policy confidence.Policy, reliab *confidence.ReliabilityTracker, limitCfg RateLimitPolicy) *Ring {
	if capacity < 1 {
		capacity = 16384
	}
	return &Ring{
		buf:       make([]*Entry, capacity),
		bySubject: make(map[identity.NetId][]*Entry),
		policy:    policy,
		reliab:    reliab,
		limiters:  make(map[confidence.SourceId]*rate.Limiter),
		limitCfg:  limitCfg,
	}
}

func (r *Ring) limiterFor(source confidence.SourceId) *rate.Limiter {
	if l, ok := r.limiters[source]; ok {
		return l
	}
	l := rate.NewLimiter(rate.Limit(r.limitCfg.EventsPerSecond), r.limitCfg.Burst)
	r.limiters[source] = l
	return l
}

// EnqueueRequest is the caller-supplied half of a new Ring 2 entry;
// Ring computes Confidence, ObservationTick bookkeeping, and identity.
type EnqueueRequest struct {
	Subject         identity.NetId
	Source          confidence.SourceId
	Kind            Kind
	Payload         schema.Payload
	ObservationTick tick.Tick
	RawValue        float64 // plausibility input feeding Confidence.Value
	SampleCount     uint8
	Flags           confidence.Flags
	// Owner/OwnerId identify who is claiming this observation's write,
	// checked against authority.Tracker.CanWrite before the coordinator
	// ever commits it (spec §7.2). The zero Owner (authority.OwnerNone)
	// never matches a real grant, so callers that skip this field are
	// deliberately unauthorized rather than silently trusted.
	Owner   authority.Owner
	OwnerId identity.NetId
}

// Enqueue scores req using the confidence policy and freshness decay,
// stamps ReceiveTick, and appends to both the ring and the subject's
// FIFO. When the ring is full the oldest entry is evicted (counted,
// never blocking). Enqueue returns (nil, false) if the source's rate
// limiter rejects the request (spec §7.1 capacity exhaustion applies
// equally to a single noisy source).
func (r *Ring) Enqueue(req EnqueueRequest, receiveTick tick.Tick) (*Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.limiterFor(req.Source).Allow() {
		return nil, false
	}

	age := float64(receiveTick - req.ObservationTick)
	reliability := 0.5
	if r.reliab != nil {
		reliability = r.reliab.Reliability(req.Source)
	}
	conf := confidence.Confidence{
		Value:             req.RawValue,
		SourceReliability: reliability,
		Freshness:         confidence.Freshness(age, r.policy.HalfLifeTicks),
		SampleCount:       req.SampleCount,
		Flags:             req.Flags,
	}

	r.nextId++
	entry := &Entry{
		Id:              r.nextId,
		Subject:         req.Subject,
		Source:          req.Source,
		Kind:            req.Kind,
		SchemaId:        req.Payload.SchemaKind(),
		Payload:         req.Payload,
		ObservationTick: req.ObservationTick,
		ReceiveTick:     receiveTick,
		Confidence:      conf,
		Owner:           req.Owner,
		OwnerId:         req.OwnerId,
		status:          StatusPending,
	}

	slot := r.head % uint64(len(r.buf))
	if old := r.buf[slot]; old != nil && r.head >= uint64(len(r.buf)) {
		r.removeFromSubjectIndexLocked(old)
		atomic.AddUint64(&r.evicted, 1)
	}
	r.buf[slot] = entry
	r.head++
	r.bySubject[req.Subject] = append(r.bySubject[req.Subject], entry)

	return entry, true
}

func (r *Ring) removeFromSubjectIndexLocked(e *Entry) {
	list := r.bySubject[e.Subject]
	for i, cand := range list {
		if cand == e {
			r.bySubject[e.Subject] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(r.bySubject[e.Subject]) == 0 {
		delete(r.bySubject, e.Subject)
	}
}

// EvictedCount returns the number of entries dropped due to ring
// capacity.
func (r *Ring) EvictedCount() uint64 {
	return atomic.LoadUint64(&r.evicted)
}

// Dequeue pops the single oldest still-Pending entry in arrival order,
// or returns (nil, false) if none remain. It does not remove Accepted/
// Rejected/etc. entries that the ring still retains for querying;
// those simply will not be returned again.
func (r *Ring) Dequeue() (*Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := uint64(len(r.buf))
	oldest := uint64(0)
	if r.head > n {
		oldest = r.head - n
	}
	for i := oldest; i < r.head; i++ {
		e := r.buf[i%n]
		if e != nil && e.Status() == StatusPending {
			return e, true
		}
	}
	return nil, false
}

// Peek returns every currently retained entry without consuming
// anything, oldest first.
func (r *Ring) Peek() []*Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := uint64(len(r.buf))
	oldest := uint64(0)
	if r.head > n {
		oldest = r.head - n
	}
	out := make([]*Entry, 0, r.head-oldest)
	for i := oldest; i < r.head; i++ {
		if e := r.buf[i%n]; e != nil {
			out = append(out, e)
		}
	}
	return out
}

// Query returns every retained entry matching f, oldest first.
func (r *Ring) Query(f Filter) []*Entry {
	all := r.Peek()
	out := make([]*Entry, 0, len(all))
	for _, e := range all {
		if f.matches(e) {
			out = append(out, e)
		}
	}
	return out
}

// BySubject returns subject's FIFO order snapshot.
func (r *Ring) BySubject(subject identity.NetId) []*Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.bySubject[subject]
	out := make([]*Entry, len(list))
	copy(out, list)
	return out
}

// MarkAccepted transitions e out of Pending into Accepted, feeding
// positive reliability feedback to its source. Returns false if e had
// already left Pending.
func (r *Ring) MarkAccepted(e *Entry) bool {
	if !e.transition(StatusAccepted) {
		return false
	}
	if r.reliab != nil {
		r.reliab.ProvideFeedback(e.Source, true)
	}
	return true
}

// MarkRejected transitions e out of Pending into Rejected, feeding
// negative reliability feedback to its source.
func (r *Ring) MarkRejected(e *Entry) bool {
	if !e.transition(StatusRejected) {
		return false
	}
	if r.reliab != nil {
		r.reliab.ProvideFeedback(e.Source, false)
	}
	return true
}

// MarkDeferred transitions e out of Pending into Deferred without
// reliability feedback (the observation may still turn out correct).
func (r *Ring) MarkDeferred(e *Entry) bool {
	return e.transition(StatusDeferred)
}

// MarkSuperseded transitions e out of Pending when a same-tick
// coalesce folds a newer observation over it.
func (r *Ring) MarkSuperseded(e *Entry) bool {
	return e.transition(StatusSuperseded)
}

// MarkExpired transitions e out of Pending when it ages out without
// being processed.
func (r *Ring) MarkExpired(e *Entry) bool {
	return e.transition(StatusExpired)
}

// ProvideFeedback records wasAccurate for source directly, e.g. after
// an out-of-band verification rather than an accept/reject decision.
func (r *Ring) ProvideFeedback(source confidence.SourceId, wasAccurate bool) {
	if r.reliab != nil {
		r.reliab.ProvideFeedback(source, wasAccurate)
	}
}
