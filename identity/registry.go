// Copyright (C) 2025, Kenshi Online Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package identity

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// slot tracks the liveness state of one (kind, index) pool entry.
type slot struct {
	generation uint32
	alive      bool
}

// pool is a single kind's fixed-capacity allocator: a free list plus a
// dense slab of generation counters. All operations are O(1) under the
// pool's own mutex, matching the teacher's "mutex per kind" resource
// policy.
type pool struct {
	mu       sync.Mutex
	kind     Kind
	slots    []slot
	freeList []uint32
}

func newPool(kind Kind, capacity uint32) *pool {
	if capacity > maxIndex+1 {
		capacity = maxIndex + 1
	}
	p := &pool{
		kind:     kind,
		slots:    make([]slot, capacity),
		freeList: make([]uint32, capacity),
	}
	for i := range p.freeList {
		p.freeList[i] = uint32(len(p.freeList)) - 1 - uint32(i)
	}
	return p
}

func (p *pool) allocate() NetId {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.freeList) == 0 {
		return Invalid
	}
	idx := p.freeList[len(p.freeList)-1]
	p.freeList = p.freeList[:len(p.freeList)-1]

	s := &p.slots[idx]
	if s.generation == 0 {
		s.generation = 1
	}
	s.alive = true
	return Pack(p.kind, idx, s.generation)
}

func (p *pool) free(id NetId) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx := id.Index()
	if int(idx) >= len(p.slots) {
		return false
	}
	s := &p.slots[idx]
	if !s.alive || s.generation != id.Generation() {
		return false
	}
	s.alive = false
	s.generation++
	if s.generation == 0 {
		// Wrap past the reserved zero value.
		s.generation = 1
	}
	p.freeList = append(p.freeList, idx)
	return true
}

func (p *pool) isAlive(id NetId) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx := id.Index()
	if int(idx) >= len(p.slots) {
		return false
	}
	s := &p.slots[idx]
	return s.alive && s.generation == id.Generation()
}

func (p *pool) capacity() int { return len(p.slots) }

func (p *pool) liveCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.slots) - len(p.freeList)
}

// Metrics holds the per-registry prometheus collectors, registered once
// at construction the way the teacher's metrics.NewMetrics(reg) does.
type Metrics struct {
	allocations prometheus.Counter
	exhausted   prometheus.Counter
	live        *prometheus.GaugeVec
}

// NewMetrics registers the registry's collectors against reg. Passing a
// nil registerer disables metrics (useful in tests).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		allocations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "identity_allocations_total",
			Help: "Total number of NetId allocations across all kinds.",
		}),
		exhausted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "identity_pool_exhausted_total",
			Help: "Total number of allocation attempts that found an empty pool.",
		}),
		live: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "identity_live_entities",
			Help: "Currently live entities per kind.",
		}, []string{"kind"}),
	}
	if reg != nil {
		reg.MustRegister(m.allocations, m.exhausted, m.live)
	}
	return m
}

// Registry owns one pool per Kind and is the sole authority on NetId
// liveness. It never shares its pools; all cross-component access goes
// through its exported methods.
type Registry struct {
	pools   map[Kind]*pool
	metrics *Metrics
}

// Capacities maps a Kind to its fixed pool size.
type Capacities map[Kind]uint32

// NewRegistry builds a registry with one allocator per kind in caps.
// Kinds absent from caps cannot be allocated (Allocate returns Invalid
// and an ErrUnknownKind-shaped condition surfaced by the caller).
func NewRegistry(caps Capacities, metrics *Metrics) *Registry {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	r := &Registry{
		pools:   make(map[Kind]*pool, len(caps)),
		metrics: metrics,
	}
	for kind, capacity := range caps {
		r.pools[kind] = newPool(kind, capacity)
	}
	return r
}

// Allocate pops a free slot from kind's pool and returns a NetId for
// it. It returns Invalid when the pool is exhausted or the kind has no
// configured allocator; the caller must surface this as capacity
// exhaustion (spec §7.1).
func (r *Registry) Allocate(kind Kind) NetId {
	p, ok := r.pools[kind]
	if !ok {
		r.metrics.exhausted.Inc()
		return Invalid
	}
	id := p.allocate()
	if id == Invalid {
		r.metrics.exhausted.Inc()
		return Invalid
	}
	r.metrics.allocations.Inc()
	r.metrics.live.WithLabelValues(kind.String()).Set(float64(p.liveCount()))
	return id
}

// Free returns id's slot to its pool and bumps the generation. A
// stale/unknown id is a no-op returning false.
func (r *Registry) Free(id NetId) bool {
	p, ok := r.pools[id.Kind()]
	if !ok {
		return false
	}
	ok = p.free(id)
	if ok {
		r.metrics.live.WithLabelValues(id.Kind().String()).Set(float64(p.liveCount()))
	}
	return ok
}

// IsAlive reports whether id's (kind, index) slot is currently
// allocated under exactly id's generation.
func (r *Registry) IsAlive(id NetId) bool {
	p, ok := r.pools[id.Kind()]
	if !ok {
		return false
	}
	return p.isAlive(id)
}

// Capacity returns the configured pool size for kind, or 0 if unknown.
func (r *Registry) Capacity(kind Kind) int {
	p, ok := r.pools[kind]
	if !ok {
		return 0
	}
	return p.capacity()
}

// LiveCount returns the number of currently allocated slots for kind.
func (r *Registry) LiveCount(kind Kind) int {
	p, ok := r.pools[kind]
	if !ok {
		return 0
	}
	return p.liveCount()
}
