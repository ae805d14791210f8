// Copyright (C) 2025, Kenshi Online Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package metrics wraps prometheus registration behind a nil-tolerant
// Metrics value and provides an Averager. The rings do not use it:
// identity and truth register their own collectors with prometheus
// directly.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the shared registerer every package's own Metrics
// struct registers against.
type Metrics struct {
	Registry prometheus.Registerer
}

// NewMetrics wraps reg. A nil reg is valid and disables registration;
// NewAverager below then returns a local-only instrument.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{Registry: reg}
}

// Register registers collector against the wrapped registry, doing
// nothing if the registry is nil.
func (m *Metrics) Register(collector prometheus.Collector) error {
	if m.Registry == nil {
		return nil
	}
	return m.Registry.Register(collector)
}

// Averager tracks a running average, mirroring the stated wire protocol
// for ring processing-time and confidence-score distributions.
type Averager interface {
	Observe(value float64)
	Read() float64
}

type averager struct {
	mu    sync.RWMutex
	sum   float64
	count float64

	promCount prometheus.Counter
	promSum   prometheus.Gauge
}

// NewAverager registers name_count and name_sum collectors against m
// and returns an Averager backed by them.
func (m *Metrics) NewAverager(name, help string) Averager {
	count := prometheus.NewCounter(prometheus.CounterOpts{Name: name + "_count", Help: "Total observations of " + help})
	sum := prometheus.NewGauge(prometheus.GaugeOpts{Name: name + "_sum", Help: "Sum of " + help})
	_ = m.Register(count)
	_ = m.Register(sum)
	return &averager{promCount: count, promSum: sum}
}

func (a *averager) Observe(value float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sum += value
	a.count++
	a.promCount.Inc()
	a.promSum.Add(value)
}

func (a *averager) Read() float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.count == 0 {
		return 0
	}
	return a.sum / a.count
}
