// Copyright (C) 2025, Kenshi Online Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package config

// Config wraps a Parameters value that passed validation in
// Builder.Build. The coordinator and rings take a plain Parameters
// value, so they do not require a Config and do not validate on their
// own.
type Config struct {
	Parameters Parameters
}

// Builder incrementally assembles a Config, validating once at Build
// time rather than on every field mutation.
type Builder struct {
	params Parameters
}

// NewBuilder starts from the given base parameters (e.g. Default()).
func NewBuilder(base Parameters) *Builder {
	return &Builder{params: base}
}

// WithTickRate overrides the tick rate.
func (b *Builder) WithTickRate(hz int) *Builder {
	b.params.TickRateHz = hz
	return b
}

// WithRingCapacities overrides all three ring capacities at once.
func (b *Builder) WithRingCapacities(info, authority, containerEvents int) *Builder {
	b.params.InfoRingCapacity = info
	b.params.AuthorityRingCapacity = authority
	b.params.ContainerEventCapacity = containerEvents
	return b
}

// WithThresholds overrides the confidence accept/reject cuts.
func (b *Builder) WithThresholds(accept, reject float64) *Builder {
	b.params.AcceptThreshold = accept
	b.params.RejectThreshold = reject
	return b
}

// WithKindCapacity sets the NetId pool size for a single entity kind.
func (b *Builder) WithKindCapacity(kind string, capacity int) *Builder {
	if b.params.KindCapacities == nil {
		b.params.KindCapacities = make(map[string]int)
	}
	b.params.KindCapacities[kind] = capacity
	return b
}

// Build validates the accumulated parameters and returns a Config, or
// the validation error if any hard constraint failed.
func (b *Builder) Build() (Config, error) {
	if err := NewValidator().Validate(b.params); err != nil {
		return Config{}, err
	}
	return Config{Parameters: b.params}, nil
}
