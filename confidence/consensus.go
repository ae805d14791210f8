// Copyright (C) 2025, Kenshi Online Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package confidence

// Observation is one scored sample contributing to a consensus round,
// grouped by PayloadHash (the schema package's content hash).
type Observation[T any] struct {
	PayloadHash uint64
	Payload     T
	Confidence  Confidence
}

// Group is a bucket of observations sharing a payload hash, along with
// the combined confidence across the bucket (via repeated Combine).
type Group[T any] struct {
	PayloadHash uint64
	Payload     T
	Combined    Confidence
	Count       int
}

// Result is the outcome of building consensus over a set of
// observations for one subject.
type Result[T any] struct {
	Winner        Group[T]
	HasWinner     bool
	Contradicted  bool // true iff >=2 distinct payload-hash buckets exist
	Groups        []Group[T]
}

// BuildConsensus groups observations by PayloadHash, combines
// confidence within each group, and returns the group with the
// highest combined effective score as Winner. Contradicted is set
// whenever more than one hash bucket exists, so callers may choose to
// request more samples instead of trusting Winner outright (spec
// §4.5).
func BuildConsensus[T any](observations []Observation[T]) Result[T] {
	order := make([]uint64, 0, len(observations))
	groups := make(map[uint64]*Group[T])

	for _, obs := range observations {
		g, ok := groups[obs.PayloadHash]
		if !ok {
			g = &Group[T]{PayloadHash: obs.PayloadHash, Payload: obs.Payload, Combined: obs.Confidence, Count: 1}
			groups[obs.PayloadHash] = g
			order = append(order, obs.PayloadHash)
			continue
		}
		g.Combined = Combine(g.Combined, obs.Confidence)
		g.Count++
	}

	result := Result[T]{Contradicted: len(groups) >= 2}
	result.Groups = make([]Group[T], 0, len(groups))
	var best *Group[T]
	for _, hash := range order {
		g := groups[hash]
		result.Groups = append(result.Groups, *g)
		if best == nil || g.Combined.Effective() > best.Combined.Effective() {
			best = g
		}
	}
	if best != nil {
		result.Winner = *best
		result.HasWinner = true
	}
	return result
}
