// Package assign computes Secret Santa assignments: a total mapping from
// every participant id to a recipient id with no self-mapping.
package assign

import (
	"github.com/vmtlabs/tinsel/pkg/metrics"
)

// maxShuffleAttempts bounds the rejection loop before falling back to a
// rotation. Exhausting it is astronomically unlikely for any real roster.
const maxShuffleAttempts = 50

// Source provides a total participant -> recipient mapping. Implementations
// must guarantee no self-mapping for rosters of two or more.
type Source interface {
	Assignments() map[string]string
}

// Seeded derives assignments deterministically from roster order and a seed
// string. The same (roster, seed) pair always yields the same mapping.
type Seeded struct {
	ids  []string
	seed string
}

// NewSeeded creates a seeded assignment source. The id slice is copied.
func NewSeeded(ids []string, seed string) *Seeded {
	cp := make([]string, len(ids))
	copy(cp, ids)
	return &Seeded{ids: cp, seed: seed}
}

// Assignments implements Source.
func (s *Seeded) Assignments() map[string]string {
	return Build(s.ids, s.seed)
}

// Build produces a derangement of ids, deterministic for a given (ids order,
// seed) pair. Recipients are shuffled until no participant draws themselves;
// after maxShuffleAttempts the id sequence is rotated by one instead, which
// is a valid derangement whenever there are at least two ids. A roster of
// fewer than two maps each id to itself: a derangement is impossible and the
// degenerate mapping is the defined output, not an error.
func Build(ids []string, seed string) map[string]string {
	metrics.RecordAssignmentBuild()

	out := make(map[string]string, len(ids))
	if len(ids) < 2 {
		for _, id := range ids {
			out[id] = id
		}
		return out
	}

	rand := mulberry32(hashSeed(seed))
	recipients := make([]string, len(ids))
	copy(recipients, ids)

	for attempt := 0; attempt < maxShuffleAttempts; attempt++ {
		shuffle(recipients, rand)
		if fixedPointFree(ids, recipients) {
			for i, id := range ids {
				out[id] = recipients[i]
			}
			return out
		}
	}

	// Fallback: rotate by one (guaranteed derangement when n > 1).
	metrics.RecordAssignmentFallback()
	for i, id := range ids {
		out[id] = ids[(i+1)%len(ids)]
	}
	return out
}

func fixedPointFree(ids, recipients []string) bool {
	for i := range ids {
		if recipients[i] == ids[i] {
			return false
		}
	}
	return true
}

// shuffle performs an unbiased in-place Fisher-Yates shuffle driven by rand.
func shuffle(arr []string, rand func() float64) {
	for i := len(arr) - 1; i > 0; i-- {
		j := int(rand() * float64(i+1))
		arr[i], arr[j] = arr[j], arr[i]
	}
}

// hashSeed maps the seed string to a 32-bit integer with FNV-1a: order
// sensitive and well avalanched, so nearby seeds diverge.
func hashSeed(input string) uint32 {
	h := uint32(2166136261)
	for _, c := range input {
		h ^= uint32(c)
		h *= 16777619
	}
	return h
}

// mulberry32 returns a deterministic PRNG with uniform output over [0, 1).
func mulberry32(seed uint32) func() float64 {
	state := seed
	return func() float64 {
		state += 0x6d2b79f5
		t := state
		t = (t ^ (t >> 15)) * (t | 1)
		t ^= t + (t^(t>>7))*(t|61)
		return float64(t^(t>>14)) / 4294967296.0
	}
}
