// Package rng wraps math/rand with deterministic position tracking.
// Every draw consumes exactly one value from the underlying source and
// increments the position, so a saved (seed, position) pair reproduces
// the exact stream on restore.
package rng

import "math/rand"

// RNG is a seeded random source whose consumption can be replayed.
type RNG struct {
	seed int64
	src  *rand.Rand
	pos  int64
}

// New creates a deterministic RNG from a seed.
func New(seed int64) *RNG {
	return &RNG{
		seed: seed,
		src:  rand.New(rand.NewSource(seed)),
	}
}

// Seed returns the seed this RNG was created from.
func (r *RNG) Seed() int64 {
	return r.seed
}

func (r *RNG) next() int64 {
	r.pos++
	return r.src.Int63()
}

// Intn returns a random integer in [0, n). n must be positive.
func (r *RNG) Intn(n int) int {
	return int(r.next() % int64(n))
}

// Between returns a random integer in [lo, hi] inclusive.
func (r *RNG) Between(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.Intn(hi-lo+1)
}

// Chance returns true with probability p in [0, 1].
func (r *RNG) Chance(p float64) bool {
	return float64(r.next())/float64(1<<63) < p
}

// Shuffle permutes n elements in place via Fisher-Yates, consuming
// n-1 draws.
func (r *RNG) Shuffle(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		swap(i, j)
	}
}

// Position returns the number of draws made since creation.
func (r *RNG) Position() int64 {
	return r.pos
}

// Restore creates an RNG and advances it to the given position,
// reproducing the exact stream state for save/load.
func Restore(seed int64, position int64) *RNG {
	r := New(seed)
	for i := int64(0); i < position; i++ {
		r.src.Int63()
	}
	r.pos = position
	return r
}

// FloorSeed derives a stable per-floor seed from the session seed, so
// floor generation reproduces identically no matter how much of the
// session stream was consumed before entering the floor.
func FloorSeed(seed int64, floor int) int64 {
	return seed*1000003 + int64(floor)
}
