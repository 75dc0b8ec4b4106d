// Package place selects open grid coordinates for entities. Authored
// positions take priority; otherwise cells are sampled from the
// session's seeded generator under exclusion, region, and distance
// constraints, with a bounded number of attempts.
package place

import (
	"github.com/nathoo/neuraldive/engine/mapgen"
	"github.com/nathoo/neuraldive/engine/rng"
	"github.com/nathoo/neuraldive/types"
)

// Region constrains random placement to part of the map.
type Region int

const (
	Anywhere Region = iota
	LeftHalf
	RightHalf
)

// DefaultAttempts bounds random sampling per placement.
const DefaultAttempts = 100

// Options parameterize one placement.
type Options struct {
	// Authored candidate positions, tried in order before random
	// sampling. The first walkable, unoccupied entry wins.
	Authored []types.Point

	// Excluded positions count as occupied.
	Excluded map[types.Point]bool

	Region Region

	// Keep at least AvoidRadius (Chebyshev) away from Avoid when set.
	Avoid       *types.Point
	AvoidRadius int

	// Attempts bounds random sampling; 0 means DefaultAttempts.
	Attempts int
}

// Pick returns a position for one entity, or ok=false when no valid
// cell was found. Callers must handle failure by skipping the entity.
// For a fixed seed, map, and call order the result is deterministic.
func Pick(g *mapgen.Grid, r *rng.RNG, opts Options) (types.Point, bool) {
	for _, p := range opts.Authored {
		if valid(g, p, opts) {
			return p, true
		}
	}
	// A fully blocked authored list falls through to sampling: a stale
	// hint must not cost the floor its entity.

	attempts := opts.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}

	loX, hiX := 1, g.Width()-2
	switch opts.Region {
	case LeftHalf:
		hiX = g.Width()/2 - 1
	case RightHalf:
		loX = g.Width() / 2
	}
	if hiX < loX {
		return types.Point{}, false
	}

	for i := 0; i < attempts; i++ {
		p := types.Point{
			X: r.Between(loX, hiX),
			Y: r.Between(1, g.Height()-2),
		}
		if valid(g, p, opts) {
			return p, true
		}
	}
	return types.Point{}, false
}

func valid(g *mapgen.Grid, p types.Point, opts Options) bool {
	if !g.Walkable(p) {
		return false
	}
	if opts.Excluded[p] {
		return false
	}
	if opts.Avoid != nil && opts.AvoidRadius > 0 {
		if chebyshev(p, *opts.Avoid) <= opts.AvoidRadius {
			return false
		}
	}
	switch opts.Region {
	case LeftHalf:
		if p.X >= g.Width()/2 {
			return false
		}
	case RightHalf:
		if p.X < g.Width()/2 {
			return false
		}
	}
	return true
}

func chebyshev(a, b types.Point) int {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dy := a.Y - b.Y
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx
	}
	return dy
}

// Chebyshev exposes the board distance used for interaction range and
// placement constraints.
func Chebyshev(a, b types.Point) int {
	return chebyshev(a, b)
}
