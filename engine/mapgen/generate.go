package mapgen

import (
	"github.com/nathoo/neuraldive/engine/rng"
)

// Generate produces the walkability grid for a floor. An authored
// layout, when present, takes precedence and is returned unchanged
// (border walls aside). Procedural floors carve a wall motif chosen by
// floor number, then keep only the largest connected open region so the
// whole floor is one component.
func Generate(width, height, floor int, r *rng.RNG, layout []string) (*Grid, error) {
	if layout != nil {
		return Parse(layout)
	}

	g := NewGrid(width, height)
	switch ((floor - 1) % 3) + 1 {
	case 1:
		carveOpenHall(g, r)
	case 2:
		carveCorridors(g, r)
	default:
		carveMaze(g, r)
	}
	g.connect()
	return g, nil
}

// carveOpenHall: open space with short edge-attached walls and a few
// scattered pillars. First-floor feel.
func carveOpenHall(g *Grid, r *rng.RNG) {
	w, h := g.width, g.height

	// Vertical wall hanging off the top edge.
	x := r.Between(w/4, w/3)
	for y, n := 1, r.Between(h/4, h/2); y <= n; y++ {
		g.setWall(x, y)
	}

	// Horizontal wall off the left edge.
	y := r.Between(h/3, 2*h/3)
	for x, n := 1, r.Between(w/4, w/3); x <= n; x++ {
		g.setWall(x, y)
	}

	// Short wall off the right edge.
	y = r.Between(h/4, 3*h/4)
	for x := w - 2; x > w-2-r.Between(3, w/4); x-- {
		g.setWall(x, y)
	}

	scatterPillars(g, r, r.Between(2, 4), false)
}

// carveCorridors: segmented space with edge-connected corridors and an
// L-shaped corner room.
func carveCorridors(g *Grid, r *rng.RNG) {
	w, h := g.width, g.height

	// Corridor wall from the top.
	x := r.Between(w/3, w/2)
	for y, n := 1, r.Between(h/3, 2*h/3); y <= n; y++ {
		g.setWall(x, y)
	}

	// Corridor wall from the left.
	y := r.Between(h/3, 2*h/3)
	for x, n := 1, r.Between(w/3, w/2); x <= n; x++ {
		g.setWall(x, y)
	}

	// Wall from the bottom.
	x = r.Between(w/2, w-4)
	for y := h - 2; y > h-2-r.Between(h/4, h/3); y-- {
		g.setWall(x, y)
	}

	// L-shaped corner piece attached to the right edge.
	size := r.Between(3, 6)
	cx, cy := w-size-2, r.Between(2, h/3)
	for y := cy; y < cy+size; y++ {
		g.setWall(cx, y)
	}
	for x := cx; x < w-1; x++ {
		g.setWall(x, cy)
	}

	scatterPillars(g, r, r.Between(3, 5), false)
}

// carveMaze: edge-attached walls from all four sides plus corner hooks
// and pillar clusters. Deepest-floor feel.
func carveMaze(g *Grid, r *rng.RNG) {
	w, h := g.width, g.height

	y := r.Between(h/4, h/2)
	for x, n := 1, r.Between(w/3, w/2); x <= n; x++ {
		g.setWall(x, y)
	}

	y = r.Between(h/2, 3*h/4)
	for x := w - 2; x > w-2-r.Between(w/3, w/2); x-- {
		g.setWall(x, y)
	}

	x := r.Between(w/4, w/3)
	for yy, n := 1, r.Between(h/3, h/2); yy <= n; yy++ {
		g.setWall(x, yy)
		if yy%3 == 0 {
			g.setWall(x+1, yy)
			g.setWall(x+2, yy)
		}
	}

	x = r.Between(w/2, w-4)
	for yy := h - 2; yy > h-2-r.Between(h/4, h/3); yy-- {
		g.setWall(x, yy)
	}

	// Corner hooks.
	for i, n := 0, r.Between(2, 4); i < n; i++ {
		g.setWall(w-2, 1+i)
		g.setWall(w-2-i, 1)
		g.setWall(1, h-2-i)
		g.setWall(1+i, h-2)
	}

	scatterPillars(g, r, r.Between(4, 7), true)
}

func scatterPillars(g *Grid, r *rng.RNG, count int, clusters bool) {
	w, h := g.width, g.height
	for i := 0; i < count; i++ {
		px := r.Between(w/4, 3*w/4)
		py := r.Between(h/4, 3*h/4)
		g.setWall(px, py)
		if clusters && r.Chance(0.3) {
			g.setWall(px+1, py)
			g.setWall(px, py+1)
		} else if r.Chance(0.5) {
			g.setWall(px+1, py)
		}
	}
}
