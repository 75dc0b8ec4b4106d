// Package mapgen builds the bounded 2D walkability grid for a floor:
// authored layouts are parsed verbatim, procedural floors carve
// per-floor wall motifs and then repair connectivity so every walkable
// cell is reachable from every other.
package mapgen

import (
	"errors"
	"fmt"

	"github.com/nathoo/neuraldive/types"
)

// Grid is a fixed-size walkability grid. Border cells are always walls.
type Grid struct {
	width  int
	height int
	wall   [][]bool // wall[y][x]
}

// ErrBadLayout reports an authored layout the parser cannot accept.
var ErrBadLayout = errors.New("bad floor layout")

// NewGrid returns a grid with walls on the border and an open interior.
func NewGrid(width, height int) *Grid {
	g := &Grid{width: width, height: height}
	g.wall = make([][]bool, height)
	for y := range g.wall {
		g.wall[y] = make([]bool, width)
		for x := range g.wall[y] {
			g.wall[y][x] = y == 0 || y == height-1 || x == 0 || x == width-1
		}
	}
	return g
}

// Width returns the grid width.
func (g *Grid) Width() int { return g.width }

// Height returns the grid height.
func (g *Grid) Height() int { return g.height }

// InBounds reports whether p lies inside the grid.
func (g *Grid) InBounds(p types.Point) bool {
	return p.X >= 0 && p.X < g.width && p.Y >= 0 && p.Y < g.height
}

// Walkable reports whether p is inside the grid and not a wall.
func (g *Grid) Walkable(p types.Point) bool {
	return g.InBounds(p) && !g.wall[p.Y][p.X]
}

func (g *Grid) setWall(x, y int) {
	if x > 0 && x < g.width-1 && y > 0 && y < g.height-1 {
		g.wall[y][x] = true
	}
}

// Rows renders the grid as strings of '#' and '.', one per row.
func (g *Grid) Rows() []string {
	rows := make([]string, g.height)
	for y := 0; y < g.height; y++ {
		b := make([]byte, g.width)
		for x := 0; x < g.width; x++ {
			if g.wall[y][x] {
				b[x] = '#'
			} else {
				b[x] = '.'
			}
		}
		rows[y] = string(b)
	}
	return rows
}

// Parse builds a grid from authored layout rows. '#' is a wall, every
// other rune is walkable. All rows must share one width; border cells
// are forced to walls.
func Parse(rows []string) (*Grid, error) {
	if len(rows) < 3 {
		return nil, fmt.Errorf("%w: need at least 3 rows, got %d", ErrBadLayout, len(rows))
	}
	width := len(rows[0])
	if width < 3 {
		return nil, fmt.Errorf("%w: need at least 3 columns, got %d", ErrBadLayout, width)
	}
	for i, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d is %d wide, want %d", ErrBadLayout, i, len(row), width)
		}
	}

	g := NewGrid(width, len(rows))
	for y, row := range rows {
		for x := 0; x < width; x++ {
			if row[x] == '#' {
				g.wall[y][x] = true
			}
		}
	}
	return g, nil
}

// FloodFrom returns the set of walkable cells reachable from start via
// 4-directional walkable steps. An unwalkable start yields an empty set.
func (g *Grid) FloodFrom(start types.Point) map[types.Point]bool {
	seen := map[types.Point]bool{}
	if !g.Walkable(start) {
		return seen
	}
	queue := []types.Point{start}
	seen[start] = true
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		for _, d := range [4]types.Point{{X: 0, Y: -1}, {X: 0, Y: 1}, {X: -1, Y: 0}, {X: 1, Y: 0}} {
			n := types.Point{X: p.X + d.X, Y: p.Y + d.Y}
			if g.Walkable(n) && !seen[n] {
				seen[n] = true
				queue = append(queue, n)
			}
		}
	}
	return seen
}

// WalkableCells returns all walkable cells in row-major order.
func (g *Grid) WalkableCells() []types.Point {
	var cells []types.Point
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			if !g.wall[y][x] {
				cells = append(cells, types.Point{X: x, Y: y})
			}
		}
	}
	return cells
}

// connect fills every walkable cell outside the largest connected
// component, leaving a single component. Ties go to the component found
// first in row-major order.
func (g *Grid) connect() {
	assigned := map[types.Point]bool{}
	var best map[types.Point]bool

	for _, c := range g.WalkableCells() {
		if assigned[c] {
			continue
		}
		comp := g.FloodFrom(c)
		for p := range comp {
			assigned[p] = true
		}
		if len(comp) > len(best) {
			best = comp
		}
	}

	for _, c := range g.WalkableCells() {
		if !best[c] {
			g.wall[c.Y][c.X] = true
		}
	}
}
