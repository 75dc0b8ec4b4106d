package mapgen

import (
	"testing"

	"github.com/nathoo/neuraldive/engine/rng"
	"github.com/nathoo/neuraldive/types"
)

func TestParse_WallsAndFloors(t *testing.T) {
	g, err := Parse([]string{
		"#####",
		"#..##",
		"#...#",
		"#####",
	})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if g.Width() != 5 || g.Height() != 4 {
		t.Fatalf("got %dx%d, want 5x4", g.Width(), g.Height())
	}
	if !g.Walkable(types.Point{X: 1, Y: 1}) {
		t.Error("(1,1) should be walkable")
	}
	if g.Walkable(types.Point{X: 3, Y: 1}) {
		t.Error("(3,1) should be a wall")
	}
}

func TestParse_ForcesBorderWalls(t *testing.T) {
	g, err := Parse([]string{
		".....",
		".....",
		".....",
	})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	for x := 0; x < g.Width(); x++ {
		if g.Walkable(types.Point{X: x, Y: 0}) || g.Walkable(types.Point{X: x, Y: g.Height() - 1}) {
			t.Fatalf("border cell at x=%d is walkable", x)
		}
	}
	for y := 0; y < g.Height(); y++ {
		if g.Walkable(types.Point{X: 0, Y: y}) || g.Walkable(types.Point{X: g.Width() - 1, Y: y}) {
			t.Fatalf("border cell at y=%d is walkable", y)
		}
	}
}

func TestParse_RaggedRowsRejected(t *testing.T) {
	if _, err := Parse([]string{"####", "#..#", "###"}); err == nil {
		t.Error("expected error for ragged rows")
	}
	if _, err := Parse([]string{"##"}); err == nil {
		t.Error("expected error for too-small layout")
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	for floor := 1; floor <= 3; floor++ {
		a, err := Generate(50, 25, floor, rng.New(rng.FloorSeed(42, floor)), nil)
		if err != nil {
			t.Fatalf("floor %d: %v", floor, err)
		}
		b, err := Generate(50, 25, floor, rng.New(rng.FloorSeed(42, floor)), nil)
		if err != nil {
			t.Fatalf("floor %d: %v", floor, err)
		}
		ra, rb := a.Rows(), b.Rows()
		for i := range ra {
			if ra[i] != rb[i] {
				t.Fatalf("floor %d row %d differs:\n%s\n%s", floor, i, ra[i], rb[i])
			}
		}
	}
}

func TestGenerate_DifferentSeedsDiffer(t *testing.T) {
	a, _ := Generate(50, 25, 2, rng.New(1), nil)
	b, _ := Generate(50, 25, 2, rng.New(2), nil)
	same := true
	ra, rb := a.Rows(), b.Rows()
	for i := range ra {
		if ra[i] != rb[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical maps")
	}
}

func TestGenerate_SingleConnectedComponent(t *testing.T) {
	for floor := 1; floor <= 3; floor++ {
		for seed := int64(0); seed < 20; seed++ {
			g, err := Generate(50, 25, floor, rng.New(seed), nil)
			if err != nil {
				t.Fatalf("floor %d seed %d: %v", floor, seed, err)
			}
			cells := g.WalkableCells()
			if len(cells) == 0 {
				t.Fatalf("floor %d seed %d: no walkable cells", floor, seed)
			}
			reach := g.FloodFrom(cells[0])
			if len(reach) != len(cells) {
				t.Fatalf("floor %d seed %d: %d of %d walkable cells reachable",
					floor, seed, len(reach), len(cells))
			}
		}
	}
}

func TestGenerate_BorderAlwaysWalls(t *testing.T) {
	g, _ := Generate(40, 20, 3, rng.New(7), nil)
	for x := 0; x < g.Width(); x++ {
		if g.Walkable(types.Point{X: x, Y: 0}) || g.Walkable(types.Point{X: x, Y: g.Height() - 1}) {
			t.Fatal("border breached on horizontal edge")
		}
	}
	for y := 0; y < g.Height(); y++ {
		if g.Walkable(types.Point{X: 0, Y: y}) || g.Walkable(types.Point{X: g.Width() - 1, Y: y}) {
			t.Fatal("border breached on vertical edge")
		}
	}
}

func TestGenerate_AuthoredLayoutWins(t *testing.T) {
	layout := []string{
		"######",
		"#....#",
		"#....#",
		"######",
	}
	g, err := Generate(50, 25, 1, rng.New(42), layout)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if g.Width() != 6 || g.Height() != 4 {
		t.Errorf("authored layout ignored: got %dx%d", g.Width(), g.Height())
	}
}

func TestFloodFrom_UnwalkableStart(t *testing.T) {
	g, _ := Parse([]string{"###", "#.#", "###"})
	if n := len(g.FloodFrom(types.Point{X: 0, Y: 0})); n != 0 {
		t.Errorf("flood from wall returned %d cells", n)
	}
	if n := len(g.FloodFrom(types.Point{X: 9, Y: 9})); n != 0 {
		t.Errorf("flood from out of bounds returned %d cells", n)
	}
}
