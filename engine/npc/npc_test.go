package npc

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/nathoo/neuraldive/engine/mapgen"
	"github.com/nathoo/neuraldive/engine/rng"
	"github.com/nathoo/neuraldive/types"
)

func testGrid(t *testing.T) *mapgen.Grid {
	t.Helper()
	g, err := mapgen.Generate(30, 15, 1, rng.New(7), nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return g
}

func testDefs() []*types.NPCDef {
	return []*types.NPCDef{
		{ID: "ALGO", Name: "Algo Spirit", Floor: 1, Type: types.NPCSpecialist, Required: true},
		{ID: "CACHE", Name: "Cache Daemon", Floor: 1, Type: types.NPCEnemy, Required: true},
		{ID: "MEDIC", Name: "Checksum Medic", Floor: 1, Type: types.NPCHelper},
	}
}

func newTestManager() *Manager {
	return NewManager(zerolog.Nop())
}

func TestFloorDefs_SortedAndFiltered(t *testing.T) {
	content := &types.Content{NPCs: map[string]*types.NPCDef{
		"Z1": {ID: "Z1", Floor: 1},
		"A1": {ID: "A1", Floor: 1},
		"B2": {ID: "B2", Floor: 2},
	}}
	defs := FloorDefs(content, 1)
	if len(defs) != 2 {
		t.Fatalf("got %d defs, want 2", len(defs))
	}
	if defs[0].ID != "A1" || defs[1].ID != "Z1" {
		t.Errorf("defs not sorted by ID: %s, %s", defs[0].ID, defs[1].ID)
	}
}

func TestGenerateForFloor_PlacesAll(t *testing.T) {
	m := newTestManager()
	g := testGrid(t)
	start := types.Point{X: 1, Y: 1}
	m.GenerateForFloor(testDefs(), g, rng.New(1), nil, start, nil)

	if len(m.Roster()) != 3 {
		t.Fatalf("placed %d NPCs, want 3", len(m.Roster()))
	}
	seen := map[types.Point]bool{start: true}
	for _, n := range m.Roster() {
		if !g.Walkable(n.Entity.Pos) {
			t.Errorf("%s placed on a wall at %v", n.Def.ID, n.Entity.Pos)
		}
		if seen[n.Entity.Pos] {
			t.Errorf("%s shares a cell", n.Def.ID)
		}
		seen[n.Entity.Pos] = true
		if n.Home != n.Entity.Pos {
			t.Errorf("%s home %v != pos %v", n.Def.ID, n.Home, n.Entity.Pos)
		}
	}
}

func TestGenerateForFloor_Deterministic(t *testing.T) {
	g := testGrid(t)
	start := types.Point{X: 1, Y: 1}

	m1, m2 := newTestManager(), newTestManager()
	m1.GenerateForFloor(testDefs(), g, rng.New(99), nil, start, nil)
	m2.GenerateForFloor(testDefs(), g, rng.New(99), nil, start, nil)

	for i, n := range m1.Roster() {
		if n.Entity.Pos != m2.Roster()[i].Entity.Pos {
			t.Errorf("%s placed at %v vs %v", n.Def.ID, n.Entity.Pos, m2.Roster()[i].Entity.Pos)
		}
	}
}

func TestGenerateForFloor_AuthoredPosition(t *testing.T) {
	m := newTestManager()
	g := testGrid(t)
	var want types.Point
	for _, p := range g.WalkableCells() {
		want = p
	}
	layout := &types.FloorLayout{NPCPositions: map[string][]types.Point{"ALGO": {want}}}

	m.GenerateForFloor(testDefs()[:1], g, rng.New(1), layout, types.Point{X: 1, Y: 1}, nil)
	if got := m.Find("ALGO").Entity.Pos; got != want {
		t.Errorf("authored position ignored: got %v, want %v", got, want)
	}
}

// An authored position right next to the player start is still
// honored: content authors override the spawn-distance rule.
func TestGenerateForFloor_AuthoredNearPlayerHonored(t *testing.T) {
	m := newTestManager()
	g, err := mapgen.Parse([]string{
		"########",
		"#......#",
		"#......#",
		"########",
	})
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	want := types.Point{X: 2, Y: 1}
	layout := &types.FloorLayout{NPCPositions: map[string][]types.Point{"ALGO": {want}}}

	m.GenerateForFloor(testDefs()[:1], g, rng.New(1), layout, types.Point{X: 1, Y: 1}, nil)
	if got := m.Find("ALGO").Entity.Pos; got != want {
		t.Errorf("close authored position redirected: got %v, want %v", got, want)
	}
}

func TestDefeatAndOpinion(t *testing.T) {
	m := newTestManager()
	if m.Defeated("ALGO") {
		t.Error("unknown NPC reported defeated")
	}
	m.Defeat("ALGO")
	if !m.Defeated("ALGO") {
		t.Error("defeat not recorded")
	}
	if m.DefeatedCount() != 1 {
		t.Errorf("DefeatedCount = %d, want 1", m.DefeatedCount())
	}

	if got := m.AdjustOpinion("CACHE", -1); got != -1 {
		t.Errorf("opinion = %d, want -1", got)
	}
	if got := m.AdjustOpinion("CACHE", 2); got != 1 {
		t.Errorf("opinion = %d, want 1", got)
	}
	if m.Opinion("NOBODY") != 0 {
		t.Error("unknown NPC should have neutral opinion")
	}
}

func TestRequirementSatisfied(t *testing.T) {
	m := newTestManager()
	defs := testDefs()
	if m.RequirementSatisfied(defs) {
		t.Error("satisfied with nothing defeated")
	}
	m.Defeat("ALGO")
	if m.RequirementSatisfied(defs) {
		t.Error("satisfied with one required NPC remaining")
	}
	m.Defeat("CACHE")
	if !m.RequirementSatisfied(defs) {
		t.Error("not satisfied after both required NPCs defeated; MEDIC is optional")
	}
}

func TestEligible_AdjacencyAndTieBreak(t *testing.T) {
	m := newTestManager()
	m.roster = []*types.NPC{
		{Def: &types.NPCDef{ID: "B"}, Entity: types.Entity{Pos: types.Point{X: 5, Y: 5}}},
		{Def: &types.NPCDef{ID: "A"}, Entity: types.Entity{Pos: types.Point{X: 5, Y: 3}}},
		{Def: &types.NPCDef{ID: "C"}, Entity: types.Entity{Pos: types.Point{X: 9, Y: 9}}},
	}
	player := types.Point{X: 5, Y: 4}

	// Both A and B are at distance 1; A wins on ID.
	if got := m.Eligible(player); got == nil || got.Def.ID != "A" {
		t.Fatalf("Eligible = %v, want A", got)
	}
	m.Defeat("A")
	if got := m.Eligible(player); got == nil || got.Def.ID != "B" {
		t.Fatalf("Eligible = %v, want B after A defeated", got)
	}
	m.Defeat("B")
	if m.Eligible(player) != nil {
		t.Error("distant NPC C should not be eligible")
	}

	// Distance 0 beats distance 1.
	m.History = map[string]*Record{}
	if got := m.Eligible(types.Point{X: 5, Y: 5}); got == nil || got.Def.ID != "B" {
		t.Fatalf("Eligible = %v, want co-located B", got)
	}
}

func TestTick_StaysWalkableAndLeashed(t *testing.T) {
	m := newTestManager()
	g := testGrid(t)
	start := types.Point{X: 1, Y: 1}
	r := rng.New(3)
	m.GenerateForFloor(testDefs(), g, r, nil, start, nil)

	for i := 0; i < 200; i++ {
		m.Tick(g, r, start, nil)
		seen := map[types.Point]bool{start: true}
		for _, n := range m.Roster() {
			if !g.Walkable(n.Entity.Pos) {
				t.Fatalf("tick %d: %s on a wall at %v", i, n.Def.ID, n.Entity.Pos)
			}
			if seen[n.Entity.Pos] {
				t.Fatalf("tick %d: %s overlaps another entity", i, n.Def.ID)
			}
			seen[n.Entity.Pos] = true
			if d := chebyshevDist(n.Entity.Pos, n.Home); d > leashRadius {
				t.Fatalf("tick %d: %s wandered %d cells from home", i, n.Def.ID, d)
			}
		}
	}
}

func TestTick_DefeatedNPCsFrozen(t *testing.T) {
	m := newTestManager()
	g := testGrid(t)
	r := rng.New(3)
	m.GenerateForFloor(testDefs(), g, r, nil, types.Point{X: 1, Y: 1}, nil)

	for _, n := range m.Roster() {
		m.Defeat(n.Def.ID)
	}
	before := m.Snapshot()
	for i := 0; i < 50; i++ {
		m.Tick(g, r, types.Point{X: 1, Y: 1}, nil)
	}
	after := m.Snapshot()
	for id, st := range before {
		if after[id] != st {
			t.Errorf("%s moved after defeat", id)
		}
	}
}

func TestSnapshotApplyRoundTrip(t *testing.T) {
	g := testGrid(t)
	r := rng.New(11)
	m := newTestManager()
	m.GenerateForFloor(testDefs(), g, r, nil, types.Point{X: 1, Y: 1}, nil)
	for i := 0; i < 30; i++ {
		m.Tick(g, r, types.Point{X: 1, Y: 1}, nil)
	}
	snap := m.Snapshot()

	m2 := newTestManager()
	m2.GenerateForFloor(testDefs(), g, rng.New(11), nil, types.Point{X: 1, Y: 1}, nil)
	m2.ApplyState(snap)
	for id, st := range snap {
		n := m2.Find(id)
		if n.Entity.Pos != st.Pos || n.Wandering != st.Wandering || n.StateTicks != st.StateTicks {
			t.Errorf("%s not restored: %+v", id, n)
		}
	}
}

func chebyshevDist(a, b types.Point) int {
	dx, dy := a.X-b.X, a.Y-b.Y
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx
	}
	return dy
}
