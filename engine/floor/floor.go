// Package floor builds and tracks the current floor: grid, stairs,
// terminals, and the NPC roster. Floors are regenerated from a seed
// derived per floor, so re-entering a floor after load reproduces the
// exact same layout.
package floor

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/nathoo/neuraldive/engine/mapgen"
	"github.com/nathoo/neuraldive/engine/npc"
	"github.com/nathoo/neuraldive/engine/place"
	"github.com/nathoo/neuraldive/engine/rng"
	"github.com/nathoo/neuraldive/types"
)

// Terminal is a placed info terminal.
type Terminal struct {
	Def *types.TerminalDef
	Pos types.Point
}

// Hint pickup tuning. Deeper floors seed more tokens.
const (
	pickupPlayerDistance = 5
)

// hintTokensFor returns how many hint-token pickups floor n carries.
func hintTokensFor(n int) int {
	return 1 + n/2
}

// Manager owns floor construction and the artifacts of the current
// floor. The NPC roster lives in the npc.Manager passed to Enter so
// its history spans floors.
type Manager struct {
	Current     int
	Grid        *mapgen.Grid
	PlayerStart types.Point
	StairsUp    *types.Point // nil on floor 1
	StairsDown  types.Point
	ExitPortal  bool // the down slot is the exit portal on the last floor
	Terminals   []*Terminal
	Pickups     []types.Point // uncollected hint tokens

	content *types.Content
	width   int
	height  int
	seed    int64
	log     zerolog.Logger
}

func NewManager(content *types.Content, width, height int, seed int64, log zerolog.Logger) *Manager {
	return &Manager{
		content: content,
		width:   width,
		height:  height,
		seed:    seed,
		log:     log.With().Str("component", "floor").Logger(),
	}
}

func (m *Manager) MaxFloors() int {
	return m.content.MaxFloors
}

// OnLastFloor reports whether the current floor is the deepest one.
func (m *Manager) OnLastFloor() bool {
	return m.Current == m.content.MaxFloors
}

// Defs returns the content NPCs assigned to the current floor.
func (m *Manager) Defs() []*types.NPCDef {
	return npc.FloorDefs(m.content, m.Current)
}

// DownUnlocked reports whether the required NPCs of the current floor
// have all been defeated, unlocking the down stairs (or exit portal).
func (m *Manager) DownUnlocked(npcs *npc.Manager) bool {
	return npcs.RequirementSatisfied(m.Defs())
}

// TerminalAt returns the terminal occupying p, or nil.
func (m *Manager) TerminalAt(p types.Point) *Terminal {
	for _, t := range m.Terminals {
		if t.Pos == p {
			return t
		}
	}
	return nil
}

// Blocked returns the cells NPCs must not wander onto: stairs,
// terminals, and uncollected pickups.
func (m *Manager) Blocked() map[types.Point]bool {
	blocked := map[types.Point]bool{m.StairsDown: true}
	if m.StairsUp != nil {
		blocked[*m.StairsUp] = true
	}
	for _, t := range m.Terminals {
		blocked[t.Pos] = true
	}
	for _, p := range m.Pickups {
		blocked[p] = true
	}
	return blocked
}

// TakePickup removes the pickup at p and reports whether one was there.
func (m *Manager) TakePickup(p types.Point) bool {
	for i, pos := range m.Pickups {
		if pos == p {
			m.Pickups = append(m.Pickups[:i], m.Pickups[i+1:]...)
			return true
		}
	}
	return false
}

// Enter builds floor n from its derived seed: grid, player start,
// stairs, terminals, then the NPC roster. All placement draws come
// from the floor RNG, never the session stream, so entering a floor is
// reproducible no matter how the session got there.
func (m *Manager) Enter(n int, npcs *npc.Manager) error {
	if n < 1 || n > m.content.MaxFloors {
		return fmt.Errorf("floor %d out of range 1..%d", n, m.content.MaxFloors)
	}
	layout := m.content.Layouts[n]
	r := rng.New(rng.FloorSeed(m.seed, n))

	var rows []string
	if layout != nil {
		rows = layout.Rows
	}
	g, err := mapgen.Generate(m.width, m.height, n, r, rows)
	if err != nil {
		return fmt.Errorf("floor %d: %w", n, err)
	}

	occupied := make(map[types.Point]bool)

	var startHint, upHint, downHint []types.Point
	if layout != nil {
		startHint = hint(layout.PlayerStart)
		upHint = hint(layout.StairsUp)
		downHint = hint(layout.StairsDown)
	}

	start, err := m.pickRequired(g, r, startHint, occupied, place.LeftHalf, "player start")
	if err != nil {
		return fmt.Errorf("floor %d: %w", n, err)
	}
	occupied[start] = true

	var up *types.Point
	if n > 1 {
		pos, err := m.pickRequired(g, r, upHint, occupied, place.Anywhere, "up stairs")
		if err != nil {
			return fmt.Errorf("floor %d: %w", n, err)
		}
		occupied[pos] = true
		up = &pos
	}

	// Down stairs go in the half opposite the player start so
	// descending always means crossing the floor.
	farHalf := place.RightHalf
	if start.X >= g.Width()/2 {
		farHalf = place.LeftHalf
	}
	down, err := m.pickRequired(g, r, downHint, occupied, farHalf, "down stairs")
	if err != nil {
		return fmt.Errorf("floor %d: %w", n, err)
	}
	occupied[down] = true

	terminals := m.placeTerminals(n, g, r, layout, occupied)

	m.Current = n
	m.Grid = g
	m.PlayerStart = start
	m.StairsUp = up
	m.StairsDown = down
	m.ExitPortal = n == m.content.MaxFloors
	m.Terminals = terminals

	npcs.GenerateForFloor(m.Defs(), g, r, layout, start, occupied)
	for _, e := range npcs.Roster() {
		occupied[e.Entity.Pos] = true
	}
	m.Pickups = m.placePickups(n, g, r, start, occupied)

	m.log.Info().Int("floor", n).Int("npcs", len(npcs.Roster())).
		Int("terminals", len(terminals)).Int("pickups", len(m.Pickups)).
		Msg("floor built")
	return nil
}

// placePickups scatters this floor's hint tokens away from the player
// start. A token that finds no cell is dropped.
func (m *Manager) placePickups(n int, g *mapgen.Grid, r *rng.RNG, start types.Point, occupied map[types.Point]bool) []types.Point {
	var out []types.Point
	for i := 0; i < hintTokensFor(n); i++ {
		pos, ok := place.Pick(g, r, place.Options{
			Excluded:    occupied,
			Avoid:       &start,
			AvoidRadius: pickupPlayerDistance,
		})
		if !ok {
			m.log.Warn().Int("floor", n).Msg("no free cell for hint token, dropping")
			continue
		}
		occupied[pos] = true
		out = append(out, pos)
	}
	return out
}

func hint(p *types.Point) []types.Point {
	if p == nil {
		return nil
	}
	return []types.Point{*p}
}

// pickRequired places a structural feature, trying the authored hint
// first, then the preferred region, then anywhere on the grid.
func (m *Manager) pickRequired(g *mapgen.Grid, r *rng.RNG, hint []types.Point, occupied map[types.Point]bool, region place.Region, what string) (types.Point, error) {
	pos, ok := place.Pick(g, r, place.Options{
		Authored: hint,
		Excluded: occupied,
		Region:   region,
	})
	if !ok && region != place.Anywhere {
		pos, ok = place.Pick(g, r, place.Options{Excluded: occupied})
	}
	if !ok {
		return types.Point{}, fmt.Errorf("no free cell for %s", what)
	}
	return pos, nil
}

// placeTerminals places this floor's terminals. Authored layout
// positions are consumed in terminal definition order; the rest fall
// back to sampling. A terminal that cannot be placed is dropped with a
// warning.
func (m *Manager) placeTerminals(n int, g *mapgen.Grid, r *rng.RNG, layout *types.FloorLayout, occupied map[types.Point]bool) []*Terminal {
	var hints []types.Point
	if layout != nil {
		hints = layout.Terminals
	}
	var out []*Terminal
	hintIdx := 0
	for _, def := range m.content.Terminals {
		if def.Floor != n {
			continue
		}
		var authored []types.Point
		if def.Position != nil {
			authored = []types.Point{*def.Position}
		} else if hintIdx < len(hints) {
			authored = []types.Point{hints[hintIdx]}
			hintIdx++
		}
		pos, ok := place.Pick(g, r, place.Options{
			Authored: authored,
			Excluded: occupied,
		})
		if !ok {
			m.log.Warn().Str("terminal", def.ID).Int("floor", n).
				Msg("no free cell for terminal, dropping")
			continue
		}
		occupied[pos] = true
		out = append(out, &Terminal{Def: def, Pos: pos})
	}
	return out
}
