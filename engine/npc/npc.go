// Package npc manages the runtime NPC roster: deterministic placement,
// defeat and opinion history, and idle/wander movement between commands.
package npc

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/nathoo/neuraldive/engine/mapgen"
	"github.com/nathoo/neuraldive/engine/place"
	"github.com/nathoo/neuraldive/engine/rng"
	"github.com/nathoo/neuraldive/types"
)

// Wander tuning. Ticks are accepted player commands.
const (
	idleTicksMin   = 3
	idleTicksMax   = 8
	wanderTicksMin = 4
	wanderTicksMax = 10
	moveCooldown   = 2
	leashRadius    = 4

	// MinPlayerDistance keeps freshly placed NPCs out of the player's
	// immediate surroundings.
	MinPlayerDistance = 5
)

// Record is the persistent per-NPC history. It survives floor changes
// and is included in saves.
type Record struct {
	Defeated bool `json:"defeated"`
	Opinion  int  `json:"opinion"`
}

// State is the transient per-NPC roster state captured in saves so a
// restored floor looks exactly as it was left.
type State struct {
	Pos          types.Point `json:"pos"`
	Wandering    bool        `json:"wandering"`
	StateTicks   int         `json:"state_ticks"`
	MoveCooldown int         `json:"move_cooldown"`
}

// Manager owns the current floor's roster and the session-wide history.
type Manager struct {
	History map[string]*Record

	roster []*types.NPC
	log    zerolog.Logger
}

func NewManager(log zerolog.Logger) *Manager {
	return &Manager{
		History: make(map[string]*Record),
		log:     log.With().Str("component", "npc").Logger(),
	}
}

// Roster returns the current floor's NPCs in placement order.
func (m *Manager) Roster() []*types.NPC {
	return m.roster
}

// Find returns the roster entry for id, or nil.
func (m *Manager) Find(id string) *types.NPC {
	for _, n := range m.roster {
		if n.Def.ID == id {
			return n
		}
	}
	return nil
}

func (m *Manager) record(id string) *Record {
	rec, ok := m.History[id]
	if !ok {
		rec = &Record{}
		m.History[id] = rec
	}
	return rec
}

// Defeat marks id as defeated. Defeat is permanent for the session.
func (m *Manager) Defeat(id string) {
	m.record(id).Defeated = true
}

func (m *Manager) Defeated(id string) bool {
	rec, ok := m.History[id]
	return ok && rec.Defeated
}

// AdjustOpinion shifts the NPC's opinion of the player and returns the
// new value.
func (m *Manager) AdjustOpinion(id string, delta int) int {
	rec := m.record(id)
	rec.Opinion += delta
	return rec.Opinion
}

func (m *Manager) Opinion(id string) int {
	rec, ok := m.History[id]
	if !ok {
		return 0
	}
	return rec.Opinion
}

// DefeatedCount reports how many NPCs have been defeated this session.
func (m *Manager) DefeatedCount() int {
	n := 0
	for _, rec := range m.History {
		if rec.Defeated {
			n++
		}
	}
	return n
}

// FloorDefs selects the content NPCs assigned to floor, sorted by ID so
// placement consumes the RNG in a stable order.
func FloorDefs(content *types.Content, floor int) []*types.NPCDef {
	var defs []*types.NPCDef
	for _, def := range content.NPCs {
		if def.Floor == floor {
			defs = append(defs, def)
		}
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
	return defs
}

// GenerateForFloor builds the roster for one floor. Each NPC is placed
// through the shared placement rules: authored positions first, then
// rejection sampling away from the player start. NPCs that cannot be
// placed are skipped with a warning rather than failing the floor.
func (m *Manager) GenerateForFloor(defs []*types.NPCDef, g *mapgen.Grid, r *rng.RNG, layout *types.FloorLayout, playerStart types.Point, occupied map[types.Point]bool) {
	m.roster = m.roster[:0]

	taken := make(map[types.Point]bool, len(occupied)+len(defs))
	for p := range occupied {
		taken[p] = true
	}
	taken[playerStart] = true

	for _, def := range defs {
		var authored []types.Point
		if layout != nil {
			authored = layout.NPCPositions[def.ID]
		}
		// Authored positions override the player-distance rule: the
		// content author decides how close the encounter starts.
		opts := place.Options{Excluded: taken}
		if len(authored) > 0 {
			opts.Authored = authored
		} else {
			opts.Avoid = &playerStart
			opts.AvoidRadius = MinPlayerDistance
		}
		pos, ok := place.Pick(g, r, opts)
		if !ok && len(authored) == 0 {
			// Retry without the distance constraint before giving up;
			// a cramped floor beats a missing NPC.
			pos, ok = place.Pick(g, r, place.Options{Excluded: taken})
		}
		if !ok {
			m.log.Warn().Str("npc", def.ID).Int("floor", def.Floor).
				Msg("no free cell for NPC, skipping")
			continue
		}
		taken[pos] = true
		m.roster = append(m.roster, &types.NPC{
			Def: def,
			Entity: types.Entity{
				Pos:   pos,
				Glyph: def.Glyph,
				Color: def.Color,
				Name:  def.Name,
			},
			Home:       pos,
			StateTicks: idleTicksMin,
		})
	}
}

// At returns the NPC occupying p, or nil.
func (m *Manager) At(p types.Point) *types.NPC {
	for _, n := range m.roster {
		if n.Entity.Pos == p {
			return n
		}
	}
	return nil
}

// Eligible returns the undefeated NPC the player may interact with:
// within Chebyshev distance 1 of player. Ties break on distance, then
// on ID, so the choice is stable.
func (m *Manager) Eligible(player types.Point) *types.NPC {
	var best *types.NPC
	bestDist := 0
	for _, n := range m.roster {
		if m.Defeated(n.Def.ID) {
			continue
		}
		d := place.Chebyshev(player, n.Entity.Pos)
		if d > 1 {
			continue
		}
		if best == nil || d < bestDist || (d == bestDist && n.Def.ID < best.Def.ID) {
			best, bestDist = n, d
		}
	}
	return best
}

// RequirementSatisfied reports whether every required NPC among defs
// has been defeated.
func (m *Manager) RequirementSatisfied(defs []*types.NPCDef) bool {
	for _, def := range defs {
		if def.Required && !m.Defeated(def.ID) {
			return false
		}
	}
	return true
}

// Tick advances the idle/wander machine one step for every roster NPC.
// The engine calls it once per accepted command, and not at all while a
// conversation is open. blocked marks cells NPCs may never enter
// (stairs, terminals); NPCs also avoid each other and the player.
func (m *Manager) Tick(g *mapgen.Grid, r *rng.RNG, player types.Point, blocked map[types.Point]bool) {
	occupied := make(map[types.Point]bool, len(m.roster)+1)
	occupied[player] = true
	for _, n := range m.roster {
		occupied[n.Entity.Pos] = true
	}

	for _, n := range m.roster {
		if m.Defeated(n.Def.ID) {
			continue
		}
		n.StateTicks--
		if n.StateTicks <= 0 {
			n.Wandering = !n.Wandering
			if n.Wandering {
				n.StateTicks = r.Between(wanderTicksMin, wanderTicksMax)
			} else {
				n.StateTicks = r.Between(idleTicksMin, idleTicksMax)
			}
			n.MoveCooldown = 0
		}
		if !n.Wandering {
			continue
		}
		n.MoveCooldown--
		if n.MoveCooldown > 0 {
			continue
		}
		n.MoveCooldown = moveCooldown

		next, ok := m.wanderStep(g, r, n, occupied, blocked)
		if !ok {
			continue
		}
		occupied[n.Entity.Pos] = false
		occupied[next] = true
		n.Entity.Pos = next
	}
}

// wanderStep picks one of the four cardinal neighbors at random,
// rejecting cells that are unwalkable, occupied, blocked, or beyond
// the leash radius from the NPC's home.
func (m *Manager) wanderStep(g *mapgen.Grid, r *rng.RNG, n *types.NPC, occupied, blocked map[types.Point]bool) (types.Point, bool) {
	dirs := [4]types.Point{{X: 0, Y: -1}, {X: 0, Y: 1}, {X: -1, Y: 0}, {X: 1, Y: 0}}
	d := dirs[r.Intn(4)]
	next := types.Point{X: n.Entity.Pos.X + d.X, Y: n.Entity.Pos.Y + d.Y}
	if !g.Walkable(next) || occupied[next] || blocked[next] {
		return types.Point{}, false
	}
	if place.Chebyshev(next, n.Home) > leashRadius {
		return types.Point{}, false
	}
	return next, true
}

// Snapshot captures the transient roster state for saving.
func (m *Manager) Snapshot() map[string]State {
	out := make(map[string]State, len(m.roster))
	for _, n := range m.roster {
		out[n.Def.ID] = State{
			Pos:          n.Entity.Pos,
			Wandering:    n.Wandering,
			StateTicks:   n.StateTicks,
			MoveCooldown: n.MoveCooldown,
		}
	}
	return out
}

// ApplyState overlays saved roster state onto a freshly generated
// roster. Unknown IDs are ignored.
func (m *Manager) ApplyState(states map[string]State) {
	for _, n := range m.roster {
		st, ok := states[n.Def.ID]
		if !ok {
			continue
		}
		n.Entity.Pos = st.Pos
		n.Wandering = st.Wandering
		n.StateTicks = st.StateTicks
		n.MoveCooldown = st.MoveCooldown
	}
}
