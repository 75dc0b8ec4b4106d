// Package engine composes the player, NPC, floor, and conversation
// managers into the Game aggregate: the single-writer state machine
// behind every player command. Expected gameplay rejections come back
// as Outcomes; errors are reserved for broken content or I/O.
package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nathoo/neuraldive/engine/convo"
	"github.com/nathoo/neuraldive/engine/floor"
	"github.com/nathoo/neuraldive/engine/npc"
	"github.com/nathoo/neuraldive/engine/place"
	"github.com/nathoo/neuraldive/engine/player"
	"github.com/nathoo/neuraldive/engine/rng"
	"github.com/nathoo/neuraldive/engine/save"
	"github.com/nathoo/neuraldive/types"
)

// Game is the aggregate session state. Commands are processed one at a
// time; nothing here is safe for concurrent use.
type Game struct {
	SessionID string

	Content *types.Content
	Config  Config

	RNG     *rng.RNG
	Player  *player.Manager
	NPCs    *npc.Manager
	Floors  *floor.Manager
	Convo   *convo.Engine
	PlayerPos types.Point

	Won  bool
	Lost bool

	log zerolog.Logger
}

// New starts a fresh session on floor 1.
func New(content *types.Content, cfg Config) (*Game, error) {
	if content == nil || content.MaxFloors < 1 {
		return nil, fmt.Errorf("content has no floors")
	}
	g := &Game{
		SessionID: uuid.NewString(),
		Content:   content,
		Config:    cfg,
		RNG:       rng.New(cfg.Seed),
		Player:    player.New(cfg.StartCoherence, cfg.MaxCoherence),
		NPCs:      npc.NewManager(cfg.Logger),
		Floors:    floor.NewManager(content, cfg.Width, cfg.Height, cfg.Seed, cfg.Logger),
		Convo:     &convo.Engine{},
		log:       cfg.Logger.With().Str("component", "engine").Logger(),
	}
	if err := g.Floors.Enter(1, g.NPCs); err != nil {
		return nil, err
	}
	g.PlayerPos = g.Floors.PlayerStart
	g.log.Info().Str("session", g.SessionID).Int64("seed", cfg.Seed).
		Str("content", content.ID).Msg("session started")
	return g, nil
}

// GameOver reports whether the session reached a terminal state.
func (g *Game) GameOver() bool {
	return g.Won || g.Lost
}

func (g *Game) gameOverOutcome() types.Outcome {
	msg := "The dive is over. Start a new session to play again."
	if g.Won {
		msg = "You have surfaced. " + msg
	}
	return types.Outcome{OK: false, Message: msg, GameOver: true, Won: g.Won, Lost: g.Lost}
}

// Move shifts the player by one step. Walls, map bounds, NPCs,
// terminals, and an open conversation all block movement; a blocked
// move changes nothing, not even the NPC wander clock.
func (g *Game) Move(dx, dy int) types.Outcome {
	if g.GameOver() {
		return g.gameOverOutcome()
	}
	if g.Convo.Active() {
		return types.Outcome{OK: false, Message: "Finish the conversation first."}
	}
	if dx < -1 || dx > 1 || dy < -1 || dy > 1 || (dx == 0 && dy == 0) || (dx != 0 && dy != 0) {
		return types.Outcome{OK: false, Message: "You can only move one step at a time."}
	}
	next := types.Point{X: g.PlayerPos.X + dx, Y: g.PlayerPos.Y + dy}
	if !g.Floors.Grid.Walkable(next) {
		return types.Outcome{OK: false, Message: "A wall blocks the way."}
	}
	if n := g.NPCs.At(next); n != nil {
		return types.Outcome{OK: false, Message: n.Entity.Name + " is standing there."}
	}
	if t := g.Floors.TerminalAt(next); t != nil {
		return types.Outcome{OK: false, Message: "A terminal occupies that spot."}
	}
	g.PlayerPos = next
	msg := g.describeTile()
	if g.Floors.TakePickup(next) {
		g.Player.HintTokens++
		pickup := fmt.Sprintf("You pick up a hint token. [%d held]", g.Player.HintTokens)
		if msg != "" {
			msg = pickup + "\n" + msg
		} else {
			msg = pickup
		}
	}
	g.tick()
	return types.Outcome{OK: true, Message: msg}
}

func (g *Game) describeTile() string {
	switch {
	case g.Floors.ExitPortal && g.PlayerPos == g.Floors.StairsDown:
		return "You stand before the exit portal. It hums softly."
	case g.PlayerPos == g.Floors.StairsDown:
		return "You stand on the stairs leading down."
	case g.Floors.StairsUp != nil && g.PlayerPos == *g.Floors.StairsUp:
		return "You stand on the stairs leading up."
	default:
		return ""
	}
}

// tick advances the NPC wander machine. Called once per accepted
// command, never while a conversation is open.
func (g *Game) tick() {
	g.NPCs.Tick(g.Floors.Grid, g.RNG, g.PlayerPos, g.Floors.Blocked())
}

// Interact resolves what the player is engaging with, in fixed
// precedence: adjacent NPC, then adjacent terminal, then the stairs
// underfoot. The precedence is fixed so coinciding interactables
// always resolve the same way.
func (g *Game) Interact() types.Outcome {
	if g.GameOver() {
		return g.gameOverOutcome()
	}
	if g.Convo.Active() {
		return g.resumeConversation()
	}
	if n := g.NPCs.Eligible(g.PlayerPos); n != nil {
		return g.startConversation(n)
	}
	if t := g.adjacentTerminal(); t != nil {
		g.tick()
		return types.Outcome{OK: true, Message: renderTerminal(t)}
	}
	if g.PlayerPos == g.Floors.StairsDown {
		return g.Descend()
	}
	if g.Floors.StairsUp != nil && g.PlayerPos == *g.Floors.StairsUp {
		return g.Ascend()
	}
	return types.Outcome{OK: false, Message: "There is nothing here to interact with."}
}

func (g *Game) adjacentTerminal() *floor.Terminal {
	for _, t := range g.Floors.Terminals {
		if place.Chebyshev(g.PlayerPos, t.Pos) <= 1 {
			return t
		}
	}
	return nil
}

func renderTerminal(t *floor.Terminal) string {
	lines := append([]string{"== " + t.Def.Title + " =="}, t.Def.Content...)
	return strings.Join(lines, "\n")
}

func (g *Game) startConversation(n *types.NPC) types.Outcome {
	pool := g.questionPool(n.Def)
	if len(pool) == 0 {
		return types.Outcome{OK: false, Message: n.Entity.Name + " has nothing to ask you."}
	}
	count := g.Config.QuestionsPerNPC
	if count > len(pool) {
		count = len(pool)
	}
	if err := g.Convo.Start(n.Def, pool, count, g.RNG, !g.Config.Fixed); err != nil {
		return types.Outcome{OK: false, Message: n.Entity.Name + " has nothing to ask you."}
	}
	var b strings.Builder
	if n.Def.Greeting != "" {
		b.WriteString(n.Def.Greeting)
		b.WriteString("\n\n")
	}
	b.WriteString(g.renderQuestion(g.Convo.Current()))
	return types.Outcome{OK: true, Message: b.String()}
}

func (g *Game) resumeConversation() types.Outcome {
	var b strings.Builder
	if g.Convo.LastResponse != "" {
		b.WriteString(g.Convo.LastResponse)
		b.WriteString("\n\n")
	}
	b.WriteString(g.renderQuestion(g.Convo.Current()))
	return types.Outcome{OK: true, Message: b.String()}
}

// questionPool resolves an NPC's question IDs against content, in
// authored order. Unknown IDs were already warned about by the loader.
func (g *Game) questionPool(def *types.NPCDef) []*types.Question {
	var pool []*types.Question
	for _, id := range def.QuestionIDs {
		if q, ok := g.Content.Questions[id]; ok {
			pool = append(pool, q)
		}
	}
	return pool
}

// renderQuestion prints the pending question. Options struck by a hint
// token are omitted; the survivors keep their original numbers so an
// earlier choice stays valid.
func (g *Game) renderQuestion(q *types.Question) string {
	if q == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(q.Text)
	if q.Kind == types.MultipleChoice {
		for i, a := range q.Answers {
			if g.Convo.IsEliminated(i) {
				continue
			}
			fmt.Fprintf(&b, "\n  %d) %s", i+1, a.Text)
		}
	}
	return b.String()
}

// UseHint burns one hint token to strike a random wrong option from
// the open multiple-choice question.
func (g *Game) UseHint() types.Outcome {
	if g.GameOver() {
		return g.gameOverOutcome()
	}
	if !g.Convo.Active() {
		return types.Outcome{OK: false, Message: "Nobody is asking you anything."}
	}
	if g.Player.HintTokens < 1 {
		return types.Outcome{OK: false, Message: "You have no hint tokens."}
	}
	idx, err := g.Convo.Eliminate(g.RNG)
	if err != nil {
		return types.Outcome{OK: false, Message: "A hint cannot help you here."}
	}
	g.Player.HintTokens--
	var b strings.Builder
	fmt.Fprintf(&b, "The hint token flares and option %d dissolves. [%d left]\n\n",
		idx+1, g.Player.HintTokens)
	b.WriteString(g.renderQuestion(g.Convo.Current()))
	return types.Outcome{OK: true, Message: b.String()}
}

// Answer feeds one reply into the open conversation, applies coherence
// and opinion consequences, and settles defeat when the conversation
// completes.
func (g *Game) Answer(input string) types.Outcome {
	if g.GameOver() {
		return g.gameOverOutcome()
	}
	if !g.Convo.Active() {
		return types.Outcome{OK: false, Message: "Nobody is asking you anything."}
	}
	npcID := g.Convo.Conversation().NPCID
	def := g.Content.NPCs[npcID]

	v, err := g.Convo.Answer(input)
	if err != nil {
		return types.Outcome{OK: false, Message: "That is not one of the choices."}
	}

	g.Player.RecordAnswer(v.Correct)
	var b strings.Builder
	if v.Response != "" {
		b.WriteString(v.Response)
	}

	if v.Correct {
		g.NPCs.AdjustOpinion(npcID, 1)
		if applied := g.Player.AdjustCoherence(g.Config.CorrectGain); applied > 0 {
			fmt.Fprintf(&b, "\n[coherence +%d]", applied)
		}
		if v.Reward != "" && g.Player.AddKnowledge(v.Reward) {
			fmt.Fprintf(&b, "\n[knowledge gained: %s]", v.Reward)
		}
	} else {
		g.NPCs.AdjustOpinion(npcID, -1)
		penalty := g.Config.WrongPenalty
		if def != nil && def.Type == types.NPCEnemy {
			penalty = g.Config.EnemyWrongPenalty
		}
		if applied := g.Player.AdjustCoherence(-penalty); applied < 0 {
			fmt.Fprintf(&b, "\n[coherence %d]", applied)
		}
	}

	if !g.Player.Alive() {
		g.Lost = true
		g.Convo.End()
		b.WriteString("\n\nYour coherence collapses. The dive ends here.")
		g.log.Info().Str("npc", npcID).Msg("player defeated")
		return types.Outcome{OK: true, Message: b.String(), GameOver: true, Lost: true}
	}

	if v.Done {
		g.settleConversation(npcID, def, v, &b)
	} else if q := g.Convo.Current(); q != nil {
		b.WriteString("\n\n")
		b.WriteString(g.renderQuestion(q))
	}
	return types.Outcome{OK: true, Message: b.String()}
}

// settleConversation closes out a completed conversation: defeat at or
// above the threshold, helper restore, and the re-engage hint below it.
func (g *Game) settleConversation(npcID string, def *types.NPCDef, v convo.Verdict, b *strings.Builder) {
	fraction := float64(v.CorrectCount) / float64(v.Total)
	if fraction >= g.Config.DefeatThreshold {
		g.NPCs.Defeat(npcID)
		g.Player.RecordDefeat()
		name := npcID
		if def != nil {
			name = def.Name
		}
		fmt.Fprintf(b, "\n\n%s yields. (%d/%d correct)", name, v.CorrectCount, v.Total)
		if def != nil && def.Type == types.NPCHelper {
			if applied := g.Player.AdjustCoherence(g.Config.HelperRestore); applied > 0 {
				fmt.Fprintf(b, "\n[coherence restored +%d]", applied)
			}
		}
		if g.Floors.DownUnlocked(g.NPCs) {
			b.WriteString("\nThe way down is open.")
		}
	} else {
		fmt.Fprintf(b, "\n\nNot enough. (%d/%d correct) Try again when you are ready.", v.CorrectCount, v.Total)
	}
	g.Convo.End()
}

// Descend moves down through the stairs underfoot. On the last floor
// the down slot is the exit portal and descending wins the session.
func (g *Game) Descend() types.Outcome {
	if g.GameOver() {
		return g.gameOverOutcome()
	}
	if g.PlayerPos != g.Floors.StairsDown {
		return types.Outcome{OK: false, Message: "You are not standing on the down stairs."}
	}
	if !g.Floors.DownUnlocked(g.NPCs) {
		return types.Outcome{OK: false, Message: "Something still binds this floor. Defeat the remaining guardians first."}
	}
	if g.Floors.ExitPortal {
		g.Won = true
		g.log.Info().Int("score", g.Score()).Msg("player won")
		return types.Outcome{OK: true, Message: "You step through the portal and surface. You made it out.", GameOver: true, Won: true}
	}
	next := g.Floors.Current + 1
	if err := g.Floors.Enter(next, g.NPCs); err != nil {
		return types.Outcome{OK: false, Message: "The stairs lead nowhere."}
	}
	if g.Floors.StairsUp != nil {
		g.PlayerPos = *g.Floors.StairsUp
	} else {
		g.PlayerPos = g.Floors.PlayerStart
	}
	return types.Outcome{
		OK:           true,
		Message:      fmt.Sprintf("You descend to floor %d.", next),
		FloorChanged: true,
	}
}

// Ascend moves up through the stairs underfoot. On floor 1 it does
// nothing.
func (g *Game) Ascend() types.Outcome {
	if g.GameOver() {
		return g.gameOverOutcome()
	}
	if g.Floors.Current == 1 {
		return types.Outcome{OK: false, Message: "There is nothing above you but static."}
	}
	if g.Floors.StairsUp == nil || g.PlayerPos != *g.Floors.StairsUp {
		return types.Outcome{OK: false, Message: "You are not standing on the up stairs."}
	}
	prev := g.Floors.Current - 1
	if err := g.Floors.Enter(prev, g.NPCs); err != nil {
		return types.Outcome{OK: false, Message: "The stairs lead nowhere."}
	}
	g.PlayerPos = g.Floors.StairsDown
	return types.Outcome{
		OK:           true,
		Message:      fmt.Sprintf("You climb back to floor %d.", prev),
		FloorChanged: true,
	}
}

// Score computes the running score. Pure; no side effects.
func (g *Game) Score() int {
	return g.Player.Score()
}

// CurrentQuestion exposes the open conversation's pending question to
// the front ends, or nil.
func (g *Game) CurrentQuestion() *types.Question {
	if !g.Convo.Active() {
		return nil
	}
	return g.Convo.Current()
}

// Snapshot captures the complete session for saving. Everything
// reachable through the snapshot is copied, so later play does not
// mutate a snapshot taken earlier.
func (g *Game) Snapshot() *save.Snapshot {
	history := make(map[string]*npc.Record, len(g.NPCs.History))
	for id, rec := range g.NPCs.History {
		cp := *rec
		history[id] = &cp
	}
	s := &save.Snapshot{
		ContentID: g.Content.ID,
		SessionID: g.SessionID,
		Seed:      g.RNG.Seed(),
		RNGPos:    g.RNG.Position(),
		Floor:     g.Floors.Current,
		Player: save.PlayerState{
			Coherence:    g.Player.Coherence,
			MaxCoherence: g.Player.MaxCoherence,
			Knowledge:    g.Player.KnowledgeLabels(),
			Hints:        g.Player.HintTokens,
			Answered:     g.Player.Answered,
			Correct:      g.Player.Correct,
			Defeated:     g.Player.NPCsDefeated,
		},
		PlayerPos:  g.PlayerPos,
		Pickups:    append([]types.Point{}, g.Floors.Pickups...),
		NPCHistory: history,
		Roster:     g.NPCs.Snapshot(),
		Won:        g.Won,
		Lost:       g.Lost,
	}
	if g.Convo.Active() {
		conv := g.Convo.Conversation()
		cs := &save.ConversationState{
			NPCID:      conv.NPCID,
			Cursor:     conv.Cursor,
			Correct:    conv.Correct,
			Eliminated: append([]int(nil), conv.Eliminated...),
		}
		for _, q := range conv.Questions {
			cs.QuestionIDs = append(cs.QuestionIDs, q.ID)
		}
		s.Conversation = cs
	}
	return s
}

// Restore rebuilds the session from a snapshot. The floor is
// regenerated from its derived seed, then overlaid with the saved
// roster state, so the restored state is indistinguishable from the
// saved one.
func (g *Game) Restore(s *save.Snapshot) error {
	if s.ContentID != g.Content.ID {
		return fmt.Errorf("%w: save is for %q, loaded content is %q",
			save.ErrWrongContent, s.ContentID, g.Content.ID)
	}
	if s.Floor < 1 || s.Floor > g.Content.MaxFloors {
		return fmt.Errorf("%w: floor %d out of range 1..%d",
			save.ErrIncompatible, s.Floor, g.Content.MaxFloors)
	}

	// Everything fallible happens on locals first. A rejected snapshot
	// must leave the running session untouched and playable.
	var conv *types.Conversation
	if s.Conversation != nil {
		var err error
		conv, err = g.rebuildConversation(s.Conversation)
		if err != nil {
			return err
		}
	}

	floors := floor.NewManager(g.Content, g.Config.Width, g.Config.Height, s.Seed, g.Config.Logger)
	npcs := npc.NewManager(g.Config.Logger)
	npcs.History = make(map[string]*npc.Record, len(s.NPCHistory))
	for id, rec := range s.NPCHistory {
		cp := *rec
		npcs.History[id] = &cp
	}
	if err := floors.Enter(s.Floor, npcs); err != nil {
		return fmt.Errorf("restore floor: %w", err)
	}
	npcs.ApplyState(s.Roster)
	if s.Pickups != nil {
		floors.Pickups = append([]types.Point(nil), s.Pickups...)
	}

	pl := player.New(s.Player.Coherence, s.Player.MaxCoherence)
	pl.HintTokens = s.Player.Hints
	pl.Answered = s.Player.Answered
	pl.Correct = s.Player.Correct
	pl.NPCsDefeated = s.Player.Defeated
	for _, label := range s.Player.Knowledge {
		pl.AddKnowledge(label)
	}

	g.RNG = rng.Restore(s.Seed, s.RNGPos)
	g.Floors = floors
	g.NPCs = npcs
	g.Player = pl
	g.PlayerPos = s.PlayerPos
	g.Convo = &convo.Engine{}
	if conv != nil {
		g.Convo.Resume(conv)
	}
	g.Won = s.Won
	g.Lost = s.Lost
	g.log.Info().Int("floor", s.Floor).Int64("rng_pos", s.RNGPos).Msg("session restored")
	return nil
}

func (g *Game) rebuildConversation(cs *save.ConversationState) (*types.Conversation, error) {
	conv := &types.Conversation{
		NPCID:      cs.NPCID,
		Cursor:     cs.Cursor,
		Correct:    cs.Correct,
		Eliminated: append([]int(nil), cs.Eliminated...),
	}
	for _, id := range cs.QuestionIDs {
		q, ok := g.Content.Questions[id]
		if !ok {
			return nil, fmt.Errorf("%w: unknown question %q", save.ErrWrongContent, id)
		}
		conv.Questions = append(conv.Questions, q)
	}
	if conv.Cursor >= len(conv.Questions) {
		conv.Completed = true
	}
	return conv, nil
}

// Entities lists everything drawable on the current floor, player
// last so it renders on top. Stable order for the front ends.
func (g *Game) Entities() []types.Entity {
	var out []types.Entity
	if g.Floors.StairsUp != nil {
		out = append(out, types.Entity{Pos: *g.Floors.StairsUp, Glyph: "<", Name: "stairs up"})
	}
	downGlyph, downName := ">", "stairs down"
	if g.Floors.ExitPortal {
		downGlyph, downName = "O", "exit portal"
	}
	out = append(out, types.Entity{Pos: g.Floors.StairsDown, Glyph: downGlyph, Name: downName})
	for _, t := range g.Floors.Terminals {
		out = append(out, types.Entity{Pos: t.Pos, Glyph: "T", Name: t.Def.Title})
	}
	for _, p := range g.Floors.Pickups {
		out = append(out, types.Entity{Pos: p, Glyph: "?", Name: "hint token"})
	}
	npcs := make([]types.Entity, 0, len(g.NPCs.Roster()))
	for _, n := range g.NPCs.Roster() {
		npcs = append(npcs, n.Entity)
	}
	sort.Slice(npcs, func(i, j int) bool { return npcs[i].Name < npcs[j].Name })
	out = append(out, npcs...)
	out = append(out, types.Entity{Pos: g.PlayerPos, Glyph: "@", Name: "you"})
	return out
}
