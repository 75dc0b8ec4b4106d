// Package cli provides the plain line-oriented front end: terminal
// I/O, output formatting, meta-command dispatch, and script playback.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nathoo/neuraldive/engine"
	"github.com/nathoo/neuraldive/engine/save"
	"github.com/nathoo/neuraldive/scores"
	"github.com/nathoo/neuraldive/types"
)

// CLI handles terminal interaction with the player.
type CLI struct {
	Game      *engine.Game
	In        io.Reader
	Out       io.Writer
	SavePath  string
	Scores    *scores.Store // optional run history
	EchoInput bool          // echo each input line after the prompt (for script playback)

	recorded bool
}

// New creates a CLI wired to the given game.
func New(g *engine.Game) *CLI {
	home, _ := os.UserHomeDir()
	return &CLI{
		Game:     g,
		In:       os.Stdin,
		Out:      os.Stdout,
		SavePath: filepath.Join(home, ".neuraldive", "save.json"),
	}
}

// Run starts the game loop: intro, map, then prompt → input →
// dispatch → output until /quit or EOF.
func (c *CLI) Run() {
	if c.Game.Content.Intro != "" {
		c.printLine(c.Game.Content.Intro)
		c.printLine("")
	}
	c.printMap()

	scanner := bufio.NewScanner(c.In)
	for {
		c.print(c.prompt())
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		// Skip comment lines (for script files).
		if strings.HasPrefix(input, "#") {
			continue
		}
		if c.EchoInput {
			c.printLine(input)
		}

		// Meta-commands start with '/'.
		if strings.HasPrefix(input, "/") {
			if c.handleMeta(input) {
				return // /quit
			}
			continue
		}

		c.dispatch(input)
	}
}

func (c *CLI) prompt() string {
	if c.Game.Convo.Active() {
		return "answer> "
	}
	return "> "
}

// dispatch routes one game command. While a conversation is open every
// non-meta line is an answer.
func (c *CLI) dispatch(input string) {
	if c.Game.Convo.Active() {
		if strings.EqualFold(strings.TrimSpace(input), "hint") {
			c.show(c.Game.UseHint())
			return
		}
		c.show(c.Game.Answer(input))
		return
	}

	var out types.Outcome
	switch strings.ToLower(input) {
	case "n", "north", "up":
		out = c.Game.Move(0, -1)
	case "s", "south", "down":
		out = c.Game.Move(0, 1)
	case "w", "west", "left":
		out = c.Game.Move(-1, 0)
	case "e", "east", "right":
		out = c.Game.Move(1, 0)
	case "x", "interact", "enter", "talk":
		out = c.Game.Interact()
	case "map", "look", "l":
		c.printMap()
		return
	case "stats":
		c.cmdStats()
		return
	default:
		c.printLine("Unknown command. Type /help for the list.")
		return
	}
	c.show(out)
}

// show prints an outcome and refreshes the map after anything that
// changed the board.
func (c *CLI) show(out types.Outcome) {
	if out.Message != "" {
		c.printLine(out.Message)
	}
	if out.FloorChanged {
		c.printLine("")
		c.printMap()
	}
	if out.GameOver {
		c.finish(out)
	}
}

// finish reports the terminal state and records the run once.
func (c *CLI) finish(out types.Outcome) {
	c.printLine("")
	if out.Won {
		c.printLine("*** VICTORY ***")
	} else if out.Lost {
		c.printLine("*** CONNECTION LOST ***")
	}
	c.cmdStats()
	c.recordRun()
}

func (c *CLI) recordRun() {
	if c.Scores == nil || c.recorded {
		return
	}
	c.recorded = true
	g := c.Game
	err := c.Scores.Record(&scores.Run{
		SessionID: g.SessionID,
		ContentID: g.Content.ID,
		Seed:      g.RNG.Seed(),
		Floor:     g.Floors.Current,
		Score:     g.Score(),
		Correct:   g.Player.Correct,
		Answered:  g.Player.Answered,
		Defeated:  g.Player.NPCsDefeated,
		Knowledge: g.Player.KnowledgeCount(),
		Coherence: g.Player.Coherence,
		Won:       g.Won,
		Lost:      g.Lost,
	})
	if err != nil {
		c.printSystem(fmt.Sprintf("Could not record the run: %v", err))
	}
}

// handleMeta dispatches meta-commands. Returns true if the game
// should exit.
func (c *CLI) handleMeta(input string) bool {
	parts := strings.Fields(input)
	switch parts[0] {
	case "/quit", "/exit":
		c.recordRun()
		c.printSystem("Goodbye.")
		return true

	case "/save":
		c.cmdSave()

	case "/load":
		c.cmdLoad()

	case "/score":
		c.printSystem(fmt.Sprintf("Score: %d", c.Game.Score()))

	case "/top":
		c.cmdTop()

	case "/recent":
		c.cmdRecent()

	case "/help":
		c.cmdHelp()

	default:
		c.printSystem(fmt.Sprintf("Unknown command: %s. Type /help for available commands.", parts[0]))
	}
	return false
}

func (c *CLI) cmdSave() {
	if err := save.Write(c.SavePath, c.Game.Snapshot()); err != nil {
		c.printSystem(fmt.Sprintf("Save failed: %v", err))
		return
	}
	c.printSystem(fmt.Sprintf("Game saved to %s.", c.SavePath))
}

func (c *CLI) cmdLoad() {
	snap, err := save.Read(c.SavePath, c.Game.Content.ID)
	if err != nil {
		c.printSystem(fmt.Sprintf("Load failed: %v", err))
		return
	}
	if err := c.Game.Restore(snap); err != nil {
		c.printSystem(fmt.Sprintf("Load failed: %v", err))
		return
	}
	c.printSystem(fmt.Sprintf("Game loaded (floor %d).", c.Game.Floors.Current))
	c.printMap()
	if q := c.Game.CurrentQuestion(); q != nil {
		c.printLine("")
		c.printLine(q.Text)
	}
}

func (c *CLI) cmdTop() {
	if c.Scores == nil {
		c.printSystem("No score history available.")
		return
	}
	runs, err := c.Scores.Top(c.Game.Content.ID, 5)
	if err != nil {
		c.printSystem(fmt.Sprintf("Score history failed: %v", err))
		return
	}
	c.printRuns(runs)
}

func (c *CLI) cmdRecent() {
	if c.Scores == nil {
		c.printSystem("No score history available.")
		return
	}
	runs, err := c.Scores.Recent(5)
	if err != nil {
		c.printSystem(fmt.Sprintf("Score history failed: %v", err))
		return
	}
	c.printRuns(runs)
}

func (c *CLI) printRuns(runs []*scores.Run) {
	if len(runs) == 0 {
		c.printSystem("No runs recorded yet.")
		return
	}
	for i, r := range runs {
		mark := " "
		if r.Won {
			mark = "*"
		}
		c.printLine(fmt.Sprintf("%d. %s%6d  floor %d  %s", i+1, mark, r.Score,
			r.Floor, r.PlayedAt.Format("2006-01-02")))
	}
}

func (c *CLI) cmdStats() {
	p := c.Game.Player
	c.printSystem(fmt.Sprintf("Floor: %d/%d", c.Game.Floors.Current, c.Game.Floors.MaxFloors()))
	c.printSystem(fmt.Sprintf("Coherence: %d/%d", p.Coherence, p.MaxCoherence))
	c.printSystem(fmt.Sprintf("Answers: %d/%d correct (%.0f%%)", p.Correct, p.Answered, p.Accuracy()))
	c.printSystem(fmt.Sprintf("Defeated: %d  Knowledge: %v", p.NPCsDefeated, p.KnowledgeLabels()))
	c.printSystem(fmt.Sprintf("Hint tokens: %d", p.HintTokens))
	c.printSystem(fmt.Sprintf("Score: %d", c.Game.Score()))
}

func (c *CLI) cmdHelp() {
	help := []string{
		"System:",
		"  /save   — Save game",
		"  /load   — Load game",
		"  /score  — Show current score",
		"  /top    — Show best runs",
		"  /recent — Show latest runs",
		"  /quit   — Exit game",
		"  /help   — Show this help",
		"",
		"Game commands:",
		"  n/s/e/w (north/south/east/west) — Move",
		"  x / interact / talk             — Engage what is next to you",
		"  map / look (l)                  — Redraw the floor",
		"  stats                           — Show player stats",
		"",
		"While someone is questioning you, type your answer (or the",
		"choice number) at the answer> prompt. Type hint to spend a",
		"hint token and remove a wrong option.",
	}
	for _, line := range help {
		c.printLine(line)
	}
}

// printMap renders the grid with entities overlaid.
func (c *CLI) printMap() {
	for _, line := range RenderMap(c.Game) {
		c.printLine(line)
	}
	c.printLine(fmt.Sprintf("floor %d  coherence %d/%d  score %d",
		c.Game.Floors.Current, c.Game.Player.Coherence,
		c.Game.Player.MaxCoherence, c.Game.Score()))
}

// RenderMap draws the current floor as text rows, entities on top of
// tiles. Shared with script playback tests; the tui has its own
// styled renderer.
func RenderMap(g *engine.Game) []string {
	rows := g.Floors.Grid.Rows()
	cells := make([][]rune, len(rows))
	for y, row := range rows {
		cells[y] = []rune(row)
	}
	for _, e := range g.Entities() {
		if e.Pos.Y < 0 || e.Pos.Y >= len(cells) || e.Pos.X < 0 || e.Pos.X >= len(cells[e.Pos.Y]) {
			continue
		}
		glyph := e.Glyph
		if glyph == "" {
			glyph = "?"
		}
		cells[e.Pos.Y][e.Pos.X] = []rune(glyph)[0]
	}
	out := make([]string, len(cells))
	for y := range cells {
		out[y] = string(cells[y])
	}
	return out
}

func (c *CLI) printLine(text string) {
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) print(text string) {
	fmt.Fprint(c.Out, text)
}

func (c *CLI) printSystem(text string) {
	fmt.Fprintf(c.Out, "[%s]\n", text)
}
