package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nathoo/neuraldive/cli"
	"github.com/nathoo/neuraldive/engine"
	"github.com/nathoo/neuraldive/engine/save"
	"github.com/nathoo/neuraldive/scores"
	"github.com/nathoo/neuraldive/types"
)

// rawLine stores an unstyled output line with its classification,
// so we can re-style when the terminal is resized.
type rawLine struct {
	text     string
	kind     lineKind
	isInput  bool // echoed player input
	isSystem bool // meta-command output
	isMap    bool // floor map row
}

// Model is the Bubble Tea model for the Neural Dive TUI.
type Model struct {
	game   *engine.Game
	scores *scores.Store

	viewport viewport.Model
	input    textinput.Model
	history  *History

	rawLines []rawLine

	width    int
	height   int
	ready    bool
	quitting bool
	recorded bool
	savePath string
}

// gameOutputMsg carries output from the engine into the Update loop.
type gameOutputMsg struct {
	input    string   // echoed player input (empty for intro)
	lines    []string // output lines
	mapRows  []string // floor map to render after the lines
	isSystem bool     // true for meta-command output
}

// New creates a TUI model wired to the given game.
func New(g *engine.Game, store *scores.Store, savePath string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Focus()
	ti.CharLimit = 256
	ti.PromptStyle = styleInputPrompt

	return Model{
		game:     g,
		scores:   store,
		input:    ti,
		history:  NewHistory(100),
		savePath: savePath,
	}
}

// Run starts the Bubble Tea program.
func Run(g *engine.Game, store *scores.Store, savePath string) error {
	m := New(g, store, savePath)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}

// Init returns the initial command producing the intro and first map.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.initialOutput())
}

func (m Model) initialOutput() tea.Cmd {
	return func() tea.Msg {
		c := m.game.Content
		var lines []string
		title := c.Title
		if c.Author != "" {
			title += " by " + c.Author
		}
		lines = append(lines, title)
		lines = append(lines, "")
		if c.Intro != "" {
			lines = append(lines, c.Intro)
			lines = append(lines, "")
		}
		return gameOutputMsg{lines: lines, mapRows: cli.RenderMap(m.game)}
	}
}

// Update handles messages (key presses, window resize, game output).
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		vpHeight := m.height - 2 // 1 status bar + 1 input line
		if vpHeight < 1 {
			vpHeight = 1
		}

		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.viewport.KeyMap = viewportKeyMap()
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}

		m.refreshViewport()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.recordRun()
			m.quitting = true
			return m, tea.Quit

		case "enter":
			return m.handleEnter()

		case "up":
			if prev, ok := m.history.Prev(); ok {
				m.input.SetValue(prev)
				m.input.CursorEnd()
			}
			return m, nil

		case "down":
			if next, ok := m.history.Next(); ok {
				m.input.SetValue(next)
				m.input.CursorEnd()
			} else {
				m.input.SetValue("")
				m.history.ResetCursor()
			}
			return m, nil

		case "pgup", "pgdown":
			var vpCmd tea.Cmd
			m.viewport, vpCmd = m.viewport.Update(msg)
			return m, vpCmd
		}

	case gameOutputMsg:
		m = m.appendOutput(msg)
	}

	var inputCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	cmds = append(cmds, inputCmd)

	return m, tea.Batch(cmds...)
}

// handleEnter processes the submitted input line.
func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")

	if input == "" {
		return m, nil
	}

	m.history.Push(input)
	m.history.ResetCursor()

	if strings.HasPrefix(input, "/") {
		output, quit := m.handleMeta(input)
		m = m.appendOutput(gameOutputMsg{input: input, lines: output, isSystem: true})
		if quit {
			m.quitting = true
			return m, tea.Quit
		}
		m.syncPrompt()
		return m, nil
	}

	msg := m.step(input)
	msg.input = input
	m = m.appendOutput(msg)
	m.syncPrompt()
	return m, nil
}

// syncPrompt switches the input prompt while a question is pending.
func (m *Model) syncPrompt() {
	if m.game.Convo.Active() {
		m.input.Prompt = "answer> "
	} else {
		m.input.Prompt = "> "
	}
}

// step feeds one game command to the engine and collects its output.
func (m *Model) step(input string) gameOutputMsg {
	if m.game.Convo.Active() {
		if strings.EqualFold(input, "hint") {
			return m.outcomeMsg(m.game.UseHint())
		}
		return m.outcomeMsg(m.game.Answer(input))
	}

	var out types.Outcome
	switch strings.ToLower(input) {
	case "n", "north":
		out = m.game.Move(0, -1)
	case "s", "south":
		out = m.game.Move(0, 1)
	case "w", "west", "left":
		out = m.game.Move(-1, 0)
	case "e", "east", "right":
		out = m.game.Move(1, 0)
	case "x", "interact", "enter", "talk":
		out = m.game.Interact()
	case "map", "look", "l":
		return gameOutputMsg{mapRows: cli.RenderMap(m.game)}
	case "stats":
		return gameOutputMsg{lines: m.statLines(), isSystem: true}
	default:
		return gameOutputMsg{lines: []string{"Unknown command. Type /help for the list."}, isSystem: true}
	}
	return m.outcomeMsg(out)
}

// outcomeMsg turns an engine outcome into display lines.
func (m *Model) outcomeMsg(out types.Outcome) gameOutputMsg {
	var msg gameOutputMsg
	if out.Message != "" {
		msg.lines = strings.Split(out.Message, "\n")
	}
	if out.FloorChanged {
		msg.mapRows = cli.RenderMap(m.game)
	}
	if out.GameOver {
		msg.lines = append(msg.lines, "")
		if out.Won {
			msg.lines = append(msg.lines, "*** VICTORY ***")
		} else if out.Lost {
			msg.lines = append(msg.lines, "*** CONNECTION LOST ***")
		}
		msg.lines = append(msg.lines, m.statLines()...)
		m.recordRun()
	}
	return msg
}

func (m *Model) statLines() []string {
	p := m.game.Player
	return []string{
		fmt.Sprintf("Floor: %d/%d", m.game.Floors.Current, m.game.Floors.MaxFloors()),
		fmt.Sprintf("Coherence: %d/%d", p.Coherence, p.MaxCoherence),
		fmt.Sprintf("Answers: %d/%d correct (%.0f%%)", p.Correct, p.Answered, p.Accuracy()),
		fmt.Sprintf("Defeated: %d  Knowledge: %v", p.NPCsDefeated, p.KnowledgeLabels()),
		fmt.Sprintf("Hint tokens: %d", p.HintTokens),
		fmt.Sprintf("Score: %d", m.game.Score()),
	}
}

// recordRun stores the finished run in score history, once.
func (m *Model) recordRun() {
	if m.scores == nil || m.recorded {
		return
	}
	m.recorded = true
	g := m.game
	_ = m.scores.Record(&scores.Run{
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
}

// appendOutput adds lines to the transcript and refreshes the viewport.
func (m Model) appendOutput(msg gameOutputMsg) Model {
	if msg.input != "" {
		m.rawLines = append(m.rawLines, rawLine{
			text: "> " + msg.input, isInput: true,
		})
	}

	for _, line := range msg.lines {
		rl := rawLine{text: line, isSystem: msg.isSystem}
		if !msg.isSystem {
			rl.kind = classifyLine(line)
		}
		m.rawLines = append(m.rawLines, rl)
	}

	for _, row := range msg.mapRows {
		m.rawLines = append(m.rawLines, rawLine{text: row, isMap: true})
	}

	// Blank line separator between turns.
	m.rawLines = append(m.rawLines, rawLine{})

	m.refreshViewport()

	return m
}

// refreshViewport re-styles all raw lines and updates the viewport.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}

	var styled []string
	for _, rl := range m.rawLines {
		switch {
		case rl.text == "":
			styled = append(styled, "")
		case rl.isMap:
			styled = append(styled, styledMapRow(rl.text))
		case rl.isInput:
			styled = append(styled, stylePlayerInput.Render(rl.text))
		case rl.isSystem:
			styled = append(styled, styledSystemMsg(rl.text))
		default:
			styled = append(styled, renderLineKind(rl.text, rl.kind))
		}
	}

	m.viewport.SetContent(strings.Join(styled, "\n"))
	m.viewport.GotoBottom()
}

// renderLineKind applies the style for a given lineKind.
func renderLineKind(line string, kind lineKind) string {
	switch kind {
	case kindChoice:
		return styleChoice.Render(line)
	case kindDialogue:
		return styleDialogue.Render(line)
	case kindSystem:
		return styleSystem.Render(line)
	case kindError:
		return styleError.Render(line)
	default:
		return styleNarrative.Render(line)
	}
}

// View renders the full TUI layout: viewport + status bar + input.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	return m.viewport.View() + "\n" + m.renderStatusBar() + "\n" + m.input.View()
}

// handleMeta dispatches meta-commands. Returns output lines and quit flag.
func (m *Model) handleMeta(input string) ([]string, bool) {
	parts := strings.Fields(input)
	switch parts[0] {
	case "/quit", "/exit":
		m.recordRun()
		return []string{"Goodbye."}, true

	case "/save":
		return m.cmdSave(), false

	case "/load":
		return m.cmdLoad(), false

	case "/score":
		return []string{fmt.Sprintf("Score: %d", m.game.Score())}, false

	case "/top":
		return m.cmdTop(), false

	case "/recent":
		return m.cmdRecent(), false

	case "/help":
		return m.cmdHelp(), false

	default:
		return []string{fmt.Sprintf("Unknown command: %s. Type /help for available commands.", parts[0])}, false
	}
}

func (m *Model) cmdSave() []string {
	if err := save.Write(m.savePath, m.game.Snapshot()); err != nil {
		return []string{fmt.Sprintf("Save failed: %v", err)}
	}
	return []string{fmt.Sprintf("Game saved to %s.", m.savePath)}
}

func (m *Model) cmdLoad() []string {
	snap, err := save.Read(m.savePath, m.game.Content.ID)
	if err != nil {
		return []string{fmt.Sprintf("Load failed: %v", err)}
	}
	if err := m.game.Restore(snap); err != nil {
		return []string{fmt.Sprintf("Load failed: %v", err)}
	}
	output := []string{fmt.Sprintf("Game loaded (floor %d).", m.game.Floors.Current)}
	if q := m.game.CurrentQuestion(); q != nil {
		output = append(output, q.Text)
	}
	return output
}

func (m *Model) cmdTop() []string {
	if m.scores == nil {
		return []string{"No score history available."}
	}
	runs, err := m.scores.Top(m.game.Content.ID, 5)
	if err != nil {
		return []string{fmt.Sprintf("Score history failed: %v", err)}
	}
	return formatRuns(runs)
}

func (m *Model) cmdRecent() []string {
	if m.scores == nil {
		return []string{"No score history available."}
	}
	runs, err := m.scores.Recent(5)
	if err != nil {
		return []string{fmt.Sprintf("Score history failed: %v", err)}
	}
	return formatRuns(runs)
}

func formatRuns(runs []*scores.Run) []string {
	if len(runs) == 0 {
		return []string{"No runs recorded yet."}
	}
	var output []string
	for i, r := range runs {
		mark := " "
		if r.Won {
			mark = "*"
		}
		output = append(output, fmt.Sprintf("%d. %s%6d  floor %d  %s", i+1, mark,
			r.Score, r.Floor, r.PlayedAt.Format("2006-01-02")))
	}
	return output
}

func (m *Model) cmdHelp() []string {
	return []string{
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
		"",
		"Navigation: PgUp/PgDn to scroll, Up/Down for command history",
	}
}

// viewportKeyMap returns a viewport keymap with Up/Down disabled
// (those drive input history).
func viewportKeyMap() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		Up:           key.NewBinding(key.WithDisabled()),
		Down:         key.NewBinding(key.WithDisabled()),
	}
}
