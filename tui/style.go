package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles used throughout the TUI.
var (
	styleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Bold(true)

	styleInputPrompt = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleNarrative = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	styleChoice = lipgloss.NewStyle().
			Foreground(lipgloss.Color("81"))

	styleDialogue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("228"))

	styleSystem = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleError = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	stylePlayerInput = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	// Map glyph styles.
	styleWall   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	styleFloor  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	stylePlayer = lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Bold(true)
	styleStairs = lipgloss.NewStyle().Foreground(lipgloss.Color("51"))
	stylePortal = lipgloss.NewStyle().Foreground(lipgloss.Color("201")).Bold(true)
	stylePickup = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	styleNPC    = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
)

// lineKind identifies the type of an output line for styling.
type lineKind int

const (
	kindNarrative lineKind = iota
	kindChoice
	kindDialogue
	kindSystem
	kindError
)

// rejectionPrefixes are the openings of the engine's refusal messages.
var rejectionPrefixes = []string{
	"A wall blocks",
	"A terminal occupies",
	"You can only move",
	"You are not standing",
	"Finish the conversation",
	"There is nothing",
	"Nobody is asking",
	"That is not one of",
	"The stairs lead nowhere",
	"Something still binds",
}

// classifyLine determines what kind of output line this is.
func classifyLine(line string) lineKind {
	trimmed := strings.TrimLeft(line, " ")
	switch {
	case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
		return kindSystem
	case isChoiceLine(trimmed):
		return kindChoice
	case containsQuotedSpeech(line):
		return kindDialogue
	default:
		for _, p := range rejectionPrefixes {
			if strings.HasPrefix(line, p) {
				return kindError
			}
		}
		return kindNarrative
	}
}

// isChoiceLine reports whether a line is a numbered answer option,
// e.g. "1) O(n log n)".
func isChoiceLine(s string) bool {
	if len(s) < 3 || s[0] < '1' || s[0] > '9' {
		return false
	}
	return s[1] == ')' && s[2] == ' '
}

// containsQuotedSpeech checks whether a line carries NPC dialogue in
// double quotes.
func containsQuotedSpeech(line string) bool {
	open := strings.IndexRune(line, '"')
	if open < 0 {
		return false
	}
	end := strings.IndexRune(line[open+1:], '"')
	return end > 5
}

// styledSystemMsg renders a system message in gray with brackets.
func styledSystemMsg(text string) string {
	return styleSystem.Render("[" + text + "]")
}

// styledMapRow styles a map row glyph by glyph.
func styledMapRow(row string) string {
	var b strings.Builder
	for _, r := range row {
		switch r {
		case '#':
			b.WriteString(styleWall.Render(string(r)))
		case '.':
			b.WriteString(styleFloor.Render(string(r)))
		case '@':
			b.WriteString(stylePlayer.Render(string(r)))
		case '<', '>', 'T':
			b.WriteString(styleStairs.Render(string(r)))
		case 'O':
			b.WriteString(stylePortal.Render(string(r)))
		case '?':
			b.WriteString(stylePickup.Render(string(r)))
		case ' ':
			b.WriteRune(' ')
		default:
			b.WriteString(styleNPC.Render(string(r)))
		}
	}
	return b.String()
}
