package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderStatusBar produces a full-width inverted status line showing
// floor, coherence, knowledge, and score.
func (m Model) renderStatusBar() string {
	g := m.game

	left := fmt.Sprintf(" Floor %d/%d | Coherence %d/%d",
		g.Floors.Current, g.Floors.MaxFloors(),
		g.Player.Coherence, g.Player.MaxCoherence)
	right := fmt.Sprintf("Score: %d ", g.Score())

	// Show knowledge module names if they fit, otherwise just count.
	if labels := g.Player.KnowledgeLabels(); len(labels) > 0 {
		candidate := fmt.Sprintf("Know: %s | Score: %d ", strings.Join(labels, ", "), g.Score())
		if lipgloss.Width(left)+lipgloss.Width(candidate)+2 < m.width {
			right = candidate
		} else {
			right = fmt.Sprintf("Know: %d | Score: %d ", len(labels), g.Score())
		}
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + strings.Repeat(" ", gap) + right
	return styleStatusBar.Width(m.width).Render(bar)
}
