// Package player owns the player's resource state: coherence,
// accumulated knowledge modules, and the per-run answer statistics
// that feed the score.
package player

import (
	"sort"

	"github.com/zyedidia/generic/mapset"
)

// Score weights, per component.
const (
	pointsPerCorrect   = 100
	pointsPerDefeated  = 200
	pointsPerKnowledge = 50
	pointsPerCoherence = 10
)

// Manager holds the single player's mutable state. Coherence always
// stays within [0, MaxCoherence]; all mutation goes through clamping
// operations.
type Manager struct {
	Coherence    int
	MaxCoherence int

	knowledge mapset.Set[string]

	// HintTokens are consumables picked up on the floor; each one
	// removes a wrong option from an open multiple-choice question.
	HintTokens int

	Answered     int
	Correct      int
	NPCsDefeated int
}

// New creates a player at the given starting coherence. A non-positive
// max is an invariant violation by the caller; it is pinned to 1 so
// the clamp stays well-defined.
func New(start, max int) *Manager {
	if max < 1 {
		max = 1
	}
	m := &Manager{
		MaxCoherence: max,
		knowledge:    mapset.New[string](),
	}
	m.Coherence = clamp(start, 0, max)
	return m
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// AdjustCoherence applies delta with clamping and returns the delta
// actually applied, which may be smaller in magnitude at the floor or
// ceiling. The caller checks Alive() after damage.
func (m *Manager) AdjustCoherence(delta int) int {
	old := m.Coherence
	m.Coherence = clamp(old+delta, 0, m.MaxCoherence)
	return m.Coherence - old
}

// Alive reports whether the player has coherence remaining.
func (m *Manager) Alive() bool {
	return m.Coherence > 0
}

// AddKnowledge inserts a knowledge module label. Returns true when the
// label is new, so rewards are not duplicated.
func (m *Manager) AddKnowledge(label string) bool {
	if label == "" || m.knowledge.Has(label) {
		return false
	}
	m.knowledge.Put(label)
	return true
}

// HasKnowledge reports whether a module has been acquired.
func (m *Manager) HasKnowledge(label string) bool {
	return m.knowledge.Has(label)
}

// KnowledgeCount returns the number of acquired modules.
func (m *Manager) KnowledgeCount() int {
	return m.knowledge.Size()
}

// KnowledgeLabels returns the acquired modules in sorted order, for
// rendering and serialization.
func (m *Manager) KnowledgeLabels() []string {
	var out []string
	m.knowledge.Each(func(label string) {
		out = append(out, label)
	})
	sort.Strings(out)
	return out
}

// RecordAnswer bumps the answered count, and the correct count when
// the answer was right.
func (m *Manager) RecordAnswer(correct bool) {
	m.Answered++
	if correct {
		m.Correct++
	}
}

// RecordDefeat bumps the defeated-NPC count.
func (m *Manager) RecordDefeat() {
	m.NPCsDefeated++
}

// Accuracy returns the percentage of answered questions that were
// correct, or 0 before any answer.
func (m *Manager) Accuracy() float64 {
	if m.Answered == 0 {
		return 0
	}
	return float64(m.Correct) / float64(m.Answered) * 100
}

// Score is a pure function of current state: correct answers, NPCs
// defeated, knowledge modules, and remaining coherence.
func (m *Manager) Score() int {
	return m.Correct*pointsPerCorrect +
		m.NPCsDefeated*pointsPerDefeated +
		m.knowledge.Size()*pointsPerKnowledge +
		m.Coherence*pointsPerCoherence
}
