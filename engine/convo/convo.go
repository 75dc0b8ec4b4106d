// Package convo manages the question/answer dialogue state for one NPC
// interaction: question selection and sequencing, per-question answer
// evaluation, and completion detection.
package convo

import (
	"errors"
	"strconv"
	"strings"

	"github.com/nathoo/neuraldive/engine/match"
	"github.com/nathoo/neuraldive/engine/rng"
	"github.com/nathoo/neuraldive/types"
)

var (
	// ErrNotStarted is returned when answering with no active
	// conversation. Reaching it indicates the interaction flow let an
	// answer through that it should have rejected.
	ErrNotStarted = errors.New("no active conversation")

	// ErrCompleted is returned when answering a conversation whose
	// questions are exhausted.
	ErrCompleted = errors.New("conversation already completed")

	// ErrInsufficientContent is returned by Start when the eligible
	// pool holds fewer questions than requested. Callers degrade to
	// asking the whole pool.
	ErrInsufficientContent = errors.New("not enough eligible questions")

	// ErrInvalidChoice is returned for an out-of-range or eliminated
	// multiple-choice selection. No conversation state changes.
	ErrInvalidChoice = errors.New("invalid answer choice")

	// ErrNoEliminable is returned by Eliminate when the current question
	// has no wrong answer left to remove, or is not multiple choice.
	ErrNoEliminable = errors.New("nothing left to eliminate")
)

// Verdict is the result of evaluating one answer.
type Verdict struct {
	Correct  bool
	Response string
	Reward   string // knowledge module label, empty when none
	Done     bool   // conversation reached completion with this answer

	CorrectCount int
	Total        int
}

// Engine drives one conversation at a time. Strictly sequential; no
// concurrency.
type Engine struct {
	conv *types.Conversation

	// LastResponse is the most recent response text, kept for the
	// renderer when a conversation is resumed mid-question.
	LastResponse string
}

// Active reports whether a conversation is in progress.
func (e *Engine) Active() bool {
	return e.conv != nil && !e.conv.Completed
}

// Conversation returns the current conversation, completed or not, or
// nil when none was started.
func (e *Engine) Conversation() *types.Conversation {
	return e.conv
}

// Start selects count distinct questions from the pool and begins a
// conversation with the NPC. With shuffle set the selection and order
// are drawn from r; otherwise pool order is kept. A pool smaller than
// count fails with ErrInsufficientContent and no state change.
func (e *Engine) Start(npc *types.NPCDef, pool []*types.Question, count int, r *rng.RNG, shuffle bool) error {
	if count <= 0 || len(pool) < count {
		return ErrInsufficientContent
	}

	picked := make([]*types.Question, len(pool))
	copy(picked, pool)
	if shuffle {
		r.Shuffle(len(picked), func(i, j int) {
			picked[i], picked[j] = picked[j], picked[i]
		})
	}
	picked = picked[:count]

	e.conv = &types.Conversation{
		NPCID:     npc.ID,
		Questions: picked,
	}
	e.LastResponse = ""
	return nil
}

// Resume installs a previously saved conversation.
func (e *Engine) Resume(conv *types.Conversation) {
	e.conv = conv
	e.LastResponse = ""
}

// End clears the active conversation.
func (e *Engine) End() {
	e.conv = nil
	e.LastResponse = ""
}

// Current returns the question at the cursor, or nil when there is no
// active conversation or it is completed.
func (e *Engine) Current() *types.Question {
	if e.conv == nil || e.conv.Cursor >= len(e.conv.Questions) {
		return nil
	}
	return e.conv.Questions[e.conv.Cursor]
}

// Answer evaluates the player's response to the current question,
// records correctness, and advances the cursor. Multiple-choice input
// is a 1-based index; everything else is matched as free text.
func (e *Engine) Answer(input string) (Verdict, error) {
	if e.conv == nil {
		return Verdict{}, ErrNotStarted
	}
	if e.conv.Completed || e.conv.Cursor >= len(e.conv.Questions) {
		return Verdict{}, ErrCompleted
	}

	q := e.conv.Questions[e.conv.Cursor]
	var v Verdict

	switch q.Kind {
	case types.MultipleChoice:
		idx, err := strconv.Atoi(strings.TrimSpace(input))
		if err != nil || idx < 1 || idx > len(q.Answers) || e.IsEliminated(idx-1) {
			return Verdict{}, ErrInvalidChoice
		}
		a := q.Answers[idx-1]
		v.Correct = a.Correct
		v.Response = a.Response
		if a.Correct {
			v.Reward = a.RewardKnowledge
		}
	default:
		v.Correct = match.MatchesCase(input, q.Accepted, q.Match, q.CaseSensitive)
		if v.Correct {
			v.Response = q.CorrectResponse
			v.Reward = q.RewardKnowledge
		} else {
			v.Response = q.IncorrectResponse
		}
	}

	if v.Correct {
		e.conv.Correct++
	}
	e.conv.Cursor++
	e.conv.Eliminated = nil
	if e.conv.Cursor >= len(e.conv.Questions) {
		e.conv.Completed = true
	}

	v.Done = e.conv.Completed
	v.CorrectCount = e.conv.Correct
	v.Total = len(e.conv.Questions)
	e.LastResponse = v.Response
	return v, nil
}

// IsEliminated reports whether the 0-based answer index has been
// removed from the current question by a hint token.
func (e *Engine) IsEliminated(idx int) bool {
	if e.conv == nil {
		return false
	}
	for _, el := range e.conv.Eliminated {
		if el == idx {
			return true
		}
	}
	return false
}

// Eliminate removes one wrong answer from the current multiple-choice
// question, drawn from r among the wrong answers still standing, and
// returns its 0-based index. Fails with ErrNoEliminable when the
// question is not multiple choice or only the correct answer remains.
func (e *Engine) Eliminate(r *rng.RNG) (int, error) {
	if e.conv == nil {
		return 0, ErrNotStarted
	}
	q := e.Current()
	if q == nil {
		return 0, ErrCompleted
	}
	if q.Kind != types.MultipleChoice {
		return 0, ErrNoEliminable
	}

	var candidates []int
	for i, a := range q.Answers {
		if !a.Correct && !e.IsEliminated(i) {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return 0, ErrNoEliminable
	}
	idx := candidates[r.Intn(len(candidates))]
	e.conv.Eliminated = append(e.conv.Eliminated, idx)
	return idx, nil
}
