package convo

import (
	"errors"
	"fmt"
	"testing"

	"github.com/nathoo/neuraldive/engine/rng"
	"github.com/nathoo/neuraldive/types"
)

func testNPC() *types.NPCDef {
	return &types.NPCDef{ID: "ALGO_SPIRIT", Name: "Algo Spirit", Floor: 1, Type: types.NPCSpecialist}
}

func mcQuestion(id string) *types.Question {
	return &types.Question{
		ID:   id,
		Kind: types.MultipleChoice,
		Text: "Which traversal visits children before the root?",
		Answers: []types.Answer{
			{Text: "Pre-order", Correct: false, Response: "Pre-order visits the root first."},
			{Text: "Post-order", Correct: true, Response: "Right.", RewardKnowledge: "traversals"},
			{Text: "Level-order", Correct: false, Response: "That goes breadth-first."},
		},
	}
}

func shortQuestion(id string) *types.Question {
	return &types.Question{
		ID:              id,
		Kind:            types.ShortAnswer,
		Text:            "Complexity of binary search?",
		Accepted:        "O(log n)|logarithmic",
		Match:           types.MatchComplexity,
		CorrectResponse: "Exactly.",
		IncorrectResponse: "Think about halving.",
		RewardKnowledge: "binary_search",
	}
}

func pool(n int) []*types.Question {
	var qs []*types.Question
	for i := 0; i < n; i++ {
		qs = append(qs, mcQuestion(fmt.Sprintf("q%d", i)))
	}
	return qs
}

func TestStart_InsufficientContent(t *testing.T) {
	var e Engine
	err := e.Start(testNPC(), pool(2), 3, rng.New(1), false)
	if !errors.Is(err, ErrInsufficientContent) {
		t.Fatalf("err = %v, want ErrInsufficientContent", err)
	}
	if e.Active() {
		t.Error("failed Start must not activate a conversation")
	}
}

func TestStart_PoolOrderWithoutShuffle(t *testing.T) {
	var e Engine
	p := pool(5)
	if err := e.Start(testNPC(), p, 3, rng.New(1), false); err != nil {
		t.Fatalf("Start: %v", err)
	}
	conv := e.Conversation()
	for i := 0; i < 3; i++ {
		if conv.Questions[i] != p[i] {
			t.Fatalf("question %d is %s, want pool order", i, conv.Questions[i].ID)
		}
	}
}

func TestStart_SeededShuffleDeterministic(t *testing.T) {
	sel := func() []string {
		var e Engine
		if err := e.Start(testNPC(), pool(8), 3, rng.New(42), true); err != nil {
			t.Fatalf("Start: %v", err)
		}
		var ids []string
		for _, q := range e.Conversation().Questions {
			ids = append(ids, q.ID)
		}
		return ids
	}
	a, b := sel(), sel()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("selections diverged: %v vs %v", a, b)
		}
	}
	seen := map[string]bool{}
	for _, id := range a {
		if seen[id] {
			t.Fatalf("duplicate question %s selected", id)
		}
		seen[id] = true
	}
}

func TestAnswer_WithoutStart(t *testing.T) {
	var e Engine
	if _, err := e.Answer("1"); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("err = %v, want ErrNotStarted", err)
	}
}

func TestAnswer_MultipleChoice(t *testing.T) {
	var e Engine
	if err := e.Start(testNPC(), pool(3), 3, rng.New(1), false); err != nil {
		t.Fatalf("Start: %v", err)
	}

	v, err := e.Answer("2")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if !v.Correct {
		t.Error("option 2 should be correct")
	}
	if v.Reward != "traversals" {
		t.Errorf("reward = %q, want traversals", v.Reward)
	}
	if v.Done {
		t.Error("conversation should not be done after 1 of 3")
	}

	v, err = e.Answer("1")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if v.Correct {
		t.Error("option 1 should be wrong")
	}
	if v.Reward != "" {
		t.Error("wrong answers must not carry a reward")
	}

	v, err = e.Answer("2")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if !v.Done {
		t.Error("conversation should be done after 3 of 3")
	}
	if v.CorrectCount != 2 || v.Total != 3 {
		t.Errorf("tally = %d/%d, want 2/3", v.CorrectCount, v.Total)
	}
}

func TestAnswer_InvalidChoiceDoesNotAdvance(t *testing.T) {
	var e Engine
	if err := e.Start(testNPC(), pool(3), 3, rng.New(1), false); err != nil {
		t.Fatalf("Start: %v", err)
	}
	for _, input := range []string{"0", "4", "abc", ""} {
		if _, err := e.Answer(input); !errors.Is(err, ErrInvalidChoice) {
			t.Fatalf("input %q: err = %v, want ErrInvalidChoice", input, err)
		}
	}
	if e.Conversation().Cursor != 0 {
		t.Errorf("cursor = %d, want 0 after rejected inputs", e.Conversation().Cursor)
	}
	if e.Conversation().Correct != 0 {
		t.Error("correct count mutated by rejected input")
	}
}

func TestAnswer_ShortAnswerViaMatcher(t *testing.T) {
	var e Engine
	qs := []*types.Question{shortQuestion("s1")}
	if err := e.Start(testNPC(), qs, 1, rng.New(1), false); err != nil {
		t.Fatalf("Start: %v", err)
	}
	v, err := e.Answer("O(log n)")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if !v.Correct {
		t.Error("O(log n) should match")
	}
	if v.Response != "Exactly." {
		t.Errorf("response = %q", v.Response)
	}
	if v.Reward != "binary_search" {
		t.Errorf("reward = %q", v.Reward)
	}
	if !v.Done {
		t.Error("single-question conversation should complete")
	}
}

func TestAnswer_AfterCompletedRejectedWithoutMutation(t *testing.T) {
	var e Engine
	if err := e.Start(testNPC(), pool(1), 1, rng.New(1), false); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := e.Answer("2"); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	correct := e.Conversation().Correct

	if _, err := e.Answer("2"); !errors.Is(err, ErrCompleted) {
		t.Fatalf("err = %v, want ErrCompleted", err)
	}
	if e.Conversation().Correct != correct {
		t.Error("correct count mutated after completion")
	}
}

func TestCurrent_NilWhenCompleted(t *testing.T) {
	var e Engine
	if e.Current() != nil {
		t.Error("Current should be nil before Start")
	}
	if err := e.Start(testNPC(), pool(1), 1, rng.New(1), false); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if e.Current() == nil {
		t.Error("Current should return the first question")
	}
	if _, err := e.Answer("2"); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if e.Current() != nil {
		t.Error("Current should be nil after completion")
	}
}

func TestEliminate_RemovesWrongAnswerOnly(t *testing.T) {
	var e Engine
	if err := e.Start(testNPC(), pool(1), 1, rng.New(7), false); err != nil {
		t.Fatalf("Start: %v", err)
	}

	first, err := e.Eliminate(rng.New(7))
	if err != nil {
		t.Fatalf("Eliminate: %v", err)
	}
	if first == 1 {
		t.Fatal("eliminated the correct answer")
	}
	if !e.IsEliminated(first) {
		t.Errorf("index %d not marked eliminated", first)
	}

	second, err := e.Eliminate(rng.New(7))
	if err != nil {
		t.Fatalf("second Eliminate: %v", err)
	}
	if second == 1 || second == first {
		t.Fatalf("second elimination picked %d (first %d)", second, first)
	}

	// Only the correct answer remains.
	if _, err := e.Eliminate(rng.New(7)); !errors.Is(err, ErrNoEliminable) {
		t.Fatalf("err = %v, want ErrNoEliminable", err)
	}
}

func TestEliminate_BlocksAnswerAndClearsOnAdvance(t *testing.T) {
	var e Engine
	if err := e.Start(testNPC(), pool(2), 2, rng.New(1), false); err != nil {
		t.Fatalf("Start: %v", err)
	}
	idx, err := e.Eliminate(rng.New(1))
	if err != nil {
		t.Fatalf("Eliminate: %v", err)
	}

	if _, err := e.Answer(fmt.Sprint(idx + 1)); !errors.Is(err, ErrInvalidChoice) {
		t.Fatalf("eliminated choice accepted: err = %v", err)
	}
	if e.Conversation().Cursor != 0 {
		t.Error("rejected eliminated choice advanced the cursor")
	}

	if _, err := e.Answer("2"); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if len(e.Conversation().Eliminated) != 0 {
		t.Error("eliminations must reset when the cursor advances")
	}
	if e.IsEliminated(idx) {
		t.Error("stale elimination survives into the next question")
	}
}

func TestEliminate_ShortAnswerRejected(t *testing.T) {
	var e Engine
	if err := e.Start(testNPC(), []*types.Question{shortQuestion("s1")}, 1, rng.New(1), false); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := e.Eliminate(rng.New(1)); !errors.Is(err, ErrNoEliminable) {
		t.Fatalf("err = %v, want ErrNoEliminable", err)
	}
}

func TestEndClearsState(t *testing.T) {
	var e Engine
	if err := e.Start(testNPC(), pool(3), 3, rng.New(1), false); err != nil {
		t.Fatalf("Start: %v", err)
	}
	e.End()
	if e.Active() || e.Conversation() != nil {
		t.Error("End should clear the conversation")
	}
}
