// Package types defines the shared data structures for the Neural Dive engine.
// This package contains only type definitions — no logic, no methods.
package types

// Point is a grid coordinate. X grows right, Y grows down.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// QuestionKind discriminates question formats.
type QuestionKind string

const (
	MultipleChoice QuestionKind = "multiple_choice"
	ShortAnswer    QuestionKind = "short_answer"
	YesNo          QuestionKind = "yes_no"
)

// MatchType selects how a free-text answer is compared.
type MatchType string

const (
	MatchExact      MatchType = "exact"
	MatchNumeric    MatchType = "numeric"
	MatchComplexity MatchType = "complexity"
)

// NPCType is a closed set of NPC behavior variants.
type NPCType string

const (
	NPCSpecialist NPCType = "specialist"
	NPCHelper     NPCType = "helper"
	NPCEnemy      NPCType = "enemy"
)

// Answer is one option of a multiple-choice question.
type Answer struct {
	Text            string
	Correct         bool
	Response        string // NPC's response to this answer
	RewardKnowledge string // knowledge module gained if correct, optional
}

// Question is an immutable content record. Answers is populated for
// multiple-choice questions; the Accepted/Match/response fields drive
// short-answer and yes-no questions.
type Question struct {
	ID    string
	Topic string
	Text  string
	Kind  QuestionKind

	Answers []Answer

	Accepted          string // pipe-delimited alternatives, e.g. "O(n)|linear"
	Match             MatchType
	CaseSensitive     bool
	CorrectResponse   string
	IncorrectResponse string
	RewardKnowledge   string
}

// NPCDef is the static definition of an NPC from content.
type NPCDef struct {
	ID          string
	Name        string
	Floor       int
	Type        NPCType
	Required    bool // must be defeated before the floor's down stairs unlock
	Glyph       string
	Color       string
	Greeting    string
	QuestionIDs []string
}

// TerminalDef is the static definition of an info terminal.
type TerminalDef struct {
	ID       string
	Floor    int
	Title    string
	Content  []string
	Position *Point // authored position hint, optional
}

// FloorLayout is a designer-specified floor: a fixed tile grid plus
// entity position hints. Authored layouts take precedence over
// procedural generation.
type FloorLayout struct {
	Floor        int
	Rows         []string // '#' wall, anything else walkable
	PlayerStart  *Point
	StairsDown   *Point
	StairsUp     *Point
	NPCPositions map[string][]Point // NPC id → candidate positions
	Terminals    []Point            // consumed in terminal definition order
}

// Content is the immutable bundle produced by the content collaborator
// at session start. The core never mutates it.
type Content struct {
	ID        string // content-set identifier, checked on load
	Title     string
	Author    string
	Version   string
	Intro     string
	MaxFloors int
	Questions map[string]*Question
	NPCs      map[string]*NPCDef
	Terminals []*TerminalDef
	Layouts   map[int]*FloorLayout
}

// Entity is any placeable grid object.
type Entity struct {
	Pos   Point
	Glyph string
	Color string
	Name  string
}

// NPC is the runtime state of one NPC on the current floor.
type NPC struct {
	Def    *NPCDef
	Entity Entity

	// Wander state.
	Home         Point
	Wandering    bool // false = idle
	StateTicks   int  // ticks until the idle/wander state flips
	MoveCooldown int
}

// Conversation is the ephemeral question/answer state for one NPC
// interaction. Once Cursor == len(Questions) the conversation is
// completed and immutable.
type Conversation struct {
	NPCID     string
	Questions []*Question
	Cursor    int
	Correct   int
	Completed bool

	// Eliminated holds answer indexes of the current question removed
	// by hint tokens. Cleared whenever the cursor advances.
	Eliminated []int
}

// Outcome is the structured result of a GameState operation. Expected
// gameplay rejections set OK=false with a user-facing reason; they are
// never surfaced as errors.
type Outcome struct {
	OK      bool
	Message string

	GameOver     bool // command rejected because the session already ended
	FloorChanged bool
	Won          bool
	Lost         bool
}
