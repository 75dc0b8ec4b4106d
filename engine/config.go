package engine

import "github.com/rs/zerolog"

// Config is the immutable session configuration. The binary builds one
// from flags; everything else receives it by value.
type Config struct {
	Seed  int64
	Fixed bool // deterministic question order: take the pool as authored

	Width  int
	Height int

	StartCoherence    int
	MaxCoherence      int
	CorrectGain       int
	WrongPenalty      int
	EnemyWrongPenalty int
	HelperRestore     int

	QuestionsPerNPC int
	// DefeatThreshold is the correct-answer fraction at which a
	// completed conversation defeats the NPC. 1.0 requires a perfect
	// run; lower values are forgiving.
	DefeatThreshold float64

	Logger zerolog.Logger
}

// DefaultConfig returns the normal-difficulty tuning.
func DefaultConfig() Config {
	return Config{
		Width:             50,
		Height:            25,
		StartCoherence:    80,
		MaxCoherence:      100,
		CorrectGain:       8,
		WrongPenalty:      30,
		EnemyWrongPenalty: 45,
		HelperRestore:     15,
		QuestionsPerNPC:   3,
		DefeatThreshold:   1.0,
		Logger:            zerolog.Nop(),
	}
}
