// Package save persists and restores session snapshots as versioned
// JSON. A snapshot records the seed, the RNG stream position, and all
// session state that procedural regeneration cannot recover.
package save

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nathoo/neuraldive/engine/npc"
	"github.com/nathoo/neuraldive/types"
)

// Version is the snapshot schema version. Readers reject anything
// newer than they understand.
const Version = 1

var (
	ErrIncompatible = errors.New("incompatible save file")
	ErrWrongContent = errors.New("save belongs to a different content set")
)

// PlayerState is the persisted portion of the player manager.
type PlayerState struct {
	Coherence    int      `json:"coherence"`
	MaxCoherence int      `json:"max_coherence"`
	Knowledge    []string `json:"knowledge"`
	Hints        int      `json:"hints,omitempty"`
	Answered     int      `json:"answered"`
	Correct      int      `json:"correct"`
	Defeated     int      `json:"defeated"`
}

// ConversationState persists an open conversation by question ID so it
// can be resumed against the same content set.
type ConversationState struct {
	NPCID       string   `json:"npc_id"`
	QuestionIDs []string `json:"question_ids"`
	Cursor      int      `json:"cursor"`
	Correct     int      `json:"correct"`
	Eliminated  []int    `json:"eliminated,omitempty"`
}

// Snapshot is the complete saved session.
type Snapshot struct {
	Version   int       `json:"version"`
	SavedAt   time.Time `json:"saved_at"`
	ContentID string    `json:"content_id"`
	SessionID string    `json:"session_id"`

	Seed   int64 `json:"seed"`
	RNGPos int64 `json:"rng_pos"`
	Floor  int   `json:"floor"`

	Player       PlayerState            `json:"player"`
	PlayerPos    types.Point            `json:"player_pos"`
	Pickups      []types.Point          `json:"pickups"`
	NPCHistory   map[string]*npc.Record `json:"npc_history"`
	Roster       map[string]npc.State   `json:"roster"`
	Conversation *ConversationState     `json:"conversation,omitempty"`

	Won  bool `json:"won"`
	Lost bool `json:"lost"`
}

// Write marshals the snapshot and writes it atomically: a temp file in
// the target directory, then a rename. A crash mid-save leaves the old
// file intact.
func Write(path string, s *Snapshot) error {
	s.Version = Version
	s.SavedAt = time.Now().UTC()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode save: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create save dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".save-*")
	if err != nil {
		return fmt.Errorf("create temp save: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write save: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close save: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

// Read loads and validates a snapshot. contentID must match the loaded
// content set; pass "" to skip the check.
func Read(path, contentID string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read save: %w", err)
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode save: %w", err)
	}
	if s.Version < 1 || s.Version > Version {
		return nil, fmt.Errorf("%w: version %d", ErrIncompatible, s.Version)
	}
	if contentID != "" && s.ContentID != contentID {
		return nil, fmt.Errorf("%w: save is for %q", ErrWrongContent, s.ContentID)
	}
	fillDefaults(&s)
	return &s, nil
}

// fillDefaults repairs fields older or hand-edited saves may omit.
func fillDefaults(s *Snapshot) {
	if s.Player.MaxCoherence <= 0 {
		s.Player.MaxCoherence = 100
	}
	if s.Player.Coherence > s.Player.MaxCoherence {
		s.Player.Coherence = s.Player.MaxCoherence
	}
	if s.Floor < 1 {
		s.Floor = 1
	}
	if s.NPCHistory == nil {
		s.NPCHistory = make(map[string]*npc.Record)
	}
	if s.Roster == nil {
		s.Roster = make(map[string]npc.State)
	}
}
