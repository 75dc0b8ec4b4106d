package save

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/nathoo/neuraldive/engine/npc"
	"github.com/nathoo/neuraldive/types"
)

func testSnapshot() *Snapshot {
	return &Snapshot{
		ContentID: "neural-dive-core",
		SessionID: "7d4f9c2e-0000-0000-0000-000000000000",
		Seed:      42,
		RNGPos:    137,
		Floor:     2,
		Player: PlayerState{
			Coherence:    65,
			MaxCoherence: 100,
			Knowledge:    []string{"binary_search", "hashing"},
			Hints:        2,
			Answered:     9,
			Correct:      7,
			Defeated:     2,
		},
		PlayerPos: types.Point{X: 12, Y: 8},
		Pickups:   []types.Point{{X: 3, Y: 6}},
		NPCHistory: map[string]*npc.Record{
			"ALGO": {Defeated: true, Opinion: 2},
		},
		Roster: map[string]npc.State{
			"CACHE": {Pos: types.Point{X: 20, Y: 4}, Wandering: true, StateTicks: 3},
		},
		Conversation: &ConversationState{
			NPCID:       "CACHE",
			QuestionIDs: []string{"q_hash_1", "q_hash_2", "q_hash_3"},
			Cursor:      1,
			Correct:     1,
			Eliminated:  []int{2},
		},
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "save.json")
	if err := Write(path, testSnapshot()); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := Read(path, "neural-dive-core")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Version != Version {
		t.Errorf("version = %d, want %d", got.Version, Version)
	}
	if got.Seed != 42 || got.RNGPos != 137 || got.Floor != 2 {
		t.Errorf("session fields = %d/%d/%d", got.Seed, got.RNGPos, got.Floor)
	}
	if got.Player.Coherence != 65 || len(got.Player.Knowledge) != 2 || got.Player.Hints != 2 {
		t.Errorf("player = %+v", got.Player)
	}
	if len(got.Pickups) != 1 || got.Pickups[0] != (types.Point{X: 3, Y: 6}) {
		t.Errorf("pickups = %v", got.Pickups)
	}
	if !got.NPCHistory["ALGO"].Defeated || got.NPCHistory["ALGO"].Opinion != 2 {
		t.Errorf("history = %+v", got.NPCHistory["ALGO"])
	}
	if got.Conversation == nil || got.Conversation.Cursor != 1 {
		t.Errorf("conversation = %+v", got.Conversation)
	}
	if len(got.Conversation.Eliminated) != 1 || got.Conversation.Eliminated[0] != 2 {
		t.Errorf("eliminated = %v", got.Conversation.Eliminated)
	}
	if got.SavedAt.IsZero() {
		t.Error("SavedAt not stamped")
	}
}

func TestWrite_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "save.json")
	if err := Write(path, testSnapshot()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("save missing: %v", err)
	}
}

func TestWrite_ReplacesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "save.json")
	first := testSnapshot()
	if err := Write(path, first); err != nil {
		t.Fatalf("Write: %v", err)
	}
	second := testSnapshot()
	second.Floor = 3
	if err := Write(path, second); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(path, "")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Floor != 3 {
		t.Errorf("floor = %d, want 3", got.Floor)
	}
}

func TestRead_WrongContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "save.json")
	if err := Write(path, testSnapshot()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	_, err := Read(path, "another-set")
	if !errors.Is(err, ErrWrongContent) {
		t.Fatalf("err = %v, want ErrWrongContent", err)
	}
}

func TestRead_FutureVersionRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "save.json")
	if err := os.WriteFile(path, []byte(`{"version": 99, "content_id": "x"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Read(path, "")
	if !errors.Is(err, ErrIncompatible) {
		t.Fatalf("err = %v, want ErrIncompatible", err)
	}
}

func TestRead_Garbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "save.json")
	if err := os.WriteFile(path, []byte("not json at all"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Read(path, ""); err == nil {
		t.Error("garbage accepted")
	}
}

func TestRead_FillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "save.json")
	raw := `{"version": 1, "content_id": "x", "seed": 1, "player": {"coherence": 250}}`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := Read(path, "x")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Player.MaxCoherence != 100 {
		t.Errorf("MaxCoherence = %d, want default 100", got.Player.MaxCoherence)
	}
	if got.Player.Coherence != 100 {
		t.Errorf("Coherence = %d, want clamped 100", got.Player.Coherence)
	}
	if got.Floor != 1 {
		t.Errorf("Floor = %d, want default 1", got.Floor)
	}
	if got.NPCHistory == nil || got.Roster == nil {
		t.Error("nil maps not repaired")
	}
}
