// Package loader loads Lua content files into the immutable Content
// bundle. The Lua VM is discarded after loading — zero Lua at runtime.
package loader

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/neuraldive/types"
)

// rawQuestion holds a question table before compilation.
type rawQuestion struct {
	id    string
	table *lua.LTable
}

// rawNPC holds an NPC table before compilation.
type rawNPC struct {
	id    string
	table *lua.LTable
}

// rawTerminal holds a terminal table before compilation.
type rawTerminal struct {
	id    string
	table *lua.LTable
}

// rawFloor holds an authored floor layout before compilation.
type rawFloor struct {
	number int
	table  *lua.LTable
}

// getString returns a string field from a Lua table, or "" if missing.
func getString(tbl *lua.LTable, key string) string {
	v := tbl.RawGetString(key)
	if s, ok := v.(lua.LString); ok {
		return string(s)
	}
	return ""
}

// getBool returns a bool field from a Lua table, or the default if missing.
func getBool(tbl *lua.LTable, key string, def bool) bool {
	v := tbl.RawGetString(key)
	if b, ok := v.(lua.LBool); ok {
		return bool(b)
	}
	return def
}

// getInt returns an int field from a Lua table, or 0 if missing.
func getInt(tbl *lua.LTable, key string) int {
	v := tbl.RawGetString(key)
	if n, ok := v.(lua.LNumber); ok {
		return int(n)
	}
	return 0
}

// getTable returns a table field from a Lua table, or nil if missing.
func getTable(tbl *lua.LTable, key string) *lua.LTable {
	v := tbl.RawGetString(key)
	if t, ok := v.(*lua.LTable); ok {
		return t
	}
	return nil
}

// getStrings returns an array field as a string slice.
func getStrings(tbl *lua.LTable, key string) []string {
	arr := getTable(tbl, key)
	if arr == nil {
		return nil
	}
	var out []string
	for i := 1; i <= arr.MaxN(); i++ {
		if s, ok := arr.RawGetInt(i).(lua.LString); ok {
			out = append(out, string(s))
		}
	}
	return out
}

// getPoint converts a Pos(x, y) table field, or nil if missing.
func getPoint(tbl *lua.LTable, key string) *types.Point {
	pt := getTable(tbl, key)
	if pt == nil {
		return nil
	}
	return &types.Point{X: getInt(pt, "x"), Y: getInt(pt, "y")}
}

// compile converts all collected Lua data into a Content bundle.
func compile(coll *collector) (*types.Content, error) {
	if coll.content == nil {
		return nil, fmt.Errorf("no Content{} definition found")
	}
	content := &types.Content{
		ID:        getString(coll.content, "id"),
		Title:     getString(coll.content, "title"),
		Author:    getString(coll.content, "author"),
		Version:   getString(coll.content, "version"),
		Intro:     getString(coll.content, "intro"),
		MaxFloors: getInt(coll.content, "max_floors"),
		Questions: map[string]*types.Question{},
		NPCs:      map[string]*types.NPCDef{},
		Layouts:   map[int]*types.FloorLayout{},
	}

	for _, raw := range coll.questions {
		q, err := compileQuestion(raw)
		if err != nil {
			return nil, fmt.Errorf("compiling question %s: %w", raw.id, err)
		}
		if _, dup := content.Questions[q.ID]; dup {
			return nil, fmt.Errorf("duplicate question ID %q", q.ID)
		}
		content.Questions[q.ID] = q
	}

	for _, raw := range coll.npcs {
		n := compileNPC(raw)
		if _, dup := content.NPCs[n.ID]; dup {
			return nil, fmt.Errorf("duplicate NPC ID %q", n.ID)
		}
		content.NPCs[n.ID] = n
	}

	for _, raw := range coll.terminals {
		content.Terminals = append(content.Terminals, compileTerminal(raw))
	}

	for _, raw := range coll.floors {
		if _, dup := content.Layouts[raw.number]; dup {
			return nil, fmt.Errorf("duplicate layout for floor %d", raw.number)
		}
		content.Layouts[raw.number] = compileFloor(raw)
	}

	return content, nil
}

func compileQuestion(raw rawQuestion) (*types.Question, error) {
	tbl := raw.table
	q := &types.Question{
		ID:                raw.id,
		Topic:             getString(tbl, "topic"),
		Text:              getString(tbl, "text"),
		Kind:              types.QuestionKind(getString(tbl, "kind")),
		Accepted:          getString(tbl, "accepted"),
		Match:             types.MatchType(getString(tbl, "match")),
		CaseSensitive:     getBool(tbl, "case_sensitive", false),
		CorrectResponse:   getString(tbl, "correct_response"),
		IncorrectResponse: getString(tbl, "incorrect_response"),
		RewardKnowledge:   getString(tbl, "reward"),
	}
	if q.Kind == "" {
		q.Kind = types.ShortAnswer
	}
	if q.Match == "" {
		q.Match = types.MatchExact
	}

	if answers := getTable(tbl, "answers"); answers != nil {
		for i := 1; i <= answers.MaxN(); i++ {
			aTbl, ok := answers.RawGetInt(i).(*lua.LTable)
			if !ok {
				return nil, fmt.Errorf("answer %d is not a Choice/Correct entry", i)
			}
			q.Answers = append(q.Answers, types.Answer{
				Text:            getString(aTbl, "text"),
				Correct:         getBool(aTbl, "correct", false),
				Response:        getString(aTbl, "response"),
				RewardKnowledge: getString(aTbl, "reward"),
			})
		}
	}
	return q, nil
}

func compileNPC(raw rawNPC) *types.NPCDef {
	tbl := raw.table
	n := &types.NPCDef{
		ID:          raw.id,
		Name:        getString(tbl, "name"),
		Floor:       getInt(tbl, "floor"),
		Type:        types.NPCType(getString(tbl, "type")),
		Required:    getBool(tbl, "required", false),
		Glyph:       getString(tbl, "glyph"),
		Color:       getString(tbl, "color"),
		Greeting:    getString(tbl, "greeting"),
		QuestionIDs: getStrings(tbl, "questions"),
	}
	if n.Type == "" {
		n.Type = types.NPCSpecialist
	}
	if n.Name == "" {
		n.Name = n.ID
	}
	if n.Glyph == "" {
		n.Glyph = string([]rune(n.Name)[0:1])
	}
	return n
}

func compileTerminal(raw rawTerminal) *types.TerminalDef {
	tbl := raw.table
	return &types.TerminalDef{
		ID:       raw.id,
		Floor:    getInt(tbl, "floor"),
		Title:    getString(tbl, "title"),
		Content:  getStrings(tbl, "content"),
		Position: getPoint(tbl, "position"),
	}
}

func compileFloor(raw rawFloor) *types.FloorLayout {
	tbl := raw.table
	layout := &types.FloorLayout{
		Floor:       raw.number,
		Rows:        getStrings(tbl, "rows"),
		PlayerStart: getPoint(tbl, "player_start"),
		StairsDown:  getPoint(tbl, "stairs_down"),
		StairsUp:    getPoint(tbl, "stairs_up"),
	}

	if npcs := getTable(tbl, "npcs"); npcs != nil {
		layout.NPCPositions = map[string][]types.Point{}
		npcs.ForEach(func(k, v lua.LValue) {
			id, ok := k.(lua.LString)
			if !ok {
				return
			}
			arr, ok := v.(*lua.LTable)
			if !ok {
				return
			}
			var pts []types.Point
			for i := 1; i <= arr.MaxN(); i++ {
				if pt, ok := arr.RawGetInt(i).(*lua.LTable); ok {
					pts = append(pts, types.Point{X: getInt(pt, "x"), Y: getInt(pt, "y")})
				}
			}
			layout.NPCPositions[string(id)] = pts
		})
	}

	if terms := getTable(tbl, "terminals"); terms != nil {
		for i := 1; i <= terms.MaxN(); i++ {
			if pt, ok := terms.RawGetInt(i).(*lua.LTable); ok {
				layout.Terminals = append(layout.Terminals, types.Point{X: getInt(pt, "x"), Y: getInt(pt, "y")})
			}
		}
	}

	return layout
}
