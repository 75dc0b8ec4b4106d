package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/neuraldive/types"
)

// collector accumulates Lua definitions during file execution.
type collector struct {
	content   *lua.LTable
	questions []rawQuestion
	npcs      []rawNPC
	terminals []rawTerminal
	floors    []rawFloor
}

// Load reads all .lua files from dir, compiles them into the content
// bundle, validates references, and returns the immutable Content.
// The Lua VM is discarded after loading.
func Load(dir string) (*types.Content, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading content directory %s: %w", dir, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".lua") {
			luaFiles = append(luaFiles, e.Name())
		}
	}
	if len(luaFiles) == 0 {
		return nil, fmt.Errorf("no .lua files found in %s", dir)
	}

	// content.lua first, rest alphabetical.
	luaFiles = sortedLuaFiles(luaFiles)

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()

	openSafeLibs(L)
	sandbox(L)

	coll := &collector{}
	registerAPI(L, coll)

	for _, f := range luaFiles {
		path := filepath.Join(dir, f)
		if err := L.DoFile(path); err != nil {
			return nil, fmt.Errorf("executing %s: %w", f, err)
		}
	}

	content, err := compile(coll)
	if err != nil {
		return nil, fmt.Errorf("compiling content: %w", err)
	}

	if err := validate(content); err != nil {
		return nil, err
	}

	return content, nil
}

// openSafeLibs opens only the safe subset of Lua standard libraries.
func openSafeLibs(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// sandbox removes dangerous globals and functions.
func sandbox(L *lua.LState) {
	dangerous := []string{
		"dofile", "loadfile", "load", "loadstring",
		"rawset", "rawget", "rawequal",
		"collectgarbage",
	}
	for _, name := range dangerous {
		L.SetGlobal(name, lua.LNil)
	}

	// Remove math.randomseed to preserve determinism.
	if mathTbl := L.GetGlobal("math"); mathTbl != lua.LNil {
		if tbl, ok := mathTbl.(*lua.LTable); ok {
			tbl.RawSetString("randomseed", lua.LNil)
		}
	}
}

// sortedLuaFiles returns .lua files with content.lua first and the
// rest sorted alphabetically.
func sortedLuaFiles(files []string) []string {
	var contentFile string
	var others []string
	for _, f := range files {
		if f == "content.lua" {
			contentFile = f
		} else {
			others = append(others, f)
		}
	}
	sort.Strings(others)
	if contentFile != "" {
		return append([]string{contentFile}, others...)
	}
	return others
}
