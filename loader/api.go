package loader

import (
	lua "github.com/yuin/gopher-lua"
)

// registerAPI registers all Lua constructors and helpers as globals.
func registerAPI(L *lua.LState, coll *collector) {
	// Content { id = "...", title = "...", ... }
	L.SetGlobal("Content", L.NewFunction(func(L *lua.LState) int {
		tbl := L.CheckTable(1)
		coll.content = tbl
		return 0
	}))

	// Question "id" { ... } — curried: Question("id") returns a
	// function that takes a table.
	L.SetGlobal("Question", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			tbl := L.CheckTable(1)
			coll.questions = append(coll.questions, rawQuestion{id: id, table: tbl})
			return 0
		}))
		return 1
	}))

	// NPC "id" { ... } — curried.
	L.SetGlobal("NPC", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			tbl := L.CheckTable(1)
			coll.npcs = append(coll.npcs, rawNPC{id: id, table: tbl})
			return 0
		}))
		return 1
	}))

	// Terminal "id" { ... } — curried.
	L.SetGlobal("Terminal", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			tbl := L.CheckTable(1)
			coll.terminals = append(coll.terminals, rawTerminal{id: id, table: tbl})
			return 0
		}))
		return 1
	}))

	// Floor(n) { ... } — curried on the floor number.
	L.SetGlobal("Floor", L.NewFunction(func(L *lua.LState) int {
		number := L.CheckInt(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			tbl := L.CheckTable(1)
			coll.floors = append(coll.floors, rawFloor{number: number, table: tbl})
			return 0
		}))
		return 1
	}))

	// Pos(x, y) → {x = ..., y = ...}
	L.SetGlobal("Pos", L.NewFunction(func(L *lua.LState) int {
		x := L.CheckInt(1)
		y := L.CheckInt(2)
		tbl := L.NewTable()
		tbl.RawSetString("x", lua.LNumber(x))
		tbl.RawSetString("y", lua.LNumber(y))
		L.Push(tbl)
		return 1
	}))

	// Choice("text", "response") — a wrong multiple-choice option.
	L.SetGlobal("Choice", L.NewFunction(func(L *lua.LState) int {
		text := L.CheckString(1)
		response := L.OptString(2, "")
		tbl := L.NewTable()
		tbl.RawSetString("text", lua.LString(text))
		tbl.RawSetString("correct", lua.LFalse)
		tbl.RawSetString("response", lua.LString(response))
		L.Push(tbl)
		return 1
	}))

	// Correct("text", "response", "reward") — the right option;
	// response and reward are optional.
	L.SetGlobal("Correct", L.NewFunction(func(L *lua.LState) int {
		text := L.CheckString(1)
		response := L.OptString(2, "")
		reward := L.OptString(3, "")
		tbl := L.NewTable()
		tbl.RawSetString("text", lua.LString(text))
		tbl.RawSetString("correct", lua.LTrue)
		tbl.RawSetString("response", lua.LString(response))
		tbl.RawSetString("reward", lua.LString(reward))
		L.Push(tbl)
		return 1
	}))
}
