package script

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/okenna/fablecore/engine/behavior"
)

// rawModule is a Module declaration captured during chunk execution,
// before compilation.
type rawModule struct {
	path string
	tbl  *lua.LTable
	file string
}

// registerModuleConstructor installs the curried Module constructor:
//
//	Module "tavern/cursed" {
//	    handlers = { on_take = function(self, acc, ctx) ... end },
//	    verbs    = { pray = function(game, intent) ... end },
//	    hooks    = { { id = "curse_tick", event = "upkeep", invocation = "entity" } },
//	}
//
// The first call takes the module path and returns a function that takes
// the definition table, so declarations read as a single statement.
func (h *Host) registerModuleConstructor() {
	h.L.SetGlobal("Module", h.L.NewFunction(func(L *lua.LState) int {
		path := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			tbl := L.CheckTable(1)
			h.collected = append(h.collected, rawModule{path: path, tbl: tbl, file: h.currentFile})
			return 0
		}))
		return 1
	}))
}

// LoadModules executes every .lua file in dir (sorted by name) and compiles
// the Module declarations they make. A missing directory means the game
// ships no scripted modules and is not an error.
func (h *Host) LoadModules(dir string) ([]*behavior.Module, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading module dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".lua") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	h.collected = nil
	for _, name := range files {
		h.currentFile = name
		if err := h.L.DoFile(filepath.Join(dir, name)); err != nil {
			return nil, fmt.Errorf("executing %s: %w", name, err)
		}
	}
	h.currentFile = ""

	seen := map[string]string{}
	var mods []*behavior.Module
	for _, raw := range h.collected {
		if prev, ok := seen[raw.path]; ok {
			return nil, fmt.Errorf("module %q defined twice (in %s and %s)", raw.path, prev, raw.file)
		}
		seen[raw.path] = raw.file
		m, err := h.compileModule(raw)
		if err != nil {
			return nil, fmt.Errorf("compiling module %q in %s: %w", raw.path, raw.file, err)
		}
		mods = append(mods, m)
	}
	return mods, nil
}

// compileModule turns a captured declaration table into a behavior module.
func (h *Host) compileModule(raw rawModule) (*behavior.Module, error) {
	m := &behavior.Module{Path: raw.path}

	if handlers := getTable(raw.tbl, "handlers"); handlers != nil {
		m.Handlers = map[string]behavior.HandlerFunc{}
		var compileErr error
		handlers.ForEach(func(k, v lua.LValue) {
			key, ok := k.(lua.LString)
			if !ok {
				return
			}
			fn, ok := v.(*lua.LFunction)
			if !ok {
				compileErr = fmt.Errorf("handler %s is not a function", key)
				return
			}
			m.Handlers[string(key)] = h.wrapHandler(string(key), fn)
		})
		if compileErr != nil {
			return nil, compileErr
		}
	}

	if verbs := getTable(raw.tbl, "verbs"); verbs != nil {
		m.Commands = map[string]behavior.CommandFunc{}
		var compileErr error
		verbs.ForEach(func(k, v lua.LValue) {
			key, ok := k.(lua.LString)
			if !ok {
				return
			}
			fn, ok := v.(*lua.LFunction)
			if !ok {
				compileErr = fmt.Errorf("verb %s is not a function", key)
				return
			}
			m.Commands[string(key)] = h.wrapCommand(raw.path, string(key), fn)
		})
		if compileErr != nil {
			return nil, compileErr
		}
	}

	if hooks := getTable(raw.tbl, "hooks"); hooks != nil {
		for i := 1; i <= hooks.MaxN(); i++ {
			decl, ok := hooks.RawGetInt(i).(*lua.LTable)
			if !ok {
				return nil, fmt.Errorf("hook %d is not a table", i)
			}
			hd := behavior.HookDecl{
				ID:         getString(decl, "id"),
				Event:      getString(decl, "event"),
				Invocation: behavior.Invocation(getString(decl, "invocation")),
				Before:     tableToStringList(getTable(decl, "before")),
				After:      tableToStringList(getTable(decl, "after")),
			}
			if hd.Invocation == "" {
				hd.Invocation = behavior.InvokeGlobal
			}
			m.Hooks = append(m.Hooks, hd)
		}
	}

	return m, nil
}
