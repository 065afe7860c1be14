package script

import (
	"fmt"
	"path/filepath"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/okenna/fablecore/engine/behavior"
)

// hatchEntry caches the outcome of resolving one handler ref. Failures are
// cached too, so a broken ref warns once per resolution attempt instead of
// re-reading the file every turn.
type hatchEntry struct {
	fn  *lua.LFunction
	err error
}

// ResolveHandler resolves an entity's handler override, a ref of the form
// "file.lua:function_name" relative to the game directory. The file runs
// once into the shared interpreter state; later refs into the same file
// reuse its globals.
func (h *Host) ResolveHandler(ref, eventName string) (behavior.HandlerFunc, error) {
	entry, ok := h.hatches[ref]
	if !ok {
		entry = h.resolveRef(ref)
		if entry.err != nil {
			h.log.Warn("handler override failed", "ref", ref, "err", entry.err)
		}
		h.hatches[ref] = entry
	}
	if entry.err != nil {
		return nil, entry.err
	}
	return h.wrapHandler(eventName, entry.fn), nil
}

func (h *Host) resolveRef(ref string) hatchEntry {
	file, fnName, ok := strings.Cut(ref, ":")
	if !ok || file == "" || fnName == "" || !strings.HasSuffix(file, ".lua") {
		return hatchEntry{err: fmt.Errorf("invalid handler ref %q (want \"file.lua:function\")", ref)}
	}
	if !h.loaded[file] {
		if err := h.L.DoFile(filepath.Join(h.root, file)); err != nil {
			return hatchEntry{err: fmt.Errorf("loading %s: %w", file, err)}
		}
		h.loaded[file] = true
	}
	fn, ok := h.L.GetGlobal(fnName).(*lua.LFunction)
	if !ok {
		return hatchEntry{err: fmt.Errorf("function %q not found in %s", fnName, file)}
	}
	return hatchEntry{fn: fn}
}
