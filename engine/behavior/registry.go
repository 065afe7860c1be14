package behavior

import (
	"fmt"
	"sort"
	"sync"
)

// Tier ranks module origins. Lower values take priority: a content module
// replaces a library module at the same path, which replaces a core module.
type Tier int

const (
	TierContent Tier = iota // the game's own modules
	TierLibrary             // shared libraries layered between game and core
	TierCore                // engine defaults
)

func (t Tier) String() string {
	switch t {
	case TierContent:
		return "content"
	case TierLibrary:
		return "library"
	case TierCore:
		return "core"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

var registry = struct {
	sync.Mutex
	modules map[Tier]map[string]*Module
}{
	modules: map[Tier]map[string]*Module{},
}

// Register adds a native module to a tier. It is meant to be called from
// package init functions, in the manner of database/sql drivers, and
// panics on misuse: a nil module, an empty path, or a path already
// registered in the same tier are all programmer errors.
func Register(tier Tier, m *Module) {
	registry.Lock()
	defer registry.Unlock()

	if m == nil {
		panic("behavior: Register called with nil module")
	}
	if m.Path == "" {
		panic("behavior: Register called with empty module path")
	}
	if _, dup := registry.modules[tier][m.Path]; dup {
		panic(fmt.Sprintf("behavior: Register called twice for %s module %q", tier, m.Path))
	}
	if registry.modules[tier] == nil {
		registry.modules[tier] = map[string]*Module{}
	}
	registry.modules[tier][m.Path] = m
}

// Registered returns the paths registered in a tier, sorted for a stable
// default activation order.
func Registered(tier Tier) []string {
	registry.Lock()
	defer registry.Unlock()

	paths := make([]string, 0, len(registry.modules[tier]))
	for p := range registry.modules[tier] {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// lookupNative finds a registered module by tier and path.
func lookupNative(tier Tier, path string) (*Module, bool) {
	registry.Lock()
	defer registry.Unlock()

	m, ok := registry.modules[tier][path]
	return m, ok
}

// NativeResolver resolves catalog entries against the native registry.
// It is the default resolver for Load; loaders that compile script modules
// layer their own resolver on top and fall back to this one.
func NativeResolver(tier Tier, path string) (*Module, error) {
	m, ok := lookupNative(tier, path)
	if !ok {
		return nil, fmt.Errorf("no %s module registered at %q", tier, path)
	}
	return m, nil
}
