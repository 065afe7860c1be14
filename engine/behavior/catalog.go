package behavior

import (
	"fmt"
	"sort"
)

// Entry names one module a game wants active: which tier to resolve it in
// and its path.
type Entry struct {
	Tier Tier
	Path string
}

// Resolver produces the module for a catalog entry. Resolution failure of
// a declared module is fatal for the whole load: a missing module means
// the game's structural wiring is broken.
type Resolver func(tier Tier, path string) (*Module, error)

// Catalog is the frozen result of Load: the active modules in priority
// order, the hook declarations they carry, and load-time snapshots of
// which modules implement each event and which events are registered for
// global dispatch. Nothing in it changes after Load.
type Catalog struct {
	order        []string
	modules      map[string]*Module
	hooks        []HookDecl
	implementers map[string][]string
	globals      map[string][]string
	shadowed     []string
}

// Load resolves the entries into a catalog. Entries are ranked by tier
// (content over library over core), keeping their relative order within a
// tier. The first occurrence of a path wins wholesale: a module override
// replaces the entire bundle, never individual handlers. Later occurrences
// are recorded as shadowed so loaders can warn about them.
func Load(entries []Entry, resolve Resolver) (*Catalog, error) {
	if resolve == nil {
		resolve = NativeResolver
	}

	ranked := make([]Entry, len(entries))
	copy(ranked, entries)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Tier < ranked[j].Tier })

	c := &Catalog{
		modules:      map[string]*Module{},
		implementers: map[string][]string{},
		globals:      map[string][]string{},
	}

	// 1. Resolve each entry; first occurrence of a path wins.
	for _, entry := range ranked {
		if _, taken := c.modules[entry.Path]; taken {
			c.shadowed = append(c.shadowed, fmt.Sprintf("%s (%s)", entry.Path, entry.Tier))
			continue
		}
		m, err := resolve(entry.Tier, entry.Path)
		if err != nil {
			return nil, fmt.Errorf("resolving %s module %q: %w", entry.Tier, entry.Path, err)
		}
		if m.Path != entry.Path {
			return nil, fmt.Errorf("resolving %s module %q: resolver returned module %q", entry.Tier, entry.Path, m.Path)
		}
		c.modules[entry.Path] = m
		c.order = append(c.order, entry.Path)
	}

	// 2. Snapshot event implementers in catalog order.
	for _, path := range c.order {
		for eventName := range c.modules[path].Handlers {
			c.implementers[eventName] = append(c.implementers[eventName], path)
		}
	}
	for eventName := range c.implementers {
		sortByCatalogOrder(c.implementers[eventName], c.order)
	}

	// 3. Collect hook declarations. Each hook has exactly one owner, and an
	// event ties to at most one hook.
	hookOwner := map[string]string{}
	eventHook := map[string]string{}
	for _, path := range c.order {
		for _, h := range c.modules[path].Hooks {
			if h.ID == "" {
				return nil, fmt.Errorf("module %q declares a hook with no ID", path)
			}
			if h.Event == "" {
				return nil, fmt.Errorf("module %q hook %q has no event", path, h.ID)
			}
			if h.Invocation != InvokeGlobal && h.Invocation != InvokeEntity {
				return nil, fmt.Errorf("module %q hook %q has invalid invocation %q", path, h.ID, h.Invocation)
			}
			if owner, dup := hookOwner[h.ID]; dup {
				return nil, fmt.Errorf("hook %q declared by both %q and %q", h.ID, owner, path)
			}
			if other, dup := eventHook[h.Event]; dup {
				return nil, fmt.Errorf("event %q bound to hooks %q and %q", h.Event, other, h.ID)
			}
			hookOwner[h.ID] = path
			eventHook[h.Event] = h.ID
			c.hooks = append(c.hooks, h)
		}
	}

	// 4. Register events for global dispatch. Only a global-invocation hook
	// opens an event to the global path; registration is decided here, not
	// at runtime, so an event implemented purely for entity dispatch never
	// runs with a nil subject.
	for _, h := range c.hooks {
		if h.Invocation == InvokeGlobal {
			c.globals[h.Event] = c.implementers[h.Event]
		}
	}

	return c, nil
}

// sortByCatalogOrder sorts paths into the order they appear in the catalog.
// Handler map iteration is unordered, so the implementer lists need this to
// be deterministic.
func sortByCatalogOrder(paths []string, order []string) {
	rank := make(map[string]int, len(order))
	for i, p := range order {
		rank[p] = i
	}
	sort.Slice(paths, func(i, j int) bool { return rank[paths[i]] < rank[paths[j]] })
}

// Paths returns the module paths in priority order.
func (c *Catalog) Paths() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Module returns the module at a path.
func (c *Catalog) Module(path string) (*Module, bool) {
	m, ok := c.modules[path]
	return m, ok
}

// Len returns the number of active modules.
func (c *Catalog) Len() int {
	return len(c.order)
}

// Hooks returns the collected hook declarations in catalog order.
func (c *Catalog) Hooks() []HookDecl {
	out := make([]HookDecl, len(c.hooks))
	copy(out, c.hooks)
	return out
}

// Implementers returns the paths of modules handling the named event, in
// catalog order. Empty means no module in this catalog responds to it.
func (c *Catalog) Implementers(eventName string) []string {
	paths := c.implementers[eventName]
	out := make([]string, len(paths))
	copy(out, paths)
	return out
}

// Globals returns the modules registered for global dispatch of the named
// event, in catalog order. Registration comes only from a global-invocation
// hook declaration; an event without one gets an empty list no matter how
// many modules implement it.
func (c *Catalog) Globals(eventName string) []string {
	paths := c.globals[eventName]
	out := make([]string, len(paths))
	copy(out, paths)
	return out
}

// ImplementsAny reports whether any of the given module paths handles the
// named event. The scheduler uses this to skip entities a per-entity hook
// does not apply to.
func (c *Catalog) ImplementsAny(paths []string, eventName string) bool {
	for _, p := range paths {
		if m, ok := c.modules[p]; ok && m.Implements(eventName) {
			return true
		}
	}
	return false
}

// Command finds the highest-priority module implementing a verb, walking
// the catalog in order so content vocabulary overrides core vocabulary.
func (c *Catalog) Command(verb string) (CommandFunc, string, bool) {
	for _, path := range c.order {
		if fn, ok := c.modules[path].Commands[verb]; ok {
			return fn, path, true
		}
	}
	return nil, "", false
}

// Verbs returns every registered verb, sorted. A verb defined by more
// than one module appears once; Command decides which definition wins.
func (c *Catalog) Verbs() []string {
	seen := map[string]bool{}
	var out []string
	for _, path := range c.order {
		for verb := range c.modules[path].Commands {
			if !seen[verb] {
				seen[verb] = true
				out = append(out, verb)
			}
		}
	}
	sort.Strings(out)
	return out
}

// Shadowed lists entries that lost to a higher-priority occurrence of the
// same path, formatted as "path (tier)".
func (c *Catalog) Shadowed() []string {
	out := make([]string, len(c.shadowed))
	copy(out, c.shadowed)
	return out
}
