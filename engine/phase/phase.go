// Package phase orders turn-phase hooks into a fixed schedule. The order
// is computed once at load from the hooks' before/after constraints;
// every turn then walks the same frozen sequence.
package phase

import (
	"fmt"
	"sort"
	"strings"

	"github.com/okenna/fablecore/engine/behavior"
)

// CycleError reports a dependency cycle among hook declarations. Path
// holds the hook IDs around the cycle, ending where it starts.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return "hook cycle: " + strings.Join(e.Path, " -> ")
}

// Schedule is the frozen hook sequence for a run.
type Schedule struct {
	hooks []behavior.HookDecl
}

// Hooks returns the scheduled hooks in execution order.
func (s *Schedule) Hooks() []behavior.HookDecl {
	out := make([]behavior.HookDecl, len(s.hooks))
	copy(out, s.hooks)
	return out
}

// Len returns the number of scheduled hooks.
func (s *Schedule) Len() int {
	return len(s.hooks)
}

// Build computes the canonical execution order for the given hooks.
// "before" and "after" constraints become edges; Kahn's algorithm sorts
// them, breaking ties alphabetically by hook ID so the same declarations
// always produce the same schedule. Constraints naming unknown hooks and
// dependency cycles are load errors.
func Build(hooks []behavior.HookDecl) (*Schedule, error) {
	byID := make(map[string]behavior.HookDecl, len(hooks))
	for _, h := range hooks {
		if _, dup := byID[h.ID]; dup {
			return nil, fmt.Errorf("duplicate hook ID %q", h.ID)
		}
		byID[h.ID] = h
	}

	// 1. Build the edge set: an edge a -> b means a runs before b.
	succ := make(map[string][]string, len(hooks))
	indegree := make(map[string]int, len(hooks))
	for _, h := range hooks {
		indegree[h.ID] = 0
	}
	addEdge := func(from, to string) {
		succ[from] = append(succ[from], to)
		indegree[to]++
	}
	for _, h := range hooks {
		for _, target := range h.Before {
			if _, ok := byID[target]; !ok {
				return nil, fmt.Errorf("hook %q is before unknown hook %q", h.ID, target)
			}
			addEdge(h.ID, target)
		}
		for _, target := range h.After {
			if _, ok := byID[target]; !ok {
				return nil, fmt.Errorf("hook %q is after unknown hook %q", h.ID, target)
			}
			addEdge(target, h.ID)
		}
	}

	// 2. Kahn's algorithm with an alphabetical ready list. Picking the
	// smallest ready ID each round makes the order canonical.
	var ready []string
	for id, deg := range indegree {
		if deg == 0 {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)

	ordered := make([]behavior.HookDecl, 0, len(hooks))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		ordered = append(ordered, byID[id])

		var freed []string
		for _, next := range succ[id] {
			indegree[next]--
			if indegree[next] == 0 {
				freed = append(freed, next)
			}
		}
		if len(freed) > 0 {
			ready = append(ready, freed...)
			sort.Strings(ready)
		}
	}

	// 3. Anything not ordered sits on a cycle.
	if len(ordered) < len(hooks) {
		return nil, &CycleError{Path: findCycle(succ, indegree)}
	}

	return &Schedule{hooks: ordered}, nil
}

// findCycle extracts one cycle from the leftover nodes (indegree > 0).
// Every leftover node keeps at least one leftover predecessor (Kahn
// removed all edges from processed nodes), so walking predecessors must
// revisit a node, closing a cycle. Predecessors are tried in sorted order
// and the walk starts at the smallest leftover ID, keeping the report
// stable.
func findCycle(succ map[string][]string, indegree map[string]int) []string {
	remaining := map[string]bool{}
	var start string
	for id, deg := range indegree {
		if deg > 0 {
			remaining[id] = true
			if start == "" || id < start {
				start = id
			}
		}
	}

	pred := map[string][]string{}
	for from, tos := range succ {
		if !remaining[from] {
			continue
		}
		for _, to := range tos {
			if remaining[to] {
				pred[to] = append(pred[to], from)
			}
		}
	}
	for id := range pred {
		sort.Strings(pred[id])
	}

	seen := map[string]int{}
	var path []string
	cur := start
	for {
		if at, ok := seen[cur]; ok {
			cycle := append([]string(nil), path[at:]...)
			cycle = append(cycle, cur)
			// The walk followed edges backwards; reverse for display.
			for i, j := 0, len(cycle)-1; i < j; i, j = i+1, j-1 {
				cycle[i], cycle[j] = cycle[j], cycle[i]
			}
			return cycle
		}
		seen[cur] = len(path)
		path = append(path, cur)
		cur = pred[cur][0]
	}
}
