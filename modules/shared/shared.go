// Package shared registers library-tier capability modules: reusable
// behaviors games opt into without owning, sitting between a game's own
// content and the engine core.
package shared

import (
	"fmt"

	"github.com/okenna/fablecore/engine/behavior"
	"github.com/okenna/fablecore/engine/event"
	"github.com/okenna/fablecore/engine/world"
)

func init() {
	behavior.Register(behavior.TierLibrary, wandererModule())
	behavior.Register(behavior.TierLibrary, weatherModule())
}

// wandererModule makes an entity drift between places on its own turn
// phase. Attaching the module is the opt-in; the phase runs after upkeep.
func wandererModule() *behavior.Module {
	return &behavior.Module{
		Path: "lib/wanderer",
		Handlers: map[string]behavior.HandlerFunc{
			"npc_turn": wander,
		},
		Hooks: []behavior.HookDecl{
			{ID: "npc_roam", Event: "npc_turn", Invocation: behavior.InvokeEntity, After: []string{"upkeep"}},
		},
	}
}

func wander(self *world.Entity, acc *world.Accessor, ctx *event.Context) event.Result {
	if acc.Roll(3) != 1 {
		return event.IgnoreEvent
	}
	place, ok := acc.Entity(self.StringProp("location", ""))
	if !ok {
		return event.IgnoreEvent
	}
	dirs := place.Exits()
	if len(dirs) == 0 {
		return event.IgnoreEvent
	}
	dir := dirs[acc.Roll(len(dirs))-1]
	self.SetProp("location", place.Exit(dir))

	// Only narrate departures the actor can see.
	if ctx != nil && ctx.Actor != "" {
		if actor, ok := acc.Entity(ctx.Actor); ok && actor.StringProp("location", "") == place.ID {
			return event.Allow(fmt.Sprintf("The %s wanders %s.", self.Name(), dir))
		}
	}
	return event.Result{Allow: true}
}

// weatherModule runs a global phase before upkeep: an occasional flavor
// line, and a working example of a global hook for content to schedule
// against.
func weatherModule() *behavior.Module {
	return &behavior.Module{
		Path: "lib/weather",
		Handlers: map[string]behavior.HandlerFunc{
			"weather": weatherTick,
		},
		Hooks: []behavior.HookDecl{
			{ID: "weather_tick", Event: "weather", Invocation: behavior.InvokeGlobal, Before: []string{"upkeep"}},
		},
	}
}

func weatherTick(self *world.Entity, acc *world.Accessor, ctx *event.Context) event.Result {
	if acc.Roll(6) == 6 {
		return event.Allow("Rain patters on the roof.")
	}
	return event.IgnoreEvent
}
