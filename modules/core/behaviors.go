package core

import (
	"fmt"

	"github.com/okenna/fablecore/engine/behavior"
	"github.com/okenna/fablecore/engine/event"
	"github.com/okenna/fablecore/engine/world"
)

// beingModule gives entities hit points. Everything is duck typed off the
// property bag: no hp prop means damage and healing pass the entity by.
func beingModule() *behavior.Module {
	return &behavior.Module{
		Path: "core/being",
		Handlers: map[string]behavior.HandlerFunc{
			"on_damage": beingDamage,
			"on_heal":   beingHeal,
		},
	}
}

func beingDamage(self *world.Entity, acc *world.Accessor, ctx *event.Context) event.Result {
	if _, ok := self.Prop("hp"); !ok {
		return event.IgnoreEvent
	}
	if self.BoolProp("invulnerable", false) {
		return event.Deny(fmt.Sprintf("Nothing seems to harm the %s.", self.Name()))
	}
	amount := ctx.Int("amount", 1)
	hp := self.IntProp("hp", 0) - amount
	self.SetProp("hp", hp)
	if hp <= 0 {
		self.SetProp("dead", true)
		return event.Allow(fmt.Sprintf("The %s is destroyed.", self.Name()))
	}
	return event.Allow(fmt.Sprintf("The %s takes %d damage.", self.Name(), amount))
}

func beingHeal(self *world.Entity, acc *world.Accessor, ctx *event.Context) event.Result {
	if _, ok := self.Prop("hp"); !ok {
		return event.IgnoreEvent
	}
	hp := self.IntProp("hp", 0) + ctx.Int("amount", 1)
	if max := self.IntProp("max_hp", 0); max > 0 && hp > max {
		hp = max
	}
	self.SetProp("hp", hp)
	return event.Allow(fmt.Sprintf("The %s looks healthier.", self.Name()))
}

// portableModule answers take and drop permission. The actual move is the
// verb's job once every attached module has had its say; handlers here only
// veto or wave through, so a denial from any module leaves the entity
// where it was.
func portableModule() *behavior.Module {
	return &behavior.Module{
		Path: "core/portable",
		Handlers: map[string]behavior.HandlerFunc{
			"on_take": portableTake,
			"on_drop": portableDrop,
		},
	}
}

func portableTake(self *world.Entity, acc *world.Accessor, ctx *event.Context) event.Result {
	if self.BoolProp("fixed", false) {
		return event.Deny(fmt.Sprintf("The %s won't budge.", self.Name()))
	}
	return event.Result{Allow: true}
}

func portableDrop(self *world.Entity, acc *world.Accessor, ctx *event.Context) event.Result {
	return event.Result{Allow: true}
}

// visibleModule answers examine with the description prop.
func visibleModule() *behavior.Module {
	return &behavior.Module{
		Path: "core/visible",
		Handlers: map[string]behavior.HandlerFunc{
			"on_examine": visibleExamine,
		},
	}
}

func visibleExamine(self *world.Entity, acc *world.Accessor, ctx *event.Context) event.Result {
	desc := self.StringProp("description", "")
	if desc == "" {
		return event.Allow(fmt.Sprintf("You see nothing special about the %s.", self.Name()))
	}
	return event.Allow(desc)
}

// scheduleModule owns the upkeep turn phase: per-entity housekeeping that
// runs after every command. Its one concern is burning fuel on lit things.
func scheduleModule() *behavior.Module {
	return &behavior.Module{
		Path: "core/schedule",
		Handlers: map[string]behavior.HandlerFunc{
			"upkeep": scheduleUpkeep,
		},
		Hooks: []behavior.HookDecl{
			{ID: "upkeep", Event: "upkeep", Invocation: behavior.InvokeEntity},
		},
	}
}

func scheduleUpkeep(self *world.Entity, acc *world.Accessor, ctx *event.Context) event.Result {
	if !self.BoolProp("lit", false) {
		return event.IgnoreEvent
	}
	if _, ok := self.Prop("fuel"); !ok {
		// No fuel prop means it burns forever.
		return event.IgnoreEvent
	}
	fuel := self.IntProp("fuel", 0) - 1
	self.SetProp("fuel", fuel)
	if fuel <= 0 {
		self.SetProp("lit", false)
		return event.Allow(fmt.Sprintf("The %s gutters out.", self.Name()))
	}
	return event.Result{Allow: true}
}
