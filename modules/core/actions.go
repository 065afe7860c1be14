package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/okenna/fablecore/engine/behavior"
	"github.com/okenna/fablecore/engine/dispatch"
	"github.com/okenna/fablecore/engine/event"
	"github.com/okenna/fablecore/engine/world"
	"github.com/okenna/fablecore/types"
)

// actionsModule is the standard verb vocabulary. Verbs fire events through
// the dispatcher so that every module attached to the object gets a say;
// a NoHandlerError here means the player aimed a verb at something that
// simply doesn't do that, which is feedback, not a fault.
func actionsModule() *behavior.Module {
	return &behavior.Module{
		Path: "core/actions",
		Commands: map[string]behavior.CommandFunc{
			"take":      takeCmd,
			"drop":      dropCmd,
			"examine":   examineCmd,
			"look":      lookCmd,
			"go":        goCmd,
			"inventory": inventoryCmd,
			"wait":      waitCmd,
		},
	}
}

func takeCmd(inv behavior.Invoker, acc *world.Accessor, intent types.Intent) (event.Result, error) {
	if intent.Object == "" {
		return event.Deny("Take what?"), nil
	}
	obj, ok := acc.Entity(intent.ObjectID)
	if !ok {
		return event.Deny(fmt.Sprintf("You don't see any %s here.", intent.Object)), nil
	}
	if obj.StringProp("location", "") == intent.Actor {
		return event.Deny(fmt.Sprintf("You're already carrying the %s.", obj.Name())), nil
	}

	r, err := inv.Invoke(obj, "on_take", acc, &event.Context{Verb: "take", Actor: intent.Actor, Object: obj.ID})
	var nh *dispatch.NoHandlerError
	if errors.As(err, &nh) {
		return event.Deny(fmt.Sprintf("You can't take the %s.", obj.Name())), nil
	}
	if err != nil {
		return event.NoHandler, err
	}
	// Nothing spoke for the object, so it does not move.
	if r.Ignored() {
		return event.Deny(fmt.Sprintf("You can't take the %s.", obj.Name())), nil
	}
	if !r.Allow {
		return r, nil
	}
	obj.SetProp("location", intent.Actor)
	return event.Allow(joinFeedback(r.Feedback, "Taken.")), nil
}

func dropCmd(inv behavior.Invoker, acc *world.Accessor, intent types.Intent) (event.Result, error) {
	if intent.Object == "" {
		return event.Deny("Drop what?"), nil
	}
	obj, ok := acc.Entity(intent.ObjectID)
	if !ok || obj.StringProp("location", "") != intent.Actor {
		return event.Deny(fmt.Sprintf("You're not carrying any %s.", intent.Object)), nil
	}

	r, err := inv.Invoke(obj, "on_drop", acc, &event.Context{Verb: "drop", Actor: intent.Actor, Object: obj.ID})
	var nh *dispatch.NoHandlerError
	if errors.As(err, &nh) {
		return event.Deny(fmt.Sprintf("You can't drop the %s.", obj.Name())), nil
	}
	if err != nil {
		return event.NoHandler, err
	}
	if r.Ignored() {
		return event.Deny(fmt.Sprintf("You can't drop the %s.", obj.Name())), nil
	}
	if !r.Allow {
		return r, nil
	}

	actor, ok := acc.Entity(intent.Actor)
	if !ok {
		return event.Deny("You have nowhere to drop it."), nil
	}
	obj.SetProp("location", actor.StringProp("location", ""))
	return event.Allow(joinFeedback(r.Feedback, "Dropped.")), nil
}

func examineCmd(inv behavior.Invoker, acc *world.Accessor, intent types.Intent) (event.Result, error) {
	if intent.Object == "" {
		return event.Deny("Examine what?"), nil
	}
	obj, ok := acc.Entity(intent.ObjectID)
	if !ok {
		return event.Deny(fmt.Sprintf("You don't see any %s here.", intent.Object)), nil
	}

	r, err := inv.Invoke(obj, "on_examine", acc, &event.Context{Verb: "examine", Actor: intent.Actor, Object: obj.ID})
	var nh *dispatch.NoHandlerError
	if errors.As(err, &nh) {
		return event.Allow("You see nothing special."), nil
	}
	if err != nil {
		return event.NoHandler, err
	}
	if r.Ignored() {
		return event.Allow("You see nothing special."), nil
	}
	return r, nil
}

func lookCmd(inv behavior.Invoker, acc *world.Accessor, intent types.Intent) (event.Result, error) {
	actor, ok := acc.Entity(intent.Actor)
	if !ok {
		return event.Deny("You are nowhere."), nil
	}
	desc, err := describePlace(inv, acc, actor.ID, actor.StringProp("location", ""))
	if err != nil {
		return event.NoHandler, err
	}
	return event.Allow(desc), nil
}

func goCmd(inv behavior.Invoker, acc *world.Accessor, intent types.Intent) (event.Result, error) {
	if intent.Object == "" {
		return event.Deny("Go where?"), nil
	}
	actor, ok := acc.Entity(intent.Actor)
	if !ok {
		return event.Deny("You are nowhere."), nil
	}
	place, ok := acc.Entity(actor.StringProp("location", ""))
	if !ok {
		return event.Deny("You are nowhere."), nil
	}
	dest := place.Exit(intent.Object)
	if dest == "" {
		return event.Deny(fmt.Sprintf("You can't go %s.", intent.Object)), nil
	}
	actor.SetProp("location", dest)
	desc, err := describePlace(inv, acc, actor.ID, dest)
	if err != nil {
		return event.NoHandler, err
	}
	return event.Allow(desc), nil
}

func inventoryCmd(inv behavior.Invoker, acc *world.Accessor, intent types.Intent) (event.Result, error) {
	var names []string
	for _, e := range acc.World.At(intent.Actor) {
		names = append(names, e.Name())
	}
	if len(names) == 0 {
		return event.Allow("You are carrying nothing."), nil
	}
	return event.Allow("You are carrying: " + strings.Join(names, ", ") + "."), nil
}

func waitCmd(inv behavior.Invoker, acc *world.Accessor, intent types.Intent) (event.Result, error) {
	return event.Allow("Time passes."), nil
}

// describePlace renders a place the way look and go show it: name,
// examine feedback, contents, exits.
func describePlace(inv behavior.Invoker, acc *world.Accessor, actorID, placeID string) (string, error) {
	place, ok := acc.Entity(placeID)
	if !ok {
		return "You are nowhere.", nil
	}

	var b strings.Builder
	b.WriteString(place.Name())

	r, err := inv.Invoke(place, "on_examine", acc, &event.Context{Verb: "look", Actor: actorID, Object: placeID})
	var nh *dispatch.NoHandlerError
	if err != nil && !errors.As(err, &nh) {
		return "", err
	}
	if err == nil && r.Responded() && r.Feedback != "" {
		b.WriteString("\n" + r.Feedback)
	}

	var names []string
	for _, e := range acc.World.At(placeID) {
		if e.ID == actorID {
			continue
		}
		names = append(names, e.Name())
	}
	if len(names) > 0 {
		b.WriteString("\nYou see: " + strings.Join(names, ", ") + ".")
	}
	if dirs := place.Exits(); len(dirs) > 0 {
		b.WriteString("\nExits: " + strings.Join(dirs, ", ") + ".")
	}
	return b.String(), nil
}

func joinFeedback(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n")
}
