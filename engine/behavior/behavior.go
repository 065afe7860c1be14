// Package behavior defines capability modules, the reusable bundles of
// event handlers, verbs, and turn-phase hooks that entities attach, and
// the tiered catalog they are resolved through at load time.
package behavior

import (
	"github.com/okenna/fablecore/engine/event"
	"github.com/okenna/fablecore/engine/world"
	"github.com/okenna/fablecore/types"
)

// HandlerFunc responds to an event dispatched at an entity. self is nil for
// global dispatch. Handlers always return a fully formed Result: decline
// with event.IgnoreEvent, never with a partial value.
type HandlerFunc func(self *world.Entity, acc *world.Accessor, ctx *event.Context) event.Result

// CommandFunc implements a verb. Commands usually turn the intent into one
// or more event dispatches through the Invoker; a dispatch that finds no
// implementing module on the target surfaces here as an error.
type CommandFunc func(inv Invoker, acc *world.Accessor, intent types.Intent) (event.Result, error)

// Invocation says how a turn-phase hook runs: once globally, or once per
// entity that implements the hook's event.
type Invocation string

const (
	InvokeGlobal Invocation = "global"
	InvokeEntity Invocation = "entity"
)

// HookDecl declares a turn phase owned by a module. Before and After name
// other hook IDs and constrain the schedule order; the IDs may belong to
// hooks declared by other modules.
type HookDecl struct {
	ID         string
	Event      string
	Invocation Invocation
	Before     []string
	After      []string
}

// Module is a named capability bundle. Modules are immutable once loaded:
// the catalog hands out the same value for the whole run.
type Module struct {
	Path     string
	Handlers map[string]HandlerFunc
	Commands map[string]CommandFunc
	Hooks    []HookDecl
}

// Implements reports whether the module handles the named event.
func (m *Module) Implements(eventName string) bool {
	_, ok := m.Handlers[eventName]
	return ok
}

// Invoker dispatches events. The dispatcher implements it; commands receive
// it so vocabulary can fire events without depending on the dispatch
// package.
type Invoker interface {
	// Invoke dispatches an event at an entity. A nil entity routes to the
	// global path. The error is non-nil only when an entity-targeted event
	// finds no implementing module among the entity's behaviors.
	Invoke(e *world.Entity, eventName string, acc *world.Accessor, ctx *event.Context) (event.Result, error)

	// InvokeGlobal dispatches on the global path. Events nothing registered
	// for yield the IgnoreEvent sentinel, never an error.
	InvokeGlobal(eventName string, acc *world.Accessor, ctx *event.Context) event.Result
}
