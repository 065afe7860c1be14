// Package dispatch routes events to behavior modules and combines their
// results: the entity path walks the modules attached to the entity, the
// global path walks the modules the catalog registered for the event at
// load time.
package dispatch

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/okenna/fablecore/engine/behavior"
	"github.com/okenna/fablecore/engine/event"
	"github.com/okenna/fablecore/engine/script"
	"github.com/okenna/fablecore/engine/world"
)

// NoHandlerError reports an entity event none of the entity's attached
// modules implement. Misdirected events are authoring bugs, so the message
// names what the entity has and which modules would have handled it: the
// fix is either attaching the right module or renaming the handler.
type NoHandlerError struct {
	EntityID string
	Event    string
	Attached []string
	Known    []string
}

func (e *NoHandlerError) Error() string {
	attached := "none"
	if len(e.Attached) > 0 {
		attached = strings.Join(e.Attached, ", ")
	}
	known := "none"
	if len(e.Known) > 0 {
		known = strings.Join(e.Known, ", ")
	}
	return fmt.Sprintf("no handler for event %q on entity %q (attached: %s; implemented by: %s)",
		e.Event, e.EntityID, attached, known)
}

// hatchSuffix is the reserved property key suffix for per-entity handler
// overrides: an entity with `on_take_handler = "traps.lua:greedy"` runs
// that function instead of its modules' on_take handlers.
const hatchSuffix = "_handler"

// Dispatcher is the invocation primitive. It is stateless between calls;
// all simulation state travels through the accessor.
type Dispatcher struct {
	catalog *behavior.Catalog
	scripts *script.Host
	log     *slog.Logger
}

// New creates a dispatcher over a loaded catalog. scripts may be nil, which
// disables per-entity handler overrides.
func New(catalog *behavior.Catalog, scripts *script.Host, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{catalog: catalog, scripts: scripts, log: log}
}

var _ behavior.Invoker = (*Dispatcher)(nil)

// Invoke fires an event at an entity. Every attached module implementing
// the event runs in attachment order and the results are combined: allow
// is ANDed, feedback joined, context merged. If no attached module
// implements the event the returned error is a *NoHandlerError. A nil
// entity takes the global path.
func (d *Dispatcher) Invoke(e *world.Entity, eventName string, acc *world.Accessor, ctx *event.Context) (event.Result, error) {
	if e == nil {
		return d.InvokeGlobal(eventName, acc, ctx), nil
	}

	// 1. Collect the attached modules implementing this event, in
	// attachment order. Unknown paths were flagged at load; skip here.
	var mods []*behavior.Module
	for _, path := range e.Behaviors {
		m, ok := d.catalog.Module(path)
		if ok && m.Implements(eventName) {
			mods = append(mods, m)
		}
	}
	if len(mods) == 0 {
		return event.NoHandler, &NoHandlerError{
			EntityID: e.ID,
			Event:    eventName,
			Attached: append([]string(nil), e.Behaviors...),
			Known:    d.catalog.Implementers(eventName),
		}
	}

	// 2. An override on the entity substitutes for each implementing
	// module's handler. Resolved once per dispatch; a failed resolution
	// was already logged by the script host, fall back to the modules.
	var override behavior.HandlerFunc
	if ref := e.StringProp(eventName+hatchSuffix, ""); ref != "" && d.scripts != nil {
		if fn, err := d.scripts.ResolveHandler(ref, eventName); err == nil {
			override = fn
		}
	}

	// 3. Run and combine.
	results := make([]event.Result, 0, len(mods))
	for _, m := range mods {
		h := m.Handlers[eventName]
		if override != nil {
			h = override
		}
		results = append(results, h(e, acc, ctx))
	}
	return event.Combine(results), nil
}

// InvokeGlobal fires an event with no subject entity: every module the
// catalog registered for it at load runs in catalog order with a nil self.
// Registration comes from global-invocation hook declarations, so an event
// implemented only for entity dispatch never reaches handlers this way. An
// unregistered event is ignored, never an error; global events are
// broadcasts, not demands.
func (d *Dispatcher) InvokeGlobal(eventName string, acc *world.Accessor, ctx *event.Context) event.Result {
	paths := d.catalog.Globals(eventName)
	if len(paths) == 0 {
		return event.IgnoreEvent
	}
	results := make([]event.Result, 0, len(paths))
	for _, path := range paths {
		m, _ := d.catalog.Module(path)
		results = append(results, m.Handlers[eventName](nil, acc, ctx))
	}
	return event.Combine(results)
}
