// Package world manages the mutable simulation state: entities, their
// property bags, and the accessor handed to behavior handlers.
package world

import (
	"fmt"
	"sort"
)

// Entity is a single simulation object. Behaviors lists the capability
// module paths attached to it, in declaration order; that order is also
// the dispatch order. Props is the free-form property bag; behavior is duck
// typed off its contents.
type Entity struct {
	ID        string
	Behaviors []string
	Props     map[string]any
}

// NewEntity creates an entity with an empty property bag.
func NewEntity(id string, behaviors ...string) *Entity {
	return &Entity{ID: id, Behaviors: behaviors, Props: map[string]any{}}
}

// Prop returns a property value and whether it was present.
func (e *Entity) Prop(key string) (any, bool) {
	v, ok := e.Props[key]
	return v, ok
}

// SetProp sets a property, allocating the bag if needed.
func (e *Entity) SetProp(key string, value any) {
	if e.Props == nil {
		e.Props = map[string]any{}
	}
	e.Props[key] = value
}

// StringProp returns a string property, or def if missing or not a string.
func (e *Entity) StringProp(key, def string) string {
	if s, ok := e.Props[key].(string); ok {
		return s
	}
	return def
}

// IntProp returns an integer property, or def if missing. JSON numbers
// decode as float64, so those are accepted too.
func (e *Entity) IntProp(key string, def int) int {
	switch v := e.Props[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}

// BoolProp returns a boolean property, or def if missing or not a bool.
func (e *Entity) BoolProp(key string, def bool) bool {
	if b, ok := e.Props[key].(bool); ok {
		return b
	}
	return def
}

// HasBehavior reports whether the module path is attached to this entity.
func (e *Entity) HasBehavior(path string) bool {
	for _, p := range e.Behaviors {
		if p == path {
			return true
		}
	}
	return false
}

// Name returns the display name: the name prop if set, the ID otherwise.
func (e *Entity) Name() string {
	return e.StringProp("name", e.ID)
}

// Exits returns the sorted direction names of the exits prop, a map from
// direction to destination entity ID.
func (e *Entity) Exits() []string {
	m, ok := e.Props["exits"].(map[string]any)
	if !ok {
		return nil
	}
	dirs := make([]string, 0, len(m))
	for d := range m {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	return dirs
}

// Exit returns the destination entity ID for a direction, or "".
func (e *Entity) Exit(direction string) string {
	m, ok := e.Props["exits"].(map[string]any)
	if !ok {
		return ""
	}
	dest, _ := m[direction].(string)
	return dest
}

// World holds all entities, keyed by ID, with stable insertion order so
// per-entity hook invocation is deterministic.
type World struct {
	entities map[string]*Entity
	order    []string
}

// New creates an empty world.
func New() *World {
	return &World{entities: map[string]*Entity{}}
}

// Add inserts an entity. Adding a duplicate ID is an error: records must
// be unique and runtime spawns pick fresh IDs.
func (w *World) Add(e *Entity) error {
	if e.ID == "" {
		return fmt.Errorf("entity has no ID")
	}
	if _, exists := w.entities[e.ID]; exists {
		return fmt.Errorf("duplicate entity ID %q", e.ID)
	}
	w.entities[e.ID] = e
	w.order = append(w.order, e.ID)
	return nil
}

// Get returns the entity with the given ID.
func (w *World) Get(id string) (*Entity, bool) {
	e, ok := w.entities[id]
	return e, ok
}

// Remove deletes an entity. Removing an unknown ID is a no-op.
func (w *World) Remove(id string) {
	if _, ok := w.entities[id]; !ok {
		return
	}
	delete(w.entities, id)
	for i, oid := range w.order {
		if oid == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
}

// IDs returns all entity IDs in insertion order.
func (w *World) IDs() []string {
	ids := make([]string, len(w.order))
	copy(ids, w.order)
	return ids
}

// Entities returns all entities in insertion order.
func (w *World) Entities() []*Entity {
	result := make([]*Entity, 0, len(w.order))
	for _, id := range w.order {
		result = append(result, w.entities[id])
	}
	return result
}

// Len returns the number of entities.
func (w *World) Len() int {
	return len(w.order)
}

// At returns the entities whose location prop equals the given ID: the
// contents of a place, or what an actor is carrying.
func (w *World) At(locationID string) []*Entity {
	var result []*Entity
	for _, id := range w.order {
		e := w.entities[id]
		if e.StringProp("location", "") == locationID {
			result = append(result, e)
		}
	}
	return result
}

// Accessor is the explicit handle handlers receive for reading and
// mutating the simulation. No ambient state: everything a handler may
// touch arrives through this.
type Accessor struct {
	World *World
	RNG   *RNG
}

// Entity looks up an entity by ID.
func (a *Accessor) Entity(id string) (*Entity, bool) {
	return a.World.Get(id)
}

// Roll returns a random integer in [1, sides] from the deterministic RNG.
func (a *Accessor) Roll(sides int) int {
	return a.RNG.Roll(sides)
}

// Weighted picks an index with probability proportional to its weight,
// drawn from the deterministic RNG.
func (a *Accessor) Weighted(weights []int) int {
	return a.RNG.WeightedSelect(weights)
}
