// Package resolve maps the name words in a parsed intent to entity IDs.
package resolve

import (
	"fmt"
	"strings"

	"github.com/okenna/fablecore/engine/world"
	"github.com/okenna/fablecore/types"
)

// Result holds the entity IDs matched for an intent.
type Result struct {
	ObjectID string
	TargetID string
}

// AmbiguityError means several visible entities answer to the same name.
// The message doubles as player feedback.
type AmbiguityError struct {
	Name       string
	Candidates []string
}

func (e *AmbiguityError) Error() string {
	return fmt.Sprintf("Which %s? (%s)", e.Name, strings.Join(e.Candidates, ", "))
}

// Resolve fills in entity IDs for the object and target words of an
// intent. A word that matches nothing stays unresolved: directions and
// topics are legitimate bare-word objects, so absence is the verb's
// business, not the resolver's. Ambiguity is an error: no verb can guess
// which candidate was meant.
func Resolve(w *world.World, actor *world.Entity, intent types.Intent) (Result, error) {
	var res Result
	var err error

	if intent.Object != "" {
		res.ObjectID, err = resolveName(w, actor, intent.Object)
		if err != nil {
			return res, err
		}
	}
	if intent.Target != "" {
		res.TargetID, err = resolveName(w, actor, intent.Target)
		if err != nil {
			return res, err
		}
	}
	return res, nil
}

func resolveName(w *world.World, actor *world.Entity, name string) (string, error) {
	nameLower := strings.ToLower(name)

	if actor != nil && (nameLower == "me" || nameLower == "self") {
		return actor.ID, nil
	}

	// An exact entity ID wins outright.
	if _, ok := w.Get(name); ok {
		return name, nil
	}

	// Otherwise search what the actor can see, in world order so ambiguity
	// reports are stable.
	var matches []*world.Entity
	for _, e := range w.Entities() {
		if !visible(actor, e) {
			continue
		}
		if matchesName(e, nameLower) {
			matches = append(matches, e)
		}
	}

	switch len(matches) {
	case 0:
		return "", nil
	case 1:
		return matches[0].ID, nil
	default:
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = m.Name()
		}
		return "", &AmbiguityError{Name: name, Candidates: names}
	}
}

// visible reports whether the actor can refer to the entity: itself, the
// place it stands in, anything else in that place, and anything it carries.
func visible(actor, e *world.Entity) bool {
	if actor == nil {
		return true
	}
	if e.ID == actor.ID {
		return true
	}
	loc := actor.StringProp("location", "")
	if e.ID == loc {
		return true
	}
	eloc := e.StringProp("location", "")
	return eloc == loc || eloc == actor.ID
}

// matchesName checks the display name (exact or any single word), the
// aliases prop, and the ID with spaces normalized to underscores.
func matchesName(e *world.Entity, nameLower string) bool {
	n := strings.ToLower(e.Name())
	if n == nameLower {
		return true
	}
	for _, word := range strings.Fields(n) {
		if word == nameLower {
			return true
		}
	}
	if aliases, ok := e.Prop("aliases"); ok {
		if list, ok := aliases.([]any); ok {
			for _, a := range list {
				if s, ok := a.(string); ok && strings.ToLower(s) == nameLower {
					return true
				}
			}
		}
	}
	idLower := strings.ToLower(e.ID)
	if idLower == nameLower {
		return true
	}
	return strings.ReplaceAll(nameLower, " ", "_") == idLower
}
