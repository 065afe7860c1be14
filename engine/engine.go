// Package engine provides the Step() orchestrator that wires together
// parsing, resolution, command dispatch, and the turn-phase schedule
// into a single turn.
package engine

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/okenna/fablecore/engine/behavior"
	"github.com/okenna/fablecore/engine/dispatch"
	"github.com/okenna/fablecore/engine/event"
	"github.com/okenna/fablecore/engine/parser"
	"github.com/okenna/fablecore/engine/phase"
	"github.com/okenna/fablecore/engine/resolve"
	"github.com/okenna/fablecore/engine/save"
	"github.com/okenna/fablecore/engine/script"
	"github.com/okenna/fablecore/engine/world"
	"github.com/okenna/fablecore/types"
)

// Config carries everything a loaded game hands the engine.
type Config struct {
	Info     types.GameInfo
	Catalog  *behavior.Catalog
	Schedule *phase.Schedule
	World    *world.World
	Scripts  *script.Host // optional; enables per-entity handler overrides
	Seed     int64
	Logger   *slog.Logger
}

// Turn is the outcome of one Step: player-facing output in order, a trace
// of what ran, and a fatal error if the turn aborted partway.
type Turn struct {
	Output []string
	Trace  []string
	Err    error
}

// Engine holds the frozen game wiring and the mutable run state.
type Engine struct {
	Info     types.GameInfo
	Catalog  *behavior.Catalog
	Schedule *phase.Schedule
	World    *world.World
	RNG      *world.RNG

	TurnCount  int
	CommandLog []string

	dispatcher *dispatch.Dispatcher
	log        *slog.Logger
}

// New creates an engine from a loaded game.
func New(cfg Config) *Engine {
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{
		Info:       cfg.Info,
		Catalog:    cfg.Catalog,
		Schedule:   cfg.Schedule,
		World:      cfg.World,
		RNG:        world.NewRNG(cfg.Seed),
		dispatcher: dispatch.New(cfg.Catalog, cfg.Scripts, log),
		log:        log,
	}
}

// Step processes one player command and returns the completed turn.
func (e *Engine) Step(input string) Turn {
	var turn Turn
	acc := &world.Accessor{World: e.World, RNG: e.RNG}

	// 1. Parse input.
	intent := parser.Parse(input)
	if intent.Verb == "" {
		turn.Output = append(turn.Output, "What do you want to do?")
		return turn
	}

	// 2. Log the command; replaying the log replays the run.
	e.CommandLog = append(e.CommandLog, input)
	intent.Actor = e.Info.Player

	// 3. Resolve names to entity IDs. Absence stays soft (directions and
	// topics are legitimate bare words); ambiguity is a question back to
	// the player and stops the turn before anything runs.
	res, err := resolve.Resolve(e.World, e.actor(), intent)
	if err != nil {
		turn.Output = append(turn.Output, err.Error())
		e.TurnCount++
		return turn
	}
	intent.ObjectID, intent.TargetID = res.ObjectID, res.TargetID

	// 4. Find the verb in the catalog, priority order. Content modules can
	// shadow core verbs wholesale, so "take" may well be someone else's.
	cmd, owner, ok := e.Catalog.Command(intent.Verb)
	if !ok {
		turn.Output = append(turn.Output, fmt.Sprintf("You don't know how to %s.", intent.Verb))
		e.TurnCount++
		return turn
	}
	turn.Trace = append(turn.Trace, fmt.Sprintf("command %s (%s)", intent.Verb, owner))

	// 5. Run the command. An error here is a fault in the game's wiring,
	// not player feedback; it aborts the turn.
	r, err := cmd(e.dispatcher, acc, intent)
	if err != nil {
		e.log.Error("command failed", "verb", intent.Verb, "err", err)
		turn.Err = err
		return turn
	}
	if r.Feedback != "" {
		turn.Output = append(turn.Output, r.Feedback)
	}

	// 6. Walk the phase schedule.
	if err := e.runPhases(&turn, acc, intent.Verb); err != nil {
		turn.Err = err
		return turn
	}

	// 7. Turn complete.
	e.TurnCount++
	return turn
}

// runPhases walks the frozen schedule: global hooks dispatch exactly once,
// entity hooks dispatch once per implementing entity in world order.
// Pre-filtering to implementing entities keeps a sparse hook event from
// tripping the no-handler fault on every bystander.
func (e *Engine) runPhases(turn *Turn, acc *world.Accessor, verb string) error {
	for _, h := range e.Schedule.Hooks() {
		switch h.Invocation {
		case behavior.InvokeGlobal:
			ctx := &event.Context{Verb: verb, Actor: e.Info.Player}
			r := e.dispatcher.InvokeGlobal(h.Event, acc, ctx)
			turn.Trace = append(turn.Trace, fmt.Sprintf("phase %s (global)", h.ID))
			if r.Responded() && r.Feedback != "" {
				turn.Output = append(turn.Output, r.Feedback)
			}

		case behavior.InvokeEntity:
			// Snapshot the IDs up front: entities added during the phase
			// wait for the next turn, entities removed are skipped.
			for _, id := range e.World.IDs() {
				ent, ok := e.World.Get(id)
				if !ok || !e.Catalog.ImplementsAny(ent.Behaviors, h.Event) {
					continue
				}
				ctx := &event.Context{Verb: verb, Actor: e.Info.Player, Object: id}
				r, err := e.dispatcher.Invoke(ent, h.Event, acc, ctx)
				if err != nil {
					e.log.Error("phase failed", "hook", h.ID, "entity", id, "err", err)
					return err
				}
				turn.Trace = append(turn.Trace, fmt.Sprintf("phase %s (%s)", h.ID, id))
				if r.Responded() && r.Feedback != "" {
					turn.Output = append(turn.Output, r.Feedback)
				}
			}
		}
	}
	return nil
}

// Snapshot serializes the current run for the save layer.
func (e *Engine) Snapshot() ([]byte, error) {
	return save.Snapshot(e.Info, e.World, e.RNG, e.TurnCount, e.CommandLog)
}

// Restore replaces the run state with a loaded save. The catalog and
// schedule stay as loaded: saves carry world state, not wiring.
func (e *Engine) Restore(d *save.Data) error {
	w, err := d.RestoreWorld()
	if err != nil {
		return err
	}
	e.World = w
	e.RNG = d.RestoreRNG()
	e.TurnCount = d.Turn
	e.CommandLog = append([]string(nil), d.CommandLog...)
	return nil
}

func (e *Engine) actor() *world.Entity {
	ent, _ := e.World.Get(e.Info.Player)
	return ent
}
