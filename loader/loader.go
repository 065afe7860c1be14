// Package loader reads a game directory into a runnable Game. A game is
// a world.yaml manifest, content modules under modules/*.lua, entity
// records under entities/*.json, and optional script files referenced by
// per-entity handler overrides.
package loader

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/okenna/fablecore/engine/behavior"
	"github.com/okenna/fablecore/engine/phase"
	"github.com/okenna/fablecore/engine/script"
	"github.com/okenna/fablecore/engine/world"
	"github.com/okenna/fablecore/types"
)

// Game is everything Load produces: the frozen wiring the engine runs on,
// plus non-fatal findings for the shell to show.
type Game struct {
	Info     types.GameInfo
	Manifest Manifest
	Catalog  *behavior.Catalog
	Schedule *phase.Schedule
	World    *world.World
	Scripts  *script.Host
	Seed     int64
	Warnings []string
}

// Close releases the game's script VM.
func (g *Game) Close() {
	if g.Scripts != nil {
		g.Scripts.Close()
	}
}

// ValidationError collects the referential problems found after the
// game's pieces parsed cleanly. Errors abort the load; warnings ride
// along on the Game.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s):\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

// Load reads a game directory and assembles the catalog, schedule, world,
// and script host. The returned Game owns a live Lua state; callers must
// Close it when done.
func Load(dir string, log *slog.Logger) (*Game, error) {
	man, err := ReadManifest(filepath.Join(dir, "world.yaml"))
	if err != nil {
		return nil, err
	}

	host := script.NewHost(dir, log)
	fail := func(err error) (*Game, error) {
		host.Close()
		return nil, err
	}

	// 1. Compile content-tier Lua modules.
	mods, err := host.LoadModules(filepath.Join(dir, "modules"))
	if err != nil {
		return fail(err)
	}
	compiled := map[string]*behavior.Module{}
	var compiledOrder []string
	for _, m := range mods {
		compiled[m.Path] = m
		compiledOrder = append(compiledOrder, m.Path)
	}

	// 2. Assemble the module roster. Manifest lists win; nil lists mean
	// everything available.
	ve := &ValidationError{}
	var entries []behavior.Entry
	content := man.Modules.Content
	if content == nil {
		content = compiledOrder
	}
	for _, p := range content {
		if _, ok := compiled[p]; !ok {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"manifest content module %q is not defined in modules/", p))
			continue
		}
		entries = append(entries, behavior.Entry{Tier: behavior.TierContent, Path: p})
	}
	library := man.Modules.Library
	if library == nil {
		library = behavior.Registered(behavior.TierLibrary)
	}
	for _, p := range library {
		entries = append(entries, behavior.Entry{Tier: behavior.TierLibrary, Path: p})
	}
	core := man.Modules.Core
	if core == nil {
		core = behavior.Registered(behavior.TierCore)
	}
	for _, p := range core {
		entries = append(entries, behavior.Entry{Tier: behavior.TierCore, Path: p})
	}
	if len(ve.Errors) > 0 {
		return fail(ve)
	}

	// 3. Build the catalog and the phase schedule.
	resolver := func(tier behavior.Tier, path string) (*behavior.Module, error) {
		if m, ok := compiled[path]; ok {
			return m, nil
		}
		return behavior.NativeResolver(tier, path)
	}
	cat, err := behavior.Load(entries, resolver)
	if err != nil {
		return fail(fmt.Errorf("building module catalog: %w", err))
	}
	for _, s := range cat.Shadowed() {
		ve.Warnings = append(ve.Warnings, fmt.Sprintf(
			"module %s is shadowed by a higher-priority definition", s))
	}
	sched, err := phase.Build(cat.Hooks())
	if err != nil {
		return fail(fmt.Errorf("building phase schedule: %w", err))
	}

	// 4. Load entity records into the world.
	w, err := loadEntities(filepath.Join(dir, "entities"), ve)
	if err != nil {
		return fail(err)
	}
	if len(ve.Errors) > 0 {
		return fail(ve)
	}

	// 5. Cross-check references.
	validateGame(man, cat, w, host, ve)
	if len(ve.Errors) > 0 {
		return fail(ve)
	}

	return &Game{
		Info:     man.Info(),
		Manifest: man,
		Catalog:  cat,
		Schedule: sched,
		World:    w,
		Scripts:  host,
		Seed:     man.Seed,
		Warnings: ve.Warnings,
	}, nil
}

// loadEntities reads entities/*.json in name order. Each file holds an
// array of entity records; every record is schema-checked before the
// world is built. A missing directory is an empty world.
func loadEntities(dir string, ve *ValidationError) (*world.World, error) {
	w := world.New()

	files, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return w, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading entities directory: %w", err)
	}

	var names []string
	for _, f := range files {
		if !f.IsDir() && strings.HasSuffix(f.Name(), ".json") {
			names = append(names, f.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("entities/%s: %w", name, err)
		}
		var rawRecords []any
		if err := json.Unmarshal(raw, &rawRecords); err != nil {
			return nil, fmt.Errorf("entities/%s: %w", name, err)
		}
		bad := false
		for i, r := range rawRecords {
			if err := entitySchema.Validate(r); err != nil {
				ve.Errors = append(ve.Errors, fmt.Sprintf(
					"entities/%s: record %d: %v", name, i+1, err))
				bad = true
			}
		}
		if bad {
			continue
		}
		var records []types.EntityRecord
		if err := json.Unmarshal(raw, &records); err != nil {
			return nil, fmt.Errorf("entities/%s: %w", name, err)
		}
		for _, rec := range records {
			e := world.NewEntity(rec.ID, rec.Behaviors...)
			for k, v := range rec.Props {
				e.SetProp(k, v)
			}
			if err := w.Add(e); err != nil {
				ve.Errors = append(ve.Errors, fmt.Sprintf("entities/%s: %v", name, err))
			}
		}
	}
	return w, nil
}

// validateGame cross-checks the loaded pieces. The player must exist;
// references that would only bite mid-play get flagged now as warnings,
// including handler overrides, which are resolved eagerly so a bad ref
// is diagnosed at load instead of at first dispatch.
func validateGame(man Manifest, cat *behavior.Catalog, w *world.World, host *script.Host, ve *ValidationError) {
	if _, ok := w.Get(man.Player); !ok {
		ve.Errors = append(ve.Errors, fmt.Sprintf(
			"player entity %q not found in entities/", man.Player))
	}

	for _, e := range w.Entities() {
		for _, p := range e.Behaviors {
			if _, ok := cat.Module(p); !ok {
				ve.Warnings = append(ve.Warnings, fmt.Sprintf(
					"entity %q attaches unknown module %q", e.ID, p))
			}
		}
		if loc := e.StringProp("location", ""); loc != "" {
			if _, ok := w.Get(loc); !ok {
				ve.Warnings = append(ve.Warnings, fmt.Sprintf(
					"entity %q location %q does not match any entity", e.ID, loc))
			}
		}
		for _, dir := range e.Exits() {
			if _, ok := w.Get(e.Exit(dir)); !ok {
				ve.Warnings = append(ve.Warnings, fmt.Sprintf(
					"entity %q exit %q points to unknown entity %q", e.ID, dir, e.Exit(dir)))
			}
		}

		keys := make([]string, 0, len(e.Props))
		for k := range e.Props {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, key := range keys {
			ref, ok := e.Props[key].(string)
			if !ok || !strings.HasSuffix(key, "_handler") {
				continue
			}
			if _, err := host.ResolveHandler(ref, strings.TrimSuffix(key, "_handler")); err != nil {
				ve.Warnings = append(ve.Warnings, fmt.Sprintf(
					"entity %q %s: %v", e.ID, key, err))
			}
		}
	}
}
