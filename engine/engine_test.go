package engine

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/okenna/fablecore/engine/behavior"
	"github.com/okenna/fablecore/engine/dispatch"
	"github.com/okenna/fablecore/engine/phase"
	"github.com/okenna/fablecore/engine/save"
	"github.com/okenna/fablecore/engine/script"
	"github.com/okenna/fablecore/engine/world"
	"github.com/okenna/fablecore/types"

	_ "github.com/okenna/fablecore/modules/core"
	_ "github.com/okenna/fablecore/modules/shared"
)

func quietLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testWorld(t *testing.T) *world.World {
	t.Helper()
	w := world.New()

	hall := world.NewEntity("hall", "core/visible")
	hall.SetProp("name", "Great Hall")
	hall.SetProp("description", "Banners hang from the rafters.")
	hall.SetProp("exits", map[string]any{"north": "tower"})

	tower := world.NewEntity("tower", "core/visible")
	tower.SetProp("name", "Old Tower")
	tower.SetProp("description", "Wind whistles through the arrow slits.")
	tower.SetProp("exits", map[string]any{"south": "hall"})

	player := world.NewEntity("player", "core/being")
	player.SetProp("location", "hall")
	player.SetProp("hp", 10)

	lamp := world.NewEntity("brass_lamp", "core/portable", "core/visible", "core/schedule")
	lamp.SetProp("name", "brass lamp")
	lamp.SetProp("description", "Its brass is dented.")
	lamp.SetProp("location", "hall")

	for _, e := range []*world.Entity{hall, tower, player, lamp} {
		if err := w.Add(e); err != nil {
			t.Fatalf("Add(%s): %v", e.ID, err)
		}
	}
	return w
}

// coreEngine wires only the native core tier: no dice in the schedule, so
// every turn's output is exact.
func coreEngine(t *testing.T, seed int64) *Engine {
	t.Helper()
	var entries []behavior.Entry
	for _, p := range behavior.Registered(behavior.TierCore) {
		entries = append(entries, behavior.Entry{Tier: behavior.TierCore, Path: p})
	}
	cat, err := behavior.Load(entries, nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	sched, err := phase.Build(cat.Hooks())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return New(Config{
		Info:     types.GameInfo{Title: "Trial Grounds", Version: "1.0.0", Player: "player"},
		Catalog:  cat,
		Schedule: sched,
		World:    testWorld(t),
		Seed:     seed,
		Logger:   quietLog(),
	})
}

// fullEngine adds the library tier and the trial-ground Lua content: a
// scripted verb, a core override, and a wandering goat.
func fullEngine(t *testing.T, seed int64) *Engine {
	t.Helper()
	host := script.NewHost("testdata", quietLog())
	t.Cleanup(host.Close)
	mods, err := host.LoadModules("testdata/modules")
	if err != nil {
		t.Fatalf("LoadModules failed: %v", err)
	}

	compiled := map[string]*behavior.Module{}
	var entries []behavior.Entry
	for _, m := range mods {
		compiled[m.Path] = m
		entries = append(entries, behavior.Entry{Tier: behavior.TierContent, Path: m.Path})
	}
	for _, p := range behavior.Registered(behavior.TierLibrary) {
		entries = append(entries, behavior.Entry{Tier: behavior.TierLibrary, Path: p})
	}
	for _, p := range behavior.Registered(behavior.TierCore) {
		entries = append(entries, behavior.Entry{Tier: behavior.TierCore, Path: p})
	}
	resolver := func(tier behavior.Tier, path string) (*behavior.Module, error) {
		if m, ok := compiled[path]; ok {
			return m, nil
		}
		return behavior.NativeResolver(tier, path)
	}
	cat, err := behavior.Load(entries, resolver)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	sched, err := phase.Build(cat.Hooks())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	w := testWorld(t)
	goat := world.NewEntity("goat", "lib/wanderer")
	goat.SetProp("name", "goat")
	goat.SetProp("location", "hall")
	if err := w.Add(goat); err != nil {
		t.Fatal(err)
	}

	return New(Config{
		Info:     types.GameInfo{Title: "Trial Grounds", Version: "1.0.0", Player: "player"},
		Catalog:  cat,
		Schedule: sched,
		World:    w,
		Scripts:  host,
		Seed:     seed,
		Logger:   quietLog(),
	})
}

func TestStep_EmptyInput(t *testing.T) {
	eng := coreEngine(t, 1)

	turn := eng.Step("   ")
	if len(turn.Output) != 1 || turn.Output[0] != "What do you want to do?" {
		t.Errorf("Output = %v", turn.Output)
	}
	if eng.TurnCount != 0 {
		t.Errorf("TurnCount = %d, want 0", eng.TurnCount)
	}
	if len(eng.CommandLog) != 0 {
		t.Errorf("CommandLog = %v, want empty", eng.CommandLog)
	}
}

func TestStep_UnknownVerb(t *testing.T) {
	eng := coreEngine(t, 1)

	turn := eng.Step("dance")
	if len(turn.Output) != 1 || turn.Output[0] != "You don't know how to dance." {
		t.Errorf("Output = %v", turn.Output)
	}
	if eng.TurnCount != 1 {
		t.Errorf("TurnCount = %d, want 1", eng.TurnCount)
	}
}

func TestStep_TakeDropFlow(t *testing.T) {
	eng := coreEngine(t, 1)
	lamp, _ := eng.World.Get("brass_lamp")

	turn := eng.Step("take lamp")
	if len(turn.Output) != 1 || turn.Output[0] != "Taken." {
		t.Errorf("take output = %v", turn.Output)
	}
	if lamp.StringProp("location", "") != "player" {
		t.Errorf("lamp location = %q, want player", lamp.StringProp("location", ""))
	}

	turn = eng.Step("inventory")
	if len(turn.Output) != 1 || turn.Output[0] != "You are carrying: brass lamp." {
		t.Errorf("inventory output = %v", turn.Output)
	}

	turn = eng.Step("north")
	if len(turn.Output) != 1 || !strings.Contains(turn.Output[0], "Old Tower") {
		t.Errorf("go output = %v", turn.Output)
	}

	turn = eng.Step("drop lamp")
	if len(turn.Output) != 1 || turn.Output[0] != "Dropped." {
		t.Errorf("drop output = %v", turn.Output)
	}
	if lamp.StringProp("location", "") != "tower" {
		t.Errorf("lamp location = %q, want tower", lamp.StringProp("location", ""))
	}

	if eng.TurnCount != 4 {
		t.Errorf("TurnCount = %d, want 4", eng.TurnCount)
	}
	wantLog := []string{"take lamp", "inventory", "north", "drop lamp"}
	if len(eng.CommandLog) != len(wantLog) {
		t.Fatalf("CommandLog = %v", eng.CommandLog)
	}
	for i := range wantLog {
		if eng.CommandLog[i] != wantLog[i] {
			t.Errorf("CommandLog[%d] = %q, want %q", i, eng.CommandLog[i], wantLog[i])
		}
	}
}

func TestStep_AmbiguityStopsTheTurn(t *testing.T) {
	eng := coreEngine(t, 1)
	for _, id := range []string{"copper_token", "wooden_token"} {
		e := world.NewEntity(id, "core/portable", "core/visible")
		e.SetProp("name", strings.ReplaceAll(id, "_", " "))
		e.SetProp("location", "hall")
		if err := eng.World.Add(e); err != nil {
			t.Fatal(err)
		}
	}

	turn := eng.Step("take token")
	if len(turn.Output) != 1 || turn.Output[0] != "Which token? (copper token, wooden token)" {
		t.Errorf("Output = %v", turn.Output)
	}
	if len(turn.Trace) != 0 {
		t.Errorf("Trace = %v, want none before the command runs", turn.Trace)
	}
	if eng.TurnCount != 1 {
		t.Errorf("TurnCount = %d, want 1", eng.TurnCount)
	}
}

func TestStep_PhaseFeedbackFollowsCommand(t *testing.T) {
	eng := coreEngine(t, 1)
	lamp, _ := eng.World.Get("brass_lamp")
	lamp.SetProp("lit", true)
	lamp.SetProp("fuel", 1)

	turn := eng.Step("wait")
	want := []string{"Time passes.", "The brass lamp gutters out."}
	if len(turn.Output) != len(want) {
		t.Fatalf("Output = %v", turn.Output)
	}
	for i := range want {
		if turn.Output[i] != want[i] {
			t.Errorf("Output[%d] = %q, want %q", i, turn.Output[i], want[i])
		}
	}
	if lamp.BoolProp("lit", true) {
		t.Error("lamp should be out")
	}
}

func TestStep_TraceRecordsThePipeline(t *testing.T) {
	eng := coreEngine(t, 1)

	turn := eng.Step("wait")
	want := []string{
		"command wait (core/actions)",
		"phase upkeep (brass_lamp)",
	}
	if len(turn.Trace) != len(want) {
		t.Fatalf("Trace = %v", turn.Trace)
	}
	for i := range want {
		if turn.Trace[i] != want[i] {
			t.Errorf("Trace[%d] = %q, want %q", i, turn.Trace[i], want[i])
		}
	}
}

func TestStep_ScheduleOrderAcrossTiers(t *testing.T) {
	eng := fullEngine(t, 1)

	turn := eng.Step("wait")
	want := []string{
		"command wait (core/actions)",
		"phase weather_tick (global)",
		"phase upkeep (brass_lamp)",
		"phase npc_roam (goat)",
	}
	if len(turn.Trace) != len(want) {
		t.Fatalf("Trace = %v", turn.Trace)
	}
	for i := range want {
		if turn.Trace[i] != want[i] {
			t.Errorf("Trace[%d] = %q, want %q", i, turn.Trace[i], want[i])
		}
	}
}

func TestStep_ContentOverridesCoreModule(t *testing.T) {
	eng := fullEngine(t, 1)

	turn := eng.Step("examine lamp")
	if len(turn.Output) == 0 || turn.Output[0] != "All you see is painted scenery." {
		t.Errorf("Output = %v", turn.Output)
	}
}

func TestStep_FatalDispatchAbortsTheTurn(t *testing.T) {
	eng := fullEngine(t, 1)

	turn := eng.Step("hex lamp")
	if turn.Err == nil {
		t.Fatal("expected a fatal error")
	}
	var nh *dispatch.NoHandlerError
	if !errors.As(turn.Err, &nh) {
		t.Fatalf("Err = %v, want a NoHandlerError", turn.Err)
	}
	if nh.EntityID != "brass_lamp" || nh.Event != "on_hex" {
		t.Errorf("NoHandlerError = %+v", nh)
	}
	if len(turn.Output) != 0 {
		t.Errorf("Output = %v, want none on an aborted turn", turn.Output)
	}
	if eng.TurnCount != 0 {
		t.Errorf("TurnCount = %d, want 0", eng.TurnCount)
	}
}

func TestStep_SameSeedSameRun(t *testing.T) {
	commands := []string{"wait", "take lamp", "wait", "north", "wait", "wait"}
	run := func(seed int64) (string, int64) {
		eng := fullEngine(t, seed)
		var out []string
		for _, cmd := range commands {
			turn := eng.Step(cmd)
			if turn.Err != nil {
				t.Fatalf("Step(%q) failed: %v", cmd, turn.Err)
			}
			out = append(out, strings.Join(turn.Output, "\n"))
		}
		return strings.Join(out, "\n---\n"), eng.RNG.Position()
	}

	out1, pos1 := run(42)
	out2, pos2 := run(42)
	if out1 != out2 {
		t.Errorf("same seed diverged:\n%s\n===\n%s", out1, out2)
	}
	if pos1 != pos2 {
		t.Errorf("RNG position diverged: %d vs %d", pos1, pos2)
	}
}

func TestSnapshotRestore(t *testing.T) {
	a := coreEngine(t, 7)
	a.Step("take lamp")
	a.Step("go north")

	raw, err := a.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	d, err := save.Load(raw)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	b := coreEngine(t, 999)
	if err := b.Restore(d); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	if b.TurnCount != 2 {
		t.Errorf("TurnCount = %d, want 2", b.TurnCount)
	}
	if len(b.CommandLog) != 2 || b.CommandLog[1] != "go north" {
		t.Errorf("CommandLog = %v", b.CommandLog)
	}
	lamp, ok := b.World.Get("brass_lamp")
	if !ok || lamp.StringProp("location", "") != "player" {
		t.Error("restored lamp should be carried")
	}
	player, _ := b.World.Get("player")
	if player.StringProp("location", "") != "tower" {
		t.Errorf("restored player at %q, want tower", player.StringProp("location", ""))
	}

	// The restored run continues exactly like the original.
	ta, tb := a.Step("look"), b.Step("look")
	if strings.Join(ta.Output, "\n") != strings.Join(tb.Output, "\n") {
		t.Errorf("post-restore look diverged:\n%v\nvs\n%v", ta.Output, tb.Output)
	}
}
