package tui

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/okenna/fablecore/engine"
	"github.com/okenna/fablecore/engine/behavior"
	"github.com/okenna/fablecore/engine/phase"
	"github.com/okenna/fablecore/engine/world"
	"github.com/okenna/fablecore/types"

	_ "github.com/okenna/fablecore/modules/core"
)

func TestDisplayName(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"hall", "Hall"},
		{"great_hall", "Great Hall"},
		{"castle_gates", "Castle Gates"},
		{"tower_top", "Tower Top"},
		{"secret_passage", "Secret Passage"},
	}
	for _, tt := range tests {
		got := displayName(tt.id)
		if got != tt.want {
			t.Errorf("displayName(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestClassifyLine(t *testing.T) {
	tests := []struct {
		line string
		want lineKind
	}{
		{"You see: rusty key, old book.", kindYouSee},
		{"Exits: north, south, east.", kindExits},
		{"trace: command look (core/actions)", kindTrace},
		{"trace: phase upkeep (brass_lamp)", kindTrace},
		{"You don't see any sword here.", kindError},
		{"You can't go west.", kindError},
		{"You're not carrying any lamp.", kindError},
		{"You don't know how to juggle.", kindError},
		{"Which token? (copper token, wooden token)", kindError},
		{"Fault: no handler for event \"on_hex\"", kindError},
		{"A grand hall with stone walls.", kindNarrative},
		{"Taken.", kindNarrative},
		{"", kindNarrative},
		{"'Ah, the adventurer. I wondered when they'd send someone competent.'", kindDialogue},
	}
	for _, tt := range tests {
		got := classifyLine(tt.line)
		if got != tt.want {
			t.Errorf("classifyLine(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestContainsQuotedSpeech(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"'Hello, adventurer. Welcome to the castle.'", true},
		{"It's a door.", false},    // short quote segment
		{"No quotes here.", false}, // no quotes at all
		{"'Hi'", false},            // too short
		{"She says 'the crown is lost forever, you must find it.'", true},
	}
	for _, tt := range tests {
		got := containsQuotedSpeech(tt.line)
		if got != tt.want {
			t.Errorf("containsQuotedSpeech(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestWordWrap(t *testing.T) {
	tests := []struct {
		text  string
		width int
		want  string
	}{
		{"short", 80, "short"},
		{"hello world", 5, "hello\nworld"},
		{"The great hall stretches before you with its vaulted ceiling.", 30,
			"The great hall stretches\nbefore you with its vaulted\nceiling."},
		{"", 80, ""},
		{"one", 80, "one"},
		{"a b c d e", 3, "a b\nc d\ne"},
	}
	for _, tt := range tests {
		got := wordWrap(tt.text, tt.width)
		if got != tt.want {
			t.Errorf("wordWrap(%q, %d) =\n  %q\nwant:\n  %q", tt.text, tt.width, got, tt.want)
		}
	}
}

func TestHistory_PushAndPrev(t *testing.T) {
	h := NewHistory(5)
	h.Push("look")
	h.Push("go north")
	h.Push("take key")

	prev, ok := h.Prev()
	if !ok || prev != "take key" {
		t.Errorf("expected 'take key', got %q (ok=%v)", prev, ok)
	}

	prev, ok = h.Prev()
	if !ok || prev != "go north" {
		t.Errorf("expected 'go north', got %q (ok=%v)", prev, ok)
	}

	prev, ok = h.Prev()
	if !ok || prev != "look" {
		t.Errorf("expected 'look', got %q (ok=%v)", prev, ok)
	}

	// At oldest, stays there.
	prev, ok = h.Prev()
	if !ok || prev != "look" {
		t.Errorf("expected 'look' at boundary, got %q (ok=%v)", prev, ok)
	}
}

func TestHistory_Next(t *testing.T) {
	h := NewHistory(5)
	h.Push("look")
	h.Push("go north")

	h.Prev() // "go north"
	h.Prev() // "look"

	next, ok := h.Next()
	if !ok || next != "go north" {
		t.Errorf("expected 'go north', got %q (ok=%v)", next, ok)
	}

	_, ok = h.Next()
	if ok {
		t.Error("expected false when past newest entry")
	}
}

func TestHistory_Empty(t *testing.T) {
	h := NewHistory(5)
	if _, ok := h.Prev(); ok {
		t.Error("expected false on empty history")
	}
	if _, ok := h.Next(); ok {
		t.Error("expected false on empty history")
	}
}

func TestHistory_MaxSize(t *testing.T) {
	h := NewHistory(2)
	h.Push("a")
	h.Push("b")
	h.Push("c") // "a" evicted

	prev, _ := h.Prev()
	if prev != "c" {
		t.Errorf("expected 'c', got %q", prev)
	}
	prev, _ = h.Prev()
	if prev != "b" {
		t.Errorf("expected 'b', got %q", prev)
	}
	// "a" is gone.
	prev, _ = h.Prev()
	if prev != "b" {
		t.Errorf("expected 'b' at boundary, got %q", prev)
	}
}

func TestHistory_NoDuplicates(t *testing.T) {
	h := NewHistory(5)
	h.Push("look")
	h.Push("look") // skipped
	h.Push("look") // skipped

	if len(h.entries) != 1 {
		t.Errorf("expected 1 entry, got %d", len(h.entries))
	}
}

func TestHistory_ResetCursor(t *testing.T) {
	h := NewHistory(5)
	h.Push("look")
	h.Push("go north")

	h.Prev() // "go north"
	h.ResetCursor()

	// After reset, Prev starts from the end again.
	prev, ok := h.Prev()
	if !ok || prev != "go north" {
		t.Errorf("expected 'go north' after reset, got %q", prev)
	}
}

// testEngine wires the native core tier over a two-room world.
func testEngine(t *testing.T) *engine.Engine {
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

	w := world.New()
	hall := world.NewEntity("hall", "core/visible")
	hall.SetProp("name", "Grand Hall")
	hall.SetProp("description", "A grand hall.")
	hall.SetProp("exits", map[string]any{"north": "garden"})

	garden := world.NewEntity("garden", "core/visible")
	garden.SetProp("name", "Garden")
	garden.SetProp("description", "A peaceful garden.")
	garden.SetProp("exits", map[string]any{"south": "hall"})

	player := world.NewEntity("player", "core/being")
	player.SetProp("location", "hall")
	player.SetProp("hp", 10)

	key := world.NewEntity("rusty_key", "core/portable", "core/visible")
	key.SetProp("name", "rusty key")
	key.SetProp("location", "hall")

	for _, e := range []*world.Entity{hall, garden, player, key} {
		if err := w.Add(e); err != nil {
			t.Fatalf("Add(%s): %v", e.ID, err)
		}
	}

	return engine.New(engine.Config{
		Info: types.GameInfo{
			Title:   "Test Game",
			Author:  "Test",
			Version: "1.0",
			Intro:   "Welcome to the test.",
			Player:  "player",
		},
		Catalog:  cat,
		Schedule: sched,
		World:    w,
		Seed:     7,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestBanner(t *testing.T) {
	eng := testEngine(t)
	if got := banner(eng); got != "Test Game v1.0 by Test" {
		t.Errorf("banner = %q", got)
	}

	eng.Info.Author = ""
	eng.Info.Version = ""
	if got := banner(eng); got != "Test Game" {
		t.Errorf("bare banner = %q", got)
	}
}

func TestHandleMeta_Quit(t *testing.T) {
	m := New(testEngine(t))

	if _, quit := m.handleMeta("/quit"); !quit {
		t.Error("expected quit=true for /quit")
	}
	if _, quit := m.handleMeta("/exit"); !quit {
		t.Error("expected quit=true for /exit")
	}
}

func TestHandleMeta_Save(t *testing.T) {
	m := New(testEngine(t))
	m.saveDir = t.TempDir()

	output, quit := m.handleMeta("/save test")
	if quit {
		t.Error("save should not quit")
	}
	if len(output) == 0 || !strings.Contains(output[0], "Game saved") {
		t.Errorf("expected save confirmation, got %v", output)
	}
}

func TestHandleMeta_SaveThenLoad(t *testing.T) {
	m := New(testEngine(t))
	m.saveDir = t.TempDir()

	m.engine.Step("go north")
	if _, quit := m.handleMeta("/save test"); quit {
		t.Fatal("save should not quit")
	}

	m2 := New(testEngine(t))
	m2.saveDir = m.saveDir
	output, _ := m2.handleMeta("/load test")

	joined := strings.Join(output, "\n")
	if !strings.Contains(joined, "Game loaded from test (turn 1).") {
		t.Errorf("expected load confirmation, got %v", output)
	}
	if !strings.Contains(joined, "A peaceful garden.") {
		t.Error("expected the restored location described after load")
	}
}

func TestHandleMeta_LoadNonexistent(t *testing.T) {
	m := New(testEngine(t))
	m.saveDir = t.TempDir()

	output, quit := m.handleMeta("/load nonexistent")
	if quit {
		t.Error("load should not quit")
	}
	if len(output) == 0 || !strings.Contains(output[0], "Load failed") {
		t.Errorf("expected load failure, got %v", output)
	}
}

func TestHandleMeta_Help(t *testing.T) {
	m := New(testEngine(t))

	output, quit := m.handleMeta("/help")
	if quit {
		t.Error("help should not quit")
	}

	joined := strings.Join(output, "\n")
	for _, expected := range []string{"/save", "/load", "/quit", "Verbs: ", "take", "inventory"} {
		if !strings.Contains(joined, expected) {
			t.Errorf("expected %q in help output", expected)
		}
	}
}

func TestHandleMeta_Trace(t *testing.T) {
	m := New(testEngine(t))

	output, _ := m.handleMeta("/trace")
	if !m.trace {
		t.Error("expected trace to be enabled")
	}
	if len(output) == 0 || !strings.Contains(output[0], "enabled") {
		t.Errorf("expected enabled message, got %v", output)
	}

	output, _ = m.handleMeta("/trace")
	if m.trace {
		t.Error("expected trace to be disabled")
	}
	if len(output) == 0 || !strings.Contains(output[0], "disabled") {
		t.Errorf("expected disabled message, got %v", output)
	}
}

func TestHandleMeta_Unknown(t *testing.T) {
	m := New(testEngine(t))

	output, quit := m.handleMeta("/bogus")
	if quit {
		t.Error("unknown command should not quit")
	}
	if len(output) == 0 || !strings.Contains(output[0], "Unknown command") {
		t.Errorf("expected unknown command message, got %v", output)
	}
}

func TestHandleMeta_State(t *testing.T) {
	m := New(testEngine(t))
	m.engine.Step("take key")

	output, quit := m.handleMeta("/state")
	if quit {
		t.Error("state should not quit")
	}

	joined := strings.Join(output, "\n")
	if !strings.Contains(joined, "Location: hall") {
		t.Error("expected location in state output")
	}
	if !strings.Contains(joined, "Turn: 1") {
		t.Error("expected turn count in state output")
	}
	if !strings.Contains(joined, "Carrying: rusty key") {
		t.Error("expected inventory in state output")
	}
}

func TestRenderStatusBar(t *testing.T) {
	m := New(testEngine(t))
	m.width = 80

	bar := m.renderStatusBar()
	for _, want := range []string{"Grand Hall", "Exits: north", "T:0"} {
		if !strings.Contains(bar, want) {
			t.Errorf("status bar missing %q: %q", want, bar)
		}
	}

	m.engine.Step("take key")
	bar = m.renderStatusBar()
	if !strings.Contains(bar, "Inv: rusty key") {
		t.Errorf("status bar missing inventory: %q", bar)
	}
	if !strings.Contains(bar, "T:1") {
		t.Errorf("status bar missing turn count: %q", bar)
	}
}
