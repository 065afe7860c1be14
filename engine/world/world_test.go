package world

import "testing"

func testWorld() *World {
	w := New()
	hall := NewEntity("hall", "core/visible")
	hall.SetProp("name", "Great Hall")
	hall.SetProp("description", "A grand hall with stone walls.")

	lamp := NewEntity("lamp", "core/portable", "core/visible")
	lamp.SetProp("name", "brass lamp")
	lamp.SetProp("location", "hall")

	guard := NewEntity("guard", "core/being", "core/visible")
	guard.SetProp("name", "castle guard")
	guard.SetProp("location", "hall")
	guard.SetProp("hp", 10)

	for _, e := range []*Entity{hall, lamp, guard} {
		if err := w.Add(e); err != nil {
			panic(err)
		}
	}
	return w
}

func TestWorld_AddGet(t *testing.T) {
	w := testWorld()

	e, ok := w.Get("lamp")
	if !ok {
		t.Fatal("lamp not found")
	}
	if e.Name() != "brass lamp" {
		t.Errorf("Name() = %q, want %q", e.Name(), "brass lamp")
	}
}

func TestWorld_AddDuplicate_Fails(t *testing.T) {
	w := testWorld()
	err := w.Add(NewEntity("lamp"))
	if err == nil {
		t.Fatal("expected error for duplicate entity ID")
	}
}

func TestWorld_AddEmptyID_Fails(t *testing.T) {
	w := New()
	if err := w.Add(&Entity{}); err == nil {
		t.Fatal("expected error for empty entity ID")
	}
}

func TestWorld_InsertionOrderStable(t *testing.T) {
	w := testWorld()

	ids := w.IDs()
	want := []string{"hall", "lamp", "guard"}
	if len(ids) != len(want) {
		t.Fatalf("IDs() = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("IDs()[%d] = %q, want %q", i, ids[i], want[i])
		}
	}
}

func TestWorld_Remove(t *testing.T) {
	w := testWorld()
	w.Remove("lamp")

	if _, ok := w.Get("lamp"); ok {
		t.Error("lamp should be gone after Remove")
	}
	ids := w.IDs()
	if len(ids) != 2 || ids[0] != "hall" || ids[1] != "guard" {
		t.Errorf("IDs() after remove = %v", ids)
	}

	// Removing an unknown ID is a no-op.
	w.Remove("dragon")
	if w.Len() != 2 {
		t.Errorf("Len() = %d after no-op remove", w.Len())
	}
}

func TestWorld_At(t *testing.T) {
	w := testWorld()

	here := w.At("hall")
	if len(here) != 2 {
		t.Fatalf("expected 2 entities in hall, got %d", len(here))
	}
	if here[0].ID != "lamp" || here[1].ID != "guard" {
		t.Errorf("At(hall) order = %s, %s", here[0].ID, here[1].ID)
	}
}

func TestEntity_TypedProps(t *testing.T) {
	e := NewEntity("x")
	e.SetProp("hp", 12)
	e.SetProp("ratio", 2.5)
	e.SetProp("lit", true)
	e.SetProp("name", "thing")

	if got := e.IntProp("hp", 0); got != 12 {
		t.Errorf("IntProp(hp) = %d", got)
	}
	// JSON numbers arrive as float64.
	e.SetProp("fuel", float64(3))
	if got := e.IntProp("fuel", 0); got != 3 {
		t.Errorf("IntProp(fuel) = %d, want 3 from float64", got)
	}
	if got := e.IntProp("missing", 42); got != 42 {
		t.Errorf("IntProp(missing) = %d, want default", got)
	}
	if !e.BoolProp("lit", false) {
		t.Error("BoolProp(lit) should be true")
	}
	if e.BoolProp("missing", false) {
		t.Error("BoolProp(missing) should use default")
	}
	if got := e.StringProp("name", ""); got != "thing" {
		t.Errorf("StringProp(name) = %q", got)
	}
}

func TestEntity_HasBehavior(t *testing.T) {
	e := NewEntity("x", "core/being", "lib/wanderer")

	if !e.HasBehavior("lib/wanderer") {
		t.Error("expected lib/wanderer attached")
	}
	if e.HasBehavior("core/portable") {
		t.Error("core/portable should not be attached")
	}
}

func TestEntity_NameFallsBackToID(t *testing.T) {
	e := NewEntity("mysterious_orb")
	if e.Name() != "mysterious_orb" {
		t.Errorf("Name() = %q, want entity ID", e.Name())
	}
}

func TestEntity_Exits(t *testing.T) {
	e := NewEntity("crossroads")
	e.SetProp("exits", map[string]any{"west": "mill", "east": "ford", "north": "tower"})

	dirs := e.Exits()
	want := []string{"east", "north", "west"}
	if len(dirs) != len(want) {
		t.Fatalf("Exits() = %v", dirs)
	}
	for i := range want {
		if dirs[i] != want[i] {
			t.Errorf("Exits()[%d] = %q, want %q (sorted)", i, dirs[i], want[i])
		}
	}

	if got := e.Exit("east"); got != "ford" {
		t.Errorf("Exit(east) = %q, want ford", got)
	}
	if got := e.Exit("south"); got != "" {
		t.Errorf("Exit(south) = %q, want empty", got)
	}

	bare := NewEntity("void")
	if bare.Exits() != nil {
		t.Error("entity without exits prop should return nil")
	}
}

func TestAccessor_EntityRollWeighted(t *testing.T) {
	w := testWorld()
	acc := &Accessor{World: w, RNG: NewRNG(7)}

	if _, ok := acc.Entity("guard"); !ok {
		t.Error("accessor should find guard")
	}
	r := acc.Roll(6)
	if r < 1 || r > 6 {
		t.Errorf("Roll(6) out of range: %d", r)
	}
	if i := acc.Weighted([]int{0, 4}); i != 1 {
		t.Errorf("Weighted = %d, want the only positive weight", i)
	}
	if acc.RNG.Position() != 2 {
		t.Errorf("position = %d, want both draws counted", acc.RNG.Position())
	}
}
