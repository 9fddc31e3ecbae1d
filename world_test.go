package silo

import "testing"

func newTestWorld(t *testing.T) (*World, CTID, CTID) {
	t.Helper()
	w, err := NewWorld()
	if err != nil {
		t.Fatalf("NewWorld failed: %v", err)
	}
	position, err := w.RegisterComponent(Component{
		Name:   "Position",
		Schema: Schema{"x": {Kind: KindF32}, "y": {Kind: KindF32}},
	})
	if err != nil {
		t.Fatalf("RegisterComponent(Position) failed: %v", err)
	}
	velocity, err := w.RegisterComponent(Component{
		Name:   "Velocity",
		Schema: Schema{"x": {Kind: KindF32}, "y": {Kind: KindF32}},
	})
	if err != nil {
		t.Fatalf("RegisterComponent(Velocity) failed: %v", err)
	}
	return w, position, velocity
}

func TestWorldCreateEntityAndQuery(t *testing.T) {
	w, _, _ := newTestWorld(t)

	w.Commands.CreateEntity(map[string]any{
		"Position": map[string]any{"x": 1.0, "y": 2.0},
		"Velocity": map[string]any{"x": 0.5, "y": 0.0},
	})
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	q, err := w.Query(QueryOptions{With: []string{"Position", "Velocity"}})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	cur := w.Cursor(q)

	count := 0
	for cur.Next() {
		count++
		if cur.CurrentEntity() != 1 {
			t.Errorf("first created entity should have ID 1 (ID 0 is reserved), got %d", cur.CurrentEntity())
		}
	}
	if count != 1 {
		t.Errorf("expected 1 matching entity, got %d", count)
	}
}

func TestWorldAddComponentMovesArchetype(t *testing.T) {
	w, _, velocity := newTestWorld(t)

	w.Commands.CreateEntity(map[string]any{"Position": map[string]any{"x": 0.0, "y": 0.0}})
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	id := EntityID(1)
	if err := w.Immediate(func(cb *CommandBuffer) {
		cb.AddComponent(id, velocity, map[string]any{"x": 1.0, "y": 1.0})
	}); err != nil {
		t.Fatalf("AddComponent flush failed: %v", err)
	}

	loc, err := w.Directory.Locate(id)
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}
	at, err := w.Table.Archetype(loc.archetypeID)
	if err != nil {
		t.Fatalf("Archetype lookup failed: %v", err)
	}
	if !at.hasComponent(velocity) {
		t.Errorf("entity's archetype should now carry Velocity")
	}
}

func TestWorldDestroyEntity(t *testing.T) {
	w, _, _ := newTestWorld(t)

	w.Commands.CreateEntity(map[string]any{"Position": map[string]any{"x": 0.0, "y": 0.0}})
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	id := EntityID(1)
	if err := w.Immediate(func(cb *CommandBuffer) {
		cb.DestroyEntity(id)
	}); err != nil {
		t.Fatalf("destroy flush failed: %v", err)
	}

	if w.Directory.Active(id) {
		t.Errorf("entity should be inactive after destruction")
	}
}

func TestWorldCreateIdenticalEntities(t *testing.T) {
	w, _, _ := newTestWorld(t)

	w.Commands.CreateIdenticalEntities(map[string]any{"Position": map[string]any{"x": 3.0, "y": 4.0}}, 5)
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	q, err := w.Query(QueryOptions{With: []string{"Position"}})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	cur := w.Cursor(q)
	count := 0
	for cur.Next() {
		count++
	}
	if count != 5 {
		t.Errorf("expected 5 entities, got %d", count)
	}
}

func TestWorldDestroyEntitiesInQuery(t *testing.T) {
	w, _, _ := newTestWorld(t)

	w.Commands.CreateIdenticalEntities(map[string]any{"Position": map[string]any{"x": 0.0, "y": 0.0}}, 3)
	w.Commands.CreateIdenticalEntities(map[string]any{
		"Position": map[string]any{"x": 0.0, "y": 0.0},
		"Velocity": map[string]any{"x": 0.0, "y": 0.0},
	}, 2)
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	movers, err := w.Query(QueryOptions{With: []string{"Velocity"}})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if err := w.Immediate(func(cb *CommandBuffer) {
		cb.DestroyEntitiesInQuery(movers)
	}); err != nil {
		t.Fatalf("destroy-in-query flush failed: %v", err)
	}

	all, err := w.Query(QueryOptions{With: []string{"Position"}})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	cur := w.Cursor(all)
	count := 0
	for cur.Next() {
		count++
	}
	if count != 3 {
		t.Errorf("expected 3 surviving entities, got %d", count)
	}
}

func TestWorldPrefabInstantiate(t *testing.T) {
	w, err := NewWorld()
	if err != nil {
		t.Fatalf("NewWorld failed: %v", err)
	}
	if _, err := w.RegisterComponent(Component{
		Name:   "Position",
		Schema: Schema{"x": {Kind: KindF32}, "y": {Kind: KindF32}},
	}); err != nil {
		t.Fatalf("RegisterComponent failed: %v", err)
	}

	prefabs, ok := w.Prefabs.(*MemoryPrefabSource)
	if !ok {
		t.Fatalf("default PrefabSource should be *MemoryPrefabSource")
	}
	id, err := prefabs.Define("Spawner", PrefabData{
		Components: map[string]any{"Position": map[string]any{"x": 5.0, "y": 5.0}},
	})
	if err != nil {
		t.Fatalf("Define failed: %v", err)
	}

	w.Commands.InstantiatePrefab(id, nil)
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	q, err := w.Query(QueryOptions{With: []string{"Position"}})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	cur := w.Cursor(q)
	if !cur.Next() {
		t.Fatalf("expected the instantiated entity to match the query")
	}
}

func TestWorldClearAll(t *testing.T) {
	w, _, _ := newTestWorld(t)

	w.Commands.CreateIdenticalEntities(map[string]any{"Position": map[string]any{"x": 0.0, "y": 0.0}}, 3)
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	before, err := w.Query(QueryOptions{With: []string{"Position"}})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if got := w.Cursor(before); !got.Next() {
		t.Fatalf("expected at least one match before ClearAll")
	}

	w.ClearAll()

	if got := w.Table.Len(); got != 1 {
		t.Errorf("ClearAll should leave only the empty archetype at id 0, got %d archetypes", got)
	}
	if at, err := w.Table.Archetype(0); err != nil || len(at.ctids) != 0 {
		t.Errorf("archetype 0 after ClearAll should be the empty archetype, err=%v", err)
	}

	after := w.Cursor(before)
	if after.Next() {
		t.Errorf("a query's matching list should be empty immediately after ClearAll")
	}
}
