package silo

import "testing"

func TestPackedArrayRoundTrip(t *testing.T) {
	w, err := NewWorld()
	if err != nil {
		t.Fatalf("NewWorld failed: %v", err)
	}
	inventory, err := w.RegisterComponent(Component{
		Name: "Inventory",
		Schema: Schema{
			"items": {Kind: KindPackedArray, Item: &Property{Kind: KindU32}},
		},
	})
	if err != nil {
		t.Fatalf("RegisterComponent failed: %v", err)
	}

	w.Commands.CreateEntity(map[string]any{
		"Inventory": map[string]any{"items": []any{uint32(1), uint32(2), uint32(3)}},
	})
	w.Commands.CreateEntity(map[string]any{
		"Inventory": map[string]any{"items": []any{uint32(9)}},
	})
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	store := NewStorage(w)

	first, err := store.Entity(1)
	if err != nil {
		t.Fatalf("Entity(1) failed: %v", err)
	}
	data, ok, err := first.Get(inventory)
	if err != nil || !ok {
		t.Fatalf("Get failed: ok=%v err=%v", ok, err)
	}
	items, ok := data["items"].([]any)
	if !ok || len(items) != 3 {
		t.Fatalf("entity 1 items = %v, want 3-element slice", data["items"])
	}
	for i, want := range []int64{1, 2, 3} {
		if items[i] != want {
			t.Errorf("items[%d] = %v, want %d", i, items[i], want)
		}
	}

	second, err := store.Entity(2)
	if err != nil {
		t.Fatalf("Entity(2) failed: %v", err)
	}
	data, ok, err = second.Get(inventory)
	if err != nil || !ok {
		t.Fatalf("Get failed: ok=%v err=%v", ok, err)
	}
	items, ok = data["items"].([]any)
	if !ok || len(items) != 1 || items[0] != int64(9) {
		t.Errorf("entity 2 items = %v, want [9]", data["items"])
	}
}

func TestPackedArrayEmpty(t *testing.T) {
	w, err := NewWorld()
	if err != nil {
		t.Fatalf("NewWorld failed: %v", err)
	}
	inventory, err := w.RegisterComponent(Component{
		Name: "Inventory",
		Schema: Schema{
			"items": {Kind: KindPackedArray, Item: &Property{Kind: KindU32}},
		},
	})
	if err != nil {
		t.Fatalf("RegisterComponent failed: %v", err)
	}

	w.Commands.CreateEntity(map[string]any{"Inventory": map[string]any{}})
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	handle := EntityHandle{id: EntityID(1), world: w}
	data, ok, err := handle.Get(inventory)
	if err != nil || !ok {
		t.Fatalf("Get failed: ok=%v err=%v", ok, err)
	}
	items, ok := data["items"].([]any)
	if !ok || len(items) != 0 {
		t.Errorf("empty packed array should read back as an empty slice, got %v", data["items"])
	}
}
