package silo

import "testing"

func TestEntityHandleGetAndValid(t *testing.T) {
	w, position, _ := newTestWorld(t)

	w.Commands.CreateEntity(map[string]any{"Position": map[string]any{"x": 1.0, "y": 2.0}})
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	handle := EntityHandle{id: EntityID(1), world: w}
	if !handle.Valid() {
		t.Fatalf("freshly created entity should be Valid()")
	}

	data, ok, err := handle.Get(position)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !ok {
		t.Fatalf("handle should carry Position")
	}
	if data["x"] != float32(1.0) || data["y"] != float32(2.0) {
		t.Errorf("Get returned %v, want x=1 y=2", data)
	}
}

func TestEntityHandleAddRemoveComponent(t *testing.T) {
	w, position, velocity := newTestWorld(t)

	w.Commands.CreateEntity(map[string]any{"Position": map[string]any{"x": 0.0, "y": 0.0}})
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	handle := EntityHandle{id: EntityID(1), world: w}

	if err := handle.AddComponent(velocity, map[string]any{"x": 3.0, "y": 4.0}); err != nil {
		t.Fatalf("AddComponent failed: %v", err)
	}
	if _, ok, err := handle.Get(velocity); err != nil || !ok {
		t.Fatalf("entity should carry Velocity after AddComponent, ok=%v err=%v", ok, err)
	}

	if err := handle.RemoveComponent(velocity); err != nil {
		t.Fatalf("RemoveComponent failed: %v", err)
	}
	if _, ok, err := handle.Get(velocity); err != nil || ok {
		t.Fatalf("entity should not carry Velocity after RemoveComponent, ok=%v err=%v", ok, err)
	}
	if _, ok, err := handle.Get(position); err != nil || !ok {
		t.Fatalf("Position should survive the Velocity add/remove round trip")
	}
}

func TestEntityHandleSetComponentData(t *testing.T) {
	w, position, _ := newTestWorld(t)

	w.Commands.CreateEntity(map[string]any{"Position": map[string]any{"x": 0.0, "y": 0.0}})
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	handle := EntityHandle{id: EntityID(1), world: w}

	if err := handle.SetComponentData(position, map[string]any{"x": 9.0, "y": 9.0}); err != nil {
		t.Fatalf("SetComponentData failed: %v", err)
	}
	data, ok, err := handle.Get(position)
	if err != nil || !ok {
		t.Fatalf("Get after SetComponentData failed: ok=%v err=%v", ok, err)
	}
	if data["x"] != float32(9.0) || data["y"] != float32(9.0) {
		t.Errorf("SetComponentData did not take effect, got %v", data)
	}
}

func TestEntityHandleDestroy(t *testing.T) {
	w, _, _ := newTestWorld(t)

	w.Commands.CreateEntity(map[string]any{"Position": map[string]any{"x": 0.0, "y": 0.0}})
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	handle := EntityHandle{id: EntityID(1), world: w}

	if err := handle.Destroy(); err != nil {
		t.Fatalf("Destroy failed: %v", err)
	}
	if handle.Valid() {
		t.Errorf("entity should be invalid after Destroy")
	}
}

func TestEntityHandleSetParentFiresDestroyCallback(t *testing.T) {
	w, _, _ := newTestWorld(t)

	w.Commands.CreateEntity(map[string]any{"Position": map[string]any{"x": 0.0, "y": 0.0}}) // parent -> id 1
	w.Commands.CreateEntity(map[string]any{"Position": map[string]any{"x": 1.0, "y": 1.0}}) // child -> id 2
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	parent := EntityHandle{id: EntityID(1), world: w}
	child := EntityHandle{id: EntityID(2), world: w}

	fired := false
	child.SetParent(parent, func(EntityID) { fired = true })

	got, ok := child.Parent()
	if !ok || got.ID() != parent.ID() {
		t.Fatalf("Parent() = %v, %v; want %v, true", got, ok, parent.ID())
	}

	if err := parent.Destroy(); err != nil {
		t.Fatalf("parent Destroy failed: %v", err)
	}
	if !fired {
		t.Errorf("destroying the parent should fire the callback registered via SetParent")
	}
}
