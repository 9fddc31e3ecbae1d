package silo

import "testing"

func positionSchema() Schema {
	return Schema{
		"x": {Kind: KindF32},
		"y": {Kind: KindF32},
	}
}

func TestRegistryRegisterIsIdempotent(t *testing.T) {
	reg := NewComponentRegistry(256)

	id1, err := reg.Register("Position", positionSchema())
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	id2, err := reg.Register("Position", positionSchema())
	if err != nil {
		t.Fatalf("second Register failed: %v", err)
	}
	if id1 != id2 {
		t.Errorf("registering the same name twice returned different CTIDs: %d vs %d", id1, id2)
	}
	if reg.Len() != 1 {
		t.Errorf("Len() = %d, want 1", reg.Len())
	}
}

func TestRegistryCTIDForUnknown(t *testing.T) {
	reg := NewComponentRegistry(256)
	if _, err := reg.CTIDFor("Nope"); err == nil {
		t.Errorf("CTIDFor of an unregistered name should error")
	}
}

func TestRegistryFull(t *testing.T) {
	reg := NewComponentRegistry(2)

	if _, err := reg.Register("A", Schema{"v": {Kind: KindF32}}); err != nil {
		t.Fatalf("Register A failed: %v", err)
	}
	if _, err := reg.Register("B", Schema{"v": {Kind: KindF32}}); err != nil {
		t.Fatalf("Register B failed: %v", err)
	}
	if _, err := reg.Register("C", Schema{"v": {Kind: KindF32}}); err == nil {
		t.Errorf("registering beyond MaxComponents should error")
	}
}

func TestRegistryInfo(t *testing.T) {
	reg := NewComponentRegistry(256)
	id, err := reg.Register("Position", positionSchema())
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	info, err := reg.Info(id)
	if err != nil {
		t.Fatalf("Info failed: %v", err)
	}
	if info.Name != "Position" {
		t.Errorf("Info.Name = %q, want %q", info.Name, "Position")
	}
	if len(info.Columns) != 2 {
		t.Errorf("Position should compile to 2 columns, got %d", len(info.Columns))
	}
}
