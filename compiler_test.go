package silo

import "testing"

func TestCompileSchemaPrimitive(t *testing.T) {
	info, err := CompileSchema("Position", Schema{
		"x": {Kind: KindF32},
		"y": {Kind: KindF32},
	})
	if err != nil {
		t.Fatalf("CompileSchema failed: %v", err)
	}
	if len(info.Columns) != 2 {
		t.Fatalf("expected 2 columns, got %d", len(info.Columns))
	}
	for _, c := range info.Columns {
		if c.Kind != pF32 {
			t.Errorf("column %s has kind %v, want pF32", c.Name, c.Kind)
		}
	}
}

func TestCompileSchemaTag(t *testing.T) {
	info, err := CompileSchema("Dead", Schema{})
	if err != nil {
		t.Fatalf("CompileSchema of an empty schema failed: %v", err)
	}
	if !info.IsTag {
		t.Errorf("an empty schema should compile to a tag component")
	}
	if len(info.Columns) != 0 {
		t.Errorf("a tag component should have no columns, got %d", len(info.Columns))
	}
}

func TestCompileSchemaEnum(t *testing.T) {
	info, err := CompileSchema("State", Schema{
		"phase": {Kind: KindEnum, Labels: []string{"idle", "running", "done"}},
	})
	if err != nil {
		t.Fatalf("CompileSchema failed: %v", err)
	}
	if len(info.Columns) != 1 {
		t.Fatalf("enum should compile to 1 backing column, got %d", len(info.Columns))
	}

	interner := NewInterner()
	cols, err := info.Write(interner, map[string]any{"phase": "running"}, nil)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	back := info.Read(interner, cols, nil)
	if back["phase"] != "running" {
		t.Errorf("round-tripped enum = %v, want %q", back["phase"], "running")
	}
}

func TestCompileSchemaDuplicateColumnNames(t *testing.T) {
	// Two properties whose compiled column names collide must be rejected:
	// flat array "v" expands to column "v0", which primitive "v0" also uses.
	if _, err := CompileSchema("Bad", Schema{
		"v":  {Kind: KindFlatArray, Item: &Property{Kind: KindF32}, Capacity: 1},
		"v0": {Kind: KindF32},
	}); err == nil {
		t.Errorf("colliding column names should be rejected")
	}

	_, err := CompileSchema("Good", Schema{
		"v":         {Kind: KindF32},
		"v_rpnSkip": {Kind: KindF32}, // not a real collision; sanity-checks compile still succeeds
	})
	if err != nil {
		t.Fatalf("unrelated property names should not collide: %v", err)
	}
}
