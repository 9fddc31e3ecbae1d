package silo

import "testing"

func TestQueryBuilderBuild(t *testing.T) {
	w, _, _ := newTestWorld(t)

	w.Commands.CreateEntity(map[string]any{
		"Position": map[string]any{"x": 0.0, "y": 0.0},
		"Velocity": map[string]any{"x": 0.0, "y": 0.0},
	})
	w.Commands.CreateEntity(map[string]any{"Position": map[string]any{"x": 0.0, "y": 0.0}})
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	position := Component{Name: "Position"}
	velocity := Component{Name: "Velocity"}

	opts := NewQueryBuilder().And(position).Not(velocity).Build()
	if len(opts.With) != 1 || opts.With[0] != "Position" {
		t.Errorf("And should populate With, got %v", opts.With)
	}
	if len(opts.Without) != 1 || opts.Without[0] != "Velocity" {
		t.Errorf("Not should populate Without, got %v", opts.Without)
	}

	q, err := w.Query(opts)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	cur := w.Cursor(q)
	count := 0
	for cur.Next() {
		count++
	}
	if count != 1 {
		t.Errorf("expected 1 entity without Velocity, got %d", count)
	}
}

func TestQueryBuilderReactImpliesAnd(t *testing.T) {
	b := NewQueryBuilder().React(Component{Name: "Velocity"})
	opts := b.Build()
	if len(opts.With) != 1 || opts.With[0] != "Velocity" {
		t.Errorf("React should also populate With, got %v", opts.With)
	}
	if len(opts.React) != 1 || opts.React[0] != "Velocity" {
		t.Errorf("React should populate React, got %v", opts.React)
	}
}

func TestQueryBuilderMutableNeverCached(t *testing.T) {
	opts := NewQueryBuilder().And(Component{Name: "Position"}).Mutable().Build()
	if !opts.Mutable {
		t.Errorf("Mutable() should set QueryOptions.Mutable")
	}

	w, _, _ := newTestWorld(t)
	q1, err := w.Query(opts)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	q2, err := w.Query(opts)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if q1 == q2 {
		t.Errorf("a Mutable query should never be served from the cache")
	}
}
