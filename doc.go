/*
Package silo implements an archetype-based entity-component data
engine: entities are plain IDs, components are named typed schemas
compiled into packed structure-of-arrays columns, and archetypes group
entities by their exact component set for cache-friendly, branch-free
iteration.

Core Concepts:

  - Entity: a stable uint32 handle, no behavior of its own.
  - Component: a named schema describing one block of per-entity data.
  - Archetype: the set of entities sharing an exact component set,
    stored as chunked, column-oriented memory.
  - Query: a With/Without/AnyOf/React filter compiled to a cached,
    refcounted set of matching archetypes.
  - CommandBuffer: buffers structural edits (create, destroy, add,
    remove, set, prefab instantiation) for consolidated application at
    Flush, so systems never see a half-moved archetype mid-iteration.

Basic Usage:

	world, err := silo.NewWorld()
	if err != nil {
		panic(err)
	}

	position, _ := world.RegisterComponent(silo.Component{
		Name: "Position",
		Schema: silo.Schema{
			"x": {Kind: silo.KindF32},
			"y": {Kind: silo.KindF32},
		},
	})
	velocity, _ := world.RegisterComponent(silo.Component{
		Name: "Velocity",
		Schema: silo.Schema{
			"x": {Kind: silo.KindF32},
			"y": {Kind: silo.KindF32},
		},
	})

	world.Commands.CreateEntity(map[string]any{
		"Position": map[string]any{"x": 0.0, "y": 0.0},
		"Velocity": map[string]any{"x": 1.0, "y": 0.5},
	})
	world.Flush()

	moving, _ := world.Query(silo.QueryOptions{With: []string{"Position", "Velocity"}})
	cursor := world.Cursor(moving)
	for cursor.Next() {
		_ = cursor.CurrentEntity()
		// read/write Position and Velocity columns for this row
	}

Silo is a standalone library; it has no rendering, input or physics
concerns of its own.
*/
package silo
