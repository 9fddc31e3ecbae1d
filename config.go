package silo

import "github.com/TheBitDrifter/bark"

// Events lets callers observe archetype/chunk lifecycle events without
// coupling the core to any particular logging or metrics stack. This
// generalizes the teacher's table.TableEvents hook (config.go originally
// exposed only that single field).
type Events struct {
	// OnArchetypeCreated fires after an archetype is allocated for a new mask.
	OnArchetypeCreated func(id uint32, mask ArchetypeMask)
	// OnChunkCreated fires after a new chunk is appended to an archetype.
	OnChunkCreated func(archetypeID uint32, chunkIndex int)
	// OnChunkFreed fires after an emptied chunk's columns are released.
	OnChunkFreed func(archetypeID uint32, chunkIndex int)
}

// config holds process-wide tunables for the engine. Mirrors the
// teacher's single-field config.go, generalized to the knobs this
// engine actually needs.
type config struct {
	// MaxComponents bounds the number of distinct component types that
	// may be registered (spec §1: "more than ~256 component types ...
	// without config change" is out of scope).
	MaxComponents int
	// MaxArchetypes bounds the number of distinct archetype masks.
	MaxArchetypes int
	// ChunkCapacity is the fixed row capacity of one archetype chunk.
	ChunkCapacity int
	// Events are optional lifecycle observers.
	Events Events
}

// Config is the package-level configuration, mutable only before any
// World is constructed (consistent with the teacher's package-level
// var Config config).
var Config = config{
	MaxComponents: 256,
	MaxArchetypes: 4096,
	ChunkCapacity: 256,
}

// SetEvents configures the archetype/chunk lifecycle callbacks.
func (c *config) SetEvents(e Events) {
	c.Events = e
}

func (c config) validate() error {
	if c.MaxComponents <= 0 {
		return bark.AddTrace(InvalidSchemaError{Reason: "MaxComponents must be positive"})
	}
	if c.MaxComponents > 65536 {
		return bark.AddTrace(InvalidSchemaError{Reason: "MaxComponents exceeds the widest CTID width supported (65536)"})
	}
	if c.MaxArchetypes <= 0 {
		return bark.AddTrace(InvalidSchemaError{Reason: "MaxArchetypes must be positive"})
	}
	if c.ChunkCapacity <= 0 {
		return bark.AddTrace(InvalidSchemaError{Reason: "ChunkCapacity must be positive"})
	}
	return nil
}
