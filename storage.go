package silo

import "github.com/TheBitDrifter/bark"

// Storage is the entity-facing facade over a World: entity creation,
// destruction and lookup, without exposing the archetype table or
// command buffer directly. This generalizes the teacher's Storage
// interface (storage.go), which wrapped a table.Schema/table.Table
// pair the same way this wraps a World.
type Storage interface {
	Entity(id EntityID) (EntityHandle, error)
	NewEntities(n int, components ...Component) ([]EntityID, error)
	EnqueueNewEntities(n int, data map[string]any) error
	DestroyEntities(ids ...EntityID) error
	EnqueueDestroyEntities(ids ...EntityID)
	Register(components ...Component) error
	Locked() bool
}

// storage implements Storage over a World. Where the teacher locked
// storage with a mask.Mask256 of bit-flags (one per concurrent
// reader/writer) and drained a queue on the last unlock, this engine's
// only "lock" is the command buffer's own Flush: structural mutation
// always goes through CommandBuffer, so storage is "locked" exactly
// while a Flush is in progress (spec's consolidated, phase-ordered
// flush replaces the teacher's ad hoc lock-count gate).
type storage struct {
	world *World
}

// NewStorage wraps world in a Storage facade.
func NewStorage(world *World) Storage {
	return &storage{world: world}
}

func (s *storage) Locked() bool { return s.world.Locked() }

// Entity returns a handle for id if it is currently active.
func (s *storage) Entity(id EntityID) (EntityHandle, error) {
	if !s.world.Directory.Active(id) {
		return EntityHandle{}, bark.AddTrace(EntityNotActiveError{Entity: id})
	}
	return EntityHandle{id: id, world: s.world}, nil
}

// NewEntities creates n entities immediately (spec §9's "pre-buffered
// fast path"), each carrying every component in components at its
// schema defaults (use EnqueueNewEntities for entities that need
// initial data).
func (s *storage) NewEntities(n int, components ...Component) ([]EntityID, error) {
	if s.Locked() {
		return nil, bark.AddTrace(StorageLockedError{})
	}
	for _, c := range components {
		if _, err := s.world.RegisterComponent(c); err != nil {
			return nil, err
		}
	}
	data := make(map[string]any, len(components))
	for _, c := range components {
		data[c.Name] = nil
	}

	ids := make([]EntityID, n)
	for i := 0; i < n; i++ {
		id, err := s.world.Commands.CreateNow(data)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}

// EnqueueNewEntities buffers the creation of n entities with data,
// applied on the next Flush.
func (s *storage) EnqueueNewEntities(n int, data map[string]any) error {
	s.world.Commands.CreateIdenticalEntities(data, n)
	return nil
}

func (s *storage) DestroyEntities(ids ...EntityID) error {
	if s.Locked() {
		return bark.AddTrace(StorageLockedError{})
	}
	return s.world.Immediate(func(cb *CommandBuffer) {
		for _, id := range ids {
			cb.DestroyEntity(id)
		}
	})
}

func (s *storage) EnqueueDestroyEntities(ids ...EntityID) {
	for _, id := range ids {
		s.world.Commands.DestroyEntity(id)
	}
}

func (s *storage) Register(components ...Component) error {
	for _, c := range components {
		if _, err := s.world.RegisterComponent(c); err != nil {
			return err
		}
	}
	return nil
}
