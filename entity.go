package silo

import "github.com/TheBitDrifter/bark"

// EntityDestroyCallback is invoked once an entity is actually removed
// from storage (after Flush), mirroring the teacher's
// EntityDestroyCallback hook on entity.SetParent/SetDestroyCallback.
type EntityDestroyCallback func(EntityID)

// EntityHandle is a thin, copyable reference to one entity, grounded
// on the teacher's entity type but carrying a *World instead of a
// table.Entry: every method resolves the entity's current location
// through World.Directory rather than holding a cached row index,
// since archetype moves invalidate a cached index but never the
// EntityID itself.
type EntityHandle struct {
	id    EntityID
	world *World
}

// ID returns the stable EntityID this handle refers to.
func (e EntityHandle) ID() EntityID { return e.id }

// Valid reports whether the entity this handle names is still active.
func (e EntityHandle) Valid() bool {
	return e.world != nil && e.world.Directory.Active(e.id)
}

// Archetype returns the ID of the archetype this entity currently
// belongs to.
func (e EntityHandle) Archetype() (uint32, error) {
	loc, err := e.world.Directory.Locate(e.id)
	if err != nil {
		return 0, bark.AddTrace(err)
	}
	return loc.archetypeID, nil
}

// Get reads back ctid's current designer-facing value for this
// entity, or ok=false if the entity doesn't carry that component.
func (e EntityHandle) Get(ctid CTID) (value map[string]any, ok bool, err error) {
	loc, err := e.world.Directory.Locate(e.id)
	if err != nil {
		return nil, false, bark.AddTrace(err)
	}
	at, err := e.world.Table.Archetype(loc.archetypeID)
	if err != nil {
		return nil, false, bark.AddTrace(err)
	}
	if !at.hasComponent(ctid) {
		return nil, false, nil
	}
	cols := e.world.Table.readColumns(at, ctid)
	raw := make(map[string]any, len(cols))
	chunk := at.chunks[loc.chunkIndex]
	for name, idx := range cols {
		raw[name] = readAny(chunk.columns[idx], loc.row)
	}
	info, err := e.world.Registry.Info(ctid)
	if err != nil {
		return nil, false, bark.AddTrace(err)
	}
	return info.Read(e.world.Interner, raw, at.packedSink(ctid)), true, nil
}

// AddComponent adds ctid to this entity immediately, moving it to the
// archetype that carries its existing components plus ctid.
func (e EntityHandle) AddComponent(ctid CTID, data map[string]any) error {
	return e.world.Immediate(func(cb *CommandBuffer) {
		cb.AddComponent(e.id, ctid, data)
	})
}

// EnqueueAddComponent buffers an AddComponent, applied on the next Flush.
func (e EntityHandle) EnqueueAddComponent(ctid CTID, data map[string]any) {
	e.world.Commands.AddComponent(e.id, ctid, data)
}

// RemoveComponent removes ctid from this entity immediately.
func (e EntityHandle) RemoveComponent(ctid CTID) error {
	return e.world.Immediate(func(cb *CommandBuffer) {
		cb.RemoveComponent(e.id, ctid)
	})
}

// EnqueueRemoveComponent buffers a RemoveComponent.
func (e EntityHandle) EnqueueRemoveComponent(ctid CTID) {
	e.world.Commands.RemoveComponent(e.id, ctid)
}

// SetComponentData overwrites ctid's data in place when the entity
// already carries ctid; otherwise ctid is added, as with AddComponent.
func (e EntityHandle) SetComponentData(ctid CTID, data map[string]any) error {
	return e.world.Immediate(func(cb *CommandBuffer) {
		cb.SetComponentData(e.id, ctid, data)
	})
}

// EnqueueSetComponentData buffers a SetComponentData.
func (e EntityHandle) EnqueueSetComponentData(ctid CTID, data map[string]any) {
	e.world.Commands.SetComponentData(e.id, ctid, data)
}

// Destroy removes this entity from storage immediately, firing its
// destroy callback (registered via a child's SetParent call) once the
// removal is applied.
func (e EntityHandle) Destroy() error {
	return e.world.Immediate(func(cb *CommandBuffer) {
		cb.DestroyEntity(e.id)
	})
}

// EnqueueDestroy buffers this entity's destruction.
func (e EntityHandle) EnqueueDestroy() {
	e.world.Commands.DestroyEntity(e.id)
}

// SetParent establishes a parent/child relationship used only for the
// destroy-callback cascade below; it has no effect on archetype
// membership or storage layout.
func (e EntityHandle) SetParent(parent EntityHandle, callback EntityDestroyCallback) {
	e.world.setParent(e.id, parent.id)
	if callback != nil {
		e.world.setDestroyCallback(parent.id, callback)
	}
}

// Parent returns the entity's parent, if SetParent was called and the
// parent is still active.
func (e EntityHandle) Parent() (EntityHandle, bool) {
	parentID, ok := e.world.parentOf(e.id)
	if !ok || !e.world.Directory.Active(parentID) {
		return EntityHandle{}, false
	}
	return EntityHandle{id: parentID, world: e.world}, true
}
