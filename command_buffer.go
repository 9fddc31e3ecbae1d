package silo

import (
	"fmt"
	"sort"

	"github.com/TheBitDrifter/bark"
)

// CommandBuffer collects structural edits during a frame and applies
// them atomically, consolidated and batched, at Flush (spec §4.7:
// C7 Command Buffer).
type CommandBuffer struct {
	registry     *ComponentRegistry
	table        *ArchetypeTable
	directory    *EntityDirectory
	queryEngine  *QueryEngine
	interner     *Interner
	prefabs      PrefabSource
	logger       Logger
	ticks        TickSource
	queue        entityOperationsQueue
	onDestroy    func(EntityID)
}

// NewCommandBuffer wires a buffer to the rest of a World's components.
func NewCommandBuffer(registry *ComponentRegistry, table *ArchetypeTable, directory *EntityDirectory, qe *QueryEngine, interner *Interner, prefabs PrefabSource, ticks TickSource, logger Logger) *CommandBuffer {
	return &CommandBuffer{
		registry: registry, table: table, directory: directory, queryEngine: qe,
		interner: interner, prefabs: prefabs, ticks: ticks, logger: logger,
	}
}

func (cb *CommandBuffer) CreateEntity(data map[string]any) {
	cb.queue.enqueue(command{kind: cmdCreateEntity, data: data})
}

// CreateNow creates a single entity immediately, bypassing the queue
// entirely. Storage.NewEntities uses this rather than
// CreateIdenticalEntities so it can hand the caller back the exact
// EntityID that was minted, which a deferred, consolidated creation
// phase cannot promise before Flush runs.
func (cb *CommandBuffer) CreateNow(data map[string]any) (EntityID, error) {
	ctids, err := cb.ctidsForData(data)
	if err != nil {
		return 0, bark.AddTrace(err)
	}
	at, created, err := cb.table.GetOrCreateArchetype(ctids)
	if err != nil {
		return 0, bark.AddTrace(err)
	}
	if created {
		cb.queryEngine.NotifyArchetypeCreated(at)
	}
	return cb.createRow(at, data, cb.ticks.Current())
}

func (cb *CommandBuffer) CreateEntityInArchetype(archetypeID uint32, data map[string]any) {
	cb.queue.enqueue(command{kind: cmdCreateEntityInArchetype, archetypeID: archetypeID, hasArchetypeID: true, data: data})
}

func (cb *CommandBuffer) CreateIdenticalEntities(data map[string]any, count int) {
	cb.queue.enqueue(command{kind: cmdCreateIdenticalEntities, data: data, count: count})
}

func (cb *CommandBuffer) CreateEntitiesWithData(dataList []map[string]any) {
	cb.queue.enqueue(command{kind: cmdCreateEntitiesWithData, dataList: dataList})
}

func (cb *CommandBuffer) InstantiatePrefab(prefabID uint16, overrides map[string]any) {
	cb.queue.enqueue(command{kind: cmdInstantiatePrefab, prefabID: prefabID, overrides: overrides})
}

func (cb *CommandBuffer) DestroyEntity(e EntityID) {
	cb.queue.enqueue(command{kind: cmdDestroyEntity, entity: e})
}

func (cb *CommandBuffer) DestroyEntitiesInQuery(q *Query) {
	cb.queue.enqueue(command{kind: cmdDestroyEntitiesInQuery, query: q})
}

func (cb *CommandBuffer) AddComponent(e EntityID, ctid CTID, data map[string]any) {
	cb.queue.enqueue(command{kind: cmdAddComponent, entity: e, ctid: ctid, data: data})
}

func (cb *CommandBuffer) RemoveComponent(e EntityID, ctid CTID) {
	cb.queue.enqueue(command{kind: cmdRemoveComponent, entity: e, ctid: ctid})
}

func (cb *CommandBuffer) SetComponentData(e EntityID, ctid CTID, data map[string]any) {
	cb.queue.enqueue(command{kind: cmdSetComponentData, entity: e, ctid: ctid, data: data})
}

func (cb *CommandBuffer) AddComponentToQuery(q *Query, ctid CTID, data map[string]any) {
	cb.queue.enqueue(command{kind: cmdAddComponentToQuery, query: q, ctid: ctid, data: data})
}

func (cb *CommandBuffer) RemoveComponentFromQuery(q *Query, ctid CTID) {
	cb.queue.enqueue(command{kind: cmdRemoveComponentFromQuery, query: q, ctid: ctid})
}

func (cb *CommandBuffer) SetComponentDataOnQuery(q *Query, ctid CTID, data map[string]any) {
	cb.queue.enqueue(command{kind: cmdSetComponentDataOnQuery, query: q, ctid: ctid, data: data})
}

// modRecord accumulates every pending addition/removal for one entity
// during the consolidation pass (spec §4.7 step 1).
type modRecord struct {
	additions map[CTID]map[string]any
	removals  map[CTID]bool
}

type archCreation struct {
	archetypeID uint32
	datas       []map[string]any
}

type identicalCreation struct {
	archetypeID uint32
	data        map[string]any
	count       int
}

// Flush consolidates and applies every buffered command, in the fixed
// phase order deletion -> modification -> query-ops -> creation (spec
// §4.7, resolving the source's ambiguous ordering per the design
// notes: this spec pins modification before query-ops).
func (cb *CommandBuffer) Flush() error {
	tick := cb.ticks.Current()
	commands := cb.queue.drain()

	deletions := make(map[EntityID]bool)
	mods := make(map[EntityID]*modRecord)
	creationsByArch := make(map[uint32]*archCreation)
	var creationOrder []uint32 // archetype IDs in first-arrival order
	var identicalCreations []identicalCreation
	var queryOps []command

	ensureMod := func(e EntityID) *modRecord {
		rec, ok := mods[e]
		if !ok {
			rec = &modRecord{additions: make(map[CTID]map[string]any), removals: make(map[CTID]bool)}
			mods[e] = rec
		}
		return rec
	}

	addCreation := func(archetypeID uint32, data map[string]any) {
		ac, ok := creationsByArch[archetypeID]
		if !ok {
			ac = &archCreation{archetypeID: archetypeID}
			creationsByArch[archetypeID] = ac
			creationOrder = append(creationOrder, archetypeID)
		}
		ac.datas = append(ac.datas, data)
	}

	for _, c := range commands {
		switch c.kind {
		case cmdDestroyEntity:
			deletions[c.entity] = true
			delete(mods, c.entity)

		case cmdDestroyEntitiesInQuery:
			cur := NewCursor(c.query, cb.table)
			for cur.Next() {
				id := cur.CurrentEntity()
				deletions[id] = true
				delete(mods, id)
			}

		case cmdAddComponent, cmdSetComponentData:
			if deletions[c.entity] {
				continue
			}
			rec := ensureMod(c.entity)
			delete(rec.removals, c.ctid)
			rec.additions[c.ctid] = c.data

		case cmdRemoveComponent:
			if deletions[c.entity] {
				continue
			}
			rec := ensureMod(c.entity)
			delete(rec.additions, c.ctid)
			rec.removals[c.ctid] = true

		case cmdCreateEntity:
			ctids, err := cb.ctidsForData(c.data)
			if err != nil {
				cb.logger.Warnf("silo: create entity: %v", err)
				continue
			}
			at, _, err := cb.table.GetOrCreateArchetype(ctids)
			if err != nil {
				return bark.AddTrace(err)
			}
			cb.queryEngine.NotifyArchetypeCreated(at)
			addCreation(at.id, c.data)

		case cmdCreateEntityInArchetype:
			at, err := cb.table.Archetype(c.archetypeID)
			if err != nil {
				cb.logger.Warnf("silo: create entity in archetype: %v", err)
				continue
			}
			addCreation(at.id, c.data)

		case cmdCreateIdenticalEntities:
			ctids, err := cb.ctidsForData(c.data)
			if err != nil {
				cb.logger.Warnf("silo: create identical entities: %v", err)
				continue
			}
			at, _, err := cb.table.GetOrCreateArchetype(ctids)
			if err != nil {
				return bark.AddTrace(err)
			}
			cb.queryEngine.NotifyArchetypeCreated(at)
			identicalCreations = append(identicalCreations, identicalCreation{archetypeID: at.id, data: c.data, count: c.count})

		case cmdCreateEntitiesWithData:
			for _, data := range c.dataList {
				ctids, err := cb.ctidsForData(data)
				if err != nil {
					cb.logger.Warnf("silo: create entities with data: %v", err)
					continue
				}
				at, _, err := cb.table.GetOrCreateArchetype(ctids)
				if err != nil {
					return bark.AddTrace(err)
				}
				cb.queryEngine.NotifyArchetypeCreated(at)
				addCreation(at.id, data)
			}

		case cmdInstantiatePrefab:
			prefab, found := cb.prefabs.GetPrefabByNumericID(c.prefabID)
			if !found {
				cb.logger.Warnf("silo: %v", PrefabNotFoundError{PrefabID: c.prefabID})
				continue
			}
			merged := mergePrefabOverrides(prefab.Components, c.overrides)
			ctids, err := cb.ctidsForData(merged)
			if err != nil {
				cb.logger.Warnf("silo: instantiate prefab %d: %v", c.prefabID, err)
				continue
			}
			at, _, err := cb.table.GetOrCreateArchetype(ctids)
			if err != nil {
				return bark.AddTrace(err)
			}
			cb.queryEngine.NotifyArchetypeCreated(at)
			addCreation(at.id, merged)

		case cmdAddComponentToQuery, cmdRemoveComponentFromQuery, cmdSetComponentDataOnQuery:
			queryOps = append(queryOps, c)
		}
	}

	// Phase 2: deletion.
	for id := range deletions {
		if err := cb.destroyOne(id); err != nil {
			cb.logger.Warnf("silo: destroy entity: %v", err)
		}
	}

	// Phase 3: modification.
	targetCache := make(map[string]*archetypeInternal)
	entityIDs := make([]EntityID, 0, len(mods))
	for id := range mods {
		entityIDs = append(entityIDs, id)
	}
	sort.Slice(entityIDs, func(i, j int) bool { return entityIDs[i] < entityIDs[j] })
	for _, id := range entityIDs {
		rec := mods[id]
		if err := cb.applyModification(id, rec, tick, targetCache); err != nil {
			if _, ok := err.(EntityNotActiveError); ok {
				cb.logger.Warnf("silo: %v", err)
				continue
			}
			return bark.AddTrace(err)
		}
	}

	// Phase 4: query-based operations.
	for _, c := range queryOps {
		if err := cb.applyQueryOp(c, tick, targetCache); err != nil {
			return bark.AddTrace(err)
		}
	}

	// Phase 5: creation.
	for _, archID := range creationOrder {
		ac := creationsByArch[archID]
		at, err := cb.table.Archetype(ac.archetypeID)
		if err != nil {
			continue
		}
		for _, data := range ac.datas {
			if _, err := cb.createRow(at, data, tick); err != nil {
				cb.logger.Warnf("silo: create entity: %v", err)
			}
		}
	}
	for _, ic := range identicalCreations {
		at, err := cb.table.Archetype(ic.archetypeID)
		if err != nil {
			continue
		}
		for i := 0; i < ic.count; i++ {
			if _, err := cb.createRow(at, ic.data, tick); err != nil {
				cb.logger.Warnf("silo: create identical entity: %v", err)
				break
			}
		}
	}

	cb.table.compact()
	return nil
}

func (cb *CommandBuffer) ctidsForData(data map[string]any) ([]CTID, error) {
	ctids := make([]CTID, 0, len(data))
	for name := range data {
		id, err := cb.registry.CTIDFor(name)
		if err != nil {
			return nil, err
		}
		ctids = append(ctids, id)
	}
	return sortCTIDs(ctids), nil
}

func (cb *CommandBuffer) destroyOne(id EntityID) error {
	loc, err := cb.directory.Locate(id)
	if err != nil {
		return nil // already inactive: destroy-cancels-modify already handled this
	}
	at, err := cb.table.Archetype(loc.archetypeID)
	if err != nil {
		return err
	}
	moved, didMove := cb.table.removeRow(at, loc.chunkIndex, loc.row)
	if didMove {
		if err := cb.directory.Move(moved, loc.archetypeID, loc.chunkIndex, loc.row); err != nil {
			return err
		}
	}
	if err := cb.directory.Destroy(id); err != nil {
		return err
	}
	if cb.onDestroy != nil {
		cb.onDestroy(id)
	}
	return nil
}

func (cb *CommandBuffer) createRow(at *archetypeInternal, data map[string]any, tick Tick) (EntityID, error) {
	chunkIndex, row := cb.table.allocateRow(at)
	id := cb.directory.Create(at.id, chunkIndex, row)
	cb.table.setEntity(at, chunkIndex, row, id)
	for _, ctid := range at.ctids {
		info, err := cb.registry.Info(ctid)
		if err != nil {
			return id, err
		}
		name := ""
		for n := range data {
			if cb.ctidMatches(n, ctid) {
				name = n
				break
			}
		}
		var raw any
		if name != "" {
			raw = data[name]
		}
		cols, err := info.Write(cb.interner, raw, at.packedSink(ctid))
		if err != nil {
			return id, err
		}
		if err := cb.table.writeColumns(at, ctid, chunkIndex, row, cols, tick); err != nil {
			return id, err
		}
	}
	return id, nil
}

func (cb *CommandBuffer) ctidMatches(name string, ctid CTID) bool {
	id, err := cb.registry.CTIDFor(name)
	return err == nil && id == ctid
}

func (cb *CommandBuffer) applyModification(id EntityID, rec *modRecord, tick Tick, targetCache map[string]*archetypeInternal) error {
	loc, err := cb.directory.Locate(id)
	if err != nil {
		return EntityNotActiveError{Entity: id}
	}
	at, err := cb.table.Archetype(loc.archetypeID)
	if err != nil {
		return err
	}

	var addCTIDs, removeCTIDs []CTID
	for ctid := range rec.additions {
		if !at.hasComponent(ctid) {
			addCTIDs = append(addCTIDs, ctid)
		}
	}
	for ctid := range rec.removals {
		if at.hasComponent(ctid) {
			removeCTIDs = append(removeCTIDs, ctid)
		}
	}
	sortCTIDs(addCTIDs)
	sortCTIDs(removeCTIDs)

	if len(addCTIDs) == 0 && len(removeCTIDs) == 0 {
		for ctid, data := range rec.additions {
			if err := cb.writeComponent(at, ctid, loc.chunkIndex, loc.row, data, tick); err != nil {
				return err
			}
		}
		return nil
	}

	sig := fmt.Sprintf("%d|%v|%v", at.id, addCTIDs, removeCTIDs)
	target, ok := targetCache[sig]
	if !ok {
		newCTIDs := append([]CTID(nil), at.ctids...)
		for _, c := range addCTIDs {
			newCTIDs = ctidsWithAdded(newCTIDs, c)
		}
		for _, c := range removeCTIDs {
			newCTIDs = ctidsWithRemoved(newCTIDs, c)
		}
		var created bool
		var err error
		target, created, err = cb.table.GetOrCreateArchetype(newCTIDs)
		if err != nil {
			return err
		}
		if created {
			cb.queryEngine.NotifyArchetypeCreated(target)
		}
		targetCache[sig] = target
	}

	dstChunk, dstRow := cb.table.allocateRow(target)
	cb.table.setEntity(target, dstChunk, dstRow, id)
	for _, ctid := range at.ctids {
		if !target.hasComponent(ctid) {
			continue
		}
		if rec.removals[ctid] {
			continue
		}
		copyComponentRow(cb.table, at, target, ctid, loc.chunkIndex, loc.row, dstChunk, dstRow, tick)
	}
	for ctid, data := range rec.additions {
		if err := cb.writeComponent(target, ctid, dstChunk, dstRow, data, tick); err != nil {
			return err
		}
	}

	if err := cb.directory.Move(id, target.id, dstChunk, dstRow); err != nil {
		return err
	}
	moved, didMove := cb.table.removeRow(at, loc.chunkIndex, loc.row)
	if didMove {
		if err := cb.directory.Move(moved, at.id, loc.chunkIndex, loc.row); err != nil {
			return err
		}
	}
	return nil
}

func (cb *CommandBuffer) writeComponent(at *archetypeInternal, ctid CTID, chunkIndex, row int, data map[string]any, tick Tick) error {
	info, err := cb.registry.Info(ctid)
	if err != nil {
		return err
	}
	cols, err := info.Write(cb.interner, data, at.packedSink(ctid))
	if err != nil {
		return err
	}
	return cb.table.writeColumns(at, ctid, chunkIndex, row, cols, tick)
}

func (cb *CommandBuffer) applyQueryOp(c command, tick Tick, targetCache map[string]*archetypeInternal) error {
	cur := NewCursor(c.query, cb.table)
	var matched []EntityID
	for cur.Next() {
		matched = append(matched, cur.CurrentEntity())
	}
	for _, id := range matched {
		rec := &modRecord{additions: make(map[CTID]map[string]any), removals: make(map[CTID]bool)}
		switch c.kind {
		case cmdAddComponentToQuery, cmdSetComponentDataOnQuery:
			rec.additions[c.ctid] = c.data
		case cmdRemoveComponentFromQuery:
			rec.removals[c.ctid] = true
		}
		if err := cb.applyModification(id, rec, tick, targetCache); err != nil {
			if _, ok := err.(EntityNotActiveError); ok {
				cb.logger.Warnf("silo: %v", err)
				continue
			}
			return err
		}
	}
	return nil
}

// copyComponentRow copies every column belonging to ctid from one
// archetype row to another (archetype move, spec §4.4/§4.7), stamping
// the destination row's dirty tick at tick (the move's current_tick,
// per spec §4.4 step 4: every CTID of the target archetype is marked
// dirty at the tick the move happened, not just the components that
// were actually added).
func copyComponentRow(t *ArchetypeTable, src, dst *archetypeInternal, ctid CTID, srcChunk, srcRow, dstChunk, dstRow int, tick Tick) {
	srcCols := src.colIndex[ctid]
	dstCols := dst.colIndex[ctid]
	srcC := src.chunks[srcChunk]
	dstC := dst.chunks[dstChunk]
	for name, idx := range srcCols {
		if dstIdx, ok := dstCols[name]; ok {
			dstC.columns[dstIdx].copyFrom(srcC.columns[idx], srcRow, dstRow)
		}
	}
	// Packed-array start/length columns index the source archetype's
	// pool; re-allocate the items in the destination archetype's pool.
	for prop, srcPool := range src.pools[ctid] {
		dstPool := dst.pools[ctid][prop]
		info, err := t.registry.Info(ctid)
		if dstPool == nil || err != nil {
			continue
		}
		rep := info.Reps[prop]
		startCol := dstC.columns[dstCols[rep.PackedStartCol]]
		lengthCol := dstC.columns[dstCols[rep.PackedLengthCol]]
		items := srcPool.slice(uint32(startCol.getUint(dstRow)), uint16(lengthCol.getUint(dstRow)))
		start, length := dstPool.alloc(items)
		startCol.setUint(dstRow, uint64(start))
		lengthCol.setUint(dstRow, uint64(length))
	}
	dstCTIDIdx := dst.ctidIndex[ctid]
	dstC.dirty[dstCTIDIdx][dstRow] = tick
	if tick > dst.maxDirtyTick[dstCTIDIdx] {
		dst.maxDirtyTick[dstCTIDIdx] = tick
	}
}
