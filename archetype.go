package silo

import (
	"fmt"

	"github.com/TheBitDrifter/bark"
)

// archetypeInternal is one archetype: a unique component-type set plus
// its chunked SoA storage (spec §4: C4 Archetype Table).
type archetypeInternal struct {
	id            uint32
	ctids         []CTID
	mask          ArchetypeMask
	layout        []archColumn
	colIndex      map[CTID]map[string]int // ctid -> column name -> layout index
	ctidIndex     map[CTID]int            // ctid -> position in ctids (dirty-tracking index)
	pools         map[CTID]map[string]*packedPool
	chunks        []*chunk
	lastNonFull   int
	chunkCapacity int
	maxDirtyTick  []Tick // per ctidIndex position, archetype-wide high-water mark (spec §6 broad-phase cull)
}

func (a *archetypeInternal) hasComponent(id CTID) bool {
	_, ok := a.ctidIndex[id]
	return ok
}

// ArchetypeTable owns every archetype and routes row allocation,
// removal and cross-archetype moves (spec §4.4, §4.5).
type ArchetypeTable struct {
	registry      *ComponentRegistry
	chunkCapacity int
	maxArchetypes int
	archetypes    []*archetypeInternal
	byMask        map[ArchetypeMask]uint32
}

// NewArchetypeTable returns an empty table, always containing the
// empty archetype (no components) at id 0.
func NewArchetypeTable(registry *ComponentRegistry, chunkCapacity, maxArchetypes int) *ArchetypeTable {
	t := &ArchetypeTable{
		registry:      registry,
		chunkCapacity: chunkCapacity,
		maxArchetypes: maxArchetypes,
		byMask:        make(map[ArchetypeMask]uint32),
	}
	_, _, _ = t.getOrCreate(nil)
	return t
}

func (t *ArchetypeTable) Archetype(id uint32) (*archetypeInternal, error) {
	if int(id) >= len(t.archetypes) {
		return nil, bark.AddTrace(UnknownArchetypeError{ID: id})
	}
	return t.archetypes[id], nil
}

func (t *ArchetypeTable) Len() int {
	return len(t.archetypes)
}

// ClearAll drops every archetype's metadata and storage and resets
// next_archetype_id to 0 (spec §4.4's "Clear all": the one operation
// that bypasses per-archetype teardown and resets the table wholesale).
// Rebuilds the empty archetype at id 0, matching NewArchetypeTable's
// own invariant that id 0 always exists.
func (t *ArchetypeTable) ClearAll() {
	t.archetypes = nil
	t.byMask = make(map[ArchetypeMask]uint32)
	_, _, _ = t.getOrCreate(nil)
}

// getOrCreate returns the archetype for exactly this CTID set,
// creating it if it doesn't exist yet (spec §4.1: archetypes are
// created lazily the first time a CTID set is needed). created
// reports whether a new archetype was built, so callers can notify
// the query engine.
func (t *ArchetypeTable) getOrCreate(ctids []CTID) (at *archetypeInternal, created bool, err error) {
	sorted := sortCTIDs(append([]CTID(nil), ctids...))
	m := maskFromCTIDs(sorted)
	if id, ok := t.byMask[m]; ok {
		return t.archetypes[id], false, nil
	}
	if len(t.archetypes) >= t.maxArchetypes {
		return nil, false, bark.AddTrace(TooManyArchetypesError{Max: t.maxArchetypes})
	}
	at, err = t.buildArchetype(uint32(len(t.archetypes)), sorted, m)
	if err != nil {
		return nil, false, err
	}
	t.archetypes = append(t.archetypes, at)
	t.byMask[m] = at.id
	if cb := Config.Events.OnArchetypeCreated; cb != nil {
		cb(at.id, m)
	}
	return at, true, nil
}

// GetOrCreateArchetype is the exported form of getOrCreate, used by
// callers outside this file (the command buffer) that need the
// created flag to notify the query engine.
func (t *ArchetypeTable) GetOrCreateArchetype(ctids []CTID) (*archetypeInternal, bool, error) {
	return t.getOrCreate(ctids)
}

func (t *ArchetypeTable) buildArchetype(id uint32, ctids []CTID, m ArchetypeMask) (*archetypeInternal, error) {
	at := &archetypeInternal{
		id: id, ctids: ctids, mask: m,
		colIndex:      make(map[CTID]map[string]int, len(ctids)),
		ctidIndex:     make(map[CTID]int, len(ctids)),
		pools:         make(map[CTID]map[string]*packedPool),
		chunkCapacity: t.chunkCapacity,
		maxDirtyTick:  make([]Tick, len(ctids)),
	}
	for i, ctid := range ctids {
		at.ctidIndex[ctid] = i
		info, err := t.registry.Info(ctid)
		if err != nil {
			return nil, err
		}
		cols := make(map[string]int, len(info.Columns))
		for _, c := range info.Columns {
			cols[c.Name] = len(at.layout)
			at.layout = append(at.layout, archColumn{ctid: ctid, name: c.Name, kind: c.Kind})
		}
		at.colIndex[ctid] = cols
		for propName, rep := range info.Reps {
			if rep.Kind == KindPackedArray {
				if at.pools[ctid] == nil {
					at.pools[ctid] = make(map[string]*packedPool)
				}
				at.pools[ctid][propName] = newPackedPool(rep.PackedItemKind)
			}
		}
	}
	return at, nil
}

// allocateRow reserves the next free row in archetype at, appending a
// new chunk if every existing chunk is full (spec §4.4's "last
// non-full chunk" allocation hint). The reserved row's entity slot is
// not yet set; callers must call setEntity once the EntityID assigned
// to it is known.
func (t *ArchetypeTable) allocateRow(at *archetypeInternal) (chunkIndex, row int) {
	for at.lastNonFull < len(at.chunks) && at.chunks[at.lastNonFull].full() {
		at.lastNonFull++
	}
	if at.lastNonFull >= len(at.chunks) {
		at.chunks = append(at.chunks, newChunk(at.chunkCapacity, at.layout, len(at.ctids)))
		if cb := Config.Events.OnChunkCreated; cb != nil {
			cb(at.id, len(at.chunks)-1)
		}
	}
	c := at.chunks[at.lastNonFull]
	row = c.appendRow()
	return at.lastNonFull, row
}

func (t *ArchetypeTable) setEntity(at *archetypeInternal, chunkIndex, row int, e EntityID) {
	at.chunks[chunkIndex].setEntity(row, e)
}

// removeRow swap-removes (chunkIndex, row), returning the entity that
// was moved into that slot, if any.
func (t *ArchetypeTable) removeRow(at *archetypeInternal, chunkIndex, row int) (moved EntityID, didMove bool) {
	c := at.chunks[chunkIndex]
	moved, didMove = c.swapRemove(row)
	if at.lastNonFull > chunkIndex {
		at.lastNonFull = chunkIndex
	}
	return moved, didMove
}

// compact drops trailing empty chunks from every archetype (spec
// §4.4's "batched compaction"). It never relocates live rows, so it
// never invalidates an EntityDirectory entry; only freed-chunk memory
// is reclaimed.
func (t *ArchetypeTable) compact() {
	for _, at := range t.archetypes {
		for len(at.chunks) > 0 && at.chunks[len(at.chunks)-1].count == 0 {
			idx := len(at.chunks) - 1
			at.chunks = at.chunks[:idx]
			if cb := Config.Events.OnChunkFreed; cb != nil {
				cb(at.id, idx)
			}
		}
		if at.lastNonFull > len(at.chunks) {
			at.lastNonFull = len(at.chunks)
		}
	}
}

func (t *ArchetypeTable) column(at *archetypeInternal, ctid CTID, name string, chunkIndex int) (*column, error) {
	cols, ok := at.colIndex[ctid]
	if !ok {
		return nil, fmt.Errorf("silo: archetype %d does not carry component %d", at.id, ctid)
	}
	idx, ok := cols[name]
	if !ok {
		return nil, fmt.Errorf("silo: archetype %d has no column %q", at.id, name)
	}
	return at.chunks[chunkIndex].columns[idx], nil
}

// writeColumns writes a set of column-name -> value pairs (as
// produced by ComponentInfo.Write) into one row, and stamps the
// owning CTID's per-row dirty tick.
func (t *ArchetypeTable) writeColumns(at *archetypeInternal, ctid CTID, chunkIndex, row int, values map[string]any, tick Tick) error {
	cols, ok := at.colIndex[ctid]
	if !ok {
		return fmt.Errorf("silo: archetype %d does not carry component %d", at.id, ctid)
	}
	for name, v := range values {
		idx, ok := cols[name]
		if !ok {
			continue
		}
		col := at.chunks[chunkIndex].columns[idx]
		writeAny(col, row, v)
	}
	ctidIdx := at.ctidIndex[ctid]
	at.chunks[chunkIndex].markDirty(ctidIdx, row, tick)
	if tick > at.maxDirtyTick[ctidIdx] {
		at.maxDirtyTick[ctidIdx] = tick
	}
	return nil
}

// readColumns returns the column name -> layout index map for ctid,
// used to pull every raw value back out of a row.
func (t *ArchetypeTable) readColumns(at *archetypeInternal, ctid CTID) map[string]int {
	return at.colIndex[ctid]
}

func writeAny(col *column, row int, v any) {
	switch x := v.(type) {
	case float64:
		col.setFloat(row, x)
	case float32:
		col.setFloat(row, float64(x))
	case int:
		col.setInt(row, int64(x))
	case int8:
		col.setInt(row, int64(x))
	case int16:
		col.setInt(row, int64(x))
	case int32:
		col.setInt(row, int64(x))
	case int64:
		col.setInt(row, x)
	case uint:
		col.setUint(row, uint64(x))
	case uint8:
		col.setUint(row, uint64(x))
	case uint16:
		col.setUint(row, uint64(x))
	case uint32:
		col.setUint(row, uint64(x))
	case uint64:
		col.setUint(row, x)
	case bool:
		if x {
			col.setUint(row, 1)
		} else {
			col.setUint(row, 0)
		}
	}
}

func readAny(col *column, row int) any {
	switch col.kind {
	case pF64:
		return col.getFloat(row)
	case pF32:
		return col.f32[row]
	case pI32, pI16, pI8:
		return col.getInt(row)
	default:
		return col.getUint(row)
	}
}
