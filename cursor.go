package silo

import "iter"

// Cursor iterates the rows matching a Query, chunk by chunk, honoring
// the reactive broad/narrow-phase rules of spec §4.6.
type Cursor struct {
	query *Query
	table *ArchetypeTable

	archIdx  int
	chunkIdx int
	row      int

	curArch  *archetypeInternal
	curChunk *chunk

	initialized bool
}

// NewCursor returns a cursor over q's currently-matching archetypes.
func NewCursor(q *Query, t *ArchetypeTable) *Cursor {
	return &Cursor{query: q, table: t, row: -1}
}

func archMaxDirtyTick(at *archetypeInternal, ctids []CTID) Tick {
	var max Tick
	for _, t := range ctids {
		if idx, ok := at.ctidIndex[t]; ok {
			if at.maxDirtyTick[idx] > max {
				max = at.maxDirtyTick[idx]
			}
		}
	}
	return max
}

func (c *Cursor) Initialize() {
	if c.initialized {
		return
	}
	c.archIdx, c.chunkIdx, c.row = 0, 0, -1
	c.initialized = true
}

// Next advances to the next matching row, returning false once
// iteration is exhausted.
func (c *Cursor) Next() bool {
	c.Initialize()
	for {
		if c.archIdx >= len(c.query.matching) {
			return false
		}
		at, err := c.table.Archetype(c.query.matching[c.archIdx])
		if err != nil {
			c.archIdx++
			continue
		}
		if c.query.reactive {
			if archMaxDirtyTick(at, c.query.reactiveCTIDAt[at.id]) <= c.query.lastIterationTick {
				c.archIdx++
				c.chunkIdx, c.row = 0, -1
				continue
			}
		}
		if c.chunkIdx >= len(at.chunks) {
			c.archIdx++
			c.chunkIdx, c.row = 0, -1
			continue
		}
		ch := at.chunks[c.chunkIdx]
		c.row++
		if c.row >= ch.count {
			c.chunkIdx++
			c.row = -1
			continue
		}
		c.curArch, c.curChunk = at, ch
		return true
	}
}

// HasChanged reports whether the current row was written to (for any
// of the query's reactive CTIDs) after query.lastIterationTick. A
// non-reactive query reports every row as changed.
func (c *Cursor) HasChanged() bool {
	if !c.query.reactive {
		return true
	}
	for _, t := range c.query.reactiveCTIDAt[c.curArch.id] {
		idx := c.curArch.ctidIndex[t]
		if c.curChunk.dirtyAt(idx, c.row) > c.query.lastIterationTick {
			return true
		}
	}
	return false
}

// CurrentEntity returns the entity at the cursor's current position.
func (c *Cursor) CurrentEntity() EntityID {
	return c.curChunk.entities[c.row]
}

// EntityAtOffset returns the entity offset rows from the current
// position, within the same chunk; ok is false out of bounds.
func (c *Cursor) EntityAtOffset(offset int) (id EntityID, ok bool) {
	idx := c.row + offset
	if idx < 0 || idx >= c.curChunk.count {
		return 0, false
	}
	return c.curChunk.entities[idx], true
}

// EntityIndex returns the current row within the current chunk.
func (c *Cursor) EntityIndex() int {
	return c.row
}

// RemainingInArchetype returns the number of rows left in the current chunk.
func (c *Cursor) RemainingInArchetype() int {
	return c.curChunk.count - c.row
}

// Entities returns an iterator over (offset, EntityID) for every row
// the query currently matches, ignoring reactive filtering.
func (c *Cursor) Entities(table *ArchetypeTable) iter.Seq2[int, EntityID] {
	return func(yield func(int, EntityID) bool) {
		i := 0
		for _, id := range c.query.matching {
			at, err := table.Archetype(id)
			if err != nil {
				continue
			}
			for _, ch := range at.chunks {
				for row := 0; row < ch.count; row++ {
					if !yield(i, ch.entities[row]) {
						return
					}
					i++
				}
			}
		}
	}
}

// TotalMatched returns the total number of rows the query currently
// matches, ignoring reactive filtering.
func (c *Cursor) TotalMatched() int {
	total := 0
	for _, id := range c.query.matching {
		at, err := c.table.Archetype(id)
		if err != nil {
			continue
		}
		for _, ch := range at.chunks {
			total += ch.count
		}
	}
	return total
}
