package silo

// archColumn names one flat column in an archetype's layout: the CTID
// it belongs to (for reactive dirty tracking) plus its storage name
// and primitive kind.
type archColumn struct {
	ctid CTID
	name string
	kind primitiveKind
}

// chunk is one fixed-capacity row block of SoA storage (spec §4.4).
// Entities within a chunk are stored contiguously; removal is always
// swap-remove with the chunk's own last live row, never a shift.
type chunk struct {
	entities []EntityID
	columns  []*column
	dirty    [][]Tick // dirty[ctidIndex][row], ctidIndex into the owning archetype's ctids
	count    int
}

func newChunk(capacity int, layout []archColumn, numCTIDs int) *chunk {
	c := &chunk{
		entities: make([]EntityID, capacity),
		columns:  make([]*column, len(layout)),
		dirty:    make([][]Tick, numCTIDs),
	}
	for i, col := range layout {
		c.columns[i] = newColumn(col.kind, capacity)
	}
	for i := range c.dirty {
		c.dirty[i] = make([]Tick, capacity)
	}
	return c
}

func (c *chunk) capacity() int {
	return len(c.entities)
}

func (c *chunk) full() bool {
	return c.count >= c.capacity()
}

// appendRow reserves the next free row and returns its index; the
// caller sets entities[row] once the EntityID is known (entity
// allocation happens after row reservation, see ArchetypeTable).
func (c *chunk) appendRow() int {
	row := c.count
	c.count++
	return row
}

func (c *chunk) setEntity(row int, e EntityID) {
	c.entities[row] = e
}

// swapRemove removes row, moving the chunk's last live row into its
// place (spec §4.4). Returns the EntityID that was moved into row, or
// false if row was already the last row (nothing moved).
func (c *chunk) swapRemove(row int) (moved EntityID, didMove bool) {
	last := c.count - 1
	if row < 0 || row > last {
		return 0, false
	}
	if row != last {
		c.entities[row] = c.entities[last]
		for _, col := range c.columns {
			col.swapRemove(row, last)
		}
		for i := range c.dirty {
			c.dirty[i][row] = c.dirty[i][last]
		}
		moved, didMove = c.entities[row], true
	}
	c.count--
	return moved, didMove
}

func (c *chunk) markDirty(ctidIndex, row int, tick Tick) {
	c.dirty[ctidIndex][row] = tick
}

func (c *chunk) dirtyAt(ctidIndex, row int) Tick {
	return c.dirty[ctidIndex][row]
}
