package silo

// packedPool is the archetype-level shared backing store for one
// packed-array property (spec §3: "variable-length array, backed by
// an archetype-level shared pool rather than per-entity fixed slots").
// Entities reference a [start, start+length) slice of the pool via
// their _startIndex/_length columns.
//
// The pool only ever grows: freed packed-array slices are never
// reclaimed (an Open Question decision, see DESIGN.md). A swap-remove
// or archetype move abandons an entity's slice in place; this wastes
// space under heavy churn but keeps the pool's own bookkeeping to a
// single append-only column, matching the "no extra moving parts"
// texture of the rest of this storage layer.
type packedPool struct {
	itemKind primitiveKind
	data     *column
	used     int
}

func newPackedPool(itemKind PropertyKind) *packedPool {
	kind := itemKind.primitive()
	return &packedPool{
		itemKind: kind,
		data:     newColumn(kind, 0),
	}
}

// alloc appends items to the pool and returns the start index and
// length of the slice they were written to.
func (p *packedPool) alloc(items []any) (start uint32, length uint16) {
	start = uint32(p.used)
	n := len(items)
	if n == 0 {
		return start, 0
	}
	if p.used+n > p.data.length() {
		p.data.grow(p.used + n)
	}
	for i, item := range items {
		row := p.used + i
		switch v := item.(type) {
		case float64:
			p.data.setFloat(row, v)
		case float32:
			p.data.setFloat(row, float64(v))
		case int:
			p.data.setInt(row, int64(v))
		case int64:
			p.data.setInt(row, v)
		case uint64:
			p.data.setUint(row, v)
		case uint32:
			p.data.setUint(row, uint64(v))
		default:
			if iv, ok := asInt(v); ok {
				p.data.setInt(row, int64(iv))
			}
		}
	}
	p.used += n
	return start, uint16(n)
}

// slice reads back the [start, start+length) range as designer-facing
// values (float64 for float columns, int64 otherwise).
func (p *packedPool) slice(start uint32, length uint16) []any {
	out := make([]any, length)
	for i := 0; i < int(length); i++ {
		row := int(start) + i
		switch p.itemKind {
		case pF64, pF32:
			out[i] = p.data.getFloat(row)
		default:
			out[i] = p.data.getInt(row)
		}
	}
	return out
}

// PackedArraySink resolves the archetype-level packedPool backing one
// component's packed-array properties, so the write/read programs in
// codec.go can allocate and slice into it without codec.go itself
// knowing about archetypes. property is the schema key a given
// packed-array representation was compiled for (representation.Property).
type PackedArraySink interface {
	Alloc(property string, items []any) (start uint32, length uint16)
	Slice(property string, start uint32, length uint16) []any
}

// archetypePackedSink adapts one archetype's per-property pool map
// (archetypeInternal.pools[ctid]) to a PackedArraySink.
type archetypePackedSink struct {
	pools map[string]*packedPool
}

func (s archetypePackedSink) Alloc(property string, items []any) (uint32, uint16) {
	p := s.pools[property]
	if p == nil {
		return 0, 0
	}
	return p.alloc(items)
}

func (s archetypePackedSink) Slice(property string, start uint32, length uint16) []any {
	p := s.pools[property]
	if p == nil {
		return []any{}
	}
	return p.slice(start, length)
}

// packedSink returns ctid's PackedArraySink within at, or nil if ctid
// carries no packed-array properties.
func (at *archetypeInternal) packedSink(ctid CTID) PackedArraySink {
	pools, ok := at.pools[ctid]
	if !ok {
		return nil
	}
	return archetypePackedSink{pools: pools}
}
