package silo

import (
	"fmt"
	"sort"
	"strings"

	"github.com/TheBitDrifter/bark"
)

// QueryOptions describes a query at construction time (spec §4.6).
type QueryOptions struct {
	With    []string // required set R, by component name
	Without []string // excluded set E
	AnyOf   []string // at-least-one set A
	React   []string // reactive set X; implicitly a subset of With
	Mutable bool     // true: never cached, unique per request
}

// Query is a compiled, optionally cached query: four ArchetypeMasks
// plus the list of archetypes currently known to match (spec §4.6).
type Query struct {
	key      string
	rMask    ArchetypeMask
	eMask    ArchetypeMask
	aMask    ArchetypeMask
	xMask    ArchetypeMask
	xCTIDs   []CTID
	reactive bool
	mutable  bool
	refcount int

	matching       []uint32          // archetype IDs, insertion order
	matchingSet    map[uint32]bool   // membership for O(1) re-test skip
	reactiveCTIDAt map[uint32][]CTID // per-archetype: X ∩ archetype.ctids

	lastIterationTick Tick
}

// IsReactive reports whether this query declared a non-empty react set.
func (q *Query) IsReactive() bool { return q.reactive }

// SetLastIterationTick records the tick a system ran a reactive scan
// at, so the next scan only sees rows dirtied afterward (spec §4.6).
func (q *Query) SetLastIterationTick(t Tick) { q.lastIterationTick = t }

func (q *Query) matches(m ArchetypeMask) bool {
	if !m.ContainsAll(q.rMask) {
		return false
	}
	if !m.ContainsNone(q.eMask) {
		return false
	}
	if !q.aMask.IsEmpty() && !m.ContainsAny(q.aMask) {
		return false
	}
	return true
}

// QueryEngine compiles, caches and maintains queries against the
// archetype table (spec §4.6).
type QueryEngine struct {
	registry *ComponentRegistry
	table    *ArchetypeTable
	cache    map[string]*Query
	mutCount int
}

// NewQueryEngine returns an engine wired to registry and table.
func NewQueryEngine(registry *ComponentRegistry, table *ArchetypeTable) *QueryEngine {
	return &QueryEngine{
		registry: registry,
		table:    table,
		cache:    make(map[string]*Query),
	}
}

func ctidsForNames(registry *ComponentRegistry, names []string) ([]CTID, error) {
	out := make([]CTID, 0, len(names))
	for _, n := range names {
		id, err := registry.CTIDFor(n)
		if err != nil {
			return nil, bark.AddTrace(err)
		}
		out = append(out, id)
	}
	return out, nil
}

func cacheKey(opts QueryOptions) string {
	var b strings.Builder
	writeSorted := func(label string, names []string) {
		b.WriteString(label)
		b.WriteByte(':')
		sorted := append([]string(nil), names...)
		sort.Strings(sorted)
		b.WriteString(strings.Join(sorted, ","))
		b.WriteByte(';')
	}
	writeSorted("with", opts.With)
	writeSorted("without", opts.Without)
	writeSorted("any", opts.AnyOf)
	writeSorted("react", opts.React)
	return b.String()
}

// GetQuery compiles opts, returning a cached Query with its refcount
// incremented if an equivalent non-mutable query already exists (spec
// §4.6 "get_query").
func (e *QueryEngine) GetQuery(opts QueryOptions) (*Query, error) {
	if !opts.Mutable {
		key := cacheKey(opts)
		if q, ok := e.cache[key]; ok {
			q.refcount++
			return q, nil
		}
		q, err := e.compile(opts, key)
		if err != nil {
			return nil, err
		}
		q.refcount = 1
		e.cache[key] = q
		return q, nil
	}
	e.mutCount++
	return e.compile(opts, fmt.Sprintf("mutable:%d", e.mutCount))
}

// ReleaseQuery decrements a query's refcount, dropping it from the
// cache once it reaches zero (spec §4.6 "release_query"). Mutable
// queries are never cached, so releasing one is a no-op.
func (e *QueryEngine) ReleaseQuery(q *Query) {
	if q.mutable || strings.HasPrefix(q.key, "mutable:") {
		return
	}
	q.refcount--
	if q.refcount <= 0 {
		delete(e.cache, q.key)
	}
}

func (e *QueryEngine) compile(opts QueryOptions, key string) (*Query, error) {
	rIDs, err := ctidsForNames(e.registry, opts.With)
	if err != nil {
		return nil, err
	}
	eIDs, err := ctidsForNames(e.registry, opts.Without)
	if err != nil {
		return nil, err
	}
	aIDs, err := ctidsForNames(e.registry, opts.AnyOf)
	if err != nil {
		return nil, err
	}
	xIDs, err := ctidsForNames(e.registry, opts.React)
	if err != nil {
		return nil, err
	}

	q := &Query{
		key:      key,
		rMask:    maskFromCTIDs(append(append([]CTID(nil), rIDs...), xIDs...)),
		eMask:    maskFromCTIDs(eIDs),
		aMask:    maskFromCTIDs(aIDs),
		xMask:    maskFromCTIDs(xIDs),
		xCTIDs:   xIDs,
		reactive: len(xIDs) > 0,
		mutable:  opts.Mutable,

		matchingSet:    make(map[uint32]bool),
		reactiveCTIDAt: make(map[uint32][]CTID),
	}

	for id := uint32(0); id < uint32(e.table.Len()); id++ {
		at, _ := e.table.Archetype(id)
		e.registerIfMatches(q, at)
	}
	return q, nil
}

// NotifyArchetypeCreated re-tests every cached (and the just-built, if
// any) query against a newly created archetype (spec §4.6 "matching-
// archetype maintenance").
func (e *QueryEngine) NotifyArchetypeCreated(at *archetypeInternal) {
	for _, q := range e.cache {
		e.registerIfMatches(q, at)
	}
}

func (e *QueryEngine) registerIfMatches(q *Query, at *archetypeInternal) {
	if q.matchingSet[at.id] {
		return
	}
	if !q.matches(at.mask) {
		return
	}
	q.matching = append(q.matching, at.id)
	q.matchingSet[at.id] = true
	if q.reactive {
		var present []CTID
		for _, t := range q.xCTIDs {
			if at.hasComponent(t) {
				present = append(present, t)
			}
		}
		q.reactiveCTIDAt[at.id] = present
	}
}

// ClearAll empties every cached query's matching list (spec §4.6:
// "`clear_all` exceptionally resets queries"). Cached queries are not
// re-scanned against the table afterwards; they match archetypes again
// only as NotifyArchetypeCreated reports newly created ones.
func (e *QueryEngine) ClearAll() {
	for _, q := range e.cache {
		q.matching = nil
		q.matchingSet = make(map[uint32]bool)
		q.reactiveCTIDAt = make(map[uint32][]CTID)
	}
}
