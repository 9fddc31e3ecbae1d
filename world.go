package silo

import "github.com/TheBitDrifter/bark"

// World wires every engine component together in one explicit,
// ordered construction, replacing the teacher's package-level
// factory/globalEntryIndex/globalEntities singletons (spec §9: "a
// top-level World owns every archetype table, not a package-level
// singleton manager"). Nothing here is reachable except through a
// *World value the caller holds.
type World struct {
	Interner  *Interner
	Registry  *ComponentRegistry
	Table     *ArchetypeTable
	Directory *EntityDirectory
	Queries   *QueryEngine
	Commands  *CommandBuffer
	Prefabs   PrefabSource
	Ticks     TickSource
	Logger    Logger

	flushing bool

	parents          map[EntityID]EntityID
	destroyCallbacks map[EntityID]EntityDestroyCallback
}

// WorldOption customizes NewWorld's defaults.
type WorldOption func(*worldOptions)

type worldOptions struct {
	prefabs PrefabSource
	ticks   TickSource
	logger  Logger
}

// WithPrefabSource overrides the default empty MemoryPrefabSource.
func WithPrefabSource(p PrefabSource) WorldOption {
	return func(o *worldOptions) { o.prefabs = p }
}

// WithTickSource overrides the default monotonic TickSource.
func WithTickSource(t TickSource) WorldOption {
	return func(o *worldOptions) { o.ticks = t }
}

// WithLogger overrides the default log.Printf-backed Logger.
func WithLogger(l Logger) WorldOption {
	return func(o *worldOptions) { o.logger = l }
}

// NewWorld validates Config and constructs every engine component in
// the fixed dependency order: interner, then the component registry
// (which needs nothing), then the archetype table (needs the
// registry), then the entity directory (standalone), then the query
// engine (needs the registry and table), then the command buffer
// (needs all of the above). This replaces the teacher's lazy
// first-use factory initialization with one explicit constructor.
func NewWorld(opts ...WorldOption) (*World, error) {
	if err := Config.validate(); err != nil {
		return nil, bark.AddTrace(err)
	}

	o := worldOptions{
		prefabs: NewMemoryPrefabSource(Config.MaxArchetypes),
		ticks:   NewTickSource(),
		logger:  DefaultLogger(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	interner := NewInterner()
	registry := NewComponentRegistry(Config.MaxComponents)
	table := NewArchetypeTable(registry, Config.ChunkCapacity, Config.MaxArchetypes)
	directory := NewEntityDirectory()
	queries := NewQueryEngine(registry, table)
	commands := NewCommandBuffer(registry, table, directory, queries, interner, o.prefabs, o.ticks, o.logger)

	w := &World{
		Interner:         interner,
		Registry:         registry,
		Table:            table,
		Directory:        directory,
		Queries:          queries,
		Commands:         commands,
		Prefabs:          o.prefabs,
		Ticks:            o.ticks,
		Logger:           o.logger,
		parents:          make(map[EntityID]EntityID),
		destroyCallbacks: make(map[EntityID]EntityDestroyCallback),
	}
	commands.onDestroy = w.fireDestroyCallback
	return w, nil
}

func (w *World) setParent(child, parent EntityID) {
	w.parents[child] = parent
}

func (w *World) parentOf(child EntityID) (EntityID, bool) {
	id, ok := w.parents[child]
	return id, ok
}

func (w *World) setDestroyCallback(id EntityID, cb EntityDestroyCallback) {
	w.destroyCallbacks[id] = cb
}

// fireDestroyCallback runs id's registered destroy callback, if any,
// then cleans up its relationship bookkeeping. Called by CommandBuffer
// once an entity is actually removed during Flush's deletion phase.
func (w *World) fireDestroyCallback(id EntityID) {
	if cb, ok := w.destroyCallbacks[id]; ok {
		cb(id)
		delete(w.destroyCallbacks, id)
	}
	delete(w.parents, id)
}

// RegisterComponent registers a component type and returns the handle
// needed for every subsequent command-buffer call that names it.
func (w *World) RegisterComponent(c Component) (CTID, error) {
	return w.Registry.Register(c.Name, c.Schema)
}

// Query compiles (or fetches from cache) a query over the world's
// archetype table.
func (w *World) Query(opts QueryOptions) (*Query, error) {
	return w.Queries.GetQuery(opts)
}

// ReleaseQuery returns a query obtained from Query to the cache.
func (w *World) ReleaseQuery(q *Query) {
	w.Queries.ReleaseQuery(q)
}

// Cursor returns an iterator over q's currently matching rows.
func (w *World) Cursor(q *Query) *Cursor {
	return NewCursor(q, w.Table)
}

// ClearAll wipes every archetype's metadata and storage and resets
// every cached query's matching list (spec §4.4 "Clear all"), the one
// operation that bypasses the per-entity destroy path entirely. Every
// EntityID minted before the call still resolves through Directory,
// but points at storage that no longer exists; callers that use
// ClearAll are expected to discard or rebuild their directory state
// too, the same wholesale-reset boundary the spec scopes this to.
func (w *World) ClearAll() {
	w.Table.ClearAll()
	w.Queries.ClearAll()
}

// Locked reports whether a Flush is currently in progress. Structural
// mutation outside the command buffer (Storage.NewEntities,
// Storage.DestroyEntities) refuses to run while locked, mirroring the
// teacher's lock-gated storage.
func (w *World) Locked() bool { return w.flushing }

// Flush advances the tick and applies every command buffered since
// the last Flush, stamped with the newly advanced tick. Advancing
// before applying (rather than after) guarantees that Ticks.Current()
// read immediately after a Flush returns always equals the tick this
// Flush's writes were stamped with, so a reactive query that records
// its watermark right after a Flush (SetLastIterationTick) never
// collides with the very next Flush's writes.
func (w *World) Flush() error {
	if w.flushing {
		return bark.AddTrace(StorageLockedError{})
	}
	w.flushing = true
	defer func() { w.flushing = false }()
	w.Ticks.Advance()
	return w.Commands.Flush()
}

// Immediate runs fn against the world's command buffer and flushes
// immediately afterward, a pre-buffered fast path for scripting and
// one-off setup code that doesn't need frame-batched structural edits
// (spec §9 Open Questions: "a pre-buffered fast path for scripting").
func (w *World) Immediate(fn func(*CommandBuffer)) error {
	fn(w.Commands)
	return w.Flush()
}
