package silo

// PrefabData is the component-name-keyed map a prefab resolves to
// (spec §6: "the core assumes a prefab yields a component-name-keyed
// map"). Resolution itself (extends, merges, manifest loading,
// shorthand expansion) happens outside the core.
type PrefabData struct {
	Components map[string]any
}

// PrefabSource is the external dependency the command buffer calls
// into to resolve InstantiatePrefab commands (spec §6).
type PrefabSource interface {
	GetPrefabByNumericID(id uint16) (PrefabData, bool)
}

// MemoryPrefabSource is a minimal in-process PrefabSource: prefabs are
// registered by name and assigned a dense numeric ID the first time
// they're seen, using the package's bounded name->index Cache.
type MemoryPrefabSource struct {
	cache *Cache[PrefabData]
}

// NewMemoryPrefabSource returns an empty source bounded at maxPrefabs
// distinct names.
func NewMemoryPrefabSource(maxPrefabs int) *MemoryPrefabSource {
	return &MemoryPrefabSource{cache: NewCache[PrefabData](maxPrefabs)}
}

// Define registers (or replaces) a prefab under name, returning its
// numeric ID.
func (s *MemoryPrefabSource) Define(name string, data PrefabData) (uint16, error) {
	idx, err := s.cache.Register(name, data)
	if err != nil {
		return 0, err
	}
	return uint16(idx), nil
}

// IDFor resolves a prefab's numeric ID by name.
func (s *MemoryPrefabSource) IDFor(name string) (uint16, bool) {
	idx, ok := s.cache.GetIndex(name)
	return uint16(idx), ok
}

func (s *MemoryPrefabSource) GetPrefabByNumericID(id uint16) (PrefabData, bool) {
	item := s.cache.GetItem32(uint32(id))
	if item == nil {
		return PrefabData{}, false
	}
	return *item, true
}

// mergePrefabOverrides merges a prefab's base component map with
// per-instantiation overrides, overrides taking precedence (spec
// §4.7 step 1: "merge its base name -> data map with overrides").
func mergePrefabOverrides(base, overrides map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(overrides))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}
