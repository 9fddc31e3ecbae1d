package silo

import "github.com/TheBitDrifter/bark"

// CTID is a component type ID: a dense index assigned at registration
// time that doubles as the bit position of the component in an
// ArchetypeMask (spec §2).
type CTID uint16

// ComponentRegistry maps component names to compiled ComponentInfo and
// dense CTIDs. CTIDs are assigned in registration order and never
// reused, matching the spec's "stable for the process lifetime" rule.
type ComponentRegistry struct {
	byName  map[string]CTID
	byCTID  []*ComponentInfo
	maxSize int
}

// NewComponentRegistry returns an empty registry bounded by maxSize
// distinct component types (spec §1, Config.MaxComponents).
func NewComponentRegistry(maxSize int) *ComponentRegistry {
	return &ComponentRegistry{
		byName:  make(map[string]CTID),
		byCTID:  make([]*ComponentInfo, 0, maxSize),
		maxSize: maxSize,
	}
}

// Register compiles schema under name and assigns it a CTID. Calling
// Register twice for the same name returns the existing CTID without
// recompiling, so callers can register idempotently at startup.
func (r *ComponentRegistry) Register(name string, schema Schema) (CTID, error) {
	if id, ok := r.byName[name]; ok {
		return id, nil
	}
	if len(r.byCTID) >= r.maxSize {
		return 0, bark.AddTrace(RegistryFullError{Max: r.maxSize})
	}
	info, err := CompileSchema(name, schema)
	if err != nil {
		return 0, bark.AddTrace(err)
	}
	id := CTID(len(r.byCTID))
	r.byCTID = append(r.byCTID, info)
	r.byName[name] = id
	return id, nil
}

// CTIDFor resolves a registered component's CTID by name.
func (r *ComponentRegistry) CTIDFor(name string) (CTID, error) {
	id, ok := r.byName[name]
	if !ok {
		return 0, bark.AddTrace(UnregisteredComponentError{Name: name})
	}
	return id, nil
}

// Info returns the compiled ComponentInfo for a CTID.
func (r *ComponentRegistry) Info(id CTID) (*ComponentInfo, error) {
	if int(id) >= len(r.byCTID) {
		return nil, bark.AddTrace(UnregisteredComponentError{Name: "<invalid CTID>"})
	}
	return r.byCTID[id], nil
}

// InfoByName returns the compiled ComponentInfo for a registered name.
func (r *ComponentRegistry) InfoByName(name string) (*ComponentInfo, error) {
	id, err := r.CTIDFor(name)
	if err != nil {
		return nil, err
	}
	return r.byCTID[id], nil
}

// Len returns the number of registered component types.
func (r *ComponentRegistry) Len() int {
	return len(r.byCTID)
}
