package silo

import "fmt"

// Error kinds per spec §7. Most are propagated to the caller; the
// command-buffer-local ones (PrefabNotFound, EntityNotActive) are
// logged and skipped by the flush instead, never returned to callers
// of Flush itself.

// UnregisteredComponentError is surfaced by registry lookups and query
// construction when a name or class has no CTID.
type UnregisteredComponentError struct {
	Name string
}

func (e UnregisteredComponentError) Error() string {
	return fmt.Sprintf("silo: component %q is not registered", e.Name)
}

// UnknownArchetypeError is only reachable via corrupt external IDs.
type UnknownArchetypeError struct {
	ID uint32
}

func (e UnknownArchetypeError) Error() string {
	return fmt.Sprintf("silo: archetype %d does not exist", e.ID)
}

// InvalidSchemaError reports a structural schema compilation failure.
type InvalidSchemaError struct {
	Component string
	Property  string
	Reason    string
}

func (e InvalidSchemaError) Error() string {
	if e.Component == "" {
		return fmt.Sprintf("silo: invalid schema: %s", e.Reason)
	}
	return fmt.Sprintf("silo: invalid schema for %s.%s: %s", e.Component, e.Property, e.Reason)
}

// TooManyComponentTypesError fires at registration time.
type TooManyComponentTypesError struct {
	Max int
}

func (e TooManyComponentTypesError) Error() string {
	return fmt.Sprintf("silo: cannot register more than %d component types", e.Max)
}

// TooManyArchetypesError fires at archetype allocation time.
type TooManyArchetypesError struct {
	Max int
}

func (e TooManyArchetypesError) Error() string {
	return fmt.Sprintf("silo: cannot allocate more than %d archetypes", e.Max)
}

// InvalidValueError is raised by the write program on bad designer data.
type InvalidValueError struct {
	Component string
	Property  string
	Value     any
}

func (e InvalidValueError) Error() string {
	return fmt.Sprintf("silo: invalid value for %s.%s: %v", e.Component, e.Property, e.Value)
}

// PrefabNotFoundError is logged and skipped during command buffer flush.
type PrefabNotFoundError struct {
	PrefabID uint16
}

func (e PrefabNotFoundError) Error() string {
	return fmt.Sprintf("silo: prefab %d not found", e.PrefabID)
}

// EntityNotActiveError is logged and skipped during command buffer flush.
type EntityNotActiveError struct {
	Entity EntityID
}

func (e EntityNotActiveError) Error() string {
	return fmt.Sprintf("silo: entity %d is not active", e.Entity)
}

// RegistryFullError fires when a CTID would exceed MaxComponents.
type RegistryFullError struct {
	Max int
}

func (e RegistryFullError) Error() string {
	return fmt.Sprintf("silo: component registry full (max %d)", e.Max)
}

// StorageLockedError is returned by structural mutations attempted
// while the command buffer flush owns exclusive access, mirroring the
// teacher's own LockedStorageError.
type StorageLockedError struct{}

func (e StorageLockedError) Error() string {
	return "silo: storage is currently locked by a flush"
}
