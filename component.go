package silo

// Component is a registerable component type: a name and the schema
// describing its storage layout (spec §1, §3). Registering the same
// Component twice is a no-op; the CTID assigned the first time sticks
// for the process's lifetime.
type Component struct {
	Name   string
	Schema Schema
}
