package silo

import "github.com/cespare/xxhash/v2"

// internedEntry is one bucket slot: a string and the handle assigned
// to it. Buckets exist only to resolve xxhash collisions between
// distinct strings (spec §2: "handles are stable for the lifetime of
// the interner, no eviction").
type internedEntry struct {
	value  string
	handle uint32
}

// Interner assigns stable uint32 handles to strings, dense from 1
// (handle 0 is reserved for "no string"/empty). Lookups are bucketed
// by xxhash digest, the same technique the domain stack's hash-keyed
// caches use instead of a plain map[string]uint32 with Go's built-in
// (and here, unnecessary) string hashing.
type Interner struct {
	buckets map[uint64][]internedEntry
	values  []string
}

// NewInterner returns an empty interner. Handle 0 always resolves to
// the empty string.
func NewInterner() *Interner {
	return &Interner{
		buckets: make(map[uint64][]internedEntry),
		values:  []string{""},
	}
}

// Intern returns s's handle, assigning a new one the first time s is
// seen. The empty string always maps to handle 0.
func (in *Interner) Intern(s string) uint32 {
	if s == "" {
		return 0
	}
	digest := xxhash.Sum64String(s)
	bucket := in.buckets[digest]
	for _, e := range bucket {
		if e.value == s {
			return e.handle
		}
	}
	handle := uint32(len(in.values))
	in.values = append(in.values, s)
	in.buckets[digest] = append(bucket, internedEntry{value: s, handle: handle})
	return handle
}

// MustIntern is Intern, spelled for call sites (prefab loading,
// defaults) that already know the string is going to be interned and
// want a terser name.
func (in *Interner) MustIntern(s string) uint32 {
	return in.Intern(s)
}

// Lookup resolves a handle back to its string. ok is false for a
// handle this interner never produced.
func (in *Interner) Lookup(handle uint32) (string, bool) {
	if int(handle) >= len(in.values) {
		return "", false
	}
	return in.values[handle], true
}

// Len returns the number of distinct non-empty strings interned.
func (in *Interner) Len() int {
	return len(in.values) - 1
}
