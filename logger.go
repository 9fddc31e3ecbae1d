package silo

import "log"

// Logger is the seam command-buffer flush diagnostics go through (spec
// §7: PrefabNotFound and EntityNotActive are "logged and skipped", not
// propagated). Mirrors the teacher's "provide a seam, default to
// stdlib" shape used for EntityDestroyCallback hooks.
type Logger interface {
	Warnf(format string, args ...any)
}

// stdLogger is the default Logger, backed by the standard log package.
type stdLogger struct{}

func (stdLogger) Warnf(format string, args ...any) {
	log.Printf(format, args...)
}

// DefaultLogger returns the log.Printf-backed Logger used when a World
// is constructed without an explicit one.
func DefaultLogger() Logger { return stdLogger{} }
