// Package memory provides the append-only, session-scoped conversation log.
//
// Entries record conversation turns and tool operations. They are immutable
// once appended and are read back in insertion order; the only bulk mutator
// is Clear.
package memory
