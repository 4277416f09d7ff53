// Package logging provides a tiny abstraction over slog so downstream code can
// depend on a minimal interface (Logger) while allowing users to plug any
// structured logger. Libraries default to NoOpLogger; binaries typically wire
// a slog-backed adapter via New.
package logging
