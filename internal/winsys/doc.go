// Package winsys abstracts the native desktop window subsystem.
//
// The set of all top-level windows is ambient, shared, externally
// mutable state. This package exposes it as an explicit query-and-
// mutate interface instead of cached globals: every query result is a
// momentary snapshot, and every handle must be treated as borrowed
// state that the owning process or the OS can revoke at any time.
//
// The real implementation (windows build tag) wraps user32 via
// golang.org/x/sys/windows. Non-windows builds get an inert stub so
// the engine and its tests compile everywhere; unit tests run against
// the in-memory Fake.
package winsys
