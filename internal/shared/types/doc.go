// Package types defines shared domain types used across the engine.
//
// These types cross package boundaries (registry, controller, API
// surface, event stream) and are kept dependency-free so any layer can
// import them without cycles.
package types
