// Package primitives provides the foundational value types for the event engine:
// coordinates on the toroidal grid, events and their canonical ordering,
// process and edge records, the engine configuration and the error taxonomy.
//
// This package uses ONLY the Go standard library, except for YAML decoding in
// LoadConfig.
//
// Core invariants:
// - Coordinates are always folded into [0, N) before they are stored
// - Less is the single total order over events; nothing else orders them
// - Records are plain values stored by slot inside pools, never shared by pointer
package primitives
