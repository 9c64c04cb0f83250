// Package l1snapshot owns Layer 1 (Snapshot) of the clustering pipeline.
//
// Responsibilities: the per-tick entity input, input validation, and a
// canonical ordering so every later layer sees the same sequence for the
// same input.
// Key types: Entity, Snapshot.
//
// Dependency rule: L1 depends on nothing else in the pipeline.
package l1snapshot
