// Package l2spatial owns Layer 2 (Spatial Hash) of the clustering pipeline.
//
// Responsibilities: bucketing entity centres into a uniform grid whose
// cell size follows the largest radius of the tick, and answering
// "which entities sit in the 3x3 block around this cell" queries.
// Key types: SpatialIndex.
//
// Dependency rule: L2 may depend on L1 only.
package l2spatial
