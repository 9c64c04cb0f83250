// Package l5clusters owns Layer 5 (Clusters) of the clustering pipeline.
//
// Responsibilities: aggregating the reconciled entity→cluster mapping into
// the externally visible cluster list (members, bounding box, area-weighted
// centroid, total area) in a deterministic order, and the read-only Result
// handed to renderers and gameplay rules.
// Key types: Cluster, Result, Aggregator.
//
// Dependency rule: L5 may depend on L1-L4.
package l5clusters
