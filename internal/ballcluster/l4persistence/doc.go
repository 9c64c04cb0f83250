// Package l4persistence owns Layer 4 (Persistence) of the clustering
// pipeline.
//
// Responsibilities: the only state that survives between ticks. Each
// entity carries a long-lived cluster ID that is merged when raw
// components join previously separate clusters, and detached only after
// the entity has been out of contact for longer than the detach threshold.
// Key types: Tracker, Record, ClusterID.
//
// Dependency rule: L4 may depend on L1-L3, but never on L5.
package l4persistence
