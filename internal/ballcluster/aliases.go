package ballcluster

import (
	"github.com/banshee-data/ballcluster/internal/ballcluster/l1snapshot"
	"github.com/banshee-data/ballcluster/internal/ballcluster/l4persistence"
	"github.com/banshee-data/ballcluster/internal/ballcluster/l5clusters"
)

// Type aliases re-export the layer types most callers need, so the
// simulation and tools can import a single package.

// Entity is one ball as read from the simulation.
type Entity = l1snapshot.Entity

// EntityID is the opaque ball reference.
type EntityID = l1snapshot.EntityID

// Vec2 is a 2-D position.
type Vec2 = l1snapshot.Vec2

// ClusterID is the long-lived persistence identifier.
type ClusterID = l4persistence.ClusterID

// Tracker is the injected cross-tick persistence state.
type Tracker = l4persistence.Tracker

// Cluster is one aggregated cluster.
type Cluster = l5clusters.Cluster

// Result is the published outcome of a tick.
type Result = l5clusters.Result
