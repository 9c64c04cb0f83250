package l5clusters

import (
	"slices"

	"github.com/banshee-data/ballcluster/internal/ballcluster/l1snapshot"
	"github.com/banshee-data/ballcluster/internal/ballcluster/l4persistence"
)

// Cluster is one temporally stable group of touching, same-category
// entities as seen by downstream consumers.
type Cluster struct {
	// ClusterID is the persistence ID backing this cluster. It is stable
	// across ticks while the cluster survives but carries no ordering meaning.
	// A ball that drifts away alone keeps its ID after the detach threshold,
	// since it already is the only holder; IDs are not renewed for sole holders.
	ClusterID l4persistence.ClusterID

	Category int
	Members  []l1snapshot.EntityID // ascending ID order

	BoundingMin l1snapshot.Vec2 // union of member disc extents
	BoundingMax l1snapshot.Vec2
	Centroid    l1snapshot.Vec2 // area-weighted mean of member centres
	TotalArea   float64         // Σ π·r²
}

// Size returns the member count.
func (c Cluster) Size() int {
	return len(c.Members)
}

// Extent returns the bounding box size.
func (c Cluster) Extent() l1snapshot.Vec2 {
	return c.BoundingMax.Sub(c.BoundingMin)
}

// Width returns the bounding box extent along X.
func (c Cluster) Width() float64 { return c.Extent().X }

// Height returns the bounding box extent along Y.
func (c Cluster) Height() float64 { return c.Extent().Y }

func (c Cluster) clone() Cluster {
	c.Members = slices.Clone(c.Members)
	return c
}
