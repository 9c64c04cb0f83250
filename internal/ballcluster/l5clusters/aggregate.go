package l5clusters

import (
	"cmp"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/ballcluster/internal/ballcluster/l1snapshot"
	"github.com/banshee-data/ballcluster/internal/ballcluster/l4persistence"
)

// Aggregator builds Results from a snapshot and its reconciled cluster IDs.
// It keeps scratch buffers between calls; it is not safe for concurrent use.
type Aggregator struct {
	order []int
	xs    []float64
	ys    []float64
	ws    []float64
}

// NewAggregator creates an Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Aggregate groups snapshot entities by cluster ID and computes per-cluster
// geometry. assign must be indexed like snap.Entities.
//
// Output order is category, then centroid X, then centroid Y, then member
// count, then lowest member ID. The last key makes the order total, so equal
// input always yields an identical list.
func (a *Aggregator) Aggregate(snap *l1snapshot.Snapshot, assign []l4persistence.ClusterID, tick uint64, now float64) *Result {
	n := snap.Len()
	res := &Result{
		Tick:  tick,
		Time:  now,
		index: make(map[l1snapshot.EntityID]int, n),
	}
	if n == 0 {
		return res
	}

	// Sort indices by (cluster, index) so each cluster is a contiguous run
	// and members stay in ascending ID order.
	a.order = a.order[:0]
	for i := 0; i < n; i++ {
		a.order = append(a.order, i)
	}
	slices.SortFunc(a.order, func(i, j int) int {
		if c := cmp.Compare(assign[i], assign[j]); c != 0 {
			return c
		}
		return cmp.Compare(i, j)
	})

	a.xs = resize(a.xs, n)
	a.ys = resize(a.ys, n)
	a.ws = resize(a.ws, n)
	for k, idx := range a.order {
		e := snap.Entities[idx]
		a.xs[k] = e.Position.X
		a.ys[k] = e.Position.Y
		a.ws[k] = e.Area()
	}

	members := make([]l1snapshot.EntityID, n)
	for start := 0; start < n; {
		id := assign[a.order[start]]
		end := start + 1
		for end < n && assign[a.order[end]] == id {
			end++
		}
		res.clusters = append(res.clusters, a.build(snap, id, start, end, members[start:end:end]))
		start = end
	}

	slices.SortFunc(res.clusters, compareClusters)
	for i, c := range res.clusters {
		for _, m := range c.Members {
			res.index[m] = i
		}
	}
	return res
}

// build computes one cluster from the run order[start:end].
func (a *Aggregator) build(snap *l1snapshot.Snapshot, id l4persistence.ClusterID, start, end int, members []l1snapshot.EntityID) Cluster {
	first := snap.Entities[a.order[start]]
	c := Cluster{
		ClusterID:   id,
		Category:    first.Category,
		Members:     members,
		BoundingMin: first.Min(),
		BoundingMax: first.Max(),
	}
	for k := start; k < end; k++ {
		e := snap.Entities[a.order[k]]
		members[k-start] = e.ID
		lo, hi := e.Min(), e.Max()
		c.BoundingMin.X = math.Min(c.BoundingMin.X, lo.X)
		c.BoundingMin.Y = math.Min(c.BoundingMin.Y, lo.Y)
		c.BoundingMax.X = math.Max(c.BoundingMax.X, hi.X)
		c.BoundingMax.Y = math.Max(c.BoundingMax.Y, hi.Y)
	}

	ws := a.ws[start:end]
	c.TotalArea = floats.Sum(ws)
	// Zero area only happens for clusters made of invalid entities; the
	// centroid stays at the origin rather than becoming NaN.
	if c.TotalArea > 0 {
		c.Centroid = l1snapshot.Vec2{
			X: stat.Mean(a.xs[start:end], ws),
			Y: stat.Mean(a.ys[start:end], ws),
		}
	}
	return c
}

func compareClusters(a, b Cluster) int {
	if c := cmp.Compare(a.Category, b.Category); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Centroid.X, b.Centroid.X); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Centroid.Y, b.Centroid.Y); c != 0 {
		return c
	}
	if c := cmp.Compare(len(a.Members), len(b.Members)); c != 0 {
		return c
	}
	return cmp.Compare(a.Members[0], b.Members[0])
}

func resize(s []float64, n int) []float64 {
	if cap(s) < n {
		return make([]float64, n)
	}
	return s[:n]
}
