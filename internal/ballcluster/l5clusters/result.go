package l5clusters

import (
	"github.com/banshee-data/ballcluster/internal/ballcluster/l1snapshot"
)

// Result is the published outcome of one tick: the ordered cluster list
// and the reverse entity→cluster-index map. A Result is never modified
// after the engine hands it out, so any number of readers may share it.
type Result struct {
	Tick uint64  // engine tick counter, starting at 1
	Time float64 // simulation seconds the tick was computed for

	clusters []Cluster
	index    map[l1snapshot.EntityID]int
}

// Empty returns a Result with no clusters.
func Empty(tick uint64, now float64) *Result {
	return &Result{Tick: tick, Time: now, index: map[l1snapshot.EntityID]int{}}
}

// Len returns the number of clusters.
func (r *Result) Len() int {
	if r == nil {
		return 0
	}
	return len(r.clusters)
}

// EntityCount returns the number of entities covered by the result.
func (r *Result) EntityCount() int {
	if r == nil {
		return 0
	}
	return len(r.index)
}

// At returns a copy of cluster i.
func (r *Result) At(i int) Cluster {
	return r.clusters[i].clone()
}

// Clusters returns a deep copy of the cluster list.
func (r *Result) Clusters() []Cluster {
	if r == nil {
		return nil
	}
	out := make([]Cluster, len(r.clusters))
	for i, c := range r.clusters {
		out[i] = c.clone()
	}
	return out
}

// IndexOf returns the index of the cluster containing id.
func (r *Result) IndexOf(id l1snapshot.EntityID) (int, bool) {
	if r == nil {
		return 0, false
	}
	i, ok := r.index[id]
	return i, ok
}

// ClusterOf returns a copy of the cluster containing id.
func (r *Result) ClusterOf(id l1snapshot.EntityID) (Cluster, bool) {
	i, ok := r.IndexOf(id)
	if !ok {
		return Cluster{}, false
	}
	return r.At(i), true
}

// Range calls fn for every cluster in order until fn returns false.
// The Members slice passed to fn is shared with the Result and must not
// be modified.
func (r *Result) Range(fn func(i int, c Cluster) bool) {
	if r == nil {
		return
	}
	for i, c := range r.clusters {
		if !fn(i, c) {
			return
		}
	}
}

// Largest returns the index of the cluster with the most members, breaking
// ties by list order. It returns -1 for an empty result.
func (r *Result) Largest() int {
	best := -1
	r.Range(func(i int, c Cluster) bool {
		if best < 0 || len(c.Members) > len(r.clusters[best].Members) {
			best = i
		}
		return true
	})
	return best
}
