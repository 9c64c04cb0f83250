package l3components

import (
	"github.com/banshee-data/ballcluster/internal/ballcluster/l1snapshot"
	"github.com/banshee-data/ballcluster/internal/ballcluster/l2spatial"
)

// Touching reports whether two discs touch or overlap: the distance between
// centres is at most the sum of the radii. Squared distances avoid sqrt.
func Touching(a, b l1snapshot.Entity) bool {
	dx := a.Position.X - b.Position.X
	dy := a.Position.Y - b.Position.Y
	r := a.Radius + b.Radius
	return dx*dx+dy*dy <= r*r
}

// Components is the raw, purely geometric partition of a snapshot.
// Groups hold snapshot indices in ascending order, and groups are ordered
// by their first (lowest) index.
type Components struct {
	Groups [][]int

	// Pairs counts candidate pairs that passed the category filter and were
	// distance-tested.
	Pairs int

	flat  []int
	start []int
}

// Len returns the number of components.
func (c *Components) Len() int {
	return len(c.Groups)
}

// Multi returns the number of components with at least two members.
func (c *Components) Multi() int {
	n := 0
	for _, g := range c.Groups {
		if len(g) >= 2 {
			n++
		}
	}
	return n
}

// Resolver turns a snapshot and its spatial index into raw components.
// It owns reusable scratch storage; a Resolver must not be shared between
// goroutines.
type Resolver struct {
	ds    DisjointSet
	slot  []int
	comps Components
}

// NewResolver creates a Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve computes raw connected components. Invalid entities are never
// paired and come out as singletons. The returned Components is owned by
// the Resolver and is overwritten by the next call.
//
// Each pair is tested once: for entity i only neighbours j > i are
// considered. Occupancy per cell is bounded by non-interpenetration in
// practice; a cell full of coincident entities degrades to a quadratic scan.
func (r *Resolver) Resolve(snap *l1snapshot.Snapshot, index *l2spatial.SpatialIndex) *Components {
	n := snap.Len()
	r.ds.Reset(n)
	r.comps.Pairs = 0

	if n == 0 {
		r.comps.Groups = r.comps.Groups[:0]
		return &r.comps
	}

	entities := snap.Entities
	for i, a := range entities {
		if !a.Valid() {
			continue
		}
		cx, cy := index.Cell(a.Position)
		index.ForEachNeighbor(cx, cy, func(j int) {
			if j <= i {
				return
			}
			b := entities[j]
			if b.Category != a.Category {
				return
			}
			r.comps.Pairs++
			if Touching(a, b) {
				r.ds.Union(i, j)
			}
		})
	}

	r.group(n)
	return &r.comps
}

// group materialises the forest into ordered index groups without
// allocating per component.
func (r *Resolver) group(n int) {
	sets := r.ds.Sets()

	// slot maps a root to its component ordinal, -1 until first seen.
	r.slot = resize(r.slot, n)
	for i := range r.slot {
		r.slot[i] = -1
	}

	counts := resize(r.comps.start, sets+1)
	for i := range counts {
		counts[i] = 0
	}
	ordinal := 0
	for i := 0; i < n; i++ {
		root := r.ds.Find(i)
		if r.slot[root] < 0 {
			r.slot[root] = ordinal
			ordinal++
		}
		counts[r.slot[root]+1]++
	}
	for k := 1; k <= sets; k++ {
		counts[k] += counts[k-1]
	}
	r.comps.start = counts

	r.comps.flat = resize(r.comps.flat, n)
	fill := make([]int, sets)
	copy(fill, counts[:sets])
	for i := 0; i < n; i++ {
		k := r.slot[r.ds.Find(i)]
		r.comps.flat[fill[k]] = i
		fill[k]++
	}

	if cap(r.comps.Groups) < sets {
		r.comps.Groups = make([][]int, sets)
	} else {
		r.comps.Groups = r.comps.Groups[:sets]
	}
	for k := 0; k < sets; k++ {
		r.comps.Groups[k] = r.comps.flat[counts[k]:counts[k+1]:counts[k+1]]
	}
}

func resize(s []int, n int) []int {
	if cap(s) < n {
		return make([]int, n)
	}
	return s[:n]
}
