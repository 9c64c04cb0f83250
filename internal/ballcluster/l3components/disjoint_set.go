package l3components

// DisjointSet is a union-find forest over dense indices [0, n).
// It uses union by rank with path compression.
type DisjointSet struct {
	parent []int
	rank   []uint8
	sets   int
}

// NewDisjointSet creates a forest of n singleton sets.
func NewDisjointSet(n int) *DisjointSet {
	ds := &DisjointSet{}
	ds.Reset(n)
	return ds
}

// Reset reinitialises the forest to n singleton sets, reusing storage.
func (ds *DisjointSet) Reset(n int) {
	if cap(ds.parent) < n {
		ds.parent = make([]int, n)
		ds.rank = make([]uint8, n)
	} else {
		ds.parent = ds.parent[:n]
		ds.rank = ds.rank[:n]
	}
	for i := range ds.parent {
		ds.parent[i] = i
		ds.rank[i] = 0
	}
	ds.sets = n
}

// Len returns the number of elements in the forest.
func (ds *DisjointSet) Len() int {
	return len(ds.parent)
}

// Sets returns the current number of disjoint sets.
func (ds *DisjointSet) Sets() int {
	return ds.sets
}

// Find returns the root of the set containing x.
func (ds *DisjointSet) Find(x int) int {
	root := x
	for ds.parent[root] != root {
		root = ds.parent[root]
	}
	// Path compression
	for ds.parent[x] != root {
		next := ds.parent[x]
		ds.parent[x] = root
		x = next
	}
	return root
}

// Union merges the sets containing a and b and reports whether they were
// previously distinct.
func (ds *DisjointSet) Union(a, b int) bool {
	ra, rb := ds.Find(a), ds.Find(b)
	if ra == rb {
		return false
	}
	switch {
	case ds.rank[ra] < ds.rank[rb]:
		ds.parent[ra] = rb
	case ds.rank[ra] > ds.rank[rb]:
		ds.parent[rb] = ra
	default:
		ds.parent[rb] = ra
		ds.rank[ra]++
	}
	ds.sets--
	return true
}

// Connected reports whether a and b are in the same set.
func (ds *DisjointSet) Connected(a, b int) bool {
	return ds.Find(a) == ds.Find(b)
}
