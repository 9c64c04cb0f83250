// Package l3components owns Layer 3 (Raw Components) of the clustering
// pipeline.
//
// Responsibilities: pairwise touch tests between spatial-hash neighbours
// and disjoint-set union of touching, same-category entities into purely
// geometric connected components.
// Key types: DisjointSet, Resolver, Components.
//
// Dependency rule: L3 may depend on L1-L2, but never on L4+.
package l3components
