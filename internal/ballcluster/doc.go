// Package ballcluster groups touching, same-category balls into clusters
// that stay stable from one simulation tick to the next.
//
// The pipeline is layered, leaf to root:
//
//	L1 l1snapshot    per-tick entity input, validation, canonical order
//	L2 l2spatial     uniform spatial hash sized from the largest radius
//	L3 l3components  touch tests and union-find raw components
//	L4 l4persistence long-lived cluster IDs with merge and detach hysteresis
//	L5 l5clusters    aggregated cluster list and the read-only Result
//
// Engine runs all five layers once per Tick and publishes the Result only
// after the pass completes. The L4 Tracker is the only state carried
// between ticks; it can be injected so tests start from a known state.
package ballcluster
