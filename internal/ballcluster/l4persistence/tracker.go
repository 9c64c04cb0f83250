package l4persistence

import (
	"cmp"
	"slices"

	"github.com/banshee-data/ballcluster/internal/ballcluster/l1snapshot"
	"github.com/banshee-data/ballcluster/internal/ballcluster/l3components"
)

// DefaultDetachThreshold is how long (simulated seconds) an entity may be
// out of contact before it is severed from its cluster.
const DefaultDetachThreshold = 0.5

// ClusterID identifies a temporally stable cluster. IDs are allocated
// monotonically starting at 1 and are never reused within a Tracker's
// lifetime, including across Reset.
type ClusterID uint64

// NoCluster is the zero ClusterID; it is never allocated.
const NoCluster ClusterID = 0

// Config holds tracker parameters.
type Config struct {
	// DetachThreshold is the isolation time in seconds after which an
	// entity gets a fresh cluster ID.
	DetachThreshold float64
}

// DefaultConfig returns the production-default tracker configuration.
func DefaultConfig() Config {
	return Config{DetachThreshold: DefaultDetachThreshold}
}

// Record is the per-entity state carried between ticks.
type Record struct {
	ClusterID ClusterID
	LastTouch float64 // simulation seconds of the last observed contact
	Category  int     // category cached from the most recent tick

	seen uint64 // tick stamp of the last snapshot containing the entity
}

// TickStats summarises what a Reconcile call changed.
type TickStats struct {
	Created       int // records created for newly seen entities
	Allocated     int // fresh cluster IDs handed to components with no history
	Merged        int // historical IDs folded into another ID
	Renewed       int // records whose contact timer was renewed
	Recategorized int // records whose category changed since last tick
	Despawned     int // records deleted because the entity disappeared
	Detached      int // records severed after exceeding the detach threshold
}

// Tracker maps entities to long-lived cluster IDs.
//
// A Tracker is the injected state object of the clustering pipeline: create
// one per simulation and pass it to every tick. It is not safe for
// concurrent use.
type Tracker struct {
	cfg     Config
	records map[l1snapshot.EntityID]*Record
	nextID  ClusterID
	tick    uint64
	lastNow float64

	// Per-tick scratch.
	remap     map[ClusterID]ClusterID
	holders   map[ClusterID]int
	ids       []ClusterID
	detach    []l1snapshot.EntityID
	assign    []ClusterID
	lastStats TickStats
}

// NewTracker creates an empty Tracker.
func NewTracker(cfg Config) *Tracker {
	if cfg.DetachThreshold < 0 {
		cfg.DetachThreshold = 0
	}
	return &Tracker{
		cfg:     cfg,
		records: make(map[l1snapshot.EntityID]*Record),
		nextID:  1,
		remap:   make(map[ClusterID]ClusterID),
		holders: make(map[ClusterID]int),
	}
}

// Config returns the tracker configuration.
func (t *Tracker) Config() Config {
	return t.cfg
}

// Len returns the number of live persistence records.
func (t *Tracker) Len() int {
	return len(t.records)
}

// Record returns a copy of the record for id.
func (t *Tracker) Record(id l1snapshot.EntityID) (Record, bool) {
	rec, ok := t.records[id]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// LastStats returns the statistics of the most recent Reconcile.
func (t *Tracker) LastStats() TickStats {
	return t.lastStats
}

// Reset drops every record. ID allocation continues from where it was so
// IDs stay unique for the tracker's lifetime.
func (t *Tracker) Reset() {
	n := len(t.records)
	if n > 0 {
		diagf("reset: dropping %d records", n)
	}
	clear(t.records)
	t.lastStats = TickStats{Despawned: n}
}

func (t *Tracker) allocate() ClusterID {
	id := t.nextID
	t.nextID++
	return id
}

// resolve follows merge redirects recorded during the current tick.
func (t *Tracker) resolve(id ClusterID) ClusterID {
	root := id
	for {
		next, ok := t.remap[root]
		if !ok {
			break
		}
		root = next
	}
	for id != root {
		next := t.remap[id]
		t.remap[id] = root
		id = next
	}
	return root
}

// Reconcile folds this tick's raw components into the persistent map and
// returns the cluster ID of every snapshot entity, indexed like
// snap.Entities. The returned slice is owned by the Tracker and is
// overwritten by the next call.
//
// Policy, in order:
//  1. Each component collects the distinct IDs already held by its members.
//     A member whose cached category differs from its current one
//     contributes nothing.
//  2. No IDs: allocate. One: reuse. Several: keep the lowest and redirect
//     every record holding one of the others to it.
//  3. Members of components with two or more entities renew LastTouch;
//     singletons do not.
//  4. Records of entities missing from the snapshot are deleted.
//  5. Records isolated for longer than the detach threshold get a fresh
//     ID, unless they already hold their ID alone.
//
// An isolated former member therefore keeps its old cluster ID until the
// threshold elapses. The contact timer is per entity, not per cluster.
func (t *Tracker) Reconcile(snap *l1snapshot.Snapshot, comps *l3components.Components, now float64) []ClusterID {
	if now < t.lastNow {
		opsf("simulation time went backwards (%.6f < %.6f); clamping", now, t.lastNow)
		now = t.lastNow
	}
	t.lastNow = now
	t.tick++

	var stats TickStats
	clear(t.remap)
	entities := snap.Entities

	for _, group := range comps.Groups {
		t.ids = t.ids[:0]
		for _, idx := range group {
			e := entities[idx]
			rec, ok := t.records[e.ID]
			if !ok || rec.Category != e.Category {
				continue
			}
			id := t.resolve(rec.ClusterID)
			if !slices.Contains(t.ids, id) {
				t.ids = append(t.ids, id)
			}
		}

		var target ClusterID
		switch len(t.ids) {
		case 0:
			target = t.allocate()
			stats.Allocated++
		case 1:
			target = t.ids[0]
		default:
			target = slices.Min(t.ids)
			for _, id := range t.ids {
				if id != target {
					t.remap[id] = target
					stats.Merged++
				}
			}
			diagf("merge: %d entities joined %d clusters into %d", len(group), len(t.ids), target)
		}

		touching := len(group) >= 2
		for _, idx := range group {
			e := entities[idx]
			rec, ok := t.records[e.ID]
			if !ok {
				rec = &Record{LastTouch: now}
				t.records[e.ID] = rec
				stats.Created++
			} else if rec.Category != e.Category {
				stats.Recategorized++
			}
			rec.ClusterID = target
			rec.Category = e.Category
			rec.seen = t.tick
			if touching {
				rec.LastTouch = now
				stats.Renewed++
			}
		}
	}

	clear(t.holders)
	t.detach = t.detach[:0]
	for id, rec := range t.records {
		if rec.seen != t.tick {
			delete(t.records, id)
			stats.Despawned++
			continue
		}
		if len(t.remap) > 0 {
			rec.ClusterID = t.resolve(rec.ClusterID)
		}
		t.holders[rec.ClusterID]++
		if now-rec.LastTouch > t.cfg.DetachThreshold {
			t.detach = append(t.detach, id)
		}
	}

	// Detach in entity order so ID allocation is reproducible.
	slices.SortFunc(t.detach, func(a, b l1snapshot.EntityID) int { return cmp.Compare(a, b) })
	for _, id := range t.detach {
		rec := t.records[id]
		if t.holders[rec.ClusterID] <= 1 {
			continue
		}
		old := rec.ClusterID
		t.holders[old]--
		rec.ClusterID = t.allocate()
		t.holders[rec.ClusterID] = 1
		stats.Detached++
		diagf("detach: entity %d left cluster %d after %.3fs without contact (now %d)",
			id, old, now-rec.LastTouch, rec.ClusterID)
	}

	if cap(t.assign) < len(entities) {
		t.assign = make([]ClusterID, len(entities))
	} else {
		t.assign = t.assign[:len(entities)]
	}
	for i, e := range entities {
		t.assign[i] = t.records[e.ID].ClusterID
	}

	t.lastStats = stats
	tracef("tick %d: records=%d created=%d merged=%d detached=%d despawned=%d",
		t.tick, len(t.records), stats.Created, stats.Merged, stats.Detached, stats.Despawned)
	return t.assign
}
