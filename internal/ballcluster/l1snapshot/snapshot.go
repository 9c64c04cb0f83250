package l1snapshot

import (
	"cmp"
	"slices"
)

// Snapshot is the canonicalised input of a single tick: entities sorted by
// ID with duplicate IDs removed. Index positions in Entities are the dense
// indices used by the spatial index and the disjoint-set forest.
type Snapshot struct {
	Entities []Entity

	// MaxRadius is the largest radius among valid entities (0 if none).
	MaxRadius float64

	// Invalid counts entities excluded from contact tests (radius <= 0 or NaN).
	Invalid int

	// Duplicates counts entries dropped because their ID was already present.
	Duplicates int
}

// Len returns the number of entities in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.Entities)
}

// Reset empties the snapshot while keeping its backing storage.
func (s *Snapshot) Reset() {
	s.Entities = s.Entities[:0]
	s.MaxRadius = 0
	s.Invalid = 0
	s.Duplicates = 0
}

// Load replaces the snapshot contents with a canonical copy of entities.
// The caller's slice is never modified. When an ID appears more than once,
// the first occurrence in input order wins.
func (s *Snapshot) Load(entities []Entity) {
	s.Reset()
	if len(entities) == 0 {
		return
	}

	s.Entities = append(s.Entities, entities...)
	slices.SortStableFunc(s.Entities, func(a, b Entity) int {
		return cmp.Compare(a.ID, b.ID)
	})

	// Compact duplicates in place.
	out := s.Entities[:1]
	for _, e := range s.Entities[1:] {
		if e.ID == out[len(out)-1].ID {
			s.Duplicates++
			continue
		}
		out = append(out, e)
	}
	s.Entities = out

	for _, e := range s.Entities {
		if !e.Valid() {
			s.Invalid++
			continue
		}
		if e.Radius > s.MaxRadius {
			s.MaxRadius = e.Radius
		}
	}
}

// NewSnapshot builds a canonical snapshot from entities.
func NewSnapshot(entities []Entity) *Snapshot {
	s := &Snapshot{}
	s.Load(entities)
	return s
}
