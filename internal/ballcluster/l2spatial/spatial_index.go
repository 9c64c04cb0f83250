package l2spatial

import (
	"math"

	"github.com/banshee-data/ballcluster/internal/ballcluster/l1snapshot"
)

const (
	// DefaultMinCellSize is the smallest cell edge used when every radius is tiny.
	DefaultMinCellSize = 1.0

	// estimatedEntitiesPerCell is used for initial map capacity estimation.
	estimatedEntitiesPerCell = 2

	// staleBucketFactor controls pruning: when the map holds more than this
	// many buckets per occupied cell, it is rebuilt from scratch.
	staleBucketFactor = 4
)

// CellSizeFor returns the grid cell edge for a tick whose largest radius is
// maxRadius. Two touching discs are never more than one cell apart when the
// edge is at least twice the largest radius.
func CellSizeFor(maxRadius, minCellSize float64) float64 {
	if minCellSize <= 0 {
		minCellSize = DefaultMinCellSize
	}
	return math.Max(2*maxRadius, minCellSize)
}

// SpatialIndex is a uniform grid over entity centres.
// Buckets are reused between ticks; empty buckets left behind by entities
// that moved away are invisible to queries and pruned when they pile up.
type SpatialIndex struct {
	CellSize float64
	Grid     map[int64][]int // Cell ID → entity indices

	occupied int
}

// NewSpatialIndex creates a spatial index with the specified cell size.
func NewSpatialIndex(cellSize float64) *SpatialIndex {
	return &SpatialIndex{
		CellSize: cellSize,
		Grid:     make(map[int64][]int),
	}
}

// Occupied returns the number of non-empty cells after the last Build.
func (si *SpatialIndex) Occupied() int {
	return si.occupied
}

// Build populates the index from the snapshot using the given cell size.
// Invalid entities are left out so they never appear as candidates.
func (si *SpatialIndex) Build(snap *l1snapshot.Snapshot, cellSize float64) {
	n := snap.Len()
	if si.Grid == nil || cellSize != si.CellSize || len(si.Grid) > staleBucketFactor*max(si.occupied, n) {
		si.Grid = make(map[int64][]int, n/estimatedEntitiesPerCell)
	} else {
		for k, bucket := range si.Grid {
			si.Grid[k] = bucket[:0]
		}
	}
	si.CellSize = cellSize
	si.occupied = 0

	if n == 0 {
		return
	}

	for i, e := range snap.Entities {
		if !e.Valid() {
			continue
		}
		id := CellID(si.Cell(e.Position))
		bucket := si.Grid[id]
		if len(bucket) == 0 {
			si.occupied++
		}
		si.Grid[id] = append(bucket, i)
	}
}

// Cell returns the integer cell coordinates containing p.
func (si *SpatialIndex) Cell(p l1snapshot.Vec2) (int64, int64) {
	return int64(math.Floor(p.X / si.CellSize)), int64(math.Floor(p.Y / si.CellSize))
}

// Bucket returns the entity indices stored in cell (cx, cy).
func (si *SpatialIndex) Bucket(cx, cy int64) []int {
	return si.Grid[CellID(cx, cy)]
}

// ForEachNeighbor calls fn for every entity index in the 3x3 block of cells
// centred on (cx, cy), including the centre cell.
func (si *SpatialIndex) ForEachNeighbor(cx, cy int64, fn func(idx int)) {
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for _, idx := range si.Grid[CellID(cx+dx, cy+dy)] {
				fn(idx)
			}
		}
	}
}

// CellID packs signed cell coordinates into a single key using zigzag
// encoding followed by Szudzik's pairing function.
func CellID(cx, cy int64) int64 {
	a := zigzag(cx)
	b := zigzag(cy)
	if a >= b {
		return a*a + a + b
	}
	return a + b*b
}

func zigzag(v int64) int64 {
	if v >= 0 {
		return 2 * v
	}
	return -2*v - 1
}
