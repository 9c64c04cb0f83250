package ballcluster

import (
	"time"

	"github.com/banshee-data/ballcluster/internal/ballcluster/l1snapshot"
	"github.com/banshee-data/ballcluster/internal/ballcluster/l2spatial"
	"github.com/banshee-data/ballcluster/internal/ballcluster/l3components"
	"github.com/banshee-data/ballcluster/internal/ballcluster/l4persistence"
	"github.com/banshee-data/ballcluster/internal/ballcluster/l5clusters"
	"github.com/banshee-data/ballcluster/internal/config"
)

// Config holds engine parameters.
type Config struct {
	DetachThreshold float64 // seconds of isolation before a ball leaves its cluster
	MinCellSize     float64 // lower bound for the spatial hash cell edge
}

// DefaultConfig returns the production-default engine configuration.
func DefaultConfig() Config {
	return Config{
		DetachThreshold: l4persistence.DefaultDetachThreshold,
		MinCellSize:     l2spatial.DefaultMinCellSize,
	}
}

// ConfigFromTuning builds a Config from a loaded TuningConfig.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	return Config{
		DetachThreshold: cfg.GetDetachThresholdSecs(),
		MinCellSize:     cfg.GetMinCellSize(),
	}
}

// TrackerConfig returns the persistence configuration implied by c.
func (c Config) TrackerConfig() l4persistence.Config {
	return l4persistence.Config{DetachThreshold: c.DetachThreshold}
}

// Clusterer abstracts the clustering engine so the simulation runner and
// tools can be driven by a fake in tests.
type Clusterer interface {
	// Tick runs one full pipeline pass and returns the published result.
	Tick(entities []l1snapshot.Entity, now float64) *l5clusters.Result

	// Result returns the most recently published result.
	Result() *l5clusters.Result
}

// TickReport describes the work done by one pipeline pass.
type TickReport struct {
	Tick            uint64
	Time            float64
	Entities        int
	Invalid         int
	Duplicates      int
	CellSize        float64
	OccupiedCells   int
	PairsTested     int
	RawComponents   int
	MultiComponents int
	Clusters        int
	Records         int
	Persistence     l4persistence.TickStats
	Elapsed         time.Duration
}

// Scratch holds the per-tick working storage of the pipeline. Reusing one
// Scratch across ticks avoids reallocating buckets and disjoint-set arrays;
// nothing in it is observable between ticks.
type Scratch struct {
	snap     l1snapshot.Snapshot
	index    *l2spatial.SpatialIndex
	resolver *l3components.Resolver
	agg      *l5clusters.Aggregator
}

// NewScratch allocates empty scratch storage.
func NewScratch() *Scratch {
	return &Scratch{
		index:    l2spatial.NewSpatialIndex(l2spatial.DefaultMinCellSize),
		resolver: l3components.NewResolver(),
		agg:      l5clusters.NewAggregator(),
	}
}

// Run executes one full pipeline pass: spatial index, connectivity,
// persistence reconciliation against state, then aggregation. The state
// is the only input mutated. An empty snapshot clears state and yields an
// empty result.
func Run(state *l4persistence.Tracker, scratch *Scratch, cfg Config, entities []l1snapshot.Entity, now float64, tick uint64) (*l5clusters.Result, TickReport) {
	start := time.Now()
	report := TickReport{Tick: tick, Time: now}

	if len(entities) == 0 {
		state.Reset()
		report.Persistence = state.LastStats()
		report.Elapsed = time.Since(start)
		Tracef("tick %d: empty snapshot, state cleared", tick)
		return l5clusters.Empty(tick, now), report
	}

	snap := &scratch.snap
	snap.Load(entities)
	report.Entities = snap.Len()
	report.Invalid = snap.Invalid
	report.Duplicates = snap.Duplicates
	if snap.Invalid > 0 {
		Opsf("tick %d: %d entities with non-positive radius excluded from contact tests", tick, snap.Invalid)
	}
	if snap.Duplicates > 0 {
		Opsf("tick %d: %d duplicate entity IDs dropped", tick, snap.Duplicates)
	}

	cellSize := l2spatial.CellSizeFor(snap.MaxRadius, cfg.MinCellSize)
	scratch.index.Build(snap, cellSize)
	report.CellSize = cellSize
	report.OccupiedCells = scratch.index.Occupied()

	comps := scratch.resolver.Resolve(snap, scratch.index)
	report.PairsTested = comps.Pairs
	report.RawComponents = comps.Len()
	report.MultiComponents = comps.Multi()

	assign := state.Reconcile(snap, comps, now)
	report.Persistence = state.LastStats()
	report.Records = state.Len()

	res := scratch.agg.Aggregate(snap, assign, tick, now)
	report.Clusters = res.Len()
	report.Elapsed = time.Since(start)

	Tracef("tick %d t=%.3f: entities=%d cell=%.2f occupied=%d pairs=%d raw=%d clusters=%d records=%d in %s",
		tick, now, report.Entities, cellSize, report.OccupiedCells, report.PairsTested,
		report.RawComponents, report.Clusters, report.Records, report.Elapsed)
	return res, report
}

// Engine owns the persistence state and scratch storage for one simulation
// and publishes a new Result per tick. It is single-threaded: Tick must not
// be called concurrently, but a published Result may be read from anywhere.
type Engine struct {
	cfg     Config
	state   *l4persistence.Tracker
	scratch *Scratch

	tick   uint64
	result *l5clusters.Result
	report TickReport
}

// NewEngine creates an Engine with fresh persistence state.
func NewEngine(cfg Config) *Engine {
	return NewEngineWithState(cfg, l4persistence.NewTracker(cfg.TrackerConfig()))
}

// NewEngineWithState creates an Engine around an existing Tracker. The
// Engine takes ownership of state; callers must not use it afterwards.
func NewEngineWithState(cfg Config, state *l4persistence.Tracker) *Engine {
	return &Engine{
		cfg:     cfg,
		state:   state,
		scratch: NewScratch(),
		result:  l5clusters.Empty(0, 0),
	}
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Tick runs the pipeline for entities at simulation time now (seconds,
// non-decreasing) and publishes the result.
func (e *Engine) Tick(entities []l1snapshot.Entity, now float64) *l5clusters.Result {
	e.tick++
	res, report := Run(e.state, e.scratch, e.cfg, entities, now, e.tick)
	e.result = res
	e.report = report
	if s := report.Persistence; s.Merged > 0 || s.Detached > 0 {
		Diagf("tick %d: merged=%d detached=%d clusters=%d", e.tick, s.Merged, s.Detached, report.Clusters)
	}
	return res
}

// Result returns the most recently published result.
func (e *Engine) Result() *l5clusters.Result {
	return e.result
}

// Report returns the work summary of the most recent tick.
func (e *Engine) Report() TickReport {
	return e.report
}

// Records returns the number of live persistence records.
func (e *Engine) Records() int {
	return e.state.Len()
}

// Verify at compile time that *Engine implements Clusterer.
var _ Clusterer = (*Engine)(nil)
