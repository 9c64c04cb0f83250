package sim

import (
	"context"
	"errors"
	"fmt"

	"github.com/banshee-data/ballcluster/internal/ballcluster"
	"github.com/banshee-data/ballcluster/internal/timeutil"
)

// Observer receives each published result. Returning an error stops the run.
type Observer func(tick uint64, now float64, res *ballcluster.Result) error

// Summary describes a completed run.
type Summary struct {
	Ticks        uint64
	Time         float64
	Balls        int
	Clusters     int
	PeakClusters int
	LargestSize  int
	FrozenBalls  int
	EnabledBalls int
	StoppedEarly bool
}

// Runner drives the physics world and the clustering engine in lockstep.
type Runner struct {
	Scenario  *Scenario
	World     *World
	Engine    ballcluster.Clusterer
	Clock     *timeutil.SimClock
	Pacer     timeutil.Pacer
	Rule      EnableRule
	Observers []Observer

	snap []ballcluster.Entity
}

// Run executes up to ticks ticks. Each tick applies scheduled events, steps
// the physics, clusters the snapshot, applies the enable rule and notifies
// observers. A cancelled context ends the run without error.
func (r *Runner) Run(ctx context.Context, ticks int) (Summary, error) {
	if r.World == nil || r.Engine == nil || r.Clock == nil {
		return Summary{}, errors.New("runner requires a world, an engine and a clock")
	}
	pacer := r.Pacer
	if pacer == nil {
		pacer = timeutil.FreePacer{}
	}
	defer pacer.Stop()

	var sum Summary
	for i := 0; i < ticks; i++ {
		if err := pacer.Wait(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				sum.StoppedEarly = true
				diagf("run stopped at tick %d: %v", sum.Ticks, err)
				return sum, nil
			}
			return sum, fmt.Errorf("pacer: %w", err)
		}

		tick, now := r.Clock.Advance()
		if r.Scenario != nil {
			r.Scenario.ApplyEvents(r.World, tick)
		}
		r.World.Step(r.Clock.Step())

		r.snap = r.World.AppendSnapshot(r.snap[:0])
		res := r.Engine.Tick(r.snap, now)
		if r.Rule.MinMembers > 0 {
			sum.EnabledBalls, sum.FrozenBalls = r.World.ApplyEnabled(res, r.Rule)
		}

		sum.Ticks = tick
		sum.Time = now
		sum.Balls = len(r.snap)
		sum.Clusters = res.Len()
		if sum.Clusters > sum.PeakClusters {
			sum.PeakClusters = sum.Clusters
		}
		if l := res.Largest(); l >= 0 {
			sum.LargestSize = res.At(l).Size()
		} else {
			sum.LargestSize = 0
		}

		for _, obs := range r.Observers {
			if err := obs(tick, now, res); err != nil {
				return sum, fmt.Errorf("observer at tick %d: %w", tick, err)
			}
		}
	}
	return sum, nil
}
