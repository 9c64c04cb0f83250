// Command ballcluster runs the ball physics simulation, clusters touching
// balls every tick and optionally records the history, PNG snapshots and
// an HTML report.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/ballcluster/internal/ballcluster"
	"github.com/banshee-data/ballcluster/internal/ballcluster/l4persistence"
	"github.com/banshee-data/ballcluster/internal/ballcluster/monitor"
	"github.com/banshee-data/ballcluster/internal/ballcluster/storage/sqlite"
	"github.com/banshee-data/ballcluster/internal/config"
	"github.com/banshee-data/ballcluster/internal/db"
	"github.com/banshee-data/ballcluster/internal/sim"
	"github.com/banshee-data/ballcluster/internal/timeutil"
	"github.com/banshee-data/ballcluster/internal/version"
)

var (
	configPath   = flag.String("config", "", "Path to tuning JSON (default: built-in defaults)")
	scenarioPath = flag.String("scenario", "", "Path to scenario YAML (default: random scenario from config)")
	ticks        = flag.Int("ticks", 600, "Number of simulation ticks to run")
	dbPath       = flag.String("db", "", "SQLite file to record cluster history into (disabled when empty)")
	plotDir      = flag.String("plot-dir", "", "Directory for PNG snapshots (disabled when empty)")
	htmlPath     = flag.String("html", "", "Write an HTML timeline report to this path")
	realtime     = flag.Bool("realtime", false, "Pace ticks against the wall clock")
	showVersion  = flag.Bool("version", false, "Print version and exit")
	logLevel     = flag.String("log-level", "ops", "Log streams to enable: none, ops, diag or trace")
)

type options struct {
	configPath   string
	scenarioPath string
	ticks        int
	dbPath       string
	plotDir      string
	htmlPath     string
	realtime     bool
	logLevel     string
}

func main() {
	flag.Parse()
	if *showVersion {
		fmt.Println(version.String())
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sum, err := run(ctx, options{
		configPath:   *configPath,
		scenarioPath: *scenarioPath,
		ticks:        *ticks,
		dbPath:       *dbPath,
		plotDir:      *plotDir,
		htmlPath:     *htmlPath,
		realtime:     *realtime,
		logLevel:     *logLevel,
	}, os.Stderr)
	if err != nil {
		log.Fatalf("ballcluster: %v", err)
	}
	log.Printf("ran %d ticks (%.2fs simulated): %d balls, %d clusters (peak %d), largest %d, frozen %d",
		sum.Ticks, sum.Time, sum.Balls, sum.Clusters, sum.PeakClusters, sum.LargestSize, sum.FrozenBalls)
}

// configureLogging routes the ops, diag and trace streams of every package
// to w, enabling streams up to level.
func configureLogging(level string, w io.Writer) error {
	var ops, diag, trace io.Writer
	switch level {
	case "none":
	case "ops":
		ops = w
	case "diag":
		ops, diag = w, w
	case "trace":
		ops, diag, trace = w, w, w
	default:
		return fmt.Errorf("unknown log level %q (want none, ops, diag or trace)", level)
	}
	ballcluster.SetLogWriters(ballcluster.LogWriters{Ops: ops, Diag: diag, Trace: trace})
	l4persistence.SetLogWriters(ops, diag, trace)
	sim.SetLogWriters(ops, diag, trace)
	return nil
}

func loadConfig(path string) (*config.TuningConfig, error) {
	if path == "" {
		return config.DefaultTuningConfig(), nil
	}
	return config.LoadTuningConfig(path)
}

func run(ctx context.Context, o options, logOut io.Writer) (sim.Summary, error) {
	if err := configureLogging(o.logLevel, logOut); err != nil {
		return sim.Summary{}, err
	}

	cfg, err := loadConfig(o.configPath)
	if err != nil {
		return sim.Summary{}, err
	}

	var sc *sim.Scenario
	if o.scenarioPath != "" {
		if sc, err = sim.LoadScenario(o.scenarioPath, cfg); err != nil {
			return sim.Summary{}, err
		}
	} else {
		sc = sim.RandomScenario(cfg, cfg.GetSeed())
	}
	world, err := sc.Build()
	if err != nil {
		return sim.Summary{}, err
	}

	clock, err := timeutil.NewSimClock(cfg.GetTickRateHz())
	if err != nil {
		return sim.Summary{}, err
	}
	var pacer timeutil.Pacer = timeutil.FreePacer{}
	if o.realtime {
		pacer = timeutil.NewRealPacer(clock.Interval())
	}

	engineCfg := ballcluster.ConfigFromTuning(cfg)
	runner := &sim.Runner{
		Scenario: sc,
		World:    world,
		Engine:   ballcluster.NewEngine(engineCfg),
		Clock:    clock,
		Pacer:    pacer,
		Rule:     sim.EnableRule{MinMembers: cfg.GetEnableMinMembers(), GraceSecs: cfg.GetEnableGraceSecs()},
	}

	timeline := monitor.NewTimeline()
	var last *ballcluster.Result
	runner.Observers = append(runner.Observers, func(_ uint64, _ float64, res *ballcluster.Result) error {
		timeline.Observe(res)
		last = res
		return nil
	})

	if o.dbPath != "" {
		database, err := db.Open(o.dbPath)
		if err != nil {
			return sim.Summary{}, err
		}
		defer database.Close()

		store := sqlite.NewClusterStore(database.DB)
		rec, err := store.CreateRun(sc.Name, version.String(), engineCfg)
		if err != nil {
			return sim.Summary{}, err
		}
		log.Printf("recording run %s into %s", rec.RunID, o.dbPath)
		runner.Observers = append(runner.Observers, func(_ uint64, _ float64, res *ballcluster.Result) error {
			return store.RecordTick(rec.RunID, res)
		})
	}

	var plotter *monitor.SnapshotPlotter
	if o.plotDir != "" {
		w, h := world.Size()
		if plotter, err = monitor.NewSnapshotPlotter(o.plotDir, cfg.GetPlotEvery(), w, h); err != nil {
			return sim.Summary{}, err
		}
		runner.Observers = append(runner.Observers, func(tick uint64, _ float64, res *ballcluster.Result) error {
			if !plotter.Due(tick) {
				return nil
			}
			_, err := plotter.Observe(world.Snapshot(), res)
			return err
		})
	}

	sum, err := runner.Run(ctx, o.ticks)
	if err != nil {
		return sum, err
	}

	// Always keep a picture of the final state when plotting is on.
	if plotter != nil && last != nil && plotter.Saved() == 0 {
		if _, err := plotter.Plot(world.Snapshot(), last); err != nil {
			return sum, err
		}
	}
	if o.htmlPath != "" {
		w, h := world.Size()
		if err := monitor.WriteReport(o.htmlPath, "ballcluster "+sc.Name, timeline, last, w, h); err != nil {
			return sum, err
		}
	}
	return sum, nil
}
