package monitor

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/ballcluster/internal/ballcluster"
)

const plotWidth = 10 * vg.Inch

// SnapshotPlotter writes one PNG per sampled tick showing every ball,
// coloured by the cluster it belongs to.
type SnapshotPlotter struct {
	outputDir string
	every     int
	arenaW    float64
	arenaH    float64
	saved     int
}

// NewSnapshotPlotter creates the output directory and returns a plotter
// that samples every n ticks. n <= 0 disables periodic plots.
func NewSnapshotPlotter(outputDir string, every int, arenaW, arenaH float64) (*SnapshotPlotter, error) {
	if !(arenaW > 0) || !(arenaH > 0) {
		return nil, fmt.Errorf("arena must have positive size, got %fx%f", arenaW, arenaH)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create plot dir: %w", err)
	}
	return &SnapshotPlotter{outputDir: outputDir, every: every, arenaW: arenaW, arenaH: arenaH}, nil
}

// Saved returns the number of PNGs written.
func (sp *SnapshotPlotter) Saved() int { return sp.saved }

// Due reports whether tick falls on the sampling interval.
func (sp *SnapshotPlotter) Due(tick uint64) bool {
	return sp.every > 0 && tick%uint64(sp.every) == 0
}

// Observe plots res when its tick is due and returns the file written, or
// "" when the tick was skipped.
func (sp *SnapshotPlotter) Observe(entities []ballcluster.Entity, res *ballcluster.Result) (string, error) {
	if !sp.Due(res.Tick) {
		return "", nil
	}
	return sp.Plot(entities, res)
}

// Plot renders entities grouped by res into tick_<n>.png.
func (sp *SnapshotPlotter) Plot(entities []ballcluster.Entity, res *ballcluster.Result) (string, error) {
	byID := make(map[ballcluster.EntityID]ballcluster.Entity, len(entities))
	for _, e := range entities {
		byID[e.ID] = e
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Tick %d  t=%.2fs  clusters=%d", res.Tick, res.Time, res.Len())
	p.X.Label.Text = "X"
	p.Y.Label.Text = "Y"
	p.X.Min, p.X.Max = 0, sp.arenaW
	p.Y.Min, p.Y.Max = 0, sp.arenaH
	p.Add(plotter.NewGrid())

	plotHeight := plotWidth * vg.Length(sp.arenaH/sp.arenaW)
	// Points per world unit, so glyphs approximate the ball discs.
	scale := float64(plotWidth.Points()) / sp.arenaW

	colors := generateColors(res.Len())
	var plotErr error
	res.Range(func(i int, c ballcluster.Cluster) bool {
		for _, id := range c.Members {
			e, ok := byID[id]
			if !ok {
				continue
			}
			s, err := plotter.NewScatter(plotter.XYs{{X: e.Position.X, Y: e.Position.Y}})
			if err != nil {
				plotErr = err
				return false
			}
			s.GlyphStyle.Shape = draw.CircleGlyph{}
			s.GlyphStyle.Color = colors[i]
			s.GlyphStyle.Radius = vg.Points(math.Max(1, e.Radius*scale))
			p.Add(s)
		}
		return true
	})
	if plotErr != nil {
		return "", fmt.Errorf("tick %d: %w", res.Tick, plotErr)
	}

	file := filepath.Join(sp.outputDir, fmt.Sprintf("tick_%06d.png", res.Tick))
	if err := p.Save(plotWidth, plotHeight, file); err != nil {
		return "", fmt.Errorf("save %s: %w", file, err)
	}
	sp.saved++
	return file, nil
}
