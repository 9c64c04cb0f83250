package monitor

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/ballcluster/internal/ballcluster"
)

// TimelinePoint is one tick's counts.
type TimelinePoint struct {
	Tick     uint64
	Time     float64
	Entities int
	Clusters int
	Largest  int
}

// TimelineSummary aggregates a timeline.
type TimelineSummary struct {
	Ticks        int
	MeanClusters float64
	StdClusters  float64
	PeakClusters int
	PeakLargest  int
}

// Timeline accumulates per-tick counts for charting.
type Timeline struct {
	points []TimelinePoint
}

// NewTimeline returns an empty timeline.
func NewTimeline() *Timeline {
	return &Timeline{}
}

// Observe appends res.
func (tl *Timeline) Observe(res *ballcluster.Result) {
	pt := TimelinePoint{Tick: res.Tick, Time: res.Time, Entities: res.EntityCount(), Clusters: res.Len()}
	if i := res.Largest(); i >= 0 {
		pt.Largest = res.At(i).Size()
	}
	tl.points = append(tl.points, pt)
}

// Points returns a copy of the recorded points.
func (tl *Timeline) Points() []TimelinePoint {
	return append([]TimelinePoint(nil), tl.points...)
}

// Summary reports cluster-count statistics over the timeline.
func (tl *Timeline) Summary() TimelineSummary {
	s := TimelineSummary{Ticks: len(tl.points)}
	if s.Ticks == 0 {
		return s
	}
	counts := make([]float64, len(tl.points))
	largest := make([]float64, len(tl.points))
	for i, p := range tl.points {
		counts[i] = float64(p.Clusters)
		largest[i] = float64(p.Largest)
	}
	s.MeanClusters, s.StdClusters = stat.MeanStdDev(counts, nil)
	if s.Ticks == 1 {
		s.StdClusters = 0
	}
	s.PeakClusters = int(floats.Max(counts))
	s.PeakLargest = int(floats.Max(largest))
	return s
}

// Chart builds the line chart of clusters, largest cluster and entities
// per tick.
func (tl *Timeline) Chart(title string) *charts.Line {
	x := make([]string, len(tl.points))
	clusters := make([]opts.LineData, len(tl.points))
	largest := make([]opts.LineData, len(tl.points))
	entities := make([]opts.LineData, len(tl.points))
	for i, p := range tl.points {
		x[i] = fmt.Sprintf("%d", p.Tick)
		clusters[i] = opts.LineData{Value: p.Clusters}
		largest[i] = opts.LineData{Value: p.Largest}
		entities[i] = opts.LineData{Value: p.Entities}
	}

	sum := tl.Summary()
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "1200px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("ticks=%d mean clusters=%.1f peak=%d", sum.Ticks, sum.MeanClusters, sum.PeakClusters),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Tick", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Count"}),
	)
	line.SetXAxis(x).
		AddSeries("clusters", clusters).
		AddSeries("largest", largest).
		AddSeries("entities", entities)
	return line
}

// Render writes the timeline chart as a standalone HTML page.
func (tl *Timeline) Render(w io.Writer, title string) error {
	return tl.Chart(title).Render(w)
}

// ClusterScatter builds a scatter of one tick's cluster centroids, one
// series per category, symbol size growing with member count.
func ClusterScatter(res *ballcluster.Result, arenaW, arenaH float64) *charts.Scatter {
	byCategory := make(map[int][]opts.ScatterData)
	var categories []int
	res.Range(func(_ int, c ballcluster.Cluster) bool {
		if _, ok := byCategory[c.Category]; !ok {
			categories = append(categories, c.Category)
		}
		byCategory[c.Category] = append(byCategory[c.Category], opts.ScatterData{
			Value:      []interface{}{c.Centroid.X, c.Centroid.Y, c.Size()},
			SymbolSize: 6 + 2*c.Size(),
			Name:       fmt.Sprintf("cluster %d", c.ClusterID),
		})
		return true
	})

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Ball Clusters", Width: "900px", Height: "700px"}),
		charts.WithTitleOpts(opts.Title{Title: "Clusters", Subtitle: fmt.Sprintf("tick=%d t=%.2fs count=%d", res.Tick, res.Time, res.Len())}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: 0, Max: arenaW, Name: "X", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: arenaH, Name: "Y", NameLocation: "middle", NameGap: 30}),
	)

	// Categories were appended in result order, which is category order.
	colors := generateColors(len(categories))
	for i, cat := range categories {
		scatter.AddSeries(fmt.Sprintf("category %d", cat), byCategory[cat],
			charts.WithItemStyleOpts(opts.ItemStyle{Color: hexColor(colors[i])}))
	}
	return scatter
}

// RenderScatter writes ClusterScatter as a standalone HTML page.
func RenderScatter(w io.Writer, res *ballcluster.Result, arenaW, arenaH float64) error {
	return ClusterScatter(res, arenaW, arenaH).Render(w)
}

// WriteReport renders the timeline and the final scatter onto one HTML
// page at path.
func WriteReport(path, title string, tl *Timeline, final *ballcluster.Result, arenaW, arenaH float64) error {
	page := components.NewPage()
	page.PageTitle = title
	page.AddCharts(tl.Chart(title))
	if final != nil {
		page.AddCharts(ClusterScatter(final, arenaW, arenaH))
	}

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
