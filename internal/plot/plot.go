// Package plot renders sweep results as a grid of per-thread-count panels.
package plot

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"lgabench/internal/benchmark"
)

const (
	// Columns is fixed; rows grow with the number of strata.
	Columns = 3
	// minRows keeps small sweeps on the historical 3x2 layout.
	minRows = 2

	figureSize = 10 * vg.Inch
	dpi        = 300
)

// Grid returns the panel layout for a sweep whose largest thread count is
// 2^maxThreadExp. Every stratum gets a cell.
func Grid(maxThreadExp int) (rows, cols int) {
	strata := maxThreadExp + 1
	rows = (strata + Columns - 1) / Columns
	if rows < minRows {
		rows = minRows
	}
	return rows, Columns
}

// errorPoints feeds plotter.NewYErrorBars.
type errorPoints struct {
	plotter.XYs
	plotter.YErrors
}

// Panel builds the plot for one thread count. Stddev is used as the error bar
// magnitude on both sides of the mean.
func Panel(threads int, results []benchmark.Result) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("threads=%d", threads)
	p.X.Label.Text = "log2(array size)"
	p.Y.Label.Text = "time"
	p.X.Tick.Marker = SciTicks{}
	p.Y.Tick.Marker = SciTicks{}
	p.Legend.Top = true
	p.Legend.Left = true

	var pts errorPoints
	for _, r := range results {
		if r.Threads != threads {
			continue
		}
		pts.XYs = append(pts.XYs, plotter.XY{X: float64(r.ArrayExp), Y: r.Time})
		pts.YErrors = append(pts.YErrors, struct{ Low, High float64 }{r.Stddev, r.Stddev})
	}
	if len(pts.XYs) == 0 {
		return p, nil
	}

	scatter, err := plotter.NewScatter(pts.XYs)
	if err != nil {
		return nil, fmt.Errorf("failed to build scatter for threads=%d: %w", threads, err)
	}
	scatter.GlyphStyle.Shape = draw.TriangleGlyph{}
	scatter.GlyphStyle.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}

	bars, err := plotter.NewYErrorBars(pts)
	if err != nil {
		return nil, fmt.Errorf("failed to build error bars for threads=%d: %w", threads, err)
	}
	bars.LineStyle.Color = scatter.GlyphStyle.Color

	p.Add(bars, scatter)
	p.Legend.Add("Custom", scatter)
	return p, nil
}

// Render draws one panel per thread count 1, 2, 4, ... 2^maxThreadExp and writes a
// PNG to path.
func Render(results []benchmark.Result, maxThreadExp int, path string) error {
	rows, cols := Grid(maxThreadExp)

	plots := make([][]*plot.Plot, rows)
	for j := range plots {
		plots[j] = make([]*plot.Plot, cols)
	}
	for i := 0; i <= maxThreadExp; i++ {
		p, err := Panel(1<<i, results)
		if err != nil {
			return err
		}
		plots[i/cols][i%cols] = p
	}

	img := vgimg.NewWith(vgimg.UseWH(figureSize, figureSize), vgimg.UseDPI(dpi))
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      rows,
		Cols:      cols,
		PadX:      vg.Millimeter,
		PadY:      vg.Millimeter,
		PadTop:    vg.Points(2),
		PadBottom: vg.Points(2),
		PadLeft:   vg.Points(2),
		PadRight:  vg.Points(2),
	}

	canvases := plot.Align(plots, tiles, dc)
	for j := range plots {
		for i, p := range plots[j] {
			if p != nil {
				p.Draw(canvases[j][i])
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create plot directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create plot file: %w", err)
	}
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write plot: %w", err)
	}
	return f.Close()
}

// SciTicks uses the default tick positions and switches labels to scientific
// notation outside [1e-3, 1e3).
type SciTicks struct{}

func (SciTicks) Ticks(min, max float64) []plot.Tick {
	ticks := plot.DefaultTicks{}.Ticks(min, max)
	for i := range ticks {
		if ticks[i].Label == "" {
			continue
		}
		ticks[i].Label = formatSci(ticks[i].Value)
	}
	return ticks
}

func formatSci(v float64) string {
	a := math.Abs(v)
	if a != 0 && (a < 1e-3 || a >= 1e3) {
		return strconv.FormatFloat(v, 'e', 1, 64)
	}
	return strconv.FormatFloat(v, 'g', 4, 64)
}
