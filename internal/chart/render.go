// Package chart renders forecast chart specs to PNG with gonum/plot.
package chart

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/lox/migrationforecast/internal/formhandler"
	"github.com/lox/migrationforecast/internal/metrics"
)

const (
	DefaultWidth  = 10 * vg.Inch
	DefaultHeight = 5 * vg.Inch
)

var dotDashes = []vg.Length{vg.Points(2), vg.Points(4)}

// Render draws spec as a PNG of the given size. Series hidden via the legend
// keep their legend entry but are not drawn. NaN points are skipped.
func Render(w io.Writer, spec formhandler.ChartSpec, width, height vg.Length) error {
	p, err := build(spec)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("create png writer: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	metrics.ImagesRendered.WithLabelValues("chart").Inc()
	return nil
}

// RenderPNG renders spec at the default size.
func RenderPNG(spec formhandler.ChartSpec) ([]byte, error) {
	var buf bytes.Buffer
	if err := Render(&buf, spec, DefaultWidth, DefaultHeight); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func build(spec formhandler.ChartSpec) (*plot.Plot, error) {
	l := spec.Layout
	fg := parseColor(l.FontColor, color.Black)

	p := plot.New()
	p.BackgroundColor = parseColor(l.PaperBackground, color.White)
	p.Title.Text = l.Title
	p.Title.TextStyle.Color = parseColor(l.TitleColor, fg)
	if l.TitleSize > 0 {
		p.Title.TextStyle.Font.Size = vg.Points(l.TitleSize)
	}

	for _, ax := range []*plot.Axis{&p.X, &p.Y} {
		ax.LineStyle.Color = fg
		ax.Label.TextStyle.Color = fg
		ax.Tick.Label.Color = fg
		ax.Tick.LineStyle.Color = fg
	}
	p.X.Label.Text = l.XAxisTitle
	p.Y.Label.Text = l.YAxisTitle

	p.Legend.TextStyle.Color = fg
	p.Legend.Top = l.LegendY > 0.5
	p.Legend.Left = l.LegendX < 0.5

	grid := plotter.NewGrid()
	grid.Vertical.Color = color.RGBA{R: 255, G: 255, B: 255, A: 40}
	grid.Horizontal.Color = grid.Vertical.Color
	p.Add(grid)

	for _, tr := range spec.Traces {
		line := &plotter.Line{}
		line.LineStyle.Color = parseColor(tr.Color, fg)
		line.LineStyle.Width = vg.Points(tr.Width)
		if tr.Dash == "dot" || tr.Dash == "dash" {
			line.LineStyle.Dashes = dotDashes
		}

		pts := finitePoints(tr.X, tr.Y)
		if tr.Visible != formhandler.Visible || len(pts) == 0 {
			p.Legend.Add(tr.Name, line)
			continue
		}

		ln, marks, err := plotter.NewLinePoints(pts)
		if err != nil {
			return nil, fmt.Errorf("build %s series: %w", tr.Name, err)
		}
		ln.LineStyle = line.LineStyle
		marks.GlyphStyle.Color = line.LineStyle.Color
		marks.GlyphStyle.Shape = draw.CircleGlyph{}
		marks.GlyphStyle.Radius = vg.Points(tr.MarkerSize / 2)
		p.Add(ln, marks)
		p.Legend.Add(tr.Name, ln, marks)
	}
	return p, nil
}

func finitePoints(xs, ys []float64) plotter.XYs {
	n := min(len(xs), len(ys))
	pts := make(plotter.XYs, 0, n)
	for i := 0; i < n; i++ {
		if !finite(xs[i]) || !finite(ys[i]) {
			continue
		}
		pts = append(pts, plotter.XY{X: xs[i], Y: ys[i]})
	}
	return pts
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
