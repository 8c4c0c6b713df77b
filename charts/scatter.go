package charts

import (
	"errors"
	"fmt"
	"image/color"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"sa.service/core"
)

var regressionColor = color.RGBA{R: 214, G: 39, B: 40, A: 255}

// BetaScatter plots daily stock returns against benchmark returns with the fitted line
// alpha + beta * x through them.
func (r *Renderer) BetaScatter(b *core.BetaResult) ([]byte, error) {
	if b == nil || len(b.MarketReturns) == 0 || len(b.MarketReturns) != len(b.StockReturns) {
		return nil, errors.New("no returns to plot")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Beta of %s vs %s: %.2f", b.Ticker, b.Benchmark, b.Beta)
	p.X.Label.Text = fmt.Sprintf("%s daily return", b.Benchmark)
	p.Y.Label.Text = fmt.Sprintf("%s daily return", b.Ticker)
	p.Add(plotter.NewGrid())

	xys := make(plotter.XYs, len(b.MarketReturns))
	for i := range b.MarketReturns {
		xys[i] = plotter.XY{X: b.MarketReturns[i], Y: b.StockReturns[i]}
	}

	scatter, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, fmt.Errorf("error building scatter for %s: %w", b.Ticker, err)
	}
	scatter.GlyphStyle.Color = lineColor
	scatter.GlyphStyle.Radius = vg.Points(2)
	scatter.GlyphStyle.Shape = draw.CircleGlyph{}

	fit := plotter.NewFunction(func(x float64) float64 { return b.Alpha + b.Beta*x })
	fit.XMin = floats.Min(b.MarketReturns)
	fit.XMax = floats.Max(b.MarketReturns)
	fit.Samples = 2
	fit.Color = regressionColor
	fit.Width = vg.Points(1.5)

	p.Add(scatter, fit)
	p.Legend.Add(b.Ticker, scatter)
	p.Legend.Add("fit", fit)
	p.Legend.Top = true
	p.Legend.Left = true

	return r.encode(p, "scatter")
}
