package charts

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	m "sa.service/data/models"
)

var lineColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}

// PriceLine draws the closing prices of one symbol over time.
func (r *Renderer) PriceLine(ts *m.TimeSeries) ([]byte, error) {
	if ts.IsEmpty() {
		return nil, fmt.Errorf("no prices to plot for %s", ts.Symbol)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Stock Prices for %s", ts.Symbol)
	p.X.Label.Text = "Date"
	p.Y.Label.Text = "Price"
	p.X.Tick.Marker = plot.TimeTicks{Format: DateFormat}
	p.Add(plotter.NewGrid())

	xys := make(plotter.XYs, ts.Len())
	for i, pt := range ts.Points {
		xys[i] = plotter.XY{X: float64(pt.Date.Unix()), Y: pt.Close}
	}

	line, err := plotter.NewLine(xys)
	if err != nil {
		return nil, fmt.Errorf("error building price line for %s: %w", ts.Symbol, err)
	}
	line.Color = lineColor
	line.Width = vg.Points(1.5)

	p.Add(line)
	p.Legend.Add(ts.Symbol, line)
	p.Legend.Top = true

	return r.encode(p, "line")
}
