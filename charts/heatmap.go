package charts

import (
	"errors"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"

	"sa.service/core"
)

var undefinedCell = color.Gray{Y: 200}

// correlationGrid lays the matrix out with column c on the x axis and row r on the y axis.
type correlationGrid struct {
	cm *core.CorrelationMatrix
}

func (g correlationGrid) Dims() (c, r int)   { return g.cm.Size(), g.cm.Size() }
func (g correlationGrid) Z(c, r int) float64 { return g.cm.At(r, c) }
func (g correlationGrid) X(c int) float64    { return float64(c) }
func (g correlationGrid) Y(r int) float64    { return float64(r) }

// CorrelationHeatmap draws the matrix on a blue to red scale fixed at [-1, 1] with the value
// written in every cell.
func (r *Renderer) CorrelationHeatmap(cm *core.CorrelationMatrix) ([]byte, error) {
	if cm == nil || cm.Size() == 0 {
		return nil, errors.New("no correlations to plot")
	}

	p := plot.New()
	p.Title.Text = "Correlation Matrix"

	cmap := moreland.SmoothBlueRed()
	cmap.SetMin(-1)
	cmap.SetMax(1)

	grid := correlationGrid{cm: cm}
	hm := plotter.NewHeatMap(grid, cmap.Palette(255))
	hm.Min, hm.Max = -1, 1
	hm.NaN = undefinedCell
	p.Add(hm)

	n := cm.Size()
	cells := plotter.XYLabels{
		XYs:    make(plotter.XYs, 0, n*n),
		Labels: make([]string, 0, n*n),
	}
	for row := range n {
		for col := range n {
			cells.XYs = append(cells.XYs, plotter.XY{X: float64(col), Y: float64(row)})
			cells.Labels = append(cells.Labels, cellLabel(cm, row, col))
		}
	}

	labels, err := plotter.NewLabels(cells)
	if err != nil {
		return nil, fmt.Errorf("error labeling heatmap: %w", err)
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].XAlign = text.XCenter
		labels.TextStyle[i].YAlign = text.YCenter
	}
	p.Add(labels)

	p.NominalX(cm.Tickers...)
	p.NominalY(cm.Tickers...)

	return r.encode(p, "heatmap")
}

func cellLabel(cm *core.CorrelationMatrix, row, col int) string {
	if !cm.Defined(row, col) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", cm.At(row, col))
}
