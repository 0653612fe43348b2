// Package chart renders a category summary as a static PNG bar chart.
package chart

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"github.com/couchcryptid/emissions-dashboard/internal/domain"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

const (
	width  = 10 * vg.Inch
	height = 6 * vg.Inch
)

var (
	barColor   = color.RGBA{R: 70, G: 130, B: 180, A: 255}
	otherColor = color.RGBA{R: 160, G: 160, B: 160, A: 255}
)

// RenderSummary writes summary as a PNG bar chart to w. An empty summary
// still produces an image carrying only the title.
func RenderSummary(w io.Writer, summary domain.CategorySummary) error {
	p := plot.New()
	p.Title.Text = summary.Title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.Y.Label.Text = "Emissions (Tons)"

	if len(summary.Slices) == 0 {
		p.X.Min, p.X.Max = 0, 1
		p.Y.Min, p.Y.Max = 0, 1
		p.HideX()
	} else if err := addBars(p, summary.Slices); err != nil {
		return err
	}

	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write chart: %w", err)
	}
	return nil
}

func addBars(p *plot.Plot, slices []domain.CategoryAggregate) error {
	significant := make(plotter.Values, len(slices))
	other := make(plotter.Values, len(slices))
	labels := make([]string, len(slices))
	maxValue := 0.0

	for i, s := range slices {
		if s.Label == domain.OtherLabel {
			other[i] = s.Value
		} else {
			significant[i] = s.Value
		}
		labels[i] = s.Label
		maxValue = math.Max(maxValue, s.Value)
	}

	for _, series := range []struct {
		values plotter.Values
		color  color.Color
	}{
		{significant, barColor},
		{other, otherColor},
	} {
		bars, err := plotter.NewBarChart(series.values, vg.Points(30))
		if err != nil {
			return fmt.Errorf("build bars: %w", err)
		}
		bars.Color = series.color
		bars.LineStyle.Width = vg.Length(0)
		p.Add(bars)
	}

	p.NominalX(labels...)
	p.X.Tick.Label.Rotation = math.Pi / 6
	p.X.Tick.Label.YAlign = draw.YCenter
	p.X.Tick.Label.XAlign = draw.XRight

	p.Y.Min = 0
	if maxValue > 0 {
		p.Y.Max = maxValue * 1.15
	} else {
		p.Y.Max = 1
	}

	for i, s := range slices {
		if s.Value <= 0 {
			continue
		}
		label, err := plotter.NewLabels(plotter.XYLabels{
			XYs:    []plotter.XY{{X: float64(i), Y: s.Value + maxValue*0.02}},
			Labels: []string{fmt.Sprintf("%.2f", s.Value)},
		})
		if err != nil {
			return fmt.Errorf("build labels: %w", err)
		}
		p.Add(label)
	}
	return nil
}
