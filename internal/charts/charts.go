// Package charts renders the report charts as PNG images.
package charts

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"expensetracker/internal/core"
	"expensetracker/internal/listing"
)

// ErrNoData is returned when there is nothing to draw.
var ErrNoData = errors.New("charts: no data")

var barColor = drawing.ColorFromHex("4f46e5")

type Generator struct {
	Width  int
	Height int
}

func NewGenerator() *Generator {
	return &Generator{Width: 800, Height: 400}
}

func moneyFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("$%.0f", f)
	}
	return ""
}

// yRange returns a non-degenerate range starting at zero.
func yRange(values []float64) *chart.ContinuousRange {
	top := 0.0
	for _, v := range values {
		top = math.Max(top, v)
	}
	if top <= 0 {
		top = 1
	}
	return &chart.ContinuousRange{Min: 0, Max: top * 1.1}
}

// CategoryBars draws one bar per category.
func (g *Generator) CategoryBars(title string, labels []string, values []core.Amount) ([]byte, error) {
	if len(labels) == 0 || len(labels) != len(values) {
		return nil, ErrNoData
	}

	floats := make([]float64, len(values))
	bars := make([]chart.Value, len(values))
	for i, v := range values {
		floats[i] = v.Float()
		bars[i] = chart.Value{
			Label: labels[i],
			Value: floats[i],
			Style: chart.Style{
				FillColor:   barColor,
				StrokeColor: barColor,
			},
		}
	}

	graph := chart.BarChart{
		Title:    title,
		Width:    g.Width,
		Height:   g.Height,
		BarWidth: 40,
		Background: chart.Style{
			Padding:   chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
			FillColor: chart.ColorWhite,
		},
		YAxis: chart.YAxis{
			ValueFormatter: moneyFormatter,
			Range:          yRange(floats),
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render category chart: %w", err)
	}
	return buf.Bytes(), nil
}

// Trend draws monthly spending as a line from January onwards.
func (g *Generator) Trend(title string, points []core.TrendPoint) ([]byte, error) {
	switch len(points) {
	case 0:
		return nil, ErrNoData
	case 1:
		// A line series needs two values; January is drawn as one bar.
		p := points[0]
		return g.CategoryBars(title, []string{shortMonth(p.Month)}, []core.Amount{p.Amount})
	}

	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	ticks := make([]chart.Tick, len(points))
	for i, p := range points {
		xs[i] = float64(p.Month)
		ys[i] = p.Amount.Float()
		ticks[i] = chart.Tick{Value: xs[i], Label: shortMonth(p.Month)}
	}

	graph := chart.Chart{
		Title:  title,
		Width:  g.Width,
		Height: g.Height,
		Background: chart.Style{
			Padding:   chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
			FillColor: chart.ColorWhite,
		},
		XAxis: chart.XAxis{
			Range: &chart.ContinuousRange{Min: xs[0], Max: xs[len(xs)-1]},
			Ticks: ticks,
		},
		YAxis: chart.YAxis{
			ValueFormatter: moneyFormatter,
			Range:          yRange(ys),
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Spending",
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: barColor,
					StrokeWidth: 2,
					DotColor:    barColor,
					DotWidth:    3,
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render trend chart: %w", err)
	}
	return buf.Bytes(), nil
}

func shortMonth(month int) string {
	name := listing.MonthName(month)
	if len(name) > 3 {
		return name[:3]
	}
	return name
}
