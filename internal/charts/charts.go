// Package charts renders summary data as PNG images.
package charts

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dvloznov/expense-explorer/internal/analytics"
	"github.com/wcharczuk/go-chart/v2"
)

// ErrNoData means the summary has nothing to plot.
var ErrNoData = errors.New("charts: no data to render")

const (
	width  = 1200
	height = 600
	// minShare folds smaller categories into one pie slice.
	minShare = 1.0
)

var background = chart.Style{
	Padding: chart.Box{
		Top:    50,
		Left:   50,
		Right:  50,
		Bottom: 50,
	},
	FillColor: chart.ColorWhite,
}

var axisStyle = chart.Style{
	FontSize:  12,
	FontColor: chart.ColorBlack,
}

// MonthlyTrend plots regular spend and income per month.
func MonthlyTrend(s analytics.Summary) ([]byte, error) {
	if len(s.MonthlyTrends) == 0 {
		return nil, ErrNoData
	}

	var (
		xValues []time.Time
		regular []float64
		income  []float64
	)
	top := 0.0
	for _, m := range s.MonthlyTrends {
		month, err := time.Parse("2006-01", m.Month)
		if err != nil {
			return nil, fmt.Errorf("MonthlyTrend: parse month %q: %w", m.Month, err)
		}
		xValues = append(xValues, month)
		regular = append(regular, m.RegularAmount)
		income = append(income, m.IncomeAmount)
		top = max(top, m.RegularAmount, m.IncomeAmount)
	}
	// a lone month has no x range; anchor it to an empty previous month
	if len(xValues) == 1 {
		xValues = append([]time.Time{xValues[0].AddDate(0, -1, 0)}, xValues...)
		regular = append([]float64{0}, regular...)
		income = append([]float64{0}, income...)
	}
	if top <= 0 {
		top = 1
	}

	graph := chart.Chart{
		Title:      "Monthly spending",
		Width:      width,
		Height:     height,
		Background: background,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatterWithFormat("Jan 2006"),
			Style:          axisStyle,
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: top * 1.1},
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("$%.0f", v.(float64))
			},
			Style: axisStyle,
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Spending",
				XValues: xValues,
				YValues: regular,
				Style: chart.Style{
					StrokeColor: chart.ColorRed,
					StrokeWidth: 2,
				},
			},
			chart.TimeSeries{
				Name:    "Income",
				XValues: xValues,
				YValues: income,
				Style: chart.Style{
					StrokeColor:     chart.ColorGreen,
					StrokeWidth:     2,
					StrokeDashArray: []float64{5.0, 5.0},
				},
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph, axisStyle)}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("MonthlyTrend: render: %w", err)
	}
	return buffer.Bytes(), nil
}

// CategoryBreakdown draws the category split of qualifying spend as a pie.
func CategoryBreakdown(s analytics.Summary) ([]byte, error) {
	if len(s.CategoryBreakdown) == 0 || s.TotalAmount <= 0 {
		return nil, ErrNoData
	}

	values := pieValues(s.CategoryBreakdown, s.TotalAmount)
	pie := chart.PieChart{
		Title:      "Spending by category",
		Width:      width,
		Height:     height,
		Values:     values,
		Background: background,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := pie.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("CategoryBreakdown: render: %w", err)
	}
	return buffer.Bytes(), nil
}

func pieValues(breakdown map[string]float64, total float64) []chart.Value {
	names := make([]string, 0, len(breakdown))
	for name := range breakdown {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if breakdown[names[i]] != breakdown[names[j]] {
			return breakdown[names[i]] > breakdown[names[j]]
		}
		return names[i] < names[j]
	})

	values := make([]chart.Value, 0, len(names))
	rest := 0.0
	for _, name := range names {
		amount := breakdown[name]
		share := amount / total * 100
		if share < minShare {
			rest += amount
			continue
		}
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s: $%.0f (%.1f%%)", name, amount, share),
			Value: amount,
			Style: axisStyle,
		})
	}
	if rest > 0 {
		values = append(values, chart.Value{
			Label: fmt.Sprintf("Smaller categories: $%.0f", rest),
			Value: rest,
			Style: axisStyle,
		})
	}
	return values
}
