// Package charts renders the summary aggregates as PNG images using
// go-chart: a pie of expense totals by category and an income vs expense
// series over the monthly window.
package charts

import (
	"bytes"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/youserz/finance-tracker/internal/core"
)

// Renderer turns ledger aggregates into chart images.
type Renderer struct{}

// NewRenderer creates a chart renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// CategoryPie renders a pie chart of expense totals by category. It
// returns nil bytes when there is nothing to draw.
func (r *Renderer) CategoryPie(totals []core.CategoryTotal) ([]byte, error) {
	values := make([]chart.Value, 0, len(totals))
	var sum float64
	for _, ct := range totals {
		sum += ct.Total
	}
	for _, ct := range totals {
		if ct.Total <= 0 {
			continue
		}
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s: %.2f (%.1f%%)", ct.Category, ct.Total, ct.Total/sum*100),
			Value: ct.Total,
		})
	}
	if len(values) == 0 {
		return nil, nil
	}

	pie := chart.PieChart{
		Width:  800,
		Height: 600,
		Values: values,
		Background: chart.Style{
			Padding: chart.Box{
				Top:    30,
				Left:   30,
				Right:  30,
				Bottom: 30,
			},
			FillColor: chart.ColorWhite,
		},
	}

	var buf bytes.Buffer
	if err := pie.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render category pie: %w", err)
	}

	return buf.Bytes(), nil
}

// MonthlyFlows renders income and expense totals per month as two time
// series. At least two months of data are needed to draw a line; with
// fewer it returns nil bytes.
func (r *Renderer) MonthlyFlows(flows []core.MonthlyFlow) ([]byte, error) {
	if len(flows) < 2 {
		return nil, nil
	}

	xValues := make([]time.Time, len(flows))
	incomeValues := make([]float64, len(flows))
	expenseValues := make([]float64, len(flows))
	for i, f := range flows {
		month, err := time.Parse("2006-01", f.Month)
		if err != nil {
			return nil, fmt.Errorf("parse month %q: %w", f.Month, err)
		}
		xValues[i] = month
		incomeValues[i] = f.Income
		expenseValues[i] = f.Expense
	}

	graph := chart.Chart{
		Width:  800,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{
				Top:    30,
				Left:   30,
				Right:  30,
				Bottom: 30,
			},
			FillColor: chart.ColorWhite,
		},
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatterWithFormat("2006-01"),
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%.0f", v.(float64))
			},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Entradas",
				XValues: xValues,
				YValues: incomeValues,
				Style: chart.Style{
					StrokeColor: chart.ColorGreen,
					StrokeWidth: 2,
				},
			},
			chart.TimeSeries{
				Name:    "Saídas",
				XValues: xValues,
				YValues: expenseValues,
				Style: chart.Style{
					StrokeColor: chart.ColorRed,
					StrokeWidth: 2,
				},
			},
		},
	}
	graph.Elements = []chart.Renderable{
		chart.Legend(&graph),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render monthly flows: %w", err)
	}

	return buf.Bytes(), nil
}
