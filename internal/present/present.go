// Package present shapes engine results into the rows the dashboard renders.
// Currency values are rounded to cents here and nowhere else.
package present

import (
	"fmt"

	"github.com/shopspring/decimal"

	"eurotrends/internal/models"
)

// Round rounds a currency value to two decimal places, half away from zero.
func Round(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Row is a loosely keyed record. Group rows are keyed by their dimension name.
type Row map[string]any

// GroupRows maps summaries to {<dimension>, avg_salary, min_salary, max_salary, count}.
func GroupRows(dim models.Dimension, groups []models.GroupSummary) []Row {
	out := make([]Row, len(groups))
	for i, g := range groups {
		out[i] = Row{
			string(dim):  g.Key,
			"avg_salary": Round(g.Avg),
			"min_salary": Round(g.Min),
			"max_salary": Round(g.Max),
			"count":      g.Count,
		}
	}
	return out
}

// ForecastRow is one chart point.
type ForecastRow struct {
	Year            int     `json:"year"`
	PredictedSalary float64 `json:"predicted_salary"`
	LowerBound      float64 `json:"lower_bound"`
	UpperBound      float64 `json:"upper_bound"`
}

// ForecastRows rounds forecast points for display.
func ForecastRows(points []models.ForecastPoint) []ForecastRow {
	out := make([]ForecastRow, len(points))
	for i, p := range points {
		out[i] = ForecastRow{
			Year:            p.Year,
			PredictedSalary: Round(p.Predicted),
			LowerBound:      Round(p.LowerBound),
			UpperBound:      Round(p.UpperBound),
		}
	}
	return out
}

// GrowthView is a rounded GrowthSummary.
type GrowthView struct {
	OverallGrowth   float64 `json:"overall_growth"`
	AvgAnnualGrowth float64 `json:"avg_annual_growth"`
	Start           float64 `json:"start"`
	End             float64 `json:"end"`
	MinEnd          float64 `json:"min_end"`
	MaxEnd          float64 `json:"max_end"`
}

// Growth rounds a growth summary.
func Growth(g models.GrowthSummary) GrowthView {
	return GrowthView{
		OverallGrowth:   Round(g.OverallPct),
		AvgAnnualGrowth: Round(g.AvgAnnualPct),
		Start:           Round(g.StartPredicted),
		End:             Round(g.EndPredicted),
		MinEnd:          Round(g.MinEnd),
		MaxEnd:          Round(g.MaxEnd),
	}
}

// LegacyRecords flattens forecasts into {Country, Role_Name, Year_YYYY...}
// records, one per country x role pair.
func LegacyRecords(forecasts []models.Forecast) []Row {
	out := make([]Row, len(forecasts))
	for i, fc := range forecasts {
		r := Row{"Country": fc.Country, "Role_Name": fc.Role}
		for _, p := range fc.Points {
			r[fmt.Sprintf("Year_%d", p.Year)] = Round(p.Predicted)
		}
		out[i] = r
	}
	return out
}

// Card is the headline block above the dashboard.
type Card struct {
	Showing   int     `json:"showing"`
	Total     int     `json:"total"`
	Message   string  `json:"message"`
	AvgSalary float64 `json:"avg_salary"`
	Median    float64 `json:"median_salary"`
	MinSalary float64 `json:"min_salary"`
	MaxSalary float64 `json:"max_salary"`
	Std       float64 `json:"std"`
	Countries int     `json:"countries"`
	Roles     int     `json:"roles"`
}

// Overview builds the headline card for a filtered subset.
func Overview(stats models.Stats, total, countries, roles int) Card {
	return Card{
		Showing:   stats.Count,
		Total:     total,
		Message:   fmt.Sprintf("Showing %d of %d records", stats.Count, total),
		AvgSalary: Round(stats.Avg),
		Median:    Round(stats.Median),
		MinSalary: Round(stats.Min),
		MaxSalary: Round(stats.Max),
		Std:       Round(stats.Std),
		Countries: countries,
		Roles:     roles,
	}
}

// Heatmap rounds matrix cells.
func Heatmap(cells []models.MatrixCell) []models.MatrixCell {
	out := make([]models.MatrixCell, len(cells))
	for i, c := range cells {
		c.Avg = Round(c.Avg)
		out[i] = c
	}
	return out
}
