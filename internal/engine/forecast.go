package engine

import (
	"fmt"
	"math"
	"sort"

	"eurotrends/internal/models"
)

const (
	MethodLinearTrend    = "linear_trend"
	MethodCompoundGrowth = "compound_growth"

	DefaultBandPct    = 0.10
	DefaultBaseYear   = 2025
	DefaultHorizon    = 6
	DefaultMaxHorizon = 30
)

// Series is the input handed to a forecast Method.
type Series struct {
	Country  string
	Role     string
	Baseline float64 // mean salary_avg of the selection
	History  []models.YearlyAverage
}

// Projection is a Method's raw output, one value per year.
type Projection struct {
	Years  []int
	Values []float64
	Rate   float64
}

// Method is a pluggable projection strategy. The Forecaster uses the first
// applicable method in its list.
type Method interface {
	Name() string
	Applicable(s Series) bool
	Project(s Series, horizon int) Projection
}

// LinearTrend fits ordinary least squares over the per-year averages and
// extrapolates from the year after the last observed one.
type LinearTrend struct {
	MinYears int
}

func (LinearTrend) Name() string { return MethodLinearTrend }

func (m LinearTrend) Applicable(s Series) bool {
	return len(s.History) >= max(m.MinYears, 2)
}

func (LinearTrend) Project(s Series, horizon int) Projection {
	n := float64(len(s.History))
	var mx, my float64
	for _, p := range s.History {
		mx += float64(p.Year)
		my += p.Avg
	}
	mx /= n
	my /= n

	var sxy, sxx float64
	for _, p := range s.History {
		dx := float64(p.Year) - mx
		sxy += dx * (p.Avg - my)
		sxx += dx * dx
	}
	var slope float64
	if sxx > 0 {
		slope = sxy / sxx
	}
	intercept := my - slope*mx

	last := s.History[len(s.History)-1].Year
	proj := Projection{Years: make([]int, horizon), Values: make([]float64, horizon)}
	for i := 0; i < horizon; i++ {
		year := last + 1 + i
		proj.Years[i] = year
		proj.Values[i] = intercept + slope*float64(year)
	}
	if my != 0 {
		proj.Rate = slope / my
	}
	return proj
}

// CompoundGrowth treats the baseline as the BaseYear value and compounds an
// annual rate for each following year.
type CompoundGrowth struct {
	BaseYear int
	Growth   GrowthModel
}

func (CompoundGrowth) Name() string { return MethodCompoundGrowth }

func (CompoundGrowth) Applicable(Series) bool { return true }

func (m CompoundGrowth) Project(s Series, horizon int) Projection {
	var rate float64
	if m.Growth != nil {
		rate = m.Growth.AnnualRate(s.Country, s.Role)
	}
	base := m.BaseYear
	if base == 0 {
		base = DefaultBaseYear
	}

	proj := Projection{Years: make([]int, horizon), Values: make([]float64, horizon), Rate: rate}
	for i := 0; i < horizon; i++ {
		proj.Years[i] = base + i
		proj.Values[i] = s.Baseline * math.Pow(1+rate, float64(i))
	}
	return proj
}

// Forecaster projects salaries for a subset. It holds no per-call state.
type Forecaster struct {
	methods    []Method
	bandPct    float64
	maxHorizon int
}

// ForecastOption configures a Forecaster.
type ForecastOption func(*Forecaster)

// WithBandPct sets the half-width of the bound band as a fraction of the
// predicted value.
func WithBandPct(p float64) ForecastOption {
	return func(f *Forecaster) { f.bandPct = p }
}

// WithMaxHorizon caps the number of projected years.
func WithMaxHorizon(n int) ForecastOption {
	return func(f *Forecaster) { f.maxHorizon = n }
}

// WithMethods replaces the method list, in priority order.
func WithMethods(methods ...Method) ForecastOption {
	return func(f *Forecaster) { f.methods = methods }
}

// NewForecaster builds a Forecaster. Defaults: trend when two or more
// observation years exist, otherwise compound growth from the default profile,
// with a 10% band.
func NewForecaster(opts ...ForecastOption) (*Forecaster, error) {
	f := &Forecaster{
		bandPct:    DefaultBandPct,
		maxHorizon: DefaultMaxHorizon,
		methods: []Method{
			LinearTrend{MinYears: 2},
			CompoundGrowth{BaseYear: DefaultBaseYear, Growth: DefaultGrowthProfile()},
		},
	}
	for _, opt := range opts {
		opt(f)
	}

	if math.IsNaN(f.bandPct) || f.bandPct < 0 || f.bandPct >= 1 {
		return nil, fmt.Errorf("band pct %v outside [0, 1)", f.bandPct)
	}
	if f.maxHorizon < 1 {
		return nil, fmt.Errorf("max horizon %d must be positive", f.maxHorizon)
	}
	if len(f.methods) == 0 {
		return nil, fmt.Errorf("no forecast methods configured")
	}
	return f, nil
}

// BandPct returns the configured band half-width.
func (f *Forecaster) BandPct() float64 { return f.bandPct }

// Project forecasts horizon years for the rows of sub matching the hints.
// Empty hints do not restrict. A selection with no rows fails with
// *NoDataError; there is no fallback to a wider selection.
func (f *Forecaster) Project(sub Subset, horizon int, country, role string) (models.Forecast, error) {
	if horizon < 1 || horizon > f.maxHorizon {
		return models.Forecast{}, fmt.Errorf("%w: %d not in [1, %d]", ErrInvalidHorizon, horizon, f.maxHorizon)
	}
	if sub.Len() == 0 {
		return models.Forecast{}, &NoDataError{Country: country, Role: role}
	}

	sel := sub.Where(country, role)
	if sel.Len() == 0 {
		return models.Forecast{}, &NoDataError{Country: country, Role: role}
	}

	// A selection that holds a single country or role forecasts with its rate.
	if country == "" {
		country = soleValue(sel, models.DimCountry)
	}
	if role == "" {
		role = soleValue(sel, models.DimRole)
	}

	series := Series{
		Country:  country,
		Role:     role,
		Baseline: meanAvg(sel),
		History:  YearlyAverages(sel),
	}

	method := f.methods[len(f.methods)-1]
	for _, m := range f.methods {
		if m.Applicable(series) {
			method = m
			break
		}
	}
	proj := method.Project(series, horizon)

	points := make([]models.ForecastPoint, len(proj.Values))
	for i, v := range proj.Values {
		points[i] = f.band(proj.Years[i], v)
	}

	return models.Forecast{
		Country:  country,
		Role:     role,
		Method:   method.Name(),
		Baseline: series.Baseline,
		Rate:     proj.Rate,
		Points:   points,
	}, nil
}

// band derives the symmetric bounds. Negative predictions clamp to zero.
func (f *Forecaster) band(year int, predicted float64) models.ForecastPoint {
	if predicted < 0 || math.IsNaN(predicted) {
		predicted = 0
	}
	return models.ForecastPoint{
		Year:       year,
		Predicted:  predicted,
		LowerBound: predicted * (1 - f.bandPct),
		UpperBound: predicted * (1 + f.bandPct),
	}
}

// ProjectAll forecasts every country x role pair present in sub, ordered by
// country then role.
func (f *Forecaster) ProjectAll(sub Subset, horizon int) ([]models.Forecast, error) {
	if sub.Len() == 0 {
		return nil, &NoDataError{}
	}

	cells := Matrix(sub)
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Country != cells[j].Country {
			return cells[i].Country < cells[j].Country
		}
		return cells[i].Role < cells[j].Role
	})

	out := make([]models.Forecast, 0, len(cells))
	for _, c := range cells {
		fc, err := f.Project(sub, horizon, c.Country, c.Role)
		if err != nil {
			return nil, fmt.Errorf("forecast %s/%s: %w", c.Country, c.Role, err)
		}
		out = append(out, fc)
	}
	return out, nil
}

// Growth compares the first and last projected values.
func Growth(points []models.ForecastPoint) models.GrowthSummary {
	if len(points) == 0 {
		return models.GrowthSummary{}
	}
	end := points[len(points)-1].Predicted
	return growthBetween(points[0].Predicted, end, len(points)-1, end, end)
}

// GrowthAcross summarises several forecasts of equal horizon: growth between
// the mean first-year and mean final-year predictions, plus the lowest and
// highest final-year prediction.
func GrowthAcross(forecasts []models.Forecast) models.GrowthSummary {
	var (
		startSum, endSum float64
		lo, hi           float64
		n, steps         int
	)
	for _, fc := range forecasts {
		if len(fc.Points) == 0 {
			continue
		}
		end := fc.Points[len(fc.Points)-1].Predicted
		if n == 0 || end < lo {
			lo = end
		}
		if n == 0 || end > hi {
			hi = end
		}
		startSum += fc.Points[0].Predicted
		endSum += end
		steps = len(fc.Points) - 1
		n++
	}
	if n == 0 {
		return models.GrowthSummary{}
	}
	return growthBetween(startSum/float64(n), endSum/float64(n), steps, lo, hi)
}

func growthBetween(start, end float64, steps int, lo, hi float64) models.GrowthSummary {
	g := models.GrowthSummary{
		StartPredicted: start,
		EndPredicted:   end,
		MinEnd:         lo,
		MaxEnd:         hi,
	}
	if start != 0 {
		g.OverallPct = (end - start) / start * 100
	}
	if steps > 0 {
		g.AvgAnnualPct = g.OverallPct / float64(steps)
	}
	return g
}

func meanAvg(sub Subset) float64 {
	if sub.Len() == 0 {
		return 0
	}
	var sum float64
	for _, r := range sub.idx {
		sum += sub.ds.cols.SalaryAvgs[r]
	}
	return sum / float64(sub.Len())
}

// soleValue returns the dimension value shared by every row, or "".
func soleValue(sub Subset, dim models.Dimension) string {
	ids, dict, err := sub.ds.cols.ids(dim)
	if err != nil || sub.Len() == 0 {
		return ""
	}
	first := ids[sub.idx[0]]
	for _, r := range sub.idx[1:] {
		if ids[r] != first {
			return ""
		}
	}
	return dict[first]
}
