package models

import "time"

// Observation is one salary record.
type Observation struct {
	Role            string  `json:"role" validate:"required,nonblank"`
	Country         string  `json:"country" validate:"required,nonblank"`
	TeamSetup       string  `json:"team_setup" validate:"required,nonblank"`
	SalaryMin       float64 `json:"salary_min" validate:"finite,gte=0"`
	SalaryMax       float64 `json:"salary_max" validate:"finite,gte=0,gtefield=SalaryAvg"`
	SalaryAvg       float64 `json:"salary_avg" validate:"finite,gte=0,gtefield=SalaryMin"`
	Skills          string  `json:"skills,omitempty"`
	ExperienceLevel string  `json:"experience_level,omitempty"`
	YearsExperience float64 `json:"years_experience,omitempty" validate:"gte=0"`
	Year            int     `json:"year,omitempty" validate:"gte=0,lte=9999"`
}

// Dimension names a categorical column of an Observation.
type Dimension string

const (
	DimCountry   Dimension = "country"
	DimRole      Dimension = "role"
	DimTeamSetup Dimension = "team_setup"
)

// Dimensions lists every groupable dimension.
var Dimensions = []Dimension{DimCountry, DimRole, DimTeamSetup}

// ParseDimension maps a query value onto a Dimension.
func ParseDimension(s string) (Dimension, bool) {
	for _, d := range Dimensions {
		if string(d) == s {
			return d, true
		}
	}
	return "", false
}

// FilterSelection holds the include-sets per dimension. An empty set places no
// restriction on its dimension.
type FilterSelection struct {
	Countries  []string `json:"countries"`
	Roles      []string `json:"roles"`
	TeamSetups []string `json:"team_setups"`
}

// IsEmpty reports whether no dimension is restricted.
func (f FilterSelection) IsEmpty() bool {
	return len(f.Countries) == 0 && len(f.Roles) == 0 && len(f.TeamSetups) == 0
}

// Values returns the include-set for a dimension.
func (f FilterSelection) Values(dim Dimension) []string {
	switch dim {
	case DimCountry:
		return f.Countries
	case DimRole:
		return f.Roles
	case DimTeamSetup:
		return f.TeamSetups
	}
	return nil
}

// GroupSummary aggregates salary_avg for one value of a dimension.
type GroupSummary struct {
	Key   string  `json:"key"`
	Count int     `json:"count"`
	Avg   float64 `json:"avg"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// Stats extends GroupSummary with distribution figures.
type Stats struct {
	Count  int     `json:"count"`
	Avg    float64 `json:"avg"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
	Std    float64 `json:"std"`
}

// DatasetSummary describes the whole loaded dataset.
type DatasetSummary struct {
	DatasetID    string    `json:"dataset_id"`
	Fingerprint  string    `json:"fingerprint"`
	Source       string    `json:"source"`
	LoadedAt     time.Time `json:"loaded_at"`
	TotalRecords int       `json:"total_records"`
	Countries    []string  `json:"countries"`
	Roles        []string  `json:"roles"`
	TeamSetups   []string  `json:"team_setups"`
	SalaryStats  Stats     `json:"salary_stats"`
}

// ForecastPoint is one projected year. Bounds are a symmetric percentage band
// around Predicted, not a statistical confidence interval.
type ForecastPoint struct {
	Year       int     `json:"year"`
	Predicted  float64 `json:"predicted"`
	LowerBound float64 `json:"lower_bound"`
	UpperBound float64 `json:"upper_bound"`
}

// Forecast is a projection together with how it was produced.
type Forecast struct {
	Country  string          `json:"country,omitempty"`
	Role     string          `json:"role,omitempty"`
	Method   string          `json:"method"`
	Baseline float64         `json:"baseline"`
	Rate     float64         `json:"rate"`
	Points   []ForecastPoint `json:"points"`
}

// GrowthSummary compares the first and last projected year.
type GrowthSummary struct {
	OverallPct     float64 `json:"overall_growth"`
	AvgAnnualPct   float64 `json:"avg_annual_growth"`
	StartPredicted float64 `json:"start"`
	EndPredicted   float64 `json:"end"`
	// MinEnd and MaxEnd are the extremes of the final-year predictions when
	// several forecasts are summarised together.
	MinEnd float64 `json:"min_end"`
	MaxEnd float64 `json:"max_end"`
}

// MatrixCell is one country x role intersection.
type MatrixCell struct {
	Country string  `json:"country"`
	Role    string  `json:"role"`
	Count   int     `json:"count"`
	Avg     float64 `json:"avg"`
}

// YearlyAverage is the mean salary_avg of the rows observed in one year.
type YearlyAverage struct {
	Year  int     `json:"year"`
	Count int     `json:"count"`
	Avg   float64 `json:"avg"`
}
