// Package market holds per-country reference rows shown next to salary figures.
package market

// Economic is one country's macro indicators.
type Economic struct {
	Country           string  `json:"country"`
	InflationRate     float64 `json:"inflation_rate"`
	PPPAdjustment     float64 `json:"ppp_adjustment"`
	GDPGrowth         float64 `json:"gdp_growth"`
	CostOfLivingIndex float64 `json:"cost_of_living_index"`
}

// Legal is one country's labour and tax notes.
type Legal struct {
	Country            string `json:"country"`
	LaborLaws          string `json:"labor_laws"`
	TaxImplications    string `json:"tax_implications"`
	WorkforceSentiment string `json:"workforce_sentiment"`
}

// Context is the reference data set. It is read-only after construction.
type Context struct {
	economic []Economic
	legal    []Legal
}

// Default returns the built-in rows for Germany, Hungary, Poland and India.
func Default() *Context {
	return &Context{
		economic: []Economic{
			{Country: "Germany", InflationRate: 3.1, PPPAdjustment: 1.0, GDPGrowth: 1.5, CostOfLivingIndex: 110},
			{Country: "Hungary", InflationRate: 4.0, PPPAdjustment: 0.6, GDPGrowth: 2.5, CostOfLivingIndex: 70},
			{Country: "Poland", InflationRate: 3.2, PPPAdjustment: 0.65, GDPGrowth: 3.0, CostOfLivingIndex: 75},
			{Country: "India", InflationRate: 5.5, PPPAdjustment: 0.3, GDPGrowth: 6.5, CostOfLivingIndex: 45},
		},
		legal: []Legal{
			{Country: "Germany", LaborLaws: "Strong worker protection, comprehensive benefits", TaxImplications: "Progressive tax system (14-45%), social security contributions", WorkforceSentiment: "Positive"},
			{Country: "Hungary", LaborLaws: "EU-compliant labor regulations, flexible working arrangements", TaxImplications: "Flat 15% personal income tax, social contributions", WorkforceSentiment: "Neutral"},
			{Country: "Poland", LaborLaws: "EU standards, growing tech sector protections", TaxImplications: "Progressive tax (17-32%), social contributions", WorkforceSentiment: "Positive"},
			{Country: "India", LaborLaws: "Complex regulations, varying by state", TaxImplications: "Progressive tax (5-30%), allowances and deductions", WorkforceSentiment: "Very Positive"},
		},
	}
}

// Economic returns the rows for the given countries. No countries means all.
func (c *Context) Economic(countries []string) []Economic {
	return filter(c.economic, countries, func(e Economic) string { return e.Country })
}

// Legal returns the rows for the given countries. No countries means all.
func (c *Context) Legal(countries []string) []Legal {
	return filter(c.legal, countries, func(l Legal) string { return l.Country })
}

func filter[T any](rows []T, countries []string, country func(T) string) []T {
	if len(countries) == 0 {
		return append([]T(nil), rows...)
	}
	want := make(map[string]struct{}, len(countries))
	for _, c := range countries {
		want[c] = struct{}{}
	}
	out := make([]T, 0, len(countries))
	for _, r := range rows {
		if _, ok := want[country(r)]; ok {
			out = append(out, r)
		}
	}
	return out
}
