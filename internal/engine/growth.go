package engine

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// GrowthModel yields an annual growth rate (0.05 = 5%) for a country/role
// pair. Empty strings mean the selection spans several values.
type GrowthModel interface {
	AnnualRate(country, role string) float64
}

// FixedRate applies the same rate everywhere.
type FixedRate float64

// AnnualRate implements GrowthModel.
func (r FixedRate) AnnualRate(string, string) float64 { return float64(r) }

// GrowthProfile derives rates from per-country economic factors and per-role
// demand multipliers: rate = sum(country factors) * role multiplier.
type GrowthProfile struct {
	Default   map[string]float64            `yaml:"default"`
	Countries map[string]map[string]float64 `yaml:"countries"`
	Roles     map[string]float64            `yaml:"roles"`
}

// AnnualRate implements GrowthModel.
func (p *GrowthProfile) AnnualRate(country, role string) float64 {
	factors, ok := p.Countries[country]
	if !ok {
		factors = p.Default
	}
	rate := sumSorted(factors)
	if m, ok := p.Roles[role]; ok {
		rate *= m
	}
	return rate
}

// sumSorted adds map values in key order so the result does not depend on map
// iteration order.
func sumSorted(m map[string]float64) float64 {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var total float64
	for _, k := range keys {
		total += m[k]
	}
	return total
}

// DefaultGrowthProfile returns the built-in market factors.
func DefaultGrowthProfile() *GrowthProfile {
	return &GrowthProfile{
		Default: map[string]float64{
			"inflation":       0.035,
			"demand_growth":   0.030,
			"market_maturity": 0.025,
			"tech_adoption":   0.030,
		},
		Countries: map[string]map[string]float64{
			"Germany": {"inflation": 0.031, "demand_growth": 0.025, "market_maturity": 0.015, "tech_adoption": 0.02},
			"Hungary": {"inflation": 0.040, "demand_growth": 0.035, "market_maturity": 0.025, "tech_adoption": 0.03},
			"Poland":  {"inflation": 0.032, "demand_growth": 0.030, "market_maturity": 0.028, "tech_adoption": 0.025},
			"India":   {"inflation": 0.055, "demand_growth": 0.065, "market_maturity": 0.045, "tech_adoption": 0.055},
		},
		Roles: map[string]float64{
			"DevOps Engineer":           1.0,
			"Site Reliability Engineer": 1.15,
			"Platform Engineer":         1.20,
			"Cloud Engineer":            1.10,
			"Infrastructure Engineer":   0.95,
			"DevSecOps Engineer":        1.25,
			"Automation Engineer":       1.05,
			"Release Engineer":          0.90,
			"Systems Engineer":          0.85,
		},
	}
}

// LoadGrowthProfile reads a YAML profile. An empty path returns the default
// profile. Sections missing from the file keep their defaults.
func LoadGrowthProfile(path string) (*GrowthProfile, error) {
	profile := DefaultGrowthProfile()
	if path == "" {
		return profile, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read growth profile: %w", err)
	}
	var parsed GrowthProfile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse growth profile: %w", err)
	}
	if parsed.Default != nil {
		profile.Default = parsed.Default
	}
	if parsed.Countries != nil {
		profile.Countries = parsed.Countries
	}
	if parsed.Roles != nil {
		profile.Roles = parsed.Roles
	}
	return profile, nil
}
