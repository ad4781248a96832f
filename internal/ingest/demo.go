package ingest

import "eurotrends/internal/models"

var (
	demoCountries  = []string{"Germany", "Hungary", "Poland", "India"}
	demoRoles      = []string{"DevOps Engineer", "Site Reliability Engineer", "Platform Engineer", "Cloud Engineer"}
	demoTeamSetups = []string{"On-site", "Hybrid", "Remote"}

	demoBase = map[string]float64{
		"Germany": 70000,
		"Hungary": 45000,
		"Poland":  50000,
		"India":   25000,
	}
	demoRoleMultiplier = map[string]float64{
		"DevOps Engineer":           1.0,
		"Site Reliability Engineer": 1.15,
		"Platform Engineer":         1.20,
		"Cloud Engineer":            1.10,
	}
)

// DemoObservations builds the fixed demonstration dataset: every country x
// role x team setup combination, salary_min at 85% and salary_max at 115% of
// the average.
func DemoObservations() []models.Observation {
	out := make([]models.Observation, 0, len(demoCountries)*len(demoRoles)*len(demoTeamSetups))
	for _, country := range demoCountries {
		for _, role := range demoRoles {
			avg := demoBase[country] * demoRoleMultiplier[role]
			for _, setup := range demoTeamSetups {
				out = append(out, models.Observation{
					Role:      role,
					Country:   country,
					TeamSetup: setup,
					SalaryMin: avg * 0.85,
					SalaryMax: avg * 1.15,
					SalaryAvg: avg,
				})
			}
		}
	}
	return out
}
