package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Address != ":8080" || cfg.Server.GracefulTimeout != 10*time.Second {
		t.Errorf("Unexpected server config %+v", cfg.Server)
	}
	if cfg.Forecast.BandPct != 0.10 || cfg.Forecast.DefaultHorizon != 6 || cfg.Forecast.GrowthRate != nil {
		t.Errorf("Unexpected forecast config %+v", cfg.Forecast)
	}
	if cfg.Aggregate.TopRoles != 10 {
		t.Errorf("Expected top roles 10, got %d", cfg.Aggregate.TopRoles)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
server:
  address: ":9090"
forecast:
  band_pct: 0.2
  growth_rate: 0.04
logging:
  level: debug
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SALARY_SERVER_ADDRESS", ":7070")
	t.Setenv("SALARY_AGGREGATE_TOP_ROLES", "5")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Address != ":7070" {
		t.Errorf("Expected env to win, got %s", cfg.Server.Address)
	}
	if cfg.Forecast.BandPct != 0.2 || cfg.Logging.Level != "debug" {
		t.Errorf("Expected file values, got %+v %+v", cfg.Forecast, cfg.Logging)
	}
	if cfg.Forecast.GrowthRate == nil || *cfg.Forecast.GrowthRate != 0.04 {
		t.Errorf("Expected growth rate 0.04, got %v", cfg.Forecast.GrowthRate)
	}
	if cfg.Aggregate.TopRoles != 5 {
		t.Errorf("Expected top roles 5, got %d", cfg.Aggregate.TopRoles)
	}
}

func TestLoadRejectsBadBand(t *testing.T) {
	t.Setenv("SALARY_FORECAST_BAND_PCT", "1.5")
	if _, err := Load(""); err == nil {
		t.Error("Expected band 1.5 to be rejected")
	}
}

func TestLoadRejectsCollapsingGrowthRate(t *testing.T) {
	for _, rate := range []string{"-1", "-1.5"} {
		t.Setenv("SALARY_FORECAST_GROWTH_RATE", rate)
		if _, err := Load(""); err == nil {
			t.Errorf("Expected growth rate %s to be rejected", rate)
		}
	}
}
