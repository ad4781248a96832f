// Package config loads service settings from defaults, an optional YAML file
// and SALARY_* environment variables, in increasing priority.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. SALARY_SERVER_ADDRESS.
const EnvPrefix = "SALARY"

type Server struct {
	Address         string        `mapstructure:"address"`
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

type Data struct {
	SeedCSV        string `mapstructure:"seed_csv"`
	DemoOnStart    bool   `mapstructure:"demo_on_start"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes"`
}

type Forecast struct {
	BandPct        float64  `mapstructure:"band_pct"`
	BaseYear       int      `mapstructure:"base_year"`
	DefaultHorizon int      `mapstructure:"default_horizon"`
	MaxHorizon     int      `mapstructure:"max_horizon"`
	GrowthRate     *float64 `mapstructure:"growth_rate"`
	ProfilePath    string   `mapstructure:"profile_path"`
}

type Aggregate struct {
	TopRoles int `mapstructure:"top_roles"`
}

type Logging struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

type Config struct {
	Server    Server    `mapstructure:"server"`
	Data      Data      `mapstructure:"data"`
	Forecast  Forecast  `mapstructure:"forecast"`
	Aggregate Aggregate `mapstructure:"aggregate"`
	Logging   Logging   `mapstructure:"logging"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.graceful_timeout", 10*time.Second)
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("data.seed_csv", "")
	v.SetDefault("data.demo_on_start", true)
	v.SetDefault("data.max_upload_bytes", 32<<20)

	v.SetDefault("forecast.band_pct", 0.10)
	v.SetDefault("forecast.base_year", 2025)
	v.SetDefault("forecast.default_horizon", 6)
	v.SetDefault("forecast.max_horizon", 30)
	v.SetDefault("forecast.profile_path", "")

	v.SetDefault("aggregate.top_roles", 10)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.json", false)
}

// Load reads the configuration. path may be empty.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// AutomaticEnv only covers keys viper already knows about.
	_ = v.BindEnv("forecast.growth_rate")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Forecast.BandPct < 0 || c.Forecast.BandPct >= 1:
		return fmt.Errorf("forecast.band_pct %v outside [0, 1)", c.Forecast.BandPct)
	case c.Forecast.MaxHorizon < 1:
		return fmt.Errorf("forecast.max_horizon must be positive")
	case c.Forecast.DefaultHorizon < 1 || c.Forecast.DefaultHorizon > c.Forecast.MaxHorizon:
		return fmt.Errorf("forecast.default_horizon %d not in [1, %d]", c.Forecast.DefaultHorizon, c.Forecast.MaxHorizon)
	case c.Forecast.GrowthRate != nil && *c.Forecast.GrowthRate <= -1:
		return fmt.Errorf("forecast.growth_rate %v must be greater than -1", *c.Forecast.GrowthRate)
	case c.Data.MaxUploadBytes <= 0:
		return fmt.Errorf("data.max_upload_bytes must be positive")
	}
	return nil
}
