package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"

	"eurotrends/internal/api"
	"eurotrends/internal/config"
	"eurotrends/internal/engine"
	"eurotrends/internal/ingest"
	"eurotrends/internal/market"
	"eurotrends/internal/metrics"
	"eurotrends/internal/models"
	"eurotrends/internal/pkg/logger"
)

var version = "dev"

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.JSON); err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Fatal(ctx, err)
	}

	forecaster, err := newForecaster(cfg.Forecast)
	if err != nil {
		logger.Fatal(ctx, err)
	}

	// 1. Initialize Echo with an empty store
	// The API is "live" but data routes return 503 until the first load lands
	store := engine.NewStore()
	h := api.NewHandler(store, forecaster, market.Default(), api.Options{
		Version:        version,
		TopRoles:       cfg.Aggregate.TopRoles,
		DefaultHorizon: cfg.Forecast.DefaultHorizon,
		MaxUploadBytes: cfg.Data.MaxUploadBytes,
	})
	e := api.NewServer(h, cfg.Server.CORSOrigins)
	if cfg.Logging.Level == "debug" {
		e.Logger.SetLevel(log.DEBUG)
	} else {
		e.Logger.SetLevel(log.WARN)
	}

	// 2. Initial load in the background
	go func() {
		t0 := time.Now()
		source, obs, err := initialData(cfg.Data)
		if err != nil {
			logger.Errorf(ctx, "initial load: %s", err.Error())
			return
		}
		if obs == nil {
			logger.Infof(ctx, "no initial dataset configured; waiting for POST /api/load")
			return
		}
		if _, err := h.Load(ctx, source, obs); err != nil {
			return
		}
		logger.Infof(ctx, "initial load complete in %v", time.Since(t0))
	}()

	// 3. Serve until signalled
	go func() {
		logger.Infof(ctx, "listening on %s", cfg.Server.Address)
		if err := e.Start(cfg.Server.Address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(ctx, err)
		}
	}()

	<-ctx.Done()
	logger.Infof(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Errorf(shutdownCtx, "shutdown: %s", err.Error())
	}
}

func newForecaster(cfg config.Forecast) (*engine.Forecaster, error) {
	var growth engine.GrowthModel
	if cfg.GrowthRate != nil {
		growth = engine.FixedRate(*cfg.GrowthRate)
	} else {
		profile, err := engine.LoadGrowthProfile(cfg.ProfilePath)
		if err != nil {
			return nil, err
		}
		growth = profile
	}

	return engine.NewForecaster(
		engine.WithBandPct(cfg.BandPct),
		engine.WithMaxHorizon(cfg.MaxHorizon),
		engine.WithMethods(
			engine.LinearTrend{MinYears: 2},
			engine.CompoundGrowth{BaseYear: cfg.BaseYear, Growth: growth},
		),
	)
}

// initialData picks the seed CSV when configured, else the demo set when
// enabled. A nil slice means start empty.
func initialData(cfg config.Data) (string, []models.Observation, error) {
	if cfg.SeedCSV != "" {
		obs, err := ingest.ReadCSVFile(cfg.SeedCSV)
		if err != nil {
			return "", nil, err
		}
		return "csv:" + cfg.SeedCSV, obs, nil
	}
	if cfg.DemoOnStart {
		return "demo", ingest.DemoObservations(), nil
	}
	return "", nil, nil
}
