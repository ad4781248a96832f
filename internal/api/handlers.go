package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"eurotrends/internal/engine"
	"eurotrends/internal/ingest"
	"eurotrends/internal/market"
	"eurotrends/internal/metrics"
	"eurotrends/internal/models"
	"eurotrends/internal/pkg/logger"
	"eurotrends/internal/present"
)

const (
	serviceName          = "eurotrends"
	defaultObservationsN = 100
)

// Options tunes handler defaults.
type Options struct {
	Version        string
	TopRoles       int
	DefaultHorizon int
	MaxUploadBytes int64
}

type Handler struct {
	store      *engine.Store
	forecaster *engine.Forecaster
	market     *market.Context
	opts       Options
}

func NewHandler(store *engine.Store, forecaster *engine.Forecaster, mkt *market.Context, opts Options) *Handler {
	if opts.DefaultHorizon <= 0 {
		opts.DefaultHorizon = engine.DefaultHorizon
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 32 << 20
	}
	return &Handler{store: store, forecaster: forecaster, market: mkt, opts: opts}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api")
	api.GET("/status", h.GetStatus)
	api.GET("/summary", h.GetSummary)
	api.GET("/aggregate", h.GetAggregate)
	api.GET("/observations", h.GetObservations)
	api.GET("/overview", h.GetOverview)
	api.GET("/heatmap", h.GetHeatmap)
	api.GET("/forecast", h.GetForecast)
	api.GET("/forecast/all", h.GetForecastAll)
	api.POST("/load", h.PostLoad)
	api.POST("/upload", h.PostUpload)
	api.GET("/economic", h.GetEconomic)
	api.GET("/legal", h.GetLegal)
}

// Load installs observations and records the outcome. It is also used by the
// server's startup load. The part of source before the first ':' labels metrics.
func (h *Handler) Load(ctx context.Context, source string, obs []models.Observation) (models.DatasetSummary, error) {
	kind, _, _ := strings.Cut(source, ":")
	summary, err := h.store.Load(source, obs)
	if err != nil {
		metrics.ObserveLoad(kind, metrics.OutcomeRejected, 0)
		logger.Warnf(ctx, "load from %s rejected: %s", source, err.Error())
		return models.DatasetSummary{}, err
	}
	metrics.ObserveLoad(kind, metrics.OutcomeSuccess, summary.TotalRecords)
	logger.Infof(ctx, "loaded %d rows from %s (dataset %s, fingerprint %s)",
		summary.TotalRecords, source, summary.DatasetID, summary.Fingerprint)
	return summary, nil
}

// --- HANDLERS ---

func (h *Handler) GetStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":      "ok",
		"service":     serviceName,
		"version":     h.opts.Version,
		"data_loaded": h.store.Loaded(),
	})
}

func (h *Handler) GetSummary(c echo.Context) error {
	summary, err := h.store.Summary()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summary)
}

// GetAggregate groups the filtered rows by ?dimension=. Roles are cut to the
// configured top K unless ?limit= says otherwise.
func (h *Handler) GetAggregate(c echo.Context) error {
	ds, err := h.store.Current()
	if err != nil {
		return err
	}
	dim, ok := models.ParseDimension(c.QueryParam("dimension"))
	if !ok {
		return fmt.Errorf("%w: dimension must be one of country, role, team_setup", errBadRequest)
	}

	groups, err := engine.ByDimension(ds.Apply(filterParams(c)), dim)
	if err != nil {
		return err
	}
	total := len(groups)

	defaultLimit := total
	if dim == models.DimRole && h.opts.TopRoles > 0 {
		defaultLimit = h.opts.TopRoles
	}
	limit, _ := getPaginationParams(c, defaultLimit)
	groups = engine.TopK(groups, limit)

	return c.JSON(http.StatusOK, map[string]any{
		"dimension": dim,
		"total":     total,
		"data":      present.GroupRows(dim, groups),
	})
}

func (h *Handler) GetObservations(c echo.Context) error {
	ds, err := h.store.Current()
	if err != nil {
		return err
	}
	sub := ds.Apply(filterParams(c))
	limit, offset := getPaginationParams(c, defaultObservationsN)

	return c.JSON(http.StatusOK, map[string]any{
		"data":   sub.Page(offset, limit),
		"total":  sub.Len(),
		"limit":  limit,
		"offset": offset,
	})
}

// GetOverview computes the headline card and the three rollups of one filtered
// subset concurrently.
func (h *Handler) GetOverview(c echo.Context) error {
	ds, err := h.store.Current()
	if err != nil {
		return err
	}
	sub := ds.Apply(filterParams(c))

	var (
		stats                     models.Stats
		byCountry, byRole, byTeam []models.GroupSummary
	)
	g, _ := errgroup.WithContext(c.Request().Context())
	g.Go(func() error {
		stats = engine.Overall(sub)
		return nil
	})
	g.Go(func() (err error) {
		byCountry, err = engine.ByDimension(sub, models.DimCountry)
		return err
	})
	g.Go(func() (err error) {
		byRole, err = engine.ByDimension(sub, models.DimRole)
		return err
	})
	g.Go(func() (err error) {
		byTeam, err = engine.ByDimension(sub, models.DimTeamSetup)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"card":            present.Overview(stats, ds.Len(), len(byCountry), len(byRole)),
		"by_country":      present.GroupRows(models.DimCountry, byCountry),
		"top_roles":       present.GroupRows(models.DimRole, engine.TopK(byRole, h.opts.TopRoles)),
		"by_team_setup":   present.GroupRows(models.DimTeamSetup, byTeam),
		"yearly_averages": engine.YearlyAverages(sub),
	})
}

func (h *Handler) GetHeatmap(c echo.Context) error {
	ds, err := h.store.Current()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, present.Heatmap(engine.Matrix(ds.Apply(filterParams(c)))))
}

// GetForecast projects one selection. ?country= and ?role= are single-valued
// hints; ?team_setup= narrows the rows first.
func (h *Handler) GetForecast(c echo.Context) error {
	ds, err := h.store.Current()
	if err != nil {
		return err
	}
	horizon, err := horizonParam(c, h.opts.DefaultHorizon)
	if err != nil {
		return err
	}
	country, err := singleParam(c, "country")
	if err != nil {
		return err
	}
	role, err := singleParam(c, "role")
	if err != nil {
		return err
	}

	sub := ds.Apply(models.FilterSelection{TeamSetups: listParam(c, "team_setup")})
	fc, err := h.forecaster.Project(sub, horizon, country, role)
	if err != nil {
		return err
	}
	metrics.ObserveForecast(fc.Method)

	return c.JSON(http.StatusOK, map[string]any{
		"country":  fc.Country,
		"role":     fc.Role,
		"method":   fc.Method,
		"baseline": present.Round(fc.Baseline),
		"rate":     fc.Rate,
		"band_pct": h.forecaster.BandPct(),
		"points":   present.ForecastRows(fc.Points),
		"growth":   present.Growth(engine.Growth(fc.Points)),
	})
}

// GetForecastAll returns one Year_YYYY record per country x role pair.
func (h *Handler) GetForecastAll(c echo.Context) error {
	ds, err := h.store.Current()
	if err != nil {
		return err
	}
	horizon, err := horizonParam(c, h.opts.DefaultHorizon)
	if err != nil {
		return err
	}

	forecasts, err := h.forecaster.ProjectAll(ds.Apply(filterParams(c)), horizon)
	if err != nil {
		return err
	}
	for _, fc := range forecasts {
		metrics.ObserveForecast(fc.Method)
	}
	records := present.LegacyRecords(forecasts)

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"count":   len(records),
		"data":    records,
		"growth":  present.Growth(engine.GrowthAcross(forecasts)),
	})
}

type loadRequest struct {
	Source       string               `json:"source"`
	Demo         bool                 `json:"demo"`
	Observations []models.Observation `json:"observations"`
}

// PostLoad replaces the dataset with the posted rows, or the demo set when
// {"demo": true}.
func (h *Handler) PostLoad(c echo.Context) error {
	var req loadRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	obs, source := req.Observations, req.Source
	if req.Demo {
		obs, source = ingest.DemoObservations(), "demo"
	}
	if source == "" {
		source = "api"
	}

	summary, err := h.Load(c.Request().Context(), source, obs)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summary)
}

// PostUpload replaces the dataset with a CSV sent as multipart field "file".
func (h *Handler) PostUpload(c echo.Context) error {
	req := c.Request()
	req.Body = http.MaxBytesReader(c.Response(), req.Body, h.opts.MaxUploadBytes)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("upload exceeds %d bytes: %w", tooLarge.Limit, err)
		}
		return fmt.Errorf("%w: multipart field \"file\": %w", errBadRequest, err)
	}
	f, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	obs, err := ingest.ReadCSV(f)
	if err != nil {
		metrics.ObserveLoad("upload", metrics.OutcomeRejected, 0)
		return fmt.Errorf("%w: %s: %w", errBadRequest, fh.Filename, err)
	}

	summary, err := h.Load(req.Context(), "upload:"+fh.Filename, obs)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summary)
}

func (h *Handler) GetEconomic(c echo.Context) error {
	return c.JSON(http.StatusOK, h.market.Economic(listParam(c, "country")))
}

func (h *Handler) GetLegal(c echo.Context) error {
	return c.JSON(http.StatusOK, h.market.Legal(listParam(c, "country")))
}
