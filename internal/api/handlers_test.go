package api

import (
	"bytes"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"

	"eurotrends/internal/engine"
	"eurotrends/internal/market"
	"eurotrends/internal/models"
)

const sreRows = `{"observations": [
	{"role": "SRE", "country": "DE", "team_setup": "Remote", "salary_min": 70000, "salary_max": 90000, "salary_avg": 80000},
	{"role": "SRE", "country": "DE", "team_setup": "Hybrid", "salary_min": 90000, "salary_max": 110000, "salary_avg": 100000},
	{"role": "SRE", "country": "FR", "team_setup": "Remote", "salary_min": 50000, "salary_max": 70000, "salary_avg": 60000}
]}`

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	return newTestServerWith(t, Options{Version: "test", TopRoles: 10})
}

func newTestServerWith(t *testing.T, opts Options) *echo.Echo {
	t.Helper()
	f, err := engine.NewForecaster()
	if err != nil {
		t.Fatal(err)
	}
	h := NewHandler(engine.NewStore(), f, market.Default(), opts)
	return NewServer(h, []string{"*"})
}

func do(e *echo.Echo, method, target, contentType string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func loadSRE(t *testing.T, e *echo.Echo) {
	t.Helper()
	rec := do(e, http.MethodPost, "/api/load", echo.MIMEApplicationJSON, []byte(sreRows))
	if rec.Code != http.StatusOK {
		t.Fatalf("load: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestNotLoadedReturns503(t *testing.T) {
	e := newTestServer(t)

	for _, path := range []string{"/api/summary", "/api/aggregate?dimension=role", "/api/forecast", "/api/overview"} {
		if rec := do(e, http.MethodGet, path, "", nil); rec.Code != http.StatusServiceUnavailable {
			t.Errorf("%s: expected 503, got %d", path, rec.Code)
		}
	}

	rec := do(e, http.MethodGet, "/api/status", "", nil)
	var status map[string]any
	decode(t, rec, &status)
	if rec.Code != http.StatusOK || status["data_loaded"] != false {
		t.Errorf("Unexpected status %d %v", rec.Code, status)
	}
}

func TestLoadAndSummary(t *testing.T) {
	e := newTestServer(t)
	loadSRE(t, e)

	rec := do(e, http.MethodGet, "/api/summary", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var summary models.DatasetSummary
	decode(t, rec, &summary)
	if summary.TotalRecords != 3 || len(summary.Countries) != 2 || summary.SalaryStats.Max != 110000 {
		t.Errorf("Unexpected summary %+v", summary)
	}
}

func TestLoadRejectsInvalidRows(t *testing.T) {
	e := newTestServer(t)
	loadSRE(t, e)

	bad := `{"observations": [{"role": "", "country": "DE", "team_setup": "Remote", "salary_min": 5, "salary_max": 1, "salary_avg": 3}]}`
	rec := do(e, http.MethodPost, "/api/load", echo.MIMEApplicationJSON, []byte(bad))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp errorResponse
	decode(t, rec, &resp)
	if len(resp.Rows) < 2 {
		t.Errorf("Expected every failing field reported, got %+v", resp.Rows)
	}

	var summary models.DatasetSummary
	decode(t, do(e, http.MethodGet, "/api/summary", "", nil), &summary)
	if summary.TotalRecords != 3 {
		t.Errorf("Expected previous dataset kept, got %d rows", summary.TotalRecords)
	}

	if rec := do(e, http.MethodPost, "/api/load", echo.MIMEApplicationJSON, []byte(`{"observations": [`)); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for malformed json, got %d", rec.Code)
	}
}

func TestAggregate(t *testing.T) {
	e := newTestServer(t)
	loadSRE(t, e)

	rec := do(e, http.MethodGet, "/api/aggregate?dimension=role&role=SRE", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var resp struct {
		Total int              `json:"total"`
		Data  []map[string]any `json:"data"`
	}
	decode(t, rec, &resp)
	if resp.Total != 1 || len(resp.Data) != 1 {
		t.Fatalf("Expected one group, got %+v", resp)
	}
	row := resp.Data[0]
	if row["role"] != "SRE" || row["avg_salary"] != 80000.0 || row["min_salary"] != 60000.0 || row["max_salary"] != 100000.0 {
		t.Errorf("Unexpected row %v", row)
	}

	decode(t, do(e, http.MethodGet, "/api/aggregate?dimension=country&country=DE,FR&limit=1", "", nil), &resp)
	if resp.Total != 2 || len(resp.Data) != 1 || resp.Data[0]["country"] != "DE" {
		t.Errorf("Expected DE first of 2, got %+v", resp)
	}

	if rec := do(e, http.MethodGet, "/api/aggregate?dimension=planet", "", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown dimension, got %d", rec.Code)
	}
}

func TestObservations(t *testing.T) {
	e := newTestServer(t)
	loadSRE(t, e)

	var resp struct {
		Total int                  `json:"total"`
		Data  []models.Observation `json:"data"`
	}
	decode(t, do(e, http.MethodGet, "/api/observations?country=DE&limit=1&offset=1", "", nil), &resp)
	if resp.Total != 2 || len(resp.Data) != 1 || resp.Data[0].SalaryAvg != 100000 {
		t.Errorf("Unexpected page %+v", resp)
	}

	decode(t, do(e, http.MethodGet, "/api/observations?team_setup=Remote&team_setup=Hybrid", "", nil), &resp)
	if resp.Total != 3 {
		t.Errorf("Expected repeated params to union, got %d", resp.Total)
	}
}

func TestForecast(t *testing.T) {
	e := newTestServer(t)
	loadSRE(t, e)

	rec := do(e, http.MethodGet, "/api/forecast?country=DE&horizon=5", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Method string `json:"method"`
		Points []struct {
			Year      int     `json:"year"`
			Predicted float64 `json:"predicted_salary"`
			Lower     float64 `json:"lower_bound"`
			Upper     float64 `json:"upper_bound"`
		} `json:"points"`
	}
	decode(t, rec, &resp)
	if resp.Method != engine.MethodCompoundGrowth || len(resp.Points) != 5 {
		t.Fatalf("Unexpected forecast %+v", resp)
	}
	if resp.Points[0].Year != 2025 || resp.Points[0].Predicted != 90000 || resp.Points[0].Lower != 81000 {
		t.Errorf("Unexpected first point %+v", resp.Points[0])
	}

	cases := map[string]int{
		"/api/forecast?horizon=0":             http.StatusBadRequest,
		"/api/forecast?horizon=abc":           http.StatusBadRequest,
		"/api/forecast?role=Astronaut":        http.StatusNotFound,
		"/api/forecast?country=DE&country=FR": http.StatusBadRequest,
	}
	for path, want := range cases {
		if rec := do(e, http.MethodGet, path, "", nil); rec.Code != want {
			t.Errorf("%s: expected %d, got %d", path, want, rec.Code)
		}
	}
}

func TestDemoLoadAndForecastAll(t *testing.T) {
	e := newTestServer(t)
	rec := do(e, http.MethodPost, "/api/load", echo.MIMEApplicationJSON, []byte(`{"demo": true}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var resp struct {
		Count  int              `json:"count"`
		Data   []map[string]any `json:"data"`
		Growth struct {
			MinEnd float64 `json:"min_end"`
			MaxEnd float64 `json:"max_end"`
		} `json:"growth"`
	}
	decode(t, do(e, http.MethodGet, "/api/forecast/all?horizon=6", "", nil), &resp)
	if resp.Count != 16 {
		t.Fatalf("Expected 16 country x role records, got %d", resp.Count)
	}
	first := resp.Data[0]
	if first["Country"] != "Germany" || first["Year_2025"] == nil || first["Year_2030"] == nil {
		t.Errorf("Unexpected legacy record %v", first)
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, r := range resp.Data {
		v, _ := r["Year_2030"].(float64)
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	if resp.Growth.MinEnd != lo || resp.Growth.MaxEnd != hi || lo >= hi {
		t.Errorf("Expected final-year range %v..%v, got %+v", lo, hi, resp.Growth)
	}
}

func TestUpload(t *testing.T) {
	e := newTestServer(t)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", "salaries.csv")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = part.Write([]byte("Role_Name,Country,Team_Setup,Salary_Avg_USD\nCloud Engineer,Poland,Remote,55000\n"))
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	rec := do(e, http.MethodPost, "/api/upload", w.FormDataContentType(), body.Bytes())
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var summary models.DatasetSummary
	decode(t, rec, &summary)
	if summary.TotalRecords != 1 || !strings.HasPrefix(summary.Source, "upload:") {
		t.Errorf("Unexpected summary %+v", summary)
	}

	rec = do(e, http.MethodPost, "/api/upload", echo.MIMEApplicationJSON, []byte(`{}`))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without a file, got %d", rec.Code)
	}
}

func TestOverviewAndMarket(t *testing.T) {
	e := newTestServer(t)
	loadSRE(t, e)

	var overview struct {
		Card struct {
			Message string `json:"message"`
		} `json:"card"`
		ByCountry []map[string]any `json:"by_country"`
	}
	decode(t, do(e, http.MethodGet, "/api/overview?country=DE", "", nil), &overview)
	if overview.Card.Message != "Showing 2 of 3 records" || len(overview.ByCountry) != 1 {
		t.Errorf("Unexpected overview %+v", overview)
	}

	var econ []market.Economic
	decode(t, do(e, http.MethodGet, "/api/economic?country=Poland,India", "", nil), &econ)
	if len(econ) != 2 {
		t.Errorf("Expected 2 economic rows, got %d", len(econ))
	}
}

func TestUploadTooLarge(t *testing.T) {
	e := newTestServerWith(t, Options{Version: "test", TopRoles: 10, MaxUploadBytes: 64})

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", "salaries.csv")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = part.Write([]byte("Role,Country,Salary_Avg\n" + strings.Repeat("SRE,Germany,80000\n", 20)))
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	rec := do(e, http.MethodPost, "/api/upload", w.FormDataContentType(), body.Bytes())
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("Expected 413, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp errorResponse
	decode(t, rec, &resp)
	if strings.Contains(resp.Message, "bad request") || !strings.Contains(resp.Message, "64 bytes") {
		t.Errorf("Expected a size-limit message, got %q", resp.Message)
	}
}
