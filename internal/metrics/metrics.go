package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels accepted loads.
	OutcomeSuccess = "success"
	// OutcomeRejected labels loads refused by validation or parsing.
	OutcomeRejected = "rejected"
)

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eurotrends",
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by route and status code.",
		},
		[]string{"route", "code"},
	)

	requestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "eurotrends",
			Name:      "http_request_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"route"},
	)

	loadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eurotrends",
			Name:      "dataset_loads_total",
			Help:      "Dataset load attempts, by source and outcome.",
		},
		[]string{"source", "outcome"},
	)

	datasetRows = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "eurotrends",
			Name:      "dataset_rows",
			Help:      "Rows in the currently loaded dataset.",
		},
	)

	forecastsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eurotrends",
			Name:      "forecasts_total",
			Help:      "Forecasts produced, by method.",
		},
		[]string{"method"},
	)
)

// Register attaches the collectors to reg. Collectors already registered are
// skipped so tests can register repeatedly.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		requestsTotal,
		requestDurationSeconds,
		loadsTotal,
		datasetRows,
		forecastsTotal,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveRequest records one served request.
func ObserveRequest(route, code string, duration time.Duration) {
	requestsTotal.WithLabelValues(route, code).Inc()
	if duration < 0 {
		duration = 0
	}
	requestDurationSeconds.WithLabelValues(route).Observe(duration.Seconds())
}

// ObserveLoad records a load attempt. rows is only applied on success.
func ObserveLoad(source, outcome string, rows int) {
	label := outcome
	if label != OutcomeSuccess {
		label = OutcomeRejected
	}
	loadsTotal.WithLabelValues(source, label).Inc()
	if label == OutcomeSuccess {
		datasetRows.Set(float64(rows))
	}
}

// ObserveForecast counts a forecast by the method that produced it.
func ObserveForecast(method string) {
	forecastsTotal.WithLabelValues(method).Inc()
}
