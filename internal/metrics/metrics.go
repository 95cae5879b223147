package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Run outcomes
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusSkipped = "skipped" // previous run still in progress
)

// Metrics holds the Prometheus collectors of the enrichment pipeline
// ⭐ SSOT: 파이프라인 메트릭 정의는 여기서만
type Metrics struct {
	registry *prometheus.Registry

	RunsTotal      *prometheus.CounterVec   // labels: status
	RunDuration    prometheus.Histogram
	StageDuration  *prometheus.HistogramVec // labels: stage
	StageSkipped   *prometheus.CounterVec   // labels: stage
	ResolveAttempt *prometheus.GaugeVec     // labels: day=today|prev
	MalformedRows  prometheus.Counter
	Records        *prometheus.GaugeVec // labels: phase=ticks|merged|snapshot
	Coverage       *prometheus.GaugeVec // labels: field
	LastSuccess    prometheus.Gauge
}

// New registers every collector on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "universe_runs_total",
			Help: "Pipeline runs by outcome",
		}, []string{"status"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "universe_run_duration_seconds",
			Help:    "Wall time of a full pipeline run",
			Buckets: []float64{1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "universe_stage_duration_seconds",
			Help:    "Wall time of each pipeline stage",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
		StageSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "universe_stage_skipped_total",
			Help: "Stages skipped because their reference input was missing",
		}, []string{"stage"}),
		ResolveAttempt: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "universe_resolve_attempts",
			Help: "Calendar days tried by the last trading-day resolution",
		}, []string{"day"}),
		MalformedRows: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "universe_malformed_rows_total",
			Help: "Tick rows dropped for shape mismatch",
		}),
		Records: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "universe_records",
			Help: "Symbols in the last run by phase",
		}, []string{"phase"}),
		Coverage: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "universe_field_coverage",
			Help: "Symbols whose field came from the preferred source in the last run",
		}, []string{"field"}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "universe_last_success_timestamp_seconds",
			Help: "Unix time of the last successful snapshot",
		}),
	}

	m.registry.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.StageDuration,
		m.StageSkipped,
		m.ResolveAttempt,
		m.MalformedRows,
		m.Records,
		m.Coverage,
		m.LastSuccess,
	)

	return m
}

// Registry exposes the underlying registry for gathering
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveStage records how long a stage took
func (m *Metrics) ObserveStage(stage string, started time.Time) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(time.Since(started).Seconds())
}

// RunFinished records a run outcome
func (m *Metrics) RunFinished(status string, started time.Time, now time.Time) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(status).Inc()
	if status == StatusSkipped {
		return
	}
	m.RunDuration.Observe(now.Sub(started).Seconds())
	if status == StatusSuccess {
		m.LastSuccess.Set(float64(now.Unix()))
	}
}

// SkipStage counts a skipped stage
func (m *Metrics) SkipStage(stage string) {
	if m == nil {
		return
	}
	m.StageSkipped.WithLabelValues(stage).Inc()
}

// SetRecords records the symbol count at a phase
func (m *Metrics) SetRecords(phase string, n int) {
	if m == nil {
		return
	}
	m.Records.WithLabelValues(phase).Set(float64(n))
}

// SetCoverage records how many symbols got a field from its preferred source
func (m *Metrics) SetCoverage(field string, n int) {
	if m == nil {
		return
	}
	m.Coverage.WithLabelValues(field).Set(float64(n))
}

// SetResolveAttempts records resolver attempts for today or prev
func (m *Metrics) SetResolveAttempts(day string, n int) {
	if m == nil {
		return
	}
	m.ResolveAttempt.WithLabelValues(day).Set(float64(n))
}

// AddMalformed counts dropped tick rows
func (m *Metrics) AddMalformed(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.MalformedRows.Add(float64(n))
}
