// Package metrics records per-run pipeline metrics in a Prometheus registry and pushes
// them to a Pushgateway, since a batch job exits before any scrape.
package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sanchitvj/sparkify-lake/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("metrics",
	fx.Provide(func() *prometheus.Registry {
		return prometheus.NewRegistry()
	}),
	fx.Provide(func(cfg config.Config, registry *prometheus.Registry) *RunMetrics {
		return New(registry, cfg.Environment)
	}),
	fx.Provide(NewPusher),
)

// RunMetrics holds the collectors describing one pipeline run.
type RunMetrics struct {
	runs        *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	records     *prometheus.GaugeVec
	rows        *prometheus.GaugeVec
	matched     prometheus.Gauge
	lastSuccess prometheus.Gauge
}

// New registers the run collectors on registerer.
func New(registerer prometheus.Registerer, environment string) *RunMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	environment = strings.TrimSpace(environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": "sparkify_etl",
		"env":     environment,
	}

	m := &RunMetrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "sparkify_etl_runs_total",
			Help:        "Pipeline runs by outcome.",
			ConstLabels: constLabels,
		}, []string{"status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "sparkify_etl_stage_duration_seconds",
			Help:        "Wall time of each pipeline stage.",
			Buckets:     []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600, 7200, 21600},
			ConstLabels: constLabels,
		}, []string{"stage"}),
		records: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "sparkify_etl_records_read",
			Help:        "Input records read in the last run by source.",
			ConstLabels: constLabels,
		}, []string{"source"}),
		rows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "sparkify_etl_rows_written",
			Help:        "Rows written in the last run by output table.",
			ConstLabels: constLabels,
		}, []string{"table"}),
		matched: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "sparkify_etl_songplays_matched",
			Help:        "Songplays resolved to a song in the last run.",
			ConstLabels: constLabels,
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "sparkify_etl_last_success_timestamp_seconds",
			Help:        "Unix time of the last successful run.",
			ConstLabels: constLabels,
		}),
	}

	registerer.MustRegister(m.runs, m.duration, m.records, m.rows, m.matched, m.lastSuccess)
	return m
}

// ObserveStage records how long a stage took.
func (m *RunMetrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(stage).Observe(d.Seconds())
}

// SetRecords records the number of input records read from source.
func (m *RunMetrics) SetRecords(source string, n int) {
	if m == nil {
		return
	}
	m.records.WithLabelValues(source).Set(float64(n))
}

// SetRows records the number of rows written to table.
func (m *RunMetrics) SetRows(table string, n int) {
	if m == nil {
		return
	}
	m.rows.WithLabelValues(table).Set(float64(n))
}

// SetMatched records how many songplays found their song.
func (m *RunMetrics) SetMatched(n int) {
	if m == nil {
		return
	}
	m.matched.Set(float64(n))
}

// RunFinished counts the run and, on success, stamps the success time.
func (m *RunMetrics) RunFinished(err error, at time.Time) {
	if m == nil {
		return
	}
	if err != nil {
		m.runs.WithLabelValues("failure").Inc()
		return
	}
	m.runs.WithLabelValues("success").Inc()
	m.lastSuccess.Set(float64(at.Unix()))
}
