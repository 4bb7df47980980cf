package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tkingovr/rulesel/internal/selection"
)

// filterTypeNone labels rejections that no single filter is blamed for,
// such as those made by a Rego policy.
const filterTypeNone = "none"

// Metrics holds the selection counters and duration histogram on a private
// registry, so a run can be written out as a node-exporter textfile.
type Metrics struct {
	registry          *prometheus.Registry
	rulesEvaluated    *prometheus.CounterVec
	rulesSelected     *prometheus.CounterVec
	rulesRejected     *prometheus.CounterVec
	selectionDuration *prometheus.HistogramVec
}

// New creates selection metrics on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		rulesEvaluated: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "rulesel_rules_evaluated_total", Help: "Total rules evaluated"},
			[]string{"engine"},
		),
		rulesSelected: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "rulesel_rules_selected_total", Help: "Total rules selected"},
			[]string{"engine"},
		),
		rulesRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "rulesel_rules_rejected_total", Help: "Total rules rejected"},
			[]string{"engine", "filter_type"},
		),
		selectionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rulesel_selection_duration_seconds",
				Help:    "Selection run duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"engine"},
		),
	}

	m.registry.MustRegister(
		m.rulesEvaluated,
		m.rulesSelected,
		m.rulesRejected,
		m.selectionDuration,
	)

	return m
}

// Registry exposes the underlying registry for gathering.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Observe records one selection run.
func (m *Metrics) Observe(result *selection.Result, elapsed time.Duration) {
	if m == nil || result == nil {
		return
	}

	engine := result.Engine
	m.selectionDuration.WithLabelValues(engine).Observe(elapsed.Seconds())

	for _, d := range result.Decisions {
		m.rulesEvaluated.WithLabelValues(engine).Inc()
		if d.Included {
			m.rulesSelected.WithLabelValues(engine).Inc()
			continue
		}
		filterType := filterTypeNone
		if d.Filter != nil {
			filterType = d.Filter.Type().String()
		}
		m.rulesRejected.WithLabelValues(engine, filterType).Inc()
	}
}

// WriteTextfile writes all metrics to path in the Prometheus text format, for
// pickup by a node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
