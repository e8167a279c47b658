// Package metrics defines Prometheus instrumentation for extraction,
// compilation, and evaluation.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"expensehq/vega/pkg/config"
)

// RuleMetrics tracks the rule pipeline.
//
// Metrics:
//   - vega_policy_extractions_total: extraction runs by source and outcome
//   - vega_policy_rules_compiled_total: compiled rules by source and enforceability
//   - vega_policy_evaluations_total: transaction evaluations by outcome
//   - vega_policy_evaluation_duration_seconds: evaluation duration
//   - vega_policy_violations_total: violations by rule name
type RuleMetrics struct {
	extractionsTotal   *prometheus.CounterVec
	rulesCompiledTotal *prometheus.CounterVec
	evaluationsTotal   *prometheus.CounterVec
	evaluationDuration prometheus.Histogram
	violationsTotal    *prometheus.CounterVec
}

// NewRuleMetrics creates and registers rule metrics with the registry.
func NewRuleMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RuleMetrics {
	rm := &RuleMetrics{
		extractionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "extractions_total",
				Help:      "Total number of extraction runs",
			},
			[]string{"source", "outcome"},
		),

		rulesCompiledTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "rules_compiled_total",
				Help:      "Total number of rules compiled",
			},
			[]string{"source", "enforceable"},
		),

		evaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "evaluations_total",
				Help:      "Total number of transaction evaluations",
			},
			[]string{"outcome"},
		),

		evaluationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "evaluation_duration_seconds",
				Help:      "Duration of a single transaction evaluation in seconds",
				// In-process tree walks, expected well under a millisecond
				Buckets: prometheus.ExponentialBuckets(0.000001, 2, 15),
			},
		),

		violationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "violations_total",
				Help:      "Total number of rule violations",
			},
			[]string{"rule"},
		),
	}

	registry.MustRegister(
		rm.extractionsTotal,
		rm.rulesCompiledTotal,
		rm.evaluationsTotal,
		rm.evaluationDuration,
		rm.violationsTotal,
	)

	return rm
}

// RecordExtraction records one extraction run.
// Source is "heuristic", "oracle", "fallback", or "upload"; outcome is
// "rules" when candidates were produced and "empty" otherwise.
func (rm *RuleMetrics) RecordExtraction(source, outcome string) {
	rm.extractionsTotal.WithLabelValues(source, outcome).Inc()
}

// RecordCompiledRule records one compiled rule verdict.
func (rm *RuleMetrics) RecordCompiledRule(source string, enforceable bool) {
	label := "false"
	if enforceable {
		label = "true"
	}
	rm.rulesCompiledTotal.WithLabelValues(source, label).Inc()
}

// RecordEvaluation records one transaction evaluation.
// Outcome is "clean" or "violations".
func (rm *RuleMetrics) RecordEvaluation(outcome string, duration time.Duration) {
	rm.evaluationsTotal.WithLabelValues(outcome).Inc()
	rm.evaluationDuration.Observe(duration.Seconds())
}

// RecordViolation records a rule violation.
func (rm *RuleMetrics) RecordViolation(rule string) {
	rm.violationsTotal.WithLabelValues(rule).Inc()
}
