package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"expensehq/vega/pkg/config"
)

func newTestMetrics() (*RuleMetrics, *prometheus.Registry) {
	registry := prometheus.NewRegistry()
	cfg := &config.MetricsConfig{Namespace: "vega", Subsystem: "policy"}
	return NewRuleMetrics(cfg, registry), registry
}

func TestRuleMetrics_Counters(t *testing.T) {
	rm, _ := newTestMetrics()

	rm.RecordExtraction("heuristic", "rules")
	rm.RecordExtraction("heuristic", "rules")
	rm.RecordCompiledRule("heuristic", true)
	rm.RecordCompiledRule("heuristic", false)
	rm.RecordEvaluation("violations", 50*time.Microsecond)
	rm.RecordViolation("Meal cap")

	if got := testutil.ToFloat64(rm.extractionsTotal.WithLabelValues("heuristic", "rules")); got != 2 {
		t.Errorf("extractions_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(rm.rulesCompiledTotal.WithLabelValues("heuristic", "true")); got != 1 {
		t.Errorf("rules_compiled_total{enforceable=true} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(rm.violationsTotal.WithLabelValues("Meal cap")); got != 1 {
		t.Errorf("violations_total = %v, want 1", got)
	}
}

func TestRuleMetrics_Registration(t *testing.T) {
	rm, registry := newTestMetrics()

	rm.RecordExtraction("oracle", "empty")
	rm.RecordCompiledRule("oracle", false)
	rm.RecordEvaluation("clean", time.Microsecond)
	rm.RecordViolation("Lodging nightly cap")

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	if len(families) != 5 {
		t.Errorf("gathered %d metric families, want 5", len(families))
	}
}
