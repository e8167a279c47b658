// Package engine applies compiled rule sets to transaction records.
//
// A rule set is parsed once into a prepared form and then shared
// read-only across arbitrarily many concurrent evaluations; preparation
// is the only step that allocates per-rule state.
package engine

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"expensehq/vega/pkg/epl"
	"expensehq/vega/pkg/epl/ast"
	"expensehq/vega/pkg/epl/eval"
	"expensehq/vega/pkg/rules"
	"expensehq/vega/pkg/telemetry/metrics"
)

// Engine evaluates rule sets. Safe for concurrent use.
type Engine struct {
	metrics *metrics.RuleMetrics
	logger  *slog.Logger
}

// New creates an engine. Metrics may be nil.
func New(m *metrics.RuleMetrics, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		metrics: m,
		logger:  logger.With("component", "policy.engine"),
	}
}

// Prepared is a rule set parsed for evaluation. It holds one expression
// tree per evaluable rule and is immutable after Prepare returns, so a
// single Prepared may serve any number of goroutines.
type Prepared struct {
	engine  *Engine
	rules   []preparedRule
	skipped []string
}

type preparedRule struct {
	name string
	tree *ast.Node
}

// Prepare parses every evaluable rule in the set. Rules with
// condition_valid=false are skipped, as is any rule whose condition
// unexpectedly fails to reparse; skipped rule names are retained so
// callers can report evaluation coverage.
func (e *Engine) Prepare(rs *rules.RuleSet) *Prepared {
	p := &Prepared{engine: e}
	for _, rule := range rs.Rules {
		name := ruleName(rule)
		if !rule.ConditionValid {
			p.skipped = append(p.skipped, name)
			continue
		}
		tree, err := epl.Parse(rule.Condition)
		if err != nil {
			// condition_valid=true implies a parseable condition; a rule
			// set edited outside the compiler can break that.
			e.logger.Warn("valid-flagged rule failed to parse, skipping",
				"rule", name,
				"error", err,
			)
			p.skipped = append(p.skipped, name)
			continue
		}
		p.rules = append(p.rules, preparedRule{name: name, tree: tree})
	}

	e.logger.Debug("prepared rule set",
		"evaluable", len(p.rules),
		"skipped", len(p.skipped),
	)
	return p
}

// Evaluate returns the names of violated rules for one transaction, in
// rule set order. Pure function over its inputs; skipped rules never
// appear in the result.
func (p *Prepared) Evaluate(txn rules.TransactionRecord) []string {
	start := time.Now()
	env := BuildEnv(txn)

	var violated []string
	for _, rule := range p.rules {
		if eval.Evaluate(rule.tree, env) {
			violated = append(violated, rule.name)
			if p.engine.metrics != nil {
				p.engine.metrics.RecordViolation(rule.name)
			}
		}
	}

	if p.engine.metrics != nil {
		outcome := "clean"
		if len(violated) > 0 {
			outcome = "violations"
		}
		p.engine.metrics.RecordEvaluation(outcome, time.Since(start))
	}
	return violated
}

// Skipped returns the names of rules excluded from evaluation, in rule
// set order.
func (p *Prepared) Skipped() []string {
	return p.skipped
}

// EvaluateBatch evaluates many transactions by partitioning them across
// workers. Results align index-for-index with txns, identical to
// sequential evaluation. workers <= 0 uses GOMAXPROCS. Returns early
// with ctx.Err() on cancellation; entries not yet evaluated are nil.
func (p *Prepared) EvaluateBatch(ctx context.Context, txns []rules.TransactionRecord, workers int) ([][]string, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(txns) {
		workers = len(txns)
	}

	results := make([][]string, len(txns))
	if len(txns) == 0 {
		return results, nil
	}

	indexes := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				results[i] = p.Evaluate(txns[i])
			}
		}()
	}

	var err error
feed:
	for i := range txns {
		if ctx.Err() != nil {
			err = ctx.Err()
			break
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		case indexes <- i:
		}
	}
	close(indexes)
	wg.Wait()
	return results, err
}

// EvaluateSet is the one-shot form: prepare and evaluate a single
// transaction. Callers with many transactions should Prepare once.
func (e *Engine) EvaluateSet(rs *rules.RuleSet, txn rules.TransactionRecord) []string {
	return e.Prepare(rs).Evaluate(txn)
}

// ruleName picks the reporting name for a rule: name, then description,
// then a fixed placeholder.
func ruleName(rule rules.CompiledRule) string {
	if rule.Name != "" {
		return rule.Name
	}
	if rule.Description != "" {
		return rule.Description
	}
	return "unnamed"
}
