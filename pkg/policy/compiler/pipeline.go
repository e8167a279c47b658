package compiler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"expensehq/vega/pkg/extract"
	"expensehq/vega/pkg/extract/oracle"
	"expensehq/vega/pkg/rules"
	"expensehq/vega/pkg/telemetry/metrics"
)

// Extractor preference orderings.
const (
	PreferHeuristic = "heuristic-first"
	PreferOracle    = "oracle-first"
)

// Parser tags recorded on rule sets.
const (
	parserHeuristic = "heuristic"
	parserOracle    = "oracle api"
	parserFallback  = "fallback"
	parserUpload    = "upload"
)

// heuristicVersion tags rule sets whose candidates came from the local
// pattern extractor or the built-in fallback pair.
const heuristicVersion = "1.0"

// Pipeline runs extraction end to end: extractors in preference order,
// then compilation, then the fallback pair when nothing else produced a
// candidate. It never returns an empty rule set for any input.
type Pipeline struct {
	compiler   *Compiler
	heuristic  *extract.Heuristic
	oracle     oracle.Oracle
	preference string
	metrics    *metrics.RuleMetrics
	logger     *slog.Logger
}

// NewPipeline assembles a pipeline. The oracle may be nil (heuristics
// and fallback only); an unknown preference falls back to
// heuristic-first.
func NewPipeline(c *Compiler, h *extract.Heuristic, orc oracle.Oracle, preference string, m *metrics.RuleMetrics, logger *slog.Logger) *Pipeline {
	if preference != PreferOracle {
		preference = PreferHeuristic
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		compiler:   c,
		heuristic:  h,
		oracle:     orc,
		preference: preference,
		metrics:    m,
		logger:     logger.With("component", "policy.pipeline"),
	}
}

// CompileText extracts rules from policy text and compiles them. Every
// failure along the way is local: an oracle transport error or an empty
// extraction falls through to the next stage, and the fallback pair
// guarantees a non-empty result.
func (p *Pipeline) CompileText(ctx context.Context, text string) *rules.RuleSet {
	stages := []func(context.Context, string) *rules.RuleSet{p.tryHeuristic, p.tryOracle}
	if p.preference == PreferOracle {
		stages[0], stages[1] = stages[1], stages[0]
	}

	for _, stage := range stages {
		if rs := stage(ctx, text); rs != nil {
			return rs
		}
	}
	return p.fallback(ctx)
}

// Recompile runs compilation again over an existing rule set, keeping
// its provenance tags and policy statements. Recompiling an
// already-compiled set is idempotent.
func (p *Pipeline) Recompile(ctx context.Context, rs *rules.RuleSet) *rules.RuleSet {
	out := p.compiler.Compile(ctx, rs.Candidates(), rs.Version, rs.Source, rs.Parser)
	out.PolicyStatements = rs.PolicyStatements
	return out
}

// CompileDocument compiles an uploaded JSON policy document: either the
// rule set wire shape {"rules": [...], ...} or a bare array of rules.
// The result is tagged source="upload" regardless of the document's own
// provenance; its version is kept when present.
func (p *Pipeline) CompileDocument(ctx context.Context, data []byte) (*rules.RuleSet, error) {
	version := heuristicVersion
	var candidates []rules.CandidateRule

	var doc rules.RuleSet
	if err := json.Unmarshal(data, &doc); err == nil && len(doc.Rules) > 0 {
		candidates = doc.Candidates()
		if doc.Version != "" {
			version = doc.Version
		}
	} else {
		var bare []rules.CandidateRule
		if err := json.Unmarshal(data, &bare); err != nil {
			return nil, fmt.Errorf("policy document is not valid JSON: %w", err)
		}
		candidates = bare
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("policy document holds no rules")
	}

	p.recordExtraction(string(rules.SourceUpload), len(candidates))
	out := p.compiler.Compile(ctx, candidates, version, rules.SourceUpload, parserUpload)
	out.PolicyStatements = doc.PolicyStatements
	return out, nil
}

func (p *Pipeline) tryHeuristic(ctx context.Context, text string) *rules.RuleSet {
	candidates := p.heuristic.Extract(text)
	p.recordExtraction(string(rules.SourceHeuristic), len(candidates))
	if len(candidates) == 0 {
		return nil
	}
	return p.compiler.Compile(ctx, candidates, heuristicVersion, rules.SourceHeuristic, parserHeuristic)
}

func (p *Pipeline) tryOracle(ctx context.Context, text string) *rules.RuleSet {
	if p.oracle == nil {
		return nil
	}

	payload, err := p.oracle.ExtractRules(ctx, text, rules.CanonicalFields)
	if err != nil {
		p.logger.Warn("oracle extraction failed, continuing without it", "error", err)
		p.recordExtraction(string(rules.SourceOracle), 0)
		return nil
	}
	p.recordExtraction(string(rules.SourceOracle), len(payload.Rules))
	if len(payload.Rules) == 0 {
		return nil
	}

	rs := p.compiler.Compile(ctx, payload.Rules, payload.Model, rules.SourceOracle, parserOracle)
	rs.PolicyStatements = payload.PolicyStatements
	return rs
}

func (p *Pipeline) fallback(ctx context.Context) *rules.RuleSet {
	p.logger.Info("no rules extracted, substituting fallback pair")
	candidates := extract.FallbackRules()
	p.recordExtraction(string(rules.SourceFallback), len(candidates))
	return p.compiler.Compile(ctx, candidates, heuristicVersion, rules.SourceFallback, parserFallback)
}

func (p *Pipeline) recordExtraction(source string, count int) {
	if p.metrics == nil {
		return
	}
	outcome := "rules"
	if count == 0 {
		outcome = "empty"
	}
	p.metrics.RecordExtraction(source, outcome)
}
