// Package compiler promotes candidate rules to compiled rules: it
// repairs and parses conditions, validates identifiers against the
// canonical schema, validates entity literals against known domain
// values, and derives the SQL form of every condition.
//
// Compilation never fails a rule set. A rule that cannot be parsed or
// verified is retained with its verdict fields set so callers can audit
// it; only enforceable rules ever reach the evaluator.
package compiler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/agnivade/levenshtein"

	"expensehq/vega/pkg/epl"
	"expensehq/vega/pkg/epl/dialect"
	eplErrors "expensehq/vega/pkg/epl/errors"
	"expensehq/vega/pkg/epl/parser"
	"expensehq/vega/pkg/resolver"
	"expensehq/vega/pkg/rules"
	"expensehq/vega/pkg/telemetry/metrics"
)

// maxSuggestionDistance bounds how far an unknown identifier may be from
// a canonical field and still earn a suggestion.
const maxSuggestionDistance = 3

// entityCheckOrder fixes the iteration order of entity fields so that
// compiled output is deterministic.
var entityCheckOrder = []string{"category", "merchant", "city"}

// Compiler turns candidates into compiled rules. It is safe for
// concurrent use; all mutable state lives in the per-call outputs.
type Compiler struct {
	parser   *parser.Parser
	resolver resolver.EntityResolver
	metrics  *metrics.RuleMetrics
	logger   *slog.Logger
}

// New creates a compiler. The resolver may be nil, in which case every
// merchant/city literal is treated as unverifiable and the affected
// rules compile non-enforceable. Metrics may be nil.
func New(res resolver.EntityResolver, m *metrics.RuleMetrics, logger *slog.Logger) *Compiler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Compiler{
		parser:   parser.NewParser(),
		resolver: res,
		metrics:  m,
		logger:   logger.With("component", "policy.compiler"),
	}
}

// WithMaxDepth overrides the condition nesting bound. Returns the
// compiler for chaining.
func (c *Compiler) WithMaxDepth(depth int) *Compiler {
	c.parser = c.parser.WithMaxDepth(depth)
	return c
}

// Compile promotes every candidate and assembles the rule set with the
// given provenance tags.
func (c *Compiler) Compile(ctx context.Context, candidates []rules.CandidateRule, version string, source rules.Source, parserTag string) *rules.RuleSet {
	rs := &rules.RuleSet{
		Rules:   make([]rules.CompiledRule, 0, len(candidates)),
		Version: version,
		Source:  source,
		Parser:  parserTag,
	}
	for _, cand := range candidates {
		compiled := c.CompileRule(ctx, cand)
		rs.Rules = append(rs.Rules, compiled)
		if c.metrics != nil {
			c.metrics.RecordCompiledRule(string(source), compiled.Enforceable)
		}
	}

	c.logger.Info("compiled rule set",
		"source", source,
		"version", version,
		"rule_count", len(rs.Rules),
		"valid", rs.ValidCount(),
		"enforceable", rs.EnforceableCount(),
	)
	if rs.EnforceableCount() == 0 && len(rs.Rules) > 0 {
		c.logger.Warn("rule set has no enforceable rules", "source", source)
	}
	return rs
}

// CompileRule promotes a single candidate.
func (c *Compiler) CompileRule(ctx context.Context, cand rules.CandidateRule) rules.CompiledRule {
	out := rules.CompiledRule{
		Name:                cand.Name,
		Description:         cand.Description,
		Condition:           cand.Condition,
		Threshold:           cand.Threshold,
		Unit:                cand.Unit,
		Category:            cand.Category,
		Scope:               cand.Scope,
		AppliesWhen:         cand.AppliesWhen,
		ViolationMessage:    cand.ViolationMessage,
		SourceSentenceIndex: cand.SourceSentenceIndex,
	}

	node, parsedText, repaired, err := epl.ParseOrRepairWith(c.parser, cand.Condition)
	if err != nil {
		c.logger.Debug("condition failed to parse", "rule", cand.Name, "error", err)
		out.ConditionValid = false
		out.SQLCondition = dialect.ToSQL(cand.Condition)
		out.Confidence = effectiveConfidence(cand.Confidence, false)
		return out
	}
	if repaired {
		c.logger.Debug("condition repaired from SQL dialect", "rule", cand.Name, "condition", parsedText)
	}

	out.Condition = parsedText
	out.ConditionValid = true
	out.SQLCondition = dialect.ToSQL(parsedText)

	errs := eplErrors.NewErrorList()
	for _, ident := range node.Identifiers() {
		if rules.IsCanonicalField(ident) {
			continue
		}
		out.InvalidFields = append(out.InvalidFields, ident)
		if suggestion := suggestField(ident); suggestion != "" {
			if out.SuggestedFieldMapping == nil {
				out.SuggestedFieldMapping = make(map[string]string)
			}
			out.SuggestedFieldMapping[ident] = suggestion
			errs.AddErrorWithSuggestion(eplErrors.ErrorTypeSemantic,
				fmt.Sprintf("unknown field %q", ident),
				fmt.Sprintf("use %q", suggestion))
		} else {
			errs.AddError(eplErrors.ErrorTypeSemantic, fmt.Sprintf("unknown field %q", ident))
		}
	}

	c.validateEntityLiterals(ctx, node.FieldLiterals(), &out, errs)

	out.Enforceable = !errs.HasErrors()
	out.Confidence = effectiveConfidence(cand.Confidence, out.Enforceable)

	if err := errs.ToError(); err != nil {
		c.logger.Debug("rule compiled non-enforceable",
			"rule", cand.Name,
			"error_count", errs.Count(),
			"unknown_fields", errs.HasErrorType(eplErrors.ErrorTypeSemantic),
			"unverified_literals", errs.HasErrorType(eplErrors.ErrorTypeValidation),
			"detail", err,
		)
	}
	return out
}

// validateEntityLiterals checks every `field == 'literal'` comparison
// over an entity field. Category literals go against the fixed
// enumeration; merchant and city go against the resolver, failing closed
// when it is absent, erroring, or empty. Rejections land in both the
// rule's non_enforceable_reasons and the error list.
func (c *Compiler) validateEntityLiterals(ctx context.Context, fieldLiterals map[string][]string, out *rules.CompiledRule, errs *eplErrors.ErrorList) {
	lowered := make(map[string][]string, len(fieldLiterals))
	for field, lits := range fieldLiterals {
		key := strings.ToLower(field)
		lowered[key] = append(lowered[key], lits...)
	}

	for _, field := range entityCheckOrder {
		lits := lowered[field]
		if len(lits) == 0 {
			continue
		}

		var rejected []string
		if field == "category" {
			for _, lit := range lits {
				if !rules.IsKnownCategory(lit) {
					rejected = append(rejected, lit)
				}
			}
		} else {
			rejected = c.verifyAgainstResolver(ctx, field, lits)
		}

		if len(rejected) > 0 {
			if out.NonEnforceableReasons == nil {
				out.NonEnforceableReasons = make(map[string][]string)
			}
			out.NonEnforceableReasons[field] = rejected
			for _, lit := range rejected {
				errs.AddError(eplErrors.ErrorTypeValidation,
					fmt.Sprintf("unverified %s value %q", field, lit))
			}
		}
	}
}

// verifyAgainstResolver returns the literals that could not be verified
// for the field. No resolver, a resolver error, or an empty value set
// all reject every literal.
func (c *Compiler) verifyAgainstResolver(ctx context.Context, field string, lits []string) []string {
	if c.resolver == nil {
		return lits
	}
	values, err := c.resolver.DistinctValues(ctx, field, "", 0)
	if err != nil {
		c.logger.Warn("entity resolver unavailable, failing closed", "field", field, "error", err)
		return lits
	}
	if len(values) == 0 {
		return lits
	}

	known := make(map[string]bool, len(values))
	for _, v := range values {
		known[strings.ToLower(v)] = true
	}

	var rejected []string
	for _, lit := range lits {
		if !known[strings.ToLower(lit)] {
			rejected = append(rejected, lit)
		}
	}
	return rejected
}

// suggestField proposes a canonical field for an unknown identifier:
// known synonyms first, then the nearest canonical field by edit
// distance within maxSuggestionDistance.
func suggestField(ident string) string {
	lower := strings.ToLower(ident)
	if canonical, ok := rules.FieldSynonyms[lower]; ok {
		return canonical
	}

	best := ""
	bestDist := maxSuggestionDistance + 1
	for _, field := range rules.CanonicalFields {
		if d := levenshtein.ComputeDistance(lower, field); d < bestDist {
			best = field
			bestDist = d
		}
	}
	return best
}

// effectiveConfidence keeps an extractor override when present,
// otherwise grades by enforceability.
func effectiveConfidence(override rules.Confidence, enforceable bool) rules.Confidence {
	if override != "" {
		return override
	}
	if enforceable {
		return rules.ConfidenceHigh
	}
	return rules.ConfidenceLow
}
