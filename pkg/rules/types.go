// Package rules defines the data model shared by extraction, compilation
// and evaluation: candidate rules, compiled rules, rule sets and the
// canonical transaction schema.
package rules

import "encoding/json"

// Source identifies which extractor produced a rule set.
type Source string

const (
	SourceHeuristic Source = "heuristic"
	SourceOracle    Source = "oracle"
	SourceFallback  Source = "fallback"
	SourceUpload    Source = "upload"
)

// Confidence grades how trustworthy a compiled rule is.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// CandidateRule is a rule as produced by an extractor, before validation.
// Nothing in a candidate is trusted: the condition may be in the wrong
// dialect, reference unknown fields, or name entities that do not exist.
type CandidateRule struct {
	Name                string     `json:"name"`
	Description         string     `json:"description,omitempty"`
	Condition           string     `json:"condition"`
	Threshold           float64    `json:"threshold"`
	Unit                string     `json:"unit,omitempty"`
	Category            string     `json:"category,omitempty"`
	Scope               string     `json:"scope,omitempty"`
	AppliesWhen         string     `json:"applies_when,omitempty"`
	ViolationMessage    string     `json:"violation_message,omitempty"`
	SourceSentenceIndex int        `json:"source_sentence_index"`
	Confidence          Confidence `json:"confidence,omitempty"` // optional extractor override
}

// CompiledRule is a candidate promoted by the compiler. It carries the
// validation verdicts alongside the original fields and is immutable once
// produced.
type CompiledRule struct {
	Name                  string              `json:"name"`
	Description           string              `json:"description,omitempty"`
	Condition             string              `json:"condition"`
	SQLCondition          string              `json:"sql_condition"`
	Threshold             float64             `json:"threshold"`
	Unit                  string              `json:"unit,omitempty"`
	Category              string              `json:"category,omitempty"`
	Scope                 string              `json:"scope,omitempty"`
	AppliesWhen           string              `json:"applies_when,omitempty"`
	ViolationMessage      string              `json:"violation_message,omitempty"`
	SourceSentenceIndex   int                 `json:"source_sentence_index"`
	ConditionValid        bool                `json:"condition_valid"`
	InvalidFields         []string            `json:"invalid_fields,omitempty"`
	SuggestedFieldMapping map[string]string   `json:"suggested_field_mapping,omitempty"`
	NonEnforceableReasons map[string][]string `json:"non_enforceable_reasons,omitempty"`
	Enforceable           bool                `json:"enforceable"`
	Confidence            Confidence          `json:"confidence"`
}

// PolicyStatement is a cleaned natural-language sentence the oracle routed
// away from enforceable rules. Statements are carried through for callers
// (chat, audit); the engine never interprets them.
type PolicyStatement struct {
	Sentence    string `json:"sentence"`
	SourceIndex int    `json:"source_index"`
}

// RuleSet is the ordered, versioned output of one compilation run. It is
// append-only while the compiler builds it and frozen afterwards: the
// engine and every concurrent evaluator treat it as read-only.
type RuleSet struct {
	Rules            []CompiledRule    `json:"rules"`
	Version          string            `json:"version"`
	Source           Source            `json:"source"`
	Parser           string            `json:"parser"`
	PolicyStatements []PolicyStatement `json:"policy_statements,omitempty"`
}

// EnforceableCount returns the number of enforceable rules. A compiled
// set with zero enforceable rules signals upstream extraction failure and
// is the one condition worth surfacing to an operator.
func (rs *RuleSet) EnforceableCount() int {
	n := 0
	for _, r := range rs.Rules {
		if r.Enforceable {
			n++
		}
	}
	return n
}

// ValidCount returns the number of rules with a parseable condition.
func (rs *RuleSet) ValidCount() int {
	n := 0
	for _, r := range rs.Rules {
		if r.ConditionValid {
			n++
		}
	}
	return n
}

// MarshalIndent renders the rule set as the canonical JSON wire shape.
func (rs *RuleSet) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(rs, "", "  ")
}

// TransactionRecord maps canonical field names to raw values for one
// transaction. Records are transient and owned by the caller; the engine
// copies what it needs during environment preprocessing.
type TransactionRecord map[string]any

// Candidates converts compiled rules back into candidate form, dropping
// the verdict fields. Recompiling the result is the idempotence path for
// already-normalized rule sets.
func (rs *RuleSet) Candidates() []CandidateRule {
	out := make([]CandidateRule, 0, len(rs.Rules))
	for _, r := range rs.Rules {
		out = append(out, CandidateRule{
			Name:                r.Name,
			Description:         r.Description,
			Condition:           r.Condition,
			Threshold:           r.Threshold,
			Unit:                r.Unit,
			Category:            r.Category,
			Scope:               r.Scope,
			AppliesWhen:         r.AppliesWhen,
			ViolationMessage:    r.ViolationMessage,
			SourceSentenceIndex: r.SourceSentenceIndex,
			Confidence:          r.Confidence,
		})
	}
	return out
}
