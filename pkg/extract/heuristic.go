// Package extract turns free-form policy text into candidate rules using
// lightweight regex heuristics. It runs locally, never blocks on external
// services, and is the default extractor when no oracle is configured.
package extract

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"expensehq/vega/pkg/rules"
)

// Scope labels derived from a threshold's unit.
var unitScopes = map[string]string{
	"day":         "per day",
	"night":       "per night",
	"txn":         "per txn",
	"transaction": "per txn",
	"person":      "per person",
}

var (
	// <Category> ... up to|no more than|not exceed|limit of|cap of $N(/unit)?
	capPattern = regexp.MustCompile(
		`(?i)(?P<category>\b[A-Z][a-zA-Z ]{2,30}?\b).*?` +
			`(?:up to|no more than|not exceed|should not exceed|limit of|cap of)\s*` +
			`\$?(?P<threshold>\d+(?:\.\d+)?)` +
			`(?:\s*(?:/|per)?\s*(?P<unit>day|night|txn|transaction|person))?`)

	// Looser scan for "<word> ... $N/day" style mentions, tried only when
	// the primary pattern found nothing.
	simplePattern = regexp.MustCompile(
		`(?i)([A-Za-z]{3,20})[^\n\r]{0,40}?\$([0-9]+(?:\.[0-9]+)?)\s*(?:/|per)?\s*(day|night|person)?`)

	// <Category> not reimbursable|allowed|permitted
	denyPattern = regexp.MustCompile(
		`(?i)(?P<category>\b[A-Z][a-zA-Z ]{2,30}?\b):?\s+not\s+(?:reimbursable|allowed|permitted)`)

	whitespace = regexp.MustCompile(`\s+`)
)

// Heuristic extracts candidate rules from policy text with compiled regex
// patterns. The zero value is not usable; construct with NewHeuristic.
type Heuristic struct {
	logger *slog.Logger
}

// NewHeuristic creates a heuristic extractor.
func NewHeuristic(logger *slog.Logger) *Heuristic {
	if logger == nil {
		logger = slog.Default()
	}
	return &Heuristic{logger: logger.With("component", "extract.heuristic")}
}

// Extract scans the text for threshold caps and deny statements and
// returns the merged candidates. The list is empty when nothing matches;
// substituting fallback rules is the compiler's job, not the extractor's.
func (h *Heuristic) Extract(text string) []rules.CandidateRule {
	t := whitespace.ReplaceAllString(text, " ")

	var out []rules.CandidateRule
	out = append(out, h.extractCaps(t)...)
	if len(out) == 0 {
		out = append(out, h.extractSimpleCaps(t)...)
	}
	out = append(out, h.extractDenials(t)...)

	h.logger.Debug("heuristic extraction finished",
		"text_len", len(text),
		"rule_count", len(out),
	)
	return out
}

// extractCaps finds explicit threshold statements.
func (h *Heuristic) extractCaps(t string) []rules.CandidateRule {
	var out []rules.CandidateRule
	for _, m := range capPattern.FindAllStringSubmatch(t, -1) {
		category := strings.TrimSpace(m[1])
		threshold, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		out = append(out, capRule(category, threshold, scopeFor(m[3])))
	}
	return out
}

// extractSimpleCaps is the looser "$N/day near a word" scan.
func (h *Heuristic) extractSimpleCaps(t string) []rules.CandidateRule {
	var out []rules.CandidateRule
	for _, m := range simplePattern.FindAllStringSubmatch(t, -1) {
		category := strings.TrimSpace(m[1])
		threshold, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		out = append(out, capRule(category, threshold, scopeFor(m[3])))
	}
	if len(out) > 0 {
		h.logger.Debug("loose threshold scan matched", "rule_count", len(out))
	}
	return out
}

// extractDenials finds "not reimbursable" statements and emits
// zero-threshold rules.
func (h *Heuristic) extractDenials(t string) []rules.CandidateRule {
	var out []rules.CandidateRule
	for _, m := range denyPattern.FindAllStringSubmatch(t, -1) {
		category := strings.TrimSpace(m[1])
		condition := fmt.Sprintf("category == '%s'", category)
		out = append(out, rules.CandidateRule{
			Name:             category + " not reimbursable",
			Description:      category + " is not reimbursable",
			Condition:        condition,
			Threshold:        0,
			Unit:             "USD",
			Category:         category,
			Scope:            "per txn",
			AppliesWhen:      "business travel",
			ViolationMessage: category + " is not reimbursable",
		})
	}
	return out
}

func capRule(category string, threshold float64, scope string) rules.CandidateRule {
	return rules.CandidateRule{
		Name:             category + " cap",
		Description:      category + " limit extracted from text",
		Condition:        fmt.Sprintf("category == '%s' and amount > %s", category, formatThreshold(threshold)),
		Threshold:        threshold,
		Unit:             "USD",
		Category:         category,
		Scope:            scope,
		AppliesWhen:      "business travel",
		ViolationMessage: fmt.Sprintf("%s exceeds %s %s", category, formatThreshold(threshold), scope),
	}
}

func scopeFor(unit string) string {
	if unit == "" {
		return "per txn"
	}
	if scope, ok := unitScopes[strings.ToLower(unit)]; ok {
		return scope
	}
	return unit
}

func formatThreshold(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
