package oracle

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"expensehq/vega/pkg/rules"
)

var fencedBlock = regexp.MustCompile("(?is)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// Decode recovers a payload from raw oracle output. Stages, in order:
//
//  1. strict: the whole response is a JSON document
//  2. fenced: the first ```...``` block containing a JSON object
//  3. braces: the first balanced {...} span anywhere in the text
//
// A bare top-level array is wrapped as {"rules": array}. If every stage
// fails the payload has zero rules and ProvenanceNone; decoding never
// returns an error.
func Decode(content string) *Payload {
	if payload, ok := decodeDocument([]byte(content)); ok {
		payload.Provenance = ProvenanceStrict
		return payload
	}

	if m := fencedBlock.FindStringSubmatch(content); m != nil {
		if payload, ok := decodeDocument([]byte(m[1])); ok {
			payload.Provenance = ProvenanceFenced
			return payload
		}
	}

	if span := balancedBraces(content); span != "" {
		if payload, ok := decodeDocument([]byte(span)); ok {
			payload.Provenance = ProvenanceBraces
			return payload
		}
	}

	return &Payload{Provenance: ProvenanceNone}
}

// balancedBraces returns the first balance-matched {...} range in the
// text, or "" when none exists.
func balancedBraces(s string) string {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return ""
	}
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

// decodeDocument decodes a JSON document into a payload. It accepts an
// object with a "rules" array, a bare array of rule objects, an object
// whose first array-of-objects value holds the rules, or a single
// rule-shaped object.
func decodeDocument(data []byte) (*Payload, bool) {
	var top any
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, false
	}

	switch doc := top.(type) {
	case []any:
		return &Payload{Rules: decodeRules(doc)}, true

	case map[string]any:
		payload := &Payload{}

		if raw, ok := doc["rules"].([]any); ok {
			payload.Rules = decodeRules(raw)
		} else if name, cond := doc["name"], doc["condition"]; name != nil && cond != nil {
			// A single rule returned bare.
			payload.Rules = decodeRules([]any{doc})
		} else {
			// Fall back to the first array-of-objects value.
			for _, v := range doc {
				if list, ok := v.([]any); ok && len(list) > 0 {
					if _, isObj := list[0].(map[string]any); isObj {
						payload.Rules = decodeRules(list)
						break
					}
				}
			}
		}

		if raw, ok := doc["policy_statements"].([]any); ok {
			payload.PolicyStatements = decodeStatements(raw)
		}
		if model, ok := doc["version"].(string); ok {
			payload.Model = model
		}
		return payload, true

	default:
		return nil, false
	}
}

// decodeRules coerces loosely-typed rule objects into candidates. Items
// that are not objects, or that lack both name and condition, are dropped.
func decodeRules(items []any) []rules.CandidateRule {
	var out []rules.CandidateRule
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}

		rule := rules.CandidateRule{
			Name:             text(obj, "name"),
			Description:      text(obj, "description"),
			Condition:        text(obj, "condition"),
			Threshold:        number(obj, "threshold"),
			Unit:             text(obj, "unit"),
			Category:         text(obj, "category"),
			Scope:            text(obj, "scope"),
			AppliesWhen:      text(obj, "applies_when"),
			ViolationMessage: text(obj, "violation_message"),
			Confidence:       rules.Confidence(text(obj, "confidence")),
		}

		if idx, ok := integer(obj, "source_sentence_index"); ok {
			rule.SourceSentenceIndex = idx
		} else if idx, ok := integer(obj, "source_index"); ok {
			rule.SourceSentenceIndex = idx
		}

		if rule.Name == "" && rule.Condition == "" {
			continue
		}
		out = append(out, rule)
	}
	return out
}

// decodeStatements accepts either bare strings or {sentence, source_index}
// objects, defaulting source_index to list position.
func decodeStatements(items []any) []rules.PolicyStatement {
	var out []rules.PolicyStatement
	for i, item := range items {
		switch stmt := item.(type) {
		case string:
			out = append(out, rules.PolicyStatement{Sentence: stmt, SourceIndex: i})
		case map[string]any:
			sentence := text(stmt, "sentence")
			if sentence == "" {
				continue
			}
			idx := i
			if n, ok := integer(stmt, "source_index"); ok {
				idx = n
			}
			out = append(out, rules.PolicyStatement{Sentence: sentence, SourceIndex: idx})
		}
	}
	return out
}

func text(obj map[string]any, key string) string {
	if s, ok := obj[key].(string); ok {
		return s
	}
	return ""
}

func number(obj map[string]any, key string) float64 {
	switch v := obj[key].(type) {
	case float64:
		return v
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return 0
}

func integer(obj map[string]any, key string) (int, bool) {
	switch v := obj[key].(type) {
	case float64:
		return int(v), true
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n, true
		}
	}
	return 0, false
}
