package engine

import (
	"strconv"
	"strings"

	"expensehq/vega/pkg/epl/ast"
	"expensehq/vega/pkg/epl/eval"
	"expensehq/vega/pkg/rules"
)

// Truthy and falsy string encodings accepted for boolean fields.
var (
	boolTrueStrings  = map[string]bool{"1": true, "true": true, "t": true, "yes": true, "y": true}
	boolFalseStrings = map[string]bool{"0": true, "false": true, "f": true, "no": true, "n": true}
)

// BuildEnv turns a transaction record into an evaluation environment:
// every key gets a lower-cased alias, known numeric fields are coerced
// from string encodings, and boolean fields accept common string and
// numeric encodings. Values that resist coercion are left as-is and the
// evaluator's conservative comparison rules take over.
//
// Aliases never clobber: when a record carries both "Amount" and
// "amount", the exact lower-case key wins regardless of map iteration
// order.
func BuildEnv(txn rules.TransactionRecord) eval.Env {
	env := make(eval.Env, len(txn)*2)
	for key, raw := range txn {
		value := ast.FromAny(raw)
		env[key] = value
		lower := strings.ToLower(key)
		if _, ok := env[lower]; !ok {
			env[lower] = value
		}
	}

	for _, field := range rules.NumericFields {
		if value, ok := env[field]; ok && value.Kind == ast.KindText {
			if f, err := strconv.ParseFloat(strings.TrimSpace(value.Text), 64); err == nil {
				env[field] = ast.Number(f)
			}
		}
	}

	for _, field := range rules.BooleanFields {
		value, ok := env[field]
		if !ok {
			continue
		}
		switch value.Kind {
		case ast.KindNumber:
			env[field] = ast.Boolean(value.Num != 0)
		case ast.KindText:
			s := strings.ToLower(strings.TrimSpace(value.Text))
			if boolTrueStrings[s] {
				env[field] = ast.Boolean(true)
			} else if boolFalseStrings[s] {
				env[field] = ast.Boolean(false)
			}
		}
	}

	return env
}
