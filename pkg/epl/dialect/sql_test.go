package dialect

import (
	"fmt"
	"math/rand"
	"testing"

	"expensehq/vega/pkg/epl/ast"
	"expensehq/vega/pkg/epl/eval"
	"expensehq/vega/pkg/epl/parser"
)

func TestToSQL(t *testing.T) {
	tests := []struct {
		name      string
		condition string
		want      string
	}{
		{
			name:      "equality and threshold",
			condition: "category == 'Meals' and amount > 75",
			want:      "category = 'Meals' AND amount > 75",
		},
		{
			name:      "not equal",
			condition: "category != 'Meals'",
			want:      "category <> 'Meals'",
		},
		{
			name:      "booleans become integers",
			condition: "is_fraud == True or is_flagged == False",
			want:      "is_fraud = 1 OR is_flagged = 0",
		},
		{
			name:      "case insensitive connectives",
			condition: "a == 1 AND b == 2 Or c == 3",
			want:      "a = 1 AND b = 2 OR c = 3",
		},
		{
			name:      "whitespace collapsed",
			condition: "amount   >    75",
			want:      "amount > 75",
		},
		{
			name:      "empty passthrough",
			condition: "",
			want:      "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToSQL(tt.condition); got != tt.want {
				t.Errorf("ToSQL(%q) = %q, want %q", tt.condition, got, tt.want)
			}
		})
	}
}

func TestFromSQL(t *testing.T) {
	tests := []struct {
		name      string
		condition string
		want      string
	}{
		{
			name:      "sql equality",
			condition: "category = 'Meals' AND amount > 75",
			want:      "category == 'Meals' and amount > 75",
		},
		{
			name:      "sql not equal",
			condition: "category <> 'Meals'",
			want:      "category != 'Meals'",
		},
		{
			name:      "mixed case connectives",
			condition: "a = 1 And b = 2 oR c = 3",
			want:      "a == 1 and b == 2 or c == 3",
		},
		{
			name:      "existing epl operators untouched",
			condition: "category == 'Meals' and amount >= 75",
			want:      "category == 'Meals' and amount >= 75",
		},
		{
			name:      "comparison operators preserved",
			condition: "amount <= 10 AND amount >= 5 AND amount != 7",
			want:      "amount <= 10 and amount >= 5 and amount != 7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromSQL(tt.condition); got != tt.want {
				t.Errorf("FromSQL(%q) = %q, want %q", tt.condition, got, tt.want)
			}
		})
	}
}

// TestRoundTripEquivalence is a property-style test: for generated
// conditions over ==, !=, and, or with literal/identifier operands,
// translating to SQL and back must preserve the evaluation result for
// every generated value assignment.
func TestRoundTripEquivalence(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	fields := []string{"category", "merchant", "city", "amount", "channel"}
	texts := []string{"Meals", "Lodging", "Acme", "Lisbon", "online"}

	genLeaf := func() string {
		field := fields[rng.Intn(len(fields))]
		op := []string{"==", "!="}[rng.Intn(2)]
		if rng.Intn(2) == 0 {
			return fmt.Sprintf("%s %s '%s'", field, op, texts[rng.Intn(len(texts))])
		}
		return fmt.Sprintf("%s %s %d", field, op, rng.Intn(5))
	}

	genEnv := func() eval.Env {
		env := eval.Env{}
		for _, f := range fields {
			if rng.Intn(4) == 0 {
				continue // leave some fields absent
			}
			if rng.Intn(2) == 0 {
				env[f] = ast.Text(texts[rng.Intn(len(texts))])
			} else {
				env[f] = ast.Number(float64(rng.Intn(5)))
			}
		}
		return env
	}

	for i := 0; i < 200; i++ {
		cond := genLeaf()
		for d := rng.Intn(4); d > 0; d-- {
			conn := []string{"and", "or"}[rng.Intn(2)]
			cond = fmt.Sprintf("%s %s %s", cond, conn, genLeaf())
		}

		orig, err := parser.NewParser().Parse(cond)
		if err != nil {
			t.Fatalf("generated condition %q failed to parse: %v", cond, err)
		}

		back := FromSQL(ToSQL(cond))
		round, err := parser.NewParser().Parse(back)
		if err != nil {
			t.Fatalf("round-tripped condition %q (from %q) failed to parse: %v", back, cond, err)
		}

		for j := 0; j < 10; j++ {
			env := genEnv()
			got, want := eval.Evaluate(round, env), eval.Evaluate(orig, env)
			if got != want {
				t.Fatalf("round trip changed semantics for %q -> %q under %v: got %v, want %v",
					cond, back, env, got, want)
			}
		}
	}
}
