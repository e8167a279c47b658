package eval

import (
	"testing"

	"expensehq/vega/pkg/epl/ast"
	"expensehq/vega/pkg/epl/parser"
)

func mustParse(t *testing.T, condition string) *ast.Node {
	t.Helper()
	node, err := parser.NewParser().Parse(condition)
	if err != nil {
		t.Fatalf("Parse(%q) error = %v", condition, err)
	}
	return node
}

func TestEvaluate(t *testing.T) {
	env := Env{
		"category": ast.Text("Meals"),
		"merchant": ast.Text("Bistro Central"),
		"amount":   ast.Number(100),
		"is_fraud": ast.Boolean(false),
	}

	tests := []struct {
		name      string
		condition string
		want      bool
	}{
		{"meal cap violated", "category == 'Meals' and amount > 75", true},
		{"meal cap not violated for lodging", "category == 'Lodging' and amount > 75", false},
		{"or short circuit", "category == 'Lodging' or amount > 75", true},
		{"not equal", "category != 'Lodging'", true},
		{"boundary not exceeded", "amount > 100", false},
		{"boundary inclusive", "amount >= 100", true},
		{"less than", "amount < 200", true},
		{"boolean compare", "is_fraud == False", true},
		{"bare boolean field", "is_fraud", false},
		{"negated boolean field", "not is_fraud", true},
		{"literal to literal", "1 < 2", true},
		{"reversed operands", "'Meals' == category", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(mustParse(t, tt.condition), env); got != tt.want {
				t.Errorf("Evaluate(%q) = %v, want %v", tt.condition, got, tt.want)
			}
		})
	}
}

func TestEvaluate_AbsentAndMismatch(t *testing.T) {
	env := Env{
		"category": ast.Text("Meals"),
		"amount":   ast.Text("not-a-number"),
	}

	tests := []struct {
		name      string
		condition string
		want      bool
	}{
		// Absent identifiers render any comparison false, both polarities.
		{"absent equality", "city == 'Lisbon'", false},
		{"absent inequality", "city != 'Lisbon'", false},
		{"absent ordering", "day_total > 75", false},
		{"absent bare identifier", "day_total", false},
		// Type-incompatible comparisons are false, not errors.
		{"text vs number", "amount > 75", false},
		{"text vs number equality", "amount == 75", false},
		{"text vs boolean", "category == True", false},
		// The conservative branch still composes with and/or.
		{"mismatch under and", "category == 'Meals' and amount > 75", false},
		{"mismatch under or", "category == 'Meals' or amount > 75", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(mustParse(t, tt.condition), env); got != tt.want {
				t.Errorf("Evaluate(%q) = %v, want %v", tt.condition, got, tt.want)
			}
		})
	}
}

func TestEnv_Lookup(t *testing.T) {
	env := Env{
		"Merchant": ast.Text("Acme"),
		"amount":   ast.Number(5),
	}

	// Exact case wins.
	if v := env.Lookup("Merchant"); v.Text != "Acme" {
		t.Errorf("Lookup(Merchant) = %v, want Acme", v)
	}

	// Case-insensitive fallback goes through the lower-cased alias, which
	// the engine inserts during environment preprocessing.
	env["merchant"] = ast.Text("Acme")
	if v := env.Lookup("MERCHANT"); v.Text != "Acme" {
		t.Errorf("Lookup(MERCHANT) = %v, want Acme", v)
	}

	if v := env.Lookup("missing"); !v.IsAbsent() {
		t.Errorf("Lookup(missing) = %v, want absent", v)
	}
}

func TestEvaluate_ReusableTree(t *testing.T) {
	node := mustParse(t, "category == 'Meals' and amount > 75")

	// Parse once, evaluate many: the same tree must give independent
	// results for different environments.
	envs := []struct {
		amount float64
		want   bool
	}{
		{100, true}, {50, false}, {76, true}, {75, false},
	}
	for _, e := range envs {
		env := Env{"category": ast.Text("Meals"), "amount": ast.Number(e.amount)}
		if got := Evaluate(node, env); got != e.want {
			t.Errorf("Evaluate(amount=%v) = %v, want %v", e.amount, got, e.want)
		}
	}
}
