package compiler

import (
	"context"
	"testing"

	"expensehq/vega/pkg/resolver"
	"expensehq/vega/pkg/rules"
)

func testResolver() resolver.Static {
	return resolver.Static{
		"merchant": {"Hilton", "Delta", "Office Depot"},
		"city":     {"Austin", "Boston", "Lisbon"},
	}
}

func TestCompileRule_Enforceable(t *testing.T) {
	c := New(testResolver(), nil, nil)

	got := c.CompileRule(context.Background(), rules.CandidateRule{
		Name:      "Meal cap",
		Condition: "category == 'Meals' and amount > 75",
		Threshold: 75,
	})

	if !got.ConditionValid {
		t.Fatal("ConditionValid = false, want true")
	}
	if !got.Enforceable {
		t.Fatalf("Enforceable = false: invalid=%v reasons=%v", got.InvalidFields, got.NonEnforceableReasons)
	}
	if got.SQLCondition != "category = 'Meals' AND amount > 75" {
		t.Errorf("SQLCondition = %q", got.SQLCondition)
	}
	if got.Confidence != rules.ConfidenceHigh {
		t.Errorf("Confidence = %q, want high", got.Confidence)
	}
}

func TestCompileRule_DialectRepair(t *testing.T) {
	c := New(testResolver(), nil, nil)

	got := c.CompileRule(context.Background(), rules.CandidateRule{
		Name:      "Meal cap",
		Condition: "category = 'Meals' AND amount > 75",
	})

	if !got.ConditionValid {
		t.Fatal("ConditionValid = false, want repaired parse")
	}
	if got.Condition != "category == 'Meals' and amount > 75" {
		t.Errorf("Condition = %q, want repaired EPL form", got.Condition)
	}
	if !got.Enforceable {
		t.Errorf("Enforceable = false: %+v", got)
	}
}

func TestCompileRule_InvalidCondition(t *testing.T) {
	c := New(testResolver(), nil, nil)

	got := c.CompileRule(context.Background(), rules.CandidateRule{
		Name:      "broken",
		Condition: "amount > SUM(total)",
	})

	if got.ConditionValid {
		t.Error("ConditionValid = true for function call")
	}
	if got.Enforceable {
		t.Error("Enforceable = true for invalid condition")
	}
	if got.Condition != "amount > SUM(total)" {
		t.Errorf("Condition = %q, want original text retained for audit", got.Condition)
	}
	if got.Confidence != rules.ConfidenceLow {
		t.Errorf("Confidence = %q, want low", got.Confidence)
	}
}

func TestCompileRule_UnknownField(t *testing.T) {
	c := New(testResolver(), nil, nil)

	got := c.CompileRule(context.Background(), rules.CandidateRule{
		Name:      "daily total",
		Condition: "day_total > 200",
	})

	if got.Enforceable {
		t.Error("Enforceable = true with unknown field")
	}
	if len(got.InvalidFields) != 1 || got.InvalidFields[0] != "day_total" {
		t.Errorf("InvalidFields = %v", got.InvalidFields)
	}
	if got.SuggestedFieldMapping["day_total"] != "amount" {
		t.Errorf("SuggestedFieldMapping = %v, want day_total->amount synonym", got.SuggestedFieldMapping)
	}
	if !got.ConditionValid {
		t.Error("ConditionValid = false, unknown fields still parse")
	}
}

func TestCompileRule_TypoSuggestion(t *testing.T) {
	c := New(testResolver(), nil, nil)

	got := c.CompileRule(context.Background(), rules.CandidateRule{
		Name:      "typo",
		Condition: "amnt > 50",
	})

	if got.SuggestedFieldMapping["amnt"] != "amount" {
		t.Errorf("SuggestedFieldMapping = %v, want amnt->amount by edit distance", got.SuggestedFieldMapping)
	}
}

func TestCompileRule_UnknownMerchantLiteral(t *testing.T) {
	c := New(testResolver(), nil, nil)

	got := c.CompileRule(context.Background(), rules.CandidateRule{
		Name:      "vendor block",
		Condition: "merchant == 'Acme Corp'",
	})

	if got.Enforceable {
		t.Error("Enforceable = true for unknown merchant")
	}
	reasons := got.NonEnforceableReasons["merchant"]
	if len(reasons) != 1 || reasons[0] != "Acme Corp" {
		t.Errorf("NonEnforceableReasons[merchant] = %v, want [Acme Corp]", reasons)
	}
}

func TestCompileRule_KnownMerchantCaseInsensitive(t *testing.T) {
	c := New(testResolver(), nil, nil)

	got := c.CompileRule(context.Background(), rules.CandidateRule{
		Name:      "vendor",
		Condition: "merchant == 'hilton' and amount > 500",
	})

	if !got.Enforceable {
		t.Errorf("Enforceable = false for known merchant: %v", got.NonEnforceableReasons)
	}
}

func TestCompileRule_ResolverAbsentFailsClosed(t *testing.T) {
	c := New(nil, nil, nil)

	got := c.CompileRule(context.Background(), rules.CandidateRule{
		Name:      "city rule",
		Condition: "city == 'Lisbon'",
	})

	if got.Enforceable {
		t.Error("Enforceable = true with no resolver, want fail-closed")
	}
	if len(got.NonEnforceableReasons["city"]) != 1 {
		t.Errorf("NonEnforceableReasons = %v", got.NonEnforceableReasons)
	}
}

func TestCompileRule_UnknownCategoryLiteral(t *testing.T) {
	c := New(testResolver(), nil, nil)

	got := c.CompileRule(context.Background(), rules.CandidateRule{
		Name:      "alcohol",
		Condition: "category == 'Alcohol'",
	})

	if got.Enforceable {
		t.Error("Enforceable = true for category outside the enumeration")
	}
	if reasons := got.NonEnforceableReasons["category"]; len(reasons) != 1 || reasons[0] != "Alcohol" {
		t.Errorf("NonEnforceableReasons[category] = %v", reasons)
	}
}

func TestCompileRule_ConfidenceOverridePreserved(t *testing.T) {
	c := New(testResolver(), nil, nil)

	got := c.CompileRule(context.Background(), rules.CandidateRule{
		Name:       "Meal cap",
		Condition:  "category == 'Meals' and amount > 75",
		Confidence: rules.ConfidenceMedium,
	})

	if got.Confidence != rules.ConfidenceMedium {
		t.Errorf("Confidence = %q, want extractor override kept", got.Confidence)
	}
}

func TestCompile_Idempotent(t *testing.T) {
	c := New(testResolver(), nil, nil)
	ctx := context.Background()

	candidates := []rules.CandidateRule{
		{Name: "Meal cap", Condition: "category == 'Meals' and amount > 75", Threshold: 75},
		{Name: "vendor block", Condition: "merchant = 'Acme Corp'"},
		{Name: "broken", Condition: "amount + 5 > 10"},
	}

	first := c.Compile(ctx, candidates, "1.0", rules.SourceHeuristic, "heuristic")
	second := c.Compile(ctx, first.Candidates(), first.Version, first.Source, first.Parser)

	a, err := first.MarshalIndent()
	if err != nil {
		t.Fatal(err)
	}
	b, err := second.MarshalIndent()
	if err != nil {
		t.Fatal(err)
	}
	if string(a) != string(b) {
		t.Errorf("recompilation is not byte-identical:\n%s\n---\n%s", a, b)
	}
}
