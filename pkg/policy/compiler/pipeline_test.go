package compiler

import (
	"context"
	"errors"
	"testing"

	"expensehq/vega/pkg/extract"
	"expensehq/vega/pkg/extract/oracle"
	"expensehq/vega/pkg/rules"
)

type stubOracle struct {
	payload *oracle.Payload
	err     error
	calls   int
}

func (s *stubOracle) ExtractRules(context.Context, string, []string) (*oracle.Payload, error) {
	s.calls++
	return s.payload, s.err
}

func newTestPipeline(orc oracle.Oracle, preference string) *Pipeline {
	c := New(testResolver(), nil, nil)
	return NewPipeline(c, extract.NewHeuristic(nil), orc, preference, nil, nil)
}

func TestPipeline_HeuristicFirst(t *testing.T) {
	orc := &stubOracle{payload: &oracle.Payload{Model: "gpt-5-mini"}}
	p := newTestPipeline(orc, PreferHeuristic)

	rs := p.CompileText(context.Background(), "Meals: up to $75 per day.")
	if rs.Source != rules.SourceHeuristic {
		t.Errorf("Source = %q, want heuristic", rs.Source)
	}
	if rs.Version != "1.0" || rs.Parser != "heuristic" {
		t.Errorf("tags = %q/%q", rs.Version, rs.Parser)
	}
	if orc.calls != 0 {
		t.Errorf("oracle consulted %d times, want 0 when heuristics matched", orc.calls)
	}
}

func TestPipeline_OracleWhenHeuristicsEmpty(t *testing.T) {
	orc := &stubOracle{payload: &oracle.Payload{
		Model: "gpt-5-mini",
		Rules: []rules.CandidateRule{
			{Name: "Meal cap", Condition: "category == 'Meals' and amount > 75"},
		},
		PolicyStatements: []rules.PolicyStatement{{Sentence: "Submit receipts promptly.", SourceIndex: 0}},
	}}
	p := newTestPipeline(orc, PreferHeuristic)

	rs := p.CompileText(context.Background(), "Please be reasonable about spending.")
	if rs.Source != rules.SourceOracle {
		t.Fatalf("Source = %q, want oracle", rs.Source)
	}
	if rs.Version != "gpt-5-mini" {
		t.Errorf("Version = %q, want oracle model identifier", rs.Version)
	}
	if rs.Parser != "oracle api" {
		t.Errorf("Parser = %q", rs.Parser)
	}
	if len(rs.PolicyStatements) != 1 {
		t.Errorf("PolicyStatements = %v, want carried through", rs.PolicyStatements)
	}
}

func TestPipeline_OracleFirst(t *testing.T) {
	orc := &stubOracle{payload: &oracle.Payload{
		Model: "gpt-5-mini",
		Rules: []rules.CandidateRule{
			{Name: "Transport cap", Condition: "category == 'Transport' and amount > 40"},
		},
	}}
	p := newTestPipeline(orc, PreferOracle)

	// Text the heuristics would also match; oracle must win.
	rs := p.CompileText(context.Background(), "Meals: up to $75 per day.")
	if rs.Source != rules.SourceOracle {
		t.Errorf("Source = %q, want oracle under oracle-first", rs.Source)
	}
	if orc.calls != 1 {
		t.Errorf("oracle calls = %d, want 1", orc.calls)
	}
}

func TestPipeline_FallbackOnEmptyText(t *testing.T) {
	for _, text := range []string{"", "Be sensible.", "no thresholds here"} {
		p := newTestPipeline(nil, PreferHeuristic)

		rs := p.CompileText(context.Background(), text)
		if rs.Source != rules.SourceFallback {
			t.Fatalf("CompileText(%q) source = %q, want fallback", text, rs.Source)
		}
		if len(rs.Rules) != 2 {
			t.Fatalf("fallback rule count = %d, want exactly 2", len(rs.Rules))
		}
		if rs.Rules[0].Name != "Meal cap" || rs.Rules[0].Threshold != 75 {
			t.Errorf("first fallback = %+v", rs.Rules[0])
		}
		if rs.Rules[1].Name != "Lodging nightly cap" || rs.Rules[1].Threshold != 300 {
			t.Errorf("second fallback = %+v", rs.Rules[1])
		}
	}
}

func TestPipeline_OracleTransportErrorFallsThrough(t *testing.T) {
	orc := &stubOracle{err: errors.New("connection refused")}
	p := newTestPipeline(orc, PreferOracle)

	rs := p.CompileText(context.Background(), "Meals: up to $75 per day.")
	if rs.Source != rules.SourceHeuristic {
		t.Errorf("Source = %q, want heuristic after oracle failure", rs.Source)
	}
}

func TestPipeline_Recompile(t *testing.T) {
	p := newTestPipeline(nil, PreferHeuristic)
	ctx := context.Background()

	first := p.CompileText(ctx, "Meals: up to $75 per day. Lodging should not exceed $300/night.")
	second := p.Recompile(ctx, first)

	a, _ := first.MarshalIndent()
	b, _ := second.MarshalIndent()
	if string(a) != string(b) {
		t.Errorf("Recompile() not idempotent:\n%s\n---\n%s", a, b)
	}
}

func TestPipeline_CompileDocument(t *testing.T) {
	p := newTestPipeline(nil, PreferHeuristic)

	doc := []byte(`{
		"rules": [
			{"name": "Meal cap", "condition": "category == 'Meals' and amount > 75", "threshold": 75, "enforceable": true, "condition_valid": true}
		],
		"version": "2.3",
		"source": "oracle",
		"parser": "oracle api"
	}`)

	rs, err := p.CompileDocument(context.Background(), doc)
	if err != nil {
		t.Fatalf("CompileDocument() error = %v", err)
	}
	if rs.Source != rules.SourceUpload {
		t.Errorf("Source = %q, want upload", rs.Source)
	}
	if rs.Version != "2.3" {
		t.Errorf("Version = %q, want document version kept", rs.Version)
	}
	if len(rs.Rules) != 1 || !rs.Rules[0].Enforceable {
		t.Errorf("rules = %+v", rs.Rules)
	}
}

func TestPipeline_CompileDocument_BareArray(t *testing.T) {
	p := newTestPipeline(nil, PreferHeuristic)

	doc := []byte(`[{"name": "Meal cap", "condition": "amount > 75"}]`)
	rs, err := p.CompileDocument(context.Background(), doc)
	if err != nil {
		t.Fatalf("CompileDocument() error = %v", err)
	}
	if len(rs.Rules) != 1 || rs.Parser != "upload" {
		t.Errorf("rules = %d, parser = %q", len(rs.Rules), rs.Parser)
	}
}

func TestPipeline_CompileDocument_Invalid(t *testing.T) {
	p := newTestPipeline(nil, PreferHeuristic)

	for _, doc := range []string{"not json", "{}", "[]"} {
		if _, err := p.CompileDocument(context.Background(), []byte(doc)); err == nil {
			t.Errorf("CompileDocument(%q) succeeded, want error", doc)
		}
	}
}
