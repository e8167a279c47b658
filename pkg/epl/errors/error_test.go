package errors

import (
	"strings"
	"testing"
)

func TestError_Format(t *testing.T) {
	err := &Error{
		Type:       ErrorTypeSyntax,
		Message:    "unexpected character '+'",
		Condition:  "amount + 5 > 75",
		Pos:        7,
		Suggestion: "conditions may only use comparisons, and/or/not, identifiers and literals",
	}

	msg := err.Error()
	if !strings.Contains(msg, "[syntax]") {
		t.Errorf("message missing type tag: %q", msg)
	}
	if !strings.Contains(msg, "amount + 5 > 75") {
		t.Errorf("message missing condition text: %q", msg)
	}
	if !strings.Contains(msg, strings.Repeat(" ", 7)+"^") {
		t.Errorf("message missing position caret: %q", msg)
	}
	if !strings.Contains(msg, "suggestion:") {
		t.Errorf("message missing suggestion: %q", msg)
	}
}

func TestError_FormatWithoutPosition(t *testing.T) {
	err := &Error{Type: ErrorTypeSemantic, Message: `unknown field "day_total"`, Pos: -1}
	if msg := err.Error(); strings.Contains(msg, "^") {
		t.Errorf("caret rendered without a position: %q", msg)
	}
}

func TestErrorList_Accumulation(t *testing.T) {
	el := NewErrorList()
	if el.HasErrors() || el.Count() != 0 {
		t.Fatal("new list should be empty")
	}
	if el.ToError() != nil {
		t.Error("ToError() on an empty list should be nil")
	}

	el.AddError(ErrorTypeSemantic, `unknown field "amnt"`)
	el.AddErrorWithSuggestion(ErrorTypeSemantic, `unknown field "day_total"`, `use "amount"`)
	el.Add(&Error{Type: ErrorTypeValidation, Message: `unverified merchant value "Acme"`, Pos: -1})

	if !el.HasErrors() || el.Count() != 3 {
		t.Fatalf("Count() = %d, want 3", el.Count())
	}
	if el.ToError() == nil {
		t.Fatal("ToError() should surface a non-empty list")
	}

	msg := el.Error()
	if !strings.Contains(msg, "found 3 error(s)") {
		t.Errorf("aggregate header missing: %q", msg)
	}
	for _, part := range []string{"amnt", "day_total", "Acme", `use "amount"`} {
		if !strings.Contains(msg, part) {
			t.Errorf("aggregate message missing %q: %q", part, msg)
		}
	}
}

func TestErrorList_HasErrorType(t *testing.T) {
	el := NewErrorList()
	el.AddError(ErrorTypeSemantic, `unknown field "amnt"`)

	if !el.HasErrorType(ErrorTypeSemantic) {
		t.Error("semantic error not reported")
	}
	if el.HasErrorType(ErrorTypeValidation) || el.HasErrorType(ErrorTypeSyntax) {
		t.Error("absent error types reported present")
	}
}
