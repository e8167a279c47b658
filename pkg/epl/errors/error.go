// Package errors defines the error types produced while parsing and
// validating EPL conditions.
package errors

import (
	"fmt"
	"strings"
)

// ErrorType categorizes the type of error encountered during parsing or
// validation of an EPL condition.
type ErrorType string

const (
	ErrorTypeSyntax     ErrorType = "syntax"     // Token or grammar error
	ErrorTypeSemantic   ErrorType = "semantic"   // Unknown field, rejected literal
	ErrorTypeValidation ErrorType = "validation" // Enforceability violation
)

// Error is a rich parse/validation error with the offending position in the
// condition text and an optional suggested fix.
type Error struct {
	Type       ErrorType // Category of error
	Message    string    // Error message
	Condition  string    // Condition text being processed
	Pos        int       // Byte offset into the condition (0-based, -1 if unknown)
	Suggestion string    // Suggested fix (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("[%s] %s", e.Type, e.Message))

	if e.Condition != "" && e.Pos >= 0 && e.Pos <= len(e.Condition) {
		sb.WriteString(fmt.Sprintf("\n  | %s\n  | %s^", e.Condition, strings.Repeat(" ", e.Pos)))
	}

	if e.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("\n  = suggestion: %s", e.Suggestion))
	}

	return sb.String()
}

// ErrorList accumulates multiple errors instead of failing on the first.
type ErrorList struct {
	Errors []*Error
}

// NewErrorList creates a new empty error list.
func NewErrorList() *ErrorList {
	return &ErrorList{Errors: make([]*Error, 0)}
}

// Add appends an error to the list.
func (el *ErrorList) Add(err *Error) {
	el.Errors = append(el.Errors, err)
}

// AddError creates and adds a new error with the given parameters.
func (el *ErrorList) AddError(errType ErrorType, message string) {
	el.Add(&Error{Type: errType, Message: message, Pos: -1})
}

// AddErrorWithSuggestion creates and adds a new error with a suggestion.
func (el *ErrorList) AddErrorWithSuggestion(errType ErrorType, message, suggestion string) {
	el.Add(&Error{Type: errType, Message: message, Pos: -1, Suggestion: suggestion})
}

// HasErrors returns true if the list contains any errors.
func (el *ErrorList) HasErrors() bool {
	return len(el.Errors) > 0
}

// Count returns the number of errors in the list.
func (el *ErrorList) Count() int {
	return len(el.Errors)
}

// Error implements the error interface.
func (el *ErrorList) Error() string {
	if !el.HasErrors() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("found %d error(s):\n", el.Count()))
	for i, err := range el.Errors {
		sb.WriteString(fmt.Sprintf("error %d: %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ToError returns nil if the list is empty, otherwise the list itself.
func (el *ErrorList) ToError() error {
	if !el.HasErrors() {
		return nil
	}
	return el
}

// HasErrorType returns true if the list contains at least one error of the
// given type.
func (el *ErrorList) HasErrorType(errType ErrorType) bool {
	for _, err := range el.Errors {
		if err.Type == errType {
			return true
		}
	}
	return false
}
