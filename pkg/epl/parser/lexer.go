package parser

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	eplErrors "expensehq/vega/pkg/epl/errors"
)

// tokenType identifies a lexical token in an EPL condition.
type tokenType int

const (
	tokenEOF tokenType = iota
	tokenIdent
	tokenNumber
	tokenString
	tokenBoolean
	tokenOperator // == != > < >= <=
	tokenAnd
	tokenOr
	tokenNot
	tokenLParen
	tokenRParen
)

// token is a single lexical token with its position in the source text.
type token struct {
	typ  tokenType
	text string
	num  float64
	pos  int
}

func (t token) String() string {
	if t.typ == tokenEOF {
		return "end of condition"
	}
	return fmt.Sprintf("%q", t.text)
}

// lex tokenizes a condition string. The token set is closed: any character
// sequence outside it is a syntax error, which is how constructs like
// arithmetic (+, *), attribute access (.) and function calls are rejected
// before they can reach the evaluator.
func lex(input string) ([]token, *eplErrors.Error) {
	var tokens []token
	i := 0

	for i < len(input) {
		c := input[i]

		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++

		case c == '(':
			tokens = append(tokens, token{typ: tokenLParen, text: "(", pos: i})
			i++

		case c == ')':
			tokens = append(tokens, token{typ: tokenRParen, text: ")", pos: i})
			i++

		case c == '\'' || c == '"':
			str, next, err := lexString(input, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{typ: tokenString, text: str, pos: i})
			i = next

		case c == '=' || c == '!' || c == '<' || c == '>':
			op, next, err := lexOperator(input, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{typ: tokenOperator, text: op, pos: i})
			i = next

		case c >= '0' && c <= '9':
			start := i
			for i < len(input) && (input[i] >= '0' && input[i] <= '9' || input[i] == '.') {
				i++
			}
			text := input[start:i]
			num, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, &eplErrors.Error{
					Type:      eplErrors.ErrorTypeSyntax,
					Message:   fmt.Sprintf("invalid number %q", text),
					Condition: input,
					Pos:       start,
				}
			}
			tokens = append(tokens, token{typ: tokenNumber, text: text, num: num, pos: start})

		case isIdentStart(rune(c)):
			start := i
			for i < len(input) && isIdentPart(rune(input[i])) {
				i++
			}
			word := input[start:i]
			tokens = append(tokens, keywordToken(word, start))

		default:
			// Decode the full rune so a multi-byte character reports as
			// itself, not as its first byte.
			r, _ := utf8.DecodeRuneInString(input[i:])
			return nil, &eplErrors.Error{
				Type:       eplErrors.ErrorTypeSyntax,
				Message:    fmt.Sprintf("unexpected character %q", string(r)),
				Condition:  input,
				Pos:        i,
				Suggestion: "conditions may only use comparisons, and/or/not, identifiers and literals",
			}
		}
	}

	tokens = append(tokens, token{typ: tokenEOF, pos: len(input)})
	return tokens, nil
}

// lexString consumes a quoted string starting at input[start].
// Backslash escapes the quote character.
func lexString(input string, start int) (string, int, *eplErrors.Error) {
	quote := input[start]
	var sb strings.Builder
	i := start + 1

	for i < len(input) {
		c := input[i]
		if c == '\\' && i+1 < len(input) && (input[i+1] == quote || input[i+1] == '\\') {
			sb.WriteByte(input[i+1])
			i += 2
			continue
		}
		if c == quote {
			return sb.String(), i + 1, nil
		}
		sb.WriteByte(c)
		i++
	}

	return "", 0, &eplErrors.Error{
		Type:      eplErrors.ErrorTypeSyntax,
		Message:   "unterminated string literal",
		Condition: input,
		Pos:       start,
	}
}

// lexOperator consumes a comparison operator starting at input[start].
// A bare `=` or `<>` is a syntax error here; dialect repair rewrites those
// before reparsing.
func lexOperator(input string, start int) (string, int, *eplErrors.Error) {
	two := ""
	if start+2 <= len(input) {
		two = input[start : start+2]
	}
	switch two {
	case "==", "!=", ">=", "<=":
		return two, start + 2, nil
	}

	switch input[start] {
	case '>', '<':
		return string(input[start]), start + 1, nil
	}

	return "", 0, &eplErrors.Error{
		Type:       eplErrors.ErrorTypeSyntax,
		Message:    fmt.Sprintf("invalid operator starting at %q", string(input[start])),
		Condition:  input,
		Pos:        start,
		Suggestion: "use ==, !=, >, <, >= or <=",
	}
}

// keywordToken classifies an identifier-shaped word.
func keywordToken(word string, pos int) token {
	switch word {
	case "and":
		return token{typ: tokenAnd, text: word, pos: pos}
	case "or":
		return token{typ: tokenOr, text: word, pos: pos}
	case "not":
		return token{typ: tokenNot, text: word, pos: pos}
	case "True", "true":
		return token{typ: tokenBoolean, text: word, pos: pos}
	case "False", "false":
		return token{typ: tokenBoolean, text: word, pos: pos}
	default:
		return token{typ: tokenIdent, text: word, pos: pos}
	}
}

// Identifiers are ASCII words: the canonical schema fields are ASCII,
// and keeping the lexer byte-wise means non-ASCII input always lands in
// the unexpected-character path with a proper rune decode.
func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || (r >= '0' && r <= '9')
}
