package parser

import (
	"fmt"

	"expensehq/vega/pkg/epl/ast"
	eplErrors "expensehq/vega/pkg/epl/errors"
)

// Parser parses EPL condition strings into expression trees.
//
// The grammar, in precedence order (loosest first):
//
//	condition  = orExpr
//	orExpr     = andExpr { "or" andExpr }
//	andExpr    = notExpr { "and" notExpr }
//	notExpr    = "not" notExpr | primary
//	primary    = "(" orExpr ")" | comparison
//	comparison = operand [ op operand ]
//	operand    = IDENT | NUMBER | STRING | BOOLEAN
//	op         = "==" | "!=" | ">" | "<" | ">=" | "<="
//
// Nothing else is legal: arithmetic, function calls, attribute access and
// chained comparisons all fail to lex or parse.
type Parser struct {
	maxDepth int // Maximum boolean nesting depth (default: 10)
}

// NewParser creates a new parser with default configuration.
func NewParser() *Parser {
	return &Parser{maxDepth: 10}
}

// WithMaxDepth sets the maximum boolean nesting depth.
func (p *Parser) WithMaxDepth(depth int) *Parser {
	p.maxDepth = depth
	return p
}

// Parse parses a condition string and returns the expression tree.
func (p *Parser) Parse(condition string) (*ast.Node, error) {
	tokens, lexErr := lex(condition)
	if lexErr != nil {
		return nil, lexErr
	}

	s := &state{input: condition, tokens: tokens, maxDepth: p.maxDepth}
	node, err := s.parseOr(0)
	if err != nil {
		return nil, err
	}

	if s.peek().typ != tokenEOF {
		return nil, s.errorAt(s.peek(), fmt.Sprintf("unexpected %s after condition", s.peek()),
			"a condition is a single boolean expression")
	}

	return node, nil
}

// state holds the token cursor for a single parse.
type state struct {
	input    string
	tokens   []token
	pos      int
	maxDepth int
}

func (s *state) peek() token {
	return s.tokens[s.pos]
}

func (s *state) next() token {
	t := s.tokens[s.pos]
	if t.typ != tokenEOF {
		s.pos++
	}
	return t
}

func (s *state) parseOr(depth int) (*ast.Node, error) {
	if depth > s.maxDepth {
		return nil, s.errorAt(s.peek(), fmt.Sprintf("condition nesting exceeds maximum depth %d", s.maxDepth), "")
	}

	left, err := s.parseAnd(depth)
	if err != nil {
		return nil, err
	}

	if s.peek().typ != tokenOr {
		return left, nil
	}

	node := &ast.Node{Type: ast.NodeTypeBoolOp, Bool: ast.BoolOr, Children: []*ast.Node{left}}
	for s.peek().typ == tokenOr {
		s.next()
		right, err := s.parseAnd(depth)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, right)
	}
	return node, nil
}

func (s *state) parseAnd(depth int) (*ast.Node, error) {
	left, err := s.parseNot(depth)
	if err != nil {
		return nil, err
	}

	if s.peek().typ != tokenAnd {
		return left, nil
	}

	node := &ast.Node{Type: ast.NodeTypeBoolOp, Bool: ast.BoolAnd, Children: []*ast.Node{left}}
	for s.peek().typ == tokenAnd {
		s.next()
		right, err := s.parseNot(depth)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, right)
	}
	return node, nil
}

func (s *state) parseNot(depth int) (*ast.Node, error) {
	if s.peek().typ == tokenNot {
		s.next()
		operand, err := s.parseNot(depth + 1)
		if err != nil {
			return nil, err
		}
		return &ast.Node{Type: ast.NodeTypeNot, Operand: operand}, nil
	}
	return s.parsePrimary(depth)
}

func (s *state) parsePrimary(depth int) (*ast.Node, error) {
	if s.peek().typ == tokenLParen {
		s.next()
		inner, err := s.parseOr(depth + 1)
		if err != nil {
			return nil, err
		}
		if s.peek().typ != tokenRParen {
			return nil, s.errorAt(s.peek(), fmt.Sprintf("expected closing parenthesis, got %s", s.peek()), "")
		}
		s.next()
		return inner, nil
	}
	return s.parseComparison()
}

// parseComparison parses `operand [op operand]`. A bare operand is legal
// and evaluates by truthiness (boolean fields like is_fraud).
func (s *state) parseComparison() (*ast.Node, error) {
	left, err := s.parseOperand()
	if err != nil {
		return nil, err
	}

	if s.peek().typ != tokenOperator {
		return left, nil
	}

	opTok := s.next()
	op, ok := compareOp(opTok.text)
	if !ok {
		return nil, s.errorAt(opTok, fmt.Sprintf("unsupported operator %q", opTok.text), "")
	}

	right, err := s.parseOperand()
	if err != nil {
		return nil, err
	}

	// Reject chained comparisons (a < b < c): both operands of a compare
	// are literal-or-identifier only.
	if s.peek().typ == tokenOperator {
		return nil, s.errorAt(s.peek(), "chained comparisons are not supported",
			"split into two comparisons joined with `and`")
	}

	return &ast.Node{Type: ast.NodeTypeCompare, Op: op, Left: left, Right: right}, nil
}

func (s *state) parseOperand() (*ast.Node, error) {
	tok := s.next()
	switch tok.typ {
	case tokenIdent:
		return ast.IdentNode(tok.text), nil
	case tokenNumber:
		return ast.NumberNode(tok.num), nil
	case tokenString:
		return ast.TextNode(tok.text), nil
	case tokenBoolean:
		return ast.BooleanNode(tok.text == "True" || tok.text == "true"), nil
	default:
		return nil, s.errorAt(tok, fmt.Sprintf("expected identifier or literal, got %s", tok),
			"comparison operands must be a field name or a literal value")
	}
}

func compareOp(text string) (ast.CompareOp, bool) {
	switch text {
	case "==":
		return ast.OpEqual, true
	case "!=":
		return ast.OpNotEqual, true
	case ">":
		return ast.OpGreaterThan, true
	case "<":
		return ast.OpLessThan, true
	case ">=":
		return ast.OpGreaterEqual, true
	case "<=":
		return ast.OpLessEqual, true
	}
	return "", false
}

func (s *state) errorAt(tok token, message, suggestion string) *eplErrors.Error {
	return &eplErrors.Error{
		Type:       eplErrors.ErrorTypeSyntax,
		Message:    message,
		Condition:  s.input,
		Pos:        tok.pos,
		Suggestion: suggestion,
	}
}
