// Package epl is the public entry point for the expense policy expression
// dialect (EPL).
//
// EPL is a restricted boolean/comparison language over transaction fields:
//
//	category == 'Meals' and amount > 75
//	not is_fraud
//	(city == 'Lisbon' or city == 'Porto') and amount >= 100
//
// The grammar is a closed set of literals, identifiers, six comparison
// operators and the and/or/not connectives. Anything else fails to parse.
// See the ast, parser, eval and dialect subpackages for the components.
package epl

import (
	"expensehq/vega/pkg/epl/ast"
	"expensehq/vega/pkg/epl/dialect"
	"expensehq/vega/pkg/epl/parser"
)

// Parse parses an EPL condition into its expression tree.
func Parse(condition string) (*ast.Node, error) {
	return parser.NewParser().Parse(condition)
}

// ParseOrRepair parses a condition, and on syntax failure rewrites
// SQL-dialect tokens (`<>`, bare `=`, upper-case AND/OR/NOT) into EPL and
// reparses once. It returns the tree, the condition text that actually
// parsed, and whether repair was applied. A condition that still fails
// after repair returns the parse error of the repaired form.
func ParseOrRepair(condition string) (*ast.Node, string, bool, error) {
	return ParseOrRepairWith(parser.NewParser(), condition)
}

// ParseOrRepairWith is ParseOrRepair using the caller's parser, so a
// configured depth bound applies to both the first parse and the repair
// reparse.
func ParseOrRepairWith(p *parser.Parser, condition string) (*ast.Node, string, bool, error) {
	node, err := p.Parse(condition)
	if err == nil {
		return node, condition, false, nil
	}

	repaired := dialect.FromSQL(condition)
	if repaired == condition {
		return nil, condition, false, err
	}

	node, repErr := p.Parse(repaired)
	if repErr != nil {
		return nil, condition, false, repErr
	}
	return node, repaired, true, nil
}
