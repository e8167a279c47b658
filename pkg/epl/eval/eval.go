// Package eval interprets parsed EPL conditions against a transaction
// environment.
//
// The evaluation policy is deliberately conservative: comparisons between
// incompatible kinds evaluate to false instead of raising, and an absent
// identifier makes any comparison involving it false. A rule can therefore
// never crash an evaluation loop, and a missing field can never
// manufacture a violation.
package eval

import (
	"strings"

	"expensehq/vega/pkg/epl/ast"
)

// Env is the identifier environment for one evaluation. Lookup preserves
// case first and falls back to the lower-cased key.
type Env map[string]ast.Value

// Lookup resolves an identifier, returning the absent marker when the
// field is not present under either the exact or lower-cased name.
func (e Env) Lookup(name string) ast.Value {
	if v, ok := e[name]; ok {
		return v
	}
	if v, ok := e[strings.ToLower(name)]; ok {
		return v
	}
	return ast.Absent()
}

// Evaluate interprets a condition tree against the environment. The tree
// is never mutated: one parsed condition can be evaluated concurrently
// against arbitrarily many environments.
func Evaluate(node *ast.Node, env Env) bool {
	switch node.Type {
	case ast.NodeTypeCompare:
		return compare(node.Op, resolve(node.Left, env), resolve(node.Right, env))

	case ast.NodeTypeBoolOp:
		if node.Bool == ast.BoolAnd {
			for _, child := range node.Children {
				if !Evaluate(child, env) {
					return false
				}
			}
			return true
		}
		for _, child := range node.Children {
			if Evaluate(child, env) {
				return true
			}
		}
		return false

	case ast.NodeTypeNot:
		return !Evaluate(node.Operand, env)

	case ast.NodeTypeIdent:
		return env.Lookup(node.Name).Truthy()

	case ast.NodeTypeLiteral:
		return node.Value.Truthy()

	default:
		return false
	}
}

// resolve produces the runtime value of a comparison operand.
func resolve(node *ast.Node, env Env) ast.Value {
	if node.Type == ast.NodeTypeIdent {
		return env.Lookup(node.Name)
	}
	return node.Value
}

// compare applies a comparison operator under the EPL coercion table:
//
//	number  vs number  -> numeric comparison
//	text    vs text    -> equality and lexicographic ordering
//	boolean vs boolean -> equality only (ordering is false)
//	absent  vs anything, or mixed kinds -> false
func compare(op ast.CompareOp, left, right ast.Value) bool {
	if left.IsAbsent() || right.IsAbsent() {
		return false
	}
	if left.Kind != right.Kind {
		return false
	}

	switch left.Kind {
	case ast.KindNumber:
		return compareNumbers(op, left.Num, right.Num)
	case ast.KindText:
		return compareText(op, left.Text, right.Text)
	case ast.KindBoolean:
		switch op {
		case ast.OpEqual:
			return left.Boolean == right.Boolean
		case ast.OpNotEqual:
			return left.Boolean != right.Boolean
		default:
			return false
		}
	default:
		return false
	}
}

func compareNumbers(op ast.CompareOp, left, right float64) bool {
	switch op {
	case ast.OpEqual:
		return left == right
	case ast.OpNotEqual:
		return left != right
	case ast.OpGreaterThan:
		return left > right
	case ast.OpLessThan:
		return left < right
	case ast.OpGreaterEqual:
		return left >= right
	case ast.OpLessEqual:
		return left <= right
	default:
		return false
	}
}

func compareText(op ast.CompareOp, left, right string) bool {
	switch op {
	case ast.OpEqual:
		return left == right
	case ast.OpNotEqual:
		return left != right
	case ast.OpGreaterThan:
		return left > right
	case ast.OpLessThan:
		return left < right
	case ast.OpGreaterEqual:
		return left >= right
	case ast.OpLessEqual:
		return left <= right
	default:
		return false
	}
}
