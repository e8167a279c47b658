package ast

import (
	"strconv"
	"strings"
)

// NodeType represents the kind of expression node in an EPL condition.
type NodeType string

const (
	NodeTypeCompare NodeType = "compare" // operand op operand
	NodeTypeBoolOp  NodeType = "boolop"  // and / or over children
	NodeTypeNot     NodeType = "not"     // unary not
	NodeTypeIdent   NodeType = "ident"   // transaction field reference
	NodeTypeLiteral NodeType = "literal" // number, string or boolean constant
)

// CompareOp represents a comparison operator in an EPL condition.
type CompareOp string

const (
	OpEqual        CompareOp = "=="
	OpNotEqual     CompareOp = "!="
	OpGreaterThan  CompareOp = ">"
	OpLessThan     CompareOp = "<"
	OpGreaterEqual CompareOp = ">="
	OpLessEqual    CompareOp = "<="
)

// BoolOp represents a boolean connective in an EPL condition.
type BoolOp string

const (
	BoolAnd BoolOp = "and"
	BoolOr  BoolOp = "or"
)

// Node is the tagged-union intermediate representation of an EPL condition.
// The grammar is closed: a node is exactly one of Compare, BoolOp, Not,
// Ident or Literal, and unsupported constructs cannot be represented.
type Node struct {
	Type NodeType

	// Compare fields
	Op    CompareOp // comparison operator
	Left  *Node     // left operand (Ident or Literal)
	Right *Node     // right operand (Ident or Literal)

	// BoolOp fields
	Bool     BoolOp  // and / or
	Children []*Node // two or more operands

	// Not field
	Operand *Node

	// Ident field
	Name string

	// Literal field
	Value Value
}

// IsOperand returns true if the node can appear as a comparison operand.
func (n *Node) IsOperand() bool {
	return n.Type == NodeTypeIdent || n.Type == NodeTypeLiteral
}

// Identifiers returns the set of free identifiers referenced by the
// expression, in first-appearance order.
func (n *Node) Identifiers() []string {
	var ids []string
	seen := make(map[string]bool)
	n.walk(func(node *Node) {
		if node.Type == NodeTypeIdent && !seen[node.Name] {
			seen[node.Name] = true
			ids = append(ids, node.Name)
		}
	})
	return ids
}

// FieldLiterals returns, for every comparison of the shape
// `field == 'literal'` or `'literal' == field` (and their != variants),
// the string literals used with each field name.
func (n *Node) FieldLiterals() map[string][]string {
	out := make(map[string][]string)
	n.walk(func(node *Node) {
		if node.Type != NodeTypeCompare {
			return
		}
		if node.Op != OpEqual && node.Op != OpNotEqual {
			return
		}
		left, right := node.Left, node.Right
		if left.Type == NodeTypeIdent && right.Type == NodeTypeLiteral && right.Value.Kind == KindText {
			out[left.Name] = append(out[left.Name], right.Value.Text)
		}
		if left.Type == NodeTypeLiteral && left.Value.Kind == KindText && right.Type == NodeTypeIdent {
			out[right.Name] = append(out[right.Name], left.Value.Text)
		}
	})
	if len(out) == 0 {
		return nil
	}
	return out
}

// walk visits the node and all descendants in depth-first order.
func (n *Node) walk(visit func(*Node)) {
	if n == nil {
		return
	}
	visit(n)
	n.Left.walk(visit)
	n.Right.walk(visit)
	n.Operand.walk(visit)
	for _, child := range n.Children {
		child.walk(visit)
	}
}

// String renders the node back to canonical EPL source text.
// Rendering a parsed condition and reparsing it yields an equal tree.
func (n *Node) String() string {
	var sb strings.Builder
	n.render(&sb, false)
	return sb.String()
}

// render writes source text, parenthesizing boolean groups when they appear
// inside another connective so precedence survives the round trip.
func (n *Node) render(sb *strings.Builder, nested bool) {
	switch n.Type {
	case NodeTypeCompare:
		n.Left.render(sb, true)
		sb.WriteByte(' ')
		sb.WriteString(string(n.Op))
		sb.WriteByte(' ')
		n.Right.render(sb, true)

	case NodeTypeBoolOp:
		if nested {
			sb.WriteByte('(')
		}
		for i, child := range n.Children {
			if i > 0 {
				sb.WriteByte(' ')
				sb.WriteString(string(n.Bool))
				sb.WriteByte(' ')
			}
			child.render(sb, true)
		}
		if nested {
			sb.WriteByte(')')
		}

	case NodeTypeNot:
		sb.WriteString("not ")
		n.Operand.render(sb, true)

	case NodeTypeIdent:
		sb.WriteString(n.Name)

	case NodeTypeLiteral:
		sb.WriteString(n.Value.Source())
	}
}

// NumberNode builds a numeric literal node.
func NumberNode(v float64) *Node {
	return &Node{Type: NodeTypeLiteral, Value: Number(v)}
}

// TextNode builds a string literal node.
func TextNode(s string) *Node {
	return &Node{Type: NodeTypeLiteral, Value: Text(s)}
}

// BooleanNode builds a boolean literal node.
func BooleanNode(b bool) *Node {
	return &Node{Type: NodeTypeLiteral, Value: Boolean(b)}
}

// IdentNode builds an identifier node.
func IdentNode(name string) *Node {
	return &Node{Type: NodeTypeIdent, Name: name}
}

// formatNumber renders a float without a trailing ".0" for integral values,
// matching how thresholds are written in policy text.
func formatNumber(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
