// Package ast defines the intermediate representation for EPL conditions.
//
// An EPL condition parses into a small tagged-union tree (Compare, BoolOp,
// Not, Ident, Literal). The representation is deliberately closed: there is
// no node for arithmetic, function calls, attribute access or indexing, so
// unsupported constructs are rejected at parse time rather than detected
// during evaluation.
//
// Runtime values are tagged (Number, Text, Boolean, Absent). Absent is the
// value of an identifier that did not resolve in the transaction
// environment; it participates in comparisons by making them false instead
// of raising an error.
package ast
