package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind represents the runtime type of a value in an EPL evaluation.
// EPL has exactly four kinds; there is no array, object or null.
type Kind string

const (
	KindNumber  Kind = "number"
	KindText    Kind = "text"
	KindBoolean Kind = "boolean"

	// KindAbsent marks an identifier that did not resolve in the
	// transaction environment. Any comparison involving an absent value
	// is false; absence is not an error.
	KindAbsent Kind = "absent"
)

// Value is the tagged runtime value used by the evaluator. Only the field
// matching Kind is meaningful.
type Value struct {
	Kind    Kind
	Num     float64
	Text    string
	Boolean bool
}

// Number builds a numeric value.
func Number(v float64) Value { return Value{Kind: KindNumber, Num: v} }

// Text builds a text value.
func Text(s string) Value { return Value{Kind: KindText, Text: s} }

// Boolean builds a boolean value.
func Boolean(b bool) Value { return Value{Kind: KindBoolean, Boolean: b} }

// Absent is the value of an unresolved identifier.
func Absent() Value { return Value{Kind: KindAbsent} }

// IsAbsent returns true for the absent marker.
func (v Value) IsAbsent() bool { return v.Kind == KindAbsent }

// Truthy reports whether a value counts as true when used as a bare
// boolean term. Only Boolean true is truthy; numbers, text and absent
// values are not, so a malformed rule can never fire on a missing field.
func (v Value) Truthy() bool {
	return v.Kind == KindBoolean && v.Boolean
}

// Source renders the value as EPL source text.
func (v Value) Source() string {
	switch v.Kind {
	case KindNumber:
		return formatNumber(v.Num)
	case KindText:
		return "'" + strings.ReplaceAll(v.Text, "'", "\\'") + "'"
	case KindBoolean:
		if v.Boolean {
			return "True"
		}
		return "False"
	default:
		return "<absent>"
	}
}

// String returns a debug representation.
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case KindText:
		return v.Text
	case KindBoolean:
		return strconv.FormatBool(v.Boolean)
	default:
		return "<absent>"
	}
}

// FromAny converts a dynamically-typed transaction value into a tagged
// Value. Unknown Go types are carried as their string form so equality
// against text literals still behaves predictably.
func FromAny(v any) Value {
	switch val := v.(type) {
	case nil:
		return Absent()
	case Value:
		return val
	case bool:
		return Boolean(val)
	case string:
		return Text(val)
	case float64:
		return Number(val)
	case float32:
		return Number(float64(val))
	case int:
		return Number(float64(val))
	case int8:
		return Number(float64(val))
	case int16:
		return Number(float64(val))
	case int32:
		return Number(float64(val))
	case int64:
		return Number(float64(val))
	case uint:
		return Number(float64(val))
	case uint8:
		return Number(float64(val))
	case uint16:
		return Number(float64(val))
	case uint32:
		return Number(float64(val))
	case uint64:
		return Number(float64(val))
	default:
		return Text(fmt.Sprint(v))
	}
}
