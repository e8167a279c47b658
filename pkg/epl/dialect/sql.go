// Package dialect translates between the EPL expression dialect and the
// equivalent SQL filter dialect.
//
// The translation is purely syntactic token substitution in both
// directions; no semantic reinterpretation happens here. Compiling a valid
// condition to SQL and back yields a condition that evaluates identically.
package dialect

import (
	"regexp"
	"strings"
)

// Token rewrite tables. Order matters: `!=` must be handled before `==`
// when going to SQL, and `<>` before bare `=` when coming back.
var (
	sqlNotEqual   = regexp.MustCompile(`\s*!=\s*`)
	sqlEqual      = regexp.MustCompile(`\s*==\s*`)
	sqlAnd        = regexp.MustCompile(`(?i)\band\b`)
	sqlOr         = regexp.MustCompile(`(?i)\bor\b`)
	sqlNot        = regexp.MustCompile(`(?i)\bnot\b`)
	sqlTrue       = regexp.MustCompile(`\bTrue\b`)
	sqlFalse      = regexp.MustCompile(`\bFalse\b`)
	eplNotEqual   = regexp.MustCompile(`\s*<>\s*`)
	eplAnd        = regexp.MustCompile(`(?i)\bAND\b`)
	eplOr         = regexp.MustCompile(`(?i)\bOR\b`)
	eplNot        = regexp.MustCompile(`(?i)\bNOT\b`)
	whitespaceRun = regexp.MustCompile(`\s+`)
)

// ToSQL converts an EPL condition into the equivalent SQL filter fragment:
// `!=`→`<>`, `==`→`=`, and/or/not (case-insensitive)→AND/OR/NOT,
// True/False→1/0, whitespace collapsed.
func ToSQL(condition string) string {
	if condition == "" {
		return condition
	}

	s := condition
	s = sqlNotEqual.ReplaceAllString(s, " <> ")
	s = sqlEqual.ReplaceAllString(s, " = ")
	s = sqlAnd.ReplaceAllString(s, " AND ")
	s = sqlOr.ReplaceAllString(s, " OR ")
	s = sqlNot.ReplaceAllString(s, " NOT ")
	s = sqlTrue.ReplaceAllString(s, "1")
	s = sqlFalse.ReplaceAllString(s, "0")
	return collapse(s)
}

// FromSQL converts a SQL-style condition into the EPL dialect:
// `<>`→`!=`, bare `=`→`==`, AND/OR/NOT (case-insensitive)→and/or/not,
// whitespace collapsed. It is used for dialect repair when an extractor
// hands back a SQL-flavoured condition.
func FromSQL(condition string) string {
	if condition == "" {
		return condition
	}

	s := condition
	s = eplNotEqual.ReplaceAllString(s, " != ")
	s = replaceBareEquals(s)
	s = eplAnd.ReplaceAllString(s, " and ")
	s = eplOr.ReplaceAllString(s, " or ")
	s = eplNot.ReplaceAllString(s, " not ")
	return collapse(s)
}

// replaceBareEquals rewrites a single `=` to `==` without touching `==`,
// `!=`, `<=` or `>=`. Overlapping matches prevent a plain global replace,
// so the scan is done by hand.
func replaceBareEquals(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '=' {
			sb.WriteByte(c)
			continue
		}
		prevOp := i > 0 && strings.ContainsRune("<>=!", rune(s[i-1]))
		nextEq := i+1 < len(s) && s[i+1] == '='
		if prevOp || nextEq {
			sb.WriteByte(c)
			continue
		}
		sb.WriteString("==")
	}
	return sb.String()
}

// collapse normalizes runs of whitespace to single spaces and trims.
func collapse(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}
