// Package resolver answers "which values exist for this entity field".
// The compiler uses it to validate rule literals against real data:
// a merchant or city name that never appears in the transaction store
// cannot produce an enforceable rule.
package resolver

import (
	"context"
	"strings"
)

// EntityResolver reports the distinct values observed for an entity
// field. A non-empty query restricts results to values containing that
// substring (case-insensitive); limit > 0 caps the result count.
// Implementations must be safe for concurrent use.
//
// Failure semantics are strict: an error means the answer is unknown,
// not that the field is empty. Callers that validate literals must
// treat an error as "cannot verify" and fail closed.
type EntityResolver interface {
	// DistinctValues returns the distinct values recorded for the field.
	// An empty slice with a nil error means the field genuinely has no
	// matching values.
	DistinctValues(ctx context.Context, field, query string, limit int) ([]string, error)
}

// Static is a fixed in-memory resolver, used in tests and for
// deployments that ship a known entity inventory.
type Static map[string][]string

// DistinctValues implements EntityResolver.
func (s Static) DistinctValues(_ context.Context, field, query string, limit int) ([]string, error) {
	return filterValues(s[field], query, limit), nil
}

// filterValues applies the substring query and limit shared by
// in-memory resolver implementations.
func filterValues(values []string, query string, limit int) []string {
	var out []string
	q := strings.ToLower(query)
	for _, v := range values {
		if q != "" && !strings.Contains(strings.ToLower(v), q) {
			continue
		}
		out = append(out, v)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
