// Package store keeps compiled rule sets addressable by identifier.
// The engine itself owns no persistence; stores are injected by the
// surrounding service so API handlers can create, fetch, list and
// delete rule sets without ambient global state.
package store

import (
	"context"
	"errors"
	"time"

	"expensehq/vega/pkg/rules"
)

// ErrNotFound is returned when no rule set has the requested id.
var ErrNotFound = errors.New("rule set not found")

// Entry summarizes a stored rule set for listings.
type Entry struct {
	ID               string       `json:"id"`
	CreatedAt        time.Time    `json:"created_at"`
	Version          string       `json:"version"`
	Source           rules.Source `json:"source"`
	RuleCount        int          `json:"rule_count"`
	EnforceableCount int          `json:"enforceable_count"`
}

// Store is the rule set registry contract. Implementations must be safe
// for concurrent use.
type Store interface {
	// Create persists a rule set and returns its generated id.
	Create(ctx context.Context, rs *rules.RuleSet) (string, error)

	// Get returns the rule set with the given id, or ErrNotFound.
	Get(ctx context.Context, id string) (*rules.RuleSet, error)

	// List returns entries for every stored rule set, oldest first.
	List(ctx context.Context) ([]Entry, error)

	// Delete removes a rule set, or returns ErrNotFound.
	Delete(ctx context.Context, id string) error
}
