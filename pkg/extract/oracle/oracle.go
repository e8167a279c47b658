// Package oracle adapts an external LLM extraction service into candidate
// rules.
//
// The oracle contract: given policy text and the canonical field list, the
// service returns one JSON object {"rules": [...], "policy_statements":
// [...]} that only uses permitted field names in conditions, routing any
// statement about unknown entities into policy_statements. Nothing about
// the response is trusted: decoding is defensive (strict JSON, then fenced
// code block, then balanced-brace scan) and an undecodable response
// degrades to zero rules rather than an error.
package oracle

import (
	"context"

	"expensehq/vega/pkg/rules"
)

// Provenance records which decoding stage recovered the payload, for
// auditability of oracle responses.
type Provenance string

const (
	ProvenanceStrict Provenance = "strict" // full response parsed as JSON
	ProvenanceFenced Provenance = "fenced" // JSON inside a fenced code block
	ProvenanceBraces Provenance = "braces" // first balanced {...} span
	ProvenanceNone   Provenance = "none"   // nothing decodable, zero rules
)

// Payload is the normalized result of one oracle round trip.
type Payload struct {
	Rules            []rules.CandidateRule
	PolicyStatements []rules.PolicyStatement
	Model            string
	Provenance       Provenance
}

// Oracle is the extraction collaborator. Implementations make one
// synchronous round trip; timeouts and retries are the caller's
// responsibility via ctx.
type Oracle interface {
	// ExtractRules asks the oracle to extract rules from policy text,
	// constrained to the allowed field list. A transport failure is an
	// error; a malformed response is not (it returns zero rules).
	ExtractRules(ctx context.Context, policyText string, allowedFields []string) (*Payload, error)
}
