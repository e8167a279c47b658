package extract

import "expensehq/vega/pkg/rules"

// FallbackRules returns the built-in rule pair substituted when extraction
// finds nothing: a meal cap and a lodging nightly cap. Trading false
// positives for availability keeps the pipeline from ever emitting an
// empty rule set for non-trivial input.
func FallbackRules() []rules.CandidateRule {
	return []rules.CandidateRule{
		{
			Name:             "Meal cap",
			Description:      "Meals should not exceed $75 per person",
			Condition:        "category == 'Meals' and amount > 75",
			Threshold:        75,
			Unit:             "USD",
			Category:         "Meals",
			Scope:            "per txn",
			AppliesWhen:      "business travel",
			ViolationMessage: "Meal exceeds $75 limit",
		},
		{
			Name:             "Lodging nightly cap",
			Description:      "Hotel nightly rate should not exceed $300",
			Condition:        "category == 'Lodging' and amount > 300",
			Threshold:        300,
			Unit:             "USD",
			Category:         "Lodging",
			Scope:            "per night",
			AppliesWhen:      "business travel",
			ViolationMessage: "Hotel rate exceeds $300/night",
		},
	}
}
