// Vega compiles expense-policy text into machine-checkable rules and
// evaluates transaction records against them.
//
// Usage:
//
//	# Compile a policy file into a rule set
//	vega compile policy.txt --output ruleset.json
//
//	# Check a single condition against the restricted grammar
//	vega check "category == 'Meals' and amount > 75"
//
//	# Evaluate transactions against a compiled rule set
//	vega eval --rules ruleset.json --txns transactions.json
//
//	# Run the policy service: load, watch and store rule sets
//	vega run --config vega.yaml
//
//	# Show version information
//	vega version
package main

func main() {
	Execute()
}
