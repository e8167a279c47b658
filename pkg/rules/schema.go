package rules

import "strings"

// CanonicalFields is the authoritative list of transaction attributes a
// condition may reference. Keeping this fixed prevents extractors from
// inventing columns that no evaluation environment will ever contain.
var CanonicalFields = []string{
	"txn_id",
	"employee_id",
	"merchant",
	"city",
	"category",
	"amount",
	"timestamp",
	"channel",
	"card_id",
	"is_fraud",
	"label",
	"merchant_txn_7d",
	"city_distance_km",
}

// FieldSynonyms maps common policy-text terms to the canonical field they
// usually mean. Used to populate suggested_field_mapping for rules that
// reference unknown identifiers.
var FieldSynonyms = map[string]string{
	"day_total":    "amount",
	"nightly_rate": "amount",
	"trip_type":    "category",
}

// NumericFields lists canonical fields the engine coerces to numbers
// during environment preprocessing.
var NumericFields = []string{"amount", "merchant_txn_7d", "city_distance_km", "label"}

// BooleanFields lists canonical fields the engine coerces to booleans.
var BooleanFields = []string{"is_fraud"}

// EntityFields are the fields whose string literals must be validated
// against known domain values before a rule is enforceable.
var EntityFields = map[string]bool{
	"category": true,
	"merchant": true,
	"city":     true,
}

// CategoryValues is the fixed enumeration of expense categories. Category
// literals are checked against this set rather than the resolver.
var CategoryValues = []string{"Meals", "Travel", "Lodging", "Supplies", "Transport", "Other"}

var canonicalSet = func() map[string]bool {
	m := make(map[string]bool, len(CanonicalFields))
	for _, f := range CanonicalFields {
		m[f] = true
	}
	return m
}()

var categorySet = func() map[string]bool {
	m := make(map[string]bool, len(CategoryValues))
	for _, c := range CategoryValues {
		m[c] = true
	}
	return m
}()

// IsCanonicalField reports whether name is a canonical transaction field.
// Matching is case-insensitive to mirror the evaluator's lookup fallback.
func IsCanonicalField(name string) bool {
	return canonicalSet[name] || canonicalSet[strings.ToLower(name)]
}

// IsKnownCategory reports whether value is in the category enumeration.
func IsKnownCategory(value string) bool {
	return categorySet[value]
}
