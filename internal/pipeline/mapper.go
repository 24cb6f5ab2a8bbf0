package pipeline

import (
	"fmt"

	apperrors "github.com/moneave/vulnerability-monitor/internal/errors"
)

// FeatureVector is a feature record serialized into the variant's canonical
// feature order, ready for the classifier.
type FeatureVector []float64

// MapFeatures converts a normalized answer set into the variant's feature
// vector. It is total over normalized input: every answer set yields a
// vector or a MappingError (a value whose type cannot be interpreted for its
// slot). Unmapped category strings never error; they take the table's
// fallback code and their field names are returned for logging.
func (v *Variant) MapFeatures(n NormalizedAnswers) (FeatureVector, []string, error) {
	return v.mapFeatures(n)
}

// lookupTable maps lowercase category strings to trained codes. Unknown
// categories resolve to the fallback, the code of the most common answer in
// the training data.
type lookupTable struct {
	codes    map[string]float64
	fallback float64
}

// code resolves a category, reporting whether the fallback was used.
func (t lookupTable) code(s string) (float64, bool) {
	if c, ok := t.codes[s]; ok {
		return c, false
	}
	return t.fallback, true
}

// bucketIndex places x into ordered buckets split at the given upper bounds.
// Buckets are lower-inclusive and upper-exclusive; x below the first bound
// is bucket 1, x at or above the last bound is bucket len(uppers)+1. Total
// over all reals.
func bucketIndex(x float64, uppers ...float64) float64 {
	for i, u := range uppers {
		if x < u {
			return float64(i + 1)
		}
	}
	return float64(len(uppers) + 1)
}

// spendTier grades a monetary amount into tiers with inclusive upper edges:
// an amount exactly at an edge belongs to the lower tier. Tier 1 starts at
// the smallest spend; callers encode "no spend" separately when the trained
// data did.
func spendTier(x float64, uppers ...float64) float64 {
	for i, u := range uppers {
		if x <= u {
			return float64(i + 1)
		}
	}
	return float64(len(uppers) + 1)
}

func bool01(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// numAnswer reads a numeric answer from a normalized set. Values the
// normalizer could not coerce surface here as a MappingError naming the
// field.
func numAnswer(n NormalizedAnswers, field string) (float64, error) {
	val, ok := n[field]
	if !ok {
		return 0, apperrors.NewMappingError(field, fmt.Sprintf("answer %q missing from normalized set", field))
	}
	f, ok := toFloat(val)
	if !ok {
		return 0, apperrors.NewMappingError(field, fmt.Sprintf("answer %q has non-numeric value %v (%T)", field, val, val))
	}
	return f, nil
}

// strAnswer reads a category answer. A non-string value is returned as the
// empty string, which no table maps, so it resolves to the fallback code.
func strAnswer(n NormalizedAnswers, field string) string {
	s, _ := n[field].(string)
	return s
}

// boolAnswer reads a boolean answer. The normalizer guarantees booleans for
// boolean questions; anything else reads as false.
func boolAnswer(n NormalizedAnswers, field string) bool {
	b, _ := n[field].(bool)
	return b
}
