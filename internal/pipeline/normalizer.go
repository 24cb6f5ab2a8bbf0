package pipeline

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/moneave/vulnerability-monitor/internal/types"
)

// NormalizedAnswers is a complete answer set: every question the variant
// knows has a value, either the caller's (coerced) or the default.
type NormalizedAnswers map[string]any

type questionKind int

const (
	kindNumber questionKind = iota
	kindCategory
	kindBoolean
)

// question describes one survey field: its value kind and the default used
// when the caller omits it or sends null.
type question struct {
	kind questionKind
	def  any
}

// Normalize fills in defaults for missing or null answers and coerces the
// provided ones into canonical form. It never fails: values that cannot be
// coerced pass through unchanged for the mapper to judge. Unknown keys are
// dropped. Normalize(Normalize(x)) == Normalize(x).
func (v *Variant) Normalize(raw types.RawAnswers) NormalizedAnswers {
	out := make(NormalizedAnswers, len(v.questions))
	for id, q := range v.questions {
		val, ok := raw[id]
		if !ok || val == nil {
			out[id] = q.def
			continue
		}
		out[id] = coerceAnswer(q, val)
	}
	return out
}

func coerceAnswer(q question, val any) any {
	switch q.kind {
	case kindNumber:
		if f, ok := toFloat(val); ok {
			return f
		}
		return val
	case kindCategory:
		if s, ok := val.(string); ok {
			return strings.ToLower(strings.TrimSpace(s))
		}
		return val
	case kindBoolean:
		if b, ok := toBool(val); ok {
			return b
		}
		return q.def
	}
	return val
}

// toFloat accepts the numeric shapes a JSON body or Go caller can produce.
func toFloat(val any) (float64, bool) {
	switch v := val.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

// toBool accepts booleans, numbers (nonzero is true) and the affirmative and
// negative spellings the survey frontend has historically sent.
func toBool(val any) (bool, bool) {
	switch v := val.(type) {
	case bool:
		return v, true
	case float64:
		return v != 0, true
	case int:
		return v != 0, true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return false, false
		}
		return f != 0, true
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "t", "1", "si", "sí", "yes", "y":
			return true, true
		case "false", "f", "0", "no", "n", "":
			return false, true
		}
	}
	return false, false
}
