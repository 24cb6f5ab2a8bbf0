package pipeline

import (
	"log/slog"

	"github.com/moneave/vulnerability-monitor/internal/types"
)

// Options configures pipeline construction.
type Options struct {
	// ModelDir holds the serialized model and threshold artifacts.
	ModelDir string

	// Variant selects the trained target; nil means V1.
	Variant *Variant

	// Logger receives fallback and scoring logs; nil means slog.Default.
	Logger *slog.Logger

	// OnFallback, when set, is invoked once per field that resolved to a
	// fallback category code. Used for data-quality counters.
	OnFallback func(field string)
}

// Pipeline scores questionnaire answers end to end: normalize, map to the
// trained feature schema, run the ensemble, interpret the probability.
// All state is loaded at construction and read-only afterwards, so one
// Pipeline serves concurrent callers.
type Pipeline struct {
	variant    *Variant
	model      *Model
	threshold  float64
	logger     *slog.Logger
	onFallback func(field string)
}

// New loads the variant's artifacts and assembles a ready pipeline. A
// missing threshold artifact falls back to 0.5; every other artifact
// problem is a configuration error and construction fails.
func New(opts Options) (*Pipeline, error) {
	v := opts.Variant
	if v == nil {
		v = V1()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	model, err := LoadModel(opts.ModelDir, v)
	if err != nil {
		return nil, err
	}
	threshold, err := LoadThreshold(opts.ModelDir, v)
	if err != nil {
		return nil, err
	}

	logger.Info("pipeline initialized",
		"variant", v.Name,
		"features", model.NumFeatures(),
		"threshold", threshold)

	return &Pipeline{
		variant:    v,
		model:      model,
		threshold:  threshold,
		logger:     logger,
		onFallback: opts.OnFallback,
	}, nil
}

// Variant returns the trained target this pipeline serves.
func (p *Pipeline) Variant() *Variant {
	return p.variant
}

// Threshold returns the decision threshold in use.
func (p *Pipeline) Threshold() float64 {
	return p.threshold
}

// Predict scores one answer set. Missing answers take defaults, so even an
// empty map predicts; a MappingError means one of the provided values could
// not be interpreted and names the offending field.
func (p *Pipeline) Predict(raw types.RawAnswers) (PredictionResult, error) {
	normalized := p.variant.Normalize(raw)

	vec, fallbacks, err := p.variant.MapFeatures(normalized)
	if err != nil {
		return PredictionResult{}, err
	}
	for _, field := range fallbacks {
		p.logger.Warn("unmapped category fell back to default code",
			"field", field,
			"value", normalized[field],
			"variant", p.variant.Name)
		if p.onFallback != nil {
			p.onFallback(field)
		}
	}

	pNeg, pPos, err := p.model.Score(vec)
	if err != nil {
		return PredictionResult{}, err
	}

	return Decide(pNeg, pPos, p.threshold, p.variant), nil
}

// FallbackFields reports which of the raw answers would resolve to fallback
// category codes, without scoring or counter side effects. The gateway uses
// it for per-request audit records.
func (p *Pipeline) FallbackFields(raw types.RawAnswers) []string {
	_, fallbacks, err := p.variant.MapFeatures(p.variant.Normalize(raw))
	if err != nil {
		return nil
	}
	return fallbacks
}

// BatchItem is one outcome of a batch call: Result xor Err.
type BatchItem struct {
	Result *PredictionResult
	Err    error
}

// BatchPredict scores each answer set independently and preserves input
// order. One bad item never fails its neighbors.
func (p *Pipeline) BatchPredict(inputs []types.RawAnswers) []BatchItem {
	items := make([]BatchItem, len(inputs))
	for i, raw := range inputs {
		result, err := p.Predict(raw)
		if err != nil {
			items[i] = BatchItem{Err: err}
			continue
		}
		items[i] = BatchItem{Result: &result}
	}
	return items
}

// ModelInfo describes the loaded model for the info endpoint.
type ModelInfo struct {
	Version          string  `json:"version"`
	TargetDefinition string  `json:"target_definition"`
	ModelType        string  `json:"model_type"`
	NumFeatures      int     `json:"n_features"`
	Threshold        float64 `json:"threshold"`
}

// ModelInfo reports the pipeline's identity and parameters.
func (p *Pipeline) ModelInfo() ModelInfo {
	return ModelInfo{
		Version:          p.variant.Name,
		TargetDefinition: p.variant.TargetDefinition,
		ModelType:        p.model.ModelType,
		NumFeatures:      p.model.NumFeatures(),
		Threshold:        p.threshold,
	}
}
