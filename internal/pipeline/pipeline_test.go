package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/moneave/vulnerability-monitor/internal/errors"
	"github.com/moneave/vulnerability-monitor/internal/types"
)

// newTestPipeline builds a pipeline over the stump ensemble with a tuned
// threshold artifact in a temp dir.
func newTestPipeline(t *testing.T, v *Variant, opts Options) *Pipeline {
	t.Helper()
	dir := t.TempDir()
	writeModelFile(t, dir, v, stumpModel(v))
	writeThresholdFile(t, dir, v, 0.45)

	opts.ModelDir = dir
	opts.Variant = v

	p, err := New(opts)
	require.NoError(t, err)
	return p
}

func TestPipelinePredictEmptyAnswers(t *testing.T) {
	for _, v := range []*Variant{V1(), V2()} {
		t.Run(v.Name, func(t *testing.T) {
			p := newTestPipeline(t, v, Options{})

			got, err := p.Predict(types.RawAnswers{})
			require.NoError(t, err)

			assert.InDelta(t, 1.0, got.ProbabilidadVulnerable+got.ProbabilidadNoVulnerable, 1e-12)
			assert.NotEmpty(t, got.NivelRiesgo)
			assert.NotEmpty(t, got.Mensaje)
			assert.Equal(t, v.Name, got.ModeloVersion)
			assert.InDelta(t, 0.45, got.UmbralUsado, 1e-12)
		})
	}
}

func TestPipelinePredictDeterministic(t *testing.T) {
	p := newTestPipeline(t, V1(), Options{})
	raw := types.RawAnswers{"edad": 52, "sexo": "mujer", "num_personas_hogar": 6}

	first, err := p.Predict(raw)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := p.Predict(raw)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestPipelinePredictMappingErrorNamesField(t *testing.T) {
	p := newTestPipeline(t, V1(), Options{})

	_, err := p.Predict(types.RawAnswers{"num_cuartos": "varios"})

	require.Error(t, err)
	assert.True(t, apperrors.IsMappingError(err))

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "num_cuartos", appErr.Field)
}

func TestPipelinePredictCountsFallbacks(t *testing.T) {
	var seen []string
	p := newTestPipeline(t, V1(), Options{
		OnFallback: func(field string) { seen = append(seen, field) },
	})

	_, err := p.Predict(types.RawAnswers{"sexo": "otro", "tipo_salud": "prepagada"})
	require.NoError(t, err, "unknown categories never fail a prediction")

	assert.ElementsMatch(t, []string{"sexo", "tipo_salud"}, seen)
}

func TestPipelineFallbackFields(t *testing.T) {
	p := newTestPipeline(t, V1(), Options{})

	got := p.FallbackFields(types.RawAnswers{"sexo": "otro", "edad": 40})

	assert.Equal(t, []string{"sexo"}, got)
	assert.Nil(t, p.FallbackFields(types.RawAnswers{"edad": "cuarenta"}))
}

func TestPipelineBatchPredictIsolatesFailures(t *testing.T) {
	p := newTestPipeline(t, V2(), Options{})

	items := p.BatchPredict([]types.RawAnswers{
		{"edad": 20},
		{"edad": "veinte"},
		{"edad": 70},
	})

	require.Len(t, items, 3)
	assert.NotNil(t, items[0].Result)
	assert.NoError(t, items[0].Err)
	assert.Nil(t, items[1].Result)
	assert.True(t, apperrors.IsMappingError(items[1].Err))
	assert.NotNil(t, items[2].Result)

	// Order preserved: the stump splits on age at 40.
	assert.Less(t, items[0].Result.ProbabilidadVulnerable, items[2].Result.ProbabilidadVulnerable)
}

func TestPipelineBatchPredictEmptyInput(t *testing.T) {
	p := newTestPipeline(t, V1(), Options{})

	items := p.BatchPredict(nil)

	assert.Empty(t, items)
}

func TestPipelineModelInfo(t *testing.T) {
	p := newTestPipeline(t, V2(), Options{})

	info := p.ModelInfo()

	assert.Equal(t, "v2", info.Version)
	assert.Equal(t, "xgboost", info.ModelType)
	assert.Equal(t, 37, info.NumFeatures)
	assert.InDelta(t, 0.45, info.Threshold, 1e-12)
	assert.Contains(t, info.TargetDefinition, "1.5x")
}

func TestPipelineNewMissingModelFails(t *testing.T) {
	_, err := New(Options{ModelDir: t.TempDir(), Variant: V1()})

	require.Error(t, err)
	assert.True(t, apperrors.IsConfigurationError(err))
}

func TestPipelineNewMissingThresholdFallsBack(t *testing.T) {
	v := V1()
	dir := t.TempDir()
	writeModelFile(t, dir, v, stumpModel(v))

	p, err := New(Options{ModelDir: dir, Variant: v})
	require.NoError(t, err)

	assert.Equal(t, 0.5, p.Threshold())
}

func TestPipelineThresholdMonotonicity(t *testing.T) {
	// The same probability flips from negative to positive as the loaded
	// threshold drops past it.
	v := V1()
	raw := types.RawAnswers{"edad": 52}

	dirHigh := t.TempDir()
	writeModelFile(t, dirHigh, v, stumpModel(v))
	writeThresholdFile(t, dirHigh, v, 0.9)
	high, err := New(Options{ModelDir: dirHigh, Variant: v})
	require.NoError(t, err)

	dirLow := t.TempDir()
	writeModelFile(t, dirLow, v, stumpModel(v))
	writeThresholdFile(t, dirLow, v, 0.1)
	low, err := New(Options{ModelDir: dirLow, Variant: V1()})
	require.NoError(t, err)

	rHigh, err := high.Predict(raw)
	require.NoError(t, err)
	rLow, err := low.Predict(raw)
	require.NoError(t, err)

	assert.Equal(t, rHigh.ProbabilidadVulnerable, rLow.ProbabilidadVulnerable, "threshold never changes the probability")
	assert.False(t, rHigh.EsVulnerable)
	assert.True(t, rLow.EsVulnerable)
}
