package pipeline

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/moneave/vulnerability-monitor/internal/errors"
)

// stumpModel is a tiny two-tree ensemble over a variant's schema: one split
// on age at 40, one constant tree. Small enough to verify margins by hand.
func stumpModel(v *Variant) *Model {
	return &Model{
		ModelType:    "xgboost",
		BaseScore:    0,
		FeatureNames: v.FeatureNames,
		Trees: []tree{
			{Nodes: []treeNode{
				{Feature: 0, Threshold: 40, Left: 1, Right: 2},
				{Leaf: true, Value: -1.2},
				{Leaf: true, Value: 0.8},
			}},
			{Nodes: []treeNode{{Leaf: true, Value: 0.3}}},
		},
	}
}

func zeroVector(v *Variant) []float64 {
	return make([]float64, len(v.FeatureNames))
}

func TestModelScoreTraversal(t *testing.T) {
	v := V1()
	m := stumpModel(v)

	young := zeroVector(v)
	young[0] = 35
	old := zeroVector(v)
	old[0] = 50

	_, pYoung, err := m.Score(young)
	require.NoError(t, err)
	_, pOld, err := m.Score(old)
	require.NoError(t, err)

	assert.InDelta(t, sigmoid(-1.2+0.3), pYoung, 1e-12)
	assert.InDelta(t, sigmoid(0.8+0.3), pOld, 1e-12)
	assert.Greater(t, pOld, pYoung)
}

func TestModelScoreProbabilitiesSumToOne(t *testing.T) {
	v := V2()
	m := stumpModel(v)

	for _, age := range []float64{0, 17.5, 40, 99} {
		vec := zeroVector(v)
		vec[0] = age

		pNeg, pPos, err := m.Score(vec)
		require.NoError(t, err)

		assert.InDelta(t, 1.0, pNeg+pPos, 1e-12)
		assert.GreaterOrEqual(t, pPos, 0.0)
		assert.LessOrEqual(t, pPos, 1.0)
	}
}

func TestModelScoreDeterministic(t *testing.T) {
	v := V1()
	m := stumpModel(v)
	vec := zeroVector(v)
	vec[0] = 42

	_, first, err := m.Score(vec)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		_, again, err := m.Score(vec)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestModelScoreSplitBoundaryGoesRight(t *testing.T) {
	v := V1()
	m := stumpModel(v)
	vec := zeroVector(v)
	vec[0] = 40 // exactly at the split threshold

	_, p, err := m.Score(vec)
	require.NoError(t, err)
	assert.InDelta(t, sigmoid(0.8+0.3), p, 1e-12, "x < threshold routes left, equality routes right")
}

func TestModelScoreWidthMismatch(t *testing.T) {
	m := stumpModel(V1())

	_, _, err := m.Score(make([]float64, 5))

	require.Error(t, err)
	assert.True(t, apperrors.IsConfigurationError(err))
}

func TestModelValidateRejectsMalformedTrees(t *testing.T) {
	tests := []struct {
		name  string
		model Model
	}{
		{"no features", Model{Trees: []tree{{Nodes: []treeNode{{Leaf: true}}}}}},
		{"no trees", Model{FeatureNames: []string{"a"}}},
		{"empty tree", Model{FeatureNames: []string{"a"}, Trees: []tree{{}}}},
		{"feature out of range", Model{
			FeatureNames: []string{"a"},
			Trees: []tree{{Nodes: []treeNode{
				{Feature: 3, Threshold: 1, Left: 1, Right: 2},
				{Leaf: true}, {Leaf: true},
			}}},
		}},
		{"child out of range", Model{
			FeatureNames: []string{"a"},
			Trees: []tree{{Nodes: []treeNode{
				{Feature: 0, Threshold: 1, Left: 7, Right: 1},
				{Leaf: true},
			}}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.model.validate())
		})
	}
}

func TestSigmoid(t *testing.T) {
	assert.InDelta(t, 0.5, sigmoid(0), 1e-12)
	assert.InDelta(t, 1.0, sigmoid(40), 1e-12)
	assert.InDelta(t, 0.0, sigmoid(-40), 1e-12)
	assert.False(t, math.IsNaN(sigmoid(-1000)))
}
