package pipeline

import (
	"fmt"
	"math"

	apperrors "github.com/moneave/vulnerability-monitor/internal/errors"
)

// treeNode is one binary-split node in a boosted tree. Non-leaf nodes route
// on x[Feature] < Threshold; leaves contribute Value to the raw margin.
type treeNode struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Leaf      bool    `json:"leaf"`
	Value     float64 `json:"value"`
}

type tree struct {
	Nodes []treeNode `json:"nodes"`
}

// score walks the tree from the root to a leaf. Node indices are validated
// at load time, so traversal cannot escape the slice.
func (t tree) score(vec []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Leaf {
			return n.Value
		}
		if vec[n.Feature] < n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Model is a gradient-boosted tree ensemble exported offline to JSON. The
// raw margin is base score plus the sum of per-tree leaf values, squashed
// through the logistic function into the positive-class probability.
type Model struct {
	ModelType    string   `json:"model_type"`
	BaseScore    float64  `json:"base_score"`
	FeatureNames []string `json:"feature_names"`
	Trees        []tree   `json:"trees"`
}

// validate checks structural integrity after decoding: every tree non-empty,
// every node index in range, every split feature within the declared schema.
func (m *Model) validate() error {
	if len(m.FeatureNames) == 0 {
		return fmt.Errorf("model declares no feature names")
	}
	if len(m.Trees) == 0 {
		return fmt.Errorf("model contains no trees")
	}
	for ti, t := range m.Trees {
		if len(t.Nodes) == 0 {
			return fmt.Errorf("tree %d has no nodes", ti)
		}
		for ni, n := range t.Nodes {
			if n.Leaf {
				continue
			}
			if n.Feature < 0 || n.Feature >= len(m.FeatureNames) {
				return fmt.Errorf("tree %d node %d splits on feature %d, schema has %d", ti, ni, n.Feature, len(m.FeatureNames))
			}
			if n.Left < 0 || n.Left >= len(t.Nodes) || n.Right < 0 || n.Right >= len(t.Nodes) {
				return fmt.Errorf("tree %d node %d has child index out of range", ti, ni)
			}
		}
	}
	return nil
}

// Score returns (pNeg, pPos) for a feature vector. The two probabilities
// always sum to one and repeated calls on equal input return equal output.
func (m *Model) Score(vec []float64) (float64, float64, error) {
	if len(vec) != len(m.FeatureNames) {
		return 0, 0, apperrors.NewConfigurationError(
			fmt.Sprintf("feature vector has %d values, model expects %d", len(vec), len(m.FeatureNames)), nil)
	}

	margin := m.BaseScore
	for _, t := range m.Trees {
		margin += t.score(vec)
	}

	pPos := sigmoid(margin)
	return 1 - pPos, pPos, nil
}

// NumFeatures returns the width of the model's input schema.
func (m *Model) NumFeatures() int {
	return len(m.FeatureNames)
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
