package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	apperrors "github.com/moneave/vulnerability-monitor/internal/errors"
)

// LoadModel reads and validates the variant's serialized ensemble. Any
// failure is a configuration error: the service must not score without a
// usable model.
func LoadModel(dir string, v *Variant) (*Model, error) {
	path := filepath.Join(dir, v.ModelFile)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewConfigurationError(
			fmt.Sprintf("model artifact %s unreadable", path), err)
	}

	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, apperrors.NewConfigurationError(
			fmt.Sprintf("model artifact %s is not valid JSON", path), err)
	}
	if err := m.validate(); err != nil {
		return nil, apperrors.NewConfigurationError(
			fmt.Sprintf("model artifact %s is malformed", path), err)
	}

	// The ensemble must be fit on exactly the features the mapper emits, in
	// the same order. A drifted artifact would silently score garbage.
	if len(m.FeatureNames) != len(v.FeatureNames) {
		return nil, apperrors.NewConfigurationError(
			fmt.Sprintf("model artifact %s declares %d features, variant %s expects %d",
				path, len(m.FeatureNames), v.Name, len(v.FeatureNames)), nil)
	}
	for i, name := range m.FeatureNames {
		if name != v.FeatureNames[i] {
			return nil, apperrors.NewConfigurationError(
				fmt.Sprintf("model artifact %s feature %d is %q, variant %s expects %q",
					path, i, name, v.Name, v.FeatureNames[i]), nil)
		}
	}

	return &m, nil
}

// LoadThreshold reads the tuned decision threshold. A missing artifact is
// expected on fresh deployments and falls back to 0.5; a present but
// unusable one is a configuration error.
func LoadThreshold(dir string, v *Variant) (float64, error) {
	path := filepath.Join(dir, v.ThresholdFile)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return 0.5, nil
	}
	if err != nil {
		return 0, apperrors.NewConfigurationError(
			fmt.Sprintf("threshold artifact %s unreadable", path), err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return 0, apperrors.NewConfigurationError(
			fmt.Sprintf("threshold artifact %s is not valid JSON", path), err)
	}

	raw, ok := doc[v.thresholdKey]
	if !ok {
		return 0, apperrors.NewConfigurationError(
			fmt.Sprintf("threshold artifact %s has no %q key", path, v.thresholdKey), nil)
	}

	var threshold float64
	if err := json.Unmarshal(raw, &threshold); err != nil {
		return 0, apperrors.NewConfigurationError(
			fmt.Sprintf("threshold artifact %s key %q is not a number", path, v.thresholdKey), err)
	}
	if threshold <= 0 || threshold >= 1 {
		return 0, apperrors.NewConfigurationError(
			fmt.Sprintf("threshold artifact %s holds %v, expected a probability in (0, 1)", path, threshold), nil)
	}

	return threshold, nil
}
