package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVariantByName(t *testing.T) {
	v, err := VariantByName("v1")
	require.NoError(t, err)
	assert.Equal(t, "v1", v.Name)

	v, err = VariantByName("")
	require.NoError(t, err)
	assert.Equal(t, "v1", v.Name, "empty configuration selects the original target")

	v, err = VariantByName("v2")
	require.NoError(t, err)
	assert.Equal(t, "v2", v.Name)

	_, err = VariantByName("v3")
	assert.Error(t, err)
}

func TestVariantFeatureSchemas(t *testing.T) {
	for _, v := range []*Variant{V1(), V2()} {
		t.Run(v.Name, func(t *testing.T) {
			assert.Len(t, v.FeatureNames, 37)

			seen := make(map[string]bool, len(v.FeatureNames))
			for _, name := range v.FeatureNames {
				assert.False(t, seen[name], "duplicate feature %s", name)
				seen[name] = true
			}

			// Risk bands must be strictly increasing with an unbounded tail.
			prev := 0.0
			for _, b := range v.RiskBands {
				assert.Greater(t, b.Upper, prev)
				prev = b.Upper
			}
		})
	}
}
