package pipeline

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecideThresholdBoundaryIsPositive(t *testing.T) {
	v := V1()

	got := Decide(0.55, 0.45, 0.45, v)

	assert.True(t, got.EsVulnerable, "probability equal to the threshold flags")
	assert.Equal(t, 1, got.Prediccion)
}

func TestDecideBelowThresholdIsNegative(t *testing.T) {
	v := V1()

	got := Decide(0.56, 0.44, 0.45, v)

	assert.False(t, got.EsVulnerable)
	assert.Equal(t, 0, got.Prediccion)
}

func TestDecideRiskBandsV1(t *testing.T) {
	v := V1()

	tests := []struct {
		pPos float64
		want string
	}{
		{0.0, "bajo"},
		{0.29, "bajo"},
		{0.3, "medio"},
		{0.49, "medio"},
		{0.5, "alto"},
		{0.69, "alto"},
		{0.7, "muy_alto"},
		{1.0, "muy_alto"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("p=%v", tt.pPos), func(t *testing.T) {
			got := Decide(1-tt.pPos, tt.pPos, 0.5, v)
			assert.Equal(t, tt.want, got.NivelRiesgo)
		})
	}
}

func TestDecideRiskBandsV2(t *testing.T) {
	v := V2()

	tests := []struct {
		pPos float64
		want string
	}{
		{0.1, "bajo"},
		{0.3, "medio"},
		{0.59, "medio"},
		{0.6, "alto"},
		{0.95, "alto"},
	}

	for _, tt := range tests {
		got := Decide(1-tt.pPos, tt.pPos, 0.5, v)
		assert.Equal(t, tt.want, got.NivelRiesgo, "p=%v", tt.pPos)
	}
}

func TestDecideMessageInterpolatesProbability(t *testing.T) {
	for _, v := range []*Variant{V1(), V2()} {
		t.Run(v.Name, func(t *testing.T) {
			got := Decide(0.35, 0.65, 0.5, v)

			require.NotEmpty(t, got.Mensaje)
			assert.Contains(t, got.Mensaje, "65.0%")
			assert.NotContains(t, got.Mensaje, "%!", "template must consume its verb")
		})
	}
}

func TestDecideEveryOutcomeHasAMessage(t *testing.T) {
	// Every (decision, band) combination must resolve to a template so no
	// probability ever yields an empty message.
	for _, v := range []*Variant{V1(), V2()} {
		for _, band := range v.RiskBands {
			for _, vulnerable := range []bool{true, false} {
				msg, ok := v.messages[MessageKey{Vulnerable: vulnerable, Level: band.Level}]
				assert.True(t, ok, "%s vulnerable=%v band=%s", v.Name, vulnerable, band.Level)
				assert.True(t, strings.Contains(msg, "%.1f"), "message carries a probability slot")
			}
		}
	}
}

func TestDecideResultCarriesVariantIdentity(t *testing.T) {
	got := Decide(0.8, 0.2, 0.5, V2())

	assert.Equal(t, "v2", got.ModeloVersion)
	assert.Contains(t, got.TargetDefinition, "1.5x")
	assert.InDelta(t, 0.2, got.ProbabilidadVulnerable, 1e-12)
	assert.InDelta(t, 0.8, got.ProbabilidadNoVulnerable, 1e-12)
	assert.InDelta(t, 0.5, got.UmbralUsado, 1e-12)
}
