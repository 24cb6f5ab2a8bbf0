package pipeline

import "fmt"

// PredictionResult is the interpreted outcome for one answer set. Field
// names keep the Spanish wire contract the survey frontend consumes.
type PredictionResult struct {
	Prediccion               int     `json:"prediccion"`
	EsVulnerable             bool    `json:"es_vulnerable"`
	ProbabilidadVulnerable   float64 `json:"probabilidad_vulnerable"`
	ProbabilidadNoVulnerable float64 `json:"probabilidad_no_vulnerable"`
	UmbralUsado              float64 `json:"umbral_usado"`
	NivelRiesgo              string  `json:"nivel_riesgo"`
	Mensaje                  string  `json:"mensaje"`
	ModeloVersion            string  `json:"modelo_version"`
	TargetDefinition         string  `json:"target_definition"`
}

// riskLevel finds the first band whose upper bound exceeds pPos. The last
// band is unbounded, so every probability lands somewhere.
func (v *Variant) riskLevel(pPos float64) string {
	for _, b := range v.RiskBands {
		if pPos < b.Upper {
			return b.Level
		}
	}
	return v.RiskBands[len(v.RiskBands)-1].Level
}

// Decide applies the variant's decision policy to a scored probability.
// A probability exactly at the threshold counts as vulnerable: the tuned
// threshold marks the smallest probability worth flagging.
func Decide(pNeg, pPos, threshold float64, v *Variant) PredictionResult {
	vulnerable := pPos >= threshold
	level := v.riskLevel(pPos)

	prediccion := 0
	if vulnerable {
		prediccion = 1
	}

	msg := v.messages[MessageKey{Vulnerable: vulnerable, Level: level}]

	return PredictionResult{
		Prediccion:               prediccion,
		EsVulnerable:             vulnerable,
		ProbabilidadVulnerable:   pPos,
		ProbabilidadNoVulnerable: pNeg,
		UmbralUsado:              threshold,
		NivelRiesgo:              level,
		Mensaje:                  fmt.Sprintf(msg, pPos*100),
		ModeloVersion:            v.Name,
		TargetDefinition:         v.TargetDefinition,
	}
}
