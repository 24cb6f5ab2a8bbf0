package pipeline

import (
	"fmt"
	"math"
)

// Survey code conventions preserved from the offline data cleaning: the
// classifier was trained on data using these sentinels, so inference must
// encode them identically.
const (
	// codeNotApplicable marks survey fields that do not apply to the
	// respondent (e.g. child-related questions in a household without
	// minors). Distinct from every valid category code.
	codeNotApplicable = -1

	// standardEnergyCost is the canonical monthly energy amount (COP) the
	// v1 survey uses to encode "has access with standard cost". Values
	// below it mean below-standard spend, above it above-standard spend.
	standardEnergyCost = 500000
)

// RiskBand labels a probability interval. Bands are lower-inclusive and
// upper-exclusive; the final band is unbounded above.
type RiskBand struct {
	Level string
	Upper float64
}

// MessageKey selects an interpretive message template from the
// (decision, risk band) pair.
type MessageKey struct {
	Vulnerable bool
	Level      string
}

// Variant describes one trained model target: its feature schema, the
// transformation tables the mapper applies, the risk banding and message
// templates of the decision policy, and the artifact files it loads.
// Variants are immutable configuration; the pipeline is parameterized by
// one of them at construction.
type Variant struct {
	Name             string
	TargetDefinition string

	// FeatureNames is the exact ordered feature list the classifier was
	// fit on. The mapper serializes into this order; the model artifact
	// must declare the same list.
	FeatureNames []string

	RiskBands []RiskBand

	ModelFile     string
	ThresholdFile string

	// thresholdKey is the JSON key holding the tuned threshold inside the
	// threshold artifact; the two offline sweeps named it differently.
	thresholdKey string

	questions   map[string]question
	messages    map[MessageKey]string
	mapFeatures func(NormalizedAnswers) (FeatureVector, []string, error)
}

// featureOrderV1 is the order the original-target classifier was fit with.
var featureOrderV1 = []string{
	"P6040", "P6110", "P5020", "P6585S2", "P6016", "P6585S3", "P6080",
	"P6050", "P6090", "P6430", "P6920", "P5000", "DPTO", "P5080", "P5040",
	"AREA", "P5090", "P6250", "P6240", "P5030", "P6585S1", "P6160",
	"P6100", "P6170", "P5070", "P5010",
	"edad_grupo", "hacinamiento_cat", "servicios_score", "es_formal",
	"tiene_energia", "nivel_gasto_energia", "tiene_recoleccion",
	"estado_recoleccion", "requirio_atencion_medica", "nivel_gasto_salud",
	"log_gasto_salud",
}

// featureOrderV2 is the order the vulnerable-or-poor classifier was fit with.
var featureOrderV2 = []string{
	"P6040", "P5020", "DPTO", "AREA", "P6160", "P6170", "P6090", "P6100",
	"P6110", "P6240", "P6250", "P6430", "P5000", "P5010", "P5030", "P5040",
	"P5070", "P5080", "P5090", "P6016", "P6050", "P6080", "P6920",
	"P6585S1", "P6585S2", "P6585S3",
	"edad_grupo", "hacinamiento_cat", "servicios_score", "es_formal",
	"tiene_energia", "nivel_gasto_energia", "tiene_recoleccion",
	"estado_recoleccion", "requirio_atencion_medica", "nivel_gasto_salud",
	"log_gasto_salud",
}

// V1 returns the original-target variant: vulnerable by income proximity to
// the poverty line.
func V1() *Variant {
	return &Variant{
		Name:             "v1",
		TargetDefinition: "Vulnerable (ingreso cercano a la línea de pobreza)",
		FeatureNames:     featureOrderV1,
		ModelFile:        "final_optimized_xgboost.json",
		ThresholdFile:    "threshold_optimization.json",
		thresholdKey:     "optimal_threshold",
		RiskBands: []RiskBand{
			{Level: "bajo", Upper: 0.3},
			{Level: "medio", Upper: 0.5},
			{Level: "alto", Upper: 0.7},
			{Level: "muy_alto", Upper: math.Inf(1)},
		},
		questions: map[string]question{
			"edad":                        {kind: kindNumber, def: 30.0},
			"mes_nacimiento":              {kind: kindNumber, def: 6.0},
			"sexo":                        {kind: kindCategory, def: "hombre"},
			"parentesco":                  {kind: kindCategory, def: "jefe"},
			"departamento":                {kind: kindNumber, def: 11.0},
			"area_codigo":                 {kind: kindNumber, def: 11.0},
			"nivel_educativo":             {kind: kindCategory, def: "secundaria"},
			"años_educacion":              {kind: kindNumber, def: 11.0},
			"tiene_salud":                 {kind: kindBoolean, def: true},
			"tipo_salud":                  {kind: kindCategory, def: "subsidiado"},
			"requirio_atencion_medica":    {kind: kindBoolean, def: false},
			"gasto_salud_ultimos_30_dias": {kind: kindNumber, def: 0.0},
			"tiene_hijos_menores":         {kind: kindBoolean, def: false},
			"num_menores_hogar":           {kind: kindNumber, def: 0.0},
			"empleo_formal":               {kind: kindBoolean, def: false},
			"ocupacion_codigo":            {kind: kindNumber, def: 1.0},
			"posicion_ocupacional":        {kind: kindNumber, def: 1.0},
			"rama_actividad":              {kind: kindNumber, def: 2.0},
			"tipo_vivienda":               {kind: kindCategory, def: "casa"},
			"tenencia_vivienda":           {kind: kindCategory, def: "arriendo"},
			"num_cuartos":                 {kind: kindNumber, def: 3.0},
			"num_personas_hogar":          {kind: kindNumber, def: 4.0},
			"material_pisos":              {kind: kindCategory, def: "cemento"},
			"tiene_acueducto":             {kind: kindBoolean, def: true},
			"tiene_alcantarillado":        {kind: kindBoolean, def: true},
			"tiene_gas":                   {kind: kindBoolean, def: false},
			"tiene_energia":               {kind: kindBoolean, def: true},
			"gasto_energia_mensual":       {kind: kindNumber, def: 500000.0},
			"tiene_recoleccion_basuras":   {kind: kindBoolean, def: true},
		},
		messages: map[MessageKey]string{
			{Vulnerable: true, Level: "muy_alto"}: "Alto riesgo de vulnerabilidad económica (%.1f%% de probabilidad). Se recomienda evaluar programas de apoyo social.",
			{Vulnerable: true, Level: "alto"}:     "Situación de vulnerabilidad económica detectada (%.1f%% de probabilidad). Se sugiere evaluación detallada.",
			{Vulnerable: true, Level: "medio"}:    "Situación de vulnerabilidad económica detectada (%.1f%% de probabilidad). Se sugiere evaluación detallada.",
			{Vulnerable: true, Level: "bajo"}:     "Situación de vulnerabilidad económica detectada (%.1f%% de probabilidad). Se sugiere evaluación detallada.",
			{Vulnerable: false, Level: "bajo"}:    "Situación económica estable (%.1f%% de probabilidad de vulnerabilidad).",
			{Vulnerable: false, Level: "medio"}:   "Situación económica estable pero con factores de riesgo (%.1f%% de probabilidad). Monitoreo recomendado.",
			{Vulnerable: false, Level: "alto"}:    "Situación económica estable pero con factores de riesgo (%.1f%% de probabilidad). Monitoreo recomendado.",
			{Vulnerable: false, Level: "muy_alto"}: "Situación económica estable pero con factores de riesgo (%.1f%% de probabilidad). Monitoreo recomendado.",
		},
		mapFeatures: mapFeaturesV1,
	}
}

// V2 returns the revised-target variant: vulnerable or poor, income at or
// below 1.5x the poverty line.
func V2() *Variant {
	return &Variant{
		Name:             "v2",
		TargetDefinition: "Vulnerable + Pobre (ingreso <= 1.5x línea de pobreza)",
		FeatureNames:     featureOrderV2,
		ModelFile:        "final_optimized_xgboost_v2.json",
		ThresholdFile:    "threshold_optimization_v2.json",
		thresholdKey:     "umbral_optimo",
		RiskBands: []RiskBand{
			{Level: "bajo", Upper: 0.3},
			{Level: "medio", Upper: 0.6},
			{Level: "alto", Upper: math.Inf(1)},
		},
		questions: map[string]question{
			"edad":                        {kind: kindNumber, def: 30.0},
			"sexo":                        {kind: kindCategory, def: "hombre"},
			"departamento":                {kind: kindNumber, def: 11.0},
			"area":                        {kind: kindNumber, def: 1.0},
			"nivel_educativo":             {kind: kindCategory, def: "secundaria"},
			"años_educacion":              {kind: kindNumber, def: 11.0},
			"tiene_salud":                 {kind: kindBoolean, def: true},
			"tipo_salud":                  {kind: kindCategory, def: "subsidiado"},
			"tiene_hijos_menores":         {kind: kindBoolean, def: false},
			"requirio_atencion_medica":    {kind: kindBoolean, def: false},
			"gasto_salud_ultimos_30_dias": {kind: kindNumber, def: 0.0},
			"ocupacion_codigo":            {kind: kindNumber, def: 1.0},
			"empleo_formal":               {kind: kindBoolean, def: false},
			"posicion_ocupacional":        {kind: kindNumber, def: 1.0},
			"ingreso_mensual":             {kind: kindNumber, def: 1000000.0},
			"tipo_vivienda":               {kind: kindCategory, def: "casa"},
			"tenencia_vivienda":           {kind: kindCategory, def: "arriendo"},
			"num_cuartos":                 {kind: kindNumber, def: 3.0},
			"num_personas_hogar":          {kind: kindNumber, def: 4.0},
			"material_pisos":              {kind: kindCategory, def: "cemento"},
			"parentesco_jefe_hogar":       {kind: kindNumber, def: 1.0},
			"estado_civil":                {kind: kindNumber, def: 1.0},
			"tiene_acueducto":             {kind: kindBoolean, def: true},
			"tiene_alcantarillado":        {kind: kindBoolean, def: true},
			"tiene_gas":                   {kind: kindBoolean, def: false},
			"tiene_recoleccion_basuras":   {kind: kindBoolean, def: true},
			"gasto_alimentos":             {kind: kindNumber, def: 200000.0},
			"gasto_transporte":            {kind: kindNumber, def: 100000.0},
			"gasto_otros":                 {kind: kindNumber, def: 150000.0},
			"gasto_energia":               {kind: kindNumber, def: 50000.0},
		},
		messages: map[MessageKey]string{
			{Vulnerable: true, Level: "alto"}:   "Situación económica crítica (%.1f%% de probabilidad de vulnerabilidad). Se recomienda atención prioritaria.",
			{Vulnerable: true, Level: "medio"}:  "Situación económica en riesgo (%.1f%% de probabilidad de vulnerabilidad). Monitoreo recomendado.",
			{Vulnerable: true, Level: "bajo"}:   "Situación económica vulnerable (%.1f%% de probabilidad de vulnerabilidad). Prevención recomendada.",
			{Vulnerable: false, Level: "bajo"}:  "Situación económica estable (%.1f%% de probabilidad de vulnerabilidad).",
			{Vulnerable: false, Level: "medio"}: "Situación económica relativamente estable (%.1f%% de probabilidad de vulnerabilidad).",
			{Vulnerable: false, Level: "alto"}:  "Situación económica relativamente estable (%.1f%% de probabilidad de vulnerabilidad).",
		},
		mapFeatures: mapFeaturesV2,
	}
}

// VariantByName resolves a variant identifier from configuration.
func VariantByName(name string) (*Variant, error) {
	switch name {
	case "", "v1":
		return V1(), nil
	case "v2":
		return V2(), nil
	default:
		return nil, fmt.Errorf("unknown model variant %q", name)
	}
}
