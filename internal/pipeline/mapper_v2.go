package pipeline

import "math"

// Code tables for the revised-target survey. The retraining rebound several
// slots: P5020 carries sex, P5000/P5010 carry rooms and household size, and
// the P6585 slots carry raw expense amounts instead of child-labor codes.
var (
	sexCodesV2 = lookupTable{
		codes:    map[string]float64{"hombre": 1, "mujer": 2},
		fallback: 2,
	}
	educationCodesV2 = lookupTable{
		codes: map[string]float64{
			"ninguno": 1, "preescolar": 1, "primaria": 1,
			"secundaria": 2, "media": 2, "superior": 2,
		},
		fallback: 2,
	}
	healthTypeCodesV2 = lookupTable{
		codes:    map[string]float64{"contributivo": 1, "subsidiado": 2, "especial": 3, "ninguno": 4},
		fallback: 2,
	}
	floorCodesV2 = lookupTable{
		codes:    map[string]float64{"cemento": 1, "baldosa": 2, "madera": 3, "tierra": 1},
		fallback: 1,
	}
	housingTypeCodesV2 = lookupTable{
		codes:    map[string]float64{"casa": 1, "apartamento": 2, "cuarto": 3},
		fallback: 1,
	}
	tenureCodesV2 = lookupTable{
		codes:    map[string]float64{"propia": 1, "arriendo": 2, "usufructo": 3},
		fallback: 2,
	}
)

type featuresV2 struct {
	P6040 float64 // age, years
	P5020 float64 // sex code
	DPTO  float64 // department code
	AREA  float64 // 1 urban, 2 rural
	P6160 float64 // education level, binarized
	P6170 float64 // years of education, binarized
	P6090 float64 // health affiliation yes/no
	P6100 float64 // health affiliation type
	P6110 float64 // child mortality, -1 when no minors
	P6240 float64 // main occupation code
	P6250 float64 // formal/informal employment
	P6430 float64 // occupational position
	P5000 float64 // number of rooms
	P5010 float64 // household size
	P5030 float64 // floor material
	P5040 float64 // housing type
	P5070 float64 // housing tenure
	P5080 float64 // piped water yes/no
	P5090 float64 // sewerage yes/no
	P6016 float64 // gas yes/no
	P6050 float64 // household-head kinship code
	P6080 float64 // marital status
	P6920 float64 // monthly labor income, COP
	P6585S1 float64 // food spend, COP
	P6585S2 float64 // transport spend, COP
	P6585S3 float64 // other spend, COP

	EdadGrupo              float64
	HacinamientoCat        float64
	ServiciosScore         float64
	EsFormal               float64
	TieneEnergia           float64
	NivelGastoEnergia      float64
	TieneRecoleccion       float64
	EstadoRecoleccion      float64
	RequirioAtencionMedica float64
	NivelGastoSalud        float64
	LogGastoSalud          float64
}

// vector serializes the record in the v2 training order.
func (f featuresV2) vector() FeatureVector {
	return FeatureVector{
		f.P6040, f.P5020, f.DPTO, f.AREA, f.P6160, f.P6170, f.P6090, f.P6100,
		f.P6110, f.P6240, f.P6250, f.P6430, f.P5000, f.P5010, f.P5030, f.P5040,
		f.P5070, f.P5080, f.P5090, f.P6016, f.P6050, f.P6080, f.P6920,
		f.P6585S1, f.P6585S2, f.P6585S3,
		f.EdadGrupo, f.HacinamientoCat, f.ServiciosScore, f.EsFormal,
		f.TieneEnergia, f.NivelGastoEnergia, f.TieneRecoleccion,
		f.EstadoRecoleccion, f.RequirioAtencionMedica, f.NivelGastoSalud,
		f.LogGastoSalud,
	}
}

func mapFeaturesV2(n NormalizedAnswers) (FeatureVector, []string, error) {
	var f featuresV2
	var fallbacks []string

	lookup := func(field string, t lookupTable) float64 {
		code, fell := t.code(strAnswer(n, field))
		if fell {
			fallbacks = append(fallbacks, field)
		}
		return code
	}
	num := func(field string) (float64, error) { return numAnswer(n, field) }

	edad, err := num("edad")
	if err != nil {
		return nil, fallbacks, err
	}
	f.P6040 = edad

	f.P5020 = lookup("sexo", sexCodesV2)

	if f.DPTO, err = num("departamento"); err != nil {
		return nil, fallbacks, err
	}
	if f.AREA, err = num("area"); err != nil {
		return nil, fallbacks, err
	}

	f.P6160 = lookup("nivel_educativo", educationCodesV2)

	eduYears, err := num("años_educacion")
	if err != nil {
		return nil, fallbacks, err
	}
	if eduYears >= 11 {
		f.P6170 = 2
	} else {
		f.P6170 = 1
	}

	if boolAnswer(n, "tiene_salud") {
		f.P6090 = 1
	} else {
		f.P6090 = 2
	}
	f.P6100 = lookup("tipo_salud", healthTypeCodesV2)

	if boolAnswer(n, "tiene_hijos_menores") {
		f.P6110 = 2
	} else {
		f.P6110 = codeNotApplicable
	}

	if f.P6240, err = num("ocupacion_codigo"); err != nil {
		return nil, fallbacks, err
	}
	esFormal := boolAnswer(n, "empleo_formal")
	if esFormal {
		f.P6250 = 1
	} else {
		f.P6250 = 2
	}
	if f.P6430, err = num("posicion_ocupacional"); err != nil {
		return nil, fallbacks, err
	}

	rooms, err := num("num_cuartos")
	if err != nil {
		return nil, fallbacks, err
	}
	f.P5000 = rooms

	persons, err := num("num_personas_hogar")
	if err != nil {
		return nil, fallbacks, err
	}
	f.P5010 = persons

	f.P5030 = lookup("material_pisos", floorCodesV2)
	f.P5040 = lookup("tipo_vivienda", housingTypeCodesV2)
	f.P5070 = lookup("tenencia_vivienda", tenureCodesV2)

	f.P5080 = 2 - bool01(boolAnswer(n, "tiene_acueducto"))
	f.P5090 = 2 - bool01(boolAnswer(n, "tiene_alcantarillado"))
	f.P6016 = 2 - bool01(boolAnswer(n, "tiene_gas"))

	if f.P6050, err = num("parentesco_jefe_hogar"); err != nil {
		return nil, fallbacks, err
	}
	if f.P6080, err = num("estado_civil"); err != nil {
		return nil, fallbacks, err
	}

	// Income is the single strongest predictor for this target.
	if f.P6920, err = num("ingreso_mensual"); err != nil {
		return nil, fallbacks, err
	}

	if f.P6585S1, err = num("gasto_alimentos"); err != nil {
		return nil, fallbacks, err
	}
	if f.P6585S2, err = num("gasto_transporte"); err != nil {
		return nil, fallbacks, err
	}
	if f.P6585S3, err = num("gasto_otros"); err != nil {
		return nil, fallbacks, err
	}

	f.EdadGrupo = bucketIndex(edad, 18, 30, 45, 60)

	// Crowding ratio; a dwelling reported with no rooms counts as the most
	// crowded category.
	if rooms > 0 {
		f.HacinamientoCat = bucketIndex(persons/rooms, 1, 2, 3)
	} else {
		f.HacinamientoCat = 4
	}

	f.ServiciosScore = bool01(f.P5080 == 1) + bool01(f.P5090 == 1) + bool01(f.P6016 == 1)
	f.EsFormal = bool01(esFormal)

	energySpend, err := num("gasto_energia")
	if err != nil {
		return nil, fallbacks, err
	}
	f.TieneEnergia = bool01(energySpend > 0)
	f.NivelGastoEnergia = spendTier(energySpend, 50000, 150000)

	collection := boolAnswer(n, "tiene_recoleccion_basuras")
	f.TieneRecoleccion = bool01(collection)
	if collection {
		f.EstadoRecoleccion = 1
	} else {
		f.EstadoRecoleccion = 3
	}

	f.RequirioAtencionMedica = bool01(boolAnswer(n, "requirio_atencion_medica"))

	healthSpend, err := num("gasto_salud_ultimos_30_dias")
	if err != nil {
		return nil, fallbacks, err
	}
	f.NivelGastoSalud = spendTier(healthSpend, 60000, 150000)
	if healthSpend > 0 {
		f.LogGastoSalud = math.Log1p(healthSpend)
	} else {
		f.LogGastoSalud = 0
	}

	return f.vector(), fallbacks, nil
}
