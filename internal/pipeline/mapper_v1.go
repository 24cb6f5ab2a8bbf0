package pipeline

import "math"

// Categorical code tables for the original-target survey. Codes follow the
// national household survey codebook; fallbacks are the most common answer
// in the training data.
var (
	sexCodesV1 = lookupTable{
		codes:    map[string]float64{"hombre": 1, "mujer": 2, "masculino": 1, "femenino": 2},
		fallback: 1,
	}
	kinshipCodesV1 = lookupTable{
		codes: map[string]float64{
			"jefe": 1, "conyuge": 2, "esposo": 2, "esposa": 2,
			"hijo": 3, "hija": 3, "nieto": 4, "nieta": 4,
			"otro_pariente": 5, "otro": 6,
		},
		fallback: 1,
	}
	educationCodesV1 = lookupTable{
		codes: map[string]float64{
			"ninguno": 1, "preescolar": 1, "primaria": 1,
			"secundaria": 2, "media": 2, "superior": 2,
		},
		fallback: 2,
	}
	healthTypeCodesV1 = lookupTable{
		codes:    map[string]float64{"contributivo": 1, "subsidiado": 2, "especial": 3, "ninguno": 4},
		fallback: 2,
	}
	housingTypeCodesV1 = lookupTable{
		codes:    map[string]float64{"casa": 1, "apartamento": 2, "cuarto": 3, "casa_lote": 4, "otro": 5},
		fallback: 1,
	}
	tenureCodesV1 = lookupTable{
		codes:    map[string]float64{"propia": 1, "arriendo": 2, "arrendada": 2, "prestada": 3, "usufructo": 3, "otra": 4},
		fallback: 2,
	}
	floorCodesV1 = lookupTable{
		codes:    map[string]float64{"cemento": 1, "baldosa": 2, "madera": 3, "tierra": 4, "otro": 5},
		fallback: 2,
	}
)

// featuresV1 is the typed feature record for the original target. Fields
// carry the survey codes the classifier was trained on; engineered fields
// follow.
type featuresV1 struct {
	P6040 float64 // age, years
	P6016 float64 // birth month
	P6050 float64 // sex code
	P6080 float64 // household-head kinship code
	AREA  float64 // area code
	DPTO  float64 // department code
	P6160 float64 // education level, binarized
	P6170 float64 // years of education, binarized
	P6090 float64 // health affiliation yes/no
	P6100 float64 // health affiliation type
	P6110 float64 // child mortality, -1 when no minors
	P6240 float64 // main occupation code
	P6250 float64 // formal/informal employment
	P6430 float64 // occupational position
	P6920 float64 // activity branch
	P5000 float64 // housing type
	P5010 float64 // housing tenure
	P5020 float64 // number of rooms
	P5030 float64 // household size, binarized at 5
	P5040 float64 // floor material
	P5070 float64 // piped water yes/no
	P5080 float64 // sewerage yes/no
	P5090 float64 // gas yes/no
	P6585S1 float64 // child labor, first minor, -1 when absent
	P6585S2 float64
	P6585S3 float64

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

// vector serializes the record in the v1 training order.
func (f featuresV1) vector() FeatureVector {
	return FeatureVector{
		f.P6040, f.P6110, f.P5020, f.P6585S2, f.P6016, f.P6585S3, f.P6080,
		f.P6050, f.P6090, f.P6430, f.P6920, f.P5000, f.DPTO, f.P5080, f.P5040,
		f.AREA, f.P5090, f.P6250, f.P6240, f.P5030, f.P6585S1, f.P6160,
		f.P6100, f.P6170, f.P5070, f.P5010,
		f.EdadGrupo, f.HacinamientoCat, f.ServiciosScore, f.EsFormal,
		f.TieneEnergia, f.NivelGastoEnergia, f.TieneRecoleccion,
		f.EstadoRecoleccion, f.RequirioAtencionMedica, f.NivelGastoSalud,
		f.LogGastoSalud,
	}
}

func mapFeaturesV1(n NormalizedAnswers) (FeatureVector, []string, error) {
	var f featuresV1
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

	if f.P6016, err = num("mes_nacimiento"); err != nil {
		return nil, fallbacks, err
	}

	f.P6050 = lookup("sexo", sexCodesV1)
	f.P6080 = lookup("parentesco", kinshipCodesV1)

	if f.AREA, err = num("area_codigo"); err != nil {
		return nil, fallbacks, err
	}
	if f.DPTO, err = num("departamento"); err != nil {
		return nil, fallbacks, err
	}

	f.P6160 = lookup("nivel_educativo", educationCodesV1)

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
	f.P6100 = lookup("tipo_salud", healthTypeCodesV1)

	// Child mortality only applies when the household reports minors; the
	// survey assumes none have died.
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
	if f.P6920, err = num("rama_actividad"); err != nil {
		return nil, fallbacks, err
	}

	f.P5000 = lookup("tipo_vivienda", housingTypeCodesV1)
	f.P5010 = lookup("tenencia_vivienda", tenureCodesV1)

	rooms, err := num("num_cuartos")
	if err != nil {
		return nil, fallbacks, err
	}
	f.P5020 = rooms

	persons, err := num("num_personas_hogar")
	if err != nil {
		return nil, fallbacks, err
	}
	if persons >= 5 {
		f.P5030 = 2
	} else {
		f.P5030 = 1
	}

	f.P5040 = lookup("material_pisos", floorCodesV1)

	f.P5070 = 2 - bool01(boolAnswer(n, "tiene_acueducto"))
	f.P5080 = 2 - bool01(boolAnswer(n, "tiene_alcantarillado"))
	f.P5090 = 2 - bool01(boolAnswer(n, "tiene_gas"))

	// Child labor slots apply per reported minor and assume none work.
	minors, err := num("num_menores_hogar")
	if err != nil {
		return nil, fallbacks, err
	}
	f.P6585S1, f.P6585S2, f.P6585S3 = codeNotApplicable, codeNotApplicable, codeNotApplicable
	if minors >= 1 {
		f.P6585S1 = 2
	}
	if minors >= 2 {
		f.P6585S2 = 2
	}
	if minors >= 3 {
		f.P6585S3 = 2
	}

	f.EdadGrupo = bucketIndex(edad, 26, 41, 61)

	// Crowding ratio; a dwelling reported with no rooms counts as the most
	// crowded category.
	if rooms > 0 {
		f.HacinamientoCat = bucketIndex(persons/rooms, 1.5, 3)
	} else {
		f.HacinamientoCat = 3
	}

	f.ServiciosScore = bool01(f.P5070 == 1) + bool01(f.P5080 == 1) + bool01(f.P5090 == 1)
	f.EsFormal = bool01(esFormal)

	f.TieneEnergia = bool01(boolAnswer(n, "tiene_energia"))

	energySpend, err := num("gasto_energia_mensual")
	if err != nil {
		return nil, fallbacks, err
	}
	switch {
	case energySpend < standardEnergyCost:
		f.NivelGastoEnergia = 1
	case energySpend == standardEnergyCost:
		f.NivelGastoEnergia = 2
	default:
		f.NivelGastoEnergia = 3
	}

	collection := boolAnswer(n, "tiene_recoleccion_basuras")
	f.TieneRecoleccion = bool01(collection)
	if collection {
		f.EstadoRecoleccion = 1
	} else {
		f.EstadoRecoleccion = 2
	}

	attention := boolAnswer(n, "requirio_atencion_medica")
	f.RequirioAtencionMedica = bool01(attention)

	healthSpend, err := num("gasto_salud_ultimos_30_dias")
	if err != nil {
		return nil, fallbacks, err
	}
	if !attention || healthSpend <= 0 {
		f.NivelGastoSalud = 0
		f.LogGastoSalud = 0
	} else {
		f.NivelGastoSalud = spendTier(healthSpend, 60000, 150000)
		f.LogGastoSalud = math.Log1p(healthSpend)
	}

	return f.vector(), fallbacks, nil
}
