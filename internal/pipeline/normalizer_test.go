package pipeline

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moneave/vulnerability-monitor/internal/types"
)

func TestNormalizeEmptyInputYieldsAllDefaults(t *testing.T) {
	for _, v := range []*Variant{V1(), V2()} {
		t.Run(v.Name, func(t *testing.T) {
			got := v.Normalize(types.RawAnswers{})

			require.Len(t, got, len(v.questions))
			for id, q := range v.questions {
				assert.Equal(t, q.def, got[id], "question %s", id)
			}
		})
	}
}

func TestNormalizeCoercion(t *testing.T) {
	v := V1()

	tests := []struct {
		name string
		in   types.RawAnswers
		key  string
		want any
	}{
		{"int to float", types.RawAnswers{"edad": 35}, "edad", 35.0},
		{"json number to float", types.RawAnswers{"edad": json.Number("35")}, "edad", 35.0},
		{"numeric string to float", types.RawAnswers{"edad": "35"}, "edad", 35.0},
		{"float passthrough", types.RawAnswers{"edad": 35.5}, "edad", 35.5},
		{"category lowercased", types.RawAnswers{"sexo": "  MUJER "}, "sexo", "mujer"},
		{"bool passthrough", types.RawAnswers{"tiene_salud": false}, "tiene_salud", false},
		{"numeric bool", types.RawAnswers{"tiene_salud": 0}, "tiene_salud", false},
		{"affirmative string bool", types.RawAnswers{"empleo_formal": "si"}, "empleo_formal", true},
		{"accented affirmative", types.RawAnswers{"empleo_formal": "Sí"}, "empleo_formal", true},
		{"negative string bool", types.RawAnswers{"tiene_gas": "no"}, "tiene_gas", false},
		{"unrecognized bool takes default", types.RawAnswers{"tiene_salud": "quizás"}, "tiene_salud", true},
		{"null takes default", types.RawAnswers{"edad": nil}, "edad", 30.0},
		{"non-numeric string passes through", types.RawAnswers{"edad": "treinta"}, "edad", "treinta"},
		{"non-string category passes through", types.RawAnswers{"sexo": 7.0}, "sexo", 7.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := v.Normalize(tt.in)
			assert.Equal(t, tt.want, got[tt.key])
		})
	}
}

func TestNormalizeDropsUnknownKeys(t *testing.T) {
	v := V2()

	got := v.Normalize(types.RawAnswers{"edad": 20, "campo_inventado": "x"})

	_, ok := got["campo_inventado"]
	assert.False(t, ok)
}

func TestNormalizeIdempotent(t *testing.T) {
	for _, v := range []*Variant{V1(), V2()} {
		t.Run(v.Name, func(t *testing.T) {
			raw := types.RawAnswers{
				"edad":          "42",
				"sexo":          " Mujer",
				"empleo_formal": "si",
				"num_cuartos":   2,
				"tipo_salud":    "CONTRIBUTIVO",
			}

			once := v.Normalize(raw)
			twice := v.Normalize(types.RawAnswers(once))

			assert.Equal(t, once, twice)
		})
	}
}
