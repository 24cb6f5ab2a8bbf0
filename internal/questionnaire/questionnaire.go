// Package questionnaire holds the survey definition served to the frontend
// and the bounds schema the gateway checks raw answers against before they
// reach the prediction pipeline. The pipeline itself never range-checks;
// anything out of bounds is rejected here.
package questionnaire

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"

	apperrors "github.com/moneave/vulnerability-monitor/internal/errors"
	"github.com/moneave/vulnerability-monitor/internal/types"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Document returns the questionnaire definition for a variant, ready to
// serve verbatim.
func Document(variantName string) (json.RawMessage, error) {
	data, err := schemaFS.ReadFile(fmt.Sprintf("schemas/document_%s.json", variantName))
	if err != nil {
		return nil, fmt.Errorf("no questionnaire document for variant %q: %w", variantName, err)
	}
	return json.RawMessage(data), nil
}

// Validator bounds-checks raw answers against the variant's JSON schema.
// The schema constrains numeric ranges only; unknown keys and coercible
// string values pass through untouched.
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator compiles the embedded bounds schema for a variant.
func NewValidator(variantName string) (*Validator, error) {
	data, err := schemaFS.ReadFile(fmt.Sprintf("schemas/bounds_%s.json", variantName))
	if err != nil {
		return nil, fmt.Errorf("no bounds schema for variant %q: %w", variantName, err)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse bounds schema %s: %w", variantName, err)
	}

	compiler := jsonschema.NewCompiler()
	url := fmt.Sprintf("schema://bounds_%s.json", variantName)
	if err := compiler.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add bounds schema %s: %w", variantName, err)
	}
	schema, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile bounds schema %s: %w", variantName, err)
	}

	return &Validator{schema: schema}, nil
}

// Validate checks answer values against the questionnaire bounds. Answers
// are round-tripped through JSON so Go-typed values validate the same as
// wire-decoded ones.
func (v *Validator) Validate(answers types.RawAnswers) error {
	data, err := json.Marshal(answers)
	if err != nil {
		return apperrors.NewValidationError("answers are not serializable", err.Error())
	}
	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return apperrors.NewValidationError("answers are not valid JSON", err.Error())
	}

	if err := v.schema.Validate(parsed); err != nil {
		return apperrors.NewValidationError("answers outside questionnaire bounds", err.Error())
	}
	return nil
}
