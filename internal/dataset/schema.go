// internal/dataset/schema.go
package dataset

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"bi-training-pipeline/internal/common/errors"
)

// outputSchema is the structural contract for a record's output. It encodes
// the required-field list and the enum constraints; timegrain, timeframe and
// pattern are nullable because the converter legitimately leaves them unset.
var outputSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"intent", "discovery_results"},
	"properties": map[string]interface{}{
		"intent": map[string]interface{}{
			"type": "string",
		},
		"discovery_results": map[string]interface{}{
			"type":     "array",
			"minItems": 1,
			"items": map[string]interface{}{
				"type":     "object",
				"required": toInterfaceSlice(RequiredResultFields),
				"properties": map[string]interface{}{
					"step_id": map[string]interface{}{
						"type": "string",
						"enum": []interface{}{StepOne, StepTwo, StepThree},
					},
					"sub_question": map[string]interface{}{
						"type": "string",
					},
					"measures": map[string]interface{}{
						"type": "array",
					},
					"dimensions": map[string]interface{}{
						"type": "array",
					},
					"timegrain": map[string]interface{}{
						"type": []interface{}{"string", "null"},
					},
					"timeframe": map[string]interface{}{
						"type": []interface{}{"object", "string", "null"},
					},
					"pattern": map[string]interface{}{
						"type": []interface{}{"string", "null"},
					},
					"segments": map[string]interface{}{
						"type": "array",
					},
					"breakdowns": map[string]interface{}{
						"type": "array",
					},
					"unmatched_intents": map[string]interface{}{
						"type": "array",
					},
				},
			},
		},
	},
}

// ValidateOutput checks a record's output against the structural contract and
// returns one message per violation.
func ValidateOutput(output map[string]interface{}) ([]string, error) {
	schemaLoader := gojsonschema.NewGoLoader(outputSchema)
	documentLoader := gojsonschema.NewGoLoader(output)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, errors.NewSchemaValidationFailedError(err.Error())
	}
	if result.Valid() {
		return nil, nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
	}
	return violations, nil
}

func toInterfaceSlice(in []string) []interface{} {
	out := make([]interface{}, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
