// internal/dataset/types.go
package dataset

// Example is a single training record: a natural-language question paired with
// the structured query specification the model should produce for it.
//
// Output stays a generic map on purpose. Records arrive from several sources
// (Spider conversion, LLM repair runs, hand-written fixtures) and carry fields
// we must not drop on re-serialization, so stages edit the map in place instead
// of round-tripping through a struct.
type Example struct {
	Input  string                 `json:"input"`
	Output map[string]interface{} `json:"output"`
}

const (
	// IntentDiscovery is the intent every well-formed record carries.
	IntentDiscovery = "intents_discovery"

	StepOne   = "step_1"
	StepTwo   = "step_2"
	StepThree = "step_3"
)

// RequiredResultFields are the fields every discovery result must contain.
var RequiredResultFields = []string{
	"step_id",
	"sub_question",
	"measures",
	"dimensions",
	"timegrain",
	"timeframe",
	"pattern",
	"segments",
	"breakdowns",
	"unmatched_intents",
}

// ValidTimegrains are the accepted timegrain enum values. A null timegrain is
// allowed; any other value is a data defect.
var ValidTimegrains = map[string]bool{
	"day":     true,
	"week":    true,
	"month":   true,
	"quarter": true,
	"year":    true,
}

// ValidPatterns are the accepted query pattern enum values.
var ValidPatterns = map[string]bool{
	"trend":        true,
	"comparison":   true,
	"distribution": true,
	"ranking":      true,
	"share":        true,
}

// ValidStepIDs are the accepted step identifiers.
var ValidStepIDs = map[string]bool{
	StepOne:   true,
	StepTwo:   true,
	StepThree: true,
}

// FallbackOutput builds the minimal valid output for a question the LLM could
// not process: one step_1 result echoing the question with empty collections.
func FallbackOutput(question string) map[string]interface{} {
	return map[string]interface{}{
		"intent": IntentDiscovery,
		"discovery_results": []interface{}{
			map[string]interface{}{
				"step_id":           StepOne,
				"sub_question":      question,
				"measures":          []interface{}{},
				"dimensions":        []interface{}{},
				"timegrain":         nil,
				"timeframe":         nil,
				"pattern":           nil,
				"segments":          []interface{}{},
				"breakdowns":        []interface{}{},
				"unmatched_intents": []interface{}{},
			},
		},
	}
}

// DiscoveryResults extracts the discovery_results list from an output map.
// Returns nil if the field is missing or not a list.
func DiscoveryResults(output map[string]interface{}) []map[string]interface{} {
	raw, ok := output["discovery_results"].([]interface{})
	if !ok {
		return nil
	}
	results := make([]map[string]interface{}, 0, len(raw))
	for _, r := range raw {
		if m, ok := r.(map[string]interface{}); ok {
			results = append(results, m)
		}
	}
	return results
}
