// internal/stages/convert/handler.go
package convert

import (
	"context"
	"strings"
	"time"

	"bi-training-pipeline/internal/common/errors"
	"bi-training-pipeline/internal/common/metrics"
	"bi-training-pipeline/internal/dataset"
)

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

type Handler struct {
	config *Config
	logger Logger
}

func NewHandler(config *Config, log Logger) *Handler {
	return &Handler{
		config: config,
		logger: log.With(map[string]interface{}{
			"stage": StageName,
		}),
	}
}

// Run converts the whole input dataset to the BI domain and writes the result.
func (h *Handler) Run(ctx context.Context) (*Stats, error) {
	start := time.Now()

	examples, err := dataset.Load(h.config.InputPath)
	if err != nil {
		metrics.StageExamplesFailed.WithLabelValues(StageName, string(errors.CodeOf(err))).Inc()
		h.logger.Error("failed to load dataset", errors.FieldsFor(err))
		return nil, err
	}

	h.logger.Info("converting examples to BI domain", map[string]interface{}{
		"count": len(examples),
		"input": h.config.InputPath,
	})

	stats := &Stats{Total: len(examples)}
	converted := make([]dataset.Example, 0, len(examples))
	for i, example := range examples {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if i > 0 && i%1000 == 0 {
			h.logger.Info("conversion progress", map[string]interface{}{
				"processed": i,
				"total":     len(examples),
			})
		}

		out := ConvertExample(example)
		if out.Input != example.Input {
			stats.QuestionsChanged++
		}
		if injectedContext(example.Input, out.Input) {
			stats.ContextInjected++
		}
		converted = append(converted, out)
		metrics.StageExamplesProcessed.WithLabelValues(StageName).Inc()
	}

	if err := dataset.Save(h.config.OutputPath, converted); err != nil {
		metrics.StageExamplesFailed.WithLabelValues(StageName, string(errors.CodeOf(err))).Inc()
		h.logger.Error("failed to save converted dataset", errors.FieldsFor(err))
		return nil, err
	}

	metrics.StageDuration.WithLabelValues(StageName).Observe(time.Since(start).Seconds())
	h.logger.Info("conversion complete", map[string]interface{}{
		"converted":        len(converted),
		"questionsChanged": stats.QuestionsChanged,
		"output":           h.config.OutputPath,
	})
	return stats, nil
}

// ConvertExample converts a single training example to the BI domain.
func ConvertExample(example dataset.Example) dataset.Example {
	return dataset.Example{
		Input:  ConvertQuestion(example.Input),
		Output: ConvertOutput(example.Output),
	}
}

// ConvertQuestion rewrites a generic question into BI vocabulary. Terms are
// matched case-insensitively against the original question; the first mapping
// candidate replaces every occurrence.
func ConvertQuestion(question string) string {
	lower := strings.ToLower(question)

	converted := question
	for _, m := range entityMappings {
		if strings.Contains(lower, m.Term) {
			converted = m.re.ReplaceAllLiteralString(converted, m.Candidates[0])
		}
	}

	// Inject generic BI context when no BI vocabulary survived.
	if !containsBIVocabulary(converted) {
		convertedLower := strings.ToLower(converted)
		if strings.Contains(convertedLower, "how many") {
			converted = strings.ReplaceAll(converted, "how many", "How many users")
		} else if strings.Contains(convertedLower, "list") {
			converted = strings.ReplaceAll(converted, "List", "List all campaigns")
		} else if strings.Contains(convertedLower, "what are") {
			converted = strings.ReplaceAll(converted, "What are", "What are all the")
		}
	}

	return converted
}

// ConvertOutput rewrites the structured result to BI terminology while keeping
// its shape. Measure and dimension names and unmatched-intent phrases are
// renamed in place; everything else passes through untouched.
func ConvertOutput(output map[string]interface{}) map[string]interface{} {
	converted := make(map[string]interface{}, len(output))
	for k, v := range output {
		converted[k] = v
	}

	for _, result := range dataset.DiscoveryResults(converted) {
		renameEntries(result, "measures", measureRenames)
		renameEntries(result, "dimensions", dimensionRenames)
		remapPhrases(result)
	}

	return converted
}

// renameEntries applies a name mapping to each entry of a named-object list
// such as measures or dimensions.
func renameEntries(result map[string]interface{}, key string, renames map[string]string) {
	entries, ok := result[key].([]interface{})
	if !ok {
		return
	}
	for _, e := range entries {
		entry, ok := e.(map[string]interface{})
		if !ok {
			continue
		}
		name, ok := entry["name"].(string)
		if !ok {
			continue
		}
		if renamed, ok := renames[name]; ok {
			entry["name"] = renamed
		}
	}
}

func remapPhrases(result map[string]interface{}) {
	intents, ok := result["unmatched_intents"].([]interface{})
	if !ok {
		return
	}
	for _, i := range intents {
		intent, ok := i.(map[string]interface{})
		if !ok {
			continue
		}
		phrase, ok := intent["phrase"].(string)
		if !ok {
			continue
		}
		for _, remap := range phraseRemaps {
			if contains(remap.From, phrase) {
				intent["phrase"] = remap.To
				break
			}
		}
	}
}

func containsBIVocabulary(question string) bool {
	lower := strings.ToLower(question)
	for _, term := range biVocabulary {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

func injectedContext(original, converted string) bool {
	return strings.Contains(converted, "How many users") && !strings.Contains(original, "How many users") ||
		strings.Contains(converted, "List all campaigns") && !strings.Contains(original, "List all campaigns") ||
		strings.Contains(converted, "What are all the") && !strings.Contains(original, "What are all the")
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
