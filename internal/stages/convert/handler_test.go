// internal/stages/convert/handler_test.go
package convert

import (
	"context"
	"path/filepath"
	"testing"

	"bi-training-pipeline/internal/dataset"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Logger Implementation
// ==========================

// TestLogger implements the Logger interface for testing
type TestLogger struct {
	t      *testing.T
	fields map[string]interface{}
}

func NewTestLogger(t *testing.T) *TestLogger {
	return &TestLogger{
		t:      t,
		fields: make(map[string]interface{}),
	}
}

func (l *TestLogger) Info(msg string, fields map[string]interface{}) {
	l.t.Logf("INFO: %s %v", msg, fields)
}

func (l *TestLogger) Warn(msg string, fields map[string]interface{}) {
	l.t.Logf("WARN: %s %v", msg, fields)
}

func (l *TestLogger) Error(msg string, fields map[string]interface{}) {
	l.t.Logf("ERROR: %s %v", msg, fields)
}

func (l *TestLogger) With(fields map[string]interface{}) Logger {
	newLogger := &TestLogger{
		t:      l.t,
		fields: make(map[string]interface{}),
	}
	for k, v := range l.fields {
		newLogger.fields[k] = v
	}
	for k, v := range fields {
		newLogger.fields[k] = v
	}
	return newLogger
}

// ==========================
// Question Conversion Tests
// ==========================

func TestConvertQuestion(t *testing.T) {
	tests := []struct {
		name     string
		question string
		expected string
	}{
		{
			name:     "entity replacement",
			question: "How many employees are there?",
			expected: "How many users are there?",
		},
		{
			name:     "multiple terms in one question",
			question: "What is the total budget across all departments?",
			expected: "What is the total revenue across all publishers?",
		},
		{
			name:     "case insensitive matching",
			question: "Show the Budget for each of the Companies.",
			expected: "Show the revenue for each of the publishers.",
		},
		{
			name:     "sales becomes impressions",
			question: "Which products had the highest sales?",
			expected: "Which ads had the highest impressions?",
		},
		{
			name:     "question without mapped terms passes through",
			question: "Describe the current situation.",
			expected: "Describe the current situation.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ConvertQuestion(tt.question))
		})
	}
}

func TestConvertQuestion_ContextInjection(t *testing.T) {
	// A lowercase "how many" with no surviving BI vocabulary gets the
	// generic user context injected.
	got := ConvertQuestion("how many singers do we have?")
	assert.Equal(t, "How many users singers do we have?", got)

	got = ConvertQuestion("List singers sorted alphabetically.")
	assert.Equal(t, "List all campaigns singers sorted alphabetically.", got)

	got = ConvertQuestion("What are the singers?")
	assert.Equal(t, "What are all the the singers?", got)
}

func TestHandler_Run_CountsContextInjection(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "train.json")
	outputPath := filepath.Join(dir, "train_bi.json")

	require.NoError(t, dataset.Save(inputPath, []dataset.Example{
		{Input: "how many singers do we have?", Output: dataset.FallbackOutput("how many singers do we have?")},
		{Input: "List singers sorted alphabetically.", Output: dataset.FallbackOutput("List singers sorted alphabetically.")},
		{Input: "What are the singers?", Output: dataset.FallbackOutput("What are the singers?")},
		{Input: "Show the budget of each department.", Output: dataset.FallbackOutput("Show the budget of each department.")},
	}))

	handler := NewHandler(&Config{
		InputPath:  inputPath,
		OutputPath: outputPath,
	}, NewTestLogger(t))

	stats, err := handler.Run(context.Background())
	require.NoError(t, err)
	// The first three questions carried no BI vocabulary and each received
	// an injection; the last was converted by entity replacement alone.
	assert.Equal(t, 3, stats.ContextInjected)
}

// ==========================
// Output Conversion Tests
// ==========================

func TestConvertOutput_RenamesMeasuresAndDimensions(t *testing.T) {
	output := map[string]interface{}{
		"intent": dataset.IntentDiscovery,
		"discovery_results": []interface{}{
			map[string]interface{}{
				"step_id":      dataset.StepOne,
				"sub_question": "How many users?",
				"measures": []interface{}{
					map[string]interface{}{"name": "Count"},
					map[string]interface{}{"name": "Max"},
					map[string]interface{}{"name": "Average"},
				},
				"dimensions": []interface{}{
					map[string]interface{}{"name": "Geographic"},
					map[string]interface{}{"name": "Temporal"},
					map[string]interface{}{"name": "Entity"},
				},
				"unmatched_intents": []interface{}{
					map[string]interface{}{"phrase": "departments"},
					map[string]interface{}{"phrase": "budget"},
					map[string]interface{}{"phrase": "clicks"},
				},
			},
		},
	}

	converted := ConvertOutput(output)
	results := dataset.DiscoveryResults(converted)
	require.Len(t, results, 1)

	measures := results[0]["measures"].([]interface{})
	assert.Equal(t, "Total", measures[0].(map[string]interface{})["name"])
	assert.Equal(t, "Maximum", measures[1].(map[string]interface{})["name"])
	assert.Equal(t, "Average", measures[2].(map[string]interface{})["name"])

	dimensions := results[0]["dimensions"].([]interface{})
	assert.Equal(t, "Region", dimensions[0].(map[string]interface{})["name"])
	assert.Equal(t, "Time", dimensions[1].(map[string]interface{})["name"])
	assert.Equal(t, "Entity", dimensions[2].(map[string]interface{})["name"])

	intents := results[0]["unmatched_intents"].([]interface{})
	assert.Equal(t, "users", intents[0].(map[string]interface{})["phrase"])
	assert.Equal(t, "revenue", intents[1].(map[string]interface{})["phrase"])
	assert.Equal(t, "clicks", intents[2].(map[string]interface{})["phrase"])
}

func TestConvertOutput_IgnoresMalformedEntries(t *testing.T) {
	output := map[string]interface{}{
		"intent": dataset.IntentDiscovery,
		"discovery_results": []interface{}{
			map[string]interface{}{
				"step_id":  dataset.StepOne,
				"measures": "not a list",
				"dimensions": []interface{}{
					"not a map",
					map[string]interface{}{"label": "no name key"},
				},
			},
		},
	}

	// Should not panic and should leave values untouched.
	converted := ConvertOutput(output)
	results := dataset.DiscoveryResults(converted)
	require.Len(t, results, 1)
	assert.Equal(t, "not a list", results[0]["measures"])
}

// ==========================
// Stage Run Tests
// ==========================

func TestHandler_Run(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "train.json")
	outputPath := filepath.Join(dir, "train_bi.json")

	examples := []dataset.Example{
		{
			Input:  "How many employees are there?",
			Output: dataset.FallbackOutput("How many employees are there?"),
		},
		{
			Input:  "Show the budget of each department.",
			Output: dataset.FallbackOutput("Show the budget of each department."),
		},
	}
	require.NoError(t, dataset.Save(inputPath, examples))

	handler := NewHandler(&Config{
		InputPath:  inputPath,
		OutputPath: outputPath,
	}, NewTestLogger(t))

	stats, err := handler.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 2, stats.QuestionsChanged)

	converted, err := dataset.Load(outputPath)
	require.NoError(t, err)
	require.Len(t, converted, 2)
	assert.Equal(t, "How many users are there?", converted[0].Input)
	assert.Equal(t, "Show the revenue of each department.", converted[1].Input)
}

func TestHandler_Run_MissingInput(t *testing.T) {
	handler := NewHandler(&Config{
		InputPath:  filepath.Join(t.TempDir(), "nope.json"),
		OutputPath: filepath.Join(t.TempDir(), "out.json"),
	}, NewTestLogger(t))

	_, err := handler.Run(context.Background())
	assert.Error(t, err)
}
