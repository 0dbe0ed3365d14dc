// internal/stages/analyze/handler_test.go
package analyze

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
	t *testing.T
}

func NewTestLogger(t *testing.T) *TestLogger {
	return &TestLogger{t: t}
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
	return l
}

// ==========================
// Test Helper Functions
// ==========================

func exampleWithStep(question, stepID string) dataset.Example {
	output := dataset.FallbackOutput(question)
	results := dataset.DiscoveryResults(output)
	results[0]["step_id"] = stepID
	return dataset.Example{Input: question, Output: output}
}

func testExamples() []dataset.Example {
	return []dataset.Example{
		exampleWithStep("How many users are there?", dataset.StepOne),
		exampleWithStep("Show the revenue of each publisher.", dataset.StepTwo),
		exampleWithStep("List all campaigns by departments", dataset.StepOne),
	}
}

// ==========================
// Analysis Tests
// ==========================

func TestAnalyze_ComplexityDistribution(t *testing.T) {
	analysis := Analyze(testExamples())

	c := analysis.ComplexityDistribution
	assert.Equal(t, 2, c.SimpleQuestions)
	assert.Equal(t, 1, c.ComplexQuestions)
	assert.Equal(t, 1, c.MultiStepQuestions)
	assert.Equal(t, 0, c.ThreeStepQuestions)
	assert.InDelta(t, 1.0/3.0, c.ComplexityRatio, 0.001)
}

func TestAnalyze_TermCoverage(t *testing.T) {
	analysis := Analyze(testExamples())

	coverage := analysis.BITermsCoverage
	assert.Equal(t, 3, coverage.TotalBITermsUsed) // users, revenue, campaigns
	assert.Contains(t, coverage.TermsWithZeroUsage, "impressions")

	terms := make([]string, 0, len(coverage.MostCommonTerms))
	for _, tc := range coverage.MostCommonTerms {
		terms = append(terms, tc.Term)
	}
	assert.ElementsMatch(t, []string{"users", "revenue", "campaigns"}, terms)
}

func TestAnalyze_QuestionPatterns(t *testing.T) {
	analysis := Analyze(testExamples())

	patterns := analysis.QuestionPatterns
	assert.Equal(t, 1, patterns["how_many"])
	assert.Equal(t, 1, patterns["list"])
	assert.Equal(t, 1, patterns["show"])
	assert.Equal(t, 0, patterns["compare"])
}

func TestAnalyze_OutputQuality(t *testing.T) {
	examples := testExamples()
	examples = append(examples, dataset.Example{
		Input:  "Broken example",
		Output: map[string]interface{}{"intent": dataset.IntentDiscovery},
	})

	analysis := Analyze(examples)

	quality := analysis.OutputQuality
	assert.Equal(t, 3, quality.ValidOutputs)
	assert.InDelta(t, 0.75, quality.ValidityRate, 0.001)
	require.Len(t, quality.OutputIssues, 1)
	assert.Contains(t, quality.OutputIssues[0], "Missing discovery_results")
}

func TestAnalyze_FlagsResidualTerms(t *testing.T) {
	analysis := Analyze(testExamples())

	assert.Contains(t, analysis.Issues, "Non-BI term found: 'departments' in question")
	assert.Contains(t, analysis.Issues, "Inconsistent terminology: 'departments' still present in outputs")
}

func TestAnalyze_FlagsInvalidEnums(t *testing.T) {
	examples := []dataset.Example{
		exampleWithStep("How many users are there?", "step_9"),
	}
	results := dataset.DiscoveryResults(examples[0].Output)
	results[0]["timegrain"] = "decade"
	results[0]["pattern"] = "mystery"

	analysis := Analyze(examples)

	assert.Contains(t, analysis.Issues, "Example 0, Result 0: invalid step_id 'step_9'")
	assert.Contains(t, analysis.Issues, "Example 0, Result 0: invalid timegrain 'decade'")
	assert.Contains(t, analysis.Issues, "Example 0, Result 0: invalid pattern 'mystery'")
}

func TestAnalyze_FlagsPhraseMismatch(t *testing.T) {
	examples := []dataset.Example{
		exampleWithStep("How many users are there?", dataset.StepOne),
	}
	results := dataset.DiscoveryResults(examples[0].Output)
	results[0]["measures"] = []interface{}{
		map[string]interface{}{"name": "Total Users", "original_phrase": "how many users"},
		map[string]interface{}{"name": "Total Revenue", "original_phrase": "revenue"},
	}

	analysis := Analyze(examples)

	assert.Contains(t, analysis.Issues,
		"Example 0, Result 0: measures phrase 'revenue' not in sub-question")
	assert.NotContains(t, analysis.Issues,
		"Example 0, Result 0: measures phrase 'how many users' not in sub-question")
}

func TestAnalyze_FlagsSingleStepOrderingQuestions(t *testing.T) {
	examples := []dataset.Example{
		exampleWithStep("List all campaigns ordered by revenue.", dataset.StepOne),
		exampleWithStep("List all campaigns.", dataset.StepOne),
	}

	analysis := Analyze(examples)

	assert.Contains(t, analysis.Issues, "Example 0: ordering question labeled single-step")
	assert.NotContains(t, analysis.Issues, "Example 1: ordering question labeled single-step")
}

func TestAnalyze_FlagsDuplicateQuestions(t *testing.T) {
	examples := []dataset.Example{
		exampleWithStep("How many users are there?", dataset.StepOne),
		exampleWithStep("How many users are there?", dataset.StepOne),
	}

	analysis := Analyze(examples)

	assert.Contains(t, analysis.Issues,
		"Duplicate questions: 1 distinct questions appear more than once")
}

// ==========================
// Scoring Tests
// ==========================

func TestScoreAnalysis_Bands(t *testing.T) {
	tests := []struct {
		name     string
		analysis Analysis
		expected int
	}{
		{
			name: "perfect dataset",
			analysis: Analysis{
				TotalExamples:          7000,
				ComplexityDistribution: ComplexityDistribution{ComplexityRatio: 0.5},
				BITermsCoverage:        TermsCoverage{TotalBITermsUsed: 25},
				OutputQuality:          OutputQuality{ValidityRate: 1.0},
				Issues:                 []string{},
			},
			expected: 100,
		},
		{
			name: "middling dataset",
			analysis: Analysis{
				TotalExamples:          5000,
				ComplexityDistribution: ComplexityDistribution{ComplexityRatio: 0.25},
				BITermsCoverage:        TermsCoverage{TotalBITermsUsed: 16},
				OutputQuality:          OutputQuality{ValidityRate: 0.92},
				Issues:                 make([]string, 8),
			},
			expected: 75,
		},
		{
			name: "poor dataset",
			analysis: Analysis{
				TotalExamples:          100,
				ComplexityDistribution: ComplexityDistribution{ComplexityRatio: 0.05},
				BITermsCoverage:        TermsCoverage{TotalBITermsUsed: 2},
				OutputQuality:          OutputQuality{ValidityRate: 0.5},
				Issues:                 make([]string, 200),
			},
			expected: 15,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, scoreAnalysis(&tt.analysis))
		})
	}
}

func TestAnalyze_Verdict(t *testing.T) {
	analysis := Analyze(testExamples())
	assert.Equal(t, VerdictNeedsWork, analysis.Verdict)
	assert.Less(t, analysis.QualityScore, 60)
}

// ==========================
// Report Tests
// ==========================

func TestRenderReport(t *testing.T) {
	analysis := Analyze(testExamples())
	report := RenderReport(analysis)

	assert.Contains(t, report, "BI TRAINING DATA ANALYSIS REPORT")
	assert.Contains(t, report, "COMPLEXITY DISTRIBUTION")
	assert.Contains(t, report, "QUESTION PATTERNS")
	assert.Contains(t, report, "Overall Quality Score:")
}

// ==========================
// Stage Run Tests
// ==========================

type fakeStore struct {
	saved *Analysis
}

func (f *fakeStore) SaveAnalysisRun(_ context.Context, a *Analysis) error {
	f.saved = a
	return nil
}

type fakeNotifier struct {
	notified bool
}

func (f *fakeNotifier) NotifyLowQuality(_ context.Context, _ *Analysis) error {
	f.notified = true
	return nil
}

func TestHandler_Run(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "train_bi.json")
	outputPath := filepath.Join(dir, "analysis.json")
	require.NoError(t, dataset.Save(inputPath, testExamples()))

	store := &fakeStore{}
	notifier := &fakeNotifier{}

	handler := NewHandler(&Config{
		InputPath:      inputPath,
		OutputPath:     outputPath,
		ScoreThreshold: 60,
	}, NewTestLogger(t)).WithStore(store).WithNotifier(notifier)

	analysis, err := handler.Run(context.Background())
	require.NoError(t, err)

	assert.NotNil(t, store.saved)
	assert.True(t, notifier.notified) // tiny dataset scores below threshold
	assert.FileExists(t, outputPath)
	assert.Equal(t, 3, analysis.TotalExamples)
}
