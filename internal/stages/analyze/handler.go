// internal/stages/analyze/handler.go
package analyze

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"bi-training-pipeline/internal/common/errors"
	"bi-training-pipeline/internal/common/metrics"
	"bi-training-pipeline/internal/dataset"
)

// biTerms is the vocabulary a converted question is expected to draw from.
var biTerms = []string{
	"publishers", "advertisers", "bidders", "campaigns", "users", "customers",
	"viewers", "clicks", "revenue", "spend", "cost", "budget", "websites",
	"apps", "channels", "sites", "visitors", "audience", "ads", "creatives",
	"placements", "impressions", "conversions", "requests", "bids", "locations",
	"regions", "markets", "territories", "videos", "content", "activities",
	"events", "managers", "leaders", "operators", "controllers",
}

// nonBITerms are generic-domain leftovers that conversion should have removed.
var nonBITerms = []string{
	"departments", "employees", "students", "schools", "companies",
	"customers", "films", "movies", "books", "sports", "games",
}

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// RunStore persists analysis run summaries.
type RunStore interface {
	SaveAnalysisRun(ctx context.Context, a *Analysis) error
}

// Notifier alerts on low-quality datasets.
type Notifier interface {
	NotifyLowQuality(ctx context.Context, a *Analysis) error
}

type Handler struct {
	config   *Config
	logger   Logger
	store    RunStore // optional
	notifier Notifier // optional
}

func NewHandler(config *Config, log Logger) *Handler {
	return &Handler{
		config: config,
		logger: log.With(map[string]interface{}{
			"stage": StageName,
		}),
	}
}

// WithStore attaches a run store for persisting analysis summaries.
func (h *Handler) WithStore(store RunStore) *Handler {
	h.store = store
	return h
}

// WithNotifier attaches a notifier for low-score alerts.
func (h *Handler) WithNotifier(n Notifier) *Handler {
	h.notifier = n
	return h
}

// Run analyzes the converted dataset, prints the report, and saves the
// analysis document.
func (h *Handler) Run(ctx context.Context) (*Analysis, error) {
	start := time.Now()

	examples, err := dataset.Load(h.config.InputPath)
	if err != nil {
		metrics.StageExamplesFailed.WithLabelValues(StageName, string(errors.CodeOf(err))).Inc()
		h.logger.Error("failed to load dataset", errors.FieldsFor(err))
		return nil, err
	}

	h.logger.Info("analyzing dataset", map[string]interface{}{
		"count": len(examples),
		"input": h.config.InputPath,
	})

	analysis := Analyze(examples)

	fmt.Print(RenderReport(analysis))

	if err := saveAnalysis(h.config.OutputPath, analysis); err != nil {
		metrics.StageExamplesFailed.WithLabelValues(StageName, string(errors.CodeOf(err))).Inc()
		h.logger.Error("failed to save analysis", errors.FieldsFor(err))
		return nil, err
	}

	if h.store != nil {
		if err := h.store.SaveAnalysisRun(ctx, analysis); err != nil {
			h.logger.Warn("failed to persist analysis run", errors.FieldsFor(err))
		}
	}

	if h.notifier != nil && analysis.QualityScore < h.config.ScoreThreshold {
		if err := h.notifier.NotifyLowQuality(ctx, analysis); err != nil {
			h.logger.Warn("failed to send low-quality notification", errors.FieldsFor(err))
		}
	}

	metrics.StageDuration.WithLabelValues(StageName).Observe(time.Since(start).Seconds())
	h.logger.Info("analysis complete", map[string]interface{}{
		"qualityScore": analysis.QualityScore,
		"verdict":      analysis.Verdict,
		"output":       h.config.OutputPath,
	})
	return analysis, nil
}

// Analyze computes the full quality report for a dataset.
func Analyze(examples []dataset.Example) *Analysis {
	analysis := &Analysis{
		TotalExamples: len(examples),
		Issues:        []string{},
	}

	analysis.ComplexityDistribution = analyzeComplexity(examples)
	analysis.BITermsCoverage = analyzeTermCoverage(examples)
	analysis.QuestionPatterns = analyzeQuestionPatterns(examples)
	analysis.OutputQuality = analyzeOutputQuality(examples)
	analysis.Issues = identifyIssues(examples)
	analysis.QualityScore = scoreAnalysis(analysis)

	switch {
	case analysis.QualityScore >= 80:
		analysis.Verdict = VerdictExcellent
	case analysis.QualityScore >= 60:
		analysis.Verdict = VerdictGood
	default:
		analysis.Verdict = VerdictNeedsWork
	}

	return analysis
}

func analyzeComplexity(examples []dataset.Example) ComplexityDistribution {
	stepCounts := map[string]int{}
	for _, example := range examples {
		for _, result := range dataset.DiscoveryResults(example.Output) {
			if stepID, ok := result["step_id"].(string); ok {
				stepCounts[stepID]++
			}
		}
	}

	dist := ComplexityDistribution{
		SimpleQuestions:    stepCounts[dataset.StepOne],
		ComplexQuestions:   stepCounts[dataset.StepTwo] + stepCounts[dataset.StepThree],
		MultiStepQuestions: stepCounts[dataset.StepTwo],
		ThreeStepQuestions: stepCounts[dataset.StepThree],
	}
	if len(examples) > 0 {
		dist.ComplexityRatio = float64(dist.ComplexQuestions) / float64(len(examples))
	}
	return dist
}

func analyzeTermCoverage(examples []dataset.Example) TermsCoverage {
	termCounts := map[string]int{}
	for _, example := range examples {
		question := strings.ToLower(example.Input)
		for _, term := range biTerms {
			if strings.Contains(question, term) {
				termCounts[term]++
			}
		}
	}

	coverage := TermsCoverage{TermsWithZeroUsage: []string{}}
	counts := make([]TermCount, 0, len(termCounts))
	for _, term := range biTerms {
		if termCounts[term] == 0 {
			coverage.TermsWithZeroUsage = append(coverage.TermsWithZeroUsage, term)
			continue
		}
		coverage.TotalBITermsUsed++
		counts = append(counts, TermCount{Term: term, Count: termCounts[term]})
	}

	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Term < counts[j].Term
	})
	if len(counts) > 10 {
		counts = counts[:10]
	}
	coverage.MostCommonTerms = counts
	return coverage
}

func analyzeQuestionPatterns(examples []dataset.Example) map[string]int {
	patterns := map[string]int{
		"how_many": 0, "list": 0, "what_are": 0, "compare": 0, "top": 0,
		"bottom": 0, "average": 0, "maximum": 0, "minimum": 0, "trend": 0,
		"percentage": 0, "which": 0, "show": 0, "find": 0, "return": 0,
	}

	for _, example := range examples {
		q := strings.ToLower(example.Input)
		if strings.Contains(q, "how many") {
			patterns["how_many"]++
		}
		if strings.Contains(q, "list") {
			patterns["list"]++
		}
		if strings.Contains(q, "what are") {
			patterns["what_are"]++
		}
		if strings.Contains(q, "compare") || strings.Contains(q, "versus") || strings.Contains(q, "vs") {
			patterns["compare"]++
		}
		if strings.Contains(q, "top") {
			patterns["top"]++
		}
		if strings.Contains(q, "bottom") || strings.Contains(q, "lowest") {
			patterns["bottom"]++
		}
		if strings.Contains(q, "average") {
			patterns["average"]++
		}
		if strings.Contains(q, "maximum") || strings.Contains(q, "highest") {
			patterns["maximum"]++
		}
		if strings.Contains(q, "minimum") || strings.Contains(q, "lowest") {
			patterns["minimum"]++
		}
		if strings.Contains(q, "trend") || strings.Contains(q, "change") {
			patterns["trend"]++
		}
		if strings.Contains(q, "percentage") || strings.Contains(q, "%") {
			patterns["percentage"]++
		}
		if strings.Contains(q, "which") {
			patterns["which"]++
		}
		if strings.Contains(q, "show") {
			patterns["show"]++
		}
		if strings.Contains(q, "find") {
			patterns["find"]++
		}
		if strings.Contains(q, "return") {
			patterns["return"]++
		}
	}

	return patterns
}

func analyzeOutputQuality(examples []dataset.Example) OutputQuality {
	quality := OutputQuality{OutputIssues: []string{}}

	for i, example := range examples {
		if _, ok := example.Output["intent"]; !ok {
			quality.OutputIssues = append(quality.OutputIssues,
				fmt.Sprintf("Example %d: Missing intent field", i))
			continue
		}
		if _, ok := example.Output["discovery_results"]; !ok {
			quality.OutputIssues = append(quality.OutputIssues,
				fmt.Sprintf("Example %d: Missing discovery_results", i))
			continue
		}

		for j, result := range dataset.DiscoveryResults(example.Output) {
			for _, field := range dataset.RequiredResultFields {
				if _, ok := result[field]; !ok {
					quality.OutputIssues = append(quality.OutputIssues,
						fmt.Sprintf("Example %d, Result %d: Missing %s", i, j, field))
				}
			}
		}

		quality.ValidOutputs++
	}

	if len(examples) > 0 {
		quality.ValidityRate = float64(quality.ValidOutputs) / float64(len(examples))
	}
	return quality
}

func identifyIssues(examples []dataset.Example) []string {
	issues := []string{}

	for _, example := range examples {
		question := strings.ToLower(example.Input)
		for _, term := range nonBITerms {
			if strings.Contains(question, term) {
				issues = append(issues, fmt.Sprintf("Non-BI term found: '%s' in question", term))
				break
			}
		}
	}

	// Residual generic terminology anywhere in the serialized dataset,
	// outputs included.
	if serialized, err := json.Marshal(examples); err == nil {
		if strings.Contains(strings.ToLower(string(serialized)), "departments") {
			issues = append(issues, "Inconsistent terminology: 'departments' still present in outputs")
		}
	}

	issues = append(issues, enumIssues(examples)...)
	issues = append(issues, phraseIssues(examples)...)
	issues = append(issues, complexityIssues(examples)...)
	issues = append(issues, duplicateIssues(examples)...)

	return issues
}

// enumIssues flags result fields carrying values outside the accepted enums.
func enumIssues(examples []dataset.Example) []string {
	issues := []string{}
	for i, example := range examples {
		for j, result := range dataset.DiscoveryResults(example.Output) {
			if stepID, ok := result["step_id"].(string); ok && !dataset.ValidStepIDs[stepID] {
				issues = append(issues,
					fmt.Sprintf("Example %d, Result %d: invalid step_id '%s'", i, j, stepID))
			}
			if tg, ok := result["timegrain"].(string); ok && tg != "" && !dataset.ValidTimegrains[tg] {
				issues = append(issues,
					fmt.Sprintf("Example %d, Result %d: invalid timegrain '%s'", i, j, tg))
			}
			if p, ok := result["pattern"].(string); ok && p != "" && !dataset.ValidPatterns[p] {
				issues = append(issues,
					fmt.Sprintf("Example %d, Result %d: invalid pattern '%s'", i, j, p))
			}
		}
	}
	return issues
}

// phraseIssues flags measure and dimension entries whose original_phrase does
// not occur in the sub-question they were extracted from.
func phraseIssues(examples []dataset.Example) []string {
	issues := []string{}
	for i, example := range examples {
		for j, result := range dataset.DiscoveryResults(example.Output) {
			subQuestion, _ := result["sub_question"].(string)
			subQuestion = strings.ToLower(subQuestion)

			for _, field := range []string{"measures", "dimensions"} {
				entries, ok := result[field].([]interface{})
				if !ok {
					continue
				}
				for _, entry := range entries {
					m, ok := entry.(map[string]interface{})
					if !ok {
						continue
					}
					phrase, _ := m["original_phrase"].(string)
					if phrase == "" {
						continue
					}
					if !strings.Contains(subQuestion, strings.ToLower(phrase)) {
						issues = append(issues,
							fmt.Sprintf("Example %d, Result %d: %s phrase '%s' not in sub-question", i, j, field, phrase))
					}
				}
			}
		}
	}
	return issues
}

// complexityIssues flags questions with an explicit ordering clause that are
// still labeled as a single step. Ordering implies a ranking step on top of
// the base aggregation.
func complexityIssues(examples []dataset.Example) []string {
	issues := []string{}
	for i, example := range examples {
		question := strings.ToLower(example.Input)
		if !strings.Contains(question, "ordered by") && !strings.Contains(question, "sorted by") {
			continue
		}
		if len(dataset.DiscoveryResults(example.Output)) == 1 {
			issues = append(issues,
				fmt.Sprintf("Example %d: ordering question labeled single-step", i))
		}
	}
	return issues
}

// duplicateIssues flags questions that appear more than once in the dataset.
func duplicateIssues(examples []dataset.Example) []string {
	seen := map[string]int{}
	for _, example := range examples {
		seen[strings.ToLower(strings.TrimSpace(example.Input))]++
	}

	duplicates := 0
	for _, count := range seen {
		if count > 1 {
			duplicates++
		}
	}
	if duplicates == 0 {
		return nil
	}
	return []string{fmt.Sprintf("Duplicate questions: %d distinct questions appear more than once", duplicates)}
}

// scoreAnalysis computes the 0-100 quality score from five 20-point bands.
func scoreAnalysis(a *Analysis) int {
	score := 0

	// Volume
	switch {
	case a.TotalExamples >= 7000:
		score += 20
	case a.TotalExamples >= 5000:
		score += 15
	case a.TotalExamples >= 3000:
		score += 10
	}

	// Complexity distribution
	ratio := a.ComplexityDistribution.ComplexityRatio
	switch {
	case ratio >= 0.3 && ratio <= 0.7:
		score += 20
	case ratio >= 0.2 && ratio <= 0.8:
		score += 15
	default:
		score += 10
	}

	// BI terms coverage
	switch {
	case a.BITermsCoverage.TotalBITermsUsed >= 20:
		score += 20
	case a.BITermsCoverage.TotalBITermsUsed >= 15:
		score += 15
	case a.BITermsCoverage.TotalBITermsUsed >= 10:
		score += 10
	}

	// Output validity
	switch {
	case a.OutputQuality.ValidityRate >= 0.95:
		score += 20
	case a.OutputQuality.ValidityRate >= 0.90:
		score += 15
	case a.OutputQuality.ValidityRate >= 0.80:
		score += 10
	}

	// Issues
	switch {
	case len(a.Issues) == 0:
		score += 20
	case len(a.Issues) <= 10:
		score += 15
	case len(a.Issues) <= 50:
		score += 10
	default:
		score += 5
	}

	return score
}

func saveAnalysis(path string, a *Analysis) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return errors.NewDatasetWriteFailedError(path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.NewDatasetWriteFailedError(path, err)
	}
	return nil
}
