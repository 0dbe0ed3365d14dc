// internal/stages/analyze/models.go
package analyze

// Analysis is the full quality report for a converted dataset. Field names
// match the JSON document consumed by downstream reporting.
type Analysis struct {
	TotalExamples          int                    `json:"total_examples"`
	ComplexityDistribution ComplexityDistribution `json:"complexity_distribution"`
	BITermsCoverage        TermsCoverage          `json:"bi_terms_coverage"`
	QuestionPatterns       map[string]int         `json:"question_patterns"`
	OutputQuality          OutputQuality          `json:"output_quality"`
	Issues                 []string               `json:"issues"`
	QualityScore           int                    `json:"quality_score"`
	Verdict                string                 `json:"verdict"`
}

// ComplexityDistribution summarizes the mix of single and multi step questions.
type ComplexityDistribution struct {
	SimpleQuestions    int     `json:"simple_questions"`
	ComplexQuestions   int     `json:"complex_questions"`
	MultiStepQuestions int     `json:"multi_step_questions"`
	ThreeStepQuestions int     `json:"three_step_questions"`
	ComplexityRatio    float64 `json:"complexity_ratio"`
}

// TermsCoverage summarizes how much of the BI vocabulary the questions use.
type TermsCoverage struct {
	TotalBITermsUsed   int         `json:"total_bi_terms_used"`
	MostCommonTerms    []TermCount `json:"most_common_terms"`
	TermsWithZeroUsage []string    `json:"terms_with_zero_usage"`
}

type TermCount struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// OutputQuality summarizes structural validity of the result documents.
type OutputQuality struct {
	ValidOutputs int      `json:"valid_outputs"`
	OutputIssues []string `json:"output_issues"`
	ValidityRate float64  `json:"validity_rate"`
}

// Verdict labels, assigned from the quality score.
const (
	VerdictExcellent = "EXCELLENT - Ready for training!"
	VerdictGood      = "GOOD - Minor improvements needed"
	VerdictNeedsWork = "NEEDS WORK - Significant improvements required"
)
