// internal/stages/analyze/report.go
package analyze

import (
	"fmt"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// RenderReport renders the analysis as a human-readable console report.
func RenderReport(a *Analysis) string {
	var b strings.Builder

	b.WriteString("\n" + strings.Repeat("=", 80) + "\n")
	b.WriteString("BI TRAINING DATA ANALYSIS REPORT\n")
	b.WriteString(strings.Repeat("=", 80) + "\n\n")

	writeOverview(&b, a)
	writeComplexity(&b, a)
	writeTermCoverage(&b, a)
	writeQuestionPatterns(&b, a)
	writeIssues(&b, a)

	b.WriteString(fmt.Sprintf("\nOverall Quality Score: %d/100\n", a.QualityScore))
	b.WriteString(a.Verdict + "\n")

	return b.String()
}

func newTable(b *strings.Builder, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(b)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	table.SetHeader(header)
	return table
}

func writeOverview(b *strings.Builder, a *Analysis) {
	b.WriteString("OVERALL STATISTICS\n")
	table := newTable(b, []string{"Metric", "Value"})
	table.Append([]string{"Total examples", fmt.Sprintf("%d", a.TotalExamples)})
	table.Append([]string{"Valid outputs", fmt.Sprintf("%d", a.OutputQuality.ValidOutputs)})
	table.Append([]string{"Validity rate", fmt.Sprintf("%.1f%%", a.OutputQuality.ValidityRate*100)})
	table.Render()
	b.WriteString("\n")
}

func writeComplexity(b *strings.Builder, a *Analysis) {
	c := a.ComplexityDistribution
	b.WriteString("COMPLEXITY DISTRIBUTION\n")
	table := newTable(b, []string{"Bucket", "Count"})
	table.Append([]string{"Simple questions", fmt.Sprintf("%d", c.SimpleQuestions)})
	table.Append([]string{"Complex questions", fmt.Sprintf("%d", c.ComplexQuestions)})
	table.Append([]string{"Multi-step questions", fmt.Sprintf("%d", c.MultiStepQuestions)})
	table.Append([]string{"Three-step questions", fmt.Sprintf("%d", c.ThreeStepQuestions)})
	table.Append([]string{"Complexity ratio", fmt.Sprintf("%.1f%%", c.ComplexityRatio*100)})
	table.Render()
	b.WriteString("\n")
}

func writeTermCoverage(b *strings.Builder, a *Analysis) {
	t := a.BITermsCoverage
	b.WriteString(fmt.Sprintf("BI TERMS COVERAGE (%d terms used", t.TotalBITermsUsed))
	if len(t.TermsWithZeroUsage) > 0 {
		b.WriteString(fmt.Sprintf(", %d unused", len(t.TermsWithZeroUsage)))
	}
	b.WriteString(")\n")

	table := newTable(b, []string{"Term", "Questions"})
	for _, tc := range t.MostCommonTerms {
		table.Append([]string{tc.Term, fmt.Sprintf("%d", tc.Count)})
	}
	table.Render()
	b.WriteString("\n")
}

func writeQuestionPatterns(b *strings.Builder, a *Analysis) {
	b.WriteString("QUESTION PATTERNS\n")

	type patternCount struct {
		pattern string
		count   int
	}
	counts := make([]patternCount, 0, len(a.QuestionPatterns))
	for pattern, count := range a.QuestionPatterns {
		if count > 0 {
			counts = append(counts, patternCount{pattern, count})
		}
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].count != counts[j].count {
			return counts[i].count > counts[j].count
		}
		return counts[i].pattern < counts[j].pattern
	})
	if len(counts) > 10 {
		counts = counts[:10]
	}

	table := newTable(b, []string{"Pattern", "Count", "Share"})
	for _, pc := range counts {
		share := 0.0
		if a.TotalExamples > 0 {
			share = float64(pc.count) / float64(a.TotalExamples) * 100
		}
		table.Append([]string{pc.pattern, fmt.Sprintf("%d", pc.count), fmt.Sprintf("%.1f%%", share)})
	}
	table.Render()
	b.WriteString("\n")
}

func writeIssues(b *strings.Builder, a *Analysis) {
	b.WriteString("ISSUES IDENTIFIED\n")
	if len(a.Issues) == 0 && len(a.OutputQuality.OutputIssues) == 0 {
		b.WriteString("   No major issues found!\n")
		return
	}

	unique := uniqueStrings(a.Issues)
	for i, issue := range unique {
		if i == 10 {
			b.WriteString(fmt.Sprintf("   ... and %d more\n", len(unique)-10))
			break
		}
		b.WriteString("   - " + issue + "\n")
	}

	if n := len(a.OutputQuality.OutputIssues); n > 0 {
		b.WriteString(fmt.Sprintf("   Structural issues: %d\n", n))
		for i, issue := range a.OutputQuality.OutputIssues {
			if i == 5 {
				b.WriteString(fmt.Sprintf("   ... and %d more\n", n-5))
				break
			}
			b.WriteString("     - " + issue + "\n")
		}
	}
}

func uniqueStrings(in []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
