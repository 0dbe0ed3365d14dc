// Package questions merges curated and generated question lists into a single
// numbered file.
package questions

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

var (
	numberPrefix = regexp.MustCompile(`^(\d+)\.\s*`)
)

// Combine appends the generated questions after the existing block. Blank
// lines and // comments are dropped, any numbering on generated questions is
// stripped, and the generated block is renumbered to continue the existing
// sequence.
func Combine(existing, generated []string) []string {
	existingClean := cleanLines(existing)

	next := 1
	for _, line := range existingClean {
		if m := numberPrefix.FindStringSubmatch(line); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n >= next {
				next = n + 1
			}
		}
	}

	combined := make([]string, 0, len(existingClean)+len(generated))
	combined = append(combined, existingClean...)
	for _, line := range cleanLines(generated) {
		question := numberPrefix.ReplaceAllString(line, "")
		combined = append(combined, fmt.Sprintf("%d. %s", next, question))
		next++
	}
	return combined
}

// CombineFiles reads both question files and writes the combined list.
func CombineFiles(existingPath, generatedPath, outputPath string) (int, error) {
	existing, err := readLines(existingPath)
	if err != nil {
		return 0, err
	}
	generated, err := readLines(generatedPath)
	if err != nil {
		return 0, err
	}

	combined := Combine(existing, generated)
	content := strings.Join(combined, "\n")
	if len(combined) > 0 {
		content += "\n"
	}
	if err := os.WriteFile(outputPath, []byte(content), 0o644); err != nil {
		return 0, fmt.Errorf("write combined questions %s: %w", outputPath, err)
	}
	return len(combined), nil
}

// cleanLines trims whitespace and drops blanks and // comments.
func cleanLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "//") {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}

func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read questions %s: %w", path, err)
	}
	return strings.Split(string(data), "\n"), nil
}
