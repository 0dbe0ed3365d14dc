// cmd/tools/question-combiner/main.go
package main

import (
	"flag"
	"fmt"
	"os"

	"bi-training-pipeline/internal/questions"
)

func main() {
	existingPath := flag.String("existing", "data/generated_questions.txt", "Path to the curated question list")
	generatedPath := flag.String("generated", "data/new_generated_questions.txt", "Path to the newly generated question list")
	outputPath := flag.String("output", "data/all_questions.txt", "Path for the combined question list")
	flag.Parse()

	count, err := questions.CombineFiles(*existingPath, *generatedPath, *outputPath)
	if err != nil {
		fmt.Printf("Error combining questions: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Wrote %d questions to %s\n", count, *outputPath)
}
