// internal/stages/process/prompt.go
package process

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"bi-training-pipeline/internal/common/errors"
)

const (
	questionPlaceholder   = "{{ context.current_question }}"
	modelFilesPlaceholder = "{{ context.model_files }}"
)

// PromptBuilder assembles the per-question prompt from the template and the
// model context files.
type PromptBuilder struct {
	template string
	context  string
}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// LoadTemplate reads the prompt template from disk.
func (b *PromptBuilder) LoadTemplate(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.NewPromptTemplateMissingError(path, err)
	}
	b.template = string(data)
	return nil
}

// LoadContextFiles appends every JSON file in dir to the model context, each
// prefixed with its filename. A missing directory is not an error.
func (b *PromptBuilder) LoadContextFiles(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.NewModelContextMissingError(dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString(b.context)
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return errors.NewModelContextMissingError(dir, err)
		}
		sb.WriteString(fmt.Sprintf("\n\n[%s]\n%s", name, data))
	}
	b.context = sb.String()
	return nil
}

// Build fills the template placeholders for one question.
func (b *PromptBuilder) Build(question string) (string, error) {
	if b.template == "" {
		return "", fmt.Errorf("prompt template not loaded")
	}

	prompt := strings.ReplaceAll(b.template, questionPlaceholder, question)
	if strings.Contains(prompt, modelFilesPlaceholder) {
		prompt = strings.ReplaceAll(prompt, modelFilesPlaceholder, b.context)
	}
	return prompt, nil
}
