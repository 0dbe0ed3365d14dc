// internal/dataset/io.go
package dataset

import (
	"encoding/json"
	"os"

	"bi-training-pipeline/internal/common/errors"
)

// Load reads a training dataset from a JSON file (an array of examples).
func Load(path string) ([]Example, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewDatasetReadFailedError(path, err)
	}

	var examples []Example
	if err := json.Unmarshal(data, &examples); err != nil {
		return nil, errors.NewDatasetParseFailedError(path, err)
	}
	return examples, nil
}

// Save writes a training dataset as 2-space-indented JSON, matching the
// format the rest of the toolchain expects.
func Save(path string, examples []Example) error {
	data, err := json.MarshalIndent(examples, "", "  ")
	if err != nil {
		return errors.NewDatasetWriteFailedError(path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.NewDatasetWriteFailedError(path, err)
	}
	return nil
}
