// internal/stages/index/models.go
package index

import "time"

// Document is the review-index representation of one training example. It
// carries enough structure for reviewers to filter by validity and step shape
// without loading the dataset itself.
type Document struct {
	Question   string    `json:"question"`
	Intent     string    `json:"intent"`
	StepIDs    []string  `json:"step_ids"`
	StepCount  int       `json:"step_count"`
	Valid      bool      `json:"valid"`
	Violations []string  `json:"violations,omitempty"`
	IndexedAt  time.Time `json:"indexed_at"`
}

// Stats summarizes an indexing run.
type Stats struct {
	Indexed int `json:"indexed"`
	Failed  int `json:"failed"`
}
