// internal/stages/convert/models.go
package convert

// Stats summarizes a conversion run.
type Stats struct {
	Total            int `json:"total"`
	QuestionsChanged int `json:"questionsChanged"`
	ContextInjected  int `json:"contextInjected"`
}
