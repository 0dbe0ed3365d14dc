// internal/stages/analyze/config.go
package analyze

import appconfig "bi-training-pipeline/internal/common/config"

const (
	StageName = "analyze"
)

type Config struct {
	InputPath      string
	OutputPath     string
	ScoreThreshold int
}

func LoadConfig(cfg *appconfig.Config) *Config {
	return &Config{
		InputPath:      cfg.Dataset.ConvertedPath,
		OutputPath:     cfg.Dataset.AnalysisPath,
		ScoreThreshold: cfg.Notifications.ScoreThreshold,
	}
}
