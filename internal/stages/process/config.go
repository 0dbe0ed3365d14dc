// internal/stages/process/config.go
package process

import (
	"time"

	appconfig "bi-training-pipeline/internal/common/config"
)

const (
	StageName = "process"
)

type Config struct {
	InputPath  string
	OutputPath string

	PromptTemplatePath string
	ModelDir           string

	StartIndex      int
	EndIndex        int // 0 means end of dataset
	BatchSize       int
	RequestDelay    time.Duration
	CheckpointEvery int
	MaxRetries      int
	CacheTTL        time.Duration
}

func LoadConfig(cfg *appconfig.Config) *Config {
	return &Config{
		InputPath:          cfg.Dataset.ConvertedPath,
		OutputPath:         cfg.Dataset.ProcessedPath,
		PromptTemplatePath: cfg.Prompt.TemplatePath,
		ModelDir:           cfg.Prompt.ModelDir,
		StartIndex:         cfg.Process.StartIndex,
		EndIndex:           cfg.Process.EndIndex,
		BatchSize:          cfg.Process.BatchSize,
		RequestDelay:       appconfig.GetDuration(cfg.Process.RequestDelay),
		CheckpointEvery:    cfg.Process.CheckpointEvery,
		MaxRetries:         cfg.LLM.MaxRetries,
		CacheTTL:           time.Duration(cfg.Process.CacheTTL) * time.Second,
	}
}
