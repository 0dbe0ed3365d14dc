// internal/stages/convert/config.go
package convert

import appconfig "bi-training-pipeline/internal/common/config"

const (
	StageName = "convert"
)

type Config struct {
	InputPath  string
	OutputPath string
}

func LoadConfig(cfg *appconfig.Config) *Config {
	return &Config{
		InputPath:  cfg.Dataset.InputPath,
		OutputPath: cfg.Dataset.ConvertedPath,
	}
}
