// internal/stages/index/config.go
package index

import appconfig "bi-training-pipeline/internal/common/config"

const (
	StageName = "index"
)

type Config struct {
	InputPath string
	IndexName string
	BatchSize int
}

func LoadConfig(cfg *appconfig.Config) *Config {
	return &Config{
		InputPath: cfg.Dataset.ConvertedPath,
		IndexName: cfg.Database.Elasticsearch.Index,
		BatchSize: 500,
	}
}
