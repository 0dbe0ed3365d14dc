// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig              `mapstructure:"app"`
	Dataset       DatasetConfig          `mapstructure:"dataset"`
	Stages        map[string]StageConfig `mapstructure:"stages"`
	Database      DatabaseConfig         `mapstructure:"database"`
	LLM           LLMConfig              `mapstructure:"llm"`
	Prompt        PromptConfig           `mapstructure:"prompt"`
	Process       ProcessConfig          `mapstructure:"process"`
	Logging       LoggingConfig          `mapstructure:"logging"`
	Notifications NotificationConfig     `mapstructure:"notifications"`
	Server        ServerConfig           `mapstructure:"server"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// DatasetConfig holds the file locations the pipeline reads and writes.
type DatasetConfig struct {
	InputPath     string `mapstructure:"input_path"`     // raw (Spider-domain) dataset
	ConvertedPath string `mapstructure:"converted_path"` // BI-domain dataset
	ProcessedPath string `mapstructure:"processed_path"` // LLM-repaired dataset
	AnalysisPath  string `mapstructure:"analysis_path"`  // analysis report JSON
}

// StageConfig holds the core settings applicable to every pipeline stage.
type StageConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	Timeout    int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries int  `mapstructure:"max_retries"` // For error handling
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Enabled    bool     `mapstructure:"enabled"`
	Addresses  []string `mapstructure:"addresses"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	SSLEnabled bool     `mapstructure:"ssl_enabled"`
	Index      string   `mapstructure:"index"` // review index for converted examples
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// --- Specific Configuration Sections ---

// LLMConfig holds settings for the chat-completion API used by the process stage.
type LLMConfig struct {
	BaseURL     string  `mapstructure:"base_url"` // empty means the provider default
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	Temperature float32 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Timeout     int     `mapstructure:"timeout"`     // milliseconds
	MaxRetries  int     `mapstructure:"max_retries"` // per-question attempts
}

// PromptConfig holds the prompt template and model-context locations.
type PromptConfig struct {
	TemplatePath string `mapstructure:"template_path"`
	ModelDir     string `mapstructure:"model_dir"` // JSON context files appended to the prompt
}

// ProcessConfig holds the batch-loop parameters of the process stage.
type ProcessConfig struct {
	StartIndex      int `mapstructure:"start_index"`
	EndIndex        int `mapstructure:"end_index"` // 0 means end of dataset
	BatchSize       int `mapstructure:"batch_size"`
	RequestDelay    int `mapstructure:"request_delay"`    // milliseconds between calls
	CheckpointEvery int `mapstructure:"checkpoint_every"` // records between intermediate saves
	CacheTTL        int `mapstructure:"cache_ttl"`        // seconds, response cache expiry
}

// NotificationConfig holds settings for low-quality-run notifications.
type NotificationConfig struct {
	ScoreThreshold int `mapstructure:"score_threshold"` // notify when score < threshold
	Email          struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
		ToEmail   string `mapstructure:"to_email"`
	} `mapstructure:"email"`
	SNS struct {
		Enabled  bool   `mapstructure:"enabled"`
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"sns"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// ServerConfig holds the health/metrics listener settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}
