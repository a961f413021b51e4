package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration parameters from environment variables.
type Config struct {
	DBPath   string `envconfig:"DB_PATH" default:"lit_review.db"`
	HTTPPort string `envconfig:"HTTP_PORT" default:"4242"`

	// Optional API key for the HTTP surface; empty disables the check.
	APISecretKey string `envconfig:"API_SECRET_KEY"`

	// LLM assistant defaults; the persisted settings table can override
	// these per session.
	LLMHost           string `envconfig:"LLM_HOST" default:"http://localhost:11434"`
	LLMModel          string `envconfig:"LLM_MODEL" default:"qwen3:8b"`
	LLMThinkingMode   bool   `envconfig:"LLM_THINKING_MODE" default:"true"`
	LLMAutoSuggest    bool   `envconfig:"LLM_AUTO_SUGGEST" default:"false"`
	LLMTimeoutSeconds int    `envconfig:"LLM_TIMEOUT_SECONDS" default:"120"`

	// S3-compatible object storage for database backups. Backups are
	// disabled when no access key is configured.
	SpacesKey    string `envconfig:"SPACES_S3_KEY"`
	SpacesSecret string `envconfig:"SPACES_S3_SECRET"`
	SpacesURL    string `envconfig:"SPACES_S3_URL" default:"https://sfo3.digitaloceanspaces.com"`
	SpacesRegion string `envconfig:"SPACES_S3_REGION" default:"sfo3"`
	SpacesBucket string `envconfig:"SPACES_S3_BUCKET"`
	BackupPrefix string `envconfig:"BACKUP_PREFIX" default:"lit-review/"`
	KeepBackups  int    `envconfig:"KEEP_BACKUPS" default:"4"`

	// Cron schedule for automatic backups; empty disables the job.
	BackupCronSchedule string `envconfig:"BACKUP_CRON_SCHEDULE"`
}

// LLMOptions is the effective assistant configuration for one session,
// assembled once from Config plus the persisted settings table.
type LLMOptions struct {
	Host         string
	Model        string
	ThinkingMode bool
	AutoSuggest  bool
	Timeout      time.Duration
}

// LLMOptions returns the assistant options derived from the environment.
func (c *Config) LLMOptions() LLMOptions {
	return LLMOptions{
		Host:         c.LLMHost,
		Model:        c.LLMModel,
		ThinkingMode: c.LLMThinkingMode,
		AutoSuggest:  c.LLMAutoSuggest,
		Timeout:      time.Duration(c.LLMTimeoutSeconds) * time.Second,
	}
}

// BackupEnabled reports whether object-storage backups are configured.
func (c *Config) BackupEnabled() bool {
	return c.SpacesKey != "" && c.SpacesSecret != "" && c.SpacesBucket != ""
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}
