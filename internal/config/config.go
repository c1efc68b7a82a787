package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// DefaultModelName is the Gemini model used when LLM_MODEL is unset.
const DefaultModelName = "gemini-2.5-flash"

// Config holds the runtime settings of the explorer service and CLI.
type Config struct {
	// HTTP server
	Port           string `koanf:"PORT"`
	AllowedOrigins string `koanf:"ALLOWED_ORIGINS"`
	MaxUploadBytes int64  `koanf:"MAX_UPLOAD_BYTES"`

	// DataSource is a local path, gs://bucket/object or bq://project.dataset.table.
	DataSource string `koanf:"DATA_SOURCE"`

	// Upload archiving
	GCSBucket      string `koanf:"GCS_BUCKET"`
	ArchiveWorkers int    `koanf:"ARCHIVE_WORKERS"`

	// LLM
	GeminiAPIKey string        `koanf:"GEMINI_API_KEY"`
	GoogleAPIKey string        `koanf:"GOOGLE_API_KEY"`
	LLMModel     string        `koanf:"LLM_MODEL"`
	LLMTimeout   time.Duration `koanf:"LLM_TIMEOUT"`

	LogLevel string `koanf:"LOG_LEVEL"`
}

// Default returns the configuration used when no environment is set.
func Default() Config {
	return Config{
		Port:           "8000",
		AllowedOrigins: "*",
		MaxUploadBytes: 10 << 20,
		DataSource:     "data/transactions.csv",
		ArchiveWorkers: 2,
		LLMModel:       DefaultModelName,
		LLMTimeout:     30 * time.Second,
		LogLevel:       "info",
	}
}

// Load reads envFile (if it exists) into the process environment and then
// unmarshals the environment over the defaults.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", nil), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf", FlatPaths: true}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// APIKey returns the Gemini key, preferring GEMINI_API_KEY.
func (c *Config) APIKey() string {
	if c.GeminiAPIKey != "" {
		return c.GeminiAPIKey
	}
	return c.GoogleAPIKey
}

// Origins splits ALLOWED_ORIGINS on commas.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if strings.TrimSpace(c.DataSource) == "" {
		problems = append(problems, "DATA_SOURCE cannot be empty")
	}
	if c.MaxUploadBytes <= 0 {
		problems = append(problems, fmt.Sprintf("invalid MAX_UPLOAD_BYTES %d: must be positive", c.MaxUploadBytes))
	}
	if c.ArchiveWorkers < 1 {
		problems = append(problems, fmt.Sprintf("invalid ARCHIVE_WORKERS %d: must be at least 1", c.ArchiveWorkers))
	}
	if c.LLMTimeout <= 0 {
		problems = append(problems, fmt.Sprintf("invalid LLM_TIMEOUT %s: must be positive", c.LLMTimeout))
	}
	if c.LLMModel == "" {
		problems = append(problems, "LLM_MODEL cannot be empty")
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}
