package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config struct for environment variables.
type Config struct {
	ConverterURL     string        `envconfig:"CONVERTER_URL" default:"http://localhost:8000"`
	ConverterTimeout time.Duration `envconfig:"CONVERTER_TIMEOUT" default:"2m"`

	ProgressInterval time.Duration `envconfig:"PROGRESS_INTERVAL" default:"300ms"`
	ProgressStep     int           `envconfig:"PROGRESS_STEP" default:"10"`
	ProgressCeiling  int           `envconfig:"PROGRESS_CEILING" default:"90"`

	MaxUploadSize     int64         `envconfig:"MAX_UPLOAD_SIZE" default:"33554432"`
	SessionTTL        time.Duration `envconfig:"SESSION_TTL" default:"1h"`
	CleanupInterval   time.Duration `envconfig:"CLEANUP_INTERVAL" default:"10m"`
	LogLevel          string        `envconfig:"LOG_LEVEL" default:"INFO"`
	DiscordWebhookURL string        `envconfig:"DISCORD_WEBHOOK_URL"`

	Telemetry struct {
		Enabled      bool   `default:"true"`
		ServiceName  string `split_words:"true" default:"docx2xlsx"`
		OTLPEndpoint string `envconfig:"OTLP_ENDPOINT"`
	}

	Web struct {
		BindAddress     string        `split_words:"true" default:"0.0.0.0:3000"`
		ReadTimeout     time.Duration `split_words:"true" default:"30s"`
		WriteTimeout    time.Duration `split_words:"true" default:"2m"`
		IdleTimeout     time.Duration `split_words:"true" default:"5s"`
		ShutdownTimeout time.Duration `split_words:"true" default:"30s"`
	}
}

// LoadConfig reads environment variables and populates the Config struct.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("error processing env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.ConverterURL == "" {
		return fmt.Errorf("CONVERTER_URL must not be empty")
	}

	if c.ProgressInterval <= 0 {
		return fmt.Errorf("PROGRESS_INTERVAL must be positive, got %s", c.ProgressInterval)
	}

	if c.ProgressStep <= 0 || c.ProgressCeiling <= 0 || c.ProgressCeiling >= 100 {
		return fmt.Errorf("progress step must be positive and ceiling within (0, 100), got step=%d ceiling=%d",
			c.ProgressStep, c.ProgressCeiling)
	}

	return nil
}

func (c *Config) SlogLevel() slog.Level {
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
