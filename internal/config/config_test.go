package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.ConverterURL)
	assert.Equal(t, 300*time.Millisecond, cfg.ProgressInterval)
	assert.Equal(t, 10, cfg.ProgressStep)
	assert.Equal(t, 90, cfg.ProgressCeiling)
	assert.Equal(t, int64(32<<20), cfg.MaxUploadSize)
	assert.Equal(t, "0.0.0.0:3000", cfg.Web.BindAddress)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "docx2xlsx", cfg.Telemetry.ServiceName)
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("CONVERTER_URL", "http://converter:9000")
	t.Setenv("PROGRESS_INTERVAL", "50ms")
	t.Setenv("WEB_BIND_ADDRESS", "127.0.0.1:8080")
	t.Setenv("TELEMETRY_ENABLED", "false")
	t.Setenv("TELEMETRY_OTLP_ENDPOINT", "otel:4317")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "http://converter:9000", cfg.ConverterURL)
	assert.Equal(t, 50*time.Millisecond, cfg.ProgressInterval)
	assert.Equal(t, "127.0.0.1:8080", cfg.Web.BindAddress)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "otel:4317", cfg.Telemetry.OTLPEndpoint)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"zero interval", "PROGRESS_INTERVAL", "0s"},
		{"ceiling at 100", "PROGRESS_CEILING", "100"},
		{"negative step", "PROGRESS_STEP", "-1"},
		{"bad duration", "SESSION_TTL", "forever"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)

			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"Warn", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		cfg := &Config{LogLevel: tt.in}
		assert.Equal(t, tt.want, cfg.SlogLevel(), tt.in)
	}
}
