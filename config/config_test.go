package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/hvac-insights/config"
	"github.com/warp/hvac-insights/hvac"
)

func missingFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "absent.env")
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(missingFile(t))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "json", cfg.DataSource)
	assert.Equal(t, 10, cfg.DefaultPageSize)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Zero(t, cfg.ReloadInterval)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins())
	assert.Equal(t, hvac.CallbackScopeAllTime, cfg.MetricsCallbackScope())
	assert.Equal(t, zerolog.InfoLevel, cfg.Level())

	asOf, err := cfg.AsOfTime()
	require.NoError(t, err)
	assert.True(t, asOf.IsZero())
}

func TestLoad_EnvFileAndEnvironment(t *testing.T) {
	// GIVEN: a .env file and an environment override for one key
	path := filepath.Join(t.TempDir(), ".env")
	body := "PORT=9090\nDATA_SOURCE=sqlite\nAS_OF=2024-06-15\nLOG_LEVEL=debug\nCORS_ALLOWED_ORIGINS=\"http://a.test, http://b.test\"\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv("PORT", "7070")
	t.Setenv("METRICS_CALLBACK_SCOPE", "windowed")
	t.Setenv("RELOAD_INTERVAL", "5m")

	// WHEN
	cfg, err := config.Load(path)

	// THEN
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Port, "environment wins over the file")
	assert.Equal(t, "sqlite", cfg.DataSource)
	assert.Equal(t, zerolog.DebugLevel, cfg.Level())
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins())
	assert.Equal(t, hvac.CallbackScopeWindowed, cfg.MetricsCallbackScope())
	assert.Equal(t, 5*time.Minute, cfg.ReloadInterval)

	asOf, err := cfg.AsOfTime()
	require.NoError(t, err)
	assert.Equal(t, 2024, asOf.Year())
	assert.Equal(t, time.June, asOf.Month())
	assert.Equal(t, 15, asOf.Day())
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := []struct{ key, value string }{
		{"DATA_SOURCE", "postgres"},
		{"METRICS_CALLBACK_SCOPE", "weekly"},
		{"DEFAULT_PAGE_SIZE", "0"},
		{"AS_OF", "15/06/2024"},
		{"RELOAD_INTERVAL", "-1s"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := config.Load(missingFile(t))

			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid config")
		})
	}
}

func TestLevel_UnknownFallsBackToInfo(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, config.Config{LogLevel: "loud"}.Level())
	assert.Equal(t, zerolog.WarnLevel, config.Config{LogLevel: "WARN"}.Level())
}
