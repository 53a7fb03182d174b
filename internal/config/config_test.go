package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("FITPICKER_DB_PATH", "/tmp/test.db")
	t.Setenv("FITPICKER_TOKEN", "test_token")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 30*time.Minute, cfg.RefreshInterval)
	assert.Equal(t, time.Second, cfg.FlushDelay)
	assert.InDelta(t, 40.71, cfg.Latitude, 1e-9)
	assert.InDelta(t, -74.01, cfg.Longitude, 1e-9)
	assert.True(t, cfg.UseIPLocation)
}

func TestLoadConfigMissingRequired(t *testing.T) {
	t.Setenv("FITPICKER_DB_PATH", "")
	t.Setenv("FITPICKER_TOKEN", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("FITPICKER_DB_PATH", "/tmp/test.db")
	t.Setenv("FITPICKER_TOKEN", "test_token")
	t.Setenv("FITPICKER_PORT", "9090")
	t.Setenv("FITPICKER_REFRESH_INTERVAL", "45m")
	t.Setenv("FITPICKER_LATITUDE", "51.5")
	t.Setenv("FITPICKER_USE_IP_LOCATION", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 45*time.Minute, cfg.RefreshInterval)
	assert.InDelta(t, 51.5, cfg.Latitude, 1e-9)
	assert.False(t, cfg.UseIPLocation)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fitpicker.yaml")
	body := "db_path: /data/fit.db\ntoken: file_token\ntimezone: Europe/London\nlog_format: console\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	t.Setenv(PathEnvVar, path)
	t.Setenv("FITPICKER_TOKEN", "env_token_wins")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/data/fit.db", cfg.DBPath)
	assert.Equal(t, "env_token_wins", cfg.Token)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Equal(t, "Europe/London", cfg.Location().String())
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"bad latitude", func(c *Config) { c.Latitude = 120 }},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }},
		{"short refresh", func(c *Config) { c.RefreshInterval = time.Second }},
		{"bad weather url", func(c *Config) { c.WeatherURL = "not a url" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			cfg.DBPath = "/tmp/test.db"
			cfg.Token = "test_token"
			require.NoError(t, cfg.validate())

			tt.mutate(cfg)
			assert.Error(t, cfg.validate())
		})
	}
}

func TestValidToken(t *testing.T) {
	cfg := &Config{Token: "secret_token"}

	assert.True(t, cfg.ValidToken("secret_token"))
	assert.False(t, cfg.ValidToken("wrong"))
	assert.False(t, cfg.ValidToken(""))
	assert.False(t, (&Config{}).ValidToken(""))
}
