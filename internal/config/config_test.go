package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnvFile(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(LoadOptions{Paths: []string{t.TempDir()}, EnvFile: noEnvFile(t)})
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.User)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 2*time.Second, cfg.Dashboard.RefreshInterval)
	assert.Equal(t, int64(10<<20), cfg.OCR.MaxUploadBytes)
	assert.Equal(t, 24*time.Hour, cfg.Feedback.AnalysisTTL)
	assert.Equal(t, 30*time.Minute, cfg.Feedback.RecommendationTTL)
	assert.True(t, cfg.OCR.Enabled)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "assessai.yaml")
	yaml := []byte(`
user: alice
server:
  addr: ":9000"
dashboard:
  refresh_interval: 5s
feedback:
  recommendation_ttl: 10m
`)
	require.NoError(t, os.WriteFile(path, yaml, 0o644))

	t.Setenv("ASSESSAI_SERVER_ADDR", ":9999")

	cfg, err := Load(LoadOptions{Paths: []string{dir}, EnvFile: noEnvFile(t)})
	require.NoError(t, err)

	assert.Equal(t, "alice", cfg.User)
	assert.Equal(t, ":9999", cfg.Server.Addr, "env should override file")
	assert.Equal(t, 5*time.Second, cfg.Dashboard.RefreshInterval)
	assert.Equal(t, 10*time.Minute, cfg.Feedback.RecommendationTTL)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("ASSESSAI_NOTIFY_REDIS_ADDR=localhost:6390\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("ASSESSAI_NOTIFY_REDIS_ADDR") })

	cfg, err := Load(LoadOptions{Paths: []string{dir}, EnvFile: envFile})
	require.NoError(t, err)
	assert.Equal(t, "localhost:6390", cfg.Notify.RedisAddr)
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	_, err := Load(LoadOptions{File: filepath.Join(t.TempDir(), "nope.yaml"), EnvFile: noEnvFile(t)})
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"empty user", func(c *Config) { c.User = " " }, true},
		{"zero refresh", func(c *Config) { c.Dashboard.RefreshInterval = 0 }, true},
		{"zero upload limit", func(c *Config) { c.OCR.MaxUploadBytes = 0 }, true},
		{"negative rate", func(c *Config) { c.OCR.RatePerMinute = -1 }, true},
		{"zero ttl", func(c *Config) { c.Feedback.AnalysisTTL = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}
