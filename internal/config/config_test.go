package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 24, cfg.Workflow.DeadlineHours)
	assert.Equal(t, 15*time.Minute, cfg.Workflow.SweepInterval)
	assert.Nil(t, cfg.Workflow.AttendanceFallback())
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, "json", cfg.Logger.Format)
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
  mode: debug
workflow:
  deadline_hours: 48
  sweep_interval: 1m
  attendance_branch_manager_id: 42
redis:
  addr: localhost:6379
  candidate_ttl: 30s
`), 0o644))

	t.Setenv("HR_SERVER_PORT", "9191")
	t.Setenv("DATABASE_PATH", "/tmp/hr.db")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.Mode)
	assert.Equal(t, "/tmp/hr.db", cfg.Database.Path)
	assert.Equal(t, 48, cfg.Workflow.DeadlineHours)
	assert.Equal(t, time.Minute, cfg.Workflow.SweepInterval)
	require.NotNil(t, cfg.Workflow.AttendanceFallback())
	assert.Equal(t, int64(42), *cfg.Workflow.AttendanceFallback())
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 30*time.Second, cfg.Redis.CandidateTTL)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return *cfg
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
		{"unknown gin mode", func(c *Config) { c.Server.Mode = "prod" }},
		{"empty database path", func(c *Config) { c.Database.Path = "" }},
		{"zero deadline", func(c *Config) { c.Workflow.DeadlineHours = 0 }},
		{"tight sweep interval", func(c *Config) { c.Workflow.SweepInterval = time.Millisecond }},
		{"negative fallback", func(c *Config) { c.Workflow.AttendanceBranchManagerID = -1 }},
		{"redis without ttl", func(c *Config) { c.Redis.Addr = "cache:6379"; c.Redis.CandidateTTL = 0 }},
		{"unknown log format", func(c *Config) { c.Logger.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))

	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("HR_TEST_DOTENV_VALUE=from-file\n"), 0o644))
	t.Setenv("HR_TEST_DOTENV_VALUE", "")
	require.NoError(t, os.Unsetenv("HR_TEST_DOTENV_VALUE"))

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv("HR_TEST_DOTENV_VALUE"))
}
