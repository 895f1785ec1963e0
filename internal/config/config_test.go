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
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, 5*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, BackendSQLite, cfg.Backend)
	assert.Equal(t, "./data/taskflow.db", cfg.DBPath)
	assert.Equal(t, 10*time.Second, cfg.Records.Timeout)
	assert.Equal(t, "task", cfg.Records.TaskTable)
	assert.Equal(t, "category", cfg.Records.CategoryTable)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("STORE_BACKEND", "remote")
	t.Setenv("RECORDS_BASE_URL", "https://records.example.com")
	t.Setenv("RECORDS_TIMEOUT", "3s")
	t.Setenv("MEMORY_LATENCY", "150ms")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, BackendRemote, cfg.Backend)
	assert.Equal(t, "https://records.example.com", cfg.Records.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Records.Timeout)
	assert.Equal(t, 150*time.Millisecond, cfg.MemoryLatency)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
log_level: debug
store_backend: memory
http_server:
  address: ":9090"
  timeout: 2s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, BackendMemory, cfg.Backend)
	assert.Equal(t, ":9090", cfg.HTTP.Address)
	assert.Equal(t, 2*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, "./data/taskflow.db", cfg.DBPath)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown backend", map[string]string{"STORE_BACKEND": "postgres"}},
		{"remote without url", map[string]string{"STORE_BACKEND": "remote"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}
