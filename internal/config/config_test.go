package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Create a temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
showads:
  base_url: "https://showads.test"
  project_key: "test-project-key"
  batch_size: 250
  max_retries: 5
  retry_delay_seconds: 2
  timeout_seconds: 45
  bulk_timeout_seconds: 90

validation:
  min_age: 21
  max_age: 99

ingest:
  chunk_size: 500
  s3_region: "eu-west-1"

logging:
  level: "debug"
  redact_pii: false
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	// Test ShowAds config
	assert.Equal(t, "https://showads.test", cfg.ShowAds.BaseURL)
	assert.Equal(t, "test-project-key", cfg.ShowAds.ProjectKey)
	assert.Equal(t, 250, cfg.ShowAds.BatchSize)
	assert.Equal(t, 5, cfg.ShowAds.MaxRetries)
	assert.Equal(t, 2, cfg.ShowAds.RetryDelaySeconds)
	assert.Equal(t, 45, cfg.ShowAds.TimeoutSeconds)
	assert.Equal(t, 90, cfg.ShowAds.BulkTimeoutSeconds)

	// Test validation config
	assert.Equal(t, 21, cfg.Validation.MinAge)
	assert.Equal(t, 99, cfg.Validation.MaxAge)

	// Test ingest config
	assert.Equal(t, 500, cfg.Ingest.ChunkSize)
	assert.Equal(t, "eu-west-1", cfg.Ingest.S3Region)

	// Test logging config
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.False(t, cfg.Logging.ShouldRedactPII())
}

func TestLoadDefaults(t *testing.T) {
	// Create a minimal config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
showads:
  project_key: "file-key"
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	// Verify defaults are applied around the one configured value
	assert.Equal(t, "file-key", cfg.ShowAds.ProjectKey)
	assert.Equal(t, 1000, cfg.ShowAds.BatchSize)
	assert.Equal(t, 3, cfg.ShowAds.MaxRetries)
	assert.Equal(t, 1, cfg.ShowAds.RetryDelaySeconds)
	assert.Equal(t, 30, cfg.ShowAds.TimeoutSeconds)
	assert.Equal(t, 60, cfg.ShowAds.BulkTimeoutSeconds)
	assert.Equal(t, 18, cfg.Validation.MinAge)
	assert.Equal(t, 120, cfg.Validation.MaxAge)
	assert.Equal(t, 10000, cfg.Ingest.ChunkSize)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Logging.ShouldRedactPII())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFromEnv(t *testing.T) {
	// Create a minimal config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
showads:
  base_url: "https://file-url.test"
  project_key: "file-key"
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	// Set environment variables
	os.Setenv("SHOWADS_API_URL", "https://env-url.test")
	os.Setenv("PROJECT_KEY", "env-key")
	os.Setenv("BATCH_SIZE", "50")
	os.Setenv("MIN_AGE", "25")
	defer func() {
		os.Unsetenv("SHOWADS_API_URL")
		os.Unsetenv("PROJECT_KEY")
		os.Unsetenv("BATCH_SIZE")
		os.Unsetenv("MIN_AGE")
	}()

	cfg, err := LoadFromEnv(configPath)
	require.NoError(t, err)

	// Environment variables should override file values
	assert.Equal(t, "https://env-url.test", cfg.ShowAds.BaseURL)
	assert.Equal(t, "env-key", cfg.ShowAds.ProjectKey)
	assert.Equal(t, 50, cfg.ShowAds.BatchSize)
	assert.Equal(t, 25, cfg.Validation.MinAge)
}

func TestLoadFromEnvBadInt(t *testing.T) {
	os.Setenv("MAX_RETRIES", "many")
	defer os.Unsetenv("MAX_RETRIES")

	_, err := LoadFromEnv(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAX_RETRIES")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults are valid", func(c *Config) {}, ""},
		{"empty base url", func(c *Config) { c.ShowAds.BaseURL = "" }, "base_url"},
		{"empty project key", func(c *Config) { c.ShowAds.ProjectKey = "" }, "project_key"},
		{"zero batch size", func(c *Config) { c.ShowAds.BatchSize = 0 }, "batch_size"},
		{"oversized batch", func(c *Config) { c.ShowAds.BatchSize = 1001 }, "batch_size"},
		{"negative retries", func(c *Config) { c.ShowAds.MaxRetries = -1 }, "max_retries"},
		{"negative retry delay", func(c *Config) { c.ShowAds.RetryDelaySeconds = -1 }, "retry_delay"},
		{"negative min age", func(c *Config) { c.Validation.MinAge = -1 }, "min_age"},
		{"min age above 150", func(c *Config) { c.Validation.MinAge = 151 }, "min_age"},
		{"max age below min age", func(c *Config) { c.Validation.MaxAge = 10 }, "max_age"},
		{"max age above 150", func(c *Config) { c.Validation.MaxAge = 151 }, "max_age"},
		{"zero chunk size", func(c *Config) { c.Ingest.ChunkSize = 0 }, "chunk_size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTimeouts(t *testing.T) {
	cfg := ShowAdsConfig{TimeoutSeconds: 45, BulkTimeoutSeconds: 90, RetryDelaySeconds: 2}
	assert.Equal(t, 45*time.Second, cfg.Timeout())
	assert.Equal(t, 90*time.Second, cfg.BulkTimeout())
	assert.Equal(t, 2*time.Second, cfg.RetryDelay())
}
