package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// MaxBatchSize is the hard ceiling the ShowAds bulk endpoint accepts per
// request. Configured batch sizes above this are rejected by Validate.
const MaxBatchSize = 1000

// Config holds all configuration for the connector
type Config struct {
	ShowAds    ShowAdsConfig    `yaml:"showads"`
	Validation ValidationConfig `yaml:"validation"`
	Ingest     IngestConfig     `yaml:"ingest"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ShowAdsConfig holds ShowAds API configuration
type ShowAdsConfig struct {
	BaseURL            string `yaml:"base_url"`
	ProjectKey         string `yaml:"project_key"`
	BatchSize          int    `yaml:"batch_size"`
	MaxRetries         int    `yaml:"max_retries"`
	RetryDelaySeconds  int    `yaml:"retry_delay_seconds"`
	TimeoutSeconds     int    `yaml:"timeout_seconds"`
	BulkTimeoutSeconds int    `yaml:"bulk_timeout_seconds"`
}

// Timeout returns the configured timeout for auth and single-banner requests
func (c ShowAdsConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// BulkTimeout returns the configured timeout for bulk requests
func (c ShowAdsConfig) BulkTimeout() time.Duration {
	return time.Duration(c.BulkTimeoutSeconds) * time.Second
}

// RetryDelay returns the base backoff delay as a duration
func (c ShowAdsConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelaySeconds) * time.Second
}

// ValidationConfig holds customer validation bounds
type ValidationConfig struct {
	MinAge int `yaml:"min_age"`
	MaxAge int `yaml:"max_age"`
}

// IngestConfig holds input reading configuration
type IngestConfig struct {
	ChunkSize  int    `yaml:"chunk_size"`
	S3Region   string `yaml:"s3_region"`
	AWSProfile string `yaml:"aws_profile"` // Empty string uses default credential chain (IAM role on ECS)
}

// GetAWSProfile returns the AWS profile, with environment variable override
func (c IngestConfig) GetAWSProfile() string {
	if envProfile := os.Getenv("AWS_PROFILE_OVERRIDE"); envProfile != "" {
		if envProfile == "none" || envProfile == "iam" {
			return "" // Use default credential chain (IAM role)
		}
		return envProfile
	}
	// On ECS/Lambda, don't use a profile - use IAM role
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return ""
	}
	return c.AWSProfile
}

// LoggingConfig holds log output configuration
type LoggingConfig struct {
	Level     string `yaml:"level"`
	RedactPII *bool  `yaml:"redact_pii"`
}

// ShouldRedactPII reports whether PII redaction is enabled (default true).
func (c LoggingConfig) ShouldRedactPII() bool {
	if c.RedactPII == nil {
		return true
	}
	return *c.RedactPII
}

// Default returns the connector defaults, matching the hosted ShowAds
// assignment environment.
func Default() *Config {
	return &Config{
		ShowAds: ShowAdsConfig{
			BaseURL:            "https://golang-assignment-968918017632.europe-west3.run.app",
			ProjectKey:         "meiro-data-connector-project",
			BatchSize:          1000,
			MaxRetries:         3,
			RetryDelaySeconds:  1,
			TimeoutSeconds:     30,
			BulkTimeoutSeconds: 60,
		},
		Validation: ValidationConfig{
			MinAge: 18,
			MaxAge: 120,
		},
		Ingest: IngestConfig{
			ChunkSize: 10000,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads and parses the configuration file over the defaults.
// A missing file is not an error: the connector is fully usable from
// defaults and environment variables alone.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars on ECS.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables if present
	if baseURL := os.Getenv("SHOWADS_API_URL"); baseURL != "" {
		cfg.ShowAds.BaseURL = baseURL
	}
	if projectKey := os.Getenv("PROJECT_KEY"); projectKey != "" {
		cfg.ShowAds.ProjectKey = projectKey
	}
	if err := overrideInt("BATCH_SIZE", &cfg.ShowAds.BatchSize); err != nil {
		return nil, err
	}
	if err := overrideInt("MAX_RETRIES", &cfg.ShowAds.MaxRetries); err != nil {
		return nil, err
	}
	if err := overrideInt("RETRY_DELAY", &cfg.ShowAds.RetryDelaySeconds); err != nil {
		return nil, err
	}
	if err := overrideInt("MIN_AGE", &cfg.Validation.MinAge); err != nil {
		return nil, err
	}
	if err := overrideInt("MAX_AGE", &cfg.Validation.MaxAge); err != nil {
		return nil, err
	}
	if err := overrideInt("CHUNK_SIZE", &cfg.Ingest.ChunkSize); err != nil {
		return nil, err
	}
	if region := os.Getenv("INPUT_S3_REGION"); region != "" {
		cfg.Ingest.S3Region = region
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}

	return cfg, nil
}

func overrideInt(name string, dst *int) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", name, v, err)
	}
	*dst = n
	return nil
}

// Validate checks the configuration against the connector's accepted
// ranges. It is called once at startup; any error here is fatal.
func (c *Config) Validate() error {
	if c.ShowAds.BaseURL == "" {
		return fmt.Errorf("showads base_url must not be empty")
	}
	if c.ShowAds.ProjectKey == "" {
		return fmt.Errorf("showads project_key must not be empty")
	}
	if c.ShowAds.BatchSize <= 0 || c.ShowAds.BatchSize > MaxBatchSize {
		return fmt.Errorf("batch_size must be between 1 and %d, got %d", MaxBatchSize, c.ShowAds.BatchSize)
	}
	if c.ShowAds.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative, got %d", c.ShowAds.MaxRetries)
	}
	if c.ShowAds.RetryDelaySeconds < 0 {
		return fmt.Errorf("retry_delay must not be negative, got %d", c.ShowAds.RetryDelaySeconds)
	}
	if c.ShowAds.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout_seconds must be positive, got %d", c.ShowAds.TimeoutSeconds)
	}
	if c.ShowAds.BulkTimeoutSeconds <= 0 {
		return fmt.Errorf("bulk_timeout_seconds must be positive, got %d", c.ShowAds.BulkTimeoutSeconds)
	}
	if c.Validation.MinAge < 0 || c.Validation.MinAge > 150 {
		return fmt.Errorf("min_age must be between 0 and 150, got %d", c.Validation.MinAge)
	}
	if c.Validation.MaxAge < c.Validation.MinAge || c.Validation.MaxAge > 150 {
		return fmt.Errorf("max_age must be between min_age (%d) and 150, got %d", c.Validation.MinAge, c.Validation.MaxAge)
	}
	if c.Ingest.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", c.Ingest.ChunkSize)
	}
	return nil
}
