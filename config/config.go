package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"masterflow/models"
)

// WireShape selects which of the two deployed index-list request forms
// the fetcher uses.
const (
	WireShapeQuery = "query"
	WireShapeBody  = "body"
)

// DefaultBaseURL is used when neither the credentials file, the
// environment nor the operator supplies a market-data URL.
const DefaultBaseURL = "https://mtrade.arhamshare.com"

type Config struct {
	Masterflow MasterflowConfig `yaml:"masterflow"`
	Marketdata MarketdataConfig `yaml:"marketdata"`
	Output     OutputConfig     `yaml:"output"`
	Storage    StorageConfig    `yaml:"storage"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type MasterflowConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type MarketdataConfig struct {
	CredentialsFile string          `yaml:"credentials_file"`
	WireShape       string          `yaml:"wire_shape"`
	TimeoutSeconds  int             `yaml:"timeout_seconds"`
	Segments        []string        `yaml:"segments"`
	RateLimit       RateLimitConfig `yaml:"rate_limit"`
}

// HTTPTimeout returns the per-request timeout as a duration.
func (m MarketdataConfig) HTTPTimeout() time.Duration {
	return time.Duration(m.TimeoutSeconds) * time.Second
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size"`
}

type OutputConfig struct {
	Dir     string        `yaml:"dir"`
	Formats FormatsConfig `yaml:"formats"`
}

type FormatsConfig struct {
	Parquet ParquetConfig `yaml:"parquet"`
}

type ParquetConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Compression string `yaml:"compression"`
}

type StorageConfig struct {
	S3 S3Config `yaml:"s3"`
}

type S3Config struct {
	Enabled         bool   `yaml:"enabled"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	PathStyle       bool   `yaml:"path_style"`
	KeyPrefix       string `yaml:"key_prefix"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

type LoggingConfig struct {
	Level         string `yaml:"level"`
	Format        string `yaml:"format"`
	Output        string `yaml:"output"`
	MaxAge        int    `yaml:"max_age"`
	Metrics       bool   `yaml:"metrics"`
	Namespace     string `yaml:"namespace"`
	DashboardName string `yaml:"dashboard_name"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Config{
		Marketdata: MarketdataConfig{
			CredentialsFile: "configs/config.ini",
			WireShape:       WireShapeQuery,
			TimeoutSeconds:  10,
			Segments:        []string{"NSECM"},
			RateLimit: RateLimitConfig{
				RequestsPerSecond: 1,
				BurstSize:         1,
			},
		},
		Output: OutputConfig{
			Dir: "MasterFiles",
		},
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override S3 settings from environment variables if available
	if config.Storage.S3.Enabled {
		if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
			config.Storage.S3.AccessKeyID = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
			config.Storage.S3.SecretAccessKey = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_REGION"); v != "" {
			config.Storage.S3.Region = strings.TrimSpace(v)
		}
		if v := os.Getenv("S3_BUCKET"); v != "" {
			config.Storage.S3.Bucket = strings.TrimSpace(v)
		}
	}

	config.Storage.S3.Bucket = strings.TrimSpace(config.Storage.S3.Bucket)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// Validate re-checks the configuration. Callers that mutate a loaded
// config, such as CLI flag overrides, must re-validate before use.
func (c *Config) Validate() error {
	if err := validateConfig(c); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

func validateConfig(cfg *Config) error {
	if cfg.Masterflow.Name == "" {
		return fmt.Errorf("masterflow.name is required")
	}

	if cfg.Masterflow.Version == "" {
		return fmt.Errorf("masterflow.version is required")
	}

	switch cfg.Marketdata.WireShape {
	case WireShapeQuery, WireShapeBody:
	default:
		return fmt.Errorf("marketdata.wire_shape must be %q or %q", WireShapeQuery, WireShapeBody)
	}

	if cfg.Marketdata.TimeoutSeconds <= 0 {
		return fmt.Errorf("marketdata.timeout_seconds must be greater than 0")
	}

	if len(cfg.Marketdata.Segments) == 0 {
		return fmt.Errorf("marketdata.segments must not be empty")
	}
	for _, name := range cfg.Marketdata.Segments {
		if _, err := models.ParseSegment(name); err != nil {
			return fmt.Errorf("marketdata.segments: %w", err)
		}
	}

	if cfg.Marketdata.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("marketdata.rate_limit.requests_per_second must be greater than 0")
	}

	if cfg.Output.Dir == "" {
		return fmt.Errorf("output.dir is required")
	}

	if cfg.Storage.S3.Enabled {
		if cfg.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required when S3 is enabled")
		}
		if cfg.Storage.S3.Region == "" {
			return fmt.Errorf("storage.s3.region is required when S3 is enabled")
		}
		if !isValidS3Bucket(cfg.Storage.S3.Bucket) {
			return fmt.Errorf("storage.s3.bucket '%s' is invalid", cfg.Storage.S3.Bucket)
		}
	}

	return nil
}

// Segments returns the configured segments in declaration order.
// Validation guarantees every name parses; reaching an unparsable name
// here means an unvalidated mutation slipped through.
func (c *Config) Segments() []models.Segment {
	segments := make([]models.Segment, 0, len(c.Marketdata.Segments))
	for _, name := range c.Marketdata.Segments {
		seg, err := models.ParseSegment(name)
		if err != nil {
			panic(fmt.Sprintf("unvalidated config: %v", err))
		}
		segments = append(segments, seg)
	}
	return segments
}

var s3BucketRegexp = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

func isValidS3Bucket(name string) bool {
	if len(name) < 3 || len(name) > 63 {
		return false
	}
	if strings.Contains(name, "..") || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") {
		return false
	}
	return s3BucketRegexp.MatchString(name)
}
