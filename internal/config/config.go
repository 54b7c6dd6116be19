// Package config loads the greeter's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/LoisM94/birthday-greeting/pkg/greeting/io/postgres"
	"github.com/LoisM94/birthday-greeting/pkg/greeting/io/rediscache"
	"github.com/LoisM94/birthday-greeting/pkg/greeting/io/s3"
	"github.com/LoisM94/birthday-greeting/pkg/greeting/retry"
	"github.com/LoisM94/birthday-greeting/pkg/sendgrid"
)

// Source kinds.
const (
	SourceCSV      = "csv"
	SourceS3       = "s3"
	SourcePostgres = "postgres"
)

type Config struct {
	Timezone string         `yaml:"timezone"`
	Logging  LoggingConfig  `yaml:"logging"`
	Source   SourceConfig   `yaml:"source"`
	SendGrid SendGridConfig `yaml:"sendgrid"`
	Retry    RetryConfig    `yaml:"retry"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type SourceConfig struct {
	Kind     string            `yaml:"kind"`
	CSV      CSVConfig         `yaml:"csv"`
	S3       s3.Config         `yaml:"s3"`
	Postgres postgres.Config   `yaml:"postgres"`
	Cache    rediscache.Config `yaml:"cache"`
}

type CSVConfig struct {
	Path string `yaml:"path"`
}

type SendGridConfig struct {
	APIKey         string        `yaml:"api_key"`
	APIKeySecretID string        `yaml:"api_key_secret_id"`
	SecretRegion   string        `yaml:"secret_region"`
	FromAddress    string        `yaml:"from_address"`
	Subject        string        `yaml:"subject"`
	BaseURL        string        `yaml:"base_url"`
	Timeout        time.Duration `yaml:"timeout"`
}

type RetryConfig struct {
	// MaxRetries is a pointer so an explicit 0 disables retries.
	MaxRetries *int          `yaml:"max_retries"`
	BaseDelay  time.Duration `yaml:"base_delay"`
}

type MetricsConfig struct {
	PushgatewayURL string `yaml:"pushgateway_url"`
	Job            string `yaml:"job"`
}

// Load reads configuration from a YAML file. ${VAR} references are expanded
// from the environment before parsing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes, defaults and validates raw YAML.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	expanded := os.ExpandEnv(string(data))
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	c.Source.Kind = strings.ToLower(strings.TrimSpace(c.Source.Kind))
	if c.Source.Kind == "" {
		c.Source.Kind = SourceCSV
	}
	if c.Source.Kind == SourceCSV && c.Source.CSV.Path == "" {
		c.Source.CSV.Path = "people.csv"
	}
	if c.SendGrid.BaseURL == "" {
		c.SendGrid.BaseURL = sendgrid.DefaultBaseURL
	}
	if c.SendGrid.Subject == "" {
		c.SendGrid.Subject = sendgrid.DefaultSubject
	}
	if c.SendGrid.Timeout == 0 {
		c.SendGrid.Timeout = sendgrid.DefaultTimeout
	}
	if c.Retry.MaxRetries == nil {
		n := retry.DefaultMaxRetries
		c.Retry.MaxRetries = &n
	}
	if c.Retry.BaseDelay == 0 {
		c.Retry.BaseDelay = retry.DefaultBaseDelay
	}
}

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return fmt.Errorf("timezone: %w", err)
		}
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}

	switch c.Source.Kind {
	case SourceCSV:
		if strings.TrimSpace(c.Source.CSV.Path) == "" {
			return errors.New("source.csv.path is required")
		}
	case SourceS3:
		if strings.TrimSpace(c.Source.S3.Bucket) == "" || strings.TrimSpace(c.Source.S3.Key) == "" {
			return errors.New("source.s3.bucket and source.s3.key are required")
		}
	case SourcePostgres:
		if strings.TrimSpace(c.Source.Postgres.URL) == "" {
			return errors.New("source.postgres.url is required")
		}
	default:
		return fmt.Errorf("source.kind: unsupported value %q", c.Source.Kind)
	}

	if strings.TrimSpace(c.SendGrid.FromAddress) == "" {
		return errors.New("sendgrid.from_address is required")
	}
	if strings.TrimSpace(c.SendGrid.APIKey) == "" && strings.TrimSpace(c.SendGrid.APIKeySecretID) == "" {
		return errors.New("sendgrid.api_key or sendgrid.api_key_secret_id is required")
	}
	if c.SendGrid.Timeout < 0 {
		return errors.New("sendgrid.timeout must be positive")
	}
	if c.Retry.MaxRetries != nil && *c.Retry.MaxRetries < 0 {
		return errors.New("retry.max_retries must be >= 0")
	}
	if c.Retry.BaseDelay < 0 {
		return errors.New("retry.base_delay must be positive")
	}
	return nil
}

// RetryPolicy converts the retry section.
func (c *Config) RetryPolicy() retry.Policy {
	p := retry.Policy{MaxRetries: retry.DefaultMaxRetries, BaseDelay: c.Retry.BaseDelay}
	if c.Retry.MaxRetries != nil {
		p.MaxRetries = *c.Retry.MaxRetries
	}
	return p
}

// SendGridConfig converts the sendgrid section. apiKey overrides the configured key
// when non-empty.
func (c *Config) SendGridConfig(apiKey string) sendgrid.Config {
	if strings.TrimSpace(apiKey) == "" {
		apiKey = c.SendGrid.APIKey
	}
	return sendgrid.Config{
		APIKey:      apiKey,
		FromAddress: c.SendGrid.FromAddress,
		Subject:     c.SendGrid.Subject,
		BaseURL:     c.SendGrid.BaseURL,
		Timeout:     c.SendGrid.Timeout,
	}
}
