// Package config provides configuration loading and management for semenums.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// Catalog sources.
const (
	SourceHTTP = "http"
	SourceFile = "file"
	SourceKV   = "kv"
)

// Config represents the complete semenums configuration
type Config struct {
	// Source selects where the catalog comes from: http, file or kv.
	Source string      `yaml:"source"`
	Enums  EnumsConfig `yaml:"enums"`
	Files  FilesConfig `yaml:"files"`
	NATS   NATSConfig  `yaml:"nats"`
	API    APIConfig   `yaml:"api"`
}

// EnumsConfig configures the HTTP enums endpoint
type EnumsConfig struct {
	// URL provides the catalog over a GET request.
	URL string `yaml:"url"`
	// NeedsAuthentication sends credentials (cookies, bearer token) with the request.
	NeedsAuthentication bool `yaml:"needs_authentication"`
	// Token is an optional bearer token, only sent when NeedsAuthentication is set.
	Token string `yaml:"token,omitempty"`
	// Timeout bounds a single fetch (default: 10s)
	Timeout time.Duration `yaml:"timeout"`
	// RefreshInterval reloads the catalog periodically (0 = load once)
	RefreshInterval time.Duration `yaml:"refresh_interval"`
}

// FilesConfig configures catalog files on disk
type FilesConfig struct {
	// Dir is the directory holding catalog files.
	Dir string `yaml:"dir"`
	// Patterns are doublestar globs relative to Dir.
	Patterns []string `yaml:"patterns"`
	// Watch reloads the catalog when files change.
	Watch bool `yaml:"watch"`
	// DebounceDelay is how long to wait for more changes before reloading.
	DebounceDelay time.Duration `yaml:"debounce_delay"`
}

// NATSConfig configures the NATS KV catalog source
type NATSConfig struct {
	// URL is the NATS server URL
	URL string `yaml:"url"`
	// Bucket is the JetStream KV bucket holding the catalog.
	Bucket string `yaml:"bucket"`
	// Key is the bucket key whose value is the catalog JSON.
	Key string `yaml:"key"`
}

// APIConfig configures the HTTP read API served by `semenums serve`
type APIConfig struct {
	// Addr is the listen address (empty = API disabled)
	Addr string `yaml:"addr"`
	// Prefix is the URL path the catalog is served under.
	Prefix string `yaml:"prefix"`
	// Metrics exposes Prometheus metrics on /metrics.
	Metrics bool `yaml:"metrics"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Source: SourceHTTP,
		Enums: EnumsConfig{
			URL:     "http://localhost:8080/api/enums",
			Timeout: 10 * time.Second,
		},
		Files: FilesConfig{
			Patterns:      []string{"**/*.json", "**/*.yaml", "**/*.yml", "**/*.toml"},
			Watch:         true,
			DebounceDelay: 500 * time.Millisecond,
		},
		NATS: NATSConfig{
			URL:    "nats://localhost:4222",
			Bucket: "ENUMS",
			Key:    "catalog",
		},
		API: APIConfig{
			Addr:    ":8090",
			Prefix:  "api/enums",
			Metrics: true,
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	switch c.Source {
	case SourceHTTP:
		if err := validateEndpoint(c.Enums.URL); err != nil {
			return err
		}
		if c.Enums.Timeout < 0 {
			return fmt.Errorf("enums.timeout must not be negative")
		}
		if c.Enums.RefreshInterval < 0 {
			return fmt.Errorf("enums.refresh_interval must not be negative")
		}
	case SourceFile:
		if c.Files.Dir == "" {
			return fmt.Errorf("files.dir is required for the file source")
		}
		if len(c.Files.Patterns) == 0 {
			return fmt.Errorf("files.patterns must not be empty")
		}
		for _, p := range c.Files.Patterns {
			if !doublestar.ValidatePattern(p) {
				return fmt.Errorf("files.patterns: invalid pattern %q", p)
			}
		}
		if c.Files.DebounceDelay < 0 {
			return fmt.Errorf("files.debounce_delay must not be negative")
		}
	case SourceKV:
		if c.NATS.URL == "" {
			return fmt.Errorf("nats.url is required for the kv source")
		}
		if c.NATS.Bucket == "" {
			return fmt.Errorf("nats.bucket is required for the kv source")
		}
		if c.NATS.Key == "" {
			return fmt.Errorf("nats.key is required for the kv source")
		}
	default:
		return fmt.Errorf("source must be one of %s, %s, %s; got %q", SourceHTTP, SourceFile, SourceKV, c.Source)
	}
	return nil
}

func validateEndpoint(raw string) error {
	if raw == "" {
		return fmt.Errorf("enums.url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("enums.url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("enums.url must be an http or https URL, got %q", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("enums.url must include a host, got %q", raw)
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values).
// Boolean switches are copied as-is: configs read by LoadFromFile start from
// DefaultConfig, so their switches always hold a deliberate value.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Source != "" {
		c.Source = other.Source
	}

	// Enums
	if other.Enums.URL != "" {
		c.Enums.URL = other.Enums.URL
	}
	c.Enums.NeedsAuthentication = other.Enums.NeedsAuthentication
	if other.Enums.Token != "" {
		c.Enums.Token = other.Enums.Token
	}
	if other.Enums.Timeout != 0 {
		c.Enums.Timeout = other.Enums.Timeout
	}
	if other.Enums.RefreshInterval != 0 {
		c.Enums.RefreshInterval = other.Enums.RefreshInterval
	}

	// Files
	if other.Files.Dir != "" {
		c.Files.Dir = other.Files.Dir
	}
	if len(other.Files.Patterns) > 0 {
		c.Files.Patterns = other.Files.Patterns
	}
	if other.Files.DebounceDelay != 0 {
		c.Files.DebounceDelay = other.Files.DebounceDelay
	}
	c.Files.Watch = other.Files.Watch

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}
	if other.NATS.Bucket != "" {
		c.NATS.Bucket = other.NATS.Bucket
	}
	if other.NATS.Key != "" {
		c.NATS.Key = other.NATS.Key
	}

	// API
	if other.API.Addr != "" {
		c.API.Addr = other.API.Addr
	}
	if other.API.Prefix != "" {
		c.API.Prefix = other.API.Prefix
	}
	c.API.Metrics = other.API.Metrics
}
