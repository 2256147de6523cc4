package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Source != SourceHTTP {
		t.Errorf("expected default source %s, got %s", SourceHTTP, cfg.Source)
	}
	if cfg.Enums.URL != "http://localhost:8080/api/enums" {
		t.Errorf("expected default url http://localhost:8080/api/enums, got %s", cfg.Enums.URL)
	}
	if cfg.Enums.NeedsAuthentication {
		t.Error("expected no authentication by default")
	}
	if cfg.Enums.Timeout != 10*time.Second {
		t.Errorf("expected default timeout 10s, got %v", cfg.Enums.Timeout)
	}
	if cfg.NATS.Bucket != "ENUMS" {
		t.Errorf("expected default bucket ENUMS, got %s", cfg.NATS.Bucket)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "unknown source",
			modify:  func(c *Config) { c.Source = "ftp" },
			wantErr: true,
		},
		{
			name:    "missing url",
			modify:  func(c *Config) { c.Enums.URL = "" },
			wantErr: true,
		},
		{
			name:    "relative url",
			modify:  func(c *Config) { c.Enums.URL = "/api/enums" },
			wantErr: true,
		},
		{
			name:    "non-http url",
			modify:  func(c *Config) { c.Enums.URL = "ftp://example.com/enums" },
			wantErr: true,
		},
		{
			name:    "negative timeout",
			modify:  func(c *Config) { c.Enums.Timeout = -time.Second },
			wantErr: true,
		},
		{
			name:    "negative refresh interval",
			modify:  func(c *Config) { c.Enums.RefreshInterval = -time.Second },
			wantErr: true,
		},
		{
			name:    "url ignored for file source",
			modify:  func(c *Config) { c.Source = SourceFile; c.Enums.URL = ""; c.Files.Dir = "/tmp/enums" },
			wantErr: false,
		},
		{
			name:    "file source without dir",
			modify:  func(c *Config) { c.Source = SourceFile },
			wantErr: true,
		},
		{
			name:    "file source with bad pattern",
			modify:  func(c *Config) { c.Source = SourceFile; c.Files.Dir = "/tmp"; c.Files.Patterns = []string{"[a-"} },
			wantErr: true,
		},
		{
			name:    "file source without patterns",
			modify:  func(c *Config) { c.Source = SourceFile; c.Files.Dir = "/tmp"; c.Files.Patterns = nil },
			wantErr: true,
		},
		{
			name:    "kv source defaults",
			modify:  func(c *Config) { c.Source = SourceKV },
			wantErr: false,
		},
		{
			name:    "kv source without bucket",
			modify:  func(c *Config) { c.Source = SourceKV; c.NATS.Bucket = "" },
			wantErr: true,
		},
		{
			name:    "kv source without key",
			modify:  func(c *Config) { c.Source = SourceKV; c.NATS.Key = "" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	// Create temp file with config
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
source: file
enums:
  url: "https://app.example.com/api/enums"
  needs_authentication: true
  timeout: 3s
  refresh_interval: 5m
files:
  dir: "/srv/enums"
  patterns:
    - "*.json"
  watch: false
nats:
  url: "nats://test:4222"
api:
  addr: ":9000"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Source != SourceFile {
		t.Errorf("expected source file, got %s", cfg.Source)
	}
	if cfg.Enums.URL != "https://app.example.com/api/enums" {
		t.Errorf("expected url https://app.example.com/api/enums, got %s", cfg.Enums.URL)
	}
	if !cfg.Enums.NeedsAuthentication {
		t.Error("expected needs_authentication true")
	}
	if cfg.Enums.Timeout != 3*time.Second {
		t.Errorf("expected timeout 3s, got %v", cfg.Enums.Timeout)
	}
	if cfg.Enums.RefreshInterval != 5*time.Minute {
		t.Errorf("expected refresh interval 5m, got %v", cfg.Enums.RefreshInterval)
	}
	if cfg.Files.Dir != "/srv/enums" {
		t.Errorf("expected files dir /srv/enums, got %s", cfg.Files.Dir)
	}
	if len(cfg.Files.Patterns) != 1 || cfg.Files.Patterns[0] != "*.json" {
		t.Errorf("expected patterns [*.json], got %v", cfg.Files.Patterns)
	}
	if cfg.Files.Watch {
		t.Error("expected watch false")
	}
	if cfg.Files.DebounceDelay != 500*time.Millisecond {
		t.Errorf("expected default debounce to survive, got %v", cfg.Files.DebounceDelay)
	}
	if cfg.NATS.URL != "nats://test:4222" {
		t.Errorf("expected NATS URL nats://test:4222, got %s", cfg.NATS.URL)
	}
	if cfg.API.Addr != ":9000" {
		t.Errorf("expected api addr :9000, got %s", cfg.API.Addr)
	}
}

func TestLoadFromFile_Errors(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	badPath := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(badPath, []byte("enums: [unclosed"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	if _, err := LoadFromFile(badPath); err == nil {
		t.Error("expected error for malformed yaml")
	}
}

func TestConfigMerge(t *testing.T) {
	base := DefaultConfig()
	override := DefaultConfig()
	override.Enums.URL = "https://override.example.com/enums"
	override.Enums.NeedsAuthentication = true
	override.Files.Watch = false
	override.NATS.Bucket = ""

	base.Merge(override)

	if base.Enums.URL != "https://override.example.com/enums" {
		t.Errorf("expected url override, got %s", base.Enums.URL)
	}
	if !base.Enums.NeedsAuthentication {
		t.Error("expected needs_authentication to be merged")
	}
	if base.Files.Watch {
		t.Error("expected watch to be merged as false")
	}
	// Bucket should remain from base since override didn't set it
	if base.NATS.Bucket != "ENUMS" {
		t.Errorf("expected bucket to remain default, got %s", base.NATS.Bucket)
	}

	base.Merge(nil)
	if base.Enums.URL != "https://override.example.com/enums" {
		t.Error("merging nil must not change the config")
	}
}

func TestConfigSaveToFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "config.yaml")

	cfg := DefaultConfig()
	cfg.Enums.URL = "https://saved.example.com/enums"
	cfg.Enums.RefreshInterval = time.Minute

	if err := cfg.SaveToFile(configPath); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	// Verify file was created
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("config file was not created")
	}

	// Load and verify
	loaded, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}
	if loaded.Enums.URL != "https://saved.example.com/enums" {
		t.Errorf("expected url https://saved.example.com/enums, got %s", loaded.Enums.URL)
	}
	if loaded.Enums.RefreshInterval != time.Minute {
		t.Errorf("expected refresh interval 1m, got %v", loaded.Enums.RefreshInterval)
	}
}
