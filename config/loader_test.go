package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestLoaderLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	cfg, err := NewLoader(nil).Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Source != SourceHTTP {
		t.Errorf("expected default source, got %s", cfg.Source)
	}
}

func TestLoaderLoad_Layers(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	writeFile(t, filepath.Join(home, UserConfigDir, UserConfigFile), `
enums:
  url: "https://user.example.com/enums"
  token: "user-token"
`)

	project := t.TempDir()
	writeFile(t, filepath.Join(project, ProjectConfigFile), `
enums:
  url: "https://project.example.com/enums"
`)
	nested := filepath.Join(project, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	t.Chdir(nested)

	cfg, err := NewLoader(nil).Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Enums.URL != "https://project.example.com/enums" {
		t.Errorf("expected project url to win, got %s", cfg.Enums.URL)
	}
	if cfg.Enums.Token != "user-token" {
		t.Errorf("expected user token to survive, got %q", cfg.Enums.Token)
	}
}

func TestLoaderLoad_ExplicitPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "custom.yaml")
	writeFile(t, path, `
source: file
files:
  dir: catalogs
`)

	cfg, err := NewLoader(nil).Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Source != SourceFile {
		t.Errorf("expected source file, got %s", cfg.Source)
	}
	if !filepath.IsAbs(cfg.Files.Dir) {
		t.Errorf("expected files dir to be absolute, got %s", cfg.Files.Dir)
	}
	if filepath.Base(cfg.Files.Dir) != "catalogs" {
		t.Errorf("expected files dir to end in catalogs, got %s", cfg.Files.Dir)
	}

	if _, err := NewLoader(nil).Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing explicit config")
	}
}

func TestLoaderLoad_Invalid(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, filepath.Join(dir, ProjectConfigFile), "source: carrier-pigeon\n")

	if _, err := NewLoader(nil).Load(""); err == nil {
		t.Error("expected validation error")
	}
}

func TestEnsureUserConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	loader := NewLoader(nil)
	if err := loader.EnsureUserConfig(); err != nil {
		t.Fatalf("EnsureUserConfig() error = %v", err)
	}

	path := filepath.Join(home, UserConfigDir, UserConfigFile)
	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("failed to load created config: %v", err)
	}
	if cfg.Source != SourceHTTP {
		t.Errorf("expected default source, got %s", cfg.Source)
	}

	// Second call leaves the existing file alone
	writeFile(t, path, "source: kv\n")
	if err := loader.EnsureUserConfig(); err != nil {
		t.Fatalf("EnsureUserConfig() error = %v", err)
	}
	cfg, err = LoadFromFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Source != SourceKV {
		t.Errorf("expected existing config to be kept, got %s", cfg.Source)
	}
}
