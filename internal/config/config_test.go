package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfig_SetDefaults(t *testing.T) {
	t.Parallel()

	var cfg Config
	cfg.SetDefaults()

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.LogLevel != "info" {
		t.Errorf("Server.LogLevel = %q, want %q", cfg.Server.LogLevel, "info")
	}
	if cfg.Rules.Path != "rules.yaml" {
		t.Errorf("Rules.Path = %q, want %q", cfg.Rules.Path, "rules.yaml")
	}
	if cfg.Cache.Backend != "memory" {
		t.Errorf("Cache.Backend = %q, want %q", cfg.Cache.Backend, "memory")
	}
	if cfg.Cache.Expiry != "300s" {
		t.Errorf("Cache.Expiry = %q, want %q", cfg.Cache.Expiry, "300s")
	}
	if cfg.Workers.MaxWorkers != 4 {
		t.Errorf("Workers.MaxWorkers = %d, want 4", cfg.Workers.MaxWorkers)
	}
	if cfg.Workers.ProcessCount != 1 {
		t.Errorf("Workers.ProcessCount = %d, want 1", cfg.Workers.ProcessCount)
	}
	if cfg.Embedding.Timeout != "5s" {
		t.Errorf("Embedding.Timeout = %q, want %q", cfg.Embedding.Timeout, "5s")
	}
	if cfg.Classifier.Timeout != "5s" {
		t.Errorf("Classifier.Timeout = %q, want %q", cfg.Classifier.Timeout, "5s")
	}
}

func TestConfig_SetDefaults_PreservesExistingValues(t *testing.T) {
	t.Parallel()

	cfg := Config{
		Server: ServerConfig{Host: "127.0.0.1", Port: 9090},
		Cache:  CacheConfig{Backend: "redis", Expiry: "60s"},
	}
	cfg.SetDefaults()

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Host was overwritten: got %q", cfg.Server.Host)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Port was overwritten: got %d", cfg.Server.Port)
	}
	if cfg.Cache.Backend != "redis" {
		t.Errorf("Backend was overwritten: got %q", cfg.Cache.Backend)
	}
	if cfg.Cache.Expiry != "60s" {
		t.Errorf("Expiry was overwritten: got %q", cfg.Cache.Expiry)
	}
}

func TestConfig_SetDefaults_RedisDefaultsAlwaysPopulated(t *testing.T) {
	t.Parallel()

	var cfg Config
	cfg.SetDefaults()

	if cfg.Cache.Redis.Host != "localhost" {
		t.Errorf("Redis.Host = %q, want %q (sub-defaults always set)", cfg.Cache.Redis.Host, "localhost")
	}
	if cfg.Cache.Redis.Port != 6379 {
		t.Errorf("Redis.Port = %d, want 6379 (sub-defaults always set)", cfg.Cache.Redis.Port)
	}
}

func TestFindConfigFileInPaths_EmptyDir(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	got := findConfigFileInPaths([]string{dir})
	if got != "" {
		t.Errorf("findConfigFileInPaths(empty dir) = %q, want empty", got)
	}
}

func TestFindConfigFileInPaths_MatchesYAML(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "textguard.yaml")
	_ = os.WriteFile(cfgPath, []byte("server:\n  port: 9090\n"), 0644)

	got := findConfigFileInPaths([]string{dir})
	if got != cfgPath {
		t.Errorf("findConfigFileInPaths = %q, want %q", got, cfgPath)
	}
}

func TestFindConfigFileInPaths_MatchesYML(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "textguard.yml")
	_ = os.WriteFile(cfgPath, []byte("server:\n  port: 9090\n"), 0644)

	got := findConfigFileInPaths([]string{dir})
	if got != cfgPath {
		t.Errorf("findConfigFileInPaths = %q, want %q", got, cfgPath)
	}
}

func TestFindConfigFileInPaths_IgnoresNoExtension(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	_ = os.WriteFile(filepath.Join(dir, "textguard"), []byte("\x7fELF binary"), 0755)

	got := findConfigFileInPaths([]string{dir})
	if got != "" {
		t.Errorf("findConfigFileInPaths matched binary = %q, want empty", got)
	}
}

func TestFindConfigFileInPaths_PrefersYAMLOverYML(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "textguard.yaml")
	ymlPath := filepath.Join(dir, "textguard.yml")
	_ = os.WriteFile(yamlPath, []byte("server:\n  port: 8080\n"), 0644)
	_ = os.WriteFile(ymlPath, []byte("server:\n  port: 9090\n"), 0644)

	got := findConfigFileInPaths([]string{dir})
	if got != yamlPath {
		t.Errorf("findConfigFileInPaths = %q, want %q (.yaml preferred)", got, yamlPath)
	}
}
