package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfigFile(t, `
registry:
  url: http://registry.internal:5000
  timeout: 30s
  max_retries: 5
discovery:
  default_tag: stable
engine:
  invoke_timeout: 2m
server:
  host: 0.0.0.0
  port: 9090
logging:
  level: debug
  format: json
`)

	cfg, loader, err := LoadConfigFile(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadConfigFile() error = %v", err)
	}
	defer loader.Close()

	if cfg.Registry.URL != "http://registry.internal:5000" {
		t.Errorf("Registry.URL = %v", cfg.Registry.URL)
	}
	if cfg.Registry.Timeout != 30*time.Second {
		t.Errorf("Registry.Timeout = %v, want 30s", cfg.Registry.Timeout)
	}
	if cfg.Registry.MaxRetries != 5 {
		t.Errorf("Registry.MaxRetries = %v", cfg.Registry.MaxRetries)
	}
	if cfg.Discovery.DefaultTag != "stable" {
		t.Errorf("Discovery.DefaultTag = %v", cfg.Discovery.DefaultTag)
	}
	if cfg.Engine.InvokeTimeout != 2*time.Minute {
		t.Errorf("Engine.InvokeTimeout = %v", cfg.Engine.InvokeTimeout)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %v", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
}

func TestLoadConfigFile_Defaults(t *testing.T) {
	path := writeConfigFile(t, "{}\n")

	cfg, loader, err := LoadConfigFile(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadConfigFile() error = %v", err)
	}
	defer loader.Close()

	if cfg.Registry.URL != "http://localhost:5000" {
		t.Errorf("Registry.URL = %v", cfg.Registry.URL)
	}
	if cfg.Discovery.DefaultTag != "v1" {
		t.Errorf("Discovery.DefaultTag = %v", cfg.Discovery.DefaultTag)
	}
	if cfg.Server.Port == 0 {
		t.Error("Server.Port not defaulted")
	}
}

func TestLoadConfigFile_EnvExpansion(t *testing.T) {
	t.Setenv("PALLET_TEST_REGISTRY", "http://from-env:5000")

	path := writeConfigFile(t, `
registry:
  url: ${PALLET_TEST_REGISTRY}
server:
  host: ${PALLET_TEST_MISSING:-fallback-host}
`)

	cfg, loader, err := LoadConfigFile(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadConfigFile() error = %v", err)
	}
	defer loader.Close()

	if cfg.Registry.URL != "http://from-env:5000" {
		t.Errorf("Registry.URL = %v, want env value", cfg.Registry.URL)
	}
	if cfg.Server.Host != "fallback-host" {
		t.Errorf("Server.Host = %v, want default fallback", cfg.Server.Host)
	}
}

func TestLoadConfigFile_JSONFallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"server": {"port": 7070}}`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, loader, err := LoadConfigFile(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadConfigFile() error = %v", err)
	}
	defer loader.Close()

	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %v, want 7070", cfg.Server.Port)
	}
}

func TestLoadConfigFile_Missing(t *testing.T) {
	_, _, err := LoadConfigFile(context.Background(), filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("LoadConfigFile() error = nil, want error")
	}
}

func TestLoadConfigFile_InvalidPort(t *testing.T) {
	path := writeConfigFile(t, "server:\n  port: -1\n")

	_, _, err := LoadConfigFile(context.Background(), path)
	if err == nil {
		t.Fatal("LoadConfigFile() error = nil, want validation error")
	}
}

func TestLoader_WatchReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 8080\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan *Config, 1)
	cfg, loader, err := LoadConfigFile(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadConfigFile() error = %v", err)
	}
	defer loader.Close()
	loader.onChange = func(c *Config) {
		select {
		case reloaded <- c:
		default:
		}
	}

	if cfg.Server.Port != 8080 {
		t.Fatalf("initial port = %d", cfg.Server.Port)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go loader.Watch(ctx)

	// Give the watcher a moment to arm before rewriting.
	time.Sleep(200 * time.Millisecond)
	if err := os.WriteFile(path, []byte("server:\n  port: 8081\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case c := <-reloaded:
		if c.Server.Port != 8081 {
			t.Errorf("reloaded port = %d, want 8081", c.Server.Port)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for config reload")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() error = %v", err)
	}
}
