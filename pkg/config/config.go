// Package config defines the orchestrator configuration and its loading
// pipeline: a provider supplies raw bytes, which are parsed as YAML,
// env-expanded, and decoded into the typed Config.
package config

import (
	"fmt"
	"time"

	"github.com/palletlabs/pallet/pkg/registry"
)

// Config is the root configuration.
type Config struct {
	Registry  registry.Config `yaml:"registry"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Engine    EngineConfig    `yaml:"engine"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DiscoveryConfig controls how skills are resolved to agent endpoints.
type DiscoveryConfig struct {
	// DefaultTag is preferred when an agent repo carries several tags.
	DefaultTag string `yaml:"default_tag"`

	// Static maps skill ids directly to endpoints, bypassing the
	// registry when set.
	Static map[string]string `yaml:"static"`
}

// EngineConfig controls workflow execution.
type EngineConfig struct {
	// InvokeTimeout is a client-wide ceiling on skill invocations.
	// Individual steps apply their own (usually shorter) timeouts.
	InvokeTimeout time.Duration `yaml:"invoke_timeout"`
}

// ServerConfig controls the HTTP facade.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// LoggingConfig controls the process logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SetDefaults fills zero values across all sections.
func (c *Config) SetDefaults() {
	c.Registry.SetDefaults()
	if c.Discovery.DefaultTag == "" {
		c.Discovery.DefaultTag = "v1"
	}
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Validate rejects configurations the process cannot run with.
func (c *Config) Validate() error {
	if c.Registry.URL == "" {
		return fmt.Errorf("registry.url is required")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	return nil
}

// Default returns a fully defaulted configuration, used when no config
// file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg
}
