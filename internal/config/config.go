// Package config provides configuration management for rtshell.
//
// One file configures both the rtsh command suite and the rtnamed daemon.
// Values from the file are overridden by the classic environment variables
// (RTCTREE_NAMESERVERS, RTCSH_CWD) and by RTSH_LOG_LEVEL.
//
// Config file locations (priority order):
//  1. $RTSH_CONFIG
//  2. ./rtshell.yaml
//  3. ~/.config/rtshell/config.yaml
//  4. /etc/rtshell/config.yaml
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"rtshell/internal/naming"
)

// Environment variables that override the config file
const (
	EnvNameServers = "RTCTREE_NAMESERVERS"
	EnvCwd         = "RTCSH_CWD"
	EnvLogLevel    = "RTSH_LOG_LEVEL"
)

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		return cfg, "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, path, err
	}
	cfg.applyEnvOverrides()

	return cfg, path, nil
}

// Parse decodes a config document and fills in defaults. Environment
// overrides are not applied.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	cfg := &Config{Version: 1}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if len(c.Servers) == 0 {
		c.Servers = []string{"localhost"}
	}
	if c.Cwd == "" {
		c.Cwd = "/"
	}

	if c.Naming.Port == 0 {
		c.Naming.Port = naming.DefaultPort
	}
	if c.Naming.Timeout == 0 {
		c.Naming.Timeout = Duration(10 * time.Second)
	}

	if c.Log.Level == "" {
		c.Log.Level = "warn"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Log.Output == "" {
		c.Log.Output = "stderr"
	}

	if c.Registry.Listen == "" {
		c.Registry.Listen = fmt.Sprintf(":%d", naming.DefaultPort)
	}
	if c.Registry.Database == "" {
		c.Registry.Database = "./rtnamed.db"
	}
	if c.Registry.Liveness.Interval == 0 {
		c.Registry.Liveness.Interval = Duration(30 * time.Second)
	}
	if c.Registry.Liveness.Timeout == 0 {
		c.Registry.Liveness.Timeout = Duration(2 * time.Second)
	}

	if c.Scan.Ports == "" {
		c.Scan.Ports = fmt.Sprintf("%d", naming.DefaultPort)
	}
	if c.Scan.Timeout == 0 {
		c.Scan.Timeout = Duration(2 * time.Minute)
	}
}

// applyEnvOverrides applies environment variable overrides
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(EnvNameServers); v != "" {
		if servers := SplitServers(v); len(servers) > 0 {
			c.Servers = servers
		}
	}
	if v := os.Getenv(EnvCwd); v != "" {
		c.Cwd = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = strings.ToLower(strings.TrimSpace(v))
	}
}

// Validate checks values that defaults cannot repair
func (c *Config) Validate() error {
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log format %q", c.Log.Format)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}
	if c.Naming.Port <= 0 || c.Naming.Port > 65535 {
		return fmt.Errorf("invalid naming port %d", c.Naming.Port)
	}
	if t := c.Naming.Tunnel; t != nil && t.Address != "" && t.User == "" {
		return fmt.Errorf("tunnel %s: user is required", t.Address)
	}
	return nil
}

// SplitServers splits a server list separated by commas or semicolons
func SplitServers(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';'
	})
	servers := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			servers = append(servers, f)
		}
	}
	return servers
}

// Endpoints returns the server to base URL map used to dial name servers.
// Servers without an explicit endpoint use the configured naming port.
func (c *Config) Endpoints() map[string]string {
	out := make(map[string]string, len(c.Servers)+len(c.Naming.Endpoints))
	for _, s := range c.Servers {
		if strings.Contains(s, ":") {
			continue
		}
		out[s] = fmt.Sprintf("http://%s:%d", s, c.Naming.Port)
	}
	for k, v := range c.Naming.Endpoints {
		out[k] = v
	}
	return out
}
