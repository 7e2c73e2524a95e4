package config

import (
	"time"

	"rtshell/internal/naming"
)

// Config is the root configuration structure
type Config struct {
	Version int `yaml:"version"`

	// Servers are the name servers listed under the naming root
	Servers []string `yaml:"servers,omitempty"`
	// Cwd is the working context relative paths resolve against
	Cwd string `yaml:"cwd,omitempty"`

	Naming   NamingConfig   `yaml:"naming"`
	Log      LogConfig      `yaml:"log"`
	Registry RegistryConfig `yaml:"registry"`
	Scan     ScanConfig     `yaml:"scan"`
}

// NamingConfig describes how name servers are reached
type NamingConfig struct {
	// Endpoints maps a server name to an explicit base URL
	Endpoints map[string]string `yaml:"endpoints,omitempty"`
	Port      int               `yaml:"port"`
	Timeout   Duration          `yaml:"timeout"`
	Tunnel    *TunnelConfig     `yaml:"tunnel,omitempty"`
}

// TunnelConfig holds an SSH bastion used to reach name servers.
// Secrets are referenced by path, never stored inline except the password.
type TunnelConfig struct {
	Address  string `yaml:"address"`
	User     string `yaml:"user"`
	KeyFile  string `yaml:"key_file,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// LogConfig configures the zap logger
type LogConfig struct {
	// Level is debug, info, warn or error
	Level string `yaml:"level"`
	// Format is console or json
	Format string `yaml:"format"`
	// Output is stderr, stdout or a file path
	Output string `yaml:"output"`
}

// RegistryConfig configures the rtnamed daemon
type RegistryConfig struct {
	Listen   string         `yaml:"listen"`
	Database string         `yaml:"database"`
	Seed     string         `yaml:"seed,omitempty"`
	Watch    bool           `yaml:"watch"`
	Liveness LivenessConfig `yaml:"liveness"`
}

// LivenessConfig tunes the component liveness probe
type LivenessConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Interval Duration `yaml:"interval"`
	Timeout  Duration `yaml:"timeout"`
}

// ScanConfig configures name server discovery
type ScanConfig struct {
	Ports   string   `yaml:"ports"`
	Timeout Duration `yaml:"timeout"`
}

// TunnelSettings converts the tunnel section for the naming client
func (n NamingConfig) TunnelSettings() (naming.TunnelConfig, bool) {
	if n.Tunnel == nil || n.Tunnel.Address == "" {
		return naming.TunnelConfig{}, false
	}
	return naming.TunnelConfig{
		Address:  n.Tunnel.Address,
		User:     n.Tunnel.User,
		KeyFile:  n.Tunnel.KeyFile,
		Password: n.Tunnel.Password,
		Timeout:  n.Timeout.Duration(),
	}, true
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
