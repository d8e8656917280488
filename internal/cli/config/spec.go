package config

import "time"

// CLIConfig is the configuration for meshkv-cli.
type CLIConfig struct {
	DefaultServer string        `yaml:"default_server"`
	DefaultOutput string        `yaml:"default_output"` // raw, json, yaml
	Timeout       time.Duration `yaml:"timeout"`

	// Saved connections
	Connections map[string]ConnectionConfig `yaml:"connections"`

	// CurrentConnection names the active profile. Empty uses DefaultServer.
	CurrentConnection string `yaml:"current_connection"`

	HistoryFile string `yaml:"history_file"`
}

// ConnectionConfig stores saved connection details.
type ConnectionConfig struct {
	// Server is host:port, or unix:/path for a Unix socket.
	Server             string `yaml:"server"`
	TLS                bool   `yaml:"tls"`
	CAFile             string `yaml:"ca_file"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		DefaultServer: "127.0.0.1:6379",
		DefaultOutput: "raw",
		Timeout:       5 * time.Second,
		Connections:   make(map[string]ConnectionConfig),
	}
}

// Active returns the connection the CLI should use.
func (c *CLIConfig) Active() ConnectionConfig {
	if conn, ok := c.Connections[c.CurrentConnection]; ok && conn.Server != "" {
		return conn
	}
	return ConnectionConfig{Server: c.DefaultServer}
}
