package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables read by Merge.
const (
	EnvServer  = "MESHKV_SERVER"
	EnvOutput  = "MESHKV_OUTPUT"
	EnvTimeout = "MESHKV_TIMEOUT"
)

// DefaultDir returns the per-user meshkv directory.
func DefaultDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".meshkv")
}

// DefaultConfigPath returns the default CLI config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultDir(), "cli.yaml")
}

// DefaultHistoryPath returns the default REPL history file path.
func DefaultHistoryPath() string {
	return filepath.Join(DefaultDir(), "history")
}

// Load loads CLI configuration from file. A missing file yields the
// defaults.
func Load(path string) (*CLIConfig, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cli config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse cli config %s: %w", path, err)
	}
	if cfg.Connections == nil {
		cfg.Connections = make(map[string]ConnectionConfig)
	}
	return cfg, nil
}

// Save writes cfg to path with owner-only permissions.
func Save(cfg *CLIConfig, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode cli config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// Merge overrides cfg with MESHKV_* environment variables and then with
// command-line flags ("server", "output", "timeout"). Empty values are
// ignored.
func Merge(cfg *CLIConfig, env map[string]string, flags map[string]string) (*CLIConfig, error) {
	out := *cfg
	apply := func(server, format, timeout string) error {
		if server != "" {
			out.DefaultServer = server
			out.CurrentConnection = ""
		}
		if format != "" {
			out.DefaultOutput = format
		}
		if timeout != "" {
			d, err := time.ParseDuration(timeout)
			if err != nil {
				return fmt.Errorf("invalid timeout %q: %w", timeout, err)
			}
			out.Timeout = d
		}
		return nil
	}

	if err := apply(env[EnvServer], env[EnvOutput], env[EnvTimeout]); err != nil {
		return nil, err
	}
	if err := apply(flags["server"], flags["output"], flags["timeout"]); err != nil {
		return nil, err
	}
	return &out, nil
}

// Environ returns the MESHKV_* variables Merge reads from the process
// environment.
func Environ() map[string]string {
	env := make(map[string]string, 3)
	for _, k := range []string{EnvServer, EnvOutput, EnvTimeout} {
		if v, ok := os.LookupEnv(k); ok {
			env[k] = v
		}
	}
	return env
}
