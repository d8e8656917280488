package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.Redis.Addr != DefaultRedisAddr {
		t.Errorf("Redis.Addr = %q, want %q", cfg.Server.Redis.Addr, DefaultRedisAddr)
	}
	if !cfg.Server.HTTP.Enabled || cfg.Server.HTTP.Addr != DefaultHTTPAddr {
		t.Errorf("HTTP = %+v", cfg.Server.HTTP)
	}
	if cfg.Server.Redis.IdleTimeout != DefaultIdleTimeout {
		t.Errorf("IdleTimeout = %v, want %v", cfg.Server.Redis.IdleTimeout, DefaultIdleTimeout)
	}
	if cfg.Storage.ShardCount != DefaultShardCount {
		t.Errorf("ShardCount = %d, want %d", cfg.Storage.ShardCount, DefaultShardCount)
	}
	if cfg.Protocol.MaxDepth != DefaultMaxDepth {
		t.Errorf("MaxDepth = %d, want %d", cfg.Protocol.MaxDepth, DefaultMaxDepth)
	}
	if cfg.Log.Level != DefaultLogLevel || cfg.Log.Format != DefaultLogFormat {
		t.Errorf("Log = %+v", cfg.Log)
	}

	if err := Verify(cfg); err != nil {
		t.Fatalf("Verify(Default()) = %v", err)
	}
}

func TestVerify(t *testing.T) {
	dir := t.TempDir()
	cert := filepath.Join(dir, "cert.pem")
	key := filepath.Join(dir, "key.pem")
	for _, p := range []string{cert, key} {
		if err := os.WriteFile(p, []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name    string
		mutate  func(*ServerConfig)
		wantErr string
	}{
		{"no listeners", func(c *ServerConfig) { c.Server.Redis.Addr = "" }, "addr or tls_addr is required"},
		{"bad addr", func(c *ServerConfig) { c.Server.Redis.Addr = "localhost" }, "server.redis.addr"},
		{"tls without cert", func(c *ServerConfig) { c.Server.Redis.TLSAddr = ":6380" }, "requires tls_cert_file"},
		{"tls missing file", func(c *ServerConfig) {
			c.Server.Redis.TLSAddr = ":6380"
			c.Server.Redis.TLSCertFile = filepath.Join(dir, "nope.pem")
			c.Server.Redis.TLSKeyFile = key
		}, "tls_cert_file"},
		{"tls ok", func(c *ServerConfig) {
			c.Server.Redis.TLSAddr = ":6380"
			c.Server.Redis.TLSCertFile = cert
			c.Server.Redis.TLSKeyFile = key
		}, ""},
		{"negative timeout", func(c *ServerConfig) { c.Server.Redis.ReadTimeout = -1 }, "timeouts"},
		{"negative rate", func(c *ServerConfig) { c.Server.Redis.RateLimit = -5 }, "rate_limit"},
		{"http conflicts", func(c *ServerConfig) { c.Server.HTTP.Addr = c.Server.Redis.Addr }, "conflicts"},
		{"http disabled skips addr", func(c *ServerConfig) {
			c.Server.HTTP.Enabled = false
			c.Server.HTTP.Addr = ""
		}, ""},
		{"bad allow list", func(c *ServerConfig) { c.Server.HTTP.AllowList = []string{"10.0.0.0/33"} }, "allow_list"},
		{"allow list ok", func(c *ServerConfig) { c.Server.HTTP.AllowList = []string{"10.0.0.0/8", "::1"} }, ""},
		{"shards not power of two", func(c *ServerConfig) { c.Storage.ShardCount = 12 }, "storage.shard_count"},
		{"field shards zero", func(c *ServerConfig) { c.Storage.FieldShardCount = 0 }, "storage.field_shard_count"},
		{"depth zero", func(c *ServerConfig) { c.Protocol.MaxDepth = 0 }, "protocol.max_depth"},
		{"buffer below bulk", func(c *ServerConfig) { c.Protocol.MaxBufferSize = 1 }, "max_buffer_size"},
		{"bad level", func(c *ServerConfig) { c.Log.Level = "loud" }, "log.level"},
		{"bad format", func(c *ServerConfig) { c.Log.Format = "xml" }, "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Verify(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Verify() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Verify() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestVerify_ReportsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.Storage.ShardCount = 3
	cfg.Log.Level = "nope"

	err := Verify(cfg)
	if err == nil {
		t.Fatal("Verify() = nil")
	}
	msg := err.Error()
	if !strings.Contains(msg, "shard_count") || !strings.Contains(msg, "log.level") {
		t.Errorf("Verify() = %q, want both problems", msg)
	}
}

func TestSanitize(t *testing.T) {
	cfg := Default()
	cfg.Server.Redis.TLSKeyFile = "/etc/meshkv/secret/key.pem"

	out := Sanitize(cfg)
	if cfg.Server.Redis.TLSKeyFile != "/etc/meshkv/secret/key.pem" {
		t.Error("Sanitize modified the original")
	}
	if out.Server.Redis.TLSKeyFile != ".../key.pem" {
		t.Errorf("TLSKeyFile = %q", out.Server.Redis.TLSKeyFile)
	}
}
