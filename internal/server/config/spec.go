package config

import "time"

// ServerConfig is the root configuration for meshkv-server.
type ServerConfig struct {
	Server   ServerSection   `koanf:"server"`
	Storage  StorageSection  `koanf:"storage"`
	Protocol ProtocolSection `koanf:"protocol"`
	Log      LogSection      `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	Redis RedisConfig `koanf:"redis"`
	HTTP  HTTPConfig  `koanf:"http"`
}

// RedisConfig configures the RESP listener.
type RedisConfig struct {
	Addr        string `koanf:"addr"`
	TLSAddr     string `koanf:"tls_addr"`
	TLSCertFile string `koanf:"tls_cert_file"`
	TLSKeyFile  string `koanf:"tls_key_file"`
	// UnixSocket is a Unix domain socket path for local clients.
	UnixSocket string `koanf:"unix_socket"`

	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`

	// RateLimit is the maximum number of commands per second per
	// connection. 0 disables rate limiting.
	RateLimit int `koanf:"rate_limit"`
	// RateBurst is the token bucket size; defaults to RateLimit.
	RateBurst int `koanf:"rate_burst"`
	// MaxConnections caps concurrent clients. 0 means unlimited.
	MaxConnections int `koanf:"max_connections"`
}

// HTTPConfig configures the admin HTTP server.
type HTTPConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
	// AllowList restricts /metrics and /v1/stats to these IPs or CIDRs.
	// Empty means no restriction.
	AllowList []string `koanf:"allow_list"`
}

// StorageSection configures the in-memory store.
type StorageSection struct {
	// ShardCount is the number of shards per keyspace (power of two).
	ShardCount int `koanf:"shard_count"`
	// FieldShardCount is the number of shards inside each hash or set.
	FieldShardCount int `koanf:"field_shard_count"`
}

// ProtocolSection bounds what a client may send.
type ProtocolSection struct {
	MaxBulkLen      int `koanf:"max_bulk_len"`
	MaxAggregateLen int `koanf:"max_aggregate_len"`
	MaxDepth        int `koanf:"max_depth"`
	// MaxBufferSize caps unconsumed input per connection.
	MaxBufferSize int `koanf:"max_buffer_size"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
