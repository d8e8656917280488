package config

import "time"

// Default configuration values.
const (
	DefaultRedisAddr = "127.0.0.1:6379"
	DefaultHTTPAddr  = "127.0.0.1:9121"

	DefaultReadTimeout  = 30 * time.Second
	DefaultWriteTimeout = 30 * time.Second
	DefaultIdleTimeout  = 5 * time.Minute

	DefaultShardCount      = 32
	DefaultFieldShardCount = 8

	DefaultMaxBulkLen      = 512 << 20
	DefaultMaxAggregateLen = 1 << 20
	DefaultMaxDepth        = 64
	DefaultMaxBufferSize   = 1 << 30

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			Redis: RedisConfig{
				Addr:         DefaultRedisAddr,
				ReadTimeout:  DefaultReadTimeout,
				WriteTimeout: DefaultWriteTimeout,
				IdleTimeout:  DefaultIdleTimeout,
			},
			HTTP: HTTPConfig{
				Enabled: true,
				Addr:    DefaultHTTPAddr,
			},
		},
		Storage: StorageSection{
			ShardCount:      DefaultShardCount,
			FieldShardCount: DefaultFieldShardCount,
		},
		Protocol: ProtocolSection{
			MaxBulkLen:      DefaultMaxBulkLen,
			MaxAggregateLen: DefaultMaxAggregateLen,
			MaxDepth:        DefaultMaxDepth,
			MaxBufferSize:   DefaultMaxBufferSize,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
