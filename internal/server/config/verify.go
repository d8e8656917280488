package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/yndnr/meshkv/internal/telemetry/logger"
)

// Verify validates the configuration and returns every problem found.
func Verify(cfg *ServerConfig) error {
	return errors.Join(
		verifyServer(&cfg.Server),
		verifyStorage(&cfg.Storage),
		verifyProtocol(&cfg.Protocol),
		verifyLog(&cfg.Log),
	)
}

func verifyServer(cfg *ServerSection) error {
	var errs []error
	r := &cfg.Redis

	if r.Addr == "" && r.TLSAddr == "" && r.UnixSocket == "" {
		errs = append(errs, errors.New("server.redis: addr, tls_addr or unix_socket is required"))
	}
	if r.Addr != "" {
		errs = append(errs, verifyAddr("server.redis.addr", r.Addr))
	}
	if r.TLSAddr != "" {
		errs = append(errs, verifyAddr("server.redis.tls_addr", r.TLSAddr))
		if r.TLSCertFile == "" || r.TLSKeyFile == "" {
			errs = append(errs, errors.New("server.redis: tls_addr requires tls_cert_file and tls_key_file"))
		}
		errs = append(errs, verifyFile("server.redis.tls_cert_file", r.TLSCertFile))
		errs = append(errs, verifyFile("server.redis.tls_key_file", r.TLSKeyFile))
	}
	if r.Addr != "" && r.Addr == r.TLSAddr {
		errs = append(errs, errors.New("server.redis: addr and tls_addr must differ"))
	}

	if r.ReadTimeout < 0 || r.WriteTimeout < 0 || r.IdleTimeout < 0 {
		errs = append(errs, errors.New("server.redis: timeouts must not be negative"))
	}
	if r.RateLimit < 0 || r.RateBurst < 0 {
		errs = append(errs, errors.New("server.redis: rate_limit and rate_burst must not be negative"))
	}
	if r.MaxConnections < 0 {
		errs = append(errs, errors.New("server.redis.max_connections must not be negative"))
	}

	if cfg.HTTP.Enabled {
		errs = append(errs, verifyAddr("server.http.addr", cfg.HTTP.Addr))
		if cfg.HTTP.Addr == r.Addr || cfg.HTTP.Addr == r.TLSAddr {
			errs = append(errs, errors.New("server.http.addr conflicts with a redis listener"))
		}
		for _, entry := range cfg.HTTP.AllowList {
			if !validACLEntry(entry) {
				errs = append(errs, fmt.Errorf("server.http.allow_list: invalid entry %q", entry))
			}
		}
	}
	return errors.Join(errs...)
}

func verifyStorage(cfg *StorageSection) error {
	var errs []error
	if !isPowerOfTwo(cfg.ShardCount) {
		errs = append(errs, fmt.Errorf("storage.shard_count must be a positive power of two, got %d", cfg.ShardCount))
	}
	if !isPowerOfTwo(cfg.FieldShardCount) {
		errs = append(errs, fmt.Errorf("storage.field_shard_count must be a positive power of two, got %d", cfg.FieldShardCount))
	}
	return errors.Join(errs...)
}

func verifyProtocol(cfg *ProtocolSection) error {
	var errs []error
	if cfg.MaxBulkLen <= 0 {
		errs = append(errs, errors.New("protocol.max_bulk_len must be positive"))
	}
	if cfg.MaxAggregateLen <= 0 {
		errs = append(errs, errors.New("protocol.max_aggregate_len must be positive"))
	}
	if cfg.MaxDepth <= 0 {
		errs = append(errs, errors.New("protocol.max_depth must be positive"))
	}
	if cfg.MaxBufferSize < cfg.MaxBulkLen {
		errs = append(errs, errors.New("protocol.max_buffer_size must be at least max_bulk_len"))
	}
	return errors.Join(errs...)
}

func verifyLog(cfg *LogSection) error {
	var errs []error
	if !logger.ValidLevel(cfg.Level) {
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", cfg.Level))
	}
	switch strings.ToLower(cfg.Format) {
	case "json", "text", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not json or text", cfg.Format))
	}
	return errors.Join(errs...)
}

func verifyAddr(name, addr string) error {
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func verifyFile(name, path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

func validACLEntry(entry string) bool {
	if strings.Contains(entry, "/") {
		_, _, err := net.ParseCIDR(entry)
		return err == nil
	}
	return net.ParseIP(entry) != nil
}
