// Package main provides the entry point for meshkv-server.
//
// meshkv-server is an in-memory key-value server for strings, hashes
// and sets that speaks RESP2/RESP3 on TCP (optionally TLS) and exposes
// health, stats and Prometheus metrics over an admin HTTP listener.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/meshkv/internal/infra/buildinfo"
	"github.com/yndnr/meshkv/internal/infra/confloader"
	"github.com/yndnr/meshkv/internal/infra/shutdown"
	"github.com/yndnr/meshkv/internal/infra/tlsroots"
	"github.com/yndnr/meshkv/internal/server/config"
	"github.com/yndnr/meshkv/internal/server/httpserver"
	"github.com/yndnr/meshkv/internal/server/redisserver"
	"github.com/yndnr/meshkv/internal/storage/memory"
	"github.com/yndnr/meshkv/internal/telemetry/logger"
	"github.com/yndnr/meshkv/internal/telemetry/metric"
	"github.com/yndnr/meshkv/pkg/resp"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// options are the command-line settings. Non-empty values override the
// config file and environment.
type options struct {
	configFile string
	addr       string
	httpAddr   string
	logLevel   string
	logFormat  string
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "meshkv-server",
		Usage:   "in-memory key-value server speaking RESP",
		Version: buildinfo.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "path to configuration file"},
			&cli.StringFlag{Name: "addr", Usage: "RESP listen address (server.redis.addr)"},
			&cli.StringFlag{Name: "http-addr", Usage: "admin HTTP listen address (server.http.addr)"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error (log.level)"},
			&cli.StringFlag{Name: "log-format", Usage: "json or text (log.format)"},
		},
		Action: func(c *cli.Context) error {
			return run(c.Context, options{
				configFile: c.String("config"),
				addr:       c.String("addr"),
				httpAddr:   c.String("http-addr"),
				logLevel:   c.String("log-level"),
				logFormat:  c.String("log-format"),
			})
		},
	}
}

func run(ctx context.Context, opts options) error {
	loader := newLoader(opts)
	cfg, err := loadConfig(loader)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, slogLogger, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	log.Info("starting meshkv-server",
		"version", buildinfo.Version,
		"commit", buildinfo.Commit,
		"config", opts.configFile)
	log.Debug("effective configuration", "config", config.Sanitize(cfg))

	store := memory.New(
		memory.WithShardCount(cfg.Storage.ShardCount),
		memory.WithFieldShardCount(cfg.Storage.FieldShardCount),
	)

	metrics := metric.Global()
	metrics.MustRegister(metric.NewKeyspaceCollector(keyspaceCounts(store)))

	redisCfg, certWatcher, err := redisConfig(cfg, slogLogger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if certWatcher != nil {
		go func() {
			if err := certWatcher.Run(ctx); err != nil {
				log.Warn("certificate hot reload disabled", "error", err)
			}
		}()
	}

	shutdownHandler := shutdown.NewHandler(shutdownTimeout, slogLogger)

	redisSrv := redisserver.New(redisCfg, store,
		redisserver.WithLogger(slogLogger),
		redisserver.WithMetrics(metrics),
	)
	if err := redisSrv.Start(ctx); err != nil {
		return fmt.Errorf("start redis server: %w", err)
	}
	shutdownHandler.OnShutdown("redis", redisSrv.Shutdown)

	if cfg.Server.HTTP.Enabled {
		router := httpserver.NewRouter(&httpserver.RouterConfig{
			Store:     store,
			Conns:     redisSrv,
			Metrics:   metrics,
			Logger:    slogLogger,
			AllowList: cfg.Server.HTTP.AllowList,
		})
		httpSrv := httpserver.New(cfg.Server.HTTP.Addr, router, slogLogger)
		if err := httpSrv.Start(); err != nil {
			_ = redisSrv.Shutdown(context.Background())
			return fmt.Errorf("start http server: %w", err)
		}
		shutdownHandler.OnShutdown("http", httpSrv.Shutdown)
	}

	if opts.configFile != "" {
		watcher, err := confloader.NewWatcher(opts.configFile, confloader.WithWatcherLogger(slogLogger))
		if err != nil {
			log.Warn("config hot reload disabled", "error", err)
		} else {
			watcher.OnChange(func(string) { reloadConfig(loader, log) })
			go watcher.Run(ctx)
			shutdownHandler.OnShutdown("config-watcher", func(context.Context) error {
				return watcher.Stop()
			})
		}
	}

	log.Info("server started, press Ctrl+C to stop")
	if err := shutdownHandler.Wait(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// newLoader builds the config loader with command-line overrides.
func newLoader(opts options) *confloader.Loader {
	overrides := make(map[string]any)
	for key, value := range map[string]string{
		"server.redis.addr": opts.addr,
		"server.http.addr":  opts.httpAddr,
		"log.level":         opts.logLevel,
		"log.format":        opts.logFormat,
	} {
		if value != "" {
			overrides[key] = value
		}
	}

	loaderOpts := []confloader.Option{confloader.WithOverrides(overrides)}
	if opts.configFile != "" {
		loaderOpts = append(loaderOpts, confloader.WithConfigFile(opts.configFile))
	}
	return confloader.NewLoader(loaderOpts...)
}

// loadConfig loads and validates configuration on top of the defaults.
func loadConfig(loader *confloader.Loader) (*config.ServerConfig, error) {
	cfg := config.Default()
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}
	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// reloadConfig re-reads the config file and applies the log level.
// Listener, storage and protocol settings take effect on restart.
func reloadConfig(loader *confloader.Loader, log logger.Logger) {
	cfg := config.Default()
	if err := loader.Reload(cfg); err != nil {
		log.Warn("config reload failed", "error", err)
		return
	}
	if err := config.Verify(cfg); err != nil {
		log.Warn("reloaded config rejected", "error", err)
		return
	}
	if old := logger.GetLevel(); old != cfg.Log.Level {
		logger.SetLevel(cfg.Log.Level)
		log.Info("log level changed", "from", old, "to", logger.GetLevel())
	}
}

// initLogger initializes the structured logger.
// Returns both the logger interface and slog.Logger for components that need it.
func initLogger(cfg *config.ServerConfig) (logger.Logger, *slog.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return nil, nil, err
	}
	logger.SetDefault(log)
	return log, logger.Slog(log), nil
}

// redisConfig maps the loaded configuration onto the RESP server. The
// returned watcher, set when TLS is enabled, serves the key pair.
func redisConfig(cfg *config.ServerConfig, log *slog.Logger) (*redisserver.Config, *tlsroots.Watcher, error) {
	rc := cfg.Server.Redis
	out := &redisserver.Config{
		Addr:           rc.Addr,
		TLSAddr:        rc.TLSAddr,
		UnixSocket:     rc.UnixSocket,
		ReadTimeout:    rc.ReadTimeout,
		WriteTimeout:   rc.WriteTimeout,
		IdleTimeout:    rc.IdleTimeout,
		RateLimit:      rc.RateLimit,
		RateBurst:      rc.RateBurst,
		MaxConnections: rc.MaxConnections,
		Limits: resp.Limits{
			MaxBulkLen:      cfg.Protocol.MaxBulkLen,
			MaxAggregateLen: cfg.Protocol.MaxAggregateLen,
			MaxDepth:        cfg.Protocol.MaxDepth,
		},
		MaxBufferSize: cfg.Protocol.MaxBufferSize,
	}

	if rc.TLSAddr == "" {
		return out, nil, nil
	}
	w, err := tlsroots.NewWatcher(rc.TLSCertFile, rc.TLSKeyFile, tlsroots.WithLogger(log))
	if err != nil {
		return nil, nil, err
	}
	out.TLSConfig = w.ServerConfig()
	return out, w, nil
}

func keyspaceCounts(store *memory.Store) metric.KeyspaceFunc {
	return func() map[string]int {
		st := store.Stats()
		return map[string]int{
			"string": st.Strings,
			"hash":   st.Hashes,
			"set":    st.Sets,
		}
	}
}
