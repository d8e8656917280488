package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/yndnr/meshkv/internal/server/httpserver/handler"
	"github.com/yndnr/meshkv/internal/telemetry/metric"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Store supplies key counts for /v1/stats.
	Store handler.StatsSource
	// Conns supplies the open client count for /v1/stats. Optional.
	Conns handler.ConnCounter
	// Metrics is exposed on /metrics. The global registry is used when nil.
	Metrics *metric.Registry
	// Logger for request logging.
	Logger *slog.Logger
	// AllowList restricts /metrics and /v1/stats (empty = no restriction).
	AllowList []string
}

// NewRouter creates the admin router with all routes and middleware.
func NewRouter(cfg *RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = metric.Global()
	}

	h := handler.New(cfg.Store, cfg.Conns, log)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.Health)

	restricted := NetworkACL(cfg.AllowList, log)
	mux.Handle("GET /metrics", restricted(metrics.Handler()))
	mux.Handle("GET /v1/stats", restricted(http.HandlerFunc(h.Stats)))

	// Order: Recover -> RequestID -> AccessLog -> mux
	return Chain(mux, Recover(log), RequestID(), AccessLog(log))
}
