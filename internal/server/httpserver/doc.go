// Package httpserver provides the admin HTTP server for meshkv.
//
// Endpoints:
//
//	GET /healthz   liveness probe
//	GET /metrics   Prometheus exposition
//	GET /v1/stats  key counts, connections and build info
//
// /metrics and /v1/stats may be restricted to an IP allowlist.
package httpserver
