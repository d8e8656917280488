// Package handler provides the admin HTTP handlers for meshkv.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/yndnr/meshkv/internal/storage/memory"
)

// StatsSource reports store contents.
type StatsSource interface {
	Stats() memory.Stats
}

// ConnCounter reports connected clients.
type ConnCounter interface {
	OpenConnections() int64
}

// Handler serves the admin endpoints.
type Handler struct {
	store  StatsSource
	conns  ConnCounter
	logger *slog.Logger
}

// New creates a Handler. conns may be nil.
func New(store StatsSource, conns ConnCounter, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		store:  store,
		conns:  conns,
		logger: logger,
	}
}

// writeJSON writes a success response with the standard envelope format.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	requestID := r.Header.Get("X-Request-ID")
	response := NewResponse(requestID, data)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}
