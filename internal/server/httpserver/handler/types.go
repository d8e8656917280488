package handler

import (
	"time"

	"github.com/yndnr/meshkv/internal/infra/buildinfo"
)

// Response is the standard API response envelope.
// /healthz and /metrics do not use it.
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// StatsResponse is the body of GET /v1/stats.
type StatsResponse struct {
	Keys         KeyCounts      `json:"keys"`
	ShardCount   int            `json:"shard_count"`
	MaxShardKeys int            `json:"max_shard_keys"`
	Connections  int64          `json:"connections"`
	Build        buildinfo.Info `json:"build"`
}

// KeyCounts counts keys per namespace.
type KeyCounts struct {
	Strings int `json:"strings"`
	Hashes  int `json:"hashes"`
	Sets    int `json:"sets"`
	Total   int `json:"total"`
}
