package handler

import (
	"net/http"

	"github.com/yndnr/meshkv/internal/infra/buildinfo"
)

// Stats handles GET /v1/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	st := h.store.Stats()
	resp := StatsResponse{
		Keys: KeyCounts{
			Strings: st.Strings,
			Hashes:  st.Hashes,
			Sets:    st.Sets,
			Total:   st.Strings + st.Hashes + st.Sets,
		},
		ShardCount:   st.ShardCount,
		MaxShardKeys: st.MaxShardKeys,
		Build:        buildinfo.Get(),
	}
	if h.conns != nil {
		resp.Connections = h.conns.OpenConnections()
	}
	h.writeJSON(w, r, http.StatusOK, resp)
}
