package api

import (
	"net/http"
)

func (s *Server) handleExtractStats(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"stats":       s.orchestrator.Extractor().Stats().Snapshot(),
		"queue_depth": s.orchestrator.QueueDepth(),
	}

	st, enabled, err := s.orchestrator.CacheStats(r.Context())
	switch {
	case err != nil:
		s.log.Warn("dump cache stats failed", "error", err)
		resp["cache"] = map[string]any{"enabled": true, "error": err.Error()}
	case enabled:
		resp["cache"] = map[string]any{"enabled": true, "entries": st.Entries, "hits": st.Hits}
	default:
		resp["cache"] = map[string]any{"enabled": false}
	}

	writeJSON(w, http.StatusOK, resp)
}
