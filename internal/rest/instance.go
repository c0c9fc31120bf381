package rest

import "net/http"

// handleInstanceInfo serves GET / (§6.1), including rate limit buckets
// when the caller passes ?rate_limits=true.
func (s *Server) handleInstanceInfo(w http.ResponseWriter, r *http.Request) {
	withRateLimits := r.URL.Query().Get("rate_limits") == "true"
	writeJSON(w, http.StatusOK, s.cfg.InstanceInfo(withRateLimits))
}
