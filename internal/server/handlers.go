package server

import (
	"encoding/json"
	"net/http"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// handleHealth answers liveness checks from the load balancer. The service
// stays live without an analysis backend; callers see that in "analysis".
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	analysisState := "ready"
	if s.analysis == nil {
		analysisState = "unavailable"
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "healthy",
		"version":  Version,
		"service":  "callwriter",
		"analysis": analysisState,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
