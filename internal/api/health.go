package api

import (
	"net/http"

	"github.com/halcyonlabs/halcyon/internal/api/helpers"
)

// Health reports liveness, verifying the database is reachable when a pool
// was wired in. Failures return a generic body; the cause is only logged.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			s.logger.Error("health check failed", "error", err)
			helpers.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
			})
			return
		}
	}
	helpers.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
