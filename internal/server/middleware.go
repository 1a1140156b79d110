// internal/server/middleware.go
package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"ai-ml-service/internal/nlp"
)

const (
	headerRequestID    = "X-Request-ID"
	headerOrganization = "X-Organization-ID"
	headerUser         = "X-User-ID"
)

// withMiddleware tags each request with an ID, logs it, and records
// observability metrics around the handler.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(headerRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(headerRequestID, requestID)

		start := time.Now()
		next(w, r)
		elapsed := time.Since(start)

		if s.obs != nil {
			s.obs.RecordRequest(r.Context(), r.URL.Path, r.Method)
			s.obs.RecordRequestDuration(r.Context(), r.URL.Path, elapsed)
		}

		s.logger.Info("request handled", map[string]interface{}{
			"requestId": requestID,
			"method":    r.Method,
			"path":      r.URL.Path,
			"elapsedMs": elapsed.Milliseconds(),
		})
	}
}

// callerIdentity reads the identity the external auth middleware injected.
// It is consumed as-is; validating it is not this service's job.
func callerIdentity(r *http.Request) nlp.Identity {
	return nlp.Identity{
		OrganizationID: r.Header.Get(headerOrganization),
		UserID:         r.Header.Get(headerUser),
	}
}
