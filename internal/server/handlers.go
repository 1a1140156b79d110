// internal/server/handlers.go
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	apperrors "ai-ml-service/internal/common/errors"
	"ai-ml-service/internal/history"
	"ai-ml-service/internal/nlp"
)

type queryRequest struct {
	Query   string                 `json:"query"`
	Context map[string]interface{} `json:"context"`
}

type insightsRequest struct {
	DataSummary map[string]interface{} `json:"data_summary"`
}

type optimizeRequest struct {
	SQLQuery string `json:"sql_query"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeInvalidRequest(w, "request body must be valid JSON")
		return
	}
	if req.Query == "" {
		s.writeInvalidRequest(w, "query is required")
		return
	}

	identity := callerIdentity(r)
	ctx, cancel := context.WithTimeout(r.Context(), s.requestDeadline())
	defer cancel()

	resp := s.pipeline.InterpretQuery(ctx, req.Query, req.Context, identity)
	s.recordHistory(r.Context(), "interpret_query", req.Query, identity, resp)
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req insightsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeInvalidRequest(w, "request body must be valid JSON")
		return
	}
	if len(req.DataSummary) == 0 {
		s.writeInvalidRequest(w, "data_summary is required")
		return
	}

	identity := callerIdentity(r)
	ctx, cancel := context.WithTimeout(r.Context(), s.requestDeadline())
	defer cancel()

	resp := s.pipeline.GenerateInsights(ctx, req.DataSummary, identity)
	s.recordHistory(r.Context(), "generate_insights", "", identity, resp)
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req optimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeInvalidRequest(w, "request body must be valid JSON")
		return
	}
	if req.SQLQuery == "" {
		s.writeInvalidRequest(w, "sql_query is required")
		return
	}

	identity := callerIdentity(r)
	ctx, cancel := context.WithTimeout(r.Context(), s.requestDeadline())
	defer cancel()

	resp := s.pipeline.OptimizeQuery(ctx, req.SQLQuery, identity)
	s.recordHistory(r.Context(), "optimize_query", req.SQLQuery, identity, resp)
	s.writeJSON(w, http.StatusOK, resp)
}

// handlePredictions serves cached prediction results scoped to the caller's
// organization and user. POST stores a result, GET retrieves it.
func (s *Server) handlePredictions(w http.ResponseWriter, r *http.Request) {
	if s.predictions == nil {
		http.Error(w, "predictions cache not configured", http.StatusServiceUnavailable)
		return
	}

	identity := callerIdentity(r)
	modelType := r.URL.Query().Get("model_type")
	if modelType == "" {
		s.writeInvalidRequest(w, "model_type is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestDeadline())
	defer cancel()

	switch r.Method {
	case http.MethodGet:
		result, found, err := s.predictions.Get(ctx, identity.OrganizationID, identity.UserID, modelType)
		if err != nil {
			s.logger.WithError(err).Error("failed to read prediction cache", map[string]interface{}{
				"modelType": modelType,
			})
			http.Error(w, "cache read failed", http.StatusInternalServerError)
			return
		}
		if !found {
			http.Error(w, "no cached prediction", http.StatusNotFound)
			return
		}
		s.writeJSON(w, http.StatusOK, result)
	case http.MethodPost:
		var result map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&result); err != nil {
			s.writeInvalidRequest(w, "request body must be valid JSON")
			return
		}
		if err := s.predictions.Save(ctx, identity.OrganizationID, identity.UserID, modelType, result); err != nil {
			s.logger.WithError(err).Error("failed to write prediction cache", map[string]interface{}{
				"modelType": modelType,
			})
			http.Error(w, "cache write failed", http.StatusInternalServerError)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]interface{}{"cached": true})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleHistory returns the caller organization's recent processed queries.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.history == nil {
		http.Error(w, "history store not configured", http.StatusServiceUnavailable)
		return
	}

	identity := callerIdentity(r)
	if identity.OrganizationID == "" {
		s.writeInvalidRequest(w, "organization header is required")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			s.writeInvalidRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestDeadline())
	defer cancel()

	entries, err := s.history.RecentByOrganization(ctx, identity.OrganizationID, limit)
	if err != nil {
		s.logger.WithError(err).Error("failed to read query history", nil)
		http.Error(w, "history read failed", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"organization_id": identity.OrganizationID,
		"entries":         entries,
	})
}

// handleHealth reports overall status plus one entry per dependency.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.requestDeadline())
	defer cancel()

	status := map[string]interface{}{
		"status":  "healthy",
		"service": "ai-ml",
	}
	healthy := true

	if s.redis != nil {
		if err := s.redis.Ping(ctx); err != nil {
			status["redis"] = "disconnected"
			healthy = false
		} else {
			status["redis"] = "connected"
		}
	}

	if s.postgres != nil {
		if err := s.postgres.Ping(ctx); err != nil {
			status["database"] = "disconnected"
			healthy = false
		} else {
			status["database"] = "connected"
		}
	}

	gemini := s.pipeline.HealthCheck(ctx)
	status["gemini"] = gemini
	if gemini != "healthy" {
		healthy = false
	}

	code := http.StatusOK
	if !healthy {
		status["status"] = "unhealthy"
		code = http.StatusServiceUnavailable
	}
	s.writeJSON(w, code, status)
}

// recordHistory logs the processed query best effort; a storage failure never
// affects the response already produced.
func (s *Server) recordHistory(ctx context.Context, operation, query string, identity nlp.Identity, resp *nlp.StructuredResponse) {
	if s.history == nil {
		return
	}

	entry := history.Entry{
		Operation:      operation,
		OrganizationID: identity.OrganizationID,
		UserID:         identity.UserID,
		Query:          query,
		Confidence:     resp.Confidence(),
		Provenance:     string(resp.Provenance),
	}
	if err := s.history.Record(ctx, entry); err != nil {
		s.logger.WithError(err).Warn("failed to record query history", map[string]interface{}{
			"operation": operation,
		})
	}
}

func (s *Server) writeInvalidRequest(w http.ResponseWriter, details string) {
	stdErr := apperrors.NewInvalidRequestError(details)
	s.writeJSON(w, http.StatusBadRequest, map[string]interface{}{
		"error":   stdErr.Message,
		"code":    stdErr.Code,
		"details": stdErr.Details,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.WithError(err).Error("failed to encode response", nil)
	}
}
