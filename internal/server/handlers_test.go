// internal/server/handlers_test.go
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-ml-service/internal/common/config"
	"ai-ml-service/internal/common/logger"
	"ai-ml-service/internal/gemini"
	"ai-ml-service/internal/history"
	"ai-ml-service/internal/nlp"
	"ai-ml-service/internal/predictions"
)

// stubGenerator returns a fixed result for every prompt.
type stubGenerator struct {
	result gemini.Result
}

func (s *stubGenerator) Generate(context.Context, string) gemini.Result {
	return s.result
}

func newTestServer(t *testing.T, gen gemini.Generator, opts ...func(*Options)) *Server {
	t.Helper()

	log := logger.NewNoOpLogger()
	options := Options{
		Config: config.ServerConfig{
			Host:           "127.0.0.1",
			Port:           0,
			RequestTimeout: 5000,
		},
		Pipeline: nlp.NewPipeline(gen, log),
		Logger:   log,
	}
	for _, opt := range opts {
		opt(&options)
	}
	return New(options)
}

func doRequest(srv *Server, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, path, &buf)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// ==========================
// /ai/query
// ==========================

func TestHandleQuery_Success(t *testing.T) {
	srv := newTestServer(t, &stubGenerator{result: gemini.Result{
		Text:      "```json\n{\"interpretation\": \"Top products\", \"confidence\": 0.92}\n```",
		Available: true,
	}})

	rec := doRequest(srv, http.MethodPost, "/ai/query",
		map[string]interface{}{"query": "show top products"},
		map[string]string{
			"X-Organization-ID": "org-1",
			"X-User-ID":         "user-1",
		})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	body := decodeBody(t, rec)
	assert.Equal(t, "Top products", body["interpretation"])
	assert.Equal(t, 0.92, body["confidence"])
	assert.Equal(t, "org-1", body["organization_id"])
	assert.Equal(t, "user-1", body["user_id"])
	assert.Equal(t, "show top products", body["original_query"])
}

func TestHandleQuery_MissingQuery(t *testing.T) {
	srv := newTestServer(t, &stubGenerator{})

	rec := doRequest(srv, http.MethodPost, "/ai/query", map[string]interface{}{}, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "INVALID_REQUEST", body["code"])
}

func TestHandleQuery_MalformedBody(t *testing.T) {
	srv := newTestServer(t, &stubGenerator{})

	req := httptest.NewRequest(http.MethodPost, "/ai/query", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleQuery_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, &stubGenerator{})

	rec := doRequest(srv, http.MethodGet, "/ai/query", nil, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleQuery_BackendUnavailableStill200(t *testing.T) {
	srv := newTestServer(t, &stubGenerator{result: gemini.Result{}})

	rec := doRequest(srv, http.MethodPost, "/ai/query",
		map[string]interface{}{"query": "q"}, nil)

	// Backend failures degrade the payload, never the HTTP status.
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Gemini service unavailable", body["error"])
	assert.Equal(t, 0.0, body["confidence"])
}

// ==========================
// /ai/insights
// ==========================

func TestHandleInsights_TextFallback(t *testing.T) {
	srv := newTestServer(t, &stubGenerator{result: gemini.Result{
		Text:      "Revenue is trending up",
		Available: true,
	}})

	rec := doRequest(srv, http.MethodPost, "/ai/insights",
		map[string]interface{}{"data_summary": map[string]interface{}{"revenue": 1}}, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, []interface{}{"Revenue is trending up"}, body["key_insights"])
	assert.Equal(t, 0.7, body["confidence"])
	assert.Equal(t, "Fallback text response", body["note"])
}

func TestHandleInsights_MissingSummary(t *testing.T) {
	srv := newTestServer(t, &stubGenerator{})

	rec := doRequest(srv, http.MethodPost, "/ai/insights", map[string]interface{}{}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ==========================
// /ai/optimize
// ==========================

func TestHandleOptimize_Success(t *testing.T) {
	srv := newTestServer(t, &stubGenerator{result: gemini.Result{
		Text:      `{"optimized_query": "SELECT id FROM orders", "confidence": 0.9}`,
		Available: true,
	}})

	rec := doRequest(srv, http.MethodPost, "/ai/optimize",
		map[string]interface{}{"sql_query": "SELECT * FROM orders"}, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "SELECT id FROM orders", body["optimized_query"])
}

func TestHandleOptimize_MissingSQL(t *testing.T) {
	srv := newTestServer(t, &stubGenerator{})

	rec := doRequest(srv, http.MethodPost, "/ai/optimize", map[string]interface{}{}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ==========================
// /ai/predictions
// ==========================

func newPredictionsStore(t *testing.T) *predictions.Store {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return predictions.NewStore(client, time.Hour, logger.NewNoOpLogger())
}

func TestHandlePredictions_RoundTrip(t *testing.T) {
	store := newPredictionsStore(t)
	srv := newTestServer(t, &stubGenerator{}, func(o *Options) {
		o.Predictions = store
	})

	headers := map[string]string{
		"X-Organization-ID": "org-1",
		"X-User-ID":         "user-1",
	}

	rec := doRequest(srv, http.MethodPost, "/ai/predictions?model_type=churn",
		map[string]interface{}{"score": 0.42}, headers)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(srv, http.MethodGet, "/ai/predictions?model_type=churn", nil, headers)
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, 0.42, body["score"])
}

func TestHandlePredictions_Miss(t *testing.T) {
	srv := newTestServer(t, &stubGenerator{}, func(o *Options) {
		o.Predictions = newPredictionsStore(t)
	})

	rec := doRequest(srv, http.MethodGet, "/ai/predictions?model_type=churn", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlePredictions_MissingModelType(t *testing.T) {
	srv := newTestServer(t, &stubGenerator{}, func(o *Options) {
		o.Predictions = newPredictionsStore(t)
	})

	rec := doRequest(srv, http.MethodGet, "/ai/predictions", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ==========================
// /ai/history
// ==========================

func TestHandleHistory_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mock.ExpectQuery("SELECT (.+) FROM query_history").
		WithArgs("org-1", 50).
		WillReturnRows(sqlmock.NewRows([]string{
			"operation", "organization_id", "user_id", "query", "confidence", "provenance", "created_at",
		}).AddRow("interpret_query", "org-1", "user-1", "q", 0.92, "validated", time.Now()))

	srv := newTestServer(t, &stubGenerator{}, func(o *Options) {
		o.History = history.NewStore(db, logger.NewNoOpLogger())
	})

	rec := doRequest(srv, http.MethodGet, "/ai/history", nil, map[string]string{
		"X-Organization-ID": "org-1",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "org-1", body["organization_id"])
	entries, ok := body["entries"].([]interface{})
	require.True(t, ok)
	assert.Len(t, entries, 1)
}

func TestHandleHistory_MissingOrganization(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	srv := newTestServer(t, &stubGenerator{}, func(o *Options) {
		o.History = history.NewStore(db, logger.NewNoOpLogger())
	})

	rec := doRequest(srv, http.MethodGet, "/ai/history", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ==========================
// /health
// ==========================

func TestHandleHealth_Healthy(t *testing.T) {
	srv := newTestServer(t, &stubGenerator{result: gemini.Result{
		Text:      "OK",
		Available: true,
	}})

	rec := doRequest(srv, http.MethodGet, "/health", nil, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "ai-ml", body["service"])
	assert.Equal(t, "healthy", body["gemini"])
}

func TestHandleHealth_GeminiDown(t *testing.T) {
	srv := newTestServer(t, &stubGenerator{result: gemini.Result{}})

	rec := doRequest(srv, http.MethodGet, "/health", nil, nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "unhealthy", body["status"])
	assert.Equal(t, "unhealthy", body["gemini"])
}
