// internal/server/server.go
package server

import (
	"context"
	"net/http"
	_ "net/http/pprof"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ai-ml-service/internal/common/config"
	"ai-ml-service/internal/common/database"
	"ai-ml-service/internal/common/logger"
	"ai-ml-service/internal/common/observability"
	"ai-ml-service/internal/history"
	"ai-ml-service/internal/nlp"
	"ai-ml-service/internal/predictions"
)

// Server is the thin HTTP boundary in front of the NLP pipeline. Routing,
// identity extraction and status mapping live here; all business behavior is
// the pipeline's.
type Server struct {
	cfg         config.ServerConfig
	pipeline    *nlp.Pipeline
	postgres    *database.PostgresClient
	redis       *database.RedisClient
	predictions *predictions.Store
	history     *history.Store
	obs         *observability.Observability
	logger      logger.Logger
	httpServer  *http.Server
}

type Options struct {
	Config      config.ServerConfig
	Pipeline    *nlp.Pipeline
	Postgres    *database.PostgresClient
	Redis       *database.RedisClient
	Predictions *predictions.Store
	History     *history.Store
	Obs         *observability.Observability
	Logger      logger.Logger
}

func New(opts Options) *Server {
	s := &Server{
		cfg:         opts.Config,
		pipeline:    opts.Pipeline,
		postgres:    opts.Postgres,
		redis:       opts.Redis,
		predictions: opts.Predictions,
		history:     opts.History,
		obs:         opts.Obs,
		logger: opts.Logger.With(map[string]interface{}{
			"component": "http-server",
		}),
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ai/query", s.withMiddleware(s.handleQuery))
	mux.HandleFunc("/ai/insights", s.withMiddleware(s.handleInsights))
	mux.HandleFunc("/ai/optimize", s.withMiddleware(s.handleOptimize))
	mux.HandleFunc("/ai/predictions", s.withMiddleware(s.handlePredictions))
	mux.HandleFunc("/ai/history", s.withMiddleware(s.handleHistory))

	s.httpServer = &http.Server{
		Addr:         opts.Config.Addr(),
		Handler:      mux,
		ReadTimeout:  config.GetDuration(opts.Config.ReadTimeout),
		WriteTimeout: config.GetDuration(opts.Config.WriteTimeout),
	}

	return s
}

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", map[string]interface{}{
		"addr": s.cfg.Addr(),
	})
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the routing table for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// requestDeadline derives the per-request deadline the pipeline invocation
// runs under.
func (s *Server) requestDeadline() time.Duration {
	d := config.GetDuration(s.cfg.RequestTimeout)
	if d <= 0 {
		d = 60 * time.Second
	}
	return d
}
