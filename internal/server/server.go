// Package server wires the gateway HTTP surface: the middleware chain,
// admission control per route, and the document routes themselves.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/docsense/gateway/internal/domain"
	"github.com/docsense/gateway/internal/frontdoor/docs"
	"github.com/docsense/gateway/internal/ratelimit"
)

// Options configures the server beyond its collaborators.
type Options struct {
	Port           int
	UploadMaxBytes int64
}

type Server struct {
	Router *chi.Mux
	Port   int
	logger *slog.Logger
	http   *http.Server
}

// New builds the router. Middleware order matters: request ID and logging
// wrap everything, panic recovery runs inside them so panics are logged with
// a request ID, and admission control runs per route before any body is read.
func New(opts Options, logger *slog.Logger, limits *ratelimit.Registry, handler *docs.Handler, metrics prometheus.Gatherer) *Server {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))
	r.Use(RecovererMiddleware(logger))

	// Wrap with OpenTelemetry HTTP instrumentation
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "doc-gateway")
	})

	r.With(
		AdmitMiddleware(limits, domain.RouteProcessDocument),
		BodyLimitMiddleware(opts.UploadMaxBytes),
	).Post("/upload", handler.HandleUpload)

	r.With(AdmitMiddleware(limits, domain.RouteAsk)).Post("/ask", handler.HandleAsk)
	r.With(AdmitMiddleware(limits, domain.RouteSummarize)).Post("/summarize", handler.HandleSummarize)
	r.With(AdmitMiddleware(limits, domain.RouteCompare)).Post("/compare", handler.HandleCompare)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metrics, promhttp.HandlerOpts{}))
	}

	return &Server{
		Router: r,
		Port:   opts.Port,
		logger: logger,
	}
}

func (s *Server) Start() error {
	s.logger.Info("starting server", slog.Int("port", s.Port))
	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.Port),
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
