// Package httpd exposes the engine over HTTP: the account routes, a
// Prometheus metrics route, and a health probe. It owns status-code
// mapping and nothing else; all behavior lives in the engine.
package httpd

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/halcyondev/authgate"
)

// Config tunes the HTTP surface.
type Config struct {
	// RetryAfter is the value of the Retry-After header on throttled
	// responses, in seconds. Zero means 60.
	RetryAfter int

	// ReadBodyLimit caps request body size in bytes. Zero means 64 KiB.
	ReadBodyLimit int64
}

// Server mounts the account routes over an [authgate.Engine]. Construct
// with [NewServer]; the zero value is not usable.
type Server struct {
	cfg     Config
	engine  *authgate.Engine
	log     *slog.Logger
	metrics http.Handler
	ping    func(ctx context.Context) error
	mux     *http.ServeMux
}

// Option customizes a Server.
type Option func(*Server)

// WithLogger sets the request logger. Defaults to slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.log = logger }
}

// WithMetricsHandler mounts handler on GET /metrics.
func WithMetricsHandler(handler http.Handler) Option {
	return func(s *Server) { s.metrics = handler }
}

// WithPinger sets the dependency probe behind GET /healthz. Without
// one the probe only confirms the process is serving.
func WithPinger(ping func(ctx context.Context) error) Option {
	return func(s *Server) { s.ping = ping }
}

// NewServer builds a Server over engine. It does not start listening;
// callers mount [Server.Handler] on an http.Server of their own.
func NewServer(cfg Config, engine *authgate.Engine, opts ...Option) *Server {
	if cfg.RetryAfter <= 0 {
		cfg.RetryAfter = 60
	}
	if cfg.ReadBodyLimit <= 0 {
		cfg.ReadBodyLimit = 64 << 10
	}

	s := &Server{
		cfg:    cfg,
		engine: engine,
		log:    slog.Default(),
		mux:    http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mountRoutes()
	return s
}

// Handler returns the fully mounted handler, with client-IP capture
// and no-store headers applied.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Referrer-Policy", "no-referrer")

		ctx := authgate.WithClientIP(r.Context(), clientIP(r))
		s.mux.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) retryAfterValue() string {
	return strconv.Itoa(s.cfg.RetryAfter)
}

func (s *Server) logRequest(r *http.Request, status int, start time.Time) {
	s.log.Info("http request",
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"duration", time.Since(start).String(),
	)
}
