package debug

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"jobctl/internal/health"
)

// RouterConfig holds the listener's dependencies.
type RouterConfig struct {
	MetricsHandler http.Handler
	Health         *health.Checker
}

// NewRouter assembles the debug routes.
func NewRouter(cfg RouterConfig) http.Handler {
	handler := NewHandler(cfg.Health)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", handler.Livez)
	mux.HandleFunc("GET /readyz", handler.Readyz)
	if cfg.MetricsHandler != nil {
		mux.Handle("GET /metrics", cfg.MetricsHandler)
	}

	var h http.Handler = mux
	h = LoggingMiddleware()(h)
	h = RecoveryMiddleware()(h)
	return h
}

// Server is the running debug listener.
type Server struct {
	httpServer *http.Server
	log        *slog.Logger
}

// Serve starts the listener on addr in the background. Listen errors are
// logged, not fatal: a busy debug port must not take the command down.
func Serve(addr string, handler http.Handler, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		log: log,
	}

	go func() {
		log.Info("Debug listener started", "addr", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("Debug listener failed", "addr", addr, "error", err)
		}
	}()
	return s
}

// Shutdown stops the listener, waiting briefly for in-flight scrapes.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.log.Warn("Debug listener shutdown error", "error", err)
	}
}
