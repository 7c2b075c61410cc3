package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/olgasafonova/igdb-mcp-server/internal/auth"
	"github.com/olgasafonova/igdb-mcp-server/internal/igdb"
	"github.com/olgasafonova/igdb-mcp-server/metrics"
)

// DefaultMaxBodySize caps MCP request bodies in HTTP mode
const DefaultMaxBodySize = 1 << 20

const shutdownTimeout = 10 * time.Second

// SecurityConfig configures the HTTP security middleware
type SecurityConfig struct {
	MaxBodySize int64 // bytes; zero disables the cap
}

// SecurityMiddleware caps request bodies and sets security response headers.
type SecurityMiddleware struct {
	next   http.Handler
	logger *slog.Logger
	config SecurityConfig
}

// NewSecurityMiddleware wraps next with the security checks in config.
func NewSecurityMiddleware(next http.Handler, logger *slog.Logger, config SecurityConfig) *SecurityMiddleware {
	return &SecurityMiddleware{next: next, logger: logger, config: config}
}

func (s *SecurityMiddleware) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Cache-Control", "no-store")

	if s.config.MaxBodySize > 0 {
		if r.ContentLength > s.config.MaxBodySize {
			s.logger.Warn("Request body too large",
				"remote_addr", r.RemoteAddr,
				"content_length", r.ContentLength,
				"max", s.config.MaxBodySize)
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxBodySize)
	}

	s.next.ServeHTTP(w, r)
}

// newRouter mounts the MCP endpoint next to metrics and health checks.
func newRouter(server *mcp.Server, client *igdb.Client, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
		return NewSecurityMiddleware(next, logger, SecurityConfig{MaxBodySize: DefaultMaxBodySize})
	})

	mcpHandler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, nil)

	r.Handle("/mcp", mcpHandler)
	r.Handle("/metrics", metrics.Handler())
	r.Get("/health", healthHandler(client))
	return r
}

// healthResponse is the /health body
type healthResponse struct {
	Status  string      `json:"status"`
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Token   auth.Status `json:"token"`
}

// healthHandler reports liveness plus the credential cache state. A missing
// or expired token is not unhealthy; the next tool call refreshes it.
func healthHandler(client *igdb.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(healthResponse{
			Status:  "ok",
			Name:    ServerName,
			Version: ServerVersion,
			Token:   client.Tokens().Status(),
		})
	}
}

// serveHTTP serves the router on addr until ctx is done, then shuts down gracefully.
func serveHTTP(ctx context.Context, addr string, server *mcp.Server, client *igdb.Client, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           newRouter(server, client, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Listening for MCP over HTTP", "addr", addr, "endpoint", "/mcp")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("HTTP server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
