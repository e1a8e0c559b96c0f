package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/mark3labs/mcp-go/server"

	"github.com/codex7/codex7"
	v1 "github.com/codex7/codex7/infrastructure/api/v1"
	"github.com/codex7/codex7/internal/config"
	mcpinternal "github.com/codex7/codex7/internal/mcp"
)

// APIServer provides an HTTP API backed by a codex7 Client.
type APIServer struct {
	client  *codex7.Client
	version string
	server  *Server
	router  chi.Router
	logger  *slog.Logger
}

// NewAPIServer creates a new APIServer wired to the given codex7 Client.
func NewAPIServer(client *codex7.Client, version string) *APIServer {
	return &APIServer{
		client:  client,
		version: version,
		logger:  client.Logger(),
	}
}

// mountRoutes wires the health check, v1 API routes, and the MCP streamable
// endpoint on the given router.
func (a *APIServer) mountRoutes(router chi.Router) {
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	searchRouter := v1.NewSearchRouter(a.client)
	librariesRouter := v1.NewLibrariesRouter(a.client)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(config.DefaultRequestTimeout))

		r.Mount("/search", searchRouter.Routes())
		r.Mount("/libraries", librariesRouter.Routes())
	})

	// MCP endpoint — no timeout middleware. MCP uses streaming responses
	// and manages session state via response headers, which is incompatible
	// with chi's Timeout middleware wrapping the ResponseWriter.
	mcpSrv := mcpinternal.NewServer(a.client.Resolver, a.client.Retrieval, a.version, a.logger)
	router.Mount("/mcp", server.NewStreamableHTTPServer(mcpSrv.MCPServer()))
}

// ListenAndServe starts the HTTP server on the given address.
func (a *APIServer) ListenAndServe(addr string) error {
	srv := NewServer(addr, a.logger)
	a.server = &srv

	a.mountRoutes(srv.Router())

	return srv.Start()
}

// Shutdown gracefully shuts down the server.
func (a *APIServer) Shutdown(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	return a.server.Shutdown(ctx)
}

// Handler returns the routes as an http.Handler for use with custom servers.
func (a *APIServer) Handler() http.Handler {
	if a.router == nil {
		a.router = chi.NewRouter()
		a.mountRoutes(a.router)
	}
	return a.router
}

// WaitForShutdown blocks until the context is done, then shuts the server
// down with a drain deadline.
func (a *APIServer) WaitForShutdown(ctx context.Context, drain time.Duration) error {
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), drain)
	defer cancel()
	return a.Shutdown(shutdownCtx)
}
