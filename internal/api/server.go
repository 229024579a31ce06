// Package api provides the REST API server for trackr.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/randalmurphal/trackr/internal/db"
	"github.com/randalmurphal/trackr/internal/importer"
)

// Server is the trackr HTTP API.
type Server struct {
	addr     string
	mux      *http.ServeMux
	logger   *slog.Logger
	store    *db.DB
	importer *importer.Service
}

// Config configures the API server.
type Config struct {
	Addr   string
	Logger *slog.Logger
	// DB is the task store. Required.
	DB *db.DB
	// Importer runs roadmap imports and syncs. Required.
	Importer *importer.Service
}

// New creates a server and registers its routes.
func New(cfg *Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	addr := cfg.Addr
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		addr:     addr,
		mux:      http.NewServeMux(),
		logger:   logger,
		store:    cfg.DB,
		importer: cfg.Importer,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	h := func(pattern string, fn http.HandlerFunc) {
		s.mux.HandleFunc(pattern, CORS(fn))
	}

	h("GET /api/health", s.handleHealth)

	// Projects
	h("GET /api/projects", s.handleListProjects)
	h("POST /api/projects", s.handleCreateProject)
	h("GET /api/projects/{id}", s.handleGetProject)
	h("PUT /api/projects/{id}", s.handleUpdateProject)
	h("DELETE /api/projects/{id}", s.handleDeleteProject)
	h("GET /api/projects/{id}/detect-roadmap", s.handleDetectRoadmap)

	// Tasks
	h("GET /api/tasks", s.handleListTasks)
	h("POST /api/tasks", s.handleCreateTask)
	h("PUT /api/tasks/{id}", s.handleUpdateTask)
	h("DELETE /api/tasks/{id}", s.handleDeleteTask)

	// Roadmap pipeline
	h("POST /api/tasks/import-roadmap", s.handleImportRoadmap)
	h("POST /api/tasks/sync-roadmap", s.handleSyncRoadmap)
	h("POST /api/tasks/smart-sync", s.handleSmartSync)

	// Completion
	h("POST /api/ai/generate-roadmap", s.handleGenerateRoadmap)
	h("GET /api/ai/template", s.handleGetTemplate)

	// Kanban
	h("GET /api/kanban/board", s.handleGetBoard)
	h("POST /api/kanban/columns", s.handleCreateColumn)
	h("PUT /api/kanban/columns/{id}", s.handleUpdateColumn)
	h("DELETE /api/kanban/columns/{id}", s.handleDeleteColumn)

	// Preflight for every API path
	h("OPTIONS /api/", func(w http.ResponseWriter, r *http.Request) {})
}

// Handler returns the routed handler wrapped with request logging.
func (s *Server) Handler() http.Handler {
	return RequestLogger(s.logger, s.mux)
}

// Start starts the API server.
func (s *Server) Start() error {
	return s.StartContext(context.Background())
}

// StartContext starts the API server and shuts it down when ctx is done.
// If the configured port is busy the next free one is used.
func (s *Server) StartContext(ctx context.Context) error {
	host, port, err := parseAddr(s.addr)
	if err != nil {
		return err
	}
	ln, port, err := findAvailablePort(host, port, 10)
	if err != nil {
		return err
	}

	server := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("server shutdown", "error", err)
		}
	}()

	s.logger.Info("starting API server", "addr", net.JoinHostPort(host, strconv.Itoa(port)))
	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if err := s.store.Ping(r.Context()); err != nil {
		s.logger.Warn("health check: database unreachable", "error", err)
		status = "degraded"
	}
	JSONResponse(w, map[string]string{"status": status, "database": string(s.store.Dialect())})
}

// parseAddr splits host:port. The host may be empty.
func parseAddr(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port in %q: %w", addr, err)
	}
	return host, port, nil
}

// findAvailablePort listens on the first free port starting at basePort.
func findAvailablePort(host string, basePort, maxAttempts int) (net.Listener, int, error) {
	for i := 0; i < maxAttempts; i++ {
		port := basePort + i
		ln, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
		if err == nil {
			return ln, port, nil
		}
	}
	return nil, 0, fmt.Errorf("no available port in range %d-%d", basePort, basePort+maxAttempts-1)
}
