// Package web exposes the engine over a JSON HTTP API: schema summaries,
// plan execution with the preview/apply contract, and the query-history log.
package web

import (
	"log/slog"
	"net/http"

	"f0oster/schemadesk/engine"
	"f0oster/schemadesk/history"
	"f0oster/schemadesk/storage"
)

// Server handles HTTP requests for the workspace API.
type Server struct {
	engine  *engine.Engine
	remote  storage.Replicator
	history *history.BoltStore
	mux     *http.ServeMux
	addr    string
	logger  *slog.Logger
}

// NewServer creates a new API server. remote and historyStore may be nil.
func NewServer(eng *engine.Engine, remote storage.Replicator, historyStore *history.BoltStore, addr string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		engine:  eng,
		remote:  remote,
		history: historyStore,
		mux:     http.NewServeMux(),
		addr:    addr,
		logger:  logger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /api/schema", s.handleGetSchema)
	s.mux.HandleFunc("GET /api/digest", s.handleGetDigest)
	s.mux.HandleFunc("POST /api/plans", s.handleExecutePlan)
	s.mux.HandleFunc("GET /api/history", s.handleGetHistory)
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("starting api server", "addr", s.addr)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler returns the HTTP handler for use with custom servers.
func (s *Server) Handler() http.Handler {
	return s.mux
}
