// Package server exposes the analysis engine and the document store over
// HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/raaihank/doc-sentinel/internal/analysis"
	"github.com/raaihank/doc-sentinel/internal/config"
	"github.com/raaihank/doc-sentinel/internal/logger"
	"github.com/raaihank/doc-sentinel/internal/risk"
	"github.com/raaihank/doc-sentinel/internal/rules"
	"github.com/raaihank/doc-sentinel/internal/store"
	"github.com/raaihank/doc-sentinel/internal/websocket"
	"go.uber.org/zap"
)

// Version is reported by /info.
const Version = "0.1.0"

// DocumentStore persists analyses. *store.Store implements it.
type DocumentStore interface {
	SaveAnalysis(ctx context.Context, req store.SaveRequest) (*store.SaveResult, error)
	GetAnalysis(ctx context.Context, id int64) (*store.Analysis, error)
	ListDocuments(ctx context.Context, opts store.ListOptions) ([]store.DocumentSummary, error)
	Statistics(ctx context.Context, ownerUserID int64) (*store.Statistics, error)
	UpdateStatus(ctx context.Context, id int64, status risk.Status) error
}

// ReportCache caches reports by text. *cache.ReportCache implements it.
type ReportCache interface {
	Get(ctx context.Context, text string) (*analysis.Report, bool)
	Put(ctx context.Context, text string, report *analysis.Report) error
}

// Deps are the collaborators of a Server. Only Engine and Table are
// required.
type Deps struct {
	Engine *analysis.Engine
	Table  *rules.Table
	Store  DocumentStore
	Cache  ReportCache
	Hub    *websocket.Hub
}

// Server represents the HTTP API server
type Server struct {
	config  *config.Config
	logger  *logger.Logger
	deps    Deps
	limiter *RateLimiter
	router  *mux.Router
	server  *http.Server

	started  time.Time
	analyses atomic.Int64
}

// New creates a new API server instance
func New(cfg *config.Config, log *logger.Logger, deps Deps) (*Server, error) {
	if deps.Engine == nil || deps.Table == nil {
		return nil, errors.New("engine and rule table are required")
	}

	s := &Server{
		config:  cfg,
		logger:  log.WithComponent("server"),
		deps:    deps,
		router:  mux.NewRouter(),
		started: time.Now(),
	}
	if cfg.RateLimit.Enabled {
		s.limiter = NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/info", s.handleInfo).Methods(http.MethodGet)

	if s.deps.Hub != nil && s.config.WebSocket.Enabled {
		s.router.HandleFunc(s.config.WebSocket.Path, s.deps.Hub.HandleWebSocket).Methods(http.MethodGet)
	}

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.Use(s.loggingMiddleware)
	api.Use(s.rateLimitMiddleware)

	api.HandleFunc("/rules", s.handleRules).Methods(http.MethodGet)
	api.HandleFunc("/detect", s.handleDetect).Methods(http.MethodPost)
	api.HandleFunc("/classify", s.handleClassify).Methods(http.MethodPost)
	api.HandleFunc("/documents", s.handleListDocuments).Methods(http.MethodGet)
	api.HandleFunc("/documents/{id:[0-9]+}", s.handleGetDocument).Methods(http.MethodGet)
	api.HandleFunc("/documents/{id:[0-9]+}/status", s.handleUpdateStatus).Methods(http.MethodPatch)
	api.HandleFunc("/statistics", s.handleStatistics).Methods(http.MethodGet)

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
}

// Handler returns the root handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	s.logger.Info("Starting doc-sentinel API server",
		zap.Int("port", s.config.Server.Port),
		zap.Bool("store", s.deps.Store != nil),
		zap.Bool("cache", s.deps.Cache != nil),
		zap.Bool("websocket", s.deps.Hub != nil && s.config.WebSocket.Enabled),
	)

	if s.limiter != nil {
		s.limiter.StartCleanupRoutine()
	}

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping doc-sentinel API server")
	if s.limiter != nil {
		s.limiter.Stop()
	}
	return s.server.Shutdown(ctx)
}

// Analyses returns how many documents were analyzed since start.
func (s *Server) Analyses() int64 {
	return s.analyses.Load()
}

// SystemStatus builds the periodic status event payload.
func (s *Server) SystemStatus() websocket.SystemStatusEvent {
	clients := 0
	if s.deps.Hub != nil {
		clients = int(s.deps.Hub.Stats().ActiveConnections)
	}
	return websocket.SystemStatusEvent{
		Status:           "healthy",
		Uptime:           time.Since(s.started).Round(time.Second).String(),
		TotalAnalyses:    s.analyses.Load(),
		ActiveRules:      len(s.deps.Table.Rules()),
		ConnectedClients: clients,
	}
}
