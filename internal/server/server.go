// Package server provides the HTTP API for the embedding pipeline.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/nysgpt/billembed/internal/config"
	"github.com/nysgpt/billembed/internal/models"
	"go.uber.org/zap"
)

// BillEmbedder embeds one bill. Implemented by indexer.Indexer.
type BillEmbedder interface {
	EmbedBill(ctx context.Context, billNumber string, sessionYear int) (*models.EmbedResult, error)
}

// BatchRunner processes one page of bills. Implemented by pipeline.Batch.
type BatchRunner interface {
	Run(ctx context.Context, req models.EmbedBatchRequest) (*models.BatchResult, error)
}

// StatusSource reports session progress. Implemented by pipeline.StatusReporter.
type StatusSource interface {
	Report(ctx context.Context, sessionYear int) (*models.StatusResult, error)
}

// Searcher runs chunk search. Implemented by search.Engine.
type Searcher interface {
	Search(ctx context.Context, req *models.SearchRequest) (*models.SearchResponse, error)
}

// Services are the pipeline operations behind each action. A nil service makes its action
// fail with Unavailable (or a generic ErrConfig when Unavailable is nil).
type Services struct {
	Embedder    BillEmbedder
	Batch       BatchRunner
	Status      StatusSource
	Search      Searcher
	Unavailable error
}

// maxBodyBytes bounds an invocation payload.
const maxBodyBytes = 1 << 20

// Server is the HTTP server for the pipeline API.
type Server struct {
	services Services
	config   *config.ServerConfig
	logger   *zap.Logger
	router   chi.Router
	server   *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(services Services, cfg *config.ServerConfig, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		services: services,
		config:   cfg,
		logger:   logger,
	}
	s.router = s.routes()
	s.server = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/", s.handleInvoke)
	r.Post("/api/v1/embed", s.handleInvoke)
	r.Get("/health", s.handleHealth)
	return r
}

// Handler returns the HTTP handler with all routes mounted.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until it stops. After Stop it returns
// http.ErrServerClosed.
func (s *Server) Start() error {
	s.logger.Info("Starting server", zap.String("addr", s.server.Addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server. It is safe to call before or during Start.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
