// Package server provides the HTTP API for the résumé assistant.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hyperjump/resumechat/internal/config"
	"github.com/hyperjump/resumechat/internal/models"
	"github.com/hyperjump/resumechat/internal/retrieval"
	"github.com/hyperjump/resumechat/internal/storage"
)

// ChatService answers a chat message.
type ChatService interface {
	Answer(ctx context.Context, question string) (*models.ChatResponse, error)
}

// IndexService exposes the loaded index for inspection endpoints.
type IndexService interface {
	RetrieveScored(ctx context.Context, question string, topK int) ([]models.ScoredChunk, error)
	Stats() retrieval.Stats
	EmbedderName() string
}

// Server is the HTTP server for the chat API and the frontend.
type Server struct {
	chat    ChatService
	index   IndexService
	catalog storage.Catalog // optional
	config  *config.Config
	logger  *zap.Logger
	server  *http.Server
}

// NewServer creates a server with the given dependencies. catalog may be nil.
func NewServer(
	chat ChatService,
	index IndexService,
	catalog storage.Catalog,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		chat:    chat,
		index:   index,
		catalog: catalog,
		config:  cfg,
		logger:  logger,
	}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))

	r.Post("/chat", s.handleChat)
	r.Get("/health", s.handleHealth)
	r.Get("/resume/*", s.handleResume)
	r.Post("/api/v1/retrieve", s.handleRetrieve)
	r.Get("/api/v1/status", s.handleStatus)
	r.NotFound(s.handleStatic)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := s.config.Server.Addr()
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
