// Package server provides the HTTP API for kotae.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/pkg/utils"
	"go.uber.org/zap"
)

// Service is the pipeline the API exposes. *pipeline.Pipeline satisfies it.
type Service interface {
	IndexDocument(ctx context.Context, source string) (*models.Document, error)
	IndexText(ctx context.Context, input *models.DocumentInput) (*models.Document, error)
	AnswerQuery(ctx context.Context, query string, retrieveK, rerankK int) (*models.AskResponse, error)
	RetrieveOnly(ctx context.Context, query string, k int) ([]string, error)
	Documents(ctx context.Context, offset, limit int) ([]*models.Document, error)
	Status(ctx context.Context) (*models.Status, error)
	Clear(ctx context.Context) error
}

// WatchService manages watched directories. *watcher.Watcher satisfies it.
type WatchService interface {
	Directories() []string
	AddDirectory(path string, syncExisting bool) error
	RemoveDirectory(path string) error
}

// Server is the HTTP server for the kotae API.
type Server struct {
	svc    Service
	config *config.ServerConfig
	logger *zap.Logger
	server *http.Server

	watch         WatchService
	configPath    string
	watchConfig   *config.Config
	watchConfigMu sync.Mutex
}

// Option configures a Server.
type Option func(*Server)

// WithWatch enables the watch directory endpoints. When configPath and cfg are set, the
// directory list is written back to the config file after every change.
func WithWatch(watch WatchService, configPath string, cfg *config.Config) Option {
	return func(s *Server) {
		s.watch = watch
		s.configPath = configPath
		s.watchConfig = cfg
	}
}

// NewServer creates a server over svc.
func NewServer(svc Service, cfg *config.ServerConfig, logger *zap.Logger, opts ...Option) *Server {
	s := &Server{svc: svc, config: cfg, logger: utils.OrNop(logger)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if s.config != nil && s.config.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.config.RequestTimeout))
	}
	r.Use(middleware.Compress(5))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/documents", s.handleIndexDocument)
		r.Get("/documents", s.handleListDocuments)
		r.Post("/ask", s.handleAsk)
		r.Post("/retrieve", s.handleRetrieve)
		r.Get("/status", s.handleStatus)
		r.Delete("/index", s.handleClear)

		r.Get("/watch/directories", s.handleWatchDirectoriesList)
		r.Post("/watch/directories", s.handleWatchDirectoriesAdd)
		r.Delete("/watch/directories", s.handleWatchDirectoriesRemove)
	})
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	s.logger.Info("starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
