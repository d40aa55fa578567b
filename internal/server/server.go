// Package server exposes the project, analysis, and asset operations over
// HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"descant/internal/analysis"
	"descant/internal/assets"
	"descant/internal/config"
	"descant/internal/logging"
	"descant/internal/notifications"
	"descant/internal/store"
)

// Server is the HTTP API front end.
type Server struct {
	bind       string
	logger     *slog.Logger
	store      *store.Store
	storage    *assets.Storage
	analyzer   *analysis.Analyzer
	notifier   notifications.Service
	maxUpload  int64
	corsOrigin map[string]struct{}
	corsAny    bool

	listener net.Listener
	server   *http.Server
}

// New builds the API server from its collaborators.
func New(cfg *config.Config, st *store.Store, storage *assets.Storage, analyzer *analysis.Analyzer, notifier notifications.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	srv := &Server{
		bind:       strings.TrimSpace(cfg.Paths.APIBind),
		logger:     logging.WithComponent(logger, "api-server"),
		store:      st,
		storage:    storage,
		analyzer:   analyzer,
		notifier:   notifier,
		maxUpload:  cfg.MaxUploadBytes(),
		corsOrigin: make(map[string]struct{}),
	}
	for _, origin := range cfg.Server.CORSOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			srv.corsAny = true
			continue
		}
		if origin != "" {
			srv.corsOrigin[origin] = struct{}{}
		}
	}

	srv.server = &http.Server{
		Handler:           srv.withCORS(srv.routes()),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Minute,
		WriteTimeout:      15 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/upload", s.handleUpload)
	mux.HandleFunc("/api/analyze/", s.handleAnalyze)
	mux.HandleFunc("/api/projects", s.handleProjects)
	mux.HandleFunc("/api/projects/", s.handleProjectSubtree)
	mux.HandleFunc("/api/scenes/", s.handleScene)
	mux.HandleFunc("/api/thumbnail/", s.handleAsset("thumbnail", "image/jpeg"))
	mux.HandleFunc("/api/audio/", s.handleAsset("audio", "audio/mpeg"))
	mux.HandleFunc("/api/export/", s.handleExport)
	return mux
}

// Handler returns the fully wired handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start begins serving on the configured bind address. The server shuts
// down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if s.bind == "" {
		return errors.New("server: bind address is required")
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("server: listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Stop shuts the server down outside of context cancellation.
func (s *Server) Stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// Addr returns the bound listen address once Start has succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			allowed := s.corsAny
			if !allowed {
				_, allowed = s.corsOrigin[origin]
			}
			if allowed {
				value := origin
				if s.corsAny {
					value = "*"
				}
				w.Header().Set("Access-Control-Allow-Origin", value)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			}
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
