// Package server provides the HTTP server for the gesturetube player page.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/ayusman/gesturetube/internal/log"
	"github.com/ayusman/gesturetube/internal/server/api"
	"github.com/ayusman/gesturetube/internal/store"
)

const shutdownTimeout = 5 * time.Second

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	Sessions  api.SessionController
	Hub       *Hub
	Stream    *StreamHandler
	// BaseContext bounds sessions started over HTTP. Defaults to context.Background.
	BaseContext context.Context
}

// Server represents the HTTP server for the gesturetube application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
	video  *api.VideoHandler
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	if config.BaseContext == nil {
		config.BaseContext = context.Background()
	}

	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Sessions != nil {
		sessions := api.NewSessionHandler(s.config.BaseContext, s.config.Sessions)
		s.mux.Handle("/api/session", sessions)
		s.mux.Handle("/api/session/", sessions)
	}

	if s.config.Store != nil {
		settings := api.NewSettingsHandler(s.config.Store)
		s.mux.Handle("/api/settings", settings)
		s.mux.Handle("/api/settings/", settings)
	}

	if s.config.Hub != nil {
		s.video = api.NewVideoHandler(s.config.Hub)
		s.mux.Handle("/api/video", s.video)
		s.mux.Handle("/api/events", s.config.Hub)
	}

	if s.config.Stream != nil {
		s.mux.Handle("/api/stream", s.config.Stream)
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// LoadVideo points the embedded player at rawURL. It needs a Hub.
func (s *Server) LoadVideo(rawURL string) error {
	if s.video == nil {
		return errors.New("server has no event hub")
	}
	_, err := s.video.Set(rawURL)
	return err
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.Sessions != nil {
		response["running"] = s.config.Sessions.Snapshot().CameraActive
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:     s,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
