package web

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	"trailcal/internal/config"
	appLog "trailcal/internal/log"
)

// Snapshot is one compiled output tree plus the facts /status reports.
type Snapshot struct {
	Files       map[string][]byte
	CompiledAt  time.Time
	WindowStart string
	WindowEnd   string
	Dropped     []string
}

// RecompileFunc rebuilds the tree and publishes it to the server.
type RecompileFunc func(ctx context.Context) error

// Server serves the most recently published output tree from memory under
// cfg.APIPrefix, alongside /health, /status and POST /recompile.
type Server struct {
	cfg       *config.Config
	mux       *http.ServeMux
	recompile RecompileFunc

	mu   sync.RWMutex
	snap *Snapshot
}

// NewServer constructs a new Server. recompile may be nil, in which case
// POST /recompile answers 404.
func NewServer(cfg *config.Config, recompile RecompileFunc) *Server {
	s := &Server{
		cfg:       cfg,
		mux:       http.NewServeMux(),
		recompile: recompile,
	}
	s.registerRoutes()
	return s
}

// Publish atomically swaps in a new snapshot. Requests already in flight
// finish against the snapshot they started with.
func (s *Server) Publish(snap *Snapshot) {
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
	appLog.Info("snapshot published", "files", len(snap.Files), "window_start", snap.WindowStart)
}

func (s *Server) snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// An empty username or password disables auth.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="trailcal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// ListenAndServe serves on cfg.Listen until ctx is canceled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen, "prefix", s.cfg.APIPrefix)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	appLog.Info("HTTP server stopped")
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/status", s.handleStatus)
	s.mux.HandleFunc("/recompile", s.handleRecompile)

	prefix := strings.TrimSuffix(s.cfg.APIPrefix, "/")
	s.mux.Handle(prefix+"/", http.StripPrefix(prefix, http.HandlerFunc(s.handleFile)))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// statusResponse is the JSON response shape for /status.
type statusResponse struct {
	Ready       bool      `json:"ready"`
	CompiledAt  time.Time `json:"compiled_at,omitzero"`
	WindowStart string    `json:"window_start,omitempty"`
	WindowEnd   string    `json:"window_end,omitempty"`
	Files       int       `json:"files"`
	Dropped     []string  `json:"dropped,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	snap := s.snapshot()
	if snap == nil {
		writeJSON(w, http.StatusServiceUnavailable, statusResponse{})
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{
		Ready:       true,
		CompiledAt:  snap.CompiledAt,
		WindowStart: snap.WindowStart,
		WindowEnd:   snap.WindowEnd,
		Files:       len(snap.Files),
		Dropped:     snap.Dropped,
	})
}

// handleRecompile triggers an immediate rebuild.
//
// POST /recompile
func (s *Server) handleRecompile(w http.ResponseWriter, r *http.Request) {
	if s.recompile == nil {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if err := s.recompile(r.Context()); err != nil {
		appLog.Error("recompile request failed", err)
		writeError(w, http.StatusInternalServerError, "recompile failed")
		return
	}
	s.handleStatus(w, r)
}

// handleFile serves one compiled file. The path has already had the API
// prefix stripped, e.g. "/weeks/2026-02-sunday.json".
func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	snap := s.snapshot()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "not compiled yet")
		return
	}

	name := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
	data, ok := snap.Files[name]
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	w.Header().Set("Content-Type", contentType(name))
	w.Header().Set("Cache-Control", "public, max-age=300")
	http.ServeContent(w, r, name, snap.CompiledAt, bytes.NewReader(data))
}

func contentType(name string) string {
	switch path.Ext(name) {
	case ".json":
		return "application/vnd.api+json"
	case ".ics":
		return "text/calendar; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
