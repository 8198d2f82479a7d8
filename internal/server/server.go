// Package server exposes the resolver over HTTP: resolution, alias
// administration, stats and health, plus prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pathmend/pathmend/internal/router"
	"github.com/pathmend/pathmend/internal/urltoken"
)

// Config configures the HTTP server.
type Config struct {
	Host        string
	Port        int
	CORSOrigins []string
}

// Server hosts the resolver API.
type Server struct {
	resolver *router.Router
	logger   *slog.Logger
	http     *http.Server
}

// New builds the server around an already-wired resolver.
func New(cfg Config, resolver *router.Router, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{resolver: resolver, logger: logger}

	s.http = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           s.routes(cfg),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) routes(cfg Config) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "DELETE"},
			AllowedHeaders: []string{"Content-Type", "X-Agent-Type"},
		}))
	}

	r.Get("/resolve", s.handleResolve)
	r.Get("/aliases", s.handleListAliases)
	r.Post("/aliases", s.handleAddAlias)
	r.Delete("/aliases", s.handleRemoveAlias)
	r.Get("/stats", s.handleStats)
	r.Get("/healthz", s.handleHealth)

	reg := prometheus.NewRegistry()
	reg.MustRegister(NewCollector(s.resolver.Metrics()))
	r.Method("GET", "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	return r
}

// ListenAndServe runs the server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.http.Addr)
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Handler exposes the routed handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// handleResolve answers GET /resolve?path=/products/phone. The agent tag
// comes from the X-Agent-Type header or the agent query parameter.
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, http.StatusBadRequest, "path query parameter is required")
		return
	}

	agent := r.Header.Get("X-Agent-Type")
	if agent == "" {
		agent = r.URL.Query().Get("agent")
	}

	decision := s.resolver.Resolve(r.Context(), path, agent)

	status := http.StatusOK
	if decision.NotFound != nil {
		status = http.StatusNotFound
	}
	writeJSON(w, status, decision)
}

type aliasRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (s *Server) handleAddAlias(w http.ResponseWriter, r *http.Request) {
	var req aliasRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.From == "" || req.To == "" {
		writeError(w, http.StatusBadRequest, "both from and to are required")
		return
	}
	if !s.resolver.Index().Contains(urltoken.NormalizePath(req.To)) {
		writeError(w, http.StatusUnprocessableEntity, "alias target is not a known route")
		return
	}

	s.resolver.AddAlias(req.From, req.To)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveAlias(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	if from == "" {
		writeError(w, http.StatusBadRequest, "from query parameter is required")
		return
	}
	s.resolver.RemoveAlias(from)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListAliases(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.resolver.Aliases())
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.resolver.Metrics().Snapshot())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"routes": s.resolver.Index().Len(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
