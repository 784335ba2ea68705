// Package statusserver exposes the progress of a running sync over HTTP.
package statusserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"catalog-content-sync/internal/domain"
	"catalog-content-sync/internal/infrastructure/pubsub"
	"catalog-content-sync/internal/ports"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// ActionSource reports the tracked actions of the current run.
type ActionSource interface {
	Actions() []domain.Action
	Report() domain.ActionSummary
}

type Options struct {
	Addr     string
	Actions  ActionSource
	Progress *pubsub.ProgressPubSub
	Runs     ports.RunRepository
	Metrics  http.Handler
	Logger   zerolog.Logger
}

type Server struct {
	opts   Options
	router chi.Router
}

func New(opts Options) *Server {
	s := &Server{opts: opts}
	s.router = s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.opts.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.opts.Metrics != nil {
		r.Handle("/metrics", s.opts.Metrics)
	}
	r.Get("/progress", s.handleProgress)
	r.Get("/progress/stream", s.handleProgressStream)
	r.Get("/runs", s.handleListRuns)
	r.Get("/runs/{runID}", s.handleGetRun)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.opts.Logger.Info().Str("addr", s.opts.Addr).Msg("Starting status server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("status server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("status server shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	if s.opts.Actions == nil {
		writeJSON(w, http.StatusOK, map[string]any{"summary": domain.ActionSummary{}, "actions": []domain.Action{}})
		return
	}

	actions := s.opts.Actions.Actions()
	if family := r.URL.Query().Get("family"); family != "" {
		filtered := actions[:0]
		for _, a := range actions {
			if a.Family == family {
				filtered = append(filtered, a)
			}
		}
		actions = filtered
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"summary": s.opts.Actions.Report(),
		"actions": actions,
	})
}

// handleProgressStream streams progress events as server-sent events.
func (s *Server) handleProgressStream(w http.ResponseWriter, r *http.Request) {
	if s.opts.Progress == nil {
		http.Error(w, "progress stream unavailable", http.StatusServiceUnavailable)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	var filter *pubsub.ProgressFilter
	if families := r.URL.Query().Get("families"); families != "" {
		filter = &pubsub.ProgressFilter{Families: strings.Split(families, ",")}
	}
	sub := s.opts.Progress.Subscribe(r.Context(), filter)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, open := <-sub.Events:
			if !open {
				return
			}
			body, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", body)
			flusher.Flush()
		}
	}
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.opts.Runs == nil {
		writeJSON(w, http.StatusOK, []*domain.RunReport{})
		return
	}
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	runs, err := s.opts.Runs.ListRuns(r.Context(), limit)
	if err != nil {
		s.opts.Logger.Error().Err(err).Msg("Failed to list runs")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list runs"})
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	if s.opts.Runs == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
		return
	}

	run, err := s.opts.Runs.GetRun(r.Context(), runID)
	if err != nil {
		s.opts.Logger.Error().Err(err).Str("runId", runID).Msg("Failed to get run")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get run"})
		return
	}
	if run == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			event := logger.Debug()
			if ww.Status() >= 500 {
				event = logger.Error()
			}
			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Str("requestId", middleware.GetReqID(r.Context())).
				Msg("HTTP request")
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
