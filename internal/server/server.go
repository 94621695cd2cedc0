// Package server exposes health, metrics and a text preview over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/yn6733212/Market-Snapshot/internal/logging"
	"github.com/yn6733212/Market-Snapshot/internal/model"
	"github.com/yn6733212/Market-Snapshot/internal/recorder"
)

// Previewer composes a report without delivering it.
type Previewer interface {
	Preview(ctx context.Context, now time.Time) (*model.Report, error)
}

// Server is the operator HTTP surface.
type Server struct {
	Addr      string
	Previewer Previewer
	Recorder  recorder.Recorder
	Gatherer  prometheus.Gatherer
	Log       *logrus.Logger
	Now       func() time.Time
}

// New creates a Server. A nil gatherer falls back to the default registry.
func New(addr string, p Previewer, rec recorder.Recorder, g prometheus.Gatherer, log *logrus.Logger) *Server {
	if log == nil {
		log = logging.Discard()
	}
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Server{Addr: addr, Previewer: p, Recorder: rec, Gatherer: g, Log: log, Now: time.Now}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/health", s.health)
	r.Handle("/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	r.Get("/preview", s.preview)
	r.Get("/runs", s.runs)
	return r
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.Log.WithField("addr", s.Addr).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
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
	s.Log.Info("HTTP server stopped")
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.Log.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      ww.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"request_id":  middleware.GetReqID(r.Context()),
		}).Debug("HTTP request")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{"status": "healthy"}
	if runs, err := s.Recorder.RecentRuns(1); err == nil && len(runs) > 0 {
		body["last_run"] = map[string]any{
			"run_id":     runs[0].RunID,
			"status":     runs[0].Status,
			"started_at": runs[0].StartedAt.UTC().Format(time.RFC3339),
		}
	}
	writeJSON(w, http.StatusOK, body)
}

// preview renders the report as plain text. ?at=RFC3339 overrides the clock.
func (s *Server) preview(w http.ResponseWriter, r *http.Request) {
	if s.Previewer == nil {
		http.Error(w, "preview not configured", http.StatusServiceUnavailable)
		return
	}
	now := s.Now()
	if at := r.URL.Query().Get("at"); at != "" {
		t, err := time.Parse(time.RFC3339, at)
		if err != nil {
			http.Error(w, "at must be RFC3339", http.StatusBadRequest)
			return
		}
		now = t
	}

	rep, err := s.Previewer.Preview(r.Context(), now)
	if err != nil {
		s.Log.WithError(err).Warn("Preview failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if len(rep.Degraded()) > 0 {
		w.Header().Set("X-Degraded-Instruments", strconv.Itoa(len(rep.Degraded())))
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(rep.Text()))
}

type runView struct {
	RunID      string   `json:"run_id"`
	StartedAt  string   `json:"started_at"`
	DurationMs int64    `json:"duration_ms"`
	Status     string   `json:"status"`
	Stage      string   `json:"stage,omitempty"`
	Israel     string   `json:"israel"`
	US         string   `json:"us"`
	TextChars  int      `json:"text_chars"`
	Degraded   []string `json:"degraded,omitempty"`
	Error      string   `json:"error,omitempty"`
}

func (s *Server) runs(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			http.Error(w, "limit must be between 1 and 500", http.StatusBadRequest)
			return
		}
		limit = n
	}
	recs, err := s.Recorder.RecentRuns(limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	out := make([]runView, 0, len(recs))
	for _, rec := range recs {
		v := runView{
			RunID:      rec.RunID,
			StartedAt:  rec.StartedAt.UTC().Format(time.RFC3339),
			DurationMs: rec.Duration.Milliseconds(),
			Status:     rec.Status,
			Stage:      rec.Stage,
			Israel:     rec.Israel,
			US:         rec.US,
			TextChars:  rec.TextChars,
			Error:      rec.Error,
		}
		for _, d := range rec.Degraded {
			v.Degraded = append(v.Degraded, d.Key)
		}
		out = append(out, v)
	}
	writeJSON(w, http.StatusOK, out)
}
