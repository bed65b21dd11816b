// Package server implements the tracking ingestion endpoint the client
// delivers to: POST /track plus the read-side usage and quota queries the
// scanner app's profile screen consumes.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/mathlens/snaptrack/internal/event"
	"github.com/mathlens/snaptrack/internal/journal"
	"github.com/mathlens/snaptrack/internal/quota"
)

// Config holds ingestion server configuration.
type Config struct {
	Addr        string
	JWTSecret   string
	Limits      quota.Limits
	HistoryMax  int
	ReadTimeout time.Duration
}

// Server is the ingestion HTTP server.
type Server struct {
	cfg     Config
	journal *journal.Journal
	quota   *quota.Tracker
	auth    *Authenticator
	metrics *metrics
	srv     *http.Server
}

// New creates a Server over an opened journal.
func New(cfg Config, j *journal.Journal) *Server {
	if cfg.HistoryMax <= 0 {
		cfg.HistoryMax = 100
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 10 * time.Second
	}

	s := &Server{
		cfg:     cfg,
		journal: j,
		quota:   quota.NewTracker(cfg.Limits, nil),
		auth:    NewAuthenticator(cfg.JWTSecret, nil),
		metrics: newMetrics(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /track", s.handleTrack)
	mux.HandleFunc("POST /anonymous/token", s.handleAnonymousToken)
	mux.HandleFunc("GET /usage/{user}", s.handleUsage)
	mux.HandleFunc("GET /quota/{user}", s.handleQuota)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.handler())

	s.srv = &http.Server{
		Addr:        cfg.Addr,
		Handler:     mux,
		ReadTimeout: cfg.ReadTimeout,
	}
	return s
}

// Handler exposes the routing for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Auth exposes the authenticator for token bootstrap (CLI, tests).
func (s *Server) Auth() *Authenticator {
	return s.auth
}

// ListenAndServe runs the server until Shutdown.
func (s *Server) ListenAndServe() error {
	return s.srv.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// handleTrack validates, quota-checks, and journals one event.
func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	userID, err := s.auth.Identify(r)
	if err != nil {
		s.metrics.rejected.WithLabelValues("auth").Inc()
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var ev event.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		s.metrics.rejected.WithLabelValues("malformed").Inc()
		writeError(w, http.StatusBadRequest, "malformed event body")
		return
	}
	if err := ev.Validate(); err != nil {
		s.metrics.rejected.WithLabelValues("invalid").Inc()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tokens := tokenSpend(ev)
	if !s.quota.Allow(userID, tokens) {
		s.metrics.rejected.WithLabelValues("quota").Inc()
		writeError(w, http.StatusTooManyRequests, "daily quota exceeded")
		return
	}

	if _, err := s.journal.Append(r.Context(), userID, ev, tokens); err != nil {
		s.metrics.rejected.WithLabelValues("storage").Inc()
		writeError(w, http.StatusInternalServerError, "failed to store event")
		return
	}

	usage := s.quota.Record(userID, tokens)
	s.metrics.ingested.Inc()

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"usage":  usage,
	})
}

// handleAnonymousToken issues a quota-scoped anonymous session token.
func (s *Server) handleAnonymousToken(w http.ResponseWriter, r *http.Request) {
	tok := s.auth.IssueSession()
	writeJSON(w, http.StatusOK, map[string]any{
		"token": tok,
		"usage": s.quota.Snapshot("anon:" + tok),
	})
}

// handleUsage returns history and lifetime totals for one user.
func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	user := r.PathValue("user")

	history, err := s.journal.History(r.Context(), user, s.cfg.HistoryMax)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read history")
		return
	}
	totals, err := s.journal.UserTotals(r.Context(), user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read totals")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"history": history,
		"totals":  totals,
	})
}

// handleQuota returns the live daily usage, alerts, and projection.
func (s *Server) handleQuota(w http.ResponseWriter, r *http.Request) {
	user := r.PathValue("user")

	body := map[string]any{
		"usage":  s.quota.Snapshot(user),
		"alerts": s.quota.Alerts(user),
	}
	if p, ok := s.quota.Project(user); ok {
		body["projection"] = p
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// tokenSpend extracts the token count reported in event metadata.
// Chat and scan events report "tokens"; everything else costs zero.
func tokenSpend(ev event.Event) int64 {
	v, ok := ev.Metadata["tokens"]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case float64:
		if n < 0 {
			return 0
		}
		return int64(n)
	case int64:
		if n < 0 {
			return 0
		}
		return n
	default:
		return 0
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}
