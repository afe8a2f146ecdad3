// Package httpapi exposes the cron endpoints and read-only journey status over HTTP.
package httpapi

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/example/brewquest/internal/core/journey"
	"github.com/example/brewquest/internal/ctxutil"
	"github.com/example/brewquest/internal/ports/primary"
	"github.com/example/brewquest/internal/telemetry"
)

// DefaultTimeout bounds one cron invocation when no timeout is configured.
const DefaultTimeout = 60 * time.Second

// Pinger reports whether the backing store is reachable. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Server serves the BrewQuest HTTP API.
type Server struct {
	journey           primary.JourneyService
	publish           primary.PublishService
	cronSecret        string
	allowTimeOverride bool
	timeout           time.Duration
	pinger            Pinger
	metrics           http.Handler
	logger            *slog.Logger
	now               func() time.Time

	mux    *http.ServeMux
	mu     sync.Mutex
	server *http.Server
}

// ServerOption configures the Server.
type ServerOption func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) { s.logger = logger }
}

// WithPinger enables the database check on /api/health.
func WithPinger(p Pinger) ServerOption {
	return func(s *Server) { s.pinger = p }
}

// WithMetricsHandler mounts h on /metrics.
func WithMetricsHandler(h http.Handler) ServerOption {
	return func(s *Server) { s.metrics = h }
}

// WithTimeOverride allows cron callers to pass ?now=RFC3339. Staging only.
func WithTimeOverride(allow bool) ServerOption {
	return func(s *Server) { s.allowTimeOverride = allow }
}

// WithTimeout bounds each cron invocation.
func WithTimeout(d time.Duration) ServerOption {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithClock replaces the wall clock used when no override is given.
func WithClock(now func() time.Time) ServerOption {
	return func(s *Server) { s.now = now }
}

// NewServer creates the HTTP API. An empty cronSecret rejects every cron call.
func NewServer(journeySvc primary.JourneyService, publishSvc primary.PublishService, cronSecret string, opts ...ServerOption) *Server {
	s := &Server{
		journey:    journeySvc,
		publish:    publishSvc,
		cronSecret: cronSecret,
		timeout:    DefaultTimeout,
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/journey/current", s.handleCurrent)
	for _, method := range []string{http.MethodGet, http.MethodPost} {
		mux.HandleFunc(method+" /api/cron/weekly", s.cron("weekly_transition", s.runWeekly))
		mux.HandleFunc(method+" /api/cron/daily", s.cron("daily_publish", s.runDaily))
	}
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}

	s.mux = mux
	return s
}

// Handler returns the HTTP handler for use with httptest or custom servers.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.server = srv
	s.mu.Unlock()

	s.logger.Info("http server starting", "addr", addr)
	return srv.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()

	if srv != nil {
		return srv.Shutdown(ctx)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		if err := s.pinger.PingContext(r.Context()); err != nil {
			s.logger.Warn("health check failed", "error", err)
			respondWithJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	state, err := s.journey.GetCurrentState(r.Context())
	if err != nil {
		s.respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, state)
}

type cronJob func(ctx context.Context, now time.Time) (result any, partialFailure bool, err error)

// cronResponse is the body of a successful cron call.
type cronResponse struct {
	Success        bool   `json:"success"`
	RunID          string `json:"runId"`
	PartialFailure bool   `json:"partialFailure"`
	Result         any    `json:"result"`
}

func (s *Server) cron(job string, run cronJob) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authorized(r) {
			respondWithJSON(w, http.StatusUnauthorized, errorBody{Error: "missing or invalid cron secret", Kind: "Unauthorized"})
			return
		}

		now, err := s.invocationTime(r)
		if err != nil {
			respondWithJSON(w, http.StatusBadRequest, errorBody{Error: err.Error(), Kind: "BadRequest"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
		defer cancel()
		ctx = ctxutil.WithTrigger(ctx, ctxutil.TriggerHTTP)
		ctx = telemetry.WithRunID(ctx, "")
		runID := telemetry.RunID(ctx)
		w.Header().Set("X-Run-ID", runID)

		result, partial, err := run(ctx, now)
		if err != nil {
			telemetry.RunLogger(s.logger, ctx, job).Error("cron invocation failed", "error", err)
			s.respondWithError(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, cronResponse{
			Success:        true,
			RunID:          runID,
			PartialFailure: partial,
			Result:         result,
		})
	}
}

func (s *Server) runWeekly(ctx context.Context, now time.Time) (any, bool, error) {
	result, err := s.journey.RunWeeklyTransition(ctx, now)
	if err != nil {
		return nil, false, err
	}
	return result, result.PartialFailure(), nil
}

func (s *Server) runDaily(ctx context.Context, now time.Time) (any, bool, error) {
	result, err := s.publish.RunDailyPublish(ctx, now)
	if err != nil {
		return nil, false, err
	}
	partial := false
	for _, se := range result.SideEffects {
		if !se.Success {
			partial = true
		}
	}
	return result, partial, nil
}

func (s *Server) authorized(r *http.Request) bool {
	if s.cronSecret == "" {
		return false
	}
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.cronSecret)) == 1
}

func (s *Server) invocationTime(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("now")
	if raw == "" {
		return s.now().UTC(), nil
	}
	if !s.allowTimeOverride {
		return time.Time{}, errors.New("time override is disabled")
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid now %q: want RFC3339", raw)
	}
	return t.UTC(), nil
}

type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Kind    string `json:"kind"`
}

// StatusFor maps a journey error to its HTTP status.
func StatusFor(err error) int {
	switch journey.KindOf(err) {
	case journey.KindNoCurrentState, journey.KindInvalidTransition:
		return http.StatusConflict
	case journey.KindJourneyNotInitialized:
		return http.StatusPreconditionFailed
	case journey.KindNotFound:
		return http.StatusNotFound
	case journey.KindJourneyComplete:
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondWithError(w http.ResponseWriter, err error) {
	code := StatusFor(err)
	s.logger.Warn("api error", "status", code, "kind", journey.KindOf(err), "error", err)
	respondWithJSON(w, code, errorBody{Error: err.Error(), Kind: journey.KindOf(err)})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
